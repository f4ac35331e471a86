package parser

import (
	"fmt"

	"salesmerge/internal/schema"
	"salesmerge/pkg/api"
	"salesmerge/pkg/canonical"
)

// pscParser handles the PSC workbook: one sheet per month, the sheet name
// carrying month and year. Sheets with unrecognizable names are skipped with
// a diagnostic; a sheet with a bad header fails the whole file, since a
// structurally invalid input must not merge partially.
type pscParser struct {
	desc *schema.Descriptor
}

func (p *pscParser) Channel() canonical.Channel { return canonical.PSC }

func (p *pscParser) Parse(in RawInput) (*Result, error) {
	if len(in.Sheets) == 0 {
		return nil, &StructuralError{Channel: p.desc.Channel, Input: in.Name, Reason: "workbook has no sheets"}
	}

	res := &Result{}
	parsedAny := false

	for _, sheet := range in.Sheets {
		month, err := monthFromName(sheet.Name)
		if err != nil {
			res.Diagnostics = append(res.Diagnostics, api.Diagnostic{
				Input:   in.Name,
				Message: fmt.Sprintf("skipping sheet %q: %v", sheet.Name, err),
			})
			continue
		}
		if len(sheet.Rows) == 0 {
			res.Diagnostics = append(res.Diagnostics, api.Diagnostic{
				Input:   in.Name,
				Message: fmt.Sprintf("skipping empty sheet %q", sheet.Name),
			})
			continue
		}

		idx, serr := checkHeader(p.desc, in.Name, sheet.Rows[0])
		if serr != nil {
			return nil, serr
		}

		rows := trimTotalRows(sheet.Rows[1:])
		records, diags := mapRows(p.desc, in, idx, rows, 2, fixedDate(month))
		res.Records = append(res.Records, records...)
		res.Diagnostics = append(res.Diagnostics, diags...)
		parsedAny = true
	}

	if !parsedAny {
		return nil, &StructuralError{Channel: p.desc.Channel, Input: in.Name, Reason: "no month-named sheets"}
	}
	return res, nil
}
