package parser

import (
	"fmt"

	"salesmerge/internal/schema"
	"salesmerge/pkg/canonical"
)

// horizonParser handles the Horizon distributor's monthly CSV export: one
// sheet, header first, order date from the file name, trailing total rows.
type horizonParser struct {
	desc *schema.Descriptor
}

func (p *horizonParser) Channel() canonical.Channel { return canonical.Horizon }

func (p *horizonParser) Parse(in RawInput) (*Result, error) {
	if len(in.Sheets) == 0 || len(in.Sheets[0].Rows) == 0 {
		return nil, &StructuralError{Channel: p.desc.Channel, Input: in.Name, Missing: p.desc.Required}
	}

	month, err := monthFromName(in.Name)
	if err != nil {
		return nil, fmt.Errorf("horizon file %s: %w", in.Name, err)
	}

	sheet := in.Sheets[0]
	idx, serr := checkHeader(p.desc, in.Name, sheet.Rows[0])
	if serr != nil {
		return nil, serr
	}

	rows := trimTotalRows(sheet.Rows[1:])
	records, diags := mapRows(p.desc, in, idx, rows, 2, fixedDate(month))
	return &Result{Records: records, Diagnostics: diags}, nil
}

// trimTotalRows drops trailing vendor summary rows.
func trimTotalRows(rows [][]string) [][]string {
	for len(rows) > 0 && isTotalRow(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows
}
