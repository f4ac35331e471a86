package parser

import (
	"salesmerge/internal/schema"
	"salesmerge/pkg/canonical"
)

// ollieParser handles the Ollie distributor's row-level CSV export, where
// every data row carries its own order date.
type ollieParser struct {
	desc *schema.Descriptor
}

func (p *ollieParser) Channel() canonical.Channel { return canonical.Ollie }

func (p *ollieParser) Parse(in RawInput) (*Result, error) {
	if len(in.Sheets) == 0 || len(in.Sheets[0].Rows) == 0 {
		return nil, &StructuralError{Channel: p.desc.Channel, Input: in.Name, Missing: p.desc.Required}
	}

	sheet := in.Sheets[0]
	idx, serr := checkHeader(p.desc, in.Name, sheet.Rows[0])
	if serr != nil {
		return nil, serr
	}

	rows := trimTotalRows(sheet.Rows[1:])
	records, diags := mapRows(p.desc, in, idx, rows, 2, columnDate)

	// Ollie reports the province as a bare code.
	for i := range records {
		records[i].Province = expandProvince(records[i].Province)
	}
	return &Result{Records: records, Diagnostics: diags}, nil
}
