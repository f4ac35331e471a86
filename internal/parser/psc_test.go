package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmerge/pkg/canonical"
)

var pscHeader = []string{"Customer", "Prov", "SKU#", "SKU Description", "Qty", "Sales"}

func pscInput(sheets []Sheet) RawInput {
	return RawInput{
		Channel:     canonical.PSC,
		Name:        "PSC Workbook 2024.xlsx",
		Sheets:      sheets,
		Fingerprint: "fp-psc",
		ReceivedAt:  time.Now().UTC(),
	}
}

func TestPSCParsesEverySheet(t *testing.T) {
	p := newParser(t, canonical.PSC)

	in := pscInput([]Sheet{
		{Name: "Jan 2024", Rows: [][]string{
			pscHeader,
			{"The Hop Shop", "BC", "SKU-001", "Pale Ale 6-pack", "3", "$120.00"},
		}},
		{Name: "Feb 2024", Rows: [][]string{
			pscHeader,
			{"The Hop Shop", "BC", "SKU-001", "Pale Ale 6-pack", "5", "$200.00"},
			{"Total", "", "", "", "5", "$200.00"},
		}},
	})

	res, err := p.Parse(in)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Empty(t, res.Diagnostics)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), res.Records[0].OrderDate)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), res.Records[1].OrderDate)
	assert.Equal(t, canonical.PSC, res.Records[0].Channel)
}

func TestPSCSkipsUnrecognizedSheets(t *testing.T) {
	p := newParser(t, canonical.PSC)

	in := pscInput([]Sheet{
		{Name: "Mar 2024", Rows: [][]string{
			pscHeader,
			{"Barley House", "AB", "SKU-002", "Pilsner 12 pk", "2", "$88.00"},
		}},
		{Name: "Notes", Rows: [][]string{{"internal scratch sheet"}}},
		{Name: "Apr 2024", Rows: nil},
	})

	res, err := p.Parse(in)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	require.Len(t, res.Diagnostics, 2)
	assert.Contains(t, res.Diagnostics[0].Message, "Notes")
	assert.Contains(t, res.Diagnostics[1].Message, "empty sheet")
}

func TestPSCBadHeaderRejectsWholeFile(t *testing.T) {
	p := newParser(t, canonical.PSC)

	in := pscInput([]Sheet{
		{Name: "Jan 2024", Rows: [][]string{
			pscHeader,
			{"The Hop Shop", "BC", "SKU-001", "Pale Ale 6-pack", "3", "$120.00"},
		}},
		{Name: "Feb 2024", Rows: [][]string{
			{"Customer", "Sales"}, // structurally broken sheet
			{"The Hop Shop", "$200.00"},
		}},
	})

	_, err := p.Parse(in)
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Missing, "qty")
}

func TestPSCNoUsableSheets(t *testing.T) {
	p := newParser(t, canonical.PSC)

	in := pscInput([]Sheet{
		{Name: "Cover", Rows: [][]string{{"PSC annual summary"}}},
	})
	_, err := p.Parse(in)
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "no month-named sheets", serr.Reason)
	assert.Empty(t, serr.Missing, "Missing is reserved for the column diff")

	_, err = p.Parse(pscInput(nil))
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "workbook has no sheets", serr.Reason)
	assert.Empty(t, serr.Missing)
}
