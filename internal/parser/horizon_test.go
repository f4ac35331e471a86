package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmerge/internal/schema"
	"salesmerge/pkg/canonical"
)

func newParser(t *testing.T, channel canonical.Channel) Parser {
	t.Helper()
	p, err := ForChannel(schema.NewRegistry(), channel)
	require.NoError(t, err)
	return p
}

func horizonInput(name string, rows [][]string) RawInput {
	return RawInput{
		Channel:     canonical.Horizon,
		Name:        name,
		Sheets:      []Sheet{{Name: name, Rows: rows}},
		Fingerprint: "fp-horizon",
		ReceivedAt:  time.Now().UTC(),
	}
}

var horizonHeader = []string{"Customer", "Prov", "SKU#", "SKU Description", "Quantity", "Sales"}

func TestHorizonParse(t *testing.T) {
	p := newParser(t, canonical.Horizon)

	in := horizonInput("Horizon Sales Mar. 2024.csv", [][]string{
		horizonHeader,
		{"The Hop Shop 03/01/2024 - 03/31/2024", "BC", "SKU-001", "West Coast IPA 6-pack", "10", "$450.00"},
		{"Barley House", "AB", "SKU-002", "Czech Pilsner 12 pk", "4", "$220.00"},
		{"", "BC", "SKU-003", "Pale Ale single", "1", "$5.00"},
		{"Total", "", "", "", "15", "$675.00"},
	})

	res, err := p.Parse(in)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	require.Len(t, res.Diagnostics, 1)

	first := res.Records[0]
	assert.Equal(t, "the hop shop", first.AccountID)
	assert.Equal(t, "The Hop Shop", first.AccountName, "report date range stripped from the name")
	assert.Equal(t, "BC", first.Province)
	assert.Equal(t, "SKU-001", first.ProductID)
	assert.Equal(t, canonical.IPA, first.ProductLine)
	assert.Equal(t, int64(10), first.Quantity)
	assert.Equal(t, 60.0, first.TotalBottles)
	assert.Equal(t, "450", first.Revenue.String())
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), first.OrderDate, "monthly export stamps the first of the month")
	assert.Equal(t, canonical.Horizon, first.Channel)
	assert.Equal(t, "fp-horizon", first.SourceFingerprint)

	diag := res.Diagnostics[0]
	assert.Equal(t, 4, diag.Row)
	assert.Equal(t, "account", diag.Column)
}

func TestHorizonRowDiagnostics(t *testing.T) {
	p := newParser(t, canonical.Horizon)

	in := horizonInput("Horizon Apr 2024.csv", [][]string{
		horizonHeader,
		{"Good Row", "BC", "SKU-001", "IPA 6-pack", "2", "$90.00"},
		{"Blank Sku", "BC", "", "IPA 6-pack", "2", "$90.00"},
		{"Bad Qty", "BC", "SKU-002", "IPA 6-pack", "lots", "$90.00"},
		{"Negative Qty", "BC", "SKU-003", "IPA 6-pack", "-2", "$90.00"},
		{"Bad Sales", "BC", "SKU-004", "IPA 6-pack", "2", "gratis"},
		{"Zero Qty", "BC", "SKU-005", "IPA 6-pack", "0", "$90.00"},
		{"Zero Sales", "BC", "SKU-006", "IPA 6-pack", "2", "$0.00"},
	})

	res, err := p.Parse(in)
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Len(t, res.Diagnostics, 6)
	for _, d := range res.Diagnostics {
		assert.Equal(t, "Horizon Apr 2024.csv", d.Input)
		assert.NotEmpty(t, d.Message)
	}
}

func TestHorizonStructuralMismatch(t *testing.T) {
	p := newParser(t, canonical.Horizon)

	in := horizonInput("Horizon May 2024.csv", [][]string{
		{"Customer", "SKU#", "Sales"}, // quantity and sku description missing
		{"The Hop Shop", "SKU-001", "$450.00"},
	})

	_, err := p.Parse(in)
	require.Error(t, err)

	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, canonical.Horizon, serr.Channel)
	assert.ElementsMatch(t, []string{"sku description", "quantity"}, serr.Missing)
	assert.Contains(t, serr.Found, "customer")
	assert.Contains(t, err.Error(), "sku description")
}

func TestHorizonNoMonthInName(t *testing.T) {
	p := newParser(t, canonical.Horizon)
	in := horizonInput("horizon_latest.csv", [][]string{horizonHeader})
	_, err := p.Parse(in)
	assert.Error(t, err)
}

func TestHorizonEmptyInput(t *testing.T) {
	p := newParser(t, canonical.Horizon)
	_, err := p.Parse(RawInput{Channel: canonical.Horizon, Name: "Horizon Jun 2024.csv"})
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
}
