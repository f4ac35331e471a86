package status

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesmerge/pkg/canonical"
)

var asOf = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

func rec(account string, daysAgo int, revenue int64, qty int64, bottles float64) canonical.Record {
	return canonical.Record{
		AccountID:    account,
		AccountName:  account,
		ProductID:    "sku-1",
		Quantity:     qty,
		TotalBottles: bottles,
		Revenue:      decimal.NewFromInt(revenue),
		OrderDate:    asOf.AddDate(0, 0, -daysAgo),
		Channel:      canonical.Horizon,
	}
}

func TestTierBoundaries(t *testing.T) {
	th := Thresholds{ActiveWithinDays: 30, AtRiskWithinDays: 60}

	assert.Equal(t, TierActive, th.Tier(0))
	assert.Equal(t, TierActive, th.Tier(29))
	assert.Equal(t, TierActive, th.Tier(30), "boundary day is inclusive")
	assert.Equal(t, TierAtRisk, th.Tier(31))
	assert.Equal(t, TierAtRisk, th.Tier(60))
	assert.Equal(t, TierInactive, th.Tier(61))
}

func TestDefaultThresholds(t *testing.T) {
	th := DefaultThresholds()
	assert.Equal(t, 90, th.ActiveWithinDays)
	assert.Equal(t, 180, th.AtRiskWithinDays)
}

func TestComputeAggregatesPerAccount(t *testing.T) {
	d := canonical.FromRecords([]canonical.Record{
		rec("acme", 200, 100, 10, 60),
		rec("acme", 10, 50, 5, 30), // newer order pulls acme into active
		rec("bravo", 120, 75, 3, 0),
	})

	statuses, diags, err := Compute(d, asOf, DefaultThresholds())
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, statuses, 2)

	acme := statuses[0]
	assert.Equal(t, "acme", acme.AccountID)
	assert.Equal(t, 10, acme.DaysSinceLastOrder)
	assert.Equal(t, TierActive, acme.Tier)
	assert.Equal(t, "150", acme.TotalRevenue.String())
	assert.Equal(t, int64(15), acme.TotalQuantity)
	assert.Equal(t, 90.0, acme.TotalBottles)

	bravo := statuses[1]
	assert.Equal(t, TierAtRisk, bravo.Tier)
	assert.Equal(t, 120, bravo.DaysSinceLastOrder)
}

func TestComputeSortsByAccountID(t *testing.T) {
	d := canonical.FromRecords([]canonical.Record{
		rec("zulu", 5, 10, 1, 0),
		rec("alpha", 5, 10, 1, 0),
		rec("mike", 5, 10, 1, 0),
	})
	statuses, _, err := Compute(d, asOf, DefaultThresholds())
	require.NoError(t, err)
	ids := []string{}
	for _, s := range statuses {
		ids = append(ids, s.AccountID)
	}
	assert.Equal(t, []string{"alpha", "mike", "zulu"}, ids)
}

func TestComputeExcludesAccountsWithoutValidDates(t *testing.T) {
	broken := canonical.Record{
		AccountID: "ghost",
		ProductID: "sku-1",
		Quantity:  1,
		Revenue:   decimal.NewFromInt(10),
		Channel:   canonical.Horizon,
	}
	d := canonical.FromRecords([]canonical.Record{rec("acme", 5, 10, 1, 0), broken})

	statuses, diags, err := Compute(d, asOf, DefaultThresholds())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, "acme", statuses[0].AccountID)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "ghost")
}

func TestComputeRejectsBadThresholds(t *testing.T) {
	d := canonical.NewDataset()
	_, _, err := Compute(d, asOf, Thresholds{ActiveWithinDays: 0, AtRiskWithinDays: 60})
	assert.Error(t, err)
	_, _, err = Compute(d, asOf, Thresholds{ActiveWithinDays: 90, AtRiskWithinDays: 90})
	assert.Error(t, err)
	_, _, err = Compute(d, asOf, Thresholds{ActiveWithinDays: 90, AtRiskWithinDays: 30})
	assert.Error(t, err)
}

func TestComputeEmptyDataset(t *testing.T) {
	statuses, diags, err := Compute(canonical.NewDataset(), asOf, DefaultThresholds())
	require.NoError(t, err)
	assert.Empty(t, statuses)
	assert.Empty(t, diags)
}
