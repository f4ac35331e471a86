// Package status derives per-account activity classifications from order
// recency across all channels. Statuses are recomputed in full each run.
package status

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"salesmerge/pkg/api"
	"salesmerge/pkg/canonical"
)

// Tier is the categorical activity label.
type Tier string

const (
	TierActive   Tier = "active"
	TierAtRisk   Tier = "at_risk"
	TierInactive Tier = "inactive"
)

// Thresholds are the tier boundaries in days. Business policy, not an
// engineering invariant; both come from the profile.
type Thresholds struct {
	ActiveWithinDays int
	AtRiskWithinDays int
}

// DefaultThresholds matches the distributor team's standing rule.
func DefaultThresholds() Thresholds {
	return Thresholds{ActiveWithinDays: 90, AtRiskWithinDays: 180}
}

func (t Thresholds) validate() error {
	if t.ActiveWithinDays <= 0 || t.AtRiskWithinDays <= t.ActiveWithinDays {
		return fmt.Errorf("invalid thresholds: need 0 < active (%d) < at_risk (%d)",
			t.ActiveWithinDays, t.AtRiskWithinDays)
	}
	return nil
}

// Tier assigns the label for a recency. Boundaries are inclusive on the
// recent side: days == ActiveWithinDays is still active.
func (t Thresholds) Tier(daysSince int) Tier {
	switch {
	case daysSince <= t.ActiveWithinDays:
		return TierActive
	case daysSince <= t.AtRiskWithinDays:
		return TierAtRisk
	default:
		return TierInactive
	}
}

// AccountStatus is one row of the status report.
type AccountStatus struct {
	AccountID          string
	AccountName        string
	LastOrderDate      time.Time
	DaysSinceLastOrder int
	Tier               Tier
	TotalRevenue       decimal.Decimal
	TotalQuantity      int64
	TotalBottles       float64
}

// Compute scores every distinct account in the dataset as of the run
// timestamp. Output is sorted by account id for a stable artifact. Accounts
// that somehow carry no valid order date are excluded and reported.
func Compute(dataset *canonical.Dataset, asOf time.Time, thresholds Thresholds) ([]AccountStatus, []api.Diagnostic, error) {
	if err := thresholds.validate(); err != nil {
		return nil, nil, err
	}

	byAccount := make(map[string]*AccountStatus)
	for _, rec := range dataset.Records() {
		st, ok := byAccount[rec.AccountID]
		if !ok {
			st = &AccountStatus{
				AccountID:    rec.AccountID,
				AccountName:  rec.AccountName,
				TotalRevenue: decimal.Zero,
			}
			byAccount[rec.AccountID] = st
		}
		if rec.OrderDate.After(st.LastOrderDate) {
			st.LastOrderDate = rec.OrderDate
			st.AccountName = rec.AccountName
		}
		st.TotalRevenue = st.TotalRevenue.Add(rec.Revenue)
		st.TotalQuantity += rec.Quantity
		st.TotalBottles += rec.TotalBottles
	}

	var out []AccountStatus
	var diags []api.Diagnostic
	for _, st := range byAccount {
		if st.LastOrderDate.IsZero() {
			diags = append(diags, api.Diagnostic{
				Message: fmt.Sprintf("account %q has no valid order rows, excluded from status", st.AccountID),
			})
			continue
		}
		st.DaysSinceLastOrder = int(asOf.Sub(st.LastOrderDate).Hours() / 24)
		st.Tier = thresholds.Tier(st.DaysSinceLastOrder)
		out = append(out, *st)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].AccountID < out[j].AccountID })
	return out, diags, nil
}
