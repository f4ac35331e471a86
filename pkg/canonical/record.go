// Package canonical defines the unified sales schema all source channels
// are mapped into, and the dataset that holds merged records across runs.
package canonical

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies one of the four data sources.
type Channel string

const (
	Horizon Channel = "horizon"
	PSC     Channel = "psc"
	Ollie   Channel = "ollie"
	Shopify Channel = "shopify"
)

// Channels lists every known channel in registry order.
func Channels() []Channel {
	return []Channel{Horizon, PSC, Ollie, Shopify}
}

// ProductLine is the product family derived from the SKU description.
type ProductLine string

const (
	PaleAle   ProductLine = "Pale Ale"
	Pilsner   ProductLine = "Pilsner"
	IPA       ProductLine = "IPA"
	DarkLager ProductLine = "Dark Lager"
	OtherLine ProductLine = "Other"
)

// Record is one row of normalized sales data.
type Record struct {
	AccountID         string          `json:"account_id"`
	AccountName       string          `json:"account_name"`
	Province          string          `json:"province"`
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	ProductLine       ProductLine     `json:"product_line"`
	Quantity          int64           `json:"quantity"`
	TotalBottles      float64         `json:"total_bottles"`
	Revenue           decimal.Decimal `json:"revenue"`
	OrderDate         time.Time       `json:"order_date"`
	Channel           Channel         `json:"channel"`
	SourceFingerprint string          `json:"source_fingerprint"`
}

// Key is the composite identity used for duplicate collapsing during merge.
type Key struct {
	AccountID string
	ProductID string
	OrderDate string // yyyy-mm-dd
	Channel   Channel
}

// Key returns the record's composite key.
func (r Record) Key() Key {
	return Key{
		AccountID: r.AccountID,
		ProductID: r.ProductID,
		OrderDate: r.OrderDate.Format("2006-01-02"),
		Channel:   r.Channel,
	}
}

// Validate checks the record invariants against the run timestamp.
func (r Record) Validate(asOf time.Time) error {
	if r.AccountID == "" {
		return fmt.Errorf("record has empty account id")
	}
	if r.ProductID == "" {
		return fmt.Errorf("record has empty product id")
	}
	if r.Quantity < 0 {
		return fmt.Errorf("record has negative quantity %d", r.Quantity)
	}
	if r.OrderDate.IsZero() {
		return fmt.Errorf("record has no order date")
	}
	if r.OrderDate.After(asOf) {
		return fmt.Errorf("order date %s is after run timestamp %s",
			r.OrderDate.Format("2006-01-02"), asOf.Format("2006-01-02"))
	}
	return nil
}
