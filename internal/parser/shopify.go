package parser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesmerge/internal/schema"
	"salesmerge/pkg/api"
	"salesmerge/pkg/canonical"
	"salesmerge/pkg/util"
)

// shopifyParser handles the e-commerce feed: a sequence of JSON order pages.
// Same canonicalization and row-diagnostics contract as the spreadsheet
// parsers; the "columns" checked structurally are the order object's keys.
type shopifyParser struct {
	desc *schema.Descriptor
}

type shopifyOrder struct {
	ID              int64  `json:"id"`
	CreatedAt       string `json:"created_at"`
	TotalPrice      string `json:"total_price"`
	FinancialStatus string `json:"financial_status"`
	Customer        struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	} `json:"customer"`
	ShippingAddress struct {
		ProvinceCode string `json:"province_code"`
	} `json:"shipping_address"`
	LineItems []struct {
		Name     string `json:"name"`
		SKU      string `json:"sku"`
		Quantity int64  `json:"quantity"`
	} `json:"line_items"`
}

func (p *shopifyParser) Channel() canonical.Channel { return canonical.Shopify }

func (p *shopifyParser) Parse(in RawInput) (*Result, error) {
	if len(in.Pages) == 0 {
		return nil, &StructuralError{Channel: p.desc.Channel, Input: in.Name, Missing: p.desc.Required}
	}

	res := &Result{}
	orderNum := 0

	for pageNum, page := range in.Pages {
		var envelope struct {
			Orders []json.RawMessage `json:"orders"`
		}
		if err := json.Unmarshal(page, &envelope); err != nil {
			return nil, fmt.Errorf("shopify page %d of %s: %w", pageNum+1, in.Name, err)
		}

		for _, raw := range envelope.Orders {
			orderNum++
			if serr := p.checkOrderKeys(in.Name, raw); serr != nil {
				return nil, serr
			}

			var order shopifyOrder
			if err := json.Unmarshal(raw, &order); err != nil {
				return nil, fmt.Errorf("shopify order %d of %s: %w", orderNum, in.Name, err)
			}
			records, diags := p.mapOrder(in, orderNum, order)
			res.Records = append(res.Records, records...)
			res.Diagnostics = append(res.Diagnostics, diags...)
		}
	}
	return res, nil
}

// checkOrderKeys verifies the required keys of one order object. The feed is
// field-filtered server side, so a missing key means the collaborator's
// query drifted from the registry, not a bad row.
func (p *shopifyParser) checkOrderKeys(input string, raw json.RawMessage) *StructuralError {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return &StructuralError{Channel: p.desc.Channel, Input: input, Missing: p.desc.Required}
	}
	var missing []string
	for _, req := range p.desc.Required {
		if _, ok := keys[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	found := make([]string, 0, len(keys))
	for k := range keys {
		found = append(found, k)
	}
	sort.Strings(found)
	return &StructuralError{Channel: p.desc.Channel, Input: input, Missing: missing, Found: found}
}

func (p *shopifyParser) mapOrder(in RawInput, orderNum int, order shopifyOrder) ([]canonical.Record, []api.Diagnostic) {
	var records []canonical.Record
	var diags []api.Diagnostic

	diag := func(col, msg string) {
		diags = append(diags, api.Diagnostic{Input: in.Name, Row: orderNum, Column: col, Message: msg})
	}

	created, err := time.Parse(time.RFC3339, order.CreatedAt)
	if err != nil {
		diag("created_at", fmt.Sprintf("unparseable date %q", order.CreatedAt))
		return nil, diags
	}
	orderDate := time.Date(created.Year(), created.Month(), created.Day(), 0, 0, 0, 0, time.UTC)

	total, err := decimal.NewFromString(strings.TrimSpace(order.TotalPrice))
	if err != nil {
		diag("total_price", fmt.Sprintf("unparseable total %q", order.TotalPrice))
		return nil, diags
	}

	name := strings.TrimSpace(order.Customer.FirstName + " " + order.Customer.LastName)
	if name == "" {
		name = "Guest"
	}
	province := expandProvince(order.ShippingAddress.ProvinceCode)

	for _, item := range order.LineItems {
		if item.SKU == "" {
			diag("sku", fmt.Sprintf("line item %q has no sku", item.Name))
			continue
		}
		if item.Quantity < 0 {
			diag("quantity", fmt.Sprintf("negative quantity %d", item.Quantity))
			continue
		}
		if item.Quantity == 0 || total.IsZero() {
			diag("quantity", "zero quantity or sales, line dropped")
			continue
		}

		rec := canonical.Record{
			AccountID:         normalizeAccountID(name),
			AccountName:       name,
			Province:          province,
			ProductID:         item.SKU,
			ProductName:       item.Name,
			ProductLine:       ClassifyProductLine(item.Name),
			Quantity:          item.Quantity,
			Revenue:           total,
			OrderDate:         orderDate,
			Channel:           canonical.Shopify,
			SourceFingerprint: in.Fingerprint,
		}
		if size, ok := util.ExtractPackSize(item.Name); ok {
			rec.TotalBottles = size.TotalBottles(float64(item.Quantity))
		}
		records = append(records, rec)
	}
	return records, diags
}
