package schema

import "salesmerge/pkg/canonical"

// Horizon exports one CSV per month; the order date comes from the file name
// and the trailing rows may be vendor totals.
func horizonDescriptor() *Descriptor {
	return &Descriptor{
		Channel:      canonical.Horizon,
		Required:     []string{"customer", "sku#", "sku description", "quantity", "sales"},
		Optional:     []string{"prov", "postal", "code", "brand", "status", "upc"},
		DateFromName: true,
		FieldMap: map[string]Field{
			"customer":        FieldAccountName,
			"sku#":            FieldProductID,
			"sku description": FieldProductName,
			"quantity":        FieldQuantity,
			"sales":           FieldRevenue,
			"prov":            FieldProvince,
		},
	}
}

// PSC ships one workbook with a sheet per month; the sheet name carries the
// month and year.
func pscDescriptor() *Descriptor {
	return &Descriptor{
		Channel:      canonical.PSC,
		Required:     []string{"customer", "sku#", "sku description", "qty", "sales"},
		Optional:     []string{"prov", "broker", "code", "brand", "upc"},
		DateFromName: true,
		FieldMap: map[string]Field{
			"customer":        FieldAccountName,
			"sku#":            FieldProductID,
			"sku description": FieldProductName,
			"qty":             FieldQuantity,
			"sales":           FieldRevenue,
			"prov":            FieldProvince,
		},
	}
}

// Ollie exports row-level CSVs with a real date column.
func ollieDescriptor() *Descriptor {
	return &Descriptor{
		Channel:  canonical.Ollie,
		Required: []string{"date", "buyer", "variant name", "sku", "quantity", "total"},
		Optional: []string{"customer type", "address1", "city", "state", "zip/postal code"},
		FieldMap: map[string]Field{
			"date":         FieldOrderDate,
			"buyer":        FieldAccountName,
			"variant name": FieldProductName,
			"sku":          FieldProductID,
			"quantity":     FieldQuantity,
			"total":        FieldRevenue,
			"state":        FieldProvince,
		},
	}
}

// Shopify is the API feed; "columns" here are the required JSON keys of an
// order object rather than spreadsheet headers.
func shopifyDescriptor() *Descriptor {
	return &Descriptor{
		Channel:  canonical.Shopify,
		Required: []string{"id", "created_at", "line_items"},
		Optional: []string{"total_price", "customer", "shipping_address", "source_name", "financial_status"},
		FieldMap: map[string]Field{
			"created_at":  FieldOrderDate,
			"line_items":  FieldProductName,
			"total_price": FieldRevenue,
		},
	}
}
