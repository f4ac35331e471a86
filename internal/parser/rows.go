package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salesmerge/internal/schema"
	"salesmerge/pkg/api"
	"salesmerge/pkg/canonical"
	"salesmerge/pkg/util"
)

// columnIndex maps canonical fields to their position in a header row.
type columnIndex map[schema.Field]int

func indexColumns(desc *schema.Descriptor, header []string) columnIndex {
	idx := make(columnIndex)
	for pos, col := range header {
		if f, ok := desc.FieldFor(col); ok {
			if _, seen := idx[f]; !seen {
				idx[f] = pos
			}
		}
	}
	return idx
}

func (c columnIndex) value(row []string, f schema.Field) string {
	pos, ok := c[f]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// checkHeader validates a header row against the descriptor and returns the
// column index, or a StructuralError naming the missing columns.
func checkHeader(desc *schema.Descriptor, input string, header []string) (columnIndex, *StructuralError) {
	if missing := desc.MissingColumns(header); len(missing) > 0 {
		found := make([]string, 0, len(header))
		for _, h := range header {
			if n := schema.Normalize(h); n != "" {
				found = append(found, n)
			}
		}
		return nil, &StructuralError{
			Channel: desc.Channel,
			Input:   input,
			Missing: missing,
			Found:   found,
		}
	}
	return indexColumns(desc, header), nil
}

// isTotalRow reports whether a trailing row is a vendor summary ("total"
// marker or entirely blank) and should be dropped rather than diagnosed.
func isTotalRow(row []string) bool {
	blank := true
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			blank = false
			break
		}
	}
	if blank {
		return true
	}
	return strings.Contains(strings.ToLower(strings.TrimSpace(row[0])), "total")
}

// normalizeAccountID derives the stable account identifier from a display
// name: lower case, collapsed whitespace.
func normalizeAccountID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

func parseQuantity(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	// Vendors export whole counts as floats ("42.0"); anything with a real
	// fractional part is a bad cell, not a quantity to round.
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable quantity %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("non-integral quantity %q", s)
	}
	return int64(f), nil
}

func parseRevenue(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty sales amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unparseable sales amount %q", s)
	}
	return d, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// rowDate picks the order date for a data row: either from the date column
// or, for monthly exports, a fixed first-of-month derived from the file or
// sheet name.
type rowDate func(idx columnIndex, row []string) (time.Time, error)

func fixedDate(t time.Time) rowDate {
	return func(columnIndex, []string) (time.Time, error) { return t, nil }
}

func columnDate(idx columnIndex, row []string) (time.Time, error) {
	return parseDate(idx.value(row, schema.FieldOrderDate))
}

// mapRows converts data rows into canonical records, collecting row-level
// diagnostics for rows that cannot become valid records. Zero-quantity and
// zero-revenue rows are vendor noise and are skipped with a diagnostic too.
func mapRows(desc *schema.Descriptor, in RawInput, idx columnIndex, rows [][]string, firstRowNum int, date rowDate) ([]canonical.Record, []api.Diagnostic) {
	var records []canonical.Record
	var diags []api.Diagnostic

	diag := func(row int, col, msg string) {
		diags = append(diags, api.Diagnostic{
			Input: in.Name, Row: row, Column: col, Message: msg,
		})
	}

	for i, row := range rows {
		rowNum := firstRowNum + i

		name := cleanAccountName(idx.value(row, schema.FieldAccountName))
		if name == "" {
			diag(rowNum, "account", "blank account identifier")
			continue
		}

		productID := idx.value(row, schema.FieldProductID)
		if productID == "" {
			diag(rowNum, "sku", "blank product identifier")
			continue
		}

		qty, err := parseQuantity(idx.value(row, schema.FieldQuantity))
		if err != nil {
			diag(rowNum, "quantity", err.Error())
			continue
		}
		if qty < 0 {
			diag(rowNum, "quantity", fmt.Sprintf("negative quantity %d", qty))
			continue
		}

		revenue, err := parseRevenue(idx.value(row, schema.FieldRevenue))
		if err != nil {
			diag(rowNum, "sales", err.Error())
			continue
		}

		if qty == 0 || revenue.IsZero() {
			diag(rowNum, "quantity", "zero quantity or sales, row dropped")
			continue
		}

		orderDate, err := date(idx, row)
		if err != nil {
			diag(rowNum, "date", err.Error())
			continue
		}

		productName := idx.value(row, schema.FieldProductName)

		rec := canonical.Record{
			AccountID:         normalizeAccountID(name),
			AccountName:       name,
			Province:          idx.value(row, schema.FieldProvince),
			ProductID:         productID,
			ProductName:       productName,
			ProductLine:       ClassifyProductLine(productName),
			Quantity:          qty,
			Revenue:           revenue,
			OrderDate:         orderDate,
			Channel:           desc.Channel,
			SourceFingerprint: in.Fingerprint,
		}
		if size, ok := util.ExtractPackSize(productName); ok {
			rec.TotalBottles = size.TotalBottles(float64(qty))
		}
		records = append(records, rec)
	}

	return records, diags
}

var (
	reDateRange = regexp.MustCompile(`\d{2}/\d{2}/\d{4}\s*-\s*\d{2}/\d{2}/\d{4}`)
	reDateOnly  = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
)

// cleanAccountName strips embedded report date ranges and newlines that some
// vendors append to the customer cell.
func cleanAccountName(s string) string {
	s = reDateRange.ReplaceAllString(s, "")
	s = reDateOnly.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}
