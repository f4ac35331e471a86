// Package artifact serializes the merged dataset and the account-status
// table into versioned, timestamped snapshots. Serialization format and
// column order are fixed per artifact kind: downstream consumers rely on it.
package artifact

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"salesmerge/internal/status"
	"salesmerge/pkg/canonical"
)

// Kind names an artifact family.
type Kind string

const (
	KindDataset Kind = "combined_sales"
	KindStatus  Kind = "account_status"
)

// TimestampLayout is ISO-8601 without colons, so names sort chronologically.
const TimestampLayout = "20060102T150405Z"

// Artifact is one immutable output snapshot.
type Artifact struct {
	Kind        Kind
	Name        string
	GeneratedAt time.Time
	Data        []byte
}

var datasetHeader = []string{
	"account_id", "account_name", "province", "product_id", "product_name",
	"product_line", "quantity", "total_bottles", "revenue", "order_date",
	"channel", "source_fingerprint",
}

var statusHeader = []string{
	"account_id", "account_name", "last_order_date", "days_since_last_order",
	"tier", "total_revenue", "total_quantity", "total_bottles",
}

func name(kind Kind, runTS time.Time) string {
	return fmt.Sprintf("%s_%s.csv", kind, runTS.UTC().Format(TimestampLayout))
}

// BuildDataset serializes the merged dataset in insertion order.
func BuildDataset(dataset *canonical.Dataset, runTS time.Time) (*Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(datasetHeader); err != nil {
		return nil, err
	}
	for _, r := range dataset.Records() {
		row := []string{
			r.AccountID,
			r.AccountName,
			r.Province,
			r.ProductID,
			r.ProductName,
			string(r.ProductLine),
			strconv.FormatInt(r.Quantity, 10),
			strconv.FormatFloat(r.TotalBottles, 'f', -1, 64),
			r.Revenue.String(),
			r.OrderDate.Format("2006-01-02"),
			string(r.Channel),
			r.SourceFingerprint,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to serialize dataset: %w", err)
	}
	return &Artifact{Kind: KindDataset, Name: name(KindDataset, runTS), GeneratedAt: runTS, Data: buf.Bytes()}, nil
}

// BuildStatuses serializes the account-status table.
func BuildStatuses(statuses []status.AccountStatus, runTS time.Time) (*Artifact, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(statusHeader); err != nil {
		return nil, err
	}
	for _, s := range statuses {
		row := []string{
			s.AccountID,
			s.AccountName,
			s.LastOrderDate.Format("2006-01-02"),
			strconv.Itoa(s.DaysSinceLastOrder),
			string(s.Tier),
			s.TotalRevenue.String(),
			strconv.FormatInt(s.TotalQuantity, 10),
			strconv.FormatFloat(s.TotalBottles, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to serialize statuses: %w", err)
	}
	return &Artifact{Kind: KindStatus, Name: name(KindStatus, runTS), GeneratedAt: runTS, Data: buf.Bytes()}, nil
}

// ParseDataset reads a dataset artifact back into records. Used for the
// round-trip contract and to load the merge baseline from a snapshot.
func ParseDataset(r io.Reader) ([]canonical.Record, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset artifact: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("dataset artifact has no header")
	}
	if len(rows[0]) != len(datasetHeader) {
		return nil, fmt.Errorf("dataset artifact has %d columns, want %d", len(rows[0]), len(datasetHeader))
	}

	records := make([]canonical.Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		qty, err := strconv.ParseInt(row[6], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("dataset artifact row %d: bad quantity: %w", i+2, err)
		}
		bottles, err := strconv.ParseFloat(row[7], 64)
		if err != nil {
			return nil, fmt.Errorf("dataset artifact row %d: bad bottle count: %w", i+2, err)
		}
		revenue, err := decimal.NewFromString(row[8])
		if err != nil {
			return nil, fmt.Errorf("dataset artifact row %d: bad revenue: %w", i+2, err)
		}
		orderDate, err := time.Parse("2006-01-02", row[9])
		if err != nil {
			return nil, fmt.Errorf("dataset artifact row %d: bad order date: %w", i+2, err)
		}
		records = append(records, canonical.Record{
			AccountID:         row[0],
			AccountName:       row[1],
			Province:          row[2],
			ProductID:         row[3],
			ProductName:       row[4],
			ProductLine:       canonical.ProductLine(row[5]),
			Quantity:          qty,
			TotalBottles:      bottles,
			Revenue:           revenue,
			OrderDate:         orderDate,
			Channel:           canonical.Channel(row[10]),
			SourceFingerprint: row[11],
		})
	}
	return records, nil
}
