package canonical

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(account, product, date string, channel Channel, qty int64) Record {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return Record{
		AccountID:   account,
		AccountName: account,
		ProductID:   product,
		Quantity:    qty,
		Revenue:     decimal.NewFromInt(qty * 10),
		OrderDate:   d,
		Channel:     channel,
	}
}

func TestPutAppendsNewKeys(t *testing.T) {
	d := NewDataset()
	assert.False(t, d.Put(rec("acme", "sku-1", "2024-03-01", Horizon, 5)))
	assert.False(t, d.Put(rec("acme", "sku-2", "2024-03-01", Horizon, 5)))
	assert.False(t, d.Put(rec("acme", "sku-1", "2024-04-01", Horizon, 5)))
	assert.False(t, d.Put(rec("acme", "sku-1", "2024-03-01", PSC, 5)))
	assert.Equal(t, 4, d.Len())
}

func TestPutReplacesInPlace(t *testing.T) {
	d := NewDataset()
	d.Put(rec("acme", "sku-1", "2024-03-01", Horizon, 5))
	d.Put(rec("bravo", "sku-1", "2024-03-01", Horizon, 2))

	replaced := d.Put(rec("acme", "sku-1", "2024-03-01", Horizon, 9))
	assert.True(t, replaced)
	assert.Equal(t, 2, d.Len())

	// Replacement keeps the original insertion position.
	records := d.Records()
	assert.Equal(t, "acme", records[0].AccountID)
	assert.Equal(t, int64(9), records[0].Quantity)
	assert.Equal(t, "bravo", records[1].AccountID)
}

func TestFromRecordsCollapsesDuplicates(t *testing.T) {
	d := FromRecords([]Record{
		rec("acme", "sku-1", "2024-03-01", Horizon, 1),
		rec("acme", "sku-1", "2024-03-01", Horizon, 2),
		rec("acme", "sku-1", "2024-03-01", Horizon, 3),
	})
	require.Equal(t, 1, d.Len())

	got, ok := d.Get(Key{AccountID: "acme", ProductID: "sku-1", OrderDate: "2024-03-01", Channel: Horizon})
	require.True(t, ok)
	assert.Equal(t, int64(3), got.Quantity, "last write wins")
}

func TestRecordsReturnsCopy(t *testing.T) {
	d := FromRecords([]Record{rec("acme", "sku-1", "2024-03-01", Horizon, 5)})
	records := d.Records()
	records[0].Quantity = 999

	got, ok := d.Get(Key{AccountID: "acme", ProductID: "sku-1", OrderDate: "2024-03-01", Channel: Horizon})
	require.True(t, ok)
	assert.Equal(t, int64(5), got.Quantity)
}

func TestRecordValidate(t *testing.T) {
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	valid := rec("acme", "sku-1", "2024-03-01", Horizon, 5)
	assert.NoError(t, valid.Validate(asOf))

	noAccount := valid
	noAccount.AccountID = ""
	assert.Error(t, noAccount.Validate(asOf))

	noProduct := valid
	noProduct.ProductID = ""
	assert.Error(t, noProduct.Validate(asOf))

	negative := valid
	negative.Quantity = -1
	assert.Error(t, negative.Validate(asOf))

	future := rec("acme", "sku-1", "2024-07-01", Horizon, 5)
	assert.Error(t, future.Validate(asOf))

	boundary := rec("acme", "sku-1", "2024-06-01", Horizon, 5)
	assert.NoError(t, boundary.Validate(asOf), "order on the run date itself is valid")
}
