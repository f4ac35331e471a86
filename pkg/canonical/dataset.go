package canonical

// Dataset is the insertion-ordered collection of merged records, indexed by
// composite key. Only the merge engine mutates it; everything else reads.
type Dataset struct {
	records []Record
	index   map[Key]int // key -> position in records
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{index: make(map[Key]int)}
}

// FromRecords builds a dataset from an ordered record slice, collapsing
// composite-key duplicates last-write-wins at first-seen position.
func FromRecords(records []Record) *Dataset {
	d := NewDataset()
	for _, r := range records {
		d.Put(r)
	}
	return d
}

// Put inserts or replaces the record at its composite key. Replacement keeps
// the original insertion position. Reports whether an existing record was
// replaced.
func (d *Dataset) Put(r Record) bool {
	if pos, ok := d.index[r.Key()]; ok {
		d.records[pos] = r
		return true
	}
	d.index[r.Key()] = len(d.records)
	d.records = append(d.records, r)
	return false
}

// Get returns the record stored at key, if any.
func (d *Dataset) Get(k Key) (Record, bool) {
	pos, ok := d.index[k]
	if !ok {
		return Record{}, false
	}
	return d.records[pos], true
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Records returns the records in insertion order. The returned slice is a
// copy; mutating it does not affect the dataset.
func (d *Dataset) Records() []Record {
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Keys returns the composite-key set in insertion order.
func (d *Dataset) Keys() []Key {
	out := make([]Key, 0, len(d.records))
	for _, r := range d.records {
		out = append(out, r.Key())
	}
	return out
}
