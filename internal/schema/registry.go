// Package schema declares, per source channel, the expected raw layout and
// its mapping to canonical fields. Adding a distributor format is a registry
// edit here, not a parser change.
package schema

import (
	"fmt"
	"strings"

	"salesmerge/pkg/canonical"
)

// ErrUnknownChannel is returned by Describe for unrecognized channel tags.
var ErrUnknownChannel = fmt.Errorf("unknown channel")

// Field names a canonical destination for a raw column.
type Field string

const (
	FieldAccountName Field = "account_name"
	FieldProvince    Field = "province"
	FieldProductID   Field = "product_id"
	FieldProductName Field = "product_name"
	FieldQuantity    Field = "quantity"
	FieldRevenue     Field = "revenue"
	FieldOrderDate   Field = "order_date"
)

// Descriptor is the expected layout for one channel. Required columns are
// stored normalized (lower case, collapsed whitespace); matching against a
// file header goes through Normalize on both sides. Unmapped columns are
// ignored by parsers.
type Descriptor struct {
	Channel  canonical.Channel
	Required []string
	Optional []string
	// FieldMap maps a normalized raw column name to its canonical field.
	FieldMap map[string]Field
	// DateFromName is set for channels whose order date comes from the file
	// or sheet name (month + year) rather than a column.
	DateFromName bool
}

// Normalize lowers case and collapses internal whitespace so header drift
// like "SKU  Description" still matches "sku description".
func Normalize(column string) string {
	return strings.Join(strings.Fields(strings.ToLower(column)), " ")
}

// MissingColumns diffs a found header row against the required set.
func (d *Descriptor) MissingColumns(found []string) []string {
	have := make(map[string]bool, len(found))
	for _, c := range found {
		have[Normalize(c)] = true
	}
	var missing []string
	for _, req := range d.Required {
		if !have[req] {
			missing = append(missing, req)
		}
	}
	return missing
}

// FieldFor resolves a raw column to its canonical field.
func (d *Descriptor) FieldFor(column string) (Field, bool) {
	f, ok := d.FieldMap[Normalize(column)]
	return f, ok
}

// Registry holds the per-channel descriptors. Read-only at runtime.
type Registry struct {
	descriptors map[canonical.Channel]*Descriptor
}

// NewRegistry builds the registry with all four channel descriptors.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[canonical.Channel]*Descriptor)}
	r.register(horizonDescriptor())
	r.register(pscDescriptor())
	r.register(ollieDescriptor())
	r.register(shopifyDescriptor())
	return r
}

func (r *Registry) register(d *Descriptor) {
	r.descriptors[d.Channel] = d
}

// Describe returns the descriptor for a channel tag.
func (r *Registry) Describe(channel canonical.Channel) (*Descriptor, error) {
	d, ok := r.descriptors[channel]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}
	return d, nil
}

// Channels lists registered channels in registration order is not kept;
// callers needing a stable order use canonical.Channels.
func (r *Registry) Channels() []canonical.Channel {
	out := make([]canonical.Channel, 0, len(r.descriptors))
	for _, c := range canonical.Channels() {
		if _, ok := r.descriptors[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
