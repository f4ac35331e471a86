// Package merge unions canonical records from all parsers into one ordered
// dataset. It is the only code that mutates a Dataset.
package merge

import (
	"salesmerge/pkg/canonical"
)

// Stats summarizes one merge call.
type Stats struct {
	Incoming int
	Appended int
	Replaced int
}

// Engine applies the composite-key collapse rule. Single-threaded by
// contract: the collapse requires a consistent view of the existing dataset.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// Merge folds incoming records into existing. A record whose composite key
// (account, product, order date, channel) is already present replaces the
// stored record at its original position, last write wins, so a corrected
// resend or an at-least-once retry never double-counts. New keys append in
// sequence order, which is also the tie-break when one batch carries two
// records with the same key.
func (e *Engine) Merge(existing *canonical.Dataset, incoming []canonical.Record) Stats {
	stats := Stats{Incoming: len(incoming)}
	for _, rec := range incoming {
		if existing.Put(rec) {
			stats.Replaced++
		} else {
			stats.Appended++
		}
	}
	return stats
}
