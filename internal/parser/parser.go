// Package parser converts raw channel inputs into canonical sales records.
// One parser per channel; all of them are pure transformations that validate
// structure against the schema registry and collect row-level diagnostics
// instead of aborting on bad rows.
package parser

import (
	"fmt"
	"strings"
	"time"

	"salesmerge/internal/schema"
	"salesmerge/pkg/api"
	"salesmerge/pkg/canonical"
)

// Sheet is one tab of tabular input: a header row followed by data rows.
type Sheet struct {
	Name string
	Rows [][]string
}

// RawInput is one uploaded file or one API response batch, already extracted
// from its container by the intake collaborator. Immutable once received.
type RawInput struct {
	Channel     canonical.Channel
	Name        string
	Sheets      []Sheet  // spreadsheet channels
	Pages       [][]byte // feed channel: raw JSON response pages
	Fingerprint string   // sha256 of the raw content
	ReceivedAt  time.Time
}

// Result is the outcome of parsing one structurally valid input.
type Result struct {
	Records     []canonical.Record
	Diagnostics []api.Diagnostic
}

// StructuralError rejects a whole input. Missing and Found carry the column
// diff when a header failed validation; Reason covers structural failures
// that are not about columns (no sheets, none with a usable name). No
// partial records are emitted for a structurally invalid file.
type StructuralError struct {
	Channel canonical.Channel
	Input   string
	Missing []string
	Found   []string
	Reason  string
}

func (e *StructuralError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("structural mismatch in %s (%s): %s", e.Input, e.Channel, e.Reason)
	}
	return fmt.Sprintf("structural mismatch in %s (%s): missing columns [%s], found [%s]",
		e.Input, e.Channel, strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

// Parser turns a RawInput into canonical records or a structural error.
type Parser interface {
	Channel() canonical.Channel
	Parse(in RawInput) (*Result, error)
}

// ForChannel returns the parser for a channel tag, resolving the layout from
// the registry. Fails with schema.ErrUnknownChannel for unknown tags.
func ForChannel(reg *schema.Registry, channel canonical.Channel) (Parser, error) {
	desc, err := reg.Describe(channel)
	if err != nil {
		return nil, err
	}
	switch channel {
	case canonical.Horizon:
		return &horizonParser{desc: desc}, nil
	case canonical.PSC:
		return &pscParser{desc: desc}, nil
	case canonical.Ollie:
		return &ollieParser{desc: desc}, nil
	case canonical.Shopify:
		return &shopifyParser{desc: desc}, nil
	}
	return nil, fmt.Errorf("%w: %q", schema.ErrUnknownChannel, channel)
}
