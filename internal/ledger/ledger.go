// Package ledger tracks which source inputs have already been merged, by
// content fingerprint, making reprocessing idempotent. The ledger is the
// sole authority for "already processed"; entries are recorded only after a
// successful merge, so a crash mid-merge leaves the input eligible again.
package ledger

import (
	"context"
	"sync"
	"time"

	"salesmerge/pkg/canonical"
)

// Entry records one processed input.
type Entry struct {
	Channel     canonical.Channel `json:"channel"`
	Fingerprint string            `json:"fingerprint"`
	ProcessedAt time.Time         `json:"processed_at"`
}

// Ledger is the dedup authority. Fingerprints are content hashes, never
// filenames: a renamed identical file is still a duplicate, a same-named
// file with new content is new.
type Ledger interface {
	IsNew(ctx context.Context, channel canonical.Channel, fingerprint string) (bool, error)
	Record(ctx context.Context, channel canonical.Channel, fingerprint string, at time.Time) error
	Entries(ctx context.Context) ([]Entry, error)
	Reset(ctx context.Context) error
}

type key struct {
	channel     canonical.Channel
	fingerprint string
}

// Memory is an in-process ledger, used in tests and as the base for the
// file-backed implementation.
type Memory struct {
	mu      sync.Mutex
	entries map[key]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[key]Entry)}
}

func (m *Memory) IsNew(_ context.Context, channel canonical.Channel, fingerprint string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, seen := m.entries[key{channel, fingerprint}]
	return !seen, nil
}

func (m *Memory) Record(_ context.Context, channel canonical.Channel, fingerprint string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key{channel, fingerprint}] = Entry{Channel: channel, Fingerprint: fingerprint, ProcessedAt: at}
	return nil
}

func (m *Memory) Entries(_ context.Context) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out, nil
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[key]Entry)
	return nil
}
