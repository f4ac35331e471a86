package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"salesmerge/pkg/canonical"
)

// FileLedger persists entries as a JSON file in the state directory. Writes
// go through a temp file and rename so a crash never leaves a torn ledger.
type FileLedger struct {
	path string
	mem  *Memory
}

// OpenFileLedger loads (or initializes) the ledger file.
func OpenFileLedger(path string) (*FileLedger, error) {
	l := &FileLedger{path: path, mem: NewMemory()}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse ledger %s: %w", path, err)
	}
	for _, e := range entries {
		l.mem.entries[key{e.Channel, e.Fingerprint}] = e
	}
	return l, nil
}

func (l *FileLedger) IsNew(ctx context.Context, channel canonical.Channel, fingerprint string) (bool, error) {
	return l.mem.IsNew(ctx, channel, fingerprint)
}

func (l *FileLedger) Record(ctx context.Context, channel canonical.Channel, fingerprint string, at time.Time) error {
	if err := l.mem.Record(ctx, channel, fingerprint, at); err != nil {
		return err
	}
	return l.flush(ctx)
}

func (l *FileLedger) Entries(ctx context.Context) ([]Entry, error) {
	entries, err := l.mem.Entries(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Channel != entries[j].Channel {
			return entries[i].Channel < entries[j].Channel
		}
		return entries[i].Fingerprint < entries[j].Fingerprint
	})
	return entries, nil
}

func (l *FileLedger) Reset(ctx context.Context) error {
	if err := l.mem.Reset(ctx); err != nil {
		return err
	}
	return l.flush(ctx)
}

func (l *FileLedger) flush(ctx context.Context) error {
	entries, err := l.Entries(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode ledger: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger dir: %w", err)
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
