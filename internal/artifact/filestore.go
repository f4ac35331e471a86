package artifact

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"salesmerge/pkg/canonical"
)

// FileStore keeps the latest canonical dataset snapshot as a CSV file in the
// state directory. It serves as the merge baseline for the next run.
type FileStore struct {
	path string
}

// NewFileStore points at the snapshot file inside stateDir.
func NewFileStore(stateDir string) *FileStore {
	return &FileStore{path: filepath.Join(stateDir, "dataset_snapshot.csv")}
}

// Load reads the baseline dataset. A missing snapshot is an empty dataset,
// not an error: the first run starts from nothing.
func (s *FileStore) Load(_ context.Context) (*canonical.Dataset, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return canonical.NewDataset(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset snapshot: %w", err)
	}
	records, err := ParseDataset(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return canonical.FromRecords(records), nil
}

// Save replaces the baseline snapshot atomically.
func (s *FileStore) Save(_ context.Context, dataset *canonical.Dataset, runTS time.Time) error {
	a, err := BuildDataset(dataset, runTS)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write dataset snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace dataset snapshot: %w", err)
	}
	return nil
}
