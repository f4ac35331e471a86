package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives a completed artifact for durable storage. The pipeline has
// no knowledge of where the bytes land beyond this interface.
type Sink interface {
	Put(ctx context.Context, a *Artifact) error
}

// DirSink writes artifacts into a local directory.
type DirSink struct {
	Dir string
}

func NewDirSink(dir string) *DirSink { return &DirSink{Dir: dir} }

func (s *DirSink) Put(_ context.Context, a *Artifact) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(s.Dir, a.Name)
	// Artifacts are immutable and named by run timestamp: an existing name
	// means this run's output already landed, so the put is a no-op.
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", a.Name, err)
	}
	return nil
}

// MultiSink fans one artifact out to several sinks.
type MultiSink []Sink

func (m MultiSink) Put(ctx context.Context, a *Artifact) error {
	for _, s := range m {
		if err := s.Put(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
