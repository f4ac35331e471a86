package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"salesmerge/db/clickhouse"
	"salesmerge/internal/artifact"
	"salesmerge/internal/ledger"
	"salesmerge/internal/schema"
	"salesmerge/internal/status"
	"salesmerge/pkg/platform"
)

// Build assembles a Runner from a profile, picking the ledger, dataset
// store, and sink backends. The returned closer releases any connections.
func Build(ctx context.Context, profile *platform.Profile, logger *slog.Logger) (*Runner, func() error, error) {
	closers := []func() error{}
	closeAll := func() error {
		var first error
		for _, c := range closers {
			if err := c(); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	var led ledger.Ledger
	switch profile.Ledger.Backend {
	case "", "file":
		l, err := ledger.OpenFileLedger(filepath.Join(profile.StateDir, "ledger.json"))
		if err != nil {
			return nil, nil, err
		}
		led = l
	case "postgres":
		l, err := ledger.OpenPostgresLedger(ctx, profile.Ledger.DSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, l.Close)
		led = l
	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", profile.Ledger.Backend)
	}

	var store DatasetStore
	switch profile.DatasetStore.Backend {
	case "", "file":
		store = artifact.NewFileStore(profile.StateDir)
	case "clickhouse":
		ch, err := clickhouse.NewStore(&clickhouse.Config{
			Host:     profile.ClickHouse.Host,
			Port:     profile.ClickHouse.Port,
			Database: profile.ClickHouse.Database,
			Username: profile.ClickHouse.Username,
			Password: profile.ClickHouse.Password,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		if err := ch.Ping(ctx); err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("clickhouse not reachable: %w", err)
		}
		closers = append(closers, ch.Close)
		store = ch
	default:
		_ = closeAll()
		return nil, nil, fmt.Errorf("unknown dataset store backend %q", profile.DatasetStore.Backend)
	}

	var sink artifact.Sink
	switch profile.Sink.Backend {
	case "", "dir":
		sink = artifact.NewDirSink(profile.OutputDir)
	case "s3":
		s3sink, err := artifact.NewS3Sink(ctx, artifact.S3Config{
			Bucket:   profile.Sink.S3Bucket,
			Region:   profile.Sink.S3Region,
			Prefix:   profile.Sink.S3Prefix,
			Endpoint: profile.Sink.S3Endpoint,
		})
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		// Keep a local copy alongside the upload for audit.
		sink = artifact.MultiSink{artifact.NewDirSink(profile.OutputDir), s3sink}
	default:
		_ = closeAll()
		return nil, nil, fmt.Errorf("unknown sink backend %q", profile.Sink.Backend)
	}

	thresholds := status.Thresholds{
		ActiveWithinDays: profile.Thresholds.ActiveWithinDays,
		AtRiskWithinDays: profile.Thresholds.AtRiskWithinDays,
	}

	runner := NewRunner(schema.NewRegistry(), led, store, sink, thresholds, profile.Workers, logger)
	return runner, closeAll, nil
}
