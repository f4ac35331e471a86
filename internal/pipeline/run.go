// Package pipeline orchestrates one batch run: dedup filter, parallel parse,
// single-writer merge, status recompute, artifact emission, ledger commit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"salesmerge/internal/artifact"
	"salesmerge/internal/ledger"
	"salesmerge/internal/merge"
	"salesmerge/internal/parser"
	"salesmerge/internal/schema"
	"salesmerge/internal/status"
	"salesmerge/pkg/api"
	"salesmerge/pkg/canonical"
	pkgerrors "salesmerge/pkg/errors"
)

// DatasetStore persists the canonical dataset snapshot between runs.
type DatasetStore interface {
	Load(ctx context.Context) (*canonical.Dataset, error)
	Save(ctx context.Context, dataset *canonical.Dataset, runTS time.Time) error
}

// Runner executes batch runs. One run at a time per baseline: the merge step
// mutates shared state non-atomically across records, so the caller must not
// start a second run against the same store concurrently.
type Runner struct {
	Registry   *schema.Registry
	Ledger     ledger.Ledger
	Store      DatasetStore
	Sink       artifact.Sink
	Thresholds status.Thresholds
	Workers    int
	Logger     *slog.Logger

	engine *merge.Engine
}

// NewRunner wires a runner with the default merge engine.
func NewRunner(reg *schema.Registry, led ledger.Ledger, store DatasetStore, sink artifact.Sink, thresholds status.Thresholds, workers int, logger *slog.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Registry:   reg,
		Ledger:     led,
		Store:      store,
		Sink:       sink,
		Thresholds: thresholds,
		Workers:    workers,
		Logger:     logger,
		engine:     merge.NewEngine(),
	}
}

type parseJob struct {
	pos   int
	input parser.RawInput
}

type parseOutcome struct {
	result *parser.Result
	err    error
}

// Run processes one batch of raw inputs to completion. Per-input failures
// never abort the batch; artifacts, the snapshot, and ledger entries are
// only committed once every surviving input has merged.
func (r *Runner) Run(ctx context.Context, inputs []parser.RawInput) (*api.RunReport, error) {
	runTS := time.Now().UTC()
	report := &api.RunReport{
		RunID:     uuid.New(),
		StartedAt: runTS,
		Inputs:    make([]api.InputResult, len(inputs)),
	}

	// Dedup filter first: the ledger prevents redundant parsing. Record-level
	// duplicate collapse in the merge step handles legitimate overlap.
	fresh := make([]bool, len(inputs))
	for i, in := range inputs {
		res := api.InputResult{Name: in.Name, Channel: string(in.Channel), Fingerprint: in.Fingerprint}
		isNew, err := r.Ledger.IsNew(ctx, in.Channel, in.Fingerprint)
		switch {
		case err != nil:
			res.Outcome = api.OutcomeRejected
			res.Error = fmt.Sprintf("ledger lookup failed: %v", err)
			res.ErrorCode = pkgerrors.ErrCodeLedgerFailed
		case !isNew:
			res.Outcome = api.OutcomeDuplicate
			note := pkgerrors.NewDuplicateInputNote(in.Name)
			r.Logger.Info(note.Message, "code", note.Code, "input", in.Name, "channel", in.Channel, "fingerprint", in.Fingerprint)
		default:
			fresh[i] = true
		}
		report.Inputs[i] = res
	}

	// Parse fresh inputs in parallel; parsers share no mutable state.
	outcomes := r.parseAll(ctx, inputs, fresh)

	// A cancelled context stops the job feed mid-batch, leaving inputs with
	// no parse outcome. Nothing has been committed yet, so abort the whole
	// run; the next attempt reprocesses every input.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled before merge: %w", err)
	}

	// Merge sequentially in input order. Single writer by contract.
	dataset, err := r.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load merge baseline: %w", err)
	}

	var merged []int // positions whose records made it into the dataset
	for i := range inputs {
		if !fresh[i] {
			continue
		}
		out := outcomes[i]
		res := &report.Inputs[i]
		if out.err != nil {
			perr := classifyParseError(inputs[i].Name, out.err)
			res.Outcome = api.OutcomeRejected
			res.Error = out.err.Error()
			res.ErrorCode = perr.Code
			r.Logger.Warn("input rejected", "input", inputs[i].Name, "code", perr.Code, "severity", perr.Severity.String(), "error", out.err)
			continue
		}

		records, diags := r.validate(out.result, inputs[i].Name, runTS)
		res.Diagnostics = append(out.result.Diagnostics, diags...)

		stats := r.engine.Merge(dataset, records)
		res.Outcome = api.OutcomeMerged
		res.Records = len(records)
		report.RecordsMerged += stats.Appended + stats.Replaced
		report.RecordsReplaced += stats.Replaced
		merged = append(merged, i)
	}

	// Status recompute over the updated dataset.
	statuses, statusDiags, err := status.Compute(dataset, runTS, r.Thresholds)
	if err != nil {
		return nil, fmt.Errorf("status computation failed: %w", err)
	}
	report.StatusDiagnostics = statusDiags
	report.AccountsScored = len(statuses)
	report.DatasetSize = dataset.Len()

	// Emit both artifacts with the shared run timestamp.
	datasetArtifact, err := artifact.BuildDataset(dataset, runTS)
	if err != nil {
		return nil, fmt.Errorf("failed to build dataset artifact: %w", err)
	}
	statusArtifact, err := artifact.BuildStatuses(statuses, runTS)
	if err != nil {
		return nil, fmt.Errorf("failed to build status artifact: %w", err)
	}
	for _, a := range []*artifact.Artifact{datasetArtifact, statusArtifact} {
		if err := r.Sink.Put(ctx, a); err != nil {
			return nil, fmt.Errorf("failed to store artifact %s: %w", a.Name, err)
		}
		report.Artifacts = append(report.Artifacts, a.Name)
	}

	// Persist the new baseline before the ledger: a crash between the two
	// reprocesses inputs, and the composite-key collapse absorbs the retry.
	if err := r.Store.Save(ctx, dataset, runTS); err != nil {
		return nil, fmt.Errorf("failed to persist dataset snapshot: %w", err)
	}

	// Ledger entries last: only successfully merged inputs, only after the
	// merge committed.
	for _, i := range merged {
		in := inputs[i]
		if err := r.Ledger.Record(ctx, in.Channel, in.Fingerprint, runTS); err != nil {
			return nil, fmt.Errorf("failed to record ledger entry for %s: %w", in.Name, err)
		}
	}

	report.CompletedAt = time.Now().UTC()
	r.Logger.Info("run complete",
		"run_id", report.RunID,
		"inputs", len(inputs),
		"records_merged", report.RecordsMerged,
		"dataset_size", report.DatasetSize,
		"accounts", report.AccountsScored,
		"diagnostics", report.TotalDiagnostics(),
	)
	return report, nil
}

// parseAll fans parse work across Workers goroutines.
func (r *Runner) parseAll(ctx context.Context, inputs []parser.RawInput, fresh []bool) []parseOutcome {
	outcomes := make([]parseOutcome, len(inputs))
	jobs := make(chan parseJob)

	var wg sync.WaitGroup
	for w := 0; w < r.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				outcomes[job.pos] = r.parseOne(job.input)
			}
		}()
	}

feed:
	for i, in := range inputs {
		if !fresh[i] {
			continue
		}
		select {
		case jobs <- parseJob{pos: i, input: in}:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return outcomes
}

// classifyParseError folds a parse failure into the coded taxonomy the run
// report exposes, so callers can react without string-matching messages.
func classifyParseError(input string, err error) *pkgerrors.PipelineError {
	var serr *parser.StructuralError
	switch {
	case errors.Is(err, schema.ErrUnknownChannel):
		return &pkgerrors.PipelineError{
			Code:     pkgerrors.ErrCodeUnknownChannel,
			Message:  err.Error(),
			Severity: pkgerrors.SeverityError,
			Input:    input,
		}
	case errors.As(err, &serr):
		return pkgerrors.NewStructuralMismatchError(input, err.Error())
	default:
		return &pkgerrors.PipelineError{
			Code:        pkgerrors.ErrCodeParseFailed,
			Message:     err.Error(),
			Severity:    pkgerrors.SeverityError,
			Input:       input,
			Recoverable: true,
		}
	}
}

func (r *Runner) parseOne(in parser.RawInput) parseOutcome {
	p, err := parser.ForChannel(r.Registry, in.Channel)
	if err != nil {
		return parseOutcome{err: err}
	}
	result, err := p.Parse(in)
	if err != nil {
		return parseOutcome{err: err}
	}
	return parseOutcome{result: result}
}

// validate applies the record invariants the parsers cannot check on their
// own (the run timestamp bound); violations become row diagnostics.
func (r *Runner) validate(result *parser.Result, inputName string, runTS time.Time) ([]canonical.Record, []api.Diagnostic) {
	records := make([]canonical.Record, 0, len(result.Records))
	var diags []api.Diagnostic
	for _, rec := range result.Records {
		if err := rec.Validate(runTS); err != nil {
			diags = append(diags, api.Diagnostic{Input: inputName, Message: err.Error()})
			continue
		}
		records = append(records, rec)
	}
	return records, diags
}
