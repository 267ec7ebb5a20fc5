// Package etl sequences the pipeline: extraction into staging, then the
// staged-to-warehouse transfer through the star-schema transformation core.
package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uemoa-meteo/weather-warehouse/internal/staging"
	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
)

// ErrNoSourceRows marks a transfer attempted against an empty staging store.
var ErrNoSourceRows = errors.New("no source rows to transfer")

// Source is the staging-side collaborator the transfer reads from.
type Source interface {
	Snapshot(ctx context.Context) (transform.SourceSnapshot, error)
}

// Warehouse is the warehouse-side collaborator the transfer writes to.
type Warehouse interface {
	UpsertLocations(ctx context.Context, candidates []transform.LocationKey) error
	UpsertConditions(ctx context.Context, candidates []transform.ConditionCandidate) error
	UpsertTimeBuckets(ctx context.Context, candidates []transform.TimeBucket) error
	KeyMappings(ctx context.Context) (transform.KeyMappings, error)
	UpsertFacts(ctx context.Context, facts []transform.FactRow) (int, error)
}

// RunLog receives one record per named process step.
type RunLog interface {
	AppendRunRecord(ctx context.Context, rec staging.RunRecord) error
}

// Orchestrator sequences the staged-to-warehouse transfer. Dimension upserts
// must fully commit before key resolution begins: new dimension rows have to
// be queryable before the assembler can resolve them. Read-after-write
// consistency of the warehouse is assumed, not compensated for.
type Orchestrator struct {
	source    Source
	warehouse Warehouse
	runlog    RunLog
	log       *zap.Logger
}

// NewOrchestrator creates a transfer orchestrator.
func NewOrchestrator(source Source, warehouse Warehouse, runlog RunLog, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		source:    source,
		warehouse: warehouse,
		runlog:    runlog,
		log:       log,
	}
}

// Transfer runs the staged-to-warehouse state machine once. It is safe to
// invoke again immediately after a prior run's completion or failure:
// re-running with unchanged input changes no row counts and reassigns no
// surrogate keys.
func (o *Orchestrator) Transfer(ctx context.Context, runID string) (*RunReport, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	report := &RunReport{
		RunID:     runID,
		State:     StateIdle,
		StartedAt: time.Now().UTC(),
	}

	err := o.transfer(ctx, report)
	report.FinishedAt = time.Now().UTC()
	if err != nil {
		report.State = StateFailed
		report.Error = err.Error()
		o.log.Error("warehouse transfer failed",
			zap.String("run_id", runID),
			zap.Error(err))
		o.record(ctx, runID, ProcessTransfer, StatusFailed, report.StartedAt, err, report.FactsWritten)
		return report, err
	}

	report.State = StateCommitted
	o.log.Info("warehouse transfer committed",
		zap.String("run_id", runID),
		zap.Int("facts_written", report.FactsWritten),
		zap.Int("rows_rejected", report.Rejections.Total()))
	o.record(ctx, runID, ProcessTransfer, StatusSuccess, report.StartedAt, nil, report.FactsWritten)
	return report, nil
}

func (o *Orchestrator) transfer(ctx context.Context, report *RunReport) error {
	runID := report.RunID

	// Extract dimension candidates.
	o.setState(report, StateExtractingDimensionCandidates)
	stepStart := time.Now().UTC()
	snap, err := o.source.Snapshot(ctx)
	if err != nil {
		o.record(ctx, runID, ProcessCandidates, StatusFailed, stepStart, err, 0)
		return fmt.Errorf("read source snapshot: %w", err)
	}
	if len(snap.Observations) == 0 {
		err := ErrNoSourceRows
		o.record(ctx, runID, ProcessCandidates, StatusFailed, stepStart, err, 0)
		return err
	}
	report.SourceObservations = len(snap.Observations)

	candidates := transform.BuildCandidates(snap)
	report.LocationCandidates = len(candidates.Locations)
	report.ConditionCandidates = len(candidates.Conditions)
	report.TimeBucketCandidates = len(candidates.TimeBuckets)
	if candidates.UnparseableTimes > 0 {
		o.log.Warn("unparseable observation timestamps excluded from time candidates",
			zap.String("run_id", runID),
			zap.Int("distinct_timestamps", candidates.UnparseableTimes))
	}
	o.record(ctx, runID, ProcessCandidates, StatusSuccess, stepStart, nil, report.SourceObservations)

	// Upsert dimensions. A partial dimension write would corrupt key
	// resolution, so any failure here is fatal for the run.
	o.setState(report, StateUpsertingDimensions)
	stepStart = time.Now().UTC()
	dimRows := len(candidates.Locations) + len(candidates.Conditions) + len(candidates.TimeBuckets)
	if err := o.warehouse.UpsertLocations(ctx, candidates.Locations); err != nil {
		o.record(ctx, runID, ProcessUpsertDimensions, StatusFailed, stepStart, err, 0)
		return fmt.Errorf("upsert location dimension: %w", err)
	}
	if err := o.warehouse.UpsertConditions(ctx, candidates.Conditions); err != nil {
		o.record(ctx, runID, ProcessUpsertDimensions, StatusFailed, stepStart, err, 0)
		return fmt.Errorf("upsert condition dimension: %w", err)
	}
	if err := o.warehouse.UpsertTimeBuckets(ctx, candidates.TimeBuckets); err != nil {
		o.record(ctx, runID, ProcessUpsertDimensions, StatusFailed, stepStart, err, 0)
		return fmt.Errorf("upsert time dimension: %w", err)
	}
	o.record(ctx, runID, ProcessUpsertDimensions, StatusSuccess, stepStart, nil, dimRows)

	// Resolve surrogate keys by reading the committed dimensions back.
	o.setState(report, StateResolvingKeys)
	stepStart = time.Now().UTC()
	keys, err := o.warehouse.KeyMappings(ctx)
	if err != nil {
		o.record(ctx, runID, ProcessResolveKeys, StatusFailed, stepStart, err, 0)
		return fmt.Errorf("resolve surrogate keys: %w", err)
	}
	keyRows := len(keys.Locations) + len(keys.Conditions) + len(keys.Times)
	o.record(ctx, runID, ProcessResolveKeys, StatusSuccess, stepStart, nil, keyRows)

	// Assemble facts; unresolvable rows are dropped and counted, never
	// loaded with a dangling key.
	o.setState(report, StateAssemblingFacts)
	stepStart = time.Now().UTC()
	facts, rejections := transform.AssembleFacts(snap, keys)
	report.Rejections = rejections
	if rejections.Total() > 0 {
		o.log.Warn("observations rejected during fact assembly",
			zap.String("run_id", runID),
			zap.Int("total", rejections.Total()),
			zap.Int("bad_timestamp", rejections.BadTimestamp),
			zap.Int("missing_location", rejections.MissingLocation),
			zap.Int("missing_time", rejections.MissingTime),
			zap.Int("missing_condition", rejections.MissingCondition))
	}
	o.record(ctx, runID, ProcessAssembleFacts, StatusSuccess, stepStart, nil, len(facts))

	// Load facts in one transaction.
	o.setState(report, StateUpsertingFacts)
	stepStart = time.Now().UTC()
	written, err := o.warehouse.UpsertFacts(ctx, facts)
	if err != nil {
		o.record(ctx, runID, ProcessUpsertFacts, StatusFailed, stepStart, err, 0)
		return fmt.Errorf("upsert facts: %w", err)
	}
	report.FactsWritten = written
	o.record(ctx, runID, ProcessUpsertFacts, StatusSuccess, stepStart, nil, written)

	return nil
}

func (o *Orchestrator) setState(report *RunReport, state State) {
	report.State = state
	o.log.Debug("transfer state",
		zap.String("run_id", report.RunID),
		zap.String("state", string(state)))
}

// record appends a run-log record. Logging failures are reported but never
// abort the run.
func (o *Orchestrator) record(ctx context.Context, runID, process, status string, started time.Time, stepErr error, rows int) {
	rec := staging.RunRecord{
		RunID:     runID,
		Process:   process,
		Status:    status,
		StartedAt: started,
		Rows:      rows,
	}
	// A "running" record marks a step in flight; it has no end time yet.
	if status != StatusRunning {
		finished := time.Now().UTC()
		rec.FinishedAt = &finished
	}
	if stepErr != nil {
		rec.Error = stepErr.Error()
	}
	if err := o.runlog.AppendRunRecord(ctx, rec); err != nil {
		o.log.Error("failed to append run record",
			zap.String("run_id", runID),
			zap.String("process", process),
			zap.Error(err))
	}
}
