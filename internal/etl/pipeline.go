package etl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uemoa-meteo/weather-warehouse/internal/weather"
)

// ErrRunActive is returned when a run is requested while another is still
// executing. Only one run may execute at a time system-wide.
var ErrRunActive = errors.New("an etl run is already active")

// Fetcher retrieves normalized observations for a city from the upstream API.
type Fetcher interface {
	Fetch(ctx context.Context, city string) ([]weather.Observation, error)
}

// Stager lands normalized observations in the staging store.
type Stager interface {
	Reset(ctx context.Context) error
	StageObservations(ctx context.Context, observations []weather.Observation) (int, error)
}

// Pipeline runs one full ETL cycle: extract from the upstream API, land in
// staging, then transfer staging into the warehouse.
type Pipeline struct {
	cities       []string
	resetStaging bool
	fetchTimeout time.Duration

	fetcher      Fetcher
	stager       Stager
	orchestrator *Orchestrator
	runlog       RunLog
	log          *zap.Logger

	mu         sync.Mutex
	running    bool
	lastReport *RunReport
}

// PipelineConfig bundles the pipeline's construction parameters.
type PipelineConfig struct {
	Cities            []string
	ResetStagingOnRun bool
	FetchTimeout      time.Duration
}

// NewPipeline creates a pipeline.
func NewPipeline(cfg PipelineConfig, fetcher Fetcher, stager Stager, orchestrator *Orchestrator, runlog RunLog, log *zap.Logger) *Pipeline {
	timeout := cfg.FetchTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pipeline{
		cities:       cfg.Cities,
		resetStaging: cfg.ResetStagingOnRun,
		fetchTimeout: timeout,
		fetcher:      fetcher,
		stager:       stager,
		orchestrator: orchestrator,
		runlog:       runlog,
		log:          log,
	}
}

// Status describes the pipeline for the monitoring endpoint.
type Status struct {
	Running    bool       `json:"running"`
	LastReport *RunReport `json:"last_report,omitempty"`
}

// Status returns whether a run is active and the last run's report.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Status{Running: p.running, LastReport: p.lastReport}
}

func (p *Pipeline) tryAcquire() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	return true
}

func (p *Pipeline) release(report *RunReport) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	if report != nil {
		p.lastReport = report
	}
}

// Run executes one ETL cycle. Returns ErrRunActive when another run holds
// the single-run guard.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	if !p.tryAcquire() {
		return nil, ErrRunActive
	}

	runID := uuid.NewString()
	runStart := time.Now().UTC()
	p.log.Info("etl run starting",
		zap.String("run_id", runID),
		zap.Int("cities", len(p.cities)))
	p.recordRun(ctx, runID, StatusRunning, runStart, nil)

	report, err := p.run(ctx, runID)
	p.release(report)

	if err != nil {
		p.recordRun(ctx, runID, StatusFailed, runStart, err)
		return report, err
	}
	p.recordRun(ctx, runID, StatusSuccess, runStart, nil)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, runID string) (*RunReport, error) {
	// Extract. Cities are fetched concurrently; individual failures are
	// tolerated, an empty result is not.
	stepStart := time.Now().UTC()
	observations, fetchErrs := p.extract(ctx, runID)
	if len(observations) == 0 {
		err := fmt.Errorf("extraction produced no observations (%d cities failed)", fetchErrs)
		p.record(ctx, runID, ProcessExtract, StatusFailed, stepStart, err, 0)
		return nil, err
	}
	p.record(ctx, runID, ProcessExtract, StatusSuccess, stepStart, nil, len(observations))

	// Land in staging.
	stepStart = time.Now().UTC()
	if p.resetStaging {
		if err := p.stager.Reset(ctx); err != nil {
			p.record(ctx, runID, ProcessStage, StatusFailed, stepStart, err, 0)
			return nil, fmt.Errorf("reset staging schema: %w", err)
		}
	}
	staged, err := p.stager.StageObservations(ctx, observations)
	if err != nil {
		p.record(ctx, runID, ProcessStage, StatusFailed, stepStart, err, 0)
		return nil, fmt.Errorf("stage observations: %w", err)
	}
	p.record(ctx, runID, ProcessStage, StatusSuccess, stepStart, nil, staged)

	// Transfer staging into the warehouse.
	return p.orchestrator.Transfer(ctx, runID)
}

func (p *Pipeline) extract(ctx context.Context, runID string) ([]weather.Observation, int) {
	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		observations []weather.Observation
		failures     int
	)

	for _, city := range p.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
			defer cancel()

			obs, err := p.fetcher.Fetch(fetchCtx, city)
			if err != nil {
				p.log.Warn("city fetch failed",
					zap.String("run_id", runID),
					zap.String("city", city),
					zap.Error(err))
				mu.Lock()
				failures++
				mu.Unlock()
				return
			}

			mu.Lock()
			observations = append(observations, obs...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return observations, failures
}

func (p *Pipeline) record(ctx context.Context, runID, process, status string, started time.Time, stepErr error, rows int) {
	p.orchestrator.record(ctx, runID, process, status, started, stepErr, rows)
}

func (p *Pipeline) recordRun(ctx context.Context, runID, status string, started time.Time, runErr error) {
	p.record(ctx, runID, ProcessRun, status, started, runErr, 0)
}
