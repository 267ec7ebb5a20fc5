package etl

import (
	"time"

	"github.com/uemoa-meteo/weather-warehouse/internal/transform"
)

// State is the transfer orchestrator's position in its state machine.
type State string

const (
	StateIdle                          State = "idle"
	StateExtractingDimensionCandidates State = "extracting_dimension_candidates"
	StateUpsertingDimensions           State = "upserting_dimensions"
	StateResolvingKeys                 State = "resolving_keys"
	StateAssemblingFacts               State = "assembling_facts"
	StateUpsertingFacts                State = "upserting_facts"
	StateCommitted                     State = "committed"
	StateFailed                        State = "failed"
)

// Process step names recorded in the run log.
const (
	ProcessRun              = "run_etl"
	ProcessExtract          = "extract_api"
	ProcessStage            = "stage_observations"
	ProcessTransfer         = "warehouse_transfer"
	ProcessCandidates       = "extract_candidates"
	ProcessUpsertDimensions = "upsert_dimensions"
	ProcessResolveKeys      = "resolve_keys"
	ProcessAssembleFacts    = "assemble_facts"
	ProcessUpsertFacts      = "upsert_facts"
)

// Run-log statuses.
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// RunReport is the terminal status of one warehouse transfer: what was
// processed, what was rejected and why, and the failure reason if any. The
// per-dimension rejection counts are the pipeline's main data-quality signal.
type RunReport struct {
	RunID      string    `json:"run_id"`
	State      State     `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	SourceObservations   int `json:"source_observations"`
	LocationCandidates   int `json:"location_candidates"`
	ConditionCandidates  int `json:"condition_candidates"`
	TimeBucketCandidates int `json:"time_bucket_candidates"`
	FactsWritten         int `json:"facts_written"`

	Rejections transform.Rejections `json:"rejections"`

	Error string `json:"error,omitempty"`
}

// Succeeded reports whether the run reached the committed state.
func (r *RunReport) Succeeded() bool { return r.State == StateCommitted }
