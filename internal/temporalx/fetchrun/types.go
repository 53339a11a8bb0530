package fetchrun

import "github.com/google/uuid"

const (
	WorkflowName = "fetch_run"

	ActivityResolveSpec = "fetch_run_resolve_spec"
	ActivityFetchJobs   = "fetch_run_fetch_jobs"
	ActivityEnrichJobs  = "fetch_run_enrich_jobs"
	ActivityRankJobs    = "fetch_run_rank_jobs"
)

// RunInput is the workflow argument, frozen on the AgentRun row at creation.
type RunInput struct {
	RunID     uuid.UUID `json:"run_id"`
	UserID    uuid.UUID `json:"user_id"`
	Kind      string    `json:"kind"`
	Tightness string    `json:"tightness"`
	BatchSize int       `json:"batch_size,omitempty"`
}

// RunOutput lands on AgentRun.Outputs.
type RunOutput struct {
	ProfileVersion int `json:"profile_version"`
	JobsFetched    int `json:"jobs_fetched"`
	JobsEnriched   int `json:"jobs_enriched"`
	JobsScored     int `json:"jobs_scored"`
	JobsDropped    int `json:"jobs_dropped"`
}

// SpecResult is the resolve-spec activity result.
type SpecResult struct {
	SpecID         uuid.UUID `json:"spec_id"`
	ProfileVersion int       `json:"profile_version"`
}

// FetchResult is the fetch activity result.
type FetchResult struct {
	Found    int `json:"found"`
	Inserted int `json:"inserted"`
}

// EnrichStats is the enrich activity result.
type EnrichStats struct {
	Enriched int `json:"enriched"`
	Dropped  int `json:"dropped"`
}

// RankActivityInput identifies what the rank activity scores against.
type RankActivityInput struct {
	UserID         uuid.UUID `json:"user_id"`
	ProfileVersion int       `json:"profile_version"`
	Tightness      string    `json:"tightness"`
	BatchSize      int       `json:"batch_size"`
}

// RankStats is the rank activity result.
type RankStats struct {
	Scored  int `json:"scored"`
	Dropped int `json:"dropped"`
}
