package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// BatchMode controls how the engine treats malformed entries inside an
// otherwise successful batch call.
type BatchMode string

const (
	// BatchStrict fails the whole batch when any entry is malformed or the
	// output id set differs from the input. The default.
	BatchStrict BatchMode = "strict"
	// BatchBestEffort drops malformed or missing entries and reports them;
	// invented ids still fail the batch.
	BatchBestEffort BatchMode = "best-effort"
)

// EnrichmentPromptVersion stamps enriched rows; bumping it regenerates
// enrichment for every job.
const EnrichmentPromptVersion = 1

// DroppedJob names an input job that produced no usable output in
// best-effort mode.
type DroppedJob struct {
	JobID  uuid.UUID `json:"job_id"`
	Reason string    `json:"reason"`
}

type EnrichResult struct {
	Jobs    []*types.EnrichedJob
	Dropped []DroppedJob
}

// MatchEngine is the enrichment & ranking engine: two independent batch
// operations over raw jobs. Batching is a cost optimization only; results are
// matched back to inputs strictly by job id, never by position.
type MatchEngine interface {
	Enrich(ctx context.Context, jobs []*types.RawJob) (*EnrichResult, error)
	Rank(ctx context.Context, jobs []*types.RawJob, rc RankContext) (*RankResult, error)
}

type matchEngine struct {
	ai   Generator
	log  *logger.Logger
	mode BatchMode
}

func NewMatchEngine(ai Generator, baseLog *logger.Logger, mode BatchMode) MatchEngine {
	if mode == "" {
		mode = BatchStrict
	}
	return &matchEngine{
		ai:   ai,
		log:  baseLog.With("service", "MatchEngine"),
		mode: mode,
	}
}

const enrichSystem = `You are a job-posting analyst for a freelance marketplace.
For every job you receive, return:
- "seniority": junior, mid, or senior. When the posting is ambiguous, use mid.
- "summary": 2-3 sentences describing the work in plain language.
- "markdown_description": the raw description rewritten as markdown using only
  these section headings, omitting any section with nothing to say:
  Role, Responsibilities, Requirements, Nice to Have, About the Company.
Return one entry per input job, carrying its job_id through unchanged.`

type enrichEntry struct {
	JobID               string `json:"job_id"`
	Seniority           string `json:"seniority"`
	Summary             string `json:"summary"`
	MarkdownDescription string `json:"markdown_description"`
}

type batchJobInput struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (e *matchEngine) Enrich(ctx context.Context, jobs []*types.RawJob) (*EnrichResult, error) {
	if len(jobs) == 0 {
		return &EnrichResult{Jobs: []*types.EnrichedJob{}}, nil
	}

	payload, inputIDs, err := batchPayload(jobs)
	if err != nil {
		return nil, err
	}

	raw, err := e.ai.GenerateJSON(ctx, enrichSystem, payload, "enriched_jobs", enrichSchema())
	if err != nil {
		return nil, fmt.Errorf("enrichment call: %w", err)
	}

	var decoded struct {
		Jobs []enrichEntry `json:"jobs"`
	}
	if err := roundTrip(raw, &decoded); err != nil {
		return nil, &GenerationOutputError{Op: "enrich", Diagnostics: []string{err.Error()}}
	}

	byID := make(map[uuid.UUID]enrichEntry, len(decoded.Jobs))
	var extra []uuid.UUID
	for _, entry := range decoded.Jobs {
		id, err := uuid.Parse(entry.JobID)
		if err != nil {
			return nil, &GenerationOutputError{Op: "enrich", Diagnostics: []string{fmt.Sprintf("unparseable job_id %q", entry.JobID)}}
		}
		if _, ok := inputIDs[id]; !ok {
			extra = append(extra, id)
			continue
		}
		byID[id] = entry
	}
	// Invented ids are a defect in both modes.
	if len(extra) > 0 {
		return nil, &BatchIdentityError{Op: "enrich", Extra: extra}
	}

	result := &EnrichResult{Jobs: make([]*types.EnrichedJob, 0, len(jobs))}
	var missing []uuid.UUID
	for _, job := range jobs {
		entry, ok := byID[job.ID]
		if !ok {
			missing = append(missing, job.ID)
			continue
		}
		if diag := validateEnrichEntry(entry); diag != "" {
			if e.mode == BatchStrict {
				return nil, &GenerationOutputError{Op: "enrich", Diagnostics: []string{fmt.Sprintf("job %s: %s", job.ID, diag)}}
			}
			result.Dropped = append(result.Dropped, DroppedJob{JobID: job.ID, Reason: diag})
			continue
		}
		result.Jobs = append(result.Jobs, &types.EnrichedJob{
			JobID:               job.ID,
			PromptVersion:       EnrichmentPromptVersion,
			Seniority:           entry.Seniority,
			Summary:             entry.Summary,
			MarkdownDescription: entry.MarkdownDescription,
		})
	}

	if len(missing) > 0 {
		if e.mode == BatchStrict {
			return nil, &BatchIdentityError{Op: "enrich", Missing: missing}
		}
		for _, id := range missing {
			result.Dropped = append(result.Dropped, DroppedJob{JobID: id, Reason: "no output entry"})
		}
	}
	if len(result.Dropped) > 0 {
		e.log.Warn("enrichment dropped entries", "dropped", len(result.Dropped), "total", len(jobs))
	}
	return result, nil
}

func validateEnrichEntry(entry enrichEntry) string {
	switch entry.Seniority {
	case types.SeniorityJunior, types.SeniorityMid, types.SenioritySenior:
	default:
		return fmt.Sprintf("unknown seniority %q", entry.Seniority)
	}
	if entry.Summary == "" {
		return "empty summary"
	}
	if entry.MarkdownDescription == "" {
		return "empty markdown description"
	}
	return ""
}

func batchPayload(jobs []*types.RawJob) (string, map[uuid.UUID]struct{}, error) {
	inputs := make([]batchJobInput, 0, len(jobs))
	ids := make(map[uuid.UUID]struct{}, len(jobs))
	for _, job := range jobs {
		if job == nil || job.ID == uuid.Nil {
			return "", nil, fmt.Errorf("batch contains job without id")
		}
		if _, dup := ids[job.ID]; dup {
			return "", nil, fmt.Errorf("batch contains duplicate job %s", job.ID)
		}
		ids[job.ID] = struct{}{}
		inputs = append(inputs, batchJobInput{
			JobID:       job.ID.String(),
			Title:       job.Title,
			Description: job.Description,
		})
	}
	buf, err := json.Marshal(map[string]any{"jobs": inputs})
	if err != nil {
		return "", nil, err
	}
	return string(buf), ids, nil
}

func roundTrip(raw map[string]any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

func enrichSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"jobs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"job_id":    map[string]any{"type": "string"},
						"seniority": map[string]any{"type": "string", "enum": []string{"junior", "mid", "senior"}},
						"summary":   map[string]any{"type": "string"},
						"markdown_description": map[string]any{
							"type": "string",
						},
					},
					"required":             []string{"job_id", "seniority", "summary", "markdown_description"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"jobs"},
		"additionalProperties": false,
	}
}
