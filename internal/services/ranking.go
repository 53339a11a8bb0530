package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/domain/jobs"
)

// RankContext carries the identity a score row is stamped with and the
// profile the jobs are ranked against.
type RankContext struct {
	UserID         uuid.UUID
	ProfileVersion int
	Tightness      string
	Profile        types.Normalized
}

type RankResult struct {
	Scores  []*types.JobScore
	Dropped []DroppedJob
}

const rankSystem = `You score freelance job postings against a freelancer profile.
For every job, return five sub-scores from 0 to 100:
- "skill_match": overlap between the job's requirements and the profile's skills.
- "budget_fit": how well the job's budget matches the freelancer's rates.
- "client_quality": client rating and signals of a reliable client.
- "scope_fit": whether the scope suits the freelancer's seniority and availability.
- "win_probability": realistic odds this freelancer wins the job.
Add a "reasoning" string of 1-2 sentences. Return one entry per input job,
carrying its job_id through unchanged. Do not compute an overall score.`

type rankEntry struct {
	JobID          string  `json:"job_id"`
	SkillMatch     float64 `json:"skill_match"`
	BudgetFit      float64 `json:"budget_fit"`
	ClientQuality  float64 `json:"client_quality"`
	ScopeFit       float64 `json:"scope_fit"`
	WinProbability float64 `json:"win_probability"`
	Reasoning      string  `json:"reasoning"`
}

func (e *matchEngine) Rank(ctx context.Context, rawJobs []*types.RawJob, rc RankContext) (*RankResult, error) {
	if rc.UserID == uuid.Nil {
		return nil, fmt.Errorf("rank: missing user id")
	}
	if rc.ProfileVersion < 1 {
		return nil, fmt.Errorf("rank: invalid profile version %d", rc.ProfileVersion)
	}
	if rc.Tightness == "" {
		return nil, fmt.Errorf("rank: missing tightness")
	}
	if len(rawJobs) == 0 {
		return &RankResult{Scores: []*types.JobScore{}}, nil
	}

	payload, inputIDs, err := rankPayload(rawJobs, rc.Profile)
	if err != nil {
		return nil, err
	}

	raw, err := e.ai.GenerateJSON(ctx, rankSystem, payload, "ranked_jobs", rankSchema())
	if err != nil {
		return nil, fmt.Errorf("ranking call: %w", err)
	}

	var decoded struct {
		Jobs []rankEntry `json:"jobs"`
	}
	if err := roundTrip(raw, &decoded); err != nil {
		return nil, &GenerationOutputError{Op: "rank", Diagnostics: []string{err.Error()}}
	}

	byID := make(map[uuid.UUID]rankEntry, len(decoded.Jobs))
	var extra []uuid.UUID
	for _, entry := range decoded.Jobs {
		id, err := uuid.Parse(entry.JobID)
		if err != nil {
			return nil, &GenerationOutputError{Op: "rank", Diagnostics: []string{fmt.Sprintf("unparseable job_id %q", entry.JobID)}}
		}
		if _, ok := inputIDs[id]; !ok {
			extra = append(extra, id)
			continue
		}
		byID[id] = entry
	}
	if len(extra) > 0 {
		return nil, &BatchIdentityError{Op: "rank", Extra: extra}
	}

	result := &RankResult{Scores: make([]*types.JobScore, 0, len(rawJobs))}
	var missing []uuid.UUID
	for _, job := range rawJobs {
		entry, ok := byID[job.ID]
		if !ok {
			missing = append(missing, job.ID)
			continue
		}
		skill := clampScore(entry.SkillMatch)
		budget := clampScore(entry.BudgetFit)
		client := clampScore(entry.ClientQuality)
		scope := clampScore(entry.ScopeFit)
		win := clampScore(entry.WinProbability)
		result.Scores = append(result.Scores, &types.JobScore{
			JobID:          job.ID,
			UserID:         rc.UserID,
			ProfileVersion: rc.ProfileVersion,
			Tightness:      rc.Tightness,
			SkillMatch:     skill,
			BudgetFit:      budget,
			ClientQuality:  client,
			ScopeFit:       scope,
			WinProbability: win,
			// Recomputed here so the weighted-sum invariant holds regardless
			// of what the model emits.
			OverallScore: jobs.OverallFromSubScores(skill, budget, client, scope, win),
			Reasoning:    entry.Reasoning,
		})
	}

	if len(missing) > 0 {
		if e.mode == BatchStrict {
			return nil, &BatchIdentityError{Op: "rank", Missing: missing}
		}
		for _, id := range missing {
			result.Dropped = append(result.Dropped, DroppedJob{JobID: id, Reason: "no output entry"})
		}
	}
	if len(result.Dropped) > 0 {
		e.log.Warn("ranking dropped entries", "dropped", len(result.Dropped), "total", len(rawJobs))
	}
	return result, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

type rankJobInput struct {
	JobID        string   `json:"job_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	BudgetMin    *float64 `json:"budget_min,omitempty"`
	BudgetMax    *float64 `json:"budget_max,omitempty"`
	ClientRating *float64 `json:"client_rating,omitempty"`
}

func rankPayload(rawJobs []*types.RawJob, np types.Normalized) (string, map[uuid.UUID]struct{}, error) {
	inputs := make([]rankJobInput, 0, len(rawJobs))
	ids := make(map[uuid.UUID]struct{}, len(rawJobs))
	for _, job := range rawJobs {
		if job == nil || job.ID == uuid.Nil {
			return "", nil, fmt.Errorf("batch contains job without id")
		}
		if _, dup := ids[job.ID]; dup {
			return "", nil, fmt.Errorf("batch contains duplicate job %s", job.ID)
		}
		ids[job.ID] = struct{}{}
		inputs = append(inputs, rankJobInput{
			JobID:        job.ID.String(),
			Title:        job.Title,
			Description:  job.Description,
			BudgetMin:    job.BudgetMin,
			BudgetMax:    job.BudgetMax,
			ClientRating: job.ClientRating,
		})
	}
	buf, err := json.Marshal(map[string]any{"profile": np, "jobs": inputs})
	if err != nil {
		return "", nil, err
	}
	return string(buf), ids, nil
}

func rankSchema() map[string]any {
	score := map[string]any{"type": "number", "minimum": 0, "maximum": 100}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"jobs": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"job_id":          map[string]any{"type": "string"},
						"skill_match":     score,
						"budget_fit":      score,
						"client_quality":  score,
						"scope_fit":       score,
						"win_probability": score,
						"reasoning":       map[string]any{"type": "string"},
					},
					"required": []string{
						"job_id", "skill_match", "budget_fit", "client_quality",
						"scope_fit", "win_probability", "reasoning",
					},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"jobs"},
		"additionalProperties": false,
	}
}
