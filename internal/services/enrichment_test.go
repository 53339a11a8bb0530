package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	types "github.com/talentloop/talentloop-backend/internal/domain"
)

func sampleRawJobs(n int) []*types.RawJob {
	jobs := make([]*types.RawJob, 0, n)
	for i := 0; i < n; i++ {
		jobs = append(jobs, &types.RawJob{
			ID:          uuid.New(),
			Platform:    "upwork",
			Title:       "Go backend engineer",
			Description: "Build APIs in Go against Postgres.",
		})
	}
	return jobs
}

func enrichOutputFor(jobs []*types.RawJob) map[string]any {
	entries := make([]any, 0, len(jobs))
	for _, j := range jobs {
		entries = append(entries, map[string]any{
			"job_id":               j.ID.String(),
			"seniority":            "senior",
			"summary":              "Backend work in Go for a product team.",
			"markdown_description": "## Role\nBackend engineer.\n\n## Requirements\nGo, Postgres.",
		})
	}
	return map[string]any{"jobs": entries}
}

func TestEnrichHappyPath(t *testing.T) {
	jobs := sampleRawJobs(3)
	engine := NewMatchEngine(&fakeGenerator{out: enrichOutputFor(jobs)}, testLogger(t), BatchStrict)

	res, err := engine.Enrich(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(res.Jobs) != 3 {
		t.Fatalf("expected 3 enriched jobs, got %d", len(res.Jobs))
	}
	if len(res.Dropped) != 0 {
		t.Fatalf("expected no drops, got %d", len(res.Dropped))
	}
	// Output identity must match input identity.
	seen := map[uuid.UUID]bool{}
	for _, e := range res.Jobs {
		seen[e.JobID] = true
		if e.PromptVersion != EnrichmentPromptVersion {
			t.Fatalf("unexpected prompt version %d", e.PromptVersion)
		}
		if e.Seniority != types.SenioritySenior {
			t.Fatalf("unexpected seniority %q", e.Seniority)
		}
	}
	for _, j := range jobs {
		if !seen[j.ID] {
			t.Fatalf("job %s missing from output", j.ID)
		}
	}
}

func TestEnrichReordersByID(t *testing.T) {
	jobs := sampleRawJobs(3)
	out := enrichOutputFor(jobs)
	entries := out["jobs"].([]any)
	entries[0], entries[2] = entries[2], entries[0]
	engine := NewMatchEngine(&fakeGenerator{out: out}, testLogger(t), BatchStrict)

	res, err := engine.Enrich(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	// Results are matched by id, not position: output order follows input.
	for i, e := range res.Jobs {
		if e.JobID != jobs[i].ID {
			t.Fatalf("position %d: got job %s, want %s", i, e.JobID, jobs[i].ID)
		}
	}
}

func TestEnrichStrictFailsOnMissingID(t *testing.T) {
	jobs := sampleRawJobs(3)
	out := enrichOutputFor(jobs[:2]) // third job dropped by the model
	engine := NewMatchEngine(&fakeGenerator{out: out}, testLogger(t), BatchStrict)

	_, err := engine.Enrich(context.Background(), jobs)
	if !errors.Is(err, ErrBatchIdentityMismatch) {
		t.Fatalf("expected ErrBatchIdentityMismatch, got %v", err)
	}
	var bie *BatchIdentityError
	if !errors.As(err, &bie) {
		t.Fatalf("expected BatchIdentityError, got %T", err)
	}
	if len(bie.Missing) != 1 || bie.Missing[0] != jobs[2].ID {
		t.Fatalf("unexpected missing set %v", bie.Missing)
	}
}

func TestEnrichBestEffortDropsMissingID(t *testing.T) {
	jobs := sampleRawJobs(3)
	out := enrichOutputFor(jobs[:2])
	engine := NewMatchEngine(&fakeGenerator{out: out}, testLogger(t), BatchBestEffort)

	res, err := engine.Enrich(context.Background(), jobs)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(res.Jobs) != 2 {
		t.Fatalf("expected 2 enriched jobs, got %d", len(res.Jobs))
	}
	if len(res.Dropped) != 1 || res.Dropped[0].JobID != jobs[2].ID {
		t.Fatalf("unexpected dropped set %+v", res.Dropped)
	}
}

func TestEnrichInventedIDFailsBothModes(t *testing.T) {
	jobs := sampleRawJobs(2)
	out := enrichOutputFor(jobs)
	out["jobs"] = append(out["jobs"].([]any), map[string]any{
		"job_id":               uuid.NewString(),
		"seniority":            "mid",
		"summary":              "Invented.",
		"markdown_description": "## Role\nInvented.",
	})

	for _, mode := range []BatchMode{BatchStrict, BatchBestEffort} {
		engine := NewMatchEngine(&fakeGenerator{out: out}, testLogger(t), mode)
		if _, err := engine.Enrich(context.Background(), jobs); !errors.Is(err, ErrBatchIdentityMismatch) {
			t.Fatalf("mode %s: expected ErrBatchIdentityMismatch, got %v", mode, err)
		}
	}
}

func TestEnrichMalformedEntry(t *testing.T) {
	jobs := sampleRawJobs(2)
	out := enrichOutputFor(jobs)
	out["jobs"].([]any)[1].(map[string]any)["seniority"] = "wizard"

	strict := NewMatchEngine(&fakeGenerator{out: out}, testLogger(t), BatchStrict)
	if _, err := strict.Enrich(context.Background(), jobs); !errors.Is(err, ErrInvalidGenerationOutput) {
		t.Fatalf("strict: expected ErrInvalidGenerationOutput, got %v", err)
	}

	best := NewMatchEngine(&fakeGenerator{out: out}, testLogger(t), BatchBestEffort)
	res, err := best.Enrich(context.Background(), jobs)
	if err != nil {
		t.Fatalf("best-effort: %v", err)
	}
	if len(res.Jobs) != 1 || len(res.Dropped) != 1 {
		t.Fatalf("best-effort: got %d jobs, %d dropped", len(res.Jobs), len(res.Dropped))
	}
	if res.Dropped[0].JobID != jobs[1].ID {
		t.Fatalf("unexpected dropped job %s", res.Dropped[0].JobID)
	}
}

func TestEnrichEmptyBatch(t *testing.T) {
	gen := &fakeGenerator{out: map[string]any{"jobs": []any{}}}
	engine := NewMatchEngine(gen, testLogger(t), BatchStrict)

	res, err := engine.Enrich(context.Background(), nil)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(res.Jobs) != 0 {
		t.Fatalf("expected empty result, got %d", len(res.Jobs))
	}
	if gen.callCount != 0 {
		t.Fatalf("expected no generation call for empty batch, got %d", gen.callCount)
	}
}

func TestEnrichRejectsDuplicateInput(t *testing.T) {
	j := sampleRawJobs(1)[0]
	engine := NewMatchEngine(&fakeGenerator{}, testLogger(t), BatchStrict)
	if _, err := engine.Enrich(context.Background(), []*types.RawJob{j, j}); err == nil {
		t.Fatal("expected error for duplicate input ids")
	}
}
