package services

import (
	"context"
	"errors"
	"testing"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// fakeGenerator returns canned structured output, or an error.
type fakeGenerator struct {
	out       map[string]any
	err       error
	lastUser  string
	lastName  string
	callCount int
}

func (f *fakeGenerator) GenerateJSON(_ context.Context, _ string, user string, schemaName string, _ map[string]any) (map[string]any, error) {
	f.callCount++
	f.lastUser = user
	f.lastName = schemaName
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func validSpecOutput() map[string]any {
	return map[string]any{
		"title_keywords": []any{
			map[string]any{"keyword": "golang developer", "weight": 9},
			map[string]any{"keyword": "backend engineer", "weight": 7},
		},
		"skill_keywords": []any{
			map[string]any{"keyword": "postgresql", "weight": 8},
		},
		"negative_keywords": []any{"wordpress"},
		"locations":         []any{"Berlin"},
		"seniority_levels":  []any{"senior"},
		"remote_preference": "remote",
		"contract_types":    []any{"hourly"},
		"budget_min":        50.0,
		"budget_max":        90.0,
	}
}

func sampleNormalized() types.Normalized {
	return types.Normalized{
		Headline:        "Senior Go backend engineer",
		Skills:          []string{"go", "postgresql", "redis"},
		YearsExperience: 8,
		Seniority:       "senior",
		Locations:       []string{"Berlin"},
		RemotePref:      "remote",
	}
}

func TestSpecGenGenerate(t *testing.T) {
	gen := &fakeGenerator{out: validSpecOutput()}
	svc := NewSpecGenService(gen, testLogger(t))

	params, err := svc.Generate(context.Background(), sampleNormalized())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(params.TitleKeywords) != 2 {
		t.Fatalf("expected 2 title keywords, got %d", len(params.TitleKeywords))
	}
	if params.TitleKeywords[0].Keyword != "golang developer" || params.TitleKeywords[0].Weight != 9 {
		t.Fatalf("unexpected first keyword: %+v", params.TitleKeywords[0])
	}
	if params.RemotePreference != "remote" {
		t.Fatalf("unexpected remote preference %q", params.RemotePreference)
	}
	if gen.lastName != "search_spec" {
		t.Fatalf("unexpected schema name %q", gen.lastName)
	}
}

func TestSpecGenRejectsOutOfRangeWeight(t *testing.T) {
	out := validSpecOutput()
	out["title_keywords"] = []any{map[string]any{"keyword": "golang", "weight": 11}}
	svc := NewSpecGenService(&fakeGenerator{out: out}, testLogger(t))

	_, err := svc.Generate(context.Background(), sampleNormalized())
	if !errors.Is(err, ErrInvalidGenerationOutput) {
		t.Fatalf("expected ErrInvalidGenerationOutput, got %v", err)
	}
	var goe *GenerationOutputError
	if !errors.As(err, &goe) {
		t.Fatalf("expected GenerationOutputError, got %T", err)
	}
	if len(goe.Diagnostics) == 0 {
		t.Fatal("expected diagnostics")
	}
}

func TestSpecGenRejectsUnknownEnum(t *testing.T) {
	out := validSpecOutput()
	out["remote_preference"] = "underwater"
	svc := NewSpecGenService(&fakeGenerator{out: out}, testLogger(t))

	if _, err := svc.Generate(context.Background(), sampleNormalized()); !errors.Is(err, ErrInvalidGenerationOutput) {
		t.Fatalf("expected ErrInvalidGenerationOutput, got %v", err)
	}
}

func TestSpecGenRejectsInvertedBudget(t *testing.T) {
	out := validSpecOutput()
	out["budget_min"] = 90.0
	out["budget_max"] = 50.0
	svc := NewSpecGenService(&fakeGenerator{out: out}, testLogger(t))

	if _, err := svc.Generate(context.Background(), sampleNormalized()); !errors.Is(err, ErrInvalidGenerationOutput) {
		t.Fatalf("expected ErrInvalidGenerationOutput, got %v", err)
	}
}

func TestSpecGenRejectsEmptyKeywordLists(t *testing.T) {
	out := validSpecOutput()
	out["title_keywords"] = []any{}
	svc := NewSpecGenService(&fakeGenerator{out: out}, testLogger(t))

	if _, err := svc.Generate(context.Background(), sampleNormalized()); !errors.Is(err, ErrInvalidGenerationOutput) {
		t.Fatalf("expected ErrInvalidGenerationOutput, got %v", err)
	}
}

func TestSpecGenPropagatesCallError(t *testing.T) {
	boom := errors.New("rate limited")
	svc := NewSpecGenService(&fakeGenerator{err: boom}, testLogger(t))

	if _, err := svc.Generate(context.Background(), sampleNormalized()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped call error, got %v", err)
	}
}
