package services

import (
	"context"
	"encoding/json"
	"fmt"

	types "github.com/talentloop/talentloop-backend/internal/domain"
	"github.com/talentloop/talentloop-backend/internal/domain/search"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
)

// Generator is the structured-output slice of the AI client the spec
// generator needs. openai.Client satisfies it; tests use a fake.
type Generator interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
}

// SpecGenService turns a normalized profile into search parameters. It is a
// pure transformer: identity fields (user, team, version, platforms) are
// attached by the caller, never here.
type SpecGenService interface {
	Generate(ctx context.Context, np types.Normalized) (*types.SpecParams, error)
}

type specGenService struct {
	ai  Generator
	log *logger.Logger
}

func NewSpecGenService(ai Generator, baseLog *logger.Logger) SpecGenService {
	return &specGenService{
		ai:  ai,
		log: baseLog.With("service", "SpecGenService"),
	}
}

const specGenSystem = `You are a job-search strategist for freelancers.
Given a freelancer profile, produce search parameters for querying freelance job boards.
Weights run 1-10, 10 strongest. Prefer specific, searchable phrases over generic ones.
Include negative keywords only for work the freelancer clearly wants to avoid.
Base everything on the profile; do not invent skills or locations.`

func (s *specGenService) Generate(ctx context.Context, np types.Normalized) (*types.SpecParams, error) {
	profileJSON, err := json.Marshal(np)
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	raw, err := s.ai.GenerateJSON(ctx, specGenSystem, string(profileJSON), "search_spec", specParamsSchema())
	if err != nil {
		return nil, fmt.Errorf("spec generation call: %w", err)
	}

	// Round-trip through JSON to decode the untyped map into SpecParams.
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("re-marshal generation output: %w", err)
	}
	var params types.SpecParams
	if err := json.Unmarshal(buf, &params); err != nil {
		return nil, &GenerationOutputError{Op: "specgen", Diagnostics: []string{fmt.Sprintf("not decodable as spec params: %v", err)}}
	}

	if diags := ValidateSpecParams(&params); len(diags) > 0 {
		s.log.Warn("generated spec failed validation", "diagnostics", diags)
		return nil, &GenerationOutputError{Op: "specgen", Diagnostics: diags}
	}
	return &params, nil
}

// ValidateSpecParams enforces the spec-params schema bounds. Returns a
// diagnostic per violation, empty when valid.
func ValidateSpecParams(p *types.SpecParams) []string {
	var diags []string
	if p == nil {
		return []string{"params missing"}
	}

	if n := len(p.TitleKeywords); n < 1 || n > 10 {
		diags = append(diags, fmt.Sprintf("title_keywords length %d, want 1-10", n))
	}
	if n := len(p.SkillKeywords); n < 1 || n > 20 {
		diags = append(diags, fmt.Sprintf("skill_keywords length %d, want 1-20", n))
	}
	if n := len(p.NegativeKeywords); n > 10 {
		diags = append(diags, fmt.Sprintf("negative_keywords length %d, want 0-10", n))
	}
	if n := len(p.Locations); n > 5 {
		diags = append(diags, fmt.Sprintf("locations length %d, want 0-5", n))
	}
	if n := len(p.SeniorityLevels); n > 6 {
		diags = append(diags, fmt.Sprintf("seniority_levels length %d, want 0-6", n))
	}
	if n := len(p.ContractTypes); n < 1 || n > 4 {
		diags = append(diags, fmt.Sprintf("contract_types length %d, want 1-4", n))
	}

	for _, kw := range p.TitleKeywords {
		diags = appendKeywordDiags(diags, "title_keywords", kw)
	}
	for _, kw := range p.SkillKeywords {
		diags = appendKeywordDiags(diags, "skill_keywords", kw)
	}
	for _, lvl := range p.SeniorityLevels {
		if !contains(search.SeniorityLevels, lvl) {
			diags = append(diags, fmt.Sprintf("unknown seniority level %q", lvl))
		}
	}
	if p.RemotePreference != "" && !contains(search.RemotePreferences, p.RemotePreference) {
		diags = append(diags, fmt.Sprintf("unknown remote preference %q", p.RemotePreference))
	}
	for _, ct := range p.ContractTypes {
		if !contains(search.ContractTypes, ct) {
			diags = append(diags, fmt.Sprintf("unknown contract type %q", ct))
		}
	}
	if p.BudgetMin != nil && *p.BudgetMin < 0 {
		diags = append(diags, "budget_min negative")
	}
	if p.BudgetMax != nil && *p.BudgetMax < 0 {
		diags = append(diags, "budget_max negative")
	}
	if p.BudgetMin != nil && p.BudgetMax != nil && *p.BudgetMin > *p.BudgetMax {
		diags = append(diags, "budget_min exceeds budget_max")
	}
	return diags
}

func appendKeywordDiags(diags []string, field string, kw types.WeightedKeyword) []string {
	if kw.Keyword == "" {
		diags = append(diags, field+": empty keyword")
	}
	if kw.Weight < 1 || kw.Weight > 10 {
		diags = append(diags, fmt.Sprintf("%s: weight %d out of 1-10 for %q", field, kw.Weight, kw.Keyword))
	}
	return diags
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func specParamsSchema() map[string]any {
	weighted := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keyword": map[string]any{"type": "string"},
			"weight":  map[string]any{"type": "integer", "minimum": 1, "maximum": 10},
		},
		"required":             []string{"keyword", "weight"},
		"additionalProperties": false,
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title_keywords": map[string]any{
				"type": "array", "items": weighted, "minItems": 1, "maxItems": 10,
			},
			"skill_keywords": map[string]any{
				"type": "array", "items": weighted, "minItems": 1, "maxItems": 20,
			},
			"negative_keywords": map[string]any{
				"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 10,
			},
			"locations": map[string]any{
				"type": "array", "items": map[string]any{"type": "string"}, "maxItems": 5,
			},
			"seniority_levels": map[string]any{
				"type": "array", "items": map[string]any{"type": "string", "enum": search.SeniorityLevels}, "maxItems": 6,
			},
			"remote_preference": map[string]any{"type": "string", "enum": search.RemotePreferences},
			"contract_types": map[string]any{
				"type": "array", "items": map[string]any{"type": "string", "enum": search.ContractTypes}, "minItems": 1, "maxItems": 4,
			},
			"budget_min": map[string]any{"type": []string{"number", "null"}, "minimum": 0},
			"budget_max": map[string]any{"type": []string{"number", "null"}, "minimum": 0},
		},
		"required": []string{
			"title_keywords", "skill_keywords", "negative_keywords", "locations",
			"seniority_levels", "remote_preference", "contract_types", "budget_min", "budget_max",
		},
		"additionalProperties": false,
	}
}
