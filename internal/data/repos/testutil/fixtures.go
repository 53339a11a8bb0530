package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/talentloop/talentloop-backend/internal/domain"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, version int) *types.FreelancerProfile {
	tb.Helper()
	p := &types.FreelancerProfile{
		ID:             uuid.New(),
		TeamID:         uuid.New(),
		UserID:         uuid.New(),
		ProfileVersion: version,
		Headline:       "Backend engineer",
		Skills:         datatypes.JSON([]byte(`["go","postgres"]`)),
		Preferences:    datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

func SeedSearchSpec(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, version int) *types.SearchSpec {
	tb.Helper()
	s := &types.SearchSpec{
		ID:             uuid.New(),
		TeamID:         uuid.New(),
		UserID:         userID,
		ProfileVersion: version,
		Platforms:      datatypes.JSON([]byte(`["upwork"]`)),
		Params:         datatypes.JSON([]byte(`{"title_keywords":[{"keyword":"go developer","weight":8}]}`)),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed search spec: %v", err)
	}
	return s
}

func SeedRawJob(tb testing.TB, ctx context.Context, tx *gorm.DB, platform, platformJobID string) *types.RawJob {
	tb.Helper()
	j := &types.RawJob{
		ID:            uuid.New(),
		Platform:      platform,
		PlatformJobID: platformJobID,
		Title:         "Go backend contractor",
		Description:   "Build APIs",
		Extra:         datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(j).Error; err != nil {
		tb.Fatalf("seed raw job: %v", err)
	}
	return j
}

func SeedScore(tb testing.TB, ctx context.Context, tx *gorm.DB, jobID, userID uuid.UUID, version int, overall float64) *types.JobScore {
	tb.Helper()
	s := &types.JobScore{
		ID:             uuid.New(),
		JobID:          jobID,
		UserID:         userID,
		ProfileVersion: version,
		Tightness:      "balanced",
		SkillMatch:     overall,
		BudgetFit:      overall,
		ClientQuality:  overall,
		ScopeFit:       overall,
		WinProbability: overall,
		OverallScore:   overall,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed score: %v", err)
	}
	return s
}
