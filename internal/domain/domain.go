package domain

import (
	"github.com/talentloop/talentloop-backend/internal/domain/jobs"
	"github.com/talentloop/talentloop-backend/internal/domain/profile"
	"github.com/talentloop/talentloop-backend/internal/domain/search"
)

type (
	FreelancerProfile = profile.FreelancerProfile
	NormalizedProfile = profile.NormalizedProfile
	ProfileEmbedding  = profile.ProfileEmbedding
	Normalized        = profile.Normalized

	SearchSpec      = search.SearchSpec
	SpecParams      = search.SpecParams
	WeightedKeyword = search.WeightedKeyword

	RawJob        = jobs.RawJob
	EnrichedJob   = jobs.EnrichedJob
	JobScore      = jobs.JobScore
	RecomputeItem = jobs.RecomputeItem
	AgentRun      = jobs.AgentRun
)

const (
	ItemNormalizedProfile = jobs.ItemNormalizedProfile
	ItemSearchSpec        = jobs.ItemSearchSpec
	ItemProfileEmbedding  = jobs.ItemProfileEmbedding
	ItemJobScores         = jobs.ItemJobScores

	RecomputePending    = jobs.RecomputePending
	RecomputeProcessing = jobs.RecomputeProcessing
	RecomputeCompleted  = jobs.RecomputeCompleted
	RecomputeFailed     = jobs.RecomputeFailed

	RunQueued    = jobs.RunQueued
	RunRunning   = jobs.RunRunning
	RunSucceeded = jobs.RunSucceeded
	RunFailed    = jobs.RunFailed

	RunKindJobFetch   = jobs.RunKindJobFetch
	RunKindEnrichment = jobs.RunKindEnrichment
	RunKindRescore    = jobs.RunKindRescore

	SeniorityJunior = jobs.SeniorityJunior
	SeniorityMid    = jobs.SeniorityMid
	SenioritySenior = jobs.SenioritySenior
)
