package app

import (
	"time"

	"github.com/talentloop/talentloop-backend/internal/platform/envutil"
	"github.com/talentloop/talentloop-backend/internal/services"
)

type Config struct {
	Port    string
	LogMode string

	// RedisAddr empty means the in-process cache store.
	RedisAddr    string
	SpecCacheTTL time.Duration

	BatchMode services.BatchMode

	// JobBoardURL empty disables fetching; enrichment and rescoring still run.
	JobBoardURL string
}

func LoadConfig() Config {
	mode := services.BatchMode(envutil.String("BATCH_MODE", string(services.BatchStrict)))
	if mode != services.BatchStrict && mode != services.BatchBestEffort {
		mode = services.BatchStrict
	}
	return Config{
		Port:         envutil.String("PORT", "8080"),
		LogMode:      envutil.String("LOG_MODE", "development"),
		RedisAddr:    envutil.String("REDIS_ADDR", ""),
		SpecCacheTTL: envutil.DurationSeconds("SPEC_CACHE_TTL_SECONDS", 24*3600),
		BatchMode:    mode,
		JobBoardURL:  envutil.String("JOBBOARD_BASE_URL", ""),
	}
}
