package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	temporalsdkclient "go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/talentloop/talentloop-backend/internal/cache"
	"github.com/talentloop/talentloop-backend/internal/clients/jobboard"
	"github.com/talentloop/talentloop-backend/internal/clients/openai"
	"github.com/talentloop/talentloop-backend/internal/data/repos"
	"github.com/talentloop/talentloop-backend/internal/db"
	httpapi "github.com/talentloop/talentloop-backend/internal/http"
	"github.com/talentloop/talentloop-backend/internal/jobs"
	"github.com/talentloop/talentloop-backend/internal/platform/logger"
	"github.com/talentloop/talentloop-backend/internal/services"
	"github.com/talentloop/talentloop-backend/internal/temporalx"
	"github.com/talentloop/talentloop-backend/internal/temporalx/fetchrun"
	"github.com/talentloop/talentloop-backend/internal/temporalx/temporalworker"
)

type Services struct {
	SpecGen    services.SpecGenService
	SearchSpec services.SearchSpecService
	Engine     services.MatchEngine
	Recompute  services.RecomputeService
	Profiles   services.ProfileService
	Runs       services.RunService
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Router   *gin.Engine
	Repos    repos.Set
	Services Services

	worker         *jobs.Worker
	temporalClient temporalsdkclient.Client
	temporalWorker *temporalworker.Runner
	cancel         context.CancelFunc
}

func New() (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	reposet := repos.NewSet(theDB, log)

	var store cache.Store
	if cfg.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		store = redisStore
	} else {
		log.Warn("REDIS_ADDR not set; using in-process spec cache")
		store = cache.NewMemoryStore()
	}
	specCache := cache.NewSearchSpecCache(store, log)

	aiClient, err := openai.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init openai client: %w", err)
	}

	specGen := services.NewSpecGenService(aiClient, log)
	searchSpecs := services.NewSearchSpecService(reposet.Profile, reposet.SearchSpec, specCache, specGen, cfg.SpecCacheTTL, log)
	engine := services.NewMatchEngine(aiClient, log, cfg.BatchMode)
	recompute := services.NewRecomputeService(reposet, log)
	profiles := services.NewProfileService(theDB, reposet.Profile, recompute, log)

	var source fetchrun.JobSource
	if cfg.JobBoardURL != "" {
		boardClient, err := jobboard.NewClient(log)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init jobboard client: %w", err)
		}
		source = boardClient
	} else {
		log.Warn("JOBBOARD_BASE_URL not set; job fetching disabled")
	}

	tc, err := temporalx.NewClient(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init temporal: %w", err)
	}
	var substrate services.TaskSubstrate
	var tworker *temporalworker.Runner
	if tc != nil {
		sub, err := temporalx.NewSubstrate(tc, log)
		if err != nil {
			log.Sync()
			return nil, err
		}
		substrate = sub
		acts := &fetchrun.Activities{
			Log:    log,
			Repos:  reposet,
			Specs:  searchSpecs,
			Engine: engine,
			Source: source,
		}
		tworker, err = temporalworker.NewRunner(log, tc, acts)
		if err != nil {
			log.Sync()
			return nil, err
		}
	} else {
		substrate = disabledSubstrate{}
	}
	runs := services.NewRunService(reposet.AgentRun, substrate, log)

	registry := jobs.NewRegistry()
	handlers := jobs.NewHandlers(log, reposet, searchSpecs, engine, aiClient)
	if err := handlers.RegisterAll(registry); err != nil {
		log.Sync()
		return nil, err
	}
	worker := jobs.NewWorker(log, reposet.Recompute, registry)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Profiles:  httpapi.NewProfilesHandler(profiles, searchSpecs, reposet.JobScore),
		Runs:      httpapi.NewRunsHandler(runs),
		Recompute: httpapi.NewRecomputeHandler(reposet.Recompute, recompute),
	})

	return &App{
		Log:    log,
		Cfg:    cfg,
		DB:     theDB,
		Router: router,
		Repos:  reposet,
		Services: Services{
			SpecGen:    specGen,
			SearchSpec: searchSpecs,
			Engine:     engine,
			Recompute:  recompute,
			Profiles:   profiles,
			Runs:       runs,
		},
		worker:         worker,
		temporalClient: tc,
		temporalWorker: tworker,
	}, nil
}

// Start brings up the background workers. Safe to call once.
func (a *App) Start() error {
	if a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.worker.Start(ctx)
	if a.temporalWorker != nil {
		if err := a.temporalWorker.Start(ctx); err != nil {
			return fmt.Errorf("start temporal worker: %w", err)
		}
	}
	return nil
}

func (a *App) Run() error {
	if a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.temporalClient != nil {
		a.temporalClient.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
