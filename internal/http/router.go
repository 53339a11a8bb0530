package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Profiles  *ProfilesHandler
	Runs      *RunsHandler
	Recompute *RecomputeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := router.Group("/api")
	{
		api.POST("/profiles", cfg.Profiles.Register)
		api.GET("/profiles/:userID", cfg.Profiles.Get)
		api.PUT("/profiles/:userID", cfg.Profiles.Update)
		api.GET("/profiles/:userID/spec", cfg.Profiles.GetSpec)
		api.GET("/profiles/:userID/scores", cfg.Profiles.ListScores)

		api.POST("/runs", cfg.Runs.Start)
		api.GET("/runs/:id", cfg.Runs.Get)
		api.GET("/users/:userID/runs", cfg.Runs.ListByUser)

		api.GET("/recompute/stats", cfg.Recompute.Stats)
		api.GET("/recompute/items/:id", cfg.Recompute.GetItem)
		api.POST("/recompute/sweep/:userID", cfg.Recompute.Sweep)
	}

	return router
}
