package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/shootdesk/backend/internal/config"
	"github.com/shootdesk/backend/internal/db"
	"github.com/shootdesk/backend/internal/http/handlers"
	"github.com/shootdesk/backend/internal/http/middleware"
	"github.com/shootdesk/backend/internal/notify"
	"github.com/shootdesk/backend/internal/service"

	_ "github.com/shootdesk/backend/docs"
)

func Router(cfg config.Config, store *db.Store, dispatcher notify.Dispatcher, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store: store,
		Recommender: service.RecommendationService{
			Store:    store,
			PoolSize: cfg.EvalWorkers,
			Logger:   logger,
		},
		Committer: &service.CommitService{
			Store:    store,
			Notifier: dispatcher,
			Logger:   logger,
		},
		Validator: validator.New(),
		Logger:    logger,
		AdminKey:  cfg.AdminKey,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.GET("/jobs", h.JobsList)
		api.GET("/jobs/:id", h.JobDetails)
		api.GET("/jobs/:id/candidates", h.JobCandidates)
		api.GET("/workers", h.WorkersList)
		api.GET("/locations", h.LocationsList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/import", h.Import)
		admin.POST("/jobs/:id/assign", h.AssignJob)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
