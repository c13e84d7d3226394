package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/tractshare/tract-api/api/swagger"
	"github.com/tractshare/tract-api/internal/authz"
	"github.com/tractshare/tract-api/internal/handler"
	"github.com/tractshare/tract-api/internal/middleware"
	"github.com/tractshare/tract-api/internal/repository"
	"github.com/tractshare/tract-api/internal/service"
	"github.com/tractshare/tract-api/pkg/cache"
	"github.com/tractshare/tract-api/pkg/config"
	"github.com/tractshare/tract-api/pkg/database"
	"github.com/tractshare/tract-api/pkg/logger"
	corsmiddleware "github.com/tractshare/tract-api/pkg/middleware/cors"
	reqidmiddleware "github.com/tractshare/tract-api/pkg/middleware/requestid"
	"github.com/tractshare/tract-api/pkg/storage"
)

// @title Tract Library API
// @version 1.0.0
// @description Content management API for gospel tract PDFs
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare uploads directory", zap.Error(err))
	}

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Stats.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, true)
		}
	}

	userRepo := repository.NewUserRepository(db)
	tractRepo := repository.NewTractRepository(db)
	downloadRepo := repository.NewDownloadRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, cacheSvc, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, logMailer{logr}, nil, cacheSvc, logr)
	tractSvc := service.NewTractService(tractRepo, downloadRepo, files, cacheSvc, metrics, service.UploadPolicy{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
	}, nil, logr)
	statsSvc := service.NewStatsService(statsRepo, cacheSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	tractHandler := handler.NewTractHandler(tractSvc)
	adminHandler := handler.NewAdminHandler(tractSvc, statsSvc)
	userHandler := handler.NewUserHandler(userSvc)
	profileHandler := handler.NewProfileHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/role", middleware.OptionalJWT(authSvc), authHandler.Role)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		tracts := api.Group("/tracts")
		{
			tracts.GET("", middleware.OptionalJWT(authSvc), tractHandler.List)
			tracts.POST("/upload", middleware.JWT(authSvc), middleware.RequireAction(authz.ActionUpload), tractHandler.Upload)
			tracts.PATCH("", middleware.JWT(authSvc), middleware.RequireAction(authz.ActionManageTracts), adminHandler.UpdateTract)
			tracts.DELETE("", middleware.JWT(authSvc), middleware.RequireAction(authz.ActionManageTracts), adminHandler.DeleteTract)
			tracts.GET("/:id", tractHandler.Get)
			tracts.GET("/:id/download", middleware.OptionalJWT(authSvc), tractHandler.Download)
			tracts.GET("/:id/preview", tractHandler.Preview)
		}

		profile := api.Group("/profile", middleware.JWT(authSvc))
		{
			profile.GET("", profileHandler.Get)
			profile.PATCH("", profileHandler.Update)
		}

		admin := api.Group("/admin", middleware.JWT(authSvc))
		{
			admin.GET("/pending-tracts", middleware.RequireAction(authz.ActionViewPending), adminHandler.PendingTracts)
			admin.PATCH("/pending-tracts", middleware.RequireAction(authz.ActionReview), adminHandler.Review)
			admin.PATCH("/tracts/:id/featured", middleware.RequireAction(authz.ActionManageTracts), adminHandler.SetFeatured)

			admin.GET("/stats", middleware.RequireAction(authz.ActionViewStats), adminHandler.Stats)
			admin.GET("/stats/export", middleware.RequireAction(authz.ActionViewStats), adminHandler.ExportStats)

			users := admin.Group("/users", middleware.RequireAction(authz.ActionManageUsers))
			{
				users.GET("", userHandler.List)
				users.GET("/:id", userHandler.Get)
				users.PATCH("/:id", userHandler.Update)
				users.DELETE("/:id", userHandler.Delete)
				users.POST("/:id/reset-password", userHandler.ResetPassword)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil && err != http.ErrServerClosed {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// logMailer is the development delivery channel: it logs that a reset
// happened without ever logging the credential itself.
type logMailer struct {
	logger *zap.Logger
}

func (m logMailer) SendPasswordReset(ctx context.Context, email string, tempPassword string) error {
	m.logger.Info("password reset issued", zap.String("email", email))
	return nil
}
