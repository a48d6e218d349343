package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/todo-list-api/api/swagger"
	"github.com/noah-isme/todo-list-api/internal/handler"
	"github.com/noah-isme/todo-list-api/internal/middleware"
	"github.com/noah-isme/todo-list-api/internal/models"
	"github.com/noah-isme/todo-list-api/internal/repository"
	"github.com/noah-isme/todo-list-api/internal/service"
	"github.com/noah-isme/todo-list-api/pkg/cache"
	"github.com/noah-isme/todo-list-api/pkg/config"
	"github.com/noah-isme/todo-list-api/pkg/database"
	"github.com/noah-isme/todo-list-api/pkg/jobs"
	"github.com/noah-isme/todo-list-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/todo-list-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/todo-list-api/pkg/middleware/requestid"
)

// @title To-Do List API
// @version 1.0.0
// @description Task management backend with JWT authentication
// @BasePath /
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, listing cache disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db)
	todoRepo := repository.NewTodoRepository(db)

	authSvc := service.NewAuthService(userRepo, tokenRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	todoSvc := service.NewTodoService(todoRepo, cacheRepo, cfg.Cache.TTL, validate, logr, metricsSvc)
	userSvc := service.NewUserService(userRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	todoHandler := handler.NewTodoHandler(todoSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Sessions.CleanupEnabled {
		startSessionCleanup(tokenRepo, cfg.Sessions.CleanupInterval, logr)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)

	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/sign-up", authHandler.SignUp)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh-token", authHandler.Refresh)
		auth.DELETE("/log-out", authHandler.Logout)
	}

	todo := api.Group("/todo-list", middleware.JWT(authSvc))
	{
		todo.POST("/add", todoHandler.Add)
		todo.GET("/get/:id", todoHandler.Get)
		todo.GET("/get-all", todoHandler.GetAll)
		todo.GET("/all", todoHandler.All)
		todo.PUT("/update", todoHandler.Update)
		todo.DELETE("/delete", todoHandler.Delete)
		todo.GET("/by-due-date", todoHandler.ByDueDate)
		todo.GET("/completed", todoHandler.Completed)
		todo.GET("/incomplete", todoHandler.Incomplete)
		todo.GET("/total-count", todoHandler.TotalCount)
		todo.GET("/export", todoHandler.Export)
	}

	admin := api.Group("/admin", middleware.JWT(authSvc))
	{
		admin.GET("/getUsers", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), userHandler.List)
		admin.PATCH("/updateRole", middleware.RequireRoles(models.RoleSuperAdmin), userHandler.UpdateRole)
		admin.DELETE("/delete", middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin), userHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// startSessionCleanup runs a worker queue that periodically purges expired
// and long-revoked refresh tokens.
func startSessionCleanup(tokens *repository.TokenRepository, interval time.Duration, logr *zap.Logger) {
	queue := jobs.NewQueue("session-cleanup", func(ctx context.Context, job jobs.Job) error {
		removed, err := tokens.DeleteExpired(ctx, time.Now().UTC())
		if err != nil {
			return err
		}
		if removed > 0 {
			logr.Sugar().Infow("purged refresh tokens", "removed", removed)
		}
		return nil
	}, jobs.QueueConfig{Workers: 1, Logger: logr})

	queue.Start(context.Background())
	queue.EnqueueEvery(interval, "purge-expired-tokens")
}
