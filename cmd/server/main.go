// Package main runs the event registration HTTP server with WebSocket feed and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RaphaBane/Gereventos-SENAC/config"
	"github.com/RaphaBane/Gereventos-SENAC/internal/auth"
	"github.com/RaphaBane/Gereventos-SENAC/internal/enrollments"
	"github.com/RaphaBane/Gereventos-SENAC/internal/events"
	"github.com/RaphaBane/Gereventos-SENAC/internal/identity"
	"github.com/RaphaBane/Gereventos-SENAC/internal/middleware"
	"github.com/RaphaBane/Gereventos-SENAC/internal/notify"
	"github.com/RaphaBane/Gereventos-SENAC/internal/profiles"
	"github.com/RaphaBane/Gereventos-SENAC/internal/realtime"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/backend"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/queue"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/redis"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/response"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	loc, err := cfg.Events.Location()
	if err != nil {
		logger.Fatal("timezone", zap.Error(err))
	}

	ctx := context.Background()
	store, closeStore, err := backend.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer closeStore()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var (
		bannerStore  events.BannerStore
		bannerOpener events.BannerOpener
	)
	if cfg.AWS.BannersBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			BannersBucket:   cfg.AWS.BannersBucket,
			PublicRead:      cfg.AWS.PublicRead,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled, banner uploads unavailable", zap.Error(err))
		} else {
			bannerStore, bannerOpener = s3Client, s3Client
		}
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	resolver := identity.NewResolver(store)
	redisPubSub := realtime.NewRedisPubSub(rdb.Client, logger)
	hub := realtime.NewHub(logger, redisPubSub, redisPubSub)

	renderer, err := notify.NewRenderer(loc)
	if err != nil {
		logger.Fatal("email templates", zap.Error(err))
	}
	notifier := notify.NewQueueNotifier(renderer, store, jobQueue, logger)

	// Auth
	authService := auth.NewService(store, jwtService, logger)
	authHandler := auth.NewHandler(authService, logger)

	// Profiles
	profileService := profiles.NewService(store, authService, jobQueue, logger)
	profileHandler := profiles.NewHandler(profileService, logger)

	// Events
	lister := events.NewLister(store, loc)
	manager := events.NewManager(store, bannerStore, jobQueue, logger)
	eventHandler := events.NewHandler(lister, manager, bannerOpener, loc, logger)

	// Enrollments
	opts := []enrollments.Option{
		enrollments.WithNotifier(notifier),
		enrollments.WithPublisher(hub),
	}
	if cfg.Enrollment.Serializable {
		opts = append(opts, enrollments.WithSerializable())
	}
	if cfg.Enrollment.StrictOwnership {
		opts = append(opts, enrollments.WithOwnershipCheck())
	}
	enrollmentService := enrollments.NewService(store, logger, opts...)
	enrollmentHandler := enrollments.NewHandler(enrollmentService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		if err := rdb.Healthy(c.Request.Context()); err != nil {
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok", "db_driver": cfg.Database.Driver})
	})

	// Public
	router.POST("/auth/login", authHandler.Login)
	router.POST("/signup/participant", profileHandler.SignupParticipant)
	router.POST("/signup/organizer", profileHandler.SignupOrganizer)
	router.GET("/events/:id/banner", eventHandler.Banner)

	// Listing enrichment depends on who is asking, so a token is read when present.
	public := router.Group("")
	public.Use(middleware.OptionalJWT(jwtService, resolver, logger))
	{
		public.GET("/events", eventHandler.List)
		public.GET("/events/:id", eventHandler.Get)
	}

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService, resolver, logger))
	{
		api.GET("/me", authHandler.Me)
		api.PATCH("/me", authHandler.UpdateMe)
		api.POST("/me/password", authHandler.ChangePassword)

		participant := middleware.Require(identity.RequireParticipant)
		organizer := middleware.Require(identity.RequireOrganizer)

		// Events (owner checks happen in the manager)
		api.POST("/events", organizer, eventHandler.Create)
		api.PATCH("/events/:id", organizer, eventHandler.Update)
		api.DELETE("/events/:id", organizer, eventHandler.Delete)
		api.GET("/events/:id/emails", organizer, eventHandler.EmailLogs)

		// Enrollments
		api.POST("/events/:id/enroll", participant, enrollmentHandler.Enroll)
		api.DELETE("/enrollments/:id", participant, enrollmentHandler.Unenroll)
		api.GET("/me/enrollments", participant, enrollmentHandler.History)
		api.GET("/dashboard", organizer, enrollmentHandler.Dashboard)

		// Profiles
		api.GET("/profile/participant", participant, profileHandler.GetParticipant)
		api.PATCH("/profile/participant", participant, profileHandler.UpdateParticipant)
		api.DELETE("/profile/participant", participant, profileHandler.DeleteParticipant)
		api.GET("/profile/organizer", organizer, profileHandler.GetOrganizer)
		api.PATCH("/profile/organizer", organizer, profileHandler.UpdateOrganizer)
		api.DELETE("/profile/organizer", organizer, profileHandler.DeleteOrganizer)
	}

	// WebSocket (token in query; no Authorization header required)
	router.GET("/ws", realtime.ServeWs(hub, realtime.NewOwnerAuthorizer(jwtService, resolver, store), logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("db_driver", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
