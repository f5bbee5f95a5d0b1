// Package main runs the background job worker (confirmation emails, banner cleanup).
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RaphaBane/Gereventos-SENAC/config"
	"github.com/RaphaBane/Gereventos-SENAC/internal/notify"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/backend"
	"github.com/RaphaBane/Gereventos-SENAC/internal/worker"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/queue"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/redis"
	"github.com/RaphaBane/Gereventos-SENAC/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
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

	mailer := notify.NewSMTPMailer(notify.SMTPConfig{
		Host:        cfg.Email.SMTPHost,
		Port:        cfg.Email.SMTPPort,
		Username:    cfg.Email.SMTPUser,
		Password:    cfg.Email.SMTPPass,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
	})
	if cfg.Email.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, confirmation emails will fail and land in the DLQ")
	}
	processors := map[queue.JobType]worker.Processor{
		queue.JobTypeEmail: worker.NewEmailProcessor(mailer, store, logger),
	}

	s3Client, err := storage.NewS3(ctx, storage.S3Config{
		Region:          cfg.AWS.Region,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		BannersBucket:   cfg.AWS.BannersBucket,
		PublicRead:      cfg.AWS.PublicRead,
	}, logger)
	if err != nil {
		logger.Warn("s3 disabled, banner cleanup jobs stay queued", zap.Error(err))
	} else {
		processors[queue.JobTypeBannerCleanup] = worker.NewBannerProcessor(s3Client, logger)
	}

	jobQueue := queue.NewQueue(rdb.Client, logger)
	runner := worker.NewRunner(jobQueue, processors, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runner.Run(workerCtx)
	}()
	logger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
