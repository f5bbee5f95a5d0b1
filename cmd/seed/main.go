// Package main generates fake participants and enrollments for existing events.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/RaphaBane/Gereventos-SENAC/config"
	"github.com/RaphaBane/Gereventos-SENAC/internal/seed"
	"github.com/RaphaBane/Gereventos-SENAC/internal/storage/backend"
)

func main() {
	events := flag.Int("events", 9, "number of events (lowest ids first) to fill")
	perEvent := flag.Int("per-event", 5, "participants to create and enroll per event")
	password := flag.String("password", seed.DefaultPassword, "password for every generated account")
	randSeed := flag.Int64("seed", 0, "random seed; 0 picks one")
	flag.Parse()

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

	res, err := seed.Run(ctx, store, seed.Options{
		Events:   *events,
		PerEvent: *perEvent,
		Password: *password,
		Seed:     *randSeed,
	}, logger)
	if err != nil {
		logger.Error("seed failed", zap.Error(err))
		closeStore()
		os.Exit(1)
	}
	fmt.Printf("Criados %d participantes e %d inscrições para %d eventos.\n", res.Participants, res.Enrollments, res.Events)
}

func newLogger() *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
