// Package bootstrap provides dependency initialization for the loop generation API.
package bootstrap

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/streamloop/loopgen-api/internal/config"
	"github.com/streamloop/loopgen-api/internal/engine"
	"github.com/streamloop/loopgen-api/internal/job"
	"github.com/streamloop/loopgen-api/internal/loop"
	"github.com/streamloop/loopgen-api/internal/probe"
	"github.com/streamloop/loopgen-api/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	LoopService *job.LoopService
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	prober := probe.NewFFprobeProber(cfg.FFprobePath,
		probe.WithTimeout(time.Duration(cfg.ProbeTimeoutSec)*time.Second),
	)
	eng := engine.NewFFmpegEngine(cfg.FFmpegPath)
	composer := loop.NewComposer(eng, prober, logger)

	repo := job.NewMemoryRepository()

	svc := job.NewLoopService(
		repo,
		composer,
		store,
		logger,
		job.WithMaxConcurrent(cfg.MaxConcurrentLoops),
	)

	return &Dependencies{
		LoopService: svc,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}
