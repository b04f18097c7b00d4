package job

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/streamloop/loopgen-api/internal/loop"
	"github.com/streamloop/loopgen-api/internal/metrics"
	"github.com/streamloop/loopgen-api/internal/storage"
)

// Composer runs the loop composition for one request.
// Satisfied by *loop.Composer.
type Composer interface {
	Compose(ctx context.Context, inputPath string, req loop.Request, ws loop.Workspace) (string, error)
}

// LoopService orchestrates loop generation: it persists jobs, saves the
// uploaded source, runs composition off the request goroutine, and pushes
// the finished loop to S3 when configured.
type LoopService struct {
	repo     Repository
	composer Composer
	store    storage.Storage
	logger   *slog.Logger
	// slots bounds concurrent compositions; each engine invocation is a
	// blocking CPU/IO-heavy external call.
	slots chan struct{}
}

// ServiceOption configures a LoopService.
type ServiceOption func(*LoopService)

// WithMaxConcurrent bounds the number of compositions running at once.
// The default is 2.
func WithMaxConcurrent(n int) ServiceOption {
	return func(s *LoopService) {
		if n > 0 {
			s.slots = make(chan struct{}, n)
		}
	}
}

// NewLoopService creates a new LoopService.
func NewLoopService(repo Repository, composer Composer, store storage.Storage, logger *slog.Logger, opts ...ServiceOption) *LoopService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &LoopService{
		repo:     repo,
		composer: composer,
		store:    store,
		logger:   logger,
		slots:    make(chan struct{}, 2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob validates the request, saves the uploaded source and persists a
// new QUEUED job. Composition is started separately via Process.
func (s *LoopService) CreateJob(ctx context.Context, req loop.Request, pushToS3 bool, upload io.Reader) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	j := New(req)
	j.PushToS3 = pushToS3

	inputPath, err := s.store.SaveTemp(ctx, "input_"+j.ID, upload)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	j.SetInput(inputPath)

	s.logger.Info("creating loop job",
		slog.String("job_id", j.ID),
		slog.String("mode", string(req.Mode)),
		slog.Int("target_duration_sec", req.TargetDurationSec),
		slog.Bool("push_to_s3", pushToS3),
	)

	if err := s.repo.Save(ctx, j); err != nil {
		_ = s.store.CleanupTemp(ctx, []string{inputPath})
		return nil, err
	}

	return j, nil
}

// GetJob retrieves a job by ID.
func (s *LoopService) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.FindByID(ctx, jobID)
}

// DeleteJob removes a job and its output file.
func (s *LoopService) DeleteJob(ctx context.Context, jobID string) error {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if j.OutputPath != "" {
		_ = s.store.CleanupTemp(ctx, []string{j.OutputPath})
	}
	return s.repo.Delete(ctx, jobID)
}

// Process runs composition for an existing job to completion or failure.
// It blocks until a processing slot is free; callers run it on a dedicated
// goroutine. The uploaded source is removed on every path, and a failure at
// any stage is terminal for the job. There are no retries.
func (s *LoopService) Process(ctx context.Context, jobID string) error {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	select {
	case s.slots <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("wait for processing slot: %w", ctx.Err())
	}
	defer func() { <-s.slots }()

	if err := j.Start(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	mode := string(j.Request.Mode)
	metrics.RecordLoopStarted(mode)
	started := time.Now()

	ws := loop.NewWorkspace(s.store.TempDir(), j.ID)
	outputPath, composeErr := s.composer.Compose(ctx, j.InputPath, j.Request, ws)

	// The uploaded source is transient either way.
	if err := s.store.CleanupTemp(ctx, []string{j.InputPath}); err != nil {
		s.logger.Warn("failed to remove uploaded source",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}

	if composeErr != nil {
		metrics.RecordLoopCompleted(mode, false, time.Since(started))
		s.logger.Error("loop composition failed",
			slog.String("job_id", j.ID),
			slog.String("error", composeErr.Error()),
		)
		if err := j.Fail(composeErr.Error()); err != nil {
			return err
		}
		if err := s.repo.Save(ctx, j); err != nil {
			return err
		}
		return composeErr
	}

	videoURL := ""
	if j.PushToS3 {
		videoURL, err = s.uploadOutput(ctx, j.ID, outputPath)
		if err != nil {
			metrics.RecordLoopCompleted(mode, false, time.Since(started))
			if failErr := j.Fail(err.Error()); failErr != nil {
				return failErr
			}
			if saveErr := s.repo.Save(ctx, j); saveErr != nil {
				return saveErr
			}
			return err
		}
	}

	j.SetOutput(outputPath, videoURL)
	if err := j.Complete(); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	metrics.RecordLoopCompleted(mode, true, time.Since(started))
	s.logger.Info("loop composition completed",
		slog.String("job_id", j.ID),
		slog.String("output", outputPath),
		slog.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// uploadOutput pushes the finished loop to S3 and returns its URL.
func (s *LoopService) uploadOutput(ctx context.Context, jobID, outputPath string) (string, error) {
	f, err := os.Open(outputPath) // #nosec G304 - path is produced by the composer
	if err != nil {
		return "", fmt.Errorf("open output for upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	url, err := s.store.UploadToS3(ctx, "loops/"+jobID+".mp4", f)
	if err != nil {
		return "", fmt.Errorf("upload output: %w", err)
	}
	return url, nil
}
