// Package job provides the Job aggregate for loop generation requests:
// the entity with its status state machine, repository port, and the
// LoopService use case that runs composition off the request goroutine.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/streamloop/loopgen-api/internal/job/id"
	"github.com/streamloop/loopgen-api/internal/loop"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusQueued indicates the job is waiting for a processing slot.
	StatusQueued Status = "QUEUED"
	// StatusProcessing indicates composition is running.
	StatusProcessing Status = "PROCESSING"
	// StatusCompleted indicates the loop was produced successfully.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates composition failed.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the job was abandoned before completion.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusQueued:     {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted:  {},
	StatusFailed:     {},
	StatusCancelled:  {},
}

func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one loop generation request. Its ID doubles as the
// working-file token that namespaces all of the request's artifacts.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this job.
	ID string
	// Status is the current job state.
	Status Status
	// Request holds the loop parameters the job was created with.
	Request loop.Request
	// Error contains any error message if the job failed.
	Error string
	// InputPath is the path to the uploaded source video.
	InputPath string
	// OutputPath is the path to the finished loop.
	OutputPath string
	// PushToS3 indicates whether to upload the result to S3.
	PushToS3 bool
	// VideoURL is the S3 URL if PushToS3 was true.
	VideoURL string
	// CreatedAt is when the job was created.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when composition started.
	StartedAt time.Time
	// CompletedAt is when composition finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID and initial QUEUED status.
func New(req loop.Request) *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Status:    StatusQueued,
		Request:   req,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusProcessing:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from QUEUED to PROCESSING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusProcessing)
}

// Complete transitions the job to COMPLETED state.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED state with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Cancel transitions the job to CANCELLED state.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// SetInput records the path of the saved upload.
func (j *Job) SetInput(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.InputPath = path
	j.UpdatedAt = time.Now()
}

// SetOutput sets the output video path and optional S3 URL.
func (j *Job) SetOutput(videoPath, videoURL string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputPath = videoPath
	j.VideoURL = videoURL
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusCancelled
}

// Clone creates a deep copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Request:     j.Request,
		Error:       j.Error,
		InputPath:   j.InputPath,
		OutputPath:  j.OutputPath,
		PushToS3:    j.PushToS3,
		VideoURL:    j.VideoURL,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
