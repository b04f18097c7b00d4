package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/streamloop/loopgen-api/internal/job"
	"github.com/streamloop/loopgen-api/internal/loop"
)

// maxUploadMemory is the in-memory threshold for multipart parsing;
// larger uploads spill to disk.
const maxUploadMemory = 32 << 20

// LoopService is the use-case surface the handlers depend on.
// Satisfied by *job.LoopService.
type LoopService interface {
	CreateJob(ctx context.Context, req loop.Request, pushToS3 bool, upload io.Reader) (*job.Job, error)
	GetJob(ctx context.Context, jobID string) (*job.Job, error)
	DeleteJob(ctx context.Context, jobID string) error
	Process(ctx context.Context, jobID string) error
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            LoopService
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateLoop only creates the job and returns immediately
// without starting background processing.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service LoopService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateLoop handles POST /loops requests. The body is a multipart form
// with the source clip in the "video" part and the loop parameters as
// plain form fields.
func (h *Handlers) CreateLoop(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.logger.Warn("failed to parse multipart form",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid multipart form", "INVALID_FORM")
		return
	}

	video, _, err := r.FormFile("video")
	if err != nil {
		writeError(w, http.StatusBadRequest, "video file is required", "MISSING_VIDEO")
		return
	}
	defer func() { _ = video.Close() }()

	form, err := parseCreateLoopForm(r)
	if err != nil {
		h.logger.Warn("failed to parse form fields",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	if err := h.validator.Struct(form); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	mode, err := loop.ParseMode(form.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_MODE")
		return
	}

	req := loop.Request{
		TargetDurationSec: form.DurationSeconds,
		Mode:              mode,
		CrossfadeSec:      form.CrossfadeSeconds,
		StartPauseSec:     form.StartPauseSeconds,
		EndPauseSec:       form.EndPauseSeconds,
		Resolution:        form.Resolution,
		Speed:             form.Speed,
	}

	createdJob, err := h.service.CreateJob(r.Context(), req, form.PushToS3, video)
	if err != nil {
		if errors.Is(err, loop.ErrInvalidTargetDuration) || errors.Is(err, loop.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
			return
		}
		h.logger.Error("failed to create loop job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create loop job", "JOB_CREATION_FAILED")
		return
	}

	// Processing runs with a detached context so the client disconnecting
	// does not kill the composition mid-flight.
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string) {
			if processErr := h.service.Process(ctx, jobID); processErr != nil {
				h.logger.Error("background processing failed",
					slog.String("job_id", jobID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID)
	}

	h.logger.Info("loop job created",
		slog.String("job_id", createdJob.ID),
		slog.String("mode", string(mode)),
		slog.Int("duration_seconds", form.DurationSeconds),
	)

	writeJSON(w, http.StatusAccepted, CreateLoopResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// GetLoop handles GET /loops/{id} requests.
func (h *Handlers) GetLoop(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "loop job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get loop job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get loop job", "JOB_FETCH_FAILED")
		return
	}

	resp := LoopResponse{
		ID:     foundJob.ID,
		Status: string(foundJob.Status),
		Mode:   string(foundJob.Request.Mode),
		Error:  foundJob.Error,
	}
	if foundJob.Status == job.StatusCompleted {
		if foundJob.VideoURL != "" {
			resp.VideoURL = foundJob.VideoURL
		}
		if foundJob.OutputPath != "" {
			resp.DownloadPath = "/loops/" + foundJob.ID + "/video"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetLoopVideo handles GET /loops/{id}/video requests, streaming the
// finished loop back to the client.
func (h *Handlers) GetLoopVideo(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "loop job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get loop job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get loop job", "JOB_FETCH_FAILED")
		return
	}

	if foundJob.Status != job.StatusCompleted || foundJob.OutputPath == "" {
		writeError(w, http.StatusConflict, "loop is not ready", "LOOP_NOT_READY")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", foundJob.ID+".mp4"))
	http.ServeFile(w, r, foundJob.OutputPath)
}

// DeleteLoop handles DELETE /loops/{id} requests.
func (h *Handlers) DeleteLoop(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	if err := h.service.DeleteJob(r.Context(), jobID); err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "loop job not found", "JOB_NOT_FOUND")
			return
		}
		h.logger.Error("failed to delete loop job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to delete loop job", "JOB_DELETE_FAILED")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseCreateLoopForm extracts and converts the loop parameters from the
// parsed multipart form. Absent optional fields take their natural
// defaults; cosmetic normalization of speed and resolution happens later
// in the planner.
func parseCreateLoopForm(r *http.Request) (CreateLoopForm, error) {
	form := CreateLoopForm{
		Mode:       r.FormValue("mode"),
		Resolution: r.FormValue("resolution"),
		Speed:      1.0,
	}

	var err error
	if form.DurationSeconds, err = formInt(r, "duration_seconds"); err != nil {
		return form, err
	}
	if form.CrossfadeSeconds, err = formFloat(r, "crossfade_seconds", 0); err != nil {
		return form, err
	}
	if form.StartPauseSeconds, err = formFloat(r, "start_pause_seconds", 0); err != nil {
		return form, err
	}
	if form.EndPauseSeconds, err = formFloat(r, "end_pause_seconds", 0); err != nil {
		return form, err
	}
	if form.Speed, err = formFloat(r, "speed", 1.0); err != nil {
		return form, err
	}
	if raw := r.FormValue("push_to_s3"); raw != "" {
		form.PushToS3, err = strconv.ParseBool(raw)
		if err != nil {
			return form, fmt.Errorf("invalid push_to_s3 value %q", raw)
		}
	}
	return form, nil
}

func formInt(r *http.Request, field string) (int, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q", field, raw)
	}
	return v, nil
}

func formFloat(r *http.Request, field string, def float64) (float64, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, fmt.Errorf("invalid %s value %q", field, raw)
	}
	return v, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
