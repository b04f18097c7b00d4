// Package server provides the HTTP server for the loop generation API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// CreateLoopForm holds the multipart form fields for creating a loop job.
// The source video arrives as the "video" file part alongside these fields.
type CreateLoopForm struct {
	// DurationSeconds is the minimum duration of the finished loop.
	DurationSeconds int `validate:"required,min=1,max=86400"`
	// Mode selects the loop style: simple, pingpong or crossfade.
	Mode string `validate:"required"`
	// CrossfadeSeconds is the requested blend window for crossfade mode.
	CrossfadeSeconds float64 `validate:"min=0"`
	// StartPauseSeconds freezes the first frame for this long.
	StartPauseSeconds float64 `validate:"min=0"`
	// EndPauseSeconds freezes the last frame for this long.
	EndPauseSeconds float64 `validate:"min=0"`
	// Resolution is the requested output resolution label.
	Resolution string
	// Speed is the requested playback speed multiplier.
	Speed float64
	// PushToS3 indicates whether to upload the finished loop to S3.
	PushToS3 bool
}

// CreateLoopResponse is the HTTP response after creating a loop job.
type CreateLoopResponse struct {
	// ID is the unique identifier for the created job.
	ID string `json:"id"`
	// Status is the initial job status.
	Status string `json:"status"`
}

// LoopResponse is the HTTP response for getting loop job details.
type LoopResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// Status is the current job status.
	Status string `json:"status"`
	// Mode is the loop style the job was created with.
	Mode string `json:"mode"`
	// Error contains any error message if the job failed.
	Error string `json:"error,omitempty"`
	// VideoURL is the S3 URL of the finished loop (if push_to_s3=true and completed).
	VideoURL string `json:"video_url,omitempty"`
	// DownloadPath is the API path for downloading the finished loop.
	DownloadPath string `json:"download_path,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
