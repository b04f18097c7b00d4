package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.FFprobePath)
	assert.Equal(t, 30, cfg.ProbeTimeoutSec)
	assert.Equal(t, "/tmp/loopgen", cfg.TempDir)
	assert.Equal(t, 2, cfg.MaxConcurrentLoops)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.S3Enabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FFMPEG_PATH", "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv("TEMP_DIR", "/var/tmp/loops")
	t.Setenv("MAX_CONCURRENT_LOOPS", "4")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "/var/tmp/loops", cfg.TempDir)
	assert.Equal(t, 4, cfg.MaxConcurrentLoops)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
}

func TestS3Enabled(t *testing.T) {
	cfg := &Config{}
	assert.False(t, cfg.S3Enabled())

	cfg.S3Bucket = "loops"
	assert.False(t, cfg.S3Enabled(), "bucket alone is not enough")

	cfg.S3Region = "eu-west-1"
	assert.True(t, cfg.S3Enabled())
}

func TestStringMasksCredentials(t *testing.T) {
	cfg := &Config{
		Port:               8080,
		AWSAccessKeyID:     "AKIAEXAMPLE",
		AWSSecretAccessKey: "supersecret",
	}

	s := cfg.String()
	assert.NotContains(t, s, "AKIAEXAMPLE")
	assert.NotContains(t, s, "supersecret")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), "level %q", tt.input)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogFormat: "json", LogLevel: "debug"}
	require.NotNil(t, cfg.NewLogger())

	cfg = &Config{LogFormat: "text", LogLevel: "info"}
	require.NotNil(t, cfg.NewLogger())
}
