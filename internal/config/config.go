package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type ConfigLoader struct {
	logger *zap.Logger
	v      *viper.Viper
}

func NewConfigLoader(logger *zap.Logger) *ConfigLoader {
	v := viper.New()
	v.SetConfigType("yaml")
	return &ConfigLoader{
		logger: logger,
		v:      v,
	}
}

func (cl *ConfigLoader) Load(filePath string) (*Config, error) {
	cl.v.SetConfigFile(filePath)
	if err := cl.v.ReadInConfig(); err != nil {
		cl.logger.Error("Failed to read config file", zap.String("file", filePath), zap.Error(err))
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := cl.v.Unmarshal(&cfg); err != nil {
		cl.logger.Error("Failed to unmarshal config", zap.Error(err))
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cl.validate(&cfg); err != nil {
		cl.logger.Error("Config validation failed", zap.Error(err))
		return nil, err
	}

	cl.logger.Info("Config loaded successfully", zap.String("file", filePath))
	return &cfg, nil
}

func (cl *ConfigLoader) validate(cfg *Config) error {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.UploadDir == "" {
		cfg.Server.UploadDir = "uploads"
	}
	if cfg.Server.OutputDir == "" {
		cfg.Server.OutputDir = "outputs"
	}
	if cfg.Server.MaxUploadMB < 0 {
		return fmt.Errorf("max_upload_mb must be non-negative")
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 50
	}
	if len(cfg.Server.AllowedExtensions) == 0 {
		cfg.Server.AllowedExtensions = []string{"mp4", "avi", "mov", "wmv", "mkv"}
	}

	if cfg.Pipeline.FFMpegPath == "" {
		cfg.Pipeline.FFMpegPath = "ffmpeg" // Default to the one that's in PATH
	}
	if cfg.Pipeline.FrameInterval < 0 {
		return fmt.Errorf("frame_interval must be non-negative")
	}
	if cfg.Pipeline.FrameInterval == 0 {
		cfg.Pipeline.FrameInterval = 30
	}
	if cfg.Pipeline.TargetWidth == 0 {
		cfg.Pipeline.TargetWidth = 512
	}
	if cfg.Pipeline.TargetHeight == 0 {
		cfg.Pipeline.TargetHeight = 288
	}
	if cfg.Pipeline.TargetWidth < 0 || cfg.Pipeline.TargetHeight < 0 {
		return fmt.Errorf("target size must be positive")
	}

	if cfg.Pipeline.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must be non-negative")
	}
	if cfg.Pipeline.Retry.MaxAttempts == 0 {
		cfg.Pipeline.Retry.MaxAttempts = 3 // Default
	}
	if cfg.Pipeline.Retry.InitialIntervalSec <= 0 {
		cfg.Pipeline.Retry.InitialIntervalSec = 1.0 // Default
	}
	if cfg.Pipeline.Retry.BackoffCoefficient <= 1 {
		cfg.Pipeline.Retry.BackoffCoefficient = 2.0 // Default
	}

	if cfg.Transcribe.WhisperPath == "" {
		cfg.Transcribe.WhisperPath = "whisper"
	}
	if cfg.Transcribe.Model == "" {
		cfg.Transcribe.Model = "tiny"
	}
	if !isValidWhisperModel(cfg.Transcribe.Model) {
		return fmt.Errorf("invalid whisper model: %s", cfg.Transcribe.Model)
	}

	if cfg.Style.ImagePath == "" {
		return fmt.Errorf("style.image_path required")
	}
	if cfg.Style.Endpoint == "" && !cfg.MockMode {
		return fmt.Errorf("style.endpoint required unless mock_mode is enabled")
	}
	if cfg.Style.InputSize == 0 {
		cfg.Style.InputSize = 256
	}
	if cfg.Style.InputSize < 0 {
		return fmt.Errorf("style.input_size must be positive")
	}

	if cfg.Bubble.MaxChars == 0 {
		cfg.Bubble.MaxChars = 100
	}
	if cfg.Bubble.MaxChars < 0 {
		return fmt.Errorf("bubble.max_chars must be positive")
	}
	if cfg.Bubble.FillAlpha < 0 || cfg.Bubble.FillAlpha > 255 {
		return fmt.Errorf("bubble.fill_alpha must be between 0 and 255")
	}

	storage := strings.ToLower(cfg.Storage.Type)
	if storage == "" {
		storage = "local"
		cfg.Storage.Type = "local"
	}
	switch storage {
	case "s3":
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region required")
		}
		if cfg.Storage.S3.AccessKeyID == "" || cfg.Storage.S3.SecretAccessKey == "" {
			return fmt.Errorf("s3 access_key and secret_key required")
		}
	case "local":
		// Panels already live in the output tree; no base_path required.
	default:
		return fmt.Errorf("invalid storage backend: %s", storage)
	}

	if cfg.Cleanup.Schedule == "" {
		cfg.Cleanup.Schedule = "@every 1h"
	}
	if cfg.Cleanup.MaxAgeMin < 0 {
		return fmt.Errorf("cleanup.max_age_min must be non-negative")
	}
	if cfg.Cleanup.MaxAgeMin == 0 {
		cfg.Cleanup.MaxAgeMin = 120
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if !isValidLogLevel(cfg.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", cfg.Logging.Level)
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "console"
	}
	if cfg.Logging.Output == "file" && cfg.Logging.FilePath == "" {
		return fmt.Errorf("file_path required for file logging")
	}

	return nil
}

func isValidWhisperModel(model string) bool {
	supported := []string{"tiny", "base", "small", "medium", "large"}
	for _, m := range supported {
		if model == m {
			return true
		}
	}
	return false
}

func isValidLogLevel(level string) bool {
	levels := []string{"debug", "info", "warn", "error"}
	for _, l := range levels {
		if strings.ToLower(level) == l {
			return true
		}
	}
	return false
}
