package types

type PipelineConfig struct {
	FFMpegPath    string      `mapstructure:"ff_mpeg_path" json:"ff_mpeg_path"`
	FrameInterval int         `mapstructure:"frame_interval" json:"frame_interval"`
	TargetWidth   int         `mapstructure:"target_width" json:"target_width"`
	TargetHeight  int         `mapstructure:"target_height" json:"target_height"`
	Retry         RetryConfig `mapstructure:"retry" json:"retry"`
}

type TranscribeConfig struct {
	WhisperPath string `mapstructure:"whisper_path" json:"whisper_path"`
	Model       string `mapstructure:"model" json:"model"`
	Language    string `mapstructure:"language" json:"language"`
}

type StyleConfig struct {
	ImagePath string `mapstructure:"image_path" json:"image_path"`
	Endpoint  string `mapstructure:"endpoint" json:"endpoint"`
	InputSize int    `mapstructure:"input_size" json:"input_size"`
}

type BubbleConfig struct {
	MaxChars     int `mapstructure:"max_chars" json:"max_chars"`
	Padding      int `mapstructure:"padding" json:"padding"`
	CornerRadius int `mapstructure:"corner_radius" json:"corner_radius"`
	TextPadding  int `mapstructure:"text_padding" json:"text_padding"`
	FillAlpha    int `mapstructure:"fill_alpha" json:"fill_alpha"`
}

type RetryConfig struct {
	MaxAttempts        int32   `mapstructure:"max_attempts" json:"max_attempts"`
	InitialIntervalSec float64 `mapstructure:"initial_interval_sec" json:"initial_interval_sec"`
	BackoffCoefficient float64 `mapstructure:"backoff_coefficient" json:"backoff_coefficient"`
}

type StorageConfig struct {
	Type  string      `mapstructure:"type" json:"type"`
	Local LocalConfig `mapstructure:"local" json:"local"`
	S3    S3Config    `mapstructure:"s3" json:"s3"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path" json:"base_path"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket" json:"bucket"`
	Region          string `mapstructure:"region" json:"region"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" json:"secret_access_key"`
}

type PluginConfig struct {
	Name    string                 `mapstructure:"name" json:"name"`
	Enabled bool                   `mapstructure:"enabled" json:"enabled"`
	Config  map[string]interface{} `mapstructure:"config" json:"config"`
}

type CleanupConfig struct {
	Schedule  string `mapstructure:"schedule" json:"schedule"`
	MaxAgeMin int    `mapstructure:"max_age_min" json:"max_age_min"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level" json:"level"`
	Output   string `mapstructure:"output" json:"output"`
	FilePath string `mapstructure:"file_path" json:"file_path"`
}
