package config

import (
	types "ComicForge/pkg"
)

type Config struct {
	Server     ServerConfig           `mapstructure:"server" json:"server"`
	Database   DatabaseConfig         `mapstructure:"database" json:"database"`
	Pipeline   types.PipelineConfig   `mapstructure:"pipeline" json:"pipeline"`
	Transcribe types.TranscribeConfig `mapstructure:"transcribe" json:"transcribe"`
	Style      types.StyleConfig      `mapstructure:"style" json:"style"`
	Bubble     types.BubbleConfig     `mapstructure:"bubble" json:"bubble"`
	Storage    types.StorageConfig    `mapstructure:"storage" json:"storage"`
	Plugins    []types.PluginConfig   `mapstructure:"plugins" json:"plugins"`
	Cleanup    types.CleanupConfig    `mapstructure:"cleanup" json:"cleanup"`
	Logging    types.LoggingConfig    `mapstructure:"logging" json:"logging"`
	MockMode   bool                   `mapstructure:"mock_mode" json:"mock_mode"`
}

type ServerConfig struct {
	Addr              string   `mapstructure:"addr" json:"addr"`
	UploadDir         string   `mapstructure:"upload_dir" json:"upload_dir"`
	OutputDir         string   `mapstructure:"output_dir" json:"output_dir"`
	MaxUploadMB       int      `mapstructure:"max_upload_mb" json:"max_upload_mb"`
	AllowedExtensions []string `mapstructure:"allowed_extensions" json:"allowed_extensions"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" json:"dsn"`
}
