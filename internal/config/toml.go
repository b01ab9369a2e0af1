// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Study     StudyConfig     `toml:"study"`
	Store     StoreConfig     `toml:"store"`
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Dashboard DashboardConfig `toml:"dashboard"`
}

// StudyConfig maps study-session settings.
type StudyConfig struct {
	Class *string  `toml:"class"`
	No    *string  `toml:"no"`
	Grade *string  `toml:"grade"`
	Mode  *string  `toml:"mode"`
	Speed *float64 `toml:"speed"`
	Deck  *string  `toml:"deck"`
	Sound *bool    `toml:"sound"`
}

// StoreConfig selects the attempt store.
type StoreConfig struct {
	Driver *string `toml:"driver"`
	DSN    *string `toml:"dsn"`
}

// LogConfig maps log settings.
type LogConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// ServerConfig maps `serve` settings.
type ServerConfig struct {
	Addr         *string  `toml:"addr"`
	WriteRate    *float64 `toml:"write-rate"`
	WriteBurst   *int     `toml:"write-burst"`
	AllowOrigins []string `toml:"allow-origins"`
}

// DashboardConfig maps dashboard settings.
type DashboardConfig struct {
	Class     *string `toml:"class"`
	ExportDir *string `toml:"export-dir"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
