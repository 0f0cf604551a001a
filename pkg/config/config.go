// Package config loads detgeo settings from detgeo.cfg.json through viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "detgeo.cfg.json"

// Log formats accepted by the logFormat setting.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Settings is the typed view of the loaded configuration.
type Settings struct {
	LogLevel  string       `json:"logLevel" mapstructure:"logLevel"`
	LogFormat string       `json:"logFormat" mapstructure:"logFormat"`
	Engine    EngineConfig `json:"engine" mapstructure:"engine"`
	Mesh      MeshConfig   `json:"mesh" mapstructure:"mesh"`
}

// EngineConfig holds script evaluation settings.
type EngineConfig struct {
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
}

// MeshConfig holds tessellation settings.
type MeshConfig struct {
	Cells        int     `json:"cells" mapstructure:"cells"`
	MinThickness float64 `json:"minThickness" mapstructure:"minThickness"`
}

// SetDefaults registers default values. Load calls it; callers that run
// without a config file call it directly.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFormat", LogFormatConsole)

	viper.SetDefault("engine.timeout", "5s")

	viper.SetDefault("mesh.cells", 200)
	viper.SetDefault("mesh.minThickness", 1.0)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// Current unmarshals the active configuration and checks its values.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding config: %w", err)
	}
	if s.LogFormat != LogFormatConsole && s.LogFormat != LogFormatJSON {
		return Settings{}, fmt.Errorf("logFormat must be %q or %q, got %q", LogFormatConsole, LogFormatJSON, s.LogFormat)
	}
	if s.Engine.Timeout <= 0 {
		return Settings{}, fmt.Errorf("engine.timeout must be positive, got %s", s.Engine.Timeout)
	}
	if s.Mesh.Cells < 1 {
		return Settings{}, fmt.Errorf("mesh.cells must be at least 1, got %d", s.Mesh.Cells)
	}
	if s.Mesh.MinThickness <= 0 {
		return Settings{}, fmt.Errorf("mesh.minThickness must be positive, got %g", s.Mesh.MinThickness)
	}
	return s, nil
}
