package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete application configuration.
// Field tags serve both yaml rendering and viper unmarshalling.
type Config struct {
	Analysis    AnalysisConfig    `yaml:"analysis" mapstructure:"analysis"`
	Capture     CaptureConfig     `yaml:"capture" mapstructure:"capture"`
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// CaptureConfig controls the synthetic capture loop and replay pacing
type CaptureConfig struct {
	SignalsPerSecond float64       `yaml:"signals_per_second" mapstructure:"signals_per_second"`
	Burst            int           `yaml:"burst" mapstructure:"burst"`
	Duration         time.Duration `yaml:"duration" mapstructure:"duration"`
	FrameWidth       int           `yaml:"frame_width" mapstructure:"frame_width"`
	FrameHeight      int           `yaml:"frame_height" mapstructure:"frame_height"`
	SampleRate       int           `yaml:"sample_rate" mapstructure:"sample_rate"`
	BufferSize       int           `yaml:"buffer_size" mapstructure:"buffer_size"`
	Seed             int64         `yaml:"seed" mapstructure:"seed"`
	Audio            bool          `yaml:"audio" mapstructure:"audio"`
	Pose             bool          `yaml:"pose" mapstructure:"pose"` // attach the synthetic pose backend
	Location         string        `yaml:"location" mapstructure:"location"`
}

// StoreConfig locates the SQLite database
type StoreConfig struct {
	Path          string `yaml:"path" mapstructure:"path"`
	RecentHistory int    `yaml:"recent_history" mapstructure:"recent_history"`
}

// CacheConfig controls the in-memory snapshot cache
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr        string        `yaml:"addr" mapstructure:"addr"`
	SessionTTL  time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	MaxBodySize int           `yaml:"max_body_size" mapstructure:"max_body_size"`

	// Per-session signal rate limit; zero or less disables it
	SignalRate  float64 `yaml:"signal_rate" mapstructure:"signal_rate"`
	SignalBurst int     `yaml:"signal_burst" mapstructure:"signal_burst"`
}

// LLMConfig controls the optional narrative rewording
type LLMConfig struct {
	Provider  string        `yaml:"provider" mapstructure:"provider"` // "openai", "anthropic", "ollama" or empty
	Model     string        `yaml:"model" mapstructure:"model"`
	APIKey    string        `yaml:"-" mapstructure:"api_key"`
	BaseURL   string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens int           `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ConcurrencyConfig sizes the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose bool   `yaml:"verbose" mapstructure:"verbose"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// LogConfig controls the global logger
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			EnableDebug:   false,
			ActiveEngines: AllEngines(),
			FusionWeights: map[string]float64{},
		},
		Capture: CaptureConfig{
			SignalsPerSecond: 5, // one tick every 200ms
			Burst:            1,
			Duration:         30 * time.Second,
			FrameWidth:       64,
			FrameHeight:      48,
			SampleRate:       44100,
			BufferSize:       1024,
			Seed:             1,
			Audio:            true,
			Pose:             true,
			Location:         "Local",
		},
		Store: StoreConfig{
			Path:          filepath.Join(configDir(), "canisense.db"),
			RecentHistory: 5,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:        ":8080",
			SessionTTL:  15 * time.Minute,
			MaxBodySize: 8 << 20,
			SignalRate:  50,
			SignalBurst: 10,
		},
		LLM: LLMConfig{
			Provider:  "", // disabled by default
			Model:     "gpt-4o-mini",
			Timeout:   30 * time.Second,
			MaxTokens: 300,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Dir: "./canisense-reports",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// configDir returns $HOME/.canisense, or the working directory if HOME is unknown
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".canisense")
}

// ConfigDir exposes the default configuration directory
func ConfigDir() string {
	return configDir()
}
