package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/canisense/internal/cache"
	"github.com/ppiankov/canisense/internal/engine"
	"github.com/ppiankov/canisense/internal/llm"
	"github.com/ppiankov/canisense/internal/log"
	"github.com/ppiankov/canisense/internal/model"
	"github.com/ppiankov/canisense/internal/store"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// poseStream keeps the synthetic pose backend's randomness apart from the engines'
const poseStream = 0x706f7365

// loadConfig layers the config file and environment over the defaults
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	// AutomaticEnv only resolves keys viper already knows, so register the
	// defaults first
	for key, value := range flatten("", defaultsMap(cfg)) {
		viper.SetDefault(key, value)
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Analysis.FusionWeights = canonicalWeights(cfg.Analysis.FusionWeights)

	if cfg.LLM.APIKey == "" && strings.EqualFold(cfg.LLM.Provider, "openai") {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.APIKey == "" && strings.EqualFold(cfg.LLM.Provider, "anthropic") {
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.LLM.BaseURL == "" && strings.EqualFold(cfg.LLM.Provider, "ollama") {
		cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return cfg, nil
}

// canonicalWeights restores metric name casing, which viper folds to lower case
func canonicalWeights(weights map[string]float64) map[string]float64 {
	if len(weights) == 0 {
		return weights
	}
	known := make(map[string]string)
	for _, name := range model.AllMetrics() {
		known[strings.ToLower(name)] = name
	}
	out := make(map[string]float64, len(weights))
	for name, w := range weights {
		canonical, ok := known[strings.ToLower(name)]
		if !ok {
			log.Warn("fusion weight for unknown metric", "metric", name)
			canonical = name
		}
		out[canonical] = w
	}
	return out
}

// defaultsMap exposes the scalar leaves of cfg under their mapstructure keys
func defaultsMap(cfg *model.Config) map[string]any {
	return map[string]any{
		"analysis": map[string]any{
			"enable_debug":   cfg.Analysis.EnableDebug,
			"active_engines": cfg.Analysis.ActiveEngines,
		},
		"capture": map[string]any{
			"signals_per_second": cfg.Capture.SignalsPerSecond,
			"burst":              cfg.Capture.Burst,
			"duration":           cfg.Capture.Duration,
			"frame_width":        cfg.Capture.FrameWidth,
			"frame_height":       cfg.Capture.FrameHeight,
			"sample_rate":        cfg.Capture.SampleRate,
			"buffer_size":        cfg.Capture.BufferSize,
			"seed":               cfg.Capture.Seed,
			"audio":              cfg.Capture.Audio,
			"pose":               cfg.Capture.Pose,
			"location":           cfg.Capture.Location,
		},
		"store": map[string]any{
			"path":           cfg.Store.Path,
			"recent_history": cfg.Store.RecentHistory,
		},
		"cache": map[string]any{
			"enabled":          cfg.Cache.Enabled,
			"ttl":              cfg.Cache.TTL,
			"cleanup_interval": cfg.Cache.CleanupInterval,
		},
		"server": map[string]any{
			"addr":          cfg.Server.Addr,
			"session_ttl":   cfg.Server.SessionTTL,
			"max_body_size": cfg.Server.MaxBodySize,
			"signal_rate":   cfg.Server.SignalRate,
			"signal_burst":  cfg.Server.SignalBurst,
		},
		"llm": map[string]any{
			"provider":   cfg.LLM.Provider,
			"model":      cfg.LLM.Model,
			"api_key":    cfg.LLM.APIKey,
			"base_url":   cfg.LLM.BaseURL,
			"timeout":    cfg.LLM.Timeout,
			"max_tokens": cfg.LLM.MaxTokens,
		},
		"concurrency": map[string]any{"workers": cfg.Concurrency.Workers},
		"output": map[string]any{
			"verbose": cfg.Output.Verbose,
			"dir":     cfg.Output.Dir,
		},
		"log": map[string]any{"level": cfg.Log.Level},
	}
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = v
	}
	return out
}

// location resolves the configured time zone. "Local" and "" mean the host zone.
func location(name string) *time.Location {
	if name == "" || name == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn("unknown time zone, using local time", "location", name, "error", err)
		return time.Local
	}
	return loc
}

// engineOptions returns a factory of fresh engine options for each pipeline
func engineOptions(cfg *model.Config) func() []engine.Option {
	loc := location(cfg.Capture.Location)
	seed := cfg.Capture.Seed
	pose := cfg.Capture.Pose
	return func() []engine.Option {
		opts := []engine.Option{
			engine.WithSeed(seed),
			engine.WithLocation(loc),
		}
		if pose {
			opts = append(opts, engine.WithPoseLoader(
				engine.SyntheticPoseLoader(engine.NewSeededSource(seed, poseStream), 0)))
		}
		return opts
	}
}

// openStore opens the database and wraps it with the snapshot cache
func openStore(cfg *model.Config) (*store.Store, *store.Snapshots, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	var c cache.Cache[model.Snapshot]
	if cfg.Cache.Enabled {
		c = cache.NewMemoryCache[model.Snapshot](cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	}
	return st, store.NewSnapshots(st, c, cfg.Store.RecentHistory, cfg.Cache.TTL), nil
}

// newNarrator builds the narrator. Configuration errors disable narration
// with a warning rather than failing the command.
func newNarrator(cfg *model.Config) *llm.Narrator {
	n, err := llm.NewNarrator(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		log.Warn("narration disabled", "error", err)
		return nil
	}
	return n
}

// withTimeout bounds ctx when d is positive
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
