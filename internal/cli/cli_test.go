package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/canisense/internal/model"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"session.cnr", "session"},
		{"/tmp/a b/matin du 3.cnr", "matin_du_3"},
		{"dir/with:colon?.rec", "with_colon_"},
		{"", "report"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	got := flatten("", map[string]any{
		"a": 1,
		"b": map[string]any{"c": "x", "d": map[string]any{"e": true}},
	})
	want := map[string]any{"a": 1, "b.c": "x", "b.d.e": true}
	if len(got) != len(want) {
		t.Fatalf("flatten = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
}

func TestLoadConfig_ReadsFileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
capture:
  signals_per_second: 10
  duration: 45s
llm:
  provider: openai
analysis:
  active_engines: [soundActivity, tail]
  fusion_weights:
    averageSpeed: 2
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CANISENSE_STORE_PATH", "/tmp/canisense-test.db")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	viper.SetConfigFile(path)
	viper.SetEnvPrefix("CANISENSE")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Capture.SignalsPerSecond != 10 || cfg.Capture.Duration != 45*time.Second {
		t.Errorf("capture = %+v", cfg.Capture)
	}
	if cfg.Store.Path != "/tmp/canisense-test.db" {
		t.Errorf("store path = %s, want env override", cfg.Store.Path)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("api key not taken from OPENAI_API_KEY")
	}
	if len(cfg.Analysis.ActiveEngines) != 2 || cfg.Analysis.ActiveEngines[0] != model.EngineSoundActivity {
		t.Errorf("active engines = %v", cfg.Analysis.ActiveEngines)
	}
	if cfg.Analysis.FusionWeights[model.MetricAverageSpeed] != 2 {
		t.Errorf("fusion weights = %v", cfg.Analysis.FusionWeights)
	}

	// Untouched sections keep their defaults
	def := model.DefaultConfig()
	if cfg.Server.Addr != def.Server.Addr || cfg.LLM.Timeout != def.LLM.Timeout {
		t.Errorf("defaults lost: server=%+v llm timeout=%v", cfg.Server, cfg.LLM.Timeout)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("writeDefaultConfig: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# Canisense Configuration File", "signals_per_second:", "session_ttl:"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("config missing %q", want)
		}
	}
	if strings.Contains(string(data), "api_key") {
		t.Error("api key must not be written to the config file")
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("expected error when the file already exists")
	}
}

func TestEngineOptions_FreshPerCall(t *testing.T) {
	cfg := model.DefaultConfig()
	factory := engineOptions(cfg)
	a, b := factory(), factory()
	if len(a) != len(b) || len(a) != 3 {
		t.Fatalf("options = %d and %d, want 3 with pose enabled", len(a), len(b))
	}

	cfg.Capture.Pose = false
	if n := len(engineOptions(cfg)()); n != 2 {
		t.Errorf("options without pose = %d, want 2", n)
	}
}

func TestLocation(t *testing.T) {
	if location("") != time.Local || location("Local") != time.Local {
		t.Error("empty and Local should map to time.Local")
	}
	if location("Not/AZone") != time.Local {
		t.Error("unknown zone should fall back to time.Local")
	}
}

func TestCanonicalWeights(t *testing.T) {
	got := canonicalWeights(map[string]float64{"averagespeed": 2, "GROWLING": 0.5, "custom": 1})
	want := map[string]float64{model.MetricAverageSpeed: 2, model.MetricGrowling: 0.5, "custom": 1}
	if len(got) != len(want) {
		t.Fatalf("canonicalWeights = %v", got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %v, want %v", k, got[k], v)
		}
	}
	if canonicalWeights(nil) != nil {
		t.Error("nil weights should stay nil")
	}
}
