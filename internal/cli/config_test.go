package cli

import (
	"testing"

	"github.com/spf13/viper"
)

// Subtests run in order: the explicit-flag case mutates scanCmd's flag set,
// so it comes last.
func TestBuildConfig_Precedence(t *testing.T) {
	defer viper.Reset()

	t.Run("file values survive unset flags", func(t *testing.T) {
		viper.Set("classifier.model_path", "/etc/phishscope/model.json")
		viper.Set("fusion.threshold", 0.7)
		viper.Set("llm.rate_burst", 8)
		viper.Set("fetch.user_agent", "Custom/1.0")
		viper.Set("fetch.max_words", 300)
		viper.Set("fetch.max_body_bytes", int64(500_000))
		viper.Set("output.format", "json")

		cfg, err := buildConfig(scanCmd)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Classifier.ModelPath != "/etc/phishscope/model.json" {
			t.Errorf("model_path from config file lost: got %q", cfg.Classifier.ModelPath)
		}
		if cfg.Fusion.Threshold != 0.7 {
			t.Errorf("fusion.threshold from config file lost: got %v", cfg.Fusion.Threshold)
		}
		if cfg.LLM.RateBurst != 8 {
			t.Errorf("llm.rate_burst from config file lost: got %d", cfg.LLM.RateBurst)
		}
		if cfg.Fetch.UserAgent != "Custom/1.0" {
			t.Errorf("fetch.user_agent from config file lost: got %q", cfg.Fetch.UserAgent)
		}
		if cfg.Fetch.MaxWords != 300 || cfg.Fetch.MaxBodyBytes != 500_000 {
			t.Errorf("fetch bounds from config file lost: words %d bytes %d",
				cfg.Fetch.MaxWords, cfg.Fetch.MaxBodyBytes)
		}
		if cfg.Output.Format != "json" {
			t.Errorf("output.format from config file lost: got %q", cfg.Output.Format)
		}
	})

	t.Run("provider from file enables reasoning", func(t *testing.T) {
		viper.Set("llm.provider", "ollama")
		viper.Set("llm.model", "llama3.2")

		cfg, err := buildConfig(scanCmd)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.LLM.Provider != "ollama" || cfg.LLM.Model != "llama3.2" {
			t.Errorf("llm config from file lost: %s/%s", cfg.LLM.Provider, cfg.LLM.Model)
		}
	})

	t.Run("explicit flags override file values", func(t *testing.T) {
		if err := scanCmd.Flags().Set("threshold", "0.9"); err != nil {
			t.Fatal(err)
		}
		if err := scanCmd.Flags().Set("model-path", "/tmp/other.json"); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(scanCmd)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Fusion.Threshold != 0.9 {
			t.Errorf("threshold flag did not win: got %v", cfg.Fusion.Threshold)
		}
		if cfg.Classifier.ModelPath != "/tmp/other.json" {
			t.Errorf("model-path flag did not win: got %q", cfg.Classifier.ModelPath)
		}
	})
}

func TestLoadConfig_DefaultsWithoutSources(t *testing.T) {
	viper.Reset()
	cfg := loadConfig()

	if cfg.Fusion.Threshold != 0.5 || cfg.Fusion.Epsilon != 0.05 {
		t.Errorf("fusion defaults wrong: tau %v epsilon %v", cfg.Fusion.Threshold, cfg.Fusion.Epsilon)
	}
	if !cfg.Cache.Enabled || cfg.LLM.Provider != "" {
		t.Error("defaults should be cache on, reasoning off")
	}
}
