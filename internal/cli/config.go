package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rbelous/phishscope/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Phishscope configuration",
	Long: `Manage Phishscope configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (PHISHSCOPE_*)
3. Config file (~/.phishscope/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		fmt.Println(string(yamlData))

		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (PHISHSCOPE_*, GROQ_API_KEY, OPENAI_API_KEY)")
		fmt.Println("  3. Config file (~/.phishscope/config.yaml)")
		fmt.Println("  4. Defaults")

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.phishscope/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configDir := home + "/.phishscope"
		configPath := configDir + "/config.yaml"

		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("config file already exists: %s\nUse 'phishscope config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}

		f, err := os.Create(configPath)
		if err != nil {
			return fmt.Errorf("error creating config file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close config file: %w", closeErr)
			}
		}()

		header := `# Phishscope Configuration File
# See https://github.com/rbelous/phishscope for full documentation
#
# Configuration hierarchy (highest to lowest priority):
#   1. CLI flags
#   2. Environment variables (PHISHSCOPE_*)
#   3. This config file
#   4. Built-in defaults

`
		if _, err := f.WriteString(header); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}
		if _, err := f.Write(yamlData); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		footer := `
# API keys are read from the environment only, never from this file:
#   export GROQ_API_KEY=gsk_...
#   export OPENAI_API_KEY=sk-...
#   export OLLAMA_BASE_URL=http://localhost:11434
`
		if _, err := f.WriteString(footer); err != nil {
			return fmt.Errorf("error writing config: %w", err)
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  phishscope config show\n")
		fmt.Printf("\n")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

// loadConfig overlays the viper-managed sources (config file, PHISHSCOPE_*
// environment) onto the built-in defaults. Flags are applied afterwards by
// the individual commands.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()

	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if viper.IsSet("llm.timeout") {
		cfg.LLM.Timeout = viper.GetInt("llm.timeout")
	}
	if viper.IsSet("llm.max_retries") {
		cfg.LLM.MaxRetries = viper.GetInt("llm.max_retries")
	}
	if viper.IsSet("llm.max_tokens") {
		cfg.LLM.MaxTokens = viper.GetInt("llm.max_tokens")
	}
	if viper.IsSet("llm.rate_per_sec") {
		cfg.LLM.RatePerSec = viper.GetFloat64("llm.rate_per_sec")
	}
	if viper.IsSet("llm.rate_burst") {
		cfg.LLM.RateBurst = viper.GetInt("llm.rate_burst")
	}

	if viper.IsSet("cache.enabled") {
		cfg.Cache.Enabled = viper.GetBool("cache.enabled")
	}
	if viper.IsSet("cache.ttl") {
		cfg.Cache.TTL = viper.GetDuration("cache.ttl")
	}
	if viper.IsSet("cache.max_entries") {
		cfg.Cache.MaxEntries = viper.GetInt("cache.max_entries")
	}
	if v := viper.GetString("cache.disk_dir"); v != "" {
		cfg.Cache.DiskDir = v
	}

	if viper.IsSet("fusion.threshold") {
		cfg.Fusion.Threshold = viper.GetFloat64("fusion.threshold")
	}
	if viper.IsSet("fusion.classifier_weight") {
		cfg.Fusion.ClassifierWeight = viper.GetFloat64("fusion.classifier_weight")
	}
	if viper.IsSet("fusion.reasoner_weight") {
		cfg.Fusion.ReasonerWeight = viper.GetFloat64("fusion.reasoner_weight")
	}
	if viper.IsSet("fusion.epsilon") {
		cfg.Fusion.Epsilon = viper.GetFloat64("fusion.epsilon")
	}
	if viper.IsSet("fusion.budget") {
		cfg.Fusion.Budget = viper.GetDuration("fusion.budget")
	}

	if v := viper.GetString("classifier.model_path"); v != "" {
		cfg.Classifier.ModelPath = v
	}
	if viper.IsSet("concurrency.batch_workers") {
		cfg.Concurrency.BatchWorkers = viper.GetInt("concurrency.batch_workers")
	}
	if viper.IsSet("fetch.enabled") {
		cfg.Fetch.Enabled = viper.GetBool("fetch.enabled")
	}
	if viper.IsSet("fetch.timeout") {
		cfg.Fetch.Timeout = viper.GetDuration("fetch.timeout")
	}
	if viper.IsSet("fetch.respect_robots") {
		cfg.Fetch.RespectRobots = viper.GetBool("fetch.respect_robots")
	}
	if v := viper.GetString("fetch.user_agent"); v != "" {
		cfg.Fetch.UserAgent = v
	}
	if viper.IsSet("fetch.max_body_bytes") {
		cfg.Fetch.MaxBodyBytes = viper.GetInt64("fetch.max_body_bytes")
	}
	if viper.IsSet("fetch.max_words") {
		cfg.Fetch.MaxWords = viper.GetInt("fetch.max_words")
	}
	if viper.IsSet("fetch.search_enabled") {
		cfg.Fetch.SearchEnabled = viper.GetBool("fetch.search_enabled")
	}
	if v := viper.GetString("fetch.search_endpoint"); v != "" {
		cfg.Fetch.SearchEndpoint = v
	}
	if viper.IsSet("fetch.max_snippets") {
		cfg.Fetch.MaxSnippets = viper.GetInt("fetch.max_snippets")
	}
	if v := viper.GetString("fetch.http_proxy"); v != "" {
		cfg.Fetch.HTTPProxy = v
	}
	if v := viper.GetString("fetch.https_proxy"); v != "" {
		cfg.Fetch.HTTPSProxy = v
	}
	if v := viper.GetString("output.format"); v != "" {
		cfg.Output.Format = v
	}
	if viper.IsSet("output.verbose") {
		cfg.Output.Verbose = viper.GetBool("output.verbose")
	}

	if cfg.Fusion.Budget <= 0 {
		cfg.Fusion.Budget = 20 * time.Second
	}
	return cfg
}
