package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rbelous/phishscope/internal/engine"
	"github.com/rbelous/phishscope/internal/explain"
	"github.com/rbelous/phishscope/internal/model"
	"github.com/spf13/cobra"
)

var (
	format      string
	modelPath   string
	timeout     time.Duration
	noCache     bool
	cacheDir    string
	llmEnabled  bool
	llmProvider string
	llmModel    string
	fetchPage   bool
	withSearch  bool
	userAgent   string
	httpProxy   string
	httpsProxy  string
	threshold   float64
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Classify a single URL",
	Long: `Scan evaluates one URL:
- Extract lexical features (length, entropy, token shape, TLD, ...)
- Score the local tree-ensemble classifier
- Optionally ask an LLM for a semantic verdict with rationale
- Fuse both signals into one labeled, explained decision

Example:
  phishscope scan http://paypa1-secure-login.ru/verify
  phishscope scan https://example.com --llm --llm-provider groq
  phishscope scan https://example.com --json --fetch-page`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&format, "format", "text", "output format (text, json)")
	scanCmd.Flags().Bool("json", false, "shorthand for --format json")

	// Classifier flags
	scanCmd.Flags().StringVar(&modelPath, "model-path", "", "tree-ensemble model file (default: built-in model)")
	scanCmd.Flags().Float64Var(&threshold, "threshold", 0.5, "classifier decision threshold")

	// Reasoning flags
	scanCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall evaluation timeout")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reasoning verdict cache")
	scanCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist cached verdicts to this directory")
	scanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the LLM reasoning pass")
	scanCmd.Flags().StringVar(&llmProvider, "llm-provider", "groq", "LLM provider (openai, groq, ollama)")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: provider default)")

	// Page context flags
	scanCmd.Flags().BoolVar(&fetchPage, "fetch-page", false, "fetch visible page text as reasoning context")
	scanCmd.Flags().BoolVar(&withSearch, "search-context", false, "fetch domain reputation search snippets as reasoning context")
	scanCmd.Flags().StringVar(&userAgent, "ua", "Phishscope/0.1 (+https://github.com/rbelous/phishscope)", "HTTP User-Agent for page fetches")
	scanCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	scanCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runScan(cmd *cobra.Command, args []string) error {
	rawURL := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Scanning: %s\n", rawURL)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		if cfg.LLM.Provider != "" {
			fmt.Fprintf(os.Stderr, "LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	result, err := eng.Evaluate(ctx, rawURL)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInput) {
			return fmt.Errorf("invalid input: %w", err)
		}
		return fmt.Errorf("scan failed: %w", err)
	}

	return renderResult(result, cfg.Output.Format)
}

// buildConfig layers explicitly-set CLI flags over the file/env
// configuration. A flag left at its default does not override a value from
// the config file or environment.
func buildConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg := loadConfig()
	flags := cmd.Flags()

	if flags.Changed("model-path") {
		cfg.Classifier.ModelPath = modelPath
	}
	if flags.Changed("threshold") {
		cfg.Fusion.Threshold = threshold
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.DiskDir = cacheDir
	}
	if flags.Changed("fetch-page") {
		cfg.Fetch.Enabled = fetchPage
	}
	if flags.Changed("search-context") {
		cfg.Fetch.SearchEnabled = withSearch
	}
	if flags.Changed("ua") {
		cfg.Fetch.UserAgent = userAgent
	}
	if flags.Changed("http-proxy") {
		cfg.Fetch.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.Fetch.HTTPSProxy = httpsProxy
	}
	if flags.Changed("format") {
		cfg.Output.Format = format
	}
	if asJSON, _ := flags.GetBool("json"); asJSON {
		cfg.Output.Format = "json"
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose

	// --llm switches reasoning on; a provider configured in the file or
	// environment enables it too, unless an explicit --llm=false wins.
	switch {
	case llmEnabled:
		if flags.Changed("llm-provider") || cfg.LLM.Provider == "" {
			cfg.LLM.Provider = llmProvider
		}
	case flags.Changed("llm"):
		cfg.LLM.Provider = ""
	}
	if cfg.LLM.Provider != "" {
		if flags.Changed("llm-model") {
			cfg.LLM.Model = llmModel
		}
		if err := resolveCredentials(&cfg.LLM); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// resolveCredentials pulls provider secrets from the environment. Keys are
// never read from the config file.
func resolveCredentials(llm *model.LLMConfig) error {
	switch llm.Provider {
	case "openai":
		llm.APIKey = os.Getenv("OPENAI_API_KEY")
		if llm.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "groq":
		llm.APIKey = os.Getenv("GROQ_API_KEY")
		if llm.APIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			llm.BaseURL = baseURL
		}
	}
	return nil
}

func renderResult(result *model.VerdictResult, outputFormat string) error {
	exp := explain.Build(result)

	switch outputFormat {
	case "json":
		out, err := explain.RenderJSON(exp)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(explain.RenderText(exp))
	}
	return nil
}
