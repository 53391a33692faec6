package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/rbelous/phishscope/internal/engine"
	"github.com/rbelous/phishscope/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	batchTimeout time.Duration
	ratePerSec   float64
	rateBurst    int
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Classify multiple URLs from a file in parallel",
	Long: `Batch evaluates many URLs concurrently:
- Read URLs from the input file (one per line, # comments skipped)
- Evaluate in parallel with a configurable worker count
- Throttle per target host so no single domain is hammered
- Print one verdict line per URL, in input order

Example:
  phishscope batch urls.txt
  phishscope batch urls.txt --concurrency 8 --llm --llm-provider groq
  phishscope batch urls.txt --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&ratePerSec, "rate", 2, "per-host evaluations per second")
	batchCmd.Flags().IntVar(&rateBurst, "burst", 4, "per-host rate limit burst")

	// Shared with scan
	batchCmd.Flags().StringVar(&format, "format", "text", "output format (text, json)")
	batchCmd.Flags().Bool("json", false, "shorthand for --format json")
	batchCmd.Flags().StringVar(&modelPath, "model-path", "", "tree-ensemble model file (default: built-in model)")
	batchCmd.Flags().Float64Var(&threshold, "threshold", 0.5, "classifier decision threshold")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the reasoning verdict cache")
	batchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist cached verdicts to this directory")
	batchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the LLM reasoning pass")
	batchCmd.Flags().StringVar(&llmProvider, "llm-provider", "groq", "LLM provider (openai, groq, ollama)")
	batchCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default: provider default)")
	batchCmd.Flags().BoolVar(&fetchPage, "fetch-page", false, "fetch visible page text as reasoning context")
	batchCmd.Flags().BoolVar(&withSearch, "search-context", false, "fetch domain reputation search snippets as reasoning context")
	batchCmd.Flags().StringVar(&userAgent, "ua", "Phishscope/0.1 (+https://github.com/rbelous/phishscope)", "HTTP User-Agent for page fetches")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Concurrency.BatchWorkers = concurrency

	urls, err := readURLFile(file)
	if err != nil {
		return fmt.Errorf("read URL file: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", file)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Input file: %s (%d URLs)\n", file, len(urls))
		fmt.Fprintf(os.Stderr, "Workers:    %d\n", concurrency)
		if cfg.LLM.Provider != "" {
			fmt.Fprintf(os.Stderr, "LLM:        %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize engine: %w", err)
	}

	limiter := worker.NewLimiter(ratePerSec, rateBurst)
	pool := worker.NewPool(eng, cfg.Concurrency.BatchWorkers, limiter)
	outcomes := pool.Run(ctx, urls)

	failures := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", o.URL, o.Err)
			continue
		}
		if err := renderOutcome(o, cfg.Output.Format); err != nil {
			return err
		}
	}

	if verbose {
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Total: %d  Success: %d  Failures: %d\n",
			len(outcomes), len(outcomes)-failures, failures)
	}
	if failures == len(outcomes) {
		return fmt.Errorf("all %d evaluations failed", failures)
	}
	return nil
}

func renderOutcome(o worker.Outcome, outputFormat string) error {
	if outputFormat == "json" {
		return renderResult(o.Result, outputFormat)
	}
	// Compact one-liner for batch text output
	fmt.Printf("%-8s %.2f  %-18s %s\n",
		strings.ToUpper(string(o.Result.Label)), o.Result.Confidence, o.Result.Policy, o.URL)
	return nil
}

// readURLFile loads one URL per line, skipping blanks and # comments.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return urls, nil
}
