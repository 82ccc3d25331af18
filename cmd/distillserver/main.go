// Command distillserver runs the content-distillation pipeline as a one-shot
// CLI: fetch or read a page, run it through the extraction ensemble and
// confidence scorer, and write the DistilledResult plus its Markdown
// rendering to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/contentdistiller/internal/app"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		inputURL      string
		inputFile     string
		outputPath    string
		outputPDF     string
		configPath    string
		userAgent     string
		cacheDir      string
		redisURL      string
		watchDataDir  string
		llmBaseURL    string
		llmModel      string
		llmKey        string
		maxAttempts   int
		maxConcurrent int
		respectRobots bool
		enableReadability  bool
		enableDOMHeuristic bool
		enableTrafilatura  bool
		enableOllama       bool
		enableMarketplace  bool
		dryRun  bool
		verbose bool
	)

	flag.StringVar(&inputURL, "input.url", "", "URL to fetch and distill")
	flag.StringVar(&inputFile, "input.file", "", "Local HTML file to distill instead of fetching")
	flag.StringVar(&outputPath, "output", "result.md", "Path to write the distilled Markdown (JSON sidecar written alongside)")
	flag.StringVar(&outputPDF, "output.pdf", "", "Optional path to also write a PDF rendering")
	flag.StringVar(&configPath, "config", "", "Optional YAML/JSON config file")
	flag.StringVar(&userAgent, "user-agent", "", "HTTP User-Agent to send")
	flag.StringVar(&cacheDir, "cache.dir", ".distill-cache", "HTTP/LLM cache directory")
	flag.StringVar(&redisURL, "cache.redis", os.Getenv("REDIS_URL"), "Redis URL for the two-tier cache's remote tier")
	flag.StringVar(&watchDataDir, "watch.dir", "", "Directory for watch-manager state; enables the watch manager when set")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL for the ollama extractor")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name for the ollama extractor")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for the ollama extractor's backend")
	flag.IntVar(&maxAttempts, "fetch.maxAttempts", 3, "Max fetch attempts per request")
	flag.IntVar(&maxConcurrent, "fetch.maxConcurrent", 8, "Max concurrent fetches")
	flag.BoolVar(&respectRobots, "fetch.respectRobots", true, "Honor robots.txt")
	flag.BoolVar(&enableReadability, "extractor.readability", true, "Enable the readability extractor")
	flag.BoolVar(&enableDOMHeuristic, "extractor.domHeuristic", true, "Enable the DOM-heuristic extractor")
	flag.BoolVar(&enableTrafilatura, "extractor.trafilatura", true, "Enable the text-density extractor")
	flag.BoolVar(&enableOllama, "extractor.ollama", false, "Enable the LLM extractor")
	flag.BoolVar(&enableMarketplace, "extractor.marketplace", true, "Enable marketplace-specific adapters")
	flag.BoolVar(&dryRun, "dry-run", false, "Distill but do not write output")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		InputURL:           inputURL,
		InputFile:          inputFile,
		OutputPath:         outputPath,
		OutputPDFPath:       outputPDF,
		UserAgent:          userAgent,
		MaxAttempts:        maxAttempts,
		MaxConcurrent:      maxConcurrent,
		RespectRobots:      respectRobots,
		CacheDir:           cacheDir,
		RedisURL:           redisURL,
		EnableReadability:  enableReadability,
		EnableDOMHeuristic: enableDOMHeuristic,
		EnableTrafilatura:  enableTrafilatura,
		EnableOllama:       enableOllama,
		EnableMarketplace:  enableMarketplace,
		LLMBaseURL:         llmBaseURL,
		LLMModel:           llmModel,
		LLMAPIKey:          llmKey,
		WatchDataDir:       watchDataDir,
		DryRun:             dryRun,
		Verbose:            verbose,
	}

	_ = app.LoadEnvFiles(".env")

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config file failed")
			os.Exit(2)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		if err == app.ErrNoUsableSources {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()
	return a.Run(ctx)
}
