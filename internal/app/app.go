package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/contentdistiller/internal/cache"
	"github.com/hyperifyio/contentdistiller/internal/diffengine"
	"github.com/hyperifyio/contentdistiller/internal/distill"
	"github.com/hyperifyio/contentdistiller/internal/extract"
	"github.com/hyperifyio/contentdistiller/internal/fetch"
	"github.com/hyperifyio/contentdistiller/internal/fetchclient"
	"github.com/hyperifyio/contentdistiller/internal/llm"
	"github.com/hyperifyio/contentdistiller/internal/policy"
	"github.com/hyperifyio/contentdistiller/internal/robots"
	"github.com/hyperifyio/contentdistiller/internal/watch"
)

// ErrNoUsableSources is returned when the one-shot CLI path has no input to
// work with (neither input.url nor input.file configured).
var ErrNoUsableSources = fmt.Errorf("no input configured")

// App is the composition root: it wires the fetch client, the extractor
// pool, the distiller, and the watch manager from a single Config. When a
// Redis URL is configured it opens a Redis client and remote adapter; no
// TwoTierCache or circuit breaker is constructed here.
type App struct {
	cfg       Config
	fetch     *fetchclient.Client
	distiller *distill.Distiller
	watch     *watch.Manager
	redis     *redis.Client
	remote    cache.RemoteAdapter
}

// New builds an App from cfg. Optional dependencies (Redis, the ollama
// endpoint) are probed best-effort: failures are logged, never fatal, so a
// misconfigured remote cache or LLM backend degrades instead of aborting
// startup.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg}

	httpClient := newHighThroughputHTTPClient(true)
	fetchCore := &fetch.Client{
		HTTPClient:        httpClient,
		UserAgent:         orDefault(cfg.UserAgent, "contentdistiller/1.0 (+https://github.com/hyperifyio/contentdistiller)"),
		MaxAttempts:       orDefaultInt(cfg.MaxAttempts, 3),
		PerRequestTimeout: orDefaultDuration(cfg.RequestTimeout, 15*time.Second),
		RedirectMaxHops:   5,
		MaxConcurrent:     orDefaultInt(cfg.MaxConcurrent, 8),
	}
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheTTL > 0 {
			_, _ = cache.PurgeHTTPCacheByAge(cfg.CacheDir, cfg.CacheTTL)
			_, _ = cache.PurgeLLMCacheByAge(cfg.CacheDir, cfg.CacheTTL)
		}
		if cfg.LRUSize > 0 {
			_, _ = cache.EnforceHTTPCacheLimits(cfg.CacheDir, 0, cfg.LRUSize)
		}
		fetchCore.Cache = &cache.HTTPCache{Dir: cfg.CacheDir}
	}

	var robotsMgr *robots.Manager
	if cfg.RespectRobots {
		robotsMgr = &robots.Manager{HTTPClient: httpClient, UserAgent: fetchCore.UserAgent}
		if fetchCore.Cache != nil {
			robotsMgr.Cache = fetchCore.Cache
		}
	}
	a.fetch = &fetchclient.Client{
		HTTP:          fetchCore,
		Robots:        robotsMgr,
		RobotsUA:      fetchCore.UserAgent,
		RespectRobots: cfg.RespectRobots,
	}

	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("app: invalid redis url, two-tier cache will run lru-only")
		} else {
			a.redis = redis.NewClient(opt)
			a.remote = cache.NewRedisAdapter(a.redis)
		}
	}

	llmCacheDir := ""
	if cfg.CacheDir != "" {
		llmCacheDir = cfg.CacheDir + "/llm"
	}
	llmCache := &cache.LLMCache{Dir: llmCacheDir}

	var llmClient llm.Client
	if cfg.EnableOllama {
		transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
		if cfg.LLMBaseURL != "" {
			transportCfg.BaseURL = cfg.LLMBaseURL
		}
		transportCfg.HTTPClient = httpClient
		llmClient = &llm.OpenAIProvider{Inner: openai.NewClientWithConfig(transportCfg)}

		ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
		if lister, ok := llmClient.(llm.ModelLister); ok {
			if models, err := lister.ListModels(ctx2); err != nil {
				log.Warn().Err(err).Msg("app: llm model list failed; continuing")
			} else {
				log.Info().Int("count", len(models.Models)).Msg("app: llm models available")
			}
		}
		cancel()
	}

	a.distiller = &distill.Distiller{
		Extractors:          buildExtractors(cfg, llmClient, llmCache),
		MarketplaceAdapters: extract.DefaultMarketplaceAdapters(),
		Policy:              policy.Engine{},
	}

	if cfg.WatchDataDir != "" {
		diffDir := cfg.WatchDataDir + "/diffs"
		a.watch = watch.New(cfg.WatchDataDir, a.fetch, &diffengine.Engine{Dir: diffDir}, a.distiller)
	}

	return a, nil
}

func buildExtractors(cfg Config, llmClient llm.Client, llmCache *cache.LLMCache) []extract.Extractor {
	var extractors []extract.Extractor
	if cfg.EnableReadability {
		extractors = append(extractors, extract.ReadabilityExtractor{})
	}
	if cfg.EnableDOMHeuristic {
		extractors = append(extractors, extract.DOMHeuristicExtractor{})
	}
	if cfg.EnableTrafilatura {
		extractors = append(extractors, extract.TrafilaturaExtractor{})
	}
	if cfg.EnableOllama && llmClient != nil {
		extractors = append(extractors, extract.OllamaExtractor{Client: llmClient, Model: cfg.LLMModel, Cache: llmCache})
	}
	if len(extractors) == 0 {
		extractors = append(extractors, extract.DOMHeuristicExtractor{})
	}
	return extractors
}

// Close releases background resources (the watch timer, the Redis connection).
func (a *App) Close() {
	if a.watch != nil {
		a.watch.Stop()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// Run executes the one-shot CLI path: fetch (or read from a local file),
// distill, and write the result.
func (a *App) Run(ctx context.Context) error {
	var html []byte
	var baseURL string
	var err error

	switch {
	case a.cfg.InputFile != "":
		html, err = os.ReadFile(a.cfg.InputFile)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		baseURL = a.cfg.InputFile
	case a.cfg.InputURL != "":
		res, ferr := a.fetch.Fetch(ctx, fetchclient.Request{URL: a.cfg.InputURL, UseCache: true, Mode: fetchclient.ModeHTTP})
		if ferr != nil {
			return fmt.Errorf("fetch: %w", ferr)
		}
		html, baseURL = res.Body, res.FinalURL
	default:
		return ErrNoUsableSources
	}

	result, err := a.distiller.Distill(ctx, html, baseURL, nil)
	if err != nil {
		return fmt.Errorf("distill: %w", err)
	}
	if a.cfg.DryRun {
		log.Info().Str("method", string(result.ExtractionMethod)).Float64("confidence", result.ExtractionConfidence).Int("nodes", len(result.Nodes)).Msg("dry run: distillation complete")
		return nil
	}

	if err := writeResultArtifacts(a.cfg, result); err != nil {
		return err
	}
	if result.ContentLength == 0 && result.FallbackUsed {
		log.Warn().Str("url", baseURL).Msg("distillation produced no usable content; fallback exhausted")
	}
	return nil
}

// Watch exposes the watch manager for hosts that want to register URLs for
// periodic re-polling; nil when no WatchDataDir was configured.
func (a *App) Watch() *watch.Manager { return a.watch }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
