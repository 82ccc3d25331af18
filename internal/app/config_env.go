package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides forcefully overrides cfg fields with environment
// variables when present. It runs last, so env takes precedence over both
// the config file and values set by flags.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("INPUT_URL"); v != "" {
		cfg.InputURL = v
	}
	if v := os.Getenv("INPUT_FILE"); v != "" {
		cfg.InputFile = v
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("WATCH_DATA_DIR"); v != "" {
		cfg.WatchDataDir = v
	}
	if v := os.Getenv("USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}

	setInt(&cfg.MaxAttempts, "MAX_ATTEMPTS")
	setInt(&cfg.MaxConcurrent, "MAX_CONCURRENT")
	setInt(&cfg.LRUSize, "CACHE_LRU_SIZE")
	setInt(&cfg.CircuitFailureThreshold, "CIRCUIT_FAILURE_THRESHOLD")
	setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT")
	setDuration(&cfg.CacheTTL, "CACHE_TTL")
	setDuration(&cfg.CircuitResetTimeout, "CIRCUIT_RESET_TIMEOUT")
	setDuration(&cfg.WorkflowTimeout, "WORKFLOW_TIMEOUT")

	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.RespectRobots, "RESPECT_ROBOTS")
	setBool(&cfg.EnableReadability, "EXTRACTOR_READABILITY")
	setBool(&cfg.EnableDOMHeuristic, "EXTRACTOR_DOM_HEURISTIC")
	setBool(&cfg.EnableTrafilatura, "EXTRACTOR_TRAFILATURA")
	setBool(&cfg.EnableOllama, "EXTRACTOR_OLLAMA")
	setBool(&cfg.EnableMarketplace, "EXTRACTOR_MARKETPLACE")
}

func setInt(dst *int, envKey string) {
	if s := os.Getenv(envKey); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, envKey string) {
	if s := os.Getenv(envKey); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			*dst = d
		}
	}
}

func setBool(dst *bool, envKey string) {
	if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
		switch s {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}
