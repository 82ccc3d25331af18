package app

import "time"

// Config holds runtime configuration for the distillation service. It is
// assembled in three layers: flags (with their defaults) first, then an
// optional config file that fills only fields still at their zero value
// (extractor toggles set in the file always replace the flag value), then
// environment variables, which replace any field they set, flag values
// included (see ApplyFileConfig / ApplyEnvOverrides).
type Config struct {
	// Input/Output for the one-shot CLI path.
	InputURL   string
	InputFile  string
	OutputPath string
	OutputPDFPath string

	// Fetch
	UserAgent       string
	MaxAttempts     int
	RequestTimeout  time.Duration
	MaxConcurrent   int
	RespectRobots   bool

	// Cache
	CacheDir       string
	RedisURL       string
	CacheTTL       time.Duration
	LRUSize        int
	CacheClear     bool

	// Circuit breaker
	CircuitFailureThreshold int
	CircuitResetTimeout     time.Duration

	// Extractors
	EnableReadability  bool
	EnableDOMHeuristic bool
	EnableTrafilatura  bool
	EnableOllama       bool
	EnableMarketplace  bool

	// Ollama / LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Watch manager
	WatchDataDir string

	// Workflow engine
	WorkflowTimeout time.Duration

	// Behavior
	DryRun  bool
	Verbose bool
}
