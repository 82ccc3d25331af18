package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections improve readability and map naturally to flags/env, following the
// same layering convention used throughout this codebase.
type FileConfig struct {
	Input struct {
		URL  string `yaml:"url" json:"url"`
		File string `yaml:"file" json:"file"`
	} `yaml:"input" json:"input"`
	Output struct {
		Path    string `yaml:"path" json:"path"`
		PDFPath string `yaml:"pdfPath" json:"pdfPath"`
	} `yaml:"output" json:"output"`

	Fetch struct {
		UserAgent      string        `yaml:"userAgent" json:"userAgent"`
		MaxAttempts    int           `yaml:"maxAttempts" json:"maxAttempts"`
		RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
		MaxConcurrent  int           `yaml:"maxConcurrent" json:"maxConcurrent"`
		RespectRobots  bool          `yaml:"respectRobots" json:"respectRobots"`
	} `yaml:"fetch" json:"fetch"`

	Cache struct {
		Dir      string        `yaml:"dir" json:"dir"`
		RedisURL string        `yaml:"redisUrl" json:"redisUrl"`
		TTL      time.Duration `yaml:"ttl" json:"ttl"`
		LRUSize  int           `yaml:"lruSize" json:"lruSize"`
		Clear    bool          `yaml:"clear" json:"clear"`
	} `yaml:"cache" json:"cache"`

	Circuit struct {
		FailureThreshold int           `yaml:"failureThreshold" json:"failureThreshold"`
		ResetTimeout     time.Duration `yaml:"resetTimeout" json:"resetTimeout"`
	} `yaml:"circuit" json:"circuit"`

	Extractors struct {
		Readability  *bool `yaml:"readability" json:"readability"`
		DOMHeuristic *bool `yaml:"domHeuristic" json:"domHeuristic"`
		Trafilatura  *bool `yaml:"trafilatura" json:"trafilatura"`
		Ollama       *bool `yaml:"ollama" json:"ollama"`
		Marketplace  *bool `yaml:"marketplace" json:"marketplace"`
	} `yaml:"extractors" json:"extractors"`

	LLM struct {
		BaseURL string `yaml:"baseUrl" json:"baseUrl"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"apiKey" json:"apiKey"`
	} `yaml:"llm" json:"llm"`

	Watch struct {
		DataDir string `yaml:"dataDir" json:"dataDir"`
	} `yaml:"watch" json:"watch"`

	Workflow struct {
		Timeout time.Duration `yaml:"timeout" json:"timeout"`
	} `yaml:"workflow" json:"workflow"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// still at their zero value. Flags should already have been parsed; this
// lets the file supply defaults while preserving flag values. The extractor
// toggles are the exception: any toggle the file sets replaces cfg's value.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.InputURL == "" && fc.Input.URL != "" {
		cfg.InputURL = fc.Input.URL
	}
	if cfg.InputFile == "" && fc.Input.File != "" {
		cfg.InputFile = fc.Input.File
	}
	if cfg.OutputPath == "" && fc.Output.Path != "" {
		cfg.OutputPath = fc.Output.Path
	}
	if cfg.OutputPDFPath == "" && fc.Output.PDFPath != "" {
		cfg.OutputPDFPath = fc.Output.PDFPath
	}

	if cfg.UserAgent == "" && fc.Fetch.UserAgent != "" {
		cfg.UserAgent = fc.Fetch.UserAgent
	}
	if cfg.MaxAttempts == 0 && fc.Fetch.MaxAttempts > 0 {
		cfg.MaxAttempts = fc.Fetch.MaxAttempts
	}
	if cfg.RequestTimeout == 0 && fc.Fetch.RequestTimeout > 0 {
		cfg.RequestTimeout = fc.Fetch.RequestTimeout
	}
	if cfg.MaxConcurrent == 0 && fc.Fetch.MaxConcurrent > 0 {
		cfg.MaxConcurrent = fc.Fetch.MaxConcurrent
	}
	if !cfg.RespectRobots && fc.Fetch.RespectRobots {
		cfg.RespectRobots = true
	}

	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.RedisURL == "" && fc.Cache.RedisURL != "" {
		cfg.RedisURL = fc.Cache.RedisURL
	}
	if cfg.CacheTTL == 0 && fc.Cache.TTL > 0 {
		cfg.CacheTTL = fc.Cache.TTL
	}
	if cfg.LRUSize == 0 && fc.Cache.LRUSize > 0 {
		cfg.LRUSize = fc.Cache.LRUSize
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}

	if cfg.CircuitFailureThreshold == 0 && fc.Circuit.FailureThreshold > 0 {
		cfg.CircuitFailureThreshold = fc.Circuit.FailureThreshold
	}
	if cfg.CircuitResetTimeout == 0 && fc.Circuit.ResetTimeout > 0 {
		cfg.CircuitResetTimeout = fc.Circuit.ResetTimeout
	}

	applyBoolPtr(&cfg.EnableReadability, fc.Extractors.Readability)
	applyBoolPtr(&cfg.EnableDOMHeuristic, fc.Extractors.DOMHeuristic)
	applyBoolPtr(&cfg.EnableTrafilatura, fc.Extractors.Trafilatura)
	applyBoolPtr(&cfg.EnableOllama, fc.Extractors.Ollama)
	applyBoolPtr(&cfg.EnableMarketplace, fc.Extractors.Marketplace)

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.WatchDataDir == "" && fc.Watch.DataDir != "" {
		cfg.WatchDataDir = fc.Watch.DataDir
	}
	if cfg.WorkflowTimeout == 0 && fc.Workflow.Timeout > 0 {
		cfg.WorkflowTimeout = fc.Workflow.Timeout
	}

	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

func applyBoolPtr(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if trim(cfg.InputURL) == "" && trim(cfg.InputFile) == "" {
		return errors.New("config: one of input.url or input.file is required")
	}
	if cfg.MaxAttempts < 0 || cfg.MaxConcurrent < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.EnableOllama && trim(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required when the ollama extractor is enabled")
	}
	return nil
}

func trim(s string) string {
	i := 0
	j := len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\n' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}
