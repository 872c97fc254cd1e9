// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tool-miner/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// RequestsPerSecond caps the request rate against one service. Zero
	// selects the service default.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// MaxRetries bounds retries on rate limiting and transient failures (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// LiteratureSource selects where publication text comes from.
type LiteratureSource string

const (
	SourceNCBI     LiteratureSource = "ncbi"
	SourceOpenAlex LiteratureSource = "openalex"
	SourceLocal    LiteratureSource = "local"
)

// LiteratureConfig holds settings for fetching publication text.
type LiteratureConfig struct {
	HTTPConfig `yaml:",inline"`

	// Source is ncbi (E-utilities), openalex (abstracts only), or local (a
	// directory of documents).
	Source LiteratureSource `json:"source" yaml:"source"`

	// OpenAlexFallback asks OpenAlex for abstracts PubMed cannot supply.
	OpenAlexFallback bool `json:"openalex_fallback" yaml:"openalex_fallback"`

	// LocalDir holds <id>.xml, <id>.html, <id>.md, <id>.abstract.txt and
	// <id>.yaml files when Source is local.
	LocalDir string `json:"local_dir" yaml:"local_dir"`

	// APIKey is the optional NCBI API key; it raises the rate limit to 10 req/s.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email identifies the caller to NCBI as requested by the E-utilities policy.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// CacheBackend selects the publication text cache implementation.
type CacheBackend string

const (
	CacheFile  CacheBackend = "file"
	CacheRedis CacheBackend = "redis"
)

// CacheConfig holds settings for the publication text cache.
type CacheConfig struct {
	Backend CacheBackend `json:"backend" yaml:"backend"`

	// Dir is the directory for one YAML file per publication (file backend).
	Dir string `json:"dir" yaml:"dir"`

	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisDB       int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`

	// RedisPrefix namespaces cache keys (default "tool-miner:pub:").
	RedisPrefix string `json:"redis_prefix,omitempty" yaml:"redis_prefix,omitempty"`

	// TTL expires redis entries; zero keeps them indefinitely.
	TTL time.Duration `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ValidationConfig holds settings for optional AI validation of candidates.
type ValidationConfig struct {
	AIConfig `yaml:",inline"`

	Enabled bool `json:"enabled" yaml:"enabled"`

	// MaxCandidates bounds candidates per request (default 40).
	MaxCandidates int `json:"max_candidates" yaml:"max_candidates"`
}

// RegistryConfig locates the curated tool registry.
type RegistryConfig struct {
	// DBPath is a SQLite registry database. Takes precedence over File.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`

	// File is a YAML list of registry tools.
	File string `json:"file,omitempty" yaml:"file,omitempty"`
}

// MiningConfig holds settings for a mining run.
type MiningConfig struct {
	// PatternsFile overrides the embedded pattern library configuration.
	PatternsFile string `json:"patterns_file,omitempty" yaml:"patterns_file,omitempty"`

	// Workers bounds concurrent publications (default 1).
	Workers int `json:"workers" yaml:"workers"`

	// OutputDir receives the review feed files.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// MetricsFile, when set, receives a Prometheus textfile at the end of the run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`
}

// ReviewStoreConfig holds settings for the review database.
type ReviewStoreConfig struct {
	// Dir is the base directory for the review database (contains index/).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}
