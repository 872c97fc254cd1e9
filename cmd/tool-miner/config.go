// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tool-miner/internal/cache"
	"github.com/pdiddy/tool-miner/internal/httputil"
	"github.com/pdiddy/tool-miner/internal/literature"
	"github.com/pdiddy/tool-miner/internal/logging"
	"github.com/pdiddy/tool-miner/internal/metrics"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/internal/registry"
	"github.com/pdiddy/tool-miner/internal/secrets"
	"github.com/pdiddy/tool-miner/internal/validation"
	"github.com/pdiddy/tool-miner/pkg/types"
)

const (
	defaultUserAgent  = "tool-miner/0.1"
	defaultModel      = "claude-sonnet-4-5-20250929"
	defaultAITimeout  = 120 * time.Second
	defaultCacheDir   = "cache"
	defaultOutputDir  = "review"
	defaultReviewDir  = "review-store"
	defaultRedisAddr  = "localhost:6379"
	defaultLocalDir   = "publications"
	defaultMaxResults = 20
)

// bindFlags binds each viper key to the named flag of cmd. Binding happens
// when the command runs so commands that share a key do not override each
// other's flags.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	for key, flag := range keys {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			return fmt.Errorf("binding %s: no flag %q", key, flag)
		}
		if err := viper.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

func literatureConfig() types.LiteratureConfig {
	return types.LiteratureConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:           viper.GetDuration("literature.timeout"),
			UserAgent:         defaultUserAgent,
			RequestsPerSecond: viper.GetFloat64("literature.requests_per_second"),
			MaxRetries:        viper.GetInt("literature.max_retries"),
		},
		Source:           types.LiteratureSource(viper.GetString("literature.source")),
		OpenAlexFallback: viper.GetBool("literature.openalex_fallback"),
		LocalDir:         viper.GetString("literature.local_dir"),
		APIKey:           secrets.Value(loadedSecrets, secrets.NCBIAPIKey, viper.GetString("literature.api_key"), "NCBI_API_KEY"),
		Email:            secrets.Value(loadedSecrets, secrets.NCBIEmail, viper.GetString("literature.email"), ""),
	}
}

func cacheConfig() types.CacheConfig {
	return types.CacheConfig{
		Backend:       types.CacheBackend(viper.GetString("cache.backend")),
		Dir:           viper.GetString("cache.dir"),
		RedisAddr:     viper.GetString("cache.redis_addr"),
		RedisPassword: secrets.Value(loadedSecrets, secrets.RedisPassword, viper.GetString("cache.redis_password"), ""),
		RedisDB:       viper.GetInt("cache.redis_db"),
		RedisPrefix:   viper.GetString("cache.redis_prefix"),
		TTL:           viper.GetDuration("cache.ttl"),
	}
}

func registryConfig() types.RegistryConfig {
	return types.RegistryConfig{
		DBPath: viper.GetString("registry.db_path"),
		File:   viper.GetString("registry.file"),
	}
}

func validationConfig() types.ValidationConfig {
	cfg := types.ValidationConfig{
		AIConfig: types.AIConfig{
			Model:      viper.GetString("validation.model"),
			APIKey:     secrets.Value(loadedSecrets, secrets.AnthropicAPIKey, viper.GetString("validation.api_key"), "ANTHROPIC_API_KEY"),
			MaxRetries: viper.GetInt("validation.max_retries"),
		},
		Enabled:       viper.GetBool("validation.enabled"),
		MaxCandidates: viper.GetInt("validation.max_candidates"),
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return cfg
}

func reviewConfig() types.ReviewStoreConfig {
	return types.ReviewStoreConfig{
		Dir:        viper.GetString("review.dir"),
		MaxResults: viper.GetInt("review.max_results"),
	}
}

// openCache returns the configured cache and a function releasing it.
func openCache(ctx context.Context, cfg types.CacheConfig) (cache.Cache, func(), error) {
	switch cfg.Backend {
	case types.CacheFile, "":
		dir := cfg.Dir
		if dir == "" {
			dir = defaultCacheDir
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	case types.CacheRedis:
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = defaultRedisAddr
		}
		c, err := cache.DialRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend %q: use file or redis", cfg.Backend)
	}
}

// openSource returns the configured literature source. Service retries are
// counted in m.
func openSource(cfg types.LiteratureConfig, m *metrics.Metrics) (literature.Source, error) {
	onRetry := func(service string) httputil.RetryHook {
		return func(attempt int, reason string) {
			m.Retry()
			logger.Debug("retrying request",
				logging.String("service", service),
				logging.Int("attempt", attempt),
				logging.String("reason", reason))
		}
	}

	switch cfg.Source {
	case types.SourceNCBI, "":
		ncbi := literature.NewNCBIClient(cfg)
		ncbi.HTTP.OnRetry = onRetry("ncbi")
		if !cfg.OpenAlexFallback {
			return ncbi, nil
		}
		openAlex := literature.NewOpenAlexClient(cfg)
		openAlex.HTTP.OnRetry = onRetry("openalex")
		return literature.Chain{ncbi, openAlex}, nil
	case types.SourceOpenAlex:
		openAlex := literature.NewOpenAlexClient(cfg)
		openAlex.HTTP.OnRetry = onRetry("openalex")
		return openAlex, nil
	case types.SourceLocal:
		dir := cfg.LocalDir
		if dir == "" {
			dir = defaultLocalDir
		}
		src, err := literature.NewLocalSource(dir)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported source %q: use ncbi, openalex, or local", cfg.Source)
	}
}

// openRegistry returns the registry named by cfg. The SQLite database takes
// precedence over the YAML file.
func openRegistry(cfg types.RegistryConfig) (registry.Registry, func(), error) {
	switch {
	case cfg.DBPath != "":
		s, err := registry.OpenStore(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	case cfg.File != "":
		f, err := registry.OpenFile(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return f, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("registry required: set --registry-db or --registry-file")
	}
}

// loadLibrary snapshots the registry and builds the pattern library from
// patternsFile, or the embedded configuration when it is empty.
func loadLibrary(ctx context.Context, regCfg types.RegistryConfig, patternsFile string) (*patterns.Library, *registry.Snapshot, error) {
	reg, closeReg, err := openRegistry(regCfg)
	if err != nil {
		return nil, nil, err
	}
	defer closeReg()

	snap, err := registry.LoadSnapshot(ctx, reg)
	if err != nil {
		return nil, nil, err
	}

	var pcfg patterns.Config
	if patternsFile != "" {
		pcfg, err = patterns.Load(patternsFile)
	} else {
		pcfg, err = patterns.Default()
	}
	if err != nil {
		return nil, nil, err
	}

	lib, err := patterns.NewLibrary(pcfg, snap.All())
	if err != nil {
		return nil, nil, err
	}
	return lib, snap, nil
}

func newValidator(cfg types.ValidationConfig) (validation.Validator, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("validation enabled but no API key: add .secrets/%s or set ANTHROPIC_API_KEY", secrets.AnthropicAPIKey)
	}
	return &validation.ClaudeValidator{
		APIKey: cfg.APIKey,
		Model:  cfg.Model,
		Client: &http.Client{Timeout: defaultAITimeout},
	}, nil
}
