// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/tool-miner/internal/logging"
	"github.com/pdiddy/tool-miner/internal/metrics"
	"github.com/pdiddy/tool-miner/internal/pipeline"
	"github.com/pdiddy/tool-miner/internal/report"
	"github.com/pdiddy/tool-miner/internal/review"
)

var mineCmd = &cobra.Command{
	Use:   "mine [ids...]",
	Short: "Mine publications for research-tool mentions",
	Long: `Mine fetches each publication's text (PMC full text, else the PubMed
or OpenAlex abstract), caches it, finds tool mentions, resolves them against the
registry, and writes the review feed to --out: tools.csv,
publications.csv, removed.csv, links/<category>.csv, review.json, and
review.xlsx.

Publications are read as PMIDs or PMCIDs from the arguments and from
--ids-file (one per line, # starts a comment). Cached text is reused;
publications that yield candidates from their abstract and methods are
refetched in full and mined again.`,
	RunE: runMine,
}

var mineFlagKeys = map[string]string{
	"literature.source":            "source",
	"literature.openalex_fallback": "openalex-fallback",
	"literature.local_dir":         "local-dir",
	"cache.backend":                "cache-backend",
	"cache.dir":                    "cache-dir",
	"cache.redis_addr":             "redis-addr",
	"registry.db_path":             "registry-db",
	"registry.file":                "registry-file",
	"mining.patterns_file":         "patterns",
	"mining.workers":               "workers",
	"mining.output_dir":            "out",
	"mining.metrics_file":          "metrics-file",
	"validation.enabled":           "validate",
	"validation.model":             "model",
	"review.dir":                   "store",
}

func init() {
	mineCmd.Flags().String("ids-file", "", "file with one publication ID per line")
	mineCmd.Flags().String("source", "ncbi", "literature source: ncbi, openalex, or local")
	mineCmd.Flags().Bool("openalex-fallback", true, "ask OpenAlex for abstracts PubMed cannot supply (ncbi source)")
	mineCmd.Flags().String("local-dir", defaultLocalDir, "directory of publication files for --source local")
	mineCmd.Flags().String("cache-backend", "file", "cache backend: file or redis")
	mineCmd.Flags().String("cache-dir", defaultCacheDir, "directory for the file cache")
	mineCmd.Flags().String("redis-addr", defaultRedisAddr, "redis address for --cache-backend redis")
	mineCmd.Flags().String("registry-db", "", "SQLite registry database (takes precedence over --registry-file)")
	mineCmd.Flags().String("registry-file", "", "YAML registry file")
	mineCmd.Flags().String("patterns", "", "pattern library YAML (default: embedded library)")
	mineCmd.Flags().Int("workers", pipeline.DefaultWorkers, "publications mined concurrently")
	mineCmd.Flags().Bool("validate", false, "validate candidates with the Claude API")
	mineCmd.Flags().String("model", defaultModel, "AI model identifier for validation")
	mineCmd.Flags().String("out", defaultOutputDir, "directory for the review feed")
	mineCmd.Flags().String("metrics-file", "", "write Prometheus metrics in text format to this file")
	mineCmd.Flags().String("store", "", "also store the results in the review database under this directory")

	rootCmd.AddCommand(mineCmd)
}

func runMine(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, mineFlagKeys); err != nil {
		return err
	}

	idsFile, _ := cmd.Flags().GetString("ids-file")
	ids, err := collectIDs(args, idsFile)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("provide one or more publication IDs (PMIDs or PMCIDs) or --ids-file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib, snap, err := loadLibrary(ctx, registryConfig(), viper.GetString("mining.patterns_file"))
	if err != nil {
		return err
	}
	logger.Info("registry loaded",
		logging.Int("tools", snap.Len()),
		logging.String("patterns_version", lib.Version()))

	m := metrics.New()
	src, err := openSource(literatureConfig(), m)
	if err != nil {
		return err
	}
	c, closeCache, err := openCache(ctx, cacheConfig())
	if err != nil {
		return err
	}
	defer closeCache()

	valCfg := validationConfig()
	validator, err := newValidator(valCfg)
	if err != nil {
		return err
	}

	engine, err := pipeline.New(pipeline.Config{
		Library:           lib,
		Snapshot:          snap,
		Source:            src,
		Cache:             c,
		Validator:         validator,
		ValidationBatch:   valCfg.MaxCandidates,
		ValidationRetries: valCfg.MaxRetries,
		Workers:           viper.GetInt("mining.workers"),
		Logger:            logger.Named("pipeline"),
		Metrics:           m,
	})
	if err != nil {
		return err
	}

	res, runErr := engine.Run(ctx, ids, os.Stdout)
	if res == nil {
		return runErr
	}

	outDir := viper.GetString("mining.output_dir")
	paths, err := report.WriteAll(outDir, res)
	if err != nil {
		return err
	}
	fmt.Printf("\nWrote %d review files to %s (%d tools, %d novel)\n",
		len(paths), outDir, res.Summary.Records, res.Summary.Novel)

	if dir := viper.GetString("review.dir"); dir != "" {
		if err := storeResult(context.WithoutCancel(ctx), dir, res); err != nil {
			return err
		}
	}

	if path := viper.GetString("mining.metrics_file"); path != "" {
		if err := m.WriteTextfile(path); err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	if res.Batch.HasFailures() {
		return fmt.Errorf("%d publication(s) failed", res.Batch.Failed)
	}
	return nil
}

func storeResult(ctx context.Context, dir string, res *pipeline.Result) error {
	cfg := reviewConfig()
	cfg.Dir = dir
	store, err := review.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Ingest(ctx, review.Batch{
		RunID:        res.RunID,
		Records:      res.Records,
		Publications: res.Publications,
	}, os.Stdout)
	return err
}

// collectIDs merges argument IDs with those listed in path. Blank lines and
// lines starting with # are skipped.
func collectIDs(args []string, path string) ([]string, error) {
	ids := append([]string(nil), args...)
	if path == "" {
		return ids, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening ids file: %w", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ids = append(ids, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading ids file: %w", err)
	}
	return ids, nil
}
