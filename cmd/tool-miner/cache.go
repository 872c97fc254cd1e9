// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tool-miner/pkg/types"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the publication text cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count cached publications by completeness",
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd, map[string]string{
		"cache.backend":    "cache-backend",
		"cache.dir":        "cache-dir",
		"cache.redis_addr": "redis-addr",
	}); err != nil {
		return err
	}

	ctx := context.Background()
	c, closeCache, err := openCache(ctx, cacheConfig())
	if err != nil {
		return err
	}
	defer closeCache()

	stats, err := c.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("entries:       %d\n", stats.Entries)
	for _, level := range []types.Completeness{types.CompletenessFull, types.CompletenessMinimal, types.CompletenessAbstractOnly} {
		fmt.Printf("%-14s %d\n", string(level)+":", stats.ByCompleteness[level])
	}
	return nil
}

func init() {
	cacheCmd.PersistentFlags().String("cache-backend", "file", "cache backend: file or redis")
	cacheCmd.PersistentFlags().String("cache-dir", defaultCacheDir, "directory for the file cache")
	cacheCmd.PersistentFlags().String("redis-addr", defaultRedisAddr, "redis address for --cache-backend redis")

	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
