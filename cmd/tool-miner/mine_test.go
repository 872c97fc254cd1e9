// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/internal/cache"
	"github.com/pdiddy/tool-miner/internal/literature"
	"github.com/pdiddy/tool-miner/internal/metrics"
	"github.com/pdiddy/tool-miner/pkg/types"
)

func TestCollectIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.txt")
	require.NoError(t, os.WriteFile(path, []byte("# batch one\n12345\n\n  PMC777  \n"), 0o644))

	ids, err := collectIDs([]string{"999"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"999", "12345", "PMC777"}, ids)

	ids, err = collectIDs([]string{"1"}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids)

	_, err = collectIDs(nil, filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}

func TestOpenCache(t *testing.T) {
	c, closeCache, err := openCache(context.Background(), types.CacheConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	defer closeCache()
	assert.IsType(t, &cache.FileCache{}, c)

	_, _, err = openCache(context.Background(), types.CacheConfig{Backend: "memcached"})
	require.Error(t, err)
}

func TestOpenSource(t *testing.T) {
	src, err := openSource(types.LiteratureConfig{Source: types.SourceLocal, LocalDir: t.TempDir()}, metrics.New())
	require.NoError(t, err)
	assert.IsType(t, &literature.LocalSource{}, src)

	src, err = openSource(types.LiteratureConfig{}, metrics.New())
	require.NoError(t, err)
	assert.IsType(t, &literature.NCBIClient{}, src)

	src, err = openSource(types.LiteratureConfig{OpenAlexFallback: true}, metrics.New())
	require.NoError(t, err)
	require.IsType(t, literature.Chain{}, src)
	assert.Len(t, src.(literature.Chain), 2)

	src, err = openSource(types.LiteratureConfig{Source: types.SourceOpenAlex}, metrics.New())
	require.NoError(t, err)
	assert.IsType(t, &literature.OpenAlexClient{}, src)

	_, err = openSource(types.LiteratureConfig{Source: "crossref"}, metrics.New())
	require.Error(t, err)
}

func TestOpenRegistry_RequiresLocation(t *testing.T) {
	_, _, err := openRegistry(types.RegistryConfig{})
	require.Error(t, err)
}

func TestNewValidator(t *testing.T) {
	v, err := newValidator(types.ValidationConfig{})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = newValidator(types.ValidationConfig{Enabled: true})
	require.Error(t, err)

	v, err = newValidator(types.ValidationConfig{Enabled: true, AIConfig: types.AIConfig{APIKey: "k", Model: defaultModel}})
	require.NoError(t, err)
	assert.NotNil(t, v)
}
