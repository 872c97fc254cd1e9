// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/pkg/types"
)

func entry(id string, c types.Completeness) types.CacheEntry {
	return types.CacheEntry{
		Publication:  types.Publication{ID: id, Title: "Title " + id, DOI: "10.1/" + id},
		Completeness: c,
		Source:       "ncbi",
		FetchedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Sections: map[types.SectionKind]string{
			types.SectionAbstract:     "abstract text",
			types.SectionMethods:      "methods text",
			types.SectionIntroduction: "introduction text",
		},
	}
}

func TestSanitizeID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"12345678", "12345678"},
		{"PMC987", "PMC987"},
		{"PMC_123", "PMC_123"},
		{"10.1038/s41586", "10.1038_s41586-db935123"},
		{"PMC/123", "PMC_123-d4306ee9"},
		{"../etc/passwd", "_.._etc_passwd-7fef78f5"},
		{".hidden", "_.hidden-16924190"},
		{"", "_-e3b0c442"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeID(tt.in), tt.in)
	}
}

func TestFileCache_DistinctIDsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, c.Put(ctx, entry("PMC/123", types.CompletenessFull)))
	require.NoError(t, c.Put(ctx, entry("PMC_123", types.CompletenessMinimal)))

	got, ok, err := c.Get(ctx, "PMC/123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PMC/123", got.Publication.ID)
	assert.Equal(t, types.CompletenessFull, got.Completeness)

	got, ok, err = c.Get(ctx, "PMC_123")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "PMC_123", got.Publication.ID)
}

func TestMinimal(t *testing.T) {
	full := entry("P1", types.CompletenessFull)
	m := Minimal(full)
	assert.Equal(t, types.CompletenessMinimal, m.Completeness)
	assert.Len(t, m.Sections, 2)
	assert.NotContains(t, m.Sections, types.SectionIntroduction)
	assert.Len(t, full.Sections, 3, "input is not modified")
	assert.True(t, NeedsUpgrade(m))

	abs := entry("P2", types.CompletenessAbstractOnly)
	assert.Equal(t, types.CompletenessAbstractOnly, Minimal(abs).Completeness)
	assert.False(t, NeedsUpgrade(abs))
	assert.False(t, NeedsUpgrade(full))
}

func TestFileCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)

	_, ok, err := c.Get(ctx, "P1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := entry("10.1038/x", types.CompletenessMinimal)
	require.NoError(t, c.Put(ctx, want))
	assert.FileExists(t, filepath.Join(c.Dir(), SanitizeID("10.1038/x")+".yaml"))

	got, ok, err := c.Get(ctx, "10.1038/x")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.Publication, got.Publication)
	assert.Equal(t, want.Sections, got.Sections)
	assert.True(t, want.FetchedAt.Equal(got.FetchedAt))

	upgraded := entry("10.1038/x", types.CompletenessFull)
	require.NoError(t, c.Put(ctx, upgraded))
	got, _, err = c.Get(ctx, "10.1038/x")
	require.NoError(t, err)
	assert.Equal(t, types.CompletenessFull, got.Completeness)

	leftovers, err := filepath.Glob(filepath.Join(c.Dir(), ".cache-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileCache_RejectsMissingID(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	assert.ErrorIs(t, c.Put(context.Background(), types.CacheEntry{}), ErrInvalidEntry)
}

func TestFileCache_CorruptEntry(t *testing.T) {
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "P1.yaml"), []byte("sections: [unclosed"), 0o644))

	_, ok, err := c.Get(context.Background(), "P1")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestFileCache_ConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("P%d", i%4)
			assert.NoError(t, c.Put(ctx, entry(id, types.CompletenessMinimal)))
			_, _, err := c.Get(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	s, err := c.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Entries)
	assert.Equal(t, 4, s.ByCompleteness[types.CompletenessMinimal])
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db, "", time.Hour)

	e := entry("PMC1", types.CompletenessFull)
	data, err := json.Marshal(e)
	require.NoError(t, err)

	mock.ExpectSet(DefaultRedisPrefix+"PMC1", data, time.Hour).SetVal("OK")
	require.NoError(t, c.Put(ctx, e))

	mock.ExpectGet(DefaultRedisPrefix + "PMC1").SetVal(string(data))
	got, ok, err := c.Get(ctx, "PMC1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e.Sections, got.Sections)
	assert.Equal(t, types.CompletenessFull, got.Completeness)

	mock.ExpectGet(DefaultRedisPrefix + "PMC2").RedisNil()
	_, ok, err = c.Get(ctx, "PMC2")
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectGet(DefaultRedisPrefix + "PMC3").SetErr(fmt.Errorf("connection refused"))
	_, _, err = c.Get(ctx, "PMC3")
	assert.ErrorContains(t, err, "connection refused")

	assert.NoError(t, mock.ExpectationsWereMet())
}
