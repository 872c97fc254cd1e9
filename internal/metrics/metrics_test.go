// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Publication("mined")
	m.Publication("mined")
	m.Publication("degraded")
	m.Candidate("cell_line", StageMatched, 4)
	m.Candidate("cell_line", StageMatched, 0)
	m.Cache("hit")
	m.Retry()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Publications.WithLabelValues("mined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Publications.WithLabelValues("degraded")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Candidates.WithLabelValues("cell_line", StageMatched)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchRetries))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.Publication("mined")
	m.Candidate("antibody", StageKept, 1)
	m.Cache("miss")
	m.Retry()
	m.Observe(1)
	assert.NoError(t, m.WriteTextfile("ignored"))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Publication("mined")
	m.Observe(0.2)

	path := filepath.Join(t.TempDir(), "tool_miner.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `tool_miner_publications_total{status="mined"} 1`)
	assert.Contains(t, string(data), "tool_miner_publication_seconds_bucket")
}
