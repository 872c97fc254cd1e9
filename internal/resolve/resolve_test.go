// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/internal/registry"
	"github.com/pdiddy/tool-miner/pkg/types"
)

func newResolver() *Resolver {
	snap := registry.NewSnapshot([]types.RegistryTool{
		{ID: "RT-20", Category: types.CategoryCellLine, Name: "ST88-14", Synonyms: []string{"ST8814"}},
		{ID: "RT-10", Category: types.CategoryCellLine, Name: "sNF96.2"},
		{ID: "RT-30", Category: types.CategoryComputationalTool, Name: "CellProfiler"},
		{ID: "RT-31", Category: types.CategoryComputationalTool, Name: "NF1-Atlas"},
		{ID: "RT-32", Category: types.CategoryComputationalTool, Name: "NF2-Atlas"},
	})
	return New(snap, map[types.ToolCategory]float64{types.CategoryComputationalTool: 0.88})
}

func TestResolve(t *testing.T) {
	r := newResolver()

	tests := []struct {
		name   string
		cat    types.ToolCategory
		text   string
		status types.ResolutionStatus
		id     string
	}{
		{"canonical key", types.CategoryCellLine, "ST88-14 cells", types.StatusExisting, "RT-20"},
		{"synonym", types.CategoryCellLine, "st8814", types.StatusExisting, "RT-20"},
		{"exact case-insensitive", types.CategoryComputationalTool, "cellprofiler", types.StatusExisting, "RT-30"},
		{"fuzzy", types.CategoryComputationalTool, "CellProfilerr", types.StatusExisting, "RT-30"},
		{"below threshold", types.CategoryComputationalTool, "CellRanger", types.StatusNovel, ""},
		{"never crosses categories", types.CategoryAntibody, "ST88-14", types.StatusNovel, ""},
		{"empty", types.CategoryCellLine, "", types.StatusNovel, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.cat, tt.text)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.id, got.RegistryID)
		})
	}
}

func TestResolve_FuzzyTieGoesToLowerID(t *testing.T) {
	r := newResolver()
	// "NF3-Atlas" is one edit from both NF1-Atlas and NF2-Atlas.
	got := r.Resolve(types.CategoryComputationalTool, "NF3-Atlas")
	require.Equal(t, types.StatusExisting, got.Status)
	assert.Equal(t, "RT-31", got.RegistryID)
	assert.InDelta(t, 1-1.0/9, got.Score, 1e-9)
	assert.Equal(t, "NF1-Atlas", got.MatchedName)
}

func TestResolveAll(t *testing.T) {
	r := newResolver()
	cands := []types.ToolCandidate{
		{Category: types.CategoryCellLine, RawText: "ST88-14"},
		{Category: types.CategoryCellLine, RawText: "JH2-079c"},
		{Category: types.CategoryCellLine, RawText: "JH2-002"},
		{Category: types.CategoryCellLine, RawText: "JH2-079c"},
		{Category: types.CategoryComputationalTool, RawText: "CellProfiler"},
	}
	res := r.ResolveAll(cands)

	assert.Equal(t, "RT-20", res.Existing[types.CategoryCellLine]["ST88-14"])
	assert.Equal(t, "RT-30", res.Existing[types.CategoryComputationalTool]["CellProfiler"])
	assert.Equal(t, []string{"JH2-002", "JH2-079c"}, res.Novel[types.CategoryCellLine])

	assert.Equal(t, "RT-20", cands[0].Resolution.IDOrNovel())
	assert.Equal(t, types.NovelID, cands[1].Resolution.IDOrNovel())
}

func TestNew_NilSnapshot(t *testing.T) {
	r := New(nil, nil)
	got := r.Resolve(types.CategoryCellLine, "ST88-14")
	assert.Equal(t, types.StatusNovel, got.Status)
}
