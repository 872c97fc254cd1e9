// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/tool-miner/internal/aggregate"
	"github.com/pdiddy/tool-miner/internal/pipeline"
	"github.com/pdiddy/tool-miner/pkg/types"
)

func sampleResult() *pipeline.Result {
	md := types.NewMetadata(types.CategoryCellLine)
	md.Fill("disease", "MPNST", "methods")
	md.Fill("species", "human", "methods")

	records := []types.ReviewRecord{
		{
			Name: "S462", Category: types.CategoryCellLine, CanonicalKey: "s462",
			RegistryID: types.NovelID, UsageType: types.UsageExperimental,
			Confidence: 0.85, Metadata: types.NewMetadata(types.CategoryCellLine),
			PublicationIDs: []string{"P1"}, Priority: types.PriorityLow,
			Contexts: []string{"S462 cells were used"},
		},
		{
			Name: "ST88-14", Category: types.CategoryCellLine, CanonicalKey: "st88-14",
			RegistryID: types.NovelID, UsageType: types.UsageExperimental,
			Confidence: 0.9, Metadata: md, DomainSpecific: true, Completeness: 2.0 / 3.0,
			PublicationIDs: []string{"P1", "P2"}, DOIs: []string{"10.1000/p1"},
			Priority: types.PriorityHigh,
			Validation: &types.Validation{Verdict: types.VerdictAccept, Recommendation: types.RecommendKeep, Confidence: 0.9},
		},
		{
			Name: "ImageJ", Category: types.CategoryComputationalTool, CanonicalKey: "imagej",
			RegistryID: "RRID:SCR_003070", UsageType: types.UsageExperimental,
			Confidence: 0.9, Metadata: types.NewMetadata(types.CategoryComputationalTool),
			PublicationIDs: []string{"P1"}, Priority: types.PriorityLow,
		},
	}
	pubs := map[string]types.Publication{
		"P1": {ID: "P1", Title: "Plexiform neurofibroma models", DOI: "10.1000/p1", Year: "2024"},
		"P2": {ID: "P2", Title: "MPNST lines"},
	}
	return &pipeline.Result{
		RunID:   "run-1",
		Records: records,
		Rows:    aggregate.ByPublication(records, pubs),
		Links:   aggregate.Links(records),
		Summary: aggregate.Summarize(records),
		Removed: []types.RemovedCandidate{
			{PublicationID: "P1", Category: types.CategoryComputationalTool, RawText: "R", Rule: "excluded-term", Reason: "R is an excluded term"},
		},
		Publications: pubs,
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestSortedRecords(t *testing.T) {
	got := SortedRecords(sampleResult().Records)
	var names []string
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"ST88-14", "S462", "ImageJ"}, names, "High first, then category order, then name")
}

func TestToolsTable(t *testing.T) {
	rows := ToolsTable(SortedRecords(sampleResult().Records))
	require.Len(t, rows, 4)
	assert.Equal(t, toolsHeader, rows[0])

	st := rows[1]
	col := func(name string) string {
		for i, h := range toolsHeader {
			if h == name {
				return st[i]
			}
		}
		t.Fatalf("no column %s", name)
		return ""
	}
	assert.Equal(t, "ST88-14", col("name"))
	assert.Equal(t, "novel", col("status"))
	assert.Equal(t, "High", col("priority"))
	assert.Equal(t, "true", col("domain_specific"))
	assert.Equal(t, "0.667", col("completeness"))
	assert.Equal(t, "2", col("publications"))
	assert.Equal(t, "P1; P2", col("publication_ids"))
	assert.Equal(t, "Accept/Keep", col("validation"))
	assert.Equal(t, "disease=MPNST; species=human", col("metadata"))

	assert.Equal(t, "existing", rows[3][2], "ImageJ has a registry ID")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	res := sampleResult()

	written, err := WriteAll(dir, res)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, ToolsFile),
		filepath.Join(dir, PublicationsFile),
		filepath.Join(dir, RemovedFile),
		filepath.Join(dir, LinksDir, "cell_line.csv"),
		filepath.Join(dir, LinksDir, "computational_tool.csv"),
		filepath.Join(dir, JSONFile),
		filepath.Join(dir, WorkbookFile),
	}, written)

	pubs := readCSV(t, filepath.Join(dir, PublicationsFile))
	require.Len(t, pubs, 3)
	assert.Equal(t, "P1", pubs[1][0])
	assert.Equal(t, "2", pubs[1][4], "two novel tools in P1")
	assert.Equal(t, "High", pubs[1][6])
	assert.Contains(t, pubs[0], "novel_cell_line")
	assert.Contains(t, pubs[1], "S462; ST88-14")

	removed := readCSV(t, filepath.Join(dir, RemovedFile))
	assert.Equal(t, []string{"P1", "computational_tool", "R", "excluded-term", "R is an excluded term"}, removed[1])

	links := readCSV(t, filepath.Join(dir, LinksDir, "cell_line.csv"))
	assert.Equal(t, [][]string{
		{"publication_id", "tool_name", "registry_id", "usage_type"},
		{"P1", "S462", "NOVEL", "Experimental Usage"},
		{"P1", "ST88-14", "NOVEL", "Experimental Usage"},
		{"P2", "ST88-14", "NOVEL", "Experimental Usage"},
	}, links)

	data, err := os.ReadFile(filepath.Join(dir, JSONFile))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "run-1")
	var doc struct {
		Summary aggregate.Summary    `json:"summary"`
		Tools   []types.ReviewRecord `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, 3, doc.Summary.Records)
	require.Len(t, doc.Tools, 3)
	assert.Equal(t, "ST88-14", doc.Tools[0].Name)
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteAll(dir, sampleResult())
	require.NoError(t, err)

	doc, err := ReadDocument(filepath.Join(dir, JSONFile))
	require.NoError(t, err)
	assert.Len(t, doc.Tools, 3)
	assert.Len(t, doc.Removed, 1)
	pubs := doc.PublicationMap()
	assert.Equal(t, "10.1000/p1", pubs["P1"].DOI)
	assert.Equal(t, "MPNST lines", pubs["P2"].Title)

	_, err = ReadDocument(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestWriteAll_Deterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	_, err := WriteAll(a, sampleResult())
	require.NoError(t, err)

	res := sampleResult()
	res.RunID = "run-2"
	_, err = WriteAll(b, res)
	require.NoError(t, err)

	for _, name := range []string{ToolsFile, PublicationsFile, RemovedFile, JSONFile, filepath.Join(LinksDir, "cell_line.csv")} {
		x, err := os.ReadFile(filepath.Join(a, name))
		require.NoError(t, err)
		y, err := os.ReadFile(filepath.Join(b, name))
		require.NoError(t, err)
		assert.Equal(t, x, y, name)
	}
}

func TestWriteWorkbook(t *testing.T) {
	res := sampleResult()
	records := SortedRecords(res.Records)
	path := filepath.Join(t.TempDir(), WorkbookFile)
	require.NoError(t, WriteWorkbook(path, records, res.Rows, res.Removed))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetTools, SheetPublications, SheetRemoved}, f.GetSheetList())

	rows, err := f.GetRows(SheetTools)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, "ST88-14", rows[1][0])

	removed, err := f.GetRows(SheetRemoved)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "excluded-term", removed[1][3])
}

func TestWriteAll_Empty(t *testing.T) {
	dir := t.TempDir()
	_, err := WriteAll(dir, &pipeline.Result{})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, JSONFile))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"tools": []`)
	assert.Len(t, readCSV(t, filepath.Join(dir, ToolsFile)), 1, "header only")
}
