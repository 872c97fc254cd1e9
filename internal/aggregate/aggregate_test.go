// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/pkg/types"
)

func record(name string, cat types.ToolCategory, id string, p types.Priority, domain bool, pubs ...string) types.ReviewRecord {
	return types.ReviewRecord{
		Name:           name,
		Category:       cat,
		RegistryID:     id,
		UsageType:      types.UsageExperimental,
		Priority:       p,
		DomainSpecific: domain,
		PublicationIDs: pubs,
	}
}

func testRecords() []types.ReviewRecord {
	return []types.ReviewRecord{
		record("sNF96.2", types.CategoryCellLine, types.NovelID, types.PriorityLow, false, "P3"),
		record("JH2-079c", types.CategoryCellLine, types.NovelID, types.PriorityHigh, true, "P2", "P1"),
		record("NF1-Atlas", types.CategoryComputationalTool, types.NovelID, types.PriorityMedium, true, "P1"),
		record("ST88-14", types.CategoryCellLine, types.NovelID, types.PriorityMedium, false, "P1", "P4"),
		record("ImageJ", types.CategoryComputationalTool, "RT-30", types.PriorityHigh, true, "P3", "P5"),
	}
}

func TestByPublication(t *testing.T) {
	pubs := map[string]types.Publication{
		"P1": {ID: "P1", Title: "Atlas", DOI: "10.1/a", Year: "2024"},
		"P2": {ID: "P2", Title: "Lines"},
	}
	rows := ByPublication(testRecords(), pubs)

	require.Len(t, rows, 4, "P5 mentions only a registry tool")
	var order []string
	for _, r := range rows {
		order = append(order, r.PublicationID)
	}
	assert.Equal(t, []string{"P1", "P2", "P4", "P3"}, order)

	p1 := rows[0]
	assert.Equal(t, "Atlas", p1.Title)
	assert.Equal(t, "10.1/a", p1.DOI)
	assert.Equal(t, 3, p1.NovelCount)
	assert.Equal(t, 2, p1.DomainSpecificCount)
	assert.Equal(t, types.PriorityHigh, p1.MaxPriority)
	assert.Equal(t, []string{"JH2-079c", "ST88-14"}, p1.NovelByCategory[types.CategoryCellLine])
	assert.Equal(t, "JH2-079c; ST88-14", JoinNames(p1, types.CategoryCellLine))
	assert.Equal(t, "", JoinNames(p1, types.CategoryAntibody))

	assert.Equal(t, types.PriorityLow, rows[3].MaxPriority)
}

func TestByPublication_IndependentOfInputOrder(t *testing.T) {
	recs := testRecords()
	reversed := make([]types.ReviewRecord, len(recs))
	for i := range recs {
		reversed[len(recs)-1-i] = recs[i]
	}
	assert.Equal(t, ByPublication(recs, nil), ByPublication(reversed, nil))
}

func TestLinks(t *testing.T) {
	links := Links(testRecords())

	cells := links[types.CategoryCellLine]
	require.Len(t, cells, 5)
	assert.Equal(t, types.CategoryLink{
		Category: types.CategoryCellLine, PublicationID: "P1", ToolName: "JH2-079c",
		RegistryID: types.NovelID, UsageType: types.UsageExperimental,
	}, cells[0])
	assert.Equal(t, "ST88-14", cells[1].ToolName)
	assert.Equal(t, "P2", cells[2].PublicationID)

	tools := links[types.CategoryComputationalTool]
	require.Len(t, tools, 3)
	assert.Equal(t, "NF1-Atlas", tools[0].ToolName)
	assert.Equal(t, "RT-30", tools[1].RegistryID)
	assert.Empty(t, links[types.CategoryAntibody])
}

func TestSummarize(t *testing.T) {
	s := Summarize(testRecords())
	assert.Equal(t, 5, s.Records)
	assert.Equal(t, 4, s.Novel)
	assert.Equal(t, 3, s.ByCategory[types.CategoryCellLine])
	assert.Equal(t, 2, s.ByPriority[types.PriorityHigh])
}
