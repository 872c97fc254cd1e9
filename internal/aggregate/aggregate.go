// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package aggregate pivots scored review records into publication rows and
// per-category link tables. Output order depends only on the input values.
package aggregate

import (
	"sort"
	"strings"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// NameSeparator joins novel tool names in flat review tables.
const NameSeparator = "; "

// ByPublication returns one row per publication that mentions at least one
// novel tool. Rows are ordered by max priority (High first), then novel
// count descending, then publication ID.
func ByPublication(records []types.ReviewRecord, pubs map[string]types.Publication) []types.PublicationReviewRow {
	rows := make(map[string]*types.PublicationReviewRow)
	seen := make(map[string]map[types.ToolCategory]map[string]bool)

	for _, r := range records {
		if !r.IsNovel() {
			continue
		}
		for _, id := range r.PublicationIDs {
			row, ok := rows[id]
			if !ok {
				p := pubs[id]
				row = &types.PublicationReviewRow{
					PublicationID:   id,
					DOI:             p.DOI,
					Title:           p.Title,
					Year:            p.Year,
					NovelByCategory: make(map[types.ToolCategory][]string),
					MaxPriority:     types.PriorityLow,
				}
				rows[id] = row
				seen[id] = make(map[types.ToolCategory]map[string]bool)
			}
			if seen[id][r.Category] == nil {
				seen[id][r.Category] = make(map[string]bool)
			}
			if seen[id][r.Category][r.Name] {
				continue
			}
			seen[id][r.Category][r.Name] = true

			row.NovelByCategory[r.Category] = append(row.NovelByCategory[r.Category], r.Name)
			row.NovelCount++
			if r.DomainSpecific {
				row.DomainSpecificCount++
			}
			if r.Priority.Rank() < row.MaxPriority.Rank() {
				row.MaxPriority = r.Priority
			}
		}
	}

	out := make([]types.PublicationReviewRow, 0, len(rows))
	for _, row := range rows {
		for cat := range row.NovelByCategory {
			sort.Strings(row.NovelByCategory[cat])
		}
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MaxPriority.Rank() != b.MaxPriority.Rank() {
			return a.MaxPriority.Rank() < b.MaxPriority.Rank()
		}
		if a.NovelCount != b.NovelCount {
			return a.NovelCount > b.NovelCount
		}
		return a.PublicationID < b.PublicationID
	})
	return out
}

// JoinNames returns the row's novel names for category c as one field.
func JoinNames(row types.PublicationReviewRow, c types.ToolCategory) string {
	return strings.Join(row.NovelByCategory[c], NameSeparator)
}

// Links returns, per category, one link per (publication, tool) sorted by
// publication then tool name.
func Links(records []types.ReviewRecord) map[types.ToolCategory][]types.CategoryLink {
	out := make(map[types.ToolCategory][]types.CategoryLink)
	for _, r := range records {
		for _, id := range r.PublicationIDs {
			out[r.Category] = append(out[r.Category], types.CategoryLink{
				Category:      r.Category,
				PublicationID: id,
				ToolName:      r.Name,
				RegistryID:    r.RegistryID,
				UsageType:     r.UsageType,
			})
		}
	}
	for cat := range out {
		links := out[cat]
		sort.Slice(links, func(i, j int) bool {
			if links[i].PublicationID != links[j].PublicationID {
				return links[i].PublicationID < links[j].PublicationID
			}
			if links[i].ToolName != links[j].ToolName {
				return links[i].ToolName < links[j].ToolName
			}
			return links[i].RegistryID < links[j].RegistryID
		})
	}
	return out
}

// Summary counts records per category and priority for run reporting.
type Summary struct {
	Records    int                        `json:"records"`
	Novel      int                        `json:"novel"`
	ByCategory map[types.ToolCategory]int `json:"by_category"`
	ByPriority map[types.Priority]int     `json:"by_priority"`
}

// Summarize counts records.
func Summarize(records []types.ReviewRecord) Summary {
	s := Summary{
		ByCategory: make(map[types.ToolCategory]int),
		ByPriority: make(map[types.Priority]int),
	}
	for _, r := range records {
		s.Records++
		if r.IsNovel() {
			s.Novel++
		}
		s.ByCategory[r.Category]++
		s.ByPriority[r.Priority]++
	}
	return s
}
