// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the curator review feed for a mining run: CSV
// tables, a JSON document, and an Excel workbook. CSV and JSON output is
// byte-identical for identical results.
package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/tool-miner/internal/aggregate"
	"github.com/pdiddy/tool-miner/internal/pipeline"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// Output file names under the report directory.
const (
	ToolsFile        = "tools.csv"
	PublicationsFile = "publications.csv"
	RemovedFile      = "removed.csv"
	LinksDir         = "links"
	JSONFile         = "review.json"
	WorkbookFile     = "review.xlsx"
)

// listSeparator joins multi-valued cells.
const listSeparator = aggregate.NameSeparator

// WriteAll writes every review file into dir and returns the paths written,
// in write order.
func WriteAll(dir string, res *pipeline.Result) ([]string, error) {
	if err := os.MkdirAll(filepath.Join(dir, LinksDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	records := SortedRecords(res.Records)
	tables := []struct {
		name string
		rows [][]string
	}{
		{ToolsFile, ToolsTable(records)},
		{PublicationsFile, PublicationsTable(res.Rows)},
		{RemovedFile, RemovedTable(res.Removed)},
	}
	for _, cat := range types.AllCategories {
		links := res.Links[cat]
		if len(links) == 0 {
			continue
		}
		tables = append(tables, struct {
			name string
			rows [][]string
		}{filepath.Join(LinksDir, string(cat)+".csv"), LinksTable(links)})
	}

	var written []string
	for _, t := range tables {
		path := filepath.Join(dir, t.name)
		if err := writeCSV(path, t.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	jsonPath := filepath.Join(dir, JSONFile)
	if err := writeJSON(jsonPath, res, records); err != nil {
		return written, err
	}
	written = append(written, jsonPath)

	xlsxPath := filepath.Join(dir, WorkbookFile)
	if err := WriteWorkbook(xlsxPath, records, res.Rows, res.Removed); err != nil {
		return written, err
	}
	written = append(written, xlsxPath)
	return written, nil
}

// SortedRecords orders records for review: priority, category, then name.
func SortedRecords(records []types.ReviewRecord) []types.ReviewRecord {
	out := append([]types.ReviewRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.Category != b.Category {
			return a.Category.Order() < b.Category.Order()
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.CanonicalKey < b.CanonicalKey
	})
	return out
}

var toolsHeader = []string{
	"name", "category", "status", "registry_id", "usage_type", "priority",
	"domain_specific", "completeness", "confidence", "publications",
	"publication_ids", "dois", "titles", "years", "sections",
	"validation", "metadata", "context", "resource_id",
}

// ToolsTable renders one row per review record, header first.
func ToolsTable(records []types.ReviewRecord) [][]string {
	rows := [][]string{toolsHeader}
	for _, r := range records {
		status := "existing"
		if r.IsNovel() {
			status = "novel"
		}
		var verdict string
		if r.Validation != nil {
			verdict = fmt.Sprintf("%s/%s", r.Validation.Verdict, r.Validation.Recommendation)
		}
		var context string
		if len(r.Contexts) > 0 {
			context = r.Contexts[0]
		}
		rows = append(rows, []string{
			r.Name,
			string(r.Category),
			status,
			r.RegistryID,
			string(r.UsageType),
			string(r.Priority),
			strconv.FormatBool(r.DomainSpecific),
			formatFloat(r.Completeness),
			formatFloat(r.Confidence),
			strconv.Itoa(len(r.PublicationIDs)),
			strings.Join(r.PublicationIDs, listSeparator),
			strings.Join(r.DOIs, listSeparator),
			strings.Join(r.Titles, listSeparator),
			strings.Join(r.Years, listSeparator),
			strings.Join(r.Sections, listSeparator),
			verdict,
			formatMetadata(r.Metadata),
			context,
			r.ResourceID,
		})
	}
	return rows
}

// PublicationsTable renders the per-publication pivot with one column of
// novel tool names per category.
func PublicationsTable(pubRows []types.PublicationReviewRow) [][]string {
	header := []string{"publication_id", "doi", "title", "year", "novel_tools", "domain_specific_tools", "max_priority"}
	for _, cat := range types.AllCategories {
		header = append(header, "novel_"+string(cat))
	}
	rows := [][]string{header}
	for _, p := range pubRows {
		row := []string{
			p.PublicationID,
			p.DOI,
			p.Title,
			p.Year,
			strconv.Itoa(p.NovelCount),
			strconv.Itoa(p.DomainSpecificCount),
			string(p.MaxPriority),
		}
		for _, cat := range types.AllCategories {
			row = append(row, aggregate.JoinNames(p, cat))
		}
		rows = append(rows, row)
	}
	return rows
}

// RemovedTable renders the filter's removals.
func RemovedTable(removed []types.RemovedCandidate) [][]string {
	rows := [][]string{{"publication_id", "category", "raw_text", "rule", "reason"}}
	for _, r := range removed {
		rows = append(rows, []string{r.PublicationID, string(r.Category), r.RawText, r.Rule, r.Reason})
	}
	return rows
}

// LinksTable renders one category's publication-tool links.
func LinksTable(links []types.CategoryLink) [][]string {
	rows := [][]string{{"publication_id", "tool_name", "registry_id", "usage_type"}}
	for _, l := range links {
		rows = append(rows, []string{l.PublicationID, l.ToolName, l.RegistryID, string(l.UsageType)})
	}
	return rows
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 3, 64)
}

// formatMetadata renders filled fields as "field=value" pairs in the
// category's field order.
func formatMetadata(md types.Metadata) string {
	values := md.Values()
	var parts []string
	for _, f := range md.Fields() {
		if v, ok := values[f]; ok && v != "" {
			parts = append(parts, f+"="+v)
		}
	}
	return strings.Join(parts, listSeparator)
}

// Document is the review.json layout. The run ID is left out so the file
// depends only on the mined content.
type Document struct {
	Summary      aggregate.Summary            `json:"summary"`
	Tools        []types.ReviewRecord         `json:"tools"`
	Publications []types.PublicationReviewRow `json:"publications"`
	Removed      []types.RemovedCandidate     `json:"removed"`
}

func writeJSON(path string, res *pipeline.Result, records []types.ReviewRecord) error {
	doc := Document{
		Summary:      res.Summary,
		Tools:        records,
		Publications: res.Rows,
		Removed:      res.Removed,
	}
	if doc.Tools == nil {
		doc.Tools = []types.ReviewRecord{}
	}
	if doc.Publications == nil {
		doc.Publications = []types.PublicationReviewRow{}
	}
	if doc.Removed == nil {
		doc.Removed = []types.RemovedCandidate{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling review document: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// ReadDocument loads a review.json written by WriteAll.
func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading review document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parsing review document %s: %w", path, err)
	}
	return doc, nil
}

// PublicationMap returns the document's publications keyed by ID.
func (d Document) PublicationMap() map[string]types.Publication {
	out := make(map[string]types.Publication, len(d.Publications))
	for _, p := range d.Publications {
		out[p.PublicationID] = types.Publication{ID: p.PublicationID, DOI: p.DOI, Title: p.Title, Year: p.Year}
	}
	return out
}

func writeCSV(path string, rows [][]string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, buf.Bytes())
}

// writeFile replaces path through a temp file in the same directory.
func writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}
