// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportEntry is the flattened form of a stored tool for curators.
type ExportEntry struct {
	Name           string            `json:"name" yaml:"name"`
	Category       string            `json:"category" yaml:"category"`
	RegistryID     string            `json:"registry_id" yaml:"registry_id"`
	UsageType      string            `json:"usage_type" yaml:"usage_type"`
	Priority       string            `json:"priority" yaml:"priority"`
	DomainSpecific bool              `json:"domain_specific" yaml:"domain_specific"`
	Confidence     float64           `json:"confidence" yaml:"confidence"`
	PublicationIDs []string          `json:"publication_ids" yaml:"publication_ids"`
	Metadata       map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	RunID          string            `json:"run_id" yaml:"run_id"`
}

const exportLimit = 100000

// ExportYAML writes the matching tools to dir/index/export.yaml and returns
// the path. It supports the same filters as Retrieve.
func (s *Store) ExportYAML(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, indexDir, "export.yaml")
	data, err := yaml.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

// ExportJSON writes the matching tools to dir/index/export.json and returns
// the path. It supports the same filters as Retrieve.
func (s *Store) ExportJSON(ctx context.Context, opts QueryOptions) (string, error) {
	entries, err := s.exportEntries(ctx, opts)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, indexDir, "export.json")
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	return path, os.WriteFile(path, data, 0o644)
}

func (s *Store) exportEntries(ctx context.Context, opts QueryOptions) ([]ExportEntry, error) {
	opts.MaxResults = exportLimit
	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}

	entries := make([]ExportEntry, len(results))
	for i, r := range results {
		md := r.Metadata
		entries[i] = ExportEntry{
			Name:           r.Name,
			Category:       string(r.Category),
			RegistryID:     r.RegistryID,
			UsageType:      string(r.UsageType),
			Priority:       string(r.Priority),
			DomainSpecific: r.DomainSpecific,
			Confidence:     r.Confidence,
			PublicationIDs: r.PublicationIDs,
			RunID:          r.RunID,
		}
		if values := md.Values(); len(values) > 0 {
			entries[i].Metadata = values
		}
	}

	return entries, nil
}
