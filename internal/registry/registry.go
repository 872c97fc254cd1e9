// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package registry reads the curated tool registry. Mining only ever reads
// it: a Snapshot is taken once per run and shared read-only by all workers.
package registry

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// Registry returns the curated tools of one category.
type Registry interface {
	Query(ctx context.Context, category types.ToolCategory) ([]types.RegistryTool, error)
}

// Snapshot is an immutable copy of the registry taken at run start.
type Snapshot struct {
	tools map[types.ToolCategory][]types.RegistryTool
}

// NewSnapshot builds a snapshot from tools. Tools are ordered by ID within
// each category.
func NewSnapshot(tools []types.RegistryTool) *Snapshot {
	s := &Snapshot{tools: make(map[types.ToolCategory][]types.RegistryTool)}
	for _, t := range tools {
		s.tools[t.Category] = append(s.tools[t.Category], t)
	}
	for cat := range s.tools {
		ts := s.tools[cat]
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].ID < ts[j].ID })
	}
	return s
}

// LoadSnapshot queries every category of reg.
func LoadSnapshot(ctx context.Context, reg Registry) (*Snapshot, error) {
	var all []types.RegistryTool
	for _, cat := range types.AllCategories {
		tools, err := reg.Query(ctx, cat)
		if err != nil {
			return nil, fmt.Errorf("querying registry for %s: %w", cat, err)
		}
		all = append(all, tools...)
	}
	return NewSnapshot(all), nil
}

// Tools returns the tools of one category ordered by ID.
func (s *Snapshot) Tools(c types.ToolCategory) []types.RegistryTool {
	if s == nil {
		return nil
	}
	return s.tools[c]
}

// All returns every tool, by category order then ID.
func (s *Snapshot) All() []types.RegistryTool {
	if s == nil {
		return nil
	}
	var out []types.RegistryTool
	for _, cat := range types.AllCategories {
		out = append(out, s.tools[cat]...)
	}
	return out
}

// Len returns the number of tools in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, ts := range s.tools {
		n += len(ts)
	}
	return n
}

// Names maps every name and synonym in the category to its registry ID.
// When two tools share a surface form the lower ID wins.
func (s *Snapshot) Names(c types.ToolCategory) map[string]string {
	out := make(map[string]string)
	for _, t := range s.Tools(c) {
		for _, n := range append([]string{t.Name}, t.Synonyms...) {
			if _, ok := out[n]; !ok && n != "" {
				out[n] = t.ID
			}
		}
	}
	return out
}

// registryFile is the YAML layout shared by FileRegistry and Store.Import.
type registryFile struct {
	Tools []types.RegistryTool `yaml:"tools"`
}

// LoadYAML reads and validates a registry YAML file.
func LoadYAML(path string) ([]types.RegistryTool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry file %s: %w", path, err)
	}
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing registry file %s: %w", path, err)
	}
	seen := make(map[string]bool, len(f.Tools))
	for i, t := range f.Tools {
		if t.ID == "" || t.Name == "" {
			return nil, fmt.Errorf("registry file %s: tool %d: id and name are required", path, i)
		}
		if !t.Category.Valid() {
			return nil, fmt.Errorf("registry file %s: tool %s: %w: %q", path, t.ID, types.ErrInvalidCategory, t.Category)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("registry file %s: duplicate tool id %s", path, t.ID)
		}
		seen[t.ID] = true
	}
	return f.Tools, nil
}

// FileRegistry serves a registry from a YAML file read once at open.
type FileRegistry struct {
	snap *Snapshot
}

// OpenFile loads a FileRegistry from path.
func OpenFile(path string) (*FileRegistry, error) {
	tools, err := LoadYAML(path)
	if err != nil {
		return nil, err
	}
	return &FileRegistry{snap: NewSnapshot(tools)}, nil
}

// Query returns the tools of one category ordered by ID.
func (f *FileRegistry) Query(_ context.Context, category types.ToolCategory) ([]types.RegistryTool, error) {
	return append([]types.RegistryTool(nil), f.snap.Tools(category)...), nil
}
