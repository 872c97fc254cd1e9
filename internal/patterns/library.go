// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package patterns builds the read-only pattern library the matcher scans
// with: known names and synonyms per category, alias expansions, discovery
// regexes, and the exclusion list. The library is loaded once per run and
// shared by all workers.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/tool-miner/internal/fuzzy"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// Pattern is one surface form of a known tool name.
type Pattern struct {
	Category types.ToolCategory

	// Canonical is the display name every surface form of the tool maps to.
	Canonical string
	Surface   string

	// RegistryID is set when the name came from the registry snapshot.
	RegistryID string
}

// Regex is a compiled discovery pattern.
type Regex struct {
	Category   types.ToolCategory
	Re         *regexp.Regexp
	Confidence float64
}

// Library is safe for concurrent reads.
type Library struct {
	cfg         Config
	patterns    map[types.ToolCategory][]Pattern
	regexes     map[types.ToolCategory][]Regex
	exclusions  map[string]bool
	established map[string]bool
	aliases     map[string][]string
}

// NewLibrary merges the static configuration with registry names and
// synonyms. Registry tools with an invalid category are rejected.
func NewLibrary(cfg Config, tools []types.RegistryTool) (*Library, error) {
	lib := &Library{
		cfg:         cfg,
		patterns:    make(map[types.ToolCategory][]Pattern),
		regexes:     make(map[types.ToolCategory][]Regex),
		exclusions:  normalizedSet(cfg.Exclusions),
		established: normalizedSet(cfg.EstablishedTools),
		aliases:     make(map[string][]string),
	}
	for canonical, variants := range cfg.Aliases {
		key := fuzzy.Normalize(canonical)
		lib.aliases[key] = append(lib.aliases[key], variants...)
	}

	seen := make(map[types.ToolCategory]map[string]bool)
	add := func(p Pattern) {
		if p.Surface == "" || lib.IsExcluded(p.Surface) {
			return
		}
		if seen[p.Category] == nil {
			seen[p.Category] = make(map[string]bool)
		}
		key := fuzzy.Normalize(p.Surface)
		if seen[p.Category][key] {
			return
		}
		seen[p.Category][key] = true
		lib.patterns[p.Category] = append(lib.patterns[p.Category], p)
	}
	addAll := func(cat types.ToolCategory, canonical, registryID string, synonyms []string) {
		forms := append([]string{canonical}, synonyms...)
		for _, f := range forms {
			add(Pattern{Category: cat, Canonical: canonical, Surface: f, RegistryID: registryID})
			for _, v := range lib.aliases[fuzzy.Normalize(f)] {
				add(Pattern{Category: cat, Canonical: canonical, Surface: v, RegistryID: registryID})
			}
		}
	}

	for _, cat := range types.AllCategories {
		cc := cfg.Categories[cat]
		for _, n := range cc.Names {
			addAll(cat, n.Name, "", n.Synonyms)
		}
		for _, rc := range cc.Regexes {
			re, err := regexp.Compile(rc.Pattern)
			if err != nil {
				return nil, fmt.Errorf("category %s: compiling %q: %w", cat, rc.Pattern, err)
			}
			lib.regexes[cat] = append(lib.regexes[cat], Regex{Category: cat, Re: re, Confidence: rc.Confidence})
		}
	}

	sorted := append([]types.RegistryTool(nil), tools...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, t := range sorted {
		if !t.Category.Valid() {
			return nil, fmt.Errorf("registry tool %s: %w: %q", t.ID, types.ErrInvalidCategory, t.Category)
		}
		addAll(t.Category, t.Name, t.ID, t.Synonyms)
	}

	// Longer surfaces first so the matcher claims "GraphPad Prism" before "Prism".
	for cat := range lib.patterns {
		ps := lib.patterns[cat]
		sort.SliceStable(ps, func(i, j int) bool { return len(ps[i].Surface) > len(ps[j].Surface) })
	}
	return lib, nil
}

func normalizedSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[fuzzy.Normalize(it)] = true
	}
	return set
}

// Version is the configuration version string recorded with each run.
func (l *Library) Version() string { return l.cfg.Version }

// Config returns the configuration the library was built from.
func (l *Library) Config() Config { return l.cfg }

// Patterns returns the surface forms for a category, longest first.
func (l *Library) Patterns(c types.ToolCategory) []Pattern { return l.patterns[c] }

// Regexes returns the discovery regexes for a category.
func (l *Library) Regexes(c types.ToolCategory) []Regex { return l.regexes[c] }

// Settings returns the category's matching settings.
func (l *Library) Settings(c types.ToolCategory) CategoryConfig { return l.cfg.Categories[c] }

// IsExcluded reports whether name is on the exclusion list.
func (l *Library) IsExcluded(name string) bool {
	return l.exclusions[fuzzy.Normalize(name)]
}

// IsEstablished reports whether name is a widely established tool.
func (l *Library) IsEstablished(name string) bool {
	return l.established[fuzzy.Normalize(name)]
}

// HasStopFragment reports whether a discovered name describes a condition
// rather than naming a tool.
func (l *Library) HasStopFragment(name string) bool {
	n := fuzzy.Normalize(name)
	for _, f := range l.cfg.Vocabulary.NameStopFragments {
		if strings.Contains(n, fuzzy.Normalize(f)) {
			return true
		}
	}
	return false
}

// Vendors returns the configured vendor names.
func (l *Library) Vendors() []string { return l.cfg.Vendors }

// Domain returns the domain vocabulary.
func (l *Library) Domain() Domain { return l.cfg.Domain }

// Vocabulary returns the filter vocabulary.
func (l *Library) Vocabulary() Vocabulary { return l.cfg.Vocabulary }
