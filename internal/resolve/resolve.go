// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve decides whether a candidate names a tool already in the
// registry snapshot or a novel one.
package resolve

import (
	"sort"

	"github.com/pdiddy/tool-miner/internal/dedup"
	"github.com/pdiddy/tool-miner/internal/fuzzy"
	"github.com/pdiddy/tool-miner/internal/registry"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// DefaultThreshold applies to categories without a configured threshold.
const DefaultThreshold = 0.85

type entry struct {
	id      string
	surface string
	norm    string
}

// Resolver is read-only after construction and safe for concurrent use.
type Resolver struct {
	thresholds map[types.ToolCategory]float64
	byKey      map[types.ToolCategory]map[string]entry
	byName     map[types.ToolCategory]map[string]entry
	entries    map[types.ToolCategory][]entry
}

// New indexes the snapshot per category. thresholds holds the fuzzy
// acceptance ratio per category.
func New(snap *registry.Snapshot, thresholds map[types.ToolCategory]float64) *Resolver {
	r := &Resolver{
		thresholds: thresholds,
		byKey:      make(map[types.ToolCategory]map[string]entry),
		byName:     make(map[types.ToolCategory]map[string]entry),
		entries:    make(map[types.ToolCategory][]entry),
	}
	for _, cat := range types.AllCategories {
		keys := make(map[string]entry)
		names := make(map[string]entry)
		// Snapshot tools are ordered by ID, so the first writer is the lowest ID.
		for _, t := range snap.Tools(cat) {
			for _, s := range append([]string{t.Name}, t.Synonyms...) {
				e := entry{id: t.ID, surface: t.Name, norm: fuzzy.Normalize(s)}
				if e.norm == "" {
					continue
				}
				if k := dedup.CanonicalKey(cat, s); k != "" {
					if _, ok := keys[k]; !ok {
						keys[k] = e
					}
				}
				if _, ok := names[e.norm]; !ok {
					names[e.norm] = e
				}
				r.entries[cat] = append(r.entries[cat], e)
			}
		}
		r.byKey[cat] = keys
		r.byName[cat] = names
	}
	return r
}

func (r *Resolver) threshold(c types.ToolCategory) float64 {
	if t, ok := r.thresholds[c]; ok && t > 0 {
		return t
	}
	return DefaultThreshold
}

// Resolve looks name up in category: canonical key first, then exact
// case-insensitive name, then the best fuzzy ratio at or above the
// category threshold. Ties go to the lower registry ID.
func (r *Resolver) Resolve(category types.ToolCategory, name string) types.Resolution {
	if e, ok := r.byKey[category][dedup.CanonicalKey(category, name)]; ok {
		return types.Resolution{Status: types.StatusExisting, RegistryID: e.id, MatchedName: e.surface, Score: 1}
	}
	norm := fuzzy.Normalize(name)
	if e, ok := r.byName[category][norm]; ok {
		return types.Resolution{Status: types.StatusExisting, RegistryID: e.id, MatchedName: e.surface, Score: 1}
	}

	var (
		best      entry
		bestScore float64
		found     bool
	)
	cutoff := r.threshold(category)
	for _, e := range r.entries[category] {
		score := fuzzy.Ratio(norm, e.norm)
		if score < cutoff {
			continue
		}
		if !found || score > bestScore || (score == bestScore && e.id < best.id) {
			best, bestScore, found = e, score, true
		}
	}
	if found {
		return types.Resolution{Status: types.StatusExisting, RegistryID: best.id, MatchedName: best.surface, Score: bestScore}
	}
	return types.Resolution{Status: types.StatusNovel}
}

// Result collects the existing and novel names of a resolution pass.
type Result struct {
	// Existing maps category -> candidate name -> registry ID.
	Existing map[types.ToolCategory]map[string]string

	// Novel holds the sorted, duplicate-free novel names per category.
	Novel map[types.ToolCategory][]string
}

// ResolveAll sets the Resolution of every candidate in place and returns
// the aggregated result.
func (r *Resolver) ResolveAll(cands []types.ToolCandidate) Result {
	res := Result{
		Existing: make(map[types.ToolCategory]map[string]string),
		Novel:    make(map[types.ToolCategory][]string),
	}
	novel := make(map[types.ToolCategory]map[string]bool)
	for i := range cands {
		c := &cands[i]
		c.Resolution = r.Resolve(c.Category, c.RawText)
		if c.Resolution.Status == types.StatusExisting {
			if res.Existing[c.Category] == nil {
				res.Existing[c.Category] = make(map[string]string)
			}
			res.Existing[c.Category][c.RawText] = c.Resolution.RegistryID
			continue
		}
		if novel[c.Category] == nil {
			novel[c.Category] = make(map[string]bool)
		}
		if !novel[c.Category][c.RawText] {
			novel[c.Category][c.RawText] = true
			res.Novel[c.Category] = append(res.Novel[c.Category], c.RawText)
		}
	}
	for cat := range res.Novel {
		sort.Strings(res.Novel[cat])
	}
	return res
}
