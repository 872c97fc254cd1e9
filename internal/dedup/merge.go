// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"sort"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// Group is the set of candidates sharing one (category, canonical key).
type Group struct {
	Category types.ToolCategory
	Key      string
	Members  []types.ToolCandidate
}

// GroupCandidates buckets candidates by category and canonical key. Members
// are ordered by rank (see better) so Members[0] is the base candidate.
// Groups are returned sorted by category order, then key.
func GroupCandidates(cands []types.ToolCandidate) []Group {
	byKey := make(map[string]*Group)
	var order []string
	for _, c := range cands {
		key := CanonicalKey(c.Category, c.RawText)
		if key == "" {
			continue
		}
		id := string(c.Category) + "\x00" + key
		g, ok := byKey[id]
		if !ok {
			g = &Group{Category: c.Category, Key: key}
			byKey[id] = g
			order = append(order, id)
		}
		g.Members = append(g.Members, c)
	}

	groups := make([]Group, 0, len(order))
	for _, id := range order {
		g := byKey[id]
		sort.SliceStable(g.Members, func(i, j int) bool { return better(g.Members[i], g.Members[j]) })
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if oi, oj := groups[i].Category.Order(), groups[j].Category.Order(); oi != oj {
			return oi < oj
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// better reports whether a outranks b as a group's base record: higher
// confidence, then usage type priority, then publication ID, then raw text.
func better(a, b types.ToolCandidate) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if ra, rb := a.UsageType.Rank(), b.UsageType.Rank(); ra != rb {
		return ra < rb
	}
	if a.PublicationID != b.PublicationID {
		return a.PublicationID < b.PublicationID
	}
	return a.RawText < b.RawText
}

// Merge produces exactly one review record per (category, canonical key).
// pubs supplies bibliographic provenance; publications missing from it
// contribute only their identifier. Priority fields are left for the scorer.
func Merge(cands []types.ToolCandidate, pubs map[string]types.Publication) []types.ReviewRecord {
	groups := GroupCandidates(cands)
	out := make([]types.ReviewRecord, 0, len(groups))
	for _, g := range groups {
		out = append(out, mergeGroup(g, pubs))
	}
	return out
}

func mergeGroup(g Group, pubs map[string]types.Publication) types.ReviewRecord {
	base := g.Members[0]
	rec := types.ReviewRecord{
		Name:         base.RawText,
		Category:     g.Category,
		CanonicalKey: g.Key,
		RegistryID:   types.NovelID,
		UsageType:    base.UsageType,
		Confidence:   base.Confidence,
		Metadata:     types.NewMetadata(g.Category),
		MemberCount:  len(g.Members),
		Validation:   base.Validation,
	}

	for _, m := range g.Members {
		if m.Resolution.Status == types.StatusExisting && m.Resolution.RegistryID != "" {
			rec.RegistryID = m.Resolution.RegistryID
			break
		}
	}

	var ps provenance
	for _, m := range g.Members {
		ps.pubIDs.add(m.PublicationID)
		if p, ok := pubs[m.PublicationID]; ok {
			ps.dois.add(p.DOI)
			ps.titles.add(p.Title)
			ps.years.add(p.Year)
		}
		ps.contexts.add(m.Context)
		for _, s := range m.SourceSections {
			ps.sections.add(string(s))
		}
	}
	rec.PublicationIDs = ps.pubIDs.items
	rec.DOIs = ps.dois.items
	rec.Titles = ps.titles.items
	rec.Years = ps.years.items
	rec.Contexts = ps.contexts.items
	rec.Sections = ps.sections.items

	// Each field comes from the member whose value was found in the
	// highest-priority section; members are in rank order so ties go to
	// the better candidate.
	for _, field := range rec.Metadata.Fields() {
		best := -1
		for _, m := range g.Members {
			v, ok := m.Metadata.Get(field)
			if !ok {
				continue
			}
			src := m.Metadata.Source(field)
			if p := types.SectionPriority(types.SectionKind(src)); p > best {
				best = p
				rec.Metadata.Override(field, v, src)
			}
		}
	}
	return rec
}

type provenance struct {
	pubIDs, dois, titles, years, contexts, sections orderedSet
}

// orderedSet is an insertion-ordered, duplicate-free list of non-empty strings.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(v string) {
	if v == "" {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return
	}
	s.seen[v] = true
	s.items = append(s.items, v)
}
