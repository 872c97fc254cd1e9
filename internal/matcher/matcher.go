// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package matcher scans publication sections for tool mentions. Each
// category is scanned three ways: exact surface forms, fuzzy windows for
// misspelled forms, and discovery regexes for names no list enumerates.
package matcher

import (
	"crypto/sha256"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/tool-miner/internal/classify"
	"github.com/pdiddy/tool-miner/internal/fuzzy"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// Confidence bonuses for contextual signals near an occurrence.
const (
	bonusVersion    = 0.05
	bonusRepository = 0.05
	bonusUsage      = 0.05
	bonusMethods    = 0.05
)

// Matcher is safe for concurrent use.
type Matcher struct {
	lib    *patterns.Library
	window int
}

// New returns a Matcher with the given context radius. A non-positive
// window selects classify.DefaultWindow.
func New(lib *patterns.Library, window int) *Matcher {
	if window <= 0 {
		window = classify.DefaultWindow
	}
	return &Matcher{lib: lib, window: window}
}

// Window returns the context radius.
func (m *Matcher) Window() int { return m.window }

type span struct{ start, end int }

func overlaps(spans []span, s, e int) bool {
	for _, sp := range spans {
		if s < sp.end && sp.start < e {
			return true
		}
	}
	return false
}

// hit is one raw detection before merging.
type hit struct {
	category   types.ToolCategory
	name       string
	kind       types.MatchKind
	base       float64
	similarity float64
	occ        types.Occurrence
}

// Match returns one candidate per (category, normalised name) found in secs.
// Candidates carry occurrences in every section they appear in, a context
// snippet, and a confidence adjusted by the signals around them. Usage,
// metadata, and resolution are left for later stages.
func (m *Matcher) Match(pubID string, secs []types.Section) []types.ToolCandidate {
	texts := make(map[types.SectionKind]string, len(secs))
	var hits []hit
	for _, sec := range secs {
		texts[sec.Kind] = sec.Text
		for _, cat := range types.AllCategories {
			hits = append(hits, m.scan(sec, cat)...)
		}
	}
	return m.merge(pubID, hits, texts)
}

// scan finds all hits for one category in one section. Exact hits claim
// their spans first; fuzzy and regex hits may not overlap a claimed span.
func (m *Matcher) scan(sec types.Section, cat types.ToolCategory) []hit {
	text := sec.Text
	lower := foldASCII(text)
	settings := m.lib.Settings(cat)

	var (
		hits    []hit
		claimed []span
		found   = make(map[string]bool)
	)

	for _, p := range m.lib.Patterns(cat) {
		needle := foldASCII(p.Surface)
		for from := 0; from < len(lower); {
			i := strings.Index(lower[from:], needle)
			if i < 0 {
				break
			}
			s, e := from+i, from+i+len(needle)
			from = s + 1
			if !fuzzy.AtBoundary(text, s, e) || overlaps(claimed, s, e) {
				continue
			}
			claimed = append(claimed, span{s, e})
			found[p.Canonical] = true
			hits = append(hits, hit{
				category: cat, name: p.Canonical, kind: types.MatchExact,
				base: settings.BaseConfidence, similarity: 1,
				occ: types.Occurrence{Section: sec.Kind, Start: s, End: e},
			})
		}
	}

	starts := fuzzy.WordStarts(text)
	for _, p := range m.lib.Patterns(cat) {
		n := utf8.RuneCountInString(p.Surface)
		if found[p.Canonical] || n < settings.MinFuzzyLength {
			continue
		}
		best, bs, be := 0.0, -1, -1
		first, _ := utf8.DecodeRuneInString(foldASCII(p.Surface))
		for _, s := range starts {
			r, _ := utf8.DecodeRuneInString(lower[s:])
			if r != first {
				continue
			}
			for _, width := range []int{n - 1, n, n + 1} {
				e := runeOffset(text, s, width)
				if e < 0 || !fuzzy.AtBoundary(text, s, e) || overlaps(claimed, s, e) {
					continue
				}
				if ratio := fuzzy.Ratio(text[s:e], p.Surface); ratio >= settings.FuzzyThreshold && ratio > best {
					best, bs, be = ratio, s, e
				}
			}
		}
		if bs < 0 || m.lib.IsExcluded(text[bs:be]) {
			continue
		}
		claimed = append(claimed, span{bs, be})
		found[p.Canonical] = true
		hits = append(hits, hit{
			category: cat, name: p.Canonical, kind: types.MatchFuzzy,
			base: settings.BaseConfidence * best, similarity: best,
			occ: types.Occurrence{Section: sec.Kind, Start: bs, End: be},
		})
	}

	for _, rx := range m.lib.Regexes(cat) {
		for _, loc := range rx.Re.FindAllStringSubmatchIndex(text, -1) {
			s, e := loc[0], loc[1]
			if len(loc) >= 4 && loc[2] >= 0 {
				s, e = loc[2], loc[3]
			}
			name := strings.TrimSpace(text[s:e])
			if name == "" || overlaps(claimed, s, e) || m.lib.IsExcluded(name) || m.lib.HasStopFragment(name) {
				continue
			}
			claimed = append(claimed, span{s, e})
			hits = append(hits, hit{
				category: cat, name: name, kind: types.MatchRegex,
				base: rx.Confidence, similarity: 1,
				occ: types.Occurrence{Section: sec.Kind, Start: s, End: e},
			})
		}
	}

	return hits
}

// merge folds hits into candidates keyed by category and normalised name.
// The strongest detection path decides the base confidence.
func (m *Matcher) merge(pubID string, hits []hit, texts map[types.SectionKind]string) []types.ToolCandidate {
	type acc struct {
		cand *types.ToolCandidate
		base float64
	}
	byKey := make(map[string]*acc)
	var order []string

	for _, h := range hits {
		key := string(h.category) + "\x00" + fuzzy.Normalize(h.name)
		a, ok := byKey[key]
		if !ok {
			a = &acc{cand: &types.ToolCandidate{
				ID:            StableID(pubID, h.category, h.name),
				PublicationID: pubID,
				Category:      h.category,
				RawText:       h.name,
				MatchKind:     h.kind,
				Similarity:    h.similarity,
				Metadata:      types.NewMetadata(h.category),
			}}
			byKey[key] = a
			order = append(order, key)
		}
		c := a.cand
		c.Occurrences = append(c.Occurrences, h.occ)
		if !c.HasSection(h.occ.Section) {
			c.SourceSections = append(c.SourceSections, h.occ.Section)
		}
		if h.base > a.base {
			a.base = h.base
			c.MatchKind = h.kind
			c.Similarity = h.similarity
		}
	}

	out := make([]types.ToolCandidate, 0, len(order))
	for _, key := range order {
		a := byKey[key]
		c := a.cand
		snippets := Snippets(c, texts, m.window)
		c.Context = primaryContext(c, texts, m.window)
		c.Confidence = adjust(a.base, c, snippets)
		out = append(out, *c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if oi, oj := out[i].Category.Order(), out[j].Category.Order(); oi != oj {
			return oi < oj
		}
		return fuzzy.Normalize(out[i].RawText) < fuzzy.Normalize(out[j].RawText)
	})
	return out
}

// adjust applies signal bonuses to base and caps the result at 1.
func adjust(base float64, c *types.ToolCandidate, snippets []types.Snippet) float64 {
	var version, repo, usage bool
	for _, sn := range snippets {
		version = version || classify.VersionRe.MatchString(sn.Text)
		repo = repo || classify.RepositoryRe.MatchString(sn.Text)
		usage = usage || classify.HasUsageKeyword(sn.Text)
	}
	conf := base
	if version {
		conf += bonusVersion
	}
	if repo {
		conf += bonusRepository
	}
	if usage {
		conf += bonusUsage
	}
	if c.HasSection(types.SectionMethods) {
		conf += bonusMethods
	}
	return math.Min(1, math.Round(conf*1000)/1000)
}

// Snippets returns the text window around every occurrence of c.
func Snippets(c *types.ToolCandidate, texts map[types.SectionKind]string, radius int) []types.Snippet {
	out := make([]types.Snippet, 0, len(c.Occurrences))
	for _, o := range c.Occurrences {
		text, ok := texts[o.Section]
		if !ok || o.End > len(text) {
			continue
		}
		out = append(out, types.Snippet{Section: o.Section, Text: fuzzy.Window(text, o.Start, o.End, radius)})
	}
	return out
}

// primaryContext is the window around the first occurrence in the
// highest-priority section.
func primaryContext(c *types.ToolCandidate, texts map[types.SectionKind]string, radius int) string {
	best := -1
	for i, o := range c.Occurrences {
		if best < 0 || types.SectionPriority(o.Section) > types.SectionPriority(c.Occurrences[best].Section) {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	o := c.Occurrences[best]
	text := texts[o.Section]
	if o.End > len(text) {
		return ""
	}
	return fuzzy.Window(text, o.Start, o.End, radius)
}

// StableID is the first 12 hex characters of SHA-256 over the publication,
// category, and normalised name.
func StableID(pubID string, cat types.ToolCategory, name string) string {
	h := sha256.New()
	h.Write([]byte(pubID))
	h.Write([]byte{0})
	h.Write([]byte(cat))
	h.Write([]byte{0})
	h.Write([]byte(fuzzy.Normalize(name)))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// foldASCII lowercases ASCII letters only, so byte offsets into the result
// are valid offsets into the input.
func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// runeOffset returns the byte offset n runes after start, or -1 if the
// text ends first.
func runeOffset(text string, start, n int) int {
	if n <= 0 {
		return -1
	}
	i := start
	for k := 0; k < n; k++ {
		if i >= len(text) {
			return -1
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return i
}
