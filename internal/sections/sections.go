// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sections splits publication full text into the five recognised
// sections: abstract, introduction, methods, results, and discussion.
//
// Extraction fails soft. Malformed or unrecognised input yields whatever
// sections could be recovered, possibly none, and never an error.
package sections

import (
	"strings"

	"github.com/pdiddy/tool-miner/pkg/types"
)

// headingSynonyms maps each section kind to lowercase heading fragments.
// Kinds are tried in this order, so "Results and Discussion" is results and
// "Materials and Methods" is methods.
var headingSynonyms = []struct {
	kind      types.SectionKind
	fragments []string
}{
	{types.SectionMethods, []string{"method", "experimental procedure", "study design", "experimental section"}},
	{types.SectionResults, []string{"result", "findings"}},
	{types.SectionDiscussion, []string{"discussion", "conclusion", "concluding remarks"}},
	{types.SectionIntroduction, []string{"introduction", "background"}},
	{types.SectionAbstract, []string{"abstract", "summary"}},
}

// Classify maps a heading to a section kind.
func Classify(heading string) (types.SectionKind, bool) {
	h := strings.ToLower(strings.TrimSpace(heading))
	if h == "" {
		return "", false
	}
	for _, syn := range headingSynonyms {
		for _, frag := range syn.fragments {
			if strings.Contains(h, frag) {
				return syn.kind, true
			}
		}
	}
	return "", false
}

// Extract dispatches on the document format.
func Extract(doc types.Document) []types.Section {
	var blocks []block
	switch doc.Format {
	case types.FormatJATS:
		blocks = jatsBlocks(doc.Body)
	case types.FormatHTML:
		blocks = htmlBlocks(doc.Body)
	case types.FormatMarkdown:
		blocks = markdownBlocks(string(doc.Body))
	default:
		return nil
	}
	return assemble(doc.Publication.ID, blocks)
}

// FromAbstract wraps a bare abstract as a one-section list. The result is
// empty when the abstract is too short to count as found.
func FromAbstract(pubID, text string) []types.Section {
	s := types.Section{PublicationID: pubID, Kind: types.SectionAbstract, Text: clean(text)}
	if !s.Found() {
		return nil
	}
	return []types.Section{s}
}

// Only returns the sections whose kind is listed.
func Only(secs []types.Section, kinds ...types.SectionKind) []types.Section {
	var out []types.Section
	for _, s := range secs {
		for _, k := range kinds {
			if s.Kind == k {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// block is a run of text under one heading. kind is set directly by
// formats that carry semantic tags (JATS sec-type, abstract elements).
type block struct {
	heading string
	level   int
	kind    types.SectionKind
	text    string
}

// assemble folds blocks into sections. A heading nested deeper than the
// current section's heading continues that section, so methods subsections
// such as "Cell culture" stay in methods. When several
// blocks land on one kind the longest wins; on equal length the first wins.
func assemble(pubID string, blocks []block) []types.Section {
	best := make(map[types.SectionKind]string)

	var (
		curKind  types.SectionKind
		curLevel int
		buf      []string
	)
	flush := func() {
		if curKind == "" {
			buf = nil
			return
		}
		text := clean(strings.Join(buf, "\n"))
		if len(text) > len(best[curKind]) {
			best[curKind] = text
		}
		buf = nil
	}

	for _, b := range blocks {
		kind := b.kind
		if kind == "" {
			kind, _ = Classify(b.heading)
		}
		switch {
		case curKind != "" && b.level > curLevel:
			buf = append(buf, b.heading, b.text)
		case kind != "":
			flush()
			curKind, curLevel = kind, b.level
			buf = append(buf, b.text)
		default:
			flush()
			curKind, curLevel = "", 0
		}
	}
	flush()

	var out []types.Section
	for _, k := range types.AllSectionKinds {
		s := types.Section{PublicationID: pubID, Kind: k, Text: best[k]}
		if s.Found() {
			out = append(out, s)
		}
	}
	return out
}

// clean collapses whitespace within lines and drops blank lines.
func clean(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}
