// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup groups kept candidates under a canonical key and merges each
// group into one review record.
package dedup

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/tool-miner/internal/fuzzy"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// trailingVersion matches a version token at the end of a software name,
// e.g. "imagej v1.53k", "seurat version 4", "samtools 1.17". A bare integer
// is kept so "bowtie 2" stays distinct from "bowtie".
var trailingVersion = regexp.MustCompile(`\s+\(?(?:v\.?\s?\d+(?:\.\d+)*|version\s?\d+(?:\.\d+)*|\d+(?:\.\d+)+)[a-z]?\)?$`)

// Token sequences stripped from the ends of names, longest first.
var (
	trailingSuffixes = map[types.ToolCategory][][]string{
		types.CategoryCellLine:            {{"cell", "lines"}, {"cell", "line"}, {"cells"}, {"cell"}},
		types.CategoryAnimalModel:         {{"mice"}, {"mouse"}, {"rats"}, {"rat"}},
		types.CategoryPatientDerivedModel: {{"models"}, {"model"}, {"pdx"}, {"pdox"}},
		types.CategoryAntibody:            {{"antibodies"}, {"antibody"}},
		types.CategoryGeneticReagent:      {{"plasmid"}, {"vector"}, {"construct"}},
		types.CategoryComputationalTool:   {{"r", "package"}, {"python", "package"}, {"bioconductor", "package"}, {"software", "package"}, {"software"}, {"package"}, {"toolbox"}},
	}
	leadingPrefixes = map[types.ToolCategory][][]string{
		types.CategoryPatientDerivedModel: {{"pdx"}, {"pdox"}},
	}
)

// CanonicalKey returns the grouping key for name within category: NFKC,
// lowercased, category suffixes stripped, then reduced to letters and digits.
// Keys never cross categories because callers always pair them with one.
func CanonicalKey(category types.ToolCategory, name string) string {
	s := fuzzy.Normalize(name)
	if category == types.CategoryComputationalTool {
		s = trailingVersion.ReplaceAllString(s, "")
	}

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens = stripEnds(tokens, trailingSuffixes[category], leadingPrefixes[category])
	return strings.Join(tokens, "")
}

// stripEnds removes matching token sequences from the end and the start of
// tokens until none match. At least one token is always left.
func stripEnds(tokens []string, suffixes, prefixes [][]string) []string {
	for changed := true; changed; {
		changed = false
		for _, suf := range suffixes {
			if len(tokens) > len(suf) && equalTokens(tokens[len(tokens)-len(suf):], suf) {
				tokens = tokens[:len(tokens)-len(suf)]
				changed = true
				break
			}
		}
		for _, pre := range prefixes {
			if len(tokens) > len(pre) && equalTokens(tokens[:len(pre)], pre) {
				tokens = tokens[len(pre):]
				changed = true
				break
			}
		}
	}
	return tokens
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
