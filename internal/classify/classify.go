// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify labels each candidate's relationship to its publication:
// Development, Experimental Usage, or Citation Only. It scores weighted
// indicator families over the text windows around every occurrence.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// DefaultWindow is the context radius in characters around each occurrence.
const DefaultWindow = 200

// DefaultMinDevelopmentWeight is the development score needed for Development.
const DefaultMinDevelopmentWeight = 1.0

// indicator is one weighted phrase pattern.
type indicator struct {
	name   string
	re     *regexp.Regexp
	weight float64
}

var developmentIndicators = []indicator{
	{"we developed", regexp.MustCompile(`(?i)\bwe (?:have )?(?:developed|created|designed|generated|engineered|established|constructed|built|derived)\b`), 1.0},
	{"newly generated", regexp.MustCompile(`(?i)\bnewly (?:generated|established|developed|derived|created)\b`), 1.0},
	{"here we present", regexp.MustCompile(`(?i)\bhere,? we (?:describe|present|report|introduce)\b`), 1.0},
	{"developed in this study", regexp.MustCompile(`(?i)\b(?:was|were) (?:developed|generated|established|engineered|created) (?:in this study|here|by our (?:group|laboratory|lab))\b`), 1.0},
	{"novel", regexp.MustCompile(`(?i)\bnovel\b`), 0.5},
}

var weakUsageIndicators = []indicator{
	{"was used", regexp.MustCompile(`(?i)\b(?:was|were) used\b`), 0.5},
	{"using", regexp.MustCompile(`(?i)\busing\b`), 0.5},
	{"employed", regexp.MustCompile(`(?i)\b(?:employed|utili[sz]ed)\b`), 0.5},
	{"analysed with", regexp.MustCompile(`(?i)\b(?:analy[sz]ed|quantified|processed|performed|measured|aligned|stained|transfected|transduced|infected|treated|cultured|maintained|incubated|immunoblotted|hybridi[sz]ed) (?:with|using|in|by)\b`), 0.5},
}

var strongUsageIndicators = []indicator{
	{"obtained from", regexp.MustCompile(`(?i)\b(?:obtained|purchased|acquired|bought|sourced) from\b`), 1.0},
	{"provided by", regexp.MustCompile(`(?i)\b(?:provided|donated|supplied|shared) by\b`), 1.0},
	{"gift", regexp.MustCompile(`(?i)\bgifts? (?:from|of)\b`), 1.0},
	{"catalog number", regexp.MustCompile(`(?i)(?:\bcat(?:alog(?:ue)?)?\.?\s*(?:no\.?|number|#)|\bRRID:)`), 1.0},
	{"version", VersionRe, 1.0},
}

var citationMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\[\d+(?:\s?[,–-]\s?\d+)*\]`),
	regexp.MustCompile(`\bet al\.`),
	regexp.MustCompile(`\([A-Z][A-Za-z'\-]+(?: et al\.?| and [A-Z][A-Za-z'\-]+)?,? (?:19|20)\d{2}[a-z]?\)`),
}

// VersionRe matches explicit software version strings such as v1.53k or version 2.1.
var VersionRe = regexp.MustCompile(`(?i)\b(?:v|version\s?)(\d+(?:\.\d+){1,3}[a-z]?)\b`)

// RepositoryRe matches code repository and archive URLs.
var RepositoryRe = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:github\.com|gitlab\.com|bitbucket\.org|sourceforge\.net|zenodo\.org|bioconductor\.org|cran\.r-project\.org|pypi\.org)/[^\s,;)\]]+`)

// HasUsageKeyword reports whether text contains any usage-family phrase.
func HasUsageKeyword(text string) bool {
	for _, group := range [][]indicator{weakUsageIndicators, strongUsageIndicators[:3]} {
		for _, ind := range group {
			if ind.re.MatchString(text) {
				return true
			}
		}
	}
	return false
}

// Classification is the usage decision with the evidence behind it.
type Classification struct {
	Usage             types.UsageType
	DevelopmentWeight float64
	UsageWeight       float64
	StrongUsage       bool
	Citation          bool
	Evidence          []string
}

// Classifier is safe for concurrent use.
type Classifier struct {
	lib      *patterns.Library
	minDev   float64
	vendorRe *regexp.Regexp
}

// New builds a Classifier. A non-positive minDev selects the default.
func New(lib *patterns.Library, minDev float64) *Classifier {
	if minDev <= 0 {
		minDev = DefaultMinDevelopmentWeight
	}
	c := &Classifier{lib: lib, minDev: minDev}
	if vendors := lib.Vendors(); len(vendors) > 0 {
		quoted := make([]string, len(vendors))
		for i, v := range vendors {
			quoted[i] = regexp.QuoteMeta(v)
		}
		// Longest first so "Cell Signaling Technology" wins over "Cell Signaling".
		sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
		c.vendorRe = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return c
}

// VendorIn returns the first vendor named in text.
func (c *Classifier) VendorIn(text string) (string, bool) {
	if c.vendorRe == nil {
		return "", false
	}
	v := c.vendorRe.FindString(text)
	return v, v != ""
}

// Classify decides the usage type of cand from the snippets around its
// occurrences. Established tools are never Development. Any strong usage
// signal (a vendor, a version, a catalog number, "obtained from") forces
// Experimental Usage.
func (c *Classifier) Classify(cand *types.ToolCandidate, snippets []types.Snippet) Classification {
	var cl Classification
	seen := make(map[string]bool)
	note := func(name string) {
		if !seen[name] {
			seen[name] = true
			cl.Evidence = append(cl.Evidence, name)
		}
	}

	for _, sn := range snippets {
		text := sn.Text
		for _, ind := range developmentIndicators {
			if ind.re.MatchString(text) {
				cl.DevelopmentWeight += ind.weight
				note(ind.name)
			}
		}
		for _, ind := range weakUsageIndicators {
			if ind.re.MatchString(text) {
				cl.UsageWeight += ind.weight
				note(ind.name)
			}
		}
		for _, ind := range strongUsageIndicators {
			if ind.re.MatchString(text) {
				cl.UsageWeight += ind.weight
				cl.StrongUsage = true
				note(ind.name)
			}
		}
		if v, ok := c.VendorIn(text); ok {
			cl.UsageWeight++
			cl.StrongUsage = true
			note("vendor " + v)
		}
		for _, re := range citationMarkers {
			if re.MatchString(text) {
				cl.Citation = true
				note("citation marker")
				break
			}
		}
	}

	established := c.lib.IsEstablished(cand.RawText)
	if established {
		note("established tool")
	}

	inMethods := cand.HasSection(types.SectionMethods)
	inResults := cand.HasSection(types.SectionResults)

	switch {
	case cl.StrongUsage:
		cl.Usage = types.UsageExperimental
	case !established && cl.DevelopmentWeight >= c.minDev && cl.UsageWeight == 0:
		cl.Usage = types.UsageDevelopment
	case cl.UsageWeight > 0:
		cl.Usage = types.UsageExperimental
	case !inMethods && !inResults && cl.Citation:
		cl.Usage = types.UsageCitationOnly
	default:
		cl.Usage = types.UsageExperimental
	}
	return cl
}
