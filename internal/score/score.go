// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package score assigns curator review priority to merged tool records.
package score

import (
	"strings"
	"unicode"

	"github.com/pdiddy/tool-miner/internal/fuzzy"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// Tier thresholds.
const (
	CompletenessBar  = 2.0 / 3.0
	HighConfidence   = 0.85
	MediumConfidence = 0.80
)

// DomainMatcher reports whether text mentions a domain disease term.
type DomainMatcher interface {
	IsDomainTerm(text string) bool
}

// Scorer is read-only after construction.
type Scorer struct {
	domain DomainMatcher
	genes  map[string]bool
}

// New builds a Scorer from the library's domain gene list.
func New(lib *patterns.Library, domain DomainMatcher) *Scorer {
	s := &Scorer{domain: domain, genes: make(map[string]bool)}
	for _, g := range lib.Domain().Genes {
		s.genes[fuzzy.Normalize(g)] = true
	}
	return s
}

// DomainSpecific reports whether the metadata ties the tool to the domain.
func (s *Scorer) DomainSpecific(md types.Metadata) bool {
	switch md.Category {
	case types.CategoryAnimalModel:
		d, ok := md.Get("disorder")
		return ok && d != types.NoKnownDisease
	case types.CategoryAntibody:
		v, _ := md.Get("target_antigen")
		return s.mentionsGene(v)
	case types.CategoryGeneticReagent:
		v, _ := md.Get("insert")
		return s.mentionsGene(v)
	case types.CategoryComputationalTool:
		v, _ := md.Get("purpose")
		return s.isDomainTerm(v)
	default:
		v, _ := md.Get("disease")
		return s.isDomainTerm(v)
	}
}

func (s *Scorer) isDomainTerm(text string) bool {
	return text != "" && s.domain != nil && s.domain.IsDomainTerm(text)
}

func (s *Scorer) mentionsGene(text string) bool {
	words := strings.FieldsFunc(fuzzy.Normalize(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if s.genes[w] {
			return true
		}
	}
	return false
}

// Tier maps the three signals to a priority.
func Tier(domain bool, completeness, confidence float64) types.Priority {
	complete := completeness >= CompletenessBar
	switch {
	case domain && complete && confidence >= HighConfidence:
		return types.PriorityHigh
	case (domain || complete) && confidence >= MediumConfidence:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

// Score sets the record's domain flag, completeness and priority. It reads
// nothing but the record.
func (s *Scorer) Score(r *types.ReviewRecord) {
	r.DomainSpecific = s.DomainSpecific(r.Metadata)
	r.Completeness = r.Metadata.Completeness()
	r.Priority = Tier(r.DomainSpecific, r.Completeness, r.Confidence)
}

// ScoreAll scores every record in place.
func (s *Scorer) ScoreAll(records []types.ReviewRecord) {
	for i := range records {
		s.Score(&records[i])
	}
}
