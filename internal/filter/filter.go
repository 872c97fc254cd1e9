// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter removes candidates that match known false-positive
// signatures. Every removal names the rule that fired and a reason a curator
// can read. The filter never adds candidates and never changes confidence.
package filter

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/tool-miner/internal/fuzzy"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// Rule identifiers recorded on removed candidates.
const (
	RuleExcludedTerm           = "excluded-term"
	RuleUnidentifiableSoftware = "unidentifiable-software"
	RuleSecondaryAntibody      = "secondary-antibody"
	RuleWildtypeControl        = "wildtype-control"
	RuleDrugCompound           = "drug-compound"
	RuleConsumable             = "consumable"
	RuleGenericPDX             = "generic-pdx"
	RuleClinicalHardware       = "clinical-hardware"
	RuleClinicalKit            = "clinical-kit"
	RuleClinicalNonSpecific    = "clinical-non-specific"
	RuleValidationRemove       = "validation-remove"
)

// SoftwareConfidenceFloor is the confidence below which software with no
// version and no repository is dropped.
const SoftwareConfidenceFloor = 0.85

// DomainMatcher reports whether text mentions a domain disease term.
type DomainMatcher interface {
	IsDomainTerm(text string) bool
}

// Filter is read-only after construction and safe for concurrent use.
type Filter struct {
	lib    *patterns.Library
	domain DomainMatcher

	drugNames map[string]bool
	suffixes  []string
	vocab     patterns.Vocabulary
}

// New builds a Filter. domain may be nil, in which case no name counts as
// disease specific.
func New(lib *patterns.Library, domain DomainMatcher) *Filter {
	v := lib.Vocabulary()
	f := &Filter{lib: lib, domain: domain, vocab: v, drugNames: make(map[string]bool)}
	for _, d := range v.DrugNames {
		f.drugNames[fuzzy.Normalize(d)] = true
	}
	for _, s := range v.DrugSuffixes {
		f.suffixes = append(f.suffixes, strings.ToLower(s))
	}
	return f
}

// Verdict is the outcome of checking one candidate.
type Verdict struct {
	Rule   string
	Reason string
}

// Check returns the first rule c violates. ok is false when c is kept.
func (f *Filter) Check(c *types.ToolCandidate) (Verdict, bool) {
	if f.lib.IsExcluded(c.RawText) {
		return Verdict{RuleExcludedTerm, fmt.Sprintf("excluded term %q", c.RawText)}, true
	}
	if c.Validation != nil && c.Validation.Recommendation == types.RecommendRemove {
		reason := "validation recommended removal"
		if c.Validation.Reasoning != "" {
			reason += ": " + c.Validation.Reasoning
		}
		return Verdict{RuleValidationRemove, reason}, true
	}

	md := &c.Metadata
	name := fuzzy.Normalize(c.RawText)

	switch c.Category {
	case types.CategoryComputationalTool:
		_, hasVersion := md.Get("version")
		_, hasRepo := md.Get("repository")
		if !hasVersion && !hasRepo && c.Confidence < SoftwareConfidenceFloor {
			return Verdict{RuleUnidentifiableSoftware, fmt.Sprintf(
				"unidentifiable software: no version or repository and confidence %.2f < %.2f", c.Confidence, SoftwareConfidenceFloor)}, true
		}

	case types.CategoryAntibody:
		if role, _ := md.Get("role"); role == "secondary" {
			return Verdict{RuleSecondaryAntibody, "secondary antibody, not an independent research tool"}, true
		}

	case types.CategoryAnimalModel:
		if d, ok := md.Get("disorder"); !ok || d == types.NoKnownDisease {
			return Verdict{RuleWildtypeControl, "wildtype/control with no known disease"}, true
		}

	case types.CategoryGeneticReagent:
		if f.drugNames[name] {
			return Verdict{RuleDrugCompound, fmt.Sprintf("drug compound %q", c.RawText)}, true
		}
		if s, ok := f.drugSuffix(name); ok {
			return Verdict{RuleDrugCompound, fmt.Sprintf("drug naming convention (-%s)", s)}, true
		}
		if term, ok := containsAny(name, f.vocab.ConsumableTerms); ok {
			return Verdict{RuleConsumable, fmt.Sprintf("lab consumable or kit (%s)", term)}, true
		}

	case types.CategoryPatientDerivedModel:
		if f.isGenericPDX(c) {
			return Verdict{RuleGenericPDX, "generic patient-derived model with no model identifier or disease-specific terms"}, true
		}

	case types.CategoryClinicalAssessmentTool:
		if term, ok := containsAny(name, f.vocab.ClinicalHardware); ok {
			return Verdict{RuleClinicalHardware, fmt.Sprintf("hardware, not an assessment tool (%s)", term)}, true
		}
		if term, ok := containsAny(name, f.vocab.ClinicalKits); ok {
			return Verdict{RuleClinicalKit, fmt.Sprintf("laboratory assay or kit (%s)", term)}, true
		}
		if term, ok := containsAny(name, f.vocab.ClinicalNonSpecific); ok {
			return Verdict{RuleClinicalNonSpecific, fmt.Sprintf("non-specific test name (%s)", term)}, true
		}
	}
	return Verdict{}, false
}

// Apply partitions cands into kept and removed. Removed candidates are
// marked filtered in the returned audit records; kept candidates are
// returned unchanged and in input order.
func (f *Filter) Apply(cands []types.ToolCandidate) ([]types.ToolCandidate, []types.RemovedCandidate) {
	kept := make([]types.ToolCandidate, 0, len(cands))
	var removed []types.RemovedCandidate
	for i := range cands {
		c := cands[i]
		v, drop := f.Check(&c)
		if !drop {
			kept = append(kept, c)
			continue
		}
		removed = append(removed, types.RemovedCandidate{
			PublicationID: c.PublicationID,
			Category:      c.Category,
			RawText:       c.RawText,
			Rule:          v.Rule,
			Reason:        v.Reason,
		})
	}
	return kept, removed
}

// drugSuffix reports whether the last word of name carries a drug class
// suffix. Short words are skipped so names like "Fab" survive.
func (f *Filter) drugSuffix(name string) (string, bool) {
	words := splitWords(name)
	if len(words) == 0 {
		return "", false
	}
	last := words[len(words)-1]
	for _, s := range f.suffixes {
		if len(last) >= len(s)+3 && strings.HasSuffix(last, s) {
			return s, true
		}
	}
	return "", false
}

func (f *Filter) isGenericPDX(c *types.ToolCandidate) bool {
	if _, ok := c.Metadata.Get("model_id"); ok {
		return false
	}
	if _, ok := c.Metadata.Get("disease"); ok {
		return false
	}
	if f.domain != nil && f.domain.IsDomainTerm(c.RawText) {
		return false
	}
	name := fuzzy.Normalize(c.RawText)
	for _, g := range f.vocab.GenericPDXTerms {
		if name == fuzzy.Normalize(g) {
			return true
		}
	}
	// Names made only of generic words are boilerplate too.
	for _, w := range splitWords(name) {
		if !genericPDXWords[w] {
			return false
		}
	}
	return true
}

var genericPDXWords = map[string]bool{
	"patient": true, "derived": true, "xenograft": true, "xenografts": true,
	"pdx": true, "pdox": true, "pdo": true, "model": true, "models": true,
	"orthotopic": true, "tumor": true, "tumour": true, "organoid": true,
	"organoids": true, "cell": true, "line": true, "lines": true,
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// containsAny reports the first term that appears in name as a whole word
// sequence.
func containsAny(name string, terms []string) (string, bool) {
	padded := " " + strings.Join(splitWords(name), " ") + " "
	for _, t := range terms {
		tw := splitWords(fuzzy.Normalize(t))
		if len(tw) == 0 {
			continue
		}
		if strings.Contains(padded, " "+strings.Join(tw, " ")+" ") {
			return t, true
		}
	}
	return "", false
}
