// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrInvalidCategory is returned when a string does not name a ToolCategory.
var ErrInvalidCategory = errors.New("invalid tool category")

// ToolCategory is the closed set of research tool kinds the miner detects.
type ToolCategory string

const (
	CategoryAnimalModel            ToolCategory = "animal_model"
	CategoryAntibody               ToolCategory = "antibody"
	CategoryCellLine               ToolCategory = "cell_line"
	CategoryGeneticReagent         ToolCategory = "genetic_reagent"
	CategoryComputationalTool      ToolCategory = "computational_tool"
	CategoryAdvancedCellularModel  ToolCategory = "advanced_cellular_model"
	CategoryPatientDerivedModel    ToolCategory = "patient_derived_model"
	CategoryClinicalAssessmentTool ToolCategory = "clinical_assessment_tool"
)

// AllCategories lists every category in output order.
var AllCategories = []ToolCategory{
	CategoryAnimalModel,
	CategoryAntibody,
	CategoryCellLine,
	CategoryGeneticReagent,
	CategoryComputationalTool,
	CategoryAdvancedCellularModel,
	CategoryPatientDerivedModel,
	CategoryClinicalAssessmentTool,
}

// Valid reports whether c is one of the known categories.
func (c ToolCategory) Valid() bool {
	return c.Order() >= 0
}

// Order returns the position of c in AllCategories, or -1.
func (c ToolCategory) Order() int {
	for i, known := range AllCategories {
		if c == known {
			return i
		}
	}
	return -1
}

// ParseCategory converts s to a ToolCategory.
func ParseCategory(s string) (ToolCategory, error) {
	c := ToolCategory(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// UsageType records how a publication relates to a tool it mentions.
type UsageType string

const (
	UsageDevelopment  UsageType = "Development"
	UsageExperimental UsageType = "Experimental Usage"
	UsageCitationOnly UsageType = "Citation Only"
)

// Rank orders usage types for tie-breaking: lower is preferred.
func (u UsageType) Rank() int {
	switch u {
	case UsageDevelopment:
		return 0
	case UsageExperimental:
		return 1
	case UsageCitationOnly:
		return 2
	default:
		return 3
	}
}

// MatchKind records which detection path produced a candidate.
type MatchKind string

const (
	MatchExact MatchKind = "exact"
	MatchFuzzy MatchKind = "fuzzy"
	MatchRegex MatchKind = "regex"
)

// ResolutionStatus is the outcome of checking a name against the registry.
type ResolutionStatus string

const (
	StatusExisting ResolutionStatus = "existing"
	StatusNovel    ResolutionStatus = "novel"
)

// NovelID is written in place of a registry identifier for novel tools.
const NovelID = "NOVEL"

// Resolution is the registry lookup result for one tool name.
type Resolution struct {
	Status      ResolutionStatus `json:"status" yaml:"status"`
	RegistryID  string           `json:"registry_id,omitempty" yaml:"registry_id,omitempty"`
	MatchedName string           `json:"matched_name,omitempty" yaml:"matched_name,omitempty"`
	Score       float64          `json:"score,omitempty" yaml:"score,omitempty"`
}

// IDOrNovel returns the registry identifier, or NovelID for novel tools.
func (r Resolution) IDOrNovel() string {
	if r.Status == StatusExisting && r.RegistryID != "" {
		return r.RegistryID
	}
	return NovelID
}

// Verdict is the AI validator's judgement of a candidate.
type Verdict string

const (
	VerdictAccept    Verdict = "Accept"
	VerdictReject    Verdict = "Reject"
	VerdictUncertain Verdict = "Uncertain"
)

// Recommendation is the AI validator's requested action for a candidate.
type Recommendation string

const (
	RecommendKeep         Recommendation = "Keep"
	RecommendRemove       Recommendation = "Remove"
	RecommendManualReview Recommendation = "Manual Review"
)

// Validation carries an AI validation outcome attached to a candidate.
type Validation struct {
	Verdict        Verdict        `json:"verdict" yaml:"verdict"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
	Confidence     float64        `json:"confidence" yaml:"confidence"`
	Reasoning      string         `json:"reasoning,omitempty" yaml:"reasoning,omitempty"`
}

// Occurrence is the location of one mention inside a section.
type Occurrence struct {
	Section SectionKind `json:"section" yaml:"section"`
	Start   int         `json:"start" yaml:"start"`
	End     int         `json:"end" yaml:"end"`
}

// ToolCandidate is a detected mention of a research tool in one publication.
type ToolCandidate struct {
	// ID is the first 12 hex characters of SHA-256 over publication,
	// category, and normalised text.
	ID             string        `json:"id" yaml:"id"`
	PublicationID  string        `json:"publication_id" yaml:"publication_id"`
	Category       ToolCategory  `json:"category" yaml:"category"`
	RawText        string        `json:"raw_text" yaml:"raw_text"`
	SourceSections []SectionKind `json:"source_sections" yaml:"source_sections"`

	// Context is a snippet around the first occurrence in the
	// highest-priority section.
	Context     string       `json:"context" yaml:"context"`
	Occurrences []Occurrence `json:"occurrences" yaml:"occurrences"`

	Confidence float64   `json:"confidence" yaml:"confidence"`
	MatchKind  MatchKind `json:"match_kind" yaml:"match_kind"`
	Similarity float64   `json:"similarity,omitempty" yaml:"similarity,omitempty"`
	UsageType  UsageType `json:"usage_type" yaml:"usage_type"`
	Metadata   Metadata  `json:"metadata" yaml:"metadata"`

	Resolution Resolution  `json:"resolution" yaml:"resolution"`
	Validation *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`

	IsFiltered   bool   `json:"is_filtered" yaml:"is_filtered"`
	FilterReason string `json:"filter_reason,omitempty" yaml:"filter_reason,omitempty"`
}

// HasSection reports whether the candidate was seen in section k.
func (c *ToolCandidate) HasSection(k SectionKind) bool {
	for _, s := range c.SourceSections {
		if s == k {
			return true
		}
	}
	return false
}

// RemovedCandidate is the audit record of a filtered candidate.
type RemovedCandidate struct {
	PublicationID string       `json:"publication_id" yaml:"publication_id"`
	Category      ToolCategory `json:"category" yaml:"category"`
	RawText       string       `json:"raw_text" yaml:"raw_text"`
	Rule          string       `json:"rule" yaml:"rule"`
	Reason        string       `json:"reason" yaml:"reason"`
}

// RegistryTool is one curated registry entry with its surface forms.
type RegistryTool struct {
	ID       string       `json:"id" yaml:"id"`
	Category ToolCategory `json:"category" yaml:"category"`
	Name     string       `json:"name" yaml:"name"`
	Synonyms []string     `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
}

// Snippet is the text window around one occurrence of a candidate.
type Snippet struct {
	Section SectionKind `json:"section" yaml:"section"`
	Text    string      `json:"text" yaml:"text"`
}
