// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// Publication holds bibliographic metadata for one mined publication.
// It is immutable once fetched.
type Publication struct {
	// ID is the primary literature identifier (a PMID for NCBI sources).
	ID string `json:"id" yaml:"id"`

	// PMCID is the PubMed Central identifier when full text is open access.
	PMCID string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`

	// DOI is the digital object identifier without the https://doi.org/ prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	Title   string   `json:"title" yaml:"title"`
	Journal string   `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year    string   `json:"year,omitempty" yaml:"year,omitempty"`
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// FundingTags lists grant or funder labels attached to the publication.
	FundingTags []string `json:"funding_tags,omitempty" yaml:"funding_tags,omitempty"`
}

// SectionKind names one of the recognised publication sections.
type SectionKind string

const (
	SectionAbstract     SectionKind = "abstract"
	SectionIntroduction SectionKind = "introduction"
	SectionMethods      SectionKind = "methods"
	SectionResults      SectionKind = "results"
	SectionDiscussion   SectionKind = "discussion"
)

// AllSectionKinds lists the section kinds in document order.
var AllSectionKinds = []SectionKind{
	SectionAbstract,
	SectionIntroduction,
	SectionMethods,
	SectionResults,
	SectionDiscussion,
}

// SectionPriority ranks sections as metadata sources. Higher wins:
// methods > results > introduction > discussion > abstract.
func SectionPriority(k SectionKind) int {
	switch k {
	case SectionMethods:
		return 5
	case SectionResults:
		return 4
	case SectionIntroduction:
		return 3
	case SectionDiscussion:
		return 2
	case SectionAbstract:
		return 1
	default:
		return 0
	}
}

// MinSectionLength is the minimum trimmed length for a section to count as found.
const MinSectionLength = 50

// Section is the text of one recognised section of a publication.
type Section struct {
	PublicationID string      `json:"publication_id" yaml:"publication_id"`
	Kind          SectionKind `json:"kind" yaml:"kind"`
	Text          string      `json:"text" yaml:"text"`
}

// Found reports whether the section carries enough text to be mined.
func (s Section) Found() bool {
	return len(strings.TrimSpace(s.Text)) >= MinSectionLength
}

// Completeness records how much of a publication's text has been retrieved.
type Completeness string

const (
	CompletenessAbstractOnly Completeness = "abstract_only"
	CompletenessMinimal      Completeness = "minimal"
	CompletenessFull         Completeness = "full"
)

// DocumentFormat names the markup of a fetched full-text document.
type DocumentFormat string

const (
	FormatJATS     DocumentFormat = "jats"
	FormatHTML     DocumentFormat = "html"
	FormatMarkdown DocumentFormat = "markdown"
)

// Document is a fetched full-text body awaiting section extraction.
type Document struct {
	Publication Publication    `json:"publication" yaml:"publication"`
	Format      DocumentFormat `json:"format" yaml:"format"`
	Body        []byte         `json:"-" yaml:"-"`
}

// CacheEntry is the persisted record of a publication's fetched text.
// One entry is stored per publication identifier.
type CacheEntry struct {
	Publication  Publication            `json:"publication" yaml:"publication"`
	Completeness Completeness           `json:"completeness" yaml:"completeness"`
	Source       string                 `json:"source" yaml:"source"`
	FetchedAt    time.Time              `json:"fetched_at" yaml:"fetched_at"`
	Sections     map[SectionKind]string `json:"sections" yaml:"sections"`
}

// SectionList returns the entry's sections in document order, skipping
// sections that are absent.
func (e CacheEntry) SectionList() []Section {
	var out []Section
	for _, k := range AllSectionKinds {
		text, ok := e.Sections[k]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, Section{PublicationID: e.Publication.ID, Kind: k, Text: text})
	}
	return out
}
