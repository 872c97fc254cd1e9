// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Priority is the curator review tier.
type Priority string

const (
	PriorityHigh   Priority = "High"
	PriorityMedium Priority = "Medium"
	PriorityLow    Priority = "Low"
)

// Rank orders priorities: High is 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// ReviewRecord is the canonical, merged entry for one tool in the review feed.
// There is exactly one record per (Category, CanonicalKey).
type ReviewRecord struct {
	Name         string       `json:"name" yaml:"name"`
	Category     ToolCategory `json:"category" yaml:"category"`
	CanonicalKey string       `json:"canonical_key" yaml:"canonical_key"`

	// RegistryID is the curated registry identifier or NovelID.
	RegistryID string    `json:"registry_id" yaml:"registry_id"`
	UsageType  UsageType `json:"usage_type" yaml:"usage_type"`
	Confidence float64   `json:"confidence" yaml:"confidence"`
	Metadata   Metadata  `json:"metadata" yaml:"metadata"`

	PublicationIDs []string `json:"publication_ids" yaml:"publication_ids"`
	DOIs           []string `json:"dois,omitempty" yaml:"dois,omitempty"`
	Titles         []string `json:"titles,omitempty" yaml:"titles,omitempty"`
	Years          []string `json:"years,omitempty" yaml:"years,omitempty"`
	Contexts       []string `json:"contexts,omitempty" yaml:"contexts,omitempty"`
	Sections       []string `json:"sections,omitempty" yaml:"sections,omitempty"`

	DomainSpecific bool     `json:"domain_specific" yaml:"domain_specific"`
	Completeness   float64  `json:"completeness" yaml:"completeness"`
	Priority       Priority `json:"priority" yaml:"priority"`

	// ResourceID is assigned by curators after review and is always empty here.
	ResourceID string `json:"resource_id" yaml:"resource_id"`

	MemberCount int         `json:"member_count" yaml:"member_count"`
	Validation  *Validation `json:"validation,omitempty" yaml:"validation,omitempty"`
}

// IsNovel reports whether the record has no registry identifier.
func (r ReviewRecord) IsNovel() bool {
	return r.RegistryID == "" || r.RegistryID == NovelID
}

// PublicationReviewRow summarises the novel tools found in one publication.
type PublicationReviewRow struct {
	PublicationID string `json:"publication_id" yaml:"publication_id"`
	DOI           string `json:"doi,omitempty" yaml:"doi,omitempty"`
	Title         string `json:"title" yaml:"title"`
	Year          string `json:"year,omitempty" yaml:"year,omitempty"`

	// NovelByCategory holds the sorted novel tool names per category.
	NovelByCategory map[ToolCategory][]string `json:"novel_by_category" yaml:"novel_by_category"`

	NovelCount          int      `json:"novel_count" yaml:"novel_count"`
	DomainSpecificCount int      `json:"domain_specific_count" yaml:"domain_specific_count"`
	MaxPriority         Priority `json:"max_priority" yaml:"max_priority"`
}

// CategoryLink joins one tool to one publication within a category table.
type CategoryLink struct {
	Category      ToolCategory `json:"category" yaml:"category"`
	PublicationID string       `json:"publication_id" yaml:"publication_id"`
	ToolName      string       `json:"tool_name" yaml:"tool_name"`
	RegistryID    string       `json:"registry_id" yaml:"registry_id"`
	UsageType     UsageType    `json:"usage_type" yaml:"usage_type"`
}
