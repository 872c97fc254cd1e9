// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/internal/classify"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

func newExtractor(t *testing.T) *Extractor {
	t.Helper()
	cfg, err := patterns.Default()
	require.NoError(t, err)
	lib, err := patterns.NewLibrary(cfg, nil)
	require.NoError(t, err)
	return New(lib, classify.New(lib, 0))
}

func extract(e *Extractor, cat types.ToolCategory, raw string, snippets ...types.Snippet) types.Metadata {
	c := &types.ToolCandidate{Category: cat, RawText: raw}
	e.Extract(c, snippets)
	return c.Metadata
}

func methods(text string) types.Snippet {
	return types.Snippet{Section: types.SectionMethods, Text: text}
}

func TestExtract_PerCategory(t *testing.T) {
	e := newExtractor(t)

	tests := []struct {
		name     string
		cat      types.ToolCategory
		raw      string
		snippets []types.Snippet
		want     map[string]string
	}{
		{
			name: "animal model",
			cat:  types.CategoryAnimalModel,
			raw:  "Nf1 flox/flox",
			snippets: []types.Snippet{methods(
				"Nf1 flox/flox mice on a C57BL/6 background were crossed with Dhh-Cre mice to model plexiform neurofibroma; mice were purchased from Jackson Laboratory.")},
			want: map[string]string{
				"strain":               "C57BL/6",
				"species":              "mouse",
				"genetic_modification": "Nf1 flox/flox",
				"disorder":             "NF1",
				"vendor":               "Jackson Laboratory",
			},
		},
		{
			name: "primary antibody",
			cat:  types.CategoryAntibody,
			raw:  "anti-SOX10",
			snippets: []types.Snippet{methods(
				"Sections were stained with rabbit monoclonal anti-SOX10 primary antibody (Abcam, cat. no. ab155279) reactive with human tissue.")},
			want: map[string]string{
				"target_antigen": "SOX10",
				"host_organism":  "rabbit",
				"clonality":      "monoclonal",
				"role":           "primary",
				"vendor":         "Abcam",
				"catalog_number": "ab155279",
			},
		},
		{
			name:     "secondary antibody from name",
			cat:      types.CategoryAntibody,
			raw:      "HRP-conjugated goat anti-rabbit IgG",
			snippets: []types.Snippet{methods("Blots were incubated with HRP-conjugated goat anti-rabbit IgG for 1 h.")},
			want: map[string]string{
				"role":          "secondary",
				"host_organism": "goat",
			},
		},
		{
			name: "cell line",
			cat:  types.CategoryCellLine,
			raw:  "ST88-14",
			snippets: []types.Snippet{methods(
				"ST88-14 cells, a human MPNST line derived from peripheral nerve Schwann cells (RRID:CVCL_8916), were cultured.")},
			want: map[string]string{
				"organ":          "nerve",
				"tissue":         "Schwann cell",
				"disease":        "MPNST",
				"species":        "human",
				"cellosaurus_id": "CVCL_8916",
			},
		},
		{
			name: "genetic reagent",
			cat:  types.CategoryGeneticReagent,
			raw:  "shNF1",
			snippets: []types.Snippet{methods(
				"Human Schwann cells were transduced with lentiviral shNF1 in pLKO.1 (Addgene plasmid #8453).")},
			want: map[string]string{
				"vector_type": "shRNA",
				"insert":      "NF1",
				"backbone":    "pLKO.1",
				"species":     "human",
				"addgene_id":  "8453",
			},
		},
		{
			name: "computational tool",
			cat:  types.CategoryComputationalTool,
			raw:  "NF1-Atlas",
			snippets: []types.Snippet{methods(
				"NF1-Atlas v2.1 (https://github.com/nf-lab/nf1-atlas), a Python toolkit, was used to quantify neurofibroma volume on MRI.")},
			want: map[string]string{
				"version":    "2.1",
				"repository": "https://github.com/nf-lab/nf1-atlas",
				"language":   "Python",
				"purpose":    "quantify neurofibroma volume on MRI",
			},
		},
		{
			name:     "patient-derived model",
			cat:      types.CategoryPatientDerivedModel,
			raw:      "PDX-JH12",
			snippets: []types.Snippet{methods("The MPNST xenograft PDX-JH12 was propagated in NSG mice.")},
			want: map[string]string{
				"model_type":  "PDX",
				"model_id":    "PDX-JH12",
				"disease":     "MPNST",
				"host_strain": "NSG",
			},
		},
		{
			name:     "clinical assessment",
			cat:      types.CategoryClinicalAssessmentTool,
			raw:      "PedsQL",
			snippets: []types.Snippet{methods("Quality of life in children with NF1 was assessed with the PedsQL questionnaire.")},
			want: map[string]string{
				"assessment_type":   "questionnaire",
				"target_population": "pediatric",
				"domain":            "quality of life",
				"disease":           "NF1",
			},
		},
		{
			name:     "advanced cellular model",
			cat:      types.CategoryAdvancedCellularModel,
			raw:      "nerve organoids",
			snippets: []types.Snippet{methods("Human nerve organoids carrying NF1 mutations were grown for 30 days.")},
			want: map[string]string{
				"model_type": "organoid",
				"tissue":     "nerve",
				"disease":    "NF1",
				"species":    "human",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := extract(e, tt.cat, tt.raw, tt.snippets...)
			assert.Equal(t, tt.cat, md.Category)
			got := md.Values()
			for field, want := range tt.want {
				assert.Equal(t, want, got[field], field)
			}
		})
	}
}

func TestExtract_AbsenceLeavesFieldsUnset(t *testing.T) {
	e := newExtractor(t)
	md := extract(e, types.CategoryCellLine, "S462", methods("S462 was grown as described."))
	assert.Empty(t, md.Values())
	assert.Equal(t, 0.0, md.Completeness())
}

func TestExtract_SectionPriority(t *testing.T) {
	e := newExtractor(t)
	md := extract(e, types.CategoryCellLine, "S462",
		types.Snippet{Section: types.SectionAbstract, Text: "S462 glioma-like cells"},
		types.Snippet{Section: types.SectionMethods, Text: "S462 MPNST cells"},
	)
	disease, _ := md.Get("disease")
	assert.Equal(t, "MPNST", disease)
	assert.Equal(t, "methods", md.Source("disease"))
}

func TestExtract_WildTypeSentinel(t *testing.T) {
	e := newExtractor(t)

	md := extract(e, types.CategoryAnimalModel, "C57BL/6",
		methods("Wild-type littermates on a C57BL/6 background served as controls."))
	disorder, _ := md.Get("disorder")
	assert.Equal(t, types.NoKnownDisease, disorder)

	md = extract(e, types.CategoryAnimalModel, "C57BL/6", methods("C57BL/6 mice were housed under standard conditions."))
	_, set := md.Get("disorder")
	assert.False(t, set, "absence of a disorder is not guessed")
}

func TestExtract_KeepsExistingFields(t *testing.T) {
	e := newExtractor(t)
	c := &types.ToolCandidate{Category: types.CategoryCellLine, RawText: "S462", Metadata: types.NewMetadata(types.CategoryCellLine)}
	c.Metadata.Fill("disease", "schwannoma", "validation")
	e.Extract(c, []types.Snippet{methods("S462 MPNST cells")})
	disease, _ := c.Metadata.Get("disease")
	assert.Equal(t, "schwannoma", disease)
}

func TestIsDomainTerm(t *testing.T) {
	e := newExtractor(t)
	assert.True(t, e.IsDomainTerm("tumour volume in a plexiform neurofibroma"))
	assert.True(t, e.IsDomainTerm("NF2-related schwannomatosis"))
	assert.False(t, e.IsDomainTerm("breast tissue"))
	assert.False(t, e.IsDomainTerm("glioblastoma"), "general diseases are not domain terms")
}
