// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/internal/classify"
	"github.com/pdiddy/tool-miner/internal/metadata"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

func newFilter(t *testing.T) *Filter {
	t.Helper()
	cfg, err := patterns.Default()
	require.NoError(t, err)
	lib, err := patterns.NewLibrary(cfg, nil)
	require.NoError(t, err)
	return New(lib, metadata.New(lib, classify.New(lib, 0)))
}

func candidate(cat types.ToolCategory, raw string, conf float64, fields map[string]string) types.ToolCandidate {
	c := types.ToolCandidate{
		PublicationID: "P1",
		Category:      cat,
		RawText:       raw,
		Confidence:    conf,
		Metadata:      types.NewMetadata(cat),
	}
	for k, v := range fields {
		c.Metadata.Fill(k, v, "methods")
	}
	return c
}

func TestCheck(t *testing.T) {
	f := newFilter(t)

	tests := []struct {
		name string
		c    types.ToolCandidate
		rule string // empty means kept
	}{
		{"excluded term", candidate(types.CategoryComputationalTool, "SPSS", 0.95, nil), RuleExcludedTerm},
		{"software without version or repository",
			candidate(types.CategoryComputationalTool, "TumorSeg", 0.8, nil), RuleUnidentifiableSoftware},
		{"software with version",
			candidate(types.CategoryComputationalTool, "TumorSeg", 0.8, map[string]string{"version": "1.2"}), ""},
		{"confident software",
			candidate(types.CategoryComputationalTool, "CellProfiler", 0.9, nil), ""},
		{"secondary antibody",
			candidate(types.CategoryAntibody, "goat anti-rabbit IgG", 0.9, map[string]string{"role": "secondary"}), RuleSecondaryAntibody},
		{"primary antibody",
			candidate(types.CategoryAntibody, "anti-SOX10", 0.9, map[string]string{"role": "primary"}), ""},
		{"wildtype with no disorder",
			candidate(types.CategoryAnimalModel, "C57BL/6", 0.9, nil), RuleWildtypeControl},
		{"wildtype sentinel",
			candidate(types.CategoryAnimalModel, "C57BL/6", 0.9, map[string]string{"disorder": types.NoKnownDisease}), RuleWildtypeControl},
		{"disease model",
			candidate(types.CategoryAnimalModel, "Nf1 flox/flox", 0.9, map[string]string{"disorder": "NF1"}), ""},
		{"drug name", candidate(types.CategoryGeneticReagent, "Selumetinib", 0.8, nil), RuleDrugCompound},
		{"drug suffix", candidate(types.CategoryGeneticReagent, "puromycin", 0.8, nil), RuleDrugCompound},
		{"consumable", candidate(types.CategoryGeneticReagent, "Lipofectamine 3000", 0.8, nil), RuleConsumable},
		{"plasmid", candidate(types.CategoryGeneticReagent, "pLKO.1-shNF1", 0.8, nil), ""},
		{"generic pdx", candidate(types.CategoryPatientDerivedModel, "patient-derived xenografts", 0.8, nil), RuleGenericPDX},
		{"generic words only", candidate(types.CategoryPatientDerivedModel, "orthotopic PDX models", 0.8, nil), RuleGenericPDX},
		{"pdx with model id",
			candidate(types.CategoryPatientDerivedModel, "PDX", 0.8, map[string]string{"model_id": "JH-2-002"}), ""},
		{"pdx with disease term", candidate(types.CategoryPatientDerivedModel, "MPNST PDX", 0.8, nil), ""},
		{"clinical hardware", candidate(types.CategoryClinicalAssessmentTool, "MRI", 0.8, nil), RuleClinicalHardware},
		{"clinical kit", candidate(types.CategoryClinicalAssessmentTool, "cytokine ELISA", 0.8, nil), RuleClinicalKit},
		{"clinical non-specific", candidate(types.CategoryClinicalAssessmentTool, "Physical examination", 0.8, nil), RuleClinicalNonSpecific},
		{"clinical instrument", candidate(types.CategoryClinicalAssessmentTool, "PedsQL", 0.8, nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, drop := f.Check(&tt.c)
			if tt.rule == "" {
				assert.False(t, drop, "unexpected removal: %+v", v)
				return
			}
			require.True(t, drop)
			assert.Equal(t, tt.rule, v.Rule)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestCheck_ValidationRemove(t *testing.T) {
	f := newFilter(t)
	c := candidate(types.CategoryCellLine, "ST88-14", 0.9, nil)
	c.Validation = &types.Validation{Verdict: types.VerdictReject, Recommendation: types.RecommendRemove, Reasoning: "names a gene"}

	v, drop := f.Check(&c)
	require.True(t, drop)
	assert.Equal(t, RuleValidationRemove, v.Rule)
	assert.Contains(t, v.Reason, "names a gene")

	c.Validation.Recommendation = types.RecommendManualReview
	_, drop = f.Check(&c)
	assert.False(t, drop)
}

func TestApply_WildtypeControlInMethods(t *testing.T) {
	f := newFilter(t)
	wt := candidate(types.CategoryAnimalModel, "C57BL/6", 0.9, nil)
	wt.SourceSections = []types.SectionKind{types.SectionMethods}
	model := candidate(types.CategoryAnimalModel, "Nf1 flox/flox", 0.9, map[string]string{"disorder": "NF1"})

	kept, removed := f.Apply([]types.ToolCandidate{wt, model})

	require.Len(t, kept, 1)
	assert.Equal(t, "Nf1 flox/flox", kept[0].RawText)
	require.Len(t, removed, 1)
	assert.Equal(t, types.RemovedCandidate{
		PublicationID: "P1",
		Category:      types.CategoryAnimalModel,
		RawText:       "C57BL/6",
		Rule:          RuleWildtypeControl,
		Reason:        "wildtype/control with no known disease",
	}, removed[0])
}

func TestApply_KeepsOrderAndConfidence(t *testing.T) {
	f := newFilter(t)
	in := []types.ToolCandidate{
		candidate(types.CategoryCellLine, "ST88-14", 0.9, nil),
		candidate(types.CategoryComputationalTool, "SPSS", 0.95, nil),
		candidate(types.CategoryCellLine, "sNF96.2", 0.7, nil),
	}
	kept, removed := f.Apply(in)
	require.Len(t, kept, 2)
	assert.Equal(t, "ST88-14", kept[0].RawText)
	assert.Equal(t, "sNF96.2", kept[1].RawText)
	assert.Equal(t, 0.7, kept[1].Confidence)
	assert.Len(t, removed, 1)
}
