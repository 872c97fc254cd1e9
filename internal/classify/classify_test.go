// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	cfg, err := patterns.Default()
	require.NoError(t, err)
	lib, err := patterns.NewLibrary(cfg, nil)
	require.NoError(t, err)
	return New(lib, 0)
}

func TestClassify(t *testing.T) {
	c := newClassifier(t)

	tests := []struct {
		name     string
		raw      string
		sections []types.SectionKind
		snippets []string
		want     types.UsageType
	}{
		{
			name:     "development language",
			raw:      "JH2-079c",
			sections: []types.SectionKind{types.SectionMethods},
			snippets: []string{"Here we developed JH2-079c from a resected plexiform neurofibroma."},
			want:     types.UsageDevelopment,
		},
		{
			name:     "established tool is never development",
			raw:      "ImageJ",
			sections: []types.SectionKind{types.SectionMethods},
			snippets: []string{"We developed a macro for ImageJ to count nuclei."},
			want:     types.UsageExperimental,
		},
		{
			name:     "vendor overrides development",
			raw:      "ST88-14",
			sections: []types.SectionKind{types.SectionMethods},
			snippets: []string{"We developed a reporter in ST88-14 cells obtained from ATCC."},
			want:     types.UsageExperimental,
		},
		{
			name:     "usage phrase",
			raw:      "Seurat",
			sections: []types.SectionKind{types.SectionResults},
			snippets: []string{"Clusters were identified using Seurat."},
			want:     types.UsageExperimental,
		},
		{
			name:     "introduction only",
			raw:      "ST88-14",
			sections: []types.SectionKind{types.SectionIntroduction},
			snippets: []string{"Earlier studies characterised ST88-14 [12]."},
			want:     types.UsageCitationOnly,
		},
		{
			name:     "results with citation marker",
			raw:      "S462",
			sections: []types.SectionKind{types.SectionResults},
			snippets: []string{"This agrees with earlier reports on S462 (Smith et al., 2019)."},
			want:     types.UsageExperimental,
		},
		{
			name:     "abstract only without signals",
			raw:      "ST88-14",
			sections: []types.SectionKind{types.SectionAbstract},
			snippets: []string{"ST88-14 cells showed reduced proliferation after NF1 loss."},
			want:     types.UsageExperimental,
		},
		{
			name:     "discussion with citation marker",
			raw:      "S462",
			sections: []types.SectionKind{types.SectionDiscussion},
			snippets: []string{"Similar findings were reported for S462 (Smith et al., 2019)."},
			want:     types.UsageCitationOnly,
		},
		{
			name:     "methods mention without signals",
			raw:      "S462",
			sections: []types.SectionKind{types.SectionMethods},
			snippets: []string{"S462 and ST88-14 lines were authenticated by STR profiling."},
			want:     types.UsageExperimental,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cand := &types.ToolCandidate{RawText: tt.raw, SourceSections: tt.sections}
			var snippets []types.Snippet
			for _, s := range tt.snippets {
				snippets = append(snippets, types.Snippet{Section: tt.sections[0], Text: s})
			}
			got := c.Classify(cand, snippets)
			assert.Equal(t, tt.want, got.Usage, got.Evidence)
		})
	}
}

func TestClassify_Evidence(t *testing.T) {
	c := newClassifier(t)
	cand := &types.ToolCandidate{RawText: "anti-SOX10", SourceSections: []types.SectionKind{types.SectionMethods}}
	got := c.Classify(cand, []types.Snippet{
		{Section: types.SectionMethods, Text: "anti-SOX10 (Abcam, cat. no. ab155279) was used at 1:500."},
		{Section: types.SectionMethods, Text: "anti-SOX10 was used for co-staining."},
	})
	assert.Equal(t, types.UsageExperimental, got.Usage)
	assert.True(t, got.StrongUsage)
	assert.Contains(t, got.Evidence, "catalog number")
	assert.Contains(t, got.Evidence, "vendor Abcam")

	count := 0
	for _, e := range got.Evidence {
		if e == "was used" {
			count++
		}
	}
	assert.Equal(t, 1, count, "evidence names are recorded once")
}

func TestClassify_VersionForcesExperimental(t *testing.T) {
	c := newClassifier(t)
	cand := &types.ToolCandidate{RawText: "NFquant", SourceSections: []types.SectionKind{types.SectionMethods}}
	got := c.Classify(cand, []types.Snippet{
		{Section: types.SectionMethods, Text: "We developed NFquant v2.1 to count neurofibroma nuclei."},
	})
	assert.Equal(t, types.UsageExperimental, got.Usage)
	assert.True(t, got.StrongUsage)
	assert.Contains(t, got.Evidence, "version")
	assert.Contains(t, got.Evidence, "we developed")
	assert.GreaterOrEqual(t, got.DevelopmentWeight, DefaultMinDevelopmentWeight)
}

func TestVendorIn(t *testing.T) {
	c := newClassifier(t)
	v, ok := c.VendorIn("rabbit anti-pERK was purchased from Cell Signaling Technology (#4370)")
	require.True(t, ok)
	assert.Equal(t, "Cell Signaling Technology", v)

	_, ok = c.VendorIn("no supplier named here")
	assert.False(t, ok)
}

func TestSignals(t *testing.T) {
	assert.True(t, VersionRe.MatchString("ImageJ v1.53k"))
	assert.True(t, VersionRe.MatchString("Seurat version 4.3.0"))
	assert.False(t, VersionRe.MatchString("a 2.5 fold change"))

	assert.True(t, RepositoryRe.MatchString("code at https://github.com/org/tool."))
	assert.False(t, RepositoryRe.MatchString("see https://example.org/tool"))

	assert.True(t, HasUsageKeyword("cells were obtained from the NCI"))
	assert.True(t, HasUsageKeyword("analysed using custom scripts"))
	assert.False(t, HasUsageKeyword("an unrelated sentence"))
}
