// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sections

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/tool-miner/pkg/types"
)

func filler(words string) string {
	return strings.Repeat(words+" ", 6)
}

func kinds(secs []types.Section) []types.SectionKind {
	var out []types.SectionKind
	for _, s := range secs {
		out = append(out, s.Kind)
	}
	return out
}

func textOf(secs []types.Section, k types.SectionKind) string {
	for _, s := range secs {
		if s.Kind == k {
			return s.Text
		}
	}
	return ""
}

func TestClassify(t *testing.T) {
	tests := []struct {
		heading string
		want    types.SectionKind
		ok      bool
	}{
		{"Materials and Methods", types.SectionMethods, true},
		{"2. METHODS", types.SectionMethods, true},
		{"Experimental Procedures", types.SectionMethods, true},
		{"Results and Discussion", types.SectionResults, true},
		{"Conclusions", types.SectionDiscussion, true},
		{"Background", types.SectionIntroduction, true},
		{"Abstract", types.SectionAbstract, true},
		{"Acknowledgements", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			got, ok := Classify(tt.heading)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_JATS(t *testing.T) {
	body := `<?xml version="1.0"?>
<pmc-articleset><article>
<front><article-meta>
<abstract><p>` + filler("Neurofibromatosis type 1 tumors were profiled.") + `</p></abstract>
<abstract abstract-type="graphical"><p>` + filler("graphical") + `</p></abstract>
</article-meta></front>
<body>
<sec sec-type="intro"><title>Introduction</title><p>` + filler("NF1 is a common tumor predisposition syndrome [1].") + `</p></sec>
<sec sec-type="materials|methods"><title>Materials and Methods</title>
  <sec><title>Cell culture</title><p>ST88-14 cells were obtained from ATCC and cultured in DMEM.</p></sec>
  <sec><title>Image analysis</title><p>ImageJ v1.53k was used to quantify staining intensity.</p></sec>
</sec>
<sec><title>Results</title><p>` + filler("Loss of NF1 increased RAS signaling.") + `</p></sec>
<sec><title>Acknowledgements</title><p>` + filler("We thank the lab.") + `</p></sec>
</body>
<back><ref-list><ref><p>reference text that should be ignored entirely</p></ref></ref-list></back>
</article></pmc-articleset>`

	secs := Extract(types.Document{
		Publication: types.Publication{ID: "PMID1"},
		Format:      types.FormatJATS,
		Body:        []byte(body),
	})

	assert.Equal(t, []types.SectionKind{
		types.SectionAbstract, types.SectionIntroduction, types.SectionMethods, types.SectionResults,
	}, kinds(secs))

	methods := textOf(secs, types.SectionMethods)
	assert.Contains(t, methods, "ST88-14 cells were obtained from ATCC")
	assert.Contains(t, methods, "Cell culture")
	assert.Contains(t, methods, "ImageJ v1.53k")
	assert.NotContains(t, methods, "Materials and Methods")
	assert.NotContains(t, textOf(secs, types.SectionAbstract), "graphical")
	for _, s := range secs {
		assert.Equal(t, "PMID1", s.PublicationID)
		assert.NotContains(t, s.Text, "reference text")
	}
}

func TestExtract_MalformedJATSFailsSoft(t *testing.T) {
	secs := Extract(types.Document{Format: types.FormatJATS, Body: []byte("<article><body><sec><title>Meth")})
	assert.Empty(t, secs)

	secs = Extract(types.Document{Format: types.FormatJATS, Body: []byte("not xml at all")})
	assert.Empty(t, secs)
}

func TestExtract_HTML(t *testing.T) {
	body := `<html><head><script>var x = "Methods";</script></head><body>
<h1>A study of NF1</h1>
<div class="abstract"><p>` + filler("We characterised NF1 deficient Schwann cells.") + `</p></div>
<h2>Introduction</h2><p>` + filler("Plexiform neurofibromas arise in NF1 patients.") + `</p>
<h2>Methods</h2>
<p>Mice were purchased from the Jackson Laboratory and housed per protocol.</p>
<h3>Antibodies</h3>
<table><tr><td>anti-NF1</td><td>Abcam</td><td>ab12345</td></tr></table>
<h2>Discussion</h2><p>` + filler("Our data support MEK inhibition.") + `</p>
</body></html>`

	secs := Extract(types.Document{Publication: types.Publication{ID: "P2"}, Format: types.FormatHTML, Body: []byte(body)})
	require.Equal(t, []types.SectionKind{
		types.SectionAbstract, types.SectionIntroduction, types.SectionMethods, types.SectionDiscussion,
	}, kinds(secs))

	methods := textOf(secs, types.SectionMethods)
	assert.Contains(t, methods, "Jackson Laboratory")
	assert.Contains(t, methods, "anti-NF1 Abcam ab12345")
	assert.NotContains(t, methods, "var x")
}

func TestExtract_MarkdownLongestBlockWins(t *testing.T) {
	md := "# Title\n\n## Methods\n\nshort methods text that is long enough to pass the minimum size.\n\n" +
		"<!-- page 2 -->\n\n### Statistics\n\nGraphPad Prism 9 was used for all statistical tests in this study.\n\n" +
		"## Results\n\n" + filler("Results body.") + "\n\n" +
		"## Supplementary Methods\n\ntiny\n"

	secs := Extract(types.Document{Format: types.FormatMarkdown, Body: []byte(md)})
	methods := textOf(secs, types.SectionMethods)
	assert.Contains(t, methods, "short methods text")
	assert.Contains(t, methods, "Statistics")
	assert.Contains(t, methods, "GraphPad Prism 9")
	assert.NotContains(t, methods, "page 2")
	assert.NotContains(t, methods, "tiny")
}

func TestExtract_ShortSectionNotFound(t *testing.T) {
	md := "## Methods\n\ntoo short\n\n## Results\n\n" + filler("Results body.")
	secs := Extract(types.Document{Format: types.FormatMarkdown, Body: []byte(md)})
	assert.Equal(t, []types.SectionKind{types.SectionResults}, kinds(secs))
}

func TestExtract_UnknownFormat(t *testing.T) {
	assert.Nil(t, Extract(types.Document{Format: "pdf", Body: []byte("x")}))
}

func TestFromAbstract(t *testing.T) {
	assert.Empty(t, FromAbstract("P", "short"))
	secs := FromAbstract("P", filler("Abstract body about NF1."))
	require.Len(t, secs, 1)
	assert.Equal(t, types.SectionAbstract, secs[0].Kind)
}

func TestOnly(t *testing.T) {
	secs := []types.Section{
		{Kind: types.SectionAbstract}, {Kind: types.SectionMethods}, {Kind: types.SectionResults},
	}
	got := Only(secs, types.SectionAbstract, types.SectionMethods)
	assert.Equal(t, []types.SectionKind{types.SectionAbstract, types.SectionMethods}, kinds(got))
}
