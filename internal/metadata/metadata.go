// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metadata pulls category-specific attributes for a candidate out of
// its name and the text around its occurrences. Extraction is additive: the
// candidate name is read first, then snippets from the highest-priority
// section down, and a field filled once is never overwritten.
package metadata

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/tool-miner/internal/classify"
	"github.com/pdiddy/tool-miner/internal/patterns"
	"github.com/pdiddy/tool-miner/pkg/types"
)

// SourceName is recorded for fields read from the candidate name itself.
const SourceName = "name"

// extractFunc returns a field value found in text.
type extractFunc func(text string) (string, bool)

type scope int

const (
	anyText scope = iota
	nameOnly
	contextOnly
)

// fieldRule binds one field to the extractors tried for it, in order.
type fieldRule struct {
	field string
	scope scope
	try   []extractFunc
}

// Extractor is read-only after construction and safe for concurrent use.
type Extractor struct {
	cls      *classify.Classifier
	disease  extractFunc
	domain   extractFunc
	gene     extractFunc
	rules    map[types.ToolCategory][]fieldRule
	wildType *regexp.Regexp
}

// generalDiseases supplements the domain disease terms for cell lines and
// models that come from other diseases.
var generalDiseases = []string{
	"glioblastoma", "glioma", "adenocarcinoma", "carcinoma", "melanoma",
	"sarcoma", "leukemia", "lymphoma", "neuroblastoma", "breast cancer",
}

// New builds an Extractor. cls supplies vendor recognition.
func New(lib *patterns.Library, cls *classify.Classifier) *Extractor {
	dom := lib.Domain()
	e := &Extractor{
		cls:      cls,
		disease:  termFinder(append(append([]string(nil), dom.DiseaseTerms...), generalDiseases...)),
		domain:   termFinder(dom.DiseaseTerms),
		gene:     termFinder(dom.Genes),
		wildType: regexp.MustCompile(`(?i)\b(?:wild[- ]?type|WT)\s+(?:control|littermate|mice|mouse|animals|rats)|\bnon-?transgenic\b|\bcontrol (?:mice|animals|littermates)\b|\bunmodified\b`),
	}
	e.rules = e.buildRules()
	return e
}

// Extract fills c.Metadata from c.RawText and snippets. Snippets are read in
// section-priority order regardless of their order in the slice.
func (e *Extractor) Extract(c *types.ToolCandidate, snippets []types.Snippet) {
	if c.Metadata.Category != c.Category {
		c.Metadata = types.NewMetadata(c.Category)
	}

	ordered := append([]types.Snippet(nil), snippets...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return types.SectionPriority(ordered[i].Section) > types.SectionPriority(ordered[j].Section)
	})

	rules := e.rules[c.Category]
	apply := func(text, source string, isName bool) {
		for _, r := range rules {
			if (isName && r.scope == contextOnly) || (!isName && r.scope == nameOnly) {
				continue
			}
			if _, set := c.Metadata.Get(r.field); set {
				continue
			}
			for _, fn := range r.try {
				if v, ok := fn(text); ok {
					c.Metadata.Fill(r.field, v, source)
					break
				}
			}
		}
	}

	apply(c.RawText, SourceName, true)
	for _, sn := range ordered {
		apply(sn.Text, string(sn.Section), false)
	}

	// The sentinel is only ever set from explicit wild-type language.
	if c.Category == types.CategoryAnimalModel {
		if _, set := c.Metadata.Get("disorder"); !set {
			for _, sn := range ordered {
				if e.wildType.MatchString(sn.Text) {
					c.Metadata.Fill("disorder", types.NoKnownDisease, string(sn.Section))
					break
				}
			}
		}
	}
}

// IsDomainTerm reports whether text mentions a domain disease term. General
// diseases recognised for metadata do not count.
func (e *Extractor) IsDomainTerm(text string) bool {
	_, ok := e.domain(text)
	return ok
}

func (e *Extractor) vendor(text string) (string, bool) {
	if e.cls == nil {
		return "", false
	}
	return e.cls.VendorIn(text)
}

// termFinder matches any of terms case-insensitively on word boundaries,
// longest first, and returns the configured spelling.
func termFinder(terms []string) extractFunc {
	canon := make(map[string]string, len(terms))
	var quoted []string
	for _, t := range terms {
		k := strings.ToLower(t)
		if t == "" || canon[k] != "" {
			continue
		}
		canon[k] = t
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	if len(quoted) == 0 {
		return func(string) (string, bool) { return "", false }
	}
	sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
	re := regexp.MustCompile(`(?i)(?:^|[^\pL\pN])(` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN])`)
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		return canon[strings.ToLower(m[1])], true
	}
}

// capture returns group 1 of re, or the whole match.
func capture(pattern string) extractFunc {
	re := regexp.MustCompile(pattern)
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if m == nil {
			return "", false
		}
		v := m[0]
		if len(m) > 1 && m[1] != "" {
			v = m[1]
		}
		v = strings.TrimSpace(v)
		return v, v != ""
	}
}

// keyword is one pattern mapped to a fixed value.
type keyword struct {
	pattern string
	value   string
}

// keywords tries each pattern in order and returns the value of the first
// that matches.
func keywords(kws ...keyword) extractFunc {
	type compiled struct {
		re    *regexp.Regexp
		value string
	}
	cs := make([]compiled, len(kws))
	for i, k := range kws {
		cs[i] = compiled{regexp.MustCompile(k.pattern), k.value}
	}
	return func(text string) (string, bool) {
		for _, c := range cs {
			if c.re.MatchString(text) {
				return c.value, true
			}
		}
		return "", false
	}
}

// whole returns text itself when pattern matches it.
func whole(pattern string) extractFunc {
	re := regexp.MustCompile(pattern)
	return func(text string) (string, bool) {
		if re.MatchString(text) {
			return strings.TrimSpace(text), true
		}
		return "", false
	}
}

var species = keywords(
	keyword{`(?i)\b(?:human|patient|homo sapiens)\b`, "human"},
	keyword{`(?i)\b(?:mouse|mice|murine|mus musculus)\b`, "mouse"},
	keyword{`(?i)\b(?:rat|rats|rattus)\b`, "rat"},
	keyword{`(?i)\bzebrafish\b`, "zebrafish"},
	keyword{`(?i)\b(?:pig|porcine|minipig)s?\b`, "pig"},
	keyword{`(?i)\b(?:drosophila|fruit fl(?:y|ies))\b`, "drosophila"},
)

var animalSpecies = keywords(
	keyword{`(?i)\b(?:mouse|mice|murine|mus musculus)\b`, "mouse"},
	keyword{`(?i)\b(?:rat|rats|rattus)\b`, "rat"},
	keyword{`(?i)\bzebrafish\b`, "zebrafish"},
	keyword{`(?i)\b(?:pig|porcine|minipig)s?\b`, "pig"},
	keyword{`(?i)\b(?:drosophila|fruit fl(?:y|ies))\b`, "drosophila"},
)

var knockdownRe = regexp.MustCompile(`\b(?:sh|si|sg)(?:RNA)?[-_#]?([A-Z][A-Z0-9]{1,9})\b`)

// knockdownTarget reads the gene from names such as shNF1 or si-SPRED1.
func knockdownTarget(text string) (string, bool) {
	for _, m := range knockdownRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "RNA" && m[1] != "RNAs" {
			return m[1], true
		}
	}
	return "", false
}

var organs = keywords(
	keyword{`(?i)\b(?:peripheral|sciatic|spinal|cranial|optic) nerves?\b|\bnerve sheath\b`, "nerve"},
	keyword{`(?i)\b(?:brain|cerebral|cortical|cortex)\b`, "brain"},
	keyword{`(?i)\b(?:skin|dermal|cutaneous)\b`, "skin"},
	keyword{`(?i)\b(?:kidney|renal|embryonic kidney)\b`, "kidney"},
	keyword{`(?i)\b(?:cervix|cervical)\b`, "cervix"},
	keyword{`(?i)\b(?:breast|mammary)\b`, "breast"},
	keyword{`(?i)\b(?:lung|pulmonary)\b`, "lung"},
	keyword{`(?i)\b(?:liver|hepatic)\b`, "liver"},
	keyword{`(?i)\b(?:bone|osteo\w*)\b`, "bone"},
	keyword{`(?i)\b(?:retina|retinal|eye)\b`, "eye"},
	keyword{`(?i)\bnerves?\b`, "nerve"},
)

var tissues = keywords(
	keyword{`(?i)\bschwann cells?\b`, "Schwann cell"},
	keyword{`(?i)\bfibroblasts?\b`, "fibroblast"},
	keyword{`(?i)\bkeratinocytes?\b`, "keratinocyte"},
	keyword{`(?i)\bmelanocytes?\b`, "melanocyte"},
	keyword{`(?i)\bastrocytes?\b`, "astrocyte"},
	keyword{`(?i)\bneural crest\b`, "neural crest"},
	keyword{`(?i)\b(?:neurons?|neuronal)\b`, "neuron"},
	keyword{`(?i)\bepithelial\b`, "epithelium"},
	keyword{`(?i)\b(?:tumou?r|neoplastic)\b`, "tumor"},
)

var vendorCatalog = capture(`(?i)(?:\bcat(?:alog(?:ue)?)?\.?\s*(?:no\.?|number|#)\s*:?\s*|#\s?)([A-Za-z]{0,4}-?\d[\w\-]{2,})`)

var rrid = capture(`\bRRID:\s*((?:AB|CVCL|Addgene|IMSR|SCR)_[A-Za-z0-9_]+)`)

func (e *Extractor) buildRules() map[types.ToolCategory][]fieldRule {
	return map[types.ToolCategory][]fieldRule{
		types.CategoryAnimalModel: {
			{field: "strain", try: []extractFunc{
				capture(`(?i)\b(C57BL/6[JN]?|FVB/NJ?|BALB/c|129/Sv\w*|NOD[/-]SCID|NSG|athymic nude|Sprague[- ]Dawley|Wistar)\b`),
			}},
			{field: "species", try: []extractFunc{animalSpecies}},
			{field: "genetic_modification", scope: nameOnly, try: []extractFunc{
				whole(`(?i)flox|fl/fl|\+/-|-/-|cre\b|creert|\bko\b|knockout|transgenic|\btg\b`),
			}},
			{field: "genetic_modification", scope: contextOnly, try: []extractFunc{
				capture(`\b((?:Nf1|Nf2|Trp53|Pten|Cdkn2a|Suz12|Spred1|Lztr1|Smarcb1)\s?(?:\+/-|-/-|fl/fl|flox/flox|f/f|[A-Za-z]*/[A-Za-z+\-]+))`),
				keywords(
					keyword{`(?i)\bconditional knock-?out\b`, "conditional knockout"},
					keyword{`(?i)\bknock-?out\b`, "knockout"},
					keyword{`(?i)\bknock-?in\b`, "knock-in"},
					keyword{`(?i)\btransgenic\b`, "transgenic"},
				),
			}},
			{field: "disorder", try: []extractFunc{e.disease}},
			{field: "vendor", scope: contextOnly, try: []extractFunc{e.vendor}},
		},

		types.CategoryAntibody: {
			{field: "target_antigen", scope: nameOnly, try: []extractFunc{
				capture(`(?i)\banti-((?:phospho-)?[A-Za-z0-9][A-Za-z0-9/\-]*?)(?:\s+(?:monoclonal|polyclonal|antibod\w*|mAb|pAb|IgG)|$)`),
				capture(`^([A-Za-z0-9][A-Za-z0-9/\-]*)\s+antibod`),
			}},
			{field: "target_antigen", scope: contextOnly, try: []extractFunc{
				capture(`(?i)\bantibod(?:y|ies) (?:against|to|raised against|recognising|recognizing) ([A-Za-z0-9][A-Za-z0-9/\-]+)`),
			}},
			{field: "host_organism", try: []extractFunc{
				capture(`(?i)\b(rabbit|mouse|goat|rat|donkey|chicken|sheep|hamster|guinea pig)\s+(?:monoclonal|polyclonal|anti-|IgG|antibod)`),
				capture(`(?i)\braised in (rabbit|mouse|goat|rat|donkey|chicken|sheep)\b`),
			}},
			{field: "clonality", try: []extractFunc{keywords(
				keyword{`(?i)\bmonoclonal\b|\bmAb\b`, "monoclonal"},
				keyword{`\bclone:?\s+[A-Z0-9]*\d[\w\-]*`, "monoclonal"},
				keyword{`(?i)\bpolyclonal\b|\bpAb\b`, "polyclonal"},
			)}},
			{field: "reactive_species", scope: contextOnly, try: []extractFunc{
				capture(`(?i)\b(human|mouse|rat)[- ]reactive\b`),
				capture(`(?i)\breacts? with (human|mouse|rat)\b`),
			}},
			{field: "role", scope: nameOnly, try: []extractFunc{keywords(
				keyword{`(?i)\banti-(?:rabbit|mouse|goat|rat|human|chicken|sheep)\b|-conjugated\b|\bsecondary\b`, "secondary"},
			)}},
			{field: "role", scope: contextOnly, try: []extractFunc{keywords(
				keyword{`(?i)\bprimary antibod`, "primary"},
			)}},
			{field: "vendor", scope: contextOnly, try: []extractFunc{e.vendor}},
			{field: "catalog_number", scope: contextOnly, try: []extractFunc{rrid, vendorCatalog}},
		},

		types.CategoryCellLine: {
			{field: "organ", scope: contextOnly, try: []extractFunc{organs}},
			{field: "tissue", scope: contextOnly, try: []extractFunc{tissues}},
			{field: "disease", scope: contextOnly, try: []extractFunc{e.disease}},
			{field: "species", scope: contextOnly, try: []extractFunc{species}},
			{field: "vendor", scope: contextOnly, try: []extractFunc{e.vendor}},
			{field: "cellosaurus_id", scope: contextOnly, try: []extractFunc{
				capture(`\b(CVCL_[A-Z0-9]{4})\b`),
			}},
		},

		types.CategoryGeneticReagent: {
			{field: "vector_type", try: []extractFunc{keywords(
				keyword{`(?i)lenti(?:viral|virus|crispr)?`, "lentiviral"},
				keyword{`(?i)\bretro(?:viral|virus)\b|\bpMSCV|\bpBABE`, "retroviral"},
				keyword{`(?i)\bAAV\b|adeno-associated`, "AAV"},
				keyword{`(?i)\badeno(?:viral|virus)\b`, "adenoviral"},
				keyword{`\bsh(?:RNA)?[-_]?[A-Z0-9]|\bpLKO`, "shRNA"},
				keyword{`\bsiRNAs?\b|\bsi[-_]?[A-Z0-9]{2,}`, "siRNA"},
				keyword{`(?i)\bsgRNA\b|\bguide RNA\b|\bCRISPR\b|\bpX\d{3}\b`, "CRISPR"},
				keyword{`(?i)\bplasmid\b|\bexpression vector\b|\bpcDNA`, "plasmid"},
			)}},
			{field: "backbone", try: []extractFunc{
				capture(`(?i)\b(p(?:LKO\.1|cDNA3\.1|LVX|MSCV|X330|X459|X458|LentiCRISPRv2|Lenti|CMV|BABE|GIPZ|TRIPZ|sPAX2|MD2\.G|EGFP)[\w.\-]*)`),
				capture(`(?i)\b(lentiCRISPR ?v2)\b`),
			}},
			{field: "insert", try: []extractFunc{
				knockdownTarget,
				e.gene,
				capture(`(?i)\b(EGFP|GFP|mCherry|luciferase|Cas9|tdTomato)\b`),
			}},
			{field: "species", scope: contextOnly, try: []extractFunc{species}},
			{field: "addgene_id", scope: contextOnly, try: []extractFunc{
				capture(`(?i)\baddgene\s*(?:plasmid\s*)?(?:#|no\.?|ID:?)\s*(\d{4,6})\b`),
				capture(`\bRRID:\s*Addgene_(\d{4,6})\b`),
			}},
			{field: "vendor", scope: contextOnly, try: []extractFunc{e.vendor}},
		},

		types.CategoryComputationalTool: {
			{field: "version", try: []extractFunc{func(text string) (string, bool) {
				m := classify.VersionRe.FindStringSubmatch(text)
				if m == nil {
					return "", false
				}
				return m[1], true
			}}},
			{field: "repository", scope: contextOnly, try: []extractFunc{capture(classify.RepositoryRe.String())}},
			{field: "language", scope: contextOnly, try: []extractFunc{keywords(
				keyword{`(?i)\bpython\b|\bpypi\b|\bscikit|\bnumpy\b`, "Python"},
				keyword{`\b(?:in|using|with) R\b|\bR (?:package|script|v?\d)|\bbioconductor\b|\bCRAN\b`, "R"},
				keyword{`(?i)\bmatlab\b`, "MATLAB"},
				keyword{`(?i)\bjava\b`, "Java"},
				keyword{`(?i)\bc\+\+`, "C++"},
				keyword{`(?i)\bjulia\b`, "Julia"},
			)}},
			{field: "purpose", scope: contextOnly, try: []extractFunc{
				capture(`(?i)\bto ((?:quantify|analy[sz]e|segment|align|identify|detect|measure|classify|visuali[sz]e|annotate|predict|cluster|count|map)\b[^.;:()]{3,60})`),
				keywords(
					keyword{`(?i)\bsegmentation\b`, "segmentation"},
					keyword{`(?i)\bimage analysis\b`, "image analysis"},
					keyword{`(?i)\bdifferential expression\b`, "differential expression"},
					keyword{`(?i)\b(?:alignment|aligned)\b`, "alignment"},
					keyword{`(?i)\bvariant calling\b`, "variant calling"},
					keyword{`(?i)\bsingle-cell\b`, "single-cell analysis"},
					keyword{`(?i)\bstatistical analys[ei]s\b`, "statistical analysis"},
				),
			}},
		},

		types.CategoryAdvancedCellularModel: {
			{field: "model_type", try: []extractFunc{keywords(
				keyword{`(?i)\bassembloids?\b`, "assembloid"},
				keyword{`(?i)\borganoids?\b`, "organoid"},
				keyword{`(?i)\bspheroids?\b`, "spheroid"},
				keyword{`(?i)\bneurospheres?\b`, "neurosphere"},
				keyword{`(?i)\borgan[- ]on[- ]a?[- ]?chip\b`, "organ-on-chip"},
				keyword{`(?i)\biPSC-derived\b|\binduced pluripotent\b`, "iPSC-derived"},
				keyword{`(?i)\b3D (?:culture|model)\b`, "3D culture"},
			)}},
			{field: "tissue", try: []extractFunc{tissues, organs}},
			{field: "disease", scope: contextOnly, try: []extractFunc{e.disease}},
			{field: "species", scope: contextOnly, try: []extractFunc{species}},
		},

		types.CategoryPatientDerivedModel: {
			{field: "model_type", try: []extractFunc{keywords(
				keyword{`(?i)\borthotopic xenografts?\b|\bPDOX\b`, "PDOX"},
				keyword{`(?i)\bxenografts?\b|\bPDX\b`, "PDX"},
				keyword{`(?i)\borganoids?\b|\bPDO\b`, "PDO"},
				keyword{`(?i)\bcell lines?\b`, "patient-derived cell line"},
			)}},
			{field: "model_id", try: []extractFunc{
				capture(`\b((?:PDX|PDOX|PDO)[-_]?[A-Z]{0,4}\d{1,4}[A-Z]?)\b`),
				capture(`(?i)\bmodel (?:ID|no\.?)?\s*:?\s*([A-Z]{1,5}[-_]?\d{2,4}[A-Z]?)\b`),
			}},
			{field: "disease", try: []extractFunc{e.disease}},
			{field: "host_strain", scope: contextOnly, try: []extractFunc{
				capture(`\b(NSG|NOD[/-]SCID|NRG|athymic nude|nude)\b`),
			}},
		},

		types.CategoryClinicalAssessmentTool: {
			{field: "assessment_type", try: []extractFunc{keywords(
				keyword{`(?i)\bpatient[- ]reported outcome\b|\bPRO\b`, "patient-reported outcome"},
				keyword{`(?i)\bquestionnaires?\b|\bsurvey\b`, "questionnaire"},
				keyword{`(?i)\bchecklist\b`, "checklist"},
				keyword{`(?i)\binventory\b`, "inventory"},
				keyword{`(?i)\bscales?\b`, "scale"},
				keyword{`(?i)\bindex\b`, "index"},
				keyword{`(?i)\binterview\b`, "interview"},
				keyword{`(?i)\b(?:battery|test)\b`, "performance test"},
			)}},
			{field: "target_population", scope: contextOnly, try: []extractFunc{keywords(
				keyword{`(?i)\b(?:children|child|pediatric|paediatric|infants?)\b`, "pediatric"},
				keyword{`(?i)\badolescents?\b|\bteens?\b`, "adolescent"},
				keyword{`(?i)\b(?:caregivers?|parents?)\b`, "caregiver"},
				keyword{`(?i)\badults?\b`, "adult"},
			)}},
			{field: "domain", try: []extractFunc{keywords(
				keyword{`(?i)\bquality of life\b|\bQoL\b`, "quality of life"},
				keyword{`(?i)\bpain\b`, "pain"},
				keyword{`(?i)\bitch\w*|\bpruritus\b`, "itch"},
				keyword{`(?i)\bcognit\w*|\bexecutive function\b|\bintelligence\b`, "cognition"},
				keyword{`(?i)\bbehaviou?r\w*`, "behavior"},
				keyword{`(?i)\badaptive\b`, "adaptive functioning"},
				keyword{`(?i)\bsleep\b`, "sleep"},
				keyword{`(?i)\b(?:anxiety|depression|mood)\b`, "mood"},
				keyword{`(?i)\bphysical function\w*`, "physical function"},
				keyword{`(?i)\b(?:vision|visual)\b`, "vision"},
			)}},
			{field: "disease", scope: contextOnly, try: []extractFunc{e.disease}},
		},
	}
}
