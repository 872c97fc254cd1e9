// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// NoKnownDisease marks an animal model described as a wild-type control.
const NoKnownDisease = "No known disease"

// SourceValidation is recorded as the source of fields set by AI validation.
const SourceValidation = "validation"

// Metadata is a tagged variant: Category selects which payload is populated.
// Exactly one payload pointer is non-nil for a value built with NewMetadata.
type Metadata struct {
	Category ToolCategory `json:"category" yaml:"category"`

	AnimalModel            *AnimalModelFields            `json:"animal_model,omitempty" yaml:"animal_model,omitempty"`
	Antibody               *AntibodyFields               `json:"antibody,omitempty" yaml:"antibody,omitempty"`
	CellLine               *CellLineFields               `json:"cell_line,omitempty" yaml:"cell_line,omitempty"`
	GeneticReagent         *GeneticReagentFields         `json:"genetic_reagent,omitempty" yaml:"genetic_reagent,omitempty"`
	ComputationalTool      *ComputationalToolFields      `json:"computational_tool,omitempty" yaml:"computational_tool,omitempty"`
	AdvancedCellularModel  *AdvancedCellularModelFields  `json:"advanced_cellular_model,omitempty" yaml:"advanced_cellular_model,omitempty"`
	PatientDerivedModel    *PatientDerivedModelFields    `json:"patient_derived_model,omitempty" yaml:"patient_derived_model,omitempty"`
	ClinicalAssessmentTool *ClinicalAssessmentToolFields `json:"clinical_assessment_tool,omitempty" yaml:"clinical_assessment_tool,omitempty"`

	// Sources maps each filled field to the section (or SourceValidation)
	// it was taken from.
	Sources map[string]string `json:"sources,omitempty" yaml:"sources,omitempty"`
}

type AnimalModelFields struct {
	Strain              string `json:"strain,omitempty" yaml:"strain,omitempty"`
	Species             string `json:"species,omitempty" yaml:"species,omitempty"`
	GeneticModification string `json:"genetic_modification,omitempty" yaml:"genetic_modification,omitempty"`
	Disorder            string `json:"disorder,omitempty" yaml:"disorder,omitempty"`
	Vendor              string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

type AntibodyFields struct {
	TargetAntigen   string `json:"target_antigen,omitempty" yaml:"target_antigen,omitempty"`
	HostOrganism    string `json:"host_organism,omitempty" yaml:"host_organism,omitempty"`
	Clonality       string `json:"clonality,omitempty" yaml:"clonality,omitempty"`
	ReactiveSpecies string `json:"reactive_species,omitempty" yaml:"reactive_species,omitempty"`
	Role            string `json:"role,omitempty" yaml:"role,omitempty"`
	Vendor          string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	CatalogNumber   string `json:"catalog_number,omitempty" yaml:"catalog_number,omitempty"`
}

type CellLineFields struct {
	Organ         string `json:"organ,omitempty" yaml:"organ,omitempty"`
	Tissue        string `json:"tissue,omitempty" yaml:"tissue,omitempty"`
	Disease       string `json:"disease,omitempty" yaml:"disease,omitempty"`
	Species       string `json:"species,omitempty" yaml:"species,omitempty"`
	Vendor        string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
	CellosaurusID string `json:"cellosaurus_id,omitempty" yaml:"cellosaurus_id,omitempty"`
}

type GeneticReagentFields struct {
	VectorType string `json:"vector_type,omitempty" yaml:"vector_type,omitempty"`
	Backbone   string `json:"backbone,omitempty" yaml:"backbone,omitempty"`
	Insert     string `json:"insert,omitempty" yaml:"insert,omitempty"`
	Species    string `json:"species,omitempty" yaml:"species,omitempty"`
	AddgeneID  string `json:"addgene_id,omitempty" yaml:"addgene_id,omitempty"`
	Vendor     string `json:"vendor,omitempty" yaml:"vendor,omitempty"`
}

type ComputationalToolFields struct {
	Version    string `json:"version,omitempty" yaml:"version,omitempty"`
	Repository string `json:"repository,omitempty" yaml:"repository,omitempty"`
	Language   string `json:"language,omitempty" yaml:"language,omitempty"`
	Purpose    string `json:"purpose,omitempty" yaml:"purpose,omitempty"`
}

type AdvancedCellularModelFields struct {
	ModelType string `json:"model_type,omitempty" yaml:"model_type,omitempty"`
	Tissue    string `json:"tissue,omitempty" yaml:"tissue,omitempty"`
	Disease   string `json:"disease,omitempty" yaml:"disease,omitempty"`
	Species   string `json:"species,omitempty" yaml:"species,omitempty"`
}

type PatientDerivedModelFields struct {
	ModelType  string `json:"model_type,omitempty" yaml:"model_type,omitempty"`
	ModelID    string `json:"model_id,omitempty" yaml:"model_id,omitempty"`
	Disease    string `json:"disease,omitempty" yaml:"disease,omitempty"`
	HostStrain string `json:"host_strain,omitempty" yaml:"host_strain,omitempty"`
}

type ClinicalAssessmentToolFields struct {
	AssessmentType   string `json:"assessment_type,omitempty" yaml:"assessment_type,omitempty"`
	TargetPopulation string `json:"target_population,omitempty" yaml:"target_population,omitempty"`
	Domain           string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Disease          string `json:"disease,omitempty" yaml:"disease,omitempty"`
}

// slot binds a field name to the string it is stored in.
type slot struct {
	name     string
	ptr      *string
	critical bool
}

// NewMetadata returns empty metadata for category c.
func NewMetadata(c ToolCategory) Metadata {
	m := Metadata{Category: c}
	switch c {
	case CategoryAnimalModel:
		m.AnimalModel = &AnimalModelFields{}
	case CategoryAntibody:
		m.Antibody = &AntibodyFields{}
	case CategoryCellLine:
		m.CellLine = &CellLineFields{}
	case CategoryGeneticReagent:
		m.GeneticReagent = &GeneticReagentFields{}
	case CategoryComputationalTool:
		m.ComputationalTool = &ComputationalToolFields{}
	case CategoryAdvancedCellularModel:
		m.AdvancedCellularModel = &AdvancedCellularModelFields{}
	case CategoryPatientDerivedModel:
		m.PatientDerivedModel = &PatientDerivedModelFields{}
	case CategoryClinicalAssessmentTool:
		m.ClinicalAssessmentTool = &ClinicalAssessmentToolFields{}
	}
	return m
}

func (m *Metadata) slots() []slot {
	switch m.Category {
	case CategoryAnimalModel:
		if m.AnimalModel == nil {
			m.AnimalModel = &AnimalModelFields{}
		}
		f := m.AnimalModel
		return []slot{
			{"strain", &f.Strain, false},
			{"species", &f.Species, true},
			{"genetic_modification", &f.GeneticModification, true},
			{"disorder", &f.Disorder, true},
			{"vendor", &f.Vendor, false},
		}
	case CategoryAntibody:
		if m.Antibody == nil {
			m.Antibody = &AntibodyFields{}
		}
		f := m.Antibody
		return []slot{
			{"target_antigen", &f.TargetAntigen, true},
			{"host_organism", &f.HostOrganism, true},
			{"clonality", &f.Clonality, true},
			{"reactive_species", &f.ReactiveSpecies, false},
			{"role", &f.Role, false},
			{"vendor", &f.Vendor, false},
			{"catalog_number", &f.CatalogNumber, false},
		}
	case CategoryCellLine:
		if m.CellLine == nil {
			m.CellLine = &CellLineFields{}
		}
		f := m.CellLine
		return []slot{
			{"organ", &f.Organ, true},
			{"tissue", &f.Tissue, false},
			{"disease", &f.Disease, true},
			{"species", &f.Species, true},
			{"vendor", &f.Vendor, false},
			{"cellosaurus_id", &f.CellosaurusID, false},
		}
	case CategoryGeneticReagent:
		if m.GeneticReagent == nil {
			m.GeneticReagent = &GeneticReagentFields{}
		}
		f := m.GeneticReagent
		return []slot{
			{"vector_type", &f.VectorType, true},
			{"backbone", &f.Backbone, true},
			{"insert", &f.Insert, true},
			{"species", &f.Species, false},
			{"addgene_id", &f.AddgeneID, false},
			{"vendor", &f.Vendor, false},
		}
	case CategoryComputationalTool:
		if m.ComputationalTool == nil {
			m.ComputationalTool = &ComputationalToolFields{}
		}
		f := m.ComputationalTool
		return []slot{
			{"version", &f.Version, true},
			{"repository", &f.Repository, true},
			{"language", &f.Language, true},
			{"purpose", &f.Purpose, false},
		}
	case CategoryAdvancedCellularModel:
		if m.AdvancedCellularModel == nil {
			m.AdvancedCellularModel = &AdvancedCellularModelFields{}
		}
		f := m.AdvancedCellularModel
		return []slot{
			{"model_type", &f.ModelType, true},
			{"tissue", &f.Tissue, true},
			{"disease", &f.Disease, true},
			{"species", &f.Species, false},
		}
	case CategoryPatientDerivedModel:
		if m.PatientDerivedModel == nil {
			m.PatientDerivedModel = &PatientDerivedModelFields{}
		}
		f := m.PatientDerivedModel
		return []slot{
			{"model_type", &f.ModelType, true},
			{"model_id", &f.ModelID, false},
			{"disease", &f.Disease, true},
			{"host_strain", &f.HostStrain, true},
		}
	case CategoryClinicalAssessmentTool:
		if m.ClinicalAssessmentTool == nil {
			m.ClinicalAssessmentTool = &ClinicalAssessmentToolFields{}
		}
		f := m.ClinicalAssessmentTool
		return []slot{
			{"assessment_type", &f.AssessmentType, true},
			{"target_population", &f.TargetPopulation, true},
			{"domain", &f.Domain, true},
			{"disease", &f.Disease, false},
		}
	}
	return nil
}

func (m *Metadata) find(field string) *slot {
	for _, s := range m.slots() {
		if s.name == field {
			s := s
			return &s
		}
	}
	return nil
}

// Fields returns the field names valid for the metadata's category, in order.
func (m *Metadata) Fields() []string {
	slots := m.slots()
	names := make([]string, len(slots))
	for i, s := range slots {
		names[i] = s.name
	}
	return names
}

// CriticalFields returns the field names that count toward completeness.
func (m *Metadata) CriticalFields() []string {
	var names []string
	for _, s := range m.slots() {
		if s.critical {
			names = append(names, s.name)
		}
	}
	return names
}

// Get returns the value of field and whether it is set.
func (m *Metadata) Get(field string) (string, bool) {
	s := m.find(field)
	if s == nil || *s.ptr == "" {
		return "", false
	}
	return *s.ptr, true
}

// Fill sets field to value only if the field is currently unset.
// It reports whether the value was written.
func (m *Metadata) Fill(field, value, source string) bool {
	if value == "" {
		return false
	}
	s := m.find(field)
	if s == nil || *s.ptr != "" {
		return false
	}
	*s.ptr = value
	m.setSource(field, source)
	return true
}

// Override sets field to value regardless of its current state.
// It is reserved for authoritative corrections.
func (m *Metadata) Override(field, value, source string) bool {
	s := m.find(field)
	if s == nil || value == "" {
		return false
	}
	*s.ptr = value
	m.setSource(field, source)
	return true
}

// Source returns where field's value came from.
func (m *Metadata) Source(field string) string {
	return m.Sources[field]
}

func (m *Metadata) setSource(field, source string) {
	if source == "" {
		return
	}
	if m.Sources == nil {
		m.Sources = make(map[string]string)
	}
	m.Sources[field] = source
}

// Completeness returns the fraction of critical fields that are set.
func (m *Metadata) Completeness() float64 {
	var total, filled int
	for _, s := range m.slots() {
		if !s.critical {
			continue
		}
		total++
		if *s.ptr != "" {
			filled++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(filled) / float64(total)
}

// Values returns the set fields as a name to value map.
func (m *Metadata) Values() map[string]string {
	out := make(map[string]string)
	for _, s := range m.slots() {
		if *s.ptr != "" {
			out[s.name] = *s.ptr
		}
	}
	return out
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := NewMetadata(m.Category)
	for field, value := range m.Values() {
		out.Override(field, value, m.Sources[field])
	}
	return out
}
