// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package patterns

import (
	_ "embed"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tool-miner/pkg/types"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// Config is the versioned pattern library configuration.
type Config struct {
	Version    string                                `yaml:"version"`
	Categories map[types.ToolCategory]CategoryConfig `yaml:"categories"`

	// Exclusions are names that are never candidates (vendors, generic
	// statistics environments, operating systems).
	Exclusions []string `yaml:"exclusions"`

	// Aliases expands a canonical name into surface variants, e.g.
	// C57BL/6 -> C57BL/6J, B6.
	Aliases map[string][]string `yaml:"aliases"`

	// EstablishedTools are never classified as developed by the publication.
	EstablishedTools []string `yaml:"established_tools"`

	Vendors    []string   `yaml:"vendors"`
	Domain     Domain     `yaml:"domain"`
	Vocabulary Vocabulary `yaml:"vocabulary"`
}

// CategoryConfig holds per-category matching settings and static patterns.
type CategoryConfig struct {
	// FuzzyThreshold is the minimum edit-similarity ratio for fuzzy hits
	// and registry resolution.
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`

	// BaseConfidence is the starting confidence of an exact hit.
	BaseConfidence float64 `yaml:"base_confidence"`

	// MinFuzzyLength excludes short surface forms from fuzzy matching.
	MinFuzzyLength int `yaml:"min_fuzzy_length"`

	Names   []NameConfig  `yaml:"names"`
	Regexes []RegexConfig `yaml:"regexes"`
}

// NameConfig is a known tool name with its synonyms.
type NameConfig struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms,omitempty"`
}

// RegexConfig discovers names that no list can enumerate. Group 1, when
// present, is the tool name; otherwise the whole match is.
type RegexConfig struct {
	Pattern    string  `yaml:"pattern"`
	Confidence float64 `yaml:"confidence"`
}

// Domain describes the research area that makes a tool domain-specific.
type Domain struct {
	Name         string   `yaml:"name"`
	DiseaseTerms []string `yaml:"disease_terms"`
	Genes        []string `yaml:"genes"`
}

// Vocabulary lists terms the quality filter and metadata rules match on.
type Vocabulary struct {
	// NameStopFragments reject regex-discovered names that describe a
	// condition rather than name a tool ("NF1-deficient cells").
	NameStopFragments []string `yaml:"name_stop_fragments"`

	DrugNames           []string `yaml:"drug_names"`
	DrugSuffixes        []string `yaml:"drug_suffixes"`
	ConsumableTerms     []string `yaml:"consumable_terms"`
	GenericPDXTerms     []string `yaml:"generic_pdx_terms"`
	ClinicalHardware    []string `yaml:"clinical_hardware"`
	ClinicalKits        []string `yaml:"clinical_kits"`
	ClinicalNonSpecific []string `yaml:"clinical_non_specific"`
}

// Default returns the embedded configuration.
func Default() (Config, error) {
	return Parse(defaultConfigYAML)
}

// Load reads a configuration file. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading pattern config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing pattern config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Categories == nil {
		c.Categories = make(map[types.ToolCategory]CategoryConfig)
	}
	for _, cat := range types.AllCategories {
		cc := c.Categories[cat]
		if cc.FuzzyThreshold == 0 {
			cc.FuzzyThreshold = 0.85
		}
		if cc.BaseConfidence == 0 {
			cc.BaseConfidence = 0.75
		}
		if cc.MinFuzzyLength == 0 {
			cc.MinFuzzyLength = 4
		}
		c.Categories[cat] = cc
	}
}

// Validate rejects unknown categories and out-of-range settings.
func (c Config) Validate() error {
	for cat, cc := range c.Categories {
		if !cat.Valid() {
			return fmt.Errorf("%w: %q in pattern config", types.ErrInvalidCategory, cat)
		}
		if cc.FuzzyThreshold <= 0 || cc.FuzzyThreshold > 1 {
			return fmt.Errorf("category %s: fuzzy_threshold %v out of range (0,1]", cat, cc.FuzzyThreshold)
		}
		if cc.BaseConfidence <= 0 || cc.BaseConfidence > 1 {
			return fmt.Errorf("category %s: base_confidence %v out of range (0,1]", cat, cc.BaseConfidence)
		}
		for _, rc := range cc.Regexes {
			if rc.Confidence < 0 || rc.Confidence > 1 {
				return fmt.Errorf("category %s: regex %q confidence %v out of range", cat, rc.Pattern, rc.Confidence)
			}
		}
	}
	return nil
}

// Thresholds returns the fuzzy threshold per category.
func (c Config) Thresholds() map[types.ToolCategory]float64 {
	out := make(map[types.ToolCategory]float64, len(c.Categories))
	for cat, cc := range c.Categories {
		out[cat] = cc.FuzzyThreshold
	}
	return out
}
