// Package prompts exposes the natural-language instruction tables sent to
// the model. The text is configuration data, embedded as YAML and keyed by
// language code with a default-language fallback.
package prompts

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dicttr/dicttr-go/internal/document"
)

//go:embed data/prompts.yaml
var rawTable []byte

type intentRule struct {
	Type     string   `yaml:"type"`
	Keywords []string `yaml:"keywords"`
}

type table struct {
	DefaultLanguage  string                       `yaml:"default_language"`
	SpeechLanguages  []string                     `yaml:"speech_languages"`
	OutputLanguages  []string                     `yaml:"output_languages"`
	Enhancement      map[string]string            `yaml:"enhancement"`
	SubjectSuffixes  map[string]string            `yaml:"subject_suffixes"`
	SubjectNames     map[string]map[string]string `yaml:"subject_translations"`
	Study            map[string]map[string]string `yaml:"study"`
	SubjectInference map[string]string            `yaml:"subject_inference"`
	BlockGeneration  struct {
		Base    string            `yaml:"base"`
		Formats map[string]string `yaml:"formats"`
	} `yaml:"block_generation"`
	Expansion map[string]string `yaml:"expansion"`
	Intent    []intentRule      `yaml:"intent"`
}

var tbl table

func init() {
	if err := yaml.Unmarshal(rawTable, &tbl); err != nil {
		panic(fmt.Sprintf("prompts: embedded table invalid: %v", err))
	}
}

// DefaultLanguage is the documented substitute for unsupported codes.
func DefaultLanguage() string { return tbl.DefaultLanguage }

// SpeechSupported reports whether the speech API accepts lang.
func SpeechSupported(lang string) bool { return contains(tbl.SpeechLanguages, lang) }

// Normalize maps unsupported or empty output languages to the default.
func Normalize(lang string) string {
	if contains(tbl.OutputLanguages, lang) {
		return lang
	}
	return tbl.DefaultLanguage
}

// Enhancement returns the system prompt for transcript enhancement,
// specialized by subject and targeting lang.
func Enhancement(subject, lang string) string {
	lang = Normalize(lang)
	base, ok := tbl.Enhancement[lang]
	if !ok {
		base = tbl.Enhancement[tbl.DefaultLanguage]
	}
	p := fmt.Sprintf(base, lang)
	if suffix, ok := tbl.SubjectSuffixes[subject]; ok {
		p += "\n\n" + suffix
	}
	return p
}

// Study returns the instruction for a study-material type; unknown types
// fall back to the summary instruction.
func Study(materialType, lang string) string {
	lang = Normalize(lang)
	byType, ok := tbl.Study[lang]
	if !ok {
		byType = tbl.Study[tbl.DefaultLanguage]
	}
	if p, ok := byType[materialType]; ok {
		return p
	}
	return byType["summary"]
}

// TranslateSubject localizes a canonical subject name into lang. Unknown
// subjects pass through untranslated; unknown languages use the default
// language's table.
func TranslateSubject(subject, lang string) string {
	byLang, ok := tbl.SubjectNames[lang]
	if !ok {
		byLang = tbl.SubjectNames[tbl.DefaultLanguage]
	}
	if t, ok := byLang[subject]; ok {
		return t
	}
	return subject
}

// SubjectInference returns the system prompt for deriving a short subject
// from content.
func SubjectInference(lang string) string {
	if p, ok := tbl.SubjectInference[Normalize(lang)]; ok {
		return p
	}
	return tbl.SubjectInference[tbl.DefaultLanguage]
}

// BlockGeneration returns the system prompt for generating a single block of
// the given type, including its exact JSON format contract.
func BlockGeneration(blockType document.SectionType, subject string) string {
	p := tbl.BlockGeneration.Base
	if format, ok := tbl.BlockGeneration.Formats[string(blockType)]; ok {
		p += "\n\nFormato EXACTO: " + format
	}
	if suffix, ok := tbl.SubjectSuffixes[subject]; ok {
		p += "\n\n" + suffix
	}
	return p
}

// Expansion returns the system prompt for free-text content expansion.
func Expansion(subject, lang string) string {
	p, ok := tbl.Expansion[Normalize(lang)]
	if !ok {
		p = tbl.Expansion[tbl.DefaultLanguage]
	}
	if suffix, ok := tbl.SubjectSuffixes[subject]; ok {
		p += "\n\n" + suffix
	}
	return p
}

// ClassifyIntent inspects a free-text user instruction and picks the section
// type it asks for. It is a keyword heuristic: first matching rule wins, and
// anything unmatched is a paragraph.
func ClassifyIntent(userPrompt string) document.SectionType {
	lower := strings.ToLower(userPrompt)
	for _, rule := range tbl.Intent {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				switch rule.Type {
				case "list":
					return document.SectionList
				case "key_concepts_block":
					return document.SectionKeyConcepts
				case "concept_block":
					return document.SectionConcept
				case "summary_block":
					return document.SectionSummary
				case "heading":
					return document.SectionHeading
				}
			}
		}
	}
	return document.SectionParagraph
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
