// Package document holds the structural contract between the generative
// model and the rest of the pipeline: a title plus an ordered list of typed
// sections. Decoding is deliberately lenient: a malformed section becomes a
// paragraph carrying its raw text, never a decode error and never a dropped
// section. Partial structure beats total loss.
package document

import (
	"encoding/json"
	"strings"
)

type SectionType string

const (
	SectionHeading     SectionType = "heading"
	SectionParagraph   SectionType = "paragraph"
	SectionList        SectionType = "list"
	SectionConcept     SectionType = "concept_block"
	SectionSummary     SectionType = "summary_block"
	SectionKeyConcepts SectionType = "key_concepts_block"
)

const (
	ListBulleted = "bulleted"
	ListNumbered = "numbered"
)

// Section is one structural unit of an enhanced document. Which fields are
// meaningful depends on Type; the rest stay at their zero values.
type Section struct {
	Type       SectionType `json:"type"`
	Level      int         `json:"level,omitempty"`
	Content    string      `json:"content,omitempty"`
	Speaker    string      `json:"speaker,omitempty"`
	Style      string      `json:"style,omitempty"`
	Items      []string    `json:"items,omitempty"`
	Term       string      `json:"term,omitempty"`
	Definition string      `json:"definition,omitempty"`
	Examples   []string    `json:"examples,omitempty"`
	Concepts   []string    `json:"concepts,omitempty"`
}

// sectionWire avoids recursing into Section.UnmarshalJSON.
type sectionWire Section

// UnmarshalJSON coerces unknown or malformed section shapes into paragraphs
// holding the raw text. Missing fields stay at their zero value.
func (s *Section) UnmarshalJSON(data []byte) error {
	// A bare string is a paragraph.
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Paragraph(str)
		return nil
	}

	var w sectionWire
	if err := json.Unmarshal(data, &w); err != nil {
		*s = Paragraph(string(data))
		return nil
	}
	*s = Section(w)
	s.normalize(data)
	return nil
}

func (s *Section) normalize(raw []byte) {
	switch s.Type {
	case SectionHeading:
		if s.Level < 1 || s.Level > 3 {
			s.Level = 2
		}
	case SectionParagraph, SectionSummary:
		// content-only variants, nothing to fix up
	case SectionList:
		if s.Style != ListNumbered {
			s.Style = ListBulleted
		}
		if s.Items == nil {
			s.Items = []string{}
		}
	case SectionConcept:
		if s.Examples == nil {
			s.Examples = []string{}
		}
	case SectionKeyConcepts:
		if s.Concepts == nil {
			s.Concepts = []string{}
		}
	default:
		content := s.Content
		if content == "" {
			content = string(raw)
		}
		*s = Paragraph(content)
	}
}

// Paragraph wraps text as a paragraph section.
func Paragraph(text string) Section {
	return Section{Type: SectionParagraph, Content: text}
}

// Heading builds a heading section, clamping the level into {1,2,3}.
func Heading(level int, text string) Section {
	if level < 1 || level > 3 {
		level = 2
	}
	return Section{Type: SectionHeading, Level: level, Content: text}
}

// Document is the block-oriented result of enhancing a raw transcript.
type Document struct {
	Title       string    `json:"title"`
	Sections    []Section `json:"sections"`
	KeyConcepts []string  `json:"key_concepts,omitempty"`
	Summary     string    `json:"summary,omitempty"`
}

// PlainText flattens the document back to readable text: title, section
// contents, concept definitions, list items, key concepts and summary.
func (d *Document) PlainText() string {
	var b strings.Builder
	if d.Title != "" {
		b.WriteString(d.Title)
		b.WriteString("\n\n")
	}
	for _, s := range d.Sections {
		if s.Content != "" {
			b.WriteString(s.Content)
			b.WriteString("\n")
		}
		if s.Term != "" && s.Definition != "" {
			b.WriteString(s.Term)
			b.WriteString(": ")
			b.WriteString(s.Definition)
			b.WriteString("\n")
		}
		if len(s.Items) > 0 {
			b.WriteString(strings.Join(s.Items, "\n"))
			b.WriteString("\n")
		}
		if len(s.Concepts) > 0 {
			b.WriteString(strings.Join(s.Concepts, ", "))
			b.WriteString("\n")
		}
	}
	if len(d.KeyConcepts) > 0 {
		b.WriteString("Conceptos clave: ")
		b.WriteString(strings.Join(d.KeyConcepts, ", "))
		b.WriteString("\n")
	}
	if d.Summary != "" {
		b.WriteString(d.Summary)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// ContainsText reports whether needle appears verbatim anywhere in the
// document's textual content.
func (d *Document) ContainsText(needle string) bool {
	if strings.Contains(d.Title, needle) {
		return true
	}
	for _, s := range d.Sections {
		if strings.Contains(s.Content, needle) || strings.Contains(s.Definition, needle) {
			return true
		}
		for _, it := range s.Items {
			if strings.Contains(it, needle) {
				return true
			}
		}
	}
	return strings.Contains(d.Summary, needle)
}
