// Package parser extracts a well-formed document from a model's free-form
// reply. It never fails: each strategy in the recovery ladder is stricter
// about structure than the last is about giving up, and the terminal rung
// wraps the raw reply as a single paragraph.
package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/dicttr/dicttr-go/internal/document"
	"github.com/dicttr/dicttr-go/internal/logger"
)

var reFence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// Parse runs the recovery ladder over raw model output. The returned
// document is never nil and always has at least one section.
func Parse(raw string) *document.Document {
	log := logger.WithComponent("parser")

	// 1. The reply is the document.
	if doc := strictParse(raw); doc != nil {
		return doc
	}

	// 2. The document hides in the first fenced code block.
	if m := reFence.FindStringSubmatch(raw); m != nil {
		if doc := strictParse(m[1]); doc != nil {
			log.Debug("document recovered from fenced code block")
			return doc
		}
	}

	// 3. Fence markers litter an otherwise valid reply.
	if doc := strictParse(stripFences(raw)); doc != nil {
		log.Debug("document recovered after fence stripping")
		return doc
	}

	// 4. A balanced JSON object is buried in surrounding prose.
	if candidate := extractBalancedJSON(raw); candidate != "" {
		if doc := strictParse(candidate); doc != nil {
			log.Debug("document recovered from balanced JSON extraction")
			return doc
		}
	}

	// 5. Terminal: keep the text, lose the structure.
	log.Warn("model output unusable as JSON, wrapping raw text as paragraph")
	return &document.Document{
		Sections: []document.Section{document.Paragraph(raw)},
	}
}

// strictParse accepts only replies that decode to a document with at least
// one section. Section-level leniency (unknown variants, missing fields)
// still applies via document.Section's decoder.
func strictParse(s string) *document.Document {
	s = strings.TrimSpace(s)
	if s == "" || !strings.HasPrefix(s, "{") {
		return nil
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return nil
	}
	if len(doc.Sections) == 0 {
		return nil
	}
	return &doc
}

func stripFences(s string) string {
	for _, marker := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, marker, "")
	}
	return strings.TrimSpace(s)
}

// extractBalancedJSON finds the first balanced {...} in s, best effort.
func extractBalancedJSON(s string) string {
	s = strings.ReplaceAll(stripFences(s), "\r\n", "\n")
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}
	return ""
}

// ParseSection recovers a single generated block from a model reply. When
// nothing decodes, the raw reply is folded into a block of the requested
// type so the caller always gets a usable value.
func ParseSection(raw string, want document.SectionType) document.Section {
	for _, candidate := range sectionCandidates(raw) {
		candidate = strings.TrimSpace(candidate)
		if !strings.HasPrefix(candidate, "{") {
			continue
		}
		var sec document.Section
		if err := json.Unmarshal([]byte(candidate), &sec); err == nil && sec.Type != "" {
			return sec
		}
	}
	return FallbackSection(want, strings.TrimSpace(raw))
}

func sectionCandidates(raw string) []string {
	out := []string{raw}
	if m := reFence.FindStringSubmatch(raw); m != nil {
		out = append(out, m[1])
	}
	out = append(out, stripFences(raw))
	if c := extractBalancedJSON(raw); c != "" {
		out = append(out, c)
	}
	return out
}

// FallbackSection shapes raw text into a schema-valid section of the wanted
// type.
func FallbackSection(want document.SectionType, content string) document.Section {
	switch want {
	case document.SectionHeading:
		return document.Heading(2, content)
	case document.SectionList:
		return document.Section{Type: document.SectionList, Style: document.ListBulleted, Items: []string{content}}
	case document.SectionConcept:
		return document.Section{Type: document.SectionConcept, Term: "Concepto", Definition: content, Examples: []string{}}
	case document.SectionSummary:
		return document.Section{Type: document.SectionSummary, Content: content}
	case document.SectionKeyConcepts:
		return document.Section{Type: document.SectionKeyConcepts, Concepts: []string{content}}
	default:
		return document.Paragraph(content)
	}
}
