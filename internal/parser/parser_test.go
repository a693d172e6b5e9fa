package parser

import (
	"strings"
	"testing"

	"github.com/dicttr/dicttr-go/internal/document"
)

const validDoc = `{
	"title": "Fotosíntesis",
	"sections": [
		{"type": "heading", "level": 1, "content": "Introducción"},
		{"type": "paragraph", "content": "La fotosíntesis es el proceso."}
	],
	"key_concepts": ["clorofila"],
	"summary": "Resumen breve."
}`

func TestParseStrictJSON(t *testing.T) {
	doc := Parse(validDoc)
	if doc.Title != "Fotosíntesis" {
		t.Fatalf("title = %q", doc.Title)
	}
	if len(doc.Sections) != 2 {
		t.Fatalf("sections = %d", len(doc.Sections))
	}
	if doc.Sections[0].Type != document.SectionHeading {
		t.Fatalf("first section type = %q", doc.Sections[0].Type)
	}
}

func TestParseFencedBlock(t *testing.T) {
	for _, raw := range []string{
		"Aquí tienes el documento:\n```json\n" + validDoc + "\n```\nEspero que sirva.",
		"```\n" + validDoc + "\n```",
	} {
		doc := Parse(raw)
		if doc.Title != "Fotosíntesis" {
			t.Fatalf("fenced recovery failed for %q...: title = %q", raw[:20], doc.Title)
		}
	}
}

func TestParseStrayFenceMarkers(t *testing.T) {
	doc := Parse("```json\n" + validDoc)
	if doc.Title != "Fotosíntesis" {
		t.Fatalf("title = %q", doc.Title)
	}
}

func TestParseJSONBuriedInProse(t *testing.T) {
	raw := "Claro, aquí está el análisis solicitado. " + validDoc + " ¿Necesitas algo más?"
	doc := Parse(raw)
	if doc.Title != "Fotosíntesis" {
		t.Fatalf("title = %q", doc.Title)
	}
}

func TestParseGarbageNeverFails(t *testing.T) {
	for _, raw := range []string{
		"",
		"no hay json aquí",
		"{truncated",
		`{"title": "Sin secciones", "sections": []}`,
		"```json\n{broken\n```",
	} {
		doc := Parse(raw)
		if doc == nil {
			t.Fatalf("nil document for %q", raw)
		}
		if len(doc.Sections) == 0 {
			t.Fatalf("no sections for %q", raw)
		}
		if doc.Sections[0].Type != document.SectionParagraph {
			t.Fatalf("terminal rung produced %q for %q", doc.Sections[0].Type, raw)
		}
	}
}

func TestParseTerminalPreservesRawText(t *testing.T) {
	raw := "respuesta completamente libre sin estructura alguna"
	doc := Parse(raw)
	if !strings.Contains(doc.Sections[0].Content, raw) {
		t.Fatalf("raw text lost: %q", doc.Sections[0].Content)
	}
}

func TestParseSectionValid(t *testing.T) {
	sec := ParseSection(`{"type": "concept_block", "term": "ADN", "definition": "Ácido desoxirribonucleico"}`,
		document.SectionConcept)
	if sec.Term != "ADN" {
		t.Fatalf("term = %q", sec.Term)
	}
}

func TestParseSectionFenced(t *testing.T) {
	sec := ParseSection("```json\n{\"type\": \"list\", \"style\": \"numbered\", \"items\": [\"uno\", \"dos\"]}\n```",
		document.SectionList)
	if sec.Style != document.ListNumbered || len(sec.Items) != 2 {
		t.Fatalf("section = %+v", sec)
	}
}

func TestParseSectionFallsBackToWantedType(t *testing.T) {
	sec := ParseSection("texto plano sin json", document.SectionList)
	if sec.Type != document.SectionList {
		t.Fatalf("type = %q", sec.Type)
	}
	if len(sec.Items) != 1 || sec.Items[0] != "texto plano sin json" {
		t.Fatalf("items = %v", sec.Items)
	}
}

func TestFallbackSectionShapes(t *testing.T) {
	cases := []struct {
		want document.SectionType
		chk  func(document.Section) bool
	}{
		{document.SectionHeading, func(s document.Section) bool { return s.Level == 2 && s.Content == "x" }},
		{document.SectionList, func(s document.Section) bool { return len(s.Items) == 1 }},
		{document.SectionConcept, func(s document.Section) bool { return s.Definition == "x" && s.Term != "" }},
		{document.SectionSummary, func(s document.Section) bool { return s.Content == "x" }},
		{document.SectionKeyConcepts, func(s document.Section) bool { return len(s.Concepts) == 1 }},
		{document.SectionParagraph, func(s document.Section) bool { return s.Content == "x" }},
	}
	for _, c := range cases {
		sec := FallbackSection(c.want, "x")
		if sec.Type != c.want {
			t.Fatalf("want %q, got %q", c.want, sec.Type)
		}
		if !c.chk(sec) {
			t.Fatalf("%q fallback malformed: %+v", c.want, sec)
		}
	}
}
