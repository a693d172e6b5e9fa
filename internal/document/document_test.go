package document

import (
	"encoding/json"
	"strings"
	"testing"
)

func decodeSection(t *testing.T, raw string) Section {
	t.Helper()
	var s Section
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	return s
}

func TestSectionDecodeKnownTypes(t *testing.T) {
	s := decodeSection(t, `{"type": "heading", "level": 1, "content": "Tema"}`)
	if s.Type != SectionHeading || s.Level != 1 {
		t.Fatalf("section = %+v", s)
	}

	s = decodeSection(t, `{"type": "list", "style": "numbered", "items": ["a", "b"]}`)
	if s.Style != ListNumbered || len(s.Items) != 2 {
		t.Fatalf("section = %+v", s)
	}
}

func TestSectionDecodeBareString(t *testing.T) {
	s := decodeSection(t, `"solo texto"`)
	if s.Type != SectionParagraph || s.Content != "solo texto" {
		t.Fatalf("section = %+v", s)
	}
}

func TestSectionDecodeUnknownTypeBecomesParagraph(t *testing.T) {
	s := decodeSection(t, `{"type": "tabla_magica", "content": "contenido raro"}`)
	if s.Type != SectionParagraph {
		t.Fatalf("type = %q", s.Type)
	}
	if s.Content != "contenido raro" {
		t.Fatalf("content = %q", s.Content)
	}
}

func TestSectionDecodeUnknownTypeNoContentKeepsRawText(t *testing.T) {
	raw := `{"type": "mystery", "payload": 42}`
	s := decodeSection(t, raw)
	if s.Type != SectionParagraph || !strings.Contains(s.Content, "mystery") {
		t.Fatalf("section = %+v", s)
	}
}

func TestSectionDecodeMissingFieldsDefaulted(t *testing.T) {
	s := decodeSection(t, `{"type": "heading", "content": "Sin nivel"}`)
	if s.Level != 2 {
		t.Fatalf("level = %d", s.Level)
	}

	s = decodeSection(t, `{"type": "list"}`)
	if s.Style != ListBulleted {
		t.Fatalf("style = %q", s.Style)
	}
	if s.Items == nil || len(s.Items) != 0 {
		t.Fatalf("items = %v", s.Items)
	}

	s = decodeSection(t, `{"type": "concept_block", "term": "x", "definition": "y"}`)
	if s.Examples == nil {
		t.Fatal("examples not defaulted")
	}

	s = decodeSection(t, `{"type": "key_concepts_block"}`)
	if s.Concepts == nil {
		t.Fatal("concepts not defaulted")
	}
}

func TestDocumentDecodeMixedSections(t *testing.T) {
	raw := `{
		"title": "Clase",
		"sections": [
			{"type": "heading", "level": 1, "content": "Uno"},
			"un párrafo suelto",
			{"type": "desconocido", "content": "x"}
		]
	}`
	var d Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(d.Sections) != 3 {
		t.Fatalf("sections = %d, malformed entries must not be dropped", len(d.Sections))
	}
	if d.Sections[1].Type != SectionParagraph || d.Sections[2].Type != SectionParagraph {
		t.Fatalf("coercion failed: %+v", d.Sections)
	}
}

func TestPlainTextFlattensEverything(t *testing.T) {
	d := Document{
		Title: "Título",
		Sections: []Section{
			Heading(1, "Encabezado"),
			Paragraph("Un párrafo."),
			{Type: SectionList, Items: []string{"uno", "dos"}},
			{Type: SectionConcept, Term: "ADN", Definition: "molécula"},
		},
		KeyConcepts: []string{"gen"},
		Summary:     "Resumen final.",
	}
	text := d.PlainText()
	for _, want := range []string{"Título", "Encabezado", "Un párrafo.", "uno", "dos", "ADN: molécula", "gen", "Resumen final."} {
		if !strings.Contains(text, want) {
			t.Fatalf("PlainText missing %q:\n%s", want, text)
		}
	}
}

func TestBlocksConversion(t *testing.T) {
	d := Document{
		Title: "Título",
		Sections: []Section{
			Heading(2, "Sub"),
			Paragraph("texto"),
			{Type: SectionList, Style: ListNumbered, Items: []string{"a"}},
			{Type: SectionKeyConcepts, Concepts: []string{"x", "y"}},
		},
	}
	blocks := d.Blocks()
	if len(blocks) != 5 {
		t.Fatalf("blocks = %d", len(blocks))
	}
	if blocks[0].Type != "h1" || blocks[0].Text != "Título" {
		t.Fatalf("title block = %+v", blocks[0])
	}
	if blocks[1].Type != "h2" {
		t.Fatalf("heading block = %+v", blocks[1])
	}
	if blocks[3].Type != "numbered_list" {
		t.Fatalf("list block = %+v", blocks[3])
	}
	seen := map[string]bool{}
	for _, b := range blocks {
		if b.ID == "" {
			t.Fatal("block without id")
		}
		if seen[b.ID] {
			t.Fatalf("duplicate block id %q", b.ID)
		}
		seen[b.ID] = true
	}
}

func TestBlocksFromSegments(t *testing.T) {
	segs := []TranscriptSegment{
		{Index: 0, StartSeconds: 0, EndSeconds: 4.6, Text: "# Tema principal", Confidence: 0.9},
		{Index: 1, StartSeconds: 4.6, EndSeconds: 9, Text: "- primer punto"},
		{Index: 2, StartSeconds: 9, EndSeconds: 14, Text: "1. primero numerado", Confidence: 0.92},
		{Index: 3, StartSeconds: 14, EndSeconds: 20, Text: "Texto normal del profesor.", Confidence: 0.95},
	}
	doc := BlocksFromSegments(segs, "es")
	if doc.Language != "es" || doc.Version != 2 {
		t.Fatalf("doc meta = %+v", doc)
	}
	if len(doc.Blocks) != 4 {
		t.Fatalf("blocks = %d", len(doc.Blocks))
	}
	if doc.Blocks[0].Type != "h1" || doc.Blocks[0].Text != "Tema principal" {
		t.Fatalf("heading block = %+v", doc.Blocks[0])
	}
	if doc.Blocks[1].Type != "bulleted_list" || doc.Blocks[1].Items[0] != "primer punto" {
		t.Fatalf("bullet block = %+v", doc.Blocks[1])
	}
	if doc.Blocks[2].Type != "numbered_list" {
		t.Fatalf("numbered block = %+v", doc.Blocks[2])
	}
	if doc.Blocks[3].Type != "paragraph" || doc.Blocks[3].Time.End != 20 {
		t.Fatalf("paragraph block = %+v", doc.Blocks[3])
	}
	// Missing confidence takes the default, present ones survive.
	if doc.Blocks[1].Confidence != 0.8 || doc.Blocks[3].Confidence != 0.95 {
		t.Fatalf("confidence defaulting wrong: %v %v", doc.Blocks[1].Confidence, doc.Blocks[3].Confidence)
	}
}
