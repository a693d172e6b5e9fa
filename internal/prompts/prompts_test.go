package prompts

import (
	"strings"
	"testing"

	"github.com/dicttr/dicttr-go/internal/document"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"es": "es",
		"en": "en",
		"fr": "fr",
		"":   "es",
		"xx": "es",
		"ES": "es", // codes are lowercase, anything else is unsupported
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSpeechSupported(t *testing.T) {
	if !SpeechSupported("es") || !SpeechSupported("en") {
		t.Fatal("core languages must be supported")
	}
	if SpeechSupported("xx") || SpeechSupported("") {
		t.Fatal("unknown codes must not be supported")
	}
}

func TestEnhancementIncludesSubjectSuffix(t *testing.T) {
	plain := Enhancement("asignatura_desconocida", "es")
	med := Enhancement("medicina", "es")
	if med == plain {
		t.Fatal("known subject must specialize the prompt")
	}
	if !strings.Contains(med, "es") {
		t.Fatal("target language missing from prompt")
	}
}

func TestEnhancementUnknownLanguageUsesDefault(t *testing.T) {
	if Enhancement("medicina", "xx") != Enhancement("medicina", "es") {
		t.Fatal("unknown language must use the default prompt")
	}
}

func TestStudyUnknownTypeFallsBackToSummary(t *testing.T) {
	if Study("tipo_inexistente", "es") != Study("summary", "es") {
		t.Fatal("unknown material type must use summary instruction")
	}
	if Study("flashcards", "es") == Study("summary", "es") {
		t.Fatal("known material types must differ")
	}
}

func TestBlockGenerationCarriesFormatContract(t *testing.T) {
	p := BlockGeneration(document.SectionConcept, "")
	if !strings.Contains(p, "Formato EXACTO") {
		t.Fatalf("format contract missing:\n%s", p)
	}
	if !strings.Contains(p, string(document.SectionConcept)) {
		t.Fatalf("block type missing from contract:\n%s", p)
	}
}

func TestTranslateSubject(t *testing.T) {
	cases := []struct {
		subject, lang, want string
	}{
		{"medicina", "en", "medicine"},
		{"general", "fr", "général"},
		{"tecnologia", "es", "tecnología"},
		{"derecho", "de", "recht"},
		{"arte", "es", "arte"},         // unknown subject passes through
		{"medicina", "xx", "medicina"}, // unknown language uses the default table
	}
	for _, c := range cases {
		if got := TranslateSubject(c.subject, c.lang); got != c.want {
			t.Fatalf("TranslateSubject(%q, %q) = %q, want %q", c.subject, c.lang, got, c.want)
		}
	}
}

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		prompt string
		want   document.SectionType
	}{
		{"haz una lista de los temas", document.SectionList},
		{"Enumera los pasos del proceso", document.SectionList},
		{"extrae los conceptos clave", document.SectionKeyConcepts},
		{"dame la definición de mitosis", document.SectionConcept},
		{"haz un resumen del texto", document.SectionSummary},
		{"pon un título a esta sección", document.SectionHeading},
		{"explica el tema con tus palabras", document.SectionParagraph},
		{"", document.SectionParagraph},
	}
	for _, c := range cases {
		if got := ClassifyIntent(c.prompt); got != c.want {
			t.Fatalf("ClassifyIntent(%q) = %q, want %q", c.prompt, got, c.want)
		}
	}
}

func TestClassifyIntentRuleOrder(t *testing.T) {
	// "conceptos clave" must win over the bare "concepto" rule.
	if got := ClassifyIntent("identifica los conceptos clave"); got != document.SectionKeyConcepts {
		t.Fatalf("rule order broken: got %q", got)
	}
}
