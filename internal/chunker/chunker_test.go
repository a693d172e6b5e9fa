package chunker

import (
	"strings"
	"testing"
)

func TestSplitShortTextSingleChunk(t *testing.T) {
	chunks := Split("Hola mundo. Esto es una prueba.", 100)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Index != 0 {
		t.Fatalf("expected index 0, got %d", chunks[0].Index)
	}
}

func TestSplitRoundTrip(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("La fotosíntesis convierte la energía luminosa en energía química. ")
	}
	input := strings.TrimSpace(b.String())

	chunks := Split(input, 500)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Text
	}
	if got := strings.Join(parts, " "); got != input {
		t.Fatalf("joined chunks do not reproduce input:\ngot  %q\nwant %q", got[:120], input[:120])
	}
}

func TestSplitNeverBreaksSentences(t *testing.T) {
	input := "Primera frase corta. Segunda frase un poco más larga que la anterior. " +
		"Tercera frase. ¿Cuarta frase con pregunta? Quinta y última frase aquí."
	chunks := Split(input, 60)

	for _, c := range chunks {
		if len(c.Text) == 0 {
			t.Fatal("empty chunk emitted")
		}
		// Every chunk must end at a sentence boundary except possibly the
		// final one, which carries the unterminated tail.
		last := c.Text[len(c.Text)-1]
		if c.Index < len(chunks)-1 && last != '.' && last != '!' && last != '?' {
			t.Fatalf("chunk %d does not end at a sentence boundary: %q", c.Index, c.Text)
		}
	}
}

func TestSplitOversizedSentenceKeptWhole(t *testing.T) {
	long := strings.Repeat("palabra ", 50) + "final."
	input := "Corta. " + long + " Otra corta."

	chunks := Split(input, 40)
	found := false
	for _, c := range chunks {
		if c.Text == long {
			found = true
		}
		if len(c.Text) > 40 && c.Text != long {
			t.Fatalf("unexpected oversized chunk: %q", c.Text)
		}
	}
	if !found {
		t.Fatal("oversized sentence was split or dropped")
	}
}

func TestSplitIndexesAreSequential(t *testing.T) {
	input := strings.Repeat("Una frase más. ", 50)
	chunks := Split(input, 80)
	for i, c := range chunks {
		if c.Index != i {
			t.Fatalf("chunk %d has index %d", i, c.Index)
		}
	}
}

func TestSplitEmptyInput(t *testing.T) {
	if chunks := Split("", 100); len(chunks) != 0 {
		t.Fatalf("expected no chunks for empty input, got %d", len(chunks))
	}
	if chunks := Split("   \n\t  ", 100); len(chunks) != 0 {
		t.Fatalf("expected no chunks for whitespace input, got %d", len(chunks))
	}
}

func TestSplitDecimalNumbersNotBoundaries(t *testing.T) {
	input := "El valor es 3.14 según la medición. Fin de la nota."
	chunks := Split(input, 1000)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0].Text, "3.14") {
		t.Fatalf("decimal mangled: %q", chunks[0].Text)
	}
}
