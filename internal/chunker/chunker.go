// Package chunker splits long transcripts into bounded, sentence-aligned
// chunks so each fits in a single model call.
package chunker

import (
	"strings"

	"github.com/dicttr/dicttr-go/internal/document"
)

// Split greedily packs whole sentences into chunks of at most maxChunkChars.
// A boundary never falls inside a sentence. A single sentence longer than
// maxChunkChars is emitted as its own oversized chunk: the limit is soft,
// content integrity is not. Joining the chunk texts with single spaces
// reproduces the input up to whitespace normalization.
func Split(text string, maxChunkChars int) []document.Chunk {
	var chunks []document.Chunk
	var cur strings.Builder

	flush := func() {
		if t := strings.TrimSpace(cur.String()); t != "" {
			chunks = append(chunks, document.Chunk{Index: len(chunks), Text: t})
		}
		cur.Reset()
	}

	for _, sentence := range sentences(text) {
		if cur.Len() > 0 && cur.Len()+1+len(sentence) > maxChunkChars {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(sentence)
	}
	flush()
	return chunks
}

// sentences splits on a terminator (. ! ?) followed by whitespace. The tail
// after the last terminator is kept as a final sentence.
func sentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 < len(text) && isSpace(text[i+1]) {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				j := i + 1
				for j < len(text) && isSpace(text[j]) {
					j++
				}
				start = j
				i = j - 1
			}
		}
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
