// Package enhancer turns raw transcript text into a structured document,
// surviving oversized inputs, malformed model output and total model
// unavailability. The contract is "degrade gracefully": every call produces
// a usable document, at worst a locally generated one.
package enhancer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dicttr/dicttr-go/internal/chunker"
	"github.com/dicttr/dicttr-go/internal/config"
	"github.com/dicttr/dicttr-go/internal/document"
	"github.com/dicttr/dicttr-go/internal/logger"
	"github.com/dicttr/dicttr-go/internal/parser"
	"github.com/dicttr/dicttr-go/internal/prompts"
)

// Invoker is the single-call model boundary. *llm.Client satisfies it.
type Invoker interface {
	Configured() bool
	Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// IntentClassifier picks a section type from a free-text user instruction.
type IntentClassifier func(userPrompt string) document.SectionType

// defaultSubject substitutes for an empty subject everywhere one is taken.
const defaultSubject = "general"

type Service struct {
	invoker         Invoker
	lengthThreshold int
	maxChunkChars   int
	chunkPause      time.Duration

	// ClassifyIntent is pluggable; it defaults to the keyword table in the
	// prompts package.
	ClassifyIntent IntentClassifier
}

func New(inv Invoker, cfg config.Config) *Service {
	return &Service{
		invoker:         inv,
		lengthThreshold: cfg.LengthThreshold,
		maxChunkChars:   cfg.MaxChunkChars,
		chunkPause:      cfg.ChunkPause,
		ClassifyIntent:  prompts.ClassifyIntent,
	}
}

// Enhance produces a structured document from raw transcript text. It
// returns an error only when ctx is cancelled; every other failure mode
// resolves to a local fallback result.
func (s *Service) Enhance(ctx context.Context, rawText, subject, lang string) (res *document.EnhancementResult, err error) {
	lang = prompts.Normalize(lang)
	if subject == "" {
		subject = defaultSubject
	}
	log := logger.WithComponent("enhancer").WithFields(logrus.Fields{
		"subject":  subject,
		"language": lang,
		"text_len": len(rawText),
	})

	// The parser never fails and the invoker returns errors, so a panic here
	// is a bug; the caller still gets a document.
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("enhancement panicked, using local fallback")
			res, err = s.localResult(rawText, subject, lang), nil
		}
	}()

	if !s.invoker.Configured() {
		log.Info("model unconfigured, using local enhancement")
		return s.localResult(rawText, subject, lang), nil
	}

	if len(rawText) <= s.lengthThreshold {
		return s.enhanceSingle(ctx, rawText, subject, lang, log)
	}
	return s.enhanceChunked(ctx, rawText, subject, lang, log)
}

func (s *Service) enhanceSingle(ctx context.Context, rawText, subject, lang string, log *logrus.Entry) (*document.EnhancementResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	system := prompts.Enhancement(subject, lang)
	user := "Mejora esta transcripción de clase:\n\n" + rawText

	reply, err := s.invoker.Invoke(ctx, system, user)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("model call failed, using local enhancement")
		return s.localResult(rawText, subject, lang), nil
	}

	return &document.EnhancementResult{
		Document:     parser.Parse(reply),
		OriginalText: rawText,
		Subject:      subject,
		WasChunked:   false,
		ProcessedAt:  time.Now().UTC(),
	}, nil
}

func (s *Service) enhanceChunked(ctx context.Context, rawText, subject, lang string, log *logrus.Entry) (*document.EnhancementResult, error) {
	chunks := chunker.Split(rawText, s.maxChunkChars)
	if len(chunks) == 0 {
		// Whitespace-only text splits to nothing; the local document still
		// carries it so the result is never section-less.
		log.Warn("text produced no chunks, using local enhancement")
		return s.localResult(rawText, subject, lang), nil
	}
	log.WithField("chunk_count", len(chunks)).Info("text over threshold, chunking")

	system := prompts.Enhancement(subject, lang) +
		"\n\nEstás procesando una parte de un texto más largo. Mejora esta sección manteniendo coherencia con el resto."

	combined := &document.Document{
		Title:       "Transcripción Mejorada",
		Sections:    []document.Section{},
		KeyConcepts: []string{},
	}
	var summaries []string

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		user := fmt.Sprintf("Mejora esta sección de la transcripción (parte %d/%d):\n\n%s",
			chunk.Index+1, len(chunks), chunk.Text)

		reply, err := s.invoker.Invoke(ctx, system, user)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A failed chunk keeps its original text; the rest of the
			// pipeline proceeds.
			log.WithError(err).WithField("chunk", chunk.Index+1).Warn("chunk call failed, keeping original text")
			combined.Sections = append(combined.Sections, document.Paragraph(chunk.Text))
			continue
		}

		part := parser.Parse(reply)
		combined.Sections = append(combined.Sections, part.Sections...)
		combined.KeyConcepts = append(combined.KeyConcepts, part.KeyConcepts...)
		if part.Summary != "" {
			summaries = append(summaries, part.Summary)
		}

		// Pace requests so the external rate limit is respected.
		if chunk.Index < len(chunks)-1 {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}
	}

	// Chunk summaries concatenate unbounded and key concepts keep their
	// duplicates. Many-chunk inputs can make these fields long.
	combined.Summary = strings.Join(summaries, "\n\n")

	return &document.EnhancementResult{
		Document:     combined,
		OriginalText: rawText,
		Subject:      subject,
		WasChunked:   true,
		ChunkCount:   len(chunks),
		ProcessedAt:  time.Now().UTC(),
	}, nil
}

func (s *Service) pause(ctx context.Context) error {
	if s.chunkPause <= 0 {
		return nil
	}
	t := time.NewTimer(s.chunkPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) localResult(rawText, subject, lang string) *document.EnhancementResult {
	return &document.EnhancementResult{
		Document:        LocalDocument(rawText, subject, lang),
		OriginalText:    rawText,
		Subject:         subject,
		WasChunked:      false,
		IsLocalFallback: true,
		ProcessedAt:     time.Now().UTC(),
	}
}

// LocalDocument builds a schema-valid document with no network dependency.
// The original raw text is always carried verbatim in a paragraph.
func LocalDocument(rawText, subject, lang string) *document.Document {
	if subject == "" {
		subject = defaultSubject
	}
	title := "Transcripción sobre " + prompts.TranslateSubject(subject, lang)
	sections := []document.Section{
		document.Heading(1, title),
		document.Paragraph("Esta transcripción ha sido procesada localmente sin dependencia de servicios externos."),
		document.Paragraph(rawText),
	}

	words := strings.Fields(rawText)
	if len(words) > 50 {
		summary := rawText
		if r := []rune(summary); len(r) > 100 {
			summary = string(r[:100]) + "..."
		}
		sections = append(sections,
			document.Heading(2, "Resumen"),
			document.Section{Type: document.SectionSummary, Content: summary},
		)
	}
	if len(words) > 100 {
		var concepts []string
		for _, w := range words {
			if len(concepts) == 5 {
				break
			}
			w = strings.Trim(w, ".,!?")
			if len(w) > 5 {
				concepts = append(concepts, w)
			}
		}
		sections = append(sections,
			document.Heading(2, "Conceptos Clave"),
			document.Section{Type: document.SectionKeyConcepts, Concepts: concepts},
		)
	}

	return &document.Document{
		Title:       title,
		Sections:    sections,
		KeyConcepts: []string{},
		Summary:     "Transcripción procesada localmente",
	}
}
