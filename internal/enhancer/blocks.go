package enhancer

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/dicttr/dicttr-go/internal/document"
	"github.com/dicttr/dicttr-go/internal/logger"
	"github.com/dicttr/dicttr-go/internal/parser"
	"github.com/dicttr/dicttr-go/internal/prompts"
)

// GeneratedBlock is the result of a single-block generation request.
type GeneratedBlock struct {
	BlockType   document.SectionType `json:"block_type"`
	Section     document.Section     `json:"generated_content"`
	UserPrompt  string               `json:"user_prompt"`
	IsLocal     bool                 `json:"is_local,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// maxBlockContext caps how much background text accompanies a block
// instruction, so the context cannot drown out what the user asked for.
const maxBlockContext = 1000

// GenerateBlock produces one section of the requested type from a user
// instruction plus background context. The instruction may override the
// requested type when it clearly asks for a different one.
func (s *Service) GenerateBlock(ctx context.Context, blockType document.SectionType, userPrompt, contextText, subject string) *GeneratedBlock {
	if subject == "" {
		subject = defaultSubject
	}
	log := logger.WithComponent("enhancer.blocks")

	finalType := blockType
	if detected := s.ClassifyIntent(userPrompt); detected != document.SectionParagraph {
		finalType = detected
	}
	if finalType != blockType {
		log.WithField("requested", blockType).WithField("detected", finalType).Debug("user intent overrides block type")
	}

	if !s.invoker.Configured() {
		return localBlock(finalType, userPrompt)
	}

	background := truncateRunes(flattenContext(contextText), maxBlockContext)
	user := "INSTRUCCIÓN PRINCIPAL DEL USUARIO:\n" + userPrompt +
		"\n\nCONTEXTO DE FONDO (solo referencia):\n" + background +
		"\n\nGenera exclusivamente el bloque solicitado en formato JSON."

	reply, err := s.invoker.Invoke(ctx, prompts.BlockGeneration(finalType, subject), user)
	if err != nil {
		log.WithError(err).Warn("block generation failed, using local block")
		return localBlock(finalType, userPrompt)
	}

	return &GeneratedBlock{
		BlockType:   finalType,
		Section:     parser.ParseSection(reply, finalType),
		UserPrompt:  userPrompt,
		GeneratedAt: time.Now().UTC(),
	}
}

func localBlock(t document.SectionType, userPrompt string) *GeneratedBlock {
	return &GeneratedBlock{
		BlockType:   t,
		Section:     parser.FallbackSection(t, userPrompt),
		UserPrompt:  userPrompt,
		IsLocal:     true,
		GeneratedAt: time.Now().UTC(),
	}
}

// GenerateSubject infers a short subject from content. It returns "" when
// the model is unavailable or fails; callers substitute their own default.
func (s *Service) GenerateSubject(ctx context.Context, content, lang string) string {
	if !s.invoker.Configured() {
		return ""
	}
	text := truncateRunes(flattenContext(content), maxBlockContext)
	reply, err := s.invoker.Invoke(ctx, prompts.SubjectInference(lang),
		"Analiza este contenido y genera un asunto apropiado:\n\n"+text)
	if err != nil {
		logger.WithComponent("enhancer.subject").WithError(err).Warn("subject inference failed")
		return ""
	}
	return strings.ToLower(strings.TrimSpace(reply))
}

// ExpandedText is the result of free-text content expansion.
type ExpandedText struct {
	ExpandedText string    `json:"expanded_text"`
	OriginalText string    `json:"original_text"`
	Subject      string    `json:"subject"`
	IsLocal      bool      `json:"is_local,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// ExpandText enriches a block's text with additional explanation. Model
// failure degrades to a deterministic local expansion.
func (s *Service) ExpandText(ctx context.Context, text, subject, lang string) *ExpandedText {
	if subject == "" {
		subject = defaultSubject
	}
	if s.invoker.Configured() {
		reply, err := s.invoker.Invoke(ctx, prompts.Expansion(subject, lang),
			"Amplía y enriquece este contenido sobre "+subject+":\n\n"+text)
		if err == nil {
			return &ExpandedText{
				ExpandedText: reply,
				OriginalText: text,
				Subject:      subject,
				ProcessedAt:  time.Now().UTC(),
			}
		}
		logger.WithComponent("enhancer.expand").WithError(err).Warn("expansion failed, using local expansion")
	}
	return &ExpandedText{
		ExpandedText: "# Texto Ampliado sobre " + subject +
			"\n\n## Contenido Original:\n" + text +
			"\n\n## Nota:\nEsta expansión fue generada localmente sin dependencia de servicios externos.",
		OriginalText: text,
		Subject:      subject,
		IsLocal:      true,
		ProcessedAt:  time.Now().UTC(),
	}
}

// StudyMaterial is generated study content of a given type.
type StudyMaterial struct {
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	MermaidCode string    `json:"mermaid_code,omitempty"`
	Language    string    `json:"language"`
	IsLocal     bool      `json:"is_local,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

var reMermaidFence = regexp.MustCompile("(?s)```mermaid\\s*(.*?)\\s*```")

// GenerateStudyMaterial produces summary/flashcards/concepts/quiz/flowchart
// material from enhanced content, with a local fallback.
func (s *Service) GenerateStudyMaterial(ctx context.Context, content, materialType, lang string) *StudyMaterial {
	lang = prompts.Normalize(lang)
	if s.invoker.Configured() {
		reply, err := s.invoker.Invoke(ctx, prompts.Study(materialType, lang), content)
		if err == nil {
			m := &StudyMaterial{
				Type:        materialType,
				Content:     reply,
				Language:    lang,
				GeneratedAt: time.Now().UTC(),
			}
			if materialType == "flowchart" {
				if match := reMermaidFence.FindStringSubmatch(reply); match != nil {
					m.MermaidCode = strings.TrimSpace(match[1])
				} else {
					m.MermaidCode = strings.TrimSpace(reply)
				}
			}
			return m
		}
		logger.WithComponent("enhancer.study").WithError(err).Warn("study material failed, using local material")
	}
	return localStudyMaterial(content, materialType, lang)
}

func localStudyMaterial(content, materialType, lang string) *StudyMaterial {
	sample := truncateRunes(content, 50)
	byLang := map[string]map[string]string{
		"es": {
			"summary":    "Resumen local generado para: " + sample + "...",
			"flashcards": `[{"question":"¿Qué es la transcripción?","answer":"Proceso de convertir audio a texto"}]`,
			"concepts":   "Conceptos clave: transcripción, estudio, aprendizaje, organización",
		},
		"en": {
			"summary":    "Local summary generated for: " + sample + "...",
			"flashcards": `[{"question":"What is transcription?","answer":"Process of converting audio to text"}]`,
			"concepts":   "Key concepts: transcription, study, learning, organization",
		},
	}
	byType, ok := byLang[lang]
	if !ok {
		byType = byLang["es"]
	}
	m := &StudyMaterial{
		Type:        materialType,
		Language:    lang,
		IsLocal:     true,
		GeneratedAt: time.Now().UTC(),
	}
	if materialType == "flowchart" {
		m.MermaidCode = "graph TD\n  A[Inicio] --> B[Análisis del Contenido]\n  B --> C[Generar Resultados]\n  C --> D[Fin]"
		m.Content = "Flujograma local"
		return m
	}
	if c, ok := byType[materialType]; ok {
		m.Content = c
	} else {
		m.Content = byType["summary"]
	}
	return m
}

// flattenContext turns JSON document context into plain text so instruction
// prompts stay small; non-JSON context passes through unchanged.
func flattenContext(contextText string) string {
	trimmed := strings.TrimSpace(contextText)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return contextText
	}
	var doc document.Document
	if err := json.Unmarshal([]byte(trimmed), &doc); err == nil && len(doc.Sections) > 0 {
		return doc.PlainText()
	}
	return contextText
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
