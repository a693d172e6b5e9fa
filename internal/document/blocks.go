package document

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Block is the individually editable unit the document editor works on.
type Block struct {
	ID         string     `json:"id"`
	Type       string     `json:"type"`
	Text       string     `json:"text,omitempty"`
	Items      []string   `json:"items,omitempty"`
	Term       string     `json:"term,omitempty"`
	Definition string     `json:"definition,omitempty"`
	Examples   []string   `json:"examples,omitempty"`
	Concepts   []string   `json:"concepts,omitempty"`
	Time       *BlockTime `json:"time,omitempty"`
	Confidence float64    `json:"confidence,omitempty"`
	Speaker    string     `json:"speaker,omitempty"`
	Tags       []string   `json:"tags"`
}

type BlockTime struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// BlockDocument is the versioned editor representation of a document.
type BlockDocument struct {
	DocID    string            `json:"doc_id"`
	Meta     map[string]string `json:"meta"`
	Blocks   []Block           `json:"blocks"`
	Version  int               `json:"version"`
	Language string            `json:"language,omitempty"`
}

// Blocks converts the document into editable blocks, the title becoming a
// leading h1.
func (d *Document) Blocks() []Block {
	var blocks []Block
	if d.Title != "" {
		blocks = append(blocks, Block{
			ID:   newBlockID(),
			Type: "h1",
			Text: d.Title,
			Tags: []string{"heading", "title"},
		})
	}
	for _, s := range d.Sections {
		switch s.Type {
		case SectionHeading:
			blocks = append(blocks, Block{
				ID:   newBlockID(),
				Type: fmt.Sprintf("h%d", s.Level),
				Text: s.Content,
				Tags: []string{"heading"},
			})
		case SectionList:
			t := "bulleted_list"
			if s.Style == ListNumbered {
				t = "numbered_list"
			}
			blocks = append(blocks, Block{
				ID:    newBlockID(),
				Type:  t,
				Items: s.Items,
				Tags:  []string{"list"},
			})
		case SectionConcept:
			blocks = append(blocks, Block{
				ID:         newBlockID(),
				Type:       string(SectionConcept),
				Term:       s.Term,
				Definition: s.Definition,
				Examples:   s.Examples,
				Tags:       []string{"concept", "editable"},
			})
		case SectionSummary:
			blocks = append(blocks, Block{
				ID:   newBlockID(),
				Type: string(SectionSummary),
				Text: s.Content,
				Tags: []string{"summary", "editable"},
			})
		case SectionKeyConcepts:
			blocks = append(blocks, Block{
				ID:       newBlockID(),
				Type:     string(SectionKeyConcepts),
				Concepts: s.Concepts,
				Tags:     []string{"key_concepts", "editable"},
			})
		default:
			blocks = append(blocks, Block{
				ID:      newBlockID(),
				Type:    "paragraph",
				Text:    s.Content,
				Speaker: s.Speaker,
				Tags:    []string{},
			})
		}
	}
	return blocks
}

var (
	reBullet   = regexp.MustCompile(`^[-•*]\s`)
	reNumbered = regexp.MustCompile(`^\d+\.\s`)
	reShout    = regexp.MustCompile(`^[A-ZÁÉÍÓÚÑ\s]{10,}:$`)
)

// BlocksFromSegments converts transcript segments into a block document,
// promoting markdown-style headings and list markers found in the text.
func BlocksFromSegments(segments []TranscriptSegment, language string) BlockDocument {
	blocks := make([]Block, 0, len(segments))
	for _, seg := range segments {
		text := strings.TrimSpace(seg.Text)
		b := Block{
			ID:         newBlockID(),
			Type:       "paragraph",
			Text:       text,
			Confidence: orDefault(seg.Confidence, 0.8),
			Time: &BlockTime{
				Start: int(math.Round(seg.StartSeconds)),
				End:   int(math.Round(seg.EndSeconds)),
			},
			Tags: []string{},
		}
		switch {
		case strings.HasPrefix(text, "### "):
			b.Type, b.Text = "h3", strings.TrimPrefix(text, "### ")
		case strings.HasPrefix(text, "## "):
			b.Type, b.Text = "h2", strings.TrimPrefix(text, "## ")
		case strings.HasPrefix(text, "# "):
			b.Type, b.Text = "h1", strings.TrimPrefix(text, "# ")
		case reShout.MatchString(text):
			b.Type = "h2"
		case reBullet.MatchString(text):
			b.Type = "bulleted_list"
			b.Items = []string{reBullet.ReplaceAllString(text, "")}
			b.Text = ""
		case reNumbered.MatchString(text):
			b.Type = "numbered_list"
			b.Items = []string{reNumbered.ReplaceAllString(text, "")}
			b.Text = ""
		}
		blocks = append(blocks, b)
	}
	return BlockDocument{
		DocID:    "doc_" + uuid.New().String(),
		Meta:     map[string]string{"idioma": language},
		Blocks:   blocks,
		Version:  2,
		Language: language,
	}
}

func newBlockID() string {
	return "block_" + uuid.New().String()
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
