package document

import "time"

// TranscriptSegment is one time-aligned slice of the raw transcript.
// Segments are ordered by Index and contiguous in time; the last segment may
// be shorter than the rest.
type TranscriptSegment struct {
	Index        int     `json:"id"`
	StartSeconds float64 `json:"start"`
	EndSeconds   float64 `json:"end"`
	Text         string  `json:"text"`
	Confidence   float64 `json:"confidence"`
}

// RawTranscript is the immutable output of transcription acquisition.
type RawTranscript struct {
	Text            string              `json:"text"`
	DurationSeconds float64             `json:"duration"`
	Confidence      float64             `json:"confidence"`
	IsSimulated     bool                `json:"is_simulated"`
	Segments        []TranscriptSegment `json:"segments"`
	Language        string              `json:"language"`
	FileSizeMB      float64             `json:"file_size"`
}

// Chunk is a bounded-size slice of input text preserving sentence
// boundaries. Ordering is significant and preserved through merge.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// EnhancementResult is created once per enhancement call and never mutated
// after construction.
type EnhancementResult struct {
	Document        *Document `json:"enhanced_text"`
	OriginalText    string    `json:"original_text"`
	Subject         string    `json:"subject"`
	WasChunked      bool      `json:"was_chunked"`
	ChunkCount      int       `json:"chunk_count,omitempty"`
	IsLocalFallback bool      `json:"is_local,omitempty"`
	ProcessedAt     time.Time `json:"processed_at"`
}
