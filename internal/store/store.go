// Package store persists transcriptions, editable documents and usage
// metrics in SQLite. Failures here surface to the caller as storage errors,
// distinct from pipeline errors: the pipeline never depends on the store to
// produce its result.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dicttr/dicttr-go/internal/document"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	subject TEXT NOT NULL,
	original_text TEXT NOT NULL,
	enhanced_json TEXT NOT NULL,
	language TEXT NOT NULL,
	translation_language TEXT NOT NULL,
	processing_status TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcriptions_user ON transcriptions(user_id, created_at);

CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	transcription_id TEXT,
	doc_id TEXT NOT NULL,
	meta_json TEXT NOT NULL,
	blocks_json TEXT NOT NULL,
	version INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS usage_metrics (
	user_id TEXT NOT NULL,
	day TEXT NOT NULL,
	transcription_count INTEGER NOT NULL DEFAULT 0,
	audio_minutes REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (user_id, day)
);
`

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type TranscriptionRecord struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Title               string    `json:"title"`
	Subject             string    `json:"subject"`
	OriginalText        string    `json:"original_text"`
	EnhancedJSON        string    `json:"enhanced_text"`
	Language            string    `json:"language"`
	TranslationLanguage string    `json:"translation_language"`
	Status              string    `json:"processing_status"`
	CreatedAt           time.Time `json:"created_at"`
}

// SaveTranscription stores a finished enhancement result and returns the
// generated identifier.
func (s *Store) SaveTranscription(userID string, res *document.EnhancementResult, language, translationLanguage string) (string, error) {
	title := "Transcripción sin título"
	if res.Document != nil && res.Document.Title != "" {
		title = res.Document.Title
	}
	enhanced, err := json.Marshal(res.Document)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}

	id := uuid.New().String()
	_, err = s.db.Exec(`
		INSERT INTO transcriptions
			(id, user_id, title, subject, original_text, enhanced_json, language, translation_language, processing_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'completed', ?)`,
		id, userID, title, res.Subject, res.OriginalText, string(enhanced), language, translationLanguage, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("insert transcription: %w", err)
	}
	return id, nil
}

// ListTranscriptions returns the user's transcriptions, newest first.
func (s *Store) ListTranscriptions(userID string, limit, offset int) ([]TranscriptionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, user_id, title, subject, original_text, enhanced_json, language, translation_language, processing_status, created_at
		FROM transcriptions
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query transcriptions: %w", err)
	}
	defer rows.Close()

	var out []TranscriptionRecord
	for rows.Next() {
		var r TranscriptionRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Title, &r.Subject, &r.OriginalText,
			&r.EnhancedJSON, &r.Language, &r.TranslationLanguage, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transcription: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type DocumentRecord struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"user_id"`
	TranscriptionID string                 `json:"transcription_id,omitempty"`
	Document        document.BlockDocument `json:"document"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// SaveDocument stores an editable block document and returns its id.
func (s *Store) SaveDocument(userID, transcriptionID string, doc document.BlockDocument) (string, error) {
	meta, _ := json.Marshal(doc.Meta)
	blocks, err := json.Marshal(doc.Blocks)
	if err != nil {
		return "", fmt.Errorf("marshal blocks: %w", err)
	}

	id := uuid.New().String()
	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO documents (id, user_id, transcription_id, doc_id, meta_json, blocks_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, nullable(transcriptionID), doc.DocID, string(meta), string(blocks), doc.Version, now, now)
	if err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return id, nil
}

// GetDocument loads a stored block document by id.
func (s *Store) GetDocument(id string) (*DocumentRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, COALESCE(transcription_id, ''), doc_id, meta_json, blocks_json, version, created_at, updated_at
		FROM documents WHERE id = ?`, id)

	var r DocumentRecord
	var metaJSON, blocksJSON string
	err := row.Scan(&r.ID, &r.UserID, &r.TranscriptionID, &r.Document.DocID,
		&metaJSON, &blocksJSON, &r.Document.Version, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan document: %w", err)
	}
	if err := json.Unmarshal([]byte(metaJSON), &r.Document.Meta); err != nil {
		return nil, fmt.Errorf("decode meta: %w", err)
	}
	if err := json.Unmarshal([]byte(blocksJSON), &r.Document.Blocks); err != nil {
		return nil, fmt.Errorf("decode blocks: %w", err)
	}
	return &r, nil
}

// UpdateDocumentBlocks replaces the block list of a stored document.
func (s *Store) UpdateDocumentBlocks(id string, blocks []document.Block) error {
	blocksJSON, err := json.Marshal(blocks)
	if err != nil {
		return fmt.Errorf("marshal blocks: %w", err)
	}
	res, err := s.db.Exec(`UPDATE documents SET blocks_json = ?, updated_at = ? WHERE id = ?`,
		string(blocksJSON), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
