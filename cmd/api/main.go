package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dicttr/dicttr-go/internal/config"
	"github.com/dicttr/dicttr-go/internal/document"
	"github.com/dicttr/dicttr-go/internal/enhancer"
	"github.com/dicttr/dicttr-go/internal/export"
	"github.com/dicttr/dicttr-go/internal/llm"
	"github.com/dicttr/dicttr-go/internal/logger"
	"github.com/dicttr/dicttr-go/internal/prompts"
	"github.com/dicttr/dicttr-go/internal/store"
	"github.com/dicttr/dicttr-go/internal/transcriber"
)

type server struct {
	cfg        config.Config
	store      *store.Store
	enhancer   *enhancer.Service
	transcribe *transcriber.Service
}

func main() {
	_ = godotenv.Load() // loads .env

	log := logger.New()
	log.WithField("service", "dicttr-go").Info("starting service")

	cfg := config.Load()

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("failed to open store")
	}
	defer db.Close()
	log.WithField("db_path", cfg.DBPath).Info("store ready")

	model := llm.New(cfg)
	if !model.Configured() {
		log.Warn("model credential not configured, enhancement runs in local mode")
	}

	s := &server{
		cfg:        cfg,
		store:      db,
		enhancer:   enhancer.New(model, cfg),
		transcribe: transcriber.New(cfg),
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		logger.New().WithRequest(r).Info("health check")
		fmt.Fprint(w, "ok")
	})

	mux.HandleFunc("POST /transcriptions", s.handleTranscribe)
	mux.HandleFunc("GET /transcriptions", s.handleListTranscriptions)
	mux.HandleFunc("POST /enhance", s.handleEnhance)
	mux.HandleFunc("POST /blocks/generate", s.handleGenerateBlock)
	mux.HandleFunc("POST /expand", s.handleExpand)
	mux.HandleFunc("POST /study-material", s.handleStudyMaterial)
	mux.HandleFunc("POST /export", s.handleExport)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // transcription plus chunked enhancement can run long
		IdleTimeout:  120 * time.Second,
	}
	log.WithField("addr", addr).Info("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("server terminated")
	}
}

type transcribeRequest struct {
	AudioPath           string `json:"audio_path"`
	Language            string `json:"language,omitempty"`
	UserID              string `json:"user_id,omitempty"`
	Subscription        string `json:"subscription,omitempty"`
	Subject             string `json:"subject,omitempty"`
	TranslationLanguage string `json:"translation_language,omitempty"`
}

type transcribeResponse struct {
	ID         string                      `json:"id"`
	Transcript *document.RawTranscript     `json:"transcript"`
	Result     *document.EnhancementResult `json:"result"`
	Blocks     document.BlockDocument      `json:"blocks"`
}

func (s *server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "transcribe")

	var req transcribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AudioPath == "" {
		reqLog.Warn("missing audio_path")
		http.Error(w, "missing audio_path", http.StatusBadRequest)
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}
	if req.Subscription == "" {
		req.Subscription = "free"
	}
	reqLog = reqLog.WithField("audio_path", req.AudioPath).WithField("user_id", req.UserID)

	check, err := s.store.CheckUsageLimits(req.UserID, req.Subscription, store.Usage{TranscriptionCount: 1})
	if err != nil {
		reqLog.WithError(err).Error("usage check failed")
		http.Error(w, "usage check failed", http.StatusInternalServerError)
		return
	}
	if !check.CanProcess {
		reqLog.WithField("subscription", check.Subscription).Warn("usage limit reached")
		writeJSON(w, http.StatusTooManyRequests, check)
		return
	}

	start := time.Now()
	transcript, err := s.transcribe.Transcribe(r.Context(), req.AudioPath, req.Language)
	if err != nil {
		if errors.Is(err, transcriber.ErrTooLarge) {
			reqLog.WithError(err).Warn("audio rejected")
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		reqLog.WithError(err).Warn("transcription aborted")
		http.Error(w, "transcription aborted", http.StatusServiceUnavailable)
		return
	}
	reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).
		WithField("simulated", transcript.IsSimulated).Info("transcript acquired")

	subject := req.Subject
	if subject == "" {
		subject = s.enhancer.GenerateSubject(r.Context(), transcript.Text, transcript.Language)
	}

	res, err := s.enhancer.Enhance(r.Context(), transcript.Text, subject, transcript.Language)
	if err != nil {
		reqLog.WithError(err).Warn("enhancement cancelled")
		http.Error(w, "enhancement cancelled", http.StatusServiceUnavailable)
		return
	}

	id, err := s.store.SaveTranscription(req.UserID, res, transcript.Language, req.TranslationLanguage)
	if err != nil {
		reqLog.WithError(err).Error("save failed")
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	if err := s.store.TrackUsage(req.UserID, time.Now(), 1, transcript.DurationSeconds/60); err != nil {
		reqLog.WithError(err).Warn("usage tracking failed")
	}

	blocks := document.BlocksFromSegments(transcript.Segments, transcript.Language)
	if _, err := s.store.SaveDocument(req.UserID, id, blocks); err != nil {
		reqLog.WithError(err).Warn("block document save failed")
	}

	reqLog.WithField("transcription_id", id).Info("transcription stored")
	writeJSON(w, http.StatusOK, transcribeResponse{
		ID:         id,
		Transcript: transcript,
		Result:     res,
		Blocks:     blocks,
	})
}

func (s *server) handleListTranscriptions(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "list_transcriptions")

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	records, err := s.store.ListTranscriptions(userID, limit, offset)
	if err != nil {
		reqLog.WithError(err).Error("list failed")
		http.Error(w, "list failed", http.StatusInternalServerError)
		return
	}
	reqLog.WithField("count", len(records)).Info("transcriptions listed")
	writeJSON(w, http.StatusOK, records)
}

type enhanceRequest struct {
	Text     string `json:"text"`
	Subject  string `json:"subject,omitempty"`
	Language string `json:"language,omitempty"`
}

func (s *server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "enhance")

	var req enhanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		reqLog.Warn("missing text")
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}
	lang := prompts.Normalize(req.Language)

	start := time.Now()
	res, err := s.enhancer.Enhance(r.Context(), req.Text, req.Subject, lang)
	if err != nil {
		reqLog.WithError(err).Warn("enhancement cancelled")
		http.Error(w, "enhancement cancelled", http.StatusServiceUnavailable)
		return
	}
	reqLog.WithField("duration_ms", time.Since(start).Milliseconds()).
		WithField("was_chunked", res.WasChunked).
		WithField("is_local", res.IsLocalFallback).Info("enhancement finished")
	writeJSON(w, http.StatusOK, res)
}

type generateBlockRequest struct {
	BlockType string `json:"block_type,omitempty"`
	Prompt    string `json:"prompt"`
	Context   string `json:"context,omitempty"`
	Subject   string `json:"subject,omitempty"`
}

func (s *server) handleGenerateBlock(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "generate_block")

	var req generateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Prompt == "" {
		reqLog.Warn("missing prompt")
		http.Error(w, "missing prompt", http.StatusBadRequest)
		return
	}

	block := s.enhancer.GenerateBlock(r.Context(),
		document.SectionType(req.BlockType), req.Prompt, req.Context, req.Subject)
	reqLog.WithField("block_type", block.Section.Type).Info("block generated")
	writeJSON(w, http.StatusOK, block)
}

type expandRequest struct {
	Text     string `json:"text"`
	Subject  string `json:"subject,omitempty"`
	Language string `json:"language,omitempty"`
}

func (s *server) handleExpand(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "expand")

	var req expandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		reqLog.Warn("missing text")
		http.Error(w, "missing text", http.StatusBadRequest)
		return
	}

	out := s.enhancer.ExpandText(r.Context(), req.Text, req.Subject, prompts.Normalize(req.Language))
	reqLog.WithField("is_local", out.IsLocal).Info("text expanded")
	writeJSON(w, http.StatusOK, out)
}

type studyMaterialRequest struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	Language string `json:"language,omitempty"`
}

func (s *server) handleStudyMaterial(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "study_material")

	var req studyMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		reqLog.Warn("missing content")
		http.Error(w, "missing content", http.StatusBadRequest)
		return
	}

	out := s.enhancer.GenerateStudyMaterial(r.Context(),
		req.Content, req.Type, prompts.Normalize(req.Language))
	reqLog.WithField("material_type", out.Type).WithField("is_local", out.IsLocal).
		Info("study material generated")
	writeJSON(w, http.StatusOK, out)
}

type exportRequest struct {
	Document *document.Document `json:"document"`
	Path     string             `json:"path,omitempty"`
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "export")

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Document == nil {
		reqLog.Warn("missing document")
		http.Error(w, "missing document", http.StatusBadRequest)
		return
	}
	if req.Path == "" {
		req.Path = "study_sheet.xlsx"
	}

	if err := export.WriteStudySheet(req.Document, req.Path); err != nil {
		reqLog.WithError(err).Error("export failed")
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	reqLog.WithField("path", req.Path).Info("study sheet written")
	writeJSON(w, http.StatusOK, map[string]string{"path": req.Path})
}

func (s *server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "get_document")

	id := r.PathValue("id")
	rec, err := s.store.GetDocument(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		reqLog.WithError(err).Error("lookup failed")
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.New().WithError(err).Error("failed to write response")
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
