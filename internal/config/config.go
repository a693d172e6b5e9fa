package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything read from the process environment at startup.
// A missing credential is a valid configuration: the pipeline degrades to
// its local fallbacks instead of refusing to start.
type Config struct {
	// Generative model (OpenAI-compatible chat completions endpoint).
	ModelBaseURL     string
	ModelAPIKey      string
	ModelID          string
	ModelTemperature float64
	ModelMaxTokens   int

	// Speech-to-text API.
	SpeechBaseURL string
	SpeechAPIKey  string
	SpeechModelID string

	// Enhancement thresholds.
	LengthThreshold int
	MaxChunkChars   int
	ChunkPause      time.Duration

	// Transcription limits.
	MaxAudioMB     float64
	MaxAttempts    int
	AttemptTimeout time.Duration

	DefaultLanguage string
	DBPath          string
	Port            string
}

func Load() Config {
	return Config{
		ModelBaseURL:     envOr("MODEL_API_URL", "https://api.deepseek.com/chat/completions"),
		ModelAPIKey:      os.Getenv("MODEL_API_KEY"),
		ModelID:          envOr("MODEL_ID", "deepseek-chat"),
		ModelTemperature: envFloat("MODEL_TEMPERATURE", 0.7),
		ModelMaxTokens:   envInt("MODEL_MAX_TOKENS", 4000),

		SpeechBaseURL: envOr("SPEECH_API_URL", "https://api.groq.com/openai/v1/audio/transcriptions"),
		SpeechAPIKey:  os.Getenv("SPEECH_API_KEY"),
		SpeechModelID: envOr("SPEECH_MODEL_ID", "whisper-large-v3-turbo"),

		LengthThreshold: envInt("LENGTH_THRESHOLD", 100000),
		MaxChunkChars:   envInt("MAX_CHUNK_CHARS", 20000),
		ChunkPause:      envDuration("CHUNK_PAUSE", time.Second),

		MaxAudioMB:     envFloat("MAX_AUDIO_MB", 100),
		MaxAttempts:    envInt("TRANSCRIBE_ATTEMPTS", 3),
		AttemptTimeout: envDuration("TRANSCRIBE_TIMEOUT", 3*time.Minute),

		DefaultLanguage: envOr("DEFAULT_LANGUAGE", "es"),
		DBPath:          envOr("DB_PATH", "dicttr.sqlite"),
		Port:            envOr("PORT", "8080"),
	}
}

// placeholderKeys are the sample values shipped in .env templates. A key
// matching one of these means "not configured", not "misconfigured".
var placeholderKeys = []string{
	"sk-your-deepseek-api-key-here",
	"gsk-your-groq-api-key-here",
	"your-api-key-here",
}

// UsableCredential applies cheap structural heuristics to decide whether a
// key is worth a network round trip. Not a security control.
func UsableCredential(key string) bool {
	if key == "" || len(key) < 20 {
		return false
	}
	for _, p := range placeholderKeys {
		if key == p {
			return false
		}
	}
	if strings.Contains(key, "invalid") || strings.Contains(key, "expired") {
		return false
	}
	return true
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
