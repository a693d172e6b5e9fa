// Package transcriber acquires a raw transcript for an audio file. The
// speech API is tried with a bounded retry budget, each attempt racing a
// fixed timeout; exhaustion degrades to a deterministic local transcript.
// The one failure that does propagate is an oversized input, which is
// caller misuse rather than service unavailability.
package transcriber

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/dicttr/dicttr-go/internal/config"
	"github.com/dicttr/dicttr-go/internal/document"
	"github.com/dicttr/dicttr-go/internal/logger"
	"github.com/dicttr/dicttr-go/internal/prompts"
)

// ErrTooLarge rejects audio over the size limit before any network call.
var ErrTooLarge = errors.New("audio file exceeds size limit")

// realAPIConfidence is reported for genuine speech API transcripts; the
// local fallback sits below it to signal degraded quality.
const realAPIConfidence = 0.95

type Service struct {
	client         speechClient
	apiKey         string
	maxAudioMB     float64
	maxAttempts    int
	attemptTimeout time.Duration
	backoffUnit    time.Duration
}

func New(cfg config.Config) *Service {
	return &Service{
		client:         newSpeechClient(cfg),
		apiKey:         cfg.SpeechAPIKey,
		maxAudioMB:     cfg.MaxAudioMB,
		maxAttempts:    cfg.MaxAttempts,
		attemptTimeout: cfg.AttemptTimeout,
		backoffUnit:    2 * time.Second,
	}
}

// Transcribe converts the audio file into a raw transcript. Only ErrTooLarge
// and context cancellation surface as errors; every other failure resolves
// to the local fallback transcript.
func (s *Service) Transcribe(ctx context.Context, audioPath, language string) (*document.RawTranscript, error) {
	log := logger.WithComponent("transcriber").WithField("audio", audioPath)

	if !config.UsableCredential(s.apiKey) {
		log.Info("speech credential unusable, using local transcription")
		return LocalTranscript(audioPath, prompts.Normalize(language)), nil
	}

	if !prompts.SpeechSupported(language) {
		log.WithField("language", language).Warn("language unsupported by speech API, using default")
		language = prompts.DefaultLanguage()
	}

	fileSizeMB := fileSizeMB(audioPath)
	if fileSizeMB > s.maxAudioMB {
		return nil, ErrTooLarge
	}

	var result *speechResult
	attempt := 0
	op := func() error {
		attempt++
		log.WithFields(logrus.Fields{"attempt": attempt, "language": language}).Info("transcription attempt")

		// The audio stream is reopened so every attempt reads from the start.
		f, err := os.Open(audioPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()

		// Fixed per-attempt deadline; whichever of call and timer settles
		// first wins, and the timer cancels the in-flight request.
		attemptCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
		defer cancel()

		r, err := s.client.Transcribe(attemptCtx, f, filepath.Base(audioPath), language)
		if err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("transcription attempt failed")
			return err
		}
		result = r
		return nil
	}

	bo := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{unit: s.backoffUnit}, uint64(s.maxAttempts-1)),
		ctx,
	)
	if err := backoff.Retry(op, bo); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.WithError(err).Warn("all transcription attempts failed, using local transcription")
		return LocalTranscript(audioPath, language), nil
	}

	duration := result.Duration
	if duration == 0 {
		duration = estimateDurationSeconds(audioPath)
	}
	lang := result.Language
	if lang == "" {
		lang = language
	}
	segments := result.Segments
	if segments == nil {
		segments = []document.TranscriptSegment{}
	}

	return &document.RawTranscript{
		Text:            result.Text,
		DurationSeconds: duration,
		Confidence:      realAPIConfidence,
		IsSimulated:     false,
		Segments:        segments,
		Language:        lang,
		FileSizeMB:      fileSizeMB,
	}, nil
}

// linearBackOff waits attempt × unit between tries.
type linearBackOff struct {
	unit    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.unit
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

func fileSizeMB(path string) float64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return float64(st.Size()) / (1024 * 1024)
}

// estimateDurationSeconds imputes a duration from file size: 1 MB ≈ one
// minute of audio, 120s when the file cannot be read.
func estimateDurationSeconds(path string) float64 {
	st, err := os.Stat(path)
	if err != nil {
		return 120
	}
	return float64(st.Size()) / (1024 * 1024) * 60
}
