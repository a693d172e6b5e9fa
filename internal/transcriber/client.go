package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dicttr/dicttr-go/internal/config"
	"github.com/dicttr/dicttr-go/internal/document"
)

// speechResult mirrors the verbose_json response of the speech API.
type speechResult struct {
	Text     string                       `json:"text"`
	Duration float64                      `json:"duration"`
	Segments []document.TranscriptSegment `json:"segments"`
	Language string                       `json:"language"`
}

// speechClient is the raw speech-to-text boundary; one upload, one response.
type speechClient interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*speechResult, error)
}

type httpSpeechClient struct {
	baseURL string
	apiKey  string
	model   string
}

func newSpeechClient(cfg config.Config) *httpSpeechClient {
	return &httpSpeechClient{
		baseURL: cfg.SpeechBaseURL,
		apiKey:  cfg.SpeechAPIKey,
		model:   cfg.SpeechModelID,
	}
}

func (c *httpSpeechClient) Transcribe(ctx context.Context, audio io.Reader, filename, language string) (*speechResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	_ = mw.WriteField("model", c.model)
	_ = mw.WriteField("language", language)
	_ = mw.WriteField("response_format", "verbose_json")
	_ = mw.WriteField("temperature", "0")

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, audio); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	// The per-attempt deadline comes from ctx; no client timeout on top.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("speech http %d: %s", resp.StatusCode, string(b))
	}

	var out speechResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("speech response decode: %w", err)
	}
	return &out, nil
}
