// Package llm is the boundary to the generative model: one request, one
// response, no retries and no parsing of the reply body beyond the chat
// completion envelope. Resilience lives in the callers.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dicttr/dicttr-go/internal/config"
	"github.com/dicttr/dicttr-go/internal/logger"
)

var (
	ErrUnconfigured      = errors.New("model credential not configured")
	ErrInvalidCredential = errors.New("model credential rejected")
	ErrRateLimited       = errors.New("model rate limited")
	ErrTimeout           = errors.New("model call timed out")
)

type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
}

func New(cfg config.Config) *Client {
	return &Client{
		baseURL:     cfg.ModelBaseURL,
		apiKey:      cfg.ModelAPIKey,
		model:       cfg.ModelID,
		temperature: cfg.ModelTemperature,
		maxTokens:   cfg.ModelMaxTokens,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
	}
}

// Configured reports whether the credential passes the structural fast-fail
// checks. False means callers should take their local fallback without
// spending a network round trip.
func (c *Client) Configured() bool {
	return config.UsableCredential(c.apiKey)
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Invoke sends one system/user prompt pair and returns the choice-0 message
// content verbatim.
func (c *Client) Invoke(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrUnconfigured
	}

	log := logger.WithComponent("llm")

	payload, _ := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("model transport: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", fmt.Errorf("%w: http %d", ErrInvalidCredential, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: http %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", fmt.Errorf("model http %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("model envelope decode: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("model returned no choices")
	}

	log.WithField("reply_len", len(parsed.Choices[0].Message.Content)).Debug("model reply received")
	return parsed.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
