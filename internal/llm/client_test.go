package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dicttr/dicttr-go/internal/config"
)

const testKey = "sk_real_looking_credential_0123456789"

func testClient(url string) *Client {
	return New(config.Config{
		ModelBaseURL:     url,
		ModelAPIKey:      testKey,
		ModelID:          "deepseek-chat",
		ModelTemperature: 0.7,
		ModelMaxTokens:   4000,
	})
}

func chatServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer "+testKey {
			t.Errorf("authorization header = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("request decode: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("messages = %+v", req.Messages)
		}
		w.WriteHeader(status)
		if status == http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"content": content}},
				},
			})
		}
	}))
}

func TestInvokeReturnsChoiceContent(t *testing.T) {
	srv := chatServer(t, http.StatusOK, "respuesta del modelo")
	defer srv.Close()

	got, err := testClient(srv.URL).Invoke(context.Background(), "sistema", "usuario")
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if got != "respuesta del modelo" {
		t.Fatalf("reply = %q", got)
	}
}

func TestInvokeStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrInvalidCredential},
		{http.StatusForbidden, ErrInvalidCredential},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, c := range cases {
		srv := chatServer(t, c.status, "")
		_, err := testClient(srv.URL).Invoke(context.Background(), "s", "u")
		srv.Close()
		if !errors.Is(err, c.want) {
			t.Fatalf("status %d: got %v, want %v", c.status, err, c.want)
		}
	}
}

func TestInvokeServerErrorIsPlainError(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	_, err := testClient(srv.URL).Invoke(context.Background(), "s", "u")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, sentinel := range []error{ErrInvalidCredential, ErrRateLimited, ErrTimeout, ErrUnconfigured} {
		if errors.Is(err, sentinel) {
			t.Fatalf("500 mapped to sentinel %v", sentinel)
		}
	}
}

func TestInvokeUnconfiguredShortCircuits(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.apiKey = "sk-your-deepseek-api-key-here"
	if _, err := c.Invoke(context.Background(), "s", "u"); !errors.Is(err, ErrUnconfigured) {
		t.Fatalf("expected ErrUnconfigured, got %v", err)
	}
	if called {
		t.Fatal("unconfigured client hit the network")
	}
}

func TestInvokeEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Invoke(context.Background(), "s", "u"); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
