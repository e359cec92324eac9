// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package extraction

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomdupuis/embarq/internal/config"
)

func newVisionServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.VisionConfig{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "claude-3-opus-20240229",
		MaxTokens: 1024,
		Timeout:   5 * time.Second,
	})
}

func TestClient_ExtractDocument(t *testing.T) {
	client := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %q, want /v1/messages", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("X-Api-Key = %q", got)
		}
		if got := r.Header.Get("Anthropic-Version"); got != apiVersion {
			t.Errorf("Anthropic-Version = %q", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req map[string]interface{}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("request not JSON: %v", err)
		}
		if temp, ok := req["temperature"].(float64); !ok || temp != 0 {
			t.Errorf("temperature = %v, want 0", req["temperature"])
		}
		if req["system"] == "" {
			t.Error("system prompt missing")
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"{\"flight_number\":\"AF123\"}"}]}`))
	})

	text, err := client.ExtractDocument(context.Background(), "prompt", "aW1hZ2U=", "instruction")
	if err != nil {
		t.Fatalf("ExtractDocument error: %v", err)
	}
	if text != `{"flight_number":"AF123"}` {
		t.Errorf("text = %q", text)
	}
}

func TestClient_OverloadedIsTransient(t *testing.T) {
	client := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"error":{"type":"overloaded_error","message":"Overloaded"}}`))
	})

	_, err := client.ExtractDocument(context.Background(), "p", "aW1hZ2U=", "i")
	if err == nil {
		t.Fatal("expected overload error")
	}
	if !IsTransient(err) {
		t.Errorf("overloaded error should be transient: %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not an APIError: %v", err)
	}
	if apiErr.Type != "overloaded_error" || apiErr.StatusCode != 529 {
		t.Errorf("classification = %q/%d", apiErr.Type, apiErr.StatusCode)
	}
}

func TestClient_BadRequestIsPermanent(t *testing.T) {
	client := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"image too large"}}`))
	})

	_, err := client.ExtractDocument(context.Background(), "p", "aW1hZ2U=", "i")
	if err == nil {
		t.Fatal("expected request error")
	}
	if IsTransient(err) {
		t.Errorf("invalid_request_error must not be transient: %v", err)
	}
}

func TestClient_RateLimitIsTransient(t *testing.T) {
	client := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	})

	_, err := client.ExtractDocument(context.Background(), "p", "aW1hZ2U=", "i")
	if !IsTransient(err) {
		t.Errorf("429 should be transient: %v", err)
	}
}

func TestClient_EmptyContentFails(t *testing.T) {
	client := newVisionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"content":[]}`))
	})

	if _, err := client.ExtractDocument(context.Background(), "p", "aW1hZ2U=", "i"); err == nil {
		t.Fatal("expected error for response with no text content")
	}
}

func TestIsTransient_NonAPIError(t *testing.T) {
	if IsTransient(errors.New("dial tcp: connection refused")) {
		t.Error("plain errors must not classify as transient")
	}
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
}
