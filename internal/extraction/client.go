// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

/*
client.go - Vision Model REST API Client

This file implements the REST client for the vision-capable AI model used
to read boarding-pass images. The client is deliberately thin: it ships a
prompt and an image, returns the model's raw text, and classifies API
failures as transient (retryable overload) or permanent. The retry decision
itself belongs to the extractor, not the client.

API Reference: https://docs.anthropic.com/en/api/messages
*/

package extraction

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomdupuis/embarq/internal/config"
)

// apiVersion is the provider's required versioning header value.
const apiVersion = "2023-06-01"

// VisionClient is the capability interface for vision extraction. The
// production implementation talks to the real model API; tests substitute
// a stub.
type VisionClient interface {
	// ExtractDocument sends the image (base64 JPEG) with the given system
	// prompt and instruction, and returns the model's text output.
	ExtractDocument(ctx context.Context, systemPrompt, imageBase64, instruction string) (string, error)
}

// APIError is a classified failure of the vision API. Classification is
// structural (error type and HTTP status), never message sniffing, so the
// retry policy cannot be broken by a provider rewording its errors.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vision api error (status %d, type %s): %s", e.StatusCode, e.Type, e.Message)
}

// Transient reports whether the failure is a retryable overload condition.
func (e *APIError) Transient() bool {
	return e.Type == "overloaded_error" ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == 529 // provider-specific "overloaded"
}

// IsTransient reports whether err is a transient vision API failure that
// the caller may retry.
func IsTransient(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Transient()
}

// Client is the production VisionClient backed by the model provider's
// messages API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	maxTokens  int
	httpClient *http.Client
}

// Ensure Client implements VisionClient
var _ VisionClient = (*Client)(nil)

// NewClient creates a vision API client from configuration.
func NewClient(cfg *config.VisionConfig) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Request/response wire shapes for the messages API.

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
}

type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ExtractDocument sends the boarding-pass image to the vision model and
// returns the raw text of the first content block. The call uses a fixed
// token budget and zero sampling temperature so identical inputs produce
// identical outputs.
func (c *Client) ExtractDocument(ctx context.Context, systemPrompt, imageBase64, instruction string) (string, error) {
	reqBody := messagesRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		Temperature: 0,
		System:      systemPrompt,
		Messages: []message{
			{
				Role: "user",
				Content: []contentBlock{
					{
						Type: "image",
						Source: &imageSource{
							Type:      "base64",
							MediaType: "image/jpeg",
							Data:      imageBase64,
						},
					},
					{
						Type: "text",
						Text: instruction,
					},
				},
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to encode vision request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Anthropic-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read vision response: %w", err)
	}

	var decoded messagesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &APIError{StatusCode: resp.StatusCode, Type: "api_error", Message: string(body)}
		}
		return "", fmt.Errorf("failed to decode vision response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || decoded.Error != nil {
		apiErr := &APIError{StatusCode: resp.StatusCode, Type: "api_error"}
		if decoded.Error != nil {
			apiErr.Type = decoded.Error.Type
			apiErr.Message = decoded.Error.Message
		}
		return "", apiErr
	}

	for _, block := range decoded.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}

	return "", fmt.Errorf("vision response contained no text content")
}
