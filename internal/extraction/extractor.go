// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package extraction turns boarding pass images into structured ticket data
// using a vision language model, with content-addressed caching and retry
// handling for transient provider failures.
package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"math"
	"math/rand"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomdupuis/embarq/internal/cache"
	"github.com/tomdupuis/embarq/internal/logging"
	"github.com/tomdupuis/embarq/internal/metrics"
	"github.com/tomdupuis/embarq/internal/models"
	"github.com/tomdupuis/embarq/internal/ticket"
)

const jpegQuality = 85

// Extractor performs vision-model extraction of ticket fields from images.
// Results are cached by image content hash so re-uploads of the same image
// never hit the provider twice within the TTL.
type Extractor struct {
	client     VisionClient
	cache      *cache.Cache
	ttl        time.Duration
	maxRetries int

	// now and backoff are replaceable in tests to pin date normalization
	// and skip real retry delays.
	now     func() time.Time
	backoff func(attempt int) time.Duration
}

// retryBackoff is the production retry delay: exponential with jitter so
// concurrent clients do not hammer a recovering provider in lockstep.
func retryBackoff(attempt int) time.Duration {
	return time.Duration((math.Pow(2, float64(attempt)) + rand.Float64()) * float64(time.Second))
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithClock replaces the reference clock used for date normalization.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithBackoff replaces the retry delay schedule.
func WithBackoff(backoff func(attempt int) time.Duration) Option {
	return func(e *Extractor) { e.backoff = backoff }
}

// New creates an Extractor backed by the given vision client and cache.
func New(client VisionClient, c *cache.Cache, ttl time.Duration, maxRetries int, opts ...Option) *Extractor {
	if maxRetries < 1 {
		maxRetries = 1
	}
	e := &Extractor{
		client:     client,
		cache:      c,
		ttl:        ttl,
		maxRetries: maxRetries,
		now:        time.Now,
		backoff:    retryBackoff,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the structured ticket information for img. The image is
// re-encoded as JPEG before upload, which flattens transparency onto a white
// background and bounds payload size regardless of the upload format.
func (e *Extractor) Extract(ctx context.Context, img image.Image) (*models.ExtractedTicket, error) {
	start := time.Now()
	defer func() {
		metrics.ExtractionDuration.Observe(time.Since(start).Seconds())
	}()

	encoded, err := encodeJPEG(img)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	key := "extract_" + cache.ContentKey(encoded)
	var cached models.ExtractedTicket
	if e.cache.GetJSON(key, &cached) {
		logging.Ctx(ctx).Debug().Str("key", key).Msg("Extraction cache hit")
		return &cached, nil
	}

	raw, err := e.callWithRetry(ctx, base64.StdEncoding.EncodeToString(encoded))
	if err != nil {
		metrics.VisionRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.VisionRequests.WithLabelValues("success").Inc()

	extracted, err := e.parseResponse(ctx, raw)
	if err != nil {
		return nil, err
	}

	e.cache.SetJSON(key, extracted, e.ttl)
	return extracted, nil
}

// callWithRetry invokes the vision client, retrying transient provider
// failures with exponential backoff plus jitter. Non-transient errors and
// context cancellation end the loop immediately.
func (e *Extractor) callWithRetry(ctx context.Context, imageBase64 string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := e.backoff(attempt)
			logging.Ctx(ctx).Warn().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("Vision provider overloaded, retrying")
			metrics.VisionRetries.Inc()
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		raw, err := e.client.ExtractDocument(ctx, systemPrompt, imageBase64, userInstruction)
		if err == nil {
			return raw, nil
		}
		if !IsTransient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("vision request failed after %d attempts: %w", e.maxRetries, lastErr)
}

// parseResponse decodes the model reply into a ticket, fills defaults for
// absent fields and normalizes the departure date. A date that cannot be
// normalized is kept verbatim and recorded as a validation error rather
// than failing the extraction.
func (e *Extractor) parseResponse(ctx context.Context, raw string) (*models.ExtractedTicket, error) {
	cleaned := stripMarkdownFences(raw)

	var extracted models.ExtractedTicket
	if err := json.Unmarshal([]byte(cleaned), &extracted); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("response", truncate(cleaned, 256)).Msg("Vision response is not valid JSON")
		return nil, fmt.Errorf("parsing vision response: %w", err)
	}
	extracted.EnsureDefaults()

	if extracted.DepartureDate != models.FieldUnknown {
		normalized, err := ticket.NormalizeDepartureDate(extracted.DepartureDate, e.now())
		if err != nil {
			extracted.AddValidationError(err.Error())
		} else {
			extracted.DepartureDate = normalized
		}
	}
	return &extracted, nil
}

// stripMarkdownFences removes a surrounding ```json ... ``` (or bare ```)
// fence that vision models sometimes wrap around their JSON reply.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// encodeJPEG re-encodes img as JPEG, compositing any alpha channel over a
// white background first so transparent PNG regions do not turn black.
func encodeJPEG(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	flat := image.NewRGBA(bounds)
	draw.Draw(flat, bounds, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
