// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

package api

import (
	"context"
	"errors"
	"image"
	"net/http"
	"strings"

	// Register the decoders image.Decode needs for uploaded tickets.
	_ "image/jpeg"
	_ "image/png"

	"github.com/tomdupuis/embarq/internal/config"
	"github.com/tomdupuis/embarq/internal/logging"
	"github.com/tomdupuis/embarq/internal/models"
)

// TicketValidator is the pipeline surface the HTTP handlers depend on.
type TicketValidator interface {
	ValidateTicket(ctx context.Context, img image.Image) *models.ValidationOutcome
	ClearCaches()
}

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	pipeline TicketValidator
	cfg      *config.Config
}

// NewHandler creates a Handler backed by the given pipeline.
func NewHandler(pipeline TicketValidator, cfg *config.Config) *Handler {
	return &Handler{pipeline: pipeline, cfg: cfg}
}

// ValidateTicket handles POST /api/v1/validate. It accepts a multipart
// upload with a "ticket_image" file part, runs the validation pipeline and
// returns the structured verdict. The verdict itself is always a 200: only
// input problems and unexpected faults map to error statuses.
func (h *Handler) ValidateTicket(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxSize)
	if err := r.ParseMultipartForm(h.cfg.Upload.MaxSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			rw.PayloadTooLarge("uploaded file exceeds the size limit")
			return
		}
		rw.BadRequest("request must be multipart/form-data with a ticket_image file")
		return
	}

	file, header, err := r.FormFile("ticket_image")
	if err != nil {
		rw.BadRequest("missing ticket_image file")
		return
	}
	defer func() { _ = file.Close() }()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		rw.UnsupportedMediaType("ticket_image must be an image")
		return
	}

	img, format, err := image.Decode(file)
	if err != nil {
		logging.Ctx(r.Context()).Info().Err(err).Str("filename", header.Filename).Msg("Rejected undecodable ticket image")
		rw.BadRequest("ticket_image is not a decodable JPEG or PNG image")
		return
	}
	logging.Ctx(r.Context()).Debug().Str("format", format).Str("filename", header.Filename).Msg("Accepted ticket image upload")

	outcome := h.pipeline.ValidateTicket(r.Context(), img)
	rw.Success(outcome)
}

// ClearCache handles POST /api/v1/cache/clear, emptying both pipeline
// caches.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.pipeline.ClearCaches()
	NewResponseWriter(w, r).Success(map[string]string{
		"message": "caches cleared",
	})
}
