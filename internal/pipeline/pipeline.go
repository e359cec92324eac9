// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package pipeline orchestrates the ticket validation stages: vision
// extraction, format checks, schedule reconciliation and airport
// enrichment. Each stage can fail the ticket; later stages run only when
// earlier ones pass.
package pipeline

import (
	"context"
	"image"

	"github.com/tomdupuis/embarq/internal/cache"
	"github.com/tomdupuis/embarq/internal/extraction"
	"github.com/tomdupuis/embarq/internal/flightdata"
	"github.com/tomdupuis/embarq/internal/logging"
	"github.com/tomdupuis/embarq/internal/metrics"
	"github.com/tomdupuis/embarq/internal/models"
	"github.com/tomdupuis/embarq/internal/ticket"
)

const msgExtractionFailed = "could not extract ticket information"

// Service runs the full validation pipeline over an uploaded ticket image.
type Service struct {
	extractor  *extraction.Extractor
	reconciler *flightdata.Reconciler

	extractionCache     *cache.Cache
	reconciliationCache *cache.Cache
}

// New assembles the pipeline from its stage implementations. The caches
// are retained only so ClearCaches can reach them.
func New(extractor *extraction.Extractor, reconciler *flightdata.Reconciler, extractionCache, reconciliationCache *cache.Cache) *Service {
	return &Service{
		extractor:           extractor,
		reconciler:          reconciler,
		extractionCache:     extractionCache,
		reconciliationCache: reconciliationCache,
	}
}

// ValidateTicket runs all stages over img and returns the aggregate
// verdict. It never returns an error: every failure mode collapses into an
// invalid outcome with human-readable messages.
func (s *Service) ValidateTicket(ctx context.Context, img image.Image) *models.ValidationOutcome {
	log := logging.Ctx(ctx)

	extracted, err := s.extractor.Extract(ctx, img)
	if err != nil || extracted == nil {
		log.Error().Err(err).Msg("Ticket extraction failed")
		metrics.ValidationOutcomes.WithLabelValues("extract", "false").Inc()
		return &models.ValidationOutcome{
			IsValid: false,
			Errors:  []string{msgExtractionFailed},
		}
	}

	// Advisories (failed date normalization, unusual ticket number shape)
	// surface in the error list but never flip the verdict by themselves.
	advisories := append([]string{}, extracted.ValidationErrors...)
	advisories = append(advisories, ticket.AdvisoryErrors(extracted)...)

	formatErrors := ticket.ValidateTicket(extracted)
	if len(formatErrors) > 0 {
		allErrors := append(formatErrors, advisories...)
		log.Info().Strs("errors", allErrors).Msg("Ticket failed format validation")
		metrics.ValidationOutcomes.WithLabelValues("format", "false").Inc()
		return &models.ValidationOutcome{
			IsValid:       false,
			Errors:        allErrors,
			ExtractedInfo: extracted,
		}
	}

	result := s.reconciler.Reconcile(ctx, extracted)
	outcome := &models.ValidationOutcome{
		IsValid:       result.IsValid,
		Errors:        append(append([]string{}, result.Errors...), advisories...),
		ExtractedInfo: extracted,
		FlightInfo:    result.Details,
	}

	if result.IsValid {
		s.reconciler.Enrich(ctx, extracted)
		metrics.ValidationOutcomes.WithLabelValues("reconcile", "true").Inc()
		log.Info().Str("flight", extracted.FlightNumber).Msg("Ticket validated against schedule data")
	} else {
		metrics.ValidationOutcomes.WithLabelValues("reconcile", "false").Inc()
		log.Info().Str("flight", extracted.FlightNumber).Strs("errors", result.Errors).Msg("Ticket failed schedule reconciliation")
	}
	return outcome
}

// ClearCaches empties both pipeline caches. Used by the admin endpoint.
func (s *Service) ClearCaches() {
	s.extractionCache.Clear()
	s.reconciliationCache.Clear()
	logging.Info().Msg("Pipeline caches cleared")
}
