// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package flightdata talks to the external flight-schedule provider and
// reconciles extracted ticket information against published schedules.
package flightdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomdupuis/embarq/internal/config"
	"github.com/tomdupuis/embarq/internal/logging"
	"github.com/tomdupuis/embarq/internal/models"
)

const tokenExpiryMargin = 30 * time.Second

// ScheduleClient is the provider surface the reconciler depends on.
// Implementations must be safe for concurrent use.
type ScheduleClient interface {
	// GetFlightSchedules returns all schedule rows for a carrier, flight
	// number and departure date (YYYY-MM-DD). An empty slice means the
	// provider knows no such flight.
	GetFlightSchedules(ctx context.Context, carrierCode, flightNumber, departureDate string) ([]models.FlightSchedule, error)

	// AirportInfo returns airport metadata for an IATA code, or nil when
	// the provider has no matching location.
	AirportInfo(ctx context.Context, iataCode string) (*models.AirportLocation, error)
}

// Client is the raw HTTP client for the schedule provider. It handles the
// OAuth2 client-credentials flow internally, refreshing the bearer token
// shortly before expiry.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a schedule provider client from configuration.
func NewClient(cfg *config.FlightDataConfig) *Client {
	return &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a valid bearer token, requesting a new one when the cached
// token is absent or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenExpiryMargin)) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting access token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned an empty access token")
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	logging.Debug().Time("expiry", c.tokenExpiry).Msg("Refreshed flight data access token")
	return c.accessToken, nil
}

// get performs an authenticated GET and decodes the JSON body into out.
// A 401 invalidates the cached token so the next call re-authenticates.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		c.mu.Lock()
		c.accessToken = ""
		c.mu.Unlock()
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// GetFlightSchedules queries the provider's schedule endpoint for a single
// carrier/number/date combination.
func (c *Client) GetFlightSchedules(ctx context.Context, carrierCode, flightNumber, departureDate string) ([]models.FlightSchedule, error) {
	var payload struct {
		Data []models.FlightSchedule `json:"data"`
	}
	query := url.Values{
		"carrierCode":            {carrierCode},
		"flightNumber":           {flightNumber},
		"scheduledDepartureDate": {departureDate},
	}
	if err := c.get(ctx, "/v2/schedule/flights", query, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// locationRow is the provider's airport reference wire shape.
type locationRow struct {
	IATACode string `json:"iataCode"`
	Name     string `json:"name"`
	Address  struct {
		CityName    string `json:"cityName"`
		CountryName string `json:"countryName"`
	} `json:"address"`
	TimeZone struct {
		Name string `json:"name"`
	} `json:"timeZone"`
}

// AirportInfo looks up airport metadata by IATA code. It returns nil with a
// nil error when the provider has no matching airport.
func (c *Client) AirportInfo(ctx context.Context, iataCode string) (*models.AirportLocation, error) {
	var payload struct {
		Data []locationRow `json:"data"`
	}
	query := url.Values{
		"subType": {"AIRPORT"},
		"keyword": {iataCode},
	}
	if err := c.get(ctx, "/v1/reference-data/locations", query, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, nil
	}

	row := payload.Data[0]
	return &models.AirportLocation{
		IATACode: row.IATACode,
		Name:     row.Name,
		City:     row.Address.CityName,
		Country:  row.Address.CountryName,
		Timezone: row.TimeZone.Name,
	}, nil
}
