// Embarq - Boarding Pass Validation Service
// Copyright 2026 Tom Dupuis (tomdupuis)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomdupuis/embarq

// Package ticket implements the pure, I/O-free parts of the validation
// pipeline: normalization of airline-style departure dates and schema-level
// format validation of extracted ticket records.
package ticket

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MaxBookingWindow is how far in the future a departure date may lie.
// Boarding passes are only issued close to departure; anything further out
// is treated as a misread.
const MaxBookingWindow = 14 * 24 * time.Hour

// NormalizeError reports why a raw departure date could not be normalized.
// It is always advisory: callers record it on the ticket and continue.
type NormalizeError struct {
	Raw    string
	Reason string
}

func (e *NormalizeError) Error() string {
	return fmt.Sprintf("cannot normalize departure date %q: %s", e.Raw, e.Reason)
}

// monthTokens maps 3-letter month abbreviations to months. The table
// intentionally mixes English and French tokens because airline tickets
// mix both (AOU alongside AUG, FEV alongside FEB).
var monthTokens = map[string]time.Month{
	"JAN": time.January,
	"FEV": time.February, "FEB": time.February,
	"MAR": time.March,
	"AVR": time.April, "APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AOU": time.August, "AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DEC": time.December,
}

// airlineDateRe matches the compact airline form: 29JUL or 29JUL24.
var airlineDateRe = regexp.MustCompile(`^(\d{2})([A-Z]{3})(\d{2})?$`)

// NormalizeDepartureDate converts an airline-style partial date into
// canonical YYYY-MM-DD form, evaluated against the reference time now.
//
// Supported input forms:
//   - DDMMM, DDMMMYY (29JUL, 29JUL24)
//   - DD/MM, DD/MM/YY, DD/MM/YYYY
//
// Business rules, applied after parsing:
//  1. A missing year token means the reference year.
//  2. A 2-digit year must equal the reference year's last two digits.
//  3. A 4-digit year must equal the reference year.
//  4. The date must not fall before the reference day.
//  5. The date must be at most 14 days after the reference day.
//
// Every failure returns a *NormalizeError; the function never panics on
// malformed input.
func NormalizeDepartureDate(raw string, now time.Time) (string, error) {
	cleaned := strings.ToUpper(strings.TrimSpace(raw))
	if cleaned == "" {
		return "", &NormalizeError{Raw: raw, Reason: "empty date"}
	}

	var day, year int
	var month time.Month
	var err error

	switch {
	case airlineDateRe.MatchString(cleaned):
		day, month, year, err = parseAirlineDate(cleaned, now)
	case strings.Contains(cleaned, "/"):
		day, month, year, err = parseSlashDate(cleaned, now)
	default:
		return "", &NormalizeError{Raw: raw, Reason: "unsupported date format"}
	}
	if err != nil {
		return "", err
	}

	parsed := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if parsed.Day() != day || parsed.Month() != month {
		// time.Date normalizes out-of-range components (32JAN -> 01FEB),
		// which must count as a parse failure, not a silent correction.
		return "", &NormalizeError{Raw: raw, Reason: "invalid calendar date"}
	}

	// Compare at day granularity: a flight departing later today is not
	// "in the past".
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if parsed.Before(today) {
		return "", &NormalizeError{Raw: raw, Reason: "date is in the past"}
	}
	if parsed.After(today.Add(MaxBookingWindow)) {
		return "", &NormalizeError{Raw: raw, Reason: "date is more than 14 days in the future"}
	}

	return parsed.Format("2006-01-02"), nil
}

// parseAirlineDate handles the DDMMM and DDMMMYY forms.
func parseAirlineDate(s string, now time.Time) (int, time.Month, int, error) {
	groups := airlineDateRe.FindStringSubmatch(s)

	day, _ := strconv.Atoi(groups[1])

	month, ok := monthTokens[groups[2]]
	if !ok {
		return 0, 0, 0, &NormalizeError{Raw: s, Reason: fmt.Sprintf("unknown month token %q", groups[2])}
	}

	year, err := resolveYear(groups[3], s, now)
	if err != nil {
		return 0, 0, 0, err
	}

	return day, month, year, nil
}

// parseSlashDate handles the DD/MM, DD/MM/YY and DD/MM/YYYY forms.
func parseSlashDate(s string, now time.Time) (int, time.Month, int, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, 0, &NormalizeError{Raw: s, Reason: "unsupported date format"}
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, &NormalizeError{Raw: s, Reason: "malformed day"}
	}

	monthNum, err := strconv.Atoi(parts[1])
	if err != nil || monthNum < 1 || monthNum > 12 {
		return 0, 0, 0, &NormalizeError{Raw: s, Reason: "malformed month"}
	}

	yearToken := ""
	if len(parts) == 3 {
		yearToken = parts[2]
	}
	year, err := resolveYear(yearToken, s, now)
	if err != nil {
		return 0, 0, 0, err
	}

	return day, time.Month(monthNum), year, nil
}

// resolveYear applies the current-year business rules to an optional year
// token: absent means the reference year, 2-digit must match the reference
// year's last two digits, 4-digit must match the reference year exactly.
func resolveYear(token, raw string, now time.Time) (int, error) {
	switch len(token) {
	case 0:
		return now.Year(), nil
	case 2:
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, &NormalizeError{Raw: raw, Reason: "malformed year"}
		}
		if n != now.Year()%100 {
			return 0, &NormalizeError{Raw: raw, Reason: fmt.Sprintf("date must be in the current year (%d)", now.Year())}
		}
		return now.Year(), nil
	case 4:
		n, err := strconv.Atoi(token)
		if err != nil {
			return 0, &NormalizeError{Raw: raw, Reason: "malformed year"}
		}
		if n != now.Year() {
			return 0, &NormalizeError{Raw: raw, Reason: fmt.Sprintf("date must be in the current year (%d)", now.Year())}
		}
		return now.Year(), nil
	default:
		return 0, &NormalizeError{Raw: raw, Reason: "malformed year"}
	}
}
