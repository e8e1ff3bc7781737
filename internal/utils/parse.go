package utils

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingIntRegex = regexp.MustCompile(`^\s*(\d+)`)

// ParseRuntimeMinutes extracts the full leading integer from an OMDb runtime
// such as "148 min". Returns 0 for "N/A" or anything without a numeric prefix.
func ParseRuntimeMinutes(runtime string) int {
	matches := leadingIntRegex.FindStringSubmatch(runtime)
	if len(matches) > 1 {
		minutes, err := strconv.Atoi(matches[1])
		if err == nil {
			return minutes
		}
	}
	return 0
}

// ParseRating converts an OMDb rating string ("8.8", "N/A") to a number.
// Returns 0 when the service has no usable rating, including "NaN" and "Inf"
// which ParseFloat accepts but JSON cannot encode.
func ParseRating(rating string) float64 {
	rating = strings.TrimSpace(rating)
	if rating == "" || strings.EqualFold(rating, "N/A") {
		return 0
	}

	value, err := strconv.ParseFloat(rating, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0
	}
	return value
}

// NormalizeQuery trims surrounding whitespace from user input
func NormalizeQuery(query string) string {
	return strings.TrimSpace(query)
}
