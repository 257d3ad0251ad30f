package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// Per-country mobile number patterns, matched after normalization.
// Numbers are stored in E.164 so the same phone matches across
// merchants for referral and push lookups.
var phonePatterns = map[string]*regexp.Regexp{
	"FR": regexp.MustCompile(`^\+33[67]\d{8}$`),
	"BE": regexp.MustCompile(`^\+324\d{8}$`),
	"CH": regexp.MustCompile(`^\+417[5-9]\d{7}$`),
	"ES": regexp.MustCompile(`^\+34[67]\d{8}$`),
}

// Country calling prefixes used to expand national formats.
var countryPrefixes = map[string]string{
	"FR": "+33",
	"BE": "+32",
	"CH": "+41",
	"ES": "+34",
}

// NormalizePhone converts a raw phone input to E.164 for the given
// ISO 3166-1 alpha-2 country, then validates it against the country's
// mobile pattern. Returns the normalized number or an error describing
// why the input is not a valid mobile number.
func NormalizePhone(raw, country string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '.', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return "", fmt.Errorf("phone number is required")
	}

	country = strings.ToUpper(country)
	prefix, ok := countryPrefixes[country]
	if !ok {
		// Unknown country: accept any plausible E.164 number.
		if m, _ := regexp.MatchString(`^\+\d{8,15}$`, cleaned); m {
			return cleaned, nil
		}
		return "", fmt.Errorf("phone number must be in international format")
	}

	// Expand national formats: 0612345678 -> +33612345678,
	// 0033612345678 -> +33612345678.
	switch {
	case strings.HasPrefix(cleaned, "00"):
		cleaned = "+" + cleaned[2:]
	case strings.HasPrefix(cleaned, "0"):
		cleaned = prefix + cleaned[1:]
	}

	pattern, ok := phonePatterns[country]
	if !ok || !pattern.MatchString(cleaned) {
		return "", fmt.Errorf("not a valid mobile number for country %s", country)
	}

	return cleaned, nil
}
