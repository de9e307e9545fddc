package config

import (
	"strconv"
	"strings"

	"asmtune/internal/errs"
)

// ParseEvals parses spec.md §6's evals grammar: a decimal or
// scientific-notation number, optionally followed by one of the SI
// suffixes k/M/T (case-insensitive). "10k" -> 10000, "0.4M" -> 400000,
// "4e9" -> 4000000000.
func ParseEvals(s string) (int, error) {
	if s == "" {
		return 0, errs.New(errs.BadConfig, "config: evals must not be empty")
	}
	mult := 1.0
	numeric := s
	switch last := s[len(s)-1]; last {
	case 'k', 'K':
		mult = 1e3
		numeric = s[:len(s)-1]
	case 'm', 'M':
		mult = 1e6
		numeric = s[:len(s)-1]
	case 't', 'T':
		mult = 1e12
		numeric = s[:len(s)-1]
	}
	numeric = strings.TrimSpace(numeric)
	v, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return 0, errs.Wrap(errs.BadConfig, "config: malformed evals value "+s, err)
	}
	total := v * mult
	if total <= 0 {
		return 0, errs.New(errs.BadConfig, "config: evals must be > 0")
	}
	return int(total), nil
}

// RenderEvals is ParseEvals's approximate inverse for internal/config's
// argv round trip: it renders the plain integer, forgoing the
// k/M/T-suffixed form (parse(render(n)) == n regardless of how the
// original string was spelled).
func RenderEvals(n int) string {
	return strconv.Itoa(n)
}
