// Package validate checks and normalizes API inputs before any external
// call is made.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/sells-group/icp-engine/internal/apperr"
)

// Domain length bounds, applied after normalization.
const (
	DomainMinLength = 3
	DomainMaxLength = 255
)

// MaxDomainsPerRequest bounds qualification batches.
const MaxDomainsPerRequest = 50

// domainRe matches a DNS-label-like domain: labels of [a-z0-9-] that never
// start or end with a hyphen, joined by dots.
var domainRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)

// Domain normalizes and validates a raw domain string: trims whitespace,
// lowercases, strips a leading http(s):// and a trailing slash, then checks
// length and shape. Returns the normalized domain.
func Domain(raw string) (string, error) {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimSuffix(d, "/")

	if len(d) < DomainMinLength {
		return "", apperr.Validation(fmt.Sprintf("Domain must be at least %d characters", DomainMinLength), raw)
	}
	if len(d) > DomainMaxLength {
		return "", apperr.Validation(fmt.Sprintf("Domain must be less than %d characters", DomainMaxLength), raw)
	}
	if !domainRe.MatchString(d) {
		return "", apperr.Validation("Invalid domain format", raw)
	}
	return d, nil
}

// ICPID checks that id is a syntactically valid UUID.
func ICPID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperr.Validation("Invalid ICP ID format", id)
	}
	return nil
}

// Domains normalizes every domain in a qualification batch and checks the
// batch bounds (1-50 entries). All domains must validate; the first failure
// rejects the request.
func Domains(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, apperr.Validation("At least one domain is required", nil)
	}
	if len(raw) > MaxDomainsPerRequest {
		return nil, apperr.Validation(fmt.Sprintf("Maximum %d domains allowed per request", MaxDomainsPerRequest), len(raw))
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		d, err := Domain(r)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
