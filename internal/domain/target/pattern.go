// Package target implements the domain/subdomain routing grammar used to
// steer scoring jobs to the correct handler.
package target

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPattern is wrapped by every pattern-construction failure.
var ErrInvalidPattern = errors.New("invalid target pattern")

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Pattern matches concrete "domain/subdomain" routing targets. Supported
// shapes:
//
//	*                 matches any well-formed target
//	domain/subdomain  exact match on both parts
//	[d1,d2]/sub       domain may be any member of the bracket list
//	domain/*          any subdomain within the domain
type Pattern struct {
	raw            string
	matchAny       bool
	domains        []string
	domainWildcard bool
	subdomain      string
	subWildcard    bool
}

// NewPattern parses and validates a routing pattern.
func NewPattern(raw string) (Pattern, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Pattern{}, fmt.Errorf("%w: pattern is empty", ErrInvalidPattern)
	}
	if trimmed == "*" {
		return Pattern{raw: trimmed, matchAny: true}, nil
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 {
		return Pattern{}, fmt.Errorf("%w: %q must have exactly one '/'", ErrInvalidPattern, raw)
	}

	p := Pattern{raw: trimmed}
	if err := p.parseDomain(parts[0]); err != nil {
		return Pattern{}, err
	}
	if err := p.parseSubdomain(parts[1]); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func (p *Pattern) parseDomain(domain string) error {
	switch {
	case domain == "*":
		p.domainWildcard = true
	case strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]"):
		inner := domain[1 : len(domain)-1]
		for _, entry := range strings.Split(inner, ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				return fmt.Errorf("%w: %q has an empty domain list entry", ErrInvalidPattern, p.raw)
			}
			if !identifierRe.MatchString(entry) {
				return fmt.Errorf("%w: %q is not a valid domain identifier", ErrInvalidPattern, entry)
			}
			p.domains = append(p.domains, entry)
		}
		if len(p.domains) == 0 {
			return fmt.Errorf("%w: %q has an empty domain list", ErrInvalidPattern, p.raw)
		}
	case identifierRe.MatchString(domain):
		p.domains = []string{domain}
	default:
		return fmt.Errorf("%w: %q is not a valid domain identifier", ErrInvalidPattern, domain)
	}
	return nil
}

func (p *Pattern) parseSubdomain(subdomain string) error {
	switch {
	case subdomain == "*":
		p.subWildcard = true
	case identifierRe.MatchString(subdomain):
		p.subdomain = subdomain
	default:
		return fmt.Errorf("%w: %q is not a valid subdomain identifier", ErrInvalidPattern, subdomain)
	}
	return nil
}

// String returns the pattern as parsed.
func (p Pattern) String() string { return p.raw }

// Matches reports whether the pattern matches a concrete domain/subdomain
// target. Malformed targets never match.
func (p Pattern) Matches(target string) bool {
	domain, subdomain, ok := splitTarget(target)
	if !ok {
		return false
	}
	if p.matchAny {
		return true
	}
	if !p.domainWildcard && !contains(p.domains, domain) {
		return false
	}
	if !p.subWildcard && p.subdomain != subdomain {
		return false
	}
	return true
}

func splitTarget(target string) (domain, subdomain string, ok bool) {
	parts := strings.Split(strings.TrimSpace(target), "/")
	if len(parts) != 2 {
		return "", "", false
	}
	if !identifierRe.MatchString(parts[0]) || !identifierRe.MatchString(parts[1]) {
		return "", "", false
	}
	return parts[0], parts[1], true
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Matcher holds multiple patterns and matches when any of them does.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher parses every pattern; the first invalid one fails construction.
func NewMatcher(patterns ...string) (Matcher, error) {
	m := Matcher{patterns: make([]Pattern, 0, len(patterns))}
	for _, raw := range patterns {
		p, err := NewPattern(raw)
		if err != nil {
			return Matcher{}, err
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// Empty reports whether the matcher holds no patterns.
func (m Matcher) Empty() bool { return len(m.patterns) == 0 }

// Matches reports whether any held pattern matches the target.
func (m Matcher) Matches(target string) bool {
	for _, p := range m.patterns {
		if p.Matches(target) {
			return true
		}
	}
	return false
}
