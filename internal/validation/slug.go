package validation

import (
	"errors"
	"regexp"
	"strings"
)

var (
	slugRegex      = regexp.MustCompile(`^[a-z0-9-]{3,60}$`)
	slugStripRegex = regexp.MustCompile(`[^a-z0-9]+`)
)

var reservedSlugs = map[string]struct{}{
	"admin":       {},
	"api":         {},
	"auth":        {},
	"health":      {},
	"media":       {},
	"menu":        {},
	"metrics":     {},
	"new":         {},
	"public":      {},
	"restaurants": {},
	"settings":    {},
	"swagger":     {},
	"login":       {},
	"register":    {},
}

// ValidateSlug validates a restaurant's public slug.
func ValidateSlug(slug string) error {
	if !slugRegex.MatchString(slug) {
		return errors.New("slug must be 3-60 characters and contain only lowercase letters, numbers, and hyphens")
	}
	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return errors.New("slug cannot start or end with a hyphen")
	}
	if strings.Contains(slug, "--") {
		return errors.New("slug cannot contain consecutive hyphens")
	}
	if _, exists := reservedSlugs[slug]; exists {
		return errors.New("slug is reserved")
	}
	return nil
}

// Slugify derives a slug candidate from a display name. The result may still
// be too short or reserved; callers validate it.
func Slugify(name string) string {
	s := slugStripRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = strings.TrimRight(s[:60], "-")
	}
	return s
}
