package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var versionedURLPattern = regexp.MustCompile(`^(https?://.+/)v/(\d+)$`)

// Slugify lowercases s and collapses every run of characters outside
// [a-z0-9] into a single "-".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// TypeBaseURL returns {origin}/@{shortname}/types/{kind}/{slug}/.
func TypeBaseURL(origin, shortname string, kind OntologyKind, title string) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", NewParamError(ErrBadRequest, "title", "title must contain at least one letter or digit")
	}
	return fmt.Sprintf("%s/@%s/types/%s/%s/", strings.TrimRight(origin, "/"), shortname, kind, slug), nil
}

// VersionedURL appends the version segment to a base URL.
func VersionedURL(baseURL string, version int) string {
	return baseURL + "v/" + strconv.Itoa(version)
}

// ParseVersionedURL splits a versioned URL into its base URL and version.
func ParseVersionedURL(versionedURL string) (RecordID, error) {
	m := versionedURLPattern.FindStringSubmatch(versionedURL)
	if m == nil {
		return RecordID{}, fmt.Errorf("%q is not a versioned URL: %w", versionedURL, ErrBadRequest)
	}
	v, err := strconv.Atoi(m[2])
	if err != nil || v < 1 {
		return RecordID{}, fmt.Errorf("%q has an invalid version: %w", versionedURL, ErrBadRequest)
	}
	return RecordID{BaseURL: m[1], Version: v}, nil
}

// IsBaseURL reports whether s looks like a type base URL.
func IsBaseURL(s string) bool {
	return (strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")) && strings.HasSuffix(s, "/")
}
