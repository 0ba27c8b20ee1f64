package domain

import "strings"

// KeySeparator replaces "/" in cache keys; document stores treat "/" as a path delimiter.
const KeySeparator = `\`

// NormalizeDOI trims and lower-cases a DOI. DOIs are case-insensitive.
func NormalizeDOI(doi string) string {
	return strings.ToLower(strings.TrimSpace(doi))
}

// CacheKey converts a normalized DOI into its cache key form.
func CacheKey(doi string) string {
	return strings.ReplaceAll(doi, "/", KeySeparator)
}

// DOIFromKey reverses CacheKey.
func DOIFromKey(key string) string {
	return strings.ReplaceAll(key, KeySeparator, "/")
}
