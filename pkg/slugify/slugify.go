package slugify

import (
	"strings"

	"github.com/gosimple/slug"
)

// maxLen mirrors the WordPress term slug column limit.
const maxLen = 190

const fallback = "tag"

// Make derives a WordPress-compatible slug from a term name: lowercased,
// transliterated, non-alphanumerics stripped, whitespace and underscores
// collapsed to single hyphens, truncated to maxLen, never empty.
// Idempotent: Make(Make(s)) == Make(s).
func Make(name string) string {
	s := slug.Make(strings.TrimSpace(name))
	if len(s) > maxLen {
		s = s[:maxLen]
		// Don't leave a dangling hyphen after the cut.
		s = strings.TrimRight(s, "-")
	}
	if s == "" {
		return fallback
	}
	return s
}
