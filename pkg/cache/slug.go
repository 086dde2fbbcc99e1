package cache

import "strings"

// maxSlugLen bounds slugs so generated paths stay portable.
const maxSlugLen = 60

// Slug converts a title to a filesystem-safe slug: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, trimmed, length-bounded.
func Slug(title string) string {
	var sb strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
		if sb.Len() >= maxSlugLen {
			break
		}
	}
	out := strings.Trim(sb.String(), "-")
	if out == "" {
		return "untitled"
	}
	return out
}
