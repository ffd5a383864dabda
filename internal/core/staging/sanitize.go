package staging

import (
	"path/filepath"
	"regexp"
	"strings"
)

// maxBaseLen caps the sanitized basename length, extension excluded.
const maxBaseLen = 100

var (
	disallowedChars = regexp.MustCompile(`[^A-Za-z0-9._ -]`)
	separatorRuns   = regexp.MustCompile(`[ _]+`)
)

// SanitizeFilename makes an untrusted client filename safe for local use:
// directory components and leading dots are stripped, characters outside
// [A-Za-z0-9._ -] become underscores, runs of spaces/underscores collapse to
// a single underscore, the basename is capped at 100 characters and falls
// back to "file" when nothing survives. The original extension is preserved.
func SanitizeFilename(name string) string {
	// Normalize separators and drop any directory components.
	safe := strings.ReplaceAll(name, "\\", "/")
	safe = safe[strings.LastIndex(safe, "/")+1:]
	safe = strings.TrimSpace(safe)

	// No hidden files: leading dots go before the extension split so
	// ".bashrc" sanitizes to "bashrc", not a bare extension.
	safe = strings.TrimLeft(safe, ".")

	ext := filepath.Ext(safe)
	base := strings.TrimSuffix(safe, ext)

	base = strings.TrimSpace(base)
	base = disallowedChars.ReplaceAllString(base, "_")
	base = separatorRuns.ReplaceAllString(base, "_")
	base = strings.Trim(base, "_")

	if base == "" {
		base = "file"
	}
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}

	return base + ext
}
