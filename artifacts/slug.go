// Package artifacts persists the documents and deck files a job
// produces: slugged, collision-free paths under a single output
// directory.
package artifacts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxSlugLen = 60

// Slug converts a title into a filesystem-safe name: accents folded to
// ASCII, runs of non-alphanumerics collapsed to single hyphens, trimmed,
// lowercased, capped at 60 characters. An empty result falls back to
// "presentation".
func Slug(title string) string {
	folded := foldASCII(title)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(unicode.ToLower(r))
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return "presentation"
	}
	return slug
}

// foldASCII strips combining marks after NFD decomposition, then drops
// any remaining non-ASCII runes.
func foldASCII(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UniquePath returns dir/<base><ext>, appending -1, -2, ... to base until
// the path does not collide with an existing file. It never creates the
// file, so calling it twice without writing anything returns the same
// candidate.
func UniquePath(dir, base, ext string) string {
	candidate := filepath.Join(dir, base+ext)
	for n := 1; exists(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", base, n, ext))
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
