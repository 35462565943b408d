package transform

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	xtransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)

// ThemeName upper-cases the first letter of a repository name and leaves the
// rest untouched ("portfolio" becomes "Portfolio").
func ThemeName(repoName string) string {
	r, size := utf8.DecodeRuneInString(repoName)
	if r == utf8.RuneError {
		return repoName
	}
	return cases.Upper(language.Und).String(string(r)) + repoName[size:]
}

// TextDomain derives the WordPress text domain from a repository name:
// accents folded, lower-cased, and every run of other characters collapsed
// to a single "-". Leading and trailing separators are trimmed.
func TextDomain(repoName string) string {
	return slug(repoName, "-")
}

// functionPrefix derives a PHP identifier prefix from a theme name.
func functionPrefix(themeName string) string {
	p := slug(themeName, "_")
	if p[0] >= '0' && p[0] <= '9' {
		p = "theme_" + p
	}
	return p
}

func slug(s, sep string) string {
	folded := foldAccents(s)
	lowered := cases.Lower(language.Und).String(folded)
	out := strings.Trim(nonAlnumRun.ReplaceAllString(lowered, sep), sep)
	if out == "" {
		return "theme"
	}
	return out
}

func foldAccents(s string) string {
	t := xtransform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := xtransform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
