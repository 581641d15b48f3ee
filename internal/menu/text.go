package menu

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// asciiFold decomposes accented characters and drops everything that does
// not survive as plain ASCII (combining marks first, then any remaining
// non-ASCII runes such as ß).
var asciiFold = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// Squash ASCII-folds text and collapses whitespace runs to single spaces.
func Squash(text string) string {
	folded, _, err := transform.String(asciiFold, text)
	if err != nil {
		folded = text
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(folded, " "))
}

// CleanField prepares free text for the CSV log: commas and semicolons
// become spaces so rows never need quoting, then the result is squashed.
func CleanField(text string) string {
	replaced := strings.NewReplacer(",", " ", ";", " ").Replace(text)
	return Squash(replaced)
}

// Slugify turns a label into a safe filename component.
func Slugify(text string) string {
	return slug.Make(text)
}
