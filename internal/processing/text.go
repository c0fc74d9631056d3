package processing

import (
	"crypto/sha1"
	"encoding/hex"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	tags       = regexp.MustCompile(`<[^>]*>`)
)

// block-level elements get a trailing space so adjacent paragraphs don't run together.
const blockSelector = "p, br, div, li, tr, td, blockquote, pre, h1, h2, h3, h4, h5, h6"

// StripMarkup returns the visible text of a rich-text body with whitespace squeezed.
func StripMarkup(input string) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	if !strings.ContainsAny(input, "<&") {
		return squeeze(input)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(input))
	if err != nil {
		return squeeze(html.UnescapeString(tags.ReplaceAllString(input, " ")))
	}
	doc.Find("script, style, noscript").Remove()
	doc.Find(blockSelector).AfterHtml(" ")
	return squeeze(doc.Text())
}

// Excerpt truncates text to max runes, appending an ellipsis when something was cut.
func Excerpt(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace) + "..."
}

// Slugify builds a lowercase, dash-separated slug from a title.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildEventID hashes the identifying fields of a change event into a stable key.
func BuildEventID(kind, id, op string, ts time.Time) string {
	s := sha1.Sum([]byte(kind + "|" + id + "|" + op + "|" + ts.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(s[:])
}

func squeeze(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
