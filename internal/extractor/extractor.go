// Package extractor reads the social-preview metadata an invite page
// publishes about its group.
package extractor

import (
	"fmt"
	"html"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// MaxDescriptionLength is the rune cap applied to descriptions.
const MaxDescriptionLength = 150

const ellipsis = "..."

// Meta properties published by the invite page template. These must match
// the provider's markup exactly.
const (
	propTitle       = "og:title"
	propImage       = "og:image"
	propDescription = "og:description"
)

// Metadata is what an invite page says about its group. Empty fields were
// not present in the page.
type Metadata struct {
	Name        string `json:"name,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Extract parses page markup and pulls the group metadata out of it.
// Missing tags are not an error; only an unreadable body is.
func Extract(r io.Reader) (Metadata, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse invite page: %w", err)
	}
	return fromDocument(doc), nil
}

// ExtractString is Extract over an in-memory page.
func ExtractString(page string) Metadata {
	md, err := Extract(strings.NewReader(page))
	if err != nil {
		return Metadata{}
	}
	return md
}

func fromDocument(doc *goquery.Document) Metadata {
	return Metadata{
		Name:        metaProperty(doc, propTitle),
		LogoURL:     metaProperty(doc, propImage),
		Description: Truncate(metaProperty(doc, propDescription), MaxDescriptionLength),
	}
}

// metaProperty returns the first non-empty content of meta[property=prop].
func metaProperty(doc *goquery.Document, prop string) string {
	var value string
	doc.Find("meta").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if p, _ := s.Attr("property"); p != prop {
			return true
		}
		content, _ := s.Attr("content")
		value = cleanText(content)
		return value == ""
	})
	return value
}

// cleanText decodes entities left after attribute parsing (pages often
// double-encode, e.g. "&amp;amp;") and collapses whitespace.
func cleanText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
}

// Truncate shortens s to at most limit runes, marking the cut with an
// ellipsis. The ellipsis counts toward the limit.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - utf8.RuneCountInString(ellipsis)
	if keep <= 0 {
		return string([]rune(s)[:limit])
	}
	return strings.TrimRight(string([]rune(s)[:keep]), " ") + ellipsis
}
