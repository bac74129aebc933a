package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML parses the provided HTML payload into a goquery document for assertions.
func ParseHTML(t testing.TB, body []byte) *goquery.Document {
	t.Helper()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

// CSRFToken returns the token published in the page's csrf-token meta tag.
func CSRFToken(t testing.TB, doc *goquery.Document) string {
	t.Helper()

	token, ok := doc.Find(`meta[name="csrf-token"]`).Attr("content")
	if !ok || strings.TrimSpace(token) == "" {
		t.Fatalf("csrf-token meta tag missing")
	}
	return token
}

// NormalizeSpace collapses the non-breaking spaces produced by number formatting.
func NormalizeSpace(s string) string {
	return strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(strings.TrimSpace(s))
}
