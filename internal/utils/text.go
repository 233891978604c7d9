// Package utils provides small text helpers shared by the intake flow:
// sanitizers for visitor-supplied fields and lenient numeric parsing for
// stored settings.
package utils

import (
	"html"
	"net/mail"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

// strictPolicy strips all markup from visitor input. Built once; bluemonday
// policies are safe for concurrent use.
var strictPolicy = bluemonday.StrictPolicy()

// stripMarkup removes HTML elements from s. The policy entity-escapes the
// surviving text, so the escaping is undone to keep plain text plain.
func stripMarkup(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}

// SanitizeText normalizes a single-line form field: NFC normalization, tag
// stripping, whitespace collapsed to single spaces, and trimming.
func SanitizeText(s string) string {
	s = norm.NFC.String(s)
	s = stripMarkup(s)
	return strings.Join(strings.Fields(s), " ")
}

// SanitizeMultiline normalizes a message body: NFC normalization and tag
// stripping while preserving line structure. Each line is trimmed of trailing
// whitespace and leading/trailing blank lines are removed.
func SanitizeMultiline(s string) string {
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = stripMarkup(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	out := strings.Join(lines, "\n")
	return strings.Trim(out, "\n")
}

// IsEmail reports whether s is a syntactically valid bare email address.
// Display-name forms are rejected.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	return addr.Address == s
}

// AtoiDefault parses s as an integer, returning def when s is empty or not a
// number. Stored settings are strings; this keeps their parsing forgiving.
func AtoiDefault(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
