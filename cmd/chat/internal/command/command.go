// Package command classifies chat lines as stock commands. The functions are
// pure and safe on arbitrary input.
package command

import (
	"regexp"
	"strings"
)

const prefix = "/stock="

// Anchored so trailing garbage never matches; the code is one or more
// letters, digits or dots, returned exactly as the user typed it.
var stockCommandRe = regexp.MustCompile(`(?i)^/stock=([a-zA-Z0-9.]+)$`)

// IsStockCommand reports whether text, after trimming, is a well-formed
// /stock=CODE command.
func IsStockCommand(text string) bool {
	return stockCommandRe.MatchString(strings.TrimSpace(text))
}

// ExtractStockCode returns the stock code verbatim (case preserved) and true
// when text is a well-formed command. Normalization is left to the quote
// provider.
func ExtractStockCode(text string) (string, bool) {
	m := stockCommandRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// LooksLikeStockCommand reports whether text starts with the /stock= prefix,
// well-formed or not. The chat layer uses it to reply "invalid format" to
// inputs like "/stock=" instead of posting them as ordinary messages.
func LooksLikeStockCommand(text string) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len(prefix) {
		return false
	}
	return strings.EqualFold(trimmed[:len(prefix)], prefix)
}
