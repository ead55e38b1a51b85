package transcript

import (
	"strings"
	"unicode"
)

type abbreviationClass uint8

const (
	abbreviationNonTerminal abbreviationClass = iota + 1
	abbreviationAmbiguous
)

var abbreviations = map[string]abbreviationClass{
	"e.g":    abbreviationNonTerminal,
	"i.e":    abbreviationNonTerminal,
	"cf":     abbreviationNonTerminal,
	"dr":     abbreviationNonTerminal,
	"mr":     abbreviationNonTerminal,
	"mrs":    abbreviationNonTerminal,
	"ms":     abbreviationNonTerminal,
	"prof":   abbreviationNonTerminal,
	"jr":     abbreviationNonTerminal,
	"sr":     abbreviationNonTerminal,
	"approx": abbreviationNonTerminal,
	"dept":   abbreviationNonTerminal,
	"inc":    abbreviationAmbiguous,
	"etc":    abbreviationAmbiguous,
	"vs":     abbreviationAmbiguous,
}

// Lowercase words that still open a new sentence after an ambiguous abbreviation.
var boundaryPromoters = map[string]struct{}{
	"finally":   {},
	"however":   {},
	"next":      {},
	"then":      {},
	"therefore": {},
	"i":         {},
	"we":        {},
	"they":      {},
}

// endsSentence reports whether the period at idx terminates a sentence.
func endsSentence(runes []rune, idx int) bool {
	if idx < 0 || idx >= len(runes) || runes[idx] != '.' {
		return false
	}
	if idx+1 < len(runes) {
		next := runes[idx+1]
		// Decimals, version numbers, domains, and ellipses.
		if unicode.IsLetter(next) || unicode.IsDigit(next) || next == '.' {
			return false
		}
	}

	token := strings.ToLower(tokenBefore(runes, idx))
	if token == "" {
		return true
	}
	switch abbreviations[token] {
	case abbreviationNonTerminal:
		return false
	case abbreviationAmbiguous:
		return nextWordOpensSentence(runes, idx+1)
	}
	if isInitialism(token) {
		return nextWordOpensSentence(runes, idx+1)
	}
	return true
}

func tokenBefore(runes []rune, idx int) string {
	start := idx - 1
	for start >= 0 && (unicode.IsLetter(runes[start]) || runes[start] == '.') {
		start--
	}
	return strings.Trim(string(runes[start+1:idx]), ".")
}

func nextWordOpensSentence(runes []rune, from int) bool {
	i := from
	for i < len(runes) && (unicode.IsSpace(runes[i]) || strings.ContainsRune(`"')]`, runes[i])) {
		i++
	}
	if i >= len(runes) {
		return true
	}
	if !unicode.IsLetter(runes[i]) {
		return false
	}
	if unicode.IsUpper(runes[i]) {
		return true
	}
	end := i
	for end < len(runes) && unicode.IsLetter(runes[end]) {
		end++
	}
	_, ok := boundaryPromoters[string(runes[i:end])]
	return ok
}

// isInitialism matches tokens like "u.s" or "a.m".
func isInitialism(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return false
	}
	for _, part := range parts {
		r := []rune(part)
		if len(r) != 1 || !unicode.IsLetter(r[0]) {
			return false
		}
	}
	return true
}
