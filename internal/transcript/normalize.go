// Package transcript normalizes recognized speech and splits it into sentences and words.
package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pronounIContraction = regexp.MustCompile(`\bi['’](?:m|d|ll|ve|re|s)\b`)
	pronounIWord        = regexp.MustCompile(`(^|[\s(\["'])i([\s,;:!?)\]"']|$)`)
	wordPattern         = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}'’+#.-]*`)
)

// Normalize joins recognized segments, collapses whitespace, and applies
// sentence case plus the standalone pronoun "I".
func Normalize(segments ...string) string {
	joined := strings.Join(strings.Fields(strings.Join(segments, " ")), " ")
	if joined == "" {
		return ""
	}
	joined = capitalizeSentenceStarts(joined)
	joined = pronounIContraction.ReplaceAllStringFunc(joined, func(match string) string {
		return "I" + match[1:]
	})
	// Replace twice so adjacent matches sharing a separator are both handled.
	for range 2 {
		joined = pronounIWord.ReplaceAllString(joined, "${1}I${2}")
	}
	return joined
}

// Sentences splits text at sentence boundaries, keeping terminal punctuation.
// Abbreviations, initialisms and decimals do not end a sentence.
func Sentences(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	var out []string
	start := 0
	for i, r := range runes {
		switch r {
		case '!', '?':
		case '.':
			if !endsSentence(runes, i) {
				continue
			}
		default:
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" && hasLetterOrDigit(s) {
			out = append(out, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" && hasLetterOrDigit(s) {
		out = append(out, s)
	}
	return out
}

// Words returns lowercase word tokens with surrounding punctuation trimmed.
func Words(text string) []string {
	raw := wordPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.TrimRight(strings.ToLower(w), ".-'’")
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func capitalizeSentenceStarts(text string) string {
	runes := []rune(text)
	capitalize := true
	for i, r := range runes {
		switch {
		case capitalize && unicode.IsLetter(r):
			if !keepsLowercase(runes, i) {
				runes[i] = unicode.ToUpper(r)
			}
			capitalize = false
		case capitalize && unicode.IsDigit(r):
			capitalize = false
		case r == '!' || r == '?':
			capitalize = true
		case r == '.':
			capitalize = endsSentence(runes, i)
		}
	}
	return string(runes)
}

// keepsLowercase reports whether the word at idx is an abbreviation that stays lowercase.
func keepsLowercase(runes []rune, idx int) bool {
	end := idx
	for end < len(runes) && (unicode.IsLetter(runes[end]) || runes[end] == '.') {
		end++
	}
	switch strings.ToLower(strings.Trim(string(runes[idx:end]), ".")) {
	case "e.g", "i.e", "etc", "vs":
		return true
	default:
		return false
	}
}
