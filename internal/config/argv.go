package config

import (
	"fmt"
	"strings"
	"unicode"
)

type splitState int

const (
	splitBare splitState = iota
	splitSingle
	splitDouble
)

// splitCommand tokenizes a shell-like command line. Single quotes are
// literal, double quotes honor \" and \\, and a leading # disables the command.
func splitCommand(line string) ([]string, error) {
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' {
		return nil, nil
	}

	var (
		words  []string
		word   strings.Builder
		inWord bool
		state  = splitBare
	)
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch state {
		case splitSingle:
			if r == '\'' {
				state = splitBare
				continue
			}
			word.WriteRune(r)
		case splitDouble:
			switch {
			case r == '"':
				state = splitBare
			case r == '\\' && i+1 < len(runes) && (runes[i+1] == '"' || runes[i+1] == '\\'):
				i++
				word.WriteRune(runes[i])
			default:
				word.WriteRune(r)
			}
		default:
			switch {
			case unicode.IsSpace(r):
				if inWord {
					words = append(words, word.String())
					word.Reset()
					inWord = false
				}
			case r == '\\':
				if i+1 == len(runes) {
					return nil, fmt.Errorf("unterminated escape sequence in command: %q", line)
				}
				i++
				word.WriteRune(runes[i])
				inWord = true
			case r == '\'':
				state = splitSingle
				inWord = true
			case r == '"':
				state = splitDouble
				inWord = true
			default:
				word.WriteRune(r)
				inWord = true
			}
		}
	}

	if state != splitBare {
		return nil, fmt.Errorf("unterminated quote in command: %q", line)
	}
	if inWord {
		words = append(words, word.String())
	}
	return words, nil
}

func mustSplitCommand(line string) []string {
	words, err := splitCommand(line)
	if err != nil {
		panic(err)
	}
	return words
}
