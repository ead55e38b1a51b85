package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// normalizeJSONC blanks comments and trailing commas with spaces so the
// result is strict JSON whose byte offsets still match the original text.
func normalizeJSONC(content string) (string, error) {
	buf := []byte(content)
	if err := blankComments(buf); err != nil {
		return "", err
	}
	blankTrailingCommas(buf)
	return string(buf), nil
}

// skipString returns the index just past the string literal opening at buf[i].
func skipString(buf []byte, i int) int {
	for i++; i < len(buf); i++ {
		switch buf[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(buf)
}

func blankComments(buf []byte) error {
	for i := 0; i < len(buf); {
		switch {
		case buf[i] == '"':
			i = skipString(buf, i)
		case buf[i] == '/' && i+1 < len(buf) && buf[i+1] == '/':
			for i < len(buf) && buf[i] != '\n' && buf[i] != '\r' {
				buf[i] = ' '
				i++
			}
		case buf[i] == '/' && i+1 < len(buf) && buf[i+1] == '*':
			end := strings.Index(string(buf[i+2:]), "*/")
			if end < 0 {
				return errors.New("unterminated block comment in JSONC")
			}
			stop := i + 2 + end + 2
			for ; i < stop; i++ {
				if buf[i] != '\n' && buf[i] != '\r' && buf[i] != '\t' {
					buf[i] = ' '
				}
			}
		default:
			i++
		}
	}
	return nil
}

func blankTrailingCommas(buf []byte) {
	pending := -1
	for i := 0; i < len(buf); {
		switch c := buf[i]; {
		case c == '"':
			pending = -1
			i = skipString(buf, i)
			continue
		case c == ',':
			pending = i
		case c == '}' || c == ']':
			if pending >= 0 {
				buf[pending] = ' '
			}
			pending = -1
		case c == ' ' || c == '\n' || c == '\r' || c == '\t':
		default:
			pending = -1
		}
		i++
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return err
	default:
		return errors.New("multiple JSON values are not allowed")
	}
}

// wrapJSONDecodeError prefixes syntax and type errors with their line and column.
func wrapJSONDecodeError(content string, err error) error {
	var offset int64
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return err
	}
	line, col := offsetToLineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func offsetToLineCol(content string, offset int64) (line, col int) {
	end := int(max(min(offset, int64(len(content)))-1, 0))
	prefix := content[:end]
	line = strings.Count(prefix, "\n") + 1
	col = end - strings.LastIndexByte(prefix, '\n')
	return line, col
}
