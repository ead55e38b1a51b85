// Package archive stores finished interview results and their recordings.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/rbright/candor/internal/interview"
)

// Sink persists one finished interview and returns where it landed.
type Sink interface {
	Store(ctx context.Context, result interview.Result) (string, error)
}

// Nop discards results.
type Nop struct{}

// Store implements Sink.
func (Nop) Store(context.Context, interview.Result) (string, error) { return "", nil }

// object is one file of an archived interview, keyed relative to the archive root.
type object struct {
	key         string
	contentType string
	body        []byte
}

// objects lays out a result as result.json plus one file per captured answer.
func objects(prefix string, result interview.Result) ([]object, error) {
	id := strings.TrimSpace(result.ID)
	if id == "" {
		return nil, fmt.Errorf("archive result has no interview id")
	}
	base := path.Join(strings.Trim(prefix, "/"), id)

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode interview result: %w", err)
	}
	out := []object{{key: path.Join(base, "result.json"), contentType: "application/json", body: body}}

	for i, resp := range result.Responses {
		if resp.Recording == nil || len(resp.Recording.Data) == 0 {
			continue
		}
		out = append(out, object{
			key:         path.Join(base, fmt.Sprintf("answer-%02d%s", i+1, extension(resp.Recording.MIMEType))),
			contentType: resp.Recording.MIMEType,
			body:        resp.Recording.Data,
		})
	}
	return out, nil
}

func extension(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "video/webm", "audio/webm":
		return ".webm"
	case "":
		return ".bin"
	}
	if exts, err := mime.ExtensionsByType(mimeType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}
