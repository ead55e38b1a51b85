package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rbright/candor/internal/interview"
)

// Dir writes archived interviews under a local directory.
type Dir struct {
	root string
}

// NewDir creates a directory sink rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

// Store writes <root>/<id>/result.json and the answer recordings.
func (d *Dir) Store(ctx context.Context, result interview.Result) (string, error) {
	objs, err := objects("", result)
	if err != nil {
		return "", err
	}
	for _, obj := range objs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		target := filepath.Join(d.root, filepath.FromSlash(obj.key))
		if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
			return "", fmt.Errorf("create archive dir: %w", err)
		}
		if err := os.WriteFile(target, obj.body, 0o600); err != nil {
			return "", fmt.Errorf("write archive file %q: %w", target, err)
		}
	}
	return filepath.Join(d.root, result.ID), nil
}
