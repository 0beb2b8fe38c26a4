// Package sink writes the generator's output files to disk, grounded on the
// teacher's parallel errgroup-based TemplateWriter. Unlike the teacher,
// writes here are idempotent: a file is only overwritten when its rendered
// bytes actually differ, so running the generator with no input changes
// touches no mtimes (spec.md §5 "idempotent output").
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// File is one artifact to write: an output path and its already-rendered
// bytes.
type File struct {
	Path string
	Data []byte
}

// Write writes every file in files relative to outDir, skipping any file
// whose existing on-disk contents already match. Writes run concurrently;
// the first failure cancels the rest.
func Write(ctx context.Context, outDir string, files []File) error {
	eg, ctx := errgroup.WithContext(ctx)
	for _, f := range files {
		f := f
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return writeOne(outDir, f)
		})
	}
	return eg.Wait()
}

func writeOne(outDir string, f File) error {
	fullPath := f.Path
	if !filepath.IsAbs(fullPath) {
		fullPath = filepath.Join(outDir, f.Path)
	}

	if existing, err := os.ReadFile(fullPath); err == nil {
		if bytesEqual(existing, f.Data) {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.Path, err)
	}
	if err := os.WriteFile(fullPath, f.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
