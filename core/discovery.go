package core

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/huangsam/fhirgate/internal/contract"
	"github.com/huangsam/fhirgate/internal/parser"
)

// discoverFiles walks root and returns the files whose base name matches pattern,
// sorted lexically by their slash-separated path relative to root.
// Matching files with an unrecognized extension are skipped with a warning.
func discoverFiles(ctx context.Context, root, pattern string) ([]string, error) {
	var rels []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}
		matched, err := filepath.Match(pattern, d.Name())
		if err != nil {
			return fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if !matched {
			return nil
		}
		if _, err := parser.DetectContentType(path); err != nil {
			contract.LogWarn(fmt.Sprintf("Skipping %s", path), err)
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}

	slices.Sort(rels)
	files := make([]string, len(rels))
	for i, rel := range rels {
		files[i] = filepath.Join(root, filepath.FromSlash(rel))
	}
	return files, nil
}
