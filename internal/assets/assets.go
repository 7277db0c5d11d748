// Package assets copies non-document files from the source tree into the
// rendered output, byte for byte.
package assets

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docforge/internal/foundation/errors"
)

// Copy mirrors the given source-relative paths from sourceDir into outputDir.
// Any I/O failure is fatal; assets are part of the promised output.
func Copy(sourceDir, outputDir string, relPaths []string) error {
	for _, rel := range relPaths {
		src := filepath.Join(sourceDir, filepath.FromSlash(rel))
		dst := filepath.Join(outputDir, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, "copy asset").
				WithContext("asset", rel).
				Build()
		}
	}
	if len(relPaths) > 0 {
		slog.Debug("Copied assets", "count", len(relPaths))
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
