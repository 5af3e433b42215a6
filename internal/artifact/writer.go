// Package artifact writes generated JSON artifacts under the content-API root.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists JSON artifacts relative to a fixed root directory.
// encoding/json marshals map keys in sorted order, so re-writing unchanged
// content produces byte-identical files.
type Writer struct {
	root string
}

// NewWriter creates the root directory and returns a writer for it.
// Failure here is the one unrecoverable build error: with no writable output
// root there is no way to proceed.
func NewWriter(root string) (*Writer, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output root %s: %w", root, err)
	}
	return &Writer{root: filepath.Clean(root)}, nil
}

// Root returns the content-API root directory.
func (w *Writer) Root() string { return w.root }

// WriteJSON marshals v with two-space indentation and writes it to rel
// (slash-separated, relative to the root), creating parent directories.
func (w *Writer) WriteJSON(rel string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", rel, err)
	}
	data = append(data, '\n')

	path := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create artifact directory for %s: %w", rel, err)
	}
	// #nosec G306 -- artifacts are public site content
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", rel, err)
	}
	return nil
}
