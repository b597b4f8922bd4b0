package pipeline

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Workdir is the request-scoped scratch directory. Every intermediate
// artifact of one pipeline invocation lives here and nowhere else; the
// directory is removed on every exit path once the response is streamed.
type Workdir struct {
	path string
}

// NewWorkdir creates a uniquely named directory under root.
func NewWorkdir(root string) (*Workdir, error) {
	path := filepath.Join(root, uuid.NewString())
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory: %w", err)
	}
	return &Workdir{path: path}, nil
}

// Path returns the absolute path of a file inside the working directory.
func (w *Workdir) Path(name string) string {
	return filepath.Join(w.path, name)
}

// Remove deletes the directory and everything in it. Safe to defer
// unconditionally; a failure is logged, not returned — there is nothing a
// caller could do about it mid-response.
func (w *Workdir) Remove() {
	if w == nil {
		return
	}
	if err := os.RemoveAll(w.path); err != nil {
		log.Printf("[Workdir] cleanup failed for %s: %v", w.path, err)
	}
}
