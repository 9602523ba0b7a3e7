package audit

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Artifact file names inside the artifact directory
const (
	OutputFile = "output.txt"
	NullFile   = "null_output.txt"
)

// ArtifactWriter persists the outcome of an audit pass
type ArtifactWriter interface {
	WriteArtifacts(Result) error
}

// Discard drops every result
var Discard ArtifactWriter = discard{}

type discard struct{}

func (discard) WriteArtifacts(Result) error { return nil }

// FileArtifacts writes the audited locations to dir/output.txt and the
// absent ones to dir/null_output.txt, one per line, replacing the files
// from the previous call. Concurrent calls are serialized so the pair on
// disk always comes from one result, and each file is swapped in by
// rename so readers never see a partial file.
type FileArtifacts struct {
	dir string
	mu  sync.Mutex
}

// NewFileArtifacts writes artifacts into dir, creating it on first use
func NewFileArtifacts(dir string) *FileArtifacts {
	return &FileArtifacts{dir: dir}
}

// Dir returns the artifact directory
func (f *FileArtifacts) Dir() string { return f.dir }

// WriteArtifacts writes both files
func (f *FileArtifacts) WriteArtifacts(r Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	if err := writeLines(filepath.Join(f.dir, OutputFile), r.Locations); err != nil {
		return err
	}
	return writeLines(filepath.Join(f.dir, NullFile), r.Absent)
}

func writeLines(path string, lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			tmp.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	log.Printf("audit: wrote %d locations to %s", len(lines), path)
	return nil
}
