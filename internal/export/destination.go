package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// Destination receives an encoded JSONL payload.
type Destination interface {
	Write(ctx context.Context, data []byte) error
	String() string
}

// FileDestination writes the payload to a local file, replacing it.
type FileDestination struct {
	path string
}

// NewFileDestination returns a destination writing to path.
func NewFileDestination(path string) *FileDestination {
	return &FileDestination{path: path}
}

func (d *FileDestination) String() string { return "file:" + d.path }

// Write replaces the file through a temp file in the same directory.
func (d *FileDestination) Write(_ context.Context, data []byte) error {
	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.jsonl")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), d.path); err != nil {
		return fmt.Errorf("rename to %s: %w", d.path, err)
	}
	return nil
}

// Run encodes leads once and writes the payload to every destination. A
// failing destination does not stop the others; all failures are joined
// into the returned error.
func Run(ctx context.Context, leads []model.Lead, dests []Destination, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	var buf bytes.Buffer
	if err := WriteJSONL(leads, &buf); err != nil {
		return err
	}
	data := buf.Bytes()

	var errs []error
	for _, dest := range dests {
		if err := dest.Write(ctx, data); err != nil {
			logger.Error("export destination write failed", "destination", dest.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", dest, err))
			continue
		}
		logger.Info("export written", "destination", dest.String(), "leads", len(leads), "bytes", len(data))
	}
	return errors.Join(errs...)
}
