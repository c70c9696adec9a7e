package repository

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/logger"
)

// FileDiagnostics writes <dir>/<name>.csv and <dir>/<name>.json per series.
// Each file is written to a temporary sibling and renamed into place, so a
// reader never sees a partial file.
type FileDiagnostics struct {
	dir string
	log *logger.Logger
}

// NewFileDiagnostics creates dir if needed.
func NewFileDiagnostics(dir string, log *logger.Logger) (*FileDiagnostics, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("diagnostics dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create diagnostics dir: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FileDiagnostics{dir: dir, log: log}, nil
}

func (f *FileDiagnostics) Write(_ context.Context, s models.NormalizedSeries, rec models.CacheRecord) error {
	name, err := safeName(rec.Name)
	if err != nil {
		return err
	}

	if err := f.writeAtomic(name+".csv", func(fh *os.File) error {
		w := csv.NewWriter(fh)
		if err := w.Write([]string{"date", "value"}); err != nil {
			return err
		}
		for _, p := range s.Points {
			v := ""
			if p.Value != nil {
				v = strconv.FormatFloat(*p.Value, 'f', -1, 64)
			}
			if err := w.Write([]string{p.Date.Format("2006-01-02"), v}); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	}); err != nil {
		return fmt.Errorf("write %s payload: %w", name, err)
	}

	if err := f.writeAtomic(name+".json", func(fh *os.File) error {
		enc := json.NewEncoder(fh)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}); err != nil {
		return fmt.Errorf("write %s metadata: %w", name, err)
	}

	f.log.Debug("diagnostics written", logger.Series(name), logger.String("dir", f.dir), logger.Int("rows", rec.RowCount))
	return nil
}

func (f *FileDiagnostics) Close() error { return nil }

func (f *FileDiagnostics) writeAtomic(file string, fill func(*os.File) error) error {
	tmp, err := os.CreateTemp(f.dir, "."+file+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(f.dir, file))
}

func safeName(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid series name %q", name)
	}
	return name, nil
}
