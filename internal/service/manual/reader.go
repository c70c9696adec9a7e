package manual

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/config"
	"MacroPull/pkg/util"
)

const Name = config.SourceManual

// Reader serves local override CSV files: first column date, second value.
type Reader struct {
	dir string
}

func NewReader(cfg config.ManualConfig) *Reader {
	return &Reader{dir: cfg.Dir}
}

func (r *Reader) Name() string { return Name }

// Fetch reads <dir>/<id>.csv. A missing file is empty, not an error.
func (r *Reader) Fetch(ctx context.Context, id string, _ models.MonthWindow, _ int) (models.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, id, err)
	}
	name := filepath.Base(strings.TrimSpace(id))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return models.RawSeries{}, models.Empty(Name, id, "no file configured")
	}
	if filepath.Ext(name) == "" {
		name += ".csv"
	}
	path := filepath.Join(r.dir, name)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return models.RawSeries{}, models.Empty(Name, id, "file not found")
	}
	if err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, id, err)
	}
	defer f.Close()

	points, err := readPoints(f)
	if err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, id, err)
	}
	raw := models.RawSeries{Name: id, Source: Name, Points: points, Meta: map[string]string{"path": path}}
	if raw.IsEmpty() {
		return models.RawSeries{}, models.Empty(Name, id, "no numeric rows")
	}
	return raw, nil
}

func readPoints(in io.Reader) ([]models.Point, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var points []models.Point
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return points, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if len(rec) < 2 {
			continue
		}
		d, ok := util.ParseDate(rec[0])
		if !ok {
			continue
		}
		p := models.Point{Date: d}
		if v, ok := util.ParseFloat(rec[1]); ok {
			p.Value = models.Float(v)
		}
		points = append(points, p)
	}
}
