package statfeed

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"MacroPull/internal/domain/models"
	"MacroPull/pkg/util"
)

// Column match methods recorded in RawSeries.Meta["column_match"].
const (
	MatchSeriesID = "series_id"
	MatchKeywords = "keywords"
)

// Schema maps a government CSV table to its date column and the rows that
// label its value columns.
type Schema struct {
	HeaderRow  string
	IDRow      string
	DateColumn int
	Keywords   []string
}

// errNoColumn and errAmbiguous mean the table was readable but did not
// identify exactly one column.
var (
	errNoColumn  = errors.New("no matching column")
	errAmbiguous = errors.New("ambiguous column match")
)

type table struct {
	rows [][]string
}

func readTable(body []byte) (*table, error) {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty table")
	}
	return &table{rows: rows}, nil
}

// findRow returns the index of the first row whose date-column cell equals
// label, or -1.
func (t *table) findRow(label string, col int) int {
	if label == "" {
		return -1
	}
	for i, row := range t.rows {
		if col < len(row) && strings.EqualFold(strings.TrimSpace(row[col]), label) {
			return i
		}
	}
	return -1
}

// resolveColumn picks the value column: exact series ID in the ID row
// first, then a keyword match that must be unique.
func (s Schema) resolveColumn(t *table, seriesID string) (int, string, error) {
	if idRow := t.findRow(s.IDRow, s.DateColumn); idRow >= 0 && seriesID != "" {
		for i, cell := range t.rows[idRow] {
			if i != s.DateColumn && strings.EqualFold(strings.TrimSpace(cell), seriesID) {
				return i, MatchSeriesID, nil
			}
		}
	}

	if len(s.Keywords) == 0 {
		return -1, "", errNoColumn
	}
	headerRow := t.findRow(s.HeaderRow, s.DateColumn)
	if headerRow < 0 {
		headerRow = 0
	}

	var matches []int
	for i, cell := range t.rows[headerRow] {
		if i != s.DateColumn && containsAll(cell, s.Keywords) {
			matches = append(matches, i)
		}
	}
	method := MatchKeywords + ":" + strings.Join(s.Keywords, "+")
	switch len(matches) {
	case 0:
		return -1, method, errNoColumn
	case 1:
		return matches[0], method, nil
	default:
		return -1, method, fmt.Errorf("%w: %d columns", errAmbiguous, len(matches))
	}
}

// points reads every row whose date cell parses. Label rows above the data
// never parse as dates and are skipped.
func (s Schema) points(t *table, col int) []models.Point {
	var out []models.Point
	for _, row := range t.rows {
		if s.DateColumn >= len(row) {
			continue
		}
		d, ok := util.ParseDate(row[s.DateColumn])
		if !ok {
			continue
		}
		p := models.Point{Date: d}
		if col < len(row) {
			if v, ok := util.ParseFloat(row[col]); ok {
				p.Value = models.Float(v)
			}
		}
		out = append(out, p)
	}
	return out
}

func containsAll(label string, keywords []string) bool {
	label = strings.ToLower(label)
	for _, kw := range keywords {
		if !strings.Contains(label, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}
