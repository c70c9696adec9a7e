package fred

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/provider"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/internal/service/window"
	"MacroPull/pkg/config"
	"MacroPull/pkg/util"
)

const Name = config.SourceFRED

// missingValue is how FRED marks an observation without a number.
const missingValue = "."

// Client reads FRED series: the JSON observations API when an API key is
// configured, the keyless fredgraph.csv download otherwise.
type Client struct {
	base     *provider.Base
	apiKey   string
	apiURL   string
	graphURL string
	floor    time.Time
}

func NewClient(cfg config.FREDConfig, limiter *ratelimit.Limiter, breakers *provider.Breakers, opts ...provider.Option) *Client {
	if limiter != nil {
		for _, raw := range []string{cfg.BaseURL, cfg.GraphURL} {
			if u, err := url.Parse(raw); err == nil {
				limiter.SetHostRate(u.Host, cfg.RateLimit)
			}
		}
	}
	o := provider.Options{Name: Name, Timeout: cfg.Timeout, Limiter: limiter, Breakers: breakers}
	for _, opt := range opts {
		opt(&o)
	}
	floor, _ := util.ParseDate(cfg.StartFloor)
	return &Client{
		base:     provider.NewBase(o),
		apiKey:   cfg.APIKey,
		apiURL:   cfg.BaseURL,
		graphURL: cfg.GraphURL,
		floor:    floor,
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Fetch(ctx context.Context, seriesID string, w models.MonthWindow, lookbackMonths int) (models.RawSeries, error) {
	if strings.TrimSpace(seriesID) == "" {
		return models.RawSeries{}, models.Empty(Name, seriesID, "no series id configured")
	}
	start := window.LookbackStart(w, lookbackMonths)
	if !c.floor.IsZero() && start.Before(c.floor) {
		start = c.floor
	}
	end := w.FetchEnd()

	var (
		raw models.RawSeries
		err error
	)
	if c.apiKey != "" {
		raw, err = c.fetchJSON(ctx, seriesID, start, end)
	} else {
		raw, err = c.fetchCSV(ctx, seriesID, start, end)
	}
	if err != nil {
		return models.RawSeries{}, err
	}
	if raw.IsEmpty() {
		return models.RawSeries{}, models.Empty(Name, seriesID, "no observations")
	}
	return raw, nil
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
	ErrorMessage string `json:"error_message"`
}

func (c *Client) fetchJSON(ctx context.Context, seriesID string, start, end time.Time) (models.RawSeries, error) {
	query := map[string][]string{
		"series_id":         {seriesID},
		"api_key":           {c.apiKey},
		"file_type":         {"json"},
		"observation_start": {start.Format("2006-01-02")},
		"observation_end":   {end.Format("2006-01-02")},
	}
	body, err := c.base.Get(ctx, seriesID, c.apiURL, query, nil)
	if err != nil {
		return models.RawSeries{}, err
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, seriesID, fmt.Errorf("decode observations: %w", err))
	}
	if resp.ErrorMessage != "" {
		return models.RawSeries{}, models.NewSourceError(Name, seriesID, errors.New(resp.ErrorMessage))
	}

	points := make([]models.Point, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		d, ok := util.ParseDate(o.Date)
		if !ok {
			continue
		}
		points = append(points, models.Point{Date: d, Value: parseValue(o.Value)})
	}
	return models.RawSeries{Name: seriesID, Source: Name, Points: points, Meta: map[string]string{"mode": "api"}}, nil
}

func (c *Client) fetchCSV(ctx context.Context, seriesID string, start, end time.Time) (models.RawSeries, error) {
	query := map[string][]string{
		"id":   {seriesID},
		"cosd": {start.Format("2006-01-02")},
		"coed": {end.Format("2006-01-02")},
	}
	body, err := c.base.Get(ctx, seriesID, c.graphURL, query, nil)
	if err != nil {
		return models.RawSeries{}, err
	}

	points, err := parseGraphCSV(body, seriesID)
	if err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, seriesID, err)
	}
	return models.RawSeries{Name: seriesID, Source: Name, Points: points, Meta: map[string]string{"mode": "fredgraph"}}, nil
}

// parseGraphCSV reads "<date>,<series id>" rows. The header names the date
// column DATE or observation_date depending on vintage.
func parseGraphCSV(body []byte, seriesID string) ([]models.Point, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), seriesID) {
			col = i
			break
		}
	}
	if col < 1 {
		if len(header) != 2 {
			return nil, fmt.Errorf("schema mismatch: header %v has no %s column", header, seriesID)
		}
		col = 1
	}

	var points []models.Point
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) <= col {
			continue
		}
		d, ok := util.ParseDate(rec[0])
		if !ok {
			continue
		}
		points = append(points, models.Point{Date: d, Value: parseValue(rec[col])})
	}
	return points, nil
}

func parseValue(s string) *float64 {
	if strings.TrimSpace(s) == missingValue {
		return nil
	}
	v, ok := util.ParseFloat(s)
	if !ok {
		return nil
	}
	return models.Float(v)
}
