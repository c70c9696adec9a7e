package tradingeconomics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/provider"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/internal/service/window"
	"MacroPull/pkg/config"
	"MacroPull/pkg/util"
)

const Name = config.SourceTradingEconomics

// Client reads commodity history from the Trading Economics API. It needs
// a credential; without one every fetch is empty.
type Client struct {
	base    *provider.Base
	apiKey  string
	baseURL string
}

func NewClient(cfg config.TradingEconomicsConfig, limiter *ratelimit.Limiter, breakers *provider.Breakers, opts ...provider.Option) *Client {
	if limiter != nil {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			limiter.SetHostRate(u.Host, cfg.RateLimit)
		}
	}
	o := provider.Options{Name: Name, Timeout: cfg.Timeout, Limiter: limiter, Breakers: breakers}
	for _, opt := range opts {
		opt(&o)
	}
	return &Client{
		base:    provider.NewBase(o),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (c *Client) Name() string { return Name }

type observation struct {
	Date     string   `json:"Date"`
	DateTime string   `json:"DateTime"`
	Value    *float64 `json:"Value"`
	Close    *float64 `json:"Close"`
}

func (c *Client) Fetch(ctx context.Context, series string, w models.MonthWindow, lookbackMonths int) (models.RawSeries, error) {
	if c.apiKey == "" {
		return models.RawSeries{}, models.Empty(Name, series, "no API key configured")
	}
	if strings.TrimSpace(series) == "" {
		return models.RawSeries{}, models.Empty(Name, series, "no series configured")
	}

	query := map[string][]string{
		"c":      {c.apiKey},
		"format": {"json"},
		"d1":     {window.LookbackStart(w, lookbackMonths).Format("2006-01-02")},
		"d2":     {w.FetchEnd().Format("2006-01-02")},
	}
	endpoint := c.baseURL + "/historical/commodity/" + url.PathEscape(series)
	body, err := c.base.Get(ctx, series, endpoint, query, nil)
	if err != nil {
		return models.RawSeries{}, err
	}

	var rows []observation
	if err := json.Unmarshal(body, &rows); err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, series, fmt.Errorf("decode history: %w", err))
	}

	points := make([]models.Point, 0, len(rows))
	for _, r := range rows {
		ds := r.Date
		if ds == "" {
			ds = r.DateTime
		}
		d, ok := util.ParseDate(strings.TrimSuffix(ds, "T00:00:00"))
		if !ok {
			continue
		}
		v := r.Value
		if v == nil {
			v = r.Close
		}
		points = append(points, models.Point{Date: d, Value: v})
	}

	raw := models.RawSeries{Name: series, Source: Name, Points: points}
	if raw.IsEmpty() {
		return models.RawSeries{}, models.Empty(Name, series, "no observations")
	}
	return raw, nil
}
