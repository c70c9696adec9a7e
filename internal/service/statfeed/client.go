package statfeed

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/provider"
	"MacroPull/internal/service/ratelimit"
	"MacroPull/pkg/config"
	"MacroPull/pkg/logger"
)

const Name = config.SourceStatFeed

type feed struct {
	url    string
	schema Schema
	base   *provider.Base
}

// Client reads loosely structured government CSV tables (RBA, ABS).
// Identifiers take the form "<feed>:<series id>"; the series id may be
// empty to rely on the keyword heuristic alone.
type Client struct {
	feeds map[string]*feed
}

func NewClient(feeds map[string]config.FeedConfig, limiter *ratelimit.Limiter, breakers *provider.Breakers, opts ...provider.Option) *Client {
	c := &Client{feeds: make(map[string]*feed, len(feeds))}
	for name, fc := range feeds {
		if limiter != nil {
			if u, err := url.Parse(fc.URL); err == nil {
				limiter.SetHostRate(u.Host, fc.RateLimit)
			}
		}
		o := provider.Options{
			Name:       Name,
			BreakerKey: Name + "/" + name,
			Timeout:    fc.Timeout,
			Limiter:    limiter,
			Breakers:   breakers,
		}
		for _, opt := range opts {
			opt(&o)
		}
		c.feeds[name] = &feed{
			url: fc.URL,
			schema: Schema{
				HeaderRow:  fc.HeaderRow,
				IDRow:      fc.IDRow,
				DateColumn: fc.DateColumn,
				Keywords:   fc.Keywords,
			},
			base: provider.NewBase(o),
		}
	}
	return c
}

func (c *Client) Name() string { return Name }

// Fetch downloads the whole table; the window only matters downstream.
func (c *Client) Fetch(ctx context.Context, id string, _ models.MonthWindow, _ int) (models.RawSeries, error) {
	feedName, seriesID, _ := strings.Cut(id, ":")
	f, ok := c.feeds[feedName]
	if !ok {
		return models.RawSeries{}, models.NewSourceError(Name, id, errors.New("unknown feed "+feedName))
	}

	body, err := f.base.Get(ctx, id, f.url, nil, nil)
	if err != nil {
		return models.RawSeries{}, err
	}

	t, err := readTable(body)
	if err != nil {
		return models.RawSeries{}, models.NewSourceError(Name, id, err)
	}

	col, method, err := f.schema.resolveColumn(t, seriesID)
	if err != nil {
		f.base.Logger().Info("column resolution failed",
			logger.String("feed", feedName),
			logger.String("series_id", seriesID),
			logger.String("method", method),
			logger.Error(err),
		)
		return models.RawSeries{}, models.Empty(Name, id, err.Error())
	}

	raw := models.RawSeries{
		Name:   id,
		Source: Name,
		Points: f.schema.points(t, col),
		Meta: map[string]string{
			"feed":         feedName,
			"column_match": method,
		},
	}
	if raw.IsEmpty() {
		return models.RawSeries{}, models.Empty(Name, id, "no numeric rows")
	}
	return raw, nil
}
