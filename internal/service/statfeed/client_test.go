package statfeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MacroPull/internal/domain/models"
	"MacroPull/internal/service/window"
	"MacroPull/pkg/config"
)

const f2CSV = "\xef\xbb\xbfF2 CAPITAL MARKET YIELDS - GOVERNMENT BONDS,,,\n" +
	"Title,Australian Government 3 year bond,Australian Government 10 year bond,Australian Government Indexed 10 year bond\n" +
	"Description,Yield,Yield,Yield\n" +
	"Units,Per cent,Per cent,Per cent\n" +
	",,,\n" +
	"Series ID,FCMYGBAG3D,FCMYGBAG10D,FCMYGBAGID\n" +
	"29-Aug-2025,3.40,4.20,1.90\n" +
	"30-Sep-2025,3.35,4.10,\n" +
	"01-Oct-2025,3.36,n/a,1.85\n"

var sep2025 = window.ForMonth(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))

func newFeedClient(t *testing.T, body string, fc config.FeedConfig) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	fc.URL = srv.URL + "/f2-data.csv"
	fc.Timeout = 5 * time.Second
	return NewClient(map[string]config.FeedConfig{"rba_f2": fc}, nil, nil)
}

func TestFetchBySeriesID(t *testing.T) {
	c := newFeedClient(t, f2CSV, config.FeedConfig{HeaderRow: "Title", IDRow: "Series ID"})

	raw, err := c.Fetch(context.Background(), "rba_f2:FCMYGBAG10D", sep2025, 24)
	require.NoError(t, err)

	assert.Equal(t, MatchSeriesID, raw.Meta["column_match"])
	require.Len(t, raw.Points, 3)
	assert.Equal(t, time.Date(2025, 8, 29, 0, 0, 0, 0, time.UTC), raw.Points[0].Date)
	assert.Equal(t, 4.20, *raw.Points[0].Value)
	assert.Equal(t, 4.10, *raw.Points[1].Value)
	assert.Nil(t, raw.Points[2].Value)
}

func TestFetchByUniqueKeywordMatch(t *testing.T) {
	c := newFeedClient(t, f2CSV, config.FeedConfig{HeaderRow: "Title", IDRow: "Series ID", Keywords: []string{"government 10", "bond"}})

	raw, err := c.Fetch(context.Background(), "rba_f2:UNKNOWN", sep2025, 24)
	require.NoError(t, err)
	assert.Equal(t, "keywords:government 10+bond", raw.Meta["column_match"])
	assert.Equal(t, 4.20, *raw.Points[0].Value)
}

func TestAmbiguousKeywordMatchIsEmpty(t *testing.T) {
	// "10" and "year" match both the nominal and the indexed 10 year bond.
	c := newFeedClient(t, f2CSV, config.FeedConfig{HeaderRow: "Title", IDRow: "Series ID", Keywords: []string{"10", "year"}})

	_, err := c.Fetch(context.Background(), "rba_f2:", sep2025, 24)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrSourceEmpty))
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestNoKeywordMatchIsEmpty(t *testing.T) {
	c := newFeedClient(t, f2CSV, config.FeedConfig{HeaderRow: "Title", Keywords: []string{"cash", "rate"}})

	_, err := c.Fetch(context.Background(), "rba_f2", sep2025, 24)
	assert.True(t, errors.Is(err, models.ErrSourceEmpty))
}

func TestHeaderlessTableUsesFirstRow(t *testing.T) {
	body := "Date,Cash Rate Target,Change\n2025-08-12,3.60,-0.25\n2025-09-30,3.60,0\n"
	c := newFeedClient(t, body, config.FeedConfig{Keywords: []string{"cash", "rate"}})

	raw, err := c.Fetch(context.Background(), "rba_f2:", sep2025, 24)
	require.NoError(t, err)
	require.Len(t, raw.Points, 2)
	assert.Equal(t, 3.60, *raw.Points[1].Value)
}

func TestUnknownFeedAndBrokenTable(t *testing.T) {
	c := newFeedClient(t, "", config.FeedConfig{IDRow: "Series ID"})

	_, err := c.Fetch(context.Background(), "abs_cpi:A2325846C", sep2025, 24)
	var se *models.SourceError
	assert.True(t, errors.As(err, &se))

	_, err = c.Fetch(context.Background(), "rba_f2:FCMYGBAG10D", sep2025, 24)
	assert.True(t, errors.Is(err, models.ErrSourceEmpty), "empty body")
}
