package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// HTTPTrendProvider reads interest-over-time series from a JSON endpoint:
//
//	GET <URL>?keywords=a,b&months=6
//	{"interest": {"a": [40, 55, 61], "b": [3, 0, 7]}}
//
// Each keyword's score is the mean of its series.
type HTTPTrendProvider struct {
	URL    string
	Client *http.Client
}

type trendResponse struct {
	Interest map[string][]float64 `json:"interest"`
}

func (p *HTTPTrendProvider) Interest(ctx context.Context, keywords []string, months int) (map[string]float64, error) {
	u, err := url.Parse(p.URL)
	if err != nil {
		return nil, fmt.Errorf("trend url: %w", err)
	}
	q := u.Query()
	q.Set("keywords", strings.Join(keywords, ","))
	q.Set("months", strconv.Itoa(months))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body trendResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode trends: %w", err)
	}

	scores := make(map[string]float64, len(keywords))
	for _, kw := range keywords {
		if series := body.Interest[kw]; len(series) > 0 {
			scores[kw] = stat.Mean(series, nil)
		}
	}
	return scores, nil
}
