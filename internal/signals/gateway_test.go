package signals

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExchangeServer(t *testing.T, hits *atomic.Int64, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("base") != "USD" || r.URL.Query().Get("symbols") != "IDR" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type stubTrends struct {
	scores map[string]float64
	err    error
	calls  atomic.Int64
}

func (s *stubTrends) Interest(ctx context.Context, keywords []string, months int) (map[string]float64, error) {
	s.calls.Add(1)
	return s.scores, s.err
}

func TestGateway_ExchangeRateCached(t *testing.T) {
	var hits atomic.Int64
	srv := newExchangeServer(t, &hits, `{"base":"USD","date":"2024-05-01","rates":{"IDR":15500}}`, http.StatusOK)

	g, err := NewGateway(Options{ExchangeURL: srv.URL, Timeout: time.Second}, quietLogger())
	if err != nil {
		t.Fatal(err)
	}

	for range 3 {
		got := g.ExchangeRate(context.Background(), "usd", "idr")
		if got == nil {
			t.Fatal("ExchangeRate() = nil, want reading")
		}
		if got.Rate != 15500 || got.AsOf != "2024-05-01" || got.Base != "USD" || got.Quote != "IDR" {
			t.Errorf("ExchangeRate() = %+v", got)
		}
	}

	if hits.Load() != 1 {
		t.Errorf("upstream hits = %d, want 1", hits.Load())
	}
}

func TestGateway_ExchangeRateUnavailable(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"server error", `oops`, http.StatusInternalServerError},
		{"missing quote", `{"base":"USD","rates":{"EUR":0.9}}`, http.StatusOK},
		{"bad json", `{"rates":`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int64
			srv := newExchangeServer(t, &hits, tt.body, tt.status)
			g, _ := NewGateway(Options{ExchangeURL: srv.URL, Timeout: time.Second}, quietLogger())

			if got := g.ExchangeRate(context.Background(), "USD", "IDR"); got != nil {
				t.Errorf("ExchangeRate() = %+v, want nil", got)
			}
			g.ExchangeRate(context.Background(), "USD", "IDR")
			if hits.Load() != 2 {
				t.Errorf("failures should not be cached, hits = %d", hits.Load())
			}
		})
	}
}

func TestGateway_ExchangeRateTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	g, _ := NewGateway(Options{ExchangeURL: srv.URL, Timeout: 50 * time.Millisecond}, quietLogger())

	start := time.Now()
	if got := g.ExchangeRate(context.Background(), "USD", "IDR"); got != nil {
		t.Errorf("ExchangeRate() = %+v, want nil on timeout", got)
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not applied")
	}
}

func TestGateway_SearchTrends(t *testing.T) {
	g, _ := NewGateway(Options{}, quietLogger())
	if got := g.SearchTrends(context.Background(), []string{"kebaya"}, 6); got != nil {
		t.Errorf("no provider: SearchTrends() = %v, want nil", got)
	}

	stub := &stubTrends{scores: map[string]float64{"kebaya": 52}}
	g, _ = NewGateway(Options{Trends: stub}, quietLogger())
	got := g.SearchTrends(context.Background(), []string{"kebaya"}, 6)
	if got["kebaya"] != 52 {
		t.Errorf("SearchTrends() = %v", got)
	}
	g.SearchTrends(context.Background(), []string{"kebaya"}, 6)
	if stub.calls.Load() != 1 {
		t.Errorf("provider calls = %d, want 1 (cached)", stub.calls.Load())
	}

	failing := &stubTrends{err: errors.New("provider down")}
	g, _ = NewGateway(Options{Trends: failing}, quietLogger())
	if got := g.SearchTrends(context.Background(), []string{"kebaya"}, 6); got != nil {
		t.Errorf("failing provider: SearchTrends() = %v, want nil", got)
	}
}

func TestGateway_Fetch(t *testing.T) {
	var hits atomic.Int64
	srv := newExchangeServer(t, &hits, `{"date":"2024-05-01","rates":{"IDR":14000}}`, http.StatusOK)
	stub := &stubTrends{scores: map[string]float64{"a": 30, "b": 60}}

	g, _ := NewGateway(Options{ExchangeURL: srv.URL, InflationYoY: 2.8, Trends: stub}, quietLogger())
	fixed := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	snap := g.Fetch(context.Background(), Request{Base: "USD", Quote: "IDR", Keywords: []string{"a", "b"}, LookbackMonths: 3})

	if snap.Exchange == nil || snap.Exchange.Rate != 14000 {
		t.Errorf("exchange = %+v", snap.Exchange)
	}
	if snap.Inflation == nil || snap.Inflation.YoYPercent != 2.8 || snap.Inflation.AsOf != "2024-05-02" {
		t.Errorf("inflation = %+v", snap.Inflation)
	}
	if mean, ok := snap.TrendMean(); !ok || mean != 45 {
		t.Errorf("TrendMean() = %v, %v; want 45", mean, ok)
	}
	if !snap.FetchedAt.Equal(fixed) {
		t.Errorf("fetched_at = %v", snap.FetchedAt)
	}
}

func TestHTTPTrendProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("months") != "6" {
			t.Errorf("months = %q", r.URL.Query().Get("months"))
		}
		io.WriteString(w, `{"interest":{"kebaya":[40,50,60],"batik":[]}}`)
	}))
	defer srv.Close()

	p := &HTTPTrendProvider{URL: srv.URL}
	got, err := p.Interest(context.Background(), []string{"kebaya", "batik"}, 6)
	if err != nil {
		t.Fatalf("Interest() error = %v", err)
	}
	if len(got) != 1 || got["kebaya"] != 50 {
		t.Errorf("Interest() = %v, want only kebaya=50", got)
	}
}
