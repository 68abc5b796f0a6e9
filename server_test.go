// FILE: server_test.go

package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, wl *WatchlistFile) (*httptest.Server, func()) {
	t.Helper()
	upstream, _ := newFakeUpstream(t)
	hub := NewHub()
	svc := NewChainService(NewPolygonClient(upstream.URL, "k"), testConfig(), hub)
	api := httptest.NewServer(newServer(svc, hub, wl))
	return api, func() {
		api.Close()
		upstream.Close()
	}
}

func TestChainEndpointReturnsJSON(t *testing.T) {
	api, done := newTestServer(t, nil)
	defer done()

	res, err := http.Get(api.URL + "/api/chain?symbol=spy")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var out ChainResult
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Symbol != "SPY" {
		t.Errorf("symbol = %s, expected SPY (normalized)", out.Symbol)
	}
	if len(out.Records) == 0 || out.Stats.RunID == "" {
		t.Errorf("empty payload: %d records, run id %q", len(out.Records), out.Stats.RunID)
	}
}

func TestChainEndpointValidation(t *testing.T) {
	api, done := newTestServer(t, nil)
	defer done()

	cases := []string{
		"/api/chain",                               // no symbol
		"/api/chain?symbol=SPY&expiration=13-2026", // bad date
		"/api/chain?symbol=SPY&dte_min=abc",        // bad int
		"/api/chain?symbol=SPY&delta_max=notnum",   // bad float
	}
	for _, path := range cases {
		res, err := http.Get(api.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, expected 400", path, res.StatusCode)
		}
	}
}

func TestChainEndpointWatchlistRestriction(t *testing.T) {
	wl := &WatchlistFile{Watchlist: []WatchEntry{{Symbol: "SPY"}}}
	api, done := newTestServer(t, wl)
	defer done()

	res, err := http.Get(api.URL + "/api/chain?symbol=TSLA")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("off-watchlist symbol status = %d, expected 400", res.StatusCode)
	}
}

func TestChainCSVEndpoint(t *testing.T) {
	api, done := newTestServer(t, nil)
	defer done()

	res, err := http.Get(api.URL + "/api/chain.csv?symbol=SPY")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %s", ct)
	}
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) < 2 {
		t.Fatalf("csv has %d lines, expected header plus records", len(lines))
	}
	if !strings.HasPrefix(lines[0], "ticker,underlying,side,strike") {
		t.Errorf("header = %s", lines[0])
	}
}

func TestHealthz(t *testing.T) {
	api, done := newTestServer(t, nil)
	defer done()

	res, err := http.Get(api.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", res.StatusCode)
	}
}

func TestMetricsExposition(t *testing.T) {
	api, done := newTestServer(t, nil)
	defer done()

	res, err := http.Get(api.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	b, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "chain_runs_total") {
		t.Error("exposition missing chain_runs_total")
	}
}
