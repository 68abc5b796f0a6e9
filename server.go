// FILE: server.go
// Package main – HTTP surface for server mode.
//
// Endpoints:
//   GET /api/chain       – run one chain query, JSON ChainResult
//   GET /api/chain.csv   – same query, CSV download
//   GET /api/watchlist   – symbols this instance serves
//   GET /ws              – websocket progress events
//   GET /healthz         – liveness
//   GET /metrics         – Prometheus exposition
//
// Query parameters for /api/chain: symbol (required), expiration
// (YYYY-MM-DD), dte_min, dte_max, delta_min, delta_max, delta_mode
// (absolute|signed). Omitted filter params fall back to config defaults.

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type server struct {
	svc *ChainService
	hub *Hub
	wl  *WatchlistFile // nil = serve any symbol
}

func newServer(svc *ChainService, hub *Hub, wl *WatchlistFile) *http.ServeMux {
	s := &server{svc: svc, hub: hub, wl: wl}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/chain", s.handleChain)
	mux.HandleFunc("/api/chain.csv", s.handleChainCSV)
	mux.HandleFunc("/api/watchlist", s.handleWatchlist)
	mux.HandleFunc("/ws", hub.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// parseChainRequest validates query params into a ChainRequest.
func (s *server) parseChainRequest(r *http.Request) (ChainRequest, error) {
	q := r.URL.Query()
	sym := strings.ToUpper(strings.TrimSpace(q.Get("symbol")))
	if sym == "" {
		return ChainRequest{}, fmt.Errorf("symbol is required")
	}
	if s.wl != nil && !s.wl.contains(sym) {
		return ChainRequest{}, fmt.Errorf("symbol %s not in watchlist", sym)
	}
	req := ChainRequest{Symbol: sym}

	if v := q.Get("expiration"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return ChainRequest{}, fmt.Errorf("expiration: want YYYY-MM-DD, got %q", v)
		}
		req.Expiration = t
	}
	var err error
	if req.DTEMin, err = intParam(q.Get("dte_min"), 0); err != nil {
		return ChainRequest{}, fmt.Errorf("dte_min: %w", err)
	}
	if req.DTEMax, err = intParam(q.Get("dte_max"), 0); err != nil {
		return ChainRequest{}, fmt.Errorf("dte_max: %w", err)
	}
	if req.DeltaMin, err = floatParam(q.Get("delta_min"), 0); err != nil {
		return ChainRequest{}, fmt.Errorf("delta_min: %w", err)
	}
	if req.DeltaMax, err = floatParam(q.Get("delta_max"), 0); err != nil {
		return ChainRequest{}, fmt.Errorf("delta_max: %w", err)
	}
	if v := q.Get("delta_mode"); v != "" {
		req.DeltaMode = ParseDeltaMode(v)
	}
	return req, nil
}

func (s *server) handleChain(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseChainRequest(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.svc.runChainQuery(r.Context(), req)
	if err != nil {
		httpError(w, http.StatusBadGateway, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (s *server) handleChainCSV(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseChainRequest(r)
	if err != nil {
		httpError(w, http.StatusBadRequest, err)
		return
	}
	res, err := s.svc.runChainQuery(r.Context(), req)
	if err != nil {
		httpError(w, http.StatusBadGateway, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s_chain.csv", req.Symbol))
	if err := writeRecordsCSV(w, res.Records); err != nil {
		log.Printf("[HTTP] csv write for %s: %v", req.Symbol, err)
	}
}

func (s *server) handleWatchlist(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.wl == nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"watchlist": []WatchEntry{}})
		return
	}
	_ = json.NewEncoder(w).Encode(s.wl)
}

func httpError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func intParam(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func floatParam(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}
