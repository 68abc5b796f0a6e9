// FILE: main.go
// Package main – Program entrypoint: one-shot CLI or HTTP server.
//
// Boot sequence:
//   1) loadAppEnv()                – read .env (no shell exports required)
//   2) cfg := loadConfigFromEnv()  – build runtime Config
//   3) wire Polygon client / hub / chain service
//   4) -serve: start the API + /metrics server on cfg.Port
//      otherwise: run one query and print JSON or CSV to stdout
//
// Flags:
//   -serve            Run the HTTP API server
//   -symbol <sym>     One-shot: underlying to query (e.g. SPY, SPX)
//   -expiration <d>   One-shot: restrict to one expiry (YYYY-MM-DD)
//   -csv              One-shot: emit CSV instead of JSON
//   -smoke            Probe upstream connectivity and exit
//
// Example:
//   go run . -symbol SPY -csv > spy_chain.csv
//   go run . -serve
//
// Notes:
//   - POLYGON_API_KEY must be set (in .env or the environment).
//   - No environment exports are needed; keep editing .env and restart.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	// ---- Flags ----
	var serve bool
	var symbol string
	var expiration string
	var asCSV bool
	var smoke bool
	flag.BoolVar(&serve, "serve", false, "Run the HTTP API server")
	flag.StringVar(&symbol, "symbol", "", "Underlying symbol for a one-shot query")
	flag.StringVar(&expiration, "expiration", "", "Restrict one-shot query to one expiry (YYYY-MM-DD)")
	flag.BoolVar(&asCSV, "csv", false, "One-shot output as CSV instead of JSON")
	flag.BoolVar(&smoke, "smoke", false, "Probe upstream connectivity and exit")
	flag.Parse()

	// ---- Environment & Config ----
	loadAppEnv()
	cfg := loadConfigFromEnv()
	if cfg.APIKey == "" {
		log.Fatal("POLYGON_API_KEY is required")
	}

	client := NewPolygonClient(cfg.APIBase, cfg.APIKey)

	if smoke {
		os.Exit(runSmoke(client))
	}

	// ---- Watchlist (server mode; optional elsewhere) ----
	var wl *WatchlistFile
	if cfg.WatchlistFile != "" {
		loaded, err := loadWatchlist(cfg.WatchlistFile)
		if err != nil {
			log.Fatalf("load watchlist %s: %v", cfg.WatchlistFile, err)
		}
		wl = loaded
		log.Printf("watchlist: %d symbols from %s", len(wl.Watchlist), cfg.WatchlistFile)
	}

	hub := NewHub()
	svc := NewChainService(client, cfg, hub)
	if wl != nil {
		svc.markIndex(wl.indexSymbols())
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if serve {
		runServer(ctx, cfg, svc, hub, wl)
		return
	}
	if symbol == "" {
		fmt.Fprintln(os.Stderr, "need -serve, -smoke, or -symbol <sym>")
		flag.Usage()
		os.Exit(2)
	}
	runOnce(ctx, svc, symbol, expiration, asCSV)
}

// runOnce executes a single query and writes it to stdout.
func runOnce(ctx context.Context, svc *ChainService, symbol, expiration string, asCSV bool) {
	req := ChainRequest{Symbol: strings.ToUpper(strings.TrimSpace(symbol))}
	if expiration != "" {
		t, err := time.Parse("2006-01-02", expiration)
		if err != nil {
			log.Fatalf("-expiration: want YYYY-MM-DD, got %q", expiration)
		}
		req.Expiration = t
	}

	res, err := svc.runChainQuery(ctx, req)
	if err != nil {
		log.Fatalf("chain query: %v", err)
	}
	if asCSV {
		if err := writeRecordsCSV(os.Stdout, res.Records); err != nil {
			log.Fatalf("csv: %v", err)
		}
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

// runServer blocks until ctx is canceled, then shuts the server down.
func runServer(ctx context.Context, cfg Config, svc *ChainService, hub *Hub, wl *WatchlistFile) {
	mux := newServer(svc, hub, wl)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Printf("serving API on :%d (metrics at /metrics)", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}
