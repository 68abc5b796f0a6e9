// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// Config holds every knob the pipeline uses; loadConfigFromEnv populates it
// from the (godotenv-hydrated) process env. The defaults mirror a sane
// interactive chain query: walk up to 20 pages of 1000 contracts, snapshot
// at most 400 contracts with 12 concurrent requests, and keep a 0–180 day
// expiration discovery window.
//
// Typical flow (see main.go):
//   loadAppEnv()
//   cfg := loadConfigFromEnv()
//   client := NewPolygonClient(cfg.APIBase, cfg.APIKey)

package main

import "time"

// Config holds all runtime knobs for acquisition and serving.
type Config struct {
	// Upstream API
	APIBase string // e.g. "https://api.polygon.io"
	APIKey  string // credential; explicit, never read at call sites

	// Pagination (PageWalker)
	PageCap  int // max pages per walk; hitting it truncates silently
	PageSize int // requested contracts per page

	// Snapshot fan-out (BoundedFetcher)
	Concurrency     int           // max in-flight snapshot requests
	SnapshotTimeout time.Duration // per-contract request timeout
	BatchTimeout    time.Duration // whole-batch deadline; 0 disables
	MaxSnapshots    int           // cap on contracts enriched per query

	// Discovery window & filters
	DTEMin    int
	DTEMax    int
	DeltaMin  float64
	DeltaMax  float64
	DeltaMode DeltaMode

	// Ops
	Port          int    // HTTP port for -serve mode (/metrics, /api, /ws)
	WatchlistFile string // optional YAML watchlist for the server
}

// loadConfigFromEnv reads the process env (already hydrated by loadAppEnv())
// and returns a Config with sane defaults if keys are missing.
func loadConfigFromEnv() Config {
	return Config{
		APIBase: getEnv("API_BASE", "https://api.polygon.io"),
		APIKey:  getEnv("POLYGON_API_KEY", ""),

		PageCap:  getEnvInt("PAGE_CAP", 20),
		PageSize: getEnvInt("PAGE_SIZE", 1000),

		Concurrency:     getEnvInt("SNAPSHOT_CONCURRENCY", 12),
		SnapshotTimeout: time.Duration(getEnvInt("SNAPSHOT_TIMEOUT_SEC", 20)) * time.Second,
		BatchTimeout:    time.Duration(getEnvInt("BATCH_TIMEOUT_SEC", 0)) * time.Second,
		MaxSnapshots:    getEnvInt("MAX_SNAPSHOTS", 400),

		DTEMin:    getEnvInt("DTE_MIN", 0),
		DTEMax:    getEnvInt("DTE_MAX", 180),
		DeltaMin:  getEnvFloat("DELTA_MIN", 0.05),
		DeltaMax:  getEnvFloat("DELTA_MAX", 0.35),
		DeltaMode: ParseDeltaMode(getEnv("DELTA_MODE", string(DeltaAbsolute))),

		Port:          getEnvInt("PORT", 8083),
		WatchlistFile: getEnv("WATCHLIST_FILE", ""),
	}
}

// clamped returns the config with out-of-range knobs coerced into usable
// values; concurrency and page sizes must be at least 1 to make progress.
func (c Config) clamped() Config {
	if c.PageCap < 1 {
		c.PageCap = 1
	}
	if c.PageSize < 1 {
		c.PageSize = 1
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.MaxSnapshots < 1 {
		c.MaxSnapshots = 1
	}
	if c.SnapshotTimeout <= 0 {
		c.SnapshotTimeout = 20 * time.Second
	}
	return c
}
