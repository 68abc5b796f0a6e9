// FILE: pipeline.go
// Package main – One chain query end to end.
//
// runChainQuery strings the components together the way the interactive
// flow does:
//   walk reference pages → keep calls/puts → pick a center strike
//   (underlying prev close, else median strike) → take the MaxSnapshots
//   nearest-strike candidates → fan out snapshot fetches → merge →
//   filter by DTE/delta windows.
//
// Every run gets a uuid run ID that tags its logs and progress events.
// Stats carry attempted-vs-succeeded counts so a partially failed run is
// distinguishable from a clean one at a glance.

package main

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"
)

// marketAPI is the full upstream surface the pipeline consumes.
type marketAPI interface {
	contractLister
	snapshotGetter
	getPrevClose(ctx context.Context, underlying string) (float64, error)
}

// ChainService owns the upstream client and the knobs; it is safe for
// concurrent use because each query builds its own working state.
type ChainService struct {
	api  marketAPI
	cfg  Config
	hub  *Hub             // optional: progress fan-out to websocket clients
	now  func() time.Time // injectable clock
	idxs map[string]bool  // symbols queried with the index ("I:") prefix
}

func NewChainService(api marketAPI, cfg Config, hub *Hub) *ChainService {
	return &ChainService{
		api: api,
		cfg: cfg.clamped(),
		hub: hub,
		now: time.Now,
		idxs: map[string]bool{
			"SPX": true,
			"XSP": true,
		},
	}
}

// markIndex registers additional symbols that need the index prefix
// (hydrated from the watchlist file in server mode).
func (s *ChainService) markIndex(symbols []string) {
	for _, sym := range symbols {
		s.idxs[sym] = true
	}
}

// querySymbol maps a display symbol to the upstream query form.
func (s *ChainService) querySymbol(sym string) string {
	if s.idxs[sym] {
		return "I:" + sym
	}
	return sym
}

// ChainRequest is one query's inputs. Zero-valued filter fields fall back
// to the service config.
type ChainRequest struct {
	Symbol     string
	Expiration time.Time // optional: restrict to one expiry
	DTEMin     int
	DTEMax     int
	DeltaMin   float64
	DeltaMax   float64
	DeltaMode  DeltaMode
}

// ChainStats is the run's accounting, reported alongside the records.
type ChainStats struct {
	RunID              string        `json:"run_id"`
	Pages              int           `json:"pages"`
	Truncated          bool          `json:"truncated"`
	PartialWalk        bool          `json:"partial_walk"`
	ContractsFound     int           `json:"contracts_found"`
	SnapshotsAttempted int           `json:"snapshots_attempted"`
	SnapshotsOK        int           `json:"snapshots_ok"`
	SnapshotsFailed    int           `json:"snapshots_failed"`
	SnapshotsTimeout   int           `json:"snapshots_timeout"`
	CenterStrike       float64       `json:"center_strike"`
	CenterSource       string        `json:"center_source"` // prev_close | median_strike
	Filter             FilterStats   `json:"filter"`
	Elapsed            time.Duration `json:"elapsed_ns"`
}

// ChainResult is what one query produced.
type ChainResult struct {
	Symbol      string          `json:"symbol"`
	AsOf        time.Time       `json:"as_of"`
	Expirations []string        `json:"expirations"` // distinct, soonest first
	Records     []UnifiedRecord `json:"records"`
	Stats       ChainStats      `json:"stats"`
}

// runChainQuery executes one full acquisition. The only error it returns is
// the fatal class (rejected credential); everything else degrades to
// partial data recorded in Stats. An empty result is a valid outcome, not
// an error.
func (s *ChainService) runChainQuery(ctx context.Context, req ChainRequest) (*ChainResult, error) {
	start := s.now()
	asOf := start.UTC()
	runID := uuid.New().String()

	if req.DTEMax <= 0 && req.DTEMin <= 0 {
		req.DTEMin, req.DTEMax = s.cfg.DTEMin, s.cfg.DTEMax
	}
	if req.DeltaMin == 0 && req.DeltaMax == 0 {
		req.DeltaMin, req.DeltaMax = s.cfg.DeltaMin, s.cfg.DeltaMax
	}
	if req.DeltaMode == "" {
		req.DeltaMode = s.cfg.DeltaMode
	}

	qsym := s.querySymbol(req.Symbol)
	query := ContractsQuery{
		Underlying:    qsym,
		ExpirationGTE: asOf.AddDate(0, 0, req.DTEMin),
		ExpirationLTE: asOf.AddDate(0, 0, req.DTEMax),
	}

	log.Printf("[RUN %s] %s walk dte=[%d,%d] delta=[%.2f,%.2f] mode=%s",
		runID, req.Symbol, req.DTEMin, req.DTEMax, req.DeltaMin, req.DeltaMax, req.DeltaMode)

	walk, err := walkContracts(ctx, s.api, query, s.cfg.PageCap, s.cfg.PageSize)
	if err != nil {
		mtxRuns.WithLabelValues("auth_error").Inc()
		return nil, err
	}

	// Keep only real calls/puts; the reference feed also lists exotics.
	refs := make([]ContractRef, 0, len(walk.Refs))
	for _, r := range walk.Refs {
		if _, ok := ParseOptionSide(string(r.Side)); !ok {
			continue
		}
		if !req.Expiration.IsZero() && !sameDate(r.Expiration, req.Expiration) {
			continue
		}
		refs = append(refs, r)
	}

	res := &ChainResult{
		Symbol:      req.Symbol,
		AsOf:        asOf,
		Expirations: distinctExpirations(refs),
		Stats: ChainStats{
			RunID:          runID,
			Pages:          walk.Pages,
			Truncated:      walk.Truncated,
			PartialWalk:    walk.Partial,
			ContractsFound: len(refs),
		},
	}
	if len(refs) == 0 {
		res.Records = []UnifiedRecord{}
		res.Stats.Elapsed = s.now().Sub(start)
		mtxRuns.WithLabelValues("empty").Inc()
		return res, nil
	}

	// Center strike: prev close when the aggs endpoint cooperates, median
	// strike otherwise. Enrichment failure must never abort the query.
	center, centerSrc := 0.0, "median_strike"
	if pc, err := s.api.getPrevClose(ctx, qsym); err == nil {
		center, centerSrc = pc, "prev_close"
	} else {
		center = medianStrike(refs)
		log.Printf("[RUN %s] prev close unavailable (%v), centering on median strike %.2f", runID, err, center)
	}
	res.Stats.CenterStrike = center
	res.Stats.CenterSource = centerSrc

	candidates := nearestStrikeCandidates(refs, center, s.cfg.MaxSnapshots)
	tickers := make([]string, 0, len(candidates))
	for _, c := range candidates {
		tickers = append(tickers, c.Ticker)
	}

	progress := s.progressSink()
	snaps := fetchAllSnapshots(ctx, s.api, tickers, FetchOptions{
		RunID:           runID,
		Concurrency:     s.cfg.Concurrency,
		PerFetchTimeout: s.cfg.SnapshotTimeout,
		BatchTimeout:    s.cfg.BatchTimeout,
		Progress:        progress,
	})
	if progress != nil {
		close(progress)
	}

	res.Stats.SnapshotsAttempted = len(tickers)
	for _, sr := range snaps {
		switch sr.Status {
		case StatusOK:
			res.Stats.SnapshotsOK++
		case StatusTimeout:
			res.Stats.SnapshotsTimeout++
		default:
			res.Stats.SnapshotsFailed++
		}
	}

	merged := mergeRecords(candidates, snaps, asOf)
	filtered, fstats := applyFilters(merged, req.DTEMin, req.DTEMax, req.DeltaMin, req.DeltaMax, req.DeltaMode)
	res.Records = filtered
	res.Stats.Filter = fstats
	res.Stats.Elapsed = s.now().Sub(start)

	result := "ok"
	if walk.Partial || res.Stats.SnapshotsFailed > 0 || res.Stats.SnapshotsTimeout > 0 {
		result = "partial"
	}
	mtxRuns.WithLabelValues(result).Inc()
	mtxRunDuration.Observe(res.Stats.Elapsed.Seconds())
	log.Printf("[RUN %s] done: %d contracts, %d/%d snapshots ok, %d kept (%s)",
		runID, len(refs), res.Stats.SnapshotsOK, res.Stats.SnapshotsAttempted, len(filtered), result)
	return res, nil
}

// progressSink wires fetch progress into the websocket hub, when serving.
// Returns nil (no reporting) in one-shot CLI runs.
func (s *ChainService) progressSink() chan Progress {
	if s.hub == nil {
		return nil
	}
	ch := make(chan Progress, 64)
	go func() {
		for p := range ch {
			s.hub.broadcast(p)
		}
	}()
	return ch
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// distinctExpirations lists the distinct expiration dates present, soonest
// first, formatted as YYYY-MM-DD.
func distinctExpirations(refs []ContractRef) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range refs {
		if !r.HasExpiration() {
			continue
		}
		k := r.Expiration.Format("2006-01-02")
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
