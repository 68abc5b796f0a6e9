// FILE: fetcher.go
// Package main – BoundedFetcher: concurrent snapshot fan-out with a cap.
//
// fetchAllSnapshots issues one detail request per submitted ticker with at
// most opts.Concurrency in flight at any instant. Results are keyed by
// ticker, never by position: completion order is whatever the network gives
// us. The resilience contract is per-item isolation — one slow or broken
// contract yields one FAILED/TIMEOUT entry and never delays or drops the
// other N-1.
//
// There is no internal retry; masking failures as successes here would rob
// the caller of its attempted-vs-succeeded accounting. Retry policy, if
// wanted, belongs to the caller.
//
// Duplicates in the input are each fetched independently; the result map
// holds whichever write landed last (documented last-wins).

package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// snapshotGetter is the slice of the upstream client the fetcher needs.
type snapshotGetter interface {
	getSnapshot(ctx context.Context, ticker string) (*snapshotPayload, error)
}

// Progress is one fan-out progress event: how many of the submitted fetches
// have completed (any status). Consumers render spinners/bars; the fetcher
// never blocks on a slow consumer.
type Progress struct {
	RunID     string `json:"run_id"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// FetchOptions tunes one fan-out batch.
type FetchOptions struct {
	RunID           string
	Concurrency     int           // in-flight cap; coerced to >=1
	PerFetchTimeout time.Duration // per-ticker request deadline
	BatchTimeout    time.Duration // whole-batch deadline; 0 disables
	Progress        chan<- Progress
}

// fetchAllSnapshots returns exactly one SnapshotResult per unique ticker
// submitted. When the batch deadline expires, tickers still waiting for a
// slot are marked TIMEOUT immediately and in-flight requests are canceled,
// so the call returns promptly instead of hanging.
func fetchAllSnapshots(ctx context.Context, getter snapshotGetter, tickers []string, opts FetchOptions) map[string]SnapshotResult {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PerFetchTimeout <= 0 {
		opts.PerFetchTimeout = 20 * time.Second
	}
	if opts.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.BatchTimeout)
		defer cancel()
	}

	var (
		mu        sync.Mutex
		results   = make(map[string]SnapshotResult, len(tickers))
		sem       = make(chan struct{}, opts.Concurrency)
		wg        sync.WaitGroup
		completed atomic.Int64
		total     = len(tickers)
	)

	record := func(r SnapshotResult) {
		mu.Lock()
		results[r.Ticker] = r
		mu.Unlock()
		mtxSnapshotFetches.WithLabelValues(string(r.Status)).Inc()
		n := int(completed.Add(1))
		if opts.Progress != nil {
			select {
			case opts.Progress <- Progress{RunID: opts.RunID, Completed: n, Total: total}:
			default: // slow consumer misses an event; fetching never stalls
			}
		}
	}

	for _, t := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			// Wait for a slot, but give up as soon as the batch deadline
			// fires — pending tickers become TIMEOUT, not a hang.
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				record(SnapshotResult{Ticker: ticker, Status: StatusTimeout})
				return
			}
			defer func() { <-sem }()

			mtxSnapshotInflight.Inc()
			fctx, cancel := context.WithTimeout(ctx, opts.PerFetchTimeout)
			snap, err := getter.getSnapshot(fctx, ticker)
			cancel()
			mtxSnapshotInflight.Dec()

			if err != nil {
				status := StatusFailed
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
					status = StatusTimeout
				}
				record(SnapshotResult{Ticker: ticker, Status: status})
				return
			}
			record(SnapshotResult{
				Ticker:          ticker,
				Status:          StatusOK,
				Greeks:          snap.Greeks,
				IV:              snap.IV,
				UnderlyingPrice: snap.UnderlyingPrice,
				Quote:           snap.Quote,
			})
		}(t)
	}
	wg.Wait()
	return results
}
