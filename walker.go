// FILE: walker.go
// Package main – PageWalker: cursor pagination over the contracts feed.
//
// walkContracts follows the next_url continuation chain until the chain
// ends, an empty page arrives, or pageCap pages have been consumed. The cap
// is a safety rail against unbounded crawling: hitting it truncates the
// result silently (callers wanting completeness raise the cap).
//
// Failure semantics (the one asymmetry worth reading twice):
//   • rejected credential  -> fatal, surfaced as an error, no partial result
//   • any other page error -> walk stops, records collected so far are
//     returned with Partial=true; the caller decides whether partial
//     reference data is usable
//
// The walker does not deduplicate: if upstream pagination repeats a record,
// the duplicate propagates.

package main

import (
	"context"
	"errors"
	"log"
)

// contractLister is the slice of the upstream client the walker needs.
type contractLister interface {
	listContracts(ctx context.Context, q ContractsQuery, pageSize int, pageToken string) ([]ContractRef, string, error)
}

// WalkResult is what a walk produced and how it ended.
type WalkResult struct {
	Refs      []ContractRef
	Pages     int   // pages actually fetched
	Truncated bool  // pageCap reached with a continuation still pending
	Partial   bool  // a page fetch failed after some records were collected
	PageErr   error // the non-fatal error that ended the walk, for reporting
}

// walkContracts collects reference records for q. Only an authentication
// rejection is returned as an error; every other failure mode degrades to a
// partial WalkResult.
func walkContracts(ctx context.Context, lister contractLister, q ContractsQuery, pageCap, pageSize int) (WalkResult, error) {
	var res WalkResult
	token := ""
	for res.Pages < pageCap {
		refs, next, err := lister.listContracts(ctx, q, pageSize, token)
		if err != nil {
			if errors.Is(err, errUnauthorized) {
				return WalkResult{}, err
			}
			log.Printf("[WALK] %s page %d failed, keeping %d records: %v",
				q.Underlying, res.Pages+1, len(res.Refs), err)
			res.Partial = true
			res.PageErr = err
			mtxWalkPartial.Inc()
			return res, nil
		}
		res.Pages++
		mtxPagesWalked.Inc()
		if len(refs) == 0 {
			return res, nil
		}
		res.Refs = append(res.Refs, refs...)
		mtxContractsCollected.Add(float64(len(refs)))
		if next == "" {
			return res, nil
		}
		token = next
	}
	// Cap reached with more pages available: silent truncation by contract.
	res.Truncated = true
	log.Printf("[WALK] %s hit page cap %d with continuation pending (%d records kept)",
		q.Underlying, pageCap, len(res.Refs))
	return res, nil
}
