// FILE: merge.go
// Package main – Merger: join reference rows with snapshot results.
//
// The fan-out destroys arrival order; this step re-imposes a deterministic
// one. Output is exactly one UnifiedRecord per input ref, in input order,
// every time — required for reproducible display and tests. A ref whose
// snapshot failed (or never arrived) keeps its reference fields and nothing
// else; absent greeks stay nil rather than becoming zeros.

package main

import "time"

// mergeRecords joins refs with snaps by ticker. len(output) == len(refs)
// always. DTE is derived here from asOf because it goes stale with the
// calendar; nothing caches it.
func mergeRecords(refs []ContractRef, snaps map[string]SnapshotResult, asOf time.Time) []UnifiedRecord {
	out := make([]UnifiedRecord, 0, len(refs))
	for _, ref := range refs {
		rec := UnifiedRecord{ContractRef: ref}
		if ref.HasExpiration() {
			rec.DTE = daysBetween(ref.Expiration, asOf)
			rec.DTEValid = true
		}
		if snap, ok := snaps[ref.Ticker]; ok {
			rec.SnapshotStatus = snap.Status
			if snap.Status == StatusOK {
				rec.Greeks = snap.Greeks
				rec.IV = snap.IV
				rec.UnderlyingPrice = snap.UnderlyingPrice
				rec.Quote = snap.Quote
			}
		}
		out = append(out, rec)
	}
	return out
}
