// FILE: filter.go
// Package main – FilterEngine: range predicates over unified records.
//
// applyFilters keeps records whose days-to-expiration and delta fall inside
// inclusive windows. Records missing either value are excluded — a missing
// delta is not a zero delta, and conflating them would let unsnapshotted
// contracts masquerade as deep out-of-the-money ones. Exclusions are
// counted so partial-data runs are debuggable.
//
// Output preserves input order; sorting for display is the caller's
// business.

package main

import "math"

// FilterStats makes the engine's exclusions observable.
type FilterStats struct {
	In           int `json:"in"`
	Kept         int `json:"kept"`
	NoDTE        int `json:"excluded_no_dte"`   // malformed/absent expiration
	NoDelta      int `json:"excluded_no_delta"` // no greeks in snapshot
	OutsideRange int `json:"excluded_out_of_range"`
}

// applyFilters applies the DTE and delta windows. mode selects signed or
// absolute delta comparison; the window bounds are inclusive on both ends.
func applyFilters(records []UnifiedRecord, dteMin, dteMax int, deltaMin, deltaMax float64, mode DeltaMode) ([]UnifiedRecord, FilterStats) {
	stats := FilterStats{In: len(records)}
	out := make([]UnifiedRecord, 0, len(records))
	for i := range records {
		rec := &records[i]
		if !rec.DTEValid {
			stats.NoDTE++
			continue
		}
		d, ok := rec.DeltaValue()
		if !ok {
			stats.NoDelta++
			continue
		}
		if mode == DeltaAbsolute {
			d = math.Abs(d)
		}
		if rec.DTE < dteMin || rec.DTE > dteMax || d < deltaMin || d > deltaMax {
			stats.OutsideRange++
			continue
		}
		out = append(out, *rec)
	}
	stats.Kept = len(out)
	return out, stats
}
