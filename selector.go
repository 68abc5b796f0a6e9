// FILE: selector.go
// Package main – Selector: nearest-match lookups over unified records.
//
// Two flavors of "closest":
//   • nearestRecord – closest unified record to a numeric target under a
//     caller-supplied key (delta, strike, DTE…), optionally restricted to
//     one option side. An empty candidate set is a normal outcome (no
//     greeks fetched yet), reported with ok=false rather than an error.
//   • nearestStrikeCandidates – the pre-snapshot selection step: the refs
//     whose strikes sit closest to a center price, capped at max. This is
//     what keeps the fan-out bounded on huge chains.

package main

import (
	"math"
	"sort"
)

// recordKey extracts the comparison value from a record; ok=false means the
// record has no defined value and is skipped (never treated as zero).
type recordKey func(*UnifiedRecord) (float64, bool)

// deltaKey is the common case: select by delta.
func deltaKey(u *UnifiedRecord) (float64, bool) { return u.DeltaValue() }

// absDeltaKey selects by delta magnitude — "the 30-delta put" means -0.30.
func absDeltaKey(u *UnifiedRecord) (float64, bool) {
	d, ok := u.DeltaValue()
	return math.Abs(d), ok
}

// strikeKey selects by strike price (always defined).
func strikeKey(u *UnifiedRecord) (float64, bool) { return u.Strike, true }

// nearestRecord returns the record minimizing |key(r) - target| among those
// matching side (empty side = any) with a defined key. Ties resolve to the
// earliest input index, deterministically.
func nearestRecord(records []UnifiedRecord, target float64, key recordKey, side OptionSide) (UnifiedRecord, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i := range records {
		if side != "" && records[i].Side != side {
			continue
		}
		v, ok := key(&records[i])
		if !ok {
			continue
		}
		// strict less-than keeps the first of equidistant candidates
		if d := math.Abs(v - target); d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return UnifiedRecord{}, false
	}
	return records[best], true
}

// nearestStrikeCandidates returns at most max refs ordered by distance of
// their strike from center. The sort is stable so equidistant strikes keep
// their upstream order.
func nearestStrikeCandidates(refs []ContractRef, center float64, max int) []ContractRef {
	out := make([]ContractRef, len(refs))
	copy(out, refs)
	sort.SliceStable(out, func(i, j int) bool {
		return math.Abs(out[i].Strike-center) < math.Abs(out[j].Strike-center)
	})
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// medianStrike is the fallback center when no underlying reference price is
// available: the median of the fetched contracts' strikes.
func medianStrike(refs []ContractRef) float64 {
	if len(refs) == 0 {
		return 0
	}
	ks := make([]float64, 0, len(refs))
	for _, r := range refs {
		ks = append(ks, r.Strike)
	}
	sort.Float64s(ks)
	n := len(ks)
	if n%2 == 1 {
		return ks[n/2]
	}
	return (ks[n/2-1] + ks[n/2]) / 2
}
