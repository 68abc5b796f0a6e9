// FILE: merge_test.go

package main

import (
	"testing"
	"time"
)

func mergeRef(ticker string, exp time.Time) ContractRef {
	return ContractRef{Ticker: ticker, Underlying: "SPY", Side: SideCall, Strike: 450, Expiration: exp}
}

func TestMergeOneRecordPerRefInOrder(t *testing.T) {
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	refs := []ContractRef{mergeRef("O:C", exp), mergeRef("O:A", exp), mergeRef("O:B", exp)}
	snaps := map[string]SnapshotResult{
		"O:A": {Ticker: "O:A", Status: StatusOK, Greeks: &Greeks{Delta: fptr(0.3)}},
		"O:B": {Ticker: "O:B", Status: StatusFailed},
		// O:C has no snapshot at all
	}
	out := mergeRecords(refs, snaps, time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC))
	if len(out) != 3 {
		t.Fatalf("got %d records, expected 3", len(out))
	}
	for i, want := range []string{"O:C", "O:A", "O:B"} {
		if out[i].Ticker != want {
			t.Errorf("record[%d] = %s, expected %s (input order preserved)", i, out[i].Ticker, want)
		}
	}
}

func TestMergeNonOKSnapshotLeavesFieldsNil(t *testing.T) {
	exp := time.Date(2026, 9, 18, 0, 0, 0, 0, time.UTC)
	refs := []ContractRef{mergeRef("O:X", exp)}
	snaps := map[string]SnapshotResult{
		// a failed fetch should never contribute payload even if fields were set
		"O:X": {Ticker: "O:X", Status: StatusFailed, Greeks: &Greeks{Delta: fptr(0.9)}},
	}
	out := mergeRecords(refs, snaps, time.Now().UTC())
	if out[0].SnapshotStatus != StatusFailed {
		t.Errorf("status = %s, expected failed", out[0].SnapshotStatus)
	}
	if out[0].Greeks != nil || out[0].IV != nil || out[0].Quote != nil || out[0].UnderlyingPrice != nil {
		t.Error("non-ok snapshot must leave payload fields nil")
	}
}

func TestMergeMissingSnapshotKeepsReferenceFields(t *testing.T) {
	exp := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	refs := []ContractRef{mergeRef("O:Y", exp)}
	out := mergeRecords(refs, map[string]SnapshotResult{}, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	rec := out[0]
	if rec.Ticker != "O:Y" || rec.Strike != 450 {
		t.Error("reference fields must survive a missing snapshot")
	}
	if rec.SnapshotStatus != "" {
		t.Errorf("status = %q, expected empty for never-fetched", rec.SnapshotStatus)
	}
	if !rec.DTEValid || rec.DTE != 46 {
		t.Errorf("DTE = %d (valid=%v), expected 46 from the as-of date", rec.DTE, rec.DTEValid)
	}
}

func TestMergeDTEDerivedFromAsOf(t *testing.T) {
	exp := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	refs := []ContractRef{mergeRef("O:Z", exp)}

	asOf1 := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)
	asOf2 := time.Date(2026, 9, 10, 0, 1, 0, 0, time.UTC)
	if got := mergeRecords(refs, nil, asOf1)[0].DTE; got != 10 {
		t.Errorf("DTE = %d, expected 10 (time of day ignored)", got)
	}
	if got := mergeRecords(refs, nil, asOf2)[0].DTE; got != 0 {
		t.Errorf("DTE = %d, expected 0 on expiration day", got)
	}
}

func TestMergeNoExpirationMeansNoDTE(t *testing.T) {
	refs := []ContractRef{mergeRef("O:NOEXP", time.Time{})}
	rec := mergeRecords(refs, nil, time.Now().UTC())[0]
	if rec.DTEValid {
		t.Error("record without expiration must not claim a valid DTE")
	}
}
