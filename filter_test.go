// FILE: filter_test.go

package main

import "testing"

func rec(ticker string, side OptionSide, dte int, delta *float64) UnifiedRecord {
	u := UnifiedRecord{
		ContractRef: ContractRef{Ticker: ticker, Side: side, Strike: 100},
		DTE:         dte,
		DTEValid:    true,
	}
	if delta != nil {
		u.Greeks = &Greeks{Delta: delta}
		u.SnapshotStatus = StatusOK
	}
	return u
}

func keptTickers(records []UnifiedRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Ticker)
	}
	return out
}

func TestFilterDTEWindowInclusive(t *testing.T) {
	in := []UnifiedRecord{
		rec("A", SideCall, 6, fptr(0.2)),
		rec("B", SideCall, 7, fptr(0.2)),
		rec("C", SideCall, 30, fptr(0.2)),
		rec("D", SideCall, 45, fptr(0.2)),
		rec("E", SideCall, 46, fptr(0.2)),
	}
	out, stats := applyFilters(in, 7, 45, 0.05, 0.35, DeltaAbsolute)
	got := keptTickers(out)
	want := []string{"B", "C", "D"}
	if len(got) != len(want) {
		t.Fatalf("kept %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("kept[%d] = %s, expected %s", i, got[i], want[i])
		}
	}
	if stats.OutsideRange != 2 {
		t.Errorf("OutsideRange = %d, expected 2", stats.OutsideRange)
	}
}

func TestFilterAbsoluteKeepsPuts(t *testing.T) {
	in := []UnifiedRecord{
		rec("CALL", SideCall, 30, fptr(0.30)),
		rec("PUT", SidePut, 30, fptr(-0.30)),
	}
	out, _ := applyFilters(in, 0, 180, 0.05, 0.35, DeltaAbsolute)
	if len(out) != 2 {
		t.Fatalf("kept %v, expected both sides under absolute mode", keptTickers(out))
	}
}

func TestFilterSignedIsDirectional(t *testing.T) {
	in := []UnifiedRecord{
		rec("CALL", SideCall, 30, fptr(0.30)),
		rec("PUT", SidePut, 30, fptr(-0.30)),
	}
	out, stats := applyFilters(in, 0, 180, 0.05, 0.35, DeltaSigned)
	if len(out) != 1 || out[0].Ticker != "CALL" {
		t.Fatalf("kept %v, expected only CALL under signed mode", keptTickers(out))
	}
	if stats.OutsideRange != 1 {
		t.Errorf("OutsideRange = %d, expected 1", stats.OutsideRange)
	}
}

func TestFilterMissingDeltaExcludedNotZeroed(t *testing.T) {
	in := []UnifiedRecord{
		rec("OK", SideCall, 30, fptr(0.20)),
		rec("NODELTA", SideCall, 30, nil),
	}
	// a window including zero would admit NODELTA if absence were coerced to 0
	out, stats := applyFilters(in, 0, 180, 0.0, 0.35, DeltaAbsolute)
	if len(out) != 1 || out[0].Ticker != "OK" {
		t.Fatalf("kept %v, expected only OK", keptTickers(out))
	}
	if stats.NoDelta != 1 {
		t.Errorf("NoDelta = %d, expected 1", stats.NoDelta)
	}
	if stats.OutsideRange != 0 {
		t.Errorf("OutsideRange = %d, expected 0 (missing is not out-of-range)", stats.OutsideRange)
	}
}

func TestFilterZeroDeltaIsAValue(t *testing.T) {
	in := []UnifiedRecord{rec("ZERO", SideCall, 30, fptr(0.0))}
	out, _ := applyFilters(in, 0, 180, 0.0, 0.35, DeltaAbsolute)
	if len(out) != 1 {
		t.Error("a genuine 0.0 delta inside the window must be kept")
	}
	out2, stats2 := applyFilters(in, 0, 180, 0.05, 0.35, DeltaAbsolute)
	if len(out2) != 0 || stats2.OutsideRange != 1 {
		t.Error("a genuine 0.0 delta below the window is out-of-range, not missing")
	}
}

func TestFilterInvalidDTEExcluded(t *testing.T) {
	bad := rec("NOEXP", SideCall, 0, fptr(0.2))
	bad.DTEValid = false
	in := []UnifiedRecord{bad, rec("OK", SideCall, 30, fptr(0.2))}
	out, stats := applyFilters(in, 0, 180, 0.05, 0.35, DeltaAbsolute)
	if len(out) != 1 || out[0].Ticker != "OK" {
		t.Fatalf("kept %v, expected only OK", keptTickers(out))
	}
	if stats.NoDTE != 1 {
		t.Errorf("NoDTE = %d, expected 1", stats.NoDTE)
	}
}

func TestFilterCountsAddUp(t *testing.T) {
	noDTE := rec("X", SideCall, 0, fptr(0.2))
	noDTE.DTEValid = false
	in := []UnifiedRecord{
		rec("A", SideCall, 30, fptr(0.20)),
		rec("B", SideCall, 30, nil),
		noDTE,
		rec("D", SideCall, 300, fptr(0.20)),
	}
	out, stats := applyFilters(in, 0, 180, 0.05, 0.35, DeltaAbsolute)
	if stats.In != 4 || stats.Kept != len(out) {
		t.Errorf("stats In=%d Kept=%d, records=%d", stats.In, stats.Kept, len(out))
	}
	if stats.Kept+stats.NoDTE+stats.NoDelta+stats.OutsideRange != stats.In {
		t.Errorf("exclusion counts don't add up: %+v", stats)
	}
}

func TestFilterMixedDeltasKeepsOnlyInWindow(t *testing.T) {
	in := []UnifiedRecord{
		rec("KEEP", SideCall, 45, fptr(0.10)),
		rec("NEG", SidePut, 45, fptr(-0.40)),
		rec("BIG", SideCall, 45, fptr(0.50)),
		rec("NONE", SideCall, 45, nil),
	}
	out, stats := applyFilters(in, 30, 60, 0.05, 0.35, DeltaAbsolute)
	if len(out) != 1 || out[0].Ticker != "KEEP" {
		t.Fatalf("kept %v, expected only KEEP", keptTickers(out))
	}
	if stats.NoDelta != 1 || stats.OutsideRange != 2 {
		t.Errorf("stats = %+v, expected 1 no-delta and 2 out-of-range", stats)
	}
}

func TestFilterIdempotent(t *testing.T) {
	in := []UnifiedRecord{
		rec("A", SideCall, 30, fptr(0.20)),
		rec("B", SideCall, 30, fptr(0.50)),
		rec("C", SidePut, 30, fptr(-0.10)),
	}
	once, _ := applyFilters(in, 0, 180, 0.05, 0.35, DeltaAbsolute)
	twice, stats := applyFilters(once, 0, 180, 0.05, 0.35, DeltaAbsolute)
	if len(twice) != len(once) {
		t.Fatalf("second pass changed the set: %v vs %v", keptTickers(twice), keptTickers(once))
	}
	for i := range once {
		if twice[i].Ticker != once[i].Ticker {
			t.Errorf("second pass reordered: %v vs %v", keptTickers(twice), keptTickers(once))
		}
	}
	if stats.Kept != stats.In {
		t.Errorf("second pass excluded records: %+v", stats)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	in := []UnifiedRecord{
		rec("C", SideCall, 10, fptr(0.10)),
		rec("A", SideCall, 20, fptr(0.20)),
		rec("B", SideCall, 30, fptr(0.30)),
	}
	out, _ := applyFilters(in, 0, 180, 0.05, 0.35, DeltaAbsolute)
	want := []string{"C", "A", "B"}
	for i := range want {
		if out[i].Ticker != want[i] {
			t.Errorf("kept[%d] = %s, expected %s", i, out[i].Ticker, want[i])
		}
	}
}
