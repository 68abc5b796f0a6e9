// FILE: model.go
// Package main – Core data model for the chain acquisition pipeline.
//
// Three entities flow through a query:
//   ContractRef    – reference metadata for one listed option (join key: Ticker)
//   SnapshotResult – per-contract greeks/IV/quote payload, or a failure marker
//   UnifiedRecord  – one ContractRef decorated with its snapshot when present
//
// All three are owned by the pipeline invocation that created them; nothing
// here is cached or shared across queries. Optional numeric fields are
// pointers so "absent" never collides with a legitimate zero (a 0.00 delta
// is a real value).

package main

import (
	"strings"
	"time"
)

// OptionSide is the contract type as reported by the upstream reference feed.
type OptionSide string

const (
	SideCall OptionSide = "call"
	SidePut  OptionSide = "put"
)

// ParseOptionSide normalizes an upstream contract_type string. Anything that
// is not a call or put (warrants, "other") returns ok=false and is dropped
// by the walker's consumers.
func ParseOptionSide(s string) (OptionSide, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call":
		return SideCall, true
	case "put":
		return SidePut, true
	default:
		return "", false
	}
}

// ContractRef is the reference row for one tradable option instrument.
// Ticker is the globally unique identifier and the only join key; it is set
// once at parse time and never mutated.
type ContractRef struct {
	Ticker     string     `json:"ticker"`
	Underlying string     `json:"underlying_ticker"`
	Side       OptionSide `json:"contract_type"`
	Strike     float64    `json:"strike_price"`
	Expiration time.Time  `json:"expiration_date"` // date precision, UTC midnight; zero when malformed upstream
}

// HasExpiration reports whether the upstream payload carried a parseable
// expiration date. Records without one are excluded from DTE math but are
// still merged and counted.
func (c ContractRef) HasExpiration() bool { return !c.Expiration.IsZero() }

// FetchStatus classifies the outcome of one snapshot fetch.
type FetchStatus string

const (
	StatusOK      FetchStatus = "ok"
	StatusFailed  FetchStatus = "failed"
	StatusTimeout FetchStatus = "timeout"
)

// Greeks carries the per-contract sensitivities. Fields are pointers: the
// upstream omits any greek it cannot compute and we preserve that absence.
type Greeks struct {
	Delta *float64 `json:"delta,omitempty"`
	Gamma *float64 `json:"gamma,omitempty"`
	Theta *float64 `json:"theta,omitempty"`
	Vega  *float64 `json:"vega,omitempty"`
	Rho   *float64 `json:"rho,omitempty"`
}

// Quote is the last observed market for a contract.
type Quote struct {
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	LastPrice float64 `json:"last_price"`
}

// SnapshotResult is the outcome of one detail fetch, success or not.
// Invariant: when Status != StatusOK every optional field is nil — a failed
// call never leaks a partially decoded payload.
type SnapshotResult struct {
	Ticker          string      `json:"ticker"`
	Status          FetchStatus `json:"status"`
	Greeks          *Greeks     `json:"greeks,omitempty"`
	IV              *float64    `json:"implied_volatility,omitempty"`
	UnderlyingPrice *float64    `json:"underlying_price,omitempty"`
	Quote           *Quote      `json:"quote,omitempty"`
}

// UnifiedRecord joins one ContractRef with its snapshot, when one arrived.
// DTE is derived at merge time from the query's as-of date; it is never
// stored across queries because the passage of time invalidates it.
type UnifiedRecord struct {
	ContractRef
	DTE             int         `json:"dte"`
	DTEValid        bool        `json:"dte_valid"`
	SnapshotStatus  FetchStatus `json:"snapshot_status,omitempty"` // empty when no snapshot matched
	Greeks          *Greeks     `json:"greeks,omitempty"`
	IV              *float64    `json:"implied_volatility,omitempty"`
	UnderlyingPrice *float64    `json:"underlying_price,omitempty"`
	Quote           *Quote      `json:"quote,omitempty"`
}

// DeltaValue returns the record's delta and whether one is present.
func (u *UnifiedRecord) DeltaValue() (float64, bool) {
	if u.Greeks == nil || u.Greeks.Delta == nil {
		return 0, false
	}
	return *u.Greeks.Delta, true
}

// daysBetween computes whole calendar days from asOf to exp, both truncated
// to their UTC dates. Same-day expiration is 0 DTE.
func daysBetween(exp, asOf time.Time) int {
	ed := time.Date(exp.Year(), exp.Month(), exp.Day(), 0, 0, 0, 0, time.UTC)
	ad := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return int(ed.Sub(ad).Hours() / 24)
}

// parseExpiration parses the upstream YYYY-MM-DD date; a zero time means the
// field was missing or malformed.
func parseExpiration(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// DeltaMode selects how the delta window is compared.
type DeltaMode string

const (
	// DeltaAbsolute compares |delta| against the window — "5 to 35 delta"
	// regardless of call/put sign.
	DeltaAbsolute DeltaMode = "absolute"
	// DeltaSigned compares delta directly — directional windows like
	// -0.30..0.30.
	DeltaSigned DeltaMode = "signed"
)

// ParseDeltaMode maps a config string to a DeltaMode, defaulting to absolute
// (the common screener usage).
func ParseDeltaMode(s string) DeltaMode {
	if strings.ToLower(strings.TrimSpace(s)) == string(DeltaSigned) {
		return DeltaSigned
	}
	return DeltaAbsolute
}
