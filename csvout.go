// FILE: csvout.go
// Package main – CSV export of unified records.
//
// One row per record, columns stable so downstream spreadsheets don't
// break. Optional values (greeks, IV, quotes) render as empty cells, not
// zeros; an empty cell means "not fetched", a 0 means a real zero.

package main

import (
	"encoding/csv"
	"io"
	"strconv"
)

var csvHeader = []string{
	"ticker", "underlying", "side", "strike", "expiration", "dte",
	"delta", "gamma", "theta", "vega", "iv",
	"bid", "ask", "last", "underlying_price", "snapshot_status",
}

// writeRecordsCSV streams records as CSV, header first. Rows follow input
// order.
func writeRecordsCSV(w io.Writer, records []UnifiedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		exp, dte := "", ""
		if rec.HasExpiration() {
			exp = rec.Expiration.Format("2006-01-02")
		}
		if rec.DTEValid {
			dte = strconv.Itoa(rec.DTE)
		}
		bid, ask, last := "", "", ""
		if rec.Quote != nil {
			bid = csvNum(rec.Quote.Bid)
			ask = csvNum(rec.Quote.Ask)
			last = csvNum(rec.Quote.LastPrice)
		}
		var g Greeks
		if rec.Greeks != nil {
			g = *rec.Greeks
		}
		row := []string{
			rec.Ticker,
			rec.Underlying,
			string(rec.Side),
			csvNum(rec.Strike),
			exp,
			dte,
			csvOpt(g.Delta),
			csvOpt(g.Gamma),
			csvOpt(g.Theta),
			csvOpt(g.Vega),
			csvOpt(rec.IV),
			bid,
			ask,
			last,
			csvOpt(rec.UnderlyingPrice),
			string(rec.SnapshotStatus),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvOpt(v *float64) string {
	if v == nil {
		return ""
	}
	return csvNum(*v)
}

func csvNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
