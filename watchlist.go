// FILE: watchlist.go
// Package main – YAML watchlist of underlyings for server mode.
//
// The watchlist names the symbols the /api/chain endpoint will serve, and
// marks which of them are indices (queried upstream with the "I:" prefix).
// SPX and XSP are always treated as indices even without a file.

package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type WatchEntry struct {
	Symbol string `yaml:"symbol"`
	Name   string `yaml:"name,omitempty"`
	Index  bool   `yaml:"index,omitempty"`
}

type WatchlistFile struct {
	Watchlist []WatchEntry `yaml:"watchlist"`
}

// loadWatchlist reads and normalizes path. Symbols are upper-cased and
// de-duplicated, first occurrence wins.
func loadWatchlist(path string) (*WatchlistFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wl WatchlistFile
	if err := yaml.Unmarshal(b, &wl); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	seen := make(map[string]struct{})
	out := make([]WatchEntry, 0, len(wl.Watchlist))
	for _, e := range wl.Watchlist {
		sym := strings.ToUpper(strings.TrimSpace(e.Symbol))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		e.Symbol = sym
		out = append(out, e)
	}
	wl.Watchlist = out
	return &wl, nil
}

func (wl *WatchlistFile) symbols() []string {
	out := make([]string, 0, len(wl.Watchlist))
	for _, e := range wl.Watchlist {
		out = append(out, e.Symbol)
	}
	return out
}

func (wl *WatchlistFile) indexSymbols() []string {
	var out []string
	for _, e := range wl.Watchlist {
		if e.Index {
			out = append(out, e.Symbol)
		}
	}
	return out
}

func (wl *WatchlistFile) contains(sym string) bool {
	for _, e := range wl.Watchlist {
		if e.Symbol == sym {
			return true
		}
	}
	return false
}
