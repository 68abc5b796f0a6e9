// FILE: polygon.go
// Package main – HTTP client for the upstream market-data API (Polygon-style).
//
// Three endpoints, modeled only as far as the pipeline needs them:
//   • listContracts: GET /v3/reference/options/contracts (paginated; the
//     response carries an opaque next_url continuation)
//   • getSnapshot:   GET /v3/snapshot/options/{ticker} (greeks/IV/quote)
//   • getPrevClose:  GET /v2/aggs/ticker/{t}/prev (optional enrichment)
//
// The credential is held by the client, never read from ambient env at call
// sites. Continuation URLs are handled structurally: some providers return
// next_url already carrying the apiKey parameter and some do not, so we
// parse the URL and append the key only when it is genuinely absent —
// string concatenation would double the parameter.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// errUnauthorized marks a rejected credential. It is the one fatal error
// class in the pipeline: a walk aborts immediately instead of degrading to
// a partial result.
var errUnauthorized = errors.New("unauthorized: check API key and subscription")

// PolygonClient talks to the upstream REST API.
type PolygonClient struct {
	base string
	key  string
	hc   *http.Client
}

func NewPolygonClient(base, key string) *PolygonClient {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "https://api.polygon.io"
	}
	base = strings.TrimRight(base, "/")
	return &PolygonClient{
		base: base,
		key:  key,
		hc:   &http.Client{Timeout: 60 * time.Second},
	}
}

// ContractsQuery bounds one reference-data walk.
type ContractsQuery struct {
	Underlying    string
	ExpirationGTE time.Time // zero = unbounded
	ExpirationLTE time.Time // zero = unbounded
}

// --- Reference contracts (paginated) ---

// contractRow is the wire shape of one reference record; parsed defensively
// and converted to a ContractRef immediately.
type contractRow struct {
	Ticker           string  `json:"ticker"`
	UnderlyingTicker string  `json:"underlying_ticker"`
	ContractType     string  `json:"contract_type"`
	StrikePrice      float64 `json:"strike_price"`
	ExpirationDate   string  `json:"expiration_date"`
}

type contractsResp struct {
	Results []contractRow `json:"results"`
	NextURL string        `json:"next_url"`
}

// listContracts fetches one page. On the first call pageToken is empty and
// the query parameters are built here; afterwards pageToken is the verbatim
// next_url from the previous response (re-keyed if the provider dropped the
// credential). Returns the page's refs and the continuation token ("" when
// the chain ends).
func (pc *PolygonClient) listContracts(ctx context.Context, q ContractsQuery, pageSize int, pageToken string) ([]ContractRef, string, error) {
	var u string
	if pageToken == "" {
		v := url.Values{}
		v.Set("underlying_ticker", q.Underlying)
		if !q.ExpirationGTE.IsZero() {
			v.Set("expiration_date.gte", q.ExpirationGTE.Format("2006-01-02"))
		}
		if !q.ExpirationLTE.IsZero() {
			v.Set("expiration_date.lte", q.ExpirationLTE.Format("2006-01-02"))
		}
		if pageSize > 0 {
			v.Set("limit", fmt.Sprintf("%d", pageSize))
		}
		v.Set("apiKey", pc.key)
		u = fmt.Sprintf("%s/v3/reference/options/contracts?%s", pc.base, v.Encode())
	} else {
		ku, err := pc.ensureKeyed(pageToken)
		if err != nil {
			return nil, "", fmt.Errorf("continuation url: %w", err)
		}
		u = ku
	}

	var out contractsResp
	if err := pc.getJSON(ctx, u, &out); err != nil {
		return nil, "", err
	}

	refs := make([]ContractRef, 0, len(out.Results))
	for _, r := range out.Results {
		refs = append(refs, ContractRef{
			Ticker:     r.Ticker,
			Underlying: r.UnderlyingTicker,
			Side:       OptionSide(strings.ToLower(strings.TrimSpace(r.ContractType))),
			Strike:     r.StrikePrice,
			Expiration: parseExpiration(r.ExpirationDate),
		})
	}
	return refs, out.NextURL, nil
}

// ensureKeyed parses a continuation URL and appends the apiKey parameter
// only if no case-variant of it is already present.
func (pc *PolygonClient) ensureKeyed(raw string) (string, error) {
	pu, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := pu.Query()
	for k := range q {
		if strings.EqualFold(k, "apiKey") {
			return pu.String(), nil
		}
	}
	q.Set("apiKey", pc.key)
	pu.RawQuery = q.Encode()
	return pu.String(), nil
}

// --- Per-contract snapshot ---

// snapshotPayload is the detail body for one contract. Every field is
// optional on the wire; absence is preserved, never defaulted.
type snapshotPayload struct {
	Greeks          *Greeks  `json:"greeks"`
	IV              *float64 `json:"implied_volatility"`
	UnderlyingPrice *float64 `json:"underlying_price"`
	Quote           *Quote   `json:"last_quote"`
}

type snapshotResp struct {
	Results *snapshotPayload `json:"results"`
}

// getSnapshot fetches greeks/IV/quote for one contract ticker. A non-200
// status is an error, never parsed as data. An empty results object is
// returned as an empty payload (the contract exists but has no greeks yet).
func (pc *PolygonClient) getSnapshot(ctx context.Context, ticker string) (*snapshotPayload, error) {
	u := fmt.Sprintf("%s/v3/snapshot/options/%s?apiKey=%s",
		pc.base, url.PathEscape(ticker), url.QueryEscape(pc.key))
	var out snapshotResp
	if err := pc.getJSON(ctx, u, &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		return &snapshotPayload{}, nil
	}
	return out.Results, nil
}

// --- Underlying previous close (optional enrichment) ---

type prevCloseResp struct {
	Results []struct {
		Close float64 `json:"c"`
	} `json:"results"`
}

// getPrevClose returns the underlying's previous close. Callers treat any
// error as "no reference price" and fall back to the median strike; it never
// aborts a query.
func (pc *PolygonClient) getPrevClose(ctx context.Context, underlying string) (float64, error) {
	u := fmt.Sprintf("%s/v2/aggs/ticker/%s/prev?apiKey=%s",
		pc.base, url.PathEscape(underlying), url.QueryEscape(pc.key))
	var out prevCloseResp
	if err := pc.getJSON(ctx, u, &out); err != nil {
		return 0, err
	}
	if len(out.Results) == 0 || out.Results[0].Close <= 0 {
		return 0, fmt.Errorf("prev close: empty result for %s", underlying)
	}
	return out.Results[0].Close, nil
}

// --- shared request plumbing ---

// getJSON performs a GET and decodes the body into out. 401/403 map to the
// fatal errUnauthorized class; other non-2xx statuses return an error with
// the (truncated) body for debuggability.
func (pc *PolygonClient) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("newrequest: %w (url=%s)", err, u)
	}
	req.Header.Set("User-Agent", "chainscope/1.0")
	req.Header.Set("Accept", "application/json")

	res, err := pc.hc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w (status %d)", errUnauthorized, res.StatusCode)
	}
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("upstream %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
