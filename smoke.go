// FILE: smoke.go
// Package main – Connectivity probe for the upstream API.
//
// `-smoke` hits one reference page and the prev-close endpoint with the
// configured credential and prints what came back. Run it after editing
// .env to confirm the key works before starting the server.

package main

import (
	"context"
	"fmt"
	"log"
	"time"
)

func runSmoke(client *PolygonClient) int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	q := ContractsQuery{
		Underlying:    "SPY",
		ExpirationGTE: time.Now().UTC(),
		ExpirationLTE: time.Now().UTC().AddDate(0, 0, 30),
	}
	refs, next, err := client.listContracts(ctx, q, 10, "")
	if err != nil {
		log.Printf("smoke: contracts error: %v", err)
		return 1
	}
	fmt.Printf("contracts: %d rows (more=%v)\n", len(refs), next != "")
	for i, r := range refs {
		if i >= 3 {
			break
		}
		fmt.Printf("%d) %s %s %.2f exp=%s\n",
			i, r.Ticker, r.Side, r.Strike, r.Expiration.Format("2006-01-02"))
	}

	pc, err := client.getPrevClose(ctx, "SPY")
	if err != nil {
		log.Printf("smoke: prev close error: %v", err)
		return 1
	}
	fmt.Printf("SPY prev close: %.2f\n", pc)
	return 0
}
