// FILE: hub.go
// Package main – Websocket fan-out for fetch progress.
//
// Server mode pushes Progress events to connected browsers so a long
// snapshot fan-out shows a moving bar instead of a frozen page. Delivery is
// best-effort end to end: the fetcher drops events the pipeline can't take,
// and the hub drops events a client's buffer can't take. Nobody upstream
// ever blocks on a websocket.

package main

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin:       func(*http.Request) bool { return true },
	EnableCompression: true,
}

type wsClient struct {
	c    *websocket.Conn
	out  chan any
	done chan struct{}
}

// Hub tracks connected websocket clients and replays the latest progress
// event to newcomers so a mid-run page load isn't blank.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	last    *Progress
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]struct{})}
}

func (h *Hub) broadcast(p Progress) {
	h.mu.Lock()
	h.last = &p
	for cl := range h.clients {
		select {
		case cl.out <- p:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *Hub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	cl := &wsClient{c: conn, out: make(chan any, 256), done: make(chan struct{})}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	last := h.last
	h.mu.Unlock()
	log.Printf("[WS] client connected (%d total)", h.clientCount())

	// writer
	go func() {
		ping := time.NewTicker(45 * time.Second)
		defer ping.Stop()
		for {
			select {
			case v := <-cl.out:
				_ = conn.WriteJSON(v)
			case <-ping.C:
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			case <-cl.done:
				return
			}
		}
	}()

	if last != nil {
		select {
		case cl.out <- *last:
		default:
		}
	}

	// reader: clients send nothing meaningful; loop until the peer goes away
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	close(cl.done)

	h.mu.Lock()
	delete(h.clients, cl)
	h.mu.Unlock()
	log.Printf("[WS] client disconnected (%d total)", h.clientCount())
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
