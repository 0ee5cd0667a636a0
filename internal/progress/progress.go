// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

// Package progress broadcasts pull progress events to websocket clients,
// for "dstore pull --watch" to let a second terminal observe a long-running
// pull without polling the filesystem.
package progress

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/boxkit/dstore/pkg/objrepo"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Broadcaster fans out ProgressEvents to every connected websocket client.
// It is safe for concurrent use.
type Broadcaster struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewBroadcaster constructs an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{clients: make(map[*websocket.Conn]struct{})}
}

// Handler upgrades incoming HTTP requests to websocket connections and
// registers them as broadcast targets until they disconnect.
func (b *Broadcaster) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("progress: upgrade failed: %v", err)
		return
	}

	b.mu.Lock()
	b.clients[conn] = struct{}{}
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.clients, conn)
		b.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard anything the client sends; we only push.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish sends ev as JSON to every currently-connected client. A callback
// suitable for passing as the progress func to Store.Pull / repo.Pull.
func (b *Broadcaster) Publish(ev objrepo.ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("progress: marshaling event: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(b.clients, conn)
		}
	}
}

// ListenAndServe starts a loopback-only HTTP server exposing the
// broadcaster at /progress on addr (e.g. "127.0.0.1:0"), returning the
// resolved listener address and a function to shut it down.
func (b *Broadcaster) ListenAndServe(addr string) (resolvedAddr string, shutdown func(), err error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/progress", b.Handler)

	srv := &http.Server{Addr: addr, Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("progress: listening on %s: %w", addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("progress: server error: %v", err)
		}
	}()

	return ln.Addr().String(), func() { srv.Close() }, nil
}
