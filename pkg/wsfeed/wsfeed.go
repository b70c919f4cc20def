// Package wsfeed is a small websocket broadcast hub: every connected
// client receives every payload, slow or dead clients are dropped.
package wsfeed

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Feed struct {
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration
	onConnect    func(remoteAddr string)

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func New(opts ...func(*Feed)) *Feed {
	f := &Feed{
		upgrader: websocket.Upgrader{
			// the dashboard page is served from another local port
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		pingInterval: 30 * time.Second,
		writeTimeout: 5 * time.Second,
		conns:        make(map[*websocket.Conn]struct{}),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Handler upgrades the request and keeps the connection registered until
// the peer goes away.
func (f *Feed) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := f.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		f.register(conn)
		if f.onConnect != nil {
			f.onConnect(conn.RemoteAddr().String())
		}
		go f.pingLoop(conn)
		go f.readLoop(conn)
	}
}

// Broadcast writes the payload to every connection, unregistering any that
// fail.
func (f *Feed) Broadcast(payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(f.writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(f.conns, conn)
			_ = conn.Close()
		}
	}
}

// ConnectionCount reports how many clients are attached.
func (f *Feed) ConnectionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.conns)
}

func (f *Feed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	for conn := range f.conns {
		_ = conn.Close()
		delete(f.conns, conn)
	}
	return nil
}

func (f *Feed) register(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		_ = conn.Close()
		return
	}
	f.conns[conn] = struct{}{}
}

func (f *Feed) unregister(conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.conns, conn)
	_ = conn.Close()
}

// readLoop discards inbound frames; its job is to notice the close.
func (f *Feed) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			f.unregister(conn)
			return
		}
	}
}

func (f *Feed) pingLoop(conn *websocket.Conn) {
	ticker := time.NewTicker(f.pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		f.mu.Lock()
		_, alive := f.conns[conn]
		f.mu.Unlock()
		if !alive {
			return
		}
		// WriteControl is safe to call concurrently with Broadcast.
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(f.writeTimeout)); err != nil {
			f.unregister(conn)
			return
		}
	}
}
