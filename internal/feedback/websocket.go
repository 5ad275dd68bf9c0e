package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"pkt.systems/pslog"

	"github.com/1broseidon/swish/internal/gesture"
)

const (
	clientQueue  = 32
	writeTimeout = 2 * time.Second
)

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketHub broadcasts feedback events as JSON text messages to every
// connected client. Slow clients are disconnected rather than allowed to
// block publishing.
type WebSocketHub struct {
	upgrader websocket.Upgrader
	log      pslog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWebSocketHub creates a hub. With allowAnyOrigin false only same-origin
// browser clients may connect.
func NewWebSocketHub(allowAnyOrigin bool, logger pslog.Logger) *WebSocketHub {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	h := &WebSocketHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		log:     logger,
		clients: make(map[*wsClient]struct{}),
	}
	if allowAnyOrigin {
		h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
	} else {
		h.upgrader.CheckOrigin = isSameOrigin
	}
	return h
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return originURL.Host == r.Host
}

// ServeHTTP upgrades the request and registers the client.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("feedback websocket upgrade failed", "err", err)
		return
	}
	c := &wsClient{conn: conn, send: make(chan []byte, clientQueue)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.log.Debug("feedback websocket client connected", "remote", r.RemoteAddr)

	go h.writeLoop(c)
	// Reads only detect disconnects; clients have nothing to say.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *WebSocketHub) writeLoop(c *wsClient) {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("feedback websocket write failed", "err", err)
			h.remove(c)
			return
		}
	}
}

func (h *WebSocketHub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Publish implements gesture.Sink.
func (h *WebSocketHub) Publish(ev gesture.FeedbackEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("feedback encode failed", "err", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.log.Debug("feedback websocket client too slow, dropping")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of connected clients.
func (h *WebSocketHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *WebSocketHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// ListenAndServe serves the hub at path on addr until ctx is done.
func (h *WebSocketHub) ListenAndServe(ctx context.Context, addr, path string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return h.Serve(ctx, ln, path)
}

// Serve serves the hub on ln until ctx is done.
func (h *WebSocketHub) Serve(ctx context.Context, ln net.Listener, path string) error {
	if path == "" {
		path = "/feedback"
	}
	mux := http.NewServeMux()
	mux.Handle(path, h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		h.Close()
	}()

	h.log.Info("feedback websocket listening", "addr", ln.Addr().String(), "path", path)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
