package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"qrdine-order-service/internal/auth"
	"qrdine-order-service/internal/catalog"
	"qrdine-order-service/internal/config"
	"qrdine-order-service/internal/ordering"
	"qrdine-order-service/internal/promo"
	"qrdine-order-service/internal/session"
	"qrdine-order-service/internal/waiter"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = 10 * time.Second

// Server pushes session and venue events to websocket clients. It is an
// ordering.Publisher; register it on the session registry's stores.
type Server struct {
	Logger *zap.Logger
	Config config.Config

	Sessions   *session.Registry
	Catalog    catalog.Provider
	Waiter     *waiter.Service
	Promotions []promo.Promotion

	sessionHub *hub
	venueHub   *hub
}

func New(logger *zap.Logger, cfg config.Config) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		Logger:     logger,
		Config:     cfg,
		sessionHub: newHub(),
		venueHub:   newHub(),
	}
}

type wsRealtimeClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsRealtimeClient) writeJSON(value any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(value)
}

func (c *wsRealtimeClient) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// hub fans messages out to the clients subscribed to a key.
type hub struct {
	mu   sync.RWMutex
	subs map[string]map[*wsRealtimeClient]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*wsRealtimeClient]struct{})}
}

func (h *hub) subscribe(key string, client *wsRealtimeClient) (unsubscribe func()) {
	key = strings.TrimSpace(key)
	if key == "" {
		return func() {}
	}

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*wsRealtimeClient]struct{})
	}
	h.subs[key][client] = struct{}{}
	h.mu.Unlock()

	return func() { h.remove(key, client) }
}

func (h *hub) remove(key string, client *wsRealtimeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients := h.subs[key]; clients != nil {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subs, key)
		}
	}
}

func (h *hub) count(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key])
}

func (h *hub) broadcast(key string, message any) {
	h.mu.RLock()
	clientsMap := h.subs[key]
	clients := make([]*wsRealtimeClient, 0, len(clientsMap))
	for c := range clientsMap {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.writeJSON(message); err != nil {
			_ = c.conn.Close()
			h.remove(key, c)
		}
	}
}

type message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func writeError(conn *websocket.Conn, code, text string) {
	_ = conn.WriteJSON(errorMessage{Type: "error", Code: code, Message: text})
}

// Publish forwards a store event to the session's sockets and order events
// to the staff feed of the order's venue.
func (s *Server) Publish(_ context.Context, e ordering.Event) {
	s.sessionHub.broadcast(e.SessionID, message{Type: string(e.Type), Data: e})
	if e.Order != nil && e.Order.VenueID != "" {
		s.venueHub.broadcast(e.Order.VenueID, message{Type: string(e.Type), Data: e.Order})
	}
}

// PublishWaiter matches waiter.Listener.
func (s *Server) PublishWaiter(_ context.Context, e waiter.Event) {
	s.sessionHub.broadcast(e.Table.SessionID, message{Type: string(e.Type), Data: e})
	s.venueHub.broadcast(e.Table.VenueID, message{Type: string(e.Type), Data: e})
}

// CloseSession drops every socket of a session, used when the registry
// removes it.
func (s *Server) CloseSession(sessionID string) {
	s.sessionHub.mu.Lock()
	clients := s.sessionHub.subs[sessionID]
	delete(s.sessionHub.subs, sessionID)
	s.sessionHub.mu.Unlock()

	for c := range clients {
		_ = c.writeJSON(message{Type: "session.closed"})
		_ = c.conn.Close()
	}
}

// serve keeps an upgraded connection open until the client goes away or the
// request ends, pinging at the heartbeat interval. onMessage, when set,
// receives every text frame.
func (s *Server) serve(ctx context.Context, client *wsRealtimeClient, onMessage func([]byte)) {
	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			_, data, readErr := client.conn.ReadMessage()
			if readErr != nil {
				return
			}
			if onMessage != nil {
				onMessage(data)
			}
		}
	}()

	interval := s.Config.WSHeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-clientClosed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.ping(); err != nil {
				return
			}
		}
	}
}

func (s *Server) verify(r *http.Request) (*auth.Claims, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		token = auth.ParseBearerToken(r.Header.Get("Authorization"))
	}
	return auth.VerifyAccessToken(token, s.Config.JWTSecret)
}

// sessionStore resolves the ordering store a guest or customer token is
// bound to.
func (s *Server) sessionStore(r *http.Request) (*ordering.Store, bool) {
	claims, err := s.verify(r)
	if err != nil || (claims.Role != auth.RoleGuest && claims.Role != auth.RoleCustomer) || s.Sessions == nil {
		return nil, false
	}
	store, err := s.Sessions.Get(claims.SessionID)
	if err != nil {
		return nil, false
	}
	return store, true
}
