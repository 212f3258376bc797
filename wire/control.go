package wire

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Request is one renderer control-API call, per spec.md §6. Params is
// re-decoded per method by the registered Handler.
type Request struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request with the same id, carrying either a result or
// an error message.
type Response struct {
	ID     uint64          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// ControlEvent is a structured, unsolicited push to a control-API client:
// SceneStateChanged, SceneFlushed, SceneExpired, SceneRecovered,
// OffscreenBufferCreated/Destroyed/Linked, DisplayCreated/Destroyed,
// StreamAvailabilityChanged, per spec.md §6.
type ControlEvent struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Handler answers one decoded request's params with a JSON-encodable result
// or an error.
type Handler func(params json.RawMessage) (any, error)

// ErrUnknownMethod is returned for a Request naming an unregistered method.
var ErrUnknownMethod = fmt.Errorf("wire: unknown method")

// ControlServer accepts one websocket connection per control-API client
// (spec.md §6), dispatches requests to registered Handlers, and fans out
// ControlEvents to every connected client.
type ControlServer struct {
	upgrader websocket.Upgrader
	handlers map[string]Handler

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewControlServer constructs an empty control server; call Handle to
// register method handlers before serving connections.
func NewControlServer() *ControlServer {
	return &ControlServer{
		handlers: make(map[string]Handler),
		clients:  make(map[*websocket.Conn]struct{}),
	}
}

// Handle registers the handler invoked for requests naming method.
func (s *ControlServer) Handle(method string, h Handler) {
	s.handlers[method] = h
}

// ServeHTTP upgrades the connection to a websocket and serves control-API
// requests on it until the client disconnects.
func (s *ControlServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			return
		}
		resp := s.dispatch(req)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *ControlServer) dispatch(req Request) Response {
	h, ok := s.handlers[req.Method]
	if !ok {
		return Response{ID: req.ID, Error: fmt.Errorf("%s: %w", req.Method, ErrUnknownMethod).Error()}
	}
	result, err := h(req.Params)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: encoded}
}

// Broadcast pushes ev to every connected control-API client; write failures
// on one client never block or fail delivery to the others.
func (s *ControlServer) Broadcast(ev ControlEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.WriteJSON(ev)
	}
}

// NewEvent builds a ControlEvent from a kind tag and an arbitrary
// JSON-encodable payload, panicking only on a programmer error (a payload
// type that cannot be marshaled).
func NewEvent(kind string, payload any) ControlEvent {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("wire: event %s: %v", kind, err))
	}
	return ControlEvent{Kind: kind, Data: data}
}
