package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

// Envelope frames every event on the wire: one JSON object per text frame
// carrying the event name and its payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Hub tracks live sessions and room membership and implements
// contract.Emitter. A room is named by a user id and addresses that user's
// current connection, if any.
type Hub struct {
	mu           sync.RWMutex
	log          *slog.Logger
	sendBuffer   int
	sessions     map[string]*session
	rooms        map[string]map[string]*session // room -> socketID -> session
	sessionRooms map[string]map[string]struct{} // socketID -> set of rooms
}

func NewHub(log *slog.Logger, sendBuffer int) *Hub {
	return &Hub{
		log:          log,
		sendBuffer:   sendBuffer,
		sessions:     make(map[string]*session),
		rooms:        make(map[string]map[string]*session),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// open wraps a freshly upgraded websocket into a tracked session and
// starts its write loop.
func (h *Hub) open(ws *websocket.Conn) *session {
	s := newSession(ws, h.sendBuffer)
	h.mu.Lock()
	h.sessions[s.id] = s
	h.sessionRooms[s.id] = make(map[string]struct{})
	h.mu.Unlock()

	s.start()
	return s
}

// detach forgets a session and all its room memberships. The caller is
// responsible for closing the socket.
func (h *Hub) detach(s *session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	for room := range h.sessionRooms[s.id] {
		h.leaveLocked(room, s.id)
	}
	delete(h.sessionRooms, s.id)
	h.mu.Unlock()
}

// Join adds the socket to a room. Unknown sockets are ignored.
func (h *Hub) Join(socketID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	s, ok := h.sessions[socketID]
	if !ok {
		return
	}
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*session)
		h.rooms[room] = members
	}
	members[socketID] = s
	h.sessionRooms[socketID][room] = struct{}{}
}

// Leave removes the socket from a room. Unknown sockets and non-members
// are ignored.
func (h *Hub) Leave(socketID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(room, socketID)
	if rooms, ok := h.sessionRooms[socketID]; ok {
		delete(rooms, room)
	}
}

// ToRoom delivers an event to every member of the room. An empty room is a
// no-op.
func (h *Hub) ToRoom(room, event string, payload any) {
	data, err := h.encode(event, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	members := make([]*session, 0, len(h.rooms[room]))
	for _, s := range h.rooms[room] {
		members = append(members, s)
	}
	h.mu.RUnlock()

	for _, s := range members {
		_ = s.enqueue(data)
	}
}

// ToSocket replies to a single connection, registered or not.
func (h *Hub) ToSocket(socketID, event string, payload any) {
	data, err := h.encode(event, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	s := h.sessions[socketID]
	h.mu.RUnlock()

	if s != nil {
		_ = s.enqueue(data)
	}
}

// Broadcast delivers an event to every connected party.
func (h *Hub) Broadcast(event string, payload any) {
	data, err := h.encode(event, payload)
	if err != nil {
		return
	}

	h.mu.RLock()
	all := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.mu.RUnlock()

	for _, s := range all {
		_ = s.enqueue(data)
	}
}

// Close terminates every tracked session and clears hub state.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*session, 0, len(h.sessions))
	for _, s := range h.sessions {
		all = append(all, s)
	}
	h.sessions = make(map[string]*session)
	h.rooms = make(map[string]map[string]*session)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()

	for _, s := range all {
		s.close(websocket.CloseGoingAway, "hub shutdown")
	}
}

func (h *Hub) encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("Failed to encode event payload", "event", event, "error", err)
		return nil, err
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.log.Error("Failed to encode event envelope", "event", event, "error", err)
		return nil, err
	}
	return frame, nil
}

func (h *Hub) leaveLocked(room, socketID string) {
	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, socketID)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}
