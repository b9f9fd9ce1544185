package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"support-relay/contract"
	"support-relay/domain"
	"support-relay/runtime"
	"support-relay/services"
)

const readTimeout = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now; plug a proper checker when auth is added.
		return true
	},
}

var validate = validator.New()

// Gateway is the websocket endpoint: it upgrades connections, decodes the
// event envelope and dispatches to the relay. Malformed events are dropped
// without a reply; this is a best-effort surface, not a validated protocol.
type Gateway struct {
	log       *slog.Logger
	hub       *Hub
	lifecycle *runtime.Lifecycle
	relay     services.IRelayService
	discovery services.IDiscoveryService
	presence  contract.IPresenceRegistry
	readLimit int64
}

func NewGateway(log *slog.Logger, hub *Hub, lifecycle *runtime.Lifecycle,
	relay services.IRelayService, discovery services.IDiscoveryService,
	presence contract.IPresenceRegistry, readLimit int64) *Gateway {
	return &Gateway{
		log:       log,
		hub:       hub,
		lifecycle: lifecycle,
		relay:     relay,
		discovery: discovery,
		presence:  presence,
		readLimit: readLimit,
	}
}

type registerPayload struct {
	UserID string      `json:"userId" validate:"required"`
	Role   domain.Role `json:"role" validate:"required,oneof=user admin"`
}

type userMessagePayload struct {
	FromUserID string     `json:"fromUserId" validate:"required"`
	Message    string     `json:"message" validate:"required"`
	Kind       string     `json:"messageType" validate:"omitempty,oneof=text image file"`
	FileURL    *string    `json:"fileUrl"`
	FileName   *string    `json:"fileName"`
	Timestamp  *time.Time `json:"timestamp"`
}

type adminMessagePayload struct {
	ToUserID  string     `json:"toUserId" validate:"required"`
	Message   string     `json:"message" validate:"required"`
	Kind      string     `json:"messageType" validate:"omitempty,oneof=text image file"`
	FileURL   *string    `json:"fileUrl"`
	FileName  *string    `json:"fileName"`
	Timestamp *time.Time `json:"timestamp"`
}

type checkOnlinePayload struct {
	UserID string `json:"userId" validate:"required"`
}

type onlineStatusPayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type adminStatusPayload struct {
	IsOnline bool `json:"isOnline"`
}

// connState is the registered identity of one socket, owned by its read
// loop.
type connState struct {
	userID string
	role   domain.Role
}

// Handle upgrades the HTTP connection and processes event frames until the
// client disconnects.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response; nothing more to do.
		return
	}

	sess := g.hub.open(ws)
	g.lifecycle.OnConnect(sess.id)
	defer func() {
		g.hub.detach(sess)
		g.lifecycle.OnDisconnect(sess.id)
		sess.close(websocket.CloseNormalClosure, "session closed")
	}()

	ws.SetReadLimit(g.readLimit)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	state := &connState{}
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(data, &envelope); err != nil {
			g.log.Debug("Dropping unparsable frame", "socket_id", sess.id)
			continue
		}
		g.dispatch(sess, state, envelope)
	}
}

func (g *Gateway) dispatch(sess *session, state *connState, envelope Envelope) {
	switch envelope.Event {
	case contract.EventRegister:
		var p registerPayload
		if !g.decode(sess, envelope, &p) {
			return
		}
		state.userID, state.role = p.UserID, p.Role
		g.lifecycle.OnRegister(p.UserID, p.Role, sess.id)

	case contract.EventUserMessage:
		var p userMessagePayload
		if !g.decode(sess, envelope, &p) {
			return
		}
		_ = g.relay.SubmitUserMessage(domain.SubmitCommand{
			FromUserID: p.FromUserID,
			Body:       p.Message,
			Kind:       domain.Kind(p.Kind),
			FileURL:    p.FileURL,
			FileName:   p.FileName,
			Timestamp:  p.Timestamp,
		})

	case contract.EventAdminMessage:
		if state.role != domain.RoleAdmin || state.userID == "" {
			g.log.Debug("Dropping adminMessage from unregistered socket", "socket_id", sess.id)
			return
		}
		var p adminMessagePayload
		if !g.decode(sess, envelope, &p) {
			return
		}
		_ = g.relay.SubmitAdminMessage(domain.SubmitCommand{
			FromUserID: state.userID,
			ToUserID:   &p.ToUserID,
			Body:       p.Message,
			Kind:       domain.Kind(p.Kind),
			FileURL:    p.FileURL,
			FileName:   p.FileName,
			Timestamp:  p.Timestamp,
		})

	case contract.EventDeliveredAck:
		if id, ok := g.decodeID(sess, envelope); ok {
			g.relay.AckDelivered(id)
		}

	case contract.EventSeenAck:
		if id, ok := g.decodeID(sess, envelope); ok {
			g.relay.AckSeen(id)
		}

	case contract.EventCheckOnline:
		var p checkOnlinePayload
		if !g.decode(sess, envelope, &p) {
			return
		}
		g.hub.ToSocket(sess.id, contract.EventOnlineStatus, onlineStatusPayload{
			UserID:   p.UserID,
			IsOnline: g.presence.IsOnline(p.UserID),
		})

	case contract.EventGetAdminStatus:
		g.hub.ToSocket(sess.id, contract.EventAdminStatus, adminStatusPayload{
			IsOnline: g.discovery.IsAnyAdminOnline(),
		})

	case contract.EventGetUsers:
		correspondents, err := g.discovery.ListCorrespondents()
		if err != nil {
			g.log.Error("Failed to list correspondents", "error", err)
			return
		}
		g.hub.ToSocket(sess.id, contract.EventUsersList, correspondents)

	default:
		g.log.Debug("Dropping unknown event", "event", envelope.Event, "socket_id", sess.id)
	}
}

// decode unmarshals and validates an event payload. Any failure drops the
// event with a debug log and no reply to the caller.
func (g *Gateway) decode(sess *session, envelope Envelope, out any) bool {
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		g.log.Debug("Dropping malformed payload",
			"event", envelope.Event, "socket_id", sess.id, "error", err)
		return false
	}
	if err := validate.Struct(out); err != nil {
		g.log.Debug("Dropping invalid payload",
			"event", envelope.Event, "socket_id", sess.id, "error", err)
		return false
	}
	return true
}

func (g *Gateway) decodeID(sess *session, envelope Envelope) (string, bool) {
	var id string
	if err := json.Unmarshal(envelope.Data, &id); err != nil || id == "" {
		g.log.Debug("Dropping ack without message id",
			"event", envelope.Event, "socket_id", sess.id)
		return "", false
	}
	return id, true
}
