package runtime

import (
	"log/slog"

	"support-relay/contract"
	"support-relay/domain"
)

// PresencePayload is the wire payload of userOnline / userOffline events.
// Role is omitted on userOffline.
type PresencePayload struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role,omitempty"`
}

// Lifecycle translates connect/register/disconnect transport events into
// registry mutations and presence-change broadcasts.
type Lifecycle struct {
	log      *slog.Logger
	registry contract.IPresenceRegistry
	emitter  contract.Emitter
}

func NewLifecycle(log *slog.Logger, registry contract.IPresenceRegistry, emitter contract.Emitter) *Lifecycle {
	return &Lifecycle{log: log, registry: registry, emitter: emitter}
}

// OnConnect records nothing: a connection stays anonymous until it
// registers.
func (l *Lifecycle) OnConnect(socketID string) {
	l.log.Debug("Client connected", "socket_id", socketID)
}

// OnRegister joins the per-user room, marks the user online and announces
// it to everyone. The room named by the user id is a routing construct, not
// a data-ownership relationship.
//
// Displaced connections are settled here: a kicked prior session leaves the
// user's room so fan-out stops reaching it, and a socket that switched
// identity takes its old user offline, announced like any disconnect.
func (l *Lifecycle) OnRegister(userID string, role domain.Role, socketID string) {
	l.emitter.Join(socketID, userID)

	for _, previous := range l.registry.Register(userID, socketID, role) {
		if previous.UserID != userID {
			l.emitter.Leave(socketID, previous.UserID)
			l.log.Info("Identity switched",
				"socket_id", socketID, "old_user", previous.UserID, "new_user", userID)
			l.emitter.Broadcast(contract.EventUserOffline, PresencePayload{UserID: previous.UserID})
			continue
		}
		l.emitter.Leave(previous.SocketID, userID)
		l.log.Info("Session replaced", "user_id", userID, "old_socket", previous.SocketID, "new_socket", socketID)
	}

	l.emitter.Broadcast(contract.EventUserOnline, PresencePayload{UserID: userID, Role: role})
}

// OnDisconnect removes the socket's connection and broadcasts userOffline.
// When the socket was already superseded by a newer registration for the
// same user, nothing fires: the newer connection remains online.
func (l *Lifecycle) OnDisconnect(socketID string) {
	removed := l.registry.Unregister(socketID)
	if removed == nil {
		l.log.Debug("Disconnect for stale or unknown socket", "socket_id", socketID)
		return
	}

	l.log.Debug("Client disconnected", "socket_id", socketID, "user_id", removed.UserID)
	l.emitter.Broadcast(contract.EventUserOffline, PresencePayload{UserID: removed.UserID})
}
