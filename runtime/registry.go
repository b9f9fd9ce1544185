// Package runtime owns the live relay state: the presence registry and the
// connection lifecycle that mutates it. It contains no storage or wire
// logic.
package runtime

import (
	"sync"
	"time"

	"support-relay/domain"
)

// Registry is the exclusive owner of "who is connected now". It maps each
// user id to its single live connection and keeps a reverse index from
// socket id to user id for disconnect lookups.
//
// All methods are safe for concurrent use; every read and write goes
// through one mutex so independent connections never observe a partially
// updated table.
type Registry struct {
	mu       sync.RWMutex
	byUser   map[string]domain.Connection
	bySocket map[string]string // socketID -> userID
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:   make(map[string]domain.Connection),
		bySocket: make(map[string]string),
	}
}

// Register inserts or overwrites the connection for userID and returns
// every connection it displaced. Registering the same user id again always
// replaces, never duplicates, even if the old socket is still open. A
// socket that re-registers under a different user id evicts its previous
// identity too; without that, the old user would stay online forever with
// no socket left to unregister them.
func (r *Registry) Register(userID, socketID string, role domain.Role) []domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	var displaced []domain.Connection
	if prevUser, ok := r.bySocket[socketID]; ok && prevUser != userID {
		if conn, ok := r.byUser[prevUser]; ok && conn.SocketID == socketID {
			displaced = append(displaced, conn)
			delete(r.byUser, prevUser)
		}
		delete(r.bySocket, socketID)
	}
	if existing, ok := r.byUser[userID]; ok && existing.SocketID != socketID {
		displaced = append(displaced, existing)
		delete(r.bySocket, existing.SocketID)
	}

	r.byUser[userID] = domain.Connection{
		UserID:   userID,
		SocketID: socketID,
		Role:     role,
		LastSeen: time.Now().UTC(),
	}
	r.bySocket[socketID] = userID
	return displaced
}

// Unregister removes the connection owning socketID and returns it, or nil
// when the socket is unknown or was already superseded by a newer
// registration for the same user. A stale disconnect must never evict the
// newer entry.
func (r *Registry) Unregister(socketID string) *domain.Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.bySocket[socketID]
	if !ok {
		return nil
	}
	conn, ok := r.byUser[userID]
	if !ok || conn.SocketID != socketID {
		// The reverse index is cleaned on overwrite, so this branch only
		// guards against a racing duplicate disconnect.
		delete(r.bySocket, socketID)
		return nil
	}

	delete(r.byUser, userID)
	delete(r.bySocket, socketID)
	return &conn
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byUser[userID]
	return ok
}

// ListByRole returns the user ids of every live connection with the given
// role, in no particular order.
func (r *Registry) ListByRole(role domain.Role) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for userID, conn := range r.byUser {
		if conn.Role == role {
			ids = append(ids, userID)
		}
	}
	return ids
}

// Snapshot copies the current connection table, for telemetry and debug
// surfaces.
func (r *Registry) Snapshot() []domain.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connections := make([]domain.Connection, 0, len(r.byUser))
	for _, conn := range r.byUser {
		connections = append(connections, conn)
	}
	return connections
}
