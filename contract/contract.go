//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"support-relay/domain"
)

// Emitter is the transport capability the relay assumes: named events,
// per-connection identity and room-style group addressing. A room is named
// by a user id and reaches that user's currently live connection, if any.
type Emitter interface {
	Join(socketID, room string)
	Leave(socketID, room string)
	ToRoom(room, event string, payload any)
	ToSocket(socketID, event string, payload any)
	Broadcast(event string, payload any)
}

// IPresenceRegistry is the single authoritative view of who is connected.
// Register returns every connection the new registration displaced: the
// user's prior session, the socket's prior identity, or both.
type IPresenceRegistry interface {
	Register(userID, socketID string, role domain.Role) []domain.Connection
	Unregister(socketID string) *domain.Connection
	IsOnline(userID string) bool
	ListByRole(role domain.Role) []string
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker
// initialization or lifecycle events, avoiding the need for manual naming
// in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
