package domain

import "time"

// Connection represents one live transport session. At most one exists per
// user id at any instant; a newer registration for the same user id
// overwrites the older one even if the old socket is still open.
type Connection struct {
	UserID   string
	SocketID string
	Role     Role
	LastSeen time.Time
}
