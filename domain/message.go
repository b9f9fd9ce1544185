// Package domain contains core concepts of the support chat relay.
// This file defines Message records and the delivery-status lifecycle.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies which side of the conversation a participant is on.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Status is the delivery-status lifecycle of a message. Normal delivery
// advances sent -> delivered; acknowledgment events may set delivered or
// seen directly and idempotently, regardless of the current value.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusSeen      Status = "seen"
)

// Kind mirrors the content type of a message.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// Message is one chat message exchanged between a user and the support
// side. A nil ToUserID means "addressed to any connected admin".
type Message struct {
	ID         uuid.UUID
	FromUserID string
	ToUserID   *string
	SenderRole Role
	Body       string
	Kind       Kind
	FileURL    *string
	FileName   *string
	Status     Status
	Timestamp  time.Time
}

// ConversationID returns the id of the user-party side of the exchange,
// which keys the message's conversation regardless of direction.
func (m Message) ConversationID() string {
	if m.SenderRole == RoleAdmin && m.ToUserID != nil {
		return *m.ToUserID
	}
	return m.FromUserID
}
