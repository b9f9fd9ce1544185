package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestMessage_ConversationID(t *testing.T) {
	req := require.New(t)
	to := "alice"

	// A user's message belongs to their own conversation
	userMessage := Message{ID: uuid.New(), FromUserID: "alice", SenderRole: RoleUser}
	req.Equal("alice", userMessage.ConversationID())

	// An admin's reply belongs to the recipient's conversation
	adminMessage := Message{ID: uuid.New(), FromUserID: "admin-1", ToUserID: &to, SenderRole: RoleAdmin}
	req.Equal("alice", adminMessage.ConversationID())

	// An admin message missing its recipient falls back to the sender;
	// the store rejects it before this matters
	orphan := Message{ID: uuid.New(), FromUserID: "admin-1", SenderRole: RoleAdmin}
	req.Equal("admin-1", orphan.ConversationID())
}
