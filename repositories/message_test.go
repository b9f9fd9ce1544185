package repositories

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"support-relay/domain"
	"support-relay/errors"
)

func setupTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).
		WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMessage(from string, role domain.Role, to *string, body string, at time.Time) domain.Message {
	return domain.Message{
		ID:         uuid.New(),
		FromUserID: from,
		ToUserID:   to,
		SenderRole: role,
		Body:       body,
		Kind:       domain.KindText,
		Status:     domain.StatusSent,
		Timestamp:  at,
	}
}

func TestMessageRepository_Append_And_Read_Conversation(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger(), nil)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// Given a user message and an admin reply, stored out of order
	to := "alice"
	reply := newTestMessage("admin-1", domain.RoleAdmin, &to, "on it", base.Add(time.Minute))
	question := newTestMessage("alice", domain.RoleUser, nil, "help", base)
	req.NoError(repo.Append(reply))
	req.NoError(repo.Append(question))

	// When the conversation is read back
	conversation, err := repo.Conversation("alice")
	req.NoError(err)

	// Then both sides appear, in timestamp order
	req.Len(conversation, 2)
	req.Equal("help", conversation[0].Body)
	req.Equal("on it", conversation[1].Body)
	req.Equal(question.ID, conversation[0].ID)
	req.Equal(base, conversation[0].Timestamp)
}

func TestMessageRepository_Append_Admin_Message_Requires_Recipient(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger(), nil)

	message := newTestMessage("admin-1", domain.RoleAdmin, nil, "lost", time.Now().UTC())

	req.ErrorIs(repo.Append(message), errors.ErrMissingRecipient)
}

func TestMessageRepository_SetStatus_Roundtrip(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger(), nil)
	message := newTestMessage("alice", domain.RoleUser, nil, "hi", time.Now().UTC())
	req.NoError(repo.Append(message))

	// When the status advances twice
	req.NoError(repo.SetStatus(message.ID, domain.StatusDelivered))
	req.NoError(repo.SetStatus(message.ID, domain.StatusSeen))

	// Then the stored record carries the final status and nothing else moved
	conversation, err := repo.Conversation("alice")
	req.NoError(err)
	req.Len(conversation, 1)
	req.Equal(domain.StatusSeen, conversation[0].Status)
	req.Equal("hi", conversation[0].Body)
}

func TestMessageRepository_SetStatus_Unknown_Id(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger(), nil)

	err := repo.SetStatus(uuid.New(), domain.StatusSeen)

	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func TestMessageRepository_Conversation_Isolated_Per_User(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger(), nil)
	at := time.Now().UTC()

	req.NoError(repo.Append(newTestMessage("alice", domain.RoleUser, nil, "mine", at)))
	req.NoError(repo.Append(newTestMessage("bob", domain.RoleUser, nil, "his", at)))

	conversation, err := repo.Conversation("alice")
	req.NoError(err)
	req.Len(conversation, 1)
	req.Equal("mine", conversation[0].Body)
}

func TestMessageRepository_Conversation_Limit_Keeps_Newest(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger(), lo.ToPtr(2))
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	for i, body := range []string{"one", "two", "three"} {
		req.NoError(repo.Append(newTestMessage("alice", domain.RoleUser, nil, body, base.Add(time.Duration(i)*time.Second))))
	}

	conversation, err := repo.Conversation("alice")
	req.NoError(err)

	// Then only the two newest survive, still in order
	req.Len(conversation, 2)
	req.Equal("two", conversation[0].Body)
	req.Equal("three", conversation[1].Body)
}

func TestMessageRepository_LatestPerSender_Excludes_Admin_Authored(t *testing.T) {
	req := require.New(t)
	repo := NewMessageRepository(setupTestDB(t), testLogger(), nil)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	to := "alice"

	req.NoError(repo.Append(newTestMessage("alice", domain.RoleUser, nil, "old", base)))
	req.NoError(repo.Append(newTestMessage("alice", domain.RoleUser, nil, "new", base.Add(time.Second))))
	req.NoError(repo.Append(newTestMessage("admin-1", domain.RoleAdmin, &to, "reply", base.Add(2*time.Second))))
	req.NoError(repo.Append(newTestMessage("bob", domain.RoleUser, nil, "hey", base.Add(3*time.Second))))

	latest, err := repo.LatestPerSender(domain.RoleUser)
	req.NoError(err)

	// Then one entry per user, carrying the newest user-authored message
	req.Len(latest, 2)
	bySender := lo.KeyBy(latest, func(m domain.Message) string { return m.FromUserID })
	req.Equal("new", bySender["alice"].Body)
	req.Equal("hey", bySender["bob"].Body)
}
