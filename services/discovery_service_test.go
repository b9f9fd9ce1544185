package services

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"support-relay/domain"
	"support-relay/mocks"
	"support-relay/runtime"
)

func storedMessage(from string, role domain.Role, body string, at time.Time) domain.Message {
	return domain.Message{
		ID:         uuid.New(),
		FromUserID: from,
		SenderRole: role,
		Body:       body,
		Kind:       domain.KindText,
		Status:     domain.StatusSent,
		Timestamp:  at,
	}
}

func TestDiscovery_ListCorrespondents_Newest_First(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newMemoryStore()
	users := mocks.NewMockIUserRepository(ctrl)
	registry := runtime.NewRegistry()
	discovery := NewDiscoveryService(store, users, registry)

	// Given two users wrote, alice more recently, and only bob is online
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	req.NoError(store.Append(storedMessage("bob", domain.RoleUser, "first", base)))
	req.NoError(store.Append(storedMessage("alice", domain.RoleUser, "second", base.Add(time.Hour))))
	registry.Register("bob", uuid.NewString(), domain.RoleUser)

	users.EXPECT().NameOf("alice").Return("Alice")
	users.EXPECT().NameOf("bob").Return("Bob")

	// When the listing is built
	correspondents, err := discovery.ListCorrespondents()
	req.NoError(err)

	// Then it is ordered newest first with presence resolved
	req.Len(correspondents, 2)
	req.Equal("alice", correspondents[0].UserID)
	req.Equal("Alice", correspondents[0].Name)
	req.Equal("second", correspondents[0].LastMessage)
	req.False(correspondents[0].IsOnline)

	req.Equal("bob", correspondents[1].UserID)
	req.True(correspondents[1].IsOnline)
}

func TestDiscovery_ListCorrespondents_Keeps_Latest_Message_Per_User(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newMemoryStore()
	users := mocks.NewMockIUserRepository(ctrl)
	discovery := NewDiscoveryService(store, users, runtime.NewRegistry())

	// Given one user wrote several times and an admin replied in between
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	req.NoError(store.Append(storedMessage("alice", domain.RoleUser, "old", base)))
	req.NoError(store.Append(storedMessage("admin-1", domain.RoleAdmin, "reply", base.Add(time.Minute))))
	req.NoError(store.Append(storedMessage("alice", domain.RoleUser, "latest", base.Add(2*time.Minute))))

	users.EXPECT().NameOf("alice").Return("alice")

	// When the listing is built
	correspondents, err := discovery.ListCorrespondents()
	req.NoError(err)

	// Then only the user appears, with their latest message
	req.Len(correspondents, 1)
	req.Equal("latest", correspondents[0].LastMessage)
}

func TestDiscovery_ListCorrespondents_Zero_Timestamps_Sort_Last(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newMemoryStore()
	users := mocks.NewMockIUserRepository(ctrl)
	discovery := NewDiscoveryService(store, users, runtime.NewRegistry())

	req.NoError(store.Append(storedMessage("ghost", domain.RoleUser, "when?", time.Time{})))
	req.NoError(store.Append(storedMessage("alice", domain.RoleUser, "hi", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))))

	users.EXPECT().NameOf(gomock.Any()).Return("x").Times(2)

	correspondents, err := discovery.ListCorrespondents()
	req.NoError(err)

	req.Len(correspondents, 2)
	req.Equal("alice", correspondents[0].UserID)
	req.Equal("ghost", correspondents[1].UserID)
}

func TestDiscovery_ListCorrespondents_Store_Failure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mocks.NewMockIMessageRepository(ctrl)
	users := mocks.NewMockIUserRepository(ctrl)
	discovery := NewDiscoveryService(store, users, runtime.NewRegistry())

	store.EXPECT().LatestPerSender(domain.RoleUser).Return(nil, stderrors.New("iterator failed"))

	_, err := discovery.ListCorrespondents()
	req.Error(err)
}

func TestDiscovery_IsAnyAdminOnline(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := runtime.NewRegistry()
	discovery := NewDiscoveryService(newMemoryStore(), mocks.NewMockIUserRepository(ctrl), registry)

	// Given only a user is connected
	registry.Register("alice", uuid.NewString(), domain.RoleUser)
	req.False(discovery.IsAnyAdminOnline())

	// When an admin registers
	socketID := uuid.NewString()
	registry.Register("admin-1", socketID, domain.RoleAdmin)
	req.True(discovery.IsAnyAdminOnline())

	// And goes away again
	registry.Unregister(socketID)
	req.False(discovery.IsAnyAdminOnline())
}
