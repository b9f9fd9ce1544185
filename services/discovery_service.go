package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"support-relay/contract"
	"support-relay/domain"
	"support-relay/repositories"
)

type IDiscoveryService interface {
	ListCorrespondents() ([]Correspondent, error)
	IsAnyAdminOnline() bool
}

// Correspondent is one row of the admin-side user listing: a user who has
// written in, their latest message and whether they are online right now.
type Correspondent struct {
	UserID          string    `json:"userId"`
	Name            string    `json:"name"`
	LastMessage     string    `json:"lastMessage"`
	LastMessageTime time.Time `json:"lastMessageTime"`
	IsOnline        bool      `json:"isOnline"`
}

// DiscoveryService composes read-only views from the message store and the
// presence registry. The same queries back the realtime getUsers event and
// any REST surface built on top.
type DiscoveryService struct {
	store    repositories.IMessageRepository
	users    repositories.IUserRepository
	registry contract.IPresenceRegistry
}

func NewDiscoveryService(store repositories.IMessageRepository,
	users repositories.IUserRepository, registry contract.IPresenceRegistry) *DiscoveryService {
	return &DiscoveryService{store: store, users: users, registry: registry}
}

// ListCorrespondents groups persisted messages by distinct user-authored
// sender and orders them by the time of their latest message, newest first.
// Entries without a timestamp sort last.
func (s *DiscoveryService) ListCorrespondents() ([]Correspondent, error) {
	latest, err := s.store.LatestPerSender(domain.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("list correspondents: %w", err)
	}

	correspondents := lo.Map(latest, func(message domain.Message, _ int) Correspondent {
		return Correspondent{
			UserID:          message.FromUserID,
			Name:            s.users.NameOf(message.FromUserID),
			LastMessage:     message.Body,
			LastMessageTime: message.Timestamp,
			IsOnline:        s.registry.IsOnline(message.FromUserID),
		}
	})

	sort.Slice(correspondents, func(i, j int) bool {
		a, b := correspondents[i].LastMessageTime, correspondents[j].LastMessageTime
		if a.IsZero() != b.IsZero() {
			return b.IsZero()
		}
		return a.After(b)
	})
	return correspondents, nil
}

func (s *DiscoveryService) IsAnyAdminOnline() bool {
	return len(s.registry.ListByRole(domain.RoleAdmin)) > 0
}
