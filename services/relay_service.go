package services

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"support-relay/contract"
	"support-relay/domain"
	"support-relay/errors"
	"support-relay/repositories"
)

type IRelayService interface {
	SubmitUserMessage(cmd domain.SubmitCommand) error
	SubmitAdminMessage(cmd domain.SubmitCommand) error
	AckDelivered(messageID string)
	AckSeen(messageID string)
}

// RelayService is the routing and status-state-machine core. Every path
// persists before it emits, so a client that receives an event can always
// find a matching durable record, even if the process dies right after.
type RelayService struct {
	log      *slog.Logger
	store    repositories.IMessageRepository
	registry contract.IPresenceRegistry
	emitter  contract.Emitter
}

func NewRelayService(log *slog.Logger, store repositories.IMessageRepository,
	registry contract.IPresenceRegistry, emitter contract.Emitter) *RelayService {
	return &RelayService{log: log, store: store, registry: registry, emitter: emitter}
}

// SubmitUserMessage persists a user's message addressed to any connected
// admin, acks the sender and fans it out to every admin currently online.
// If at least one admin received it, the message becomes delivered and the
// sender is told exactly once. With no admin connected the message stays
// sent; a later admin registration does not replay it.
func (s *RelayService) SubmitUserMessage(cmd domain.SubmitCommand) error {
	message := s.newMessage(cmd, domain.RoleUser, nil)
	if err := s.store.Append(message); err != nil {
		s.log.Error("Failed to persist user message", "from", cmd.FromUserID, "error", err)
		return fmt.Errorf("persist user message: %w", err)
	}
	s.emitter.ToRoom(message.FromUserID, contract.EventMessageSentAck, message.ID.String())

	admins := s.registry.ListByRole(domain.RoleAdmin)
	if len(admins) == 0 {
		return nil
	}

	payload := NewMessagePayload(message)
	for _, adminID := range admins {
		s.emitter.ToRoom(adminID, contract.EventReceiveMessage, payload)
	}
	s.markDelivered(message.ID, message.FromUserID)
	return nil
}

// SubmitAdminMessage persists an admin's message for a specific user and
// delivers it if that user is online; otherwise it stays sent.
func (s *RelayService) SubmitAdminMessage(cmd domain.SubmitCommand) error {
	if cmd.ToUserID == nil || *cmd.ToUserID == "" {
		return errors.ErrMissingRecipient
	}

	message := s.newMessage(cmd, domain.RoleAdmin, cmd.ToUserID)
	if err := s.store.Append(message); err != nil {
		s.log.Error("Failed to persist admin message",
			"from", cmd.FromUserID, "to", *cmd.ToUserID, "error", err)
		return fmt.Errorf("persist admin message: %w", err)
	}
	s.emitter.ToRoom(message.FromUserID, contract.EventMessageSentAck, message.ID.String())

	if !s.registry.IsOnline(*cmd.ToUserID) {
		return nil
	}

	s.emitter.ToRoom(*cmd.ToUserID, contract.EventReceiveMessage, NewMessagePayload(message))
	s.markDelivered(message.ID, message.FromUserID)
	return nil
}

// AckDelivered unconditionally moves a message to delivered and announces
// it to all connected parties.
func (s *RelayService) AckDelivered(messageID string) {
	s.ack(messageID, domain.StatusDelivered, contract.EventMessageDelivered)
}

// AckSeen unconditionally moves a message to seen and announces it to all
// connected parties. No ordering is enforced against AckDelivered.
func (s *RelayService) AckSeen(messageID string) {
	s.ack(messageID, domain.StatusSeen, contract.EventMessageSeen)
}

// ack is best-effort: an unknown message id leaves the store untouched but
// the status broadcast still fires. Only a real storage failure suppresses
// the emission.
func (s *RelayService) ack(messageID string, status domain.Status, event string) {
	id, err := uuid.Parse(messageID)
	if err != nil {
		s.log.Debug("Ignoring ack with malformed message id", "message_id", messageID)
		return
	}

	if err := s.store.SetStatus(id, status); err != nil {
		if !stderrors.Is(err, errors.ErrMessageNotFound) {
			s.log.Error("Failed to update message status",
				"message_id", messageID, "status", status, "error", err)
			return
		}
		s.log.Debug("Ack for unknown message", "message_id", messageID, "status", status)
	}
	s.emitter.Broadcast(event, messageID)
}

func (s *RelayService) markDelivered(id uuid.UUID, senderRoom string) {
	if err := s.store.SetStatus(id, domain.StatusDelivered); err != nil {
		s.log.Error("Failed to mark message delivered", "message_id", id, "error", err)
		return
	}
	s.emitter.ToRoom(senderRoom, contract.EventMessageDelivered, id.String())
}

func (s *RelayService) newMessage(cmd domain.SubmitCommand, role domain.Role, to *string) domain.Message {
	at := time.Now().UTC()
	if cmd.Timestamp != nil {
		at = cmd.Timestamp.UTC()
	}
	kind := cmd.Kind
	if kind == "" {
		kind = domain.KindText
	}
	return domain.Message{
		ID:         uuid.New(),
		FromUserID: cmd.FromUserID,
		ToUserID:   to,
		SenderRole: role,
		Body:       cmd.Body,
		Kind:       kind,
		FileURL:    cmd.FileURL,
		FileName:   cmd.FileName,
		Status:     domain.StatusSent,
		Timestamp:  at,
	}
}
