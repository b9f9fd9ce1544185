//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"support-relay/domain"
	"support-relay/errors"
)

type IMessageRepository interface {
	Append(message domain.Message) error
	SetStatus(id uuid.UUID, status domain.Status) error
	Conversation(userID string) ([]domain.Message, error)
	LatestPerSender(role domain.Role) ([]domain.Message, error)
}

// MessageRepository persists messages in BadgerDB. It is the durable
// collaborator of the relay: the relay appends and updates statuses, the
// discovery queries read back.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// DiskMessage is the storage shape of a message. Values are JSON; the
// timestamp marshals as an ISO-8601 (RFC 3339) string, which is also the
// persisted record contract.
type DiskMessage struct {
	ID         string    `json:"id"`
	FromUserID string    `json:"fromUserId"`
	ToUserID   *string   `json:"toUserId"`
	SenderRole string    `json:"senderRole"`
	Body       string    `json:"message"`
	Kind       string    `json:"messageType,omitempty"`
	FileURL    *string   `json:"fileUrl,omitempty"`
	FileName   *string   `json:"fileName,omitempty"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// Append persists a message under "msg:{conversation}:{timestamp_padded}:{uuid}":
//  1. The 19-digit zero padding keeps prefix scans in chronological order.
//  2. The UUID disambiguates two messages arriving at the same nanosecond.
//
// A second "idx:{uuid}" key points at the primary key so status updates can
// find the record without knowing its timestamp.
func (m MessageRepository) Append(message domain.Message) error {
	if message.SenderRole == domain.RoleAdmin && message.ToUserID == nil {
		return errors.ErrMissingRecipient
	}

	key := fmt.Sprintf("msg:%s:%019d:%s",
		message.ConversationID(),
		message.Timestamp.UnixNano(),
		message.ID,
	)
	value, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(key), value); err != nil {
			return err
		}
		return txn.Set([]byte("idx:"+message.ID.String()), []byte(key))
	})
}

// SetStatus rewrites the stored record with the given status. It applies
// whatever status it is handed, with no ordering enforcement; unknown ids
// report ErrMessageNotFound.
func (m MessageRepository) SetStatus(id uuid.UUID, status domain.Status) error {
	err := m.db.Update(func(txn *badger.Txn) error {
		pointer, err := txn.Get([]byte("idx:" + id.String()))
		if err != nil {
			return err
		}
		key, err := pointer.ValueCopy(nil)
		if err != nil {
			return err
		}

		record, err := txn.Get(key)
		if err != nil {
			return err
		}
		var message DiskMessage
		if err = record.Value(func(val []byte) error {
			return json.Unmarshal(val, &message)
		}); err != nil {
			return err
		}

		message.Status = string(status)
		value, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return txn.Set(key, value)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrMessageNotFound
	}
	return err
}

// Conversation retrieves a user's conversation in timestamp-ascending
// order using a prefix scan; the padded timestamp in the key makes the scan
// naturally chronological. When a message cap is configured, only the
// newest messages are kept.
func (m MessageRepository) Conversation(userID string) ([]domain.Message, error) {
	var diskMessages []DiskMessage
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:" + userID + ":")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message DiskMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			diskMessages = append(diskMessages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if m.limitMessages != nil && len(diskMessages) > *m.limitMessages {
		m.log.Debug(fmt.Sprintf("Maximum of %d messages reached, truncating", *m.limitMessages))
		diskMessages = diskMessages[len(diskMessages)-*m.limitMessages:]
	}
	return toMessages(diskMessages)
}

// LatestPerSender returns, for each distinct sender with the given role,
// that sender's most recent message. Keys ascend chronologically within
// each conversation, so the last record scanned per sender wins.
func (m MessageRepository) LatestPerSender(role domain.Role) ([]domain.Message, error) {
	latest := make(map[string]DiskMessage)
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte("msg:")
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message DiskMessage
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			if message.SenderRole != string(role) {
				continue
			}
			latest[message.FromUserID] = message
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toMessages(lo.Values(latest))
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:         message.ID.String(),
		FromUserID: message.FromUserID,
		ToUserID:   message.ToUserID,
		SenderRole: string(message.SenderRole),
		Body:       message.Body,
		Kind:       string(message.Kind),
		FileURL:    message.FileURL,
		FileName:   message.FileName,
		Status:     string(message.Status),
		Timestamp:  message.Timestamp,
	}
}

func toMessage(message DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(message.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:         parsedID,
		FromUserID: message.FromUserID,
		ToUserID:   message.ToUserID,
		SenderRole: domain.Role(message.SenderRole),
		Body:       message.Body,
		Kind:       domain.Kind(message.Kind),
		FileURL:    message.FileURL,
		FileName:   message.FileName,
		Status:     domain.Status(message.Status),
		Timestamp:  message.Timestamp.UTC(),
	}, nil
}

func toMessages(diskMessages []DiskMessage) ([]domain.Message, error) {
	var messages []domain.Message
	for _, dm := range diskMessages {
		message, err := toMessage(dm)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}
