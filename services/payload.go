package services

import (
	"time"

	"support-relay/domain"
)

// MessagePayload is the wire shape of a full message, identical to the
// persisted record contract: timestamps travel as ISO-8601 strings.
type MessagePayload struct {
	ID         string  `json:"id"`
	FromUserID string  `json:"fromUserId"`
	ToUserID   *string `json:"toUserId"`
	SenderRole string  `json:"senderRole"`
	Body       string  `json:"message"`
	Kind       string  `json:"messageType,omitempty"`
	FileURL    *string `json:"fileUrl,omitempty"`
	FileName   *string `json:"fileName,omitempty"`
	Status     string  `json:"status"`
	Timestamp  string  `json:"timestamp"`
}

func NewMessagePayload(message domain.Message) MessagePayload {
	return MessagePayload{
		ID:         message.ID.String(),
		FromUserID: message.FromUserID,
		ToUserID:   message.ToUserID,
		SenderRole: string(message.SenderRole),
		Body:       message.Body,
		Kind:       string(message.Kind),
		FileURL:    message.FileURL,
		FileName:   message.FileName,
		Status:     string(message.Status),
		Timestamp:  message.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
