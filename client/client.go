// Package client is a small Go client for the relay's websocket protocol,
// used by the viewer console and the end-to-end tests.
package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"support-relay/contract"
	"support-relay/domain"
	"support-relay/infrastructure/ws"
)

type Client struct {
	conn *websocket.Conn
}

// Dial connects to a relay endpoint, e.g. ws://localhost:8080/ws.
func Dial(url string) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not connect to relay at %s: %w", url, err)
	}
	return &Client{conn: conn}, nil
}

// Emit sends one event envelope. Payload may be nil for parameterless
// events.
func (c *Client) Emit(event string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", event, err)
		}
		data = encoded
	}
	return c.conn.WriteJSON(ws.Envelope{Event: event, Data: data})
}

type registerPayload struct {
	UserID string      `json:"userId"`
	Role   domain.Role `json:"role"`
}

type messagePayload struct {
	FromUserID string  `json:"fromUserId,omitempty"`
	ToUserID   string  `json:"toUserId,omitempty"`
	Message    string  `json:"message"`
	Kind       string  `json:"messageType,omitempty"`
	FileURL    *string `json:"fileUrl,omitempty"`
	FileName   *string `json:"fileName,omitempty"`
}

func (c *Client) Register(userID string, role domain.Role) error {
	return c.Emit(contract.EventRegister, registerPayload{UserID: userID, Role: role})
}

func (c *Client) SendUserMessage(fromUserID, body string) error {
	return c.Emit(contract.EventUserMessage, messagePayload{FromUserID: fromUserID, Message: body})
}

func (c *Client) SendAdminMessage(toUserID, body string) error {
	return c.Emit(contract.EventAdminMessage, messagePayload{ToUserID: toUserID, Message: body})
}

func (c *Client) AckDelivered(messageID string) error {
	return c.Emit(contract.EventDeliveredAck, messageID)
}

func (c *Client) AckSeen(messageID string) error {
	return c.Emit(contract.EventSeenAck, messageID)
}

func (c *Client) RequestUsers() error {
	return c.Emit(contract.EventGetUsers, nil)
}

func (c *Client) CheckOnline(userID string) error {
	return c.Emit(contract.EventCheckOnline, map[string]string{"userId": userID})
}

// Next blocks until the server pushes the next event. deadline zero means
// wait forever.
func (c *Client) Next(deadline time.Duration) (ws.Envelope, error) {
	if deadline > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(deadline))
	} else {
		_ = c.conn.SetReadDeadline(time.Time{})
	}

	var envelope ws.Envelope
	if err := c.conn.ReadJSON(&envelope); err != nil {
		return ws.Envelope{}, err
	}
	return envelope, nil
}

func (c *Client) Close() error {
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	return c.conn.Close()
}
