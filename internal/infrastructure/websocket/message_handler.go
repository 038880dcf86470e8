package websocket

import (
	"encoding/json"
	"time"

	"rentchat/pkg/logger"
)

const (
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeChat        = "chat"
	MessageTypeReadReceipt = "read_receipt"
)

type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewWSMessage(messageType string, data interface{}) WSMessage {
	return WSMessage{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ChatData is pushed to the counterpart when a message is sent.
type ChatData struct {
	ChatRoomID     string `json:"chat_room_id"`
	ChatID         string `json:"chat_id"`
	SenderID       string `json:"sender_id"`
	SenderNickname string `json:"sender_nickname"`
	Message        string `json:"message"`
	CreatedAt      string `json:"created_at"`
}

// ReadReceiptData tells the author that the counterpart opened the room.
type ReadReceiptData struct {
	ChatRoomID string `json:"chat_room_id"`
	ReaderID   string `json:"reader_id"`
	Count      int    `json:"count"`
}

// HandleIncoming answers client frames. The push channel is one-way apart
// from application-level pings, so everything else is ignored.
func HandleIncoming(memberID string, raw []byte) []byte {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("ignoring malformed websocket frame from %s: %v", memberID, err)
		return nil
	}

	switch msg.Type {
	case MessageTypePing:
		reply, _ := json.Marshal(NewWSMessage(MessageTypePong, nil))
		return reply
	default:
		logger.Debug("ignoring websocket message type %q from %s", msg.Type, memberID)
		return nil
	}
}
