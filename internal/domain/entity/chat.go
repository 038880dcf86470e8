package entity

import "time"

// Chat is a single message inside a ChatRoom.
type Chat struct {
	ID         string    `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(36)"`
	ChatRoomID string    `json:"chat_room_id" firestore:"chatRoomId" gorm:"type:varchar(36);not null;index:idx_chat_room_created"`
	SenderID   string    `json:"sender_id" firestore:"senderId" gorm:"type:varchar(36);not null;index"`
	Message    string    `json:"message" firestore:"message" gorm:"type:text;not null"`
	IsRead     bool      `json:"is_read" firestore:"isRead" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at" firestore:"createdAt" gorm:"index:idx_chat_room_created"`
}

// MarkRead is one-way: a read chat never becomes unread again.
func (c *Chat) MarkRead() {
	c.IsRead = true
}
