package entity

import "time"

// ChatRoom is the conversation between the member who initiated it
// (sender) and the member addressed by nickname (receiver) about one rental.
//
// SenderUnreadCount counts messages the sender has not read yet, i.e.
// messages authored by the receiver. ReceiverUnreadCount is the mirror.
type ChatRoom struct {
	ID                  string    `json:"id" firestore:"id" gorm:"primaryKey;type:varchar(36)"`
	SenderID            string    `json:"sender_id" firestore:"senderId" gorm:"type:varchar(36);not null;uniqueIndex:idx_chat_room_sender_rental"`
	ReceiverID          string    `json:"receiver_id" firestore:"receiverId" gorm:"type:varchar(36);not null;index"`
	RentalID            string    `json:"rental_id" firestore:"rentalId" gorm:"type:varchar(36);not null;uniqueIndex:idx_chat_room_sender_rental"`
	Participants        []string  `json:"-" firestore:"participants" gorm:"-"`
	LastChat            string    `json:"last_chat" firestore:"lastChat" gorm:"type:text"`
	SenderUnreadCount   int       `json:"sender_unread_count" firestore:"senderUnreadCount" gorm:"not null;default:0"`
	ReceiverUnreadCount int       `json:"receiver_unread_count" firestore:"receiverUnreadCount" gorm:"not null;default:0"`
	CreatedAt           time.Time `json:"created_at" firestore:"createdAt"`
	ModifiedAt          time.Time `json:"modified_at" firestore:"modifiedAt" gorm:"index"`
}

func NewChatRoom(senderID, receiverID, rentalID string, now time.Time) *ChatRoom {
	return &ChatRoom{
		SenderID:     senderID,
		ReceiverID:   receiverID,
		RentalID:     rentalID,
		Participants: []string{senderID, receiverID},
		CreatedAt:    now,
		ModifiedAt:   now,
	}
}

// RoomRole is a member's position in a room relative to its counterpart.
type RoomRole struct {
	IsSender      bool
	ViewerID      string
	CounterpartID string
}

// RoleOf resolves memberID's role. A member that is not the original
// sender is treated as the receiver; callers check IsParticipant first.
func (r *ChatRoom) RoleOf(memberID string) RoomRole {
	return r.Side(r.SenderID == memberID)
}

// Side is the role of the original sender (isSender) or of the receiver.
func (r *ChatRoom) Side(isSender bool) RoomRole {
	if isSender {
		return RoomRole{IsSender: true, ViewerID: r.SenderID, CounterpartID: r.ReceiverID}
	}
	return RoomRole{IsSender: false, ViewerID: r.ReceiverID, CounterpartID: r.SenderID}
}

func (r *ChatRoom) IsParticipant(memberID string) bool {
	return memberID != "" && (r.SenderID == memberID || r.ReceiverID == memberID)
}

func (r *ChatRoom) counter(isSender bool) *int {
	if isSender {
		return &r.SenderUnreadCount
	}
	return &r.ReceiverUnreadCount
}

// UnreadCountFor is the number of counterpart messages role has not read.
func (r *ChatRoom) UnreadCountFor(role RoomRole) int {
	return *r.counter(role.IsSender)
}

// ResetUnread zeroes only role's own counter.
func (r *ChatRoom) ResetUnread(role RoomRole) {
	*r.counter(role.IsSender) = 0
}

// RecordMessage registers a message authored by role: the counterpart
// gains one unread message and the room moves to the top of both lists.
func (r *ChatRoom) RecordMessage(author RoomRole, text string, at time.Time) {
	*r.counter(!author.IsSender)++
	r.LastChat = text
	r.ModifiedAt = at
}
