package repository

import (
	"context"
	"time"

	"rentchat/internal/domain/entity"
)

type ChatRoomRepository interface {
	Create(ctx context.Context, room *entity.ChatRoom) error
	// GetByID row-locks the room until the end of the transaction bound to
	// ctx, on backends that support it.
	GetByID(ctx context.Context, id string) (*entity.ChatRoom, error)
	// FindBySenderAndRental returns a NotFound AppError when the pair has no room yet.
	FindBySenderAndRental(ctx context.Context, senderID, rentalID string) (*entity.ChatRoom, error)
	// ListByMember pages rooms where memberID is sender or receiver, most recently modified first.
	ListByMember(ctx context.Context, memberID string, limit, offset int) ([]*entity.ChatRoom, int64, error)
	// RecordMessage increments the counterpart's unread counter in place and
	// sets the last chat and modification time. Other columns are untouched.
	RecordMessage(ctx context.Context, roomID string, author entity.RoomRole, text string, at time.Time) error
	// ResetUnread zeroes role's own unread counter only.
	ResetUnread(ctx context.Context, roomID string, role entity.RoomRole) error
}
