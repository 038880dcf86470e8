package repository

import (
	"context"

	"rentchat/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	// ListByRoom pages a room's chats, newest first.
	ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Chat, int64, error)
	// ListUnreadByAuthor returns every unread chat authored by authorID in the room.
	ListUnreadByAuthor(ctx context.Context, roomID, authorID string) ([]*entity.Chat, error)
	MarkRead(ctx context.Context, chats []*entity.Chat) error
}
