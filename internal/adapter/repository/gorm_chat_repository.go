package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
)

type gormChatRepository struct {
	db *gorm.DB
}

func NewGormChatRepository(db *gorm.DB) repository.ChatRepository {
	return &gormChatRepository{db: db}
}

func (r *gormChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}
	if err := gormConn(ctx, r.db).Create(chat).Error; err != nil {
		return gormError(err, "Chat", "create")
	}
	return nil
}

func (r *gormChatRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Chat, int64, error) {
	byRoom := func() *gorm.DB {
		return gormConn(ctx, r.db).Model(&entity.Chat{}).Where("chat_room_id = ?", roomID)
	}

	var total int64
	if err := byRoom().Count(&total).Error; err != nil {
		return nil, 0, gormError(err, "Chat", "count")
	}

	var chats []*entity.Chat
	query := byRoom().Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&chats).Error; err != nil {
		return nil, 0, gormError(err, "Chat", "list")
	}
	return chats, total, nil
}

func (r *gormChatRepository) ListUnreadByAuthor(ctx context.Context, roomID, authorID string) ([]*entity.Chat, error) {
	var chats []*entity.Chat
	err := gormConn(ctx, r.db).
		Where("chat_room_id = ? AND sender_id = ? AND is_read = ?", roomID, authorID, false).
		Order("created_at ASC").
		Find(&chats).Error
	if err != nil {
		return nil, gormError(err, "Chat", "list unread")
	}
	return chats, nil
}

func (r *gormChatRepository) MarkRead(ctx context.Context, chats []*entity.Chat) error {
	if len(chats) == 0 {
		return nil
	}
	ids := make([]string, 0, len(chats))
	for _, chat := range chats {
		ids = append(ids, chat.ID)
	}

	err := gormConn(ctx, r.db).
		Model(&entity.Chat{}).
		Where("id IN ?", ids).
		Update("is_read", true).Error
	if err != nil {
		return gormError(err, "Chat", "mark read")
	}
	for _, chat := range chats {
		chat.MarkRead()
	}
	return nil
}
