package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
)

type gormChatRoomRepository struct {
	db *gorm.DB
}

func NewGormChatRoomRepository(db *gorm.DB) repository.ChatRoomRepository {
	return &gormChatRoomRepository{db: db}
}

func (r *gormChatRoomRepository) Create(ctx context.Context, room *entity.ChatRoom) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	if err := gormConn(ctx, r.db).Create(room).Error; err != nil {
		return gormError(err, "ChatRoom", "create")
	}
	return nil
}

func (r *gormChatRoomRepository) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	if err := forUpdate(ctx, r.db).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, gormError(err, "ChatRoom", "get")
	}
	room.Participants = []string{room.SenderID, room.ReceiverID}
	return &room, nil
}

func (r *gormChatRoomRepository) FindBySenderAndRental(ctx context.Context, senderID, rentalID string) (*entity.ChatRoom, error) {
	var room entity.ChatRoom
	err := gormConn(ctx, r.db).
		Where("sender_id = ? AND rental_id = ?", senderID, rentalID).
		First(&room).Error
	if err != nil {
		return nil, gormError(err, "ChatRoom", "find")
	}
	room.Participants = []string{room.SenderID, room.ReceiverID}
	return &room, nil
}

func (r *gormChatRoomRepository) ListByMember(ctx context.Context, memberID string, limit, offset int) ([]*entity.ChatRoom, int64, error) {
	byMember := func() *gorm.DB {
		return gormConn(ctx, r.db).
			Model(&entity.ChatRoom{}).
			Where("sender_id = ? OR receiver_id = ?", memberID, memberID)
	}

	var total int64
	if err := byMember().Count(&total).Error; err != nil {
		return nil, 0, gormError(err, "ChatRoom", "count")
	}

	var rooms []*entity.ChatRoom
	query := byMember().Order("modified_at DESC").Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	if err := query.Find(&rooms).Error; err != nil {
		return nil, 0, gormError(err, "ChatRoom", "list")
	}
	for _, room := range rooms {
		room.Participants = []string{room.SenderID, room.ReceiverID}
	}
	return rooms, total, nil
}

func (r *gormChatRoomRepository) RecordMessage(ctx context.Context, roomID string, author entity.RoomRole, text string, at time.Time) error {
	column := unreadColumn(!author.IsSender)
	result := gormConn(ctx, r.db).
		Model(&entity.ChatRoom{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			column:        gorm.Expr(column + " + 1"),
			"last_chat":   text,
			"modified_at": at,
		})
	if result.Error != nil {
		return gormError(result.Error, "ChatRoom", "update")
	}
	if result.RowsAffected == 0 {
		return gormError(gorm.ErrRecordNotFound, "ChatRoom", "update")
	}
	return nil
}

func (r *gormChatRoomRepository) ResetUnread(ctx context.Context, roomID string, role entity.RoomRole) error {
	result := gormConn(ctx, r.db).
		Model(&entity.ChatRoom{}).
		Where("id = ?", roomID).
		Update(unreadColumn(role.IsSender), 0)
	if result.Error != nil {
		return gormError(result.Error, "ChatRoom", "update")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// mysql reports zero affected rows when the counter was already zero.
	var count int64
	if err := gormConn(ctx, r.db).Model(&entity.ChatRoom{}).Where("id = ?", roomID).Count(&count).Error; err != nil {
		return gormError(err, "ChatRoom", "count")
	}
	if count == 0 {
		return gormError(gorm.ErrRecordNotFound, "ChatRoom", "update")
	}
	return nil
}

func unreadColumn(isSender bool) string {
	if isSender {
		return "sender_unread_count"
	}
	return "receiver_unread_count"
}
