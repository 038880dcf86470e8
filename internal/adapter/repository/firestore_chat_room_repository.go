package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
)

type firestoreChatRoomRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRoomRepository(client *firestore.Client) repository.ChatRoomRepository {
	return &firestoreChatRoomRepository{
		client: client,
	}
}

func (r *firestoreChatRoomRepository) Create(ctx context.Context, room *entity.ChatRoom) error {
	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	room.Participants = []string{room.SenderID, room.ReceiverID}

	if err := setDoc(ctx, r.client.Collection(chatRoomsCollection).Doc(room.ID), room); err != nil {
		return errors.Internal("Failed to create chat room", err)
	}
	return nil
}

func (r *firestoreChatRoomRepository) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	doc, err := getDoc(ctx, r.client.Collection(chatRoomsCollection).Doc(id))
	if err != nil {
		if isNotFound(err) {
			return nil, errors.NotFound("ChatRoom", err)
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.ChatRoom
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	return &room, nil
}

func (r *firestoreChatRoomRepository) FindBySenderAndRental(ctx context.Context, senderID, rentalID string) (*entity.ChatRoom, error) {
	query := r.client.Collection(chatRoomsCollection).
		Where("senderId", "==", senderID).
		Where("rentalId", "==", rentalID).
		Limit(1)

	docs, err := queryDocs(ctx, query)
	if err != nil {
		return nil, errors.Internal("Failed to query chat room", err)
	}
	if len(docs) == 0 {
		return nil, errors.NotFound("ChatRoom", nil)
	}

	var room entity.ChatRoom
	if err := docs[0].DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	return &room, nil
}

func (r *firestoreChatRoomRepository) ListByMember(ctx context.Context, memberID string, limit, offset int) ([]*entity.ChatRoom, int64, error) {
	query := r.client.Collection(chatRoomsCollection).
		Where("participants", "array-contains", memberID).
		OrderBy("modifiedAt", firestore.Desc)

	allDocs, err := queryDocs(ctx, query)
	if err != nil {
		logger.Error("Firestore error while fetching chat rooms for member %s: %v", memberID, err)
		return nil, 0, errors.Internal("Failed to fetch chat rooms", err)
	}

	total := int64(len(allDocs))

	// Paginate in memory; one query serves both the count and the page.
	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	rooms := make([]*entity.ChatRoom, 0, end-start)
	for _, doc := range allDocs[start:end] {
		var room entity.ChatRoom
		if err := doc.DataTo(&room); err != nil {
			logger.Warn("Skipping unreadable chat room %s: %v", doc.Ref.ID, err)
			continue
		}
		rooms = append(rooms, &room)
	}

	return rooms, total, nil
}

func (r *firestoreChatRoomRepository) RecordMessage(ctx context.Context, roomID string, author entity.RoomRole, text string, at time.Time) error {
	return r.update(ctx, roomID, []firestore.Update{
		{Path: unreadField(!author.IsSender), Value: firestore.Increment(1)},
		{Path: "lastChat", Value: text},
		{Path: "modifiedAt", Value: at},
	})
}

func (r *firestoreChatRoomRepository) ResetUnread(ctx context.Context, roomID string, role entity.RoomRole) error {
	return r.update(ctx, roomID, []firestore.Update{
		{Path: unreadField(role.IsSender), Value: 0},
	})
}

func (r *firestoreChatRoomRepository) update(ctx context.Context, roomID string, updates []firestore.Update) error {
	if err := updateDoc(ctx, r.client.Collection(chatRoomsCollection).Doc(roomID), updates); err != nil {
		if isNotFound(err) {
			return errors.NotFound("ChatRoom", err)
		}
		return errors.Internal("Failed to update chat room", err)
	}
	return nil
}

func unreadField(isSender bool) string {
	if isSender {
		return "senderUnreadCount"
	}
	return "receiverUnreadCount"
}
