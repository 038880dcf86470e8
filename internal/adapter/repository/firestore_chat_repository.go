package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
)

// Chats live in a subcollection of their room: chat_rooms/{roomID}/chats/{chatID}.
type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) chats(roomID string) *firestore.CollectionRef {
	return r.client.Collection(chatRoomsCollection).Doc(roomID).Collection(chatsCollection)
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}

	if err := setDoc(ctx, r.chats(chat.ChatRoomID).Doc(chat.ID), chat); err != nil {
		return errors.Internal("Failed to create chat", err)
	}
	return nil
}

func (r *firestoreChatRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.chats(roomID).OrderBy("createdAt", firestore.Desc)

	countDocs, err := queryDocs(ctx, query)
	if err != nil {
		logger.Error("Firestore error while counting chats for room %s: %v", roomID, err)
		return nil, 0, errors.Internal("Failed to count chats for room", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var chats []*entity.Chat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating chats for room %s: %v", roomID, err)
			return nil, 0, errors.Internal("Failed to iterate chats", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return nil, 0, errors.Internal("Failed to parse chat data", err)
		}
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) ListUnreadByAuthor(ctx context.Context, roomID, authorID string) ([]*entity.Chat, error) {
	query := r.chats(roomID).
		Where("senderId", "==", authorID).
		Where("isRead", "==", false)

	docs, err := queryDocs(ctx, query)
	if err != nil {
		return nil, errors.Internal("Failed to query unread chats", err)
	}

	chats := make([]*entity.Chat, 0, len(docs))
	for _, doc := range docs {
		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return nil, errors.Internal("Failed to parse chat data", err)
		}
		chats = append(chats, &chat)
	}
	return chats, nil
}

func (r *firestoreChatRepository) MarkRead(ctx context.Context, chats []*entity.Chat) error {
	for _, chat := range chats {
		err := updateDoc(ctx, r.chats(chat.ChatRoomID).Doc(chat.ID), []firestore.Update{
			{Path: "isRead", Value: true},
		})
		if err != nil {
			return errors.Internal("Failed to mark chat as read", err)
		}
		chat.MarkRead()
	}
	return nil
}
