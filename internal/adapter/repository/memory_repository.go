package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/pkg/errors"
)

type memoryMemberRepository struct {
	store *MemoryStore
}

func NewMemoryMemberRepository(store *MemoryStore) repository.MemberRepository {
	return &memoryMemberRepository{store: store}
}

func (r *memoryMemberRepository) Create(ctx context.Context, member *entity.Member) error {
	defer r.store.lock(ctx)()

	for _, existing := range r.store.members {
		if existing.Email == member.Email || existing.Nickname == member.Nickname {
			return errors.Conflict("Member already exists")
		}
	}

	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	r.store.members[member.ID] = *member
	r.store.next(member.ID)
	return nil
}

func (r *memoryMemberRepository) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	defer r.store.lock(ctx)()

	member, ok := r.store.members[id]
	if !ok {
		return nil, errors.NotFound("Member", nil)
	}
	return &member, nil
}

func (r *memoryMemberRepository) GetByEmail(ctx context.Context, email string) (*entity.Member, error) {
	return r.find(ctx, func(m entity.Member) bool { return m.Email == email })
}

func (r *memoryMemberRepository) GetByNickname(ctx context.Context, nickname string) (*entity.Member, error) {
	return r.find(ctx, func(m entity.Member) bool { return m.Nickname == nickname })
}

func (r *memoryMemberRepository) find(ctx context.Context, match func(entity.Member) bool) (*entity.Member, error) {
	defer r.store.lock(ctx)()

	for _, member := range r.store.members {
		if match(member) {
			found := member
			return &found, nil
		}
	}
	return nil, errors.NotFound("Member", nil)
}

type memoryRentalRepository struct {
	store *MemoryStore
}

func NewMemoryRentalRepository(store *MemoryStore) repository.RentalRepository {
	return &memoryRentalRepository{store: store}
}

func (r *memoryRentalRepository) Create(ctx context.Context, rental *entity.Rental) error {
	defer r.store.lock(ctx)()

	if rental.ID == "" {
		rental.ID = uuid.New().String()
	}
	now := time.Now()
	rental.CreatedAt = now
	rental.UpdatedAt = now

	r.store.rentals[rental.ID] = *rental
	r.store.next(rental.ID)
	return nil
}

func (r *memoryRentalRepository) GetByID(ctx context.Context, id string) (*entity.Rental, error) {
	defer r.store.lock(ctx)()

	rental, ok := r.store.rentals[id]
	if !ok {
		return nil, errors.NotFound("Rental", nil)
	}
	return &rental, nil
}

func (r *memoryRentalRepository) Update(ctx context.Context, rental *entity.Rental) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.rentals[rental.ID]; !ok {
		return errors.NotFound("Rental", nil)
	}
	rental.UpdatedAt = time.Now()
	r.store.rentals[rental.ID] = *rental
	return nil
}

func (r *memoryRentalRepository) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.rentals[id]; !ok {
		return errors.NotFound("Rental", nil)
	}
	delete(r.store.rentals, id)
	return nil
}

type memoryChatRoomRepository struct {
	store *MemoryStore
}

func NewMemoryChatRoomRepository(store *MemoryStore) repository.ChatRoomRepository {
	return &memoryChatRoomRepository{store: store}
}

func (r *memoryChatRoomRepository) Create(ctx context.Context, room *entity.ChatRoom) error {
	defer r.store.lock(ctx)()

	for _, existing := range r.store.rooms {
		if existing.SenderID == room.SenderID && existing.RentalID == room.RentalID {
			return errors.Conflict("ChatRoom already exists")
		}
	}

	if room.ID == "" {
		room.ID = uuid.New().String()
	}
	room.Participants = []string{room.SenderID, room.ReceiverID}

	r.store.rooms[room.ID] = copyRoom(*room)
	r.store.next(room.ID)
	return nil
}

func (r *memoryChatRoomRepository) GetByID(ctx context.Context, id string) (*entity.ChatRoom, error) {
	defer r.store.lock(ctx)()

	room, ok := r.store.rooms[id]
	if !ok {
		return nil, errors.NotFound("ChatRoom", nil)
	}
	room = copyRoom(room)
	return &room, nil
}

func (r *memoryChatRoomRepository) FindBySenderAndRental(ctx context.Context, senderID, rentalID string) (*entity.ChatRoom, error) {
	defer r.store.lock(ctx)()

	for _, room := range r.store.rooms {
		if room.SenderID == senderID && room.RentalID == rentalID {
			found := copyRoom(room)
			return &found, nil
		}
	}
	return nil, errors.NotFound("ChatRoom", nil)
}

func (r *memoryChatRoomRepository) ListByMember(ctx context.Context, memberID string, limit, offset int) ([]*entity.ChatRoom, int64, error) {
	defer r.store.lock(ctx)()

	var rooms []*entity.ChatRoom
	for _, room := range r.store.rooms {
		if room.IsParticipant(memberID) {
			found := copyRoom(room)
			rooms = append(rooms, &found)
		}
	}

	sort.Slice(rooms, func(i, j int) bool {
		if !rooms[i].ModifiedAt.Equal(rooms[j].ModifiedAt) {
			return rooms[i].ModifiedAt.After(rooms[j].ModifiedAt)
		}
		return r.store.order[rooms[i].ID] > r.store.order[rooms[j].ID]
	})

	total := int64(len(rooms))
	return page(rooms, limit, offset), total, nil
}

func (r *memoryChatRoomRepository) RecordMessage(ctx context.Context, roomID string, author entity.RoomRole, text string, at time.Time) error {
	defer r.store.lock(ctx)()

	room, ok := r.store.rooms[roomID]
	if !ok {
		return errors.NotFound("ChatRoom", nil)
	}
	room.RecordMessage(author, text, at)
	r.store.rooms[roomID] = room
	return nil
}

func (r *memoryChatRoomRepository) ResetUnread(ctx context.Context, roomID string, role entity.RoomRole) error {
	defer r.store.lock(ctx)()

	room, ok := r.store.rooms[roomID]
	if !ok {
		return errors.NotFound("ChatRoom", nil)
	}
	room.ResetUnread(role)
	r.store.rooms[roomID] = room
	return nil
}

type memoryChatRepository struct {
	store *MemoryStore
}

func NewMemoryChatRepository(store *MemoryStore) repository.ChatRepository {
	return &memoryChatRepository{store: store}
}

func (r *memoryChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	defer r.store.lock(ctx)()

	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now()
	}

	r.store.chats[chat.ID] = *chat
	r.store.next(chat.ID)
	return nil
}

func (r *memoryChatRepository) ListByRoom(ctx context.Context, roomID string, limit, offset int) ([]*entity.Chat, int64, error) {
	defer r.store.lock(ctx)()

	chats := r.filter(func(c entity.Chat) bool { return c.ChatRoomID == roomID })
	sort.Slice(chats, func(i, j int) bool {
		if !chats[i].CreatedAt.Equal(chats[j].CreatedAt) {
			return chats[i].CreatedAt.After(chats[j].CreatedAt)
		}
		return r.store.order[chats[i].ID] > r.store.order[chats[j].ID]
	})

	total := int64(len(chats))
	return page(chats, limit, offset), total, nil
}

func (r *memoryChatRepository) ListUnreadByAuthor(ctx context.Context, roomID, authorID string) ([]*entity.Chat, error) {
	defer r.store.lock(ctx)()

	chats := r.filter(func(c entity.Chat) bool {
		return c.ChatRoomID == roomID && c.SenderID == authorID && !c.IsRead
	})
	sort.Slice(chats, func(i, j int) bool {
		return r.store.order[chats[i].ID] < r.store.order[chats[j].ID]
	})
	return chats, nil
}

func (r *memoryChatRepository) MarkRead(ctx context.Context, chats []*entity.Chat) error {
	defer r.store.lock(ctx)()

	for _, chat := range chats {
		stored, ok := r.store.chats[chat.ID]
		if !ok {
			return errors.NotFound("Chat", nil)
		}
		stored.MarkRead()
		r.store.chats[chat.ID] = stored
		chat.MarkRead()
	}
	return nil
}

// filter must be called with the store locked.
func (r *memoryChatRepository) filter(match func(entity.Chat) bool) []*entity.Chat {
	var chats []*entity.Chat
	for _, chat := range r.store.chats {
		if match(chat) {
			found := chat
			chats = append(chats, &found)
		}
	}
	return chats
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
