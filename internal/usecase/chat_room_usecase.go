package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
	"rentchat/internal/infrastructure/ratelimit"
	ws "rentchat/internal/infrastructure/websocket"
	"rentchat/pkg/errors"
	"rentchat/pkg/logger"
	"rentchat/pkg/utils"
)

type ChatRoomUseCase struct {
	chatRoomRepo repository.ChatRoomRepository
	chatRepo     repository.ChatRepository
	memberRepo   repository.MemberRepository
	rentalRepo   repository.RentalRepository
	transactor   repository.Transactor
	notifier     Notifier
	limiter      ActionLimiter
	now          func() time.Time
}

// NewChatRoomUseCase wires the chat use cases. notifier and limiter may be
// nil, which disables realtime push and throttling respectively.
func NewChatRoomUseCase(
	chatRoomRepo repository.ChatRoomRepository,
	chatRepo repository.ChatRepository,
	memberRepo repository.MemberRepository,
	rentalRepo repository.RentalRepository,
	transactor repository.Transactor,
	notifier Notifier,
	limiter ActionLimiter,
) *ChatRoomUseCase {
	return &ChatRoomUseCase{
		chatRoomRepo: chatRoomRepo,
		chatRepo:     chatRepo,
		memberRepo:   memberRepo,
		rentalRepo:   rentalRepo,
		transactor:   transactor,
		notifier:     notifier,
		limiter:      limiter,
		now:          time.Now,
	}
}

type CreateRoomInput struct {
	RentalID       string
	SellerNickname string
}

type RoomSummary struct {
	ChatRoomID         string    `json:"chat_room_id"`
	ToMemberID         string    `json:"to_member_id"`
	ToMemberNickname   string    `json:"to_member_nickname"`
	ToMemberProfileURL string    `json:"to_member_profile_url"`
	LastChat           string    `json:"last_chat"`
	UnreadCount        int       `json:"unread_count"`
	ModifiedAt         time.Time `json:"modified_at"`
}

type RoomList struct {
	TotalPages  int           `json:"total_pages"`
	CurrentPage int           `json:"current_page"`
	Rooms       []RoomSummary `json:"rooms"`
}

type ChatItem struct {
	ID             string    `json:"id"`
	SenderID       string    `json:"sender_id"`
	SenderNickname string    `json:"sender_nickname"`
	Message        string    `json:"message"`
	IsRead         bool      `json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
}

type RoomDetail struct {
	TotalPages         int        `json:"total_pages"`
	CurrentPage        int        `json:"current_page"`
	ToMemberNickname   string     `json:"to_member_nickname"`
	ToMemberProfileURL string     `json:"to_member_profile_url"`
	MyProfileURL       string     `json:"my_profile_url"`
	Chats              []ChatItem `json:"chats"`
}

// OpenOrCreateRoom returns the requester's room for the rental, creating it
// on the first request. The receiver is the member owning sellerNickname.
// created reports whether this call inserted the room.
func (uc *ChatRoomUseCase) OpenOrCreateRoom(ctx context.Context, email string, input CreateRoomInput) (roomID string, created bool, err error) {
	var senderID, rentalID string

	err = uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		rental, err := uc.rentalRepo.GetByID(ctx, input.RentalID)
		if err != nil {
			logger.Error("OpenOrCreateRoom: rental %s: %v", input.RentalID, err)
			return err
		}

		sender, err := uc.memberRepo.GetByEmail(ctx, email)
		if err != nil {
			logger.Error("OpenOrCreateRoom: member %s: %v", email, err)
			return err
		}

		receiver, err := uc.memberRepo.GetByNickname(ctx, input.SellerNickname)
		if err != nil {
			logger.Error("OpenOrCreateRoom: member nickname %s: %v", input.SellerNickname, err)
			return err
		}

		if sender.ID == receiver.ID || rental.IsOwnedBy(sender.ID) {
			return errors.BadRequest("Cannot chat with yourself", nil)
		}
		senderID, rentalID = sender.ID, rental.ID

		existing, err := uc.chatRoomRepo.FindBySenderAndRental(ctx, sender.ID, rental.ID)
		if err == nil {
			roomID = existing.ID
			return nil
		}
		if !isNotFound(err) {
			return err
		}

		room := entity.NewChatRoom(sender.ID, receiver.ID, rental.ID, uc.now())
		if err := uc.chatRoomRepo.Create(ctx, room); err != nil {
			logger.Error("OpenOrCreateRoom: create room for sender %s rental %s: %v", sender.ID, rental.ID, err)
			return err
		}

		// Denial rolls the insert back.
		if err := uc.allow(email, ratelimit.ActionCreateRoom, "Too many chat rooms created. Please wait before opening another one"); err != nil {
			return err
		}
		logger.Info("Chat room %s created: sender=%s receiver=%s rental=%s", room.ID, sender.ID, receiver.ID, rental.ID)

		roomID, created = room.ID, true
		return nil
	})
	if errors.Is(err, errors.CodeConflict) && senderID != "" {
		// A concurrent request inserted the same pair first.
		existing, findErr := uc.chatRoomRepo.FindBySenderAndRental(ctx, senderID, rentalID)
		if findErr != nil {
			logger.Error("OpenOrCreateRoom: reload room for sender %s rental %s: %v", senderID, rentalID, findErr)
			return "", false, findErr
		}
		return existing.ID, false, nil
	}
	if err != nil {
		return "", false, err
	}
	return roomID, created, nil
}

// ListRooms pages the viewer's rooms, most recently modified first.
func (uc *ChatRoomUseCase) ListRooms(ctx context.Context, email string, page, pageSize int) (*RoomList, error) {
	viewer, err := uc.memberRepo.GetByEmail(ctx, email)
	if err != nil {
		logger.Error("ListRooms: member %s: %v", email, err)
		return nil, err
	}

	p := utils.NewPaginationParams(page, pageSize)
	rooms, total, err := uc.chatRoomRepo.ListByMember(ctx, viewer.ID, p.PageSize, p.Offset)
	if err != nil {
		logger.Error("ListRooms: rooms of member %s: %v", viewer.ID, err)
		return nil, err
	}

	members := map[string]*entity.Member{viewer.ID: viewer}
	summaries := make([]RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		role := room.RoleOf(viewer.ID)

		counterpart, err := uc.memberByID(ctx, members, role.CounterpartID)
		if err != nil {
			logger.Error("ListRooms: counterpart %s of room %s: %v", role.CounterpartID, room.ID, err)
			return nil, err
		}

		summaries = append(summaries, RoomSummary{
			ChatRoomID:         room.ID,
			ToMemberID:         counterpart.ID,
			ToMemberNickname:   counterpart.Nickname,
			ToMemberProfileURL: counterpart.ProfileURL,
			LastChat:           room.LastChat,
			UnreadCount:        room.UnreadCountFor(role),
			ModifiedAt:         room.ModifiedAt,
		})
	}

	return &RoomList{
		TotalPages:  utils.TotalPages(total, p.PageSize),
		CurrentPage: p.Page,
		Rooms:       summaries,
	}, nil
}

// OpenRoom marks the counterpart's unread messages read, zeroes the
// viewer's unread counter and returns one page of the conversation.
func (uc *ChatRoomUseCase) OpenRoom(ctx context.Context, email, roomID string, page, pageSize int) (*RoomDetail, error) {
	var (
		room        *entity.ChatRoom
		viewer      *entity.Member
		counterpart *entity.Member
		readCount   int
	)

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		room, err = uc.chatRoomRepo.GetByID(ctx, roomID)
		if err != nil {
			logger.Error("OpenRoom: room %s: %v", roomID, err)
			return err
		}

		viewer, err = uc.memberRepo.GetByEmail(ctx, email)
		if err != nil {
			logger.Error("OpenRoom: member %s: %v", email, err)
			return err
		}

		if !room.IsParticipant(viewer.ID) {
			return errors.Forbidden("You are not a participant of this chat room", nil)
		}
		role := room.RoleOf(viewer.ID)

		counterpart, err = uc.memberRepo.GetByID(ctx, role.CounterpartID)
		if err != nil {
			logger.Error("OpenRoom: counterpart %s: %v", role.CounterpartID, err)
			return err
		}

		unread, err := uc.UnreadMessagesFrom(ctx, room, role.IsSender)
		if err != nil {
			logger.Error("OpenRoom: unread messages of room %s: %v", room.ID, err)
			return err
		}
		readCount = len(unread)

		if readCount == 0 && room.UnreadCountFor(role) == 0 {
			return nil
		}

		if err := uc.chatRepo.MarkRead(ctx, unread); err != nil {
			logger.Error("OpenRoom: mark read in room %s: %v", room.ID, err)
			return err
		}

		if err := uc.chatRoomRepo.ResetUnread(ctx, room.ID, role); err != nil {
			logger.Error("OpenRoom: reset unread of room %s: %v", room.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if readCount > 0 {
		uc.notify(counterpart.ID, ws.MessageTypeReadReceipt, ws.ReadReceiptData{
			ChatRoomID: room.ID,
			ReaderID:   viewer.ID,
			Count:      readCount,
		})
	}

	p := utils.NewPaginationParams(page, pageSize)
	chats, total, err := uc.chatRepo.ListByRoom(ctx, room.ID, p.PageSize, p.Offset)
	if err != nil {
		logger.Error("OpenRoom: chats of room %s: %v", room.ID, err)
		return nil, err
	}

	authors := map[string]*entity.Member{viewer.ID: viewer, counterpart.ID: counterpart}
	items := make([]ChatItem, 0, len(chats))
	for _, chat := range chats {
		items = append(items, newChatItem(chat, authors[chat.SenderID]))
	}

	return &RoomDetail{
		TotalPages:         utils.TotalPages(total, p.PageSize),
		CurrentPage:        p.Page,
		ToMemberNickname:   counterpart.Nickname,
		ToMemberProfileURL: counterpart.ProfileURL,
		MyProfileURL:       viewer.ProfileURL,
		Chats:              items,
	}, nil
}

// UnreadMessagesFrom lists the unread messages written by the counterpart
// of the sender side (isSender) or of the receiver side.
func (uc *ChatRoomUseCase) UnreadMessagesFrom(ctx context.Context, room *entity.ChatRoom, isSender bool) ([]*entity.Chat, error) {
	return uc.chatRepo.ListUnreadByAuthor(ctx, room.ID, room.Side(isSender).CounterpartID)
}

// SendMessage stores a chat and bumps the counterpart's unread counter.
func (uc *ChatRoomUseCase) SendMessage(ctx context.Context, email, roomID, text string) (*ChatItem, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.BadRequest("Message cannot be empty", nil)
	}
	if err := uc.allow(email, ratelimit.ActionSendMessage, "Too many messages. Please slow down"); err != nil {
		return nil, err
	}

	var (
		chat   *entity.Chat
		author *entity.Member
		role   entity.RoomRole
	)

	err := uc.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		room, err := uc.chatRoomRepo.GetByID(ctx, roomID)
		if err != nil {
			logger.Error("SendMessage: room %s: %v", roomID, err)
			return err
		}

		author, err = uc.memberRepo.GetByEmail(ctx, email)
		if err != nil {
			logger.Error("SendMessage: member %s: %v", email, err)
			return err
		}

		if !room.IsParticipant(author.ID) {
			return errors.Forbidden("You are not a participant of this chat room", nil)
		}
		role = room.RoleOf(author.ID)

		chat = &entity.Chat{
			ChatRoomID: room.ID,
			SenderID:   author.ID,
			Message:    text,
			CreatedAt:  uc.now(),
		}
		if err := uc.chatRepo.Create(ctx, chat); err != nil {
			logger.Error("SendMessage: create chat in room %s: %v", room.ID, err)
			return err
		}

		if err := uc.chatRoomRepo.RecordMessage(ctx, room.ID, role, chat.Message, chat.CreatedAt); err != nil {
			logger.Error("SendMessage: update room %s: %v", room.ID, err)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.notify(role.CounterpartID, ws.MessageTypeChat, ws.ChatData{
		ChatRoomID:     chat.ChatRoomID,
		ChatID:         chat.ID,
		SenderID:       author.ID,
		SenderNickname: author.Nickname,
		Message:        chat.Message,
		CreatedAt:      chat.CreatedAt.UTC().Format(time.RFC3339),
	})

	item := newChatItem(chat, author)
	return &item, nil
}

func (uc *ChatRoomUseCase) memberByID(ctx context.Context, cache map[string]*entity.Member, id string) (*entity.Member, error) {
	if member, ok := cache[id]; ok {
		return member, nil
	}
	member, err := uc.memberRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = member
	return member, nil
}

func (uc *ChatRoomUseCase) allow(email, action, message string) error {
	if uc.limiter == nil {
		return nil
	}
	allowed, wait := uc.limiter.Allow(email, action)
	if !allowed {
		logger.Warn("%s rate limited for %s, retry in %v", action, email, wait)
		return errors.TooManyRequests(fmt.Sprintf("%s (retry in %ds)", message, int(wait.Seconds())+1))
	}
	return nil
}

func (uc *ChatRoomUseCase) notify(memberID, messageType string, data interface{}) {
	if uc.notifier == nil {
		return
	}
	if err := uc.notifier.Notify(memberID, messageType, data); err != nil {
		logger.Warn("push %s to member %s failed: %v", messageType, memberID, err)
	}
}

func newChatItem(chat *entity.Chat, author *entity.Member) ChatItem {
	item := ChatItem{
		ID:        chat.ID,
		SenderID:  chat.SenderID,
		Message:   chat.Message,
		IsRead:    chat.IsRead,
		CreatedAt: chat.CreatedAt,
	}
	if author != nil {
		item.SenderNickname = author.Nickname
	}
	return item
}
