package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentchat/internal/domain/entity"
	ws "rentchat/internal/infrastructure/websocket"
	"rentchat/pkg/errors"
)

func TestOpenOrCreateRoomIsIdempotent(t *testing.T) {
	f := newFixture(t)
	input := CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"}

	first, created, err := f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", input)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.True(t, created)

	second, created, err := f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.False(t, created)

	room := f.room(t, first)
	assert.Equal(t, f.a.ID, room.SenderID)
	assert.Equal(t, f.b.ID, room.ReceiverID)
	assert.Equal(t, f.listing.ID, room.RentalID)
	assert.Zero(t, room.SenderUnreadCount)
	assert.Zero(t, room.ReceiverUnreadCount)

	_, total, err := f.rooms.ListByMember(f.ctx, f.a.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestOpenOrCreateRoomRejectsSelfChat(t *testing.T) {
	f := newFixture(t)

	// Requester names themselves.
	_, _, err := f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "a-nick"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	// Rental owner asks about their own listing, whatever nickname is given.
	_, _, err = f.chat.OpenOrCreateRoom(f.ctx, "b@x.com", CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "c-nick"})
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, total, err := f.rooms.ListByMember(f.ctx, f.b.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestOpenOrCreateRoomNotFound(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		email  string
		input  CreateRoomInput
		detail string
	}{
		{"unknown rental", "a@x.com", CreateRoomInput{RentalID: "missing", SellerNickname: "b-nick"}, "Rental not found"},
		{"unknown requester", "ghost@x.com", CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"}, "Member not found"},
		{"unknown nickname", "a@x.com", CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "nobody"}, "Member not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.chat.OpenOrCreateRoom(f.ctx, tt.email, tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.CodeNotFound))
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestOpenOrCreateRoomAddressesNamedMember(t *testing.T) {
	f := newFixture(t)

	// c is not the owner, but the room is addressed to whoever was named.
	id, _, err := f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "c-nick"})
	require.NoError(t, err)
	assert.Equal(t, f.c.ID, f.room(t, id).ReceiverID)
}

func TestOpenOrCreateRoomRateLimitsCreation(t *testing.T) {
	f := newFixture(t)
	f.chat.limiter = denyingLimiter{}

	_, _, err := f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"})
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))

	// The denied insert is rolled back.
	_, err = f.rooms.FindBySenderAndRental(f.ctx, f.a.ID, f.listing.ID)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestOpenOrCreateRoomSpendsTokenOnlyOnCreation(t *testing.T) {
	f := newFixture(t)
	limiter := &countingLimiter{}
	f.chat.limiter = limiter
	input := CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"}

	_, _, err := f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", input)
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.Calls())

	_, _, err = f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", input)
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.Calls())
}

func TestOpenOrCreateRoomReturnsRoomInsertedConcurrently(t *testing.T) {
	f := newFixture(t)
	winner := entity.NewChatRoom(f.a.ID, f.b.ID, f.listing.ID, time.Now())
	require.NoError(t, f.rooms.Create(f.ctx, winner))

	limiter := &countingLimiter{}
	racing := NewChatRoomUseCase(&staleLookupRoomRepo{ChatRoomRepository: f.rooms}, f.chats, f.members, f.rentals, f.tx, nil, limiter)

	id, created, err := racing.OpenOrCreateRoom(f.ctx, "a@x.com", CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, id)
	assert.False(t, created)
	assert.Zero(t, limiter.Calls())

	_, total, err := f.rooms.ListByMember(f.ctx, f.a.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestOpenOrCreateRoomConcurrentFirstRequests(t *testing.T) {
	f := newFixture(t)
	input := CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"}

	const n = 8
	ids := make([]string, n)
	created := make([]bool, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], created[i], errs[i] = f.chat.OpenOrCreateRoom(f.ctx, "a@x.com", input)
		}(i)
	}
	wg.Wait()

	inserted := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
		if created[i] {
			inserted++
		}
	}
	assert.Equal(t, 1, inserted)

	_, total, err := f.rooms.ListByMember(f.ctx, f.a.ID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestOpenRoomMarksCounterpartMessagesRead(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	f.send(t, f.a, room.ID, "is it still available?")
	f.send(t, f.a, room.ID, "I can pick it up today")
	for _, text := range []string{"yes", "when?", "after 6pm works"} {
		f.send(t, f.b, room.ID, text)
	}

	before := f.room(t, room.ID)
	require.Equal(t, 3, before.SenderUnreadCount)
	require.Equal(t, 2, before.ReceiverUnreadCount)

	detail, err := f.chat.OpenRoom(f.ctx, "a@x.com", room.ID, 1, 10)
	require.NoError(t, err)

	after := f.room(t, room.ID)
	assert.Zero(t, after.SenderUnreadCount)
	assert.Equal(t, 2, after.ReceiverUnreadCount)

	unreadFromB, err := f.chats.ListUnreadByAuthor(f.ctx, room.ID, f.b.ID)
	require.NoError(t, err)
	assert.Empty(t, unreadFromB)

	unreadFromA, err := f.chats.ListUnreadByAuthor(f.ctx, room.ID, f.a.ID)
	require.NoError(t, err)
	assert.Len(t, unreadFromA, 2)

	assert.Equal(t, "b-nick", detail.ToMemberNickname)
	assert.Equal(t, f.b.ProfileURL, detail.ToMemberProfileURL)
	assert.Equal(t, f.a.ProfileURL, detail.MyProfileURL)
	assert.Equal(t, 1, detail.TotalPages)
	assert.Equal(t, 1, detail.CurrentPage)
	require.Len(t, detail.Chats, 5)
	assert.Equal(t, "after 6pm works", detail.Chats[0].Message)
	assert.Equal(t, "b-nick", detail.Chats[0].SenderNickname)
	assert.True(t, detail.Chats[0].IsRead)
	assert.Equal(t, "is it still available?", detail.Chats[4].Message)
	assert.False(t, detail.Chats[4].IsRead)

	var receipts []pushed
	for _, e := range f.notifier.Events() {
		if e.Type == ws.MessageTypeReadReceipt {
			receipts = append(receipts, e)
		}
	}
	require.Len(t, receipts, 1)
	assert.Equal(t, f.b.ID, receipts[0].MemberID)
	assert.Equal(t, 3, receipts[0].Data.(ws.ReadReceiptData).Count)
}

func TestOpenRoomByReceiver(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)
	f.send(t, f.a, room.ID, "hello")
	f.send(t, f.b, room.ID, "hi")

	_, err := f.chat.OpenRoom(f.ctx, "b@x.com", room.ID, 1, 10)
	require.NoError(t, err)

	after := f.room(t, room.ID)
	assert.Zero(t, after.ReceiverUnreadCount)
	assert.Equal(t, 1, after.SenderUnreadCount)
}

func TestOpenRoomKeepsModifiedAt(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)
	f.send(t, f.b, room.ID, "hi")
	modified := f.room(t, room.ID).ModifiedAt

	_, err := f.chat.OpenRoom(f.ctx, "a@x.com", room.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, modified, f.room(t, room.ID).ModifiedAt)
}

func TestOpenRoomErrors(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	_, err := f.chat.OpenRoom(f.ctx, "a@x.com", "missing", 1, 10)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	assert.Contains(t, err.Error(), "ChatRoom not found")

	_, err = f.chat.OpenRoom(f.ctx, "ghost@x.com", room.ID, 1, 10)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
	assert.Contains(t, err.Error(), "Member not found")

	_, err = f.chat.OpenRoom(f.ctx, "c@x.com", room.ID, 1, 10)
	assert.True(t, errors.Is(err, errors.CodeForbidden))
}

func TestOpenRoomRollsBackWhenCounterResetFails(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)
	f.send(t, f.b, room.ID, "one")
	f.send(t, f.b, room.ID, "two")

	broken := NewChatRoomUseCase(failingRoomRepo{f.rooms}, f.chats, f.members, f.rentals, f.tx, nil, nil)
	_, err := broken.OpenRoom(f.ctx, "a@x.com", room.ID, 1, 10)
	require.Error(t, err)

	unread, err := f.chats.ListUnreadByAuthor(f.ctx, room.ID, f.b.ID)
	require.NoError(t, err)
	assert.Len(t, unread, 2)
	assert.Equal(t, 2, f.room(t, room.ID).SenderUnreadCount)
}

func TestOpenRoomPaginatesNewestFirst(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)
	for i := 0; i < 5; i++ {
		f.send(t, f.b, room.ID, string(rune('a'+i)))
	}

	detail, err := f.chat.OpenRoom(f.ctx, "a@x.com", room.ID, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.CurrentPage)
	assert.Equal(t, 3, detail.TotalPages)
	require.Len(t, detail.Chats, 2)
	assert.Equal(t, "e", detail.Chats[0].Message)

	detail, err = f.chat.OpenRoom(f.ctx, "a@x.com", room.ID, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, detail.CurrentPage)
	require.Len(t, detail.Chats, 1)
	assert.Equal(t, "a", detail.Chats[0].Message)
}

func TestUnreadMessagesFromSelectsCounterpartOnly(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)
	f.send(t, f.a, room.ID, "from a")
	f.send(t, f.b, room.ID, "from b")
	f.send(t, f.b, room.ID, "from b again")
	room = f.room(t, room.ID)

	forSender, err := f.chat.UnreadMessagesFrom(f.ctx, room, true)
	require.NoError(t, err)
	require.Len(t, forSender, 2)
	for _, chat := range forSender {
		assert.Equal(t, f.b.ID, chat.SenderID)
	}

	forReceiver, err := f.chat.UnreadMessagesFrom(f.ctx, room, false)
	require.NoError(t, err)
	require.Len(t, forReceiver, 1)
	assert.Equal(t, "from a", forReceiver[0].Message)

	// Selection alone changes nothing.
	again, err := f.chat.UnreadMessagesFrom(f.ctx, room, true)
	require.NoError(t, err)
	assert.Len(t, again, 2)
}

func TestListRoomsFromViewerPerspective(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	other := f.addMember(t, "d@x.com", "d-nick")
	second, _, err := f.chat.OpenOrCreateRoom(f.ctx, other.Email, CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"})
	require.NoError(t, err)

	f.send(t, f.a, room.ID, "hello")
	f.send(t, f.a, room.ID, "anyone?")
	f.send(t, other, second, "hey")

	list, err := f.chat.ListRooms(f.ctx, "b@x.com", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalPages)
	assert.Equal(t, 1, list.CurrentPage)
	require.Len(t, list.Rooms, 2)

	assert.Equal(t, second, list.Rooms[0].ChatRoomID)
	assert.Equal(t, "d-nick", list.Rooms[0].ToMemberNickname)
	assert.Equal(t, 1, list.Rooms[0].UnreadCount)

	assert.Equal(t, room.ID, list.Rooms[1].ChatRoomID)
	assert.Equal(t, f.a.ID, list.Rooms[1].ToMemberID)
	assert.Equal(t, f.a.ProfileURL, list.Rooms[1].ToMemberProfileURL)
	assert.Equal(t, "anyone?", list.Rooms[1].LastChat)
	assert.Equal(t, 2, list.Rooms[1].UnreadCount)

	unread, err := f.chats.ListUnreadByAuthor(f.ctx, room.ID, f.a.ID)
	require.NoError(t, err)
	assert.Len(t, unread, list.Rooms[1].UnreadCount)

	mine, err := f.chat.ListRooms(f.ctx, "a@x.com", 1, 10)
	require.NoError(t, err)
	require.Len(t, mine.Rooms, 1)
	assert.Equal(t, "b-nick", mine.Rooms[0].ToMemberNickname)
	assert.Zero(t, mine.Rooms[0].UnreadCount)
}

func TestListRoomsPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		buyer := f.addMember(t, string(rune('p'+i))+"@x.com", string(rune('p'+i))+"-nick")
		_, _, err := f.chat.OpenOrCreateRoom(f.ctx, buyer.Email, CreateRoomInput{RentalID: f.listing.ID, SellerNickname: "b-nick"})
		require.NoError(t, err)
	}

	list, err := f.chat.ListRooms(f.ctx, "b@x.com", -1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, list.CurrentPage)
	assert.Equal(t, 2, list.TotalPages)
	assert.Len(t, list.Rooms, 2)

	list, err = f.chat.ListRooms(f.ctx, "b@x.com", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, list.CurrentPage)
	assert.Len(t, list.Rooms, 1)

	empty, err := f.chat.ListRooms(f.ctx, "c@x.com", 1, 2)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalPages)
	assert.Empty(t, empty.Rooms)

	_, err = f.chat.ListRooms(f.ctx, "ghost@x.com", 1, 2)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestSendMessageUpdatesCounterpartCounter(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	item, err := f.chat.SendMessage(f.ctx, "b@x.com", room.ID, "it's available")
	require.NoError(t, err)
	assert.Equal(t, f.b.ID, item.SenderID)
	assert.Equal(t, "b-nick", item.SenderNickname)
	assert.False(t, item.IsRead)

	after := f.room(t, room.ID)
	assert.Equal(t, 1, after.SenderUnreadCount)
	assert.Zero(t, after.ReceiverUnreadCount)
	assert.Equal(t, "it's available", after.LastChat)
	assert.Equal(t, item.CreatedAt, after.ModifiedAt)

	events := f.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, f.a.ID, events[0].MemberID)
	assert.Equal(t, ws.MessageTypeChat, events[0].Type)
	assert.Equal(t, "it's available", events[0].Data.(ws.ChatData).Message)
}

func TestSendMessageErrors(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	_, err := f.chat.SendMessage(f.ctx, "a@x.com", room.ID, "   ")
	assert.True(t, errors.Is(err, errors.CodeBadRequest))

	_, err = f.chat.SendMessage(f.ctx, "c@x.com", room.ID, "let me in")
	assert.True(t, errors.Is(err, errors.CodeForbidden))

	_, err = f.chat.SendMessage(f.ctx, "a@x.com", "missing", "hello")
	assert.True(t, errors.Is(err, errors.CodeNotFound))

	f.chat.limiter = denyingLimiter{}
	_, err = f.chat.SendMessage(f.ctx, "a@x.com", room.ID, "hello")
	assert.True(t, errors.Is(err, errors.CodeTooManyRequests))
}

func TestSendMessageRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	broken := NewChatRoomUseCase(failingRoomRepo{f.rooms}, f.chats, f.members, f.rentals, f.tx, f.notifier, nil)
	_, err := broken.SendMessage(f.ctx, "a@x.com", room.ID, "lost")
	require.Error(t, err)

	_, total, err := f.chats.ListByRoom(f.ctx, room.ID, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, f.notifier.Events())
}

func TestConcurrentSendMessageKeepsEveryIncrement(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	const perSide = 10
	var wg sync.WaitGroup
	for i := 0; i < perSide; i++ {
		for _, author := range []string{"a@x.com", "b@x.com"} {
			wg.Add(1)
			go func(email string) {
				defer wg.Done()
				_, err := f.chat.SendMessage(f.ctx, email, room.ID, "hello")
				assert.NoError(t, err)
			}(author)
		}
	}
	wg.Wait()

	after := f.room(t, room.ID)
	assert.Equal(t, perSide, after.SenderUnreadCount)
	assert.Equal(t, perSide, after.ReceiverUnreadCount)
	assert.Equal(t, "hello", after.LastChat)
}

func TestConcurrentOpenRoomKeepsCounterInSyncWithUnreadChats(t *testing.T) {
	f := newFixture(t)
	room := f.openRoom(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.chat.SendMessage(f.ctx, "b@x.com", room.ID, "ping")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := f.chat.OpenRoom(f.ctx, "a@x.com", room.ID, 1, 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	unread, err := f.chats.ListUnreadByAuthor(f.ctx, room.ID, f.b.ID)
	require.NoError(t, err)
	assert.Equal(t, len(unread), f.room(t, room.ID).SenderUnreadCount)

	_, total, err := f.chats.ListByRoom(f.ctx, room.ID, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}
