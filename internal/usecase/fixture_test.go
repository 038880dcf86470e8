package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rentchat/internal/adapter/repository"
	"rentchat/internal/domain/entity"
	domainrepo "rentchat/internal/domain/repository"
	"rentchat/internal/infrastructure/auth"
	"rentchat/pkg/errors"
)

type pushed struct {
	MemberID string
	Type     string
	Data     interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []pushed
}

func (n *recordingNotifier) Notify(memberID, messageType string, data interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, pushed{MemberID: memberID, Type: messageType, Data: data})
	return nil
}

func (n *recordingNotifier) Events() []pushed {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]pushed(nil), n.events...)
}

type denyingLimiter struct{}

func (denyingLimiter) Allow(string, string) (bool, time.Duration) { return false, 30 * time.Second }

// countingLimiter allows everything and counts the tokens spent.
type countingLimiter struct {
	mu    sync.Mutex
	calls int
}

func (l *countingLimiter) Allow(string, string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	return true, 0
}

func (l *countingLimiter) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// failingRoomRepo fails every counter write, to exercise rollback.
type failingRoomRepo struct {
	domainrepo.ChatRoomRepository
}

func (failingRoomRepo) RecordMessage(context.Context, string, entity.RoomRole, string, time.Time) error {
	return fmt.Errorf("disk full")
}

func (failingRoomRepo) ResetUnread(context.Context, string, entity.RoomRole) error {
	return fmt.Errorf("disk full")
}

// staleLookupRoomRepo misses the first lookup, as a request does when a
// concurrent one inserts the same room after its read.
type staleLookupRoomRepo struct {
	domainrepo.ChatRoomRepository
	missed bool
}

func (r *staleLookupRoomRepo) FindBySenderAndRental(ctx context.Context, senderID, rentalID string) (*entity.ChatRoom, error) {
	if !r.missed {
		r.missed = true
		return nil, errors.NotFound("ChatRoom", nil)
	}
	return r.ChatRoomRepository.FindBySenderAndRental(ctx, senderID, rentalID)
}

type fixture struct {
	ctx      context.Context
	members  domainrepo.MemberRepository
	rentals  domainrepo.RentalRepository
	rooms    domainrepo.ChatRoomRepository
	chats    domainrepo.ChatRepository
	tx       domainrepo.Transactor
	notifier *recordingNotifier
	chat     *ChatRoomUseCase
	member   *MemberUseCase
	rental   *RentalUseCase

	a, b, c *entity.Member
	listing *entity.Rental
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	f := &fixture{
		ctx:      context.Background(),
		members:  repository.NewMemoryMemberRepository(store),
		rentals:  repository.NewMemoryRentalRepository(store),
		rooms:    repository.NewMemoryChatRoomRepository(store),
		chats:    repository.NewMemoryChatRepository(store),
		tx:       repository.NewMemoryTransactor(store),
		notifier: &recordingNotifier{},
	}

	f.chat = NewChatRoomUseCase(f.rooms, f.chats, f.members, f.rentals, f.tx, f.notifier, nil)
	var clockMu sync.Mutex
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	f.chat.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}

	f.member = NewMemberUseCase(f.members, f.tx, auth.NewBcryptHasher(bcrypt.MinCost), auth.NewJWTManager("test-secret", time.Hour))
	f.rental = NewRentalUseCase(f.rentals, f.members, f.tx)

	f.a = f.addMember(t, "a@x.com", "a-nick")
	f.b = f.addMember(t, "b@x.com", "b-nick")
	f.c = f.addMember(t, "c@x.com", "c-nick")

	f.listing = &entity.Rental{MemberID: f.b.ID, Title: "Camping tent", RentalFee: 5000}
	require.NoError(t, f.rentals.Create(f.ctx, f.listing))
	return f
}

func (f *fixture) addMember(t *testing.T, email, nickname string) *entity.Member {
	t.Helper()
	m := &entity.Member{Email: email, Nickname: nickname, ProfileURL: "https://img.example/" + nickname, PasswordHash: "x"}
	require.NoError(t, f.members.Create(f.ctx, m))
	return m
}

// openRoom creates a's room with b about the listing.
func (f *fixture) openRoom(t *testing.T) *entity.ChatRoom {
	t.Helper()
	id, _, err := f.chat.OpenOrCreateRoom(f.ctx, f.a.Email, CreateRoomInput{RentalID: f.listing.ID, SellerNickname: f.b.Nickname})
	require.NoError(t, err)
	room, err := f.rooms.GetByID(f.ctx, id)
	require.NoError(t, err)
	return room
}

func (f *fixture) send(t *testing.T, author *entity.Member, roomID, text string) {
	t.Helper()
	_, err := f.chat.SendMessage(f.ctx, author.Email, roomID, text)
	require.NoError(t, err)
}

func (f *fixture) room(t *testing.T, id string) *entity.ChatRoom {
	t.Helper()
	room, err := f.rooms.GetByID(f.ctx, id)
	require.NoError(t, err)
	return room
}
