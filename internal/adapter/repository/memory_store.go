package repository

import (
	"context"
	"sync"

	"rentchat/internal/domain/entity"
	"rentchat/internal/domain/repository"
)

// MemoryStore keeps every table in process memory. It backs DB_DRIVER=memory
// for local runs and the use case tests.
//
// Transactions are serialized: WithinTransaction holds txMu for the whole
// unit of work and restores a snapshot when fn fails. Calls made outside a
// transaction take txMu for the duration of the single operation.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	members map[string]entity.Member
	rentals map[string]entity.Rental
	rooms   map[string]entity.ChatRoom
	chats   map[string]entity.Chat

	// seq records insertion order so equal timestamps still sort stably.
	seq   int64
	order map[string]int64
}

type memoryTxKey struct{}

type memorySnapshot struct {
	members map[string]entity.Member
	rentals map[string]entity.Rental
	rooms   map[string]entity.ChatRoom
	chats   map[string]entity.Chat
	seq     int64
	order   map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members: make(map[string]entity.Member),
		rentals: make(map[string]entity.Rental),
		rooms:   make(map[string]entity.ChatRoom),
		chats:   make(map[string]entity.Chat),
		order:   make(map[string]int64),
	}
}

func NewMemoryTransactor(store *MemoryStore) repository.Transactor {
	return store
}

func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, memoryTxKey{}, s)); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *MemoryStore) inTx(ctx context.Context) bool {
	store, _ := ctx.Value(memoryTxKey{}).(*MemoryStore)
	return store == s
}

// lock guards one repository call and returns the matching unlock.
func (s *MemoryStore) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

func (s *MemoryStore) next(id string) {
	if _, ok := s.order[id]; ok {
		return
	}
	s.seq++
	s.order[id] = s.seq
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		members: make(map[string]entity.Member, len(s.members)),
		rentals: make(map[string]entity.Rental, len(s.rentals)),
		rooms:   make(map[string]entity.ChatRoom, len(s.rooms)),
		chats:   make(map[string]entity.Chat, len(s.chats)),
		seq:     s.seq,
		order:   make(map[string]int64, len(s.order)),
	}
	for k, v := range s.members {
		snap.members[k] = v
	}
	for k, v := range s.rentals {
		snap.rentals[k] = v
	}
	for k, v := range s.rooms {
		snap.rooms[k] = copyRoom(v)
	}
	for k, v := range s.chats {
		snap.chats[k] = v
	}
	for k, v := range s.order {
		snap.order[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.members = snap.members
	s.rentals = snap.rentals
	s.rooms = snap.rooms
	s.chats = snap.chats
	s.seq = snap.seq
	s.order = snap.order
}

func copyRoom(room entity.ChatRoom) entity.ChatRoom {
	room.Participants = append([]string(nil), room.Participants...)
	return room
}
