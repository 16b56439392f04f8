package likes

import (
	"context"
	"sync"
	"time"
)

type pair struct{ itemID, userID int64 }

// MemoryStorage is an in-process Storage with the same uniqueness contract as PgStorage.
type MemoryStorage struct {
	mu     sync.Mutex
	items  map[int64]struct{}
	likes  map[pair]Record
	nextID int64
	now    func() time.Time
}

// NewMemoryStorage returns a MemoryStorage that knows the given item ids.
func NewMemoryStorage(itemIDs ...int64) *MemoryStorage {
	s := &MemoryStorage{
		items: make(map[int64]struct{}, len(itemIDs)),
		likes: make(map[pair]Record),
		now:   time.Now,
	}
	for _, id := range itemIDs {
		s.items[id] = struct{}{}
	}
	return s
}

// AddItem registers an item id.
func (s *MemoryStorage) AddItem(id int64) {
	s.mu.Lock()
	s.items[id] = struct{}{}
	s.mu.Unlock()
}

// RemoveItem drops an item and its likes, as the ON DELETE CASCADE does in Postgres.
func (s *MemoryStorage) RemoveItem(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, id)
	for k := range s.likes {
		if k.itemID == id {
			delete(s.likes, k)
		}
	}
}

func (s *MemoryStorage) ItemExists(_ context.Context, itemID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[itemID]
	return ok, nil
}

func (s *MemoryStorage) Find(_ context.Context, itemID, userID int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.likes[pair{itemID, userID}]
	if !ok {
		return Record{}, ErrLikeNotFound
	}
	return r, nil
}

func (s *MemoryStorage) Insert(_ context.Context, itemID, userID int64) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[itemID]; !ok {
		return Record{}, ErrItemNotFound
	}
	k := pair{itemID, userID}
	if _, ok := s.likes[k]; ok {
		return Record{}, ErrDuplicate
	}
	s.nextID++
	r := Record{ID: s.nextID, ItemID: itemID, UserID: userID, CreatedAt: s.now()}
	s.likes[k] = r
	return r, nil
}

func (s *MemoryStorage) Delete(_ context.Context, itemID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := pair{itemID, userID}
	if _, ok := s.likes[k]; !ok {
		return false, nil
	}
	delete(s.likes, k)
	return true, nil
}

func (s *MemoryStorage) Count(_ context.Context, itemID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.likes {
		if k.itemID == itemID {
			n++
		}
	}
	return n, nil
}
