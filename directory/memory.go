package directory

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.RWMutex
	chats   map[string]ChatRecord
	blocked map[string]map[string]struct{}
}

// NewMemoryStore returns a Store backed by process memory. It is the default
// backend and loses everything on restart.
func NewMemoryStore() Store {
	return &memoryStore{
		chats: make(map[string]ChatRecord),
		blocked: map[string]map[string]struct{}{
			NamespaceUsers:  {},
			NamespaceGroups: {},
		},
	}
}

func (s *memoryStore) RecordSeen(_ context.Context, chatID, kind, displayName string, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.chats[chatID]; ok && existing.LastSeen.After(seenAt) {
		return nil
	}
	s.chats[chatID] = ChatRecord{
		ID:          chatID,
		Kind:        kind,
		DisplayName: displayName,
		LastSeen:    seenAt,
	}
	return nil
}

func (s *memoryStore) ListUsers(ctx context.Context) ([]ChatRecord, error) {
	return s.listByKind(KindUser), nil
}

func (s *memoryStore) ListGroups(ctx context.Context) ([]ChatRecord, error) {
	return s.listByKind(KindGroup), nil
}

func (s *memoryStore) listByKind(kind string) []ChatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ChatRecord
	for _, rec := range s.chats {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *memoryStore) Block(_ context.Context, target string) error {
	namespace, id, err := SplitTarget(target)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocked[namespace][id] = struct{}{}
	return nil
}

func (s *memoryStore) IsBlocked(_ context.Context, chatID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.blocked[NamespaceUsers][userID]; ok {
		return true, nil
	}
	if _, ok := s.blocked[NamespaceGroups][chatID]; ok {
		return true, nil
	}
	return false, nil
}
