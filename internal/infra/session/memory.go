// Package session はログイン中の一時状態の保存先。
// 本番はRedis、Redisが無い環境（開発・テスト）ではメモリを使う。
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	repo "github.com/Svamsi2006/balaveerulu/internal/repository"
)

type memoryEntry struct {
	raw       []byte
	expiresAt time.Time // ゼロなら期限なし
}

// MemoryStore は1プロセス内だけで共有される
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: time.Now}
}

// テスト用に時計を差し替える
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{entries: map[string]memoryEntry{}, now: now}
}

var _ repo.SessionStore = (*MemoryStore)(nil)

func (s *MemoryStore) lookup(key string) (memoryEntry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *MemoryStore) Get(ctx context.Context, key string, dst any) error {
	s.mu.Lock()
	e, ok := s.lookup(key)
	s.mu.Unlock()
	if !ok {
		return repo.ErrNotFound
	}
	if err := json.Unmarshal(e.raw, dst); err != nil {
		return fmt.Errorf("decode session %s: %w", key, err)
	}
	return nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	s.mu.Lock()
	s.entries[key] = memoryEntry{raw: raw, expiresAt: s.expiry(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) TryLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(key); ok {
		return false, nil
	}
	s.entries[key] = memoryEntry{raw: []byte(token), expiresAt: s.expiry(ttl)}
	return true, nil
}

// 期限切れ後に別の人が取ったロックは外さない
func (s *MemoryStore) Unlock(ctx context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.lookup(key); ok && string(e.raw) == token {
		delete(s.entries, key)
	}
	return nil
}
