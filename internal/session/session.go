// Package session is the application store for signed-in users. It
// replaces the frontends' global "current user" state with explicit
// sessions created at login and destroyed at logout.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"oldphonedeals/internal/domain/user"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("session: not found")

// Session binds a gateway session id to a marketplace token and user.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	User      user.User `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the session belongs to an administrator.
func (s *Session) IsAdmin() bool { return s != nil && s.User.IsAdmin }

// Store keeps sessions.
type Store interface {
	Create(ctx context.Context, token string, u user.User) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	// Exists reports whether a session is still live without extending it.
	Exists(ctx context.Context, id string) (bool, error)
}

func newSession(token string, u user.User) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      u,
		CreatedAt: time.Now().UTC(),
	}
}

// RedisStore keeps sessions in Redis with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(id string) string { return "session:" + id }

func (s *RedisStore) Create(ctx context.Context, token string, u user.User) (*Session, error) {
	sess := newSession(token, u)
	raw, err := json.Marshal(sess)
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKey(sess.ID), raw, s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("session: store: %w", err)
	}
	return sess, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.GetEx(ctx, redisKey(id), s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKey(id)).Err()
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, redisKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("session: exists: %w", err)
	}
	return n > 0, nil
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	sess    Session
	expires time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: make(map[string]*entry)}
}

func (s *MemoryStore) Create(_ context.Context, token string, u user.User) (*Session, error) {
	sess := newSession(token, u)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = &entry{sess: *sess, expires: s.now().Add(s.ttl)}
	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	if s.ttl > 0 && now.After(e.expires) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	e.expires = now.Add(s.ttl)
	sess := e.sess
	return &sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) Exists(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return false, nil
	}
	if s.ttl > 0 && s.now().After(e.expires) {
		delete(s.sessions, id)
		return false, nil
	}
	return true, nil
}
