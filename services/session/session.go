// File: services/session/session.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Checker is the narrow view the sync engine needs: is there a signed-in
// household session right now. Session exchange itself is out of scope
// here; this package only reflects its outcome.
type Checker interface {
	SignedIn(ctx context.Context) bool
	Token(ctx context.Context) string
}

const sessionKey = "carelink:session"

// Session is the device session produced by the authentication flow.
type Session struct {
	UserID        string    `json:"userId"`
	HouseholdID   string    `json:"householdId"`
	Token         string    `json:"token"`
	CreatedAt     time.Time `json:"createdAt"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
}

// RedisSessionStore keeps the current session in Redis.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

var _ Checker = (*RedisSessionStore)(nil)

// Save stores the session without expiry; sign-out removes it explicitly.
func (s *RedisSessionStore) Save(ctx context.Context, sess Session) error {
	sess.LastUpdatedAt = time.Now()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey, data, 0).Err(); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context) (*Session, error) {
	data, err := s.client.Get(ctx, sessionKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("session: unmarshal: %w", err)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context) error {
	return s.client.Del(ctx, sessionKey).Err()
}

func (s *RedisSessionStore) SignedIn(ctx context.Context) bool {
	sess, err := s.Get(ctx)
	return err == nil && sess != nil && sess.Token != ""
}

func (s *RedisSessionStore) Token(ctx context.Context) string {
	sess, err := s.Get(ctx)
	if err != nil || sess == nil {
		return ""
	}
	return sess.Token
}
