// In file: internal/history/redis_store.go
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/dileep-u-k/weather-agent/internal/version"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as a redis list of JSON-encoded messages.
type RedisStore struct {
	rdb  *redis.Client
	opts Options
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore returns a store that keeps one list per session on rdb.
func NewRedisStore(rdb *redis.Client, opts Options) *RedisStore {
	return &RedisStore{rdb: rdb, opts: opts.withDefaults()}
}

func (s *RedisStore) key(sessionID string) string {
	return version.HistoryKey(s.opts.Collection, s.opts.UserID, sessionID)
}

// Get returns every message in the session. A key that does not exist yet is
// an empty session.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	msgs, err := s.lrange(ctx, sessionID, 0, -1)
	if err != nil {
		return nil, err
	}
	return &Session{ID: sessionID, Messages: msgs}, nil
}

func (s *RedisStore) AppendUser(ctx context.Context, sessionID, text string) error {
	return s.append(ctx, sessionID, newMessage(RoleUser, text))
}

func (s *RedisStore) AppendAssistant(ctx context.Context, sessionID, text string) error {
	return s.append(ctx, sessionID, newMessage(RoleAssistant, text))
}

// AppendTurn pushes both messages with a single RPUSH inside a MULTI block.
func (s *RedisStore) AppendTurn(ctx context.Context, sessionID, query, answer string) error {
	return s.append(ctx, sessionID, newMessage(RoleUser, query), newMessage(RoleAssistant, answer))
}

// Window reads the newest or oldest limit entries with a single LRANGE.
func (s *RedisStore) Window(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		return s.lrange(ctx, sessionID, 0, -1)
	}
	if s.opts.Policy == WindowOldest {
		return s.lrange(ctx, sessionID, 0, int64(limit-1))
	}
	return s.lrange(ctx, sessionID, -int64(limit), -1)
}

func (s *RedisStore) append(ctx context.Context, sessionID string, msgs ...Message) error {
	values := make([]interface{}, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
		values = append(values, data)
	}
	key := s.key(sessionID)

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if s.opts.TTL > 0 {
		pipe.Expire(ctx, key, s.opts.TTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisStore) lrange(ctx context.Context, sessionID string, start, stop int64) ([]Message, error) {
	raw, err := s.rdb.LRange(ctx, s.key(sessionID), start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	msgs := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			log.Printf("⚠️ Skipping undecodable history entry in session %s: %v", sessionID, err)
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
