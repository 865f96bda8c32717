package history

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type storeFactory func(t *testing.T, policy WindowPolicy) Store

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T, policy WindowPolicy) Store {
			return NewMemoryStore(policy)
		},
		"redis": func(t *testing.T, policy WindowPolicy) Store {
			mr := miniredis.RunT(t)
			rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = rdb.Close() })
			return NewRedisStore(rdb, Options{Policy: policy})
		},
		"sql": func(t *testing.T, policy WindowPolicy) Store {
			db, err := OpenDB(filepath.Join(t.TempDir(), "history.db"))
			require.NoError(t, err)
			return NewSQLStore(db, Options{Policy: policy})
		},
	}
}

func seed(t *testing.T, s Store, sessionID string, turns int) {
	t.Helper()
	ctx := context.Background()
	for i := 1; i <= turns; i++ {
		require.NoError(t, s.AppendUser(ctx, sessionID, fmt.Sprintf("q%d", i)))
		require.NoError(t, s.AppendAssistant(ctx, sessionID, fmt.Sprintf("a%d", i)))
	}
}

func texts(msgs []Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Text)
	}
	return out
}

func TestStoreUnknownSessionIsEmpty(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, WindowRecent)
			session, err := s.Get(context.Background(), "never-seen")
			require.NoError(t, err)
			assert.Equal(t, "never-seen", session.ID)
			assert.Empty(t, session.Messages)

			window, err := s.Window(context.Background(), "never-seen", 10)
			require.NoError(t, err)
			assert.Empty(t, window)
		})
	}
}

func TestStoreAppendPreservesOrderAndRoles(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, WindowRecent)
			seed(t, s, "s1", 2)

			session, err := s.Get(context.Background(), "s1")
			require.NoError(t, err)
			require.Len(t, session.Messages, 4)
			assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, texts(session.Messages))
			assert.Equal(t, RoleUser, session.Messages[0].Role)
			assert.Equal(t, RoleAssistant, session.Messages[1].Role)
			assert.False(t, session.Messages[0].CreatedAt.IsZero())
		})
	}
}

func TestStoreAppendTurnWritesQueryThenAnswer(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, WindowRecent)
			seed(t, s, "s1", 1)
			require.NoError(t, s.AppendTurn(context.Background(), "s1", "q2", "a2"))

			window, err := s.Window(context.Background(), "s1", 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"q1", "a1", "q2", "a2"}, texts(window))
			assert.Equal(t, RoleUser, window[2].Role)
			assert.Equal(t, RoleAssistant, window[3].Role)
		})
	}
}

func TestSQLStoreAppendTurnRollsBackOnFailure(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("reject_answer", func(tx *gorm.DB) {
		if row, ok := tx.Statement.Dest.(*ChatHistory); ok && row.Role == string(RoleAssistant) {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))
	s := NewSQLStore(db, Options{})

	err = s.AppendTurn(context.Background(), "s", "q1", "a1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	session, err := s.Get(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, session.Messages)
}

func TestRedisStoreAppendTurnIsOneListPush(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, Options{TTL: time.Minute})
	require.NoError(t, s.AppendTurn(context.Background(), "abc", "hello", "hi there"))

	items, err := mr.List("chat-history:v1.0:user-1:abc")
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, time.Minute, mr.TTL("chat-history:v1.0:user-1:abc"))
}

func TestStoreSessionsAreIsolated(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, WindowRecent)
			seed(t, s, "a", 1)
			seed(t, s, "b", 2)

			window, err := s.Window(context.Background(), "a", 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"q1", "a1"}, texts(window))
		})
	}
}

func TestStoreWindowRecent(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, WindowRecent)
			seed(t, s, "s", 6)

			window, err := s.Window(context.Background(), "s", 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"q2", "a2", "q3", "a3", "q4", "a4", "q5", "a5", "q6", "a6"}, texts(window))

			all, err := s.Window(context.Background(), "s", 0)
			require.NoError(t, err)
			assert.Len(t, all, 12)
		})
	}
}

func TestStoreWindowOldest(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, WindowOldest)
			seed(t, s, "s", 6)

			window, err := s.Window(context.Background(), "s", 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"q1", "a1", "q2", "a2", "q3", "a3", "q4", "a4", "q5", "a5"}, texts(window))
		})
	}
}

func TestStoreWindowShorterThanLimit(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			s := newStore(t, WindowRecent)
			seed(t, s, "s", 1)

			window, err := s.Window(context.Background(), "s", 10)
			require.NoError(t, err)
			assert.Equal(t, []string{"q1", "a1"}, texts(window))
		})
	}
}

func TestRedisStoreKeyAndTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, Options{Collection: "weather", UserID: "u9", TTL: time.Hour})
	require.NoError(t, s.AppendUser(context.Background(), "abc", "hello"))

	key := "weather:v1.0:u9:abc"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestRedisStoreSkipsCorruptEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	s := NewRedisStore(rdb, Options{})
	require.NoError(t, s.AppendUser(context.Background(), "abc", "hello"))
	_, err := mr.Push("chat-history:v1.0:user-1:abc", "not-json")
	require.NoError(t, err)

	session, err := s.Get(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, texts(session.Messages))
}

func TestSQLStoreScopesByCollectionAndUser(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	first := NewSQLStore(db, Options{UserID: "alice"})
	second := NewSQLStore(db, Options{UserID: "bob"})
	require.NoError(t, first.AppendUser(context.Background(), "s", "from alice"))

	session, err := second.Get(context.Background(), "s")
	require.NoError(t, err)
	assert.Empty(t, session.Messages)
}

func TestParseWindowPolicy(t *testing.T) {
	p, err := ParseWindowPolicy("")
	require.NoError(t, err)
	assert.Equal(t, WindowRecent, p)

	p, err = ParseWindowPolicy(" Oldest ")
	require.NoError(t, err)
	assert.Equal(t, WindowOldest, p)

	_, err = ParseWindowPolicy("middle")
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestApplyWindowDoesNotAlias(t *testing.T) {
	msgs := []Message{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	out := applyWindow(msgs, 2, WindowRecent)
	out[0].Text = "changed"
	assert.Equal(t, "b", msgs[1].Text)
}
