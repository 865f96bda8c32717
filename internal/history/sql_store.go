// In file: internal/history/sql_store.go
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ChatHistory is one persisted message row.
type ChatHistory struct {
	ID         uint   `gorm:"primaryKey"`
	Collection string `gorm:"size:128;index:idx_chat_session,priority:1"`
	UserID     string `gorm:"size:128;index:idx_chat_session,priority:2"`
	SessionID  string `gorm:"size:128;index:idx_chat_session,priority:3"`
	Role       string `gorm:"size:16"`
	Content    string
	CreatedAt  time.Time
}

// OpenDB opens a postgres database for postgres URLs or keyword DSNs and a
// sqlite database otherwise, then migrates the history schema.
func OpenDB(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"), strings.Contains(dsn, "host="):
		dialector = postgres.Open(dsn)
	default:
		dialector = sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.AutoMigrate(&ChatHistory{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// SQLStore keeps sessions as rows in a relational database via gorm.
type SQLStore struct {
	db   *gorm.DB
	opts Options
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore returns a store on db. The schema must already be migrated, see OpenDB.
func NewSQLStore(db *gorm.DB, opts Options) *SQLStore {
	return &SQLStore{db: db, opts: opts.withDefaults()}
}

func (s *SQLStore) scope(ctx context.Context, sessionID string) *gorm.DB {
	return s.db.WithContext(ctx).Model(&ChatHistory{}).
		Where("collection = ? AND user_id = ? AND session_id = ?", s.opts.Collection, s.opts.UserID, sessionID)
}

// Get returns every row of the session in insertion order.
func (s *SQLStore) Get(ctx context.Context, sessionID string) (*Session, error) {
	var rows []ChatHistory
	if err := s.scope(ctx, sessionID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	return &Session{ID: sessionID, Messages: toMessages(rows)}, nil
}

// AppendUser inserts one user row.
func (s *SQLStore) AppendUser(ctx context.Context, sessionID, text string) error {
	return s.append(ctx, sessionID, newMessage(RoleUser, text))
}

// AppendAssistant inserts one assistant row.
func (s *SQLStore) AppendAssistant(ctx context.Context, sessionID, text string) error {
	return s.append(ctx, sessionID, newMessage(RoleAssistant, text))
}

// AppendTurn inserts both rows in one transaction.
func (s *SQLStore) AppendTurn(ctx context.Context, sessionID, query, answer string) error {
	return s.append(ctx, sessionID, newMessage(RoleUser, query), newMessage(RoleAssistant, answer))
}

// Window selects the newest or oldest limit rows by id, per the store policy.
func (s *SQLStore) Window(ctx context.Context, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		session, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return session.Messages, nil
	}

	var rows []ChatHistory
	q := s.scope(ctx, sessionID).Limit(limit)
	if s.opts.Policy == WindowOldest {
		q = q.Order("id ASC")
	} else {
		q = q.Order("id DESC")
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read session %s: %w", sessionID, err)
	}
	if s.opts.Policy != WindowOldest {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}
	return toMessages(rows), nil
}

func (s *SQLStore) append(ctx context.Context, sessionID string, msgs ...Message) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, msg := range msgs {
			row := ChatHistory{
				Collection: s.opts.Collection,
				UserID:     s.opts.UserID,
				SessionID:  sessionID,
				Role:       string(msg.Role),
				Content:    msg.Text,
				CreatedAt:  msg.CreatedAt,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append to session %s: %w", sessionID, err)
	}
	return nil
}

func toMessages(rows []ChatHistory) []Message {
	msgs := make([]Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, Message{Role: Role(r.Role), Text: r.Content, CreatedAt: r.CreatedAt})
	}
	return msgs
}
