// Package mysql — хранилище сессий админки в MySQL (таблица admin_sessions).
package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"nebulahunt-admin/internal/session"
)

type Storage struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func New(dsn string, ttl time.Duration) (*Storage, error) {
	const op = "storage.mysql.New"

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to open db: %w", op, err)
	}

	return &Storage{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Migrate создаёт таблицу сессий, если её нет.
func (s *Storage) Migrate(ctx context.Context) error {
	const op = "storage.mysql.Migrate"

	stmt := `
		CREATE TABLE IF NOT EXISTS admin_sessions (
			id         CHAR(36)    NOT NULL PRIMARY KEY,
			data       JSON        NOT NULL,
			expires_at DATETIME(3) NOT NULL,
			INDEX idx_admin_sessions_expires (expires_at)
		)`

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%s: не удалось создать таблицу admin_sessions: %w", op, err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, id string) (*session.Session, error) {
	const op = "storage.mysql.Get"

	stmt := `SELECT data FROM admin_sessions WHERE id = ? AND expires_at > ?`

	var data []byte
	err := s.db.QueryRowContext(ctx, stmt, id, s.now().UTC()).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("%s: повреждённая сессия %s: %w", op, id, err)
	}
	return &sess, nil
}

// Save продлевает срок жизни сессии при каждой записи.
func (s *Storage) Save(ctx context.Context, sess *session.Session) error {
	const op = "storage.mysql.Save"

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt := `
		INSERT INTO admin_sessions (id, data, expires_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE data = VALUES(data), expires_at = VALUES(expires_at)`

	if _, err := s.db.ExecContext(ctx, stmt, sess.ID, data, s.now().UTC().Add(s.ttl)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	const op = "storage.mysql.Delete"

	if _, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PurgeExpired удаляет просроченные сессии, возвращает их количество.
func (s *Storage) PurgeExpired(ctx context.Context) (int64, error) {
	const op = "storage.mysql.PurgeExpired"

	res, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= ?`, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

var _ session.Store = (*Storage)(nil)
