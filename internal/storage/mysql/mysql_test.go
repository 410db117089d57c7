package mysql

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebulahunt-admin/internal/apiclient"
	"nebulahunt-admin/internal/session"
)

var testStorage *Storage

func TestMain(m *testing.M) {
	// Подключаемся к тестовой БД, если она задана
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		os.Exit(m.Run())
	}

	var err error
	testStorage, err = New(dsn, time.Hour)
	if err != nil {
		panic(fmt.Errorf("не удалось подключиться к тестовой БД: %w", err))
	}

	// Проверяем подключение
	if err := testStorage.db.Ping(); err != nil {
		panic(fmt.Errorf("ping failed: %w", err))
	}
	if err := testStorage.Migrate(context.Background()); err != nil {
		panic(err)
	}

	code := m.Run()
	testStorage.Close()

	os.Exit(code)
}

func requireDB(t *testing.T) *Storage {
	t.Helper()
	if testStorage == nil {
		t.Skip("MYSQL_TEST_DSN is not set")
	}
	return testStorage
}

func TestStorage_SaveGetDelete(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()

	sess := &session.Session{
		ID:        uuid.NewString(),
		Tokens:    apiclient.Tokens{Access: "a", Refresh: "r"},
		User:      &session.User{ID: "42", Username: "commander", Role: "ADMIN"},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Save(ctx, sess))

	got, err := s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "commander", got.User.Username)
	assert.Equal(t, "r", got.Tokens.Refresh)

	sess.Tokens.Access = "a2"
	require.NoError(t, s.Save(ctx, sess))
	got, err = s.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "a2", got.Tokens.Access)

	require.NoError(t, s.Delete(ctx, sess.ID))
	_, err = s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestStorage_ExpiredSessionIsNotReturned(t *testing.T) {
	s := requireDB(t)
	ctx := context.Background()

	expired := &Storage{db: s.db, ttl: -time.Minute, now: time.Now}
	sess := &session.Session{ID: uuid.NewString()}
	require.NoError(t, expired.Save(ctx, sess))

	_, err := s.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)

	n, err := s.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))
}
