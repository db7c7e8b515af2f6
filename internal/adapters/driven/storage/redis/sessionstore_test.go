package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func setupTestStore(t *testing.T, ttl time.Duration) *SessionStore {
	t.Helper()
	addr := os.Getenv("RAGDESK_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("RAGDESK_TEST_REDIS_ADDR not set")
	}
	store, err := NewSessionStore(context.Background(), Options{
		Addr:      addr,
		TTL:       ttl,
		KeyPrefix: fmt.Sprintf("ragdesk:test:%d:", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewSessionStore_RequiresAddr(t *testing.T) {
	_, err := NewSessionStore(context.Background(), Options{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSessionStore_SaveGetDelete(t *testing.T) {
	store := setupTestStore(t, time.Minute)
	ctx := context.Background()

	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	conv := domain.Conversation{SessionID: "s1", CreatedAt: at}.With(
		domain.Turn{Role: domain.RoleAssistant, Content: "안녕하세요!", Asset: "mascot_hello", At: at},
		domain.Turn{Role: domain.RoleUser, Content: "졸업요건은?", At: at.Add(time.Second)},
	)
	require.NoError(t, store.Save(ctx, conv))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, conv, got)

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestSessionStore_Save_RequiresID(t *testing.T) {
	store := setupTestStore(t, 0)
	err := store.Save(context.Background(), domain.Conversation{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := setupTestStore(t, time.Second)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Conversation{SessionID: "short"}))
	time.Sleep(1500 * time.Millisecond)

	_, err := store.Get(ctx, "short")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
