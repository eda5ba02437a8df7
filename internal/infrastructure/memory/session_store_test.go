package memory

import (
	"context"
	"testing"
	"time"

	domain "github.com/minshop/qrp/internal/domain/session"
	"github.com/stretchr/testify/require"
)

func TestSessionAttributes(t *testing.T) {
	store := NewSessionStore(time.Minute)
	ctx := context.Background()

	_, err := store.Get(ctx, "s1", "cart")
	require.ErrorIs(t, err, domain.ErrAttributeNotFound)

	require.NoError(t, store.Set(ctx, "s1", "cart", map[string]int{"a": 2}))
	value, err := store.Get(ctx, "s1", "cart")
	require.NoError(t, err)
	require.Equal(t, map[string]int{"a": 2}, value)

	// attributes are scoped per session
	_, err = store.Get(ctx, "s2", "cart")
	require.ErrorIs(t, err, domain.ErrAttributeNotFound)

	require.NoError(t, store.Remove(ctx, "s1", "cart"))
	_, err = store.Get(ctx, "s1", "cart")
	require.ErrorIs(t, err, domain.ErrAttributeNotFound)
}

func TestRemoveMissingIsNoop(t *testing.T) {
	store := NewSessionStore(time.Minute)
	require.NoError(t, store.Remove(context.Background(), "ghost", "cart"))
}

func TestSessionExpiry(t *testing.T) {
	store := NewSessionStore(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", "cart", 1))
	time.Sleep(40 * time.Millisecond)

	_, err := store.Get(ctx, "s1", "cart")
	require.ErrorIs(t, err, domain.ErrAttributeNotFound)
}

func TestAccessRefreshesTTL(t *testing.T) {
	store := NewSessionStore(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", "cart", 1))
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		_, err := store.Get(ctx, "s1", "cart")
		require.NoError(t, err)
	}
}

func TestSweepDropsExpiredSessions(t *testing.T) {
	store := NewSessionStore(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "s1", "cart", 1))
	time.Sleep(20 * time.Millisecond)
	store.sweep()

	store.mu.RLock()
	defer store.mu.RUnlock()
	require.Empty(t, store.sessions)
}
