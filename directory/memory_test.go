package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordSeenUpsertsLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordSeen(ctx, "42", KindUser, "Alice", base))
	require.NoError(t, store.RecordSeen(ctx, "42", KindUser, "Alice B", base.Add(time.Minute)))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "Alice B", users[0].DisplayName)
	require.Equal(t, base.Add(time.Minute), users[0].LastSeen)

	// A stale update must not roll the record back.
	require.NoError(t, store.RecordSeen(ctx, "42", KindUser, "Old Alice", base.Add(-time.Hour)))
	users, err = store.ListUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, "Alice B", users[0].DisplayName)
}

func TestListSeparatesUsersAndGroups(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	require.NoError(t, store.RecordSeen(ctx, "1", KindUser, "Alice", now))
	require.NoError(t, store.RecordSeen(ctx, "2", KindUser, "Bob", now))
	require.NoError(t, store.RecordSeen(ctx, "-100", KindGroup, "Traders", now))

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)

	groups, err := store.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Equal(t, "Traders", groups[0].DisplayName)
}

func TestBlockNamespaces(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Block(ctx, "1234"))
	require.NoError(t, store.Block(ctx, "g6789"))

	blocked, err := store.IsBlocked(ctx, "999", "1234")
	require.NoError(t, err)
	require.True(t, blocked)

	// The group id lives in its own namespace: a user with the same bare id
	// is not affected.
	blocked, err = store.IsBlocked(ctx, "999", "6789")
	require.NoError(t, err)
	require.False(t, blocked)

	blocked, err = store.IsBlocked(ctx, "6789", "555")
	require.NoError(t, err)
	require.True(t, blocked)

	blocked, err = store.IsBlocked(ctx, "777", "888")
	require.NoError(t, err)
	require.False(t, blocked)
}

func TestBlockIdempotentAndValidation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Block(ctx, "42"))
	require.NoError(t, store.Block(ctx, "42"))

	blocked, err := store.IsBlocked(ctx, "42", "42")
	require.NoError(t, err)
	require.True(t, blocked)

	require.ErrorIs(t, store.Block(ctx, ""), ErrEmptyTarget)
	require.ErrorIs(t, store.Block(ctx, "g"), ErrEmptyTarget)
	require.ErrorIs(t, store.Block(ctx, "  "), ErrEmptyTarget)
}

func TestConcurrentRecordSeen(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.RecordSeen(ctx, "42", KindUser, "Alice", now.Add(time.Duration(i)*time.Millisecond))
			_, _ = store.IsBlocked(ctx, "42", "42")
		}(i)
	}
	wg.Wait()

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func TestSplitTarget(t *testing.T) {
	ns, id, err := SplitTarget("g-100123")
	require.NoError(t, err)
	require.Equal(t, NamespaceGroups, ns)
	require.Equal(t, "-100123", id)

	ns, id, err = SplitTarget("555")
	require.NoError(t, err)
	require.Equal(t, NamespaceUsers, ns)
	require.Equal(t, "555", id)
}
