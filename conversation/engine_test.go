package conversation

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/m3rciful/coinbot/core/logger"
	"github.com/m3rciful/coinbot/core/telegram/state"
	"github.com/m3rciful/coinbot/directory"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type sentMessage struct {
	ChatID int64
	Body   string
}

type fakeTransport struct {
	sent []sentMessage
	err  error
}

func (f *fakeTransport) SendText(_ context.Context, chatID int64, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{ChatID: chatID, Body: body})
	return nil
}

func newEngine(t *testing.T) (*Engine, directory.Store, *fakeTransport, state.Manager) {
	t.Helper()
	store := directory.NewMemoryStore()
	transport := &fakeTransport{}
	sessions := state.NewMemoryManager()
	return NewEngine(store, transport, sessions), store, transport, sessions
}

func TestStartOpensMenuSession(t *testing.T) {
	ctx := context.Background()
	engine, _, _, sessions := newEngine(t)

	reply := engine.Start(ctx, 10)
	require.NotEmpty(t, reply.Text)
	require.False(t, reply.Done)
	require.Equal(t, StateSelectingAction, sessions.GetState(10))
	require.True(t, engine.InProgress(10))
}

func TestStartReplacesRunningConversation(t *testing.T) {
	ctx := context.Background()
	engine, _, _, sessions := newEngine(t)

	engine.Start(ctx, 10)
	_, err := engine.SelectAction(ctx, 10, ActionBlock)
	require.NoError(t, err)
	require.Equal(t, StateSelectingRecipient, sessions.GetState(10))

	engine.Start(ctx, 10)
	require.Equal(t, StateSelectingAction, sessions.GetState(10))
}

func TestSelectActionRequiresMenuState(t *testing.T) {
	ctx := context.Background()
	engine, _, _, _ := newEngine(t)

	_, err := engine.SelectAction(ctx, 10, ActionUsers)
	require.ErrorIs(t, err, ErrNotActive)

	// A tap in the wrong step is also dropped.
	engine.Start(ctx, 10)
	_, err = engine.SelectAction(ctx, 10, ActionSend)
	require.NoError(t, err)
	_, err = engine.SelectAction(ctx, 10, ActionBlock)
	require.ErrorIs(t, err, ErrNotActive)
}

func TestListingsAreTerminal(t *testing.T) {
	ctx := context.Background()
	engine, store, _, sessions := newEngine(t)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordSeen(ctx, "42", directory.KindUser, "Alice", now))
	require.NoError(t, store.RecordSeen(ctx, "-100", directory.KindGroup, "Traders", now))

	engine.Start(ctx, 10)
	reply, err := engine.SelectAction(ctx, 10, ActionUsers)
	require.NoError(t, err)
	require.True(t, reply.Done)
	require.Contains(t, reply.Text, "42")
	require.Contains(t, reply.Text, "Alice")
	require.NotContains(t, reply.Text, "Traders")
	require.False(t, engine.InProgress(10))

	engine.Start(ctx, 10)
	reply, err = engine.SelectAction(ctx, 10, ActionGroups)
	require.NoError(t, err)
	require.True(t, reply.Done)
	require.Contains(t, reply.Text, "Traders")
	require.Equal(t, state.StateIdle, sessions.GetState(10))
}

func TestEmptyListing(t *testing.T) {
	ctx := context.Background()
	engine, _, _, _ := newEngine(t)

	engine.Start(ctx, 10)
	reply, err := engine.SelectAction(ctx, 10, ActionUsers)
	require.NoError(t, err)
	require.Equal(t, "No users yet.", reply.Text)
}

func TestBlockFlow(t *testing.T) {
	ctx := context.Background()
	engine, store, _, sessions := newEngine(t)

	engine.Start(ctx, 10)
	reply, err := engine.SelectAction(ctx, 10, ActionBlock)
	require.NoError(t, err)
	require.False(t, reply.Done)
	require.Equal(t, StateSelectingRecipient, sessions.GetState(10))

	reply, err = engine.HandleText(ctx, 10, "g-100123")
	require.NoError(t, err)
	require.True(t, reply.Done)
	require.Contains(t, reply.Text, "groups/-100123")
	require.False(t, engine.InProgress(10))

	blocked, err := store.IsBlocked(ctx, "-100123", "555")
	require.NoError(t, err)
	require.True(t, blocked)
}

func TestBlockEmptyTargetEndsSession(t *testing.T) {
	ctx := context.Background()
	engine, _, _, sessions := newEngine(t)

	engine.Start(ctx, 10)
	_, err := engine.SelectAction(ctx, 10, ActionBlock)
	require.NoError(t, err)

	reply, err := engine.HandleText(ctx, 10, "   ")
	require.NoError(t, err)
	require.True(t, reply.Done)
	require.Equal(t, state.StateIdle, sessions.GetState(10))
}

func TestBlockLiteralTargetWithoutValidation(t *testing.T) {
	ctx := context.Background()
	engine, store, _, _ := newEngine(t)

	engine.Start(ctx, 10)
	_, err := engine.SelectAction(ctx, 10, ActionBlock)
	require.NoError(t, err)

	// Anything non-empty is filed literally, prefix rule aside.
	reply, err := engine.HandleText(ctx, 10, "not-a-real-id")
	require.NoError(t, err)
	require.True(t, reply.Done)

	blocked, err := store.IsBlocked(ctx, "999", "not-a-real-id")
	require.NoError(t, err)
	require.True(t, blocked)
}

func TestSendFlow(t *testing.T) {
	ctx := context.Background()
	engine, _, transport, _ := newEngine(t)

	engine.Start(ctx, 10)
	_, err := engine.SelectAction(ctx, 10, ActionSend)
	require.NoError(t, err)

	reply, err := engine.HandleText(ctx, 10, " 555 | hello there ")
	require.NoError(t, err)
	require.True(t, reply.Done)
	require.Contains(t, reply.Text, "✅")
	require.Equal(t, []sentMessage{{ChatID: 555, Body: "hello there"}}, transport.sent)
	require.False(t, engine.InProgress(10))
}

func TestSendBadFormatEndsSession(t *testing.T) {
	ctx := context.Background()
	engine, _, transport, sessions := newEngine(t)

	for _, input := range []string{"no delimiter", "| body only", "555 |", "abc | hi", "555 | hi | there"} {
		engine.Start(ctx, 10)
		_, err := engine.SelectAction(ctx, 10, ActionSend)
		require.NoError(t, err)

		reply, err := engine.HandleText(ctx, 10, input)
		require.NoError(t, err, "input %q", input)
		require.True(t, reply.Done, "input %q", input)
		require.Equal(t, state.StateIdle, sessions.GetState(10), "input %q", input)
	}
	require.Empty(t, transport.sent)
}

func TestSendDeliveryFailureReported(t *testing.T) {
	ctx := context.Background()
	engine, _, transport, _ := newEngine(t)
	transport.err = errors.New("forbidden: bot was blocked by the user")

	engine.Start(ctx, 10)
	_, err := engine.SelectAction(ctx, 10, ActionSend)
	require.NoError(t, err)

	reply, err := engine.HandleText(ctx, 10, "555 | hi")
	require.NoError(t, err)
	require.True(t, reply.Done)
	require.Contains(t, reply.Text, "❌")
	require.False(t, engine.InProgress(10))
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	engine, _, _, _ := newEngine(t)

	engine.Start(ctx, 10)
	reply := engine.Cancel(ctx, 10)
	require.True(t, reply.Done)
	require.Equal(t, "Cancelled.", reply.Text)
	require.False(t, engine.InProgress(10))

	_, err := engine.HandleText(ctx, 10, "anything")
	require.ErrorIs(t, err, ErrNotActive)
}

func TestSessionsAreChatScoped(t *testing.T) {
	ctx := context.Background()
	engine, _, _, sessions := newEngine(t)

	engine.Start(ctx, 10)
	engine.Start(ctx, 20)
	_, err := engine.SelectAction(ctx, 10, ActionBlock)
	require.NoError(t, err)
	_, err = engine.SelectAction(ctx, 20, ActionSend)
	require.NoError(t, err)

	require.Equal(t, StateSelectingRecipient, sessions.GetState(10))
	require.Equal(t, StateWritingMessage, sessions.GetState(20))
}
