package digest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/store"
)

// fakeFetcher serves canned chats and messages keyed by chat ID.
type fakeFetcher struct {
	chats    []Chat
	messages map[int64][]domain.Message
	errs     map[int64]error

	// minIDs records the watermark each fetch was given.
	minIDs map[int64]int
}

func (f *fakeFetcher) Chats(_ context.Context) ([]Chat, error) {
	return f.chats, nil
}

func (f *fakeFetcher) NewMessages(_ context.Context, chat Chat, minID, limit int) ([]domain.Message, error) {
	if f.minIDs == nil {
		f.minIDs = map[int64]int{}
	}
	f.minIDs[chat.ID] = minID
	if err := f.errs[chat.ID]; err != nil {
		return nil, err
	}
	msgs := f.messages[chat.ID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func msg(id string) domain.Message {
	return domain.Message{ID: id, Sender: &domain.Sender{ID: "1", Name: "Ada"}, Text: "m" + id}
}

func newEngine(t *testing.T, f Fetcher) (*Engine, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	return NewEngine(st, f, zap.NewNop()), st
}

func TestRunEndToEnd(t *testing.T) {
	f := &fakeFetcher{
		chats: []Chat{
			{ID: 111, Name: "Work", Type: domain.TypeGroup, UnreadCount: 3},
			{ID: 222, Name: "Quiet", Type: domain.TypeGroup, UnreadCount: 0},
		},
		messages: map[int64][]domain.Message{
			111: {msg("10"), msg("11"), msg("12")},
		},
	}
	e, st := newEngine(t, f)

	result, err := e.Run(context.Background(), Options{Limit: 100})
	require.NoError(t, err)

	assert.Equal(t, 1, result.ChatCount)
	assert.Equal(t, 3, result.TotalNewMessages)
	assert.True(t, result.WatermarksUpdated)
	require.Len(t, result.Chats, 1)
	entry := result.Chats[0]
	assert.Equal(t, "111", entry.ChatID)
	assert.Equal(t, 3, entry.NewCount)
	assert.Equal(t, 0, entry.PreviousWatermark)
	assert.Len(t, entry.Messages, 3)

	wm := st.LoadWatermarks()
	assert.Equal(t, 12, wm["111"].LastMessageID, "watermark must land on the max fetched id")
	assert.Equal(t, "Work", wm["111"].ChatName)
	_, hasQuiet := wm["222"]
	assert.False(t, hasQuiet, "a chat with no new messages gets no watermark")
}

func TestRunUsesWatermarkAsServerFilter(t *testing.T) {
	f := &fakeFetcher{
		chats: []Chat{{ID: 111, Name: "Work", Type: domain.TypeGroup, UnreadCount: 2}},
		messages: map[int64][]domain.Message{
			111: {msg("51"), msg("52")},
		},
	}
	e, st := newEngine(t, f)
	require.NoError(t, st.ApplyWatermarks([]store.WatermarkUpdate{{ChatID: "111", MessageID: 50, ChatName: "Work"}}))

	result, err := e.Run(context.Background(), Options{Limit: 100})
	require.NoError(t, err)

	assert.Equal(t, 50, f.minIDs[111], "stored watermark must be passed as the server-side min id")
	assert.Equal(t, 50, result.Chats[0].PreviousWatermark)
	assert.Equal(t, 52, st.LoadWatermarks()["111"].LastMessageID)
}

func TestRunDryRun(t *testing.T) {
	f := &fakeFetcher{
		chats:    []Chat{{ID: 111, Name: "Work", Type: domain.TypeGroup, UnreadCount: 1}},
		messages: map[int64][]domain.Message{111: {msg("5")}},
	}
	e, st := newEngine(t, f)

	result, err := e.Run(context.Background(), Options{Limit: 100, DryRun: true})
	require.NoError(t, err)

	assert.True(t, result.DryRun)
	assert.False(t, result.WatermarksUpdated)
	assert.Equal(t, 1, result.TotalNewMessages)
	assert.Empty(t, st.LoadWatermarks(), "dry run must not persist watermarks")
}

func TestRunIncludeRead(t *testing.T) {
	f := &fakeFetcher{
		chats: []Chat{
			{ID: 111, Name: "ReadButWatermarked", Type: domain.TypeUser, UnreadCount: 0},
			{ID: 222, Name: "ReadNeverSeen", Type: domain.TypeUser, UnreadCount: 0},
		},
		messages: map[int64][]domain.Message{
			111: {msg("60")},
		},
	}
	e, st := newEngine(t, f)
	require.NoError(t, st.ApplyWatermarks([]store.WatermarkUpdate{{ChatID: "111", MessageID: 50}}))

	// Without the flag neither chat qualifies.
	result, err := e.Run(context.Background(), Options{Limit: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ChatCount)
	assert.Equal(t, "No chats with new messages since last digest.", result.Note)

	// With it, only the chat that already has a watermark is revisited.
	result, err = e.Run(context.Background(), Options{Limit: 100, IncludeRead: true})
	require.NoError(t, err)
	require.Equal(t, 1, result.ChatCount)
	assert.Equal(t, "111", result.Chats[0].ChatID)
}

func TestRunFloodWaitSkipsChat(t *testing.T) {
	f := &fakeFetcher{
		chats: []Chat{
			{ID: 111, Name: "Limited", Type: domain.TypeGroup, UnreadCount: 1},
			{ID: 222, Name: "Fine", Type: domain.TypeGroup, UnreadCount: 1},
		},
		messages: map[int64][]domain.Message{222: {msg("7")}},
		errs:     map[int64]error{111: domain.FloodWait(30 * time.Second)},
	}
	e, st := newEngine(t, f)

	result, err := e.Run(context.Background(), Options{Limit: 100})
	require.NoError(t, err, "one rate-limited chat must not abort the batch")

	require.Len(t, result.Chats, 2)
	assert.Equal(t, "Rate limited (30s)", result.Chats[0].Error)
	assert.Equal(t, 0, result.Chats[0].NewCount)
	assert.Equal(t, 1, result.Chats[1].NewCount)
	assert.Equal(t, 1, result.TotalNewMessages)

	wm := st.LoadWatermarks()
	_, hasLimited := wm["111"]
	assert.False(t, hasLimited, "a failed chat keeps its old watermark")
	assert.Equal(t, 7, wm["222"].LastMessageID)
}

func TestRunChatFilter(t *testing.T) {
	f := &fakeFetcher{
		chats: []Chat{
			{ID: 111, Name: "Work Chat", Username: "workies", Type: domain.TypeGroup, UnreadCount: 0},
			{ID: 222, Name: "Family", Type: domain.TypeGroup, UnreadCount: 5},
		},
		messages: map[int64][]domain.Message{
			111: {msg("3")},
			222: {msg("4")},
		},
	}
	e, _ := newEngine(t, f)

	// An explicit filter overrides unread state entirely.
	result, err := e.Run(context.Background(), Options{ChatFilter: "work", Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 1, result.ChatCount)
	assert.Equal(t, "111", result.Chats[0].ChatID)

	// Username matching works too.
	result, err = e.Run(context.Background(), Options{ChatFilter: "@workies", Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 1, result.ChatCount)
	assert.Equal(t, "111", result.Chats[0].ChatID)
}
