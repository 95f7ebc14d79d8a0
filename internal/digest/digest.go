// Package digest builds the incremental unread summary: for every
// candidate chat it fetches messages past the stored watermark, then
// advances all watermarks in one batch at the end of the run.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/store"
)

// Chat is a digest candidate as seen by the engine. Handle is an
// opaque value the Fetcher needs back to read the chat's history.
type Chat struct {
	ID          int64
	Name        string
	Username    string
	Type        string
	UnreadCount int
	Handle      any
}

// Fetcher supplies chats and their messages. The production
// implementation wraps the telegram client.
type Fetcher interface {
	Chats(ctx context.Context) ([]Chat, error)
	// NewMessages returns up to limit messages with IDs strictly above
	// minID, in chronological order.
	NewMessages(ctx context.Context, chat Chat, minID, limit int) ([]domain.Message, error)
}

// Options control one digest run.
type Options struct {
	// ChatFilter is a comma-separated list of chat names or usernames.
	// When set, only matching chats are visited, unread or not. When
	// empty, candidates are chats with unread messages plus, with
	// IncludeRead, chats that already carry a watermark.
	ChatFilter string
	// Limit caps messages fetched per chat.
	Limit int
	// IncludeRead also visits fully-read chats that have a watermark,
	// catching messages a human read on another device before this
	// tool processed them.
	IncludeRead bool
	// DryRun suppresses the watermark write.
	DryRun bool
}

// ChatDigest is one chat's slice of the digest.
type ChatDigest struct {
	ChatID            string           `json:"chatId"`
	ChatName          string           `json:"chatName"`
	ChatType          string           `json:"chatType"`
	NewCount          int              `json:"newCount"`
	PreviousWatermark int              `json:"previousWatermark,omitempty"`
	Messages          []domain.Message `json:"messages,omitempty"`
	Error             string           `json:"error,omitempty"`
}

// Result is the digest command's output.
type Result struct {
	Chats             []ChatDigest `json:"chats"`
	ChatCount         int          `json:"chatCount"`
	TotalNewMessages  int          `json:"totalNewMessages"`
	WatermarksUpdated bool         `json:"watermarksUpdated"`
	DryRun            bool         `json:"dryRun,omitempty"`
	Note              string       `json:"note,omitempty"`
}

// Engine runs digests against a fetcher and the watermark store.
type Engine struct {
	store   *store.Store
	fetcher Fetcher
	logger  *zap.Logger
}

func NewEngine(st *store.Store, f Fetcher, logger *zap.Logger) *Engine {
	return &Engine{store: st, fetcher: f, logger: logger}
}

// Run produces the digest. Per-chat fetch failures degrade into an
// error field on that chat's entry so one rate-limited chat cannot
// sink the batch; such chats keep their old watermark. All advanced
// watermarks are persisted in one batch after every chat is processed.
func (e *Engine) Run(ctx context.Context, opts Options) (*Result, error) {
	chats, err := e.fetcher.Chats(ctx)
	if err != nil {
		return nil, err
	}
	marks := e.store.LoadWatermarks()
	filter := parseChatFilter(opts.ChatFilter)

	result := &Result{Chats: []ChatDigest{}, DryRun: opts.DryRun}
	var updates []store.WatermarkUpdate

	for _, chat := range chats {
		id := strconv.FormatInt(chat.ID, 10)
		mark, hasMark := marks[id]

		if len(filter) > 0 {
			if !matchesFilter(chat, filter) {
				continue
			}
		} else if chat.UnreadCount == 0 && !(opts.IncludeRead && hasMark) {
			continue
		}

		minID := 0
		if hasMark {
			minID = mark.LastMessageID
		}

		msgs, err := e.fetcher.NewMessages(ctx, chat, minID, opts.Limit)
		if err != nil {
			entry := ChatDigest{ChatID: id, ChatName: chat.Name, ChatType: chat.Type, PreviousWatermark: minID}
			var coded *domain.CodedError
			if errors.As(err, &coded) && coded.Code == domain.CodeFloodWait {
				entry.Error = fmt.Sprintf("Rate limited (%ds)", int(coded.RetryAfter.Seconds()))
			} else {
				entry.Error = "Fetch failed: " + err.Error()
			}
			result.Chats = append(result.Chats, entry)
			e.logger.Warn("digest chat skipped", zap.String("chat", chat.Name), zap.Error(err))
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		maxID := minID
		for _, m := range msgs {
			if n, err := strconv.Atoi(m.ID); err == nil && n > maxID {
				maxID = n
			}
		}
		updates = append(updates, store.WatermarkUpdate{ChatID: id, MessageID: maxID, ChatName: chat.Name})

		result.Chats = append(result.Chats, ChatDigest{
			ChatID:            id,
			ChatName:          chat.Name,
			ChatType:          chat.Type,
			NewCount:          len(msgs),
			PreviousWatermark: minID,
			Messages:          msgs,
		})
		result.TotalNewMessages += len(msgs)
	}

	result.ChatCount = len(result.Chats)
	if result.ChatCount == 0 {
		result.Note = "No chats with new messages since last digest."
	}

	if !opts.DryRun && len(updates) > 0 {
		if err := e.store.ApplyWatermarks(updates); err != nil {
			return nil, err
		}
		result.WatermarksUpdated = true
	}
	return result, nil
}

func parseChatFilter(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(strings.TrimPrefix(part, "@")))
		}
	}
	return out
}

// matchesFilter applies case-insensitive exact-or-substring matching
// against the chat's name and username.
func matchesFilter(chat Chat, filter []string) bool {
	name := strings.ToLower(chat.Name)
	username := strings.ToLower(chat.Username)
	for _, f := range filter {
		if name == f || username == f || strings.Contains(name, f) {
			return true
		}
	}
	return false
}
