package telegram

import (
	"context"

	"github.com/seednet/tgctl/internal/digest"
	"github.com/seednet/tgctl/internal/domain"
)

const digestDialogLimit = 200

// DigestFetcher adapts the client to the digest engine.
type DigestFetcher struct {
	c *Client
}

func (c *Client) DigestFetcher() *DigestFetcher { return &DigestFetcher{c: c} }

var _ digest.Fetcher = (*DigestFetcher)(nil)

func (f *DigestFetcher) Chats(ctx context.Context) ([]digest.Chat, error) {
	ds, err := f.c.Dialogs(ctx, digestDialogLimit, false)
	if err != nil {
		return nil, err
	}
	out := make([]digest.Chat, 0, len(ds))
	for i := range ds {
		d := ds[i]
		out = append(out, digest.Chat{
			ID:          d.ID,
			Name:        d.Name,
			Username:    d.Username,
			Type:        d.Type,
			UnreadCount: d.UnreadCount,
			Handle:      &d,
		})
	}
	return out, nil
}

func (f *DigestFetcher) NewMessages(ctx context.Context, chat digest.Chat, minID, limit int) ([]domain.Message, error) {
	d, ok := chat.Handle.(*Dialog)
	if !ok {
		return nil, domain.Errf(domain.CodeAPIError, "Failed to read messages: no dialog handle for %s", chat.Name)
	}
	return f.c.History(ctx, d, HistoryOptions{Limit: limit, MinID: minID})
}
