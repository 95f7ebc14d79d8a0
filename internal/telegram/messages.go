package telegram

import (
	"context"
	"time"

	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

// HistoryOptions filter a history fetch. Zero values mean "no filter".
type HistoryOptions struct {
	Limit      int
	OffsetID   int
	OffsetDate time.Time // upper bound: only messages before this
	MinID      int       // lower bound: only messages with a larger ID
	FromUser   *tg.User
	Markdown   bool
}

// History fetches messages from a chat, newest-first from the API,
// returned in chronological order. A sender filter switches to the
// search endpoint, which is where Telegram supports from_id.
func (c *Client) History(ctx context.Context, d *Dialog, opts HistoryOptions) ([]domain.Message, error) {
	self, _ := c.Self(ctx)

	var (
		result tg.MessagesMessagesClass
		err    error
	)
	if opts.FromUser != nil {
		req := &tg.MessagesSearchRequest{
			Peer:     d.Peer,
			Q:        "",
			Filter:   &tg.InputMessagesFilterEmpty{},
			Limit:    opts.Limit,
			OffsetID: opts.OffsetID,
			MinID:    opts.MinID,
		}
		if !opts.OffsetDate.IsZero() {
			req.MaxDate = int(opts.OffsetDate.Unix())
		}
		req.SetFromID(&tg.InputPeerUser{UserID: opts.FromUser.ID, AccessHash: opts.FromUser.AccessHash})
		result, err = c.api.MessagesSearch(ctx, req)
	} else {
		req := &tg.MessagesGetHistoryRequest{
			Peer:     d.Peer,
			Limit:    opts.Limit,
			OffsetID: opts.OffsetID,
			MinID:    opts.MinID,
		}
		if !opts.OffsetDate.IsZero() {
			req.OffsetDate = int(opts.OffsetDate.Unix())
		}
		result, err = c.api.MessagesGetHistory(ctx, req)
	}
	if err != nil {
		return nil, wrapAPIError(err, domain.CodeAPIError, "Failed to read messages")
	}

	msgs, _, err := convertHistory(result, self, opts.Markdown)
	if err != nil {
		return nil, domain.Errf(domain.CodeAPIError, "Failed to read messages: %v", err)
	}
	return msgs, nil
}

// SearchOptions filter a message search.
type SearchOptions struct {
	Limit    int
	FromUser *tg.User
	Markdown bool
}

// Search runs a full-text search within one chat.
func (c *Client) Search(ctx context.Context, d *Dialog, query string, opts SearchOptions) ([]domain.Message, error) {
	self, _ := c.Self(ctx)

	req := &tg.MessagesSearchRequest{
		Peer:   d.Peer,
		Q:      query,
		Filter: &tg.InputMessagesFilterEmpty{},
		Limit:  opts.Limit,
	}
	if opts.FromUser != nil {
		req.SetFromID(&tg.InputPeerUser{UserID: opts.FromUser.ID, AccessHash: opts.FromUser.AccessHash})
	}
	result, err := c.api.MessagesSearch(ctx, req)
	if err != nil {
		return nil, wrapAPIError(err, domain.CodeAPIError, "Search failed")
	}

	msgs, _, err := convertHistory(result, self, opts.Markdown)
	if err != nil {
		return nil, domain.Errf(domain.CodeAPIError, "Search failed: %v", err)
	}
	return msgs, nil
}

// SearchGlobal runs a full-text search across all chats. Each result
// carries its chat context.
func (c *Client) SearchGlobal(ctx context.Context, query string, limit int, markdown bool) ([]domain.Message, error) {
	self, _ := c.Self(ctx)

	result, err := c.api.MessagesSearchGlobal(ctx, &tg.MessagesSearchGlobalRequest{
		Q:          query,
		Filter:     &tg.InputMessagesFilterEmpty{},
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      limit,
	})
	if err != nil {
		return nil, wrapAPIError(err, domain.CodeAPIError, "Search failed")
	}

	var (
		raw   []tg.MessageClass
		users []tg.UserClass
		chats []tg.ChatClass
	)
	switch r := result.(type) {
	case *tg.MessagesMessages:
		raw, users, chats = r.Messages, r.Users, r.Chats
	case *tg.MessagesMessagesSlice:
		raw, users, chats = r.Messages, r.Users, r.Chats
	case *tg.MessagesChannelMessages:
		raw, users, chats = r.Messages, r.Users, r.Chats
	default:
		return nil, domain.Errf(domain.CodeAPIError, "Search failed: unexpected response %T", result)
	}

	lk := newEntLookup().add(users, chats)
	var out []domain.Message
	for _, m := range raw {
		msg, ok := m.(*tg.Message)
		if !ok {
			continue
		}
		formatted := lk.convertMessage(msg, self, markdown)
		formatted.Chat = lk.chatRefOf(msg.PeerID)
		out = append(out, formatted)
	}
	return out, nil
}

// SentMessage is the confirmation of a send.
type SentMessage struct {
	ID   int
	Date string
}

// Send posts a text message, optionally as a reply.
func (c *Client) Send(ctx context.Context, d *Dialog, text string, replyTo int) (*SentMessage, error) {
	builder := &c.sender.To(d.Peer).Builder
	if replyTo != 0 {
		builder = builder.Reply(replyTo)
	}
	updates, err := builder.Text(ctx, text)
	if err != nil {
		return nil, wrapAPIError(err, domain.CodeSendError, "Failed to send message")
	}
	return extractSent(updates), nil
}

// extractSent digs the new message's ID and date out of the updates
// Telegram returns for a send.
func extractSent(updates tg.UpdatesClass) *SentMessage {
	switch u := updates.(type) {
	case *tg.UpdateShortSentMessage:
		return &SentMessage{ID: u.ID, Date: formatUnix(u.Date)}
	case *tg.Updates:
		sent := &SentMessage{}
		for _, upd := range u.Updates {
			switch v := upd.(type) {
			case *tg.UpdateMessageID:
				sent.ID = v.ID
			case *tg.UpdateNewMessage:
				if msg, ok := v.Message.(*tg.Message); ok {
					sent.ID = msg.ID
					sent.Date = formatUnix(msg.Date)
				}
			case *tg.UpdateNewChannelMessage:
				if msg, ok := v.Message.(*tg.Message); ok {
					sent.ID = msg.ID
					sent.Date = formatUnix(msg.Date)
				}
			}
		}
		return sent
	}
	return &SentMessage{}
}

const defaultExportBatch = 100

// ExportHistory walks a chat's full history newest-first, invoking fn
// for each formatted message. It stops when fn returns false, when the
// history is exhausted, or on error.
func (c *Client) ExportHistory(ctx context.Context, d *Dialog, batchSize int, fn func(domain.Message) (bool, error)) error {
	self, _ := c.Self(ctx)
	if batchSize <= 0 {
		batchSize = defaultExportBatch
	}

	offsetID := 0
	for {
		result, err := c.api.MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{
			Peer:     d.Peer,
			Limit:    batchSize,
			OffsetID: offsetID,
		})
		if err != nil {
			return wrapAPIError(err, domain.CodeAPIError, "Failed to read messages")
		}

		var (
			raw   []tg.MessageClass
			users []tg.UserClass
			chats []tg.ChatClass
		)
		switch r := result.(type) {
		case *tg.MessagesMessages:
			raw, users, chats = r.Messages, r.Users, r.Chats
		case *tg.MessagesMessagesSlice:
			raw, users, chats = r.Messages, r.Users, r.Chats
		case *tg.MessagesChannelMessages:
			raw, users, chats = r.Messages, r.Users, r.Chats
		default:
			return domain.Errf(domain.CodeAPIError, "Failed to read messages: unexpected response %T", result)
		}
		if len(raw) == 0 {
			return nil
		}

		lk := newEntLookup().add(users, chats)
		for _, m := range raw {
			msg, ok := m.(*tg.Message)
			if !ok {
				continue
			}
			if offsetID == 0 || msg.ID < offsetID {
				offsetID = msg.ID
			}
			cont, err := fn(lk.convertMessage(msg, self, false))
			if err != nil {
				return err
			}
			if !cont {
				return nil
			}
		}
		if len(raw) < batchSize {
			return nil
		}
	}
}
