package telegram

import (
	"context"
	"strconv"

	"github.com/gotd/td/telegram/query/dialogs"
	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

// Dialog is one entry of the user's chat list with everything the
// commands need: identity, unread state and the input peer for
// follow-up requests.
type Dialog struct {
	ID             int64
	Name           string
	Username       string
	Type           string
	UnreadCount    int
	UnreadMentions int
	MemberCount    int
	Peer           tg.InputPeerClass
	LastMessage    *domain.LastMessage

	entity any
}

// IDString is the chat ID as used in JSON output and watermark keys.
func (d Dialog) IDString() string { return strconv.FormatInt(d.ID, 10) }

// Entity exposes the underlying user/chat/channel object.
func (d Dialog) Entity() any { return d.entity }

const archivedFolderID = 1

// Dialogs iterates the chat list. With archived set, the archive
// folder is listed instead of the main one.
func (c *Client) Dialogs(ctx context.Context, limit int, archived bool) ([]Dialog, error) {
	builder := dialogs.NewQueryBuilder(c.api).GetDialogs().BatchSize(100)
	if archived {
		builder = builder.FolderID(archivedFolderID)
	}
	iter := builder.Iter()

	var result []Dialog
	for iter.Next(ctx) {
		elem := iter.Value()
		d := Dialog{
			ID:   inputPeerID(elem.Peer),
			Peer: elem.Peer,
			Name: "Unknown",
			Type: domain.TypeUnknown,
		}
		if d.ID == 0 {
			continue
		}

		if dlg, ok := elem.Dialog.(*tg.Dialog); ok {
			d.UnreadCount = dlg.UnreadCount
			d.UnreadMentions = dlg.UnreadMentionsCount
		}

		switch p := elem.Dialog.GetPeer().(type) {
		case *tg.PeerUser:
			if u, ok := elem.Entities.User(p.UserID); ok {
				d.Name = FormatUserName(u)
				d.Username = u.Username
				d.Type = Classify(u)
				d.entity = u
			}
		case *tg.PeerChat:
			if ch, ok := elem.Entities.Chat(p.ChatID); ok {
				d.Name = ch.Title
				d.Type = Classify(ch)
				d.MemberCount = ch.ParticipantsCount
				d.entity = ch
			}
		case *tg.PeerChannel:
			if ch, ok := elem.Entities.Channel(p.ChannelID); ok {
				d.Name = ch.Title
				d.Username = ch.Username
				d.Type = Classify(ch)
				if n, ok := ch.GetParticipantsCount(); ok {
					d.MemberCount = n
				}
				d.entity = ch
			}
		}

		if msg, ok := elem.Last.(*tg.Message); ok {
			last := &domain.LastMessage{
				Date: formatUnix(msg.Date),
				Text: truncate(msg.Message, 200),
			}
			if fromID, ok := msg.GetFromID(); ok {
				if p, ok := fromID.(*tg.PeerUser); ok {
					if u, found := elem.Entities.User(p.UserID); found {
						last.Sender = u.FirstName
					}
				}
			}
			d.LastMessage = last
		}

		result = append(result, d)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, wrapAPIError(err, domain.CodeAPIError, "Failed to get dialogs")
	}
	return result, nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
