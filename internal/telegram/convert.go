package telegram

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

// entLookup resolves the flat user/chat lists Telegram attaches to
// every messages response.
type entLookup struct {
	users    map[int64]*tg.User
	chats    map[int64]*tg.Chat
	channels map[int64]*tg.Channel
}

func newEntLookup() entLookup {
	return entLookup{
		users:    make(map[int64]*tg.User),
		chats:    make(map[int64]*tg.Chat),
		channels: make(map[int64]*tg.Channel),
	}
}

func (l entLookup) add(users []tg.UserClass, chats []tg.ChatClass) entLookup {
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			l.users[user.ID] = user
		}
	}
	for _, c := range chats {
		switch chat := c.(type) {
		case *tg.Chat:
			l.chats[chat.ID] = chat
		case *tg.Channel:
			l.channels[chat.ID] = chat
		}
	}
	return l
}

// senderOf resolves the sender of a message the way the chat list
// shows it: explicit FromID first, then the peer itself for DMs and
// channel posts, then the authenticated user for outgoing messages.
func (l entLookup) senderOf(msg *tg.Message, self *tg.User) *domain.Sender {
	if fromID, ok := msg.GetFromID(); ok {
		if s := l.senderOfPeer(fromID); s != nil {
			return s
		}
	}
	switch p := msg.PeerID.(type) {
	case *tg.PeerUser:
		if msg.Out && self != nil {
			return SenderFromUser(self)
		}
		if u, ok := l.users[p.UserID]; ok {
			return SenderFromUser(u)
		}
	case *tg.PeerChannel:
		if ch, ok := l.channels[p.ChannelID]; ok {
			return senderFromChannel(ch)
		}
	}
	if msg.Out && self != nil {
		return SenderFromUser(self)
	}
	return &domain.Sender{Name: "Unknown"}
}

func (l entLookup) senderOfPeer(p tg.PeerClass) *domain.Sender {
	switch v := p.(type) {
	case *tg.PeerUser:
		if u, ok := l.users[v.UserID]; ok {
			return SenderFromUser(u)
		}
		return &domain.Sender{ID: strconv.FormatInt(v.UserID, 10), Name: "Unknown"}
	case *tg.PeerChat:
		if c, ok := l.chats[v.ChatID]; ok {
			return senderFromChat(c)
		}
	case *tg.PeerChannel:
		if c, ok := l.channels[v.ChannelID]; ok {
			return senderFromChannel(c)
		}
	}
	return nil
}

// chatRefOf builds the chat context of a message, for global search
// results and history exports.
func (l entLookup) chatRefOf(p tg.PeerClass) *domain.ChatRef {
	switch v := p.(type) {
	case *tg.PeerUser:
		if u, ok := l.users[v.UserID]; ok {
			return &domain.ChatRef{
				ID:       strconv.FormatInt(u.ID, 10),
				Name:     FormatUserName(u),
				Type:     Classify(u),
				Username: u.Username,
			}
		}
	case *tg.PeerChat:
		if c, ok := l.chats[v.ChatID]; ok {
			return &domain.ChatRef{
				ID:   strconv.FormatInt(c.ID, 10),
				Name: c.Title,
				Type: Classify(c),
			}
		}
	case *tg.PeerChannel:
		if c, ok := l.channels[v.ChannelID]; ok {
			return &domain.ChatRef{
				ID:       strconv.FormatInt(c.ID, 10),
				Name:     c.Title,
				Type:     Classify(c),
				Username: c.Username,
			}
		}
	}
	id := peerID(p)
	if id == 0 {
		return nil
	}
	return &domain.ChatRef{ID: strconv.FormatInt(id, 10), Name: "Unknown", Type: domain.TypeUnknown}
}

func formatUnix(ts int) string {
	if ts == 0 {
		return ""
	}
	return time.Unix(int64(ts), 0).UTC().Format(time.RFC3339)
}

// mediaType collapses Telegram's media classes into the short labels
// the output uses. Document subtypes come from the attribute list.
func mediaType(media tg.MessageMediaClass) string {
	switch m := media.(type) {
	case *tg.MessageMediaPhoto:
		return "photo"
	case *tg.MessageMediaWebPage:
		return "webpage"
	case *tg.MessageMediaDocument:
		doc, ok := m.GetDocument()
		if !ok {
			return "document"
		}
		d, ok := doc.(*tg.Document)
		if !ok {
			return "document"
		}
		for _, attr := range d.Attributes {
			switch a := attr.(type) {
			case *tg.DocumentAttributeVideo:
				return "video"
			case *tg.DocumentAttributeAudio:
				if a.Voice {
					return "voice"
				}
				return "audio"
			case *tg.DocumentAttributeSticker:
				return "sticker"
			}
		}
		return "document"
	}
	return ""
}

func reactionsOf(msg *tg.Message) []domain.Reaction {
	reactions, ok := msg.GetReactions()
	if !ok || len(reactions.Results) == 0 {
		return nil
	}
	out := make([]domain.Reaction, 0, len(reactions.Results))
	for _, r := range reactions.Results {
		var emoji string
		switch re := r.Reaction.(type) {
		case *tg.ReactionEmoji:
			emoji = re.Emoticon
		case *tg.ReactionCustomEmoji:
			emoji = fmt.Sprintf("custom:%d", re.DocumentID)
		default:
			continue
		}
		out = append(out, domain.Reaction{Emoji: emoji, Count: r.Count})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// forwardOf reports a forwarded message's origin: a plain name string
// for chats/channels and hidden users, a full sender object for users.
func (l entLookup) forwardOf(msg *tg.Message) any {
	hdr, ok := msg.GetFwdFrom()
	if !ok {
		return nil
	}
	if fromID, ok := hdr.GetFromID(); ok {
		switch v := fromID.(type) {
		case *tg.PeerChannel:
			if c, found := l.channels[v.ChannelID]; found {
				return c.Title
			}
		case *tg.PeerChat:
			if c, found := l.chats[v.ChatID]; found {
				return c.Title
			}
		case *tg.PeerUser:
			if u, found := l.users[v.UserID]; found {
				return SenderFromUser(u)
			}
		}
	}
	if name, ok := hdr.GetFromName(); ok {
		return name
	}
	return nil
}

// convertMessage formats one message. With markdown set, Telegram
// formatting entities are rendered into the text.
func (l entLookup) convertMessage(msg *tg.Message, self *tg.User, markdown bool) domain.Message {
	text := msg.Message
	if markdown {
		text = EntitiesToMarkdown(text, msg.Entities)
	}

	out := domain.Message{
		ID:          strconv.Itoa(msg.ID),
		Date:        formatUnix(msg.Date),
		Sender:      l.senderOf(msg, self),
		Text:        text,
		ForwardFrom: l.forwardOf(msg),
		MediaType:   mediaType(msg.Media),
		Reactions:   reactionsOf(msg),
		IsPinned:    msg.Pinned,
	}
	if reply, ok := msg.GetReplyTo(); ok {
		if hdr, ok := reply.(*tg.MessageReplyHeader); ok {
			if id, ok := hdr.GetReplyToMsgID(); ok {
				out.ReplyTo = strconv.Itoa(id)
			}
		}
	}
	if views, ok := msg.GetViews(); ok {
		out.Views = views
	}
	if edit, ok := msg.GetEditDate(); ok {
		out.EditDate = formatUnix(edit)
	}
	return out
}

// convertHistory unpacks a messages response and formats its messages
// in chronological order (the API returns newest first).
func convertHistory(result tg.MessagesMessagesClass, self *tg.User, markdown bool) ([]domain.Message, entLookup, error) {
	var (
		messages []tg.MessageClass
		users    []tg.UserClass
		chats    []tg.ChatClass
	)
	switch r := result.(type) {
	case *tg.MessagesMessages:
		messages, users, chats = r.Messages, r.Users, r.Chats
	case *tg.MessagesMessagesSlice:
		messages, users, chats = r.Messages, r.Users, r.Chats
	case *tg.MessagesChannelMessages:
		messages, users, chats = r.Messages, r.Users, r.Chats
	default:
		return nil, entLookup{}, fmt.Errorf("unexpected messages type: %T", result)
	}

	lk := newEntLookup().add(users, chats)

	var out []domain.Message
	for i := len(messages) - 1; i >= 0; i-- {
		msg, ok := messages[i].(*tg.Message)
		if !ok {
			continue
		}
		out = append(out, lk.convertMessage(msg, self, markdown))
	}
	return out, lk, nil
}
