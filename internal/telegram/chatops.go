package telegram

import (
	"context"
	"strconv"
	"time"

	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

// CreatedGroup identifies a freshly created basic group.
type CreatedGroup struct {
	ID    int64
	Title string
}

// CreateGroup creates a basic group chat with the given members.
func (c *Client) CreateGroup(ctx context.Context, title string, users []*tg.User) (*CreatedGroup, error) {
	inputUsers := make([]tg.InputUserClass, 0, len(users))
	for _, u := range users {
		inputUsers = append(inputUsers, InputUser(u))
	}

	invited, err := c.api.MessagesCreateChat(ctx, &tg.MessagesCreateChatRequest{
		Users: inputUsers,
		Title: title,
	})
	if err != nil {
		return nil, wrapAPIError(err, domain.CodeCreateError, "Failed to create group")
	}

	if updates, ok := invited.Updates.(*tg.Updates); ok {
		for _, ch := range updates.Chats {
			if chat, ok := ch.(*tg.Chat); ok {
				return &CreatedGroup{ID: chat.ID, Title: chat.Title}, nil
			}
		}
	}
	return &CreatedGroup{Title: title}, nil
}

// InviteLink is an exported chat invite.
type InviteLink struct {
	Link       string
	Title      string
	ExpireDate string
	UsageLimit int
}

// ExportInviteLink creates an invite link for a group or channel.
func (c *Client) ExportInviteLink(ctx context.Context, d *Dialog, title string, expireAt time.Time, memberLimit int) (*InviteLink, error) {
	req := &tg.MessagesExportChatInviteRequest{Peer: d.Peer}
	if title != "" {
		req.SetTitle(title)
	}
	if !expireAt.IsZero() {
		req.SetExpireDate(int(expireAt.Unix()))
	}
	if memberLimit > 0 {
		req.SetUsageLimit(memberLimit)
	}

	result, err := c.api.MessagesExportChatInvite(ctx, req)
	if err != nil {
		return nil, wrapAPIError(err, domain.CodeExportError, "Failed to export invite link")
	}

	invite, ok := result.(*tg.ChatInviteExported)
	if !ok {
		return nil, domain.Errf(domain.CodeExportError, "Failed to export invite link: unexpected response %T", result)
	}
	out := &InviteLink{Link: invite.Link}
	if t, ok := invite.GetTitle(); ok {
		out.Title = t
	}
	if d, ok := invite.GetExpireDate(); ok {
		out.ExpireDate = formatUnix(d)
	}
	if n, ok := invite.GetUsageLimit(); ok {
		out.UsageLimit = n
	}
	return out, nil
}

// Leave exits a group or channel. With wipe set, the local dialog and
// its history are removed as well.
func (c *Client) Leave(ctx context.Context, d *Dialog, wipe bool) error {
	var err error
	switch p := d.Peer.(type) {
	case *tg.InputPeerChannel:
		_, err = c.api.ChannelsLeaveChannel(ctx, &tg.InputChannel{
			ChannelID:  p.ChannelID,
			AccessHash: p.AccessHash,
		})
	case *tg.InputPeerChat:
		_, err = c.api.MessagesDeleteChatUser(ctx, &tg.MessagesDeleteChatUserRequest{
			ChatID: p.ChatID,
			UserID: &tg.InputUserSelf{},
		})
	default:
		wipe = true
	}
	if err != nil {
		return wrapAPIError(err, domain.CodeLeaveError, "Failed to leave chat")
	}

	if wipe {
		if _, err := c.api.MessagesDeleteHistory(ctx, &tg.MessagesDeleteHistoryRequest{
			Peer: d.Peer,
		}); err != nil {
			return wrapAPIError(err, domain.CodeLeaveError, "Failed to delete chat history")
		}
	}
	return nil
}

// PinnedMessage is a truncated view of a pinned message in chat info.
type PinnedMessage struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	Date string `json:"date,omitempty"`
}

// FullInfo is the info command's output shape. Which fields are set
// depends on the chat type.
type FullInfo struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Type           string           `json:"type"`
	Username       string           `json:"username,omitempty"`
	Description    string           `json:"description,omitempty"`
	MemberCount    int              `json:"memberCount,omitempty"`
	Created        string           `json:"created,omitempty"`
	PinnedMessages []PinnedMessage  `json:"pinnedMessages,omitempty"`
	Members        []*domain.Sender `json:"members,omitempty"`
	MembersNote    string           `json:"membersNote,omitempty"`
	Phone          string           `json:"phone,omitempty"`
	IsBot          *bool            `json:"isBot,omitempty"`
	FullName       string           `json:"fullName,omitempty"`
	Status         string           `json:"status,omitempty"`
	Error          string           `json:"error,omitempty"`
}

// Info fetches full metadata for a chat, channel or user. Partial
// failures (restricted member lists, missing full info) degrade into
// notes rather than command failure.
func (c *Client) Info(ctx context.Context, d *Dialog, memberLimit int) (*FullInfo, error) {
	info := &FullInfo{
		ID:       d.IDString(),
		Name:     d.Name,
		Type:     d.Type,
		Username: d.Username,
	}

	switch entity := d.entity.(type) {
	case *tg.Channel:
		full, err := c.api.ChannelsGetFullChannel(ctx, &tg.InputChannel{
			ChannelID:  entity.ID,
			AccessHash: entity.AccessHash,
		})
		if err != nil {
			if fwErr := wrapAPIError(err, domain.CodeAPIError, "info"); domain.IsCode(fwErr, domain.CodeFloodWait) {
				return nil, fwErr
			}
			info.Error = "Could not fetch full info: " + err.Error()
			return info, nil
		}
		if cf, ok := full.FullChat.(*tg.ChannelFull); ok {
			info.Description = cf.About
			if n, ok := cf.GetParticipantsCount(); ok {
				info.MemberCount = n
			}
		}
		info.Created = formatUnix(entity.Date)
		info.PinnedMessages = c.pinnedMessages(ctx, d)
		c.channelMembers(ctx, entity, memberLimit, info)

	case *tg.Chat:
		full, err := c.api.MessagesGetFullChat(ctx, entity.ID)
		if err != nil {
			info.Error = "Could not fetch full info: " + err.Error()
			return info, nil
		}
		lk := newEntLookup().add(full.Users, full.Chats)
		if cf, ok := full.FullChat.(*tg.ChatFull); ok {
			info.Description = cf.About
			info.MemberCount = entity.ParticipantsCount
			if parts, ok := cf.Participants.(*tg.ChatParticipants); ok {
				for _, p := range parts.Participants {
					if u, found := lk.users[p.GetUserID()]; found {
						info.Members = append(info.Members, SenderFromUser(u))
					} else {
						info.Members = append(info.Members, &domain.Sender{
							ID:   strconv.FormatInt(p.GetUserID(), 10),
							Name: "Unknown",
						})
					}
				}
			}
		}

	case *tg.User:
		info.Phone = entity.Phone
		isBot := entity.Bot
		info.IsBot = &isBot
		info.FullName = FormatUserName(entity)
		info.Status = userStatus(entity.Status)
	}

	return info, nil
}

func (c *Client) pinnedMessages(ctx context.Context, d *Dialog) []PinnedMessage {
	result, err := c.api.MessagesSearch(ctx, &tg.MessagesSearchRequest{
		Peer:   d.Peer,
		Filter: &tg.InputMessagesFilterPinned{},
		Limit:  5,
	})
	if err != nil {
		return nil
	}
	msgs, _, err := convertHistory(result, nil, false)
	if err != nil {
		return nil
	}
	var out []PinnedMessage
	for _, m := range msgs {
		out = append(out, PinnedMessage{ID: m.ID, Text: truncate(m.Text, 200), Date: m.Date})
	}
	return out
}

func (c *Client) channelMembers(ctx context.Context, channel *tg.Channel, limit int, info *FullInfo) {
	result, err := c.api.ChannelsGetParticipants(ctx, &tg.ChannelsGetParticipantsRequest{
		Channel: &tg.InputChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash},
		Filter:  &tg.ChannelParticipantsRecent{},
		Limit:   limit,
	})
	if err != nil {
		info.MembersNote = "Cannot access member list (admin required or restricted)"
		return
	}
	participants, ok := result.(*tg.ChannelsChannelParticipants)
	if !ok {
		return
	}
	for _, u := range participants.Users {
		if user, ok := u.(*tg.User); ok {
			info.Members = append(info.Members, SenderFromUser(user))
		}
	}
}

func userStatus(status tg.UserStatusClass) string {
	switch status.(type) {
	case *tg.UserStatusOnline:
		return "online"
	case *tg.UserStatusOffline:
		return "offline"
	case *tg.UserStatusRecently:
		return "recently"
	case *tg.UserStatusLastWeek:
		return "lastweek"
	case *tg.UserStatusLastMonth:
		return "lastmonth"
	}
	return ""
}

// Contacts lists the account's contacts, or searches them by name or
// username when query is non-empty.
func (c *Client) Contacts(ctx context.Context, query string) ([]*domain.Sender, error) {
	var users []tg.UserClass
	if query != "" {
		found, err := c.api.ContactsSearch(ctx, &tg.ContactsSearchRequest{Q: query, Limit: 50})
		if err != nil {
			return nil, wrapAPIError(err, domain.CodeAPIError, "Failed to get contacts")
		}
		users = found.Users
	} else {
		result, err := c.api.ContactsGetContacts(ctx, 0)
		if err != nil {
			return nil, wrapAPIError(err, domain.CodeAPIError, "Failed to get contacts")
		}
		contacts, ok := result.(*tg.ContactsContacts)
		if !ok {
			return []*domain.Sender{}, nil
		}
		users = contacts.Users
	}

	out := make([]*domain.Sender, 0, len(users))
	for _, u := range users {
		if user, ok := u.(*tg.User); ok {
			out = append(out, SenderFromUser(user))
		}
	}
	return out, nil
}

// Logout revokes the session on Telegram's side.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.api.AuthLogOut(ctx)
	if err != nil {
		return wrapAPIError(err, domain.CodeAPIError, "Logout failed")
	}
	return nil
}
