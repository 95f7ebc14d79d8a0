package telegram

import (
	"strconv"

	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

// Classify maps a Telegram entity onto the output chat types: users
// split into user/bot, channels into broadcast channel vs supergroup.
func Classify(entity any) string {
	switch e := entity.(type) {
	case *tg.User:
		if e.Bot {
			return domain.TypeBot
		}
		return domain.TypeUser
	case *tg.Chat:
		return domain.TypeGroup
	case *tg.Channel:
		if e.Broadcast {
			return domain.TypeChannel
		}
		return domain.TypeSupergroup
	}
	return domain.TypeUnknown
}

// FormatUserName joins first and last name, falling back to username.
func FormatUserName(u *tg.User) string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	case u.Username != "":
		return u.Username
	}
	return "Unknown"
}

// SenderFromUser formats a user as a message sender.
func SenderFromUser(u *tg.User) *domain.Sender {
	return &domain.Sender{
		ID:       strconv.FormatInt(u.ID, 10),
		Name:     FormatUserName(u),
		Username: u.Username,
		IsBot:    u.Bot,
	}
}

func senderFromChat(c *tg.Chat) *domain.Sender {
	title := c.Title
	if title == "" {
		title = "Unknown"
	}
	return &domain.Sender{ID: strconv.FormatInt(c.ID, 10), Name: title}
}

func senderFromChannel(c *tg.Channel) *domain.Sender {
	title := c.Title
	if title == "" {
		title = "Unknown"
	}
	return &domain.Sender{
		ID:       strconv.FormatInt(c.ID, 10),
		Name:     title,
		Username: c.Username,
	}
}

func peerID(p tg.PeerClass) int64 {
	switch v := p.(type) {
	case *tg.PeerUser:
		return v.UserID
	case *tg.PeerChat:
		return v.ChatID
	case *tg.PeerChannel:
		return v.ChannelID
	}
	return 0
}

func inputPeerID(p tg.InputPeerClass) int64 {
	switch v := p.(type) {
	case *tg.InputPeerUser:
		return v.UserID
	case *tg.InputPeerChat:
		return v.ChatID
	case *tg.InputPeerChannel:
		return v.ChannelID
	}
	return 0
}
