package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

const resolveDialogLimit = 200

// ResolveChat turns a chat argument (numeric ID, @username, or display
// name) into a dialog. Name matching is case-insensitive: exact first,
// then prefix, then substring.
func (c *Client) ResolveChat(ctx context.Context, arg string) (*Dialog, error) {
	ds, err := c.Dialogs(ctx, resolveDialogLimit, false)
	if err != nil {
		return nil, err
	}

	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		for i := range ds {
			if ds[i].ID == id {
				return &ds[i], nil
			}
		}
	}

	if username, ok := strings.CutPrefix(arg, "@"); ok {
		if d := matchUsername(ds, username); d != nil {
			return d, nil
		}
		if d, err := c.resolveUsernamePeer(ctx, username); err == nil && d != nil {
			return d, nil
		}
	}

	lower := strings.ToLower(arg)
	for i := range ds {
		if strings.ToLower(ds[i].Name) == lower {
			return &ds[i], nil
		}
	}
	for i := range ds {
		if strings.HasPrefix(strings.ToLower(ds[i].Name), lower) {
			return &ds[i], nil
		}
	}
	for i := range ds {
		if strings.Contains(strings.ToLower(ds[i].Name), lower) {
			return &ds[i], nil
		}
	}
	return nil, nil
}

func matchUsername(ds []Dialog, username string) *Dialog {
	for i := range ds {
		if ds[i].Username != "" && strings.EqualFold(ds[i].Username, username) {
			return &ds[i]
		}
	}
	return nil
}

// resolveUsernamePeer resolves a public @username outside the dialog
// list, yielding a dialog with the access hash Telegram supplies.
func (c *Client) resolveUsernamePeer(ctx context.Context, username string) (*Dialog, error) {
	resolved, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, err
	}
	lk := newEntLookup().add(resolved.Users, resolved.Chats)

	switch p := resolved.Peer.(type) {
	case *tg.PeerUser:
		u, ok := lk.users[p.UserID]
		if !ok {
			return nil, nil
		}
		return &Dialog{
			ID:       u.ID,
			Name:     FormatUserName(u),
			Username: u.Username,
			Type:     Classify(u),
			Peer:     &tg.InputPeerUser{UserID: u.ID, AccessHash: u.AccessHash},
			entity:   u,
		}, nil
	case *tg.PeerChannel:
		ch, ok := lk.channels[p.ChannelID]
		if !ok {
			return nil, nil
		}
		return &Dialog{
			ID:       ch.ID,
			Name:     ch.Title,
			Username: ch.Username,
			Type:     Classify(ch),
			Peer:     &tg.InputPeerChannel{ChannelID: ch.ID, AccessHash: ch.AccessHash},
			entity:   ch,
		}, nil
	}
	return nil, nil
}

// ResolveUser turns a user argument (numeric ID, @username, or contact
// name) into a concrete user. Contact search falls back through exact
// name, exact username, then the first result.
func (c *Client) ResolveUser(ctx context.Context, arg string) (*tg.User, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		if u := c.findDialogUser(ctx, id); u != nil {
			return u, nil
		}
	}

	username := strings.TrimPrefix(arg, "@")
	if resolved, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username}); err == nil {
		lk := newEntLookup().add(resolved.Users, resolved.Chats)
		if p, ok := resolved.Peer.(*tg.PeerUser); ok {
			if u, found := lk.users[p.UserID]; found {
				return u, nil
			}
		}
	}

	found, err := c.api.ContactsSearch(ctx, &tg.ContactsSearchRequest{Q: arg, Limit: 10})
	if err != nil {
		return nil, wrapAPIError(err, domain.CodeAPIError, "Contact search failed")
	}
	var candidates []*tg.User
	for _, u := range found.Users {
		if user, ok := u.(*tg.User); ok {
			candidates = append(candidates, user)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	for _, u := range candidates {
		if strings.EqualFold(FormatUserName(u), arg) {
			return u, nil
		}
	}
	for _, u := range candidates {
		if u.Username != "" && strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return candidates[0], nil
}

func (c *Client) findDialogUser(ctx context.Context, id int64) *tg.User {
	ds, err := c.Dialogs(ctx, resolveDialogLimit, false)
	if err != nil {
		return nil
	}
	for i := range ds {
		if ds[i].ID == id {
			if u, ok := ds[i].entity.(*tg.User); ok {
				return u
			}
		}
	}
	return nil
}

// InputUser converts a resolved user for RPC calls that need one.
func InputUser(u *tg.User) *tg.InputUser {
	return &tg.InputUser{UserID: u.ID, AccessHash: u.AccessHash}
}
