package cli

import (
	"context"
	"flag"
	"sort"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/telegram"
)

func chatFromDialog(d telegram.Dialog) domain.Chat {
	return domain.Chat{
		ID:           d.IDString(),
		Name:         d.Name,
		Type:         d.Type,
		UnreadCount:  d.UnreadCount,
		MentionCount: d.UnreadMentions,
		LastMessage:  d.LastMessage,
		Username:     d.Username,
		MemberCount:  d.MemberCount,
	}
}

func runChats(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("chats", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	limit := fs.Int("limit", 50, "maximum chats to list")
	typeFilter := fs.String("type", "all", "filter by chat type (user|bot|group|supergroup|channel|all)")
	archived := fs.Bool("archived", false, "list the archive folder instead")
	sync := fs.Bool("sync", false, "push the listed chats to the sync API")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var chats []domain.Chat
	var ds []telegram.Dialog
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		fetchLimit := *limit
		if *typeFilter != "all" {
			// Over-fetch so the filter can still fill the limit.
			fetchLimit = 0
		}
		ds, err = c.Dialogs(ctx, fetchLimit, *archived)
		return err
	})
	if err != nil {
		return err
	}

	for _, d := range ds {
		if *typeFilter != "all" && d.Type != *typeFilter {
			continue
		}
		chats = append(chats, chatFromDialog(d))
		if len(chats) >= *limit {
			break
		}
	}
	if chats == nil {
		chats = []domain.Chat{}
	}

	out := map[string]any{"chats": chats, "count": len(chats)}

	if *sync {
		pushed, err := pushChats(ctx, env, chats)
		if err != nil {
			return err
		}
		out["sync"] = pushed
	}
	return emit(env, out)
}

func runUnread(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("unread", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	limit := fs.Int("limit", 20, "maximum chats to list")
	minUnread := fs.Int("min-unread", 1, "minimum unread count to include")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var ds []telegram.Dialog
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		ds, err = c.Dialogs(ctx, 0, false)
		return err
	})
	if err != nil {
		return err
	}

	totalUnread := 0
	var unread []telegram.Dialog
	for _, d := range ds {
		totalUnread += d.UnreadCount
		if d.UnreadCount >= *minUnread {
			unread = append(unread, d)
		}
	}
	// Mentions outrank raw unread volume.
	sort.SliceStable(unread, func(i, j int) bool {
		if unread[i].UnreadMentions != unread[j].UnreadMentions {
			return unread[i].UnreadMentions > unread[j].UnreadMentions
		}
		return unread[i].UnreadCount > unread[j].UnreadCount
	})
	if len(unread) > *limit {
		unread = unread[:*limit]
	}

	chats := make([]domain.Chat, 0, len(unread))
	for _, d := range unread {
		chats = append(chats, chatFromDialog(d))
	}
	return emit(env, map[string]any{
		"chats":       chats,
		"count":       len(chats),
		"totalUnread": totalUnread,
	})
}
