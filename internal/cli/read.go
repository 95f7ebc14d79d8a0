package cli

import (
	"context"
	"flag"
	"time"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/telegram"
)

// resolveChatArg resolves a chat argument or fails with CHAT_NOT_FOUND.
func resolveChatArg(ctx context.Context, c *telegram.Client, arg string) (*telegram.Dialog, error) {
	d, err := c.ResolveChat(ctx, arg)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.Errf(domain.CodeChatNotFound, "Chat %q not found", arg)
	}
	return d, nil
}

func runRead(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("read", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	limit := fs.Int("limit", 50, "maximum messages")
	offsetID := fs.Int("offset-id", 0, "start below this message ID")
	since := fs.String("since", "", "only messages on or after this date")
	until := fs.String("until", "", "only messages up to this date (inclusive for date-only values)")
	fromUser := fs.String("from-user", "", "only messages from this user")
	markdown := fs.Bool("markdown", false, "render formatting entities as markdown")
	sync := fs.Bool("sync", false, "push the fetched messages to the sync API")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 1 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl read <chat> [flags]")
	}
	chatArg := fs.Arg(0)

	opts := telegram.HistoryOptions{
		Limit:    *limit,
		OffsetID: *offsetID,
		Markdown: *markdown,
	}
	var sinceTime time.Time
	if *since != "" {
		t, err := ParseDate(*since)
		if err != nil {
			return err
		}
		sinceTime = t
	}
	if *until != "" {
		t, err := ParseDateEndOfDay(*until)
		if err != nil {
			return err
		}
		opts.OffsetDate = t
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var (
		dialog *telegram.Dialog
		msgs   []domain.Message
	)
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		dialog, err = resolveChatArg(ctx, c, chatArg)
		if err != nil {
			return err
		}
		if *fromUser != "" {
			u, err := c.ResolveUser(ctx, *fromUser)
			if err != nil {
				return err
			}
			if u == nil {
				return domain.Errf(domain.CodeUserNotFound, "User %q not found", *fromUser)
			}
			opts.FromUser = u
		}
		msgs, err = c.History(ctx, dialog, opts)
		return err
	})
	if err != nil {
		return err
	}

	msgs = filterSince(msgs, sinceTime)

	out := map[string]any{
		"chat": map[string]any{
			"id":   dialog.IDString(),
			"name": dialog.Name,
			"type": dialog.Type,
		},
		"messages": msgs,
		"count":    len(msgs),
	}

	if *sync {
		pushed, err := pushMessages(ctx, env, dialog.IDString(), msgs)
		if err != nil {
			return err
		}
		out["sync"] = pushed
	}
	return emit(env, out)
}

// filterSince drops messages older than the bound. The server-side
// filters bound the other end, so this runs client-side.
func filterSince(msgs []domain.Message, since time.Time) []domain.Message {
	if since.IsZero() {
		return msgs
	}
	out := make([]domain.Message, 0, len(msgs))
	for _, m := range msgs {
		t, err := time.Parse(time.RFC3339, m.Date)
		if err != nil || !t.Before(since) {
			out = append(out, m)
		}
	}
	return out
}
