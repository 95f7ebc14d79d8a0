package cli

import (
	"context"
	"flag"
	"time"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/telegram"
)

func runSearch(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	chat := fs.String("chat", "", "restrict the search to one chat")
	limit := fs.Int("limit", 20, "maximum results")
	fromUser := fs.String("from-user", "", "only messages from this user (requires --chat)")
	since := fs.String("since", "", "only messages on or after this date")
	markdown := fs.Bool("markdown", false, "render formatting entities as markdown")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 1 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl search <query> [flags]")
	}
	query := fs.Arg(0)
	if len([]rune(query)) < 2 {
		return domain.E(domain.CodeInvalidQuery, "Search query must be at least 2 characters")
	}
	if *fromUser != "" && *chat == "" {
		return domain.E(domain.CodeInvalidInput, "--from-user requires --chat")
	}

	var sinceTime time.Time
	if *since != "" {
		t, err := ParseDate(*since)
		if err != nil {
			return err
		}
		sinceTime = t
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var msgs []domain.Message
	scope := "global"
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		if *chat == "" {
			msgs, err = c.SearchGlobal(ctx, query, *limit, *markdown)
			return err
		}
		dialog, err := resolveChatArg(ctx, c, *chat)
		if err != nil {
			return err
		}
		scope = dialog.Name
		opts := telegram.SearchOptions{Limit: *limit, Markdown: *markdown}
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
		msgs, err = c.Search(ctx, dialog, query, opts)
		return err
	})
	if err != nil {
		return err
	}

	msgs = filterSince(msgs, sinceTime)
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return emit(env, map[string]any{
		"query":    query,
		"scope":    scope,
		"messages": msgs,
		"count":    len(msgs),
	})
}
