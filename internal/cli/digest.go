package cli

import (
	"context"
	"flag"

	"github.com/seednet/tgctl/internal/digest"
	"github.com/seednet/tgctl/internal/domain"
)

func runDigest(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("digest", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	chats := fs.String("chats", "", "comma-separated chat names to digest regardless of unread state")
	limit := fs.Int("limit", env.Cfg.DigestLimit, "maximum messages per chat")
	includeRead := fs.Bool("include-read", false, "also visit watermarked chats that are fully read")
	dryRun := fs.Bool("dry-run", false, "do not advance watermarks")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	engine := digest.NewEngine(env.Store, c.DigestFetcher(), env.Log.Named("digest"))
	opts := digest.Options{
		ChatFilter:  *chats,
		Limit:       *limit,
		IncludeRead: *includeRead,
		DryRun:      *dryRun,
	}

	var result *digest.Result
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		result, err = engine.Run(ctx, opts)
		return err
	})
	if err != nil {
		return err
	}
	return emit(env, result)
}

func runWatermarks(ctx context.Context, env *Env, args []string) error {
	if len(args) < 1 || args[0] != "clear" {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl watermarks clear")
	}
	if err := env.Store.ClearWatermarks(); err != nil {
		return domain.Errf(domain.CodeAPIError, "Failed to clear watermarks: %v", err)
	}
	return emit(env, map[string]any{"success": true, "cleared": true})
}
