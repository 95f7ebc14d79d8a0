package cli

import (
	"context"
	"flag"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/telegram"
)

const (
	defaultMemberLimit = 50
	allMemberLimit     = 200
)

func runInfo(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	allMembers := fs.Bool("all-members", false, "fetch up to 200 members instead of 50")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 1 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl info <chat> [--all-members]")
	}

	memberLimit := defaultMemberLimit
	if *allMembers {
		memberLimit = allMemberLimit
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var info *telegram.FullInfo
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		dialog, err := resolveChatArg(ctx, c, fs.Arg(0))
		if err != nil {
			return err
		}
		info, err = c.Info(ctx, dialog, memberLimit)
		return err
	})
	if err != nil {
		return err
	}
	return emit(env, info)
}

func runContacts(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("contacts", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	search := fs.String("search", "", "search contacts by name or username")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var contacts []*domain.Sender
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		contacts, err = c.Contacts(ctx, *search)
		return err
	})
	if err != nil {
		return err
	}
	return emit(env, map[string]any{
		"contacts": contacts,
		"count":    len(contacts),
	})
}
