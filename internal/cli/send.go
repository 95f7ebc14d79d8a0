package cli

import (
	"context"
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/telegram"
)

func runSend(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	replyTo := fs.Int("reply-to", 0, "message ID to reply to")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 2 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl send <chat> <message> [--reply-to ID]")
	}
	chatArg := fs.Arg(0)
	text := strings.Join(fs.Args()[1:], " ")
	if strings.TrimSpace(text) == "" {
		return domain.E(domain.CodeInvalidInput, "Message text is empty")
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var (
		dialog *telegram.Dialog
		sent   *telegram.SentMessage
	)
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		dialog, err = resolveChatArg(ctx, c, chatArg)
		if err != nil {
			return err
		}
		sent, err = c.Send(ctx, dialog, text, *replyTo)
		return err
	})
	if err != nil {
		return err
	}
	return emit(env, map[string]any{
		"success":   true,
		"messageId": sent.ID,
		"date":      sent.Date,
		"chat":      dialog.Name,
	})
}

func runCreateGroup(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("create-group", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	users := fs.String("users", "", "comma-separated users to add (ID, @username or contact name)")
	message := fs.String("message", "", "first message to post after creating")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 1 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl create-group <title> --users A,B [--message M]")
	}
	title := fs.Arg(0)
	var userArgs []string
	for _, part := range strings.Split(*users, ",") {
		if part = strings.TrimSpace(part); part != "" {
			userArgs = append(userArgs, part)
		}
	}
	if len(userArgs) == 0 {
		return domain.E(domain.CodeInvalidInput, "At least one --users entry is required")
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	out := map[string]any{}
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		var resolved []*tg.User
		var missing []string
		for _, arg := range userArgs {
			u, err := c.ResolveUser(ctx, arg)
			if err != nil {
				return err
			}
			if u == nil {
				missing = append(missing, arg)
				continue
			}
			resolved = append(resolved, u)
		}
		if len(missing) > 0 {
			return domain.Errf(domain.CodeUserNotFound, "Users not found: %s", strings.Join(missing, ", "))
		}

		created, err := c.CreateGroup(ctx, title, resolved)
		if err != nil {
			return err
		}
		out["success"] = true
		out["chatId"] = strconv.FormatInt(created.ID, 10)
		out["title"] = created.Title
		out["members"] = len(resolved)

		if *message != "" {
			// The group exists at this point, so a failed first
			// message degrades to a note instead of failing the run.
			d := &telegram.Dialog{Peer: &tg.InputPeerChat{ChatID: created.ID}}
			if _, err := c.Send(ctx, d, *message, 0); err != nil {
				out["messageSent"] = false
				out["messageError"] = err.Error()
			} else {
				out["messageSent"] = true
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return emit(env, out)
}

func runInviteLink(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("invite-link", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	title := fs.String("title", "", "label for the invite link")
	expireHours := fs.Int("expire-hours", 0, "hours until the link expires")
	memberLimit := fs.Int("member-limit", 0, "maximum users that may join via the link")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 1 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl invite-link <chat> [flags]")
	}

	var expireAt time.Time
	if *expireHours > 0 {
		expireAt = time.Now().Add(time.Duration(*expireHours) * time.Hour)
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var link *telegram.InviteLink
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		dialog, err := resolveChatArg(ctx, c, fs.Arg(0))
		if err != nil {
			return err
		}
		switch dialog.Type {
		case domain.TypeGroup, domain.TypeSupergroup, domain.TypeChannel:
		default:
			return domain.Errf(domain.CodeInvalidChatType, "Cannot create an invite link for a %s chat", dialog.Type)
		}
		link, err = c.ExportInviteLink(ctx, dialog, *title, expireAt, *memberLimit)
		return err
	})
	if err != nil {
		return err
	}

	out := map[string]any{"success": true, "link": link.Link}
	if link.Title != "" {
		out["title"] = link.Title
	}
	if link.ExpireDate != "" {
		out["expireDate"] = link.ExpireDate
	}
	if link.UsageLimit > 0 {
		out["memberLimit"] = link.UsageLimit
	}
	return emit(env, out)
}

func runLeave(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("leave", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	del := fs.Bool("delete", false, "also delete the dialog and its history")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 1 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl leave <chat> [--delete]")
	}

	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	var name string
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		dialog, err := resolveChatArg(ctx, c, fs.Arg(0))
		if err != nil {
			return err
		}
		switch dialog.Type {
		case domain.TypeUser, domain.TypeBot:
			if !*del {
				return domain.E(domain.CodeInvalidChatType, "Direct chats cannot be left. Use --delete to remove the conversation.")
			}
		}
		name = dialog.Name
		return c.Leave(ctx, dialog, *del)
	})
	if err != nil {
		return err
	}
	return emit(env, map[string]any{"success": true, "left": name, "deleted": *del})
}
