package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seednet/tgctl/internal/config"
	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/syncapi"
	"github.com/seednet/tgctl/internal/telegram"
)

// interChatDelay spaces out per-chat fetches so a sync over many chats
// stays under Telegram's rate limits.
const interChatDelay = 500 * time.Millisecond

func syncClient(env *Env) (*syncapi.Client, error) {
	cfg, err := config.ResolveSyncConfig(env.Cfg.SyncAPIBase)
	if err != nil {
		return nil, err
	}
	return syncapi.New(cfg, env.Log.Named("sync")), nil
}

func chatRecord(chat domain.Chat) syncapi.ChatRecord {
	return syncapi.ChatRecord{
		ID:          chat.ID,
		Name:        chat.Name,
		Type:        chat.Type,
		Username:    chat.Username,
		UnreadCount: chat.UnreadCount,
		MemberCount: chat.MemberCount,
	}
}

func pushChats(ctx context.Context, env *Env, chats []domain.Chat) (*syncapi.SyncChatsResult, error) {
	api, err := syncClient(env)
	if err != nil {
		return nil, err
	}
	records := make([]syncapi.ChatRecord, 0, len(chats))
	for _, chat := range chats {
		records = append(records, chatRecord(chat))
	}
	return api.SyncChats(ctx, records)
}

func pushMessages(ctx context.Context, env *Env, chatID string, msgs []domain.Message) (*syncapi.SyncMessagesResult, error) {
	api, err := syncClient(env)
	if err != nil {
		return nil, err
	}
	return api.SyncMessages(ctx, chatID, msgs)
}

// multiFlag collects a repeatable string flag.
type multiFlag []string

func (m *multiFlag) String() string     { return strings.Join(*m, ",") }
func (m *multiFlag) Set(v string) error { *m = append(*m, v); return nil }

func runSyncAll(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("sync-all", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	full := fs.Bool("full", false, "push each chat's entire history instead of the latest messages")
	limit := fs.Int("limit", env.Cfg.SyncLimit, "messages per chat (ignored with --full)")
	var chatArgs multiFlag
	fs.Var(&chatArgs, "chat", "sync only this chat (repeatable)")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}

	api, err := syncClient(env)
	if err != nil {
		return err
	}
	c, _, err := openClient(env)
	if err != nil {
		return err
	}

	out := map[string]any{"success": true}
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		ds, err := c.Dialogs(ctx, 200, false)
		if err != nil {
			return err
		}

		records := make([]syncapi.ChatRecord, 0, len(ds))
		for _, d := range ds {
			records = append(records, chatRecord(chatFromDialog(d)))
		}
		chatsResult, err := api.SyncChats(ctx, records)
		if err != nil {
			return err
		}
		out["chats"] = chatsResult

		targets, err := syncTargets(ctx, api, ds, chatArgs)
		if err != nil {
			return err
		}

		var (
			pushed  int
			synced  int
			created int
			updated int
			skipped int
			failed  []string
		)
		for i, d := range targets {
			if i > 0 {
				time.Sleep(interChatDelay)
			}
			fmt.Fprintf(env.Err, `{"syncing": %q, "chat": %d, "of": %d}`+"\n", d.Name, i+1, len(targets))

			msgs, err := fetchForSync(ctx, c, &targets[i], *full, *limit)
			var coded *domain.CodedError
			if errors.As(err, &coded) && coded.Code == domain.CodeFloodWait {
				// Honor the wait, then move on to the next chat.
				fmt.Fprintf(env.Err, `{"floodWait": %d, "chat": %q}`+"\n", int(coded.RetryAfter.Seconds()), d.Name)
				time.Sleep(coded.RetryAfter)
				failed = append(failed, d.Name)
				continue
			}
			if err != nil {
				failed = append(failed, d.Name)
				env.Log.Warn("sync fetch failed", zap.String("chat", d.Name), zap.Error(err))
				continue
			}
			if len(msgs) == 0 {
				continue
			}

			result, err := api.SyncMessages(ctx, d.IDString(), msgs)
			if err != nil {
				return err
			}
			pushed += len(msgs)
			synced++
			created += result.Created
			updated += result.Updated
			skipped += result.Skipped
		}

		out["chatsSynced"] = synced
		out["messagesPushed"] = pushed
		out["created"] = created
		out["updated"] = updated
		out["skipped"] = skipped
		if len(failed) > 0 {
			out["failedChats"] = failed
		}
		return nil
	})
	if err != nil {
		return err
	}
	return emit(env, out)
}

// syncTargets picks which chats get their messages pushed: explicit
// --chat arguments, else the chats the API has sync-enabled, else all
// groups and channels.
func syncTargets(ctx context.Context, api *syncapi.Client, ds []telegram.Dialog, chatArgs []string) ([]telegram.Dialog, error) {
	if len(chatArgs) > 0 {
		var targets []telegram.Dialog
		var missing []string
		for _, arg := range chatArgs {
			found := false
			lower := strings.ToLower(strings.TrimPrefix(arg, "@"))
			for i := range ds {
				if ds[i].IDString() == arg ||
					strings.EqualFold(ds[i].Username, lower) ||
					strings.Contains(strings.ToLower(ds[i].Name), lower) {
					targets = append(targets, ds[i])
					found = true
					break
				}
			}
			if !found {
				missing = append(missing, arg)
			}
		}
		if len(missing) > 0 {
			return nil, domain.Errf(domain.CodeChatNotFound, "Chats not found: %s", strings.Join(missing, ", "))
		}
		return targets, nil
	}

	enabled, err := api.EnabledChats(ctx)
	if err == nil && len(enabled) > 0 {
		byID := make(map[string]bool, len(enabled))
		for _, chat := range enabled {
			byID[chat.ID] = true
		}
		var targets []telegram.Dialog
		for i := range ds {
			if byID[ds[i].IDString()] {
				targets = append(targets, ds[i])
			}
		}
		return targets, nil
	}

	var targets []telegram.Dialog
	for i := range ds {
		switch ds[i].Type {
		case domain.TypeGroup, domain.TypeSupergroup, domain.TypeChannel:
			targets = append(targets, ds[i])
		}
	}
	return targets, nil
}

func fetchForSync(ctx context.Context, c *telegram.Client, d *telegram.Dialog, full bool, limit int) ([]domain.Message, error) {
	if !full {
		return c.History(ctx, d, telegram.HistoryOptions{Limit: limit})
	}
	var msgs []domain.Message
	err := c.ExportHistory(ctx, d, 0, func(m domain.Message) (bool, error) {
		msgs = append(msgs, m)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}
