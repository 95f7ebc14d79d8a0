package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/telegram"
)

func runHistory(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	output := fs.String("output", "", "JSONL output path (default history_<chatId>.jsonl)")
	since := fs.String("since", "", "stop once messages get older than this date")
	batchSize := fs.Int("batch-size", 100, "messages per request")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}
	if fs.NArg() < 1 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl history <chat> [--output PATH] [--since D] [--batch-size N]")
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

	var (
		dialog  *telegram.Dialog
		path    string
		count   int
		walkErr error
	)
	err = c.RunAuthorized(ctx, func(ctx context.Context) error {
		dialog, err = resolveChatArg(ctx, c, fs.Arg(0))
		if err != nil {
			return err
		}

		path = *output
		if path == "" {
			path = fmt.Sprintf("history_%s.jsonl", dialog.IDString())
		}
		f, err := os.Create(path)
		if err != nil {
			return domain.Errf(domain.CodeAPIError, "Failed to open output file: %v", err)
		}
		defer f.Close()
		w := bufio.NewWriter(f)
		defer w.Flush()
		enc := json.NewEncoder(w)

		walkErr = c.ExportHistory(ctx, dialog, *batchSize, func(m domain.Message) (bool, error) {
			if !sinceTime.IsZero() && m.Date != "" {
				if t, err := time.Parse(time.RFC3339, m.Date); err == nil && t.Before(sinceTime) {
					return false, nil
				}
			}
			m.ChatID = dialog.IDString()
			m.ChatName = dialog.Name
			if err := enc.Encode(m); err != nil {
				return false, domain.Errf(domain.CodeAPIError, "Failed to write output: %v", err)
			}
			count++
			if count%500 == 0 {
				fmt.Fprintf(env.Err, `{"progress": %d}`+"\n", count)
			}
			return true, nil
		})
		// A rate limit mid-export still leaves a usable partial file.
		if walkErr != nil && !domain.IsCode(walkErr, domain.CodeFloodWait) {
			return walkErr
		}
		return nil
	})
	if err != nil {
		return err
	}

	out := map[string]any{
		"chat": map[string]any{
			"id":   dialog.IDString(),
			"name": dialog.Name,
		},
		"messages": count,
		"output":   path,
	}
	var coded *domain.CodedError
	if errors.As(walkErr, &coded) && coded.Code == domain.CodeFloodWait {
		out["partial"] = true
		out["floodWait"] = int(coded.RetryAfter.Seconds())
	}
	return emit(env, out)
}
