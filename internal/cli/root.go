// Package cli implements the tgctl command surface. Every command
// prints exactly one JSON object on stdout; failures print
// {"error","code"} and exit nonzero. Anything human-oriented
// (progress, diagnostics) goes to stderr or the log file.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"go.uber.org/zap"

	"github.com/seednet/tgctl/internal/config"
	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/store"
)

// Env carries the shared command dependencies.
type Env struct {
	Cfg   *config.Config
	Store *store.Store
	Log   *zap.Logger
	Out   io.Writer
	Err   io.Writer
}

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *Env, args []string) error
}

var commands = map[string]command{
	"login":        {name: "login", usage: "login <request-code|sign-in|sign-in-2fa> [flags]", run: runLogin},
	"logout":       {name: "logout", usage: "logout [--revoke]", run: runLogout},
	"chats":        {name: "chats", usage: "chats [--limit N] [--type T] [--archived] [--sync]", run: runChats},
	"unread":       {name: "unread", usage: "unread [--limit N] [--min-unread N]", run: runUnread},
	"read":         {name: "read", usage: "read <chat> [flags]", run: runRead},
	"search":       {name: "search", usage: "search <query> [flags]", run: runSearch},
	"info":         {name: "info", usage: "info <chat> [--all-members]", run: runInfo},
	"contacts":     {name: "contacts", usage: "contacts [--search Q]", run: runContacts},
	"history":      {name: "history", usage: "history <chat> [--output PATH] [--since D] [--batch-size N]", run: runHistory},
	"send":         {name: "send", usage: "send <chat> <message> [--reply-to ID]", run: runSend},
	"create-group": {name: "create-group", usage: "create-group <title> --users A,B [--message M]", run: runCreateGroup},
	"invite-link":  {name: "invite-link", usage: "invite-link <chat> [--title T] [--expire-hours H] [--member-limit N]", run: runInviteLink},
	"leave":        {name: "leave", usage: "leave <chat> [--delete]", run: runLeave},
	"digest":       {name: "digest", usage: "digest [--chats A,B] [--limit N] [--include-read] [--dry-run]", run: runDigest},
	"watermarks":   {name: "watermarks", usage: "watermarks clear", run: runWatermarks},
	"sync-all":     {name: "sync-all", usage: "sync-all [--full] [--chat C] [--limit N]", run: runSyncAll},
}

// Run dispatches a command line and returns the process exit code.
func Run(ctx context.Context, env *Env, args []string) int {
	if len(args) == 0 {
		printUsage(env.Err)
		return 1
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(env.Err, "unknown command %q\n\n", args[0])
		printUsage(env.Err)
		return 1
	}

	if err := cmd.run(ctx, env, args[1:]); err != nil {
		emitError(env, err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: tgctl <command> [flags]")
	fmt.Fprintln(w)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

// emit writes the command's single JSON result object.
func emit(env *Env, v any) error {
	enc := json.NewEncoder(env.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type errorBody struct {
	Error      string `json:"error"`
	Code       string `json:"code"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func emitError(env *Env, err error) {
	body := errorBody{
		Error: err.Error(),
		Code:  domain.CodeOf(err, domain.CodeAPIError),
	}
	if ce, ok := err.(*domain.CodedError); ok && ce.RetryAfter > 0 {
		body.RetryAfter = int(ce.RetryAfter.Seconds())
	}
	env.Log.Error("command failed", zap.String("code", body.Code), zap.Error(err))
	_ = emit(env, body)
}
