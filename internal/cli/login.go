package cli

import (
	"context"
	"flag"

	"github.com/seednet/tgctl/internal/config"
	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/login"
	"github.com/seednet/tgctl/internal/telegram"
)

func loginMachine(env *Env) *login.Machine {
	return login.NewMachine(env.Store, telegram.NewLoginGateway(env.Log.Named("telegram")))
}

func runLogin(ctx context.Context, env *Env, args []string) error {
	if len(args) == 0 {
		return domain.E(domain.CodeInvalidInput, "Usage: tgctl login <request-code|sign-in|sign-in-2fa>")
	}
	sub, rest := args[0], args[1:]

	switch sub {
	case "request-code":
		fs := flag.NewFlagSet("login request-code", flag.ContinueOnError)
		fs.SetOutput(env.Err)
		phone := fs.String("phone", "", "phone number in international format")
		apiID := fs.Int("api-id", 0, "Telegram app api_id (overrides env and app.json)")
		apiHash := fs.String("api-hash", "", "Telegram app api_hash (overrides env and app.json)")
		if err := fs.Parse(rest); err != nil {
			return domain.E(domain.CodeInvalidInput, err.Error())
		}
		if *phone == "" {
			return domain.E(domain.CodeInvalidInput, "Missing --phone")
		}
		creds, err := config.ResolveAppCredentials(env.Store.Dir(), *apiID, *apiHash)
		if err != nil {
			return err
		}
		out, err := loginMachine(env).RequestCode(ctx, *phone, creds.APIID, creds.APIHash)
		if err != nil {
			return err
		}
		return emit(env, out)

	case "sign-in":
		fs := flag.NewFlagSet("login sign-in", flag.ContinueOnError)
		fs.SetOutput(env.Err)
		code := fs.String("code", "", "verification code from Telegram")
		if err := fs.Parse(rest); err != nil {
			return domain.E(domain.CodeInvalidInput, err.Error())
		}
		if *code == "" {
			return domain.E(domain.CodeInvalidInput, "Missing --code")
		}
		out, err := loginMachine(env).SubmitCode(ctx, *code)
		if err != nil {
			return err
		}
		return emit(env, out)

	case "sign-in-2fa":
		fs := flag.NewFlagSet("login sign-in-2fa", flag.ContinueOnError)
		fs.SetOutput(env.Err)
		password := fs.String("password", "", "account 2FA password")
		if err := fs.Parse(rest); err != nil {
			return domain.E(domain.CodeInvalidInput, err.Error())
		}
		if *password == "" {
			return domain.E(domain.CodeInvalidInput, "Missing --password")
		}
		out, err := loginMachine(env).SubmitPassword(ctx, *password)
		if err != nil {
			return err
		}
		return emit(env, out)
	}
	return domain.Errf(domain.CodeInvalidInput, "Unknown login subcommand %q", sub)
}

func runLogout(ctx context.Context, env *Env, args []string) error {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(env.Err)
	revoke := fs.Bool("revoke", false, "also revoke the session on Telegram's side")
	if err := fs.Parse(args); err != nil {
		return domain.E(domain.CodeInvalidInput, err.Error())
	}

	out := map[string]any{"success": true, "loggedOut": true}

	if *revoke {
		c, _, err := openClient(env)
		if err == nil {
			revokeErr := c.RunAuthorized(ctx, func(ctx context.Context) error {
				return c.Logout(ctx)
			})
			out["revoked"] = revokeErr == nil
			if revokeErr != nil {
				// Local delete still proceeds; a dead session can't be revoked.
				out["revokeError"] = revokeErr.Error()
			}
		}
	}

	if err := env.Store.DeleteSession(); err != nil {
		return domain.Errf(domain.CodeAPIError, "Failed to delete session: %v", err)
	}
	_ = env.Store.ClearPending()
	return emit(env, out)
}
