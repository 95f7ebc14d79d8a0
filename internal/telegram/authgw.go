package telegram

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/login"
	"github.com/seednet/tgctl/internal/store"
)

// LoginGateway performs the login handshake phases over gotd. Each
// phase opens its own connection; the session string carried in the
// pending slot keeps the auth key stable across phases.
type LoginGateway struct {
	logger *zap.Logger
}

func NewLoginGateway(logger *zap.Logger) *LoginGateway {
	return &LoginGateway{logger: logger}
}

var _ login.Gateway = (*LoginGateway)(nil)

// SendCode opens a fresh connection and asks Telegram to deliver a
// verification code to the phone.
func (g *LoginGateway) SendCode(ctx context.Context, apiID int, apiHash, phone string) (*login.SentCode, error) {
	c := New(apiID, apiHash, "", g.logger)

	var sent *login.SentCode
	err := c.Run(ctx, func(ctx context.Context) error {
		result, err := c.client.Auth().SendCode(ctx, phone, auth.SendCodeOptions{})
		if err != nil {
			return wrapAPIError(err, domain.CodeCodeSendError, "Failed to send code")
		}
		code, ok := result.(*tg.AuthSentCode)
		if !ok {
			return domain.Errf(domain.CodeCodeSendError, "Failed to send code: unexpected response %T", result)
		}
		sent = &login.SentCode{PhoneCodeHash: code.PhoneCodeHash}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sent.SessionString = c.SessionString()
	return sent, nil
}

// SignIn submits the verification code over the connection state saved
// by SendCode. A 2FA-protected account surfaces as TwoFactorRequired
// with the advanced session state for the password phase.
func (g *LoginGateway) SignIn(ctx context.Context, pending *store.PendingLogin, code string) (*login.SignInResult, error) {
	c := New(pending.APIID, pending.APIHash, pending.SessionString, g.logger)

	var result *login.SignInResult
	err := c.Run(ctx, func(ctx context.Context) error {
		_, err := c.client.Auth().SignIn(ctx, pending.Phone, code, pending.PhoneCodeHash)
		if errors.Is(err, auth.ErrPasswordAuthNeeded) {
			result = &login.SignInResult{TwoFactorRequired: true}
			return nil
		}
		if err != nil {
			return wrapAPIError(err, domain.CodeSignInError, "Sign in failed")
		}
		profile, err := g.profile(ctx, c)
		if err != nil {
			return err
		}
		result = &login.SignInResult{Profile: profile}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.SessionString = c.SessionString()
	return result, nil
}

// SignInPassword completes a 2FA login with the account password.
func (g *LoginGateway) SignInPassword(ctx context.Context, pending *store.PendingLogin, password string) (*login.SignInResult, error) {
	c := New(pending.APIID, pending.APIHash, pending.SessionString, g.logger)

	var result *login.SignInResult
	err := c.Run(ctx, func(ctx context.Context) error {
		if _, err := c.client.Auth().Password(ctx, password); err != nil {
			return wrapAPIError(err, domain.CodeSignInError, "Sign in failed")
		}
		profile, err := g.profile(ctx, c)
		if err != nil {
			return err
		}
		result = &login.SignInResult{Profile: profile}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.SessionString = c.SessionString()
	return result, nil
}

func (g *LoginGateway) profile(ctx context.Context, c *Client) (*domain.Profile, error) {
	self, err := c.Self(ctx)
	if err != nil {
		return nil, domain.Errf(domain.CodeSignInError, "Sign in succeeded but profile fetch failed: %v", err)
	}
	return &domain.Profile{
		Phone:    self.Phone,
		Name:     FormatUserName(self),
		Username: self.Username,
		UserID:   strconv.FormatInt(self.ID, 10),
	}, nil
}
