// Package login drives the three-phase Telegram authentication
// handshake across process boundaries. Each phase is a separate
// invocation; the mid-handshake connection state is serialized into
// the pending-login slot between phases.
package login

import (
	"context"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/store"
)

// SentCode is the result of a successful code request: the server's
// verification handle plus the session string that lets the next phase
// resume the connection without repeating the key exchange.
type SentCode struct {
	PhoneCodeHash string
	SessionString string
}

// SignInResult is the outcome of an OTP or password submission. When
// TwoFactorRequired is set the profile is nil and SessionString holds
// the advanced mid-handshake state.
type SignInResult struct {
	Profile           *domain.Profile
	SessionString     string
	TwoFactorRequired bool
}

// Gateway performs the actual protocol exchanges. The production
// implementation lives in the telegram package.
type Gateway interface {
	SendCode(ctx context.Context, apiID int, apiHash, phone string) (*SentCode, error)
	SignIn(ctx context.Context, pending *store.PendingLogin, code string) (*SignInResult, error)
	SignInPassword(ctx context.Context, pending *store.PendingLogin, password string) (*SignInResult, error)
}

// Machine is the login state machine. State lives entirely in the
// store: no session and no pending slot means NoSession, a pending
// slot means CodeSent (or TwoFactorRequired when its phase marker is
// set), a session file means Authenticated.
type Machine struct {
	store   *store.Store
	gateway Gateway
}

func NewMachine(st *store.Store, gw Gateway) *Machine {
	return &Machine{store: st, gateway: gw}
}

// CodeSentStatus is the phase-1 output.
type CodeSentStatus struct {
	Status string `json:"status"`
	Phone  string `json:"phone"`
}

// TwoFactorStatus signals that the password phase is required.
type TwoFactorStatus struct {
	Status string `json:"status"`
}

// LoginSuccess is the terminal success output.
type LoginSuccess struct {
	Success  bool   `json:"success"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	UserID   string `json:"userId"`
}

// RequestCode starts a fresh handshake: ask the service to send an OTP
// and persist the pending slot, overwriting any prior attempt.
func (m *Machine) RequestCode(ctx context.Context, phone string, apiID int, apiHash string) (*CodeSentStatus, error) {
	sent, err := m.gateway.SendCode(ctx, apiID, apiHash, phone)
	if err != nil {
		return nil, err
	}

	if err := m.store.SavePending(&store.PendingLogin{
		Phone:         phone,
		PhoneCodeHash: sent.PhoneCodeHash,
		SessionString: sent.SessionString,
		APIID:         apiID,
		APIHash:       apiHash,
	}); err != nil {
		return nil, err
	}

	return &CodeSentStatus{Status: "code_sent", Phone: phone}, nil
}

// SubmitCode advances the handshake with the OTP. Pending state is
// kept on an invalid code (retryable), kept and advanced when a
// password is additionally required, and discarded when the code has
// expired (the caller must restart from phase 1).
func (m *Machine) SubmitCode(ctx context.Context, code string) (any, error) {
	pending, err := m.loadPending()
	if err != nil {
		return nil, err
	}

	result, err := m.gateway.SignIn(ctx, pending, code)
	if err != nil {
		if domain.IsCode(err, domain.CodeCodeExpired) {
			_ = m.store.ClearPending()
		}
		return nil, err
	}

	if result.TwoFactorRequired {
		pending.SessionString = result.SessionString
		pending.Phase = store.PhaseTwoFactor
		if err := m.store.SavePending(pending); err != nil {
			return nil, err
		}
		return &TwoFactorStatus{Status: "2fa_required"}, nil
	}

	return m.finish(pending, result)
}

// SubmitPassword completes a handshake that reached the password
// phase. An invalid password keeps the pending state for retry.
func (m *Machine) SubmitPassword(ctx context.Context, password string) (*LoginSuccess, error) {
	pending, err := m.loadPending()
	if err != nil {
		return nil, err
	}
	if pending.Phase != store.PhaseTwoFactor {
		return nil, domain.E(domain.CodeNotIn2FA, "Not in 2FA state. Request a new code to start over.")
	}

	result, err := m.gateway.SignInPassword(ctx, pending, password)
	if err != nil {
		return nil, err
	}
	return m.finish(pending, result)
}

func (m *Machine) loadPending() (*store.PendingLogin, error) {
	pending, err := m.store.LoadPending()
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, domain.E(domain.CodeNoPending, "No pending login session found. Request a code first.")
	}
	return pending, nil
}

// finish persists the completed session and clears the pending slot.
func (m *Machine) finish(pending *store.PendingLogin, result *SignInResult) (*LoginSuccess, error) {
	if err := m.store.SaveSession(&store.Session{
		APIID:         pending.APIID,
		APIHash:       pending.APIHash,
		Phone:         pending.Phone,
		SessionString: result.SessionString,
	}); err != nil {
		return nil, err
	}
	if err := m.store.ClearPending(); err != nil {
		return nil, err
	}

	return &LoginSuccess{
		Success:  true,
		Phone:    pending.Phone,
		Name:     result.Profile.Name,
		Username: result.Profile.Username,
		UserID:   result.Profile.UserID,
	}, nil
}
