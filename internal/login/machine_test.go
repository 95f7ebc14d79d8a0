package login

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/store"
)

// fakeGateway scripts the protocol side of the handshake.
type fakeGateway struct {
	sendCodeErr error
	signInErr   error
	passwordErr error
	needs2FA    bool

	profile *domain.Profile
}

func (f *fakeGateway) SendCode(_ context.Context, _ int, _, _ string) (*SentCode, error) {
	if f.sendCodeErr != nil {
		return nil, f.sendCodeErr
	}
	return &SentCode{PhoneCodeHash: "hash-1", SessionString: "sess-1"}, nil
}

func (f *fakeGateway) SignIn(_ context.Context, _ *store.PendingLogin, _ string) (*SignInResult, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	if f.needs2FA {
		return &SignInResult{TwoFactorRequired: true, SessionString: "sess-2"}, nil
	}
	return &SignInResult{Profile: f.profile, SessionString: "sess-final"}, nil
}

func (f *fakeGateway) SignInPassword(_ context.Context, _ *store.PendingLogin, _ string) (*SignInResult, error) {
	if f.passwordErr != nil {
		return nil, f.passwordErr
	}
	return &SignInResult{Profile: f.profile, SessionString: "sess-final"}, nil
}

func testProfile() *domain.Profile {
	return &domain.Profile{Phone: "+15551234567", Name: "Ada Lovelace", Username: "ada", UserID: "42"}
}

func newMachine(t *testing.T, gw Gateway) (*Machine, *store.Store) {
	t.Helper()
	st := store.New(t.TempDir())
	return NewMachine(st, gw), st
}

func TestRequestCodePersistsPending(t *testing.T) {
	m, st := newMachine(t, &fakeGateway{})

	out, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)
	assert.Equal(t, "code_sent", out.Status)
	assert.Equal(t, "+15551234567", out.Phone)

	p, err := st.LoadPending()
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "hash-1", p.PhoneCodeHash)
	assert.Equal(t, "sess-1", p.SessionString)
	assert.Equal(t, 111, p.APIID)
	assert.Empty(t, p.Phase)
}

func TestSubmitCodeSuccess(t *testing.T) {
	m, st := newMachine(t, &fakeGateway{profile: testProfile()})
	_, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)

	out, err := m.SubmitCode(context.Background(), "12345")
	require.NoError(t, err)
	success, ok := out.(*LoginSuccess)
	require.True(t, ok)
	assert.True(t, success.Success)
	assert.Equal(t, "Ada Lovelace", success.Name)
	assert.Equal(t, "42", success.UserID)

	sess, err := st.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "sess-final", sess.SessionString)
	assert.Equal(t, 111, sess.APIID)
	assert.NotEmpty(t, sess.AuthenticatedAt)

	p, err := st.LoadPending()
	require.NoError(t, err)
	assert.Nil(t, p, "pending slot should be cleared on success")
}

func TestSubmitCodeTwoFactorKeepsPending(t *testing.T) {
	m, st := newMachine(t, &fakeGateway{needs2FA: true})
	_, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)

	out, err := m.SubmitCode(context.Background(), "12345")
	require.NoError(t, err)
	status, ok := out.(*TwoFactorStatus)
	require.True(t, ok)
	assert.Equal(t, "2fa_required", status.Status)

	p, err := st.LoadPending()
	require.NoError(t, err)
	require.NotNil(t, p, "pending must survive into the password phase")
	assert.Equal(t, store.PhaseTwoFactor, p.Phase)
	assert.Equal(t, "sess-2", p.SessionString, "advanced handshake state must be persisted")

	sess, err := st.LoadSession()
	require.NoError(t, err)
	assert.Nil(t, sess, "no session until the password phase completes")
}

func TestSubmitCodeInvalidKeepsPending(t *testing.T) {
	gw := &fakeGateway{signInErr: domain.E(domain.CodeInvalidCode, "Invalid verification code.")}
	m, st := newMachine(t, gw)
	_, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)

	_, err = m.SubmitCode(context.Background(), "00000")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalidCode))

	p, err := st.LoadPending()
	require.NoError(t, err)
	assert.NotNil(t, p, "an invalid code is retryable; pending must survive")
}

func TestSubmitCodeExpiredClearsPending(t *testing.T) {
	gw := &fakeGateway{signInErr: domain.E(domain.CodeCodeExpired, "Verification code expired.")}
	m, st := newMachine(t, gw)
	_, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)

	_, err = m.SubmitCode(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeCodeExpired))

	p, err := st.LoadPending()
	require.NoError(t, err)
	assert.Nil(t, p, "an expired code invalidates the whole attempt")
}

func TestSubmitCodeNoPending(t *testing.T) {
	m, _ := newMachine(t, &fakeGateway{})
	_, err := m.SubmitCode(context.Background(), "12345")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNoPending))
}

func TestSubmitPasswordRequiresTwoFactorPhase(t *testing.T) {
	m, _ := newMachine(t, &fakeGateway{})
	_, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)

	_, err = m.SubmitPassword(context.Background(), "hunter2")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeNotIn2FA))
}

func TestSubmitPasswordSuccess(t *testing.T) {
	gw := &fakeGateway{needs2FA: true, profile: testProfile()}
	m, st := newMachine(t, gw)
	_, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)
	_, err = m.SubmitCode(context.Background(), "12345")
	require.NoError(t, err)

	out, err := m.SubmitPassword(context.Background(), "hunter2")
	require.NoError(t, err)
	assert.True(t, out.Success)
	assert.Equal(t, "+15551234567", out.Phone)

	sess, err := st.LoadSession()
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "sess-final", sess.SessionString)

	p, err := st.LoadPending()
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestSubmitPasswordInvalidKeepsPending(t *testing.T) {
	gw := &fakeGateway{needs2FA: true, passwordErr: domain.E(domain.CodeInvalid2FA, "Invalid 2FA password.")}
	m, st := newMachine(t, gw)
	_, err := m.RequestCode(context.Background(), "+15551234567", 111, "hash")
	require.NoError(t, err)
	_, err = m.SubmitCode(context.Background(), "12345")
	require.NoError(t, err)

	_, err = m.SubmitPassword(context.Background(), "wrong")
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.CodeInvalid2FA))

	p, err := st.LoadPending()
	require.NoError(t, err)
	require.NotNil(t, p, "a wrong password is retryable")
	assert.Equal(t, store.PhaseTwoFactor, p.Phase)
}
