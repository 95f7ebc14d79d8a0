package cli

import (
	"github.com/seednet/tgctl/internal/domain"
	"github.com/seednet/tgctl/internal/store"
	"github.com/seednet/tgctl/internal/telegram"
)

// openClient builds a telegram client from the stored session. Every
// authenticated command goes through here so the not-logged-in and
// corrupt-session cases produce consistent codes.
func openClient(env *Env) (*telegram.Client, *store.Session, error) {
	sess, err := env.Store.LoadSession()
	if err != nil {
		return nil, nil, domain.E(domain.CodeInvalidSession, "Session file is corrupted. Log in again.")
	}
	if sess == nil {
		return nil, nil, domain.E(domain.CodeNotConnected, "Not connected to Telegram. Run 'tgctl login request-code' first.")
	}
	c := telegram.New(sess.APIID, sess.APIHash, sess.SessionString, env.Log.Named("telegram"))
	return c, sess, nil
}
