// Package telegram wraps gotd/td for the one-shot command model:
// every operation opens a connection from a serialized session string,
// performs its requests, and disconnects when the run function returns.
package telegram

import (
	"context"
	"encoding/base64"
	"sync"

	"go.uber.org/zap"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

// stringStorage is a gotd session.Storage holding the serialized
// session in memory. It is what lets a handshake survive process
// boundaries: after a run, String() captures the connection state
// (DC + auth key) for persistence, and a later process rehydrates it.
type stringStorage struct {
	mu   sync.Mutex
	data []byte
}

func newStringStorage(encoded string) *stringStorage {
	s := &stringStorage{}
	if encoded != "" {
		if data, err := base64.StdEncoding.DecodeString(encoded); err == nil {
			s.data = data
		}
	}
	return s
}

func (s *stringStorage) LoadSession(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return nil, session.ErrNotFound
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (s *stringStorage) StoreSession(_ context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	return nil
}

func (s *stringStorage) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.data) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(s.data)
}

// Client wraps a gotd client for a single command invocation.
type Client struct {
	client  *telegram.Client
	storage *stringStorage
	logger  *zap.Logger

	api    *tg.Client
	sender *message.Sender
	self   *tg.User
}

// New builds a client from app credentials and an optional serialized
// session string (empty for a fresh, unauthenticated connection).
func New(apiID int, apiHash, sessionString string, logger *zap.Logger) *Client {
	storage := newStringStorage(sessionString)
	c := &Client{
		storage: storage,
		logger:  logger,
	}
	c.client = telegram.NewClient(apiID, apiHash, telegram.Options{
		Logger:         logger,
		SessionStorage: storage,
	})
	return c
}

// Run connects, invokes f and disconnects. Errors before f starts are
// classified as connection failures.
func (c *Client) Run(ctx context.Context, f func(ctx context.Context) error) error {
	started := false
	err := c.client.Run(ctx, func(ctx context.Context) error {
		started = true
		c.api = c.client.API()
		c.sender = message.NewSender(c.api)
		return f(ctx)
	})
	if err != nil && !started {
		return domain.Errf(domain.CodeConnectionError, "Failed to connect to Telegram: %v", err)
	}
	return err
}

// RunAuthorized is Run plus an auth status check, for every command
// that requires a logged-in session.
func (c *Client) RunAuthorized(ctx context.Context, f func(ctx context.Context) error) error {
	return c.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return domain.Errf(domain.CodeConnectionError, "Failed to check session: %v", err)
		}
		if !status.Authorized {
			return domain.E(domain.CodeInvalidSession, "Session is no longer valid. Log in again.")
		}
		return f(ctx)
	})
}

// SessionString returns the serialized connection state after a run.
func (c *Client) SessionString() string { return c.storage.String() }

// Self fetches and caches the authenticated user's own profile.
func (c *Client) Self(ctx context.Context) (*tg.User, error) {
	if c.self != nil {
		return c.self, nil
	}
	self, err := c.client.Self(ctx)
	if err != nil {
		return nil, err
	}
	c.self = self
	return self, nil
}
