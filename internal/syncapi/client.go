// Package syncapi is the client for the seed-network HTTP API that
// chat metadata and messages are pushed to.
package syncapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/seednet/tgctl/internal/config"
	"github.com/seednet/tgctl/internal/domain"
)

// messageBatchSize is the per-request cap on pushed messages.
const messageBatchSize = 500

// Client talks to the sync API with a bearer token.
type Client struct {
	base   string
	token  string
	http   *http.Client
	logger *zap.Logger
}

func New(cfg config.SyncConfig, logger *zap.Logger) *Client {
	return &Client{
		base:   cfg.APIBase,
		token:  cfg.Token,
		http:   &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

// ChatRecord is the chat metadata shape the API ingests.
type ChatRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Username    string `json:"username,omitempty"`
	UnreadCount int    `json:"unreadCount"`
	MemberCount int    `json:"memberCount,omitempty"`
}

// SyncChatsResult reports the API's view of a chat metadata push.
type SyncChatsResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncChats pushes chat metadata in one request.
func (c *Client) SyncChats(ctx context.Context, chats []ChatRecord) (*SyncChatsResult, error) {
	var result SyncChatsResult
	err := c.post(ctx, "/api/mcp/telegram/chats", map[string]any{"chats": chats}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SyncMessagesResult aggregates the API's counts over all batches of
// one chat's push.
type SyncMessagesResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// SyncMessages pushes one chat's messages in batches.
func (c *Client) SyncMessages(ctx context.Context, chatID string, msgs []domain.Message) (*SyncMessagesResult, error) {
	total := &SyncMessagesResult{}
	for start := 0; start < len(msgs); start += messageBatchSize {
		end := start + messageBatchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		var batch SyncMessagesResult
		err := c.post(ctx, "/api/mcp/telegram/messages", map[string]any{
			"chatId":   chatID,
			"messages": msgs[start:end],
		}, &batch)
		if err != nil {
			return nil, err
		}
		total.Created += batch.Created
		total.Updated += batch.Updated
		total.Skipped += batch.Skipped
	}
	return total, nil
}

// RemoteChat is a chat as known to the API, with its sync opt-in flag.
type RemoteChat struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SyncEnabled bool   `json:"syncEnabled"`
}

// EnabledChats lists the chats the API has marked for syncing.
func (c *Client) EnabledChats(ctx context.Context) ([]RemoteChat, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/mcp/telegram/chats?limit=200", nil)
	if err != nil {
		return nil, domain.Errf(domain.CodeSyncError, "Sync request failed: %v", err)
	}
	var body struct {
		Chats []RemoteChat `json:"chats"`
	}
	if err := c.do(req, &body); err != nil {
		return nil, err
	}
	enabled := make([]RemoteChat, 0, len(body.Chats))
	for _, chat := range body.Chats {
		if chat.SyncEnabled {
			enabled = append(enabled, chat)
		}
	}
	return enabled, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.Errf(domain.CodeSyncError, "Sync request failed: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return domain.Errf(domain.CodeSyncError, "Sync request failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.Errf(domain.CodeConnectionError, "Failed to reach sync API: %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return domain.Errf(domain.CodeSyncError, "Sync response read failed: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("sync api error",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode))
		return domain.Errf(domain.CodeSyncError, "Sync API returned HTTP %d: %s", resp.StatusCode, truncateBody(data))
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return domain.Errf(domain.CodeSyncError, "Sync response decode failed: %v", err)
		}
	}
	return nil
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
