// Package store persists the three pieces of cross-invocation state:
// the authenticated session, the in-flight login attempt and the
// per-chat digest watermarks. Each process loads, mutates and exits;
// single-writer semantics are assumed (no locking).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	sessionFile    = "session.json"
	pendingFile    = "pending.json"
	watermarksFile = "watermarks.json"
)

// PhaseTwoFactor marks a pending login that has passed the OTP step and
// is waiting for the account password.
const PhaseTwoFactor = "2fa"

// Session is the durable result of a completed login.
type Session struct {
	APIID           int    `json:"apiId"`
	APIHash         string `json:"apiHash"`
	Phone           string `json:"phone"`
	SessionString   string `json:"sessionString"`
	AuthenticatedAt string `json:"authenticatedAt"`
}

// PendingLogin is the single-slot mid-handshake login state. The
// session string changes at each phase as the handshake advances.
type PendingLogin struct {
	Phone         string `json:"phone"`
	PhoneCodeHash string `json:"phoneCodeHash"`
	SessionString string `json:"sessionString"`
	APIID         int    `json:"apiId"`
	APIHash       string `json:"apiHash"`
	Phase         string `json:"phase,omitempty"`
}

// Watermark records how far the digest has processed one chat,
// independent of Telegram's own read state.
type Watermark struct {
	LastMessageID int    `json:"lastMessageId"`
	LastRunAt     string `json:"lastRunAt"`
	ChatName      string `json:"chatName,omitempty"`
}

// WatermarkUpdate is one entry of a batch watermark advance.
type WatermarkUpdate struct {
	ChatID    string
	MessageID int
	ChatName  string
}

// Store owns the state files under a single directory.
type Store struct {
	dir string
}

func New(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string { return s.dir }

// SessionPath is exported for the logout command, which reports
// "already logged out" without loading the file.
func (s *Store) SessionPath() string { return filepath.Join(s.dir, sessionFile) }

// LoadSession reads the stored session. A missing file yields
// (nil, nil); a corrupt or incomplete file yields an error.
func (s *Store) LoadSession() (*Session, error) {
	data, err := os.ReadFile(s.SessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if sess.SessionString == "" || sess.APIID == 0 || sess.APIHash == "" {
		return nil, fmt.Errorf("session file incomplete")
	}
	return &sess, nil
}

// SaveSession persists a completed login with restrictive permissions.
func (s *Store) SaveSession(sess *Session) error {
	if sess.AuthenticatedAt == "" {
		sess.AuthenticatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	return s.writeJSON(sessionFile, sess, 0600)
}

// DeleteSession removes the session file; missing is not an error.
func (s *Store) DeleteSession() error {
	err := os.Remove(s.SessionPath())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// LoadPending reads the in-flight login state. Missing or corrupt both
// yield (nil, nil): the caller treats either as "no pending login".
func (s *Store) LoadPending() (*PendingLogin, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, pendingFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pending: %w", err)
	}
	var p PendingLogin
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, nil
	}
	return &p, nil
}

// SavePending overwrites the single pending-login slot.
func (s *Store) SavePending(p *PendingLogin) error {
	return s.writeJSON(pendingFile, p, 0600)
}

// ClearPending removes the pending slot; missing is not an error.
func (s *Store) ClearPending() error {
	err := os.Remove(filepath.Join(s.dir, pendingFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// LoadWatermarks reads all watermarks. Missing or corrupt files load as
// an empty map so a bad file never blocks a digest run.
func (s *Store) LoadWatermarks() map[string]Watermark {
	data, err := os.ReadFile(filepath.Join(s.dir, watermarksFile))
	if err != nil {
		return map[string]Watermark{}
	}
	var wm map[string]Watermark
	if err := json.Unmarshal(data, &wm); err != nil || wm == nil {
		return map[string]Watermark{}
	}
	return wm
}

// SaveWatermarks writes the full watermark map.
func (s *Store) SaveWatermarks(wm map[string]Watermark) error {
	return s.writeJSON(watermarksFile, wm, 0644)
}

// ApplyWatermarks merges a batch of updates into the stored map in one
// write: entries not in the batch are preserved, entries in the batch
// are replaced, all stamped with the same run time.
func (s *Store) ApplyWatermarks(updates []WatermarkUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	wm := s.LoadWatermarks()
	now := time.Now().UTC().Format(time.RFC3339)
	for _, u := range updates {
		wm[u.ChatID] = Watermark{
			LastMessageID: u.MessageID,
			LastRunAt:     now,
			ChatName:      u.ChatName,
		}
	}
	return s.SaveWatermarks(wm)
}

// ClearWatermarks deletes the watermark file; the next digest will
// process everything.
func (s *Store) ClearWatermarks() error {
	err := os.Remove(filepath.Join(s.dir, watermarksFile))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) writeJSON(name string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, perm); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
