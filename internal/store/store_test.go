package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	s := New(t.TempDir())

	if sess, err := s.LoadSession(); err != nil || sess != nil {
		t.Fatalf("expected no session, got %v, %v", sess, err)
	}

	in := &Session{APIID: 12345, APIHash: "hash", Phone: "+15551234567", SessionString: "blob"}
	if err := s.SaveSession(in); err != nil {
		t.Fatal(err)
	}
	if in.AuthenticatedAt == "" {
		t.Error("SaveSession should stamp AuthenticatedAt")
	}

	out, err := s.LoadSession()
	if err != nil {
		t.Fatal(err)
	}
	if out.APIID != 12345 || out.APIHash != "hash" || out.Phone != "+15551234567" || out.SessionString != "blob" {
		t.Errorf("round trip mismatch: %+v", out)
	}

	if err := s.DeleteSession(); err != nil {
		t.Fatal(err)
	}
	if sess, _ := s.LoadSession(); sess != nil {
		t.Error("session should be gone after delete")
	}
	if err := s.DeleteSession(); err != nil {
		t.Errorf("deleting a missing session should not error: %v", err)
	}
}

func TestLoadSessionCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadSession(); err == nil {
		t.Error("corrupt session file should error")
	}
}

func TestLoadSessionIncomplete(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte(`{"phone":"+1"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadSession(); err == nil {
		t.Error("incomplete session file should error")
	}
}

func TestPendingLifecycle(t *testing.T) {
	s := New(t.TempDir())

	if p, err := s.LoadPending(); err != nil || p != nil {
		t.Fatalf("expected no pending, got %v, %v", p, err)
	}

	in := &PendingLogin{Phone: "+1", PhoneCodeHash: "hash", SessionString: "blob", APIID: 1, APIHash: "h"}
	if err := s.SavePending(in); err != nil {
		t.Fatal(err)
	}
	p, err := s.LoadPending()
	if err != nil {
		t.Fatal(err)
	}
	if p.PhoneCodeHash != "hash" || p.Phase != "" {
		t.Errorf("round trip mismatch: %+v", p)
	}

	in.Phase = PhaseTwoFactor
	if err := s.SavePending(in); err != nil {
		t.Fatal(err)
	}
	p, _ = s.LoadPending()
	if p.Phase != PhaseTwoFactor {
		t.Errorf("phase not persisted: %+v", p)
	}

	if err := s.ClearPending(); err != nil {
		t.Fatal(err)
	}
	if p, _ := s.LoadPending(); p != nil {
		t.Error("pending should be gone after clear")
	}
}

func TestLoadPendingCorrupt(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	if err := os.WriteFile(filepath.Join(dir, "pending.json"), []byte("garbage"), 0600); err != nil {
		t.Fatal(err)
	}
	p, err := s.LoadPending()
	if err != nil || p != nil {
		t.Errorf("corrupt pending should read as absent, got %v, %v", p, err)
	}
}

func TestWatermarksCorruptLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	if wm := s.LoadWatermarks(); len(wm) != 0 {
		t.Errorf("missing file should load empty, got %v", wm)
	}
	if err := os.WriteFile(filepath.Join(dir, "watermarks.json"), []byte("][["), 0644); err != nil {
		t.Fatal(err)
	}
	if wm := s.LoadWatermarks(); len(wm) != 0 {
		t.Errorf("corrupt file should load empty, got %v", wm)
	}
}

func TestApplyWatermarksBatch(t *testing.T) {
	s := New(t.TempDir())

	if err := s.ApplyWatermarks([]WatermarkUpdate{{ChatID: "111", MessageID: 50, ChatName: "A"}}); err != nil {
		t.Fatal(err)
	}

	// A batch touching only 222 leaves 111 alone.
	if err := s.ApplyWatermarks([]WatermarkUpdate{{ChatID: "222", MessageID: 7, ChatName: "B"}}); err != nil {
		t.Fatal(err)
	}
	wm := s.LoadWatermarks()
	if wm["111"].LastMessageID != 50 || wm["222"].LastMessageID != 7 {
		t.Errorf("unexpected watermarks: %v", wm)
	}

	// A batch touching 111 replaces it entirely.
	if err := s.ApplyWatermarks([]WatermarkUpdate{{ChatID: "111", MessageID: 99, ChatName: "A2"}}); err != nil {
		t.Fatal(err)
	}
	wm = s.LoadWatermarks()
	if wm["111"].LastMessageID != 99 || wm["111"].ChatName != "A2" {
		t.Errorf("watermark not replaced: %v", wm["111"])
	}
	if wm["111"].LastRunAt == "" {
		t.Error("LastRunAt should be stamped")
	}
}

func TestClearWatermarks(t *testing.T) {
	s := New(t.TempDir())
	if err := s.ApplyWatermarks([]WatermarkUpdate{{ChatID: "1", MessageID: 1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearWatermarks(); err != nil {
		t.Fatal(err)
	}
	if wm := s.LoadWatermarks(); len(wm) != 0 {
		t.Errorf("watermarks should be empty after clear, got %v", wm)
	}
	if err := s.ClearWatermarks(); err != nil {
		t.Errorf("clearing twice should not error: %v", err)
	}
}
