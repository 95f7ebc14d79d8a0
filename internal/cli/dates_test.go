package cli

import (
	"testing"
	"time"

	"github.com/seednet/tgctl/internal/domain"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2026-02-10")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	got, err = ParseDate("2026-02-10T08:30:00")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 8 || got.Minute() != 30 {
		t.Errorf("timestamp not preserved: %v", got)
	}

	if _, err := ParseDate("February 10th"); err == nil {
		t.Error("garbage date should error")
	}
}

func TestParseDateEndOfDay(t *testing.T) {
	got, err := ParseDateEndOfDay("2026-02-10")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, 2, 10, 23, 59, 59, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("date-only input should mean end of day: got %v", got)
	}

	// A full timestamp keeps its time.
	got, err = ParseDateEndOfDay("2026-02-10T08:00:00")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hour() != 8 {
		t.Errorf("timestamp should not be shifted: %v", got)
	}
}

func TestFilterSince(t *testing.T) {
	msgs := []domain.Message{
		{ID: "1", Date: "2026-02-09T10:00:00Z"},
		{ID: "2", Date: "2026-02-10T10:00:00Z"},
		{ID: "3", Date: ""}, // unparseable dates pass through
	}
	since, _ := ParseDate("2026-02-10")
	got := filterSince(msgs, since)
	if len(got) != 2 || got[0].ID != "2" || got[1].ID != "3" {
		t.Errorf("unexpected filter result: %+v", got)
	}

	all := filterSince(msgs, time.Time{})
	if len(all) != 3 {
		t.Errorf("zero bound should keep everything, got %d", len(all))
	}
}
