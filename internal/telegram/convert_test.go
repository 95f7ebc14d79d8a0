package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
)

func TestConvertMessage(t *testing.T) {
	lk := newEntLookup().add(
		[]tg.UserClass{&tg.User{ID: 7, FirstName: "Ada", Username: "ada"}},
		nil,
	)

	msg := &tg.Message{
		ID:      42,
		Date:    1767225600, // 2026-01-01T00:00:00Z
		Message: "hello",
		PeerID:  &tg.PeerUser{UserID: 7},
	}
	msg.SetFromID(&tg.PeerUser{UserID: 7})
	hdr := &tg.MessageReplyHeader{}
	hdr.SetReplyToMsgID(41)
	msg.SetReplyTo(hdr)
	msg.SetViews(12)

	out := lk.convertMessage(msg, nil, false)
	if out.ID != "42" {
		t.Errorf("ID = %q", out.ID)
	}
	if out.Date != "2026-01-01T00:00:00Z" {
		t.Errorf("Date = %q", out.Date)
	}
	if out.Sender == nil || out.Sender.Name != "Ada" || out.Sender.ID != "7" {
		t.Errorf("Sender = %+v", out.Sender)
	}
	if out.ReplyTo != "41" {
		t.Errorf("ReplyTo = %q", out.ReplyTo)
	}
	if out.Views != 12 {
		t.Errorf("Views = %d", out.Views)
	}
}

func TestConvertMessageOutgoingFallsBackToSelf(t *testing.T) {
	lk := newEntLookup()
	self := &tg.User{ID: 1, FirstName: "Me"}

	msg := &tg.Message{
		ID:      5,
		Out:     true,
		Message: "sent by me",
		PeerID:  &tg.PeerUser{UserID: 7},
	}
	out := lk.convertMessage(msg, self, false)
	if out.Sender == nil || out.Sender.Name != "Me" {
		t.Errorf("outgoing message should attribute to self, got %+v", out.Sender)
	}
}

func TestConvertHistoryReversesToChronological(t *testing.T) {
	result := &tg.MessagesMessagesSlice{
		Messages: []tg.MessageClass{
			&tg.Message{ID: 3, Message: "newest", PeerID: &tg.PeerUser{UserID: 7}},
			&tg.Message{ID: 2, Message: "middle", PeerID: &tg.PeerUser{UserID: 7}},
			&tg.Message{ID: 1, Message: "oldest", PeerID: &tg.PeerUser{UserID: 7}},
		},
	}
	msgs, _, err := convertHistory(result, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("len = %d", len(msgs))
	}
	if msgs[0].ID != "1" || msgs[2].ID != "3" {
		t.Errorf("expected chronological order, got %q..%q", msgs[0].ID, msgs[2].ID)
	}
}

func TestMediaType(t *testing.T) {
	if got := mediaType(&tg.MessageMediaPhoto{}); got != "photo" {
		t.Errorf("photo = %q", got)
	}
	if got := mediaType(nil); got != "" {
		t.Errorf("nil media = %q", got)
	}

	voice := &tg.MessageMediaDocument{}
	doc := &tg.Document{Attributes: []tg.DocumentAttributeClass{
		&tg.DocumentAttributeAudio{Voice: true},
	}}
	voice.SetDocument(doc)
	if got := mediaType(voice); got != "voice" {
		t.Errorf("voice = %q", got)
	}
}
