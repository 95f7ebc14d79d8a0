package telegram

import (
	"testing"

	"github.com/gotd/td/tg"

	"github.com/seednet/tgctl/internal/domain"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		entity any
		want   string
	}{
		{"user", &tg.User{ID: 1}, domain.TypeUser},
		{"bot", &tg.User{ID: 2, Bot: true}, domain.TypeBot},
		{"basic group", &tg.Chat{ID: 3}, domain.TypeGroup},
		{"broadcast channel", &tg.Channel{ID: 4, Broadcast: true}, domain.TypeChannel},
		{"supergroup", &tg.Channel{ID: 5}, domain.TypeSupergroup},
		{"nil", nil, domain.TypeUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.entity); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestFormatUserName(t *testing.T) {
	cases := []struct {
		user tg.User
		want string
	}{
		{tg.User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{tg.User{FirstName: "Ada"}, "Ada"},
		{tg.User{LastName: "Lovelace"}, "Lovelace"},
		{tg.User{Username: "ada"}, "ada"},
		{tg.User{}, "Unknown"},
	}
	for _, tc := range cases {
		if got := FormatUserName(&tc.user); got != tc.want {
			t.Errorf("got %q, want %q", got, tc.want)
		}
	}
}

func TestSenderFromUser(t *testing.T) {
	s := SenderFromUser(&tg.User{ID: 9007199254740993, FirstName: "Ada", Username: "ada", Bot: true})
	if s.ID != "9007199254740993" {
		t.Errorf("64-bit IDs must survive as strings, got %q", s.ID)
	}
	if s.Name != "Ada" || s.Username != "ada" || !s.IsBot {
		t.Errorf("unexpected sender: %+v", s)
	}
}
