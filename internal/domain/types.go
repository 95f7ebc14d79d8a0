package domain

// Chat types as emitted in JSON output.
const (
	TypeUser       = "user"
	TypeBot        = "bot"
	TypeGroup      = "group"
	TypeSupergroup = "supergroup"
	TypeChannel    = "channel"
	TypeUnknown    = "unknown"
)

// Sender identifies who sent a message. IDs are strings in output so
// downstream JSON consumers never lose precision on 64-bit values.
type Sender struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	IsBot    bool   `json:"isBot"`
}

// Reaction is one emoji reaction aggregate on a message.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Message is the formatted message shape shared by read, search, digest
// and history output.
type Message struct {
	ID          string     `json:"id"`
	Date        string     `json:"date,omitempty"`
	Sender      *Sender    `json:"sender"`
	Text        string     `json:"text,omitempty"`
	ReplyTo     string     `json:"replyTo,omitempty"`
	ForwardFrom any        `json:"forwardFrom,omitempty"`
	MediaType   string     `json:"mediaType,omitempty"`
	Views       int        `json:"views,omitempty"`
	Reactions   []Reaction `json:"reactions,omitempty"`
	IsPinned    bool       `json:"isPinned"`
	EditDate    string     `json:"editDate,omitempty"`

	// Set only in global search results and history exports.
	Chat     *ChatRef `json:"chat,omitempty"`
	ChatID   string   `json:"chatId,omitempty"`
	ChatName string   `json:"chatName,omitempty"`
}

// ChatRef is the minimal chat identification attached to messages.
type ChatRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
}

// LastMessage is the truncated preview attached to chat listings.
type LastMessage struct {
	Date   string `json:"date,omitempty"`
	Sender string `json:"sender,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Chat is one entry in the chats/unread listings.
type Chat struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Type         string       `json:"type"`
	UnreadCount  int          `json:"unreadCount"`
	MentionCount int          `json:"mentionCount,omitempty"`
	LastMessage  *LastMessage `json:"lastMessage"`
	Username     string       `json:"username,omitempty"`
	MemberCount  int          `json:"memberCount,omitempty"`
}

// Profile summarizes the authenticated account after a successful login.
type Profile struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	UserID   string `json:"userId"`
}
