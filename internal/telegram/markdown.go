package telegram

import (
	"sort"
	"strings"
	"unicode/utf16"

	"github.com/gotd/td/tg"
)

// span is a markdown wrapper applied over a UTF-16 code unit range.
// Telegram entity offsets count UTF-16 units, not bytes or runes.
type span struct {
	start, end     int
	prefix, suffix string
}

// EntitiesToMarkdown renders a message's formatting entities into the
// plain text, producing markdown. Unknown entity types pass through
// untouched.
func EntitiesToMarkdown(text string, entities []tg.MessageEntityClass) string {
	if len(entities) == 0 {
		return text
	}

	units := utf16.Encode([]rune(text))

	var spans []span
	for _, e := range entities {
		start := e.GetOffset()
		end := start + e.GetLength()
		if start < 0 || start >= len(units) {
			continue
		}
		if end > len(units) {
			end = len(units)
		}
		s := span{start: start, end: end}
		switch v := e.(type) {
		case *tg.MessageEntityBold:
			s.prefix, s.suffix = "**", "**"
		case *tg.MessageEntityItalic:
			s.prefix, s.suffix = "*", "*"
		case *tg.MessageEntityCode:
			s.prefix, s.suffix = "`", "`"
		case *tg.MessageEntityPre:
			s.prefix, s.suffix = "```"+v.Language+"\n", "\n```"
		case *tg.MessageEntityStrike:
			s.prefix, s.suffix = "~~", "~~"
		case *tg.MessageEntityTextURL:
			s.prefix, s.suffix = "[", "]("+v.URL+")"
		case *tg.MessageEntityBlockquote:
			s.prefix = "> "
		case *tg.MessageEntityMention, *tg.MessageEntityMentionName, *tg.MessageEntityHashtag:
			s.prefix, s.suffix = "**", "**"
		case *tg.MessageEntityBotCommand:
			s.prefix, s.suffix = "`", "`"
		case *tg.MessageEntitySpoiler:
			s.prefix, s.suffix = "||", "||"
		default:
			continue
		}
		spans = append(spans, s)
	}
	if len(spans) == 0 {
		return text
	}

	// Outer spans first so nesting closes inside out.
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	opens := make(map[int][]string)
	closes := make(map[int][]string)
	for _, s := range spans {
		opens[s.start] = append(opens[s.start], s.prefix)
		// Prepend so the last-opened span closes first.
		closes[s.end] = append([]string{s.suffix}, closes[s.end]...)
	}

	var b strings.Builder
	for i := 0; i <= len(units); i++ {
		for _, suffix := range closes[i] {
			b.WriteString(suffix)
		}
		for _, prefix := range opens[i] {
			b.WriteString(prefix)
		}
		if i == len(units) {
			break
		}
		if utf16.IsSurrogate(rune(units[i])) && i+1 < len(units) {
			b.WriteRune(utf16.DecodeRune(rune(units[i]), rune(units[i+1])))
			i++
			continue
		}
		b.WriteRune(rune(units[i]))
	}
	return b.String()
}
