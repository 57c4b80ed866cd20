// Package markup renders text for the Telegram parse modes the bot supports.
package markup

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	HTMLName     = "html"
	MarkdownName = "markdown"
)

// Dialect is one outbound markup convention. Bold, Italic and Link expect
// text that is already escaped for the dialect; Link makes its own label safe.
type Dialect interface {
	Name() string
	ParseMode() string
	Escape(text string) string
	Bold(escaped string) string
	Italic(escaped string) string
	Link(href, label string) string
}

// HTML is Telegram's HTML parse mode with entity escaping.
type HTML struct{}

var _ Dialect = HTML{}

func (HTML) Name() string      { return HTMLName }
func (HTML) ParseMode() string { return tgbotapi.ModeHTML }

func (HTML) Escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeHTML, text)
}

func (HTML) Bold(escaped string) string {
	return "<b>" + escaped + "</b>"
}

func (HTML) Italic(escaped string) string {
	return "<i>" + escaped + "</i>"
}

func (h HTML) Link(href, label string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, h.Escape(href), h.Escape(label))
}

// Markdown is Telegram's legacy Markdown parse mode; only _ * ` [ need escaping.
type Markdown struct{}

var _ Dialect = Markdown{}

func (Markdown) Name() string      { return MarkdownName }
func (Markdown) ParseMode() string { return tgbotapi.ModeMarkdown }

func (Markdown) Escape(text string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, text)
}

func (Markdown) Bold(escaped string) string {
	return markdownEntity("*", escaped)
}

func (Markdown) Italic(escaped string) string {
	return markdownEntity("_", escaped)
}

// Link keeps the URL literal; a closing parenthesis would end the entity early.
// The label is taken verbatim up to the first ']', so brackets in it become
// parentheses and nothing is escaped.
func (Markdown) Link(href, label string) string {
	href = strings.NewReplacer("(", "%28", ")", "%29").Replace(href)
	label = strings.NewReplacer("[", "(", "]", ")").Replace(label)
	return "[" + label + "](" + href + ")"
}

// markdownEntity wraps escaped text in marker. Legacy Markdown has no escapes
// inside an entity, so each escaped control character is emitted between two
// closed entities: snake\_case becomes _snake_\__case_.
func markdownEntity(marker, escaped string) string {
	var (
		b   strings.Builder
		run strings.Builder
	)
	flush := func() {
		if run.Len() > 0 {
			b.WriteString(marker + run.String() + marker)
			run.Reset()
		}
	}

	for i := 0; i < len(escaped); i++ {
		if escaped[i] == '\\' && i+1 < len(escaped) && strings.IndexByte(markdownControls, escaped[i+1]) >= 0 {
			flush()
			b.WriteString(escaped[i : i+2])
			i++
			continue
		}
		run.WriteByte(escaped[i])
	}
	flush()

	return b.String()
}

const markdownControls = "_*`["
