package usecase

import (
	"fmt"
	"strings"

	"WorumTop/internal/domain"
	"WorumTop/internal/markup"
)

// Presenter renders selections into message bodies of one markup dialect.
type Presenter struct {
	dialect markup.Dialect
}

// NewPresenter falls back to HTML when no dialect is given.
func NewPresenter(d markup.Dialect) *Presenter {
	if d == nil {
		d = markup.HTML{}
	}
	return &Presenter{dialect: d}
}

// Dialect returns the dialect used for rendering.
func (p *Presenter) Dialect() markup.Dialect {
	return p.dialect
}

// Render never fails: missing titles, links or excerpts degrade to shorter
// output.
func (p *Presenter) Render(sel Selection) domain.Message {
	if len(sel.Threads) == 0 {
		return domain.Message{}
	}

	msg := domain.Message{ParseMode: p.dialect.ParseMode()}

	switch {
	case sel.Request.Kind == domain.RandomFromRubric:
		msg.Body = p.random(sel.Rubric, p.thread(0, sel.Threads[0]))
	case sel.Request.Count > 1:
		var b strings.Builder
		for i, t := range sel.Threads {
			rt := p.thread(i+1, t)
			fmt.Fprintf(&b, "Rank %d thread:\n%s\n\n%s\n\n", rt.Rank, rt.TitleLink, rt.Excerpt)
		}
		msg.Body = b.String()
	default:
		rt := p.thread(0, sel.Threads[0])
		msg.Body = fmt.Sprintf("%s: %s\n\n%s", p.dialect.Escape(WindowLabel(sel.Request.Window)), rt.TitleLink, rt.Excerpt)
		msg.ImageURL = sel.Threads[0].Summary.ImageURL
	}

	return msg
}

// Notice renders a short plain sentence in the presenter's dialect.
func (p *Presenter) Notice(text string) domain.Message {
	return domain.Message{Body: p.dialect.Escape(text), ParseMode: p.dialect.ParseMode()}
}

func (p *Presenter) random(rubric domain.RubricLink, rt domain.RenderedThread) string {
	return fmt.Sprintf("%s | %s\n%s\n\n%s",
		p.dialect.Bold(p.dialect.Escape(rubric.SectionName())),
		p.dialect.Escape(rubric.Label),
		rt.TitleLink,
		rt.Excerpt,
	)
}

func (p *Presenter) thread(rank int, t Thread) domain.RenderedThread {
	label := t.Summary.Title
	if label == "" {
		label = t.Summary.Link
	}

	rt := domain.RenderedThread{Rank: rank}
	if t.Summary.Link != "" {
		rt.TitleLink = p.dialect.Link(t.Summary.Link, label)
	} else {
		rt.TitleLink = p.dialect.Escape(label)
	}

	if excerpt := markup.Normalize(t.Excerpt.Text, p.dialect); excerpt != "" {
		rt.Excerpt = p.dialect.Italic(excerpt)
	}
	return rt
}

// WindowLabel is the heading of a single-thread ranked message.
func WindowLabel(w domain.Window) string {
	switch w {
	case domain.Week:
		return "Thread of the week"
	case domain.Month:
		return "Thread of the month"
	case domain.AllTime:
		return "Top thread of all time"
	default:
		return "Thread of the day"
	}
}
