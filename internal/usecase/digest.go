package usecase

import (
	"context"
	"errors"

	"WorumTop/internal/domain"
)

// User-facing notices for selections that produced nothing to show.
const (
	NoticeNothingFound = "Nothing found on the forum right now, try again later."
	NoticeUnavailable  = "The forum is not responding right now, try again later."
)

// Responder turns a selection request into a finished message.
type Responder interface {
	Respond(ctx context.Context, req domain.SelectionRequest) (domain.Message, error)
}

// Digest couples selection and rendering.
type Digest struct {
	selector  *Selector
	presenter *Presenter
}

var _ Responder = (*Digest)(nil)

// NewDigest returns a Digest rendering with the presenter's dialect.
func NewDigest(selector *Selector, presenter *Presenter) *Digest {
	return &Digest{selector: selector, presenter: presenter}
}

// Respond selects and renders. Outcome errors are returned unchanged.
func (d *Digest) Respond(ctx context.Context, req domain.SelectionRequest) (domain.Message, error) {
	sel, err := d.selector.Select(ctx, req)
	if err != nil {
		return domain.Message{}, err
	}
	return d.presenter.Render(sel), nil
}

// NoticeFor picks the neutral notice text for an outcome error.
func NoticeFor(err error) string {
	switch {
	case errors.Is(err, ErrNoThreadsAvailable),
		errors.Is(err, ErrNoRubricsAvailable),
		errors.Is(err, ErrNoThreadsInRubric):
		return NoticeNothingFound
	default:
		return NoticeUnavailable
	}
}
