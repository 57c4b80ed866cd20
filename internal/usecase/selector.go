package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"

	"WorumTop/internal/config"
	"WorumTop/internal/domain"
	"WorumTop/internal/ports"
)

// Outcome errors of a selection. Callers map them to user notices with
// errors.Is; fetch failures also wrap the underlying *fetcher.Error.
var (
	ErrNoThreadsAvailable = errors.New("no threads available")
	ErrNoRubricsAvailable = errors.New("no rubrics available")
	ErrNoThreadsInRubric  = errors.New("no threads in rubric")
	ErrPartialFetchFailed = errors.New("thread page fetch failed")
	ErrFetchFailed        = errors.New("forum page fetch failed")
)

// Thread is a selected summary paired with its opening-post excerpt.
type Thread struct {
	Summary domain.ThreadSummary
	Excerpt domain.ThreadExcerpt
}

// Selection is the raw result of one request, before rendering.
type Selection struct {
	Request domain.SelectionRequest
	Threads []Thread
	// Rubric is set for random selections only.
	Rubric domain.RubricLink
}

// SelectorDeps groups collaborators for the selector.
type SelectorDeps struct {
	Fetcher ports.Fetcher
	Parser  ports.ForumParser
	Forum   config.ForumConfig
	Logger  *slog.Logger
}

// Selector resolves selection requests against the live forum.
type Selector struct {
	fetcher ports.Fetcher
	parser  ports.ForumParser
	forum   config.ForumConfig
	logger  *slog.Logger
	intn    func(n int) int
}

// SelectorOption tweaks a Selector.
type SelectorOption func(*Selector)

// WithIntn replaces the randomness source; intn must return a value in [0, n).
func WithIntn(intn func(n int) int) SelectorOption {
	return func(s *Selector) {
		if intn != nil {
			s.intn = intn
		}
	}
}

// NewSelector wires dependencies into a Selector.
func NewSelector(deps SelectorDeps, opts ...SelectorOption) *Selector {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Selector{
		fetcher: deps.Fetcher,
		parser:  deps.Parser,
		forum:   deps.Forum,
		logger:  logger.With("component", "selector"),
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Select dispatches on the request kind.
func (s *Selector) Select(ctx context.Context, req domain.SelectionRequest) (Selection, error) {
	if req.Kind == domain.RandomFromRubric {
		return s.random(ctx, req)
	}
	return s.ranked(ctx, req)
}

func (s *Selector) ranked(ctx context.Context, req domain.SelectionRequest) (Selection, error) {
	sel := Selection{Request: req}

	listingURL := s.forum.ListingURL(req.Window.Sort())
	page, err := s.fetcher.Fetch(ctx, listingURL)
	if err != nil {
		s.logger.Warn("listing fetch failed", "window", req.Window, "url", listingURL, "error", err)
		return sel, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	summaries := s.parser.Listing(page)
	if len(summaries) == 0 {
		s.logger.Error("listing has no threads", "window", req.Window, "url", listingURL)
		return sel, ErrNoThreadsAvailable
	}

	n := min(req.Count, len(summaries))
	if n < domain.MinCount {
		n = domain.MinCount
	}
	summaries = summaries[:n]

	threads, err := s.withExcerpts(ctx, summaries)
	if err != nil {
		return sel, err
	}
	sel.Threads = threads

	s.logger.Debug("ranked selection ready", "window", req.Window, "threads", len(threads))
	return sel, nil
}

func (s *Selector) random(ctx context.Context, req domain.SelectionRequest) (Selection, error) {
	sel := Selection{Request: req}

	rootURL := s.forum.RootURL()
	root, err := s.fetcher.Fetch(ctx, rootURL)
	if err != nil {
		s.logger.Warn("forum root fetch failed", "url", rootURL, "error", err)
		return sel, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	rubrics := s.parser.RubricLinks(root)
	i, ok := s.pick(len(rubrics))
	if !ok {
		s.logger.Error("forum root has no rubrics", "url", rootURL)
		return sel, ErrNoRubricsAvailable
	}
	rubric := rubrics[i]
	sel.Rubric = rubric

	rubricURL := s.parser.Resolve(rubric.Path)
	page, err := s.fetcher.Fetch(ctx, rubricURL)
	if err != nil {
		s.logger.Warn("rubric fetch failed", "rubric", rubric.Label, "url", rubricURL, "error", err)
		return sel, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	members := s.parser.RubricMembers(page)
	j, ok := s.pick(len(members))
	if !ok {
		s.logger.Error("rubric has no threads", "rubric", rubric.Label, "url", rubricURL)
		return sel, ErrNoThreadsInRubric
	}
	member := members[j]

	threads, err := s.withExcerpts(ctx, []domain.ThreadSummary{{
		Title: member.Title,
		Link:  s.parser.Resolve(member.Path),
	}})
	if err != nil {
		return sel, err
	}
	sel.Threads = threads

	s.logger.Debug("random selection ready", "section", rubric.SectionName(), "rubric", rubric.Label)
	return sel, nil
}

// withExcerpts fetches every thread page concurrently. Results are stored by
// index so the output keeps the input order.
func (s *Selector) withExcerpts(ctx context.Context, summaries []domain.ThreadSummary) ([]Thread, error) {
	threads := make([]Thread, len(summaries))

	g, gctx := errgroup.WithContext(ctx)
	for i, summary := range summaries {
		threads[i].Summary = summary
		g.Go(func() error {
			page, err := s.fetcher.Fetch(gctx, summary.Link)
			if err != nil {
				return err
			}
			threads[i].Excerpt = s.parser.Excerpt(page)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Warn("thread page fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPartialFetchFailed, err)
	}
	return threads, nil
}

func (s *Selector) pick(n int) (int, bool) {
	if n <= 0 {
		return 0, false
	}
	return s.intn(n), true
}
