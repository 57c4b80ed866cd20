package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"WorumTop/internal/config"
	"WorumTop/internal/domain"
	"WorumTop/internal/infrastructure/fetcher"
	"WorumTop/internal/infrastructure/parser"
	"WorumTop/internal/markup"
)

const origin = "https://www.woman.ru"

// pages serves canned markup by URL and records every request.
type pages struct {
	mu      sync.Mutex
	byURL   map[string]string
	fail    map[string]bool
	fetched []string
}

func (p *pages) Fetch(_ context.Context, url string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched = append(p.fetched, url)
	if p.fail[url] {
		return "", &fetcher.Error{Kind: fetcher.KindNetwork, URL: url, Err: errors.New("connection refused")}
	}
	page, ok := p.byURL[url]
	if !ok {
		return "", &fetcher.Error{Kind: fetcher.KindNetwork, URL: url, Err: errors.New("404 Not Found")}
	}
	return page, nil
}

func (p *pages) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.fetched)
}

func forumConfig() config.ForumConfig {
	return config.ForumConfig{
		Origin:      origin,
		ForumPath:   "/forum/",
		ImageScheme: "https:",
		Selectors:   config.DefaultSelectors(),
	}
}

func newSelector(p *pages, opts ...SelectorOption) *Selector {
	cfg := forumConfig()
	return NewSelector(SelectorDeps{Fetcher: p, Parser: parser.NewForum(cfg), Forum: cfg}, opts...)
}

func listing(items ...[2]string) string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, it := range items {
		b.WriteString(`<li class="list-item"><a class="list-item__link" href="` + it[1] + `"><span class="list-item__title">` + it[0] + `</span></a></li>`)
	}
	b.WriteString("</ul>")
	return b.String()
}

func detail(text string) string {
	return `<div class="card_topic-start"><div class="card__comment">` + text + `</div></div>`
}

func topPages() *pages {
	return &pages{byURL: map[string]string{
		origin + "/forum/?sort=1d": listing([2]string{"A", "/t/1"}, [2]string{"B", "/t/2"}),
		origin + "/t/1":            detail("hello world"),
		origin + "/t/2":            detail("second"),
	}}
}

func TestTopOfTheDayEndToEnd(t *testing.T) {
	t.Parallel()

	p := topPages()
	digest := NewDigest(newSelector(p), NewPresenter(markup.HTML{}))

	msg, err := digest.Respond(context.Background(), domain.Ranked(domain.Day, 1))
	require.NoError(t, err)

	assert.Equal(t, `Thread of the day: <a href="https://www.woman.ru/t/1">A</a>`+"\n\n<i>hello world</i>", msg.Body)
	assert.Equal(t, "HTML", msg.ParseMode)
	assert.NotContains(t, p.fetched, origin+"/t/2")
}

func TestLongExcerptIsTruncated(t *testing.T) {
	t.Parallel()

	p := topPages()
	p.byURL[origin+"/t/1"] = detail(strings.Repeat("x", 200))

	for _, d := range []markup.Dialect{markup.HTML{}, markup.Markdown{}} {
		msg, err := NewDigest(newSelector(p), NewPresenter(d)).Respond(context.Background(), domain.Ranked(domain.Day, 1))
		require.NoError(t, err)
		assert.Contains(t, msg.Body, d.Italic(strings.Repeat("x", 140)+"…"), d.Name())
		assert.NotContains(t, msg.Body, strings.Repeat("x", 141), d.Name())
	}
}

func TestRankedKeepsOrderAndClampsToAvailable(t *testing.T) {
	t.Parallel()

	p := topPages()
	sel, err := newSelector(p).Select(context.Background(), domain.Ranked(domain.Day, 5))
	require.NoError(t, err)
	require.Len(t, sel.Threads, 2)
	assert.Equal(t, "A", sel.Threads[0].Summary.Title)
	assert.Equal(t, "hello world", sel.Threads[0].Excerpt.Text)
	assert.Equal(t, "B", sel.Threads[1].Summary.Title)
	assert.Equal(t, "second", sel.Threads[1].Excerpt.Text)

	body := NewPresenter(markup.HTML{}).Render(sel).Body
	first := strings.Index(body, "Rank 1 thread:\n")
	second := strings.Index(body, "Rank 2 thread:\n")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.True(t, strings.HasSuffix(body, "<i>second</i>\n\n"))
}

func TestRankedTakesFirstNInDocumentOrder(t *testing.T) {
	t.Parallel()

	p := &pages{byURL: map[string]string{
		origin + "/forum/?sort=1d": listing(
			[2]string{"one", "/t/1"}, [2]string{"two", "/t/2"}, [2]string{"three", "/t/3"},
			[2]string{"four", "/t/4"}, [2]string{"five", "/t/5"},
		),
		origin + "/t/1": detail("1"),
		origin + "/t/2": detail("2"),
		origin + "/t/3": detail("3"),
	}}

	sel, err := newSelector(p).Select(context.Background(), domain.Ranked(domain.Day, 3))
	require.NoError(t, err)
	require.Len(t, sel.Threads, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, want, sel.Threads[i].Summary.Title)
		assert.Equal(t, origin+"/t/"+sel.Threads[i].Excerpt.Text, sel.Threads[i].Summary.Link)
	}
	assert.NotContains(t, p.fetched, origin+"/t/4")
}

func TestRankedUsesWindowListing(t *testing.T) {
	t.Parallel()

	p := &pages{byURL: map[string]string{
		origin + "/forum/?sort=all": listing([2]string{"Old", "/t/9"}),
		origin + "/t/9":             detail(""),
	}}
	msg, err := NewDigest(newSelector(p), NewPresenter(markup.HTML{})).Respond(context.Background(), domain.Ranked(domain.AllTime, 1))
	require.NoError(t, err)

	assert.Equal(t, `Top thread of all time: <a href="https://www.woman.ru/t/9">Old</a>`+"\n\n", msg.Body)
	assert.Equal(t, origin+"/forum/?sort=all", p.fetched[0])
}

func TestRankedOutcomes(t *testing.T) {
	t.Parallel()

	t.Run("empty listing", func(t *testing.T) {
		p := &pages{byURL: map[string]string{origin + "/forum/?sort=7d": "<p>redesigned</p>"}}
		_, err := newSelector(p).Select(context.Background(), domain.Ranked(domain.Week, 1))
		assert.ErrorIs(t, err, ErrNoThreadsAvailable)
		assert.Equal(t, NoticeNothingFound, NoticeFor(err))
	})

	t.Run("listing unreachable", func(t *testing.T) {
		p := &pages{fail: map[string]bool{origin + "/forum/?sort=30d": true}}
		_, err := newSelector(p).Select(context.Background(), domain.Ranked(domain.Month, 1))
		assert.ErrorIs(t, err, ErrFetchFailed)
		assert.True(t, fetcher.IsKind(err, fetcher.KindNetwork))
		assert.Equal(t, NoticeUnavailable, NoticeFor(err))
	})

	t.Run("detail unreachable", func(t *testing.T) {
		p := topPages()
		p.fail = map[string]bool{origin + "/t/2": true}
		_, err := newSelector(p).Select(context.Background(), domain.Ranked(domain.Day, 2))
		assert.ErrorIs(t, err, ErrPartialFetchFailed)
		assert.Equal(t, NoticeUnavailable, NoticeFor(err))
	})
}

const rubricIndex = `
<div class="rubrics__section" data-section="psycho">
  <h3 class="rubrics__title">Psychology</h3>
  <a class="rubrics__link" href="/psycho/medley8/">Relationships</a>
  <a class="rubrics__link" href="/psycho/medley9/">Family</a>
</div>`

func TestRandomFromRubric(t *testing.T) {
	t.Parallel()

	p := &pages{byURL: map[string]string{
		origin + "/forum/":          rubricIndex,
		origin + "/psycho/medley9/": listing([2]string{"Ten", "/t/10"}, [2]string{"Eleven", "/t/11"}),
		origin + "/t/11":            detail("random pick"),
	}}

	var calls []int
	last := func(n int) int {
		calls = append(calls, n)
		return n - 1
	}

	msg, err := NewDigest(newSelector(p, WithIntn(last)), NewPresenter(markup.HTML{})).Respond(context.Background(), domain.Random())
	require.NoError(t, err)

	assert.Equal(t, []int{2, 2}, calls)
	assert.Equal(t, "<b>Psychology</b> | Family\n"+`<a href="https://www.woman.ru/t/11">Eleven</a>`+"\n\n<i>random pick</i>", msg.Body)
	assert.Empty(t, msg.ImageURL)
}

func TestRandomOutcomes(t *testing.T) {
	t.Parallel()

	never := func(int) int {
		t.Error("intn must not be called for an empty range")
		return 0
	}

	t.Run("no rubrics", func(t *testing.T) {
		p := &pages{byURL: map[string]string{origin + "/forum/": "<div></div>"}}
		_, err := newSelector(p, WithIntn(never)).Select(context.Background(), domain.Random())
		assert.ErrorIs(t, err, ErrNoRubricsAvailable)
	})

	t.Run("empty rubric", func(t *testing.T) {
		p := &pages{byURL: map[string]string{
			origin + "/forum/":          rubricIndex,
			origin + "/psycho/medley8/": "<p>empty</p>",
		}}
		first := func(n int) int { return 0 }
		_, err := newSelector(p, WithIntn(first)).Select(context.Background(), domain.Random())
		assert.ErrorIs(t, err, ErrNoThreadsInRubric)
		assert.Equal(t, NoticeNothingFound, NoticeFor(err))
	})

	t.Run("rubric unreachable", func(t *testing.T) {
		p := &pages{byURL: map[string]string{origin + "/forum/": rubricIndex}}
		_, err := newSelector(p, WithIntn(func(int) int { return 0 })).Select(context.Background(), domain.Random())
		assert.ErrorIs(t, err, ErrFetchFailed)
	})
}

func TestPresenterDegradesGracefully(t *testing.T) {
	t.Parallel()

	p := NewPresenter(markup.Markdown{})
	msg := p.Render(Selection{
		Request: domain.Ranked(domain.Week, 1),
		Threads: []Thread{{Summary: domain.ThreadSummary{Title: "a_b", Link: origin + "/t/1", ImageURL: "https://img/x.jpg"}}},
	})

	assert.Equal(t, "Thread of the week: [a_b](https://www.woman.ru/t/1)\n\n", msg.Body)
	assert.Equal(t, "Markdown", msg.ParseMode)
	assert.Equal(t, "https://img/x.jpg", msg.ImageURL)

	assert.True(t, p.Render(Selection{Request: domain.Ranked(domain.Day, 1)}).Empty())

	noLink := p.Render(Selection{
		Request: domain.Ranked(domain.Month, 1),
		Threads: []Thread{{Summary: domain.ThreadSummary{Title: "Untitled"}}},
	})
	assert.Equal(t, "Thread of the month: Untitled\n\n", noLink.Body)
}

func TestMarkdownBodyKeepsControlsOutsideEntities(t *testing.T) {
	t.Parallel()

	p := &pages{byURL: map[string]string{
		origin + "/forum/?sort=1d": listing([2]string{"my_topic [draft]", "/t/1"}),
		origin + "/t/1":            detail("snake_case and *stars*"),
	}}

	msg, err := NewDigest(newSelector(p), NewPresenter(markup.Markdown{})).Respond(context.Background(), domain.Ranked(domain.Day, 1))
	require.NoError(t, err)

	assert.Equal(t,
		"Thread of the day: [my_topic (draft)](https://www.woman.ru/t/1)\n\n_snake_\\__case and _\\*_stars_\\*",
		msg.Body,
	)
	assert.Equal(t, "Markdown", msg.ParseMode)
}

// outbox is a Sender that can be told to fail specific chats.
type outbox struct {
	mu       sync.Mutex
	failFor  map[domain.Destination]bool
	attempts []domain.Destination
	sent     map[domain.Destination]domain.Message
}

func (o *outbox) Send(_ context.Context, dest domain.Destination, msg domain.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, dest)
	if o.failFor[dest] {
		return errors.New("chat not found")
	}
	if o.sent == nil {
		o.sent = map[domain.Destination]domain.Message{}
	}
	o.sent[dest] = msg
	return nil
}

type registry struct {
	dests []domain.Destination
}

func (r *registry) Add(dest domain.Destination)    { r.dests = append(r.dests, dest) }
func (r *registry) Snapshot() []domain.Destination { return append([]domain.Destination(nil), r.dests...) }

func TestBroadcastContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	p := topPages()
	out := &outbox{failFor: map[domain.Destination]bool{1: true}}
	reg := &registry{dests: []domain.Destination{1, 2}}

	b := NewBroadcaster(NewDigest(newSelector(p), NewPresenter(markup.HTML{})), reg, out, nil)
	report, err := b.Broadcast(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.Destination{1, 2}, out.attempts)
	assert.Contains(t, out.sent[2].Body, "Thread of the day")
	assert.Equal(t, 2, report.Destinations)
	assert.Equal(t, 1, report.Delivered)
	assert.Equal(t, 1, report.Failed)
	assert.NotEmpty(t, report.RunID)
}

func TestBroadcastRendersOnce(t *testing.T) {
	t.Parallel()

	p := topPages()
	out := &outbox{}
	reg := &registry{dests: []domain.Destination{5, 6, 5}}

	b := NewBroadcaster(NewDigest(newSelector(p), NewPresenter(markup.HTML{})), reg, out, nil)
	_, err := b.Broadcast(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, p.calls(), "one listing and one detail page")
	assert.Equal(t, []domain.Destination{5, 6, 5}, out.attempts)
}

func TestBroadcastWithoutSubscribersFetchesNothing(t *testing.T) {
	t.Parallel()

	p := topPages()
	out := &outbox{}
	b := NewBroadcaster(NewDigest(newSelector(p), NewPresenter(markup.HTML{})), &registry{}, out, nil)

	report, err := b.Broadcast(context.Background())
	require.NoError(t, err)
	assert.Zero(t, p.calls())
	assert.Empty(t, out.attempts)
	assert.Zero(t, report.Destinations)
}

func TestBroadcastSelectionFailureSendsNothing(t *testing.T) {
	t.Parallel()

	p := &pages{}
	out := &outbox{}
	b := NewBroadcaster(NewDigest(newSelector(p), NewPresenter(markup.HTML{})), &registry{dests: []domain.Destination{1}}, out, nil)

	_, err := b.Broadcast(context.Background())
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Empty(t, out.attempts)
}

func TestCommands(t *testing.T) {
	t.Parallel()

	reg := &registry{}
	presenter := NewPresenter(markup.HTML{})
	cmds := NewCommands(NewDigest(newSelector(topPages()), presenter), presenter, reg, nil)
	ctx := context.Background()

	top := cmds.Handle(ctx, domain.RankedToday, "2", 42)
	assert.Contains(t, top.Body, "Rank 2 thread:")

	single := cmds.Handle(ctx, domain.RankedToday, "junk", 42)
	assert.True(t, strings.HasPrefix(single.Body, "Thread of the day: "))

	week := cmds.Handle(ctx, domain.RankedThisWeek, "", 42)
	assert.Equal(t, NoticeUnavailable, week.Body)

	sub := cmds.Handle(ctx, domain.Subscribe, "", 42)
	assert.Equal(t, subscribedText, sub.Body)
	assert.Equal(t, []domain.Destination{42}, reg.dests)

	help := cmds.Handle(ctx, domain.Help, "", 42)
	assert.Contains(t, help.Body, "/random")
	assert.Equal(t, "HTML", help.ParseMode)
}
