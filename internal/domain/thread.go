package domain

import (
	"errors"
	"strconv"
	"strings"
)

// ThreadSummary is one forum topic as it appears in a listing page.
type ThreadSummary struct {
	Title    string
	Link     string
	ImageURL string
}

// HasImage reports whether the listing carried a preview image.
func (t ThreadSummary) HasImage() bool {
	return t.ImageURL != ""
}

// ThreadExcerpt holds the plain text of a thread's opening post.
type ThreadExcerpt struct {
	Text string
}

// RubricLink is one entry of the forum's subsection index.
type RubricLink struct {
	Label     string
	SectionID string
	Section   string
	Path      string
}

// SectionName returns the display name of the parent section.
func (r RubricLink) SectionName() string {
	if r.Section != "" {
		return r.Section
	}
	return r.SectionID
}

// RubricMemberLink is one thread entry inside a rubric page.
type RubricMemberLink struct {
	Title string
	Path  string
}

// Window is the ranking period of a listing page.
type Window int

const (
	Day Window = iota
	Week
	Month
	AllTime
)

// Sort returns the value of the listing's sort query parameter.
func (w Window) Sort() string {
	switch w {
	case Week:
		return "7d"
	case Month:
		return "30d"
	case AllTime:
		return "all"
	default:
		return "1d"
	}
}

func (w Window) String() string {
	switch w {
	case Week:
		return "week"
	case Month:
		return "month"
	case AllTime:
		return "all"
	default:
		return "day"
	}
}

// ParseWindow maps a CLI/config spelling to a Window.
func ParseWindow(value string) (Window, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "day", "1d", "today", "top":
		return Day, true
	case "week", "7d":
		return Week, true
	case "month", "30d":
		return Month, true
	case "all", "ever", "alltime":
		return AllTime, true
	default:
		return Day, false
	}
}

// RequestKind distinguishes the two selection shapes.
type RequestKind int

const (
	RankedTopN RequestKind = iota
	RandomFromRubric
)

const (
	MinCount = 1
	MaxCount = 5
)

// SelectionRequest asks the selector for either the top-N threads of a window
// or a single random thread from a random rubric.
type SelectionRequest struct {
	Kind   RequestKind
	Window Window
	Count  int
}

// Ranked builds a top-N request; count is clamped into [MinCount, MaxCount].
func Ranked(window Window, count int) SelectionRequest {
	return SelectionRequest{Kind: RankedTopN, Window: window, Count: clamp(count)}
}

// Random builds a random-from-rubric request.
func Random() SelectionRequest {
	return SelectionRequest{Kind: RandomFromRubric, Count: 1}
}

// ClampCount parses the trailing count argument of a command. Unparsable input
// defaults to MinCount, out-of-range values are clamped.
func ClampCount(arg string) int {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return MinCount
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return MinCount
	}
	// On ErrRange Atoi returns the nearest representable value, which clamps
	// by sign.
	return clamp(n)
}

func clamp(n int) int {
	if n < MinCount {
		return MinCount
	}
	if n > MaxCount {
		return MaxCount
	}
	return n
}

// RenderedThread is the unit the presenter concatenates into a message.
// Rank is zero when the thread is rendered without an ordinal.
type RenderedThread struct {
	Rank      int
	TitleLink string
	Excerpt   string
}
