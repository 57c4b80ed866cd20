package domain

// Destination identifies one chat that receives replies or scheduled pushes.
type Destination int64

// Message is a finished outbound body tagged with the parse mode of the
// dialect it was rendered in.
type Message struct {
	Body      string
	ParseMode string
	ImageURL  string
}

// Empty reports whether there is nothing to send.
func (m Message) Empty() bool {
	return m.Body == ""
}

// Command is an inbound request identifier from the chat transport.
type Command int

const (
	RankedToday Command = iota
	RankedThisWeek
	RankedThisMonth
	RankedAllTime
	RandomRubric
	Subscribe
	Help
)

// Window returns the ranking window of a ranked command.
func (c Command) Window() (Window, bool) {
	switch c {
	case RankedToday:
		return Day, true
	case RankedThisWeek:
		return Week, true
	case RankedThisMonth:
		return Month, true
	case RankedAllTime:
		return AllTime, true
	default:
		return Day, false
	}
}
