package calendar

import "time"

// DefaultDuration is applied when the source task carries no end time.
const DefaultDuration = 30 * time.Minute

// Event is a provider-agnostic calendar entry. It has no identity beyond
// its fields; building it twice from the same inputs yields the same value.
type Event struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
}

// FromReminder derives the fallback event for a reminder. Instants are
// normalized to UTC so serialization is stable regardless of the zone the
// due time was stored in.
func FromReminder(title, description string, dueAt time.Time) Event {
	start := dueAt.UTC()
	return Event{
		Title:       title,
		Description: description,
		Start:       start,
		End:         start.Add(DefaultDuration),
	}
}

// FromSpan builds an event with an explicit end instant. End values at or
// before start fall back to the default duration.
func FromSpan(title, description string, start, end time.Time) Event {
	ev := FromReminder(title, description, start)
	if end.After(start) {
		ev.End = end.UTC()
	}
	return ev
}
