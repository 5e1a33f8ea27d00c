package calendar

import (
	"fmt"
	"strings"
	"time"
)

const stampLayout = "20060102T150405Z"

// UID returns the stable iCalendar UID for a task. Calendar clients use it
// to recognize repeated exports of the same reminder as one event.
func UID(taskID string) string {
	return "task-" + strings.TrimSpace(taskID) + "@nudge"
}

// ICS serializes one event as a minimal VCALENDAR. Output is byte-identical
// for the same event and taskID: DTSTAMP is derived from the event start,
// not the wall clock.
func ICS(ev Event, taskID string) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Nudge//Reminder Export//EN",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + escapeText(UID(taskID)),
		"DTSTAMP:" + ev.Start.UTC().Format(stampLayout),
		"SUMMARY:" + escapeText(ev.Title),
		"DTSTART:" + ev.Start.UTC().Format(stampLayout),
		"DTEND:" + ev.End.UTC().Format(stampLayout),
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		lines = append(lines, "DESCRIPTION:"+escapeText(desc))
	}
	lines = append(lines, "END:VEVENT", "END:VCALENDAR", "")

	return strings.Join(lines, "\r\n")
}

// ArtifactBytes is the downloadable form of the ICS text. This is the
// boundary handed to whatever surface offers the file to the user.
func ArtifactBytes(ev Event, taskID string) []byte {
	return []byte(ICS(ev, taskID))
}

// ParseICS reads back a single-event calendar produced by ICS. It only
// understands the fields this package writes.
func ParseICS(s string) (Event, error) {
	var ev Event
	for _, line := range strings.Split(s, "\r\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "SUMMARY":
			ev.Title = unescapeText(value)
		case "DESCRIPTION":
			ev.Description = unescapeText(value)
		case "DTSTART":
			t, err := time.Parse(stampLayout, value)
			if err != nil {
				return Event{}, fmt.Errorf("bad DTSTART %q: %w", value, err)
			}
			ev.Start = t
		case "DTEND":
			t, err := time.Parse(stampLayout, value)
			if err != nil {
				return Event{}, fmt.Errorf("bad DTEND %q: %w", value, err)
			}
			ev.End = t
		}
	}
	if ev.Start.IsZero() {
		return Event{}, fmt.Errorf("no DTSTART in calendar data")
	}
	return ev, nil
}

func escapeText(s string) string {
	repl := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\r\n", "\\n",
		"\n", "\\n",
		"\r", "\\n",
	)
	return repl.Replace(s)
}

func unescapeText(s string) string {
	repl := strings.NewReplacer(
		"\\n", "\n",
		"\\,", ",",
		"\\;", ";",
		"\\\\", "\\",
	)
	return repl.Replace(s)
}
