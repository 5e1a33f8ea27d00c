package calendar

import (
	"net/url"
	"strings"
	"time"
)

const (
	ProviderGoogle  = "google"
	ProviderOutlook = "outlook"
)

// ProviderURL builds a web deep-link that pre-fills a new calendar entry.
// Input is sanitized through query encoding, never rejected; an unknown
// provider gets the google form.
func ProviderURL(ev Event, provider string) string {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderOutlook:
		return outlookURL(ev)
	default:
		return googleURL(ev)
	}
}

func googleURL(ev Event) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", ev.Title)
	q.Set("details", ev.Description)
	q.Set("dates", ev.Start.UTC().Format(stampLayout)+"/"+ev.End.UTC().Format(stampLayout))
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

func outlookURL(ev Event) string {
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", ev.Title)
	q.Set("body", ev.Description)
	q.Set("startdt", ev.Start.UTC().Format(time.RFC3339))
	q.Set("enddt", ev.End.UTC().Format(time.RFC3339))
	return "https://outlook.live.com/calendar/0/deeplink/compose?" + q.Encode()
}
