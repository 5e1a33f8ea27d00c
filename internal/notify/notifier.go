package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Notification is one user-visible message on the primary channel.
type Notification struct {
	TaskID string `json:"task_id,omitempty"`
	Title  string `json:"title"`
	Body   string `json:"body,omitempty"`
}

// Notifier delivers on the primary channel. Send returns an error only when
// delivery definitely did not happen; callers treat that as a signal to take
// the fallback path, never as a crash.
type Notifier interface {
	Send(n Notification) error
}

// LogNotifier writes the notification to the process log. Useful in
// development and as the default sender.
type LogNotifier struct{}

func (LogNotifier) Send(n Notification) error {
	log.Printf("[REMINDER] task=%s title=%q body=%q\n", n.TaskID, n.Title, n.Body)
	return nil
}

// WebhookNotifier POSTs the notification as JSON to a configured endpoint,
// e.g. an ntfy/gotify-style relay in front of the user's devices.
type WebhookNotifier struct {
	URL    string
	Client *http.Client
}

func (w *WebhookNotifier) Send(n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	client := w.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	resp, err := client.Post(w.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %s", resp.Status)
	}
	return nil
}

// ConfigPlatform derives capability from deployment configuration: a
// configured, enabled sender reads as granted. Prompt resolves immediately
// since there is no interactive consent surface on a server.
type ConfigPlatform struct {
	Enabled bool
}

func (p ConfigPlatform) Query() (Capability, error) {
	if p.Enabled {
		return CapabilityGranted, nil
	}
	return CapabilityDenied, nil
}

func (p ConfigPlatform) Prompt(ctx context.Context) (Capability, error) {
	return p.Query()
}
