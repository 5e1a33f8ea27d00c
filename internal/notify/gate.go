package notify

import (
	"context"
	"sync"
)

// Capability is the process-wide permission to deliver on the primary
// channel.
type Capability string

const (
	CapabilityUnknown    Capability = "unknown"
	CapabilityRequesting Capability = "requesting"
	CapabilityGranted    Capability = "granted"
	CapabilityDenied     Capability = "denied"
)

// Platform answers capability questions for the host environment. A nil
// platform means the host has no notification concept at all.
type Platform interface {
	// Query reports the current setting without user interaction.
	Query() (Capability, error)
	// Prompt asks the user for consent and blocks until they respond or
	// ctx is done.
	Prompt(ctx context.Context) (Capability, error)
}

// Gate owns the capability state machine. It is an injected dependency,
// not a package singleton, so tests substitute a fake Platform.
type Gate struct {
	platform Platform
	notifier Notifier

	mu      sync.Mutex
	pending chan struct{} // non-nil while a prompt is outstanding
	outcome Capability
}

func NewGate(platform Platform, notifier Notifier) *Gate {
	return &Gate{platform: platform, notifier: notifier}
}

// Current reports capability synchronously and never fails: a missing or
// erroring platform reads as denied. While a prompt is outstanding it
// reports requesting.
func (g *Gate) Current() Capability {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending != nil {
		return CapabilityRequesting
	}
	return g.query()
}

func (g *Gate) query() Capability {
	if g.platform == nil {
		return CapabilityDenied
	}
	c, err := g.platform.Query()
	if err != nil {
		return CapabilityDenied
	}
	switch c {
	case CapabilityGranted, CapabilityDenied, CapabilityUnknown:
		return c
	default:
		return CapabilityDenied
	}
}

// Request resolves the capability, prompting the user if it is still
// unknown. Concurrent callers share one outstanding prompt and all observe
// its outcome. The result is always definite; prompt failures read as
// denied rather than surfacing an error.
func (g *Gate) Request(ctx context.Context) Capability {
	g.mu.Lock()
	if g.pending != nil {
		done := g.pending
		g.mu.Unlock()
		select {
		case <-done:
			g.mu.Lock()
			out := g.outcome
			g.mu.Unlock()
			return out
		case <-ctx.Done():
			return CapabilityDenied
		}
	}

	cur := g.query()
	if cur == CapabilityGranted || cur == CapabilityDenied {
		g.mu.Unlock()
		return cur
	}

	done := make(chan struct{})
	g.pending = done
	g.mu.Unlock()

	out := CapabilityDenied
	if g.platform != nil {
		if c, err := g.platform.Prompt(ctx); err == nil && c == CapabilityGranted {
			out = CapabilityGranted
		}
	}

	g.mu.Lock()
	g.outcome = out
	g.pending = nil
	close(done)
	g.mu.Unlock()

	return out
}

// SendTest fires one immediate, non-persisted notification so the user can
// confirm delivery works. Reports false when capability is not granted or
// the send fails.
func (g *Gate) SendTest() bool {
	if g.Current() != CapabilityGranted || g.notifier == nil {
		return false
	}
	err := g.notifier.Send(Notification{
		Title: "Test notification",
		Body:  "Reminders are working.",
	})
	return err == nil
}
