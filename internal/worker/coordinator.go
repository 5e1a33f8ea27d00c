package worker

import (
	"context"
	"sync"
)

// The delivery worker lives outside the foreground UI's lifecycle: it is
// the context that still handles a notification click after every page has
// been torn down. It is modeled as a message-passing actor so its contract
// can be exercised with synthetic events, without a real worker runtime.

type State string

const (
	StateInstalling State = "installing"
	StateInstalled  State = "installed"
	StateActivated  State = "activated"
	StateRunning    State = "running"
)

type EventType string

const (
	EventInstall           EventType = "install"
	EventActivate          EventType = "activate"
	EventNotificationClick EventType = "notificationclick"
	EventMessage           EventType = "message"
)

// MessageSkipWaiting tells a freshly installed worker to take over without
// waiting for every old foreground context to close. Users keep tabs open
// indefinitely; delivery fixes must still reach them.
const MessageSkipWaiting = "SKIP_WAITING"

type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
}

type EffectType string

const (
	EffectSkipWaiting       EffectType = "skip-waiting"
	EffectClaimClients      EffectType = "claim-clients"
	EffectCloseNotification EffectType = "close-notification"
	EffectFocusClient       EffectType = "focus-client"
	EffectOpenWindow        EffectType = "open-window"
)

type Effect struct {
	Type   EffectType `json:"type"`
	Target string     `json:"target,omitempty"` // client id or window path
}

// Clients is the worker's view of open foreground contexts.
type Clients interface {
	Open() []string
}

type Coordinator struct {
	clients Clients

	mu    sync.Mutex
	state State

	inbox   chan Event
	effects chan Effect
}

func NewCoordinator(clients Clients) *Coordinator {
	return &Coordinator{
		clients: clients,
		state:   StateInstalling,
		inbox:   make(chan Event, 16),
		effects: make(chan Effect, 16),
	}
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies one inbound event and returns the effects the host must
// carry out, in order.
func (c *Coordinator) Dispatch(ev Event) []Effect {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch ev.Type {
	case EventInstall:
		if c.state == StateInstalling {
			c.state = StateInstalled
		}
		return nil

	case EventMessage:
		if ev.Message == MessageSkipWaiting {
			return []Effect{{Type: EffectSkipWaiting}}
		}
		return nil

	case EventActivate:
		// the activated phase is transient: claiming happens as part of
		// activation so no prior-version worker keeps handling events
		c.state = StateRunning
		return []Effect{{Type: EffectClaimClients}}

	case EventNotificationClick:
		effects := []Effect{{Type: EffectCloseNotification}}
		if open := c.openClients(); len(open) > 0 {
			effects = append(effects, Effect{Type: EffectFocusClient, Target: open[0]})
		} else {
			effects = append(effects, Effect{Type: EffectOpenWindow, Target: "/"})
		}
		return effects
	}

	return nil
}

func (c *Coordinator) openClients() []string {
	if c.clients == nil {
		return nil
	}
	return c.clients.Open()
}

// Send queues an event for the Run loop. Drops when the inbox is full
// rather than blocking the caller.
func (c *Coordinator) Send(ev Event) {
	select {
	case c.inbox <- ev:
	default:
	}
}

// Effects is the outbound side of the actor.
func (c *Coordinator) Effects() <-chan Effect {
	return c.effects
}

// Run pumps inbound events through Dispatch and emits the resulting
// effects until ctx is done.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-c.inbox:
			for _, eff := range c.Dispatch(ev) {
				select {
				case c.effects <- eff:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// MemClients is a process-local registry of foreground contexts, fed by
// the HTTP layer as pages announce themselves.
type MemClients struct {
	mu  sync.Mutex
	ids []string
}

func (m *MemClients) Add(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.ids {
		if v == id {
			return
		}
	}
	m.ids = append(m.ids, id)
}

func (m *MemClients) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.ids[:0]
	for _, v := range m.ids {
		if v != id {
			out = append(out, v)
		}
	}
	m.ids = out
}

func (m *MemClients) Open() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.ids))
	copy(out, m.ids)
	return out
}
