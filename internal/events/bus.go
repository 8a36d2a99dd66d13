package events

import (
	"log/slog"
	"sync"

	"github.com/me/patrol/pkg/model"
)

// Kind identifies the type of a scheduler event.
type Kind string

const (
	// KindDeviceReassigned means a device's instance assignment changed
	// and is already durably stored.
	KindDeviceReassigned Kind = "device_reassigned"

	// KindInstanceReload means an instance's accumulated state was
	// cleared and its job controller should discard cached state.
	KindInstanceReload Kind = "instance_reload"
)

// Event is a message published by the scheduler for external subsystems
// (job controllers, instance managers, the SSE stream).
type Event struct {
	Kind     Kind            `json:"kind"`
	Device   *model.Device   `json:"device,omitempty"`
	Instance *model.Instance `json:"instance,omitempty"`
}

// Bus is a non-blocking fan-out event bus. Publishing never blocks the
// scheduler: a subscriber whose buffer is full loses the event, with a
// warning logged.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	logger *slog.Logger
}

// NewBus creates an event bus.
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]chan Event),
		logger: logger.With("component", "events"),
	}
}

// Subscribe registers a subscriber with the given channel buffer size.
// The returned cancel func removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// PublishDeviceReassigned emits a device-reload event.
func (b *Bus) PublishDeviceReassigned(d *model.Device) {
	b.publish(Event{Kind: KindDeviceReassigned, Device: d})
}

// PublishInstanceReload emits an instance-reload event.
func (b *Bus) PublishInstanceReload(inst *model.Instance) {
	b.publish(Event{Kind: KindInstanceReload, Instance: inst})
}

func (b *Bus) publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			b.logger.Warn("subscriber buffer full, event dropped", "subscriber", id, "kind", ev.Kind)
		}
	}
}
