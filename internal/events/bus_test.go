package events

import (
	"testing"

	"github.com/me/patrol/internal/logging"
	"github.com/me/patrol/pkg/model"
)

func TestBus_FanOut(t *testing.T) {
	bus := NewBus(logging.Discard())

	ch1, cancel1 := bus.Subscribe(4)
	ch2, cancel2 := bus.Subscribe(4)
	defer cancel1()
	defer cancel2()

	bus.PublishDeviceReassigned(&model.Device{UUID: "dev1", InstanceName: "Quest-AM"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.Kind != KindDeviceReassigned {
				t.Errorf("subscriber %d: kind = %q, want %q", i, ev.Kind, KindDeviceReassigned)
			}
			if ev.Device == nil || ev.Device.UUID != "dev1" {
				t.Errorf("subscriber %d: unexpected device %+v", i, ev.Device)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}
}

func TestBus_FullSubscriberDoesNotBlock(t *testing.T) {
	bus := NewBus(logging.Discard())

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	// Second publish must not block even though the buffer holds one event.
	bus.PublishInstanceReload(&model.Instance{Name: "Quest-AM"})
	bus.PublishInstanceReload(&model.Instance{Name: "Quest-PM"})

	ev := <-ch
	if ev.Instance.Name != "Quest-AM" {
		t.Errorf("got %q, want Quest-AM", ev.Instance.Name)
	}
	select {
	case ev := <-ch:
		t.Errorf("expected dropped second event, got %+v", ev)
	default:
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	bus := NewBus(logging.Discard())

	ch, cancel := bus.Subscribe(1)
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel should be closed after cancel")
	}

	// Publishing after cancel must not panic.
	bus.PublishDeviceReassigned(&model.Device{UUID: "dev1"})

	// Double cancel is a no-op.
	cancel()
}
