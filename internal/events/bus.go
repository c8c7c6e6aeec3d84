package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Delivery is asynchronous: each
// subscriber runs on its own goroutine and sees events in publish order.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish publishes an event to all subscribers of its concrete type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case PowerChangedEvent:
		event.Publish(b.dispatcher, e)
	case BrightnessChangedEvent:
		event.Publish(b.dispatcher, e)
	case EffectChangedEvent:
		event.Publish(b.dispatcher, e)
	case ColorChangedEvent:
		event.Publish(b.dispatcher, e)
	case CommandRejectedEvent:
		event.Publish(b.dispatcher, e)
	case FrameErrorEvent:
		event.Publish(b.dispatcher, e)
	case TuningReloadedEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type named by its parameter and
// returns the unsubscribe function. Unknown handler types get a no-op.
//
//	unsub := bus.Subscribe(func(e events.PowerChangedEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(PowerChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(BrightnessChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(EffectChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ColorChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CommandRejectedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(FrameErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(TuningReloadedEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// SubscribeState forwards every state-changing event (power, brightness,
// effect, color) to ch without blocking; events are dropped when ch is full.
func (b *Bus) SubscribeState(ch chan<- Event) func() {
	unsubs := []func(){
		SubscribeToChannel[PowerChangedEvent](b, ch),
		SubscribeToChannel[BrightnessChangedEvent](b, ch),
		SubscribeToChannel[EffectChangedEvent](b, ch),
		SubscribeToChannel[ColorChangedEvent](b, ch),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

// SubscribeToChannel forwards events of type T to ch without blocking.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- Event) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
