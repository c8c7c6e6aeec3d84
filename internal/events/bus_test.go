package events

import (
	"sync"
	"testing"
	"time"

	"github.com/smazurov/lightnode/internal/color"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan PowerChangedEvent, 1)

	unsub := bus.Subscribe(func(e PowerChangedEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(PowerChangedEvent{On: true, Brightness: 70})

	got := <-received
	if !got.On || got.Brightness != 70 {
		t.Errorf("got %+v, want On=true Brightness=70", got)
	}
}

func TestBus_MultipleSubscribers(_ *testing.T) {
	bus := New()
	received1 := make(chan EffectChangedEvent, 1)
	received2 := make(chan EffectChangedEvent, 1)

	unsub1 := bus.Subscribe(func(e EffectChangedEvent) { received1 <- e })
	defer unsub1()
	unsub2 := bus.Subscribe(func(e EffectChangedEvent) { received2 <- e })
	defer unsub2()

	bus.Publish(EffectChangedEvent{Effect: "sparkle"})

	<-received1
	<-received2
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan BrightnessChangedEvent, 1)

	unsub := bus.Subscribe(func(e BrightnessChangedEvent) { received <- e })

	bus.Publish(BrightnessChangedEvent{Brightness: 10})
	<-received

	unsub()

	bus.Publish(BrightnessChangedEvent{Brightness: 20})
	select {
	case <-received:
		t.Fatal("received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	colorReceived := make(chan bool, 1)
	rejectReceived := make(chan bool, 1)

	unsub1 := bus.Subscribe(func(_ ColorChangedEvent) { colorReceived <- true })
	defer unsub1()
	unsub2 := bus.Subscribe(func(_ CommandRejectedEvent) { rejectReceived <- true })
	defer unsub2()

	bus.Publish(ColorChangedEvent{Color: color.RGB{R: 255}})
	<-colorReceived

	select {
	case <-rejectReceived:
		t.Fatal("rejection subscriber received a color event")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)
	unsub := bus.Subscribe(func(_ FrameErrorEvent) { receivedCh <- true })
	defer unsub()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(FrameErrorEvent{Outcome: "render_gap", Timestamp: time.Now()})
			}
		}()
	}
	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_SubscribeState(t *testing.T) {
	bus := New()
	ch := make(chan Event, 8)
	unsub := bus.SubscribeState(ch)
	defer unsub()

	bus.Publish(PowerChangedEvent{On: true})
	bus.Publish(CommandRejectedEvent{Command: "select_effect"})
	bus.Publish(EffectChangedEvent{Effect: "solid color"})

	seen := map[uint32]bool{}
	for range 2 {
		select {
		case e := <-ch:
			seen[e.Type()] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for state event")
		}
	}
	if !seen[TypePowerChanged] || !seen[TypeEffectChanged] {
		t.Errorf("seen = %v, want power and effect events", seen)
	}

	select {
	case e := <-ch:
		t.Errorf("unexpected event %T", e)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_UnknownHandler(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	if unsub == nil {
		t.Fatal("Subscribe() returned nil for unknown handler type")
	}
	unsub()
}
