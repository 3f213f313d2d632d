package notify

import (
	"fmt"
	"log"
)

// Sink is a single delivery target (websocket hub, mailer, ...)
type Sink interface {
	Name() string
	Deliver(event Event) error
}

// Fanout delivers events to all registered sinks on a background
// worker. Publish is non-blocking: if the buffer is full the event is
// dropped and logged. A failing sink never affects the others and never
// propagates to the publishing component.
type Fanout struct {
	sinks  []Sink
	events chan Event
	done   chan struct{}
}

func NewFanout(sinks ...Sink) *Fanout {
	f := &Fanout{
		sinks:  sinks,
		events: make(chan Event, 256),
		done:   make(chan struct{}),
	}
	go f.run()
	return f
}

// Publish queues an event for delivery. Fire-and-forget.
func (f *Fanout) Publish(event Event) {
	select {
	case f.events <- event:
	default:
		log.Printf("[Fanout] Buffer full, dropping %s event for auction %d", event.Type, event.AuctionID)
	}
}

// Close stops the delivery worker after draining queued events
func (f *Fanout) Close() {
	close(f.events)
	<-f.done
}

func (f *Fanout) run() {
	defer close(f.done)
	for event := range f.events {
		for _, sink := range f.sinks {
			if err := f.deliver(sink, event); err != nil {
				log.Printf("[Fanout] Delivery to %s failed for auction %d: %v",
					sink.Name(), event.AuctionID, err)
			}
		}
	}
}

// deliver isolates a single sink call, converting panics into errors so
// one broken sink cannot take down the worker.
func (f *Fanout) deliver(sink Sink, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &sinkPanicError{sink: sink.Name(), value: r}
		}
	}()
	return sink.Deliver(event)
}

type sinkPanicError struct {
	sink  string
	value interface{}
}

func (e *sinkPanicError) Error() string {
	return fmt.Sprintf("panic in sink %s: %v", e.sink, e.value)
}
