// Package progress carries run status from the scraping core to whatever
// renders it. Reporters must never block the caller.
package progress

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Kind tags an Event.
type Kind int

const (
	KindStatus Kind = iota
	KindProgress
	KindMaxProgress
	KindLifecycle
)

func (k Kind) String() string {
	switch k {
	case KindStatus:
		return "status"
	case KindProgress:
		return "progress"
	case KindMaxProgress:
		return "max_progress"
	case KindLifecycle:
		return "lifecycle"
	}
	return "unknown"
}

// Signal is a lifecycle transition.
type Signal string

const (
	Started          Signal = "started"
	ControlsDisabled Signal = "controls-disabled"
	ControlsEnabled  Signal = "controls-enabled"
	Finished         Signal = "finished"
)

// Event is a tagged union: Message for status, Value for progress and
// max-progress, Signal for lifecycle.
type Event struct {
	Kind    Kind
	Message string
	Value   int
	Signal  Signal
}

// Reporter receives run events.
type Reporter interface {
	Status(msg string)
	Progress(n int)
	MaxProgress(n int)
	Lifecycle(s Signal)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Status(string)    {}
func (Nop) Progress(int)     {}
func (Nop) MaxProgress(int)  {}
func (Nop) Lifecycle(Signal) {}

// ChannelReporter publishes events on a buffered channel and drops them when
// the consumer falls behind. Status lines are logged as well.
type ChannelReporter struct {
	mu      sync.RWMutex
	ch      chan Event
	dropped atomic.Int64
	closed  bool
}

// NewChannelReporter creates a reporter with the given buffer size.
func NewChannelReporter(buffer int) *ChannelReporter {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelReporter{ch: make(chan Event, buffer)}
}

// Events is the consumer side.
func (r *ChannelReporter) Events() <-chan Event {
	return r.ch
}

// Dropped returns how many events were discarded because the buffer was full.
func (r *ChannelReporter) Dropped() int64 {
	return r.dropped.Load()
}

// Close ends the stream. Events sent afterwards are dropped.
func (r *ChannelReporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
}

func (r *ChannelReporter) send(e Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return
	}
	select {
	case r.ch <- e:
	default:
		r.dropped.Add(1)
	}
}

func (r *ChannelReporter) Status(msg string) {
	log.Info().Msg(msg)
	r.send(Event{Kind: KindStatus, Message: msg})
}

func (r *ChannelReporter) Progress(n int) {
	r.send(Event{Kind: KindProgress, Value: n})
}

func (r *ChannelReporter) MaxProgress(n int) {
	r.send(Event{Kind: KindMaxProgress, Value: n})
}

func (r *ChannelReporter) Lifecycle(s Signal) {
	log.Debug().Str("signal", string(s)).Msg("Run lifecycle")
	r.send(Event{Kind: KindLifecycle, Signal: s})
}
