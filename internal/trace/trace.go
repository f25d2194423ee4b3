// Package trace emits a best-effort, line-oriented record of every timer
// transition. It is for observability only: nothing in the control path
// depends on a trace being delivered.
package trace

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/sweeney/once-timer/internal/logic"
)

// Sink receives transitions.
type Sink interface {
	Trace(tr logic.Transition)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(tr logic.Transition)

// Trace calls f(tr).
func (f SinkFunc) Trace(tr logic.Transition) { f(tr) }

// FormatLine renders a transition as a single line without a trailing newline.
func FormatLine(tr logic.Transition) string {
	line := fmt.Sprintf("%s %s %s->%s target=%d->%d elapsed=%d->%d",
		tr.Cause, tr.Event, tr.From, tr.To,
		tr.TargetBefore, tr.TargetAfter,
		tr.ElapsedBefore, tr.ElapsedAfter)
	if tr.Step != 0 {
		line += fmt.Sprintf(" step=%+d", tr.Step)
	}
	if tr.Ignored {
		line += " ignored"
	}
	return line
}

// Writer writes one timestamped line per transition.
type Writer struct {
	logger *log.Logger
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer, prefix string) *Writer {
	return &Writer{logger: log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)}
}

// Trace writes the transition.
func (w *Writer) Trace(tr logic.Transition) {
	w.logger.Print(FormatLine(tr))
}

// Multi fans a transition out to every sink in order.
type Multi []Sink

// Trace forwards tr to all sinks.
func (m Multi) Trace(tr logic.Transition) {
	for _, s := range m {
		s.Trace(tr)
	}
}

// Async decouples a possibly slow sink from the control loop. Trace never
// blocks: when the queue is full the transition is dropped and counted.
type Async struct {
	sink    Sink
	ch      chan logic.Transition
	dropped atomic.Uint64
}

// NewAsync creates an Async with room for size queued transitions.
func NewAsync(sink Sink, size int) *Async {
	if size <= 0 {
		size = 64
	}
	return &Async{
		sink: sink,
		ch:   make(chan logic.Transition, size),
	}
}

// Trace queues tr without blocking.
func (a *Async) Trace(tr logic.Transition) {
	select {
	case a.ch <- tr:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns the number of transitions discarded on a full queue.
func (a *Async) Dropped() uint64 {
	return a.dropped.Load()
}

// Run delivers queued transitions until ctx is cancelled, then flushes what
// is already queued for at most flushTimeout.
func (a *Async) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			a.flush(time.Now().Add(flushTimeout))
			return nil
		case tr := <-a.ch:
			a.sink.Trace(tr)
		}
	}
}

const flushTimeout = 2 * time.Second

func (a *Async) flush(deadline time.Time) {
	for time.Now().Before(deadline) {
		select {
		case tr := <-a.ch:
			a.sink.Trace(tr)
		default:
			return
		}
	}
}
