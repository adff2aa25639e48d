// Package recorder copies simulation frames to durable outputs on worker
// goroutines so the frame loop never waits on disk.
package recorder

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/quillaja/revolver/physics"
	"github.com/quillaja/revolver/simulation"
)

// Frame is one recorded snapshot.
type Frame struct {
	Number uint64
	Bodies []physics.View
}

// Sink stores frames. WriteFrame may be called from several workers at once.
type Sink interface {
	WriteFrame(f *Frame) error
	Close() error
}

// Recorder feeds frames from the simulation to a sink through a buffered
// channel drained by worker goroutines. When the channel is full the
// simulation blocks until a worker catches up.
type Recorder struct {
	name  string
	sink  Sink
	every uint64
	log   *slog.Logger

	ch chan *Frame
	wg sync.WaitGroup

	mu     sync.Mutex
	err    error
	failed bool
}

// New starts workers goroutines writing every Nth frame to sink.
func New(name string, sink Sink, workers, queue, every int, log *slog.Logger) *Recorder {
	if workers < 1 {
		workers = 1
	}
	if queue < 0 {
		queue = 0
	}
	if every < 1 {
		every = 1
	}
	if log == nil {
		log = slog.Default()
	}

	r := &Recorder{
		name:  name,
		sink:  sink,
		every: uint64(every),
		log:   log.With("sink", name),
		ch:    make(chan *Frame, queue),
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

// ObserveFrame implements simulation.Observer.
func (r *Recorder) ObserveFrame(res simulation.FrameResult, views []physics.View) {
	if res.Frame%r.every != 0 {
		return
	}
	r.ch <- &Frame{Number: res.Frame, Bodies: views}
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for f := range r.ch {
		r.mu.Lock()
		failed := r.failed
		r.mu.Unlock()
		if failed {
			continue // drain
		}

		if err := r.sink.WriteFrame(f); err != nil {
			r.log.Error("recording stopped", "frame", f.Number, "error", err)
			r.mu.Lock()
			r.failed = true
			r.err = err
			r.mu.Unlock()
		}
	}
}

// Close waits for queued frames to be written and closes the sink. It
// returns the first write error, or the close error.
func (r *Recorder) Close() error {
	close(r.ch)
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.err, r.sink.Close())
}
