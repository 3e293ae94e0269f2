// Package worker implements AsyncWorker: the bounded double-buffered
// producer/consumer pipeline at the heart of Chronicle. A single drain
// goroutine owns the consumer buffer; any number of producer goroutines
// may call Push concurrently.
package worker

import (
	"sync"

	"github.com/ehsaniara/chronicle/internal/chronicle/buffer"
)

// Mode selects how Push behaves when the producer buffer is full.
type Mode int

const (
	// Safe blocks the caller until capacity frees up or Stop is called.
	// The producer buffer never grows beyond its initial capacity.
	Safe Mode = iota
	// Unsafe never blocks: Reserve grows the producer buffer to accept
	// whatever is pushed, trading memory for latency.
	Unsafe
)

// SinkFunc consumes one contiguous readable range handed to it by the
// drain goroutine. It must not retain the slice past the call — the
// consumer buffer is reset immediately after the call returns.
type SinkFunc func(readable []byte)

// AsyncWorker is the producer/consumer pipeline described in §4.2 of
// the spec: two Buffers, a mutex, two condition variables, and a single
// drain goroutine.
type AsyncWorker struct {
	mode Mode
	sink SinkFunc

	mu       sync.Mutex
	prodCond *sync.Cond
	consCond *sync.Cond
	producer *buffer.Buffer
	consumer *buffer.Buffer
	stopping bool

	done chan struct{}
}

// Config bundles the buffer sizing parameters shared by the producer
// and consumer buffers.
type Config struct {
	InitialCapacity int
	Threshold       int
	LinearGrowth    int
}

// New starts an AsyncWorker's drain goroutine and returns the worker.
// sink is invoked once per drain cycle with the consumer buffer's
// readable range.
func New(cfg Config, mode Mode, sink SinkFunc) *AsyncWorker {
	w := &AsyncWorker{
		mode:     mode,
		sink:     sink,
		producer: buffer.New(cfg.InitialCapacity, cfg.Threshold, cfg.LinearGrowth),
		consumer: buffer.New(cfg.InitialCapacity, cfg.Threshold, cfg.LinearGrowth),
		done:     make(chan struct{}),
	}
	w.prodCond = sync.NewCond(&w.mu)
	w.consCond = sync.NewCond(&w.mu)

	go w.drain()

	return w
}

// Push appends b to the producer buffer and wakes the drain goroutine.
// In Safe mode it blocks while the producer buffer cannot hold len(b)
// and the worker hasn't been stopped; in Unsafe mode it never blocks.
// Push returns immediately, without writing, once Stop has been called.
func (w *AsyncWorker) Push(b []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.mode == Safe {
		for !w.stopping && len(b) > w.producer.WritableLen() {
			w.prodCond.Wait()
		}
	}
	if w.stopping {
		return
	}

	w.producer.Reserve(len(b))
	w.producer.Push(b)
	w.consCond.Signal()
}

// Stop marks the worker as stopping, wakes the drain goroutine and any
// blocked producers, and waits for the drain goroutine to exit after it
// has flushed whatever remains in the producer buffer. Stop is
// idempotent.
func (w *AsyncWorker) Stop() {
	w.mu.Lock()
	w.stopping = true
	w.mu.Unlock()

	w.consCond.Broadcast()
	w.prodCond.Broadcast()

	<-w.done // closed once the drain goroutine exits; safe to wait on repeatedly
}

func (w *AsyncWorker) drain() {
	defer close(w.done)

	for {
		w.mu.Lock()
		for !w.stopping && w.producer.IsEmpty() {
			w.consCond.Wait()
		}

		if w.stopping && w.producer.IsEmpty() {
			w.mu.Unlock()
			return
		}

		w.producer.Swap(w.consumer)
		if w.mode == Safe {
			w.prodCond.Signal()
		}
		w.mu.Unlock()

		w.sink(w.consumer.BeginRead())
		w.consumer.Reset()
	}
}
