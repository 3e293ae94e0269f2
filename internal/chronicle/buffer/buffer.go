// Package buffer implements the contiguous byte buffer shared by
// Chronicle's producer and consumer sides: a growable byte slice with
// independent read and write cursors.
package buffer

import "github.com/ehsaniara/chronicle/pkg/chronicleerr"

// Buffer is a dynamic byte slice plus two monotonically non-decreasing
// cursors, readPos <= writePos <= len(bytes). It is not safe for
// concurrent use by more than one goroutine at a time — callers
// (AsyncWorker) serialize access with their own mutex.
type Buffer struct {
	bytes    []byte
	writePos int
	readPos  int

	// threshold and linearGrowth implement the growth policy: capacities
	// below threshold double, capacities at or above it grow linearly.
	threshold    int
	linearGrowth int
}

// New returns a Buffer with the given initial capacity and growth
// policy parameters.
func New(initialCapacity, threshold, linearGrowth int) *Buffer {
	return &Buffer{
		bytes:        make([]byte, initialCapacity),
		threshold:    threshold,
		linearGrowth: linearGrowth,
	}
}

// WritableLen returns the number of bytes that can be written before
// Reserve must grow the underlying slice.
func (b *Buffer) WritableLen() int {
	return len(b.bytes) - b.writePos
}

// ReadableLen returns the number of unread bytes currently buffered.
func (b *Buffer) ReadableLen() int {
	return b.writePos - b.readPos
}

// IsEmpty reports whether there is nothing left to read.
func (b *Buffer) IsEmpty() bool {
	return b.readPos == b.writePos
}

// Reserve grows the buffer, if necessary, so that at least n more bytes
// can be written without reallocating again. It is the sole allocation
// site in Buffer: below threshold capacity doubles, at or above it
// grows by linearGrowth.
func (b *Buffer) Reserve(n int) {
	if n <= b.WritableLen() {
		return
	}

	capacity := len(b.bytes)
	var next int
	if capacity < b.threshold {
		next = 2 * capacity
	} else {
		next = capacity + b.linearGrowth
	}
	// A single huge push could still outgrow one doubling/linear step.
	for next-b.writePos < n {
		if next < b.threshold {
			next *= 2
		} else {
			next += b.linearGrowth
		}
		if next == 0 {
			next = n
		}
	}

	grown := make([]byte, next)
	copy(grown, b.bytes)
	b.bytes = grown
}

// Push copies p into the buffer and advances the write cursor. The
// caller must have called Reserve(len(p)) first — Push itself never
// allocates, matching the spec's precondition that Push may only follow
// a Reserve covering its length.
func (b *Buffer) Push(p []byte) {
	if len(p) > b.WritableLen() {
		panic(chronicleerr.ProgrammerErr("buffer: Push without sufficient Reserve"))
	}
	copy(b.bytes[b.writePos:], p)
	b.writePos += len(p)
}

// BeginRead returns the full readable range. The slice aliases the
// buffer's backing array and is only valid until the next mutating
// call.
func (b *Buffer) BeginRead() []byte {
	return b.bytes[b.readPos:b.writePos]
}

// AdvanceWrite moves the write cursor forward by n without copying
// data; used by callers that wrote directly into a range returned by a
// lower-level API. n must not exceed WritableLen().
func (b *Buffer) AdvanceWrite(n int) {
	if n > b.WritableLen() {
		panic(chronicleerr.ProgrammerErr("buffer: AdvanceWrite beyond capacity"))
	}
	b.writePos += n
}

// AdvanceRead moves the read cursor forward by n. n must not exceed
// ReadableLen().
func (b *Buffer) AdvanceRead(n int) {
	if n > b.ReadableLen() {
		panic(chronicleerr.ProgrammerErr("buffer: AdvanceRead beyond readable range"))
	}
	b.readPos += n
}

// Reset rewinds both cursors to zero without shrinking capacity.
func (b *Buffer) Reset() {
	b.writePos = 0
	b.readPos = 0
}

// Swap exchanges the backing slice and both cursors with other. It is
// its own inverse: Swap(other); Swap(other) leaves both buffers
// unchanged.
func (b *Buffer) Swap(other *Buffer) {
	b.bytes, other.bytes = other.bytes, b.bytes
	b.writePos, other.writePos = other.writePos, b.writePos
	b.readPos, other.readPos = other.readPos, b.readPos
}

// Cap returns the current backing capacity, mostly useful for tests
// asserting on the growth policy.
func (b *Buffer) Cap() int {
	return len(b.bytes)
}
