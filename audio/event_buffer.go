package audio

import (
	"runtime"
	"sync/atomic"
)

// eventBuffer is a lock-free spsc queue of note events. The control thread pushes,
// the audio thread iterates.
type eventBuffer struct {
	events      []event
	mask        uint32
	read, write atomic.Uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events: make([]event, size),
		mask:   uint32(size - 1),
	}
}

// push blocks while the buffer is full.
func (b *eventBuffer) push(ev event) {
	write := b.write.Load()
	for write-b.read.Load() == uint32(len(b.events)) {
		runtime.Gosched()
	}
	b.events[write&b.mask] = ev
	b.write.Store(write + 1)
}

// iter calls f for queued events with an offset before untilOffset, in push order.
// An untilOffset of -1 drains the buffer.
func (b *eventBuffer) iter(untilOffset int, f func(event)) {
	read := b.read.Load()
	write := b.write.Load()
	for ; read != write; read++ {
		ev := b.events[read&b.mask]
		if untilOffset != -1 && ev.offset >= untilOffset {
			break
		}
		f(ev)
	}
	b.read.Store(read)
}

func (b *eventBuffer) len() int {
	return int(b.write.Load() - b.read.Load())
}
