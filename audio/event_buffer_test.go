package audio

import (
	"runtime"
	"sync"
	"testing"
	"time"
)

func TestEventBufferOffset(t *testing.T) {
	buf := newEventBuffer(8)
	buf.push(event{offset: 2})
	buf.push(event{offset: 3})

	var events []event
	buf.iter(2, func(ev event) {
		events = append(events, ev)
	})
	if want, got := 0, len(events); want != got {
		t.Errorf("expected zero events, got %v", got)
	}
	if want, got := 2, buf.len(); want != got {
		t.Errorf("expected %v queued events, got %v", want, got)
	}

	buf.iter(4, func(ev event) {
		events = append(events, ev)
	})
	if want, got := 2, len(events); want != got {
		t.Errorf("expected %v events, got %v", want, got)
	}
	if want, got := 0, buf.len(); want != got {
		t.Errorf("expected empty buffer, got %v events", got)
	}
}

func TestEventBufferNoteOff(t *testing.T) {
	buf := newEventBuffer(4)
	buf.push(event{kind: eventNoteOn, pitch: 60, duration: -1})
	buf.push(event{kind: eventNoteOff, pitch: 60})

	var kinds []eventKind
	buf.iter(-1, func(ev event) {
		kinds = append(kinds, ev.kind)
	})
	if len(kinds) != 2 || kinds[0] != eventNoteOn || kinds[1] != eventNoteOff {
		t.Errorf("wrong event order: %v", kinds)
	}
}

func TestEventBufferSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for a size that is not a power of 2")
		}
	}()
	newEventBuffer(6)
}

func TestEventBufferOrder(t *testing.T) {
	buf := newEventBuffer(8)
	const numEvents = 100_000

	done := make(chan []int)
	go func() {
		offsets := make([]int, 0, numEvents)
		for len(offsets) < numEvents {
			buf.iter(-1, func(ev event) {
				offsets = append(offsets, ev.offset)
			})
			runtime.Gosched()
		}
		done <- offsets
	}()

	for n := 0; n < numEvents; n++ {
		buf.push(event{offset: n})
	}
	offsets := <-done
	for n, offset := range offsets {
		if offset != n {
			t.Fatalf("event %d: want offset %v, got %v", n, n, offset)
		}
	}
}

// countingVoice counts the notes dispatched to it and never becomes active.
type countingVoice struct {
	notes, releases int
}

func (v *countingVoice) PlayNote(pitch, velocity, duration int) { v.notes++ }
func (v *countingVoice) Release(pitch int) { v.releases++ }
func (v *countingVoice) Process(buf []float64) {}
func (v *countingVoice) State() voiceState { return stateFree }
func (v *countingVoice) Notify(pitch int) {}

func TestInstrumentConcurrentProducers(t *testing.T) {
	voice := &countingVoice{}
	inst := NewInstrument(NewProps(), testConfig, []Voice{voice})

	const perProducer = 20_000
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for n := 0; n < perProducer; n++ {
			inst.ScheduleNote(n%blockSize, 36, 100, 10)
		}
	}()
	go func() {
		defer wg.Done()
		for n := 0; n < perProducer; n++ {
			if n%2 == 0 {
				inst.NoteOn(60, 100)
			} else {
				inst.NoteOff(60)
			}
		}
	}()

	wantNotes, wantReleases := perProducer+perProducer/2, perProducer/2
	buf := [][]float32{make([]float32, blockSize)}
	deadline := time.Now().Add(30 * time.Second)
	for voice.notes < wantNotes || voice.releases < wantReleases {
		if time.Now().After(deadline) {
			t.Fatalf("events lost: got %v notes and %v releases, want %v and %v",
				voice.notes, voice.releases, wantNotes, wantReleases)
		}
		inst.Process(buf)
		runtime.Gosched()
	}
	wg.Wait()
	inst.Process(buf)

	if want, got := wantNotes, voice.notes; want != got {
		t.Errorf("want %v notes, got %v", want, got)
	}
	if want, got := wantReleases, voice.releases; want != got {
		t.Errorf("want %v releases, got %v", want, got)
	}
}
