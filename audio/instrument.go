package audio

import (
	"log"
	"math"
	"sync/atomic"
)

const (
	blockSize = 16 // this gives about 0.35ms accuracy for sequenced events
	numVoices = 12

	defaultVelocity = 100
	maxVelocity     = 127
)

const (
	BackendPortAudio = "portaudio"
	BackendOto       = "oto"
)

// Config holds the stream settings shared by all devices.
type Config struct {
	SampleRate float64
	BufferSize int
	Backend    string
}

var DefaultConfig = Config{
	SampleRate: 44100,
	BufferSize: 512,
	Backend:    BackendPortAudio,
}

type voiceState int

const (
	stateFree voiceState = iota
	stateActive
	stateReleased
)

type eventKind int

const (
	eventNoteOn eventKind = iota
	eventNoteOff
)

type event struct {
	kind     eventKind
	pitch    int
	offset   int
	velocity int
	duration int // in samples, negative until note off
}

type Voice interface {
	// PlayNote starts a note. A negative duration holds the note until Release.
	PlayNote(pitch, velocity, duration int)
	// Release lets the note on pitch go into its release phase.
	Release(pitch int)
	Process(buf []float64)
	State() voiceState
	// Notify is called for every new note before a voice is picked for it.
	Notify(pitch int)
}

// Instrument mixes its voices. Notes arrive on two single producer queues: one
// filled by the sequencer on the audio thread, one by the control thread.
type Instrument struct {
	*Props
	voices    []Voice
	scheduled *eventBuffer
	control   *eventBuffer
	buf       []float64
	level     *atomic.Value
}

const propLevel = "level"

func NewInstrument(props *Props, cfg Config, voices []Voice) *Instrument {
	instrument := &Instrument{
		scheduled: newEventBuffer(256),
		control:   newEventBuffer(256),
		buf:       make([]float64, cfg.BufferSize),
		Props:     props,
		level:     props.MustRegister(propLevel, setLevel, 0.),
	}
	instrument.voices = append(instrument.voices, voices...)
	return instrument
}

// ScheduleNote plays a note at offset samples into the next processed buffer. Only
// one goroutine may call it, normally the sequencer on the audio thread.
func (i *Instrument) ScheduleNote(offset, pitch, velocity, duration int) {
	i.scheduled.push(event{
		kind:     eventNoteOn,
		pitch:    pitch,
		offset:   offset,
		velocity: velocity,
		duration: duration,
	})
}

// PlayNote plays a note of duration samples at the start of the next buffer. It is
// meant for a single control goroutine, like NoteOn and NoteOff.
func (i *Instrument) PlayNote(pitch, velocity, duration int) {
	i.control.push(event{
		kind:     eventNoteOn,
		pitch:    pitch,
		velocity: velocity,
		duration: duration,
	})
}

// NoteOn starts a note that is held until NoteOff is called for the same pitch.
func (i *Instrument) NoteOn(pitch, velocity int) {
	i.PlayNote(pitch, velocity, -1)
}

func (i *Instrument) NoteOff(pitch int) {
	i.control.push(event{kind: eventNoteOff, pitch: pitch})
}

func (i *Instrument) Process(samples [][]float32) {
	frames := len(samples[0])
	if len(i.buf) < frames {
		i.buf = make([]float64, frames)
	}
	for n := 0; n < frames; n += blockSize {
		end := n + blockSize
		if end > frames {
			end = frames
		}
		i.control.iter(end, i.dispatch)
		i.scheduled.iter(end, i.dispatch)
		for _, voice := range i.voices {
			if voice.State() == stateFree {
				continue
			}
			voice.Process(i.buf[n:end])
		}
	}
	db := i.level.Load().(float64)
	gain := math.Pow(10, db/20.0)
	for n := range i.buf[:frames] {
		sample := float32(gain * i.buf[n])
		for c := range samples {
			samples[c][n] += sample
		}
		i.buf[n] = 0
	}
}

func (i *Instrument) dispatch(ev event) {
	if ev.kind == eventNoteOff {
		for _, voice := range i.voices {
			voice.Release(ev.pitch)
		}
		return
	}
	for _, voice := range i.voices {
		voice.Notify(ev.pitch)
	}
	voice := i.findFreeVoice()
	if voice == nil {
		// TODO: steal the oldest released voice instead of dropping the note
		log.Printf("instrument: no free voice available")
		return
	}
	voice.PlayNote(ev.pitch, ev.velocity, ev.duration)
}

func (i *Instrument) findFreeVoice() Voice {
	for _, voice := range i.voices {
		if voice.State() == stateFree {
			return voice
		}
	}
	return nil
}

// activeVoices returns the number of voices that are not free.
func (i *Instrument) activeVoices() int {
	var n int
	for _, voice := range i.voices {
		if voice.State() != stateFree {
			n++
		}
	}
	return n
}

func velocityGain(velocity int) float64 {
	if velocity <= 0 || velocity > maxVelocity {
		velocity = defaultVelocity
	}
	return float64(velocity) / maxVelocity
}
