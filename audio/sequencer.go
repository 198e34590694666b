package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

// Playable is implemented by instruments that accept notes from the sequencer.
type Playable interface {
	ScheduleNote(offset, pitch, velocity, duration int)
}

// AddNote adds a note at position, measured in beats from the start of the clip.
func (c *Clip) AddNote(position float64, pitch int, length float64) {
	if pitch < 1 || pitch > 127 {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: defaultVelocity,
		length:   length,
	})
}

// AddSteps adds a note for every non-zero step. Each step lasts stepLength beats.
func (c *Clip) AddSteps(steps []int, pitch int, stepLength float64) {
	for n, step := range steps {
		if step != 0 {
			c.AddNote(float64(n)*stepLength, pitch, stepLength)
		}
	}
}

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity int
	length   float64 // note length in beats
}

type Sequencer struct {
	*Props
	bpm         *atomic.Value
	clips       *atomic.Value
	sampleRate  float64
	totalPulses uint64
}

func NewSequencer(props *Props, cfg Config) *Sequencer {
	return &Sequencer{
		Props:      props,
		sampleRate: cfg.SampleRate,
		clips:      props.MustRegister("clips", setClips, make(map[string]*Clip)),
		bpm:        props.MustRegister("bpm", setFloat64(1, 500), 120.0),
	}
}

func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// The number of pulses to schedule for each buffer will be fractional,
	// because the PPQN is not a multiple of the buffer size. Truncating it
	// causes the next pulse to be a few samples early, but it's not noticeable.
	numPulses := int(math.Floor(PPQN * (bpm / 60.) / (s.sampleRate / float64(numSamples))))
	samplesPerPulse := s.sampleRate / ((bpm * PPQN) / 60.)

	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		pos := int(s.totalPulses % uint64(clip.Length)) // current position within the clip
		nextPos := pos + numPulses                      // next position within the clip

		for _, note := range clip.notes {
			duration := int(note.length * s.sampleRate / (bpm / 60.))

			var offset int
			switch {
			case note.pos >= pos && note.pos < nextPos:
				offset = int(math.Round(float64(note.pos-pos) * samplesPerPulse))
			case nextPos > clip.Length && note.pos < nextPos-clip.Length:
				// the clip wraps around within this buffer
				offset = int(math.Round(float64(clip.Length-pos+note.pos) * samplesPerPulse))
			default:
				continue
			}
			clip.instrument.ScheduleNote(offset, note.pitch, note.velocity, duration)
		}
	}
	s.totalPulses += uint64(numPulses)
}

func setClips(v any, dest *atomic.Value) error {
	c, ok := v.(map[string]*Clip)
	if !ok {
		return fmt.Errorf("value is not a map of clips: %v", v)
	}
	dest.Store(c)
	return nil
}
