package audio

import (
	"errors"
	"fmt"
	"math"
)

// Phase is a stage of the envelope.
type Phase int

const (
	PhaseAttack Phase = iota
	PhaseDecay
	PhaseSustain
	PhaseRelease
)

func (p Phase) String() string {
	switch p {
	case PhaseAttack:
		return "attack"
	case PhaseDecay:
		return "decay"
	case PhaseSustain:
		return "sustain"
	case PhaseRelease:
		return "release"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

var ErrInvalidEnvelope = errors.New("invalid envelope")

const (
	defaultAttack           = 0.2
	defaultDecay            = 0.1
	defaultSustain          = 0.2
	defaultRelease          = 1.2
	defaultAttackSharpness  = 1000
	defaultDecaySharpness   = 0.5
	defaultSustainLevel     = 0.9
	defaultReleaseSharpness = 0.5

	releaseFloor = 0.01 // level reached at the end of the release time
)

// Envelope is an exponential ADSR envelope generator. It produces one amplitude
// multiplier per call to Next. A disabled envelope always returns 1.
//
// All times are in seconds. The sustain time is the minimum time spent in the
// sustain phase before a set release gate is honored.
type Envelope struct {
	sampleRate float64

	attack  float64
	decay   float64
	sustain float64
	release float64

	attackSharpness  float64
	decaySharpness   float64
	releaseSharpness float64
	sustainLevel     float64

	releaseGate bool
	enabled     bool

	phase        Phase
	phaseSamples int
	last         float64
}

// NewEnvelope returns a disabled envelope with the default times and shape.
func NewEnvelope(sampleRate float64) *Envelope {
	return NewEnvelopeTimes(sampleRate, defaultAttack, defaultDecay, defaultSustain, defaultRelease)
}

func NewEnvelopeTimes(sampleRate, attack, decay, sustain, release float64) *Envelope {
	return &Envelope{
		sampleRate:       sampleRate,
		attack:           attack,
		decay:            decay,
		sustain:          sustain,
		release:          release,
		attackSharpness:  defaultAttackSharpness,
		decaySharpness:   defaultDecaySharpness,
		releaseSharpness: defaultReleaseSharpness,
		sustainLevel:     defaultSustainLevel,
		phase:            PhaseAttack,
	}
}

// Reset restarts the envelope from the beginning of the attack phase.
func (e *Envelope) Reset() {
	e.SetPhase(PhaseAttack)
	e.last = 0
}

// SetPhase jumps to the start of phase p.
func (e *Envelope) SetPhase(p Phase) {
	e.phase = p
	e.phaseSamples = 0
}

func (e *Envelope) Phase() Phase { return e.phase }

// PhaseSamples returns the number of samples produced since entering the current phase.
func (e *Envelope) PhaseSamples() int { return e.phaseSamples }

// Next advances the envelope by one sample and returns its value.
func (e *Envelope) Next() float64 {
	if !e.enabled {
		return 1.0
	}

	var out float64
	e.phaseSamples++
	n := float64(e.phaseSamples)
	switch e.phase {
	case PhaseAttack:
		out = e.attackValue(n)
		if n > e.sampleRate*e.attack {
			e.SetPhase(PhaseDecay)
		}
	case PhaseDecay:
		out = e.decayValue(n)
		if n > e.sampleRate*e.decay {
			e.SetPhase(PhaseSustain)
		}
	case PhaseSustain:
		out = e.sustainLevel
		if e.releaseGate && n > e.sampleRate*e.sustain {
			e.SetPhase(PhaseRelease)
		}
	case PhaseRelease:
		out = e.releaseValue(n)
	}
	e.last = out
	return out
}

// Value returns the value of the most recent sample, or 1 if the envelope is
// disabled.
func (e *Envelope) Value() float64 {
	if !e.enabled {
		return 1.0
	}
	return e.last
}

// fadeOut moves the envelope into a release of the given length that starts at
// its current value. It reports false, leaving the envelope untouched, when the
// envelope is disabled or already at or below the release floor, in which case
// the caller should stop the sound outright.
func (e *Envelope) fadeOut(release float64) bool {
	level := e.Value()
	if !e.enabled || !(level > releaseFloor) {
		return false
	}
	e.releaseGate = true
	e.sustainLevel = level
	e.release = release
	e.SetPhase(PhaseRelease)
	return true
}

func (e *Envelope) attackValue(n float64) float64 {
	return math.Exp(-e.attackSharpness/n + e.attackSharpness/(e.attack*e.sampleRate))
}

func (e *Envelope) decayValue(n float64) float64 {
	return math.Exp(math.Log(e.sustainLevel) * n / (e.decay * e.sampleRate))
}

func (e *Envelope) releaseValue(n float64) float64 {
	return e.sustainLevel * math.Exp(n*(math.Log(releaseFloor)-math.Log(e.sustainLevel))/(e.release*e.sampleRate))
}

// Process multiplies buf in place by successive envelope values.
func (e *Envelope) Process(buf []float64) {
	for n := range buf {
		buf[n] *= e.Next()
	}
}

// Done reports whether the release phase has lasted longer than the release time.
func (e *Envelope) Done() bool {
	return e.phase == PhaseRelease && float64(e.phaseSamples) > e.sampleRate*e.release
}

// Validate checks that the envelope produces finite values. Next does not depend
// on it: an invalid envelope just yields NaN or Inf.
func (e *Envelope) Validate() error {
	if !(e.sampleRate > 0) {
		return fmt.Errorf("%w: sample rate %v", ErrInvalidEnvelope, e.sampleRate)
	}
	for _, d := range []struct {
		name string
		val  float64
	}{
		{"attack", e.attack},
		{"decay", e.decay},
		{"sustain", e.sustain},
		{"release", e.release},
	} {
		if !(d.val > 0) {
			return fmt.Errorf("%w: %s time must be positive: %v", ErrInvalidEnvelope, d.name, d.val)
		}
	}
	if !(e.sustainLevel > 0 && e.sustainLevel <= 1) {
		return fmt.Errorf("%w: sustain level out of range (0, 1]: %v", ErrInvalidEnvelope, e.sustainLevel)
	}
	return nil
}

func (e *Envelope) SampleRate() float64 { return e.sampleRate }

func (e *Envelope) Attack() float64 { return e.attack }
func (e *Envelope) SetAttack(t float64) { e.attack = t }

func (e *Envelope) Decay() float64 { return e.decay }
func (e *Envelope) SetDecay(t float64) { e.decay = t }

func (e *Envelope) Sustain() float64 { return e.sustain }
func (e *Envelope) SetSustain(t float64) { e.sustain = t }

func (e *Envelope) Release() float64 { return e.release }
func (e *Envelope) SetRelease(t float64) { e.release = t }

func (e *Envelope) AttackSharpness() float64 { return e.attackSharpness }
func (e *Envelope) SetAttackSharpness(s float64) { e.attackSharpness = s }

// DecaySharpness has no effect on the decay curve, which is determined by the
// sustain level and decay time.
func (e *Envelope) DecaySharpness() float64 { return e.decaySharpness }
func (e *Envelope) SetDecaySharpness(s float64) { e.decaySharpness = s }

// ReleaseSharpness has no effect on the release curve, which always ends near
// 1% of the sustain level.
func (e *Envelope) ReleaseSharpness() float64 { return e.releaseSharpness }
func (e *Envelope) SetReleaseSharpness(s float64) { e.releaseSharpness = s }

func (e *Envelope) SustainLevel() float64 { return e.sustainLevel }
func (e *Envelope) SetSustainLevel(level float64) { e.sustainLevel = level }

// ReleaseGate reports whether the note has been released.
func (e *Envelope) ReleaseGate() bool { return e.releaseGate }
func (e *Envelope) SetReleaseGate(on bool) { e.releaseGate = on }
func (e *Envelope) Enabled() bool { return e.enabled }
func (e *Envelope) SetEnabled(enabled bool) { e.enabled = enabled }
