package audio

import (
	"fmt"
	"io"
	"math"

	"github.com/youpy/go-wav"
)

// Render runs the sink for the given number of frames without an output device,
// one buffer at a time, and returns the mixed channels.
func (s *Sink) Render(frames int) [][]float32 {
	out := make([][]float32, numChannels)
	for c := range out {
		out[c] = make([]float32, frames)
	}
	bufferSize := s.cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultConfig.BufferSize
	}
	buf := make([][]float32, numChannels)
	for n := 0; n < frames; n += bufferSize {
		end := n + bufferSize
		if end > frames {
			end = frames
		}
		for c := range buf {
			buf[c] = out[c][n:end]
		}
		s.Process(buf)
	}
	return out
}

const bitsPerSample = 16

// WriteWAV encodes channels as 16 bit PCM. Only the first two channels are written.
func WriteWAV(w io.Writer, channels [][]float32, sampleRate float64) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels to write")
	}
	numCh := len(channels)
	if numCh > 2 {
		numCh = 2
	}
	frames := len(channels[0])
	samples := make([]wav.Sample, frames)
	for n := range samples {
		for c := 0; c < numCh; c++ {
			samples[n].Values[c] = toInt16(channels[c][n])
		}
	}
	wr := wav.NewWriter(w, uint32(frames), uint16(numCh), uint32(sampleRate), bitsPerSample)
	if err := wr.WriteSamples(samples); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	return nil
}

func toInt16(v float32) int {
	const scale = 1<<15 - 1
	return int(math.Max(-1, math.Min(1, float64(v))) * scale)
}

// EnvelopePoint is a single envelope sample.
type EnvelopePoint struct {
	Value float64
	Phase Phase
}

// TraceEnvelope runs env for n samples and records each value along with the phase
// it was computed in. If releaseAt is non-negative the release gate is set after
// that many samples.
func TraceEnvelope(env *Envelope, n, releaseAt int) []EnvelopePoint {
	points := make([]EnvelopePoint, n)
	for i := range points {
		if i == releaseAt {
			env.SetReleaseGate(true)
		}
		phase := env.Phase()
		points[i] = EnvelopePoint{Value: env.Next(), Phase: phase}
	}
	return points
}

// EnvelopeFor returns a fresh envelope configured from the envelope properties of
// a device, or ErrInvalidEnvelope if the device has none or they are invalid. The
// suffix selects a per-key envelope, such as ".60" for a sampler key.
func EnvelopeFor(d Device, cfg Config, suffix string) (*Envelope, error) {
	env := NewEnvelope(cfg.SampleRate)
	setters := []struct {
		key string
		set func(float64)
	}{
		{propEnvAttack, env.SetAttack},
		{propEnvDecay, env.SetDecay},
		{propEnvSustain, env.SetSustain},
		{propEnvRelease, env.SetRelease},
		{propEnvLevel, env.SetSustainLevel},
		{propEnvAttackSharpness, env.SetAttackSharpness},
		{propEnvDecaySharpness, env.SetDecaySharpness},
		{propEnvReleaseSharpness, env.SetReleaseSharpness},
	}
	for _, s := range setters {
		v, err := d.Get(s.key + suffix)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a number: %v", ErrInvalidEnvelope, s.key, v)
		}
		s.set(f)
	}
	v, err := d.Get(propEnvEnabled + suffix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	enabled, _ := v.(bool)
	env.SetEnabled(enabled)
	if err := env.Validate(); err != nil {
		return nil, err
	}
	return env, nil
}
