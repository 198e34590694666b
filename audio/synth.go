package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

const (
	propCutoff   = "cutoff"
	propOsc1Wave = "osc1.wave"
	propOsc2Wave = "osc2.wave"
)

// chokeRelease is the release time used when a new note on the same pitch cuts
// off a sounding voice.
const chokeRelease = 0.001

type synthProps struct {
	cutoff   *atomic.Value
	osc1Wave *atomic.Value
	osc2Wave *atomic.Value
	env      envProps
}

func Synth(props *Props, cfg Config) *Instrument {
	params := synthProps{
		cutoff:   props.MustRegister(propCutoff, setFloat64(20, 20_000), 1000.0),
		osc1Wave: props.MustRegister(propOsc1Wave, setWaveform, "saw"),
		osc2Wave: props.MustRegister(propOsc2Wave, setWaveform, "square"),
		env:      registerEnvProps(props, "", defaultEnv),
	}
	voices := make([]Voice, numVoices)
	for n := range voices {
		voices[n] = &synthVoice{
			sampleRate: cfg.SampleRate,
			params:     params,
			state:      stateFree,
			osc1:       &osc{},
			osc2:       &osc{},
			filter:     &filter{sampleRate: cfg.SampleRate},
			env:        NewEnvelope(cfg.SampleRate),
			buf:        make([]float64, blockSize),
		}
	}
	return NewInstrument(props, cfg, voices)
}

type synthVoice struct {
	sampleRate    float64
	params        synthProps
	buf           []float64
	osc1          *osc
	osc2          *osc
	filter        *filter
	env           *Envelope
	state         voiceState
	pitch         int
	gain          float64
	duration      int
	samplesPlayed int
}

func (v *synthVoice) PlayNote(pitch, velocity, duration int) {
	freq := midiToFreq(pitch)
	v.pitch = pitch
	v.gain = velocityGain(velocity)
	v.duration = duration
	v.samplesPlayed = 0
	v.params.env.load(v.env)
	v.env.SetReleaseGate(false)
	v.env.Reset()
	v.state = stateActive

	phaseDelta := freq * twoPi / v.sampleRate
	v.osc1.setWaveform(v.params.osc1Wave.Load().(string))
	v.osc1.phaseDelta = phaseDelta
	v.osc2.setWaveform(v.params.osc2Wave.Load().(string))
	v.osc2.phaseDelta = phaseDelta
}

func (v *synthVoice) reset() {
	v.pitch = 0
	v.filter.y1 = 0.
	v.filter.y2 = 0.
	v.osc1.phase = 0
	v.osc1.phaseDelta = 0
	v.osc2.phase = 0
	v.osc2.phaseDelta = 0
	v.state = stateFree
}

func (v *synthVoice) Process(buf []float64) {
	v.filter.calculateCoefficients(v.params.cutoff.Load().(float64))
	tmp := v.buf[0:len(buf)]
	v.osc1.process(tmp)
	v.osc2.process(tmp)
	v.filter.process(tmp)
	v.env.Process(tmp)
	for n := range tmp {
		buf[n] += 0.1 * v.gain * tmp[n]
		tmp[n] = 0
	}
	v.samplesPlayed += len(buf)
	if v.state == stateActive && v.duration >= 0 && v.samplesPlayed >= v.duration {
		v.release()
	}
	if v.state == stateReleased && v.finished() {
		v.reset()
	}
}

// release sets the envelope's release gate. The envelope still holds the minimum
// sustain time before it starts releasing.
func (v *synthVoice) release() {
	v.state = stateReleased
	v.env.SetReleaseGate(true)
}

func (v *synthVoice) finished() bool {
	return !v.env.Enabled() || v.env.Done()
}

func (v *synthVoice) Release(pitch int) {
	if v.state == stateActive && v.pitch == pitch {
		v.release()
	}
}

func (v *synthVoice) Notify(pitch int) {
	if v.state != stateFree && v.pitch == pitch {
		v.choke()
	}
}

// choke fades the voice out from its current level. A voice that is already
// close to silent is freed.
func (v *synthVoice) choke() {
	if !v.env.fadeOut(chokeRelease) {
		v.reset()
		return
	}
	v.state = stateReleased
}

func (v *synthVoice) State() voiceState { return v.state }

const (
	twoPi           = 2 * math.Pi
	numCoefficients = 5
)

type osc struct {
	phase      float64
	phaseDelta float64
	fn         func(float64) float64
}

func (o *osc) process(buf []float64) {
	for n := range buf {
		buf[n] += o.fn(o.phase)
		o.phase += o.phaseDelta
		if o.phase >= twoPi {
			o.phase -= twoPi
		}
	}
}

func (o *osc) setWaveform(s string) {
	switch s {
	case "sine":
		o.fn = math.Sin
	case "saw":
		o.fn = func(phase float64) float64 {
			return (2.0 * phase / twoPi) - 1.
		}
	case "square":
		o.fn = func(phase float64) float64 {
			if phase <= math.Pi {
				return 1.0
			}
			return -1.0
		}
	case "off":
		o.fn = func(_ float64) float64 { return 0 }
	}
}

func setWaveform(v any, dest *atomic.Value) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("value is not a string: %v", v)
	}
	switch s {
	case "sine", "saw", "square", "off":
		dest.Store(s)
		return nil
	default:
		return fmt.Errorf("not a valid waveform type: %v", s)
	}
}

type filter struct {
	sampleRate   float64
	cutoff       float64
	coefficients [numCoefficients]float64

	// state
	y1, y2 float64 // y[n-1] y[n-2]
}

// Lowpass filter based on https://www.w3.org/2011/audio/audio-eq-cookbook.html
func (f *filter) process(buf []float64) {
	c0 := f.coefficients[0]
	c1 := f.coefficients[1]
	c2 := f.coefficients[2]
	c3 := f.coefficients[3]
	c4 := f.coefficients[4]

	for n := range buf {
		in := buf[n]
		out := c0*in + f.y1
		buf[n] = out
		f.y1 = c1*in - c3*out + f.y2
		f.y2 = c2*in - c4*out
	}
}

func (f *filter) calculateCoefficients(freq float64) {
	if freq == f.cutoff {
		return
	}
	f.cutoff = freq
	omega := 2 * math.Pi * freq / f.sampleRate
	cos := math.Cos(omega)
	sin := math.Sin(omega)

	const q = 1
	alpha := sin / (2. * q)

	b0 := (1 - cos) / 2
	b1 := 1 - cos
	b2 := b0
	a0 := 1 + alpha
	a1 := -2 * cos
	a2 := 1 - alpha

	f.coefficients[0] = b0 / a0
	f.coefficients[1] = b1 / a0
	f.coefficients[2] = b2 / a0
	f.coefficients[3] = a1 / a0
	f.coefficients[4] = a2 / a0
}

func midiToFreq(note int) float64 {
	return math.Pow(2, float64(note-69)/12.0) * 440
}
