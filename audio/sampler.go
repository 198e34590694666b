package audio

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/youpy/go-wav"
)

const PropSoundMap = "sounds.map"
const numKeys = 25

// Sampler plays sounds mapped to keys. Each key has its own envelope, bypassed
// by default so a sound plays back unchanged.
func Sampler(props *Props, cfg Config) *Instrument {
	sounds := props.MustRegister(PropSoundMap, setSoundMapping, &SoundMapping{})
	keyDefaults := envDefaults{
		attack:  0.001,
		decay:   0.05,
		sustain: 0.0005,
		release: 0.2,
		level:   1,
	}
	var perKeyProps [numKeys]keyProps
	for n := 0; n < numKeys; n++ {
		note := strconv.Itoa(rootPitch + n)
		var kp keyProps
		kp.env = registerEnvProps(props, "."+note, keyDefaults)
		kp.level = props.MustRegister("level."+note, setLevel, 0.)
		kp.choke = props.MustRegister("choke."+note, setInt, 0)
		perKeyProps[n] = kp
	}
	voices := make([]Voice, numVoices)
	for n := range voices {
		voices[n] = &samplerVoice{
			state:    stateFree,
			sounds:   sounds,
			keyProps: perKeyProps,
			env:      NewEnvelope(cfg.SampleRate),
		}
	}
	return NewInstrument(props, cfg, voices)
}

type samplerVoice struct {
	sounds        *atomic.Value
	keyProps      [numKeys]keyProps
	state         voiceState
	env           *Envelope
	buf           []float64
	pos           int
	pitch         int
	gain          float64
	duration      int
	samplesPlayed int
}

func (v *samplerVoice) PlayNote(pitch, velocity, duration int) {
	if pitch < rootPitch || pitch >= rootPitch+numKeys {
		log.Printf("sampler: pitch %d out of range", pitch)
		return
	}
	mapping := v.sounds.Load().(*SoundMapping)
	snd := mapping[pitch-rootPitch]
	if snd == nil {
		log.Printf("sampler: no sound mapped to pitch %d", pitch)
		return
	}
	props := v.keyProps[pitch-rootPitch]
	level := props.level.Load().(float64)
	v.gain = velocityGain(velocity) * math.Pow(10, level/20.0)
	v.buf = snd.buf
	v.pos = 0
	v.pitch = pitch
	v.duration = duration
	v.samplesPlayed = 0
	props.env.load(v.env)
	v.env.SetReleaseGate(false)
	v.env.Reset()
	v.state = stateActive
}

func (v *samplerVoice) Release(pitch int) {
	if v.state == stateActive && v.pitch == pitch {
		v.release()
	}
}

func (v *samplerVoice) release() {
	v.state = stateReleased
	v.env.SetReleaseGate(true)
}

func (v *samplerVoice) Notify(pitch int) {
	if v.state == stateFree {
		return
	}
	props := v.keyProps[v.pitch-rootPitch]
	if props.choke.Load().(int) == pitch || v.pitch == pitch {
		v.stop()
	}
}

func (v *samplerVoice) Process(buf []float64) {
	n := len(buf)
	if nsamples := len(v.buf) - v.pos; nsamples < n {
		n = nsamples
	}
	for i := range buf[:n] {
		buf[i] += v.buf[v.pos] * v.env.Next() * v.gain
		v.pos++
	}
	v.samplesPlayed += len(buf)
	if v.state == stateActive && v.duration >= 0 && v.samplesPlayed >= v.duration {
		v.release()
	}
	if v.pos >= len(v.buf) || (v.state == stateReleased && v.env.Done()) {
		v.reset()
	}
}

func (v *samplerVoice) reset() {
	v.buf = nil
	v.pos = 0
	v.state = stateFree
	v.pitch = 0
}

// stop fades the sound out quickly. A bypassed envelope or a nearly silent
// voice cuts it off.
func (v *samplerVoice) stop() {
	if !v.env.fadeOut(chokeRelease) {
		v.reset()
		return
	}
	v.state = stateReleased
}

func (v *samplerVoice) State() voiceState { return v.state }

// keyProps stores the properties for a single key.
type keyProps struct {
	env   envProps
	level *atomic.Value
	choke *atomic.Value
}

type Sound struct {
	buf  []float64
	file string
}

func (s *Sound) Len() int { return len(s.buf) }

const rootPitch = 60

type SoundMapping [numKeys]*Sound

func (m *SoundMapping) Put(key int, snd *Sound) error {
	if key < rootPitch || key >= rootPitch+numKeys {
		return fmt.Errorf("key %d out of range %d - %d", key, rootPitch, rootPitch+numKeys-1)
	}
	m[key-rootPitch] = snd
	return nil
}

func setSoundMapping(v any, dest *atomic.Value) error {
	m, ok := v.(*SoundMapping)
	if !ok {
		return fmt.Errorf("property value is not a sound mapping: %v", v)
	}
	dest.Store(m)
	return nil
}

// LoadSound reads the first channel of a wav file.
func LoadSound(file string) (*Sound, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	snd := Sound{file: file}
	r := wav.NewReader(f)
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		for _, sample := range samples {
			snd.buf = append(snd.buf, r.FloatValue(sample, 0))
		}
	}
	return &snd, nil
}
