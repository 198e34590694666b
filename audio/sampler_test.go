package audio

import (
	"math"
	"testing"
)

func newTestSampler(t *testing.T, key int, snd *Sound) (*Instrument, *Sink) {
	t.Helper()
	inst := Sampler(NewProps(), testConfig)
	var mapping SoundMapping
	if err := mapping.Put(key, snd); err != nil {
		t.Fatal(err)
	}
	if err := inst.Set(PropSoundMap, &mapping); err != nil {
		t.Fatal(err)
	}
	sink := NewOfflineSink(testConfig)
	sink.AddSources(inst)
	return inst, sink
}

func constantSound(n int, v float64) *Sound {
	snd := &Sound{file: "test.wav", buf: make([]float64, n)}
	for i := range snd.buf {
		snd.buf[i] = v
	}
	return snd
}

func TestSamplerBypassedEnvelope(t *testing.T) {
	inst, sink := newTestSampler(t, 60, constantSound(100, 0.5))
	inst.PlayNote(60, 127, -1)

	out := sink.Render(128)
	for n := 0; n < 100; n++ {
		if got := out[0][n]; got != 0.5 {
			t.Fatalf("frame %d: want 0.5, got %v", n, got)
		}
	}
	for n := 100; n < 128; n++ {
		if got := out[0][n]; got != 0 {
			t.Fatalf("frame %d: want silence, got %v", n, got)
		}
	}
	if want, got := 0, inst.activeVoices(); want != got {
		t.Errorf("want %v active voices, got %v", want, got)
	}
}

func TestSamplerEnvelope(t *testing.T) {
	inst, sink := newTestSampler(t, 62, constantSound(8000, 1))
	for key, val := range map[string]any{
		"env.enabled.62": true,
		"env.attack.62":  0.01,
		"env.decay.62":   0.01,
		"env.level.62":   0.5,
		"env.release.62": 0.05,
	} {
		if err := inst.Set(key, val); err != nil {
			t.Fatal(err)
		}
	}
	inst.PlayNote(62, 127, 640)

	out := sink.Render(4000)
	if got := out[0][0]; got > 0.01 {
		t.Errorf("attack should start near zero, got %v", got)
	}
	if got := float64(out[0][400]); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("want sustain level 0.5, got %v", got)
	}
	if want, got := 0, inst.activeVoices(); want != got {
		t.Errorf("want %v active voices after release, got %v", want, got)
	}
	for n := 1500; n < 4000; n++ {
		if out[0][n] != 0 {
			t.Fatalf("frame %d: want silence after release, got %v", n, out[0][n])
		}
	}
}

func TestSamplerChoke(t *testing.T) {
	inst, sink := newTestSampler(t, 60, constantSound(1000, 1))
	if err := inst.Set("choke.60", 61); err != nil {
		t.Fatal(err)
	}
	inst.PlayNote(60, 127, -1)
	sink.Render(64)
	if want, got := 1, inst.activeVoices(); want != got {
		t.Fatalf("want %v active voice, got %v", want, got)
	}
	// 61 has no sound but still chokes 60
	inst.PlayNote(61, 127, -1)
	sink.Render(64)
	if want, got := 0, inst.activeVoices(); want != got {
		t.Errorf("want %v active voices after choke, got %v", want, got)
	}
}

func TestSoundMappingRange(t *testing.T) {
	var m SoundMapping
	if err := m.Put(rootPitch-1, &Sound{}); err == nil {
		t.Errorf("expected error for key below range")
	}
	if err := m.Put(rootPitch+numKeys, &Sound{}); err == nil {
		t.Errorf("expected error for key above range")
	}
}
