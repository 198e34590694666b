package audio

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRenderWAV(t *testing.T) {
	inst, sink := newTestSynth(t)
	inst.PlayNote(57, 100, 1000)
	out := sink.Render(2000)

	path := filepath.Join(t.TempDir(), "note.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteWAV(f, out, testConfig.SampleRate); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	snd, err := LoadSound(path)
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 2000, snd.Len(); want != got {
		t.Fatalf("want %v frames, got %v", want, got)
	}
	var nonZero int
	for _, v := range snd.buf[:1000] {
		if v != 0 {
			nonZero++
		}
	}
	if nonZero == 0 {
		t.Errorf("rendered note is silent")
	}
	for n, v := range snd.buf[1900:] {
		if v != 0 {
			t.Fatalf("frame %d: want silence, got %v", 1900+n, v)
		}
	}
}

func TestWriteWAVNoChannels(t *testing.T) {
	if err := WriteWAV(nil, nil, 44100); err == nil {
		t.Errorf("expected error for empty input")
	}
}

func TestTraceEnvelope(t *testing.T) {
	env := NewEnvelopeTimes(1000, 0.01, 0.01, 0.01, 0.02)
	env.SetEnabled(true)
	points := TraceEnvelope(env, 100, 5)

	var phases []Phase
	for _, p := range points {
		if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
			phases = append(phases, p.Phase)
		}
	}
	want := []Phase{PhaseAttack, PhaseDecay, PhaseSustain, PhaseRelease}
	if len(phases) != len(want) {
		t.Fatalf("wrong phases:\nwant: %v\ngot:  %v", want, phases)
	}
	for i := range want {
		if want[i] != phases[i] {
			t.Fatalf("wrong phases:\nwant: %v\ngot:  %v", want, phases)
		}
	}
	// the first sustain point holds the sustain level
	for _, p := range points {
		if p.Phase == PhaseSustain {
			if p.Value != env.SustainLevel() {
				t.Errorf("want sustain level %v, got %v", env.SustainLevel(), p.Value)
			}
			break
		}
	}
}

func TestEnvelopeFor(t *testing.T) {
	inst, _ := newTestSynth(t)
	env, err := EnvelopeFor(inst, testConfig, "")
	if err != nil {
		t.Fatal(err)
	}
	if !env.Enabled() {
		t.Errorf("synth envelope should be enabled")
	}
	if want, got := 0.05, env.Release(); want != got {
		t.Errorf("release: want %v, got %v", want, got)
	}
	if want, got := 0.5, env.SustainLevel(); want != got {
		t.Errorf("level: want %v, got %v", want, got)
	}

	seq := NewSequencer(NewProps(), testConfig)
	if _, err := EnvelopeFor(seq, testConfig, ""); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("expected ErrInvalidEnvelope for a device without envelope, got %v", err)
	}
}

func TestEnvelopeForSamplerKey(t *testing.T) {
	inst := Sampler(NewProps(), testConfig)
	if err := inst.Set("env.release.62", 0.4); err != nil {
		t.Fatal(err)
	}
	env, err := EnvelopeFor(inst, testConfig, ".62")
	if err != nil {
		t.Fatal(err)
	}
	if want, got := 0.4, env.Release(); want != got {
		t.Errorf("release: want %v, got %v", want, got)
	}
	if env.Enabled() {
		t.Errorf("sampler key envelopes are bypassed by default")
	}
	if _, err := EnvelopeFor(inst, testConfig, ""); !errors.Is(err, ErrInvalidEnvelope) {
		t.Errorf("expected ErrInvalidEnvelope without a key, got %v", err)
	}
}
