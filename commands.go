package main

import (
	"fmt"
	"strings"

	"github.com/mrdg/swell/audio"
	"github.com/mrdg/swell/dub"
)

type command struct {
	name  string
	help  string
	run   func(*env, []dub.Node) (dub.Node, error)
	arity int // -n means len(args) must be >= n
}

var commands []command

func init() {
	commands = []command{
		{"set", "set <device> <prop> <value>", setCommand, 3},
		{"get", "get <device> <prop>", getCommand, 2},
		{"props", "props <device>", propsCommand, 1},
		{"note", "note <device> <pitch> <seconds> [velocity]", noteCommand, -3},
		{"on", "on <device> <pitch> [velocity]", noteOnCommand, -2},
		{"off", "off <device> <pitch>", noteOffCommand, 2},
		{"loop", "loop <name> <device> <pitch> <beats> '<match>", loopCommand, 5},
		{"stop", "stop <name>", stopCommand, 1},
		{"load-sound", `load-sound <device> "<file>" <key>`, loadSoundCommand, 3},
		{"preset", "preset <device> <name>", presetCommand, 2},
		{"plot", "plot <device>[.<key>] [seconds] [release after]", plotCommand, -1},
		{"help", "help", helpCommand, 0},
	}
}

// keyboard is implemented by devices that take notes from the control thread.
type keyboard interface {
	PlayNote(pitch, velocity, duration int)
	NoteOn(pitch, velocity int)
	NoteOff(pitch int)
}

const (
	stepSize       = 16 // steps per bar of 4 beats
	maxPlotSeconds = 120
	maxNoteSeconds = 3600
)

func setCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args[:2], &device, &prop); err != nil {
		return nil, err
	}
	switch v := args[2].(type) {
	case dub.Float:
		return nil, env.setProp(device, prop, float64(v))
	case dub.Int:
		return nil, env.setProp(device, prop, int(v))
	case dub.String:
		return nil, env.setProp(device, prop, string(v))
	case dub.Identifier:
		return nil, env.setProp(device, prop, string(v))
	default:
		return nil, fmt.Errorf("unsupported property type: %v", v)
	}
}

func getCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, prop string
	if err := readArgs(args, &device, &prop); err != nil {
		return nil, err
	}
	v, err := env.getProp(device, prop)
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case float64:
		return dub.Float(v), nil
	case int:
		return dub.Int(v), nil
	case string:
		return dub.String(v), nil
	case bool:
		if v {
			return dub.Identifier("on"), nil
		}
		return dub.Identifier("off"), nil
	default:
		return dub.String(fmt.Sprintf("%T", v)), nil
	}
}

func propsCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device string
	if err := readArgs(args, &device); err != nil {
		return nil, err
	}
	dev, err := env.device(device)
	if err != nil {
		return nil, err
	}
	lister, ok := dev.(interface{ Keys() []string })
	if !ok {
		return nil, fmt.Errorf("device has no properties: %s", device)
	}
	return dub.String(strings.Join(lister.Keys(), "\n")), nil
}

func playable(env *env, device string) (audio.Playable, error) {
	dev, err := env.device(device)
	if err != nil {
		return nil, err
	}
	p, ok := dev.(audio.Playable)
	if !ok {
		return nil, fmt.Errorf("device is not playable: %s", device)
	}
	return p, nil
}

func keys(env *env, device string) (keyboard, error) {
	dev, err := env.device(device)
	if err != nil {
		return nil, err
	}
	k, ok := dev.(keyboard)
	if !ok {
		return nil, fmt.Errorf("device can't play notes: %s", device)
	}
	return k, nil
}

// optionalVelocity reads a velocity from args[n] if present.
func optionalVelocity(args []dub.Node, n int) (int, error) {
	if len(args) <= n {
		return 0, nil
	}
	if len(args) > n+1 {
		return 0, fmt.Errorf("too many arguments")
	}
	var velocity int
	if err := readArgs(args[n:], &velocity); err != nil {
		return 0, err
	}
	if velocity < 1 || velocity > 127 {
		return 0, fmt.Errorf("velocity out of range 1 - 127: %d", velocity)
	}
	return velocity, nil
}

func noteCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device string
	var pitch int
	var seconds float64
	if err := readArgs(args[:3], &device, &pitch, &seconds); err != nil {
		return nil, err
	}
	duration, err := env.samples(seconds, maxNoteSeconds)
	if err != nil {
		return nil, fmt.Errorf("note length: %w", err)
	}
	velocity, err := optionalVelocity(args, 3)
	if err != nil {
		return nil, err
	}
	k, err := keys(env, device)
	if err != nil {
		return nil, err
	}
	k.PlayNote(pitch, velocity, duration)
	return nil, nil
}

func noteOnCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device string
	var pitch int
	if err := readArgs(args[:2], &device, &pitch); err != nil {
		return nil, err
	}
	velocity, err := optionalVelocity(args, 2)
	if err != nil {
		return nil, err
	}
	k, err := keys(env, device)
	if err != nil {
		return nil, err
	}
	k.NoteOn(pitch, velocity)
	return nil, nil
}

func noteOffCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device string
	var pitch int
	if err := readArgs(args, &device, &pitch); err != nil {
		return nil, err
	}
	k, err := keys(env, device)
	if err != nil {
		return nil, err
	}
	k.NoteOff(pitch)
	return nil, nil
}

func loadSoundCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, file string
	var key int
	if err := readArgs(args, &device, &file, &key); err != nil {
		return nil, err
	}
	v, err := env.getProp(device, audio.PropSoundMap)
	if err != nil {
		return nil, err
	}
	sound, err := audio.LoadSound(file)
	if err != nil {
		return nil, err
	}
	mapping, ok := v.(*audio.SoundMapping)
	if !ok {
		return nil, fmt.Errorf("cannot convert %v to sound mapping", v)
	}
	updated := *mapping
	if err := updated.Put(key, sound); err != nil {
		return nil, err
	}
	return nil, env.setProp(device, audio.PropSoundMap, &updated)
}

func loopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name, device string
	var pitch, beats int
	var expr dub.MatchExpr
	if err := readArgs(args, &name, &device, &pitch, &beats, &expr); err != nil {
		return nil, err
	}
	p, err := playable(env, device)
	if err != nil {
		return nil, err
	}
	steps, err := dub.EvalMatchExpr(expr, beats, 4, stepSize)
	if err != nil {
		return nil, err
	}
	clip := audio.NewClip(float64(beats), p)
	clip.AddSteps(steps, pitch, 4.0/stepSize)
	return nil, updateClips(env, func(clips map[string]*audio.Clip) {
		clips[name] = clip
	})
}

func stopCommand(env *env, args []dub.Node) (dub.Node, error) {
	var name string
	if err := readArgs(args, &name); err != nil {
		return nil, err
	}
	return nil, updateClips(env, func(clips map[string]*audio.Clip) {
		delete(clips, name)
	})
}

// updateClips applies f to a copy of the sequencer's clips so the audio thread
// never sees a map being modified.
func updateClips(env *env, f func(map[string]*audio.Clip)) error {
	v, err := env.sequencer.Get("clips")
	if err != nil {
		return err
	}
	old := v.(map[string]*audio.Clip)
	clips := make(map[string]*audio.Clip, len(old))
	for k, v := range old {
		clips[k] = v
	}
	f(clips)
	return env.sequencer.Set("clips", clips)
}

func presetCommand(env *env, args []dub.Node) (dub.Node, error) {
	var device, name string
	if err := readArgs(args, &device, &name); err != nil {
		return nil, err
	}
	dev, err := env.device(device)
	if err != nil {
		return nil, err
	}
	if err := audio.LoadPreset(name, dev); err != nil {
		return nil, fmt.Errorf("%w (available: %s)", err, strings.Join(audio.Presets(), ", "))
	}
	return nil, nil
}

// plotCommand draws the envelope of a device. Per-key envelopes, like the
// sampler's, are addressed as <device>.<key>.
func plotCommand(env *env, args []dub.Node) (dub.Node, error) {
	var target string
	if err := readArgs(args[:1], &target); err != nil {
		return nil, err
	}
	name, key, _ := strings.Cut(target, ".")
	var suffix string
	if key != "" {
		suffix = "." + key
	}
	dev, err := env.device(name)
	if err != nil {
		return nil, err
	}
	envelope, err := audio.EnvelopeFor(dev, env.cfg, suffix)
	if err != nil {
		if key == "" {
			return nil, fmt.Errorf("%w (per-key envelopes are plotted as %s.<key>)", err, name)
		}
		return nil, err
	}

	seconds := envelope.Attack() + envelope.Decay() + envelope.Sustain() + envelope.Release()
	releaseAt := envelope.Attack() + envelope.Decay() + envelope.Sustain()
	if len(args) > 1 {
		if err := readArgs(args[1:2], &seconds); err != nil {
			return nil, err
		}
	}
	if len(args) > 2 {
		if err := readArgs(args[2:], &releaseAt); err != nil {
			return nil, err
		}
	}
	n, err := env.samples(seconds, maxPlotSeconds)
	if err != nil {
		return nil, fmt.Errorf("plot length: %w", err)
	}
	release := -1
	if releaseAt >= 0 && releaseAt < seconds {
		release = int(releaseAt * env.cfg.SampleRate)
	}
	points := audio.TraceEnvelope(envelope, n, release)
	width, height := plotSize(env.out)
	plotEnvelope(env.out, points, env.cfg.SampleRate, width, height)
	return nil, nil
}

func helpCommand(env *env, args []dub.Node) (dub.Node, error) {
	var lines []string
	for _, cmd := range commands {
		lines = append(lines, cmd.help)
	}
	return dub.String(strings.Join(lines, "\n")), nil
}
