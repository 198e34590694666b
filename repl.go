package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"github.com/mrdg/swell/audio"
	"github.com/mrdg/swell/dub"
)

type env struct {
	cfg       audio.Config
	sequencer *audio.Sequencer
	devices   map[string]audio.Device
	out       io.Writer
}

func newEnv(cfg audio.Config, out io.Writer) *env {
	seq := audio.NewSequencer(audio.NewProps(), cfg)
	return &env{
		cfg:       cfg,
		sequencer: seq,
		devices: map[string]audio.Device{
			"seq":     seq,
			"synth":   audio.Synth(audio.NewProps(), cfg),
			"sampler": audio.Sampler(audio.NewProps(), cfg),
		},
		out: out,
	}
}

// sources returns the devices that produce sound, in a stable order.
func (e *env) sources() []audio.Source {
	var names []string
	for name, dev := range e.devices {
		if _, ok := dev.(audio.Source); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	sources := make([]audio.Source, len(names))
	for n, name := range names {
		sources[n] = e.devices[name].(audio.Source)
	}
	return sources
}

func (e *env) device(name string) (audio.Device, error) {
	dev, ok := e.devices[name]
	if !ok {
		return nil, fmt.Errorf("unknown device: %s", name)
	}
	return dev, nil
}

func (e *env) setProp(device, prop string, v any) error {
	dev, err := e.device(device)
	if err != nil {
		return err
	}
	return dev.Set(prop, v)
}

func (e *env) getProp(device, prop string) (any, error) {
	dev, err := e.device(device)
	if err != nil {
		return nil, err
	}
	return dev.Get(prop)
}

// samples converts a length in seconds to a sample count. Lengths above limit
// seconds are rejected.
func (e *env) samples(seconds, limit float64) (int, error) {
	if !(seconds > 0) {
		return 0, fmt.Errorf("must be positive: %v", seconds)
	}
	if seconds > limit {
		return 0, fmt.Errorf("%v seconds is longer than the maximum of %v", seconds, limit)
	}
	return int(seconds * e.cfg.SampleRate), nil
}

// eval runs every command on a line and returns their results.
func (e *env) eval(input string) ([]dub.Node, error) {
	cmds, err := dub.ParseAll(input)
	if err != nil {
		return nil, err
	}
	var results []dub.Node
	for _, cmd := range cmds {
		result, err := e.exec(cmd)
		if err != nil {
			return results, err
		}
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}

func (e *env) exec(command dub.Command) (dub.Node, error) {
	name := string(command.Name)
	for _, cmd := range commands {
		if name != cmd.name {
			continue
		}
		if cmd.arity < 0 {
			arity := -cmd.arity
			if len(command.Args) < arity {
				return nil, fmt.Errorf("%s: wrong number of arguments: need at least %v, got %v",
					cmd.name, arity, len(command.Args))
			}
		} else if len(command.Args) != cmd.arity {
			return nil, fmt.Errorf("%s: wrong number of arguments: want %v, got %v",
				cmd.name, cmd.arity, len(command.Args))
		}
		result, err := cmd.run(e, command.Args)
		if err != nil {
			return result, fmt.Errorf("%s error: %w", cmd.name, err)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unknown command: %s", name)
}

// runFile evaluates a file of commands, one line at a time. Empty lines and lines
// starting with # are skipped.
func (e *env) runFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, err := e.eval(line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNum, err)
		}
	}
	return scanner.Err()
}

func (e *env) completer() *readline.PrefixCompleter {
	var devices []readline.PrefixCompleterInterface
	for name := range e.devices {
		devices = append(devices, readline.PcItem(name))
	}
	var items []readline.PrefixCompleterInterface
	for _, cmd := range commands {
		items = append(items, readline.PcItem(cmd.name, devices...))
	}
	return readline.NewPrefixCompleter(items...)
}

func repl(env *env) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "> ",
		AutoComplete: env.completer(),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == io.EOF || errors.Is(err, readline.ErrInterrupt) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
			continue
		}
		if len(strings.TrimSpace(line)) == 0 {
			continue
		}
		results, err := env.eval(line)
		for _, result := range results {
			fmt.Fprintln(env.out, result)
		}
		if err != nil {
			fmt.Fprintln(env.out, err)
		}
	}
}

func readArgs(args []dub.Node, slots ...any) error {
	if len(args) != len(slots) {
		return fmt.Errorf("wrong number of arguments: want %d, got %d", len(slots), len(args))
	}
	for n, arg := range args {
		dest := slots[n]
		switch p := dest.(type) {
		case *string:
			switch s := arg.(type) {
			case dub.String:
				*p = string(s)
			case dub.Identifier:
				*p = string(s)
			default:
				return fmt.Errorf("argument %d: expected a string or identifier", n+1)
			}
		case *float64:
			switch v := arg.(type) {
			case dub.Float:
				*p = float64(v)
			case dub.Int:
				*p = float64(v)
			default:
				return fmt.Errorf("argument %d: expected a number", n+1)
			}
		case *int:
			v, ok := arg.(dub.Int)
			if !ok {
				return fmt.Errorf("argument %d: expected an integer", n+1)
			}
			*p = int(v)
		case *dub.MatchExpr:
			v, ok := arg.(dub.MatchExpr)
			if !ok {
				return fmt.Errorf("argument %d: expected a match expression", n+1)
			}
			*p = v
		default:
			panic("readArgs: unhandled destination type: " + fmt.Sprint(p))
		}
	}
	return nil
}
