package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mrdg/swell/audio"
)

func main() {
	var (
		rate    = flag.Float64("rate", audio.DefaultConfig.SampleRate, "sample rate in Hz")
		buffer  = flag.Int("buffer", audio.DefaultConfig.BufferSize, "frames per audio buffer")
		backend = flag.String("backend", audio.DefaultConfig.Backend, "audio output: portaudio or oto")
		run     = flag.String("run", "", "file with commands to run on startup")
		render  = flag.String("render", "", "render to a wav file instead of playing")
		seconds = flag.Float64("seconds", 4, "length of the rendered file")
	)
	flag.Parse()

	cfg := audio.Config{
		SampleRate: *rate,
		BufferSize: *buffer,
		Backend:    *backend,
	}
	if cfg.SampleRate <= 0 || cfg.BufferSize <= 0 {
		log.Fatalf("invalid stream settings: rate %v, buffer %v", cfg.SampleRate, cfg.BufferSize)
	}

	env := newEnv(cfg, os.Stdout)

	if *render != "" {
		if err := renderFile(env, *run, *render, *seconds); err != nil {
			log.Fatal(err)
		}
		return
	}

	sink, err := audio.NewSink(cfg)
	if err != nil {
		log.Fatal(err)
	}
	sink.AddTicker(env.sequencer)
	sink.AddSources(env.sources()...)
	if err := sink.Start(); err != nil {
		log.Fatal(err)
	}

	if *run != "" {
		if err := env.runFile(*run); err != nil {
			log.Fatal(err)
		}
	}

	replErr := repl(env)
	if err := sink.Stop(); err != nil {
		log.Print(err)
	}
	if replErr != nil {
		fmt.Println(replErr)
		os.Exit(1)
	}
}

// renderFile runs the commands in script and writes the resulting audio to path.
func renderFile(env *env, script, path string, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("render length must be positive: %v", seconds)
	}
	if script != "" {
		if err := env.runFile(script); err != nil {
			return err
		}
	}
	sink := audio.NewOfflineSink(env.cfg)
	sink.AddTicker(env.sequencer)
	sink.AddSources(env.sources()...)
	channels := sink.Render(int(seconds * env.cfg.SampleRate))

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := audio.WriteWAV(f, channels, env.cfg.SampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
