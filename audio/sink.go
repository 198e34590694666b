package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

type Source interface {
	Process([][]float32)
}

type Ticker interface {
	Tick(numSamples int)
}

const numChannels = 2

type backend interface {
	Start() error
	Stop() error
}

// Sink mixes its sources into an output stream. Sources and tickers must be added
// before the sink is started.
type Sink struct {
	cfg     Config
	sources []Source
	tickers []Ticker
	out     backend
}

// NewSink opens an output stream on the configured backend.
func NewSink(cfg Config) (*Sink, error) {
	s := &Sink{cfg: cfg}
	var err error
	switch cfg.Backend {
	case BackendPortAudio, "":
		s.out, err = newPortAudioBackend(cfg, s.Process)
	case BackendOto:
		s.out, err = newOtoBackend(cfg, s.Process)
	default:
		return nil, fmt.Errorf("unknown audio backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Backend, err)
	}
	return s, nil
}

// NewOfflineSink returns a sink without an output stream, for use with Render.
func NewOfflineSink(cfg Config) *Sink {
	return &Sink{cfg: cfg}
}

func (s *Sink) Start() error {
	if s.out == nil {
		return fmt.Errorf("sink has no output stream")
	}
	return s.out.Start()
}

func (s *Sink) Stop() error {
	if s.out == nil {
		return nil
	}
	return s.out.Stop()
}

func (s *Sink) AddSources(sources ...Source) {
	s.sources = append(s.sources, sources...)
}

func (s *Sink) AddTicker(ticker Ticker) {
	s.tickers = append(s.tickers, ticker)
}

func (s *Sink) Process(samples [][]float32) {
	for i := range samples {
		for j := range samples[i] {
			samples[i][j] = 0.
		}
	}
	for _, ticker := range s.tickers {
		ticker.Tick(len(samples[0]))
	}
	for _, source := range s.sources {
		source.Process(samples)
	}
}

type portaudioBackend struct {
	stream *portaudio.Stream
}

func newPortAudioBackend(cfg Config, process func([][]float32)) (*portaudioBackend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, err
	}
	stream, err := portaudio.OpenDefaultStream(0, numChannels, cfg.SampleRate, cfg.BufferSize, process)
	if err != nil {
		portaudio.Terminate()
		return nil, err
	}
	return &portaudioBackend{stream: stream}, nil
}

func (b *portaudioBackend) Start() error {
	return b.stream.Start()
}

func (b *portaudioBackend) Stop() error {
	if err := b.stream.Close(); err != nil {
		portaudio.Terminate()
		return err
	}
	return portaudio.Terminate()
}
