package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const bytesPerFrame = numChannels * 4 // interleaved float32

// otoBackend pulls audio through oto's io.Reader based player. Read runs on oto's
// own goroutine.
type otoBackend struct {
	ctx     *oto.Context
	player  *oto.Player
	process func([][]float32)
	planar  [][]float32
	mu      sync.Mutex
	started bool
}

func newOtoBackend(cfg Config, process func([][]float32)) (*otoBackend, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(cfg.SampleRate),
		ChannelCount: numChannels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   time.Duration(float64(cfg.BufferSize) / cfg.SampleRate * float64(time.Second)),
	})
	if err != nil {
		return nil, err
	}
	<-ready

	b := &otoBackend{
		ctx:     ctx,
		process: process,
		planar:  make([][]float32, numChannels),
	}
	for c := range b.planar {
		b.planar[c] = make([]float32, cfg.BufferSize)
	}
	b.player = ctx.NewPlayer(b)
	return b, nil
}

func (b *otoBackend) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if len(b.planar[0]) < frames {
		for c := range b.planar {
			b.planar[c] = make([]float32, frames)
		}
	}
	planar := make([][]float32, numChannels)
	for c := range planar {
		planar[c] = b.planar[c][:frames]
	}
	b.process(planar)
	interleave(p, planar)
	return frames * bytesPerFrame, nil
}

// interleave writes planar samples to dst as little endian float32 frames.
func interleave(dst []byte, planar [][]float32) {
	for n := range planar[0] {
		for c := range planar {
			off := (n*len(planar) + c) * 4
			binary.LittleEndian.PutUint32(dst[off:], math.Float32bits(planar[c][n]))
		}
	}
}

func (b *otoBackend) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		b.player.Play()
		b.started = true
	}
	return nil
}

func (b *otoBackend) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = false
	return b.player.Close()
}
