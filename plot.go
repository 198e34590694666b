package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mrdg/swell/audio"
	"golang.org/x/term"
)

const (
	defaultPlotWidth  = 72
	defaultPlotHeight = 12
	axisWidth         = 5
)

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}

var phaseColors = map[audio.Phase]int{
	audio.PhaseAttack:  colorRed,
	audio.PhaseDecay:   colorYellow,
	audio.PhaseSustain: colorGreen,
	audio.PhaseRelease: colorBlue,
}

// plotSize returns the plot dimensions for w, using the terminal width when w is
// a terminal.
func plotSize(w io.Writer) (int, int) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultPlotWidth, defaultPlotHeight
	}
	cols, _, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= axisWidth+10 {
		return defaultPlotWidth, defaultPlotHeight
	}
	return cols - axisWidth - 1, defaultPlotHeight
}

// plotEnvelope draws points as a curve of width columns by height rows. Each
// column shows the peak of the samples it covers, colored by envelope phase.
func plotEnvelope(w io.Writer, points []audio.EnvelopePoint, sampleRate float64, width, height int) {
	if len(points) == 0 {
		fmt.Fprintln(w, "nothing to plot")
		return
	}
	if width > len(points) {
		width = len(points)
	}
	if height < 2 {
		height = 2
	}

	grid := make([][]string, height)
	for r := range grid {
		grid[r] = make([]string, width)
		for c := range grid[r] {
			grid[r][c] = " "
		}
	}
	for c := 0; c < width; c++ {
		start := c * len(points) / width
		end := (c + 1) * len(points) / width
		peak := math.Inf(-1)
		phase := points[start].Phase
		for _, p := range points[start:end] {
			if p.Value > peak {
				peak = p.Value
			}
		}
		if math.IsNaN(peak) || math.IsInf(peak, 0) {
			continue
		}
		peak = math.Max(0, math.Min(1, peak))
		row := height - 1 - int(math.Round(peak*float64(height-1)))
		grid[row][c] = colorize("•", phaseColors[phase])
	}

	for r, cells := range grid {
		var label string
		switch r {
		case 0:
			label = "1.0"
		case (height - 1) / 2:
			label = fmt.Sprintf("%.1f", 1-float64(r)/float64(height-1))
		case height - 1:
			label = "0.0"
		}
		fmt.Fprintf(w, "%*s |%s\n", axisWidth-1, label, strings.Join(cells, ""))
	}

	seconds := float64(len(points)) / sampleRate
	end := fmt.Sprintf("%.2fs", seconds)
	fmt.Fprintf(w, "%*s +%s\n", axisWidth-1, "", strings.Repeat("-", width))
	gap := width - len(end) - 2
	if gap < 1 {
		gap = 1
	}
	fmt.Fprintf(w, "%*s  %s\n", axisWidth-1, "", colorize("0s"+strings.Repeat(" ", gap)+end, colorMagenta))

	var legend []string
	for _, p := range []audio.Phase{audio.PhaseAttack, audio.PhaseDecay, audio.PhaseSustain, audio.PhaseRelease} {
		legend = append(legend, colorize("•", phaseColors[p])+" "+p.String())
	}
	fmt.Fprintf(w, "%*s  %s\n", axisWidth-1, "", strings.Join(legend, "  "))
}
