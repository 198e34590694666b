package dub

import "fmt"

type matchItem struct {
	level   int // number of halvings below the beat
	matcher matcher
}

// matcher selects notes by their 1-based number within a beat, or within the bar
// for beat level matchers.
type matcher interface {
	match(n int) bool
	check(max int) error
}

type anyMatch struct{}

func (anyMatch) match(int) bool { return true }
func (anyMatch) check(int) error { return nil }

var matchAll matcher = anyMatch{}

type rangeMatch struct {
	start, end int
}

func (r rangeMatch) match(n int) bool {
	return n >= r.start && n <= r.end
}

func (r rangeMatch) check(max int) error {
	if r.start < 1 || r.end > max || r.start > r.end {
		return fmt.Errorf("range %d:%d is outside 1:%d", r.start, r.end, max)
	}
	return nil
}

type listMatch []int

func (l listMatch) match(n int) bool {
	for _, k := range l {
		if k == n {
			return true
		}
	}
	return false
}

func (l listMatch) check(max int) error {
	for _, k := range l {
		if k < 1 || k > max {
			return fmt.Errorf("note %d is outside 1:%d", k, max)
		}
	}
	return nil
}

// grid describes where the notes of one match level fall on the step sequence.
type grid struct {
	span    int // steps per note
	perBeat int // notes per beat
	count   int // highest note number
}

func (g grid) number(step int) int {
	note := step / g.span
	if g.perBeat == 1 {
		return note + 1
	}
	return note%g.perBeat + 1
}

// EvalMatchExpr expands expr to a sequence of steps for a bar in the given time
// signature. A step is 1 when it is selected and 0 otherwise. Every level of the
// expression must match for a step to be selected, and only steps that start a note
// on the last level can be.
func EvalMatchExpr(expr MatchExpr, numerator, denominator, stepSize int) ([]int, error) {
	if numerator <= 0 || denominator <= 0 || denominator&(denominator-1) != 0 {
		return nil, fmt.Errorf("invalid time signature %d/%d", numerator, denominator)
	}
	if stepSize < denominator || stepSize%denominator != 0 {
		return nil, fmt.Errorf("step size %d does not divide into %d/%d", stepSize, numerator, denominator)
	}
	if len(expr.matchers) == 0 {
		return nil, fmt.Errorf("empty match expression")
	}

	grids := make([]grid, len(expr.matchers))
	for i, item := range expr.matchers {
		division := denominator
		for l := 0; l < item.level && division <= stepSize; l++ {
			division *= 2
		}
		if division > stepSize {
			return nil, fmt.Errorf("can't match on %d notes with step size %d", division, stepSize)
		}
		g := grid{span: stepSize / division, perBeat: division / denominator}
		g.count = g.perBeat
		if g.perBeat == 1 {
			g.count = numerator
		}
		if err := item.matcher.check(g.count); err != nil {
			return nil, err
		}
		grids[i] = g
	}

	seq := make([]int, (stepSize/denominator)*numerator)
	last := grids[len(grids)-1]
	for step := range seq {
		if step%last.span != 0 {
			continue
		}
		selected := 1
		for i, item := range expr.matchers {
			if !item.matcher.match(grids[i].number(step)) {
				selected = 0
				break
			}
		}
		seq[step] = selected
	}
	return seq, nil
}
