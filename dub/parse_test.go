package dub

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	type test struct {
		input string
		want  Command
	}
	tests := []test{
		{
			input: "A '1",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: listMatch{1}},
						},
					},
				},
			},
		},
		{
			input: "A '*/*",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: matchAll},
							{level: 1, matcher: matchAll},
						},
					},
				},
			},
		},
		{
			input: "A '*//3,4",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: matchAll},
							{level: 2, matcher: listMatch{3, 4}},
						},
					},
				},
			},
		},
		{
			input: "A '1,2//3:4",
			want: Command{
				Name: Identifier("A"),
				Args: []Node{
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: listMatch{1, 2}},
							{level: 2, matcher: rangeMatch{start: 3, end: 4}},
						},
					},
				},
			},
		},
		{
			input: `load "a/file.wav"`,
			want: Command{
				Name: Identifier("load"),
				Args: []Node{String("a/file.wav")},
			},
		},
		{
			input: `load ""`,
			want: Command{
				Name: Identifier("load"),
				Args: []Node{String("")},
			},
		},
		{
			input: "set synth env.attack 0.25",
			want: Command{
				Name: Identifier("set"),
				Args: []Node{Identifier("synth"), Identifier("env.attack"), Float(0.25)},
			},
		},
		{
			input: "loop bass synth 36 4 '1:4/2 80",
			want: Command{
				Name: Identifier("loop"),
				Args: []Node{
					Identifier("bass"),
					Identifier("synth"),
					Int(36),
					Int(4),
					MatchExpr{
						matchers: []matchItem{
							{level: 0, matcher: rangeMatch{start: 1, end: 4}},
							{level: 1, matcher: listMatch{2}},
						},
					},
					Int(80),
				},
			},
		},
	}
	for _, test := range tests {
		t.Log(test.input)
		got, err := Parse(test.input)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(test.want, got) {
			t.Errorf("\nwant: %+v\ngot:  %+v", test.want, got)
		}
	}
}

func TestParseAll(t *testing.T) {
	got, err := ParseAll("on synth 60; ;off synth 60;")
	if err != nil {
		t.Fatal(err)
	}
	want := []Command{
		{Name: Identifier("on"), Args: []Node{Identifier("synth"), Int(60)}},
		{Name: Identifier("off"), Args: []Node{Identifier("synth"), Int(60)}},
	}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("\nwant: %+v\ngot:  %+v", want, got)
	}

	empty, err := ParseAll("   ")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no commands, got %+v", empty)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"1 2",
		"a; b",
		"a '",
		"a '1:",
		"a '1,x",
		"a ':",
		`a "unterminated`,
	} {
		if _, err := Parse(input); err == nil {
			t.Errorf("expected error for input: %q", input)
		}
	}
}
