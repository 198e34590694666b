package dub

import "testing"

func TestLexer(t *testing.T) {
	type test struct {
		input  string
		expect []token
	}
	tests := []test{
		{
			input: "A '* 2",
			expect: []token{
				{typ: typeIdentifier, text: "A"},
				{typ: typeQuote, text: "'"},
				{typ: typeAsterisk, text: "*"},
				{typ: typeInt, text: "2"},
				{typ: typeEOF},
			},
		},
		{
			input: "A 1 2",
			expect: []token{
				{typ: typeIdentifier, text: "A"},
				{typ: typeInt, text: "1"},
				{typ: typeInt, text: "2"},
				{typ: typeEOF},
			},
		},
		{
			input: "'1:2 /    / 3,4",
			expect: []token{
				{typ: typeQuote, text: "'"},
				{typ: typeInt, text: "1"},
				{typ: typeColon, text: ":"},
				{typ: typeInt, text: "2"},
				{typ: typeSlash, text: "/"},
				{typ: typeSlash, text: "/"},
				{typ: typeInt, text: "3"},
				{typ: typeComma, text: ","},
				{typ: typeInt, text: "4"},
				{typ: typeEOF},
			},
		},
		{
			input: "1.0",
			expect: []token{
				{typ: typeFloat, text: "1.0"},
				{typ: typeEOF},
			},
		},
		{
			input: "-1.",
			expect: []token{
				{typ: typeFloat, text: "-1."},
				{typ: typeEOF},
			},
		},
		{
			input: "-.1",
			expect: []token{
				{typ: typeFloat, text: "-.1"},
				{typ: typeEOF},
			},
		},
		{
			input: `command "this is a string" 1`,
			expect: []token{
				{typ: typeIdentifier, text: "command"},
				{typ: typeString, text: `"this is a string"`},
				{typ: typeInt, text: "1"},
				{typ: typeEOF},
			},
		},
		{
			input: `load-sound sampler "kick.wav" 60`,
			expect: []token{
				{typ: typeIdentifier, text: "load-sound"},
				{typ: typeIdentifier, text: "sampler"},
				{typ: typeString, text: `"kick.wav"`},
				{typ: typeInt, text: "60"},
				{typ: typeEOF},
			},
		},
		{
			input: "set synth env.release.sharpness 0.5;get x1 level",
			expect: []token{
				{typ: typeIdentifier, text: "set"},
				{typ: typeIdentifier, text: "synth"},
				{typ: typeIdentifier, text: "env.release.sharpness"},
				{typ: typeFloat, text: "0.5"},
				{typ: typeSemicolon, text: ";"},
				{typ: typeIdentifier, text: "get"},
				{typ: typeIdentifier, text: "x1"},
				{typ: typeIdentifier, text: "level"},
				{typ: typeEOF},
			},
		},
	}
	for _, test := range tests {
		t.Log(test.input)
		tokens, err := lex(test.input)
		if err != nil {
			t.Errorf("unexpected lex error: %v", err)
			continue
		}
		if len(tokens) != len(test.expect) {
			t.Fatalf("token mismatch: \nwant: %+v, \ngot:  %+v", test.expect, tokens)
		}
		for i, got := range tokens {
			want := test.expect[i]
			if want.typ != got.typ {
				t.Errorf("wrong type: want %v, got %v", want, got)
			}
			if want.text != got.text {
				t.Errorf("wrong text: want %v, got %v", want, got)
			}
		}
	}
}

func TestLexerErrors(t *testing.T) {
	for _, input := range []string{
		"a -",
		"a .-",
		"a$",
		"1x",
		`a "open`,
	} {
		_, err := lex(input)
		if err == nil {
			t.Errorf("expected error for input: %q", input)
		}
	}
}
