package dub

import (
	"fmt"
	"strconv"
)

type Node interface {
	isNode()
}

func (Identifier) isNode() {}
func (Int) isNode()        {}
func (Float) isNode()      {}
func (String) isNode()     {}
func (MatchExpr) isNode()  {}

type Command struct {
	Name Identifier
	Args []Node
}

type Identifier string
type Int int
type Float float64
type String string
type MatchExpr struct {
	matchers []matchItem
}

// Parse parses a single command.
func Parse(input string) (Command, error) {
	cmds, err := ParseAll(input)
	if err != nil {
		return Command{}, err
	}
	if len(cmds) != 1 {
		return Command{}, fmt.Errorf("expected one command, got %d", len(cmds))
	}
	return cmds[0], nil
}

// ParseAll parses a line of commands separated by semicolons.
func ParseAll(input string) ([]Command, error) {
	tokens, err := lex(input)
	if err != nil {
		return nil, err
	}
	p := parser{tokens: tokens}
	var cmds []Command
	for {
		switch p.peek().typ {
		case typeEOF:
			return cmds, nil
		case typeSemicolon:
			p.next()
			continue
		}
		cmd, err := p.parse()
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
}

type parser struct {
	pos    int
	tokens []token
}

// next returns the next token. Past the end it keeps returning EOF.
func (p *parser) next() token {
	if p.pos >= len(p.tokens) {
		p.pos++
		return p.tokens[len(p.tokens)-1]
	}
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.pos--
	return t
}

func (p *parser) parse() (Command, error) {
	var cmd Command
	token := p.next()
	if token.typ != typeIdentifier {
		return cmd, unexpected(token)
	}
	cmd.Name = Identifier(token.text)
	for token := p.next(); token.typ != typeEOF && token.typ != typeSemicolon; token = p.next() {
		var arg Node
		switch token.typ {
		case typeIdentifier:
			arg = Identifier(token.text)
		case typeString:
			arg = String(token.text[1 : len(token.text)-1])
		case typeFloat:
			f, err := strconv.ParseFloat(token.text, 64)
			if err != nil {
				return cmd, err
			}
			arg = Float(f)
		case typeInt:
			n, err := strconv.Atoi(token.text)
			if err != nil {
				return cmd, err
			}
			arg = Int(n)
		case typeQuote:
			matchExpr, err := p.matchExpr()
			if err != nil {
				return cmd, err
			}
			arg = matchExpr
		default:
			return cmd, unexpected(token)
		}
		cmd.Args = append(cmd.Args, arg)
	}
	return cmd, nil
}

// matchExpr parses matchers separated by one or more slashes. Each extra slash
// skips a division level.
func (p *parser) matchExpr() (MatchExpr, error) {
	var match MatchExpr
	current := matchItem{}
	for {
		token := p.next()
		switch token.typ {
		case typeInt:
			m, err := p.intMatch(token)
			if err != nil {
				return match, err
			}
			current.matcher = m
		case typeAsterisk:
			current.matcher = matchAll
		default:
			return match, unexpected(token)
		}
		match.matchers = append(match.matchers, current)
		if p.peek().typ != typeSlash {
			return match, nil
		}
		p.next()
		current = matchItem{level: current.level + 1}
		for p.peek().typ == typeSlash {
			p.next()
			current.level++
		}
	}
}

// intMatch parses a range like 1:4 or a list like 1,3 starting at the given token.
func (p *parser) intMatch(start token) (matcher, error) {
	first, err := strconv.Atoi(start.text)
	if err != nil {
		return nil, err
	}
	if p.peek().typ == typeColon {
		p.next()
		t := p.next()
		if t.typ != typeInt {
			return nil, unexpected(t)
		}
		end, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, err
		}
		return rangeMatch{start: first, end: end}, nil
	}
	list := listMatch{first}
	for p.peek().typ == typeComma {
		p.next()
		t := p.next()
		if t.typ != typeInt {
			return nil, unexpected(t)
		}
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, nil
}

func unexpected(t token) error {
	if t.typ == typeEOF {
		return fmt.Errorf("unexpected end of input at position %d", t.pos)
	}
	return fmt.Errorf("unexpected %v %q at position %d", t.typ, t.text, t.pos)
}
