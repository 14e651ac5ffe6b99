package codec

import "fmt"

type valueKind int

const (
	valString valueKind = iota
	valNull
	valWord
	valList
	valObject
	// valBroken stands for an object that could not be parsed; its fault is
	// kept in err and the surrounding list continues after it.
	valBroken
)

func (k valueKind) String() string {
	switch k {
	case valString:
		return "string"
	case valNull:
		return "null"
	case valWord:
		return "word"
	case valList:
		return "list"
	case valBroken:
		return "unreadable object"
	default:
		return "object"
	}
}

// value is a node of the parsed document. Object fields keep document order
// because record decoding is positional.
type value struct {
	kind   valueKind
	text   string
	items  []value
	fields []field
	line   int
	err    error
}

type field struct {
	key string
	val value
}

func (v value) lookup(key string) (value, bool) {
	for _, f := range v.fields {
		if f.key == key {
			return f.val, true
		}
	}
	return value{}, false
}

type parser struct {
	toks []token
	pos  int
}

// parse builds the document tree. Faults inside an object that is a list
// element are contained in a valBroken node; anything else makes the whole
// document malformed.
func parse(data []byte) (value, error) {
	p := &parser{toks: newLexer(data).tokenize()}

	root, err := p.parseValue()
	if err != nil {
		return value{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if root.kind != valObject {
		return value{}, fmt.Errorf("%w: line %d: document must be an object", ErrMalformedDocument, root.line)
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return value{}, fmt.Errorf("%w: line %d: trailing %s after document", ErrMalformedDocument, tok.line, tok.kind)
	}
	return root, nil
}

func syntaxError(line int, format string, args ...any) error {
	return fmt.Errorf("line %d: "+format, append([]any{line}, args...)...)
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expect(kind tokenKind) (token, error) {
	tok := p.advance()
	if tok.kind != kind {
		return tok, syntaxError(tok.line, "expected %s, got %s", kind, tok.kind)
	}
	return tok, nil
}

func (p *parser) parseValue() (value, error) {
	tok := p.peek()
	switch tok.kind {
	case tokLBrace:
		return p.parseObject()
	case tokLBracket:
		return p.parseList()
	case tokString:
		p.advance()
		return value{kind: valString, text: tok.text, line: tok.line}, nil
	case tokNull:
		p.advance()
		return value{kind: valNull, line: tok.line}, nil
	case tokWord:
		p.advance()
		return value{kind: valWord, text: tok.text, line: tok.line}, nil
	case tokInvalid:
		p.advance()
		return value{}, syntaxError(tok.line, "%s", tok.text)
	}
	return value{}, syntaxError(tok.line, "unexpected %s", tok.kind)
}

func (p *parser) parseObject() (value, error) {
	open, err := p.expect(tokLBrace)
	if err != nil {
		return value{}, err
	}
	obj := value{kind: valObject, line: open.line}

	if p.peek().kind == tokRBrace {
		p.advance()
		return obj, nil
	}
	for {
		if tok := p.peek(); tok.kind == tokInvalid {
			p.advance()
			return value{}, syntaxError(tok.line, "%s", tok.text)
		}
		key, err := p.expect(tokString)
		if err != nil {
			return value{}, err
		}
		if _, err := p.expect(tokColon); err != nil {
			return value{}, err
		}
		v, err := p.parseValue()
		if err != nil {
			return value{}, err
		}
		obj.fields = append(obj.fields, field{key: key.text, val: v})

		sep := p.advance()
		switch sep.kind {
		case tokComma:
			continue
		case tokRBrace:
			return obj, nil
		default:
			return value{}, syntaxError(sep.line, "expected ',' or '}', got %s", sep.kind)
		}
	}
}

func (p *parser) parseList() (value, error) {
	open, err := p.expect(tokLBracket)
	if err != nil {
		return value{}, err
	}
	list := value{kind: valList, line: open.line}

	if p.peek().kind == tokRBracket {
		p.advance()
		return list, nil
	}
	for {
		start := p.pos
		v, err := p.parseValue()
		if err != nil {
			if !p.skipObject(start) {
				return value{}, err
			}
			v = value{kind: valBroken, line: p.toks[start].line, err: err}
		}
		list.items = append(list.items, v)

		sep := p.advance()
		switch sep.kind {
		case tokComma:
			continue
		case tokRBracket:
			return list, nil
		default:
			return value{}, syntaxError(sep.line, "expected ',' or ']', got %s", sep.kind)
		}
	}
}

// skipObject rewinds to start and, if an object begins there, moves past its
// matching closing brace. It reports false when there is no object at start
// or the document ends before the object is closed.
func (p *parser) skipObject(start int) bool {
	if p.toks[start].kind != tokLBrace {
		return false
	}
	p.pos = start
	depth := 0
	for {
		switch p.advance().kind {
		case tokLBrace:
			depth++
		case tokRBrace:
			depth--
			if depth == 0 {
				return true
			}
		case tokEOF:
			return false
		}
	}
}
