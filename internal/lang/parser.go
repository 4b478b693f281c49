package lang

import (
	"fmt"
	"strconv"
)

// Parse parses src into a surface Expr, or returns a *ParseError.
func Parse(src string) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{src: src, toks: toks}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokEOF {
		return nil, newWrappedParseErrorAt(src, p.cur().Pos, "trailing input after expression", ErrTrailingInput)
	}
	return e, nil
}

func tokenize(src string) ([]Token, error) {
	l := NewLexer(src)
	var toks []Token
	for {
		t, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == TokEOF {
			return toks, nil
		}
	}
}

type parser struct {
	src  string
	toks []Token
	pos  int
}

func (p *parser) cur() Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *parser) peek(n int) Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) advance() Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) expect(k TokenKind) (Token, error) {
	if p.cur().Kind != k {
		return Token{}, p.errorf(p.cur().Pos, "expected %s, got %s", k, p.cur().Kind)
	}
	return p.advance(), nil
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return newParseErrorAt(p.src, pos, fmt.Sprintf(format, args...))
}

func (p *parser) parseExpr() (Expr, error) { return p.parseOr() }

func (p *parser) parseOr() (Expr, error) {
	l, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == TokPipe {
		p.advance()
		r, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		l = &BinExpr{Op: "|", L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseAnd() (Expr, error) {
	l, err := p.parseCmp()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == TokAmp {
		p.advance()
		r, err := p.parseCmp()
		if err != nil {
			return nil, err
		}
		l = &BinExpr{Op: "&", L: l, R: r}
	}
	return l, nil
}

var cmpOps = map[TokenKind]string{
	TokEqEq: "==", TokNotEq: "!=", TokLe: "<=", TokGe: ">=", TokLt: "<", TokGt: ">",
}

func (p *parser) parseCmp() (Expr, error) {
	l, err := p.parseAdd()
	if err != nil {
		return nil, err
	}
	if op, ok := cmpOps[p.cur().Kind]; ok {
		p.advance()
		r, err := p.parseAdd()
		if err != nil {
			return nil, err
		}
		return &BinExpr{Op: op, L: l, R: r}, nil
	}
	return l, nil
}

func (p *parser) parseAdd() (Expr, error) {
	l, err := p.parseMul()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == TokPlus || p.cur().Kind == TokMinus {
		op := "+"
		if p.cur().Kind == TokMinus {
			op = "-"
		}
		p.advance()
		r, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		l = &BinExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseMul() (Expr, error) {
	l, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == TokStar || p.cur().Kind == TokSlash || p.cur().Kind == TokPercent {
		var op string
		switch p.cur().Kind {
		case TokStar:
			op = "*"
		case TokSlash:
			op = "/"
		case TokPercent:
			op = "%"
		}
		p.advance()
		r, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		l = &BinExpr{Op: op, L: l, R: r}
	}
	return l, nil
}

func (p *parser) parseUnary() (Expr, error) {
	switch p.cur().Kind {
	case TokMinus:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "neg", X: x}, nil
	case TokTilde:
		p.advance()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "not", X: x}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case TokDot:
			p.advance()
			nameTok, err := p.expect(TokIdent)
			if err != nil {
				return nil, err
			}
			base = &AttrExpr{Base: base, Name: nameTok.Text}
		case TokLParen:
			args, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			base = &CallExpr{Callee: base, Args: args}
		default:
			return base, nil
		}
	}
}

// parseCallArgs consumes '(' args? ')', having already seen TokLParen as
// p.cur().
func (p *parser) parseCallArgs() ([]Arg, error) {
	p.advance() // consume '('
	var args []Arg
	if p.cur().Kind == TokRParen {
		p.advance()
		return args, nil
	}
	for {
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.cur().Kind == TokComma {
			p.advance()
			if p.cur().Kind == TokRParen {
				break
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseArg() (Arg, error) {
	if p.cur().Kind == TokIdent && p.peek(1).Kind == TokAssign {
		name := p.advance().Text
		p.advance() // consume '='
		v, err := p.parseExpr()
		if err != nil {
			return Arg{}, err
		}
		return Arg{Name: name, Value: v}, nil
	}
	v, err := p.parseExpr()
	if err != nil {
		return Arg{}, err
	}
	return Arg{Value: v}, nil
}

func (p *parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case TokLParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return e, nil
	case TokLBracket:
		return p.parseList()
	case TokDollar:
		p.advance()
		nameTok, err := p.expect(TokIdent)
		if err != nil {
			return nil, err
		}
		return &ColShorthandExpr{Name: nameTok.Text}, nil
	case TokAt:
		return p.parseDirective()
	case TokString:
		p.advance()
		return &LitExpr{Value: StringLiteral(tok.Text)}, nil
	case TokInt:
		p.advance()
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid integer literal %q", tok.Text)
		}
		return &LitExpr{Value: IntLiteral(v)}, nil
	case TokFloat:
		p.advance()
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, p.errorf(tok.Pos, "invalid float literal %q", tok.Text)
		}
		return &LitExpr{Value: FloatLiteral(v)}, nil
	case TokIdent:
		switch tok.Text {
		case "True":
			p.advance()
			return &LitExpr{Value: BoolLiteral(true)}, nil
		case "False":
			p.advance()
			return &LitExpr{Value: BoolLiteral(false)}, nil
		case "None":
			p.advance()
			return &LitExpr{Value: NullLiteral()}, nil
		default:
			p.advance()
			return &IdentExpr{Name: tok.Text}, nil
		}
	default:
		return nil, p.errorf(tok.Pos, "unexpected token %s", tok.Kind)
	}
}

func (p *parser) parseList() (Expr, error) {
	p.advance() // consume '['
	var items []Expr
	if p.cur().Kind == TokRBracket {
		p.advance()
		return &ListExpr{Items: items}, nil
	}
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, e)
		if p.cur().Kind == TokComma {
			p.advance()
			if p.cur().Kind == TokRBracket {
				break
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}
	return &ListExpr{Items: items}, nil
}

func (p *parser) parseDirective() (Expr, error) {
	p.advance() // consume '@'
	nameTok, err := p.expect(TokIdent)
	if err != nil {
		return nil, err
	}
	d := &DirectiveExpr{Name: nameTok.Text}
	if p.cur().Kind == TokLParen {
		args, err := p.parseCallArgs()
		if err != nil {
			return nil, err
		}
		d.Args = args
	}
	return d, nil
}
