package scoring

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// The accuracy scorer needs two algebraic capabilities: deciding whether two
// answer strings denote the same expression ("3/4" vs "0.75", "x+1" vs
// "1+x"), and safely evaluating a pure-arithmetic question to auto-derive a
// missing ground truth. Both are served by parsing expressions into
// single-variable polynomials with exact rational coefficients and comparing
// or reading off the canonical form. Any input the parser cannot handle is a
// non-match, never an error surfaced to the caller.

// maxExponent bounds polynomial exponentiation so hostile input cannot blow
// up memory or time.
const maxExponent = 12

// polynomial maps degree to coefficient. The zero polynomial is the empty
// map; Normalize removes zero coefficients so equality is structural.
type polynomial map[int]*big.Rat

func constPoly(r *big.Rat) polynomial {
	p := polynomial{}
	if r.Sign() != 0 {
		p[0] = r
	}
	return p
}

func varPoly() polynomial {
	return polynomial{1: big.NewRat(1, 1)}
}

func (p polynomial) add(q polynomial) polynomial {
	out := polynomial{}
	for d, c := range p {
		out[d] = new(big.Rat).Set(c)
	}
	for d, c := range q {
		if cur, ok := out[d]; ok {
			cur.Add(cur, c)
			if cur.Sign() == 0 {
				delete(out, d)
			}
		} else {
			out[d] = new(big.Rat).Set(c)
		}
	}
	return out
}

func (p polynomial) neg() polynomial {
	out := polynomial{}
	for d, c := range p {
		out[d] = new(big.Rat).Neg(c)
	}
	return out
}

func (p polynomial) mul(q polynomial) polynomial {
	out := polynomial{}
	for dp, cp := range p {
		for dq, cq := range q {
			prod := new(big.Rat).Mul(cp, cq)
			if cur, ok := out[dp+dq]; ok {
				cur.Add(cur, prod)
				if cur.Sign() == 0 {
					delete(out, dp+dq)
				}
			} else if prod.Sign() != 0 {
				out[dp+dq] = prod
			}
		}
	}
	return out
}

// constant returns the rational value of a degree-zero polynomial.
func (p polynomial) constant() (*big.Rat, bool) {
	switch len(p) {
	case 0:
		return big.NewRat(0, 1), true
	case 1:
		if c, ok := p[0]; ok {
			return c, true
		}
	}
	return nil, false
}

func (p polynomial) isZero() bool {
	return len(p) == 0
}

// tokenizer

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokVar
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
}

func tokenize(s string) ([]token, error) {
	var toks []token
	runes := []rune(s)
	varName := ""

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{tokNumber, string(runes[i:j])})
			i = j
		case unicode.IsLetter(r):
			// Single-variable expressions only; a second distinct
			// letter makes the input unparseable.
			name := string(unicode.ToLower(r))
			if varName == "" {
				varName = name
			} else if varName != name {
				return nil, fmt.Errorf("multiple variables: %q and %q", varName, name)
			}
			toks = append(toks, token{tokVar, name})
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case strings.ContainsRune("+-*/^", r):
			toks = append(toks, token{tokOp, string(r)})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", r)
		}
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty expression")
	}
	return toks, nil
}

// parser: recursive descent with implicit multiplication (2x, 3(x+1)).

type exprParser struct {
	toks []token
	pos  int
}

func (p *exprParser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

func (p *exprParser) next() (token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *exprParser) parseExpr() (polynomial, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			right = right.neg()
		}
		left = left.add(right)
	}
}

func (p *exprParser) parseTerm() (polynomial, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok {
			return left, nil
		}
		switch {
		case t.kind == tokOp && t.text == "*":
			p.pos++
		case t.kind == tokOp && t.text == "/":
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			c, ok := right.constant()
			if !ok || c.Sign() == 0 {
				return nil, fmt.Errorf("division by non-constant or zero")
			}
			inv := new(big.Rat).Inv(c)
			left = left.mul(constPoly(inv))
			continue
		case t.kind == tokNumber || t.kind == tokVar || t.kind == tokLParen:
			// implicit multiplication
		default:
			return left, nil
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = left.mul(right)
	}
}

func (p *exprParser) parseUnary() (polynomial, error) {
	if t, ok := p.peek(); ok && t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "-" {
			return operand.neg(), nil
		}
		return operand, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (polynomial, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	t, ok := p.peek()
	if !ok || t.kind != tokOp || t.text != "^" {
		return base, nil
	}
	p.pos++
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	c, isConst := exp.constant()
	if !isConst || !c.IsInt() || c.Sign() < 0 {
		return nil, fmt.Errorf("exponent must be a non-negative integer")
	}
	n := c.Num().Int64()
	if n > maxExponent {
		return nil, fmt.Errorf("exponent %d too large", n)
	}
	out := constPoly(big.NewRat(1, 1))
	for i := int64(0); i < n; i++ {
		out = out.mul(base)
	}
	return out, nil
}

func (p *exprParser) parseAtom() (polynomial, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		r, ok := new(big.Rat).SetString(t.text)
		if !ok {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return constPoly(r), nil
	case tokVar:
		return varPoly(), nil
	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing, ok := p.next()
		if !ok || closing.kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("unexpected token %q", t.text)
	}
}

// parseExpression parses s into canonical polynomial form.
func parseExpression(s string) (polynomial, error) {
	toks, err := tokenize(s)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	poly, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("trailing input at token %d", p.pos)
	}
	return poly, nil
}

// equivalentExpressions reports whether a and b simplify to the same
// expression, by checking that their difference is the zero polynomial.
func equivalentExpressions(a, b string) bool {
	pa, err := parseExpression(a)
	if err != nil {
		return false
	}
	pb, err := parseExpression(b)
	if err != nil {
		return false
	}
	return pa.add(pb.neg()).isZero()
}

// evaluateArithmetic evaluates a constant expression and renders the result,
// without a decimal point when the value is a whole number.
func evaluateArithmetic(s string) (string, bool) {
	poly, err := parseExpression(s)
	if err != nil {
		return "", false
	}
	c, ok := poly.constant()
	if !ok {
		return "", false
	}
	return formatRat(c), true
}

func formatRat(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	f, _ := r.Float64()
	return strconv.FormatFloat(f, 'g', -1, 64)
}
