// Copyright (c) 2026 WJQserver, Kamihama Railway Group. All rights reserved.
// Licensed under the GNU Affero General Public License, version 3.0 (the "AGPL").

package arrex

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

// Precedence levels, loosest first. The comma list operator sits below
// everything else; unary sign and ~ bind tighter than **, so -x**2
// parses as (-x)**2.
const (
	_ int = iota
	LOWEST
	COMMA       // ,
	OR          // || or "or"
	AND         // && and "and"
	NOT         // ! or "not"
	EQUALS      // == != < <= > >=
	BITOR       // |
	BITXOR      // ^
	BITAND      // &
	SHIFT       // << >>
	SUM         // + -
	PRODUCT     // * / %
	POWER       // **
	PREFIX      // unary - + ~
)

var precedences = map[TokenType]int{
	TokenComma:   COMMA,
	TokenOr:      OR,
	TokenAnd:     AND,
	TokenEq:      EQUALS,
	TokenNe:      EQUALS,
	TokenLt:      EQUALS,
	TokenLe:      EQUALS,
	TokenGt:      EQUALS,
	TokenGe:      EQUALS,
	TokenPipe:    BITOR,
	TokenCaret:   BITXOR,
	TokenAmp:     BITAND,
	TokenShl:     SHIFT,
	TokenShr:     SHIFT,
	TokenPlus:    SUM,
	TokenMinus:   SUM,
	TokenStar:    PRODUCT,
	TokenSlash:   PRODUCT,
	TokenPercent: PRODUCT,
	TokenPow:     POWER,
}

var tokenOps = map[TokenType]Op{
	TokenComma:   OpComma,
	TokenOr:      OpLogOr,
	TokenAnd:     OpLogAnd,
	TokenEq:      OpEq,
	TokenNe:      OpNe,
	TokenLt:      OpLt,
	TokenLe:      OpLe,
	TokenGt:      OpGt,
	TokenGe:      OpGe,
	TokenPipe:    OpBitOr,
	TokenCaret:   OpBitXor,
	TokenAmp:     OpBitAnd,
	TokenShl:     OpShl,
	TokenShr:     OpShr,
	TokenPlus:    OpAdd,
	TokenMinus:   OpSub,
	TokenStar:    OpMul,
	TokenSlash:   OpDiv,
	TokenPercent: OpMod,
	TokenPow:     OpPow,
}

type (
	prefixParseFn func() *Node
	infixParseFn  func(*Node) *Node
)

// Parser builds a typed Node tree. It assigns dtypes bottom-up as it
// goes, inserting conversion nodes where a binary operator receives a
// nested subexpression of a narrower dtype.
type Parser struct {
	l *Lexer

	curToken  Token
	peekToken Token

	vars   []Variable
	target DType

	errPos int
	errMsg string

	prefixParseFns map[TokenType]prefixParseFn
	infixParseFns  map[TokenType]infixParseFn
}

var ParserPool = sync.Pool{
	New: func() any {
		return &Parser{}
	},
}

func NewParser(l *Lexer, vars []Variable, target DType) *Parser {
	p := ParserPool.Get().(*Parser)
	p.l = l
	p.vars = vars
	p.target = target
	p.errPos = -1
	p.errMsg = ""

	p.prefixParseFns = make(map[TokenType]prefixParseFn)
	p.registerPrefix(TokenIdent, p.parseIdentifier)
	p.registerPrefix(TokenNumber, p.parseNumberLiteral)
	p.registerPrefix(TokenString, p.parseStringLiteral)
	p.registerPrefix(TokenMinus, p.parseSignExpression)
	p.registerPrefix(TokenPlus, p.parseSignExpression)
	p.registerPrefix(TokenTilde, p.parseInvertExpression)
	p.registerPrefix(TokenBang, p.parseNotExpression)
	p.registerPrefix(TokenLParen, p.parseGroupedExpression)

	p.infixParseFns = make(map[TokenType]infixParseFn)
	for tok := range precedences {
		p.registerInfix(tok, p.parseInfixExpression)
	}

	p.nextToken()
	p.nextToken()

	return p
}

func ReleaseParser(p *Parser) {
	p.l = nil
	p.vars = nil
	ParserPool.Put(p)
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) fail(msg string) *Node {
	if p.errPos < 0 {
		p.errPos = p.curToken.Pos
		p.errMsg = msg
	}
	return newConst(math.NaN())
}

// Err returns the first recorded parse failure, or ok.
func (p *Parser) Err() (pos int, msg string, ok bool) {
	if p.errPos >= 0 {
		return p.errPos, p.errMsg, false
	}
	if p.peekToken.Type != TokenEOF {
		return p.peekToken.Pos, "unexpected trailing input", false
	}
	return 0, "", true
}

func (p *Parser) ParseProgram() *Node {
	if p.curToken.Type == TokenEOF {
		return p.fail("empty expression")
	}
	return p.parseExpression(LOWEST)
}

func (p *Parser) parseExpression(precedence int) *Node {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		if p.curToken.Type == TokenIllegal {
			return p.fail(p.curToken.Literal)
		}
		return p.fail("unexpected token " + p.curToken.Literal)
	}
	left := prefix()

	for p.peekToken.Type != TokenEOF && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return left
		}
		p.nextToken()
		left = infix(left)
	}

	return left
}

func (p *Parser) parseNumberLiteral() *Node {
	lit := p.curToken.Literal
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return p.fail("malformed number " + lit)
	}
	isFloat := strings.ContainsAny(lit, ".eE")
	return newConstTyped(complex(v, 0), p.literalDType(isFloat, v))
}

// literalDType types a numeric literal. Float literals follow the
// target dtype when it is a float type so float32 arrays stay float32;
// integer literals take the target integer width unless they need a
// wider one, defaulting to int32.
func (p *Parser) literalDType(isFloat bool, v float64) DType {
	var lit DType
	switch {
	case isFloat:
		if p.target == Float32 {
			lit = Float32
		} else {
			lit = Float64
		}
	case v > math.MaxInt32 || v < math.MinInt32:
		lit = Int64
	case p.target.isSigned() || p.target.isUnsigned():
		lit = p.target
	default:
		lit = Int32
	}

	if p.target == DTypeAuto {
		return lit
	}
	if p.target.isSigned() || p.target.isUnsigned() {
		if lit.isFloat() || lit.isComplex() {
			return lit
		}
		if lit.Size() > p.target.Size() {
			return lit
		}
		return p.target
	}
	return lit
}

func (p *Parser) parseStringLiteral() *Node {
	return &Node{kind: nodeString, dtype: StringT, str: p.curToken.Str}
}

func (p *Parser) parseIdentifier() *Node {
	name := p.curToken.Literal

	// User variables shadow builtins. Array variables map to input
	// slots by their position among the non-function declarations.
	slot := 0
	for i := range p.vars {
		if p.vars[i].Name == name {
			if p.vars[i].Fn != nil {
				return p.parseUserCall(&p.vars[i])
			}
			return newVarNode(slot, p.vars[i].DType)
		}
		if p.vars[i].Fn == nil {
			slot++
		}
	}

	if v, ok := builtinConsts[name]; ok {
		// Nullary builtins take an optional empty argument list.
		if p.peekToken.Type == TokenLParen {
			p.nextToken()
			if p.peekToken.Type != TokenRParen {
				return p.fail(name + " takes no arguments")
			}
			p.nextToken()
		}
		return newConstTyped(complex(v, 0), p.literalDType(true, v))
	}

	op, ok := builtinOps[name]
	if !ok {
		return p.fail("unknown identifier " + name)
	}

	if op.arity() == 1 {
		// Unary builtins apply directly to a power operand, so both
		// "sin x" and "sin(x)" parse.
		p.nextToken()
		arg := p.parseExpression(POWER)
		n := newCall(op, arg)
		n.dtype = inferCallDType(n)
		return n
	}

	if p.peekToken.Type != TokenLParen {
		return p.fail(name + " requires an argument list")
	}
	p.nextToken()
	args := p.parseCallArguments()
	if args == nil {
		return p.fail("malformed argument list for " + name)
	}
	if len(args) != op.arity() {
		return p.fail(name + " expects " + strconv.Itoa(op.arity()) + " arguments")
	}
	n := newCall(op, args...)
	n.dtype = inferCallDType(n)
	return n
}

// parseUserCall reads a call to a caller-supplied function. The
// argument count must match the bound signature; a nullary function
// also parses as a bare name, like the builtin constants.
func (p *Parser) parseUserCall(v *Variable) *Node {
	fn, arity, ok := adaptUserFn(v.Fn)
	if !ok {
		return p.fail("unsupported function signature for " + v.Name)
	}
	if arity == 0 && p.peekToken.Type != TokenLParen {
		return newUserCall(v.Name, fn, nil)
	}
	if p.peekToken.Type != TokenLParen {
		return p.fail(v.Name + " requires an argument list")
	}
	p.nextToken()
	args := p.parseCallArguments()
	if args == nil {
		return p.fail("malformed argument list for " + v.Name)
	}
	if len(args) != arity {
		return p.fail(v.Name + " expects " + strconv.Itoa(arity) + " arguments")
	}
	return newUserCall(v.Name, fn, args)
}

// parseCallArguments reads a parenthesized argument list. Arguments
// parse at comparison level, so relational expressions are allowed but
// the logical connectives are not.
func (p *Parser) parseCallArguments() []*Node {
	args := []*Node{}
	if p.peekToken.Type == TokenRParen {
		p.nextToken()
		return args
	}
	p.nextToken()
	args = append(args, p.parseExpression(AND))
	for p.peekToken.Type == TokenComma {
		p.nextToken()
		p.nextToken()
		args = append(args, p.parseExpression(AND))
	}
	if p.peekToken.Type != TokenRParen {
		return nil
	}
	p.nextToken()
	return args
}

func (p *Parser) parseSignExpression() *Node {
	neg := p.curToken.Type == TokenMinus
	p.nextToken()
	inner := p.parseExpression(PREFIX)
	if !neg {
		return inner
	}
	n := newCall(OpNeg, inner)
	n.dtype = inner.dtype
	return n
}

func (p *Parser) parseInvertExpression() *Node {
	p.nextToken()
	inner := p.parseExpression(PREFIX)
	n := newCall(OpBitNot, inner)
	n.dtype = inner.dtype
	promoteLogicalBool(n)
	return n
}

func (p *Parser) parseNotExpression() *Node {
	p.nextToken()
	inner := p.parseExpression(NOT)
	n := newCall(OpLogNot, inner)
	n.dtype = Bool
	return n
}

func (p *Parser) parseGroupedExpression() *Node {
	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if p.peekToken.Type != TokenRParen {
		return p.fail("missing closing parenthesis")
	}
	p.nextToken()
	return exp
}

func (p *Parser) parseInfixExpression(left *Node) *Node {
	op, ok := tokenOps[p.curToken.Type]
	if !ok {
		return p.fail("unexpected operator " + p.curToken.Literal)
	}
	precedence := p.curPrecedence()
	p.nextToken()
	right := p.parseExpression(precedence)

	n := newCall(op, left, right)
	applyBinaryPromotion(n)

	switch {
	case op.isComparison(), op == OpLogAnd, op == OpLogOr:
		n.dtype = Bool
	case op == OpBitAnd, op == OpBitOr, op == OpBitXor:
		promoteLogicalBool(n)
	}
	return n
}

func (p *Parser) peekPrecedence() int {
	if pre, ok := precedences[p.peekToken.Type]; ok {
		return pre
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if pre, ok := precedences[p.curToken.Type]; ok {
		return pre
	}
	return LOWEST
}

func (p *Parser) registerPrefix(tokenType TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}
