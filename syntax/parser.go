package syntax

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/suspendjs/errors"
	"github.com/wippyai/suspendjs/syntax/internal/token"
)

// Parse reads a program. Malformed or unsupported input fails with an
// *errors.Error of kind KindSyntax carrying the offending position.
func Parse(src string) (*Tree, error) {
	toks, err := token.Tokenize(src)
	if err != nil {
		return nil, lexError(err)
	}

	p := &parser{tree: NewTree(), toks: toks}
	root := p.tree.New(KindProgram, Pos{Line: 1, Column: 1})
	p.tree.Root = root
	for p.peek().Type != token.EOF {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		p.tree.Append(root, s)
	}
	return p.tree, nil
}

// ParseExpression reads a single expression and returns the tree and the
// expression's id. Trailing input is an error.
func ParseExpression(src string) (*Tree, NodeID, error) {
	toks, err := token.Tokenize(src)
	if err != nil {
		return nil, None, lexError(err)
	}
	p := &parser{tree: NewTree(), toks: toks}
	e, err := p.parseExpression()
	if err != nil {
		return nil, None, err
	}
	if tok := p.peek(); tok.Type != token.EOF {
		return nil, None, p.unexpected(tok)
	}
	p.tree.Root = e
	return p.tree, e, nil
}

func lexError(err error) error {
	te, ok := err.(*token.Error)
	if !ok {
		return err
	}
	e := errors.Syntax(Pos{Line: te.Line, Column: te.Col}, "%s", te.Msg)
	e.Incomplete = te.EOF
	return e
}

type parser struct {
	tree *Tree
	toks []token.Token
	pos  int
}

func posOf(tok token.Token) Pos {
	return Pos{Line: tok.Line, Column: tok.Col}
}

func (p *parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token.Token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token.Token {
	t := p.toks[p.pos]
	if t.Type != token.EOF {
		p.pos++
	}
	return t
}

func (p *parser) is(value string) bool {
	t := p.peek()
	return (t.Type == token.Punct || t.Type == token.Keyword) && t.Value == value
}

func (p *parser) accept(value string) bool {
	if p.is(value) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(value string) (token.Token, error) {
	t := p.peek()
	if !p.is(value) {
		return t, p.errorf(t, "expected %q, got %s", value, describe(t))
	}
	return p.next(), nil
}

// errorf reports a syntax error at tok. Errors at the end of input are
// marked incomplete.
func (p *parser) errorf(tok token.Token, format string, args ...any) error {
	e := errors.Syntax(posOf(tok), format, args...)
	e.Incomplete = tok.Type == token.EOF
	return e
}

func (p *parser) unexpected(tok token.Token) error {
	return p.errorf(tok, "unexpected %s", describe(tok))
}

func describe(tok token.Token) string {
	if tok.Type == token.EOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Value)
}

// semicolon consumes a statement terminator, inserting one where a line
// break, a closing brace or the end of input allows it.
func (p *parser) semicolon() error {
	tok := p.peek()
	if tok.Is(token.Punct, ";") {
		p.next()
		return nil
	}
	if tok.Is(token.Punct, "}") || tok.Type == token.EOF || tok.NewlineBefore {
		return nil
	}
	return p.errorf(tok, "expected ';', got %s", describe(tok))
}

func (p *parser) parseStatement() (NodeID, error) {
	tok := p.peek()
	pos := posOf(tok)

	switch tok.Type {
	case token.Punct:
		switch tok.Value {
		case "{":
			return p.parseBlock()
		case ";":
			p.next()
			return p.tree.New(KindEmpty, pos), nil
		}

	case token.Keyword:
		switch tok.Value {
		case "var", "let", "const":
			decl, err := p.parseVarDecl()
			if err != nil {
				return None, err
			}
			return decl, p.semicolon()
		case "function":
			p.next()
			return p.parseFunction(KindFunctionDecl, false, pos)
		case "if":
			return p.parseIf()
		case "while":
			return p.parseWhile()
		case "for":
			return p.parseFor()
		case "break", "continue":
			p.next()
			kind := KindBreak
			if tok.Value == "continue" {
				kind = KindContinue
			}
			if t := p.peek(); t.Type == token.Ident && !t.NewlineBefore {
				return None, p.errorf(t, "labelled %s is not supported", tok.Value)
			}
			return p.tree.New(kind, pos), p.semicolon()
		case "return":
			return p.parseReturn()
		case "throw":
			return p.parseThrow()
		case "try":
			return p.parseTry()
		case "do", "switch", "class", "import", "export", "with", "debugger", "case", "default":
			return None, p.errorf(tok, "%q statements are not supported", tok.Value)
		}

	case token.Ident:
		if tok.Value == "async" && p.peekAt(1).Is(token.Keyword, "function") && !p.peekAt(1).NewlineBefore {
			p.next()
			p.next()
			return p.parseFunction(KindFunctionDecl, true, pos)
		}
	}

	expr, err := p.parseExpression()
	if err != nil {
		return None, err
	}
	if err := p.semicolon(); err != nil {
		return None, err
	}
	s := p.tree.New(KindExpressionStmt, pos)
	p.tree.SetChild(s, FieldExpression, expr)
	return s, nil
}

func (p *parser) parseBlock() (NodeID, error) {
	open, err := p.expect("{")
	if err != nil {
		return None, err
	}
	block := p.tree.New(KindBlock, posOf(open))
	for !p.is("}") {
		if p.peek().Type == token.EOF {
			return None, p.errorf(p.peek(), "unterminated block opened at %d:%d", open.Line, open.Col)
		}
		s, err := p.parseStatement()
		if err != nil {
			return None, err
		}
		p.tree.Append(block, s)
	}
	p.next()
	return block, nil
}

func (p *parser) parseVarDecl() (NodeID, error) {
	kw := p.next()
	decl := p.tree.New(KindVarDecl, posOf(kw))
	switch kw.Value {
	case "let":
		p.tree.Node(decl).Flags |= FlagLet
	case "const":
		p.tree.Node(decl).Flags |= FlagConst
	}

	for {
		name := p.next()
		if name.Type != token.Ident {
			return None, p.errorf(name, "expected variable name, got %s", describe(name))
		}
		d := p.tree.New(KindVarDeclarator, posOf(name))
		p.tree.SetChild(d, FieldID, p.tree.Ident(name.Value, posOf(name)))
		if p.accept("=") {
			init, err := p.parseAssign()
			if err != nil {
				return None, err
			}
			p.tree.SetChild(d, FieldInit, init)
		} else if kw.Value == "const" {
			return None, p.errorf(name, "missing initializer in const declaration")
		}
		p.tree.Append(decl, d)
		if !p.accept(",") {
			return decl, nil
		}
	}
}

// parseFunction reads the rest of a function after the "function" keyword.
func (p *parser) parseFunction(kind Kind, async bool, pos Pos) (NodeID, error) {
	fn := p.tree.New(kind, pos)
	var flags Flags
	if async {
		flags |= FlagAsync
	}
	if p.accept("*") {
		flags |= FlagGenerator
	}
	p.tree.Node(fn).Flags = flags

	if t := p.peek(); t.Type == token.Ident {
		p.next()
		p.tree.SetChild(fn, FieldID, p.tree.Ident(t.Value, posOf(t)))
	} else if kind == KindFunctionDecl {
		return None, p.errorf(t, "expected function name, got %s", describe(t))
	}

	if _, err := p.expect("("); err != nil {
		return None, err
	}
	for !p.is(")") {
		t := p.next()
		if t.Type != token.Ident {
			if t.Is(token.Punct, "...") {
				return None, p.errorf(t, "rest parameters are not supported")
			}
			return None, p.errorf(t, "expected parameter name, got %s", describe(t))
		}
		if p.is("=") {
			return None, p.errorf(p.peek(), "default parameters are not supported")
		}
		p.tree.Append(fn, p.tree.Ident(t.Value, posOf(t)))
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect(")"); err != nil {
		return None, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(fn, FieldBody, body)
	return fn, nil
}

func (p *parser) parseParenExpr() (NodeID, error) {
	if _, err := p.expect("("); err != nil {
		return None, err
	}
	e, err := p.parseExpression()
	if err != nil {
		return None, err
	}
	if _, err := p.expect(")"); err != nil {
		return None, err
	}
	return e, nil
}

func (p *parser) parseIf() (NodeID, error) {
	n := p.tree.New(KindIf, posOf(p.next()))
	test, err := p.parseParenExpr()
	if err != nil {
		return None, err
	}
	cons, err := p.parseStatement()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(n, FieldTest, test)
	p.tree.SetChild(n, FieldConsequent, cons)
	if p.accept("else") {
		alt, err := p.parseStatement()
		if err != nil {
			return None, err
		}
		p.tree.SetChild(n, FieldAlternate, alt)
	}
	return n, nil
}

func (p *parser) parseWhile() (NodeID, error) {
	n := p.tree.New(KindWhile, posOf(p.next()))
	test, err := p.parseParenExpr()
	if err != nil {
		return None, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(n, FieldTest, test)
	p.tree.SetChild(n, FieldBody, body)
	return n, nil
}

func (p *parser) parseFor() (NodeID, error) {
	n := p.tree.New(KindFor, posOf(p.next()))
	if _, err := p.expect("("); err != nil {
		return None, err
	}

	if !p.is(";") {
		var init NodeID
		var err error
		if p.is("var") || p.is("let") || p.is("const") {
			init, err = p.parseVarDecl()
		} else {
			init, err = p.parseExpression()
		}
		if err != nil {
			return None, err
		}
		p.tree.SetChild(n, FieldInit, init)
	}
	if _, err := p.expect(";"); err != nil {
		return None, err
	}

	if !p.is(";") {
		test, err := p.parseExpression()
		if err != nil {
			return None, err
		}
		p.tree.SetChild(n, FieldTest, test)
	}
	if _, err := p.expect(";"); err != nil {
		return None, err
	}

	if !p.is(")") {
		update, err := p.parseExpression()
		if err != nil {
			return None, err
		}
		p.tree.SetChild(n, FieldUpdate, update)
	}
	if _, err := p.expect(")"); err != nil {
		return None, err
	}

	body, err := p.parseStatement()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(n, FieldBody, body)
	return n, nil
}

func (p *parser) parseReturn() (NodeID, error) {
	n := p.tree.New(KindReturn, posOf(p.next()))
	t := p.peek()
	if t.Is(token.Punct, ";") || t.Is(token.Punct, "}") || t.Type == token.EOF || t.NewlineBefore {
		return n, p.semicolon()
	}
	arg, err := p.parseExpression()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(n, FieldArgument, arg)
	return n, p.semicolon()
}

func (p *parser) parseThrow() (NodeID, error) {
	n := p.tree.New(KindThrow, posOf(p.next()))
	if t := p.peek(); t.NewlineBefore {
		return None, p.errorf(t, "illegal newline after throw")
	}
	arg, err := p.parseExpression()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(n, FieldArgument, arg)
	return n, p.semicolon()
}

func (p *parser) parseTry() (NodeID, error) {
	kw := p.next()
	n := p.tree.New(KindTry, posOf(kw))
	block, err := p.parseBlock()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(n, FieldBlock, block)

	if t := p.peek(); t.Is(token.Keyword, "catch") {
		p.next()
		c := p.tree.New(KindCatch, posOf(t))
		if p.accept("(") {
			name := p.next()
			if name.Type != token.Ident {
				return None, p.errorf(name, "expected catch parameter, got %s", describe(name))
			}
			p.tree.SetChild(c, FieldParam, p.tree.Ident(name.Value, posOf(name)))
			if _, err := p.expect(")"); err != nil {
				return None, err
			}
		}
		body, err := p.parseBlock()
		if err != nil {
			return None, err
		}
		p.tree.SetChild(c, FieldBody, body)
		p.tree.SetChild(n, FieldHandler, c)
	}

	if p.accept("finally") {
		fin, err := p.parseBlock()
		if err != nil {
			return None, err
		}
		p.tree.SetChild(n, FieldFinalizer, fin)
	}

	if p.tree.Child(n, FieldHandler) == None && p.tree.Child(n, FieldFinalizer) == None {
		return None, p.errorf(kw, "missing catch or finally after try")
	}
	return n, nil
}

func (p *parser) parseExpression() (NodeID, error) {
	first, err := p.parseAssign()
	if err != nil || !p.is(",") {
		return first, err
	}
	seq := p.tree.New(KindSequence, p.tree.Node(first).Pos)
	p.tree.Append(seq, first)
	for p.accept(",") {
		e, err := p.parseAssign()
		if err != nil {
			return None, err
		}
		p.tree.Append(seq, e)
	}
	return seq, nil
}

func isAssignTarget(k Kind) bool {
	return k == KindIdentifier || k == KindMember
}

func (p *parser) parseAssign() (NodeID, error) {
	if p.peek().Is(token.Keyword, "yield") {
		return p.parseYield()
	}

	left, err := p.parseConditional()
	if err != nil {
		return None, err
	}

	t := p.peek()
	op, ok := assignOps[t.Value]
	if !ok || t.Type != token.Punct {
		return left, nil
	}
	if !isAssignTarget(p.tree.Kind(left)) {
		return None, p.errorf(t, "invalid assignment target")
	}
	p.next()
	right, err := p.parseAssign()
	if err != nil {
		return None, err
	}
	n := p.tree.New(KindAssign, p.tree.Node(left).Pos)
	p.tree.Node(n).Op = op
	p.tree.SetChild(n, FieldLeft, left)
	p.tree.SetChild(n, FieldRight, right)
	return n, nil
}

func (p *parser) parseYield() (NodeID, error) {
	n := p.tree.New(KindYield, posOf(p.next()))
	if p.accept("*") {
		p.tree.Node(n).Flags |= FlagDelegate
	} else {
		t := p.peek()
		if t.NewlineBefore || t.Type == token.EOF {
			return n, nil
		}
		if t.Type == token.Punct && strings.Contains(")]},;:", t.Value) && len(t.Value) == 1 {
			return n, nil
		}
	}
	arg, err := p.parseAssign()
	if err != nil {
		return None, err
	}
	p.tree.SetChild(n, FieldArgument, arg)
	return n, nil
}

func (p *parser) parseConditional() (NodeID, error) {
	test, err := p.parseBinary(LConditional)
	if err != nil || !p.is("?") {
		return test, err
	}
	p.next()
	cons, err := p.parseAssign()
	if err != nil {
		return None, err
	}
	if _, err := p.expect(":"); err != nil {
		return None, err
	}
	alt, err := p.parseAssign()
	if err != nil {
		return None, err
	}
	n := p.tree.New(KindConditional, p.tree.Node(test).Pos)
	p.tree.SetChild(n, FieldTest, test)
	p.tree.SetChild(n, FieldConsequent, cons)
	p.tree.SetChild(n, FieldAlternate, alt)
	return n, nil
}

// parseBinary reads operators binding tighter than min.
func (p *parser) parseBinary(min Level) (NodeID, error) {
	left, err := p.parseUnary()
	if err != nil {
		return None, err
	}
	for {
		t := p.peek()
		if t.Is(token.Keyword, "in") || t.Is(token.Keyword, "instanceof") {
			return None, p.errorf(t, "operator %q is not supported", t.Value)
		}
		if t.Type != token.Punct {
			return left, nil
		}
		op, ok := binaryOps[t.Value]
		if !ok {
			return left, nil
		}
		level := OpTable[op].Level
		if level <= min {
			return left, nil
		}
		p.next()

		// ** is right-associative
		rightMin := level
		if op == OpPow {
			rightMin = level - 1
		}
		right, err := p.parseBinary(rightMin)
		if err != nil {
			return None, err
		}

		kind := KindBinary
		if op.IsLogical() {
			kind = KindLogical
		}
		n := p.tree.New(kind, p.tree.Node(left).Pos)
		p.tree.Node(n).Op = op
		p.tree.SetChild(n, FieldLeft, left)
		p.tree.SetChild(n, FieldRight, right)
		left = n
	}
}

func (p *parser) parseUnary() (NodeID, error) {
	t := p.peek()
	if t.Type == token.Punct || t.Type == token.Keyword {
		if op, ok := unaryOps[t.Value]; ok {
			p.next()
			arg, err := p.parseUnary()
			if err != nil {
				return None, err
			}
			n := p.tree.New(KindUnary, posOf(t))
			p.tree.Node(n).Op = op
			p.tree.SetChild(n, FieldArgument, arg)
			return n, nil
		}

		switch t.Value {
		case "++", "--":
			p.next()
			arg, err := p.parseUnary()
			if err != nil {
				return None, err
			}
			if !isAssignTarget(p.tree.Kind(arg)) {
				return None, p.errorf(t, "invalid %s operand", t.Value)
			}
			return p.update(t, arg, true), nil
		case "await":
			p.next()
			arg, err := p.parseUnary()
			if err != nil {
				return None, err
			}
			n := p.tree.New(KindAwait, posOf(t))
			p.tree.SetChild(n, FieldArgument, arg)
			return n, nil
		case "new", "delete":
			return None, p.errorf(t, "operator %q is not supported", t.Value)
		}
	}

	expr, err := p.parseCallMember()
	if err != nil {
		return None, err
	}
	if t := p.peek(); (t.Is(token.Punct, "++") || t.Is(token.Punct, "--")) && !t.NewlineBefore {
		if !isAssignTarget(p.tree.Kind(expr)) {
			return None, p.errorf(t, "invalid %s operand", t.Value)
		}
		p.next()
		return p.update(t, expr, false), nil
	}
	return expr, nil
}

func (p *parser) update(t token.Token, arg NodeID, prefix bool) NodeID {
	pos := posOf(t)
	if !prefix {
		pos = p.tree.Node(arg).Pos
	}
	n := p.tree.New(KindUpdate, pos)
	node := p.tree.Node(n)
	node.Op = OpInc
	if t.Value == "--" {
		node.Op = OpDec
	}
	if prefix {
		node.Flags |= FlagPrefix
	}
	p.tree.SetChild(n, FieldArgument, arg)
	return n
}

func (p *parser) parseCallMember() (NodeID, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return None, err
	}

	for {
		t := p.peek()
		switch {
		case t.Is(token.Punct, "."):
			p.next()
			name := p.next()
			if name.Type != token.Ident && name.Type != token.Keyword {
				return None, p.errorf(name, "expected property name, got %s", describe(name))
			}
			m := p.tree.New(KindMember, p.tree.Node(expr).Pos)
			p.tree.SetChild(m, FieldObject, expr)
			p.tree.SetChild(m, FieldProperty, p.tree.Ident(name.Value, posOf(name)))
			expr = m

		case t.Is(token.Punct, "["):
			p.next()
			key, err := p.parseExpression()
			if err != nil {
				return None, err
			}
			if _, err := p.expect("]"); err != nil {
				return None, err
			}
			m := p.tree.New(KindMember, p.tree.Node(expr).Pos)
			p.tree.Node(m).Flags |= FlagComputed
			p.tree.SetChild(m, FieldObject, expr)
			p.tree.SetChild(m, FieldProperty, key)
			expr = m

		case t.Is(token.Punct, "("):
			p.next()
			call := p.tree.New(KindCall, p.tree.Node(expr).Pos)
			p.tree.SetChild(call, FieldCallee, expr)
			for !p.is(")") {
				if p.is("...") {
					return None, p.errorf(p.peek(), "spread arguments are not supported")
				}
				arg, err := p.parseAssign()
				if err != nil {
					return None, err
				}
				p.tree.Append(call, arg)
				if !p.accept(",") {
					break
				}
			}
			if _, err := p.expect(")"); err != nil {
				return None, err
			}
			expr = call

		case t.Is(token.Punct, "?."):
			return None, p.errorf(t, "optional chaining is not supported")

		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (NodeID, error) {
	t := p.next()
	pos := posOf(t)

	switch t.Type {
	case token.Ident:
		if t.Value == "async" && p.peek().Is(token.Keyword, "function") && !p.peek().NewlineBefore {
			p.next()
			return p.parseFunction(KindFunctionExpr, true, pos)
		}
		if p.is("=>") {
			return None, p.errorf(p.peek(), "arrow functions are not supported")
		}
		return p.tree.Ident(t.Value, pos), nil

	case token.Number:
		v, err := parseNumber(t.Value)
		if err != nil {
			return None, p.errorf(t, "invalid number %q", t.Value)
		}
		n := p.tree.New(KindNumber, pos)
		p.tree.Node(n).Name = t.Value
		p.tree.Node(n).Num = v
		return n, nil

	case token.String:
		n := p.tree.New(KindString, pos)
		p.tree.Node(n).Name = t.Value
		return n, nil

	case token.Keyword:
		switch t.Value {
		case "true", "false":
			n := p.tree.New(KindBoolean, pos)
			p.tree.Node(n).Name = t.Value
			return n, nil
		case "null":
			return p.tree.New(KindNull, pos), nil
		case "this":
			return p.tree.New(KindThis, pos), nil
		case "function":
			return p.parseFunction(KindFunctionExpr, false, pos)
		}
		return None, p.errorf(t, "unexpected keyword %q", t.Value)

	case token.Punct:
		switch t.Value {
		case "(":
			e, err := p.parseExpression()
			if err != nil {
				return None, err
			}
			if _, err := p.expect(")"); err != nil {
				return None, err
			}
			if p.is("=>") {
				return None, p.errorf(p.peek(), "arrow functions are not supported")
			}
			return e, nil
		case "[":
			return p.parseArray(pos)
		case "{":
			return p.parseObject(pos)
		}

	case token.EOF:
		return None, p.errorf(t, "unexpected end of input")
	}
	return None, p.unexpected(t)
}

func (p *parser) parseArray(pos Pos) (NodeID, error) {
	arr := p.tree.New(KindArray, pos)
	for !p.is("]") {
		if p.is(",") {
			return None, p.errorf(p.peek(), "array holes are not supported")
		}
		if p.is("...") {
			return None, p.errorf(p.peek(), "spread elements are not supported")
		}
		e, err := p.parseAssign()
		if err != nil {
			return None, err
		}
		p.tree.Append(arr, e)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("]"); err != nil {
		return None, err
	}
	return arr, nil
}

func (p *parser) parseObject(pos Pos) (NodeID, error) {
	obj := p.tree.New(KindObject, pos)
	for !p.is("}") {
		t := p.next()
		prop := p.tree.New(KindProperty, posOf(t))
		var key NodeID
		switch t.Type {
		case token.Ident, token.Keyword:
			key = p.tree.Ident(t.Value, posOf(t))
		case token.String:
			key = p.tree.New(KindString, posOf(t))
			p.tree.Node(key).Name = t.Value
		case token.Number:
			v, err := parseNumber(t.Value)
			if err != nil {
				return None, p.errorf(t, "invalid number %q", t.Value)
			}
			key = p.tree.New(KindNumber, posOf(t))
			p.tree.Node(key).Name = t.Value
			p.tree.Node(key).Num = v
		case token.Punct:
			if t.Value != "[" {
				return None, p.unexpected(t)
			}
			k, err := p.parseAssign()
			if err != nil {
				return None, err
			}
			if _, err := p.expect("]"); err != nil {
				return None, err
			}
			key = k
			p.tree.Node(prop).Flags |= FlagComputed
		default:
			return None, p.unexpected(t)
		}
		p.tree.SetChild(prop, FieldKey, key)

		switch {
		case p.accept(":"):
			v, err := p.parseAssign()
			if err != nil {
				return None, err
			}
			p.tree.SetChild(prop, FieldValue, v)
		case t.Type == token.Ident && (p.is(",") || p.is("}")):
			p.tree.Node(prop).Flags |= FlagShorthand
			p.tree.SetChild(prop, FieldValue, p.tree.Ident(t.Value, posOf(t)))
		case p.is("("):
			return None, p.errorf(p.peek(), "method shorthand is not supported")
		default:
			return None, p.errorf(p.peek(), "expected ':', got %s", describe(p.peek()))
		}

		p.tree.Append(obj, prop)
		if !p.accept(",") {
			break
		}
	}
	if _, err := p.expect("}"); err != nil {
		return None, err
	}
	return obj, nil
}

func parseNumber(s string) (float64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		u, err := strconv.ParseUint(s[2:], 16, 64)
		return float64(u), err
	}
	return strconv.ParseFloat(s, 64)
}
