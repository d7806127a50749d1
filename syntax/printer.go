package syntax

import (
	"strconv"
	"strings"

	"github.com/dop251/goja/ftoa"
)

const indentUnit = "    "

// Generate prints the whole tree. Output is deterministic and parses back
// to a structurally equal tree.
func Generate(t *Tree) string {
	if t.Root == None {
		return ""
	}
	return GenerateNode(t, t.Root)
}

// GenerateNode prints a single statement or expression subtree.
func GenerateNode(t *Tree, id NodeID) string {
	p := &printer{t: t}
	switch {
	case t.Kind(id) == KindProgram:
		p.program(id)
	case isStatement(t.Kind(id)):
		p.stmt(id)
	default:
		p.expr(id, LLowest)
	}
	return p.b.String()
}

func isStatement(k Kind) bool {
	return k >= KindProgram && k <= KindCatch
}

type printer struct {
	t      *Tree
	b      strings.Builder
	indent int
}

func (p *printer) print(s string) {
	p.b.WriteString(s)
}

func (p *printer) newline() {
	p.b.WriteByte('\n')
	for range p.indent {
		p.b.WriteString(indentUnit)
	}
}

func (p *printer) program(id NodeID) {
	for i, s := range p.t.List(id) {
		if i > 0 {
			p.newline()
		}
		p.stmt(s)
	}
}

func (p *printer) block(id NodeID) {
	p.print("{")
	p.indent++
	for _, s := range p.t.List(id) {
		p.newline()
		p.stmt(s)
	}
	p.indent--
	p.newline()
	p.print("}")
}

// body prints the statement governed by if/while/for: blocks stay on the
// header line, anything else goes on its own indented line.
func (p *printer) body(id NodeID) {
	if p.t.Kind(id) == KindBlock {
		p.print(" ")
		p.block(id)
		return
	}
	p.indent++
	p.newline()
	p.stmt(id)
	p.indent--
}

func (p *printer) stmt(id NodeID) {
	t := p.t
	n := t.Node(id)

	switch n.Kind {
	case KindBlock:
		p.block(id)

	case KindEmpty:
		p.print(";")

	case KindExpressionStmt:
		e := t.Child(id, FieldExpression)
		if p.startsAmbiguous(e) {
			p.print("(")
			p.expr(e, LLowest)
			p.print(")")
		} else {
			p.expr(e, LLowest)
		}
		p.print(";")

	case KindVarDecl:
		p.varDecl(id)
		p.print(";")

	case KindFunctionDecl:
		p.function(id)

	case KindReturn:
		p.print("return")
		if arg := t.Child(id, FieldArgument); arg != None {
			p.print(" ")
			p.expr(arg, LLowest)
		}
		p.print(";")

	case KindIf:
		p.print("if (")
		p.expr(t.Child(id, FieldTest), LLowest)
		p.print(")")
		cons := t.Child(id, FieldConsequent)
		p.body(cons)
		if alt := t.Child(id, FieldAlternate); alt != None {
			if t.Kind(cons) == KindBlock {
				p.print(" else")
			} else {
				p.newline()
				p.print("else")
			}
			if t.Kind(alt) == KindIf {
				p.print(" ")
				p.stmt(alt)
			} else {
				p.body(alt)
			}
		}

	case KindWhile:
		p.print("while (")
		p.expr(t.Child(id, FieldTest), LLowest)
		p.print(")")
		p.body(t.Child(id, FieldBody))

	case KindFor:
		p.print("for (")
		if init := t.Child(id, FieldInit); init != None {
			if t.Kind(init) == KindVarDecl {
				p.varDecl(init)
			} else {
				p.expr(init, LLowest)
			}
		}
		p.print(";")
		if test := t.Child(id, FieldTest); test != None {
			p.print(" ")
			p.expr(test, LLowest)
		}
		p.print(";")
		if update := t.Child(id, FieldUpdate); update != None {
			p.print(" ")
			p.expr(update, LLowest)
		}
		p.print(")")
		p.body(t.Child(id, FieldBody))

	case KindBreak:
		p.print("break;")

	case KindContinue:
		p.print("continue;")

	case KindThrow:
		p.print("throw ")
		p.expr(t.Child(id, FieldArgument), LLowest)
		p.print(";")

	case KindTry:
		p.print("try ")
		p.block(t.Child(id, FieldBlock))
		if h := t.Child(id, FieldHandler); h != None {
			p.print(" catch ")
			if param := t.Child(h, FieldParam); param != None {
				p.print("(")
				p.print(t.Node(param).Name)
				p.print(") ")
			}
			p.block(t.Child(h, FieldBody))
		}
		if f := t.Child(id, FieldFinalizer); f != None {
			p.print(" finally ")
			p.block(f)
		}

	default:
		p.expr(id, LLowest)
	}
}

func (p *printer) varDecl(id NodeID) {
	n := p.t.Node(id)
	switch {
	case n.Flags.Has(FlagConst):
		p.print("const ")
	case n.Flags.Has(FlagLet):
		p.print("let ")
	default:
		p.print("var ")
	}
	for i, d := range p.t.List(id) {
		if i > 0 {
			p.print(", ")
		}
		p.print(p.t.Node(p.t.Child(d, FieldID)).Name)
		if init := p.t.Child(d, FieldInit); init != None {
			p.print(" = ")
			p.expr(init, LYield)
		}
	}
}

func (p *printer) function(id NodeID) {
	n := p.t.Node(id)
	if n.Flags.Has(FlagAsync) {
		p.print("async ")
	}
	p.print("function")
	if n.Flags.Has(FlagGenerator) {
		p.print("*")
	}
	p.print(" ")
	p.print(p.t.FuncName(id))
	p.print("(")
	for i, param := range p.t.List(id) {
		if i > 0 {
			p.print(", ")
		}
		p.print(p.t.Node(param).Name)
	}
	p.print(") ")
	p.block(p.t.Child(id, FieldBody))
}

// startsAmbiguous reports whether an expression statement would begin with
// "function", "async function" or "{" and so needs parentheses.
func (p *printer) startsAmbiguous(id NodeID) bool {
	t := p.t
	for {
		switch t.Kind(id) {
		case KindFunctionExpr, KindObject:
			return true
		case KindCall:
			id = t.Child(id, FieldCallee)
		case KindMember:
			id = t.Child(id, FieldObject)
		case KindBinary, KindLogical, KindAssign:
			id = t.Child(id, FieldLeft)
		case KindConditional:
			id = t.Child(id, FieldTest)
		case KindSequence:
			id = t.List(id)[0]
		case KindUpdate:
			if t.Node(id).Flags.Has(FlagPrefix) {
				return false
			}
			id = t.Child(id, FieldArgument)
		default:
			return false
		}
	}
}

// ownLevel is the binding strength of the expression at id.
func (p *printer) ownLevel(id NodeID) Level {
	n := p.t.Node(id)
	switch n.Kind {
	case KindSequence:
		return LComma
	case KindYield, KindAwait:
		return LYield
	case KindAssign:
		return LAssign
	case KindConditional:
		return LConditional
	case KindBinary, KindLogical:
		return OpTable[n.Op].Level
	case KindUnary:
		return LPrefix
	case KindUpdate:
		if n.Flags.Has(FlagPrefix) {
			return LPrefix
		}
		return LPostfix
	case KindCall:
		return LCall
	}
	return LMember
}

// expr prints id, parenthesised when it binds looser than level.
func (p *printer) expr(id NodeID, level Level) {
	if p.ownLevel(id) < level {
		p.print("(")
		p.exprInner(id)
		p.print(")")
		return
	}
	p.exprInner(id)
}

func (p *printer) exprInner(id NodeID) {
	t := p.t
	n := t.Node(id)

	switch n.Kind {
	case KindIdentifier:
		p.print(n.Name)

	case KindNumber:
		if n.Name != "" {
			p.print(n.Name)
		} else {
			p.print(FormatNumber(n.Num))
		}

	case KindString:
		p.print(Quote(n.Name))

	case KindBoolean:
		p.print(n.Name)

	case KindNull:
		p.print("null")

	case KindThis:
		p.print("this")

	case KindArray:
		p.print("[")
		for i, e := range t.List(id) {
			if i > 0 {
				p.print(", ")
			}
			p.expr(e, LYield)
		}
		p.print("]")

	case KindObject:
		props := t.List(id)
		if len(props) == 0 {
			p.print("{}")
			return
		}
		p.print("{")
		p.indent++
		for i, prop := range props {
			if i > 0 {
				p.print(",")
			}
			p.newline()
			p.property(prop)
		}
		p.indent--
		p.newline()
		p.print("}")

	case KindFunctionExpr:
		p.function(id)

	case KindUnary:
		text := OpTable[n.Op].Text
		p.print(text)
		arg := t.Child(id, FieldArgument)
		if n.Op == OpTypeof || n.Op == OpVoid || p.signClash(text, arg) {
			p.print(" ")
		}
		p.expr(arg, LPrefix)

	case KindUpdate:
		text := OpTable[n.Op].Text
		if n.Flags.Has(FlagPrefix) {
			p.print(text)
			p.expr(t.Child(id, FieldArgument), LPostfix)
		} else {
			p.expr(t.Child(id, FieldArgument), LPostfix)
			p.print(text)
		}

	case KindBinary, KindLogical:
		level := OpTable[n.Op].Level
		leftLevel, rightLevel := level, level+1
		if n.Op == OpPow {
			leftLevel, rightLevel = level+1, level
		}
		p.expr(t.Child(id, FieldLeft), leftLevel)
		p.print(" ")
		p.print(OpTable[n.Op].Text)
		p.print(" ")
		p.expr(t.Child(id, FieldRight), rightLevel)

	case KindAssign:
		p.expr(t.Child(id, FieldLeft), LCall)
		p.print(" ")
		p.print(OpTable[n.Op].Text)
		p.print(" ")
		p.expr(t.Child(id, FieldRight), LYield)

	case KindConditional:
		p.expr(t.Child(id, FieldTest), LNullishCoalescing)
		p.print(" ? ")
		p.expr(t.Child(id, FieldConsequent), LYield)
		p.print(" : ")
		p.expr(t.Child(id, FieldAlternate), LYield)

	case KindSequence:
		for i, e := range t.List(id) {
			if i > 0 {
				p.print(", ")
			}
			p.expr(e, LYield)
		}

	case KindCall:
		p.expr(t.Child(id, FieldCallee), LCall)
		p.print("(")
		for i, a := range t.List(id) {
			if i > 0 {
				p.print(", ")
			}
			p.expr(a, LYield)
		}
		p.print(")")

	case KindMember:
		obj := t.Child(id, FieldObject)
		if t.Kind(obj) == KindNumber {
			p.print("(")
			p.exprInner(obj)
			p.print(")")
		} else {
			p.expr(obj, LCall)
		}
		prop := t.Child(id, FieldProperty)
		if n.Flags.Has(FlagComputed) {
			p.print("[")
			p.expr(prop, LLowest)
			p.print("]")
		} else {
			p.print(".")
			p.print(t.Node(prop).Name)
		}

	case KindYield:
		p.print("yield")
		if n.Flags.Has(FlagDelegate) {
			p.print("*")
		}
		if arg := t.Child(id, FieldArgument); arg != None {
			p.print(" ")
			p.expr(arg, LYield)
		}

	case KindAwait:
		p.print("await ")
		p.expr(t.Child(id, FieldArgument), LPrefix)

	default:
		p.print("/* " + n.Kind.String() + " */")
	}
}

func (p *printer) property(id NodeID) {
	t := p.t
	n := t.Node(id)
	key := t.Child(id, FieldKey)
	if n.Flags.Has(FlagShorthand) {
		p.print(t.Node(key).Name)
		return
	}
	switch {
	case n.Flags.Has(FlagComputed):
		p.print("[")
		p.expr(key, LYield)
		p.print("]")
	case t.Kind(key) == KindString:
		p.print(Quote(t.Node(key).Name))
	default:
		p.exprInner(key)
	}
	p.print(": ")
	p.expr(t.Child(id, FieldValue), LYield)
}

// signClash reports whether printing arg right after a +/- operator would
// fuse into ++ or --.
func (p *printer) signClash(op string, arg NodeID) bool {
	if op != "+" && op != "-" {
		return false
	}
	a := p.t.Node(arg)
	switch a.Kind {
	case KindUnary:
		return OpTable[a.Op].Text == op
	case KindUpdate:
		return a.Flags.Has(FlagPrefix) && OpTable[a.Op].Text[:1] == op
	}
	return false
}

// Quote renders s as a single-quoted string literal.
func Quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			b.WriteString(`\'`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\u2028', '\u2029':
			b.WriteString(`\u`)
			b.WriteString(strconv.FormatInt(int64(r), 16))
		default:
			if r < 0x20 || r == 0x7f {
				b.WriteString(`\x`)
				if r < 0x10 {
					b.WriteByte('0')
				}
				b.WriteString(strconv.FormatInt(int64(r), 16))
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// FormatNumber renders v the way script code observes numbers as strings.
func FormatNumber(v float64) string {
	return string(ftoa.FToStr(v, ftoa.ModeStandard, 0, nil))
}
