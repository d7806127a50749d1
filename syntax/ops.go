package syntax

// Level is an operator binding strength; higher binds tighter.
type Level uint8

const (
	LLowest Level = iota
	LComma
	LYield
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitwiseOr
	LBitwiseXor
	LBitwiseAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponentiation
	LPrefix
	LPostfix
	LCall
	LMember
)

type Op uint8

const (
	OpNone Op = iota

	// unary
	OpPos
	OpNeg
	OpNot
	OpCpl
	OpTypeof
	OpVoid

	// update
	OpInc
	OpDec

	// binary
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpPow
	OpLt
	OpLe
	OpGt
	OpGe
	OpLooseEq
	OpLooseNe
	OpStrictEq
	OpStrictNe
	OpShl
	OpShr
	OpUShr
	OpBitAnd
	OpBitOr
	OpBitXor

	// logical
	OpLogicalAnd
	OpLogicalOr
	OpNullish

	// assignment
	OpAssign
	OpAddAssign
	OpSubAssign
	OpMulAssign
	OpDivAssign
	OpRemAssign

	opCount
)

type OpInfo struct {
	Text  string
	Level Level
	// Base is the binary operator a compound assignment applies.
	Base Op
}

var OpTable = [opCount]OpInfo{
	OpNone: {"", LLowest, OpNone},

	OpPos:    {"+", LPrefix, OpNone},
	OpNeg:    {"-", LPrefix, OpNone},
	OpNot:    {"!", LPrefix, OpNone},
	OpCpl:    {"~", LPrefix, OpNone},
	OpTypeof: {"typeof", LPrefix, OpNone},
	OpVoid:   {"void", LPrefix, OpNone},

	OpInc: {"++", LPostfix, OpNone},
	OpDec: {"--", LPostfix, OpNone},

	OpAdd:      {"+", LAdd, OpNone},
	OpSub:      {"-", LAdd, OpNone},
	OpMul:      {"*", LMultiply, OpNone},
	OpDiv:      {"/", LMultiply, OpNone},
	OpRem:      {"%", LMultiply, OpNone},
	OpPow:      {"**", LExponentiation, OpNone},
	OpLt:       {"<", LCompare, OpNone},
	OpLe:       {"<=", LCompare, OpNone},
	OpGt:       {">", LCompare, OpNone},
	OpGe:       {">=", LCompare, OpNone},
	OpLooseEq:  {"==", LEquals, OpNone},
	OpLooseNe:  {"!=", LEquals, OpNone},
	OpStrictEq: {"===", LEquals, OpNone},
	OpStrictNe: {"!==", LEquals, OpNone},
	OpShl:      {"<<", LShift, OpNone},
	OpShr:      {">>", LShift, OpNone},
	OpUShr:     {">>>", LShift, OpNone},
	OpBitAnd:   {"&", LBitwiseAnd, OpNone},
	OpBitOr:    {"|", LBitwiseOr, OpNone},
	OpBitXor:   {"^", LBitwiseXor, OpNone},

	OpLogicalAnd: {"&&", LLogicalAnd, OpNone},
	OpLogicalOr:  {"||", LLogicalOr, OpNone},
	OpNullish:    {"??", LNullishCoalescing, OpNone},

	OpAssign:    {"=", LAssign, OpNone},
	OpAddAssign: {"+=", LAssign, OpAdd},
	OpSubAssign: {"-=", LAssign, OpSub},
	OpMulAssign: {"*=", LAssign, OpMul},
	OpDivAssign: {"/=", LAssign, OpDiv},
	OpRemAssign: {"%=", LAssign, OpRem},
}

func (o Op) String() string {
	if o < opCount {
		return OpTable[o].Text
	}
	return "?"
}

var (
	unaryOps = map[string]Op{
		"+": OpPos, "-": OpNeg, "!": OpNot, "~": OpCpl, "typeof": OpTypeof, "void": OpVoid,
	}
	binaryOps = map[string]Op{
		"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpRem, "**": OpPow,
		"<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
		"==": OpLooseEq, "!=": OpLooseNe, "===": OpStrictEq, "!==": OpStrictNe,
		"<<": OpShl, ">>": OpShr, ">>>": OpUShr,
		"&": OpBitAnd, "|": OpBitOr, "^": OpBitXor,
		"&&": OpLogicalAnd, "||": OpLogicalOr, "??": OpNullish,
	}
	assignOps = map[string]Op{
		"=": OpAssign, "+=": OpAddAssign, "-=": OpSubAssign,
		"*=": OpMulAssign, "/=": OpDivAssign, "%=": OpRemAssign,
	}
)

// IsLogical reports whether o short-circuits.
func (o Op) IsLogical() bool {
	return o == OpLogicalAnd || o == OpLogicalOr || o == OpNullish
}
