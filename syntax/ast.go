package syntax

import "github.com/wippyai/suspendjs/errors"

// NodeID addresses a node in a Tree. The zero value means "no node".
type NodeID uint32

const None NodeID = 0

// Pos is a 1-based source position.
type Pos = errors.Pos

type Kind uint8

const (
	KindInvalid Kind = iota

	// statements
	KindProgram
	KindBlock
	KindEmpty
	KindExpressionStmt
	KindVarDecl
	KindVarDeclarator
	KindFunctionDecl
	KindReturn
	KindIf
	KindWhile
	KindFor
	KindBreak
	KindContinue
	KindThrow
	KindTry
	KindCatch

	// expressions
	KindIdentifier
	KindNumber
	KindString
	KindBoolean
	KindNull
	KindThis
	KindArray
	KindObject
	KindProperty
	KindFunctionExpr
	KindUnary
	KindUpdate
	KindBinary
	KindLogical
	KindAssign
	KindConditional
	KindSequence
	KindCall
	KindMember
	KindYield
	KindAwait

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:        "Invalid",
	KindProgram:        "Program",
	KindBlock:          "BlockStatement",
	KindEmpty:          "EmptyStatement",
	KindExpressionStmt: "ExpressionStatement",
	KindVarDecl:        "VariableDeclaration",
	KindVarDeclarator:  "VariableDeclarator",
	KindFunctionDecl:   "FunctionDeclaration",
	KindReturn:         "ReturnStatement",
	KindIf:             "IfStatement",
	KindWhile:          "WhileStatement",
	KindFor:            "ForStatement",
	KindBreak:          "BreakStatement",
	KindContinue:       "ContinueStatement",
	KindThrow:          "ThrowStatement",
	KindTry:            "TryStatement",
	KindCatch:          "CatchClause",
	KindIdentifier:     "Identifier",
	KindNumber:         "NumericLiteral",
	KindString:         "StringLiteral",
	KindBoolean:        "BooleanLiteral",
	KindNull:           "NullLiteral",
	KindThis:           "ThisExpression",
	KindArray:          "ArrayExpression",
	KindObject:         "ObjectExpression",
	KindProperty:       "Property",
	KindFunctionExpr:   "FunctionExpression",
	KindUnary:          "UnaryExpression",
	KindUpdate:         "UpdateExpression",
	KindBinary:         "BinaryExpression",
	KindLogical:        "LogicalExpression",
	KindAssign:         "AssignmentExpression",
	KindConditional:    "ConditionalExpression",
	KindSequence:       "SequenceExpression",
	KindCall:           "CallExpression",
	KindMember:         "MemberExpression",
	KindYield:          "YieldExpression",
	KindAwait:          "AwaitExpression",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Unknown"
}

// IsFunction reports whether k is a function declaration or expression.
func (k Kind) IsFunction() bool {
	return k == KindFunctionDecl || k == KindFunctionExpr
}

// Field names a child slot of a node.
type Field uint8

const (
	FieldNone Field = iota
	FieldBody
	FieldDeclarations
	FieldID
	FieldInit
	FieldParams
	FieldArgument
	FieldExpression
	FieldExpressions
	FieldTest
	FieldConsequent
	FieldAlternate
	FieldUpdate
	FieldBlock
	FieldHandler
	FieldFinalizer
	FieldParam
	FieldElements
	FieldProperties
	FieldKey
	FieldValue
	FieldLeft
	FieldRight
	FieldCallee
	FieldArguments
	FieldObject
	FieldProperty

	fieldCount
)

var fieldNames = [fieldCount]string{
	FieldNone:         "none",
	FieldBody:         "body",
	FieldDeclarations: "declarations",
	FieldID:           "id",
	FieldInit:         "init",
	FieldParams:       "params",
	FieldArgument:     "argument",
	FieldExpression:   "expression",
	FieldExpressions:  "expressions",
	FieldTest:         "test",
	FieldConsequent:   "consequent",
	FieldAlternate:    "alternate",
	FieldUpdate:       "update",
	FieldBlock:        "block",
	FieldHandler:      "handler",
	FieldFinalizer:    "finalizer",
	FieldParam:        "param",
	FieldElements:     "elements",
	FieldProperties:   "properties",
	FieldKey:          "key",
	FieldValue:        "value",
	FieldLeft:         "left",
	FieldRight:        "right",
	FieldCallee:       "callee",
	FieldArguments:    "arguments",
	FieldObject:       "object",
	FieldProperty:     "property",
}

func (f Field) String() string {
	if f < fieldCount {
		return fieldNames[f]
	}
	return "unknown"
}

// Slot locates a node inside its parent: a single-valued field, or an
// element of the parent's list field at Index.
type Slot struct {
	Field Field
	Index int
}

type Flags uint8

const (
	FlagAsync Flags = 1 << iota
	FlagGenerator
	FlagComputed
	FlagPrefix
	FlagDelegate
	FlagLet
	FlagConst
	FlagShorthand
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// Node is one arena entry. Child edges are reached through Tree.
type Node struct {
	Name   string // identifier name, string value, raw number text, boolean text
	Num    float64
	edges  [4]NodeID
	list   []NodeID
	Pos    Pos
	Parent NodeID
	Slot   Slot
	Kind   Kind
	Op     Op
	Flags  Flags
}

// layout lists a kind's child fields in source order. At most one of them
// is a list field.
type layout struct {
	fields []Field
	list   Field
}

var layouts = [kindCount]layout{
	KindProgram:        {fields: []Field{FieldBody}, list: FieldBody},
	KindBlock:          {fields: []Field{FieldBody}, list: FieldBody},
	KindExpressionStmt: {fields: []Field{FieldExpression}},
	KindVarDecl:        {fields: []Field{FieldDeclarations}, list: FieldDeclarations},
	KindVarDeclarator:  {fields: []Field{FieldID, FieldInit}},
	KindFunctionDecl:   {fields: []Field{FieldID, FieldParams, FieldBody}, list: FieldParams},
	KindFunctionExpr:   {fields: []Field{FieldID, FieldParams, FieldBody}, list: FieldParams},
	KindReturn:         {fields: []Field{FieldArgument}},
	KindIf:             {fields: []Field{FieldTest, FieldConsequent, FieldAlternate}},
	KindWhile:          {fields: []Field{FieldTest, FieldBody}},
	KindFor:            {fields: []Field{FieldInit, FieldTest, FieldUpdate, FieldBody}},
	KindThrow:          {fields: []Field{FieldArgument}},
	KindTry:            {fields: []Field{FieldBlock, FieldHandler, FieldFinalizer}},
	KindCatch:          {fields: []Field{FieldParam, FieldBody}},
	KindArray:          {fields: []Field{FieldElements}, list: FieldElements},
	KindObject:         {fields: []Field{FieldProperties}, list: FieldProperties},
	KindProperty:       {fields: []Field{FieldKey, FieldValue}},
	KindUnary:          {fields: []Field{FieldArgument}},
	KindUpdate:         {fields: []Field{FieldArgument}},
	KindBinary:         {fields: []Field{FieldLeft, FieldRight}},
	KindLogical:        {fields: []Field{FieldLeft, FieldRight}},
	KindAssign:         {fields: []Field{FieldLeft, FieldRight}},
	KindConditional:    {fields: []Field{FieldTest, FieldConsequent, FieldAlternate}},
	KindSequence:       {fields: []Field{FieldExpressions}, list: FieldExpressions},
	KindCall:           {fields: []Field{FieldCallee, FieldArguments}, list: FieldArguments},
	KindMember:         {fields: []Field{FieldObject, FieldProperty}},
	KindYield:          {fields: []Field{FieldArgument}},
	KindAwait:          {fields: []Field{FieldArgument}},
}

// edge returns the edge index for a single-valued field, or -1.
func (l *layout) edge(f Field) int {
	i := 0
	for _, g := range l.fields {
		if g == l.list {
			continue
		}
		if g == f {
			return i
		}
		i++
	}
	return -1
}

// ListField returns the list field of kind k, or FieldNone.
func ListField(k Kind) Field {
	if k < kindCount {
		return layouts[k].list
	}
	return FieldNone
}
