// Package ast defines the kei abstract syntax tree: a tagged-union style
// node set, following the same Node/Expression/Statement marker-interface
// pattern used throughout the teacher corpus's hand-written parsers.
package ast

import "github.com/kei-lang/kei/pkg/token"

// NodeType names a concrete AST node kind, mirroring the string-enum style
// the teacher repo uses for debugging and error messages.
type NodeType string

const (
	NodeIdentifier         NodeType = "Identifier"
	NodeIntegerLiteral     NodeType = "IntegerLiteral"
	NodeFloatLiteral       NodeType = "FloatLiteral"
	NodeStringLiteral      NodeType = "StringLiteral"
	NodeBoolLiteral        NodeType = "BoolLiteral"
	NodeNilLiteral         NodeType = "NilLiteral"
	NodeListLiteral        NodeType = "ListLiteral"
	NodeDictLiteral        NodeType = "DictLiteral"
	NodeRangeExpr          NodeType = "RangeExpr"
	NodeSelfExpr           NodeType = "SelfExpr"
	NodeUnaryExpr          NodeType = "UnaryExpr"
	NodeBinaryExpr         NodeType = "BinaryExpr"
	NodeTernaryExpr        NodeType = "TernaryExpr"
	NodeAssignExpr         NodeType = "AssignExpr"
	NodeDesignateExpr      NodeType = "DesignateExpr"
	NodeCallExpr           NodeType = "CallExpr"
	NodeMemberAccessExpr   NodeType = "MemberAccessExpr"
	NodeIndexExpr          NodeType = "IndexExpr"
	NodeSliceExpr          NodeType = "SliceExpr"
	NodeLambdaExpr         NodeType = "LambdaExpr"
	NodeManifestExpr       NodeType = "ManifestExpr"
	NodeAscendCallExpr     NodeType = "AscendCallExpr"
	NodeYieldExpr          NodeType = "YieldExpr"
	NodeDelegateExpr       NodeType = "DelegateExpr"
	NodeAwaitExpr          NodeType = "AwaitExpr"
	NodeGeneratorExpr      NodeType = "GeneratorExpr"
	NodeListCompExpr       NodeType = "ListCompExpr"
	NodeInterpolatedString NodeType = "InterpolatedString"
	NodeSpreadExpr         NodeType = "SpreadExpr"

	NodeBlock          NodeType = "Block"
	NodeProtocolDef    NodeType = "ProtocolDef"
	NodeSequenceDef    NodeType = "SequenceDef"
	NodeParameter      NodeType = "Parameter"
	NodeEntityDef      NodeType = "EntityDef"
	NodeForeseeStmt    NodeType = "ForeseeStmt"
	NodeCycleWhile     NodeType = "CycleWhile"
	NodeCycleThrough   NodeType = "CycleThrough"
	NodeCycleFromTo    NodeType = "CycleFromTo"
	NodeSituationStmt  NodeType = "SituationStmt"
	NodeAttemptStmt    NodeType = "AttemptStmt"
	NodeRaiseStmt      NodeType = "RaiseStmt"
	NodeReturnStmt     NodeType = "ReturnStmt"
	NodeBreakStmt      NodeType = "BreakStmt"
	NodeContinueStmt   NodeType = "ContinueStmt"
	NodeSchemeStmt     NodeType = "SchemeStmt"
	NodePreviewStmt    NodeType = "PreviewStmt"
	NodeOverrideStmt   NodeType = "OverrideStmt"
	NodeAbsoluteStmt   NodeType = "AbsoluteStmt"
	NodeAnomalyStmt    NodeType = "AnomalyStmt"
	NodeImportStmt     NodeType = "ImportStmt"
	NodeProgram        NodeType = "Program"

	NodeIdentifierPattern NodeType = "IdentifierPattern"
	NodeWildcardPattern   NodeType = "WildcardPattern"
	NodeListPattern       NodeType = "ListPattern"
	NodeLiteralPattern    NodeType = "LiteralPattern"
)

// Node is the root marker interface implemented by every AST node.
type Node interface {
	NodeType() NodeType
	Position() token.Position
}

// Expression is a Node that produces a value.
type Expression interface {
	Node
	expressionMarker()
	statementMarker()
}

// Statement is a Node that executes for effect (expressions also qualify).
type Statement interface {
	Node
	statementMarker()
}

// Pattern is a Node usable on the left side of a binding form.
type Pattern interface {
	Node
	patternMarker()
}

type Base struct {
	Pos token.Position
}

func (b Base) Position() token.Position { return b.Pos }

type ExprBase struct{ Base }

func (ExprBase) expressionMarker() {}
func (ExprBase) statementMarker()  {} // every expression is also a statement

type StmtBase struct{ Base }

func (StmtBase) statementMarker() {}

type PatternBase struct{ Base }

func (PatternBase) patternMarker() {}

// ExprBaseFor, StmtBaseFor, and PatternBaseFor let the parser construct the
// embedded base fields of each node kind from a single token position.
func ExprBaseFor(pos token.Position) ExprBase       { return ExprBase{Base{Pos: pos}} }
func StmtBaseFor(pos token.Position) StmtBase       { return StmtBase{Base{Pos: pos}} }
func PatternBaseFor(pos token.Position) PatternBase { return PatternBase{Base{Pos: pos}} }

//-----------------------------------------------------------------------------
// Literals & primary expressions
//-----------------------------------------------------------------------------

type Identifier struct {
	ExprBase
	Name string
}

func (*Identifier) NodeType() NodeType { return NodeIdentifier }

type IntegerLiteral struct {
	ExprBase
	Value int64
}

func (*IntegerLiteral) NodeType() NodeType { return NodeIntegerLiteral }

type FloatLiteral struct {
	ExprBase
	Value float64
}

func (*FloatLiteral) NodeType() NodeType { return NodeFloatLiteral }

type StringLiteral struct {
	ExprBase
	Value string
}

func (*StringLiteral) NodeType() NodeType { return NodeStringLiteral }

// InterpolatedString alternates literal text chunks with embedded
// expressions: len(Parts) == len(Exprs)+1.
type InterpolatedString struct {
	ExprBase
	Parts []string
	Exprs []Expression
}

func (*InterpolatedString) NodeType() NodeType { return NodeInterpolatedString }

type BoolLiteral struct {
	ExprBase
	Value bool
}

func (*BoolLiteral) NodeType() NodeType { return NodeBoolLiteral }

type NilLiteral struct{ ExprBase }

func (*NilLiteral) NodeType() NodeType { return NodeNilLiteral }

type ListLiteral struct {
	ExprBase
	Elements []Expression
}

func (*ListLiteral) NodeType() NodeType { return NodeListLiteral }

type DictEntry struct {
	Key   Expression
	Value Expression
}

type DictLiteral struct {
	ExprBase
	Entries []DictEntry
}

func (*DictLiteral) NodeType() NodeType { return NodeDictLiteral }

type RangeExpr struct {
	ExprBase
	Start     Expression
	End       Expression
	Inclusive bool
}

func (*RangeExpr) NodeType() NodeType { return NodeRangeExpr }

type SelfExpr struct{ ExprBase }

func (*SelfExpr) NodeType() NodeType { return NodeSelfExpr }

//-----------------------------------------------------------------------------
// Operators
//-----------------------------------------------------------------------------

type UnaryExpr struct {
	ExprBase
	Operator string // "-", "not"
	Operand  Expression
}

func (*UnaryExpr) NodeType() NodeType { return NodeUnaryExpr }

type BinaryExpr struct {
	ExprBase
	Operator string
	Left     Expression
	Right    Expression
}

func (*BinaryExpr) NodeType() NodeType { return NodeBinaryExpr }

type TernaryExpr struct {
	ExprBase
	Condition Expression
	Then      Expression
	Else      Expression
}

func (*TernaryExpr) NodeType() NodeType { return NodeTernaryExpr }

// AssignExpr is `target = value` (target must be an lvalue form).
type AssignExpr struct {
	ExprBase
	Target Expression
	Value  Expression
}

func (*AssignExpr) NodeType() NodeType { return NodeAssignExpr }

// DesignateExpr is `designate name = value`, explicit current-scope bind.
type DesignateExpr struct {
	ExprBase
	Target Pattern
	Value  Expression
}

func (*DesignateExpr) NodeType() NodeType { return NodeDesignateExpr }

//-----------------------------------------------------------------------------
// Calls, access, collections
//-----------------------------------------------------------------------------

// SpreadExpr is a `...expr` call argument: Value must evaluate to a list,
// whose elements are spliced into the argument list in place.
type SpreadExpr struct {
	ExprBase
	Value Expression
}

func (*SpreadExpr) NodeType() NodeType { return NodeSpreadExpr }

type CallExpr struct {
	ExprBase
	Callee Expression
	Args   []Expression
}

func (*CallExpr) NodeType() NodeType { return NodeCallExpr }

type MemberAccessExpr struct {
	ExprBase
	Object Expression
	Member *Identifier
}

func (*MemberAccessExpr) NodeType() NodeType { return NodeMemberAccessExpr }

type IndexExpr struct {
	ExprBase
	Object Expression
	Index  Expression
}

func (*IndexExpr) NodeType() NodeType { return NodeIndexExpr }

type SliceExpr struct {
	ExprBase
	Object Expression
	Start  Expression
	End    Expression
	Step   Expression
}

func (*SliceExpr) NodeType() NodeType { return NodeSliceExpr }

type Parameter struct {
	Base
	Pattern Pattern
	Default Expression // nil if none
	IsRest  bool
}

func (*Parameter) NodeType() NodeType { return NodeParameter }

type LambdaExpr struct {
	ExprBase
	Params []*Parameter
	Body   Node // *Block or an Expression (expression-bodied lambda)
}

func (*LambdaExpr) NodeType() NodeType { return NodeLambdaExpr }

type ManifestExpr struct {
	ExprBase
	Class Expression
	Args  []Expression
}

func (*ManifestExpr) NodeType() NodeType { return NodeManifestExpr }

type AscendCallExpr struct {
	ExprBase
	Method string
	Args   []Expression
}

func (*AscendCallExpr) NodeType() NodeType { return NodeAscendCallExpr }

type YieldExpr struct {
	ExprBase
	Value Expression // nil if bare `yield`
}

func (*YieldExpr) NodeType() NodeType { return NodeYieldExpr }

type DelegateExpr struct {
	ExprBase
	Iterable Expression
}

func (*DelegateExpr) NodeType() NodeType { return NodeDelegateExpr }

type AwaitExpr struct {
	ExprBase
	Operand Expression
}

func (*AwaitExpr) NodeType() NodeType { return NodeAwaitExpr }

type GeneratorExpr struct {
	ExprBase
	Element Expression
	Var     Pattern
	Source  Expression
	Guard   Expression // nil if none
}

func (*GeneratorExpr) NodeType() NodeType { return NodeGeneratorExpr }

type ListCompExpr struct {
	ExprBase
	Element Expression
	Var     Pattern
	Source  Expression
	Guard   Expression
}

func (*ListCompExpr) NodeType() NodeType { return NodeListCompExpr }

//-----------------------------------------------------------------------------
// Statements & blocks
//-----------------------------------------------------------------------------

type Block struct {
	Base
	Statements []Statement
}

func (*Block) NodeType() NodeType { return NodeBlock }
func (*Block) statementMarker()   {}

type ProtocolDef struct {
	StmtBase
	Name      string // "" for anonymous
	Params    []*Parameter
	Body      *Block
	IsPrivate bool
}

func (*ProtocolDef) NodeType() NodeType { return NodeProtocolDef }
func (*ProtocolDef) expressionMarker()  {}

type SequenceDef struct {
	StmtBase
	Name   string
	Params []*Parameter
	Body   *Block
}

func (*SequenceDef) NodeType() NodeType { return NodeSequenceDef }
func (*SequenceDef) expressionMarker()  {}

type EntityDef struct {
	StmtBase
	Name    string
	Parent  string // "" if none
	Methods []*ProtocolDef
}

func (*EntityDef) NodeType() NodeType { return NodeEntityDef }

type ForeseeClause struct {
	Condition Expression // nil for the final `otherwise`
	Body      *Block
}

type ForeseeStmt struct {
	StmtBase
	Clauses []ForeseeClause
}

func (*ForeseeStmt) NodeType() NodeType { return NodeForeseeStmt }
func (*ForeseeStmt) expressionMarker()  {}

type CycleWhile struct {
	StmtBase
	Label     string
	Condition Expression
	Body      *Block
}

func (*CycleWhile) NodeType() NodeType { return NodeCycleWhile }

type CycleThrough struct {
	StmtBase
	Label    string
	Var      Pattern
	Iterable Expression
	Body     *Block
}

func (*CycleThrough) NodeType() NodeType { return NodeCycleThrough }

type CycleFromTo struct {
	StmtBase
	Label     string
	Var       Pattern
	From      Expression
	To        Expression
	Inclusive bool
	Step      Expression // nil if default 1
	Body      *Block
}

func (*CycleFromTo) NodeType() NodeType { return NodeCycleFromTo }

type AlignmentClause struct {
	Pattern Pattern
	Guard   Expression // nil if none
	Body    *Block
}

type SituationStmt struct {
	StmtBase
	Subject Expression
	Clauses []AlignmentClause
}

func (*SituationStmt) NodeType() NodeType { return NodeSituationStmt }
func (*SituationStmt) expressionMarker()  {}

type AttemptStmt struct {
	StmtBase
	Body        *Block
	RecoverVar  string // "" if no binding
	RecoverBody *Block // nil if no recover clause
}

func (*AttemptStmt) NodeType() NodeType { return NodeAttemptStmt }
func (*AttemptStmt) expressionMarker()  {}

type RaiseStmt struct {
	StmtBase
	Value Expression
}

func (*RaiseStmt) NodeType() NodeType { return NodeRaiseStmt }

type ReturnStmt struct {
	StmtBase
	Value Expression // nil for bare return
}

func (*ReturnStmt) NodeType() NodeType { return NodeReturnStmt }

type BreakStmt struct {
	StmtBase
	Label string
	Value Expression
}

func (*BreakStmt) NodeType() NodeType { return NodeBreakStmt }

type ContinueStmt struct {
	StmtBase
	Label string
}

func (*ContinueStmt) NodeType() NodeType { return NodeContinueStmt }

type SchemeStmt struct {
	StmtBase
	Label string
	Body  *Block
}

func (*SchemeStmt) NodeType() NodeType { return NodeSchemeStmt }

type PreviewStmt struct {
	StmtBase
	Body *Block
}

func (*PreviewStmt) NodeType() NodeType { return NodePreviewStmt }

type OverrideStmt struct {
	StmtBase
	Target *Identifier
	Value  Expression
}

func (*OverrideStmt) NodeType() NodeType { return NodeOverrideStmt }

type AbsoluteStmt struct {
	StmtBase
	Condition Expression
	Message   Expression // nil if none
}

func (*AbsoluteStmt) NodeType() NodeType { return NodeAbsoluteStmt }

type AnomalyStmt struct {
	StmtBase
	Message Expression
}

func (*AnomalyStmt) NodeType() NodeType { return NodeAnomalyStmt }

// ImportStmt is parsed so nested/un-inlined imports don't break the parser,
// but the driver resolves top-level imports textually before lexing.
type ImportStmt struct {
	StmtBase
	Path string
}

func (*ImportStmt) NodeType() NodeType { return NodeImportStmt }

// Program is the root node produced by the parser.
type Program struct {
	Base
	Statements []Statement
}

func (*Program) NodeType() NodeType { return NodeProgram }

//-----------------------------------------------------------------------------
// Patterns
//-----------------------------------------------------------------------------

type IdentifierPattern struct {
	PatternBase
	Name string
}

func (*IdentifierPattern) NodeType() NodeType { return NodeIdentifierPattern }

type WildcardPattern struct{ PatternBase }

func (*WildcardPattern) NodeType() NodeType { return NodeWildcardPattern }

type LiteralPattern struct {
	PatternBase
	Value Expression
}

func (*LiteralPattern) NodeType() NodeType { return NodeLiteralPattern }

// ListPattern destructures a list; Rest, if non-nil, binds the remaining
// tail (identifier or wildcard).
type ListPattern struct {
	PatternBase
	Elements []Pattern
	Rest     Pattern
}

func (*ListPattern) NodeType() NodeType { return NodeListPattern }
