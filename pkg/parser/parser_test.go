package parser

import (
	"testing"

	"github.com/kei-lang/kei/pkg/ast"
)

func parseOK(t *testing.T, src string) *ast.Program {
	t.Helper()
	prog, errs := ParseProgram(src)
	if len(errs) > 0 {
		t.Fatalf("unexpected parse errors for %q: %v", src, errs)
	}
	return prog
}

func TestParseDesignateStatement(t *testing.T) {
	prog := parseOK(t, "designate count = 1\n")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	d, ok := prog.Statements[0].(*ast.DesignateExpr)
	if !ok {
		t.Fatalf("expected *ast.DesignateExpr, got %T", prog.Statements[0])
	}
	ident, ok := d.Target.(*ast.IdentifierPattern)
	if !ok || ident.Name != "count" {
		t.Fatalf("expected target pattern 'count', got %#v", d.Target)
	}
}

func TestParseBareExpressionBecomesAssignment(t *testing.T) {
	prog := parseOK(t, "x = 5\n")
	if _, ok := prog.Statements[0].(*ast.AssignExpr); !ok {
		t.Fatalf("expected *ast.AssignExpr, got %T", prog.Statements[0])
	}
}

func TestParseBinaryExprPrecedence(t *testing.T) {
	prog := parseOK(t, "1 + 2 * 3\n")
	bin, ok := prog.Statements[0].(*ast.BinaryExpr)
	if !ok {
		t.Fatalf("expected top-level *ast.BinaryExpr, got %T", prog.Statements[0])
	}
	if bin.Operator != "+" {
		t.Fatalf("expected '+' at the top (lowest precedence wins outermost), got %q", bin.Operator)
	}
	rhs, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || rhs.Operator != "*" {
		t.Fatalf("expected the right operand to be the '*' subexpression, got %#v", bin.Right)
	}
}

func TestParseForeseeAlternateOtherwise(t *testing.T) {
	src := "foresee a:\n    1\nalternate b:\n    2\notherwise:\n    3\n"
	prog := parseOK(t, src)
	stmt, ok := prog.Statements[0].(*ast.ForeseeStmt)
	if !ok {
		t.Fatalf("expected *ast.ForeseeStmt, got %T", prog.Statements[0])
	}
	if len(stmt.Clauses) != 3 {
		t.Fatalf("expected 3 clauses (foresee/alternate/otherwise), got %d", len(stmt.Clauses))
	}
	if stmt.Clauses[2].Condition != nil {
		t.Fatalf("expected the otherwise clause's condition to be nil")
	}
}

func TestParseCycleWhile(t *testing.T) {
	prog := parseOK(t, "cycle while true:\n    1\n")
	if _, ok := prog.Statements[0].(*ast.CycleWhile); !ok {
		t.Fatalf("expected *ast.CycleWhile, got %T", prog.Statements[0])
	}
}

func TestParseCycleThroughAs(t *testing.T) {
	prog := parseOK(t, "cycle through items as item:\n    item\n")
	ct, ok := prog.Statements[0].(*ast.CycleThrough)
	if !ok {
		t.Fatalf("expected *ast.CycleThrough, got %T", prog.Statements[0])
	}
	ident, ok := ct.Var.(*ast.IdentifierPattern)
	if !ok || ident.Name != "item" {
		t.Fatalf("expected loop variable pattern 'item', got %#v", ct.Var)
	}
}

func TestParseCycleFromTo(t *testing.T) {
	prog := parseOK(t, "cycle from 0 to 10 as i:\n    i\n")
	if _, ok := prog.Statements[0].(*ast.CycleFromTo); !ok {
		t.Fatalf("expected *ast.CycleFromTo, got %T", prog.Statements[0])
	}
}

func TestParseEntityDefWithInheritsAndMethod(t *testing.T) {
	src := "entity Dog inherits Animal:\n    protocol speak():\n        1\n"
	prog := parseOK(t, src)
	e, ok := prog.Statements[0].(*ast.EntityDef)
	if !ok {
		t.Fatalf("expected *ast.EntityDef, got %T", prog.Statements[0])
	}
	if e.Name != "Dog" || e.Parent != "Animal" {
		t.Fatalf("expected Dog inherits Animal, got Name=%q Parent=%q", e.Name, e.Parent)
	}
	if len(e.Methods) != 1 || e.Methods[0].Name != "speak" {
		t.Fatalf("expected one method 'speak', got %#v", e.Methods)
	}
}

func TestParseSequenceDefWithParams(t *testing.T) {
	prog := parseOK(t, "sequence counter(start, step = 1):\n    yield start\n")
	s, ok := prog.Statements[0].(*ast.SequenceDef)
	if !ok {
		t.Fatalf("expected *ast.SequenceDef, got %T", prog.Statements[0])
	}
	if len(s.Params) != 2 {
		t.Fatalf("expected 2 params, got %d", len(s.Params))
	}
	if s.Params[1].Default == nil {
		t.Fatalf("expected the second parameter to carry a default value")
	}
}

func TestParseAttemptRecover(t *testing.T) {
	src := "attempt:\n    1\nrecover err:\n    2\n"
	prog := parseOK(t, src)
	if _, ok := prog.Statements[0].(*ast.AttemptStmt); !ok {
		t.Fatalf("expected *ast.AttemptStmt, got %T", prog.Statements[0])
	}
}

func TestParseImportSurvivesAsNoOpNode(t *testing.T) {
	prog := parseOK(t, "import \"lib.kei\"\n")
	imp, ok := prog.Statements[0].(*ast.ImportStmt)
	if !ok {
		t.Fatalf("expected *ast.ImportStmt, got %T", prog.Statements[0])
	}
	if imp.Path != "lib.kei" {
		t.Fatalf("expected import path 'lib.kei', got %q", imp.Path)
	}
}

func TestParseRangeExprExclusiveAndInclusive(t *testing.T) {
	prog := parseOK(t, "[1..5]\n[1...5]\n")
	r1, ok := prog.Statements[0].(*ast.RangeExpr)
	if !ok || r1.Inclusive {
		t.Fatalf("expected an exclusive range for '..', got %#v", prog.Statements[0])
	}
	r2, ok := prog.Statements[1].(*ast.RangeExpr)
	if !ok || !r2.Inclusive {
		t.Fatalf("expected an inclusive range for '...', got %#v", prog.Statements[1])
	}
}

func TestParseFloorDivisionSameLevelAsOtherMultiplicativeOps(t *testing.T) {
	prog := parseOK(t, "7 // 2 + 1\n")
	bin, ok := prog.Statements[0].(*ast.BinaryExpr)
	if !ok || bin.Operator != "+" {
		t.Fatalf("expected '+' at the top, got %#v", prog.Statements[0])
	}
	lhs, ok := bin.Left.(*ast.BinaryExpr)
	if !ok || lhs.Operator != "//" {
		t.Fatalf("expected the left operand to be the '//' subexpression, got %#v", bin.Left)
	}
}

func TestParsePowerBindsTighterThanMultiplicative(t *testing.T) {
	prog := parseOK(t, "2 * 3 ** 2\n")
	bin, ok := prog.Statements[0].(*ast.BinaryExpr)
	if !ok || bin.Operator != "*" {
		t.Fatalf("expected '*' at the top, got %#v", prog.Statements[0])
	}
	rhs, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || rhs.Operator != "**" {
		t.Fatalf("expected the right operand to be the '**' subexpression, got %#v", bin.Right)
	}
}

func TestParsePowerIsRightAssociative(t *testing.T) {
	prog := parseOK(t, "2 ** 3 ** 2\n")
	bin, ok := prog.Statements[0].(*ast.BinaryExpr)
	if !ok || bin.Operator != "**" {
		t.Fatalf("expected top-level '**', got %#v", prog.Statements[0])
	}
	if _, ok := bin.Left.(*ast.IntegerLiteral); !ok {
		t.Fatalf("expected the left operand to be the literal 2, got %#v", bin.Left)
	}
	rhs, ok := bin.Right.(*ast.BinaryExpr)
	if !ok || rhs.Operator != "**" {
		t.Fatalf("expected the right operand to be the nested '**' subexpression, got %#v", bin.Right)
	}
}

func TestParseWalrusAssignIsEquivalentToPlainAssign(t *testing.T) {
	prog := parseOK(t, "g := counter()\n")
	if _, ok := prog.Statements[0].(*ast.AssignExpr); !ok {
		t.Fatalf("expected *ast.AssignExpr, got %T", prog.Statements[0])
	}
}

func TestParseGeneratorExprUsesForThroughWhere(t *testing.T) {
	prog := parseOK(t, "(x for x through items where x)\n")
	gen, ok := prog.Statements[0].(*ast.GeneratorExpr)
	if !ok {
		t.Fatalf("expected *ast.GeneratorExpr, got %T", prog.Statements[0])
	}
	ident, ok := gen.Var.(*ast.IdentifierPattern)
	if !ok || ident.Name != "x" {
		t.Fatalf("expected loop variable pattern 'x', got %#v", gen.Var)
	}
	if gen.Guard == nil {
		t.Fatalf("expected the 'where' clause to populate Guard")
	}
}

func TestParseGeneratorExprWithoutWhereClause(t *testing.T) {
	prog := parseOK(t, "(x for x through items)\n")
	gen, ok := prog.Statements[0].(*ast.GeneratorExpr)
	if !ok {
		t.Fatalf("expected *ast.GeneratorExpr, got %T", prog.Statements[0])
	}
	if gen.Guard != nil {
		t.Fatalf("expected no guard, got %#v", gen.Guard)
	}
}

func TestParseListCompStillUsesCycleThroughAsForesee(t *testing.T) {
	prog := parseOK(t, "[x cycle through items as x foresee x]\n")
	if _, ok := prog.Statements[0].(*ast.ListCompExpr); !ok {
		t.Fatalf("expected *ast.ListCompExpr, got %T", prog.Statements[0])
	}
}

func TestParseSingleQuoteStringLiteral(t *testing.T) {
	prog := parseOK(t, "'hi'\n")
	lit, ok := prog.Statements[0].(*ast.StringLiteral)
	if !ok || lit.Value != "hi" {
		t.Fatalf("expected a string literal 'hi', got %#v", prog.Statements[0])
	}
}

func TestParseUnknownTokenProducesSyntaxError(t *testing.T) {
	_, errs := ParseProgram(")\n")
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for a stray ')' token")
	}
}

func TestParseMissingColonAfterForeseeIsError(t *testing.T) {
	_, errs := ParseProgram("foresee true\n    1\n")
	if len(errs) == 0 {
		t.Fatalf("expected a syntax error for a missing ':' after the condition")
	}
}
