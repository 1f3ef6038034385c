// Package parser implements a hand-written recursive-descent parser for
// kei, turning a token stream (see pkg/lexer) into an *ast.Program. Syntax
// errors are collected rather than aborting immediately: the parser enters
// panic-mode recovery, discarding tokens up to the next NEWLINE or DEDENT
// boundary, so a single bad statement does not blank out a whole file's
// diagnostics.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kei-lang/kei/pkg/ast"
	"github.com/kei-lang/kei/pkg/lexer"
	"github.com/kei-lang/kei/pkg/token"
)

// SyntaxError is one recovered parse failure.
type SyntaxError struct {
	Pos token.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}

// Parser holds the token buffer and cursor for one parse pass.
type Parser struct {
	toks   []token.Token
	pos    int
	errors []*SyntaxError
}

// ParseProgram lexes and parses src in one call, the entry point the
// driver and REPL use.
func ParseProgram(src string) (*ast.Program, []*SyntaxError) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		if lerr, ok := err.(*lexer.Error); ok {
			return nil, []*SyntaxError{{Pos: lerr.Pos, Msg: lerr.Msg}}
		}
		return nil, []*SyntaxError{{Msg: err.Error()}}
	}
	p := &Parser{toks: toks}
	prog := p.parseProgram()
	return prog, p.errors
}

// ParseExpressionString parses a single standalone expression, used for
// string-interpolation sub-expressions.
func ParseExpressionString(src string) (ast.Expression, error) {
	toks, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	expr := p.parseExpression()
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	idx := p.pos + off
	if idx >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[idx]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k token.Kind) token.Token {
	if p.cur().Kind != k {
		p.errorHere(fmt.Sprintf("expected %s, found %s", k, p.cur().Kind))
		return p.cur()
	}
	return p.advance()
}

func (p *Parser) errorHere(msg string) {
	p.errors = append(p.errors, &SyntaxError{Pos: p.cur().Pos, Msg: msg})
}

// skipNewlines consumes any run of NEWLINE tokens (blank statement
// separators between top-level or block statements).
func (p *Parser) skipNewlines() {
	for p.at(token.NEWLINE) {
		p.advance()
	}
}

// synchronize discards tokens until a statement boundary (NEWLINE/DEDENT/
// EOF) is reached, per the panic-mode recovery algorithm.
func (p *Parser) synchronize() {
	for !p.at(token.NEWLINE) && !p.at(token.DEDENT) && !p.at(token.EOF) {
		p.advance()
	}
	if p.at(token.NEWLINE) {
		p.advance()
	}
}

func (p *Parser) parseProgram() *ast.Program {
	prog := &ast.Program{}
	p.skipNewlines()
	for !p.at(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			prog.Statements = append(prog.Statements, stmt)
		}
		p.skipNewlines()
	}
	return prog
}

// parseBlock requires a ':' already consumed by the caller, then an
// INDENT, a run of statements, and a DEDENT.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Base: ast.Base{Pos: p.cur().Pos}}
	p.skipNewlines()
	if !p.at(token.INDENT) {
		p.errorHere("expected indented block")
		return block
	}
	p.advance()
	p.skipNewlines()
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.skipNewlines()
	}
	if p.at(token.DEDENT) {
		p.advance()
	}
	return block
}

//-----------------------------------------------------------------------------
// Statements
//-----------------------------------------------------------------------------

func (p *Parser) parseStatement() ast.Statement {
	defer func() {
		if r := recover(); r != nil {
			p.errorHere(fmt.Sprintf("%v", r))
			p.synchronize()
		}
	}()

	switch p.cur().Kind {
	case token.PROTOCOL:
		return p.parseProtocolDef(false)
	case token.SEQUENCE:
		return p.parseSequenceDef()
	case token.ENTITY:
		return p.parseEntityDef()
	case token.FORESEE:
		return p.parseForesee()
	case token.CYCLE:
		return p.parseCycle()
	case token.SITUATION:
		return p.parseSituation()
	case token.ATTEMPT:
		return p.parseAttempt()
	case token.RAISE:
		return p.parseRaise()
	case token.RETURN:
		return p.parseReturn()
	case token.BREAK:
		return p.parseBreak()
	case token.CONTINUE:
		return p.parseContinue()
	case token.SCHEME:
		return p.parseScheme()
	case token.PREVIEW:
		return p.parsePreview()
	case token.OVERRIDE:
		return p.parseOverride()
	case token.ABSOLUTE:
		return p.parseAbsolute()
	case token.ANOMALY:
		return p.parseAnomaly()
	case token.IMPORT:
		return p.parseImport()
	case token.DESIGNATE:
		return p.parseDesignateStatement()
	default:
		expr := p.parseExpression()
		stmt := p.finishExpressionStatement(expr)
		p.expectStatementEnd()
		return stmt
	}
}

// finishExpressionStatement turns a bare expression into an assignment if
// followed by '=' or ':=' — the two spellings are interchangeable (§4.4.2):
// both define the target if absent anywhere on the scope chain, else update
// it in place.
func (p *Parser) finishExpressionStatement(expr ast.Expression) ast.Statement {
	if p.at(token.ASSIGN) || p.at(token.DEFINE) {
		p.advance()
		value := p.parseExpression()
		return &ast.AssignExpr{ExprBase: ast.ExprBaseFor(expr.Position()), Target: expr, Value: value}
	}
	return expr
}

func (p *Parser) expectStatementEnd() {
	if p.at(token.NEWLINE) || p.at(token.EOF) || p.at(token.DEDENT) {
		return
	}
	// A statement ending in a block (e.g. a block-bodied lambda) has
	// already consumed its closing DEDENT.
	if p.pos > 0 && p.toks[p.pos-1].Kind == token.DEDENT {
		return
	}
	p.errorHere(fmt.Sprintf("expected end of statement, found %s", p.cur().Kind))
	p.synchronize()
}

func (p *Parser) parseDesignateStatement() ast.Statement {
	pos := p.cur().Pos
	p.advance()
	pat := p.parsePattern()
	p.expect(token.ASSIGN)
	value := p.parseExpression()
	p.expectStatementEnd()
	return &ast.DesignateExpr{ExprBase: ast.ExprBaseFor(pos), Target: pat, Value: value}
}

func (p *Parser) parseProtocolDef(anonymous bool) *ast.ProtocolDef {
	pos := p.cur().Pos
	p.advance() // 'protocol'
	name := ""
	if p.at(token.IDENT) {
		name = p.advance().Literal
	}
	params := p.parseParamList()
	p.expect(token.COLON)
	body := p.parseBlock()
	return &ast.ProtocolDef{StmtBase: ast.StmtBaseFor(pos), Name: name, Params: params, Body: body}
}

func (p *Parser) parseSequenceDef() *ast.SequenceDef {
	pos := p.cur().Pos
	p.advance() // 'sequence'
	name := ""
	if p.at(token.IDENT) {
		name = p.advance().Literal
	}
	params := p.parseParamList()
	p.expect(token.COLON)
	body := p.parseBlock()
	return &ast.SequenceDef{StmtBase: ast.StmtBaseFor(pos), Name: name, Params: params, Body: body}
}

func (p *Parser) parseParamList() []*ast.Parameter {
	p.expect(token.LPAREN)
	var params []*ast.Parameter
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		pos := p.cur().Pos
		rest := false
		if p.at(token.ELLIPSIS) {
			rest = true
			p.advance()
		}
		pat := p.parsePattern()
		var def ast.Expression
		if p.at(token.ASSIGN) {
			p.advance()
			def = p.parseExpression()
		}
		params = append(params, &ast.Parameter{Base: ast.Base{Pos: pos}, Pattern: pat, Default: def, IsRest: rest})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return params
}

func (p *Parser) parseEntityDef() *ast.EntityDef {
	pos := p.cur().Pos
	p.advance() // 'entity'
	name := p.expect(token.IDENT).Literal
	parent := ""
	if p.at(token.INHERITS) {
		p.advance()
		parent = p.expect(token.IDENT).Literal
	}
	p.expect(token.COLON)
	p.skipNewlines()
	if !p.at(token.INDENT) {
		p.errorHere("expected indented entity body")
		return &ast.EntityDef{StmtBase: ast.StmtBaseFor(pos), Name: name, Parent: parent}
	}
	p.advance()
	p.skipNewlines()
	var methods []*ast.ProtocolDef
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		if p.at(token.PROTOCOL) {
			methods = append(methods, p.parseProtocolDef(false))
		} else {
			p.errorHere("expected method definition in entity body")
			p.synchronize()
		}
		p.skipNewlines()
	}
	if p.at(token.DEDENT) {
		p.advance()
	}
	return &ast.EntityDef{StmtBase: ast.StmtBaseFor(pos), Name: name, Parent: parent, Methods: methods}
}

func (p *Parser) parseForesee() *ast.ForeseeStmt {
	pos := p.cur().Pos
	stmt := &ast.ForeseeStmt{StmtBase: ast.StmtBaseFor(pos)}
	p.advance() // 'foresee'
	cond := p.parseExpression()
	p.expect(token.COLON)
	body := p.parseBlock()
	stmt.Clauses = append(stmt.Clauses, ast.ForeseeClause{Condition: cond, Body: body})
	for p.at(token.ALTERNATE) {
		p.advance()
		c := p.parseExpression()
		p.expect(token.COLON)
		b := p.parseBlock()
		stmt.Clauses = append(stmt.Clauses, ast.ForeseeClause{Condition: c, Body: b})
	}
	if p.at(token.OTHERWISE) {
		p.advance()
		p.expect(token.COLON)
		b := p.parseBlock()
		stmt.Clauses = append(stmt.Clauses, ast.ForeseeClause{Condition: nil, Body: b})
	}
	return stmt
}

func (p *Parser) parseCycle() ast.Statement {
	pos := p.cur().Pos
	p.advance() // 'cycle'
	switch p.cur().Kind {
	case token.WHILE:
		p.advance()
		cond := p.parseExpression()
		p.expect(token.COLON)
		body := p.parseBlock()
		return &ast.CycleWhile{StmtBase: ast.StmtBaseFor(pos), Condition: cond, Body: body}
	case token.THROUGH:
		p.advance()
		iterable := p.parseExpression()
		p.expect(token.AS)
		pat := p.parsePattern()
		p.expect(token.COLON)
		body := p.parseBlock()
		return &ast.CycleThrough{StmtBase: ast.StmtBaseFor(pos), Var: pat, Iterable: iterable, Body: body}
	case token.FROM:
		p.advance()
		from := p.parseExpression()
		p.expect(token.TO)
		to := p.parseExpression()
		var step ast.Expression
		if p.at(token.THROUGH) {
			p.advance()
			step = p.parseExpression()
		}
		p.expect(token.AS)
		pat := p.parsePattern()
		p.expect(token.COLON)
		body := p.parseBlock()
		return &ast.CycleFromTo{StmtBase: ast.StmtBaseFor(pos), Var: pat, From: from, To: to, Step: step, Body: body}
	default:
		p.errorHere("expected 'while', 'through', or 'from' after 'cycle'")
		p.synchronize()
		return nil
	}
}

func (p *Parser) parseSituation() *ast.SituationStmt {
	pos := p.cur().Pos
	p.advance() // 'situation'
	subject := p.parseExpression()
	p.expect(token.COLON)
	p.skipNewlines()
	stmt := &ast.SituationStmt{StmtBase: ast.StmtBaseFor(pos), Subject: subject}
	if !p.at(token.INDENT) {
		p.errorHere("expected indented situation body")
		return stmt
	}
	p.advance()
	p.skipNewlines()
	for !p.at(token.DEDENT) && !p.at(token.EOF) {
		if !p.at(token.ALIGNMENT) {
			p.errorHere("expected 'alignment' clause")
			p.synchronize()
			continue
		}
		p.advance()
		pat := p.parsePattern()
		var guard ast.Expression
		if p.at(token.FORESEE) {
			p.advance()
			guard = p.parseExpression()
		}
		p.expect(token.COLON)
		body := p.parseBlock()
		stmt.Clauses = append(stmt.Clauses, ast.AlignmentClause{Pattern: pat, Guard: guard, Body: body})
		p.skipNewlines()
	}
	if p.at(token.DEDENT) {
		p.advance()
	}
	return stmt
}

func (p *Parser) parseAttempt() *ast.AttemptStmt {
	pos := p.cur().Pos
	p.advance() // 'attempt'
	p.expect(token.COLON)
	body := p.parseBlock()
	stmt := &ast.AttemptStmt{StmtBase: ast.StmtBaseFor(pos), Body: body}
	if p.at(token.RECOVER) {
		p.advance()
		if p.at(token.IDENT) {
			stmt.RecoverVar = p.advance().Literal
		}
		p.expect(token.COLON)
		stmt.RecoverBody = p.parseBlock()
	}
	return stmt
}

func (p *Parser) parseRaise() *ast.RaiseStmt {
	pos := p.cur().Pos
	p.advance()
	val := p.parseExpression()
	p.expectStatementEnd()
	return &ast.RaiseStmt{StmtBase: ast.StmtBaseFor(pos), Value: val}
}

func (p *Parser) parseReturn() *ast.ReturnStmt {
	pos := p.cur().Pos
	p.advance()
	var val ast.Expression
	if !p.atStatementEnd() {
		val = p.parseExpression()
	}
	p.expectStatementEnd()
	return &ast.ReturnStmt{StmtBase: ast.StmtBaseFor(pos), Value: val}
}

func (p *Parser) parseBreak() *ast.BreakStmt {
	pos := p.cur().Pos
	p.advance()
	var val ast.Expression
	if !p.atStatementEnd() {
		val = p.parseExpression()
	}
	p.expectStatementEnd()
	return &ast.BreakStmt{StmtBase: ast.StmtBaseFor(pos), Value: val}
}

func (p *Parser) parseContinue() *ast.ContinueStmt {
	pos := p.cur().Pos
	p.advance()
	p.expectStatementEnd()
	return &ast.ContinueStmt{StmtBase: ast.StmtBaseFor(pos)}
}

func (p *Parser) parseScheme() *ast.SchemeStmt {
	pos := p.cur().Pos
	p.advance()
	p.expect(token.COLON)
	body := p.parseBlock()
	return &ast.SchemeStmt{StmtBase: ast.StmtBaseFor(pos), Body: body}
}

func (p *Parser) parsePreview() *ast.PreviewStmt {
	pos := p.cur().Pos
	p.advance()
	p.expect(token.COLON)
	body := p.parseBlock()
	return &ast.PreviewStmt{StmtBase: ast.StmtBaseFor(pos), Body: body}
}

func (p *Parser) parseOverride() *ast.OverrideStmt {
	pos := p.cur().Pos
	p.advance()
	target := &ast.Identifier{ExprBase: ast.ExprBaseFor(p.cur().Pos), Name: p.expect(token.IDENT).Literal}
	p.expect(token.ASSIGN)
	value := p.parseExpression()
	p.expectStatementEnd()
	return &ast.OverrideStmt{StmtBase: ast.StmtBaseFor(pos), Target: target, Value: value}
}

func (p *Parser) parseAbsolute() *ast.AbsoluteStmt {
	pos := p.cur().Pos
	p.advance()
	cond := p.parseExpression()
	var msg ast.Expression
	if p.at(token.COMMA) {
		p.advance()
		msg = p.parseExpression()
	}
	p.expectStatementEnd()
	return &ast.AbsoluteStmt{StmtBase: ast.StmtBaseFor(pos), Condition: cond, Message: msg}
}

func (p *Parser) parseAnomaly() *ast.AnomalyStmt {
	pos := p.cur().Pos
	p.advance()
	msg := p.parseExpression()
	p.expectStatementEnd()
	return &ast.AnomalyStmt{StmtBase: ast.StmtBaseFor(pos), Message: msg}
}

func (p *Parser) parseImport() *ast.ImportStmt {
	pos := p.cur().Pos
	p.advance()
	pathTok := p.expect(token.STRING)
	p.expectStatementEnd()
	return &ast.ImportStmt{StmtBase: ast.StmtBaseFor(pos), Path: pathTok.Literal}
}

func (p *Parser) atStatementEnd() bool {
	return p.at(token.NEWLINE) || p.at(token.EOF) || p.at(token.DEDENT)
}

//-----------------------------------------------------------------------------
// Expressions: precedence ladder
// ternary < or < and < not < comparison < additive < multiplicative <
// power(right-assoc) < unary < postfix < primary
//-----------------------------------------------------------------------------

func (p *Parser) parseExpression() ast.Expression {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.Expression {
	cond := p.parseOr()
	if p.at(token.QUESTION) {
		pos := p.cur().Pos
		p.advance()
		thenE := p.parseExpression()
		p.expect(token.COLON)
		elseE := p.parseExpression()
		return &ast.TernaryExpr{ExprBase: ast.ExprBaseFor(pos), Condition: cond, Then: thenE, Else: elseE}
	}
	return cond
}

func (p *Parser) parseOr() ast.Expression {
	left := p.parseAnd()
	for p.at(token.OR) {
		pos := p.cur().Pos
		p.advance()
		right := p.parseAnd()
		left = &ast.BinaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: "or", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAnd() ast.Expression {
	left := p.parseNot()
	for p.at(token.AND) {
		pos := p.cur().Pos
		p.advance()
		right := p.parseNot()
		left = &ast.BinaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: "and", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseNot() ast.Expression {
	if p.at(token.NOT) {
		pos := p.cur().Pos
		p.advance()
		operand := p.parseNot()
		return &ast.UnaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: "not", Operand: operand}
	}
	return p.parseComparison()
}

var comparisonOps = map[token.Kind]string{
	token.EQ: "==", token.NEQ: "!=", token.LT: "<", token.LE: "<=",
	token.GT: ">", token.GE: ">=",
}

func (p *Parser) parseComparison() ast.Expression {
	left := p.parseAdditive()
	for {
		op, ok := comparisonOps[p.cur().Kind]
		if !ok {
			break
		}
		pos := p.cur().Pos
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := p.cur().Literal
		pos := p.cur().Pos
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parsePower()
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.DSLASH) || p.at(token.PERCENT) {
		op := p.cur().Literal
		pos := p.cur().Pos
		p.advance()
		right := p.parsePower()
		left = &ast.BinaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: op, Left: left, Right: right}
	}
	return left
}

func (p *Parser) parsePower() ast.Expression {
	left := p.parseUnary()
	if p.at(token.DSTAR) {
		pos := p.cur().Pos
		p.advance()
		right := p.parsePower() // right-associative
		return &ast.BinaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: "**", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.cur().Kind {
	case token.MINUS:
		pos := p.cur().Pos
		p.advance()
		return &ast.UnaryExpr{ExprBase: ast.ExprBaseFor(pos), Operator: "-", Operand: p.parseUnary()}
	case token.AWAIT:
		pos := p.cur().Pos
		p.advance()
		return &ast.AwaitExpr{ExprBase: ast.ExprBaseFor(pos), Operand: p.parseUnary()}
	case token.DELEGATE:
		pos := p.cur().Pos
		p.advance()
		return &ast.DelegateExpr{ExprBase: ast.ExprBaseFor(pos), Iterable: p.parseUnary()}
	case token.YIELD:
		pos := p.cur().Pos
		p.advance()
		var val ast.Expression
		if !p.atYieldEnd() {
			val = p.parseExpression()
		}
		return &ast.YieldExpr{ExprBase: ast.ExprBaseFor(pos), Value: val}
	}
	return p.parsePostfix()
}

func (p *Parser) atYieldEnd() bool {
	switch p.cur().Kind {
	case token.NEWLINE, token.EOF, token.DEDENT, token.RPAREN, token.RBRACKET,
		token.RBRACE, token.COMMA, token.COLON:
		return true
	}
	return false
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.DOT:
			pos := p.cur().Pos
			p.advance()
			name := p.expect(token.IDENT).Literal
			expr = &ast.MemberAccessExpr{ExprBase: ast.ExprBaseFor(pos), Object: expr,
				Member: &ast.Identifier{ExprBase: ast.ExprBaseFor(pos), Name: name}}
		case token.LPAREN:
			pos := p.cur().Pos
			args := p.parseArgList()
			expr = &ast.CallExpr{ExprBase: ast.ExprBaseFor(pos), Callee: expr, Args: args}
		case token.LBRACKET:
			pos := p.cur().Pos
			p.advance()
			expr = p.finishIndexOrSlice(pos, expr)
		default:
			return expr
		}
	}
}

func (p *Parser) finishIndexOrSlice(pos token.Position, obj ast.Expression) ast.Expression {
	var start ast.Expression
	if !p.at(token.COLON) && !p.at(token.RBRACKET) {
		start = p.parseExpression()
	}
	if p.at(token.COLON) {
		p.advance()
		var end ast.Expression
		if !p.at(token.COLON) && !p.at(token.RBRACKET) {
			end = p.parseExpression()
		}
		var step ast.Expression
		if p.at(token.COLON) {
			p.advance()
			if !p.at(token.RBRACKET) {
				step = p.parseExpression()
			}
		}
		p.expect(token.RBRACKET)
		return &ast.SliceExpr{ExprBase: ast.ExprBaseFor(pos), Object: obj, Start: start, End: end, Step: step}
	}
	p.expect(token.RBRACKET)
	return &ast.IndexExpr{ExprBase: ast.ExprBaseFor(pos), Object: obj, Index: start}
}

func (p *Parser) parseArgList() []ast.Expression {
	p.expect(token.LPAREN)
	var args []ast.Expression
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		if p.at(token.ELLIPSIS) {
			pos := p.cur().Pos
			p.advance()
			args = append(args, &ast.SpreadExpr{ExprBase: ast.ExprBaseFor(pos), Value: p.parseExpression()})
		} else {
			args = append(args, p.parseExpression())
		}
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RPAREN)
	return args
}

func (p *Parser) parsePrimary() ast.Expression {
	t := p.cur()
	switch t.Kind {
	case token.IDENT:
		p.advance()
		return &ast.Identifier{ExprBase: ast.ExprBaseFor(t.Pos), Name: t.Literal}
	case token.INTEGER:
		p.advance()
		n, _ := strconv.ParseInt(t.Literal, 10, 64)
		return &ast.IntegerLiteral{ExprBase: ast.ExprBaseFor(t.Pos), Value: n}
	case token.FLOAT:
		p.advance()
		f, _ := strconv.ParseFloat(t.Literal, 64)
		return &ast.FloatLiteral{ExprBase: ast.ExprBaseFor(t.Pos), Value: f}
	case token.STRING:
		p.advance()
		return p.buildStringLiteral(t)
	case token.TRUE:
		p.advance()
		return &ast.BoolLiteral{ExprBase: ast.ExprBaseFor(t.Pos), Value: true}
	case token.FALSE:
		p.advance()
		return &ast.BoolLiteral{ExprBase: ast.ExprBaseFor(t.Pos), Value: false}
	case token.NIL:
		p.advance()
		return &ast.NilLiteral{ExprBase: ast.ExprBaseFor(t.Pos)}
	case token.SELF:
		p.advance()
		return &ast.SelfExpr{ExprBase: ast.ExprBaseFor(t.Pos)}
	case token.PIPE:
		return p.parseLambda()
	case token.LPAREN:
		return p.parseParenExpr()
	case token.LBRACKET:
		return p.parseBracketExpr()
	case token.LBRACE:
		return p.parseDictLiteral()
	case token.MANIFEST:
		return p.parseManifest()
	case token.ASCEND:
		return p.parseAscend()
	case token.PROCEED, token.TRANSMIT, token.RECEIVE, token.DISRUPT:
		p.advance()
		return &ast.Identifier{ExprBase: ast.ExprBaseFor(t.Pos), Name: t.Literal}
	default:
		p.errorHere(fmt.Sprintf("unexpected token %s in expression", t.Kind))
		p.advance()
		return &ast.NilLiteral{ExprBase: ast.ExprBaseFor(t.Pos)}
	}
}

func (p *Parser) parseLambda() ast.Expression {
	pos := p.cur().Pos
	p.advance() // first '|'
	var params []*ast.Parameter
	for !p.at(token.PIPE) && !p.at(token.EOF) {
		ppos := p.cur().Pos
		rest := false
		if p.at(token.ELLIPSIS) {
			rest = true
			p.advance()
		}
		pat := p.parsePattern()
		var def ast.Expression
		if p.at(token.ASSIGN) {
			p.advance()
			def = p.parseExpression()
		}
		params = append(params, &ast.Parameter{Base: ast.Base{Pos: ppos}, Pattern: pat, Default: def, IsRest: rest})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.PIPE)
	var body ast.Node
	if p.at(token.COLON) {
		p.advance()
		body = p.parseBlock()
	} else {
		body = p.parseExpression()
	}
	return &ast.LambdaExpr{ExprBase: ast.ExprBaseFor(pos), Params: params, Body: body}
}

func (p *Parser) parseParenExpr() ast.Expression {
	pos := p.cur().Pos
	p.advance() // '('
	first := p.parseExpression()
	if p.at(token.FOR) {
		return p.finishGeneratorExpr(pos, first)
	}
	p.expect(token.RPAREN)
	return first
}

// finishGeneratorExpr parses the `for ident through iterable [where cond])`
// tail of a parenthesized generator expression — a distinct grammar from
// the bracketed list comprehension's `cycle through iterable as ident
// [foresee cond]`, per spec.md §4.2.
func (p *Parser) finishGeneratorExpr(pos token.Position, element ast.Expression) ast.Expression {
	p.advance() // 'for'
	pat := p.parsePattern()
	p.expect(token.THROUGH)
	source := p.parseExpression()
	var guard ast.Expression
	if p.at(token.WHERE) {
		p.advance()
		guard = p.parseExpression()
	}
	p.expect(token.RPAREN)
	return &ast.GeneratorExpr{ExprBase: ast.ExprBaseFor(pos), Element: element, Var: pat, Source: source, Guard: guard}
}

// finishListCompExpr parses the `cycle through iterable as ident [foresee
// cond]]` tail of a bracketed list comprehension.
func (p *Parser) finishListCompExpr(pos token.Position, element ast.Expression) ast.Expression {
	p.advance() // 'cycle'
	p.expect(token.THROUGH)
	source := p.parseExpression()
	p.expect(token.AS)
	pat := p.parsePattern()
	var guard ast.Expression
	if p.at(token.FORESEE) {
		p.advance()
		guard = p.parseExpression()
	}
	p.expect(token.RBRACKET)
	return &ast.ListCompExpr{ExprBase: ast.ExprBaseFor(pos), Element: element, Var: pat, Source: source, Guard: guard}
}

func (p *Parser) parseBracketExpr() ast.Expression {
	pos := p.cur().Pos
	p.advance() // '['
	if p.at(token.RBRACKET) {
		p.advance()
		return &ast.ListLiteral{ExprBase: ast.ExprBaseFor(pos)}
	}
	first := p.parseExpression()
	if p.at(token.CYCLE) {
		return p.finishListCompExpr(pos, first)
	}
	if p.at(token.DOTDOT) || p.at(token.ELLIPSIS) {
		inclusive := p.at(token.ELLIPSIS)
		p.advance()
		end := p.parseExpression()
		p.expect(token.RBRACKET)
		return &ast.RangeExpr{ExprBase: ast.ExprBaseFor(pos), Start: first, End: end, Inclusive: inclusive}
	}
	elements := []ast.Expression{first}
	for p.at(token.COMMA) {
		p.advance()
		if p.at(token.RBRACKET) {
			break
		}
		elements = append(elements, p.parseExpression())
	}
	p.expect(token.RBRACKET)
	return &ast.ListLiteral{ExprBase: ast.ExprBaseFor(pos), Elements: elements}
}

func (p *Parser) parseDictLiteral() ast.Expression {
	pos := p.cur().Pos
	p.advance() // '{'
	lit := &ast.DictLiteral{ExprBase: ast.ExprBaseFor(pos)}
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		key := p.parseExpression()
		p.expect(token.COLON)
		val := p.parseExpression()
		lit.Entries = append(lit.Entries, ast.DictEntry{Key: key, Value: val})
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACE)
	return lit
}

func (p *Parser) parseManifest() ast.Expression {
	pos := p.cur().Pos
	p.advance() // 'manifest'
	class := p.parsePostfixFromPrimaryNoCall()
	args := p.parseArgList()
	return &ast.ManifestExpr{ExprBase: ast.ExprBaseFor(pos), Class: class, Args: args}
}

// parsePostfixFromPrimaryNoCall parses a primary plus member-access chain
// (for the class reference in `manifest Foo.Bar(...)`) without swallowing
// the trailing call, which belongs to `manifest` itself.
func (p *Parser) parsePostfixFromPrimaryNoCall() ast.Expression {
	expr := p.parsePrimary()
	for p.at(token.DOT) {
		pos := p.cur().Pos
		p.advance()
		name := p.expect(token.IDENT).Literal
		expr = &ast.MemberAccessExpr{ExprBase: ast.ExprBaseFor(pos), Object: expr,
			Member: &ast.Identifier{ExprBase: ast.ExprBaseFor(pos), Name: name}}
	}
	return expr
}

func (p *Parser) parseAscend() ast.Expression {
	pos := p.cur().Pos
	p.advance() // 'ascend'
	method := p.expect(token.IDENT).Literal
	args := p.parseArgList()
	return &ast.AscendCallExpr{ExprBase: ast.ExprBaseFor(pos), Method: method, Args: args}
}

//-----------------------------------------------------------------------------
// String interpolation
//-----------------------------------------------------------------------------

func (p *Parser) buildStringLiteral(t token.Token) ast.Expression {
	raw := t.Literal
	if !strings.ContainsRune(raw, '{') {
		return &ast.StringLiteral{ExprBase: ast.ExprBaseFor(t.Pos), Value: raw}
	}
	var parts []string
	var exprs []ast.Expression
	var buf strings.Builder
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c == '{' {
			depth := 1
			j := i + 1
			for j < len(raw) && depth > 0 {
				if raw[j] == '{' {
					depth++
				} else if raw[j] == '}' {
					depth--
					if depth == 0 {
						break
					}
				}
				j++
			}
			inner := raw[i+1 : j]
			parts = append(parts, buf.String())
			buf.Reset()
			expr, err := ParseExpressionString(inner)
			if err != nil {
				p.errorHere(fmt.Sprintf("invalid interpolation: %v", err))
				expr = &ast.NilLiteral{ExprBase: ast.ExprBaseFor(t.Pos)}
			}
			exprs = append(exprs, expr)
			if j < len(raw) {
				i = j + 1
			} else {
				i = j
			}
			continue
		}
		buf.WriteByte(c)
		i++
	}
	parts = append(parts, buf.String())
	return &ast.InterpolatedString{ExprBase: ast.ExprBaseFor(t.Pos), Parts: parts, Exprs: exprs}
}

//-----------------------------------------------------------------------------
// Patterns
//-----------------------------------------------------------------------------

func (p *Parser) parsePattern() ast.Pattern {
	t := p.cur()
	switch t.Kind {
	case token.IDENT:
		if t.Literal == "_" {
			p.advance()
			return &ast.WildcardPattern{PatternBase: ast.PatternBaseFor(t.Pos)}
		}
		p.advance()
		return &ast.IdentifierPattern{PatternBase: ast.PatternBaseFor(t.Pos), Name: t.Literal}
	case token.LBRACKET:
		return p.parseListPattern()
	case token.INTEGER, token.FLOAT, token.STRING, token.TRUE, token.FALSE, token.NIL, token.MINUS:
		expr := p.parseUnary()
		return &ast.LiteralPattern{PatternBase: ast.PatternBaseFor(t.Pos), Value: expr}
	default:
		p.errorHere(fmt.Sprintf("unexpected token %s in pattern", t.Kind))
		p.advance()
		return &ast.WildcardPattern{PatternBase: ast.PatternBaseFor(t.Pos)}
	}
}

func (p *Parser) parseListPattern() ast.Pattern {
	pos := p.cur().Pos
	p.advance() // '['
	pat := &ast.ListPattern{PatternBase: ast.PatternBaseFor(pos)}
	for !p.at(token.RBRACKET) && !p.at(token.EOF) {
		if p.at(token.ELLIPSIS) {
			p.advance()
			pat.Rest = p.parsePattern()
			break
		}
		pat.Elements = append(pat.Elements, p.parsePattern())
		if p.at(token.COMMA) {
			p.advance()
			continue
		}
		break
	}
	p.expect(token.RBRACKET)
	return pat
}
