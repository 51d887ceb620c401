package parser

import (
	"fmt"
	"strconv"
	"strings"

	"jscore/pkg/errors"
	"jscore/pkg/lexer"
	"jscore/pkg/source"
)

// --- Debug Flag ---
const debugParser = false

func debugPrint(format string, args ...interface{}) {
	if debugParser {
		fmt.Printf("[Parser Debug] "+format+"\n", args...)
	}
}

// Parser takes a lexer and builds an AST.
type Parser struct {
	l      *lexer.Lexer
	source *source.SourceFile
	errors []errors.ScriptError

	curToken  lexer.Token
	peekToken lexer.Token

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn

	// noIn suppresses the in operator while parsing a for-loop head.
	noIn bool
}

// Parsing functions types for Pratt parser
type (
	prefixParseFn func() Expression
	infixParseFn  func(Expression) Expression // Arg is the left side expression
)

// Precedence levels for VALUE operators
const (
	_ int = iota
	LOWEST
	COMMA       // ,
	ASSIGNMENT  // =, +=, -=, *=, /=, %=
	TERNARY     // ?:
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	EQUALS      // ==, !=, ===, !==
	LESSGREATER // >, <, >=, <=, in, instanceof
	SUM         // + or -
	PRODUCT     // * or / or %
	PREFIX      // -X or !X or ++X or typeof X
	POSTFIX     // X++ or X--
	CALL        // myFunction(X)
	INDEX       // array[index]
	MEMBER      // object.property
)

// Precedences map for VALUE operator tokens
var precedences = map[lexer.TokenType]int{
	lexer.COMMA:            COMMA,
	lexer.ASSIGN:           ASSIGNMENT,
	lexer.PLUS_ASSIGN:      ASSIGNMENT,
	lexer.MINUS_ASSIGN:     ASSIGNMENT,
	lexer.ASTERISK_ASSIGN:  ASSIGNMENT,
	lexer.SLASH_ASSIGN:     ASSIGNMENT,
	lexer.REMAINDER_ASSIGN: ASSIGNMENT,
	lexer.QUESTION:         TERNARY,
	lexer.LOGICAL_OR:       LOGICAL_OR,
	lexer.LOGICAL_AND:      LOGICAL_AND,
	lexer.EQ:               EQUALS,
	lexer.NOT_EQ:           EQUALS,
	lexer.STRICT_EQ:        EQUALS,
	lexer.STRICT_NOT_EQ:    EQUALS,
	lexer.LT:               LESSGREATER,
	lexer.GT:               LESSGREATER,
	lexer.LE:               LESSGREATER,
	lexer.GE:               LESSGREATER,
	lexer.IN:               LESSGREATER,
	lexer.INSTANCEOF:       LESSGREATER,
	lexer.PLUS:             SUM,
	lexer.MINUS:            SUM,
	lexer.ASTERISK:         PRODUCT,
	lexer.SLASH:            PRODUCT,
	lexer.REMAINDER:        PRODUCT,
	lexer.INC:              POSTFIX,
	lexer.DEC:              POSTFIX,
	lexer.LPAREN:           CALL,
	lexer.LBRACKET:         INDEX,
	lexer.DOT:              MEMBER,
}

// NewParser creates a parser over src. Line numbers start at the source's
// StartLine.
func NewParser(src *source.SourceFile) *Parser {
	p := &Parser{
		l:      lexer.NewLexerAt(src.Content, src.StartLine),
		source: src,
	}

	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.REGEX_LITERAL, p.parseRegexLiteral)
	p.registerPrefix(lexer.TRUE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.FALSE, p.parseBooleanLiteral)
	p.registerPrefix(lexer.NULL, p.parseNullLiteral)
	p.registerPrefix(lexer.THIS, p.parseThisExpression)
	p.registerPrefix(lexer.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(lexer.LBRACKET, p.parseArrayLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseObjectLiteral)
	p.registerPrefix(lexer.NEW, p.parseNewExpression)
	p.registerPrefix(lexer.ILLEGAL, p.parseIllegal)
	for _, t := range []lexer.TokenType{lexer.BANG, lexer.MINUS, lexer.PLUS, lexer.TYPEOF, lexer.VOID, lexer.DELETE} {
		p.registerPrefix(t, p.parsePrefixExpression)
	}
	p.registerPrefix(lexer.INC, p.parsePrefixUpdate)
	p.registerPrefix(lexer.DEC, p.parsePrefixUpdate)

	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	for _, t := range []lexer.TokenType{
		lexer.PLUS, lexer.MINUS, lexer.ASTERISK, lexer.SLASH, lexer.REMAINDER,
		lexer.EQ, lexer.NOT_EQ, lexer.STRICT_EQ, lexer.STRICT_NOT_EQ,
		lexer.LT, lexer.GT, lexer.LE, lexer.GE, lexer.IN, lexer.INSTANCEOF,
		lexer.LOGICAL_AND, lexer.LOGICAL_OR,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	for _, t := range []lexer.TokenType{
		lexer.ASSIGN, lexer.PLUS_ASSIGN, lexer.MINUS_ASSIGN,
		lexer.ASTERISK_ASSIGN, lexer.SLASH_ASSIGN, lexer.REMAINDER_ASSIGN,
	} {
		p.registerInfix(t, p.parseAssignmentExpression)
	}
	p.registerInfix(lexer.QUESTION, p.parseConditionalExpression)
	p.registerInfix(lexer.COMMA, p.parseSequenceExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.LBRACKET, p.parseIndexExpression)
	p.registerInfix(lexer.DOT, p.parseMemberExpression)
	p.registerInfix(lexer.INC, p.parsePostfixUpdate)
	p.registerInfix(lexer.DEC, p.parsePostfixUpdate)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse parses src into a Program. Errors are returned as
// *errors.SyntaxError values.
func Parse(src *source.SourceFile) (*Program, []errors.ScriptError) {
	return NewParser(src).ParseProgram()
}

// Incomplete reports whether parsing failed only because the input ended
// early, as with an unclosed block typed at a prompt.
func Incomplete(errs []errors.ScriptError) bool {
	if len(errs) == 0 {
		return false
	}
	for _, err := range errs {
		if !strings.HasSuffix(err.Message(), "end of input") {
			return false
		}
	}
	return true
}

// Errors returns the list of parsing errors.
func (p *Parser) Errors() []errors.ScriptError {
	return p.errors
}

// nextToken advances the current and peek tokens.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	debugPrint("nextToken(): cur='%s' (%s), peek='%s' (%s)", p.curToken.Literal, p.curToken.Type, p.peekToken.Literal, p.peekToken.Type)
}

// ParseProgram parses the entire input and returns the root Program node and any errors.
func (p *Parser) ParseProgram() (*Program, []errors.ScriptError) {
	program := &Program{Source: p.source}

	for !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt == nil {
			// Stop at the first error: later errors are usually noise.
			break
		}
		program.Statements = append(program.Statements, stmt)
		p.nextToken()
	}

	return program, p.errors
}

// --- Statement Parsing ---

func (p *Parser) parseStatement() Statement {
	debugPrint("parseStatement: cur='%s' (%s), peek='%s' (%s)", p.curToken.Literal, p.curToken.Type, p.peekToken.Literal, p.peekToken.Type)
	switch p.curToken.Type {
	case lexer.VAR, lexer.LET, lexer.CONST:
		return p.parseVarStatement()
	case lexer.FUNCTION:
		if p.peekTokenIs(lexer.IDENT) {
			return p.parseFunctionDeclaration()
		}
		return p.parseExpressionStatement()
	case lexer.RETURN:
		return p.parseReturnStatement()
	case lexer.IF:
		return p.parseIfStatement()
	case lexer.FOR:
		return p.parseForStatement()
	case lexer.WHILE:
		return p.parseWhileStatement()
	case lexer.DO:
		return p.parseDoWhileStatement()
	case lexer.BREAK:
		stmt := &BreakStatement{Token: p.curToken}
		p.consumeSemicolon()
		return stmt
	case lexer.CONTINUE:
		stmt := &ContinueStatement{Token: p.curToken}
		p.consumeSemicolon()
		return stmt
	case lexer.THROW:
		return p.parseThrowStatement()
	case lexer.TRY:
		return p.parseTryStatement()
	case lexer.LBRACE:
		if block := p.parseBlockStatement(); block != nil {
			return block
		}
		return nil
	case lexer.SEMICOLON:
		return &EmptyStatement{Token: p.curToken}
	default:
		return p.parseExpressionStatement()
	}
}

// consumeSemicolon consumes an optional trailing semicolon.
func (p *Parser) consumeSemicolon() {
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
}

func (p *Parser) parseVarStatement() Statement {
	stmt := p.parseVarDeclarations()
	if stmt == nil {
		return nil
	}
	p.consumeSemicolon()
	return stmt
}

// parseVarDeclarations parses `var a = 1, b` without the trailing
// semicolon. curToken is the var/let/const keyword.
func (p *Parser) parseVarDeclarations() *VarStatement {
	stmt := &VarStatement{Token: p.curToken}
	for {
		if !p.expectPeek(lexer.IDENT) {
			return nil
		}
		decl := &VarDeclarator{Name: &Identifier{Token: p.curToken, Value: p.curToken.Literal}}
		if p.peekTokenIs(lexer.ASSIGN) {
			p.nextToken() // '='
			p.nextToken()
			// COMMA precedence stops at the next declarator.
			decl.Value = p.parseExpression(COMMA)
			if decl.Value == nil {
				return nil
			}
		} else if stmt.Token.Type == lexer.CONST && !p.noIn {
			p.addError(decl.Name.Token, fmt.Sprintf("missing initializer in const declaration of %s", decl.Name.Value))
			return nil
		}
		stmt.Declarations = append(stmt.Declarations, decl)
		if !p.peekTokenIs(lexer.COMMA) {
			return stmt
		}
		p.nextToken() // ','
	}
}

func (p *Parser) parseFunctionDeclaration() Statement {
	fn, ok := p.parseFunctionLiteral().(*FunctionLiteral)
	if !ok || fn == nil {
		return nil
	}
	fn.Declaration = true
	return &FunctionDeclaration{Function: fn}
}

func (p *Parser) parseReturnStatement() *ReturnStatement {
	stmt := &ReturnStatement{Token: p.curToken}
	returnLine := p.curToken.Line

	// ASI: a line terminator after 'return' ends the statement.
	if p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		return stmt
	}
	if p.peekTokenIs(lexer.RBRACE) || p.peekTokenIs(lexer.EOF) || p.peekToken.Line != returnLine {
		return stmt
	}

	p.nextToken()
	stmt.ReturnValue = p.parseExpression(LOWEST)
	if stmt.ReturnValue == nil {
		return nil
	}
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseThrowStatement() Statement {
	stmt := &ThrowStatement{Token: p.curToken}
	if p.peekToken.Line != stmt.Token.Line {
		p.addError(p.peekToken, "illegal newline after throw")
		return nil
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	p.consumeSemicolon()
	return stmt
}

// parseSubStatement parses the body of an if, loop or else clause.
func (p *Parser) parseSubStatement() Statement {
	p.nextToken()
	return p.parseStatement()
}

func (p *Parser) parseIfStatement() Statement {
	stmt := &IfStatement{Token: p.curToken} // 'if' token

	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	if stmt.Consequence = p.parseSubStatement(); stmt.Consequence == nil {
		return nil
	}

	if p.peekTokenIs(lexer.ELSE) {
		p.nextToken() // 'else'
		if stmt.Alternative = p.parseSubStatement(); stmt.Alternative == nil {
			return nil
		}
	}
	return stmt
}

func (p *Parser) parseWhileStatement() Statement {
	stmt := &WhileStatement{Token: p.curToken}
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if stmt.Body = p.parseSubStatement(); stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseDoWhileStatement() Statement {
	stmt := &DoWhileStatement{Token: p.curToken}
	if stmt.Body = p.parseSubStatement(); stmt.Body == nil {
		return nil
	}
	if !p.expectPeek(lexer.WHILE) || !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil || !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	p.consumeSemicolon()
	return stmt
}

// parseForStatement parses both `for (init; cond; update)` and
// `for (x in obj)`.
func (p *Parser) parseForStatement() Statement {
	forToken := p.curToken
	if !p.expectPeek(lexer.LPAREN) {
		return nil
	}
	p.nextToken()

	var init Statement
	switch p.curToken.Type {
	case lexer.SEMICOLON:
		// no init; curToken already is the first ';'
	case lexer.VAR, lexer.LET, lexer.CONST:
		p.noIn = true
		decl := p.parseVarDeclarations()
		p.noIn = false
		if decl == nil {
			return nil
		}
		if p.peekTokenIs(lexer.IN) {
			if len(decl.Declarations) != 1 || decl.Declarations[0].Value != nil {
				p.addError(decl.Token, "invalid left-hand side in for-in loop")
				return nil
			}
			return p.parseForInRest(&ForInStatement{Token: forToken, Decl: decl})
		}
		init = decl
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
	default:
		first := p.curToken
		p.noIn = true
		expr := p.parseExpression(LOWEST)
		p.noIn = false
		if expr == nil {
			return nil
		}
		if p.peekTokenIs(lexer.IN) {
			if !isAssignable(expr) {
				p.addError(first, "invalid left-hand side in for-in loop")
				return nil
			}
			return p.parseForInRest(&ForInStatement{Token: forToken, Target: expr})
		}
		init = &ExpressionStatement{Token: first, Expression: expr}
		if !p.expectPeek(lexer.SEMICOLON) {
			return nil
		}
	}

	stmt := &ForStatement{Token: forToken, Init: init}
	// curToken is the first ';'
	if !p.peekTokenIs(lexer.SEMICOLON) {
		p.nextToken()
		if stmt.Condition = p.parseExpression(LOWEST); stmt.Condition == nil {
			return nil
		}
	}
	if !p.expectPeek(lexer.SEMICOLON) {
		return nil
	}
	if !p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		if stmt.Update = p.parseExpression(LOWEST); stmt.Update == nil {
			return nil
		}
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if stmt.Body = p.parseSubStatement(); stmt.Body == nil {
		return nil
	}
	return stmt
}

// parseForInRest finishes a for-in loop; peekToken is 'in'.
func (p *Parser) parseForInRest(stmt *ForInStatement) Statement {
	p.nextToken() // 'in'
	p.nextToken()
	if stmt.Object = p.parseExpression(LOWEST); stmt.Object == nil {
		return nil
	}
	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	if stmt.Body = p.parseSubStatement(); stmt.Body == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseTryStatement() Statement {
	stmt := &TryStatement{Token: p.curToken} // 'try' token

	if !p.expectPeek(lexer.LBRACE) {
		return nil
	}
	if stmt.Block = p.parseBlockStatement(); stmt.Block == nil {
		return nil
	}

	if p.peekTokenIs(lexer.CATCH) {
		p.nextToken() // 'catch'
		if p.peekTokenIs(lexer.LPAREN) {
			p.nextToken()
			if !p.expectPeek(lexer.IDENT) {
				return nil
			}
			stmt.Param = &Identifier{Token: p.curToken, Value: p.curToken.Literal}
			if !p.expectPeek(lexer.RPAREN) {
				return nil
			}
		}
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		if stmt.Handler = p.parseBlockStatement(); stmt.Handler == nil {
			return nil
		}
	}

	if p.peekTokenIs(lexer.FINALLY) {
		p.nextToken() // 'finally'
		if !p.expectPeek(lexer.LBRACE) {
			return nil
		}
		if stmt.Finalizer = p.parseBlockStatement(); stmt.Finalizer == nil {
			return nil
		}
	}

	if stmt.Handler == nil && stmt.Finalizer == nil {
		p.addError(stmt.Token, "try statement must have a catch clause, finally clause, or both")
		return nil
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() Statement {
	stmt := &ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	if !p.peekTokenIs(lexer.SEMICOLON) && !p.peekTokenIs(lexer.RBRACE) &&
		!p.peekTokenIs(lexer.EOF) && p.peekToken.Line == p.curToken.Line {
		p.peekError(lexer.SEMICOLON)
		return nil
	}
	p.consumeSemicolon()
	return stmt
}

// parseBlockStatement parses { ... }. curToken is '{' on entry and '}' on
// return.
func (p *Parser) parseBlockStatement() *BlockStatement {
	block := &BlockStatement{Token: p.curToken}

	p.nextToken() // Consume '{'

	for !p.curTokenIs(lexer.RBRACE) && !p.curTokenIs(lexer.EOF) {
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
		p.nextToken()
	}

	if !p.curTokenIs(lexer.RBRACE) {
		p.addError(p.curToken, "expected } before end of input")
		return nil
	}
	return block
}

// --- Expression Parsing (Pratt Parser) ---

func (p *Parser) parseExpression(precedence int) Expression {
	debugPrint("parseExpression(prec=%d): cur='%s' (%s)", precedence, p.curToken.Literal, p.curToken.Type)
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken)
		return nil
	}
	leftExp := prefix()
	if leftExp == nil {
		return nil
	}

	for !p.peekTokenIs(lexer.SEMICOLON) && precedence < p.peekPrecedence() {
		// Postfix ++/-- may not follow a line break.
		if (p.peekTokenIs(lexer.INC) || p.peekTokenIs(lexer.DEC)) && p.peekToken.Line != p.curToken.Line {
			return leftExp
		}
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}
		p.nextToken()
		if leftExp = infix(leftExp); leftExp == nil {
			return nil
		}
	}
	return leftExp
}

// -- Prefix Parse Functions --

func (p *Parser) parseIdentifier() Expression {
	return &Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseNumberLiteral() Expression {
	lit := &NumberLiteral{Token: p.curToken}
	text := p.curToken.Literal
	var err error
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		var n uint64
		n, err = strconv.ParseUint(text[2:], 16, 64)
		lit.Value = float64(n)
	} else {
		lit.Value, err = strconv.ParseFloat(text, 64)
	}
	if err != nil {
		p.addError(p.curToken, fmt.Sprintf("could not parse %q as number", text))
		return nil
	}
	return lit
}

func (p *Parser) parseStringLiteral() Expression {
	return &StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseRegexLiteral() Expression {
	lit := p.curToken.Literal
	end := strings.LastIndexByte(lit, '/')
	return &RegexLiteral{Token: p.curToken, Pattern: lit[1:end], Flags: lit[end+1:]}
}

func (p *Parser) parseBooleanLiteral() Expression {
	return &BooleanLiteral{Token: p.curToken, Value: p.curTokenIs(lexer.TRUE)}
}

func (p *Parser) parseNullLiteral() Expression {
	return &NullLiteral{Token: p.curToken}
}

func (p *Parser) parseThisExpression() Expression {
	return &ThisExpression{Token: p.curToken}
}

func (p *Parser) parseIllegal() Expression {
	p.addError(p.curToken, p.curToken.Literal)
	return nil
}

// parsePrefixExpression handles expressions like !expr or typeof expr
func (p *Parser) parsePrefixExpression() Expression {
	expression := &PrefixExpression{Token: p.curToken, Operator: p.curToken.Literal}
	p.nextToken()
	if expression.Right = p.parseExpression(PREFIX); expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parsePrefixUpdate() Expression {
	expression := &UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Prefix: true}
	p.nextToken()
	if expression.Argument = p.parseExpression(PREFIX); expression.Argument == nil {
		return nil
	}
	if !isAssignable(expression.Argument) {
		p.addError(expression.Token, "invalid left-hand side expression in prefix operation")
		return nil
	}
	return expression
}

func (p *Parser) parseGroupedExpression() Expression {
	saved := p.noIn
	p.noIn = false
	defer func() { p.noIn = saved }()

	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil || !p.expectPeek(lexer.RPAREN) {
		return nil
	}
	return exp
}

func (p *Parser) parseArrayLiteral() Expression {
	array := &ArrayLiteral{Token: p.curToken}
	for !p.peekTokenIs(lexer.RBRACKET) {
		p.nextToken()
		if p.curTokenIs(lexer.COMMA) {
			array.Elements = append(array.Elements, nil) // hole
			continue
		}
		elem := p.parseExpression(COMMA)
		if elem == nil {
			return nil
		}
		array.Elements = append(array.Elements, elem)
		if p.peekTokenIs(lexer.RBRACKET) {
			break
		}
		if !p.expectPeek(lexer.COMMA) {
			return nil
		}
	}
	p.nextToken() // ']'
	return array
}

// parsePropertyName reads an object literal key at curToken.
func (p *Parser) parsePropertyName() (string, bool) {
	switch {
	case p.curTokenIs(lexer.IDENT), p.curTokenIs(lexer.STRING), lexer.IsKeyword(p.curToken.Type):
		return p.curToken.Literal, true
	case p.curTokenIs(lexer.NUMBER):
		lit, ok := p.parseNumberLiteral().(*NumberLiteral)
		if !ok {
			return "", false
		}
		return lit.String(), true
	}
	p.addError(p.curToken, fmt.Sprintf("unexpected %s in object literal", p.curToken.Type))
	return "", false
}

func (p *Parser) parseObjectLiteral() Expression {
	obj := &ObjectLiteral{Token: p.curToken}
	for !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()
		prop := &ObjectProperty{Kind: PropertyInit}

		if p.curTokenIs(lexer.IDENT) && (p.curToken.Literal == "get" || p.curToken.Literal == "set") &&
			!p.peekTokenIs(lexer.COLON) && !p.peekTokenIs(lexer.COMMA) && !p.peekTokenIs(lexer.RBRACE) {
			prop.Kind = PropertyGet
			if p.curToken.Literal == "set" {
				prop.Kind = PropertySet
			}
			fnToken := p.curToken
			p.nextToken()
			key, ok := p.parsePropertyName()
			if !ok {
				return nil
			}
			prop.Key = key
			fn := &FunctionLiteral{Token: fnToken, Name: &Identifier{Token: p.curToken, Value: key}}
			if !p.parseFunctionRest(fn) {
				return nil
			}
			prop.Value = fn
		} else {
			key, ok := p.parsePropertyName()
			if !ok {
				return nil
			}
			prop.Key = key
			if !p.expectPeek(lexer.COLON) {
				return nil
			}
			p.nextToken()
			if prop.Value = p.parseExpression(COMMA); prop.Value == nil {
				return nil
			}
		}
		obj.Properties = append(obj.Properties, prop)

		if p.peekTokenIs(lexer.RBRACE) {
			break
		}
		if !p.expectPeek(lexer.COMMA) {
			return nil
		}
	}
	p.nextToken() // '}'
	return obj
}

func (p *Parser) parseFunctionLiteral() Expression {
	fn := &FunctionLiteral{Token: p.curToken}
	if p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		fn.Name = &Identifier{Token: p.curToken, Value: p.curToken.Literal}
	}
	if !p.parseFunctionRest(fn) {
		return nil
	}
	return fn
}

// parseFunctionRest parses the parameter list and body. peekToken is '('.
func (p *Parser) parseFunctionRest(fn *FunctionLiteral) bool {
	saved := p.noIn
	p.noIn = false
	defer func() { p.noIn = saved }()

	if !p.expectPeek(lexer.LPAREN) {
		return false
	}
	for !p.peekTokenIs(lexer.RPAREN) {
		if !p.expectPeek(lexer.IDENT) {
			return false
		}
		fn.Parameters = append(fn.Parameters, &Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if p.peekTokenIs(lexer.RPAREN) {
			break
		}
		if !p.expectPeek(lexer.COMMA) {
			return false
		}
	}
	p.nextToken() // ')'
	if !p.expectPeek(lexer.LBRACE) {
		return false
	}
	fn.Body = p.parseBlockStatement()
	return fn.Body != nil
}

func (p *Parser) parseNewExpression() Expression {
	ne := &NewExpression{Token: p.curToken}
	p.nextToken()

	if p.curTokenIs(lexer.NEW) {
		ne.Constructor = p.parseNewExpression()
	} else {
		prefix := p.prefixParseFns[p.curToken.Type]
		if prefix == nil {
			p.noPrefixParseFnError(p.curToken)
			return nil
		}
		ne.Constructor = prefix()
	}
	if ne.Constructor == nil {
		return nil
	}
	// Member accesses bind to the constructor; the first argument list
	// belongs to new.
	for p.peekTokenIs(lexer.DOT) || p.peekTokenIs(lexer.LBRACKET) {
		p.nextToken()
		ne.Constructor = p.infixParseFns[p.curToken.Type](ne.Constructor)
		if ne.Constructor == nil {
			return nil
		}
	}
	if p.peekTokenIs(lexer.LPAREN) {
		p.nextToken()
		args, ok := p.parseExpressionList(lexer.RPAREN)
		if !ok {
			return nil
		}
		ne.Arguments = args
	}
	return ne
}

// -- Infix Parse Functions --

func (p *Parser) parseInfixExpression(left Expression) Expression {
	expression := &InfixExpression{
		Token:    p.curToken, // The operator token
		Operator: p.curToken.Literal,
		Left:     left,
	}
	precedence := p.curPrecedence()
	p.nextToken()
	if expression.Right = p.parseExpression(precedence); expression.Right == nil {
		return nil
	}
	return expression
}

func (p *Parser) parseAssignmentExpression(left Expression) Expression {
	expr := &AssignmentExpression{Token: p.curToken, Operator: p.curToken.Literal, Target: left}
	if !isAssignable(left) {
		p.addError(expr.Token, fmt.Sprintf("invalid left-hand side in assignment: %s", left.String()))
		return nil
	}
	p.nextToken()
	// Right-associative: a = b = c parses as a = (b = c).
	if expr.Value = p.parseExpression(ASSIGNMENT - 1); expr.Value == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseConditionalExpression(condition Expression) Expression {
	expr := &ConditionalExpression{Token: p.curToken, Condition: condition}
	saved := p.noIn
	p.noIn = false
	p.nextToken()
	expr.Consequence = p.parseExpression(COMMA)
	p.noIn = saved
	if expr.Consequence == nil || !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()
	if expr.Alternative = p.parseExpression(COMMA); expr.Alternative == nil {
		return nil
	}
	return expr
}

func (p *Parser) parseSequenceExpression(left Expression) Expression {
	seq, ok := left.(*SequenceExpression)
	if !ok {
		seq = &SequenceExpression{Token: p.curToken, Expressions: []Expression{left}}
	}
	p.nextToken()
	next := p.parseExpression(COMMA)
	if next == nil {
		return nil
	}
	seq.Expressions = append(seq.Expressions, next)
	return seq
}

func (p *Parser) parseCallExpression(function Expression) Expression {
	exp := &CallExpression{Token: p.curToken, Function: function}
	args, ok := p.parseExpressionList(lexer.RPAREN)
	if !ok {
		return nil
	}
	exp.Arguments = args
	return exp
}

// parseExpressionList parses a comma-separated list of expressions until a specific end token.
func (p *Parser) parseExpressionList(end lexer.TokenType) ([]Expression, bool) {
	saved := p.noIn
	p.noIn = false
	defer func() { p.noIn = saved }()

	var list []Expression
	if p.peekTokenIs(end) {
		p.nextToken()
		return list, true
	}
	p.nextToken()
	for {
		arg := p.parseExpression(COMMA)
		if arg == nil {
			return nil, false
		}
		list = append(list, arg)
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken()
		p.nextToken()
	}
	if !p.expectPeek(end) {
		return nil, false
	}
	return list, true
}

func (p *Parser) parseIndexExpression(left Expression) Expression {
	exp := &IndexExpression{Token: p.curToken, Object: left}
	saved := p.noIn
	p.noIn = false
	p.nextToken()
	exp.Index = p.parseExpression(LOWEST)
	p.noIn = saved
	if exp.Index == nil || !p.expectPeek(lexer.RBRACKET) {
		return nil
	}
	return exp
}

func (p *Parser) parseMemberExpression(left Expression) Expression {
	exp := &MemberExpression{Token: p.curToken, Object: left}
	p.nextToken()
	if !p.curTokenIs(lexer.IDENT) && !lexer.IsKeyword(p.curToken.Type) {
		p.addError(p.curToken, fmt.Sprintf("expected property name after '.', got %s", p.curToken.Type))
		return nil
	}
	exp.Property = &Identifier{Token: p.curToken, Value: p.curToken.Literal}
	return exp
}

func (p *Parser) parsePostfixUpdate(left Expression) Expression {
	if !isAssignable(left) {
		p.addError(p.curToken, "invalid left-hand side expression in postfix operation")
		return nil
	}
	return &UpdateExpression{Token: p.curToken, Operator: p.curToken.Literal, Argument: left}
}

// isAssignable reports whether e may appear on the left of an assignment.
func isAssignable(e Expression) bool {
	switch e.(type) {
	case *Identifier, *MemberExpression, *IndexExpression:
		return true
	}
	return false
}

// --- Helpers ---

func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

// expectPeek checks the type of the next token and advances if it matches.
// If it doesn't match, it adds an error.
func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if p.noIn && p.peekTokenIs(lexer.IN) {
		return LOWEST
	}
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// --- Error Handling ---

func (p *Parser) peekError(t lexer.TokenType) {
	got := string(p.peekToken.Type)
	if p.peekTokenIs(lexer.EOF) {
		got = "end of input"
	} else if p.peekToken.Literal != "" {
		got = p.peekToken.Literal
	}
	p.addError(p.peekToken, fmt.Sprintf("expected %s, got %s", t, got))
}

func (p *Parser) noPrefixParseFnError(tok lexer.Token) {
	if tok.Type == lexer.EOF {
		p.addError(tok, "unexpected end of input")
		return
	}
	p.addError(tok, fmt.Sprintf("unexpected token %s", tok.Literal))
}

func (p *Parser) addError(tok lexer.Token, msg string) {
	p.errors = append(p.errors, &errors.SyntaxError{
		Position: errors.Position{
			Line:     tok.Line,
			Column:   tok.Column,
			StartPos: tok.StartPos,
			EndPos:   tok.EndPos,
			Source:   p.source,
		},
		Msg: msg,
	})
}
