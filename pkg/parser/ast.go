package parser

import (
	"bytes"
	"strconv"
	"strings"

	"jscore/pkg/lexer"
	"jscore/pkg/object"
	"jscore/pkg/source"
)

// --- Interfaces ---

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string // Returns the literal value of the token associated with the node
	String() string       // Returns the source rendering of the node
	Line() int            // Line of the node's token (the operator for member, index and call)
}

// Statement represents a statement node in the AST.
type Statement interface {
	Node
	statementNode()
}

// Expression represents an expression node in the AST.
type Expression interface {
	Node
	expressionNode()
}

// indentUnit is used when rendering nested blocks.
const indentUnit = "    "

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = indentUnit + l
		}
	}
	return strings.Join(lines, "\n")
}

// --- Program Node ---

// Program is the root node of the AST.
type Program struct {
	Statements []Statement
	Source     *source.SourceFile
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Line() int {
	if len(p.Statements) > 0 {
		return p.Statements[0].Line()
	}
	return 0
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// --- Statement Nodes ---

// VarDeclarator is one name in a var, let or const statement.
type VarDeclarator struct {
	Name  *Identifier
	Value Expression // nil when there is no initializer
}

func (d *VarDeclarator) String() string {
	if d.Value == nil {
		return d.Name.Value
	}
	return d.Name.Value + " = " + wrap(d.Value, ASSIGNMENT)
}

// VarStatement represents a var, let or const declaration.
type VarStatement struct {
	Token        lexer.Token // The lexer.VAR, lexer.LET or lexer.CONST token
	Declarations []*VarDeclarator
}

func (vs *VarStatement) statementNode()       {}
func (vs *VarStatement) TokenLiteral() string { return vs.Token.Literal }
func (vs *VarStatement) Line() int            { return vs.Token.Line }
func (vs *VarStatement) String() string       { return vs.declString() + ";" }

func (vs *VarStatement) declString() string {
	parts := make([]string, len(vs.Declarations))
	for i, d := range vs.Declarations {
		parts[i] = d.String()
	}
	return vs.Token.Literal + " " + strings.Join(parts, ", ")
}

// Lexical reports whether the statement declares block-scoped bindings.
func (vs *VarStatement) Lexical() bool { return vs.Token.Type != lexer.VAR }

// FunctionDeclaration is a function statement. Inside a block it declares
// a block-nested function.
type FunctionDeclaration struct {
	Function *FunctionLiteral
}

func (fd *FunctionDeclaration) statementNode()       {}
func (fd *FunctionDeclaration) TokenLiteral() string { return fd.Function.TokenLiteral() }
func (fd *FunctionDeclaration) Line() int            { return fd.Function.Line() }
func (fd *FunctionDeclaration) String() string       { return fd.Function.String() }

// ExpressionStatement wraps an expression evaluated for its effect.
type ExpressionStatement struct {
	Token      lexer.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) Line() int            { return es.Token.Line }
func (es *ExpressionStatement) String() string {
	s := es.Expression.String()
	switch es.Expression.(type) {
	case *FunctionLiteral, *ObjectLiteral:
		s = "(" + s + ")"
	}
	return s + ";"
}

// BlockStatement is a braced statement list.
type BlockStatement struct {
	Token      lexer.Token // the { token
	Statements []Statement
}

func (bs *BlockStatement) statementNode()       {}
func (bs *BlockStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BlockStatement) Line() int            { return bs.Token.Line }
func (bs *BlockStatement) String() string {
	var out bytes.Buffer
	out.WriteString("{\n")
	for _, s := range bs.Statements {
		out.WriteString(indent(s.String()))
		out.WriteString("\n")
	}
	out.WriteString("}")
	return out.String()
}

// EmptyStatement is a lone semicolon.
type EmptyStatement struct {
	Token lexer.Token
}

func (es *EmptyStatement) statementNode()       {}
func (es *EmptyStatement) TokenLiteral() string { return es.Token.Literal }
func (es *EmptyStatement) Line() int            { return es.Token.Line }
func (es *EmptyStatement) String() string       { return ";" }

// IfStatement represents if/else.
type IfStatement struct {
	Token       lexer.Token // the 'if' token
	Condition   Expression
	Consequence Statement
	Alternative Statement // nil without else
}

func (is *IfStatement) statementNode()       {}
func (is *IfStatement) TokenLiteral() string { return is.Token.Literal }
func (is *IfStatement) Line() int            { return is.Token.Line }
func (is *IfStatement) String() string {
	var out bytes.Buffer
	out.WriteString("if (")
	out.WriteString(is.Condition.String())
	out.WriteString(")")
	out.WriteString(bodyString(is.Consequence))
	if is.Alternative != nil {
		if _, ok := is.Consequence.(*BlockStatement); ok {
			out.WriteString(" else")
		} else {
			out.WriteString("\nelse")
		}
		out.WriteString(bodyString(is.Alternative))
	}
	return out.String()
}

// bodyString renders a statement used as a loop or branch body. Non-block
// bodies go on their own indented line.
func bodyString(s Statement) string {
	switch s.(type) {
	case *BlockStatement, *IfStatement:
		return " " + s.String()
	}
	return "\n" + indent(s.String())
}

// ForStatement is the three-clause for loop.
type ForStatement struct {
	Token     lexer.Token // the 'for' token
	Init      Statement   // *VarStatement, *ExpressionStatement or nil
	Condition Expression  // nil means true
	Update    Expression
	Body      Statement
}

func (fs *ForStatement) statementNode()       {}
func (fs *ForStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForStatement) Line() int            { return fs.Token.Line }
func (fs *ForStatement) String() string {
	var out bytes.Buffer
	out.WriteString("for (")
	switch init := fs.Init.(type) {
	case *VarStatement:
		out.WriteString(init.declString())
	case *ExpressionStatement:
		out.WriteString(init.Expression.String())
	}
	out.WriteString("; ")
	if fs.Condition != nil {
		out.WriteString(fs.Condition.String())
	}
	out.WriteString("; ")
	if fs.Update != nil {
		out.WriteString(fs.Update.String())
	}
	out.WriteString(")")
	out.WriteString(bodyString(fs.Body))
	return out.String()
}

// ForInStatement iterates enumerable property keys.
type ForInStatement struct {
	Token  lexer.Token   // the 'for' token
	Decl   *VarStatement // declaration form (var x / let x); nil when Target is set
	Target Expression    // assignment target of the bare form
	Object Expression
	Body   Statement
}

func (fs *ForInStatement) statementNode()       {}
func (fs *ForInStatement) TokenLiteral() string { return fs.Token.Literal }
func (fs *ForInStatement) Line() int            { return fs.Token.Line }
func (fs *ForInStatement) String() string {
	head := ""
	if fs.Decl != nil {
		head = fs.Decl.declString()
	} else {
		head = fs.Target.String()
	}
	return "for (" + head + " in " + fs.Object.String() + ")" + bodyString(fs.Body)
}

// WhileStatement represents while (cond) body.
type WhileStatement struct {
	Token     lexer.Token
	Condition Expression
	Body      Statement
}

func (ws *WhileStatement) statementNode()       {}
func (ws *WhileStatement) TokenLiteral() string { return ws.Token.Literal }
func (ws *WhileStatement) Line() int            { return ws.Token.Line }
func (ws *WhileStatement) String() string {
	return "while (" + ws.Condition.String() + ")" + bodyString(ws.Body)
}

// DoWhileStatement represents do body while (cond).
type DoWhileStatement struct {
	Token     lexer.Token
	Body      Statement
	Condition Expression
}

func (ds *DoWhileStatement) statementNode()       {}
func (ds *DoWhileStatement) TokenLiteral() string { return ds.Token.Literal }
func (ds *DoWhileStatement) Line() int            { return ds.Token.Line }
func (ds *DoWhileStatement) String() string {
	return "do" + bodyString(ds.Body) + " while (" + ds.Condition.String() + ");"
}

// BreakStatement exits the innermost loop.
type BreakStatement struct {
	Token lexer.Token
}

func (bs *BreakStatement) statementNode()       {}
func (bs *BreakStatement) TokenLiteral() string { return bs.Token.Literal }
func (bs *BreakStatement) Line() int            { return bs.Token.Line }
func (bs *BreakStatement) String() string       { return "break;" }

// ContinueStatement skips to the next iteration of the innermost loop.
type ContinueStatement struct {
	Token lexer.Token
}

func (cs *ContinueStatement) statementNode()       {}
func (cs *ContinueStatement) TokenLiteral() string { return cs.Token.Literal }
func (cs *ContinueStatement) Line() int            { return cs.Token.Line }
func (cs *ContinueStatement) String() string       { return "continue;" }

// ReturnStatement represents return [value].
type ReturnStatement struct {
	Token       lexer.Token
	ReturnValue Expression // nil for a bare return
}

func (rs *ReturnStatement) statementNode()       {}
func (rs *ReturnStatement) TokenLiteral() string { return rs.Token.Literal }
func (rs *ReturnStatement) Line() int            { return rs.Token.Line }
func (rs *ReturnStatement) String() string {
	if rs.ReturnValue == nil {
		return "return;"
	}
	return "return " + rs.ReturnValue.String() + ";"
}

// ThrowStatement represents throw value.
type ThrowStatement struct {
	Token lexer.Token
	Value Expression
}

func (ts *ThrowStatement) statementNode()       {}
func (ts *ThrowStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *ThrowStatement) Line() int            { return ts.Token.Line }
func (ts *ThrowStatement) String() string       { return "throw " + ts.Value.String() + ";" }

// TryStatement represents try/catch/finally. Handler or Finalizer may be
// nil, not both.
type TryStatement struct {
	Token     lexer.Token
	Block     *BlockStatement
	Param     *Identifier // nil for catch without binding
	Handler   *BlockStatement
	Finalizer *BlockStatement
}

func (ts *TryStatement) statementNode()       {}
func (ts *TryStatement) TokenLiteral() string { return ts.Token.Literal }
func (ts *TryStatement) Line() int            { return ts.Token.Line }
func (ts *TryStatement) String() string {
	var out bytes.Buffer
	out.WriteString("try ")
	out.WriteString(ts.Block.String())
	if ts.Handler != nil {
		out.WriteString(" catch ")
		if ts.Param != nil {
			out.WriteString("(" + ts.Param.Value + ") ")
		}
		out.WriteString(ts.Handler.String())
	}
	if ts.Finalizer != nil {
		out.WriteString(" finally ")
		out.WriteString(ts.Finalizer.String())
	}
	return out.String()
}

// --- Expression Nodes ---

// Identifier is a name reference.
type Identifier struct {
	Token lexer.Token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) Line() int            { return i.Token.Line }
func (i *Identifier) String() string       { return i.Value }

// NumberLiteral is a numeric literal.
type NumberLiteral struct {
	Token lexer.Token
	Value float64
}

func (nl *NumberLiteral) expressionNode()      {}
func (nl *NumberLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NumberLiteral) Line() int            { return nl.Token.Line }
func (nl *NumberLiteral) String() string       { return object.NumberToString(nl.Value) }

// StringLiteral is a string literal; Value is unescaped.
type StringLiteral struct {
	Token lexer.Token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) Line() int            { return sl.Token.Line }
func (sl *StringLiteral) String() string       { return quote(sl.Value) }

func quote(s string) string { return strconv.Quote(s) }

// BooleanLiteral is true or false.
type BooleanLiteral struct {
	Token lexer.Token
	Value bool
}

func (bl *BooleanLiteral) expressionNode()      {}
func (bl *BooleanLiteral) TokenLiteral() string { return bl.Token.Literal }
func (bl *BooleanLiteral) Line() int            { return bl.Token.Line }
func (bl *BooleanLiteral) String() string       { return bl.Token.Literal }

// NullLiteral is null.
type NullLiteral struct {
	Token lexer.Token
}

func (nl *NullLiteral) expressionNode()      {}
func (nl *NullLiteral) TokenLiteral() string { return nl.Token.Literal }
func (nl *NullLiteral) Line() int            { return nl.Token.Line }
func (nl *NullLiteral) String() string       { return "null" }

// ThisExpression is this.
type ThisExpression struct {
	Token lexer.Token
}

func (te *ThisExpression) expressionNode()      {}
func (te *ThisExpression) TokenLiteral() string { return te.Token.Literal }
func (te *ThisExpression) Line() int            { return te.Token.Line }
func (te *ThisExpression) String() string       { return "this" }

// RegexLiteral is /pattern/flags.
type RegexLiteral struct {
	Token   lexer.Token
	Pattern string
	Flags   string
}

func (rl *RegexLiteral) expressionNode()      {}
func (rl *RegexLiteral) TokenLiteral() string { return rl.Token.Literal }
func (rl *RegexLiteral) Line() int            { return rl.Token.Line }
func (rl *RegexLiteral) String() string       { return "/" + rl.Pattern + "/" + rl.Flags }

// ArrayLiteral is [a, b, c]. Holes are nil elements.
type ArrayLiteral struct {
	Token    lexer.Token
	Elements []Expression
}

func (al *ArrayLiteral) expressionNode()      {}
func (al *ArrayLiteral) TokenLiteral() string { return al.Token.Literal }
func (al *ArrayLiteral) Line() int            { return al.Token.Line }
func (al *ArrayLiteral) String() string {
	parts := make([]string, len(al.Elements))
	for i, e := range al.Elements {
		if e != nil {
			parts[i] = wrap(e, ASSIGNMENT)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// PropertyKind distinguishes plain object literal entries from accessors.
type PropertyKind int

const (
	PropertyInit PropertyKind = iota
	PropertyGet
	PropertySet
)

// ObjectProperty is one entry of an object literal. For accessors Value is
// the *FunctionLiteral.
type ObjectProperty struct {
	Key   string
	Kind  PropertyKind
	Value Expression
}

// ObjectLiteral is { key: value, get k() {}, ... }.
type ObjectLiteral struct {
	Token      lexer.Token
	Properties []*ObjectProperty
}

func (ol *ObjectLiteral) expressionNode()      {}
func (ol *ObjectLiteral) TokenLiteral() string { return ol.Token.Literal }
func (ol *ObjectLiteral) Line() int            { return ol.Token.Line }
func (ol *ObjectLiteral) String() string {
	parts := make([]string, len(ol.Properties))
	for i, p := range ol.Properties {
		key := p.Key
		if !isIdentifierName(key) {
			key = quote(key)
		}
		switch p.Kind {
		case PropertyGet, PropertySet:
			fn := p.Value.(*FunctionLiteral)
			prefix := "get "
			if p.Kind == PropertySet {
				prefix = "set "
			}
			parts[i] = prefix + key + "(" + fn.paramString() + ") " + fn.Body.String()
		default:
			parts[i] = key + ": " + wrap(p.Value, ASSIGNMENT)
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func isIdentifierName(s string) bool {
	if s == "" {
		return false
	}
	l := lexer.NewLexer(s)
	tok := l.NextToken()
	return (tok.Type == lexer.IDENT || lexer.IsKeyword(tok.Type)) && tok.Literal == s
}

// FunctionLiteral is a function expression or the function of a
// declaration.
type FunctionLiteral struct {
	Token      lexer.Token // the 'function' token
	Name       *Identifier // nil for anonymous functions
	Parameters []*Identifier
	Body       *BlockStatement
	// Declaration is set when the literal is the function of a statement.
	Declaration bool
}

func (fl *FunctionLiteral) expressionNode()      {}
func (fl *FunctionLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FunctionLiteral) Line() int            { return fl.Token.Line }

// String renders the function's source:
//
//	function foo(a, b) {
//	    return a + b;
//	}
func (fl *FunctionLiteral) String() string {
	var out bytes.Buffer
	out.WriteString("function ")
	if fl.Name != nil {
		out.WriteString(fl.Name.Value)
	}
	out.WriteString("(")
	out.WriteString(fl.paramString())
	out.WriteString(") ")
	out.WriteString(fl.Body.String())
	return out.String()
}

func (fl *FunctionLiteral) paramString() string {
	params := make([]string, len(fl.Parameters))
	for i, p := range fl.Parameters {
		params[i] = p.Value
	}
	return strings.Join(params, ", ")
}

// FunctionName returns the declared name or "".
func (fl *FunctionLiteral) FunctionName() string {
	if fl.Name == nil {
		return ""
	}
	return fl.Name.Value
}

// PrefixExpression is a unary operator: ! - + typeof void delete.
type PrefixExpression struct {
	Token    lexer.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) Line() int            { return pe.Token.Line }
func (pe *PrefixExpression) String() string {
	op := pe.Operator
	switch op {
	case "typeof", "void", "delete":
		op += " "
	}
	return op + wrap(pe.Right, PREFIX)
}

// UpdateExpression is ++ or -- in prefix or postfix position.
type UpdateExpression struct {
	Token    lexer.Token
	Operator string
	Prefix   bool
	Argument Expression
}

func (ue *UpdateExpression) expressionNode()      {}
func (ue *UpdateExpression) TokenLiteral() string { return ue.Token.Literal }
func (ue *UpdateExpression) Line() int            { return ue.Token.Line }
func (ue *UpdateExpression) String() string {
	if ue.Prefix {
		return ue.Operator + wrap(ue.Argument, PREFIX)
	}
	return wrap(ue.Argument, POSTFIX) + ue.Operator
}

// InfixExpression is a binary operator, including && and ||.
type InfixExpression struct {
	Token    lexer.Token // the operator token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) expressionNode()      {}
func (ie *InfixExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *InfixExpression) Line() int            { return ie.Token.Line }
func (ie *InfixExpression) String() string {
	prec := precedences[ie.Token.Type]
	return wrap(ie.Left, prec) + " " + ie.Operator + " " + wrap(ie.Right, prec+1)
}

// AssignmentExpression is target op= value.
type AssignmentExpression struct {
	Token    lexer.Token
	Operator string
	Target   Expression // *Identifier, *MemberExpression or *IndexExpression
	Value    Expression
}

func (ae *AssignmentExpression) expressionNode()      {}
func (ae *AssignmentExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AssignmentExpression) Line() int            { return ae.Token.Line }
func (ae *AssignmentExpression) String() string {
	return wrap(ae.Target, POSTFIX) + " " + ae.Operator + " " + wrap(ae.Value, ASSIGNMENT)
}

// ConditionalExpression is cond ? a : b.
type ConditionalExpression struct {
	Token       lexer.Token
	Condition   Expression
	Consequence Expression
	Alternative Expression
}

func (ce *ConditionalExpression) expressionNode()      {}
func (ce *ConditionalExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ConditionalExpression) Line() int            { return ce.Token.Line }
func (ce *ConditionalExpression) String() string {
	return wrap(ce.Condition, TERNARY+1) + " ? " + wrap(ce.Consequence, ASSIGNMENT) + " : " + wrap(ce.Alternative, ASSIGNMENT)
}

// SequenceExpression is a, b, c.
type SequenceExpression struct {
	Token       lexer.Token
	Expressions []Expression
}

func (se *SequenceExpression) expressionNode()      {}
func (se *SequenceExpression) TokenLiteral() string { return se.Token.Literal }
func (se *SequenceExpression) Line() int            { return se.Token.Line }
func (se *SequenceExpression) String() string {
	parts := make([]string, len(se.Expressions))
	for i, e := range se.Expressions {
		parts[i] = wrap(e, ASSIGNMENT)
	}
	return strings.Join(parts, ", ")
}

// CallExpression is callee(args).
type CallExpression struct {
	Token     lexer.Token // the '(' token
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) Line() int            { return ce.Token.Line }
func (ce *CallExpression) String() string {
	return wrap(ce.Function, CALL) + "(" + argString(ce.Arguments) + ")"
}

func argString(args []Expression) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = wrap(a, ASSIGNMENT)
	}
	return strings.Join(parts, ", ")
}

// NewExpression is new callee(args).
type NewExpression struct {
	Token       lexer.Token // the 'new' token
	Constructor Expression
	Arguments   []Expression
}

func (ne *NewExpression) expressionNode()      {}
func (ne *NewExpression) TokenLiteral() string { return ne.Token.Literal }
func (ne *NewExpression) Line() int            { return ne.Token.Line }
func (ne *NewExpression) String() string {
	return "new " + wrap(ne.Constructor, MEMBER) + "(" + argString(ne.Arguments) + ")"
}

// MemberExpression is object.property.
type MemberExpression struct {
	Token    lexer.Token // the '.' token
	Object   Expression
	Property *Identifier
}

func (me *MemberExpression) expressionNode()      {}
func (me *MemberExpression) TokenLiteral() string { return me.Token.Literal }
func (me *MemberExpression) Line() int            { return me.Token.Line }
func (me *MemberExpression) String() string {
	obj := wrap(me.Object, CALL)
	if _, ok := me.Object.(*NumberLiteral); ok {
		obj = "(" + obj + ")"
	}
	return obj + "." + me.Property.Value
}

// IndexExpression is object[index].
type IndexExpression struct {
	Token  lexer.Token // the '[' token
	Object Expression
	Index  Expression
}

func (ie *IndexExpression) expressionNode()      {}
func (ie *IndexExpression) TokenLiteral() string { return ie.Token.Literal }
func (ie *IndexExpression) Line() int            { return ie.Token.Line }
func (ie *IndexExpression) String() string {
	return wrap(ie.Object, CALL) + "[" + ie.Index.String() + "]"
}

// exprPrecedence gives the binding strength of an expression node so
// rendering can add only the parentheses the source needs.
func exprPrecedence(e Expression) int {
	switch e := e.(type) {
	case *SequenceExpression:
		return COMMA
	case *AssignmentExpression:
		return ASSIGNMENT
	case *ConditionalExpression:
		return TERNARY
	case *InfixExpression:
		return precedences[e.Token.Type]
	case *PrefixExpression:
		return PREFIX
	case *UpdateExpression:
		if e.Prefix {
			return PREFIX
		}
		return POSTFIX
	case *FunctionLiteral:
		return ASSIGNMENT
	case *CallExpression:
		return CALL
	case *NewExpression:
		return CALL
	}
	return MEMBER + 1
}

func wrap(e Expression, min int) string {
	if e == nil {
		return ""
	}
	s := e.String()
	if exprPrecedence(e) < min {
		return "(" + s + ")"
	}
	return s
}
