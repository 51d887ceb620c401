package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenType represents the type of a token.
type TokenType string

// Token represents a lexical token.
type Token struct {
	Type     TokenType
	Literal  string // The actual text of the token (lexeme); unescaped for strings
	Line     int    // line number where the token starts
	Column   int    // 1-based column number where the token starts
	StartPos int    // 0-based byte offset where the token starts
	EndPos   int    // 0-based byte offset after the token ends
}

// --- Token Types ---
const (
	// Special
	ILLEGAL TokenType = "ILLEGAL" // Unknown token/character
	EOF     TokenType = "EOF"     // End Of File

	// Identifiers + Literals
	IDENT         TokenType = "IDENT"  // functionName, variableName
	NUMBER        TokenType = "NUMBER" // 123, 45.67, 0xff
	STRING        TokenType = "STRING" // "hello world"
	REGEX_LITERAL TokenType = "REGEX"  // /ab+c/gi

	// Operators
	ASSIGN    TokenType = "="
	PLUS      TokenType = "+"
	MINUS     TokenType = "-"
	BANG      TokenType = "!"
	ASTERISK  TokenType = "*"
	SLASH     TokenType = "/"
	REMAINDER TokenType = "%"
	LT        TokenType = "<"
	GT        TokenType = ">"
	EQ        TokenType = "=="
	NOT_EQ    TokenType = "!="
	LE        TokenType = "<="
	GE        TokenType = ">="
	DOT       TokenType = "."

	STRICT_EQ     TokenType = "==="
	STRICT_NOT_EQ TokenType = "!=="

	// Compound Assignment
	PLUS_ASSIGN      TokenType = "+="
	MINUS_ASSIGN     TokenType = "-="
	ASTERISK_ASSIGN  TokenType = "*="
	SLASH_ASSIGN     TokenType = "/="
	REMAINDER_ASSIGN TokenType = "%="

	// Increment/Decrement
	INC TokenType = "++"
	DEC TokenType = "--"

	// Logical Operators
	LOGICAL_AND TokenType = "&&"
	LOGICAL_OR  TokenType = "||"

	QUESTION TokenType = "?"

	// Delimiters
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	COLON     TokenType = ":"
	LPAREN    TokenType = "("
	RPAREN    TokenType = ")"
	LBRACE    TokenType = "{"
	RBRACE    TokenType = "}"
	LBRACKET  TokenType = "["
	RBRACKET  TokenType = "]"

	// Keywords
	FUNCTION   TokenType = "FUNCTION"
	VAR        TokenType = "VAR"
	LET        TokenType = "LET"
	CONST      TokenType = "CONST"
	TRUE       TokenType = "TRUE"
	FALSE      TokenType = "FALSE"
	NULL       TokenType = "NULL"
	THIS       TokenType = "THIS"
	IF         TokenType = "IF"
	ELSE       TokenType = "ELSE"
	RETURN     TokenType = "RETURN"
	WHILE      TokenType = "WHILE"
	DO         TokenType = "DO"
	FOR        TokenType = "FOR"
	IN         TokenType = "IN"
	BREAK      TokenType = "BREAK"
	CONTINUE   TokenType = "CONTINUE"
	NEW        TokenType = "NEW"
	TYPEOF     TokenType = "TYPEOF"
	DELETE     TokenType = "DELETE"
	VOID       TokenType = "VOID"
	INSTANCEOF TokenType = "INSTANCEOF"
	TRY        TokenType = "TRY"
	CATCH      TokenType = "CATCH"
	FINALLY    TokenType = "FINALLY"
	THROW      TokenType = "THROW"
)

var keywords = map[string]TokenType{
	"function":   FUNCTION,
	"var":        VAR,
	"let":        LET,
	"const":      CONST,
	"true":       TRUE,
	"false":      FALSE,
	"null":       NULL,
	"this":       THIS,
	"if":         IF,
	"else":       ELSE,
	"return":     RETURN,
	"while":      WHILE,
	"do":         DO,
	"for":        FOR,
	"in":         IN,
	"break":      BREAK,
	"continue":   CONTINUE,
	"new":        NEW,
	"typeof":     TYPEOF,
	"delete":     DELETE,
	"void":       VOID,
	"instanceof": INSTANCEOF,
	"try":        TRY,
	"catch":      CATCH,
	"finally":    FINALLY,
	"throw":      THROW,
}

// LookupIdent checks the keywords table for an identifier.
func LookupIdent(ident string) TokenType {
	if tokType, ok := keywords[ident]; ok {
		return tokType
	}
	return IDENT
}

// IsKeyword reports whether t is a reserved word. Keywords are accepted as
// property names after a dot and as object literal keys.
func IsKeyword(t TokenType) bool {
	for _, kw := range keywords {
		if kw == t {
			return true
		}
	}
	return false
}

// operators maps operator text to its token type. Longest match wins.
var operators = map[string]TokenType{
	"=": ASSIGN, "==": EQ, "===": STRICT_EQ,
	"!": BANG, "!=": NOT_EQ, "!==": STRICT_NOT_EQ,
	"+": PLUS, "+=": PLUS_ASSIGN, "++": INC,
	"-": MINUS, "-=": MINUS_ASSIGN, "--": DEC,
	"*": ASTERISK, "*=": ASTERISK_ASSIGN,
	"/": SLASH, "/=": SLASH_ASSIGN,
	"%": REMAINDER, "%=": REMAINDER_ASSIGN,
	"<": LT, "<=": LE,
	">": GT, ">=": GE,
	"&&": LOGICAL_AND, "||": LOGICAL_OR,
	"?": QUESTION, ":": COLON,
	",": COMMA, ";": SEMICOLON, ".": DOT,
	"(": LPAREN, ")": RPAREN,
	"{": LBRACE, "}": RBRACE,
	"[": LBRACKET, "]": RBRACKET,
}

// Lexer holds the state of the scanner.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char's byte offset)
	readPosition int  // current reading position in input (byte offset after current char)
	ch           byte // current char under examination
	line         int  // current line number
	column       int  // current 1-based column number
	prev         TokenType
}

// NewLexer creates a new Lexer whose first line is line 1.
func NewLexer(input string) *Lexer {
	return NewLexerAt(input, 1)
}

// NewLexerAt creates a Lexer whose first line is numbered startLine. Hosts
// embedding a fragment of a larger file pass the fragment's line.
func NewLexerAt(input string, startLine int) *Lexer {
	if startLine < 1 {
		startLine = 1
	}
	l := &Lexer{input: input, line: startLine, prev: ILLEGAL}
	l.readChar()
	return l
}

// readChar gives us the next character and advances our position in the input string.
// It also updates the line and column count.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0 // NUL signifies EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

// peekChar looks ahead in the input without consuming the character.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// skipTrivia consumes whitespace and comments. It reports false when a
// multiline comment is not terminated.
func (l *Lexer) skipTrivia() bool {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' || l.ch == '\v':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') {
				if l.ch == 0 {
					return false
				}
				l.readChar()
			}
			l.readChar()
			l.readChar()
		default:
			return true
		}
	}
}

// NextToken scans the input and returns the next token.
func (l *Lexer) NextToken() Token {
	tok := l.scan()
	l.prev = tok.Type
	return tok
}

func (l *Lexer) scan() Token {
	terminated := l.skipTrivia()

	// Capture token start position *after* skipping trivia
	startLine := l.line
	startCol := l.column
	startPos := l.position
	mk := func(t TokenType, lit string) Token {
		return Token{Type: t, Literal: lit, Line: startLine, Column: startCol, StartPos: startPos, EndPos: l.position}
	}

	switch {
	case !terminated:
		return mk(ILLEGAL, "Unterminated multiline comment")
	case l.ch == 0:
		return mk(EOF, "")
	case l.ch == '"' || l.ch == '\'':
		lit, ok := l.readString(l.ch)
		if !ok {
			return mk(ILLEGAL, "Invalid string literal")
		}
		return mk(STRING, lit)
	case l.ch == '/' && l.regexAllowed():
		lit, ok := l.readRegex()
		if !ok {
			return mk(ILLEGAL, "Unterminated regular expression literal")
		}
		if !validRegexFlags(lit[strings.LastIndexByte(lit, '/')+1:]) {
			return mk(ILLEGAL, "Invalid regular expression flags")
		}
		return mk(REGEX_LITERAL, lit)
	case isDigit(l.ch) || (l.ch == '.' && isDigit(l.peekChar())):
		return mk(NUMBER, l.readNumber())
	case isLetter(l.ch):
		lit := l.readIdentifier()
		return mk(LookupIdent(lit), lit)
	}

	// Operators and punctuation: try three, two, then one byte.
	for n := 3; n >= 1; n-- {
		if startPos+n > len(l.input) {
			continue
		}
		if t, ok := operators[l.input[startPos:startPos+n]]; ok {
			for i := 0; i < n; i++ {
				l.readChar()
			}
			return mk(t, l.input[startPos:l.position])
		}
	}

	_, size := utf8.DecodeRuneInString(l.input[startPos:])
	for i := 0; i < size; i++ {
		l.readChar()
	}
	return mk(ILLEGAL, l.input[startPos:l.position])
}

// regexAllowed decides between a division operator and a regular
// expression literal from the previous token.
func (l *Lexer) regexAllowed() bool {
	switch l.prev {
	case IDENT, NUMBER, STRING, REGEX_LITERAL, RPAREN, RBRACKET, RBRACE,
		THIS, TRUE, FALSE, NULL, INC, DEC:
		return false
	}
	return true
}

// readIdentifier reads an identifier and advances the lexer's position.
func (l *Lexer) readIdentifier() string {
	startPos := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[startPos:l.position]
}

// readNumber reads a decimal (with optional fraction and exponent) or hex
// number literal.
func (l *Lexer) readNumber() string {
	startPos := l.position
	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		return l.input[startPos:l.position]
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		save := *l
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		if !isDigit(l.ch) {
			// "1e" is the number 1 followed by identifier e.
			*l = save
			return l.input[startPos:l.position]
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return l.input[startPos:l.position]
}

// readString reads a string literal enclosed in the given quote character
// and returns its unescaped value. Unknown escapes stand for the escaped
// character itself. Success is false if the string is unterminated or
// contains a raw line break.
func (l *Lexer) readString(quote byte) (string, bool) {
	var builder strings.Builder
	l.readChar() // opening quote

	for {
		switch l.ch {
		case quote:
			l.readChar()
			return builder.String(), true
		case 0, '\n', '\r':
			return "", false
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				builder.WriteByte('\n')
			case 't':
				builder.WriteByte('\t')
			case 'r':
				builder.WriteByte('\r')
			case 'b':
				builder.WriteByte('\b')
			case 'f':
				builder.WriteByte('\f')
			case 'v':
				builder.WriteByte('\v')
			case '0':
				builder.WriteByte(0)
			case 'u', 'x':
				n := 4
				if l.ch == 'x' {
					n = 2
				}
				if l.readPosition+n > len(l.input) {
					return "", false
				}
				code, err := strconv.ParseUint(l.input[l.readPosition:l.readPosition+n], 16, 32)
				if err != nil {
					return "", false
				}
				for i := 0; i < n; i++ {
					l.readChar()
				}
				builder.WriteRune(rune(code))
			case '\n':
				// line continuation
			case 0:
				return "", false
			default:
				builder.WriteByte(l.ch)
			}
		default:
			builder.WriteByte(l.ch)
		}
		l.readChar()
	}
}

// readRegex reads a regular expression literal including its flags. The
// literal text is returned as written.
func (l *Lexer) readRegex() (string, bool) {
	startPos := l.position
	l.readChar() // opening slash
	inClass := false
	for {
		switch l.ch {
		case 0, '\n', '\r':
			return "", false
		case '\\':
			l.readChar()
			if l.ch == 0 || l.ch == '\n' {
				return "", false
			}
		case '[':
			inClass = true
		case ']':
			inClass = false
		case '/':
			if !inClass {
				l.readChar()
				for isLetter(l.ch) {
					l.readChar()
				}
				return l.input[startPos:l.position], true
			}
		}
		l.readChar()
	}
}

func validRegexFlags(flags string) bool {
	for i := 0; i < len(flags); i++ {
		if !strings.ContainsRune("gimsuy", rune(flags[i])) || strings.IndexByte(flags[:i], flags[i]) >= 0 {
			return false
		}
	}
	return true
}

// isLetter checks if the character may start an identifier. Bytes of
// multi-byte UTF-8 sequences are accepted so non-ASCII identifiers scan as
// one token.
func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$' || ch >= utf8.RuneSelf
}

// isDigit checks if the character is a digit.
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isHexDigit checks if the character is a hexadecimal digit (0-9, a-f, A-F).
func isHexDigit(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}
