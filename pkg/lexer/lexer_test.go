package lexer

import (
	"testing"
)

func TestNextToken(t *testing.T) {
	input := `var five = 5;
const ten = 10.5;

function add(x, y) {
  return x + y;
}

let result = add(five, ten);
!*-x/5 % 2;
5 < 10 > 5;

if (5 <= 10) {
	return true;
} else {
	return false;
}

10 === 10;
10 !== 9;
"foobar"
'foo bar'
// This is a comment
/* and
   another */
typeof o.x; delete o[0]; void 0;
try { throw new Error() } catch (e) {} finally {}
for (k in o) i++;
x += 1; y -= 1; a && b || c ? d : this;`

	tests := []struct {
		expectedType    TokenType
		expectedLiteral string
		expectedLine    int
	}{
		{VAR, "var", 1},
		{IDENT, "five", 1},
		{ASSIGN, "=", 1},
		{NUMBER, "5", 1},
		{SEMICOLON, ";", 1},
		{CONST, "const", 2},
		{IDENT, "ten", 2},
		{ASSIGN, "=", 2},
		{NUMBER, "10.5", 2},
		{SEMICOLON, ";", 2},
		{FUNCTION, "function", 4},
		{IDENT, "add", 4},
		{LPAREN, "(", 4},
		{IDENT, "x", 4},
		{COMMA, ",", 4},
		{IDENT, "y", 4},
		{RPAREN, ")", 4},
		{LBRACE, "{", 4},
		{RETURN, "return", 5},
		{IDENT, "x", 5},
		{PLUS, "+", 5},
		{IDENT, "y", 5},
		{SEMICOLON, ";", 5},
		{RBRACE, "}", 6},
		{LET, "let", 8},
		{IDENT, "result", 8},
		{ASSIGN, "=", 8},
		{IDENT, "add", 8},
		{LPAREN, "(", 8},
		{IDENT, "five", 8},
		{COMMA, ",", 8},
		{IDENT, "ten", 8},
		{RPAREN, ")", 8},
		{SEMICOLON, ";", 8},
		{BANG, "!", 9},
		{ASTERISK, "*", 9},
		{MINUS, "-", 9},
		{IDENT, "x", 9},
		{SLASH, "/", 9},
		{NUMBER, "5", 9},
		{REMAINDER, "%", 9},
		{NUMBER, "2", 9},
		{SEMICOLON, ";", 9},
		{NUMBER, "5", 10},
		{LT, "<", 10},
		{NUMBER, "10", 10},
		{GT, ">", 10},
		{NUMBER, "5", 10},
		{SEMICOLON, ";", 10},
		{IF, "if", 12},
		{LPAREN, "(", 12},
		{NUMBER, "5", 12},
		{LE, "<=", 12},
		{NUMBER, "10", 12},
		{RPAREN, ")", 12},
		{LBRACE, "{", 12},
		{RETURN, "return", 13},
		{TRUE, "true", 13},
		{SEMICOLON, ";", 13},
		{RBRACE, "}", 14},
		{ELSE, "else", 14},
		{LBRACE, "{", 14},
		{RETURN, "return", 15},
		{FALSE, "false", 15},
		{SEMICOLON, ";", 15},
		{RBRACE, "}", 16},
		{NUMBER, "10", 18},
		{STRICT_EQ, "===", 18},
		{NUMBER, "10", 18},
		{SEMICOLON, ";", 18},
		{NUMBER, "10", 19},
		{STRICT_NOT_EQ, "!==", 19},
		{NUMBER, "9", 19},
		{SEMICOLON, ";", 19},
		{STRING, "foobar", 20},
		{STRING, "foo bar", 21},
		{TYPEOF, "typeof", 25},
		{IDENT, "o", 25},
		{DOT, ".", 25},
		{IDENT, "x", 25},
		{SEMICOLON, ";", 25},
		{DELETE, "delete", 25},
		{IDENT, "o", 25},
		{LBRACKET, "[", 25},
		{NUMBER, "0", 25},
		{RBRACKET, "]", 25},
		{SEMICOLON, ";", 25},
		{VOID, "void", 25},
		{NUMBER, "0", 25},
		{SEMICOLON, ";", 25},
		{TRY, "try", 26},
		{LBRACE, "{", 26},
		{THROW, "throw", 26},
		{NEW, "new", 26},
		{IDENT, "Error", 26},
		{LPAREN, "(", 26},
		{RPAREN, ")", 26},
		{RBRACE, "}", 26},
		{CATCH, "catch", 26},
		{LPAREN, "(", 26},
		{IDENT, "e", 26},
		{RPAREN, ")", 26},
		{LBRACE, "{", 26},
		{RBRACE, "}", 26},
		{FINALLY, "finally", 26},
		{LBRACE, "{", 26},
		{RBRACE, "}", 26},
		{FOR, "for", 27},
		{LPAREN, "(", 27},
		{IDENT, "k", 27},
		{IN, "in", 27},
		{IDENT, "o", 27},
		{RPAREN, ")", 27},
		{IDENT, "i", 27},
		{INC, "++", 27},
		{SEMICOLON, ";", 27},
		{IDENT, "x", 28},
		{PLUS_ASSIGN, "+=", 28},
		{NUMBER, "1", 28},
		{SEMICOLON, ";", 28},
		{IDENT, "y", 28},
		{MINUS_ASSIGN, "-=", 28},
		{NUMBER, "1", 28},
		{SEMICOLON, ";", 28},
		{IDENT, "a", 28},
		{LOGICAL_AND, "&&", 28},
		{IDENT, "b", 28},
		{LOGICAL_OR, "||", 28},
		{IDENT, "c", 28},
		{QUESTION, "?", 28},
		{IDENT, "d", 28},
		{COLON, ":", 28},
		{THIS, "this", 28},
		{SEMICOLON, ";", 28},
		{EOF, "", 28},
	}

	l := NewLexer(input)

	for i, tt := range tests {
		tok := l.NextToken()

		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%q, got=%q (literal: %q, line: %d)",
				i, tt.expectedType, tok.Type, tok.Literal, tok.Line)
		}

		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q (type: %q, line: %d)",
				i, tt.expectedLiteral, tok.Literal, tok.Type, tok.Line)
		}

		if tok.Line != tt.expectedLine {
			t.Fatalf("tests[%d] - line wrong. expected=%d, got=%d (type: %q, literal: %q)",
				i, tt.expectedLine, tok.Line, tok.Type, tok.Literal)
		}
	}
}

func TestStartLine(t *testing.T) {
	l := NewLexerAt("a;\nb", 40)
	want := []int{40, 40, 41}
	for i, line := range want {
		if tok := l.NextToken(); tok.Line != line {
			t.Fatalf("token %d (%q): expected line %d, got %d", i, tok.Literal, line, tok.Line)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{`"a\nb"`, "a\nb", true},
		{`'it\'s'`, "it's", true},
		{`"ét\x41"`, "étA", true},
		{`"\q"`, "q", true},
		{`"héllo"`, "héllo", true},
		{`"open`, "", false},
		{"\"line\nbreak\"", "", false},
	}
	for _, tt := range tests {
		tok := NewLexer(tt.input).NextToken()
		if !tt.ok {
			if tok.Type != ILLEGAL {
				t.Errorf("%s: expected ILLEGAL, got %q", tt.input, tok.Type)
			}
			continue
		}
		if tok.Type != STRING || tok.Literal != tt.want {
			t.Errorf("%s: expected STRING %q, got %q %q", tt.input, tt.want, tok.Type, tok.Literal)
		}
	}
}

func TestNumbers(t *testing.T) {
	for _, in := range []string{"0", "42", "3.25", ".5", "1e3", "2.5E-4", "0xff"} {
		tok := NewLexer(in).NextToken()
		if tok.Type != NUMBER || tok.Literal != in {
			t.Errorf("%s: got %q %q", in, tok.Type, tok.Literal)
		}
	}

	l := NewLexer("1e")
	if tok := l.NextToken(); tok.Literal != "1" {
		t.Fatalf("expected 1, got %q", tok.Literal)
	}
	if tok := l.NextToken(); tok.Type != IDENT || tok.Literal != "e" {
		t.Fatalf("expected identifier e, got %q %q", tok.Type, tok.Literal)
	}
}

func TestRegexLiterals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenType
		literals []string
	}{
		{
			name:     "Simple regex",
			input:    "/hello/",
			expected: []TokenType{REGEX_LITERAL, EOF},
			literals: []string{"/hello/", ""},
		},
		{
			name:     "Regex with flags",
			input:    "/world/gi",
			expected: []TokenType{REGEX_LITERAL, EOF},
			literals: []string{"/world/gi", ""},
		},
		{
			name:     "Slash inside class",
			input:    "/[/]+/",
			expected: []TokenType{REGEX_LITERAL, EOF},
			literals: []string{"/[/]+/", ""},
		},
		{
			name:     "Assignment context",
			input:    "var x = /test/i;",
			expected: []TokenType{VAR, IDENT, ASSIGN, REGEX_LITERAL, SEMICOLON, EOF},
			literals: []string{"var", "x", "=", "/test/i", ";", ""},
		},
		{
			name:     "Division",
			input:    "a / 2 / b",
			expected: []TokenType{IDENT, SLASH, NUMBER, SLASH, IDENT, EOF},
			literals: []string{"a", "/", "2", "/", "b", ""},
		},
		{
			name:     "Regex after paren",
			input:    "s.replace(/a/g, 'b')",
			expected: []TokenType{IDENT, DOT, IDENT, LPAREN, REGEX_LITERAL, COMMA, STRING, RPAREN, EOF},
			literals: []string{"s", ".", "replace", "(", "/a/g", ",", "b", ")", ""},
		},
		{
			name:     "Invalid flag",
			input:    "/test/x",
			expected: []TokenType{ILLEGAL},
		},
		{
			name:     "Duplicate flag",
			input:    "/test/gg",
			expected: []TokenType{ILLEGAL},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLexer(tt.input)

			for i, expectedToken := range tt.expected {
				tok := l.NextToken()
				if tok.Type != expectedToken {
					t.Errorf("test[%d] - tokentype wrong. expected=%q, got=%q", i, expectedToken, tok.Type)
				}
				if i < len(tt.literals) && tok.Literal != tt.literals[i] {
					t.Errorf("test[%d] - literal wrong. expected=%q, got=%q", i, tt.literals[i], tok.Literal)
				}
			}
		})
	}
}

func TestUnterminatedComment(t *testing.T) {
	tok := NewLexer("a /* never closed").NextToken()
	if tok.Type != IDENT {
		t.Fatalf("expected IDENT first, got %q", tok.Type)
	}
	l := NewLexer("/* never closed")
	if tok := l.NextToken(); tok.Type != ILLEGAL {
		t.Fatalf("expected ILLEGAL, got %q", tok.Type)
	}
}
