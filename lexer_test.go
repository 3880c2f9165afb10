package box

import (
	"strings"
	"testing"
)

func scanAll(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := NewLexer(source).ScanTokens()
	if err != nil {
		t.Fatalf("unexpected lexer error: %v", err)
	}
	return tokens
}

func scanExpectingErrors(t *testing.T, source string) *DiagnosticList {
	t.Helper()
	_, err := NewLexer(source).ScanTokens()
	if err == nil {
		t.Fatalf("expected lexer error for %q", source)
	}
	list, ok := err.(*DiagnosticList)
	if !ok {
		t.Fatalf("expected *DiagnosticList, got %T", err)
	}
	return list
}

func TestBasicTokens(t *testing.T) {
	tokens := scanAll(t, "( ) { } [ ] , ; : + - * / % ! != = == > >= < <= & ->")

	want := []TokenType{
		TOKEN_LPAREN, TOKEN_RPAREN, TOKEN_LBRACE, TOKEN_RBRACE,
		TOKEN_LBRACKET, TOKEN_RBRACKET, TOKEN_COMMA, TOKEN_SEMICOLON, TOKEN_COLON,
		TOKEN_PLUS, TOKEN_MINUS, TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT,
		TOKEN_BANG, TOKEN_BANG_EQUAL, TOKEN_EQUAL, TOKEN_EQUAL_EQUAL,
		TOKEN_GREATER, TOKEN_GREATER_EQUAL, TOKEN_LESS, TOKEN_LESS_EQUAL,
		TOKEN_AMPERSAND, TOKEN_ARROW,
		TOKEN_EOF,
	}

	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, tokenType := range want {
		if tokens[i].Type != tokenType {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, tokenType)
		}
	}
}

func TestKeywords(t *testing.T) {
	tokens := scanAll(t, "var print if else while for fun return true false nil and or")

	want := []TokenType{
		TOKEN_VAR, TOKEN_PRINT, TOKEN_IF, TOKEN_ELSE, TOKEN_WHILE, TOKEN_FOR,
		TOKEN_FUN, TOKEN_RETURN, TOKEN_TRUE, TOKEN_FALSE, TOKEN_NIL,
		TOKEN_AND, TOKEN_OR,
	}
	for i, tokenType := range want {
		if tokens[i].Type != tokenType {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, tokenType)
		}
	}
}

func TestMemoryKeywords(t *testing.T) {
	tokens := scanAll(t, "malloc free calloc realloc addr_of deref unsafe llvm_inline")

	want := []TokenType{
		TOKEN_MALLOC, TOKEN_FREE, TOKEN_CALLOC, TOKEN_REALLOC,
		TOKEN_ADDR_OF, TOKEN_DEREF, TOKEN_UNSAFE, TOKEN_LLVM_INLINE,
	}
	for i, tokenType := range want {
		if tokens[i].Type != tokenType {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, tokenType)
		}
	}
}

func TestPtrIsNotReserved(t *testing.T) {
	tokens := scanAll(t, "ptr")
	if tokens[0].Type != TOKEN_IDENTIFIER {
		t.Errorf("ptr should lex as an identifier, got %s", tokens[0].Type)
	}
}

func TestNumbers(t *testing.T) {
	tokens := scanAll(t, "42 3.14 1.5e10 2.0e-5 0.001")

	want := []float64{42, 3.14, 1.5e10, 2.0e-5, 0.001}
	for i, value := range want {
		if tokens[i].Type != TOKEN_NUMBER {
			t.Fatalf("token %d: got %s, want NUMBER", i, tokens[i].Type)
		}
		if tokens[i].Literal.Number != value {
			t.Errorf("token %d: got %g, want %g", i, tokens[i].Literal.Number, value)
		}
	}
}

func TestStrings(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"plain", `"hello"`, "hello"},
		{"newline escape", `"world\n"`, "world\n"},
		{"tab escape", `"tab\there"`, "tab\there"},
		{"escaped quote", `"quote\"inside"`, "quote\"inside"},
		{"hex escape", `"\x41"`, "A"},
		{"unicode escape", `"\u0041"`, "A"},
		{"unicode multibyte", `"\u00e9"`, "\u00e9"},
		{"nul escape", `"a\0b"`, "a\x00b"},
		{"multi-line", "\"a\nb\"", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := scanAll(t, tt.source)
			if tokens[0].Type != TOKEN_STRING {
				t.Fatalf("got %s, want STRING", tokens[0].Type)
			}
			if tokens[0].Literal.Str != tt.want {
				t.Errorf("got %q, want %q", tokens[0].Literal.Str, tt.want)
			}
		})
	}
}

func TestInvalidEscapes(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		wantMessage string
		wantHint    string
	}{
		{"unknown escape", `"\q"`, "Invalid escape sequence '\\q'", "Valid escape sequences are"},
		{"bad hex", `"\xZZ"`, "Invalid hexadecimal escape sequence", "requires exactly 2 hex digits"},
		{"bad unicode", `"\uZZZZ"`, "Invalid unicode escape sequence", "requires exactly 4 hex digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := scanExpectingErrors(t, tt.source)
			d := list.Diagnostics[0]
			if !strings.Contains(d.Message, tt.wantMessage) {
				t.Errorf("message %q does not contain %q", d.Message, tt.wantMessage)
			}
			if !strings.Contains(d.Hint, tt.wantHint) {
				t.Errorf("hint %q does not contain %q", d.Hint, tt.wantHint)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	list := scanExpectingErrors(t, "var s = \"open")
	d := list.Diagnostics[0]
	if !strings.Contains(d.Message, "Unterminated string") {
		t.Errorf("unexpected message: %q", d.Message)
	}
	if !strings.Contains(d.Hint, "line 1, column 9") {
		t.Errorf("hint should name the opening position, got %q", d.Hint)
	}
}

func TestUnterminatedBlockComment(t *testing.T) {
	source := "var a = 1;\nvar b = 2;\n/* open /* nested\nmore"
	list := scanExpectingErrors(t, source)
	d := list.Diagnostics[0]
	if !strings.Contains(d.Message, "Unterminated block comment") {
		t.Errorf("unexpected message: %q", d.Message)
	}
	if !strings.Contains(d.Message, "missing 2 closing") {
		t.Errorf("message should carry the unmatched depth, got %q", d.Message)
	}
	if !strings.Contains(d.Hint, "line 3") {
		t.Errorf("hint should name the opening line, got %q", d.Hint)
	}
}

func TestNestedBlockCommentScansThrough(t *testing.T) {
	tokens := scanAll(t, "/* a /* b */ c */ var x = 1;")
	if tokens[0].Type != TOKEN_VAR {
		t.Errorf("first token after comment: got %s, want VAR", tokens[0].Type)
	}
}

func TestLineComment(t *testing.T) {
	tokens := scanAll(t, "// nothing here\nvar x = 1;")
	if tokens[0].Type != TOKEN_VAR {
		t.Errorf("got %s, want VAR", tokens[0].Type)
	}
	if tokens[0].Line != 2 {
		t.Errorf("got line %d, want 2", tokens[0].Line)
	}
}

func TestNumberErrors(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		wantMessage string
	}{
		{"overflow", "1e99999", "out of range"},
		{"trailing dot", "3.;", "decimal point must be followed by digits"},
		{"empty exponent", "1.5e;", "exponent must be followed by digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := scanExpectingErrors(t, tt.source)
			if !strings.Contains(list.Diagnostics[0].Message, tt.wantMessage) {
				t.Errorf("message %q does not contain %q", list.Diagnostics[0].Message, tt.wantMessage)
			}
		})
	}
}

func TestIdentifierLengthBoundary(t *testing.T) {
	ok := strings.Repeat("a", 255)
	tokens := scanAll(t, ok)
	if tokens[0].Type != TOKEN_IDENTIFIER || tokens[0].Lexeme != ok {
		t.Errorf("255-character identifier should be accepted")
	}

	list := scanExpectingErrors(t, strings.Repeat("a", 256))
	if !strings.Contains(list.Diagnostics[0].Message, "Identifier too long") {
		t.Errorf("unexpected message: %q", list.Diagnostics[0].Message)
	}
}

func TestUnexpectedCharacterHints(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantHint string
	}{
		{"pipe suggests or", "a | b", "Use 'or' keyword instead of '|'"},
		{"at sign", "@", "not a valid Box operator"},
		{"generic", "`", "not recognized in Box"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := scanExpectingErrors(t, tt.source)
			if !strings.Contains(list.Diagnostics[0].Hint, tt.wantHint) {
				t.Errorf("hint %q does not contain %q", list.Diagnostics[0].Hint, tt.wantHint)
			}
		})
	}
}

func TestErrorAccumulation(t *testing.T) {
	list := scanExpectingErrors(t, "var a = 1; @\nvar b = 2; $")
	if len(list.Diagnostics) != 2 {
		t.Fatalf("got %d diagnostics, want 2", len(list.Diagnostics))
	}
	rendered := list.Error()
	if !strings.Contains(rendered, "COMPILATION FAILED: Found 2 lexical error(s)") {
		t.Errorf("bundle summary missing, got:\n%s", rendered)
	}
}

func TestPositions(t *testing.T) {
	tokens := scanAll(t, "var x = 42;\nvar y = 10;")

	checks := []struct {
		index  int
		line   int
		column int
	}{
		{0, 1, 1},  // var
		{1, 1, 5},  // x
		{2, 1, 7},  // =
		{3, 1, 9},  // 42
		{4, 1, 11}, // ;
		{5, 2, 1},  // var
		{6, 2, 5},  // y
	}
	for _, c := range checks {
		tok := tokens[c.index]
		if tok.Line != c.line || tok.Column != c.column {
			t.Errorf("token %d (%q): got %d:%d, want %d:%d",
				c.index, tok.Lexeme, tok.Line, tok.Column, c.line, c.column)
		}
	}
}

func TestTokenStreamRoundTrip(t *testing.T) {
	source := `var x = malloc(100); if (x >= 2.5e1) { print "ok\n"; } free(x);`
	tokens := scanAll(t, source)

	var lexemes []string
	for _, tok := range tokens {
		if tok.Type == TOKEN_EOF {
			break
		}
		lexemes = append(lexemes, tok.Lexeme)
	}
	reprinted := strings.Join(lexemes, " ")
	relexed := scanAll(t, reprinted)

	if len(relexed) != len(tokens) {
		t.Fatalf("round trip changed token count: %d vs %d", len(relexed), len(tokens))
	}
	for i := range tokens {
		if relexed[i].Type != tokens[i].Type {
			t.Errorf("token %d: %s became %s", i, tokens[i].Type, relexed[i].Type)
		}
	}
}

func TestEOFTerminatesStream(t *testing.T) {
	tokens := scanAll(t, "")
	if len(tokens) != 1 || tokens[0].Type != TOKEN_EOF {
		t.Fatalf("empty source should produce a lone END_OF_FILE token")
	}
}
