// parser.go - Recursive descent parser for the Box language
//
// Grammar (informal):
//
//	program    := declaration*
//	declaration:= import | varDecl | funDecl | statement
//	statement  := print | if | while | for | switch | return | break
//	            | unsafe | llvmInline | block | exprStmt
//	expression := assignment
//	assignment := orExpr ("=" assignment)?
//	orExpr     := andExpr ("or" andExpr)*
//	andExpr    := equality ("and" equality)*
//	equality   := comparison (("!=" | "==") comparison)*
//	comparison := term (("<" | "<=" | ">" | ">=") term)*
//	term       := factor (("+" | "-") factor)*
//	factor     := unary (("*" | "/" | "%") unary)*
//	unary      := ("!" | "-") unary | call
//	call       := primary ( "(" args? ")" | "[" expression "]" )*
//
// Errors are accumulated: when a declaration fails to parse, the parser
// records the diagnostic and synchronizes to the next statement boundary
// so a single run surfaces every problem in the file.
package box

import (
	"fmt"
)

const (
	maxArguments     = 255
	maxParameters    = 255
	maxLoopDepth     = 100
	maxBlockDepth    = 100
	maxFunctionDepth = 100
	maxArrayLiteral  = 1000
	maxDictLiteral   = 1000
)

// parseError carries one diagnostic out of a failed production.
type parseError struct {
	diag Diagnostic
}

func (e *parseError) Error() string { return e.diag.Format() }

// Parser consumes a token stream and produces statements. The source text
// is only used to render diagnostics.
type Parser struct {
	tokens        []Token
	source        string
	current       int
	errs          []Diagnostic
	loopDepth     int
	blockDepth    int
	functionDepth int
	inUnsafe      bool
}

func NewParser(tokens []Token, source string) *Parser {
	return &Parser{tokens: tokens, source: source}
}

// Parse is the convenience entry point: tokens in, statements or a bundled
// multi-error diagnostic out.
func Parse(tokens []Token, source string) ([]Statement, error) {
	return NewParser(tokens, source).ParseProgram()
}

func (p *Parser) ParseProgram() ([]Statement, error) {
	var statements []Statement

	for !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			p.errs = append(p.errs, err.(*parseError).diag)
			p.synchronize()
			continue
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}

	if len(p.errs) > 0 {
		return nil, &DiagnosticList{Noun: "parsing", Diagnostics: p.errs}
	}
	return statements, nil
}

func (p *Parser) declaration() (Statement, error) {
	if p.match(TOKEN_IMPORT) {
		return p.importStatement()
	}
	if p.match(TOKEN_VAR) {
		return p.varDeclaration()
	}
	if p.match(TOKEN_FUN) {
		return p.function("function")
	}
	return p.statement()
}

func (p *Parser) varDeclaration() (Statement, error) {
	if !p.check(TOKEN_IDENTIFIER) {
		hint := "Variable declarations must follow this pattern:\n" +
			"       var variableName = value;\n" +
			"       var variableName;"
		return nil, p.errorAt(p.peek(), "Expect variable name after 'var'", hint)
	}

	name := p.advance()

	if len(name.Lexeme) > maxIdentifierLength {
		hint := fmt.Sprintf("Variable names must be %d characters or fewer.\n"+
			"       Current length: %d characters.\n"+
			"       Use a shorter, more descriptive name.", maxIdentifierLength, len(name.Lexeme))
		return nil, p.errorAt(name, "Variable name too long: '"+name.Lexeme[:50]+"...'", hint)
	}

	var initializer Expression
	if p.match(TOKEN_EQUAL) {
		init, err := p.expression()
		if err != nil {
			hint := "Check the expression after '=' in variable declaration.\n" +
				"       Example: var x = 42;"
			return nil, p.errorAt(p.previous(), "Invalid initializer expression", hint)
		}
		initializer = init
	}

	if !p.check(TOKEN_SEMICOLON) {
		hint := "Variable declarations must end with a semicolon.\n" +
			"       Add ';' after the variable declaration."
		return nil, p.errorAt(p.peek(), "Expect ';' after variable declaration", hint)
	}
	p.advance()

	return &VarStmt{Name: name, Initializer: initializer}, nil
}

func (p *Parser) function(kind string) (Statement, error) {
	if !p.check(TOKEN_IDENTIFIER) {
		hint := "Function declarations must have a name.\n" +
			"       Example: fun myFunction() { ... }"
		return nil, p.errorAt(p.peek(), "Expect "+kind+" name", hint)
	}

	name := p.advance()

	if len(name.Lexeme) > maxIdentifierLength {
		hint := fmt.Sprintf("Function names must be %d characters or fewer.\n"+
			"       Current length: %d characters.", maxIdentifierLength, len(name.Lexeme))
		return nil, p.errorAt(name, "Function name too long: '"+name.Lexeme[:50]+"...'", hint)
	}

	if !p.check(TOKEN_LPAREN) {
		hint := "Function name must be followed by '('.\n" +
			"       Example: fun " + name.Lexeme + "() { ... }"
		return nil, p.errorAt(p.peek(), "Expect '(' after "+kind+" name", hint)
	}
	p.advance()

	var params []Token
	paramNames := make(map[string]bool)

	if !p.check(TOKEN_RPAREN) {
		for {
			if len(params) >= maxParameters {
				hint := fmt.Sprintf("Box functions support up to %d parameters.\n"+
					"       Consider restructuring your function to use fewer parameters.", maxParameters)
				return nil, p.errorAt(p.peek(), fmt.Sprintf("Cannot have more than %d parameters", maxParameters), hint)
			}

			if !p.check(TOKEN_IDENTIFIER) {
				hint := "Function parameters must be identifiers.\n" +
					"       Example: fun " + name.Lexeme + "(param1, param2) { ... }"
				return nil, p.errorAt(p.peek(), "Expect parameter name", hint)
			}

			param := p.advance()

			if paramNames[param.Lexeme] {
				hint := "Each parameter name must be unique within the function.\n" +
					"       Parameter '" + param.Lexeme + "' is already defined.\n" +
					"       Use different names for each parameter."
				return nil, p.errorAt(param, "Duplicate parameter name '"+param.Lexeme+"'", hint)
			}

			paramNames[param.Lexeme] = true
			params = append(params, param)

			if !p.match(TOKEN_COMMA) {
				break
			}

			if p.check(TOKEN_RPAREN) {
				hint := "Remove the trailing comma before ')'.\n" +
					"       Example: fun " + name.Lexeme + "(a, b) not fun " + name.Lexeme + "(a, b,)"
				return nil, p.errorAt(p.peek(), "Trailing comma in parameter list", hint)
			}
		}
	}

	if _, err := p.consume(TOKEN_RPAREN, "Expect ')' after parameters"); err != nil {
		return nil, err
	}

	if !p.check(TOKEN_LBRACE) {
		hint := "Function body must be enclosed in curly braces.\n" +
			"       Example: fun " + name.Lexeme + "() { return 42; }"
		return nil, p.errorAt(p.peek(), "Expect '{' before "+kind+" body", hint)
	}
	p.advance()

	p.functionDepth++
	if p.functionDepth > maxFunctionDepth {
		p.functionDepth--
		hint := fmt.Sprintf("Function nesting is too deep (maximum %d levels).\n"+
			"       Consider refactoring nested functions into separate top-level functions.", maxFunctionDepth)
		return nil, p.errorAt(name, "Function nesting depth exceeds maximum", hint)
	}

	body, err := p.block()
	p.functionDepth--
	if err != nil {
		return nil, err
	}

	return &FunctionStmt{Name: name, Params: params, Body: body}, nil
}

func (p *Parser) statement() (Statement, error) {
	if p.match(TOKEN_PRINT) {
		return p.printStatement()
	}
	if p.match(TOKEN_IF) {
		return p.ifStatement()
	}
	if p.match(TOKEN_WHILE) {
		return p.whileStatement()
	}
	if p.match(TOKEN_FOR) {
		return p.forStatement()
	}
	if p.match(TOKEN_SWITCH) {
		return p.switchStatement()
	}
	if p.match(TOKEN_RETURN) {
		return p.returnStatement()
	}
	if p.match(TOKEN_BREAK) {
		return p.breakStatement()
	}
	if p.match(TOKEN_UNSAFE) {
		return p.unsafeStatement()
	}
	if p.match(TOKEN_LLVM_INLINE) {
		return p.llvmInlineStatement()
	}
	if p.match(TOKEN_LBRACE) {
		openingBrace := p.previous()
		stmts, err := p.block()
		if err != nil {
			return nil, err
		}
		return &BlockStmt{Statements: stmts, OpeningBrace: openingBrace}, nil
	}

	return p.expressionStatement()
}

func (p *Parser) printStatement() (Statement, error) {
	keyword := p.previous()

	value, err := p.expression()
	if err != nil {
		hint := "The 'print' statement requires a valid expression.\n" +
			"       Example: print \"Hello\"; or print 42;"
		return nil, p.errorAt(keyword, "Invalid expression in print statement", hint)
	}

	if !p.check(TOKEN_SEMICOLON) {
		hint := "Print statements must end with a semicolon.\n" +
			"       Example: print value;"
		return nil, p.errorAt(p.peek(), "Expect ';' after value in print statement", hint)
	}
	p.advance()

	return &PrintStmt{Expression: value, Keyword: keyword}, nil
}

func (p *Parser) ifStatement() (Statement, error) {
	keyword := p.previous()

	if !p.check(TOKEN_LPAREN) {
		hint := "If statements require a condition in parentheses.\n" +
			"       Example: if (x > 5) { ... }"
		return nil, p.errorAt(p.peek(), "Expect '(' after 'if'", hint)
	}
	p.advance()

	condition, err := p.expression()
	if err != nil {
		hint := "The condition in an if statement must be a valid expression.\n" +
			"       Example: if (x == 5) { ... }"
		return nil, p.errorAt(keyword, "Invalid condition in if statement", hint)
	}

	if !p.check(TOKEN_RPAREN) {
		hint := "Close the condition with ')' before the if body.\n" +
			"       Example: if (condition) { ... }"
		return nil, p.errorAt(p.peek(), "Expect ')' after if condition", hint)
	}
	p.advance()

	thenBranch, err := p.statement()
	if err != nil {
		return nil, err
	}

	var elseBranch Statement
	if p.match(TOKEN_ELSE) {
		elseBranch, err = p.statement()
		if err != nil {
			return nil, err
		}
	}

	return &IfStmt{Condition: condition, ThenBranch: thenBranch, ElseBranch: elseBranch, Keyword: keyword}, nil
}

func (p *Parser) whileStatement() (Statement, error) {
	keyword := p.previous()

	p.loopDepth++
	defer func() { p.loopDepth-- }()
	if p.loopDepth > maxLoopDepth {
		hint := fmt.Sprintf("Loop nesting is too deep (maximum %d levels).\n"+
			"       Consider extracting inner loops into separate functions.", maxLoopDepth)
		return nil, p.errorAt(keyword, "Loop nesting depth exceeds maximum", hint)
	}

	if !p.check(TOKEN_LPAREN) {
		hint := "While loops require a condition in parentheses.\n" +
			"       Example: while (count < 10) { ... }"
		return nil, p.errorAt(p.peek(), "Expect '(' after 'while'", hint)
	}
	p.advance()

	condition, err := p.expression()
	if err != nil {
		hint := "The condition in a while loop must be a valid expression.\n" +
			"       Example: while (x > 0) { ... }"
		return nil, p.errorAt(keyword, "Invalid condition in while loop", hint)
	}

	if !p.check(TOKEN_RPAREN) {
		hint := "Close the condition with ')' before the loop body.\n" +
			"       Example: while (condition) { ... }"
		return nil, p.errorAt(p.peek(), "Expect ')' after while condition", hint)
	}
	p.advance()

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	return &WhileStmt{Condition: condition, Body: body, Keyword: keyword}, nil
}

// forStatement lowers "for (init; cond; incr) body" at parse time to
// Block(init, While(cond-or-true, Block(body, ExprStmt(incr)))).
func (p *Parser) forStatement() (Statement, error) {
	forKeyword := p.previous()

	p.loopDepth++
	defer func() { p.loopDepth-- }()
	if p.loopDepth > maxLoopDepth {
		hint := fmt.Sprintf("Loop nesting is too deep (maximum %d levels).\n"+
			"       Consider extracting inner loops into separate functions.", maxLoopDepth)
		return nil, p.errorAt(forKeyword, "Loop nesting depth exceeds maximum", hint)
	}

	if !p.check(TOKEN_LPAREN) {
		hint := "For loops require three clauses in parentheses.\n" +
			"       Example: for (var i = 0; i < 10; i = i + 1) { ... }"
		return nil, p.errorAt(p.peek(), "Expect '(' after 'for'", hint)
	}
	p.advance()

	var initializer Statement
	var err error
	if p.match(TOKEN_SEMICOLON) {
		initializer = nil
	} else if p.match(TOKEN_VAR) {
		initializer, err = p.varDeclaration()
		if err != nil {
			return nil, err
		}
	} else {
		initializer, err = p.expressionStatement()
		if err != nil {
			return nil, err
		}
	}

	var condition Expression
	if !p.check(TOKEN_SEMICOLON) {
		condition, err = p.expression()
		if err != nil {
			hint := "The condition clause must be a valid expression.\n" +
				"       Example: for (var i = 0; i < 10; i = i + 1) { ... }"
			return nil, p.errorAt(forKeyword, "Invalid condition in for loop", hint)
		}
	}

	if !p.check(TOKEN_SEMICOLON) {
		hint := "For loop clauses must be separated by semicolons.\n" +
			"       Example: for (init; condition; increment) { ... }"
		return nil, p.errorAt(p.peek(), "Expect ';' after loop condition", hint)
	}
	p.advance()

	var increment Expression
	if !p.check(TOKEN_RPAREN) {
		increment, err = p.expression()
		if err != nil {
			hint := "The increment clause must be a valid expression.\n" +
				"       Example: for (var i = 0; i < 10; i = i + 1) { ... }"
			return nil, p.errorAt(forKeyword, "Invalid increment in for loop", hint)
		}
	}

	if !p.check(TOKEN_RPAREN) {
		hint := "Close the for loop clauses with ')' before the body.\n" +
			"       Example: for (init; cond; incr) { ... }"
		return nil, p.errorAt(p.peek(), "Expect ')' after for clauses", hint)
	}
	p.advance()

	body, err := p.statement()
	if err != nil {
		return nil, err
	}

	if increment != nil {
		body = &BlockStmt{
			Statements:   []Statement{body, &ExprStmt{Expression: increment}},
			OpeningBrace: forKeyword,
		}
	}

	if condition == nil {
		condition = &LiteralExpr{Value: BoolLiteral(true), Token: forKeyword}
	}

	body = &WhileStmt{Condition: condition, Body: body, Keyword: forKeyword}

	if initializer != nil {
		body = &BlockStmt{
			Statements:   []Statement{initializer, body},
			OpeningBrace: forKeyword,
		}
	}

	return body, nil
}

func (p *Parser) returnStatement() (Statement, error) {
	keyword := p.previous()

	if p.functionDepth == 0 {
		hint := "Return statements can only be used inside functions.\n" +
			"       Move this return statement inside a function body."
		return nil, p.errorAt(keyword, "Cannot use 'return' outside of a function", hint)
	}

	var value Expression
	if !p.check(TOKEN_SEMICOLON) {
		v, err := p.expression()
		if err != nil {
			hint := "The return value must be a valid expression.\n" +
				"       Example: return 42; or return x + y;"
			return nil, p.errorAt(keyword, "Invalid return value expression", hint)
		}
		value = v
	}

	if !p.check(TOKEN_SEMICOLON) {
		hint := "Return statements must end with a semicolon.\n" +
			"       Example: return value;"
		return nil, p.errorAt(p.peek(), "Expect ';' after return value", hint)
	}
	p.advance()

	return &ReturnStmt{Keyword: keyword, Value: value}, nil
}

func (p *Parser) breakStatement() (Statement, error) {
	keyword := p.previous()

	if p.loopDepth == 0 {
		hint := "Break statements can only be used inside loops or switch statements.\n" +
			"       Move this break statement inside a loop or switch body."
		return nil, p.errorAt(keyword, "Cannot use 'break' outside of a loop or switch", hint)
	}

	if !p.check(TOKEN_SEMICOLON) {
		hint := "Break statements must end with a semicolon.\n" +
			"       Example: break;"
		return nil, p.errorAt(p.peek(), "Expect ';' after 'break'", hint)
	}
	p.advance()

	return &BreakStmt{Keyword: keyword}, nil
}

func (p *Parser) switchStatement() (Statement, error) {
	keyword := p.previous()

	if !p.check(TOKEN_LPAREN) {
		hint := "Switch statements require a condition in parentheses.\n" +
			"       Example: switch (value) { case 1: ... }"
		return nil, p.errorAt(p.peek(), "Expect '(' after 'switch'", hint)
	}
	p.advance()

	condition, err := p.expression()
	if err != nil {
		hint := "The condition in a switch must be a valid expression.\n" +
			"       Example: switch (x) { ... }"
		return nil, p.errorAt(keyword, "Invalid condition in switch", hint)
	}

	if !p.check(TOKEN_RPAREN) {
		hint := "Close the condition with ')' before the switch body.\n" +
			"       Example: switch (condition) { ... }"
		return nil, p.errorAt(p.peek(), "Expect ')' after switch condition", hint)
	}
	p.advance()

	if !p.check(TOKEN_LBRACE) {
		hint := "Switch body must be enclosed in curly braces.\n" +
			"       Example: switch (x) { case 1: ... }"
		return nil, p.errorAt(p.peek(), "Expect '{' before switch body", hint)
	}
	p.advance()

	var cases []CaseClause
	var defaultCase []Statement
	seenDefault := false

	// break is legal inside switch bodies
	p.loopDepth++
	defer func() { p.loopDepth-- }()

	for !p.check(TOKEN_RBRACE) && !p.isAtEnd() {
		if p.match(TOKEN_CASE) {
			if seenDefault {
				hint := "Case clauses cannot appear after default clause.\n" +
					"       Move all case clauses before the default clause."
				return nil, p.errorAt(p.previous(), "Case after default", hint)
			}

			caseValue, err := p.expression()
			if err != nil {
				hint := "Case value must be a valid expression.\n" +
					"       Example: case 1: ... or case \"hello\": ..."
				return nil, p.errorAt(p.previous(), "Invalid case value", hint)
			}

			if !p.check(TOKEN_COLON) {
				hint := "Case value must be followed by ':'.\n" +
					"       Example: case 1: statements..."
				return nil, p.errorAt(p.peek(), "Expect ':' after case value", hint)
			}
			p.advance()

			var statements []Statement
			for !p.check(TOKEN_CASE) && !p.check(TOKEN_DEFAULT) &&
				!p.check(TOKEN_RBRACE) && !p.isAtEnd() {
				stmt, err := p.declaration()
				if err != nil {
					return nil, err
				}
				if stmt != nil {
					statements = append(statements, stmt)
				}
			}

			cases = append(cases, CaseClause{Value: caseValue, Statements: statements})

		} else if p.match(TOKEN_DEFAULT) {
			if seenDefault {
				hint := "Only one default clause is allowed per switch.\n" +
					"       Remove the duplicate default clause."
				return nil, p.errorAt(p.previous(), "Duplicate default clause", hint)
			}
			seenDefault = true

			if !p.check(TOKEN_COLON) {
				hint := "Default must be followed by ':'.\n" +
					"       Example: default: statements..."
				return nil, p.errorAt(p.peek(), "Expect ':' after 'default'", hint)
			}
			p.advance()

			var statements []Statement
			for !p.check(TOKEN_CASE) && !p.check(TOKEN_DEFAULT) &&
				!p.check(TOKEN_RBRACE) && !p.isAtEnd() {
				stmt, err := p.declaration()
				if err != nil {
					return nil, err
				}
				if stmt != nil {
					statements = append(statements, stmt)
				}
			}

			defaultCase = statements

		} else {
			hint := "Switch body must contain case or default clauses.\n" +
				"       Example: switch (x) { case 1: ... default: ... }"
			return nil, p.errorAt(p.peek(), "Expect 'case' or 'default' in switch body", hint)
		}
	}

	if !p.check(TOKEN_RBRACE) {
		hint := "Switch statements must be closed with '}'.\n" +
			"       Check that all opening '{' have matching closing '}'."
		return nil, p.errorAt(p.peek(), "Expect '}' after switch body", hint)
	}
	p.advance()

	return &SwitchStmt{
		Keyword:    keyword,
		Condition:  condition,
		Cases:      cases,
		Default:    defaultCase,
		HasDefault: seenDefault,
	}, nil
}

func (p *Parser) block() ([]Statement, error) {
	p.blockDepth++
	defer func() { p.blockDepth-- }()
	if p.blockDepth > maxBlockDepth {
		hint := fmt.Sprintf("Block nesting is too deep (maximum %d levels).\n"+
			"       Consider refactoring deeply nested code.", maxBlockDepth)
		return nil, p.errorAt(p.peek(), "Block nesting depth exceeds maximum", hint)
	}

	var statements []Statement
	for !p.check(TOKEN_RBRACE) && !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}

	if !p.check(TOKEN_RBRACE) {
		hint := "Blocks must be closed with '}'.\n" +
			"       Check that all opening '{' have matching closing '}'."
		return nil, p.errorAt(p.peek(), "Expect '}' after block", hint)
	}
	p.advance()

	return statements, nil
}

func (p *Parser) expressionStatement() (Statement, error) {
	expr, err := p.expression()
	if err != nil {
		if pe, ok := err.(*parseError); ok && pe.diag.Message == "Invalid assignment target" {
			return nil, err
		}
		hint := "Statement must be a valid expression.\n" +
			"       Check for syntax errors in the expression."
		return nil, p.errorAt(p.peek(), "Invalid expression statement", hint)
	}

	if !p.check(TOKEN_SEMICOLON) {
		hint := "Statements must end with a semicolon.\n" +
			"       Add ';' at the end of the statement."
		return nil, p.errorAt(p.peek(), "Expect ';' after expression", hint)
	}
	p.advance()

	return &ExprStmt{Expression: expr}, nil
}

func (p *Parser) unsafeStatement() (Statement, error) {
	keyword := p.previous()

	if !p.check(TOKEN_LBRACE) {
		hint := "Unsafe blocks must be followed by '{'.\n" +
			"       Example: unsafe { ... }"
		return nil, p.errorAt(p.peek(), "Expect '{' after 'unsafe'", hint)
	}
	p.advance()

	prevUnsafe := p.inUnsafe
	p.inUnsafe = true
	defer func() { p.inUnsafe = prevUnsafe }()

	var statements []Statement
	for !p.check(TOKEN_RBRACE) && !p.isAtEnd() {
		stmt, err := p.declaration()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			statements = append(statements, stmt)
		}
	}

	if !p.check(TOKEN_RBRACE) {
		hint := "Unsafe blocks must be closed with '}'.\n" +
			"       Check that all opening '{' have matching closing '}'."
		return nil, p.errorAt(p.peek(), "Expect '}' after unsafe block", hint)
	}
	p.advance()

	return &UnsafeBlockStmt{Keyword: keyword, Statements: statements}, nil
}

func (p *Parser) llvmInlineStatement() (Statement, error) {
	keyword := p.previous()

	if !p.inUnsafe {
		hint := "llvm_inline() can only be used inside unsafe blocks.\n" +
			"       Wrap your code in: unsafe { llvm_inline(...); }"
		return nil, p.errorAt(keyword, "llvm_inline() requires unsafe context", hint)
	}

	if !p.check(TOKEN_LPAREN) {
		hint := "llvm_inline requires parentheses.\n" +
			"       Example: llvm_inline(\"LLVM IR code\");"
		return nil, p.errorAt(p.peek(), "Expect '(' after 'llvm_inline'", hint)
	}
	p.advance()

	if !p.check(TOKEN_STRING) {
		hint := "llvm_inline requires a string literal containing LLVM IR code.\n" +
			"       Example: llvm_inline(\"%result = add i32 5, 10\");"
		return nil, p.errorAt(p.peek(), "Expect string literal with LLVM IR code", hint)
	}

	codeToken := p.advance()
	code := codeToken.Literal.Str

	if !p.check(TOKEN_RPAREN) {
		hint := "llvm_inline call must be closed with ')'.\n" +
			"       Check that all opening '(' have matching closing ')'."
		return nil, p.errorAt(p.peek(), "Expect ')' after LLVM IR code", hint)
	}
	p.advance()

	if !p.check(TOKEN_SEMICOLON) {
		hint := "Statements must end with semicolon.\n" +
			"       Add ';' at the end of the statement."
		return nil, p.errorAt(p.peek(), "Expect ';' after llvm_inline() call", hint)
	}
	p.advance()

	return &LLVMInlineStmt{Keyword: keyword, Code: code, Variables: map[string]string{}}, nil
}

func (p *Parser) importStatement() (Statement, error) {
	keyword := p.previous()

	if !p.check(TOKEN_STRING) {
		hint := "import requires a string literal with the file path.\n" +
			"       Example: import \"module.box\";"
		return nil, p.errorAt(p.peek(), "Expect string literal with file path after 'import'", hint)
	}

	pathToken := p.advance()
	if pathToken.Literal.Kind != LiteralString {
		hint := "import path must be a string.\n" +
			"       Example: import \"utils.box\";"
		return nil, p.errorAt(pathToken, "Invalid import path", hint)
	}
	filePath := pathToken.Literal.Str

	if filePath == "" {
		hint := "Import path cannot be empty.\n" +
			"       Provide a valid file path like \"module.box\""
		return nil, p.errorAt(pathToken, "Empty import path", hint)
	}

	if !p.check(TOKEN_SEMICOLON) {
		hint := "Import statements must end with a semicolon.\n" +
			"       Example: import \"module.box\";"
		return nil, p.errorAt(p.peek(), "Expect ';' after import path", hint)
	}
	p.advance()

	return &ImportStmt{Keyword: keyword, Path: filePath, PathToken: pathToken}, nil
}

func (p *Parser) expression() (Expression, error) {
	return p.assignment()
}

// assignment desugars "x = v" to AssignExpr and "a[i] = v" to IndexSetExpr.
// Any other target is rejected.
func (p *Parser) assignment() (Expression, error) {
	expr, err := p.orExpr()
	if err != nil {
		return nil, err
	}

	if p.match(TOKEN_EQUAL) {
		equals := p.previous()
		value, err := p.assignment()
		if err != nil {
			return nil, err
		}

		switch target := expr.(type) {
		case *VariableExpr:
			return &AssignExpr{Name: target.Name, Value: value}, nil
		case *IndexGetExpr:
			return &IndexSetExpr{Array: target.Array, Index: target.Index, Value: value, Bracket: target.Bracket}, nil
		}

		hint := "Invalid assignment target. Only variables and array elements can be assigned to.\n" +
			"       Example: variableName = value; or arr[0] = value;\n" +
			"       Cannot assign to: literals, expressions, function calls"
		return nil, p.errorAt(equals, "Invalid assignment target", hint)
	}

	return expr, nil
}

func (p *Parser) orExpr() (Expression, error) {
	expr, err := p.andExpr()
	if err != nil {
		return nil, err
	}

	for p.match(TOKEN_OR) {
		op := p.previous()
		right, err := p.andExpr()
		if err != nil {
			hint := "The 'or' operator requires valid expressions on both sides.\n" +
				"       Example: condition1 or condition2"
			return nil, p.errorAt(op, "Invalid right operand for 'or'", hint)
		}
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *Parser) andExpr() (Expression, error) {
	expr, err := p.equality()
	if err != nil {
		return nil, err
	}

	for p.match(TOKEN_AND) {
		op := p.previous()
		right, err := p.equality()
		if err != nil {
			hint := "The 'and' operator requires valid expressions on both sides.\n" +
				"       Example: condition1 and condition2"
			return nil, p.errorAt(op, "Invalid right operand for 'and'", hint)
		}
		expr = &LogicalExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *Parser) equality() (Expression, error) {
	expr, err := p.comparison()
	if err != nil {
		return nil, err
	}

	for p.match(TOKEN_BANG_EQUAL, TOKEN_EQUAL_EQUAL) {
		op := p.previous()
		right, err := p.comparison()
		if err != nil {
			return nil, p.binaryOperandError(op)
		}
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *Parser) comparison() (Expression, error) {
	expr, err := p.term()
	if err != nil {
		return nil, err
	}

	for p.match(TOKEN_GREATER, TOKEN_GREATER_EQUAL, TOKEN_LESS, TOKEN_LESS_EQUAL) {
		op := p.previous()
		right, err := p.term()
		if err != nil {
			return nil, p.binaryOperandError(op)
		}
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *Parser) term() (Expression, error) {
	expr, err := p.factor()
	if err != nil {
		return nil, err
	}

	for p.match(TOKEN_MINUS, TOKEN_PLUS) {
		op := p.previous()
		right, err := p.factor()
		if err != nil {
			return nil, p.binaryOperandError(op)
		}
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *Parser) factor() (Expression, error) {
	expr, err := p.unary()
	if err != nil {
		return nil, err
	}

	for p.match(TOKEN_SLASH, TOKEN_STAR, TOKEN_PERCENT) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			return nil, p.binaryOperandError(op)
		}
		expr = &BinaryExpr{Left: expr, Op: op, Right: right}
	}

	return expr, nil
}

func (p *Parser) binaryOperandError(op Token) error {
	hint := fmt.Sprintf("The '%s' operator requires valid expressions on both sides.\n"+
		"       Example: value1 %s value2", op.Lexeme, op.Lexeme)
	return p.errorAt(op, "Invalid right operand for '"+op.Lexeme+"'", hint)
}

func (p *Parser) unary() (Expression, error) {
	if p.match(TOKEN_BANG, TOKEN_MINUS) {
		op := p.previous()
		right, err := p.unary()
		if err != nil {
			hint := fmt.Sprintf("The '%s' operator requires a valid expression.\n"+
				"       Example: %svalue", op.Lexeme, op.Lexeme)
			return nil, p.errorAt(op, "Invalid operand for '"+op.Lexeme+"'", hint)
		}
		return &UnaryExpr{Op: op, Right: right}, nil
	}

	return p.call()
}

func (p *Parser) call() (Expression, error) {
	expr, err := p.primary()
	if err != nil {
		return nil, err
	}

	for {
		if p.match(TOKEN_LPAREN) {
			expr, err = p.finishCall(expr)
			if err != nil {
				return nil, err
			}
		} else if p.match(TOKEN_LBRACKET) {
			expr, err = p.finishIndex(expr)
			if err != nil {
				return nil, err
			}
		} else {
			break
		}
	}

	return expr, nil
}

func (p *Parser) finishCall(callee Expression) (Expression, error) {
	var arguments []Expression

	if !p.check(TOKEN_RPAREN) {
		for {
			if len(arguments) >= maxArguments {
				hint := fmt.Sprintf("Function calls support up to %d arguments.\n"+
					"       Consider restructuring to use fewer arguments.", maxArguments)
				return nil, p.errorAt(p.peek(), fmt.Sprintf("Cannot have more than %d arguments", maxArguments), hint)
			}

			arg, err := p.expression()
			if err != nil {
				hint := "Function arguments must be valid expressions.\n" +
					"       Example: functionName(arg1, arg2, arg3)"
				return nil, p.errorAt(p.previous(), "Invalid argument expression", hint)
			}
			arguments = append(arguments, arg)

			if !p.match(TOKEN_COMMA) {
				break
			}

			if p.check(TOKEN_RPAREN) {
				hint := "Remove the trailing comma before ')'.\n" +
					"       Example: func(a, b) not func(a, b,)"
				return nil, p.errorAt(p.peek(), "Trailing comma in argument list", hint)
			}
		}
	}

	if !p.check(TOKEN_RPAREN) {
		hint := "Function calls must be closed with ')'.\n" +
			"       Example: functionName(arg1, arg2)"
		return nil, p.errorAt(p.peek(), "Expect ')' after arguments", hint)
	}
	paren := p.advance()

	return &CallExpr{Callee: callee, Paren: paren, Arguments: arguments}, nil
}

func (p *Parser) finishIndex(array Expression) (Expression, error) {
	bracket := p.previous()

	index, err := p.expression()
	if err != nil {
		hint := "Array index must be a valid expression.\n" +
			"       Example: arr[0] or arr[i + 1]"
		return nil, p.errorAt(bracket, "Invalid array index expression", hint)
	}

	if !p.check(TOKEN_RBRACKET) {
		hint := "Array indexing must be closed with ']'.\n" +
			"       Example: arr[index]"
		return nil, p.errorAt(p.peek(), "Expect ']' after array index", hint)
	}
	closingBracket := p.advance()

	return &IndexGetExpr{Array: array, Index: index, Bracket: closingBracket}, nil
}

func (p *Parser) arrayLiteral() (Expression, error) {
	bracket := p.previous()
	var elements []Expression

	if !p.check(TOKEN_RBRACKET) {
		for {
			if len(elements) >= maxArrayLiteral {
				hint := fmt.Sprintf("Array literals support up to %d elements.\n"+
					"       Consider using a different data structure or initialization method.", maxArrayLiteral)
				return nil, p.errorAt(p.peek(), "Array literal too large", hint)
			}

			elem, err := p.expression()
			if err != nil {
				hint := "Array elements must be valid expressions.\n" +
					"       Example: [1, 2, 3] or [x, y + 1, func()]"
				return nil, p.errorAt(bracket, "Invalid array element expression", hint)
			}
			elements = append(elements, elem)

			if !p.match(TOKEN_COMMA) {
				break
			}

			if p.check(TOKEN_RBRACKET) {
				hint := "Remove the trailing comma before ']'.\n" +
					"       Example: [1, 2, 3] not [1, 2, 3,]"
				return nil, p.errorAt(p.peek(), "Trailing comma in array literal", hint)
			}
		}
	}

	if !p.check(TOKEN_RBRACKET) {
		hint := "Array literals must be closed with ']'.\n" +
			"       Example: [1, 2, 3]"
		return nil, p.errorAt(p.peek(), "Expect ']' after array elements", hint)
	}
	closingBracket := p.advance()

	return &ArrayLiteralExpr{Elements: elements, Bracket: closingBracket}, nil
}

func (p *Parser) dictLiteral() (Expression, error) {
	brace := p.previous()
	var pairs []DictPair

	if !p.check(TOKEN_RBRACE) {
		for {
			if len(pairs) >= maxDictLiteral {
				hint := fmt.Sprintf("Dictionary literals support up to %d key-value pairs.\n"+
					"       Consider using a different data structure or initialization method.", maxDictLiteral)
				return nil, p.errorAt(p.peek(), "Dictionary literal too large", hint)
			}

			key, err := p.expression()
			if err != nil {
				hint := "Dictionary keys must be valid expressions.\n" +
					"       Example: {\"name\": \"John\", \"age\": 30}"
				return nil, p.errorAt(brace, "Invalid dictionary key expression", hint)
			}

			if !p.check(TOKEN_COLON) {
				hint := "Dictionary key-value pairs must be separated by ':'.\n" +
					"       Example: {key: value}"
				return nil, p.errorAt(p.peek(), "Expect ':' after dictionary key", hint)
			}
			p.advance()

			value, err := p.expression()
			if err != nil {
				hint := "Dictionary values must be valid expressions.\n" +
					"       Example: {\"name\": \"John\", \"age\": 30}"
				return nil, p.errorAt(brace, "Invalid dictionary value expression", hint)
			}

			pairs = append(pairs, DictPair{Key: key, Value: value})

			if !p.match(TOKEN_COMMA) {
				break
			}

			if p.check(TOKEN_RBRACE) {
				hint := "Remove the trailing comma before '}'.\n" +
					"       Example: {\"a\": 1, \"b\": 2} not {\"a\": 1, \"b\": 2,}"
				return nil, p.errorAt(p.peek(), "Trailing comma in dictionary literal", hint)
			}
		}
	}

	if !p.check(TOKEN_RBRACE) {
		hint := "Dictionary literals must be closed with '}'.\n" +
			"       Example: {\"key\": \"value\"}"
		return nil, p.errorAt(p.peek(), "Expect '}' after dictionary elements", hint)
	}
	closingBrace := p.advance()

	return &DictLiteralExpr{Pairs: pairs, Brace: closingBrace}, nil
}

// callableKeywords are built-in names that parse as ordinary variable
// references so they can appear in call position.
var callableKeywords = []TokenType{
	TOKEN_LEN, TOKEN_HAS, TOKEN_KEYS, TOKEN_VALUES,
	TOKEN_INPUT, TOKEN_INPUT_NUM,
	TOKEN_READ_FILE, TOKEN_WRITE_FILE, TOKEN_APPEND_FILE, TOKEN_FILE_EXISTS,
	TOKEN_MALLOC, TOKEN_CALLOC, TOKEN_REALLOC, TOKEN_FREE,
	TOKEN_ADDR_OF, TOKEN_DEREF, TOKEN_LLVM_INLINE,
}

func (p *Parser) primary() (Expression, error) {
	if p.match(TOKEN_FALSE) {
		return &LiteralExpr{Value: BoolLiteral(false), Token: p.previous()}, nil
	}
	if p.match(TOKEN_TRUE) {
		return &LiteralExpr{Value: BoolLiteral(true), Token: p.previous()}, nil
	}
	if p.match(TOKEN_NIL) {
		return &LiteralExpr{Value: NilLiteral(), Token: p.previous()}, nil
	}

	if p.match(TOKEN_NUMBER) {
		token := p.previous()
		if token.Literal.Kind != LiteralNumber {
			return nil, p.errorAt(token, "Internal error: NUMBER token without numeric value", "")
		}
		return &LiteralExpr{Value: token.Literal, Token: token}, nil
	}

	if p.match(TOKEN_STRING) {
		token := p.previous()
		if token.Literal.Kind != LiteralString {
			return nil, p.errorAt(token, "Internal error: STRING token without string value", "")
		}
		return &LiteralExpr{Value: token.Literal, Token: token}, nil
	}

	if p.match(TOKEN_IDENTIFIER) {
		return &VariableExpr{Name: p.previous()}, nil
	}

	if p.match(callableKeywords...) {
		return &VariableExpr{Name: p.previous()}, nil
	}

	if p.match(TOKEN_LBRACKET) {
		return p.arrayLiteral()
	}

	if p.match(TOKEN_LBRACE) {
		return p.dictLiteral()
	}

	if p.match(TOKEN_LPAREN) {
		expr, err := p.expression()
		if err != nil {
			hint := "Grouped expressions must contain valid expressions.\n" +
				"       Example: (value + 5)"
			return nil, p.errorAt(p.previous(), "Invalid expression in grouping", hint)
		}

		if !p.check(TOKEN_RPAREN) {
			hint := "Grouped expressions must be closed with ')'.\n" +
				"       Check that all opening '(' have matching closing ')'."
			return nil, p.errorAt(p.peek(), "Expect ')' after expression", hint)
		}
		p.advance()

		return &GroupingExpr{Expression: expr}, nil
	}

	current := p.peek()
	var hint string
	switch {
	case current.Type == TOKEN_SEMICOLON:
		hint = "Unexpected semicolon. Did you forget an expression before ';'?"
	case current.Type == TOKEN_RBRACE:
		hint = "Unexpected '}'. Check for matching '{' or missing expression."
	case current.Type == TOKEN_RPAREN:
		hint = "Unexpected ')'. Check for matching '(' or missing expression."
	case current.Type == TOKEN_PLUS || current.Type == TOKEN_STAR ||
		current.Type == TOKEN_SLASH || current.Type == TOKEN_PERCENT:
		hint = fmt.Sprintf("'%s' requires a left operand.\n"+
			"       Example: value %s 5", current.Lexeme, current.Lexeme)
	case current.Type == TOKEN_EOF:
		hint = "Unexpected end of file. Check for unclosed blocks or incomplete expressions."
	default:
		hint = "This token cannot start an expression.\n" +
			"       Valid expression starters: numbers, strings, identifiers, '(', '[', '{', true, false, nil"
	}

	return nil, p.errorAt(p.peek(), "Expect expression", hint)
}

// synchronize discards tokens until the next statement boundary so parsing
// can resume after an error.
func (p *Parser) synchronize() {
	p.advance()

	for !p.isAtEnd() {
		if p.previous().Type == TOKEN_SEMICOLON {
			return
		}

		switch p.peek().Type {
		case TOKEN_VAR, TOKEN_FUN, TOKEN_IF, TOKEN_WHILE, TOKEN_FOR,
			TOKEN_PRINT, TOKEN_RETURN, TOKEN_SWITCH, TOKEN_BREAK:
			return
		}

		p.advance()
	}
}

func (p *Parser) match(types ...TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) check(t TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == TOKEN_EOF
}

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		return Token{Type: TOKEN_EOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) previous() Token {
	return p.tokens[p.current-1]
}

func (p *Parser) consume(t TokenType, message string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return Token{}, p.errorAt(p.peek(), message, "")
}

func (p *Parser) errorAt(token Token, message, hint string) error {
	return &parseError{diag: Diagnostic{
		Phase:      "PARSER ERROR",
		Message:    message,
		Line:       token.Line,
		Column:     token.Column,
		Hint:       hint,
		SourceLine: sourceLineAt(p.source, token.Line),
		ShowSource: p.source != "",
	}}
}
