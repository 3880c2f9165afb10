// pipeline.go - Driver-facing compilation phases
//
// The driver owns files, imports, and the linker; this package owns the
// phases in between. They run strictly in order, each consuming the
// complete output of the previous one:
//
//	source --ScanTokens--> tokens --Parse--> AST
//	       --Optimize--> AST' --Analyze--> verdict
//
// A lexical or syntactic failure is a bundled *DiagnosticList error. The
// analyzer never fails the call: its verdict, diagnostics, and rendered
// report travel in the AnalysisResult.
package box

// ScanTokens runs the lexer over a source string.
func ScanTokens(source string) ([]Token, error) {
	return NewLexer(source).ScanTokens()
}

// Analyze runs the memory-safety analyzer. strict selects whether
// findings outside unsafe blocks are hard errors.
func Analyze(statements []Statement, strict bool) *AnalysisResult {
	return NewMemoryAnalyzer(strict).Analyze(statements)
}

// Compile runs the full front-end pipeline. On a lexical or parse
// failure the error carries every accumulated diagnostic and the other
// results are nil. Otherwise the optimized program is returned together
// with the analyzer's verdict; the caller decides whether an unsafe
// verdict fails the build.
func Compile(source string, cfg Config) ([]Statement, *AnalysisResult, error) {
	tokens, err := ScanTokens(source)
	if err != nil {
		return nil, nil, err
	}

	program, err := Parse(tokens, source)
	if err != nil {
		return nil, nil, err
	}

	optimized := Optimize(program, cfg.Optimizer)
	result := Analyze(optimized, cfg.StrictMemory)

	return optimized, result, nil
}
