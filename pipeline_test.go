package box

import (
	"strings"
	"testing"
)

func TestCompileCleanProgram(t *testing.T) {
	source := "var x = 42; var y = 10; var z = x + y; print z;"
	optimized, result, err := Compile(source, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Safe {
		t.Errorf("expected a safe verdict, got %v", result.Errors)
	}
	foundPrint := false
	for _, stmt := range optimized {
		if _, ok := stmt.(*PrintStmt); ok {
			foundPrint = true
		}
	}
	if !foundPrint {
		t.Errorf("print must survive optimization")
	}
}

func TestCompileLexicalFailure(t *testing.T) {
	_, _, err := Compile(`var s = "\q";`, DefaultConfig())
	if err == nil {
		t.Fatalf("expected a lexical failure")
	}
	list, ok := err.(*DiagnosticList)
	if !ok || list.Noun != "lexical" {
		t.Errorf("expected a bundled lexical error, got %v", err)
	}
}

func TestCompileParseFailure(t *testing.T) {
	_, _, err := Compile("var = 5;", DefaultConfig())
	if err == nil {
		t.Fatalf("expected a parse failure")
	}
	list, ok := err.(*DiagnosticList)
	if !ok || list.Noun != "parsing" {
		t.Errorf("expected a bundled parsing error, got %v", err)
	}
}

func TestCompileUnsafeVerdict(t *testing.T) {
	source := "var x = malloc(100); free(x); free(x);"
	_, result, err := Compile(source, DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Safe {
		t.Errorf("double free should produce an unsafe verdict")
	}
	if !strings.Contains(result.Report(), "MEMORY SAFETY ERRORS") {
		t.Errorf("report should carry the errors section")
	}
}

func TestCompileRelaxedMode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrictMemory = false
	_, result, err := Compile("var x = malloc(100);", cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Safe {
		t.Errorf("relaxed mode downgrades leaks to warnings, got %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Errorf("expected a leak warning")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(envOptLevel, "0")
	t.Setenv(envStrictMemory, "0")

	cfg := ConfigFromEnv()
	if cfg.Optimizer.OptimizeLevel != 0 {
		t.Errorf("got level %d, want 0", cfg.Optimizer.OptimizeLevel)
	}
	if cfg.Optimizer.ConstantFolding {
		t.Errorf("level 0 should disable constant folding")
	}
	if cfg.StrictMemory {
		t.Errorf("BOX_STRICT_MEMORY=0 should relax the analyzer")
	}
}

func TestOptimizerConfigForLevels(t *testing.T) {
	if cfg := OptimizerConfigForLevel(1); cfg.CommonSubexpressionElimination || cfg.FunctionInlining {
		t.Errorf("level 1 should not enable the aggressive passes")
	}
	if cfg := OptimizerConfigForLevel(2); !cfg.StrengthReduction || cfg.FunctionInlining {
		t.Errorf("level 2 should add strength reduction but not inlining")
	}
	if cfg := OptimizerConfigForLevel(3); !cfg.FunctionInlining || !cfg.LoopUnrolling {
		t.Errorf("level 3 should enable everything")
	}
}

func TestThresholdOverridesFromEnv(t *testing.T) {
	t.Setenv(envOptLevel, "3")
	t.Setenv(envInlineThreshold, "25")
	t.Setenv(envUnrollThreshold, "64")

	cfg := OptimizerConfigFromEnv()
	if cfg.InlineThreshold != 25 {
		t.Errorf("got inline threshold %d, want 25", cfg.InlineThreshold)
	}
	if cfg.LoopUnrollThreshold != 64 {
		t.Errorf("got unroll threshold %d, want 64", cfg.LoopUnrollThreshold)
	}
}
