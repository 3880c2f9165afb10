// config.go - Optimizer and analyzer configuration
//
// Defaults mirror the most aggressive useful settings; the environment can
// override the interesting knobs without recompiling, which keeps the core
// free of process-wide state while still letting a driver or a test run
// tune a build (BOX_OPT_LEVEL=0 to compare unoptimized output, for
// example).
package box

import (
	"github.com/xyproto/env/v2"
)

// Environment variables recognized by ConfigFromEnv.
const (
	envOptLevel        = "BOX_OPT_LEVEL"
	envInlineThreshold = "BOX_INLINE_THRESHOLD"
	envUnrollThreshold = "BOX_UNROLL_THRESHOLD"
	envStrictMemory    = "BOX_STRICT_MEMORY"
)

// Config bundles the knobs the driver hands to Compile.
type Config struct {
	Optimizer    OptimizerConfig
	StrictMemory bool
}

func DefaultConfig() Config {
	return Config{
		Optimizer:    DefaultOptimizerConfig(),
		StrictMemory: true,
	}
}

// ConfigFromEnv starts from the defaults and applies any environment
// overrides.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.Optimizer = OptimizerConfigFromEnv()
	if env.Has(envStrictMemory) {
		cfg.StrictMemory = env.Bool(envStrictMemory)
	}
	return cfg
}

// DefaultOptimizerConfig enables every pass at the highest level.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		ConstantFolding:                true,
		ConstantPropagation:            true,
		AlgebraicSimplification:        true,
		DeadCodeElimination:            true,
		CommonSubexpressionElimination: true,
		LoopInvariantCodeMotion:        true,
		LoopUnrolling:                  true,
		LoopUnrollThreshold:            32,
		StrengthReduction:              true,
		FunctionInlining:               true,
		InlineThreshold:                10,
		PeepholeOptimization:           true,
		OptimizeLevel:                  3,
	}
}

// OptimizerConfigForLevel maps -O style levels to pass selections:
//
//	0: nothing runs
//	1: folding, propagation, algebraic simplification, DCE, peephole
//	2: adds CSE and strength reduction
//	3: adds loop optimization and function inlining
func OptimizerConfigForLevel(level int) OptimizerConfig {
	cfg := OptimizerConfig{
		LoopUnrollThreshold: 32,
		InlineThreshold:     10,
		OptimizeLevel:       level,
	}
	if level >= 1 {
		cfg.ConstantFolding = true
		cfg.ConstantPropagation = true
		cfg.AlgebraicSimplification = true
		cfg.DeadCodeElimination = true
		cfg.PeepholeOptimization = true
	}
	if level >= 2 {
		cfg.CommonSubexpressionElimination = true
		cfg.StrengthReduction = true
	}
	if level >= 3 {
		cfg.LoopInvariantCodeMotion = true
		cfg.LoopUnrolling = true
		cfg.FunctionInlining = true
	}
	return cfg
}

// OptimizerConfigFromEnv resolves the optimize level and thresholds from
// the environment.
func OptimizerConfigFromEnv() OptimizerConfig {
	cfg := OptimizerConfigForLevel(env.Int(envOptLevel, 3))
	cfg.InlineThreshold = env.Int(envInlineThreshold, cfg.InlineThreshold)
	cfg.LoopUnrollThreshold = env.Int(envUnrollThreshold, cfg.LoopUnrollThreshold)
	return cfg
}
