// memory_analyzer.go - Static memory-safety analyzer for the Box language
//
// The analyzer recognizes the allocation primitives by name only
// (malloc/calloc/realloc/free/addr_of/deref) and tracks each resource
// through the {Uninitialized, Allocated, Freed, Invalid, Unknown}
// lattice. Analysis runs in four phases over the same AST:
//
//	A. a scope-, branch-, and function-sensitive syntactic walk that
//	   reports the hard errors (leaks, double free, use-after-free,
//	   invalid free, null/uninitialized dereference),
//	B. control-flow graph construction (cfg.go),
//	C. worklist dataflow propagating the allocation maps to a fixed
//	   point, and
//	D. bounded acyclic path enumeration per function, reporting
//	   still-allocated resources at path ends as potential leaks.
//
// Phase A errors take precedence: B through D only ever add warnings.
// Inside unsafe blocks the analyzer runs relaxed, so everything that
// would be an error downgrades to a warning.
package box

import (
	"fmt"
	"sort"

	"golang.org/x/tools/container/intsets"
)

type MemoryState int

const (
	StateUninitialized MemoryState = iota
	StateAllocated
	StateFreed
	StateInvalid
	StateUnknown
)

func (s MemoryState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAllocated:
		return "allocated"
	case StateFreed:
		return "freed"
	case StateInvalid:
		return "invalid"
	}
	return "unknown"
}

type PointerState int

const (
	PointerNull PointerState = iota
	PointerValid
	PointerDangling
	PointerUnknown
)

func (s PointerState) String() string {
	switch s {
	case PointerNull:
		return "null"
	case PointerValid:
		return "valid"
	case PointerDangling:
		return "dangling"
	}
	return "unknown"
}

// AllocationInfo tracks one heap resource bound to a variable name.
type AllocationInfo struct {
	VarName         string
	AllocationToken Token
	State           MemoryState
	FreedAt         *Token
	SizeExpr        Expression
	IsArray         bool
	RefCount        int
	Aliases         map[string]bool
}

func newAllocationInfo(name string, token Token, state MemoryState, isArray bool) *AllocationInfo {
	return &AllocationInfo{
		VarName:         name,
		AllocationToken: token,
		State:           state,
		IsArray:         isArray,
		Aliases:         make(map[string]bool),
	}
}

// equal compares the fields the dataflow fixed point depends on.
func (a AllocationInfo) equal(b AllocationInfo) bool {
	return a.VarName == b.VarName &&
		a.State == b.State &&
		a.IsArray == b.IsArray &&
		a.RefCount == b.RefCount
}

// PointerInfo tracks a pointer created by addr_of.
type PointerInfo struct {
	VarName          string
	DeclarationToken Token
	PointeeType      string
	State            PointerState
	PointsTo         string
	Level            int
}

// AnalysisResult is the analyzer's verdict for one compilation unit.
type AnalysisResult struct {
	Safe     bool
	Errors   []Diagnostic
	Warnings []string
}

// Report renders the result as the human-readable analyzer report.
func (r *AnalysisResult) Report() string {
	var b []byte

	if len(r.Errors) > 0 {
		b = append(b, "\n=== MEMORY SAFETY ERRORS ===\n"...)
		for _, err := range r.Errors {
			b = append(b, err.Format()...)
			b = append(b, '\n')
		}
	}

	if len(r.Warnings) > 0 {
		b = append(b, "\n=== WARNINGS ===\n"...)
		for _, w := range r.Warnings {
			b = append(b, w...)
			b = append(b, '\n')
		}
	}

	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		b = append(b, "\n=== MEMORY SAFETY CHECK PASSED ===\nNo memory safety issues detected.\n"...)
	}

	return string(b)
}

// MemoryAnalyzer holds the walk state for one analysis. Not reusable:
// create a fresh one per compilation unit.
type MemoryAnalyzer struct {
	allocations  map[string]*AllocationInfo
	pointers     map[string]*PointerInfo
	scopeVars    []map[string]bool
	freedInScope []map[string]bool
	errors       []Diagnostic
	warnings     []string
	strictMode   bool
	warnedAt     map[string]bool
	cfgEpoch     int
}

func NewMemoryAnalyzer(strict bool) *MemoryAnalyzer {
	return &MemoryAnalyzer{
		allocations:  make(map[string]*AllocationInfo),
		pointers:     make(map[string]*PointerInfo),
		scopeVars:    []map[string]bool{make(map[string]bool)},
		freedInScope: []map[string]bool{make(map[string]bool)},
		strictMode:   strict,
		warnedAt:     make(map[string]bool),
	}
}

// AnalyzeMemory runs a strict analysis over the statements.
func AnalyzeMemory(statements []Statement) *AnalysisResult {
	return NewMemoryAnalyzer(true).Analyze(statements)
}

func (a *MemoryAnalyzer) Analyze(statements []Statement) *AnalysisResult {
	for _, stmt := range statements {
		a.analyzeStmt(stmt)
	}

	a.checkMemoryLeaks()

	g, entry, _ := buildCFG(statements)
	a.performDataflow(g, entry)

	return &AnalysisResult{
		Safe:     len(a.errors) == 0,
		Errors:   a.errors,
		Warnings: a.warnings,
	}
}

// report records a hard error, or a downgraded warning in relaxed mode.
func (a *MemoryAnalyzer) report(errType, msg string, token Token, hint string) {
	if a.strictMode {
		a.errors = append(a.errors, Diagnostic{
			Phase:   errType,
			Message: msg,
			Line:    token.Line,
			Column:  token.Column,
			Hint:    hint,
		})
		return
	}
	a.warnings = append(a.warnings, fmt.Sprintf("Warning: %s: %s (line %d)", errType, msg, token.Line))
}

func (a *MemoryAnalyzer) enterScope() {
	a.scopeVars = append(a.scopeVars, make(map[string]bool))
	a.freedInScope = append(a.freedInScope, make(map[string]bool))
}

func (a *MemoryAnalyzer) exitScope() {
	if len(a.scopeVars) <= 1 {
		return
	}

	scope := a.scopeVars[len(a.scopeVars)-1]
	a.scopeVars = a.scopeVars[:len(a.scopeVars)-1]

	freed := a.freedInScope[len(a.freedInScope)-1]
	a.freedInScope = a.freedInScope[:len(a.freedInScope)-1]

	for _, name := range sortedNames(scope) {
		alloc, ok := a.allocations[name]
		if !ok {
			continue
		}
		if alloc.State == StateAllocated && !freed[name] {
			if a.strictMode {
				a.report("MEMORY LEAK",
					"Memory leak: Variable '"+name+"' goes out of scope without being freed",
					alloc.AllocationToken,
					"Add 'free("+name+");' before the end of this scope")
				delete(a.allocations, name)
			} else {
				a.warnings = append(a.warnings, "Potential memory leak: "+name)
			}
		}
	}
}

func (a *MemoryAnalyzer) analyzeStmt(stmt Statement) {
	switch s := stmt.(type) {
	case nil:
	case *VarStmt:
		a.analyzeVarStmt(s)
	case *ExprStmt:
		a.analyzeExpr(s.Expression)
	case *BlockStmt:
		a.enterScope()
		for _, inner := range s.Statements {
			a.analyzeStmt(inner)
		}
		a.exitScope()
	case *IfStmt:
		a.analyzeIfStmt(s)
	case *WhileStmt:
		a.analyzeExpr(s.Condition)
		a.enterScope()
		a.analyzeStmt(s.Body)
		a.exitScope()
	case *FunctionStmt:
		a.analyzeFunctionStmt(s)
	case *ReturnStmt:
		if s.Value != nil {
			a.analyzeExpr(s.Value)
		}
	case *PrintStmt:
		a.analyzeExpr(s.Expression)
	case *SwitchStmt:
		a.analyzeSwitchStmt(s)
	case *UnsafeBlockStmt:
		a.analyzeUnsafeBlock(s)
	}
}

func (a *MemoryAnalyzer) analyzeVarStmt(stmt *VarStmt) {
	varName := stmt.Name.Lexeme
	a.scopeVars[len(a.scopeVars)-1][varName] = true

	if stmt.Initializer == nil {
		return
	}

	a.analyzeExpr(stmt.Initializer)

	call, ok := stmt.Initializer.(*CallExpr)
	if !ok {
		return
	}
	callee, ok := call.Callee.(*VariableExpr)
	if !ok {
		return
	}

	switch funcName := callee.Name.Lexeme; funcName {
	case "malloc", "calloc", "realloc":
		if old, exists := a.allocations[varName]; exists && old.State == StateAllocated {
			a.report("MEMORY LEAK",
				"Memory leak: '"+varName+"' is being reassigned without freeing previous allocation",
				stmt.Name,
				"Free the previous allocation first: free("+varName+");")
		}

		alloc := newAllocationInfo(varName, stmt.Name, StateAllocated, funcName == "calloc")
		if len(call.Arguments) > 0 {
			alloc.SizeExpr = call.Arguments[0]
		}
		a.allocations[varName] = alloc

	case "addr_of":
		if len(call.Arguments) == 0 {
			return
		}
		if argVar, ok := call.Arguments[0].(*VariableExpr); ok {
			target := argVar.Name.Lexeme

			a.pointers[varName] = &PointerInfo{
				VarName:          varName,
				DeclarationToken: stmt.Name,
				PointeeType:      "number",
				State:            PointerValid,
				PointsTo:         target,
				Level:            1,
			}

			if alloc, exists := a.allocations[target]; exists {
				alloc.RefCount++
				alloc.Aliases[varName] = true
			}
		}
	}
}

func (a *MemoryAnalyzer) analyzeExpr(expr Expression) {
	switch e := expr.(type) {
	case nil:
	case *CallExpr:
		a.analyzeCall(e)
	case *VariableExpr:
		a.checkVariableAccess(e)
	case *AssignExpr:
		a.analyzeAssign(e)
	case *BinaryExpr:
		a.analyzeExpr(e.Left)
		a.analyzeExpr(e.Right)
	case *UnaryExpr:
		a.analyzeExpr(e.Right)
	case *GroupingExpr:
		a.analyzeExpr(e.Expression)
	case *LogicalExpr:
		a.analyzeExpr(e.Left)
		a.analyzeExpr(e.Right)
	case *ArrayLiteralExpr:
		for _, elem := range e.Elements {
			a.analyzeExpr(elem)
		}
	case *DictLiteralExpr:
		for _, pair := range e.Pairs {
			a.analyzeExpr(pair.Key)
			a.analyzeExpr(pair.Value)
		}
	case *IndexGetExpr:
		a.analyzeExpr(e.Array)
		a.analyzeExpr(e.Index)
	case *IndexSetExpr:
		a.analyzeExpr(e.Array)
		a.analyzeExpr(e.Index)
		a.analyzeExpr(e.Value)
	}
}

func (a *MemoryAnalyzer) analyzeCall(expr *CallExpr) {
	callee, ok := expr.Callee.(*VariableExpr)
	if !ok {
		for _, arg := range expr.Arguments {
			a.analyzeExpr(arg)
		}
		return
	}

	switch funcName := callee.Name.Lexeme; funcName {
	case "free":
		if len(expr.Arguments) != 1 {
			a.report("MEMORY SAFETY ERROR",
				fmt.Sprintf("free() expects exactly 1 argument, got %d", len(expr.Arguments)),
				expr.Paren,
				"Usage: free(pointer);")
			return
		}

		argVar, ok := expr.Arguments[0].(*VariableExpr)
		if !ok {
			return
		}
		varName := argVar.Name.Lexeme

		alloc, exists := a.allocations[varName]
		if !exists {
			a.report("INVALID FREE",
				"Attempting to free non-allocated memory: '"+varName+"'",
				argVar.Name,
				"Only pointers returned by malloc/calloc/realloc can be freed")
			return
		}

		if alloc.State == StateFreed {
			hint := "Previously freed"
			if alloc.FreedAt != nil {
				hint = fmt.Sprintf("Previously freed at line %d", alloc.FreedAt.Line)
			}
			a.report("DOUBLE-FREE",
				"Double-free detected: '"+varName+"' has already been freed",
				argVar.Name,
				hint)
			return
		}

		if alloc.State != StateAllocated {
			a.report("MEMORY SAFETY ERROR",
				"Attempting to free memory in invalid state: '"+varName+"'",
				argVar.Name,
				"Current state: "+alloc.State.String())
			return
		}

		freedTok := argVar.Name
		alloc.State = StateFreed
		alloc.FreedAt = &freedTok
		a.freedInScope[len(a.freedInScope)-1][varName] = true
		a.updatePointerStatesOnFree(varName)

	case "deref":
		if len(expr.Arguments) != 1 {
			a.report("MEMORY SAFETY ERROR",
				fmt.Sprintf("deref() expects exactly 1 argument, got %d", len(expr.Arguments)),
				expr.Paren,
				"Usage: deref(pointer);")
			return
		}

		argVar, ok := expr.Arguments[0].(*VariableExpr)
		if !ok {
			return
		}
		varName := argVar.Name.Lexeme

		if alloc, exists := a.allocations[varName]; exists {
			if alloc.State == StateFreed {
				hint := "Pointer was freed"
				if alloc.FreedAt != nil {
					hint = fmt.Sprintf("Pointer was freed at line %d", alloc.FreedAt.Line)
				}
				a.report("USE-AFTER-FREE",
					"Use-after-free: Dereferencing freed pointer '"+varName+"'",
					argVar.Name,
					hint)
				return
			}
			if alloc.State == StateUninitialized {
				a.report("UNINITIALIZED POINTER DEREFERENCE",
					"Dereferencing uninitialized pointer '"+varName+"'",
					argVar.Name,
					"Initialize the pointer before dereferencing")
				return
			}
		}

		if ptr, exists := a.pointers[varName]; exists {
			if ptr.State == PointerDangling {
				a.report("USE-AFTER-FREE",
					"Use-after-free: Dereferencing dangling pointer '"+varName+"'",
					argVar.Name,
					"The memory this pointer refers to has been freed")
				return
			}
			if ptr.State == PointerNull {
				a.report("NULL POINTER DEREFERENCE",
					"Null pointer dereference: '"+varName+"' is null",
					argVar.Name,
					"Check if pointer is null before dereferencing")
				return
			}
		}

	case "malloc", "calloc", "realloc", "addr_of":
		// arguments are sizes or address targets, not accesses

	default:
		for _, arg := range expr.Arguments {
			a.analyzeExpr(arg)
		}
	}
}

func (a *MemoryAnalyzer) analyzeAssign(expr *AssignExpr) {
	varName := expr.Name.Lexeme

	if alloc, exists := a.allocations[varName]; exists && alloc.State == StateAllocated {
		if call, ok := expr.Value.(*CallExpr); ok {
			if callee, ok := call.Callee.(*VariableExpr); ok {
				switch callee.Name.Lexeme {
				case "malloc", "calloc", "realloc":
					a.report("MEMORY LEAK",
						"Memory leak: Reassigning '"+varName+"' without freeing previous allocation",
						expr.Name,
						"Free the previous allocation first: free("+varName+");")
				}
			}
		}
	}

	a.analyzeExpr(expr.Value)
}

func (a *MemoryAnalyzer) checkVariableAccess(expr *VariableExpr) {
	varName := expr.Name.Lexeme

	if alloc, exists := a.allocations[varName]; exists && alloc.State == StateFreed {
		hint := "Memory was freed"
		if alloc.FreedAt != nil {
			hint = fmt.Sprintf("Memory was freed at line %d", alloc.FreedAt.Line)
		}
		a.report("USE-AFTER-FREE",
			"Use-after-free: Accessing freed memory '"+varName+"'",
			expr.Name,
			hint)
		return
	}

	if ptr, exists := a.pointers[varName]; exists && ptr.State == PointerDangling {
		a.warnings = append(a.warnings,
			fmt.Sprintf("Warning: Accessing dangling pointer '%s' at line %d", varName, expr.Name.Line))
	}
}

// analyzeIfStmt is the branch-sensitive part of the walk. A resource
// freed along only one arm is not freed after the join: its state reverts
// to Allocated on the outgoing edge. Freed along both arms stays freed.
func (a *MemoryAnalyzer) analyzeIfStmt(stmt *IfStmt) {
	a.analyzeExpr(stmt.Condition)

	snapshot := copyAllocations(a.allocations)

	a.analyzeStmt(stmt.ThenBranch)
	thenFreed := freedSince(snapshot, a.allocations)

	if stmt.ElseBranch == nil {
		// the implicit else frees nothing
		for name := range thenFreed {
			a.revertToAllocated(name)
		}
		return
	}

	a.allocations = copyAllocations(snapshot)
	a.analyzeStmt(stmt.ElseBranch)
	elseFreed := freedSince(snapshot, a.allocations)

	for name := range elseFreed {
		if !thenFreed[name] {
			a.revertToAllocated(name)
		}
	}
	for name := range thenFreed {
		if !elseFreed[name] {
			a.revertToAllocated(name)
			continue
		}
		// freed on both arms: freed after the join
		if alloc, ok := a.allocations[name]; ok {
			alloc.State = StateFreed
		}
		a.freedInScope[len(a.freedInScope)-1][name] = true
	}
}

// revertToAllocated undoes a one-sided free at a branch join.
func (a *MemoryAnalyzer) revertToAllocated(name string) {
	if alloc, ok := a.allocations[name]; ok && alloc.State == StateFreed {
		alloc.State = StateAllocated
		alloc.FreedAt = nil
	}
	delete(a.freedInScope[len(a.freedInScope)-1], name)
}

// analyzeSwitchStmt treats the cases as parallel branches from a shared
// entry snapshot; the default clause also starts from the entry state.
func (a *MemoryAnalyzer) analyzeSwitchStmt(stmt *SwitchStmt) {
	a.analyzeExpr(stmt.Condition)

	for _, c := range stmt.Cases {
		a.analyzeExpr(c.Value)

		snapshot := copyAllocations(a.allocations)
		for _, caseStmt := range c.Statements {
			a.analyzeStmt(caseStmt)
		}
		a.allocations = snapshot
	}

	for _, defaultStmt := range stmt.Default {
		a.analyzeStmt(defaultStmt)
	}
}

// analyzeFunctionStmt isolates the body: it starts from empty allocation
// and pointer maps, and anything still allocated at function exit is a
// leak local to the function. Caller state is untouched.
func (a *MemoryAnalyzer) analyzeFunctionStmt(stmt *FunctionStmt) {
	oldAllocations := a.allocations
	oldPointers := a.pointers

	a.allocations = make(map[string]*AllocationInfo)
	a.pointers = make(map[string]*PointerInfo)
	a.enterScope()

	for _, s := range stmt.Body {
		a.analyzeStmt(s)
	}

	a.checkFunctionMemoryLeaks(stmt.Name)
	a.analyzeFunctionPaths(stmt)

	a.exitScope()
	a.allocations = oldAllocations
	a.pointers = oldPointers
}

func (a *MemoryAnalyzer) analyzeUnsafeBlock(stmt *UnsafeBlockStmt) {
	oldStrict := a.strictMode
	a.strictMode = false

	for _, s := range stmt.Statements {
		a.analyzeStmt(s)
	}

	a.strictMode = oldStrict
}

func (a *MemoryAnalyzer) checkFunctionMemoryLeaks(funcName Token) {
	for _, name := range sortedAllocationNames(a.allocations) {
		alloc := a.allocations[name]
		if alloc.State != StateAllocated {
			continue
		}
		if a.strictMode {
			a.report("MEMORY LEAK",
				"Memory leak in function '"+funcName.Lexeme+"': Variable '"+name+"' is not freed before return",
				alloc.AllocationToken,
				"Add 'free("+name+");' before all return statements")
			delete(a.allocations, name)
		}
	}
}

func (a *MemoryAnalyzer) checkMemoryLeaks() {
	for _, name := range sortedAllocationNames(a.allocations) {
		alloc := a.allocations[name]
		if alloc.State != StateAllocated {
			continue
		}
		if a.strictMode {
			a.report("MEMORY LEAK",
				"Memory leak: Variable '"+name+"' is never freed",
				alloc.AllocationToken,
				"Add 'free("+name+");' before program exit")
			delete(a.allocations, name)
		} else {
			a.warnings = append(a.warnings,
				"Warning: Potential memory leak - '"+name+"' may not be freed")
		}
	}
}

func (a *MemoryAnalyzer) updatePointerStatesOnFree(varName string) {
	alloc, ok := a.allocations[varName]
	if !ok {
		return
	}
	for alias := range alloc.Aliases {
		if ptr, exists := a.pointers[alias]; exists {
			ptr.State = PointerDangling
		}
	}
}

// ---------------------------------------------------------------------------
// Phase B/C: worklist dataflow over the CFG

func (a *MemoryAnalyzer) performDataflow(g *controlFlowGraph, entry int) {
	// node ids restart per graph; the epoch keeps dedup keys distinct
	a.cfgEpoch++
	worklist := []int{entry}
	var inWorklist, processed intsets.Sparse
	inWorklist.Insert(entry)

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		inWorklist.Remove(id)

		node := g.node(id)
		oldOut := node.AllocationsOut
		firstVisit := !processed.Has(id)
		processed.Insert(id)

		a.propagateAllocations(g, node)
		a.detectMemoryAccessPatterns(node)

		if firstVisit || !allocationMapsEqual(node.AllocationsOut, oldOut) {
			for _, succ := range node.Succs {
				if !inWorklist.Has(succ) {
					worklist = append(worklist, succ)
					inWorklist.Insert(succ)
				}
			}
		}
	}
}

// propagateAllocations joins the predecessors' out-maps into the node's
// in-map and applies the transfer function. The join is a key union; for
// a key shared with differing states the result is conservatively
// Allocated (a partial free across branches), with a warning.
func (a *MemoryAnalyzer) propagateAllocations(g *controlFlowGraph, node *ControlFlowNode) {
	in := make(map[string]AllocationInfo)
	conflicts := make(map[string]bool)

	for _, pred := range node.Preds {
		for name, alloc := range g.node(pred).AllocationsOut {
			existing, seen := in[name]
			if !seen {
				in[name] = alloc
				continue
			}
			if existing.State != alloc.State {
				merged := existing
				merged.State = StateAllocated
				in[name] = merged
				conflicts[name] = true
			}
		}
	}

	for _, name := range sortedNames(conflicts) {
		key := fmt.Sprintf("partial:%s@%d.%d", name, a.cfgEpoch, node.ID)
		if !a.warnedAt[key] {
			a.warnedAt[key] = true
			a.warnings = append(a.warnings,
				fmt.Sprintf("Ambiguous partial free of '%s' across merging branches", name))
		}
	}

	node.AllocationsIn = in

	out := make(map[string]AllocationInfo, len(in))
	for name, alloc := range in {
		out[name] = alloc
	}

	switch s := node.Stmt.(type) {
	case *VarStmt:
		if s.Initializer != nil {
			if call, ok := s.Initializer.(*CallExpr); ok {
				if callee, ok := call.Callee.(*VariableExpr); ok {
					switch callee.Name.Lexeme {
					case "malloc", "calloc", "realloc":
						out[s.Name.Lexeme] = AllocationInfo{
							VarName:         s.Name.Lexeme,
							AllocationToken: s.Name,
							State:           StateAllocated,
							IsArray:         callee.Name.Lexeme == "calloc",
						}
					}
				}
			}
		}
	case *ExprStmt:
		if call, ok := s.Expression.(*CallExpr); ok {
			if callee, ok := call.Callee.(*VariableExpr); ok {
				if callee.Name.Lexeme == "free" && len(call.Arguments) > 0 {
					if arg, ok := call.Arguments[0].(*VariableExpr); ok {
						if alloc, present := out[arg.Name.Lexeme]; present {
							alloc.State = StateFreed
							out[arg.Name.Lexeme] = alloc
							node.FreedHere[arg.Name.Lexeme] = true
						}
					}
				}
			}
		}
	}

	node.AllocationsOut = out
}

// detectMemoryAccessPatterns flags reads of variables whose incoming
// dataflow state is Freed. These are CFG-level findings, so they surface
// as warnings rather than hard errors.
func (a *MemoryAnalyzer) detectMemoryAccessPatterns(node *ControlFlowNode) {
	if node.Stmt == nil {
		return
	}

	deps := make(map[string]bool)
	switch s := node.Stmt.(type) {
	case *ExprStmt:
		collectMemoryDependencies(s.Expression, deps)
	case *PrintStmt:
		collectMemoryDependencies(s.Expression, deps)
	case *IfStmt:
		collectMemoryDependencies(s.Condition, deps)
	case *WhileStmt:
		collectMemoryDependencies(s.Condition, deps)
	case *ReturnStmt:
		collectMemoryDependencies(s.Value, deps)
	}

	for _, name := range sortedNames(deps) {
		if alloc, ok := node.AllocationsIn[name]; ok && alloc.State == StateFreed {
			key := fmt.Sprintf("uaf:%s@%d.%d", name, a.cfgEpoch, node.ID)
			if !a.warnedAt[key] {
				a.warnedAt[key] = true
				a.warnings = append(a.warnings,
					fmt.Sprintf("Potential use-after-free of '%s' in CFG node %d", name, node.ID))
			}
		}
	}
}

func collectMemoryDependencies(expr Expression, deps map[string]bool) {
	switch e := expr.(type) {
	case nil:
	case *VariableExpr:
		deps[e.Name.Lexeme] = true
	case *BinaryExpr:
		collectMemoryDependencies(e.Left, deps)
		collectMemoryDependencies(e.Right, deps)
	case *UnaryExpr:
		collectMemoryDependencies(e.Right, deps)
	case *LogicalExpr:
		collectMemoryDependencies(e.Left, deps)
		collectMemoryDependencies(e.Right, deps)
	case *CallExpr:
		for _, arg := range e.Arguments {
			collectMemoryDependencies(arg, deps)
		}
	case *GroupingExpr:
		collectMemoryDependencies(e.Expression, deps)
	case *IndexGetExpr:
		collectMemoryDependencies(e.Array, deps)
		collectMemoryDependencies(e.Index, deps)
	case *IndexSetExpr:
		collectMemoryDependencies(e.Array, deps)
		collectMemoryDependencies(e.Index, deps)
		collectMemoryDependencies(e.Value, deps)
	}
}

// ---------------------------------------------------------------------------
// Phase D: bounded path enumeration per function

// analyzeFunctionPaths builds the function's own CFG, runs the dataflow
// over it, and walks every bounded acyclic path from entry to exit. A
// resource still allocated where a path ends is a potential leak on that
// path.
func (a *MemoryAnalyzer) analyzeFunctionPaths(fn *FunctionStmt) {
	g, entry, exit := buildFunctionCFG(fn.Body)
	a.performDataflow(g, entry)

	paths := g.enumeratePaths(entry, exit)
	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		final := g.node(path[len(path)-1]).AllocationsOut
		names := make([]string, 0, len(final))
		for name := range final {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if final[name].State == StateAllocated {
				a.warnings = append(a.warnings,
					"Path-sensitive analysis: Potential leak of '"+name+"' along execution path")
			}
		}
	}
}

// ---------------------------------------------------------------------------
// small helpers

func copyAllocations(m map[string]*AllocationInfo) map[string]*AllocationInfo {
	out := make(map[string]*AllocationInfo, len(m))
	for name, alloc := range m {
		dup := *alloc
		dup.Aliases = make(map[string]bool, len(alloc.Aliases))
		for alias := range alloc.Aliases {
			dup.Aliases[alias] = true
		}
		out[name] = &dup
	}
	return out
}

// freedSince reports the names whose state went Allocated -> Freed
// between the snapshot and the current map.
func freedSince(snapshot, current map[string]*AllocationInfo) map[string]bool {
	freed := make(map[string]bool)
	for name, alloc := range current {
		if alloc.State != StateFreed {
			continue
		}
		if old, ok := snapshot[name]; ok && old.State == StateAllocated {
			freed[name] = true
		}
	}
	return freed
}

func allocationMapsEqual(a, b map[string]AllocationInfo) bool {
	if len(a) != len(b) {
		return false
	}
	for name, alloc := range a {
		other, ok := b[name]
		if !ok || !alloc.equal(other) {
			return false
		}
	}
	return true
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedAllocationNames(m map[string]*AllocationInfo) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
