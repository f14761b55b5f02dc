package usage

import (
	"fmt"
	"strings"

	"github.com/visioncreator-works/nango/internal/ir"
)

// receiver is the conventional name of the platform handle passed to
// every handler function.
const receiver = "nango"

// asyncPrimitives are the platform methods whose calls must be awaited.
var asyncPrimitives = map[string]bool{
	"batchSave":               true,
	"batchSend":               true,
	"batchDelete":             true,
	"batchUpdate":             true,
	"get":                     true,
	"post":                    true,
	"put":                     true,
	"patch":                   true,
	"delete":                  true,
	"proxy":                   true,
	"getConnection":           true,
	"getMetadata":             true,
	"setMetadata":             true,
	"getFieldMapping":         true,
	"setFieldMapping":         true,
	"getEnvironmentVariables": true,
	"triggerAction":           true,
	"paginate":                true,
}

// batchPrimitives are the persist calls that name the model they write.
var batchPrimitives = map[string]bool{
	"batchSave":   true,
	"batchSend":   true,
	"batchDelete": true,
	"batchUpdate": true,
}

// CallsAreUsedCorrectly reports whether the source file satisfies the
// whole usage contract for an operation of the given kind.
func CallsAreUsedCorrectly(path string, kind ir.OperationKind, expectedModels []string) bool {
	res, err := AnalyzeFile(path, kind, expectedModels)
	if err != nil {
		return false
	}
	return res.OK
}

// AnalyzeFile parses the file and evaluates every usage rule, collecting
// all violations rather than stopping at the first.
func AnalyzeFile(path string, kind ir.OperationKind, expectedModels []string) (*ir.FileUsageResult, error) {
	file, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	violations := Analyze(file, kind, expectedModels)
	return &ir.FileUsageResult{
		Path:       path,
		OK:         len(violations) == 0,
		Violations: violations,
	}, nil
}

// Analyze runs the contract checks over a parsed file.
func Analyze(file *File, kind ir.OperationKind, expectedModels []string) []ir.Violation {
	models := make(map[string]bool, len(expectedModels))
	for _, m := range expectedModels {
		models[m] = true
	}
	a := &analyzer{kind: kind, models: models}
	a.stmts(file.Stmts, scope{})
	return a.violations
}

// scope tracks position during the walk. funcDepth counts enclosing
// functions: the handler body is depth 1, anything deeper is a nested
// function with its own return semantics. inTry is reset on function
// entry because an outer try does not guard an inner function body.
type scope struct {
	funcDepth int
	inTry     bool
}

func (s scope) nested() bool { return s.funcDepth >= 2 }

func (s scope) enterFunc() scope {
	return scope{funcDepth: s.funcDepth + 1}
}

type analyzer struct {
	kind       ir.OperationKind
	models     map[string]bool
	violations []ir.Violation
}

func (a *analyzer) report(rule ir.UsageRule, line int, format string, args ...any) {
	a.violations = append(a.violations, ir.Violation{
		Rule:    rule,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	})
}

func (a *analyzer) stmts(list []Stmt, sc scope) {
	for _, s := range list {
		a.stmt(s, sc)
	}
}

func (a *analyzer) stmt(s Stmt, sc scope) {
	switch v := s.(type) {
	case *BlockStmt:
		a.stmts(v.Stmts, sc)
	case *ExprStmt:
		a.expr(v.X, sc, false)
	case *VarStmt:
		for _, init := range v.Inits {
			a.expr(init, sc, false)
		}
	case *ReturnStmt:
		a.returnStmt(v, sc)
	case *IfStmt:
		a.expr(v.Cond, sc, false)
		a.stmt(v.Then, sc)
		if v.Else != nil {
			a.stmt(v.Else, sc)
		}
	case *TryStmt:
		guarded := sc
		guarded.inTry = true
		a.stmt(v.Body, guarded)
		if v.Catch != nil {
			a.stmt(v.Catch, guarded)
		}
		if v.Finally != nil {
			a.stmt(v.Finally, guarded)
		}
	case *ForStmt:
		// Loop-header expressions are consumed by the loop construct
		// (for await ... of nango.paginate(...) is the canonical case).
		for _, h := range v.Header {
			a.expr(h, sc, true)
		}
		if v.Body != nil {
			a.stmt(v.Body, sc)
		}
	case *ThrowStmt:
		a.expr(v.X, sc, true)
	case *FuncDecl:
		if v.Body != nil {
			a.stmts(v.Body.Stmts, sc.enterFunc())
		}
	}
}

func (a *analyzer) returnStmt(r *ReturnStmt, sc scope) {
	if r.X == nil {
		return
	}
	// A sync persists data through side-effecting calls; returning a
	// value from the handler's top level is a violation. Returning from
	// a nested function leaves the inner scope only, so it is fine, as
	// is `return undefined`.
	if a.kind == ir.KindSync && !sc.nested() && !isUndefined(r.X) {
		a.report(ir.RuleSyncReturnsValue, r.Line, "sync handlers must not return a value; data is persisted with batch calls")
	}
	a.expr(r.X, sc, true)
}

func isUndefined(e Expr) bool {
	ident, ok := e.(*Ident)
	return ok && ident.Name == "undefined"
}

// expr walks an expression. consumed is true when the immediate context
// already takes the expression's value in a tolerated way (awaited,
// returned, or a loop header).
func (a *analyzer) expr(e Expr, sc scope, consumed bool) {
	switch v := e.(type) {
	case *Await:
		a.expr(v.X, sc, true)
	case *Call:
		a.call(v, sc, consumed)
	case *Member:
		a.expr(v.X, sc, consumed)
	case *FuncLit:
		if v.Body != nil {
			a.stmts(v.Body.Stmts, sc.enterFunc())
		}
	case *ObjectLit:
		for _, f := range v.Fields {
			if f.Value != nil {
				a.expr(f.Value, sc, false)
			}
		}
	case *ArrayLit:
		for _, el := range v.Elems {
			a.expr(el, sc, false)
		}
	case *Unary:
		a.expr(v.X, sc, consumed)
	case *Binary:
		a.expr(v.X, sc, false)
		a.expr(v.Y, sc, false)
	case *Cond:
		a.expr(v.Cond, sc, false)
		if v.Then != nil {
			a.expr(v.Then, sc, consumed)
		}
		if v.Else != nil {
			a.expr(v.Else, sc, consumed)
		}
	case *Assign:
		a.expr(v.X, sc, true)
		if v.Y != nil {
			a.expr(v.Y, sc, false)
		}
	case *Index:
		a.expr(v.X, sc, false)
		if v.I != nil {
			a.expr(v.I, sc, false)
		}
	}
}

func (a *analyzer) call(c *Call, sc scope, consumed bool) {
	method, platform := platformMethod(c.Fun)

	if platform && asyncPrimitives[method] && !consumed && !sc.inTry {
		a.report(ir.RuleUnawaitedCall, c.Line, "nango.%s must be awaited", method)
	}

	// retryOn is only meaningful together with retries in the same
	// option object.
	for _, arg := range c.Args {
		if obj, ok := arg.(*ObjectLit); ok {
			if obj.HasKey("retryOn") && !obj.HasKey("retries") {
				a.report(ir.RuleRetryOnWithoutRetries, c.Line, "retryOn requires retries in the same call options")
			}
		}
	}

	if platform && batchPrimitives[method] {
		a.checkModelRefs(c)
	}

	a.expr(c.Fun, sc, true)
	for _, arg := range c.Args {
		a.expr(arg, sc, false)
	}
}

// checkModelRefs validates the model names a persist call references:
// the generic type argument and the model-name string argument.
func (a *analyzer) checkModelRefs(c *Call) {
	for _, targ := range c.TypeArgs {
		name := baseModelName(targ)
		if name != "" && !a.models[name] {
			a.report(ir.RuleUnknownModel, c.Line, "model %q is not declared for this operation", name)
		}
	}
	if len(c.Args) >= 2 {
		if lit, ok := c.Args[1].(*BasicLit); ok && !strings.HasPrefix(lit.Value, "`") {
			if !a.models[lit.Value] {
				a.report(ir.RuleUnknownModel, c.Line, "model %q is not declared for this operation", lit.Value)
			}
		}
	}
}

// baseModelName strips array suffixes and generic arguments from a raw
// type-argument string, returning the leading identifier.
func baseModelName(targ string) string {
	s := strings.TrimSpace(targ)
	for _, sep := range []string{"[", "<", "|", "."} {
		if idx := strings.Index(s, sep); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// platformMethod recognizes a method call on the platform handle.
func platformMethod(fun Expr) (string, bool) {
	member, ok := fun.(*Member)
	if !ok {
		return "", false
	}
	base, ok := member.X.(*Ident)
	if !ok || base.Name != receiver {
		return "", false
	}
	return member.Sel, true
}
