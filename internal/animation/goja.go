package animation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
)

// scriptName is the file name the engine reports in stack traces.
const scriptName = "<anonymous>"

// GojaEngine runs scripts on an embedded ECMAScript runtime. Every Compile
// gets a fresh runtime, so nothing leaks between bindings and only the
// language built-ins plus the parameters are reachable.
type GojaEngine struct{}

var _ Engine = GojaEngine{}

// Compile wraps body in a function expression taking params. The opening
// line of the wrapper shifts stack lines by one, which is reported through
// ScriptError.LineOffset. A body that closes the wrapper early is rejected
// before anything runs.
func (GojaEngine) Compile(body string, params []string) (Func, error) {
	src := "(function(" + strings.Join(params, ", ") + ") {\n" + body + "\n})"
	parsed, err := goja.Parse(scriptName, src)
	if err != nil {
		return nil, &ScriptError{Message: err.Error()}
	}
	if !isSingleFunction(parsed, src, len(params)) {
		return nil, &ScriptError{Message: "SyntaxError: unexpected end of function body"}
	}
	prg, err := goja.CompileAST(parsed, false)
	if err != nil {
		return nil, &ScriptError{Message: err.Error()}
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("js", true))
	v, err := vm.RunProgram(prg)
	if err != nil {
		return nil, convertError(err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, &ScriptError{Message: "script body is not a function"}
	}

	return func(args ...any) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("animation: engine panic: %v", r)
			}
		}()
		vals := make([]goja.Value, len(args))
		for i, a := range args {
			vals[i] = vm.ToValue(a)
		}
		if _, err := fn(goja.Undefined(), vals...); err != nil {
			return convertError(err)
		}
		return nil
	}, nil
}

// isSingleFunction reports whether prog is the wrapper alone: one
// expression statement holding a plain function literal that spans the
// whole source between the outer parentheses.
func isSingleFunction(prog *ast.Program, src string, params int) bool {
	if len(prog.Body) != 1 {
		return false
	}
	stmt, ok := prog.Body[0].(*ast.ExpressionStatement)
	if !ok {
		return false
	}
	fn, ok := stmt.Expression.(*ast.FunctionLiteral)
	if !ok || fn.Async || fn.Generator || fn.Name != nil {
		return false
	}
	if fn.ParameterList == nil || len(fn.ParameterList.List) != params || fn.ParameterList.Rest != nil {
		return false
	}
	return fn.Source == src[1:len(src)-1]
}

// convertError sorts engine errors into script faults and host failures.
// Only thrown Error objects are script faults.
func convertError(err error) error {
	var ex *goja.Exception
	if errors.As(err, &ex) {
		obj, ok := ex.Value().(*goja.Object)
		if !ok || obj.ClassName() != "Error" {
			return unexpected(ex.Value())
		}
		msg := ""
		if m := obj.Get("message"); m != nil && !goja.IsUndefined(m) {
			msg = m.String()
		}
		return &ScriptError{Message: msg, Stack: ex.String(), LineOffset: 1}
	}
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		return fmt.Errorf("animation: script interrupted: %w", err)
	}
	return err
}
