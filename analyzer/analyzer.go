package analyzer

import (
	"go/ast"
	"go/types"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer checks workflow functions for common sources of non-determinism.
// Workflow code has to produce the same commands on every replay, so wall
// clock reads, random numbers, direct goroutines, and map iteration are all
// flagged.
var Analyzer = &analysis.Analyzer{
	Name:     "everflow",
	Doc:      "Checks for common errors when writing workflows",
	Run:      run,
	Requires: []*analysis.Analyzer{inspect.Analyzer},
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspector := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{(*ast.FuncDecl)(nil)}

	inspector.Preorder(nodeFilter, func(node ast.Node) {
		funcDecl := node.(*ast.FuncDecl)

		if !isWorkflow(funcDecl) {
			return
		}

		// Check return types
		if funcDecl.Type.Results == nil || len(funcDecl.Type.Results.List) == 0 {
			pass.Reportf(funcDecl.Pos(), "workflow %q doesn't return anything. needs to return at least `error`", funcDecl.Name.Name)
		} else {
			if len(funcDecl.Type.Results.List) > 2 {
				pass.Reportf(funcDecl.Pos(), "workflow %q returns more than two values", funcDecl.Name.Name)
				return
			}

			lastResult := funcDecl.Type.Results.List[len(funcDecl.Type.Results.List)-1]
			if types.ExprString(lastResult.Type) != "error" {
				pass.Reportf(funcDecl.Pos(), "workflow %q doesn't return `error` as last return value", funcDecl.Name.Name)
			}
		}

		checkBody(pass, funcDecl.Body)
	})

	return nil, nil
}

func checkBody(pass *analysis.Pass, body *ast.BlockStmt) {
	ast.Inspect(body, func(node ast.Node) bool {
		switch node := node.(type) {
		// Check for map iterations
		case *ast.RangeStmt:
			t := pass.TypesInfo.TypeOf(node.X)
			if t == nil {
				return true
			}

			if _, ok := t.Underlying().(*types.Map); !ok {
				return true
			}

			pass.Reportf(node.Pos(), "iterating over a map is not deterministic and not allowed in workflows")

		// Check for `go` statements
		case *ast.GoStmt:
			pass.Reportf(node.Pos(), "use workflow.Go instead of `go` in workflows")

		// Check for non-deterministic calls
		case *ast.CallExpr:
			pkg, name, ok := selector(node.Fun)
			if !ok {
				return true
			}

			switch {
			case pkg == "time" && (name == "Now" || name == "Since" || name == "Until"):
				pass.Reportf(node.Pos(), "time.%s is not deterministic, use workflow.Now instead", name)

			case pkg == "time" && name == "Sleep":
				pass.Reportf(node.Pos(), "time.Sleep is not deterministic, use workflow.Sleep instead")

			case pkg == "rand":
				pass.Reportf(node.Pos(), "rand.%s is not deterministic, use a side effect to capture random values", name)
			}
		}

		return true
	})
}

func selector(expr ast.Expr) (pkg, name string, ok bool) {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return "", "", false
	}

	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return "", "", false
	}

	return x.Name, sel.Sel.Name, true
}

func isWorkflow(funcDecl *ast.FuncDecl) bool {
	params := funcDecl.Type.Params.List

	// Need at least workflow.Context
	if len(params) < 1 {
		return false
	}

	firstParam, ok := params[0].Type.(*ast.SelectorExpr)
	if !ok {
		return false
	}

	xname, ok := firstParam.X.(*ast.Ident)
	if !ok {
		return false
	}

	selname := firstParam.Sel.Name
	if xname.Name+"."+selname != "workflow.Context" {
		return false
	}

	return true
}
