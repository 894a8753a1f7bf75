package workflowerrors

import goerrors "github.com/go-errors/errors"

func callstack() string {
	goerr := goerrors.Wrap("panic", 2)
	return string(goerr.Stack())
}
