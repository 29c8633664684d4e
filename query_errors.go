package attrmap

import (
	"errors"
	"fmt"
	"strings"
)

// QueryError captures evaluator metadata alongside the originating error.
type QueryError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *QueryError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("attrmap: %s evaluator %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *QueryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "attrmap:") {
		return err
	}
	return fmt.Errorf("attrmap: %s evaluator: %w", engine, err)
}

func wrapQueryError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}

	var queryErr *QueryError
	if errors.As(err, &queryErr) {
		if queryErr.Engine == "" {
			queryErr.Engine = engine
		}
		if queryErr.Expr == "" {
			queryErr.Expr = expr
		}
		return queryErr
	}

	return &QueryError{
		Engine: engine,
		Expr:   expr,
		Err:    err,
	}
}
