package attrmap

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("attrmap: evaluator not configured")

// QueryContext carries the inputs an evaluator sees when running an
// expression: the raw snapshot to bind, an optional timestamp, and
// caller-supplied argument/metadata maps.
type QueryContext struct {
	Snapshot map[string]any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx QueryContext) withDefaultNow() QueryContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx QueryContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx QueryContext) withDefaultMaps() QueryContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

// Evaluator executes read-only expressions against a query context.
type Evaluator interface {
	Evaluate(ctx QueryContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx QueryContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// WithEvaluator configures the evaluator used by Query.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *mapConfig) {
		cfg.evaluator = e
	}
}

// snapshotForQuery flattens the backing for evaluator environments. Nested
// Map values are normalized to plain mappings so engines can traverse them.
func (m *Map) snapshotForQuery() map[string]any {
	return normalizeValue(m.backing).(map[string]any)
}

// Query evaluates expr against the Map's entries using the configured
// evaluator, defaulting to the expr-lang engine. Top-level keys are bound
// as variables; nested mappings are reachable by field traversal.
func (m *Map) Query(expr string) (any, error) {
	return m.QueryWith(QueryContext{}, expr)
}

// QueryWith evaluates expr using ctx, falling back to the Map's entries
// when ctx.Snapshot is nil.
func (m *Map) QueryWith(ctx QueryContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("attrmap: expression must not be empty")
	}
	evaluator, err := m.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = m.snapshotForQuery()
	}
	ctx = ctx.withDefaultNow().withDefaultMaps()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapQueryError(engine, expr, evalErr)
	m.queryLogger().LogQuery(QueryLogEvent{
		Engine:   engine,
		Expr:     expr,
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (m *Map) resolveEvaluator() (Evaluator, error) {
	if m.cfg.evaluator != nil {
		return m.cfg.evaluator, nil
	}
	var exprOpts []ExprEvaluatorOption
	if cache := m.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := m.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	evaluator := NewExprEvaluator(exprOpts...)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	m.cfg.evaluator = evaluator
	return evaluator, nil
}

func (m *Map) queryLogger() QueryLogger {
	if m.cfg.logger != nil {
		return m.cfg.logger
	}
	return noopQueryLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*attrmap.exprEvaluator":
		return "expr"
	case "*attrmap.celEvaluator":
		return "cel"
	case "*attrmap.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
