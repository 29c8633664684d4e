package attrmap

import (
	"errors"
	"testing"
)

type capturingEvaluator struct {
	contexts []QueryContext
	result   any
}

func (c *capturingEvaluator) Evaluate(ctx QueryContext, expr string) (any, error) {
	c.contexts = append(c.contexts, ctx)
	return c.result, nil
}

func (c *capturingEvaluator) Compile(expr string, _ ...CompileOption) (CompiledRule, error) {
	return nil, errors.New("not implemented")
}

type mapCache struct {
	entries map[string]any
	sets    int
}

func (c *mapCache) Get(key string) (any, bool) {
	value, ok := c.entries[key]
	return value, ok
}

func (c *mapCache) Set(key string, value any) {
	if c.entries == nil {
		c.entries = map[string]any{}
	}
	c.entries[key] = value
	c.sets++
}

func TestQueryDefaultsToExprEngine(t *testing.T) {
	m := Wrap(map[string]any{
		"num": 1,
		"server": map[string]any{
			"port": 8080,
		},
	})

	result, err := m.Query("num + 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 2 {
		t.Fatalf("expected 2, got %v", result)
	}

	result, err = m.Query("server.port == 8080")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestQueryFlattensNestedWrappers(t *testing.T) {
	merged, err := Merge(Wrap(map[string]any{
		"limits": map[string]any{"daily": 100},
	}), map[string]any{
		"limits": map[string]any{"burst": 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Nested merge output is a *Map; the query snapshot normalizes it.
	result, err := merged.Query("limits.burst")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 10 {
		t.Fatalf("expected 10, got %v", result)
	}
}

func TestQueryWithCustomFunctions(t *testing.T) {
	m := Wrap(map[string]any{"num": 3}, WithCustomFunction("double", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("double takes one argument")
		}
		n, ok := args[0].(int)
		if !ok {
			return nil, errors.New("double takes an int")
		}
		return n * 2, nil
	}))

	result, err := m.Query("double(num)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 6 {
		t.Fatalf("expected 6, got %v", result)
	}
}

func TestQueryContextDefaults(t *testing.T) {
	capture := &capturingEvaluator{}
	m := Wrap(map[string]any{"flag": true}, WithEvaluator(capture))

	if _, err := m.Query("flag"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(capture.contexts) != 1 {
		t.Fatalf("expected one captured context, got %d", len(capture.contexts))
	}
	ctx := capture.contexts[0]
	if ctx.Now == nil || ctx.Now.IsZero() {
		t.Fatalf("expected Query to default Now")
	}
	if ctx.Args == nil || ctx.Metadata == nil {
		t.Fatalf("expected Query to default args and metadata maps")
	}
	if ctx.Snapshot["flag"] != true {
		t.Fatalf("expected snapshot populated from the backing, got %v", ctx.Snapshot)
	}

	override := map[string]any{"flag": false}
	if _, err := m.QueryWith(QueryContext{Snapshot: override}, "flag"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := capture.contexts[1].Snapshot["flag"]; got != false {
		t.Fatalf("expected explicit snapshot to win, got %v", got)
	}
}

func TestQueryLogsEvents(t *testing.T) {
	var events []QueryLogEvent
	m := Wrap(map[string]any{"num": 1}, WithQueryLogger(QueryLoggerFunc(func(event QueryLogEvent) {
		events = append(events, event)
	})))

	if _, err := m.Query("num"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Engine != "expr" || events[0].Expr != "num" || events[0].Err != nil {
		t.Fatalf("unexpected log events: %+v", events)
	}

	if _, err := m.Query("num +"); err == nil {
		t.Fatalf("expected malformed expression to fail")
	}
	if len(events) != 2 || events[1].Err == nil {
		t.Fatalf("expected failed query logged with error, got %+v", events)
	}
}

func TestQueryWrapsEngineErrors(t *testing.T) {
	m := Wrap(map[string]any{"num": 1})

	_, err := m.Query("num +")
	if err == nil {
		t.Fatalf("expected error for malformed expression")
	}
	var queryErr *QueryError
	if !errors.As(err, &queryErr) {
		t.Fatalf("expected *QueryError, got %T: %v", err, err)
	}
	if queryErr.Engine != "expr" || queryErr.Expr != "num +" {
		t.Fatalf("unexpected error metadata: %+v", queryErr)
	}

	if _, err := m.Query(""); err == nil {
		t.Fatalf("expected empty expression to fail")
	}
}

func TestExprEvaluatorUsesProgramCache(t *testing.T) {
	cache := &mapCache{}
	m := Wrap(map[string]any{"num": 2}, WithProgramCache(cache))

	for i := 0; i < 2; i++ {
		result, err := m.Query("num * 2")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result != 4 {
			t.Fatalf("expected 4, got %v", result)
		}
	}
	if cache.sets != 1 {
		t.Fatalf("expected one compiled program cached, got %d", cache.sets)
	}
}

func TestExprCompiledRule(t *testing.T) {
	evaluator := NewExprEvaluator()
	rule, err := evaluator.Compile("num > threshold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := rule.Evaluate(QueryContext{Snapshot: map[string]any{"num": 5, "threshold": 3}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestCELEvaluator(t *testing.T) {
	m := Wrap(map[string]any{"name": "svc", "num": 3}, WithEvaluator(NewCELEvaluator()))

	result, err := m.Query(`name == "svc"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != true {
		t.Fatalf("expected true, got %v", result)
	}
}

func TestJSEvaluatorAvailability(t *testing.T) {
	if jsEvaluatorAvailable() {
		if NewJSEvaluator() == nil {
			t.Fatalf("expected JS evaluator under js_eval tag")
		}
		return
	}
	if NewJSEvaluator() != nil {
		t.Fatalf("expected nil JS evaluator without js_eval tag")
	}
}
