package attrmap

import (
	"errors"
	"reflect"
	"testing"
)

func TestAttrSafePredicate(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"foo", true},
		{"Foo_2", true},
		{"a", true},
		{"", false},
		{"_foo", false},
		{"2foo", false},
		{"foo-bar", false},
		{"foo.bar", false},
		{"get", false},
		{"items", false},
		{"keys", false},
		{"values", false},
		{"pop", false},
		{"update", false},
	}
	for _, tc := range cases {
		if got := AttrSafe(tc.name); got != tc.want {
			t.Fatalf("AttrSafe(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAttrWrapsNestedMappings(t *testing.T) {
	m := Wrap(map[string]any{
		"alpha": map[string]any{"beta": "b"},
	})

	value, err := m.Attr("alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nested, ok := value.(*Map)
	if !ok {
		t.Fatalf("expected *Map, got %T", value)
	}
	got, err := nested.Get("beta")
	if err != nil || got != "b" {
		t.Fatalf("expected nested passthrough, got %v (%v)", got, err)
	}

	// The wrapper shares the nested backing; writes flow through.
	nested.Set("gamma", "g")
	raw := m.Raw()["alpha"].(map[string]any)
	if raw["gamma"] != "g" {
		t.Fatalf("expected nested wrapper to share backing")
	}
}

func TestAttrWrapsSequencesElementWise(t *testing.T) {
	m := Wrap(map[string]any{
		"list": []any{
			map[string]any{"value": 1},
			"scalar",
			[]any{map[string]any{"deep": true}},
		},
	})

	value, err := m.Attr("list")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wrapped, ok := value.([]any)
	if !ok {
		t.Fatalf("expected []any, got %T", value)
	}
	if _, ok := wrapped[0].(*Map); !ok {
		t.Fatalf("expected mapping element wrapped, got %T", wrapped[0])
	}
	if wrapped[1] != "scalar" {
		t.Fatalf("expected scalar element unchanged, got %v", wrapped[1])
	}
	inner, ok := wrapped[2].([]any)
	if !ok {
		t.Fatalf("expected nested sequence, got %T", wrapped[2])
	}
	if _, ok := inner[0].(*Map); !ok {
		t.Fatalf("expected nested sequence mappings wrapped, got %T", inner[0])
	}

	// The original sequence must stay untouched.
	original := m.Raw()["list"].([]any)
	if _, ok := original[0].(map[string]any); !ok {
		t.Fatalf("wrapping must not mutate the stored sequence")
	}
}

func TestAttrWithRecursionDisabled(t *testing.T) {
	m := Wrap(map[string]any{
		"alpha": map[string]any{"beta": "b"},
	}, WithRecursion(false))

	value, err := m.Attr("alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := value.(map[string]any); !ok {
		t.Fatalf("expected raw map with recursion disabled, got %T", value)
	}
}

func TestUnsafeNamesNeverReachTheBacking(t *testing.T) {
	m := Wrap(map[string]any{
		"_foo": map[string]any{"hidden": true},
	})

	if _, err := m.Attr("_foo"); !errors.Is(err, ErrAttrNotFound) {
		t.Fatalf("expected ErrAttrNotFound for unsafe name, got %v", err)
	}

	value, err := m.Call("_foo")
	if err != nil {
		t.Fatalf("dynamic accessor must bypass the safety filter: %v", err)
	}
	if _, ok := value.(*Map); !ok {
		t.Fatalf("expected dynamic accessor to wrap, got %T", value)
	}

	if _, err := m.Call("absent"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestAttrFallsBackToBuiltinMembers(t *testing.T) {
	m := Wrap(map[string]any{"foo": "bar", "get": "shadowed"})

	value, err := m.Attr("get")
	if err != nil {
		t.Fatalf("expected builtin fallback, got %v", err)
	}
	get, ok := value.(Function)
	if !ok {
		t.Fatalf("expected bound Function, got %T", value)
	}
	got, err := get("foo")
	if err != nil || got != "bar" {
		t.Fatalf("expected builtin get to read the backing, got %v (%v)", got, err)
	}
	if got, _ := get("missing", "fallback"); got != "fallback" {
		t.Fatalf("expected builtin get fallback, got %v", got)
	}

	// The key named like a reserved member stays reachable by key.
	if raw, _ := m.Get("get"); raw != "shadowed" {
		t.Fatalf("expected reserved-name key readable by key, got %v", raw)
	}

	if _, err := m.Attr("mystery"); !errors.Is(err, ErrAttrNotFound) {
		t.Fatalf("expected ErrAttrNotFound, got %v", err)
	}
}

func TestBuiltinPopAndUpdate(t *testing.T) {
	m := Wrap(map[string]any{"foo": "bar"})

	pop, err := m.Attr("pop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	value, err := pop.(Function)("foo")
	if err != nil || value != "bar" {
		t.Fatalf("expected pop to return the value, got %v (%v)", value, err)
	}
	if m.Has("foo") {
		t.Fatalf("expected pop to remove the key")
	}
	if _, err := pop.(Function)("foo"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound on missing pop, got %v", err)
	}
	if value, _ := pop.(Function)("foo", "dflt"); value != "dflt" {
		t.Fatalf("expected pop fallback, got %v", value)
	}

	update, err := m.Attr("update")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := update.(Function)(map[string]any{"a": 1, "b": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(m.Raw(), map[string]any{"a": 1, "b": 2}) {
		t.Fatalf("unexpected backing after update: %v", m.Raw())
	}
	if _, err := update.(Function)("not a map"); !errors.Is(err, ErrInvalidKind) {
		t.Fatalf("expected ErrInvalidKind, got %v", err)
	}

	keys, err := m.Attr("keys")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := keys.(Function)()
	if err != nil || !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected keys result: %v (%v)", got, err)
	}
}

func TestAttrMutationRoutesThroughKeys(t *testing.T) {
	m := New()

	m.SetAttr("name", "svc")
	if m.Raw()["name"] != "svc" {
		t.Fatalf("expected attribute write to land in backing")
	}

	// Reserved names still write into the backing.
	m.SetAttr("update", 1)
	if m.Raw()["update"] != 1 {
		t.Fatalf("expected reserved-name write to favor the mapping contract")
	}

	if err := m.DeleteAttr("name"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Has("name") {
		t.Fatalf("expected attribute delete to remove the key")
	}
}
