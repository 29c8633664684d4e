package attrmap

import (
	"fmt"
	"maps"
)

// Merge combines left with right into a new Map. Neither operand is
// mutated. Keys present on only one side carry over unchanged; when both
// sides hold a mapping under the same key the two are merged recursively
// and materialized as a nested *Map; every other conflict resolves to the
// right-hand value. Merge is deliberately non-commutative.
//
// right may be a *Map or a plain map[string]any; anything else fails with
// ErrInvalidKind. The result disables recursive wrapping when either
// operand opted out; plain maps count as recursive-compatible. Evaluator
// and factory configuration carries over from left.
func Merge(left *Map, right any) (*Map, error) {
	if left == nil {
		left = New()
	}
	rightBacking, rightRecursive, err := mergeOperand(right)
	if err != nil {
		return nil, err
	}
	cfg := left.cfg
	cfg.recursive = left.recursive && rightRecursive
	return newMap(mergeBackings(left.backing, rightBacking, cfg), cfg), nil
}

// Add returns Merge(m, other). It backs the accumulate-and-reassign idiom
// (acc, err = acc.Add(other)); no in-place mutating merge exists.
func (m *Map) Add(other any) (*Map, error) {
	return Merge(m, other)
}

func mergeOperand(operand any) (map[string]any, bool, error) {
	switch o := operand.(type) {
	case map[string]any:
		return o, true, nil
	case *Map:
		if o == nil {
			return map[string]any{}, true, nil
		}
		return o.backing, o.recursive, nil
	default:
		return nil, false, fmt.Errorf("%w: %T", ErrInvalidKind, operand)
	}
}

// mergeBackings implements the merge over raw entries. It allocates a fresh
// result map seeded from left, then folds right in key by key.
func mergeBackings(left, right map[string]any, cfg mapConfig) map[string]any {
	merged := make(map[string]any, len(left)+len(right))
	maps.Copy(merged, left)
	for key, rightValue := range right {
		existing, present := merged[key]
		if present {
			leftBacking, leftIsMap := asBacking(existing)
			rightBacking, rightIsMap := asBacking(rightValue)
			if leftIsMap && rightIsMap {
				nested := cfg
				nested.recursive = operandRecursive(existing) && operandRecursive(rightValue)
				merged[key] = newMap(mergeBackings(leftBacking, rightBacking, nested), nested)
				continue
			}
		}
		merged[key] = rightValue
	}
	return merged
}

// asBacking extracts the raw mapping from a plain map or a Map value.
func asBacking(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case *Map:
		if v == nil {
			return nil, false
		}
		return v.backing, true
	default:
		return nil, false
	}
}

// operandRecursive reports the recursion flag a merge operand contributes.
// Plain mappings carry no flag and count as recursive.
func operandRecursive(value any) bool {
	if m, ok := value.(*Map); ok && m != nil {
		return m.recursive
	}
	return true
}

// deepCopy clones nested mappings and []any sequences, sharing scalar
// values. Map wrappers are flattened to plain mappings.
func deepCopy(value any) any {
	switch v := value.(type) {
	case *Map:
		if v == nil {
			return map[string]any{}
		}
		return deepCopy(v.backing)
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, element := range v {
			out[key] = deepCopy(element)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, element := range v {
			out[i] = deepCopy(element)
		}
		return out
	default:
		return value
	}
}

func copySnapshot(snapshot map[string]any) map[string]any {
	if snapshot == nil {
		return nil
	}
	return deepCopy(snapshot).(map[string]any)
}
