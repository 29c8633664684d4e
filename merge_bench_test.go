package attrmap

import (
	"fmt"
	"testing"
)

func BenchmarkMergeNested(b *testing.B) {
	left := map[string]any{}
	right := map[string]any{}
	for i := 0; i < 50; i++ {
		key := fmt.Sprintf("key_%d", i)
		left[key] = map[string]any{"shared": i, "left": true}
		right[key] = map[string]any{"shared": i + 1, "right": true}
	}
	wrapped := Wrap(left)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Merge(wrapped, right); err != nil {
			b.Fatalf("merge: %v", err)
		}
	}
}

func BenchmarkResolveWithTrace(b *testing.B) {
	layers := make([]Layer, 10)
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("layer_%d", i)
		layers[i] = NewLayer(NewScope(name, 100-i), map[string]any{
			"labels": map[string]any{"env": name},
			"limits": map[string]any{
				"daily":  100 - i,
				"weekly": 700 - (i * 10),
			},
		})
	}
	stack, err := NewStack(layers...)
	if err != nil {
		b.Fatalf("stack: %v", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		b.Fatalf("merge: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := merged.ResolveWithTrace("limits.weekly"); err != nil {
			b.Fatalf("resolve: %v", err)
		}
	}
}
