package dyn

import (
	"cmp"
	"reflect"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypeForIsMemoized(t *testing.T) {
	require.Same(t, TypeFor[X](), TypeFor[X]())
	require.NotSame(t, TypeFor[X](), TypeFor[Y]())
}

func TestTypeForMatchesReflectPath(t *testing.T) {
	require.Same(t, TypeFor[X](), typeOf(reflect.TypeFor[X]()))
}

func TestTypeDescribesTheType(t *testing.T) {
	ty := TypeFor[uint64]()

	require.Equal(t, "uint64", ty.Name)
	require.Equal(t, "uint64", ty.String())
	require.Equal(t, uintptr(8), ty.Size)
	require.Equal(t, reflect.TypeFor[uint64](), ty.Reflect)
	require.NotZero(t, ty.Id)
}

func TestCloseable(t *testing.T) {
	require.True(t, TypeFor[valueResource]().Closeable())
	require.True(t, TypeFor[pointerResource]().Closeable())
	require.False(t, TypeFor[X]().Closeable())
}

func TestConcurrentRegistration(t *testing.T) {
	type first struct{ _ int }
	type second struct{ _ string }

	var wg sync.WaitGroup

	results := make([][2]*Type, 16)

	for idx := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()
			results[idx] = [2]*Type{TypeFor[first](), TypeFor[second]()}
		}()
	}

	wg.Wait()

	// every goroutine must have observed the same descriptor per type
	for _, result := range results {
		require.Same(t, TypeFor[first](), result[0])
		require.Same(t, TypeFor[second](), result[1])
	}
}

func TestTypesSnapshot(t *testing.T) {
	ty := TypeFor[Z]()

	types := Types()
	require.Contains(t, types, ty)

	sorted := slices.IsSortedFunc(types, func(a, b *Type) int {
		return cmp.Compare(a.Id, b.Id)
	})
	require.True(t, sorted)
}

var Blackbox int

func BenchmarkIs(b *testing.B) {
	box := New(X{Value: 1})

	for b.Loop() {
		if Is[X](box) {
			Blackbox += 1
		}
	}
}

func BenchmarkHolds(b *testing.B) {
	box := New(X{Value: 1})
	ty := TypeFor[X]()

	for b.Loop() {
		if box.Holds(ty) {
			Blackbox += 1
		}
	}
}

func BenchmarkGet(b *testing.B) {
	box := New(X{Value: 1})

	for b.Loop() {
		value, _ := Get[X](box)
		Blackbox += value.Value
	}
}
