package dyn

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribedDynamicView(t *testing.T) {
	described := Describe(Z{Value: 1000})

	value, ok := Get[Z](described.Dynamic())
	require.True(t, ok)
	require.Equal(t, 1000, value.Value)

	_, ok = Get[Y](described.Dynamic())
	require.False(t, ok)
}

func TestDescribedViewAliasesData(t *testing.T) {
	described := Describe(Z{Value: 1})

	ptr, ok := Mut[Z](described.Dynamic())
	require.True(t, ok)
	ptr.Value = 6

	require.Equal(t, 6, described.Data.Value)

	value, ok := Get[Z](described.Dynamic())
	require.True(t, ok)
	require.Equal(t, 6, value.Value)
}

func TestDescribedType(t *testing.T) {
	described := Describe(Z{})
	require.Same(t, TypeFor[Z](), described.Type())
}

func TestDescribedZeroValuePanics(t *testing.T) {
	var described Described[Z]

	require.Panics(t, func() {
		described.Dynamic()
	})
}
