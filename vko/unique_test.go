package vko

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUniqueDestroyRunsDeleterExactlyOnce(t *testing.T) {
	destroyCount := 0
	handle := NewUnique[int](42, func() { destroyCount++ })

	require.True(t, handle.IsValid())
	require.Equal(t, 42, handle.Handle())

	handle.Destroy()
	require.False(t, handle.IsValid())
	require.Equal(t, 1, destroyCount)

	handle.Destroy()
	require.Equal(t, 1, destroyCount)
}

func TestUniqueZeroValueDestroyIsNoOp(t *testing.T) {
	var handle Unique[int]

	require.False(t, handle.IsValid())
	require.NotPanics(t, handle.Destroy)
}

func TestUniqueReleaseDisownsHandle(t *testing.T) {
	destroyCount := 0
	handle := NewUnique[string]("resource", func() { destroyCount++ })

	released := handle.Release()
	require.Equal(t, "resource", released)
	require.False(t, handle.IsValid())

	handle.Destroy()
	require.Equal(t, 0, destroyCount)
}

func TestNewUniqueRequiresDeleter(t *testing.T) {
	require.PanicsWithValue(t,
		"vko: attempting to create a unique handle without a deleter",
		func() { NewUnique[int](1, nil) },
	)
}
