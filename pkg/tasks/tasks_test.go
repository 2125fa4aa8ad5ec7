package tasks

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry(0)
	g1, err := r.Register("copy-1")
	require.NoError(t, err)
	defer g1.Release()

	_, err = r.Register("copy-1")
	require.Error(t, err)
}

func TestReleaseRemovesEntry(t *testing.T) {
	r := NewRegistry(0)
	g, err := r.Register("task")
	require.NoError(t, err)
	g.Release()

	_, ok := r.Lookup("task")
	require.False(t, ok)

	// Re-registering after release must succeed.
	g2, err := r.Register("task")
	require.NoError(t, err)
	g2.Release()
}

func TestShutdownSupersedesToken(t *testing.T) {
	r := NewRegistry(0)
	g, err := r.Register("op")
	require.NoError(t, err)
	defer g.Release()

	require.False(t, r.Cancelled(g.Token))
	r.BeginShutdown()
	require.True(t, r.Cancelled(g.Token))
}

func TestTokenCancelIsObservedDirectly(t *testing.T) {
	r := NewRegistry(0)
	g, err := r.Register("op")
	require.NoError(t, err)
	defer g.Release()

	g.Token.Cancel()
	require.True(t, r.Cancelled(g.Token))
	require.False(t, r.ShuttingDown())
}

func TestBackgroundAdmissionCapacity(t *testing.T) {
	r := NewRegistry(2)

	p1, ok := r.TryEnterBackground()
	require.True(t, ok)
	p2, ok := r.TryEnterBackground()
	require.True(t, ok)

	_, ok = r.TryEnterBackground()
	require.False(t, ok, "third admission should be refused at capacity 2")

	p1.Release()
	p3, ok := r.TryEnterBackground()
	require.True(t, ok, "releasing a permit should free a slot")

	p2.Release()
	p3.Release()
}
