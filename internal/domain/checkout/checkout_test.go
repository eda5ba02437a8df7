package checkout

import (
	"testing"

	"github.com/minshop/qrp/internal/domain/cart"
	"github.com/stretchr/testify/require"
)

func snapshot() cart.Cart {
	c := cart.New()
	c.Add("p-1")
	return c
}

func TestHappyPath(t *testing.T) {
	chk := New("order-1", snapshot())
	require.Equal(t, StatusEmpty, chk.Status)

	require.NoError(t, chk.MarkReadyRequested())
	require.NoError(t, chk.MarkReadyConfirmed("tid-1"))
	require.Equal(t, "tid-1", chk.TransactionID)
	require.NoError(t, chk.MarkApproved())
	require.NoError(t, chk.MarkCommitted())
	require.Equal(t, StatusCommitted, chk.Status)
}

func TestInvalidTransitions(t *testing.T) {
	chk := New("order-1", snapshot())

	// approve before the ready handshake finished
	require.ErrorIs(t, chk.MarkApproved(), ErrInvalidStateTransition)

	require.NoError(t, chk.MarkReadyRequested())
	require.ErrorIs(t, chk.MarkCommitted(), ErrInvalidStateTransition)
}

func TestFailureReachableBeforeCommit(t *testing.T) {
	states := []func(*Checkout){
		func(*Checkout) {},
		func(c *Checkout) { _ = c.MarkReadyRequested() },
		func(c *Checkout) { _ = c.MarkReadyRequested(); _ = c.MarkReadyConfirmed("tid") },
		func(c *Checkout) {
			_ = c.MarkReadyRequested()
			_ = c.MarkReadyConfirmed("tid")
			_ = c.MarkApproved()
		},
	}

	for _, setup := range states {
		failed := New("order-1", snapshot())
		setup(failed)
		require.NoError(t, failed.MarkFailed())

		cancelled := New("order-1", snapshot())
		setup(cancelled)
		require.NoError(t, cancelled.MarkCancelled())
	}
}

func TestTerminalStates(t *testing.T) {
	chk := New("order-1", snapshot())
	require.NoError(t, chk.MarkReadyRequested())
	require.NoError(t, chk.MarkReadyConfirmed("tid"))
	require.NoError(t, chk.MarkApproved())
	require.NoError(t, chk.MarkCommitted())

	require.ErrorIs(t, chk.MarkFailed(), ErrInvalidStateTransition)
	require.ErrorIs(t, chk.MarkCancelled(), ErrInvalidStateTransition)
}

func TestSnapshotIsDetached(t *testing.T) {
	c := snapshot()
	chk := New("order-1", c)

	c.Add("p-2")
	require.Equal(t, 0, chk.Snapshot.Quantity("p-2"))
}
