package memory

import (
	"context"
	"testing"

	domain "github.com/minshop/qrp/internal/domain/purchase"
	"github.com/stretchr/testify/require"
)

func seedPurchase(t *testing.T, repo *PurchaseRepository, id string) *domain.Purchase {
	t.Helper()
	p, err := domain.New(id, []domain.Item{{ProductID: "a", OrderPrice: 1000, OrderQty: 2}})
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), p))
	return p
}

func TestUpdateRejectsWriteAfterRefund(t *testing.T) {
	repo := NewPurchaseRepository()
	ctx := context.Background()
	seedPurchase(t, repo, "p1")

	// two actors load the same COMPLETED purchase
	first, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, first.MarkRefunded())
	require.NoError(t, repo.Update(ctx, first))

	// the slower actor still holds a COMPLETED clone; its write must lose
	require.NoError(t, second.MarkRefunded())
	require.ErrorIs(t, repo.Update(ctx, second), domain.ErrAlreadyRefunded)

	stored, err := repo.FindByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, domain.StateRefunded, stored.State)
}

func TestUpdateUnknownPurchase(t *testing.T) {
	repo := NewPurchaseRepository()
	p, err := domain.New("ghost", []domain.Item{{ProductID: "a", OrderPrice: 1000, OrderQty: 1}})
	require.NoError(t, err)
	require.ErrorIs(t, repo.Update(context.Background(), p), domain.ErrNotFound)
}
