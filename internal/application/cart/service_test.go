package cart

import (
	"context"
	"testing"
	"time"

	domproduct "github.com/minshop/qrp/internal/domain/product"
	"github.com/minshop/qrp/internal/infrastructure/memory"
	"github.com/stretchr/testify/require"
)

const sid = "session-1"

func newFixture(t *testing.T) (*Service, *memory.ProductRepository) {
	t.Helper()
	products := memory.NewProductRepository()
	sessions := memory.NewSessionStore(time.Minute)
	return NewService(products, sessions), products
}

func seedProduct(t *testing.T, repo *memory.ProductRepository, id, name string, price, qty int) {
	t.Helper()
	p, err := domproduct.New(id, name, price, qty)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
}

func TestAddCreatesAndIncrements(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 5)

	c, err := svc.Add(ctx, sid, "a")
	require.NoError(t, err)
	require.Equal(t, 1, c.Quantity("a"))

	c, err = svc.Add(ctx, sid, "a")
	require.NoError(t, err)
	require.Equal(t, 2, c.Quantity("a"))
}

func TestAddUnknownProduct(t *testing.T) {
	svc, _ := newFixture(t)
	_, err := svc.Add(context.Background(), sid, "ghost")
	require.ErrorIs(t, err, domproduct.ErrNotFound)
}

func TestAddBeyondStockLeavesCartUntouched(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 2)

	_, err := svc.Add(ctx, sid, "a")
	require.NoError(t, err)
	_, err = svc.Add(ctx, sid, "a")
	require.NoError(t, err)

	_, err = svc.Add(ctx, sid, "a")
	require.ErrorIs(t, err, domproduct.ErrInsufficientStock)

	// the rejected increment must not persist
	c, err := svc.Get(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 2, c.Quantity("a"))
}

func TestAddValidatesWholeCart(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 5)
	seedProduct(t, products, "b", "latte", 4000, 1)

	_, err := svc.Add(ctx, sid, "a")
	require.NoError(t, err)
	_, err = svc.Add(ctx, sid, "b")
	require.NoError(t, err)

	// stock of b drops behind the cart's back
	zero := 0
	_, err = products.Update(ctx, "b", domproduct.Patch{Quantity: &zero})
	require.NoError(t, err)

	// adding more of a now fails because b's entry exceeds stock
	_, err = svc.Add(ctx, sid, "a")
	require.ErrorIs(t, err, domproduct.ErrInsufficientStock)

	c, err := svc.Get(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 1, c.Quantity("a"))
	require.Equal(t, 1, c.Quantity("b"))
}

func TestAddThenSubtractRestoresPriorState(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 5)

	_, err := svc.Add(ctx, sid, "a")
	require.NoError(t, err)

	_, err = svc.Add(ctx, sid, "a")
	require.NoError(t, err)
	c, err := svc.Subtract(ctx, sid, "a")
	require.NoError(t, err)
	require.Equal(t, 1, c.Quantity("a"))
}

func TestSubtractRemovesEntryAtZero(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 5)

	_, err := svc.Add(ctx, sid, "a")
	require.NoError(t, err)

	c, err := svc.Subtract(ctx, sid, "a")
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
}

func TestDetailResolvesAndTotals(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 5)
	seedProduct(t, products, "b", "latte", 4000, 5)

	for i := 0; i < 2; i++ {
		_, err := svc.Add(ctx, sid, "a")
		require.NoError(t, err)
	}
	_, err := svc.Add(ctx, sid, "b")
	require.NoError(t, err)

	detail, err := svc.Detail(ctx, sid)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 2)
	require.Equal(t, 2*3000+4000, detail.TotalAmount)
}

func TestDetailDropsStaleEntries(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 5)
	seedProduct(t, products, "b", "latte", 4000, 5)

	_, err := svc.Add(ctx, sid, "a")
	require.NoError(t, err)
	_, err = svc.Add(ctx, sid, "b")
	require.NoError(t, err)

	require.NoError(t, products.Delete(ctx, "b"))

	detail, err := svc.Detail(ctx, sid)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)
	require.Equal(t, "a", detail.Lines[0].Product.ID)

	// the stale entry is gone from the stored cart as well
	c, err := svc.Get(ctx, sid)
	require.NoError(t, err)
	require.Equal(t, 0, c.Quantity("b"))
}

func TestClear(t *testing.T) {
	svc, products := newFixture(t)
	ctx := context.Background()
	seedProduct(t, products, "a", "americano", 3000, 5)

	_, err := svc.Add(ctx, sid, "a")
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, sid))

	c, err := svc.Get(ctx, sid)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())
}
