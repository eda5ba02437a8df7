package product

import "context"

// StockDelta is one line of an atomic stock adjustment. Negative Delta
// removes stock, positive adds it.
type StockDelta struct {
	ProductID string
	Delta     int
}

// Patch is a partial product update. A nil field keeps the current value,
// and a per-field invalid value is ignored the same way.
type Patch struct {
	Name     *string
	Price    *int
	Quantity *int
}

type Repository interface {
	Create(ctx context.Context, p *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	FindByName(ctx context.Context, name string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)

	// Update applies the patch to the stored product in one step, so an
	// unpatched field never clobbers a concurrent stock adjustment. Renaming
	// onto an existing name fails with ErrDuplicateName.
	Update(ctx context.Context, id string, patch Patch) (*Product, error)

	Delete(ctx context.Context, id string) error

	// AdjustStock applies every delta atomically: either all products are
	// adjusted or none is. A delta that would drive a quantity negative fails
	// the whole batch with ErrInsufficientStock; an unknown product fails it
	// with ErrNotFound. Concurrent batches against the same products
	// serialize.
	AdjustStock(ctx context.Context, deltas []StockDelta) error
}
