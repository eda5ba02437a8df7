package purchase

import (
	"context"
	"time"
)

type Repository interface {
	Insert(ctx context.Context, p *Purchase) error
	FindByID(ctx context.Context, id string) (*Purchase, error)
	FindAll(ctx context.Context) ([]*Purchase, error)
	FindByDateRange(ctx context.Context, from, to time.Time) ([]*Purchase, error)

	// Update persists the purchase. A stored REFUNDED purchase is immutable;
	// writing over it fails with ErrAlreadyRefunded, even when the caller read
	// the record before the refund landed.
	Update(ctx context.Context, p *Purchase) error

	// ExistsByProductID reports whether any purchase item references the
	// product. Used to block product deletion.
	ExistsByProductID(ctx context.Context, productID string) (bool, error)
}
