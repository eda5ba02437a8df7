package cart

import (
	"context"
	"errors"
	"fmt"

	domcart "github.com/minshop/qrp/internal/domain/cart"
	domproduct "github.com/minshop/qrp/internal/domain/product"
	domsession "github.com/minshop/qrp/internal/domain/session"
	"github.com/minshop/qrp/internal/pkg/logging"
	"go.uber.org/zap"
)

// AttrCart is the session attribute the cart lives under.
const AttrCart = "cart"

// Service mutates the session cart while keeping it consistent with current
// stock: no mutation may leave the cart demanding more than the shop holds.
type Service struct {
	products domproduct.Repository
	sessions domsession.Store
}

func NewService(products domproduct.Repository, sessions domsession.Store) *Service {
	return &Service{
		products: products,
		sessions: sessions,
	}
}

// Get returns the session's cart, or an empty one when none is stored yet.
func (s *Service) Get(ctx context.Context, sessionID string) (domcart.Cart, error) {
	value, err := s.sessions.Get(ctx, sessionID, AttrCart)
	if errors.Is(err, domsession.ErrAttributeNotFound) {
		return domcart.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cart: load session: %w", err)
	}

	c, ok := value.(domcart.Cart)
	if !ok {
		return nil, fmt.Errorf("cart: unexpected session attribute type %T", value)
	}
	return c.Clone(), nil
}

// Add increments the product's entry by one, then re-validates the whole
// cart against current stock. A failing validation leaves the stored cart
// exactly as it was.
func (s *Service) Add(ctx context.Context, sessionID, productID string) (domcart.Cart, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "cart_service"))

	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c.Add(productID)
	if err := s.Validate(ctx, c); err != nil {
		logger.Info("cart_add_rejected",
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return nil, err
	}

	if err := s.sessions.Set(ctx, sessionID, AttrCart, c); err != nil {
		return nil, fmt.Errorf("cart: store session: %w", err)
	}
	return c, nil
}

// Subtract decrements the entry by one, removing it when it would hit zero.
func (s *Service) Subtract(ctx context.Context, sessionID, productID string) (domcart.Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c.Subtract(productID)

	if err := s.sessions.Set(ctx, sessionID, AttrCart, c); err != nil {
		return nil, fmt.Errorf("cart: store session: %w", err)
	}
	return c, nil
}

// Remove drops the entry regardless of quantity.
func (s *Service) Remove(ctx context.Context, sessionID, productID string) (domcart.Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	c.Remove(productID)

	if err := s.sessions.Set(ctx, sessionID, AttrCart, c); err != nil {
		return nil, fmt.Errorf("cart: store session: %w", err)
	}
	return c, nil
}

// Clear removes the cart attribute from the session.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.sessions.Remove(ctx, sessionID, AttrCart); err != nil {
		return fmt.Errorf("cart: clear session: %w", err)
	}
	return nil
}

// Line is one cart entry resolved against the current catalog.
type Line struct {
	Product  *domproduct.Product
	Quantity int
	Subtotal int
}

type Detail struct {
	Lines       []Line
	TotalAmount int
}

// Detail resolves every entry to a current product snapshot. Entries whose
// product no longer exists are dropped from the session cart and the
// remaining cart is returned.
func (s *Service) Detail(ctx context.Context, sessionID string) (*Detail, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "cart_service"))

	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	detail := &Detail{Lines: make([]Line, 0, len(c))}
	pruned := false
	for productID, qty := range c {
		p, err := s.products.FindByID(ctx, productID)
		if errors.Is(err, domproduct.ErrNotFound) {
			c.Remove(productID)
			pruned = true
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("cart: resolve product: %w", err)
		}

		line := Line{Product: p, Quantity: qty, Subtotal: p.Price * qty}
		detail.Lines = append(detail.Lines, line)
		detail.TotalAmount += line.Subtotal
	}

	if pruned {
		logger.Info("cart_pruned_stale_entries")
		if err := s.sessions.Set(ctx, sessionID, AttrCart, c); err != nil {
			return nil, fmt.Errorf("cart: store session: %w", err)
		}
	}
	return detail, nil
}

// Validate checks the aggregate demand of the cart against current stock.
func (s *Service) Validate(ctx context.Context, c domcart.Cart) error {
	for productID, qty := range c {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if qty > p.Quantity {
			return fmt.Errorf("%w: %s has %d left", domproduct.ErrInsufficientStock, p.Name, p.Quantity)
		}
	}
	return nil
}
