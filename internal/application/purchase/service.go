package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	domproduct "github.com/minshop/qrp/internal/domain/product"
	dompurchase "github.com/minshop/qrp/internal/domain/purchase"
	"github.com/minshop/qrp/internal/infrastructure/observability"
	"github.com/minshop/qrp/internal/pkg/logging"
	"go.uber.org/zap"
)

type IDGenerator interface {
	NewID() string
}

// Service is the purchase ledger: it commits carts into immutable purchase
// records and processes whole-purchase refunds. Stock moves only through the
// atomic batch adjustment of the product repository, so a multi-item commit
// either lands completely or not at all.
type Service struct {
	products    domproduct.Repository
	purchases   dompurchase.Repository
	idGenerator IDGenerator
	metrics     *observability.Metrics
}

func NewService(
	products domproduct.Repository,
	purchases dompurchase.Repository,
	idGen IDGenerator,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		products:    products,
		purchases:   purchases,
		idGenerator: idGen,
		metrics:     metrics,
	}
}

// OrderLine is one requested purchase position.
type OrderLine struct {
	ProductID string
	Quantity  int
}

// CreatePurchase resolves every line to its product, snapshots the current
// price, and decrements all stocks in one atomic batch. When any line lacks
// stock, no product is mutated and the whole call fails.
func (s *Service) CreatePurchase(ctx context.Context, lines []OrderLine) (_ *dompurchase.Purchase, err error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "purchase_service"))
	start := time.Now()
	defer func() {
		s.metrics.ObserveRequest("purchase.create", outcomeOf(err), time.Since(start).Seconds())
	}()

	if len(lines) == 0 {
		return nil, dompurchase.ErrNoItems
	}

	purchaseID := s.idGenerator.NewID()
	items := make([]dompurchase.Item, 0, len(lines))
	deltas := make([]domproduct.StockDelta, 0, len(lines))

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, dompurchase.ErrInvalidItem
		}
		p, err := s.products.FindByID(ctx, line.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, dompurchase.Item{
			ProductID:  p.ID,
			OrderPrice: p.Price,
			OrderQty:   line.Quantity,
		})
		deltas = append(deltas, domproduct.StockDelta{ProductID: p.ID, Delta: -line.Quantity})
	}

	if err := s.products.AdjustStock(ctx, deltas); err != nil {
		logger.Info("purchase_stock_rejected", zap.Error(err))
		return nil, err
	}

	entity, err := dompurchase.New(purchaseID, items)
	if err != nil {
		s.revert(ctx, deltas)
		return nil, err
	}

	if err := s.purchases.Insert(ctx, entity); err != nil {
		logger.Error("purchase_insert_failed", zap.String("purchase_id", purchaseID), zap.Error(err))
		s.revert(ctx, deltas)
		return nil, fmt.Errorf("purchase: insert: %w", err)
	}

	logger.Info("purchase_created",
		zap.String("purchase_id", entity.ID),
		zap.Int("items", len(entity.Items)),
		zap.Int("total_amount", entity.TotalAmount()),
	)
	return entity, nil
}

// Refund transitions a purchase to REFUNDED exactly once and restores every
// item's stock. Restoring stock is unbounded and never fails for quantity
// reasons.
func (s *Service) Refund(ctx context.Context, purchaseID string) (_ *dompurchase.Purchase, err error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "purchase_service"))
	start := time.Now()
	defer func() {
		s.metrics.ObserveRequest("purchase.refund", outcomeOf(err), time.Since(start).Seconds())
	}()

	entity, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, err
	}

	if err := entity.MarkRefunded(); err != nil {
		return nil, err
	}

	if err := s.purchases.Update(ctx, entity); err != nil {
		if errors.Is(err, dompurchase.ErrAlreadyRefunded) {
			// a concurrent refund won the write; its restock is the only one
			return nil, err
		}
		logger.Error("refund_update_failed", zap.String("purchase_id", purchaseID), zap.Error(err))
		return nil, fmt.Errorf("purchase: update: %w", err)
	}

	deltas := make([]domproduct.StockDelta, 0, len(entity.Items))
	for _, item := range entity.Items {
		deltas = append(deltas, domproduct.StockDelta{ProductID: item.ProductID, Delta: item.OrderQty})
	}
	// Products referenced by purchase items cannot be deleted, so restoring
	// their stock cannot miss.
	if err := s.products.AdjustStock(ctx, deltas); err != nil {
		logger.Error("refund_restock_failed", zap.String("purchase_id", purchaseID), zap.Error(err))
		return nil, fmt.Errorf("purchase: restore stock: %w", err)
	}

	logger.Info("purchase_refunded", zap.String("purchase_id", purchaseID))
	return entity, nil
}

func (s *Service) GetPurchase(ctx context.Context, id string) (*dompurchase.Purchase, error) {
	if id == "" {
		return nil, dompurchase.ErrNotFound
	}
	return s.purchases.FindByID(ctx, id)
}

func (s *Service) ListPurchases(ctx context.Context) ([]*dompurchase.Purchase, error) {
	return s.purchases.FindAll(ctx)
}

func (s *Service) ListPurchasesByDateRange(ctx context.Context, from, to time.Time) ([]*dompurchase.Purchase, error) {
	return s.purchases.FindByDateRange(ctx, from, to)
}

// revert applies the inverse of the given deltas after a post-decrement
// failure.
func (s *Service) revert(ctx context.Context, deltas []domproduct.StockDelta) {
	inverse := make([]domproduct.StockDelta, 0, len(deltas))
	for _, d := range deltas {
		inverse = append(inverse, domproduct.StockDelta{ProductID: d.ProductID, Delta: -d.Delta})
	}
	if err := s.products.AdjustStock(ctx, inverse); err != nil {
		logging.FromContext(ctx).Error("purchase_revert_failed", zap.Error(err))
	}
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
