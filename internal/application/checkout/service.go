package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	appcart "github.com/minshop/qrp/internal/application/cart"
	apppurchase "github.com/minshop/qrp/internal/application/purchase"
	domcart "github.com/minshop/qrp/internal/domain/cart"
	domcheckout "github.com/minshop/qrp/internal/domain/checkout"
	dompayment "github.com/minshop/qrp/internal/domain/payment"
	domsession "github.com/minshop/qrp/internal/domain/session"
	"github.com/minshop/qrp/internal/infrastructure/observability"
	"github.com/minshop/qrp/internal/pkg/logging"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// AttrPendingPayment is the session attribute holding the in-flight checkout.
const AttrPendingPayment = "pending_payment"

const (
	opReady   = "checkout.ready"
	opApprove = "checkout.approve"
)

type IDGenerator interface {
	NewID() string
}

// Service drives the two-phase payment handshake: ready() snapshots the cart
// and opens a gateway transaction, approve() closes it and commits the
// snapshot as a purchase. Stock is checked at ready for early feedback and
// re-checked inside the atomic commit, because the external redirect window
// lets stock move.
type Service struct {
	carts    *appcart.Service
	ledger   *apppurchase.Service
	gateway  dompayment.Gateway
	sessions domsession.Store

	idGenerator IDGenerator
	metrics     *observability.Metrics
	tracer      trace.Tracer
}

func NewService(
	carts *appcart.Service,
	ledger *apppurchase.Service,
	gateway dompayment.Gateway,
	sessions domsession.Store,
	idGen IDGenerator,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		carts:       carts,
		ledger:      ledger,
		gateway:     gateway,
		sessions:    sessions,
		idGenerator: idGen,
		metrics:     metrics,
		tracer:      otel.Tracer("checkout"),
	}
}

type ReadyResult struct {
	OrderID     string
	RedirectURL string
}

// Ready computes the cart total and item summary, opens a gateway
// transaction, and stores the resulting pending payment in the session,
// superseding any earlier one. Nothing is reserved: stock is only checked.
func (s *Service) Ready(ctx context.Context, sessionID string) (_ *ReadyResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "checkout_service"),
		zap.String("operation", opReady),
	)

	ctx, span := s.tracer.Start(ctx, "Checkout.Ready")
	start := time.Now()
	defer func() {
		s.finish(span, opReady, start, err)
	}()

	c, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, domcart.ErrEmpty
	}

	detail, err := s.carts.Detail(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(detail.Lines) == 0 {
		return nil, domcart.ErrEmpty
	}

	// Early feedback only; the authoritative check happens again at commit.
	if err = s.carts.Validate(ctx, c); err != nil {
		return nil, err
	}

	orderID := s.idGenerator.NewID()
	chk := domcheckout.New(orderID, c)
	if err = chk.MarkReadyRequested(); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("checkout.order_id", orderID),
		attribute.Int("checkout.total_amount", detail.TotalAmount),
	)

	resp, err := s.gateway.Ready(ctx, dompayment.ReadyRequest{
		OrderID:     orderID,
		UserID:      sessionID,
		ItemName:    itemSummary(detail.Lines),
		Quantity:    c.TotalQuantity(),
		TotalAmount: detail.TotalAmount,
	})
	if err != nil {
		logger.Warn("gateway_ready_failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	if err = chk.MarkReadyConfirmed(resp.TransactionID); err != nil {
		return nil, err
	}

	// The newest ready always wins; an earlier in-flight transaction simply
	// lapses unused at the gateway.
	if err = s.sessions.Set(ctx, sessionID, AttrPendingPayment, chk); err != nil {
		return nil, fmt.Errorf("checkout: store pending payment: %w", err)
	}

	logger.Info("checkout_ready",
		zap.String("order_id", orderID),
		zap.String("transaction_id", resp.TransactionID),
		zap.Int("total_amount", detail.TotalAmount),
	)
	return &ReadyResult{OrderID: orderID, RedirectURL: resp.RedirectURL}, nil
}

// Approve closes the handshake with the caller-supplied token and commits
// the pending snapshot. A gateway failure keeps the pending record for a
// retry; a late stock failure clears it but leaves the cart for the user to
// adjust.
func (s *Service) Approve(ctx context.Context, sessionID, token string) (_ *dompayment.ApproveResponse, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "checkout_service"),
		zap.String("operation", opApprove),
	)

	ctx, span := s.tracer.Start(ctx, "Checkout.Approve")
	start := time.Now()
	defer func() {
		s.finish(span, opApprove, start, err)
	}()

	chk, err := s.pending(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("checkout.order_id", chk.OrderID),
		attribute.String("checkout.transaction_id", chk.TransactionID),
	)

	resp, err := s.gateway.Approve(ctx, dompayment.ApproveRequest{
		TransactionID: chk.TransactionID,
		OrderID:       chk.OrderID,
		UserID:        sessionID,
		Token:         token,
	})
	if err != nil {
		// Pending record stays; no stock was held, nothing to roll back.
		logger.Warn("gateway_approve_failed", zap.String("order_id", chk.OrderID), zap.Error(err))
		return nil, err
	}

	if err = chk.MarkApproved(); err != nil {
		return nil, err
	}

	lines := make([]apppurchase.OrderLine, 0, len(chk.Snapshot))
	for productID, qty := range chk.Snapshot {
		lines = append(lines, apppurchase.OrderLine{ProductID: productID, Quantity: qty})
	}

	committed, err := s.ledger.CreatePurchase(ctx, lines)
	if err != nil {
		// The handshake is spent either way: drop the pending record but
		// keep the cart so the user can adjust quantities.
		_ = chk.MarkFailed()
		if removeErr := s.sessions.Remove(ctx, sessionID, AttrPendingPayment); removeErr != nil {
			logger.Error("pending_payment_clear_failed", zap.Error(removeErr))
		}
		logger.Warn("checkout_commit_rejected", zap.String("order_id", chk.OrderID), zap.Error(err))
		return nil, err
	}

	if err = chk.MarkCommitted(); err != nil {
		return nil, err
	}

	if err = s.carts.Clear(ctx, sessionID); err != nil {
		return nil, err
	}
	if err = s.sessions.Remove(ctx, sessionID, AttrPendingPayment); err != nil {
		return nil, fmt.Errorf("checkout: clear pending payment: %w", err)
	}

	logger.Info("checkout_committed",
		zap.String("order_id", chk.OrderID),
		zap.String("purchase_id", committed.ID),
		zap.String("approval_id", resp.ApprovalID),
	)
	return resp, nil
}

// Cancel abandons the in-flight payment, if any, leaving the cart alone.
func (s *Service) Cancel(ctx context.Context, sessionID string) error {
	chk, err := s.pending(ctx, sessionID)
	if errors.Is(err, domcheckout.ErrNoPendingPayment) {
		return nil
	}
	if err != nil {
		return err
	}

	_ = chk.MarkCancelled()
	if err := s.sessions.Remove(ctx, sessionID, AttrPendingPayment); err != nil {
		return fmt.Errorf("checkout: clear pending payment: %w", err)
	}
	return nil
}

func (s *Service) pending(ctx context.Context, sessionID string) (*domcheckout.Checkout, error) {
	value, err := s.sessions.Get(ctx, sessionID, AttrPendingPayment)
	if errors.Is(err, domsession.ErrAttributeNotFound) {
		return nil, domcheckout.ErrNoPendingPayment
	}
	if err != nil {
		return nil, fmt.Errorf("checkout: load pending payment: %w", err)
	}

	chk, ok := value.(*domcheckout.Checkout)
	if !ok {
		return nil, fmt.Errorf("checkout: unexpected session attribute type %T", value)
	}
	return chk, nil
}

func (s *Service) finish(span trace.Span, operation string, start time.Time, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()

	s.metrics.ObserveRequest(operation, outcomeOf(err), time.Since(start).Seconds())
}

// itemSummary builds the human-readable order title. Cart entries are an
// unordered map with no insertion order to recover, so the summary is made
// deterministic by sorting: the lexicographically first product name, with a
// "+N more" suffix when the cart holds several distinct products.
func itemSummary(lines []appcart.Line) string {
	if len(lines) == 0 {
		return ""
	}

	names := make([]string, 0, len(lines))
	for _, line := range lines {
		names = append(names, line.Product.Name)
	}
	sort.Strings(names)

	if len(names) == 1 {
		return names[0]
	}
	return fmt.Sprintf("%s +%d more", names[0], len(names)-1)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
