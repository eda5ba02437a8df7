package checkout

import (
	"errors"
	"time"

	"github.com/minshop/qrp/internal/domain/cart"
)

var (
	ErrNoPendingPayment       = errors.New("checkout: no pending payment in session")
	ErrInvalidStateTransition = errors.New("checkout: invalid state transition")
)

type Status string

const (
	StatusEmpty          Status = "empty"
	StatusReadyRequested Status = "ready_requested"
	StatusReadyConfirmed Status = "ready_confirmed"
	StatusApproved       Status = "approved"
	StatusCommitted      Status = "committed"
	StatusFailed         Status = "failed"
	StatusCancelled      Status = "cancelled"
)

// Checkout tracks one payment handshake for a session. After a confirmed
// ready call it doubles as the session's pending-payment record: the gateway
// transaction id, the order correlation id, and the cart snapshot taken at
// ready time. Only one checkout is in flight per session; a later ready call
// supersedes it.
type Checkout struct {
	OrderID       string
	TransactionID string
	Snapshot      cart.Cart
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(orderID string, snapshot cart.Cart) *Checkout {
	now := time.Now().UTC()
	return &Checkout{
		OrderID:   orderID,
		Snapshot:  snapshot.Clone(),
		Status:    StatusEmpty,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var transitions = map[Status][]Status{
	StatusEmpty:          {StatusReadyRequested, StatusFailed, StatusCancelled},
	StatusReadyRequested: {StatusReadyConfirmed, StatusFailed, StatusCancelled},
	StatusReadyConfirmed: {StatusApproved, StatusFailed, StatusCancelled},
	StatusApproved:       {StatusCommitted, StatusFailed, StatusCancelled},
	StatusCommitted:      {},
	StatusFailed:         {},
	StatusCancelled:      {},
}

func (c *Checkout) transition(next Status) error {
	for _, allowed := range transitions[c.Status] {
		if allowed == next {
			c.Status = next
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrInvalidStateTransition
}

func (c *Checkout) MarkReadyRequested() error { return c.transition(StatusReadyRequested) }

// MarkReadyConfirmed records the gateway transaction id returned by a
// successful ready call.
func (c *Checkout) MarkReadyConfirmed(transactionID string) error {
	if err := c.transition(StatusReadyConfirmed); err != nil {
		return err
	}
	c.TransactionID = transactionID
	return nil
}

func (c *Checkout) MarkApproved() error  { return c.transition(StatusApproved) }
func (c *Checkout) MarkCommitted() error { return c.transition(StatusCommitted) }
func (c *Checkout) MarkFailed() error    { return c.transition(StatusFailed) }
func (c *Checkout) MarkCancelled() error { return c.transition(StatusCancelled) }

func (c *Checkout) Clone() *Checkout {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Snapshot = c.Snapshot.Clone()
	return &clone
}
