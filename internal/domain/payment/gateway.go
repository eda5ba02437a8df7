package payment

import (
	"context"
	"errors"
)

var ErrGateway = errors.New("payment: gateway request failed")

// ReadyRequest starts the two-phase handshake. OrderID and UserID correlate
// the later approve call with this one.
type ReadyRequest struct {
	OrderID       string
	UserID        string
	ItemName      string
	Quantity      int
	TotalAmount   int
	TaxFreeAmount int
}

type ReadyResponse struct {
	TransactionID string `json:"tid"`
	RedirectURL   string `json:"next_redirect_mobile_url"`
}

type ApproveRequest struct {
	TransactionID string
	OrderID       string
	UserID        string
	Token         string
}

type ApproveResponse struct {
	ApprovalID    string `json:"aid"`
	TransactionID string `json:"tid"`
	PaymentMethod string `json:"payment_method_type"`
	ItemName      string `json:"item_name"`
}

// Gateway is the stateless client for the external payment provider. Both
// calls block on the network and must never be made while holding stock
// locks.
type Gateway interface {
	Ready(ctx context.Context, req ReadyRequest) (*ReadyResponse, error)
	Approve(ctx context.Context, req ApproveRequest) (*ApproveResponse, error)
}
