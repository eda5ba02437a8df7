package purchase

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("purchase: not found")
	ErrAlreadyRefunded = errors.New("purchase: already refunded")
	ErrNoItems         = errors.New("purchase: at least one item is required")
	ErrInvalidItem     = errors.New("purchase: item price and quantity must be valid")
)

type State string

const (
	StateCompleted State = "COMPLETED"
	StateRefunded  State = "REFUNDED"
)

// Item is one receipt line. Price and quantity are captured at purchase time
// and never change afterwards, regardless of later product edits.
type Item struct {
	PurchaseID string
	ProductID  string
	OrderPrice int
	OrderQty   int
}

type Purchase struct {
	ID        string
	State     State
	Items     []Item
	CreatedAt time.Time
}

// New builds a COMPLETED purchase with its creation timestamp fixed at this
// moment. Items are owned by the purchase from here on.
func New(id string, items []Item) (*Purchase, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	for i := range items {
		if items[i].OrderPrice < 0 || items[i].OrderQty <= 0 {
			return nil, ErrInvalidItem
		}
		items[i].PurchaseID = id
	}

	return &Purchase{
		ID:        id,
		State:     StateCompleted,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// MarkRefunded performs the one-way COMPLETED -> REFUNDED transition,
// failing on any repeat.
func (p *Purchase) MarkRefunded() error {
	if p.State == StateRefunded {
		return ErrAlreadyRefunded
	}
	p.State = StateRefunded
	return nil
}

func (p *Purchase) TotalAmount() int {
	total := 0
	for _, item := range p.Items {
		total += item.OrderPrice * item.OrderQty
	}
	return total
}

func (p *Purchase) Clone() *Purchase {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Items = make([]Item, len(p.Items))
	copy(clone.Items, p.Items)
	return &clone
}
