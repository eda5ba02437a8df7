package product

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound           = errors.New("product: not found")
	ErrDuplicateName      = errors.New("product: name already exists")
	ErrInsufficientStock  = errors.New("product: insufficient stock")
	ErrIntegrityViolation = errors.New("product: referenced by purchase items")
	ErrInvalidName        = errors.New("product: name must not be blank")
	ErrInvalidPrice       = errors.New("product: price must be zero or greater")
	ErrInvalidQuantity    = errors.New("product: quantity must be zero or greater")
)

type Product struct {
	ID        string
	Name      string
	Price     int
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, name string, price, quantity int) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if price < 0 {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &Product{
		ID:        id,
		Name:      name,
		Price:     price,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update applies each field only when it is present and valid for that field;
// a nil or invalid value keeps the current one. It never returns an error.
func (p *Product) Update(name *string, price, quantity *int) {
	if name != nil && strings.TrimSpace(*name) != "" {
		p.Name = *name
	}
	if price != nil && *price >= 0 {
		p.Price = *price
	}
	if quantity != nil && *quantity >= 0 {
		p.Quantity = *quantity
	}
	p.touch()
}

// RemoveStock decrements quantity, failing without mutation when qty exceeds
// the current stock.
func (p *Product) RemoveStock(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > p.Quantity {
		return ErrInsufficientStock
	}
	p.Quantity -= qty
	p.touch()
	return nil
}

// AddStock increments quantity with no upper bound.
func (p *Product) AddStock(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	p.Quantity += qty
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
