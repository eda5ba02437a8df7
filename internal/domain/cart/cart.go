package cart

import "errors"

var (
	ErrEmpty           = errors.New("cart: empty")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Cart is a session-scoped product-id -> quantity mapping. A zero quantity is
// never stored; reaching zero removes the entry.
type Cart map[string]int

func New() Cart {
	return make(Cart)
}

func (c Cart) Add(productID string) {
	c[productID]++
}

func (c Cart) Subtract(productID string) {
	if c[productID] <= 1 {
		delete(c, productID)
		return
	}
	c[productID]--
}

func (c Cart) Remove(productID string) {
	delete(c, productID)
}

func (c Cart) Quantity(productID string) int {
	return c[productID]
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// TotalQuantity sums the quantities of every entry.
func (c Cart) TotalQuantity() int {
	total := 0
	for _, qty := range c {
		total += qty
	}
	return total
}

func (c Cart) Clone() Cart {
	clone := make(Cart, len(c))
	for id, qty := range c {
		clone[id] = qty
	}
	return clone
}
