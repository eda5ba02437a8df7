package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	domain "github.com/minshop/qrp/internal/domain/product"
)

// ProductRepository is an in-memory product store. The single mutex is what
// serializes concurrent stock adjustments; AdjustStock checks and applies a
// whole batch without releasing it.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
	byName   map[string]string
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
		byName:   make(map[string]string),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[p.Name]; exists {
		return domain.ErrDuplicateName
	}

	r.products[p.ID] = p.Clone()
	r.byName[p.Name] = p.ID
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.products[id].Clone(), nil
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p.Clone())
	}
	return all, nil
}

// Update patches the stored product under the write lock, never replacing it
// wholesale: fields the patch leaves nil keep whatever value the store holds,
// including a quantity a concurrent stock adjustment just moved.
func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.Patch) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.products[id]
	if !exists {
		return nil, domain.ErrNotFound
	}

	oldName := p.Name
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" && *patch.Name != oldName {
		if owner, taken := r.byName[*patch.Name]; taken && owner != id {
			return nil, domain.ErrDuplicateName
		}
	}

	p.Update(patch.Name, patch.Price, patch.Quantity)

	if p.Name != oldName {
		delete(r.byName, oldName)
		r.byName[p.Name] = id
	}
	return p.Clone(), nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.products[id]
	if !exists {
		return domain.ErrNotFound
	}

	delete(r.byName, p.Name)
	delete(r.products, id)
	return nil
}

// AdjustStock validates every delta against current quantities before
// applying any of them, all under one lock, so a failing line leaves the
// whole batch untouched and concurrent batches serialize.
func (r *ProductRepository) AdjustStock(ctx context.Context, deltas []domain.StockDelta) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range deltas {
		p, ok := r.products[d.ProductID]
		if !ok {
			return domain.ErrNotFound
		}
		if p.Quantity+d.Delta < 0 {
			return domain.ErrInsufficientStock
		}
	}

	for _, d := range deltas {
		p := r.products[d.ProductID]
		switch {
		case d.Delta < 0:
			if err := p.RemoveStock(-d.Delta); err != nil {
				return err
			}
		case d.Delta > 0:
			if err := p.AddStock(d.Delta); err != nil {
				return err
			}
		}
	}
	return nil
}
