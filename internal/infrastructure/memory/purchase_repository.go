package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domain "github.com/minshop/qrp/internal/domain/purchase"
)

type PurchaseRepository struct {
	mu        sync.RWMutex
	purchases map[string]*domain.Purchase
}

func NewPurchaseRepository() *PurchaseRepository {
	return &PurchaseRepository{
		purchases: make(map[string]*domain.Purchase),
	}
}

func (r *PurchaseRepository) Insert(ctx context.Context, p *domain.Purchase) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("purchase repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.purchases[p.ID]; exists {
		return fmt.Errorf("purchase repository: duplicate id %s", p.ID)
	}

	r.purchases[p.ID] = p.Clone()
	return nil
}

func (r *PurchaseRepository) FindByID(ctx context.Context, id string) (*domain.Purchase, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.purchases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *PurchaseRepository) FindAll(ctx context.Context) ([]*domain.Purchase, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*domain.Purchase, 0, len(r.purchases))
	for _, p := range r.purchases {
		all = append(all, p.Clone())
	}
	sortByDate(all)
	return all, nil
}

func (r *PurchaseRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]*domain.Purchase, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Purchase, 0)
	for _, p := range r.purchases {
		if p.CreatedAt.Before(from) || p.CreatedAt.After(to) {
			continue
		}
		matched = append(matched, p.Clone())
	}
	sortByDate(matched)
	return matched, nil
}

func (r *PurchaseRepository) Update(ctx context.Context, p *domain.Purchase) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("purchase repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.purchases[p.ID]
	if !exists {
		return domain.ErrNotFound
	}
	if current.State == domain.StateRefunded {
		return domain.ErrAlreadyRefunded
	}

	r.purchases[p.ID] = p.Clone()
	return nil
}

func (r *PurchaseRepository) ExistsByProductID(ctx context.Context, productID string) (bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.purchases {
		for _, item := range p.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func sortByDate(purchases []*domain.Purchase) {
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].CreatedAt.Before(purchases[j].CreatedAt)
	})
}
