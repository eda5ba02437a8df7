package catalog

import (
	"context"
	"errors"
	"fmt"

	domproduct "github.com/minshop/qrp/internal/domain/product"
	dompurchase "github.com/minshop/qrp/internal/domain/purchase"
	"github.com/minshop/qrp/internal/pkg/logging"
	"go.uber.org/zap"
)

// Service covers the admin-facing product operations: CRUD over the catalog
// plus barcode rendering. Stock-mutating flows live in the purchase ledger.
type Service struct {
	products    domproduct.Repository
	purchases   dompurchase.Repository
	idGenerator IDGenerator
	barcodes    BarcodeEncoder
}

func NewService(
	products domproduct.Repository,
	purchases dompurchase.Repository,
	idGen IDGenerator,
	barcodes BarcodeEncoder,
) *Service {
	return &Service{
		products:    products,
		purchases:   purchases,
		idGenerator: idGen,
		barcodes:    barcodes,
	}
}

type CreateProductInput struct {
	Name     string
	Price    int
	Quantity int
}

func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (*domproduct.Product, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	_, err := s.products.FindByName(ctx, input.Name)
	switch {
	case err == nil:
		return nil, domproduct.ErrDuplicateName
	case errors.Is(err, domproduct.ErrNotFound):
		// name is free
	default:
		return nil, fmt.Errorf("catalog: lookup name: %w", err)
	}

	entity, err := domproduct.New(s.idGenerator.NewID(), input.Name, input.Price, input.Quantity)
	if err != nil {
		return nil, err
	}

	if err := s.products.Create(ctx, entity); err != nil {
		logger.Error("product_create_failed", zap.String("name", input.Name), zap.Error(err))
		return nil, fmt.Errorf("catalog: create: %w", err)
	}

	logger.Info("product_created",
		zap.String("product_id", entity.ID),
		zap.String("name", entity.Name),
	)
	return entity, nil
}

func (s *Service) FindProductByID(ctx context.Context, id string) (*domproduct.Product, error) {
	if id == "" {
		return nil, domproduct.ErrNotFound
	}
	return s.products.FindByID(ctx, id)
}

func (s *Service) FindProductByName(ctx context.Context, name string) (*domproduct.Product, error) {
	return s.products.FindByName(ctx, name)
}

func (s *Service) ListProducts(ctx context.Context) ([]*domproduct.Product, error) {
	return s.products.FindAll(ctx)
}

// UpdateProductInput carries the optional fields of a partial update. A nil
// field keeps the current value; so does a per-field invalid one.
type UpdateProductInput struct {
	Name     *string
	Price    *int
	Quantity *int
}

func (s *Service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domproduct.Product, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	entity, err := s.products.Update(ctx, id, domproduct.Patch{
		Name:     input.Name,
		Price:    input.Price,
		Quantity: input.Quantity,
	})
	switch {
	case err == nil:
		return entity, nil
	case errors.Is(err, domproduct.ErrNotFound), errors.Is(err, domproduct.ErrDuplicateName):
		return nil, err
	default:
		logger.Error("product_update_failed", zap.String("product_id", id), zap.Error(err))
		return nil, fmt.Errorf("catalog: update: %w", err)
	}
}

// DeleteProduct removes a product unless a purchase item still references it.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	logger := logging.FromContext(ctx).With(zap.String("component", "catalog_service"))

	if _, err := s.products.FindByID(ctx, id); err != nil {
		return err
	}

	referenced, err := s.purchases.ExistsByProductID(ctx, id)
	if err != nil {
		return fmt.Errorf("catalog: reference check: %w", err)
	}
	if referenced {
		return domproduct.ErrIntegrityViolation
	}

	if err := s.products.Delete(ctx, id); err != nil {
		logger.Error("product_delete_failed", zap.String("product_id", id), zap.Error(err))
		return fmt.Errorf("catalog: delete: %w", err)
	}

	logger.Info("product_deleted", zap.String("product_id", id))
	return nil
}

// ProductBarcode renders the product id as an image for in-store scanning.
func (s *Service) ProductBarcode(ctx context.Context, id string) ([]byte, error) {
	if _, err := s.products.FindByID(ctx, id); err != nil {
		return nil, err
	}

	image, err := s.barcodes.Encode(id)
	if err != nil {
		return nil, fmt.Errorf("catalog: encode barcode: %w", err)
	}
	return image, nil
}
