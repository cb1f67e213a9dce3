package service

import (
	"context"

	"github.com/prperemyshlev/statboard/internal/apperror"
	"github.com/prperemyshlev/statboard/internal/domain"
	"github.com/prperemyshlev/statboard/internal/dto"
	"github.com/prperemyshlev/statboard/internal/repository"
)

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

func (s *productService) Create(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	product := &domain.Product{Name: req.Name, Description: req.Description}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, translate(err, "Product")
	}
	return product, nil
}

func (s *productService) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "Product")
	}
	return product, nil
}

func (s *productService) Update(ctx context.Context, id string, req *dto.UpdateProductRequest) (*domain.Product, error) {
	product, err := s.productRepo.Update(ctx, id, domain.ProductUpdate{Name: req.Name, Description: req.Description})
	if err != nil {
		return nil, translate(err, "Product")
	}
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	return translate(s.productRepo.Delete(ctx, id), "Product")
}
