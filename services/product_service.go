package services

import (
	"context"
	"strings"

	"go-storefront/models"
	"go-storefront/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductService struct {
	products store.ProductStore
}

func NewProductService(products store.ProductStore) *ProductService {
	return &ProductService{products: products}
}

func (s *ProductService) List(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	f.Category = strings.TrimSpace(f.Category)
	f.Query = strings.TrimSpace(f.Query)
	products, err := s.products.List(ctx, f)
	if err != nil {
		return nil, storeErr("products", err)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("product", err)
	}
	return p, nil
}

func (s *ProductService) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	p := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Images:      in.Images,
		Category:    in.Category,
		Price:       in.Price,
		Reviews:     []models.Review{},
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, storeErr("product", err)
	}
	return p, nil
}

// Update replaces the editable fields. Reviews and rating are left alone.
func (s *ProductService) Update(ctx context.Context, id primitive.ObjectID, in models.ProductInput) (*models.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	p, err := s.products.Update(ctx, id, in)
	if err != nil {
		return nil, storeErr("product", err)
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return storeErr("product", err)
	}
	return nil
}
