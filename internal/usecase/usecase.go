package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductUC interface {
	CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByName(ctx context.Context, name string) (*domain.Product, error)
	GetProductsByMaxPrice(ctx context.Context, maxPrice decimal.Decimal) ([]domain.Product, error)
	GetLowStockProducts(ctx context.Context, threshold int32) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ExistsByName(ctx context.Context, name string) (bool, error)
}
