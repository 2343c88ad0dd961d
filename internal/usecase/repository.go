package usecase

import (
	"context"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	DeleteByID(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetByName(ctx context.Context, name string) (*domain.Product, error)
	GetAll(ctx context.Context) ([]domain.Product, error)
	GetByMaxPrice(ctx context.Context, maxPrice decimal.Decimal) ([]domain.Product, error)
	GetLowStock(ctx context.Context, threshold int32) ([]domain.Product, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
}

// CacheRepository — кэш результатов запросов. Ключ формируется
// сервисным слоем из имени операции и её аргументов.
// Признак ok отличает промах кэша от закэшированного пустого результата.
type CacheRepository interface {
	GetProduct(ctx context.Context, key string) (*domain.Product, bool, error)
	SetProduct(ctx context.Context, key string, product *domain.Product) error
	GetProducts(ctx context.Context, key string) ([]domain.Product, bool, error)
	SetProducts(ctx context.Context, key string, products []domain.Product) error
	InvalidateAll(ctx context.Context) error
}
