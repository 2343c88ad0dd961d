package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/logger"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductUseCase реализует бизнес-логику управления товарами каталога.
type ProductUseCase struct {
	productRepo ProductRepository
	outboxRepo  OutboxRepository
	cacheRepo   CacheRepository
	dbPool      transaction.Transactional
	logger      logger.Logger
}

func NewProductUC(
	productRepo ProductRepository,
	outboxRepo OutboxRepository,
	cacheRepo CacheRepository,
	dbPool transaction.Transactional,
	logger logger.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo: productRepo,
		outboxRepo:  outboxRepo,
		cacheRepo:   cacheRepo,
		dbPool:      dbPool,
		logger:      logger,
	}
}

// Ключи кэша результатов: имя операции плюс аргументы запроса.
// Разные формы запроса не должны пересекаться между собой.
const allProductsKey = "all"

func productIDKey(id int64) string {
	return fmt.Sprintf("id:%d", id)
}

func productNameKey(name string) string {
	return "name:" + name
}

func maxPriceKey(maxPrice decimal.Decimal) string {
	return "price:" + maxPrice.String()
}

func lowStockKey(threshold int32) string {
	return fmt.Sprintf("lowStock:%d", threshold)
}

// CreateProduct создаёт товар с проверкой уникальности имени.
// Повторная проверка выполняется уникальным ограничением в PostgreSQL,
// поэтому гонка двух одновременных созданий не приводит к дубликату.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *CreateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := p.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	exists, err := p.productRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if exists {
		return nil, e.Wrap(op, e.ErrProductNameTaken)
	}

	var product *domain.Product
	err = p.mutate(ctx, func(ctx context.Context) error {
		var err error
		product, err = p.productRepo.Create(ctx, domain.NewProduct(req.Name, req.Description, req.Price, req.StockQuantity))
		if err != nil {
			return err
		}

		return p.writeOutboxEvent(ctx, ProductCreated, product.ID)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx)

	return product, nil
}

// GetProductByID возвращает товар по идентификатору, сквозное чтение через кэш.
func (p *ProductUseCase) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.GetProductByID"

	product, err := p.cachedProduct(ctx, productIDKey(id), func(ctx context.Context) (*domain.Product, error) {
		return p.productRepo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// GetAllProducts возвращает все товары каталога.
func (p *ProductUseCase) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductUseCase.GetAllProducts"

	products, err := p.cachedProducts(ctx, allProductsKey, func(ctx context.Context) ([]domain.Product, error) {
		return p.productRepo.GetAll(ctx)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// GetProductByName возвращает товар по точному совпадению имени.
func (p *ProductUseCase) GetProductByName(ctx context.Context, name string) (*domain.Product, error) {
	const op = "ProductUseCase.GetProductByName"

	product, err := p.cachedProduct(ctx, productNameKey(name), func(ctx context.Context) (*domain.Product, error) {
		return p.productRepo.GetByName(ctx, name)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// GetProductsByMaxPrice возвращает товары с ценой не выше maxPrice (включительно).
func (p *ProductUseCase) GetProductsByMaxPrice(ctx context.Context, maxPrice decimal.Decimal) ([]domain.Product, error) {
	const op = "ProductUseCase.GetProductsByMaxPrice"

	products, err := p.cachedProducts(ctx, maxPriceKey(maxPrice), func(ctx context.Context) ([]domain.Product, error) {
		return p.productRepo.GetByMaxPrice(ctx, maxPrice)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// GetLowStockProducts возвращает товары с остатком не выше threshold (включительно).
func (p *ProductUseCase) GetLowStockProducts(ctx context.Context, threshold int32) ([]domain.Product, error) {
	const op = "ProductUseCase.GetLowStockProducts"

	products, err := p.cachedProducts(ctx, lowStockKey(threshold), func(ctx context.Context) ([]domain.Product, error) {
		return p.productRepo.GetLowStock(ctx, threshold)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

// UpdateProduct применяет частичный патч: заданные поля перезаписываются,
// nil-поля сохраняют прежние значения. Уникальность имени сервис повторно
// не проверяет, конфликт перехватывает ограничение в хранилище.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, req *UpdateProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if err := p.validatePatch(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	existing, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	applyPatch(existing, req)

	var updated *domain.Product
	err = p.mutate(ctx, func(ctx context.Context) error {
		var err error
		updated, err = p.productRepo.Update(ctx, existing)
		if err != nil {
			return err
		}

		return p.writeOutboxEvent(ctx, ProductUpdated, updated.ID)
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCache(ctx)

	return updated, nil
}

// DeleteProduct удаляет товар без tombstone-записи.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id int64) error {
	const op = "ProductUseCase.DeleteProduct"

	exists, err := p.productRepo.ExistsByID(ctx, id)
	if err != nil {
		return e.Wrap(op, err)
	}
	if !exists {
		return e.Wrap(op, e.ErrProductNotFound)
	}

	err = p.mutate(ctx, func(ctx context.Context) error {
		if err := p.productRepo.DeleteByID(ctx, id); err != nil {
			return err
		}

		return p.writeOutboxEvent(ctx, ProductDeleted, id)
	})
	if err != nil {
		return e.Wrap(op, err)
	}

	p.invalidateCache(ctx)

	return nil
}

// ExistsByName — прямой запрос к хранилищу, мимо кэша.
func (p *ProductUseCase) ExistsByName(ctx context.Context, name string) (bool, error) {
	const op = "ProductUseCase.ExistsByName"

	exists, err := p.productRepo.ExistsByName(ctx, name)
	if err != nil {
		return false, e.Wrap(op, err)
	}

	return exists, nil
}

// mutate выполняет fn внутри транзакции PostgreSQL.
// Транзакция пробрасывается репозиториям через контекст.
func (p *ProductUseCase) mutate(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, p.dbPool)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil && tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()
	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err = fn(ctx); err != nil {
		return err
	}

	err = tx.Commit(ctx)
	return err
}

// cachedProduct — сквозное чтение одиночного товара через кэш результатов.
// Ошибки кэша не фатальны: запрос уходит в хранилище.
func (p *ProductUseCase) cachedProduct(ctx context.Context, key string, fetch func(ctx context.Context) (*domain.Product, error)) (*domain.Product, error) {
	if product, ok, err := p.cacheRepo.GetProduct(ctx, key); err != nil {
		p.logger.Warnf("Cache read failed for %q: %v", key, err)
	} else if ok {
		return product, nil
	}

	product, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.cacheRepo.SetProduct(ctx, key, product); err != nil {
		p.logger.Warnf("Cache write failed for %q: %v", key, err)
	}

	return product, nil
}

// cachedProducts — сквозное чтение списка товаров через кэш результатов.
func (p *ProductUseCase) cachedProducts(ctx context.Context, key string, fetch func(ctx context.Context) ([]domain.Product, error)) ([]domain.Product, error) {
	if products, ok, err := p.cacheRepo.GetProducts(ctx, key); err != nil {
		p.logger.Warnf("Cache read failed for %q: %v", key, err)
	} else if ok {
		return products, nil
	}

	products, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := p.cacheRepo.SetProducts(ctx, key, products); err != nil {
		p.logger.Warnf("Cache write failed for %q: %v", key, err)
	}

	return products, nil
}

// invalidateCache сбрасывает кэш результатов целиком после любой мутации.
func (p *ProductUseCase) invalidateCache(ctx context.Context) {
	if err := p.cacheRepo.InvalidateAll(ctx); err != nil {
		p.logger.Warnf("Failed to invalidate product cache: %v", err)
	}
}

// writeOutboxEvent добавляет событие изменения товара в outbox внутри текущей транзакции.
func (p *ProductUseCase) writeOutboxEvent(ctx context.Context, eventType OutboxEventType, productID int64) error {
	eventID := uuid.NewString()

	payload, err := json.Marshal(NewProductChangePayload(eventID, eventType, productID, time.Now().UnixNano()))
	if err != nil {
		return err
	}

	_, err = p.outboxRepo.Create(ctx, NewOutboxEvent(eventID, eventType, productID, payload))
	return err
}

// applyPatch переносит заданные поля патча в существующий товар.
func applyPatch(product *domain.Product, req *UpdateProductReq) {
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.StockQuantity != nil {
		product.StockQuantity = *req.StockQuantity
	}
}

// validateProduct проверяет корректность входных данных запроса на создание товара.
func (p *ProductUseCase) validateProduct(req *CreateProductReq) error {
	if strings.TrimSpace(req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if req.Price.IsNegative() {
		return e.ErrInvalidPrice
	}

	if req.Price.Exponent() < -2 {
		return e.ErrPricePrecision
	}

	if req.StockQuantity < 0 {
		return e.ErrInvalidStock
	}

	return nil
}

// validatePatch проверяет заданные поля частичного обновления.
func (p *ProductUseCase) validatePatch(req *UpdateProductReq) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return e.ErrProductNameRequired
	}

	if req.Price != nil {
		if req.Price.IsNegative() {
			return e.ErrInvalidPrice
		}
		if req.Price.Exponent() < -2 {
			return e.ErrPricePrecision
		}
	}

	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return e.ErrInvalidStock
	}

	return nil
}
