package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DRSN-tech/catalog-service/internal/cfg"
	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/internal/repository/redis/converter"
	"github.com/DRSN-tech/catalog-service/pkg/clients"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// Все записи кэша живут полями одного Redis-хэша: сброс кэша целиком —
// это одиночный DEL, который нельзя «обогнать» конкурентным чтением.
const productsHashKey = "products"

type CacheRepo struct {
	client *clients.RedisClient
	conv   converter.ProductCacheConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductCacheConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProduct возвращает закэшированный товар по ключу операции.
// Второе значение — признак попадания.
func (c *CacheRepo) GetProduct(ctx context.Context, key string) (*domain.Product, bool, error) {
	data, err := c.client.Client.HGet(ctx, productsHashKey, key).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, false, nil // cache miss
	}
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.ProductCacheModel
	if err := json.Unmarshal(data, &model); err != nil {
		c.logger.Warnf("Cache unmarshal failed for %q: %v", key, err)
		c.dropEntry(ctx, key)
		return nil, false, nil
	}

	return c.conv.ToEntity(&model), true, nil
}

// SetProduct кэширует один товар под ключом операции.
func (c *CacheRepo) SetProduct(ctx context.Context, key string, product *domain.Product) error {
	data, err := json.Marshal(c.conv.ToCacheModel(product))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return c.setEntry(ctx, key, data)
}

// GetProducts возвращает закэшированный список товаров по ключу операции.
// Закэшированный пустой список — попадание, не промах.
func (c *CacheRepo) GetProducts(ctx context.Context, key string) ([]domain.Product, bool, error) {
	data, err := c.client.Client.HGet(ctx, productsHashKey, key).Bytes()
	if errors.Is(err, r.Nil) {
		return nil, false, nil // cache miss
	}
	if err != nil {
		return nil, false, e.Wrap(whereami.WhereAmI(), err)
	}

	var models []converter.ProductCacheModel
	if err := json.Unmarshal(data, &models); err != nil {
		c.logger.Warnf("Cache unmarshal failed for %q: %v", key, err)
		c.dropEntry(ctx, key)
		return nil, false, nil
	}

	return c.conv.ToArrEntity(models), true, nil
}

// SetProducts кэширует список товаров под ключом операции.
func (c *CacheRepo) SetProducts(ctx context.Context, key string, products []domain.Product) error {
	data, err := json.Marshal(c.conv.ToArrCacheModel(products))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return c.setEntry(ctx, key, data)
}

// InvalidateAll сбрасывает кэш результатов целиком.
func (c *CacheRepo) InvalidateAll(ctx context.Context) error {
	if err := c.client.Client.Del(ctx, productsHashKey).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// setEntry пишет поле хэша и продлевает TTL всего хэша.
// TTL ограничивает время жизни накопившихся параметризованных ключей поиска.
func (c *CacheRepo) setEntry(ctx context.Context, key string, data []byte) error {
	pipeline := c.client.Client.Pipeline()
	pipeline.HSet(ctx, productsHashKey, key, data)
	pipeline.Expire(ctx, productsHashKey, c.cfg.CacheTTL)

	if _, err := pipeline.Exec(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// dropEntry удаляет повреждённую запись кэша, ошибки только логируются.
func (c *CacheRepo) dropEntry(ctx context.Context, key string) {
	if err := c.client.Client.HDel(ctx, productsHashKey, key).Err(); err != nil {
		c.logger.Warnf("Cache HDEL failed for %q: %v", key, err)
	}
}
