package converter

import (
	"github.com/DRSN-tech/catalog-service/internal/domain"
)

// ProductCacheConverter преобразует сущности Product между domain и моделью кэша.
type ProductCacheConverter interface {
	ToCacheModel(entity *domain.Product) *ProductCacheModel
	ToEntity(model *ProductCacheModel) *domain.Product
	ToArrCacheModel(entities []domain.Product) []ProductCacheModel
	ToArrEntity(models []ProductCacheModel) []domain.Product
}

type productCacheConverter struct{}

func NewProductCacheConverter() ProductCacheConverter {
	return &productCacheConverter{}
}

func (c *productCacheConverter) ToCacheModel(entity *domain.Product) *ProductCacheModel {
	if entity == nil {
		return nil
	}
	return &ProductCacheModel{
		ID:            entity.ID,
		Name:          entity.Name,
		Description:   entity.Description,
		Price:         entity.Price,
		StockQuantity: entity.StockQuantity,
		CreatedAt:     entity.CreatedAt,
		UpdatedAt:     entity.UpdatedAt,
	}
}

func (c *productCacheConverter) ToEntity(model *ProductCacheModel) *domain.Product {
	if model == nil {
		return nil
	}
	return &domain.Product{
		ID:            model.ID,
		Name:          model.Name,
		Description:   model.Description,
		Price:         model.Price,
		StockQuantity: model.StockQuantity,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

func (c *productCacheConverter) ToArrCacheModel(entities []domain.Product) []ProductCacheModel {
	result := make([]ProductCacheModel, 0, len(entities))
	for i := range entities {
		result = append(result, *c.ToCacheModel(&entities[i]))
	}
	return result
}

func (c *productCacheConverter) ToArrEntity(models []ProductCacheModel) []domain.Product {
	result := make([]domain.Product, 0, len(models))
	for i := range models {
		result = append(result, *c.ToEntity(&models[i]))
	}
	return result
}
