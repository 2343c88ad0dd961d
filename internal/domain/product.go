package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает товар каталога
type Product struct {
	ID            int64
	Name          string
	Description   string
	Price         decimal.Decimal // фиксированная точность, 2 знака после запятой
	StockQuantity int32
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

func NewProduct(name, description string, price decimal.Decimal, stockQuantity int32) *Product {
	return &Product{
		Name:          name,
		Description:   description,
		Price:         price,
		StockQuantity: stockQuantity,
	}
}
