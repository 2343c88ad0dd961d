package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductCacheModel — JSON-представление товара в кэше результатов.
type ProductCacheModel struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int32           `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     *time.Time      `json:"updated_at"`
}
