package usecase

import (
	"time"

	"github.com/shopspring/decimal"
)

// PRODUCT USECASE

// CreateProductReq — запрос на создание товара.
type CreateProductReq struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int32
}

// UpdateProductReq — частичное обновление товара.
// nil-поле означает «не задано»: существующее значение сохраняется.
type UpdateProductReq struct {
	Name          *string
	Description   *string
	Price         *decimal.Decimal
	StockQuantity *int32
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

type OutboxEventType string

const (
	ProductCreated OutboxEventType = "product.created"
	ProductUpdated OutboxEventType = "product.updated"
	ProductDeleted OutboxEventType = "product.deleted"
)

// OutboxEvent — запись transactional outbox, публикуемая воркером в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   OutboxEventType
	ProductID   int64
	Payload     []byte
	Status      OutboxStatus
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ProductChangePayload — тело события изменения товара (JSON в Kafka).
type ProductChangePayload struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	ProductID  int64  `json:"product_id"`
	OccurredAt int64  `json:"occurred_at"`
}

// INFRASTRUCTURE

type WriteRawMessageReq struct {
	ProductID int64
	Payload   []byte
}

// MAPPERS

func NewCreateProductReq(name, description string, price decimal.Decimal, stockQuantity int32) *CreateProductReq {
	return &CreateProductReq{
		Name:          name,
		Description:   description,
		Price:         price,
		StockQuantity: stockQuantity,
	}
}

func NewOutboxEvent(eventID string, eventType OutboxEventType, productID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: time.Now(),
	}
}

func NewProductChangePayload(eventID string, eventType OutboxEventType, productID int64, occurredAt int64) *ProductChangePayload {
	return &ProductChangePayload{
		EventID:    eventID,
		EventType:  string(eventType),
		ProductID:  productID,
		OccurredAt: occurredAt,
	}
}

func NewWriteRawMessageReq(productID int64, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
