package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/catalog-service/internal/domain"
	"github.com/DRSN-tech/catalog-service/internal/usecase"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/shopspring/decimal"
)

// ErrorResponse — структурированное тело ошибки.
type ErrorResponse struct {
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func NewErrorResponse(status int, message string) *ErrorResponse {
	return &ErrorResponse{
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// ProductResponse — представление товара в ответах API.
type ProductResponse struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int32           `json:"stockQuantity"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty"`
}

func toProductResponse(product *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:            product.ID,
		Name:          product.Name,
		Description:   product.Description,
		Price:         product.Price,
		StockQuantity: product.StockQuantity,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

func toProductListResponse(products []domain.Product) []*ProductResponse {
	result := make([]*ProductResponse, 0, len(products))
	for i := range products {
		result = append(result, toProductResponse(&products[i]))
	}
	return result
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrProductNameRequired):
		return http.StatusBadRequest, e.ErrProductNameRequired.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrInvalidStock):
		return http.StatusBadRequest, e.ErrInvalidStock.Error()
	case errors.Is(err, e.ErrInvalidProductID):
		return http.StatusBadRequest, e.ErrInvalidProductID.Error()
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, e.ErrProductNotFound.Error()
	case errors.Is(err, e.ErrProductNameTaken):
		return http.StatusConflict, e.ErrProductNameTaken.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

type createProductBody struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int32           `json:"stockQuantity"`
}

func parseCreateBody(r *http.Request) (*usecase.CreateProductReq, error) {
	var body createProductBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	if strings.TrimSpace(body.Name) == "" {
		return nil, e.ErrProductNameRequired
	}
	if err := validatePrice(body.Price); err != nil {
		return nil, err
	}
	if body.StockQuantity < 0 {
		return nil, e.ErrInvalidStock
	}

	return usecase.NewCreateProductReq(body.Name, body.Description, body.Price, body.StockQuantity), nil
}

type updateProductBody struct {
	Name          *string          `json:"name"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	StockQuantity *int32           `json:"stockQuantity"`
}

// parseUpdateBody разбирает частичное обновление.
// Отсутствующее поле — «не менять». Явный null для description — «очистить»;
// для остальных полей null равнозначен отсутствию (их нельзя обнулить).
func parseUpdateBody(r *http.Request) (*usecase.UpdateProductReq, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	var body updateProductBody
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	req := &usecase.UpdateProductReq{
		Name:          body.Name,
		Description:   body.Description,
		Price:         body.Price,
		StockQuantity: body.StockQuantity,
	}

	if req.Description == nil && isExplicitNull(raw, "description") {
		empty := ""
		req.Description = &empty
	}

	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, e.ErrProductNameRequired
	}
	if req.Price != nil {
		if err := validatePrice(*req.Price); err != nil {
			return nil, err
		}
	}
	if req.StockQuantity != nil && *req.StockQuantity < 0 {
		return nil, e.ErrInvalidStock
	}

	return req, nil
}

func isExplicitNull(raw map[string]json.RawMessage, field string) bool {
	v, ok := raw[field]
	return ok && string(v) == "null"
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return e.ErrInvalidPrice
	}
	if price.Exponent() < -2 {
		return e.ErrPricePrecision
	}
	return nil
}

func parseProductID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrInvalidProductID
	}
	return id, nil
}
