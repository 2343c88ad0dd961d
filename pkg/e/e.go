package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")

	// 400 Bad Request
	ErrProductNameRequired = fmt.Errorf("product name is required")
	ErrInvalidPrice        = fmt.Errorf("price must be a non-negative decimal")
	ErrPricePrecision      = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidStock        = fmt.Errorf("stock quantity must be non-negative")
	ErrInvalidProductID    = fmt.Errorf("invalid product id")
	ErrStatusBadRequest    = fmt.Errorf("bad request")

	// 401 Unauthorized
	ErrUnauthorized = fmt.Errorf("unauthorized")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")

	// 409 Conflict
	ErrProductNameTaken = fmt.Errorf("product with this name already exists")

	// 5xx
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
