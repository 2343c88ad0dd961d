package http

import (
	"net/http"
	"strconv"

	"github.com/DRSN-tech/catalog-service/internal/usecase"
	"github.com/DRSN-tech/catalog-service/pkg/e"
	"github.com/DRSN-tech/catalog-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
}

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{productUsecase: productUsecase, logger: logger}
}

// createProduct создаёт товар. 201 с записью, 400 при ошибке валидации,
// 409 если имя уже занято.
func (p *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	req, err := parseCreateBody(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.CreateProduct(r.Context(), req)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, toProductResponse(product))
}

// getProductByID возвращает товар по идентификатору. 404 если отсутствует.
func (p *ProductHandler) getProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.GetProductByID(r.Context(), id)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// getAllProducts возвращает все товары каталога.
func (p *ProductHandler) getAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.GetAllProducts(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductListResponse(products))
}

// searchProducts фильтрует товары. Параметры maxPrice и lowStockThreshold
// взаимоисключающие, maxPrice приоритетнее; без параметров — все товары.
func (p *ProductHandler) searchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if raw := query.Get("maxPrice"); raw != "" {
		maxPrice, err := decimal.NewFromString(raw)
		if err != nil {
			WriteError(w, e.ErrInvalidPrice)
			return
		}

		products, err := p.productUsecase.GetProductsByMaxPrice(r.Context(), maxPrice)
		if err != nil {
			p.logger.Warnf("%s", err.Error())
			WriteError(w, err)
			return
		}

		WriteSuccess(w, http.StatusOK, toProductListResponse(products))
		return
	}

	if raw := query.Get("lowStockThreshold"); raw != "" {
		threshold, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			WriteError(w, e.ErrInvalidStock)
			return
		}

		products, err := p.productUsecase.GetLowStockProducts(r.Context(), int32(threshold))
		if err != nil {
			p.logger.Warnf("%s", err.Error())
			WriteError(w, err)
			return
		}

		WriteSuccess(w, http.StatusOK, toProductListResponse(products))
		return
	}

	products, err := p.productUsecase.GetAllProducts(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductListResponse(products))
}

// updateProduct применяет частичный патч. 200 с объединённой записью,
// 404 если товар отсутствует.
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	req, err := parseUpdateBody(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), id, req)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// deleteProduct удаляет товар. 204 без тела, 404 если отсутствует.
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseProductID(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := p.productUsecase.DeleteProduct(r.Context(), id); err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
