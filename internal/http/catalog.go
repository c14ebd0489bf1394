package router

import (
	"fmt"
	"net/http"

	"github.com/ruslanbay/milk-indent/internal/middlewares"
	"github.com/ruslanbay/milk-indent/internal/models"
)

// GetProducts возвращает каталог товаров.
func GetProducts(w http.ResponseWriter, r *http.Request) {
	catalogService := middlewares.GetServiceFromContext[models.CatalogService](w, r, middlewares.CatalogServiceKey)

	products, err := (*catalogService).ListProducts(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Произошла ошибка при получении каталога: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	if len(products) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, products)
}
