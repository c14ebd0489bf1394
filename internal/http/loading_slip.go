package router

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ruslanbay/milk-indent/internal/middlewares"
	"github.com/ruslanbay/milk-indent/internal/models"
	"github.com/ruslanbay/milk-indent/internal/services"
)

// GenerateLoadingSlip замораживает заказ после формирования погрузочного
// листа. Тело запроса содержит идентификатор заказа в формате text/plain.
func GenerateLoadingSlip(w http.ResponseWriter, r *http.Request) {
	orderID := middlewares.GetParsedTextData(w, r)

	if len(orderID) == 0 {
		http.Error(w, "Идентификатор заказа не указан", http.StatusUnprocessableEntity)
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)

	if err := (*orderService).GenerateLoadingSlip(r.Context(), orderID); err != nil {
		if errors.Is(err, services.ErrOrderNotFound) {
			http.Error(w, "Заказ не найден", http.StatusNotFound)
			return
		}

		if errors.Is(err, services.ErrOrderCancelled) {
			http.Error(w, "Заказ отменен", http.StatusConflict)
			return
		}

		http.Error(w, fmt.Sprintf("Произошла ошибка при заморозке заказа: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
