package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ruslanbay/milk-indent/internal/logger"
	"github.com/ruslanbay/milk-indent/internal/middlewares"
	"github.com/ruslanbay/milk-indent/internal/models"
	"github.com/ruslanbay/milk-indent/internal/services"
)

// Транспортные тела запросов. Идентификатор покупателя в теле не передается:
// он всегда берется из аутентифицированного пользователя.
type PlaceOrderBody struct {
	Shift OrderShiftParam        `json:"shift"`
	Date  string                 `json:"date"`
	Items []models.LineItemInput `json:"items"`
}

type UpdateOrderBody struct {
	Items []models.LineItemInput `json:"items"`
}

type AddItemBody struct {
	ProductID string `json:"product_id"`
}

type OrderShiftParam = models.OrderShift

const orderDateLayout = "2006-01-02"

// ledgerSyncHeader сообщает клиенту, что заказ изменен, но сверка с кредитной
// книгой не прошла. Ответ при этом остается успешным.
const ledgerSyncHeader = "X-Ledger-Sync"

// PlaceOrder обрабатывает HTTP-запрос на размещение нового заказа.
func PlaceOrder(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[PlaceOrderBody](w, r)
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	var date time.Time
	if data.Date != "" {
		parsed, err := time.Parse(orderDateLayout, data.Date)
		if err != nil {
			http.Error(w, "Дата заказа должна быть в формате ГГГГ-ММ-ДД", http.StatusUnprocessableEntity)
			return
		}
		date = parsed
	}

	result, err := (*orderService).PlaceOrder(r.Context(), models.PlaceOrderRequest{
		CustomerID: user.ID,
		Shift:      data.Shift,
		Date:       date,
		Items:      data.Items,
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	if !result.LedgerSynced {
		w.Header().Set(ledgerSyncHeader, "failed")
	}

	middlewares.EncodeJSONResponse(w, result)
}

// GetOrders обрабатывает HTTP-запрос на получение списка заказов пользователя.
// Параметр date ограничивает выборку одной датой.
func GetOrders(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	var date *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(orderDateLayout, raw)
		if err != nil {
			http.Error(w, "Дата должна быть в формате ГГГГ-ММ-ДД", http.StatusUnprocessableEntity)
			return
		}
		date = &parsed
	}

	orders, err := (*orderService).GetOrders(r.Context(), user.ID, date)
	if err != nil {
		http.Error(w, fmt.Sprintf("Произошла ошибка при получении заказов: %s", err.Error()), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	middlewares.EncodeJSONResponse(w, orders)
}

// GetOrder обрабатывает HTTP-запрос на получение одного заказа с позициями.
func GetOrder(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	order, err := (*orderService).GetOrder(r.Context(), user.ID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(w, err)
		return
	}

	middlewares.EncodeJSONResponse(w, order)
}

// UpdateOrder обрабатывает HTTP-запрос на полную замену набора позиций заказа.
func UpdateOrder(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[UpdateOrderBody](w, r)
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	result, err := (*orderService).UpdateOrder(r.Context(), models.UpdateOrderRequest{
		CustomerID: user.ID,
		OrderID:    chi.URLParam(r, "orderID"),
		Items:      data.Items,
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	if !result.LedgerSynced {
		w.Header().Set(ledgerSyncHeader, "failed")
	}

	middlewares.EncodeJSONResponse(w, result)
}

// AddItem обрабатывает HTTP-запрос на добавление товара в заказ.
func AddItem(w http.ResponseWriter, r *http.Request) {
	data := middlewares.GetParsedJSONData[AddItemBody](w, r)

	if data.ProductID == "" {
		http.Error(w, "Идентификатор товара не указан", http.StatusUnprocessableEntity)
		return
	}

	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	item, err := (*orderService).AddItem(r.Context(), models.AddItemRequest{
		CustomerID: user.ID,
		OrderID:    chi.URLParam(r, "orderID"),
		ProductID:  data.ProductID,
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	middlewares.EncodeJSONResponse(w, item)
}

// RemoveItem обрабатывает HTTP-запрос на удаление позиции заказа.
// Удаление последней позиции отменяет заказ целиком.
func RemoveItem(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	result, err := (*orderService).RemoveItem(r.Context(), models.RemoveItemRequest{
		CustomerID: user.ID,
		OrderID:    chi.URLParam(r, "orderID"),
		ProductID:  chi.URLParam(r, "productID"),
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	if !result.LedgerSynced {
		w.Header().Set(ledgerSyncHeader, "failed")
	}

	middlewares.EncodeJSONResponse(w, result)
}

// CancelOrder обрабатывает HTTP-запрос на отмену заказа.
func CancelOrder(w http.ResponseWriter, r *http.Request) {
	orderService := middlewares.GetServiceFromContext[models.OrderService](w, r, middlewares.OrderServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	result, err := (*orderService).CancelOrder(r.Context(), models.CancelOrderRequest{
		CustomerID: user.ID,
		OrderID:    chi.URLParam(r, "orderID"),
	})
	if err != nil {
		writeOrderError(w, err)
		return
	}

	if !result.LedgerSynced {
		w.Header().Set(ledgerSyncHeader, "failed")
	}

	middlewares.EncodeJSONResponse(w, result)
}

// creditLimitExceededResponse — тело ответа при превышении кредитного лимита.
type creditLimitExceededResponse struct {
	Error      string `json:"error"`
	ExceededBy string `json:"exceeded_by"`
}

// writeOrderError отображает ошибки координатора на HTTP-статусы.
// Единая точка отображения: все обработчики заказов обязаны ходить через нее.
func writeOrderError(w http.ResponseWriter, err error) {
	var exceeded *services.CreditLimitExceededError
	if errors.As(err, &exceeded) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		if err := json.NewEncoder(w).Encode(creditLimitExceededResponse{
			Error:      "Превышен кредитный лимит",
			ExceededBy: exceeded.ExceededBy.StringFixed(2),
		}); err != nil {
			logger.Log.Error("Не удалось отправить ответ", zap.Error(err))
		}
		return
	}

	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		http.Error(w, "Заказ не найден", http.StatusNotFound)
	case errors.Is(err, services.ErrOrderItemNotFound):
		http.Error(w, "Позиция заказа не найдена", http.StatusNotFound)
	case errors.Is(err, services.ErrOrderFrozen):
		http.Error(w, "Погрузочный лист сформирован, заказ заморожен", http.StatusConflict)
	case errors.Is(err, services.ErrOrderCancelled):
		http.Error(w, "Заказ отменен", http.StatusConflict)
	case errors.Is(err, services.ErrDuplicateOrderProduct):
		http.Error(w, "Товар уже есть в заказе, измените количество", http.StatusConflict)
	case errors.Is(err, services.ErrNoOrderItems):
		http.Error(w, "Заказ не содержит позиций с положительным количеством", http.StatusUnprocessableEntity)
	case errors.Is(err, services.ErrEmptyOrder):
		http.Error(w, "После правки в заказе не осталось позиций", http.StatusUnprocessableEntity)
	case errors.Is(err, services.ErrInvalidShift):
		http.Error(w, "Смена заказа должна быть AM или PM", http.StatusUnprocessableEntity)
	case errors.Is(err, services.ErrProductNotFound):
		http.Error(w, "Товар не найден в каталоге", http.StatusUnprocessableEntity)
	case errors.Is(err, services.ErrCreditCheckFailed):
		http.Error(w, "Кредитная книга недоступна, попробуйте позже", http.StatusBadGateway)
	default:
		http.Error(w, fmt.Sprintf("Произошла ошибка при обработке заказа: %s", err.Error()), http.StatusInternalServerError)
	}
}
