package models

import "time"

// Канонические запросы на изменение заказа. Каждая операция координатора
// принимает ровно один из этих типов; обработчики транспорта обязаны
// собирать их целиком, чтобы поля (включая ставку налога) не терялись
// на отдельных путях.

// LineItemInput описывает позицию заказа во входящем запросе.
// Цена не передается: она разрешается сервисом цен в момент добавления.
type LineItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest — размещение нового заказа с начальным набором позиций.
type PlaceOrderRequest struct {
	CustomerID string
	Shift      OrderShift
	Date       time.Time
	Items      []LineItemInput
}

// UpdateOrderRequest — полная замена набора позиций заказа.
// Позиции с quantity <= 0 и позиции, отсутствующие в наборе, удаляются.
type UpdateOrderRequest struct {
	CustomerID string
	OrderID    string
	Items      []LineItemInput
}

// AddItemRequest — добавление одного товара в заказ с количеством 1.
type AddItemRequest struct {
	CustomerID string
	OrderID    string
	ProductID  string
}

// RemoveItemRequest — удаление одной позиции заказа.
type RemoveItemRequest struct {
	CustomerID string
	OrderID    string
	ProductID  string
}

// CancelOrderRequest — отмена заказа.
type CancelOrderRequest struct {
	CustomerID string
	OrderID    string
}

// OrderMutationResult — результат операции над заказом.
// LedgerSynced=false означает, что заказ изменен, но сверка с кредитной
// книгой после записи не удалась; это предупреждение, а не ошибка.
type OrderMutationResult struct {
	Order        *Order `json:"order"`
	LedgerSynced bool   `json:"ledger_synced"`
}
