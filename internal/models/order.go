package models

import (
	"github.com/shopspring/decimal"

	"github.com/ruslanbay/milk-indent/internal/utils"
)

// OrderShift определяет смену доставки заказа.
type OrderShift string

const (
	ShiftAM OrderShift = "AM"
	ShiftPM OrderShift = "PM"
)

// Valid проверяет, что значение смены является одним из допустимых.
func (s OrderShift) Valid() bool {
	return s == ShiftAM || s == ShiftPM
}

// Order представляет заказ (индент) на конкретную дату и смену.
// TotalAmount всегда равен сумме quantity × unit_price по позициям с quantity > 0.
type Order struct {
	ID                   string            `json:"id"`
	CustomerID           string            `json:"-"`
	Shift                OrderShift        `json:"shift"`
	PlacedOn             utils.RFC3339Date `json:"placed_on"`
	TotalAmount          decimal.Decimal   `json:"total_amount"`
	LoadingSlipGenerated bool              `json:"loading_slip_generated"`
	Cancelled            bool              `json:"cancelled"`
	Items                []OrderLineItem   `json:"items"`
}

// Mutable сообщает, допускает ли заказ изменения.
// После формирования погрузочного листа и после отмены заказ заморожен.
func (o *Order) Mutable() bool {
	return !o.LoadingSlipGenerated && !o.Cancelled
}

// OrderLineItem представляет позицию заказа.
// UnitPrice фиксируется в момент добавления товара и не пересчитывается при правках.
type OrderLineItem struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	Category  string           `json:"category"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	Quantity  int              `json:"quantity"`
	TaxRate   *decimal.Decimal `json:"tax_rate,omitempty"`
}

// Amount возвращает стоимость позиции.
func (i OrderLineItem) Amount() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Product представляет товар каталога.
type Product struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Category string           `json:"category"`
	Price    decimal.Decimal  `json:"price"`
	TaxRate  *decimal.Decimal `json:"tax_rate,omitempty"`
}
