package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CreditLimit представляет доступный кредитный лимит покупателя.
// Отсутствие записи в кредитной книге означает "лимит не ограничен" и
// выражается явным значением NoLimit, а не числовой сентинелью.
type CreditLimit struct {
	limited bool
	amount  decimal.Decimal
}

// NoLimit возвращает неограниченный кредитный лимит.
func NoLimit() CreditLimit {
	return CreditLimit{}
}

// Limited возвращает ограниченный кредитный лимит с заданной доступной суммой.
func Limited(amount decimal.Decimal) CreditLimit {
	return CreditLimit{limited: true, amount: amount}
}

// Limited сообщает, ограничен ли лимит.
func (c CreditLimit) Limited() bool {
	return c.limited
}

// Amount возвращает доступную сумму. Для неограниченного лимита значение не определено.
func (c CreditLimit) Amount() decimal.Decimal {
	return c.amount
}

// Allows проверяет, укладывается ли сумма заказа в доступный лимит.
func (c CreditLimit) Allows(total decimal.Decimal) bool {
	if !c.limited {
		return true
	}
	return total.LessThanOrEqual(c.amount)
}

// ExceededBy возвращает, на сколько сумма заказа превышает доступный лимит.
func (c CreditLimit) ExceededBy(total decimal.Decimal) decimal.Decimal {
	if !c.limited {
		return decimal.Zero
	}
	return total.Sub(c.amount)
}

// MarshalJSON сериализует лимит: {"unlimited":true} либо {"credit_limit":"150.00"}.
func (c CreditLimit) MarshalJSON() ([]byte, error) {
	if !c.limited {
		return json.Marshal(struct {
			Unlimited bool `json:"unlimited"`
		}{true})
	}

	return json.Marshal(struct {
		CreditLimit decimal.Decimal `json:"credit_limit"`
	}{c.amount})
}
