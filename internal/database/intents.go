package database

import (
	"context"
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Виды намерений сверки с кредитной книгой
type LedgerIntentKind string

const (
	IntentDeduct    LedgerIntentKind = "DEDUCT"
	IntentIncrease  LedgerIntentKind = "INCREASE"
	IntentAmountDue LedgerIntentKind = "AMOUNT_DUE"
)

// Статусы намерений
type LedgerIntentStatus string

const (
	IntentStatusPending LedgerIntentStatus = "PENDING"
	IntentStatusDone    LedgerIntentStatus = "DONE"
	IntentStatusFailed  LedgerIntentStatus = "FAILED"
)

func (k LedgerIntentKind) Value() (driver.Value, error)   { return string(k), nil }
func (s LedgerIntentStatus) Value() (driver.Value, error) { return string(s), nil }

func (k *LedgerIntentKind) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("вид намерения должен быть строкой, а не %T", value)
	}
	*k = LedgerIntentKind(strVal)
	return nil
}

func (s *LedgerIntentStatus) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("статус намерения должен быть строкой, а не %T", value)
	}
	*s = LedgerIntentStatus(strVal)
	return nil
}

const (
	InsertLedgerIntentQuery = `
		INSERT INTO
			ledger_intents (order_id, customer_id, kind, amount, original_amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	UpdateLedgerIntentStatusQuery = `
		UPDATE
			ledger_intents
		SET
			status = $2
		WHERE
			id = $1
	`
	SelectUnfinishedLedgerIntentsQuery = `
		SELECT
			id,
			order_id,
			customer_id,
			kind,
			amount,
			original_amount,
			status
		FROM
			ledger_intents
		WHERE
			status IN ('PENDING', 'FAILED')
		ORDER BY
			id
	`
)

// LedgerIntentDB — запись о намерении выполнить вызов кредитной книги после
// фиксации изменения заказа. По этим записям сверка воспроизводится, если
// вызов не прошел.
type LedgerIntentDB struct {
	ID             int64
	OrderID        string
	CustomerID     string
	Kind           LedgerIntentKind
	Amount         decimal.Decimal
	OriginalAmount decimal.Decimal
	Status         LedgerIntentStatus
}

// CreateLedgerIntent создает запись намерения в статусе PENDING
func (d *Database) CreateLedgerIntent(ctx context.Context, intent LedgerIntentDB) (int64, error) {
	var id int64

	err := d.db.QueryRow(ctx, InsertLedgerIntentQuery,
		intent.OrderID, intent.CustomerID, intent.Kind, intent.Amount, intent.OriginalAmount).
		Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания намерения сверки: %w", err)
	}

	return id, nil
}

// MarkLedgerIntent переводит намерение в заданный статус
func (d *Database) MarkLedgerIntent(ctx context.Context, id int64, status LedgerIntentStatus) error {
	_, err := d.db.Exec(ctx, UpdateLedgerIntentStatusQuery, id, status)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса намерения: %w", err)
	}

	return nil
}

// FindUnfinishedLedgerIntents возвращает намерения, требующие повторной сверки
func (d *Database) FindUnfinishedLedgerIntents(ctx context.Context) ([]LedgerIntentDB, error) {
	rows, err := d.db.Query(ctx, SelectUnfinishedLedgerIntentsQuery)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска намерений сверки: %w", err)
	}
	defer rows.Close()

	var result []LedgerIntentDB

	for rows.Next() {
		var item LedgerIntentDB
		if err := rows.Scan(&item.ID, &item.OrderID, &item.CustomerID, &item.Kind,
			&item.Amount, &item.OriginalAmount, &item.Status); err != nil {
			return nil, fmt.Errorf("ошибка обработки строки с намерением: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по строкам: %w", err)
	}

	return result, nil
}
