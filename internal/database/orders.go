package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ruslanbay/milk-indent/internal/models"
)

// Определение пользовательских ошибок
var (
	ErrDuplicateOrder     = errors.New("заказ уже существует")
	ErrDuplicateOrderItem = errors.New("позиция заказа уже существует")
)

// SQL-запросы для работы с заказами
const (
	InsertOrderQuery = `
		INSERT INTO
			orders (id, customer_id, shift, placed_on, total_amount)
		VALUES ($1, $2, $3, $4, $5)
	`
	InsertOrderItemQuery = `
		INSERT INTO
			order_items (order_id, product_id, name, category, unit_price, quantity, tax_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	SelectOrderQuery = `
		SELECT
			id,
			customer_id,
			shift,
			placed_on,
			total_amount,
			loading_slip_generated,
			cancelled
		FROM
			orders
		WHERE
			id = $1
	`
	SelectOrderItemsQuery = `
		SELECT
			order_id,
			product_id,
			name,
			category,
			unit_price,
			quantity,
			tax_rate
		FROM
			order_items
		WHERE
			order_id = $1
		ORDER BY
			product_id
	`
	SelectOrdersForCustomerQuery = `
		SELECT
			id,
			customer_id,
			shift,
			placed_on,
			total_amount,
			loading_slip_generated,
			cancelled
		FROM
			orders
		WHERE
			customer_id = $1
	`
	DeleteOrderItemsQuery = `
		DELETE FROM
			order_items
		WHERE
			order_id = $1
	`
	DeleteOrderItemQuery = `
		DELETE FROM
			order_items
		WHERE
			order_id = $1 AND product_id = $2
	`
	UpdateOrderTotalQuery = `
		UPDATE
			orders
		SET
			total_amount = $2
		WHERE
			id = $1
	`
	CancelOrderQuery = `
		UPDATE
			orders
		SET
			cancelled = true
		WHERE
			id = $1
	`
	MarkLoadingSlipQuery = `
		UPDATE
			orders
		SET
			loading_slip_generated = true
		WHERE
			id = $1
	`
)

// Структура для хранения заголовка заказа
type OrderDB struct {
	ID                   string
	CustomerID           string
	Shift                OrderShiftDB
	PlacedOn             time.Time
	TotalAmount          decimal.Decimal
	LoadingSlipGenerated bool
	Cancelled            bool
}

// Структура для хранения позиции заказа
type OrderItemDB struct {
	OrderID   string
	ProductID string
	Name      string
	Category  string
	UnitPrice decimal.Decimal
	Quantity  int
	TaxRate   decimal.NullDecimal
}

// Определение смены заказа с возможностью преобразования в/из базы данных
type OrderShiftDB struct {
	models.OrderShift
}

// Реализация интерфейса sql.Scanner для чтения смены заказа из базы данных
func (s *OrderShiftDB) Scan(value interface{}) error {
	strVal, ok := value.(string)
	if !ok {
		return fmt.Errorf("смена заказа должна быть строкой, а не %T", value)
	}

	*s = OrderShiftDB{models.OrderShift(strVal)}
	return nil
}

// Реализация интерфейса driver.Valuer для преобразования смены заказа в строку перед записью в базу данных
func (s OrderShiftDB) Value() (driver.Value, error) {
	return string(s.OrderShift), nil
}

// Создание нового заказа вместе с позициями в одной транзакции
func (d *Database) CreateOrder(ctx context.Context, order OrderDB, items []OrderItemDB) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, InsertOrderQuery,
		order.ID, order.CustomerID, order.Shift, order.PlacedOn, order.TotalAmount)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("ошибка создания заказа: %w", err)
	}

	for _, item := range items {
		if err := insertOrderItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

func insertOrderItem(ctx context.Context, tx pgx.Tx, item OrderItemDB) error {
	_, err := tx.Exec(ctx, InsertOrderItemQuery,
		item.OrderID, item.ProductID, item.Name, item.Category,
		item.UnitPrice, item.Quantity, item.TaxRate)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateOrderItem
		}
		return fmt.Errorf("ошибка создания позиции заказа: %w", err)
	}

	return nil
}

// Поиск заказа по его ID
func (d *Database) FindOrder(ctx context.Context, orderID string) (*OrderDB, error) {
	order := &OrderDB{}

	err := d.db.QueryRow(ctx, SelectOrderQuery, orderID).
		Scan(&order.ID, &order.CustomerID, &order.Shift, &order.PlacedOn,
			&order.TotalAmount, &order.LoadingSlipGenerated, &order.Cancelled)
	if err != nil {
		// Если заказ не найден, возвращаем nil без ошибки
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска заказа: %w", err)
	}

	return order, nil
}

// Поиск позиций заказа
func (d *Database) FindOrderItems(ctx context.Context, orderID string) ([]OrderItemDB, error) {
	rows, err := d.db.Query(ctx, SelectOrderItemsQuery, orderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска позиций заказа: %w", err)
	}
	defer rows.Close()

	var result []OrderItemDB

	for rows.Next() {
		var item OrderItemDB
		if err := rows.Scan(&item.OrderID, &item.ProductID, &item.Name, &item.Category,
			&item.UnitPrice, &item.Quantity, &item.TaxRate); err != nil {
			return nil, fmt.Errorf("ошибка обработки строки с позицией заказа: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по строкам: %w", err)
	}

	return result, nil
}

// Поиск заказов покупателя, опционально за конкретную дату
func (d *Database) FindOrdersForCustomer(ctx context.Context, customerID string, date *time.Time) ([]OrderDB, error) {
	query := SelectOrdersForCustomerQuery
	args := []interface{}{customerID}

	if date != nil {
		query += ` AND placed_on::date = $2::date`
		args = append(args, *date)
	}

	rows, err := d.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заказов покупателя: %w", err)
	}
	defer rows.Close()

	var result []OrderDB

	for rows.Next() {
		var item OrderDB
		if err := rows.Scan(&item.ID, &item.CustomerID, &item.Shift, &item.PlacedOn,
			&item.TotalAmount, &item.LoadingSlipGenerated, &item.Cancelled); err != nil {
			return nil, fmt.Errorf("ошибка обработки строки с заказом: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по строкам: %w", err)
	}

	return result, nil
}

// ReplaceLineItems заменяет набор позиций заказа и его сумму в одной транзакции
func (d *Database) ReplaceLineItems(ctx context.Context, orderID string, items []OrderItemDB, newTotal decimal.Decimal) error {
	tx, err := d.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка открытия транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, DeleteOrderItemsQuery, orderID); err != nil {
		return fmt.Errorf("ошибка удаления позиций заказа: %w", err)
	}

	for _, item := range items {
		if err := insertOrderItem(ctx, tx, item); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, UpdateOrderTotalQuery, orderID, newTotal); err != nil {
		return fmt.Errorf("ошибка обновления суммы заказа: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

// AppendLineItem добавляет одну позицию к существующему заказу
func (d *Database) AppendLineItem(ctx context.Context, item OrderItemDB) error {
	_, err := d.db.Exec(ctx, InsertOrderItemQuery,
		item.OrderID, item.ProductID, item.Name, item.Category,
		item.UnitPrice, item.Quantity, item.TaxRate)
	if err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateOrderItem
		}
		return fmt.Errorf("ошибка добавления позиции заказа: %w", err)
	}

	return nil
}

// DeleteLineItem удаляет одну позицию заказа
func (d *Database) DeleteLineItem(ctx context.Context, orderID, productID string) error {
	_, err := d.db.Exec(ctx, DeleteOrderItemQuery, orderID, productID)
	if err != nil {
		return fmt.Errorf("ошибка удаления позиции заказа: %w", err)
	}

	return nil
}

// CancelOrder помечает заказ отмененным. Позиции сохраняются для истории.
func (d *Database) CancelOrder(ctx context.Context, orderID string) error {
	_, err := d.db.Exec(ctx, CancelOrderQuery, orderID)
	if err != nil {
		return fmt.Errorf("ошибка отмены заказа: %w", err)
	}

	return nil
}

// MarkLoadingSlipGenerated замораживает заказ после формирования погрузочного листа
func (d *Database) MarkLoadingSlipGenerated(ctx context.Context, orderID string) error {
	_, err := d.db.Exec(ctx, MarkLoadingSlipQuery, orderID)
	if err != nil {
		return fmt.Errorf("ошибка заморозки заказа: %w", err)
	}

	return nil
}
