package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// SQL-запросы для работы с ценами и каталогом
const (
	SelectCustomerPriceQuery = `
		SELECT
			price
		FROM
			customer_prices
		WHERE
			customer_id = $1 AND product_id = $2
	`
	SelectLatestPaidPriceQuery = `
		SELECT
			oi.unit_price
		FROM
			order_items oi
			JOIN orders o ON o.id = oi.order_id
		WHERE
			oi.product_id = $1
		ORDER BY
			o.placed_on DESC
		LIMIT 1
	`
	SelectProductQuery = `
		SELECT
			id,
			name,
			category,
			price,
			tax_rate
		FROM
			products
		WHERE
			id = $1
	`
	SelectAllProductsQuery = `
		SELECT
			id,
			name,
			category,
			price,
			tax_rate
		FROM
			products
		ORDER BY
			category, name
	`
)

// Структура для хранения товара каталога
type ProductDB struct {
	ID       string
	Name     string
	Category string
	Price    decimal.Decimal
	TaxRate  decimal.NullDecimal
}

// FindCustomerPrice возвращает договорную цену покупателя на товар.
// Если договорной цены нет, возвращается nil без ошибки.
func (d *Database) FindCustomerPrice(ctx context.Context, customerID, productID string) (*decimal.Decimal, error) {
	var price decimal.Decimal

	err := d.db.QueryRow(ctx, SelectCustomerPriceQuery, customerID, productID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска договорной цены: %w", err)
	}

	return &price, nil
}

// FindLatestPaidPrice возвращает последнюю цену, по которой товар был заказан
// любым покупателем. Если товар никогда не заказывали, возвращается nil.
func (d *Database) FindLatestPaidPrice(ctx context.Context, productID string) (*decimal.Decimal, error) {
	var price decimal.Decimal

	err := d.db.QueryRow(ctx, SelectLatestPaidPriceQuery, productID).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска последней цены: %w", err)
	}

	return &price, nil
}

// FindProduct возвращает товар каталога по ID. Если товара нет, возвращается nil.
func (d *Database) FindProduct(ctx context.Context, productID string) (*ProductDB, error) {
	product := &ProductDB{}

	err := d.db.QueryRow(ctx, SelectProductQuery, productID).
		Scan(&product.ID, &product.Name, &product.Category, &product.Price, &product.TaxRate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка поиска товара: %w", err)
	}

	return product, nil
}

// FindAllProducts возвращает весь каталог товаров
func (d *Database) FindAllProducts(ctx context.Context) ([]ProductDB, error) {
	rows, err := d.db.Query(ctx, SelectAllProductsQuery)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска товаров: %w", err)
	}
	defer rows.Close()

	var result []ProductDB

	for rows.Next() {
		var item ProductDB
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Price, &item.TaxRate); err != nil {
			return nil, fmt.Errorf("ошибка обработки строки с товаром: %w", err)
		}
		result = append(result, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка итерации по строкам: %w", err)
	}

	return result, nil
}
