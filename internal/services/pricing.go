package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ruslanbay/milk-indent/internal/database"
	"github.com/ruslanbay/milk-indent/internal/models"
)

var (
	ErrProductNotFound = errors.New("товар не найден в каталоге")
)

// PricingService разрешает цену товара для покупателя и отдает каталог.
type PricingService struct {
	storage pricingStorage
}

// Интерфейс хранилища для работы с ценами
type pricingStorage interface {
	FindCustomerPrice(ctx context.Context, customerID, productID string) (*decimal.Decimal, error)
	FindLatestPaidPrice(ctx context.Context, productID string) (*decimal.Decimal, error)
	FindProduct(ctx context.Context, productID string) (*database.ProductDB, error)
	FindAllProducts(ctx context.Context) ([]database.ProductDB, error)
}

// NewPricingService создает новый экземпляр PricingService
func NewPricingService(storage pricingStorage) *PricingService {
	return &PricingService{storage: storage}
}

// ResolveLineItem собирает позицию заказа по товару каталога: имя, категорию
// и ставку налога из каталога, цену — по трехступенчатой схеме. Количество
// заполняет вызывающая сторона.
func (p *PricingService) ResolveLineItem(ctx context.Context, customerID, productID string) (*models.OrderLineItem, error) {
	product, err := p.storage.FindProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска товара: %w", err)
	}

	if product == nil {
		return nil, ErrProductNotFound
	}

	price, err := p.resolveUnitPrice(ctx, customerID, product)
	if err != nil {
		return nil, err
	}

	item := &models.OrderLineItem{
		ProductID: product.ID,
		Name:      product.Name,
		Category:  product.Category,
		UnitPrice: price,
	}

	if product.TaxRate.Valid {
		taxRate := product.TaxRate.Decimal
		item.TaxRate = &taxRate
	}

	return item, nil
}

// resolveUnitPrice выбирает цену по порядку:
// 1) договорная цена покупателя;
// 2) последняя цена, по которой товар заказывали;
// 3) прайсовая цена каталога.
func (p *PricingService) resolveUnitPrice(ctx context.Context, customerID string, product *database.ProductDB) (decimal.Decimal, error) {
	customerPrice, err := p.storage.FindCustomerPrice(ctx, customerID, product.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка разрешения цены: %w", err)
	}

	if customerPrice != nil {
		return *customerPrice, nil
	}

	latestPrice, err := p.storage.FindLatestPaidPrice(ctx, product.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ошибка разрешения цены: %w", err)
	}

	if latestPrice != nil {
		return *latestPrice, nil
	}

	return product.Price, nil
}

// ListProducts возвращает каталог товаров
func (p *PricingService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := p.storage.FindAllProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения каталога: %w", err)
	}

	result := make([]models.Product, len(products))
	for i, product := range products {
		item := models.Product{
			ID:       product.ID,
			Name:     product.Name,
			Category: product.Category,
			Price:    product.Price,
		}
		if product.TaxRate.Valid {
			taxRate := product.TaxRate.Decimal
			item.TaxRate = &taxRate
		}
		result[i] = item
	}

	return result, nil
}
