package models

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

//go:generate mockgen -destination=mocks/mock_auth.go . AuthService
type AuthService interface {
	Register(ctx context.Context, user UnknownUser) error

	Login(ctx context.Context, user UnknownUser) error

	GetUser(ctx context.Context, login string) (*User, error)
}

//go:generate mockgen -destination=mocks/mock_jwt.go . JWTService
type JWTService interface {
	GenerateJWT(subject string) (string, error)

	ValidateToken(token string) (*jwt.Token, error)
}

// OrderService — координатор жизненного цикла заказа: размещение, правка
// позиций, добавление и удаление товара, отмена, а также сопутствующие
// компенсирующие вызовы кредитной книги.
//
//go:generate mockgen -destination=mocks/mock_order.go . OrderService
type OrderService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*OrderMutationResult, error)

	UpdateOrder(ctx context.Context, req UpdateOrderRequest) (*OrderMutationResult, error)

	AddItem(ctx context.Context, req AddItemRequest) (*OrderLineItem, error)

	RemoveItem(ctx context.Context, req RemoveItemRequest) (*OrderMutationResult, error)

	CancelOrder(ctx context.Context, req CancelOrderRequest) (*OrderMutationResult, error)

	GetOrder(ctx context.Context, customerID, orderID string) (*Order, error)

	GetOrders(ctx context.Context, customerID string, date *time.Time) ([]Order, error)

	GenerateLoadingSlip(ctx context.Context, orderID string) error
}

//go:generate mockgen -destination=mocks/mock_credit.go . CreditService
type CreditService interface {
	GetCreditLimit(ctx context.Context, customerID string) (CreditLimit, error)
}

//go:generate mockgen -destination=mocks/mock_catalog.go . CatalogService
type CatalogService interface {
	ListProducts(ctx context.Context) ([]Product, error)
}
