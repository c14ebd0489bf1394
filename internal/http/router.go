package router

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ruslanbay/milk-indent/internal/logger"
	"github.com/ruslanbay/milk-indent/internal/middlewares"
	"github.com/ruslanbay/milk-indent/internal/models"
)

type Config struct {
	// Endpoint адрес и порт, на которых сервер будет слушать входящие запросы.
	Endpoint string
}

type Router struct {
	config         Config
	authService    models.AuthService
	jwtService     models.JWTService
	orderService   models.OrderService
	creditService  models.CreditService
	catalogService models.CatalogService
}

// New создает новый экземпляр Router с заданными зависимостями.
func New(
	config Config,
	authService models.AuthService,
	jwtService models.JWTService,
	orderService models.OrderService,
	creditService models.CreditService,
	catalogService models.CatalogService,
) *Router {
	return &Router{
		config:         config,
		authService:    authService,
		jwtService:     jwtService,
		orderService:   orderService,
		creditService:  creditService,
		catalogService: catalogService,
	}
}

// get возвращает настроенный роутер.
func (router *Router) get() chi.Router {
	r := chi.NewRouter()

	r.Use(
		// Инжектор сервисов для предоставления сервисов в обработчиках.
		middlewares.ServiceInjectorMiddleware(
			router.authService,
			router.jwtService,
			router.orderService,
			router.creditService,
			router.catalogService,
		),
		// Логгер для регистрации запросов.
		logger.RequestLogger,
		// Middleware для проверки аутентификации, исключая указанные пути.
		middlewares.AuthMiddleware().WithExcludedPaths(
			"/api/user/register",
			"/api/user/login",
		).Middleware,
	)

	r.Route("/api", func(r chi.Router) {
		// Регистрация нового пользователя.
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/user/register", Register)
		// Аутентификация пользователя.
		r.With(middlewares.JSONMiddleware[models.UnknownUser]).Post("/user/login", Login)

		r.Route("/user/orders", func(r chi.Router) {
			// Размещение заказа.
			r.With(middlewares.JSONMiddleware[PlaceOrderBody]).Post("/", PlaceOrder)
			// Получение списка заказов, опционально за дату.
			r.Get("/", GetOrders)

			r.Route("/{orderID}", func(r chi.Router) {
				// Получение заказа с позициями.
				r.Get("/", GetOrder)
				// Полная замена набора позиций.
				r.With(middlewares.JSONMiddleware[UpdateOrderBody]).Put("/", UpdateOrder)
				// Отмена заказа.
				r.Post("/cancel", CancelOrder)
				// Добавление товара в заказ.
				r.With(middlewares.JSONMiddleware[AddItemBody]).Post("/items", AddItem)
				// Удаление позиции заказа.
				r.Delete("/items/{productID}", RemoveItem)
			})
		})

		// Кредитный лимит покупателя.
		r.Get("/user/credit", GetCredit)

		// Каталог товаров.
		r.Get("/products", GetProducts)

		// Формирование погрузочного листа (замораживает заказ).
		r.With(middlewares.TextMiddleware).Post("/admin/loading-slip", GenerateLoadingSlip)
	})

	return r
}

// Run запускает HTTP сервер на заданном endpoint и начинает принимать запросы.
func (router *Router) Run() {
	log.Fatal(http.ListenAndServe(router.config.Endpoint, router.get()))
}
