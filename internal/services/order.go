package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ruslanbay/milk-indent/internal/database"
	"github.com/ruslanbay/milk-indent/internal/logger"
	"github.com/ruslanbay/milk-indent/internal/models"
	"github.com/ruslanbay/milk-indent/internal/utils"
)

// Определяем ошибки, связанные с заказами
var (
	ErrNoOrderItems          = errors.New("заказ не содержит позиций с положительным количеством")
	ErrEmptyOrder            = errors.New("после правки в заказе не осталось позиций")
	ErrOrderNotFound         = errors.New("заказ не найден")
	ErrOrderFrozen           = errors.New("погрузочный лист сформирован, заказ заморожен")
	ErrOrderCancelled        = errors.New("заказ отменен")
	ErrOrderItemNotFound     = errors.New("позиция заказа не найдена")
	ErrInvalidShift          = errors.New("недопустимая смена заказа")
	ErrCreditCheckFailed     = errors.New("кредитная книга недоступна, проверка лимита невозможна")
	ErrDuplicateOrderProduct = errors.New("товар уже есть в заказе")
)

// CreditLimitExceededError возвращается, когда сумма заказа превышает
// доступный кредитный лимит. Несет сумму превышения.
type CreditLimitExceededError struct {
	ExceededBy decimal.Decimal
}

func (e *CreditLimitExceededError) Error() string {
	return fmt.Sprintf("превышен кредитный лимит на %s", e.ExceededBy.StringFixed(2))
}

// OrderService — координатор жизненного цикла заказа. Держит порядок шагов:
// проверка лимита до записи строгая, сверка с книгой после записи мягкая.
type OrderService struct {
	storage orderStorage
	ledger  creditLedger
	pricer  linePricer
}

// Интерфейс хранилища для работы с заказами и намерениями сверки
type orderStorage interface {
	CreateOrder(ctx context.Context, order database.OrderDB, items []database.OrderItemDB) error
	FindOrder(ctx context.Context, orderID string) (*database.OrderDB, error)
	FindOrderItems(ctx context.Context, orderID string) ([]database.OrderItemDB, error)
	FindOrdersForCustomer(ctx context.Context, customerID string, date *time.Time) ([]database.OrderDB, error)
	ReplaceLineItems(ctx context.Context, orderID string, items []database.OrderItemDB, newTotal decimal.Decimal) error
	AppendLineItem(ctx context.Context, item database.OrderItemDB) error
	DeleteLineItem(ctx context.Context, orderID, productID string) error
	CancelOrder(ctx context.Context, orderID string) error
	MarkLoadingSlipGenerated(ctx context.Context, orderID string) error
	CreateLedgerIntent(ctx context.Context, intent database.LedgerIntentDB) (int64, error)
	MarkLedgerIntent(ctx context.Context, id int64, status database.LedgerIntentStatus) error
}

// Интерфейс кредитной книги
type creditLedger interface {
	GetCreditLimit(ctx context.Context, customerID string) (models.CreditLimit, error)
	Deduct(ctx context.Context, customerID string, amountChange decimal.Decimal) error
	Increase(ctx context.Context, customerID string, amountToIncrease decimal.Decimal) error
	UpdateAmountDue(ctx context.Context, customerID string, totalOrderAmount, originalOrderAmount decimal.Decimal) error
}

// Интерфейс разрешения цены позиции
type linePricer interface {
	ResolveLineItem(ctx context.Context, customerID, productID string) (*models.OrderLineItem, error)
}

// NewOrderService создает новый экземпляр OrderService
func NewOrderService(storage orderStorage, ledger creditLedger, pricer linePricer) *OrderService {
	return &OrderService{storage: storage, ledger: ledger, pricer: pricer}
}

// PlaceOrder размещает новый заказ.
// Позиции с нулевым или отрицательным количеством отбрасываются до подсчета
// суммы; если не осталось ни одной, заказ не создается. Лимит проверяется до
// записи: при недоступности книги или превышении лимита ничего не
// персистится и книга не изменяется.
func (o *OrderService) PlaceOrder(ctx context.Context, req models.PlaceOrderRequest) (*models.OrderMutationResult, error) {
	if !req.Shift.Valid() {
		return nil, ErrInvalidShift
	}

	var items []models.OrderLineItem

	for _, input := range req.Items {
		if input.Quantity <= 0 {
			continue
		}

		line, err := o.pricer.ResolveLineItem(ctx, req.CustomerID, input.ProductID)
		if err != nil {
			return nil, err
		}

		line.Quantity = input.Quantity
		items = append(items, *line)
	}

	if len(items) == 0 {
		return nil, ErrNoOrderItems
	}

	total := orderTotal(items)

	if err := o.checkCreditLimit(ctx, req.CustomerID, total); err != nil {
		return nil, err
	}

	placedOn := req.Date
	if placedOn.IsZero() {
		placedOn = time.Now()
	}

	order := database.OrderDB{
		ID:          uuid.NewString(),
		CustomerID:  req.CustomerID,
		Shift:       database.OrderShiftDB{OrderShift: req.Shift},
		PlacedOn:    placedOn,
		TotalAmount: total,
	}

	if err := o.storage.CreateOrder(ctx, order, itemsToDB(order.ID, items)); err != nil {
		return nil, fmt.Errorf("ошибка создания заказа: %w", err)
	}

	// Заказ размещен; дальнейшие вызовы книги не могут его отменить.
	synced := o.reconcileLedger(ctx, order.CustomerID, order.ID, total, decimal.Zero)

	return &models.OrderMutationResult{
		Order:        orderToModel(order, items),
		LedgerSynced: synced,
	}, nil
}

// UpdateOrder целиком заменяет набор позиций заказа.
// Количества берутся из запроса, цены остаются зафиксированными в позициях.
// Позиции с количеством <= 0 и позиции, не вошедшие в запрос, удаляются.
// Прежняя сумма перечитывается из хранилища тем же шагом, что и проверка
// лимита, чтобы дельта не считалась от устаревшего значения.
func (o *OrderService) UpdateOrder(ctx context.Context, req models.UpdateOrderRequest) (*models.OrderMutationResult, error) {
	order, err := o.findMutableOrder(ctx, req.CustomerID, req.OrderID)
	if err != nil {
		return nil, err
	}

	stored, err := o.storage.FindOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения позиций заказа: %w", err)
	}

	byProduct := make(map[string]database.OrderItemDB, len(stored))
	for _, item := range stored {
		byProduct[item.ProductID] = item
	}

	var newItems []database.OrderItemDB

	for _, input := range req.Items {
		if input.Quantity <= 0 {
			continue
		}

		item, ok := byProduct[input.ProductID]
		if !ok {
			return nil, ErrOrderItemNotFound
		}

		item.Quantity = input.Quantity
		newItems = append(newItems, item)
	}

	if len(newItems) == 0 {
		return nil, ErrEmptyOrder
	}

	newTotal := itemsDBTotal(newItems)
	originalTotal := order.TotalAmount

	if err := o.checkCreditLimit(ctx, order.CustomerID, newTotal); err != nil {
		return nil, err
	}

	if err := o.storage.ReplaceLineItems(ctx, order.ID, newItems, newTotal); err != nil {
		return nil, fmt.Errorf("ошибка замены позиций заказа: %w", err)
	}

	synced := o.reconcileLedger(ctx, order.CustomerID, order.ID, newTotal, originalTotal)

	order.TotalAmount = newTotal

	return &models.OrderMutationResult{
		Order:        orderToModel(*order, itemsToModel(newItems)),
		LedgerSynced: synced,
	}, nil
}

// AddItem добавляет один товар в заказ с количеством 1.
// Цена разрешается по трехступенчатой схеме и фиксируется в позиции.
// Кредитная книга на этом шаге не трогается: сверка происходит только при
// размещении, полной правке и отмене заказа.
func (o *OrderService) AddItem(ctx context.Context, req models.AddItemRequest) (*models.OrderLineItem, error) {
	order, err := o.findMutableOrder(ctx, req.CustomerID, req.OrderID)
	if err != nil {
		return nil, err
	}

	stored, err := o.storage.FindOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения позиций заказа: %w", err)
	}

	for _, item := range stored {
		if item.ProductID == req.ProductID {
			return nil, ErrDuplicateOrderProduct
		}
	}

	line, err := o.pricer.ResolveLineItem(ctx, order.CustomerID, req.ProductID)
	if err != nil {
		return nil, err
	}

	line.Quantity = 1

	if err := o.storage.AppendLineItem(ctx, itemToDB(order.ID, *line)); err != nil {
		if errors.Is(err, database.ErrDuplicateOrderItem) {
			return nil, ErrDuplicateOrderProduct
		}
		return nil, fmt.Errorf("ошибка добавления позиции: %w", err)
	}

	return line, nil
}

// RemoveItem удаляет одну позицию заказа.
// Удаление последней позиции равнозначно отмене всего заказа: пустой заказ
// не остается.
func (o *OrderService) RemoveItem(ctx context.Context, req models.RemoveItemRequest) (*models.OrderMutationResult, error) {
	order, err := o.findMutableOrder(ctx, req.CustomerID, req.OrderID)
	if err != nil {
		return nil, err
	}

	stored, err := o.storage.FindOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения позиций заказа: %w", err)
	}

	found := false
	for _, item := range stored {
		if item.ProductID == req.ProductID {
			found = true
			break
		}
	}

	if !found {
		return nil, ErrOrderItemNotFound
	}

	if len(stored) == 1 {
		return o.cancel(ctx, order)
	}

	if err := o.storage.DeleteLineItem(ctx, order.ID, req.ProductID); err != nil {
		return nil, fmt.Errorf("ошибка удаления позиции: %w", err)
	}

	remaining := make([]database.OrderItemDB, 0, len(stored)-1)
	for _, item := range stored {
		if item.ProductID != req.ProductID {
			remaining = append(remaining, item)
		}
	}

	return &models.OrderMutationResult{
		Order:        orderToModel(*order, itemsToModel(remaining)),
		LedgerSynced: true,
	}, nil
}

// CancelOrder отменяет заказ. Позиции сохраняются для истории.
func (o *OrderService) CancelOrder(ctx context.Context, req models.CancelOrderRequest) (*models.OrderMutationResult, error) {
	order, err := o.findMutableOrder(ctx, req.CustomerID, req.OrderID)
	if err != nil {
		return nil, err
	}

	return o.cancel(ctx, order)
}

// cancel выполняет саму отмену: запись в хранилище обязательна, возврат
// суммы в книгу — по возможности. Отмена считается успешной после записи
// независимо от исхода вызовов книги.
func (o *OrderService) cancel(ctx context.Context, order *database.OrderDB) (*models.OrderMutationResult, error) {
	if err := o.storage.CancelOrder(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("ошибка отмены заказа: %w", err)
	}

	synced := o.reconcileLedger(ctx, order.CustomerID, order.ID, decimal.Zero, order.TotalAmount)

	order.Cancelled = true

	items, err := o.storage.FindOrderItems(ctx, order.ID)
	if err != nil {
		logger.Log.Error("failed to read items of cancelled order",
			zap.String("orderID", order.ID), zap.Error(err))
		items = nil
	}

	return &models.OrderMutationResult{
		Order:        orderToModel(*order, itemsToModel(items)),
		LedgerSynced: synced,
	}, nil
}

// GetOrder возвращает заказ покупателя вместе с позициями
func (o *OrderService) GetOrder(ctx context.Context, customerID, orderID string) (*models.Order, error) {
	order, err := o.findOwnedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	items, err := o.storage.FindOrderItems(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения позиций заказа: %w", err)
	}

	return orderToModel(*order, itemsToModel(items)), nil
}

// GetOrders возвращает заказы покупателя, опционально за дату,
// отсортированные по времени размещения
func (o *OrderService) GetOrders(ctx context.Context, customerID string, date *time.Time) ([]models.Order, error) {
	orders, err := o.storage.FindOrdersForCustomer(ctx, customerID, date)
	if err != nil {
		return []models.Order{}, fmt.Errorf("ошибка поиска заказов: %w", err)
	}

	result := make([]models.Order, len(orders))
	for i, order := range orders {
		result[i] = *orderToModel(order, nil)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].PlacedOn.Time.Before(result[j].PlacedOn.Time)
	})

	return result, nil
}

// GenerateLoadingSlip замораживает заказ после формирования погрузочного
// листа. Дальше заказ не принимает никаких изменений.
func (o *OrderService) GenerateLoadingSlip(ctx context.Context, orderID string) error {
	order, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("ошибка поиска заказа: %w", err)
	}

	if order == nil {
		return ErrOrderNotFound
	}

	if order.Cancelled {
		return ErrOrderCancelled
	}

	if err := o.storage.MarkLoadingSlipGenerated(ctx, orderID); err != nil {
		return fmt.Errorf("ошибка заморозки заказа: %w", err)
	}

	return nil
}

// checkCreditLimit запрашивает доступный лимит и сверяет с ним сумму заказа.
// Недоступность книги прерывает операцию: без проверки лимита изменение
// не допускается.
func (o *OrderService) checkCreditLimit(ctx context.Context, customerID string, total decimal.Decimal) error {
	limit, err := o.ledger.GetCreditLimit(ctx, customerID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCreditCheckFailed, err.Error())
	}

	if !limit.Allows(total) {
		return &CreditLimitExceededError{ExceededBy: limit.ExceededBy(total)}
	}

	return nil
}

// reconcileLedger выполняет компенсирующие вызовы книги после фиксации
// изменения заказа: дельту (deduct либо increase) и затем сведение
// задолженности. Вызовы best-effort: неудача логируется, помечается в
// намерениях и возвращается как предупреждение, но изменение заказа
// остается в силе.
func (o *OrderService) reconcileLedger(ctx context.Context, customerID, orderID string, newTotal, originalTotal decimal.Decimal) bool {
	delta := newTotal.Sub(originalTotal)
	synced := true

	if delta.IsPositive() {
		ok := o.runLedgerIntent(ctx, database.LedgerIntentDB{
			OrderID:    orderID,
			CustomerID: customerID,
			Kind:       database.IntentDeduct,
			Amount:     delta,
		}, func() error {
			return o.ledger.Deduct(ctx, customerID, delta)
		})
		synced = synced && ok
	} else if delta.IsNegative() {
		amount := delta.Neg()
		ok := o.runLedgerIntent(ctx, database.LedgerIntentDB{
			OrderID:    orderID,
			CustomerID: customerID,
			Kind:       database.IntentIncrease,
			Amount:     amount,
		}, func() error {
			return o.ledger.Increase(ctx, customerID, amount)
		})
		synced = synced && ok
	}

	ok := o.runLedgerIntent(ctx, database.LedgerIntentDB{
		OrderID:        orderID,
		CustomerID:     customerID,
		Kind:           database.IntentAmountDue,
		Amount:         newTotal,
		OriginalAmount: originalTotal,
	}, func() error {
		return o.ledger.UpdateAmountDue(ctx, customerID, newTotal, originalTotal)
	})

	return synced && ok
}

// runLedgerIntent записывает намерение, выполняет вызов книги и помечает
// исход. По неудавшимся намерениям сверка воспроизводится отдельно.
func (o *OrderService) runLedgerIntent(ctx context.Context, intent database.LedgerIntentDB, call func() error) bool {
	intentID, err := o.storage.CreateLedgerIntent(ctx, intent)
	if err != nil {
		logger.Log.Error("failed to record ledger intent",
			zap.String("orderID", intent.OrderID),
			zap.String("kind", string(intent.Kind)),
			zap.Error(err))
	}

	if err := call(); err != nil {
		logger.Log.Error("ledger reconciliation failed",
			zap.String("orderID", intent.OrderID),
			zap.String("kind", string(intent.Kind)),
			zap.Error(err))

		if intentID != 0 {
			if err := o.storage.MarkLedgerIntent(ctx, intentID, database.IntentStatusFailed); err != nil {
				logger.Log.Error("failed to mark ledger intent", zap.Error(err))
			}
		}

		return false
	}

	if intentID != 0 {
		if err := o.storage.MarkLedgerIntent(ctx, intentID, database.IntentStatusDone); err != nil {
			logger.Log.Error("failed to mark ledger intent", zap.Error(err))
		}
	}

	return true
}

// findMutableOrder находит заказ покупателя и проверяет, что он допускает
// изменения
func (o *OrderService) findMutableOrder(ctx context.Context, customerID, orderID string) (*database.OrderDB, error) {
	order, err := o.findOwnedOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	if order.LoadingSlipGenerated {
		return nil, ErrOrderFrozen
	}

	if order.Cancelled {
		return nil, ErrOrderCancelled
	}

	return order, nil
}

// findOwnedOrder находит заказ и проверяет принадлежность покупателю.
// Чужой заказ неотличим от несуществующего.
func (o *OrderService) findOwnedOrder(ctx context.Context, customerID, orderID string) (*database.OrderDB, error) {
	order, err := o.storage.FindOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("ошибка поиска заказа: %w", err)
	}

	if order == nil || order.CustomerID != customerID {
		return nil, ErrOrderNotFound
	}

	return order, nil
}

// orderTotal считает сумму заказа по позициям с явным округлением до копеек
func orderTotal(items []models.OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		total = total.Add(item.Amount())
	}

	return total.Round(2)
}

func itemsDBTotal(items []database.OrderItemDB) decimal.Decimal {
	return orderTotal(itemsToModel(items))
}

func itemToDB(orderID string, item models.OrderLineItem) database.OrderItemDB {
	dbItem := database.OrderItemDB{
		OrderID:   orderID,
		ProductID: item.ProductID,
		Name:      item.Name,
		Category:  item.Category,
		UnitPrice: item.UnitPrice,
		Quantity:  item.Quantity,
	}

	if item.TaxRate != nil {
		dbItem.TaxRate = decimal.NewNullDecimal(*item.TaxRate)
	}

	return dbItem
}

func itemsToDB(orderID string, items []models.OrderLineItem) []database.OrderItemDB {
	result := make([]database.OrderItemDB, len(items))
	for i, item := range items {
		result[i] = itemToDB(orderID, item)
	}

	return result
}

func itemsToModel(items []database.OrderItemDB) []models.OrderLineItem {
	result := make([]models.OrderLineItem, len(items))
	for i, item := range items {
		result[i] = models.OrderLineItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Category:  item.Category,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
		if item.TaxRate.Valid {
			taxRate := item.TaxRate.Decimal
			result[i].TaxRate = &taxRate
		}
	}

	return result
}

func orderToModel(order database.OrderDB, items []models.OrderLineItem) *models.Order {
	return &models.Order{
		ID:                   order.ID,
		CustomerID:           order.CustomerID,
		Shift:                order.Shift.OrderShift,
		PlacedOn:             utils.RFC3339Date{Time: order.PlacedOn},
		TotalAmount:          order.TotalAmount,
		LoadingSlipGenerated: order.LoadingSlipGenerated,
		Cancelled:            order.Cancelled,
		Items:                items,
	}
}
