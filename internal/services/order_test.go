package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruslanbay/milk-indent/internal/database"
	"github.com/ruslanbay/milk-indent/internal/models"
)

// fakeOrderStorage хранит заказы в памяти и записывает все изменяющие вызовы.
type fakeOrderStorage struct {
	orders map[string]database.OrderDB
	items  map[string][]database.OrderItemDB

	intents     []database.LedgerIntentDB
	intentMarks map[int64]database.LedgerIntentStatus

	createdOrders []database.OrderDB
	replacedCalls int
	deletedItems  []string
	cancelledIDs  []string
	frozenIDs     []string

	createOrderErr error
}

func newFakeOrderStorage() *fakeOrderStorage {
	return &fakeOrderStorage{
		orders:      make(map[string]database.OrderDB),
		items:       make(map[string][]database.OrderItemDB),
		intentMarks: make(map[int64]database.LedgerIntentStatus),
	}
}

func (f *fakeOrderStorage) CreateOrder(_ context.Context, order database.OrderDB, items []database.OrderItemDB) error {
	if f.createOrderErr != nil {
		return f.createOrderErr
	}
	f.orders[order.ID] = order
	f.items[order.ID] = items
	f.createdOrders = append(f.createdOrders, order)
	return nil
}

func (f *fakeOrderStorage) FindOrder(_ context.Context, orderID string) (*database.OrderDB, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, nil
	}
	return &order, nil
}

func (f *fakeOrderStorage) FindOrderItems(_ context.Context, orderID string) ([]database.OrderItemDB, error) {
	return f.items[orderID], nil
}

func (f *fakeOrderStorage) FindOrdersForCustomer(_ context.Context, customerID string, date *time.Time) ([]database.OrderDB, error) {
	var result []database.OrderDB
	for _, order := range f.orders {
		if order.CustomerID != customerID {
			continue
		}
		if date != nil && !sameDate(order.PlacedOn, *date) {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

func (f *fakeOrderStorage) ReplaceLineItems(_ context.Context, orderID string, items []database.OrderItemDB, newTotal decimal.Decimal) error {
	f.replacedCalls++
	f.items[orderID] = items
	order := f.orders[orderID]
	order.TotalAmount = newTotal
	f.orders[orderID] = order
	return nil
}

func (f *fakeOrderStorage) AppendLineItem(_ context.Context, item database.OrderItemDB) error {
	f.items[item.OrderID] = append(f.items[item.OrderID], item)
	return nil
}

func (f *fakeOrderStorage) DeleteLineItem(_ context.Context, orderID, productID string) error {
	f.deletedItems = append(f.deletedItems, productID)
	var remaining []database.OrderItemDB
	for _, item := range f.items[orderID] {
		if item.ProductID != productID {
			remaining = append(remaining, item)
		}
	}
	f.items[orderID] = remaining
	return nil
}

func (f *fakeOrderStorage) CancelOrder(_ context.Context, orderID string) error {
	f.cancelledIDs = append(f.cancelledIDs, orderID)
	order := f.orders[orderID]
	order.Cancelled = true
	f.orders[orderID] = order
	return nil
}

func (f *fakeOrderStorage) MarkLoadingSlipGenerated(_ context.Context, orderID string) error {
	f.frozenIDs = append(f.frozenIDs, orderID)
	order := f.orders[orderID]
	order.LoadingSlipGenerated = true
	f.orders[orderID] = order
	return nil
}

func (f *fakeOrderStorage) CreateLedgerIntent(_ context.Context, intent database.LedgerIntentDB) (int64, error) {
	intent.ID = int64(len(f.intents) + 1)
	f.intents = append(f.intents, intent)
	return intent.ID, nil
}

func (f *fakeOrderStorage) MarkLedgerIntent(_ context.Context, id int64, status database.LedgerIntentStatus) error {
	f.intentMarks[id] = status
	return nil
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// fakeLedger записывает все вызовы кредитной книги.
type fakeLedger struct {
	limit    models.CreditLimit
	limitErr error

	deductErr    error
	increaseErr  error
	amountDueErr error

	deducts    []decimal.Decimal
	increases  []decimal.Decimal
	amountDues [][2]decimal.Decimal
}

func (f *fakeLedger) GetCreditLimit(_ context.Context, _ string) (models.CreditLimit, error) {
	if f.limitErr != nil {
		return models.CreditLimit{}, f.limitErr
	}
	return f.limit, nil
}

func (f *fakeLedger) Deduct(_ context.Context, _ string, amountChange decimal.Decimal) error {
	if f.deductErr != nil {
		return f.deductErr
	}
	f.deducts = append(f.deducts, amountChange)
	return nil
}

func (f *fakeLedger) Increase(_ context.Context, _ string, amountToIncrease decimal.Decimal) error {
	if f.increaseErr != nil {
		return f.increaseErr
	}
	f.increases = append(f.increases, amountToIncrease)
	return nil
}

func (f *fakeLedger) UpdateAmountDue(_ context.Context, _ string, totalOrderAmount, originalOrderAmount decimal.Decimal) error {
	if f.amountDueErr != nil {
		return f.amountDueErr
	}
	f.amountDues = append(f.amountDues, [2]decimal.Decimal{totalOrderAmount, originalOrderAmount})
	return nil
}

// fakePricer разрешает цены по фиксированной таблице.
type fakePricer struct {
	lines map[string]models.OrderLineItem
}

func (f *fakePricer) ResolveLineItem(_ context.Context, _, productID string) (*models.OrderLineItem, error) {
	line, ok := f.lines[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	return &line, nil
}

func money(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func seedOrder(storage *fakeOrderStorage, customerID string, total decimal.Decimal, items ...database.OrderItemDB) database.OrderDB {
	order := database.OrderDB{
		ID:          "order-1",
		CustomerID:  customerID,
		Shift:       database.OrderShiftDB{OrderShift: models.ShiftAM},
		PlacedOn:    time.Date(2024, 3, 12, 6, 0, 0, 0, time.UTC),
		TotalAmount: total,
	}
	storage.orders[order.ID] = order
	storage.items[order.ID] = items
	return order
}

func TestPlaceOrder(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{
		"milk":  {ProductID: "milk", Name: "Молоко", Category: "dairy", UnitPrice: money("25.50")},
		"bread": {ProductID: "bread", Name: "Хлеб", Category: "bakery", UnitPrice: money("18.00")},
		"curd":  {ProductID: "curd", Name: "Творог", Category: "dairy", UnitPrice: money("40.25")},
	}}

	t.Run("Should drop non-positive quantities and compute total from the rest", func(t *testing.T) {
		storage := newFakeOrderStorage()
		ledger := &fakeLedger{limit: models.NoLimit()}
		service := NewOrderService(storage, ledger, pricer)

		result, err := service.PlaceOrder(context.Background(), models.PlaceOrderRequest{
			CustomerID: "customer-1",
			Shift:      models.ShiftAM,
			Items: []models.LineItemInput{
				{ProductID: "milk", Quantity: 2},
				{ProductID: "bread", Quantity: 0},
				{ProductID: "curd", Quantity: 1},
			},
		})

		require.NoError(t, err)
		require.Len(t, storage.createdOrders, 1)
		assert.True(t, result.LedgerSynced)
		assert.True(t, result.Order.TotalAmount.Equal(money("91.25")))
		assert.Len(t, result.Order.Items, 2)

		require.Len(t, ledger.deducts, 1)
		assert.True(t, ledger.deducts[0].Equal(money("91.25")))
		require.Len(t, ledger.amountDues, 1)
		assert.True(t, ledger.amountDues[0][0].Equal(money("91.25")))
		assert.True(t, ledger.amountDues[0][1].IsZero())
	})

	t.Run("Should reject invalid shift", func(t *testing.T) {
		storage := newFakeOrderStorage()
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		_, err := service.PlaceOrder(context.Background(), models.PlaceOrderRequest{
			CustomerID: "customer-1",
			Shift:      "NOON",
			Items:      []models.LineItemInput{{ProductID: "milk", Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrInvalidShift)
		assert.Empty(t, storage.createdOrders)
	})

	t.Run("Should reject order with no positive quantities", func(t *testing.T) {
		storage := newFakeOrderStorage()
		ledger := &fakeLedger{limit: models.NoLimit()}
		service := NewOrderService(storage, ledger, pricer)

		_, err := service.PlaceOrder(context.Background(), models.PlaceOrderRequest{
			CustomerID: "customer-1",
			Shift:      models.ShiftAM,
			Items: []models.LineItemInput{
				{ProductID: "milk", Quantity: 0},
				{ProductID: "bread", Quantity: -3},
			},
		})

		assert.ErrorIs(t, err, ErrNoOrderItems)
		assert.Empty(t, storage.createdOrders)
		assert.Empty(t, ledger.deducts)
	})

	t.Run("Should reject over-limit order and persist nothing, repeatably", func(t *testing.T) {
		storage := newFakeOrderStorage()
		ledger := &fakeLedger{limit: models.Limited(money("100"))}
		service := NewOrderService(storage, ledger, pricer)

		request := models.PlaceOrderRequest{
			CustomerID: "customer-1",
			Shift:      models.ShiftPM,
			Items:      []models.LineItemInput{{ProductID: "curd", Quantity: 3}}, // 120.75
		}

		for attempt := 0; attempt < 2; attempt++ {
			_, err := service.PlaceOrder(context.Background(), request)

			var exceeded *CreditLimitExceededError
			require.ErrorAs(t, err, &exceeded)
			assert.True(t, exceeded.ExceededBy.Equal(money("20.75")))
		}

		assert.Empty(t, storage.createdOrders)
		assert.Empty(t, storage.intents)
		assert.Empty(t, ledger.deducts)
		assert.Empty(t, ledger.amountDues)
	})

	t.Run("Should abort when the credit ledger is unreachable", func(t *testing.T) {
		storage := newFakeOrderStorage()
		ledger := &fakeLedger{limitErr: errors.New("connection refused")}
		service := NewOrderService(storage, ledger, pricer)

		_, err := service.PlaceOrder(context.Background(), models.PlaceOrderRequest{
			CustomerID: "customer-1",
			Shift:      models.ShiftAM,
			Items:      []models.LineItemInput{{ProductID: "milk", Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrCreditCheckFailed)
		assert.Empty(t, storage.createdOrders)
		assert.Empty(t, storage.intents)
	})

	t.Run("Should keep the order when a post-commit ledger call fails", func(t *testing.T) {
		storage := newFakeOrderStorage()
		ledger := &fakeLedger{limit: models.NoLimit(), deductErr: errors.New("timeout")}
		service := NewOrderService(storage, ledger, pricer)

		result, err := service.PlaceOrder(context.Background(), models.PlaceOrderRequest{
			CustomerID: "customer-1",
			Shift:      models.ShiftAM,
			Items:      []models.LineItemInput{{ProductID: "milk", Quantity: 2}},
		})

		require.NoError(t, err)
		assert.False(t, result.LedgerSynced)
		assert.Len(t, storage.createdOrders, 1)

		// Намерение deduct помечено неуспешным, сведение задолженности прошло.
		require.Len(t, storage.intents, 2)
		assert.Equal(t, database.IntentDeduct, storage.intents[0].Kind)
		assert.Equal(t, database.IntentStatusFailed, storage.intentMarks[1])
		assert.Equal(t, database.IntentStatusDone, storage.intentMarks[2])
	})
}

func TestUpdateOrder(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{}}

	storedItem := func(productID, price string, quantity int) database.OrderItemDB {
		return database.OrderItemDB{
			OrderID:   "order-1",
			ProductID: productID,
			Name:      productID,
			UnitPrice: money(price),
			Quantity:  quantity,
		}
	}

	t.Run("Should reconcile the delta against the ledger", func(t *testing.T) {
		testCases := []struct {
			testName       string
			newQuantity    int
			expectDeduct   string
			expectIncrease string
			expectedTotal  string
		}{
			{
				testName:      "deducts when the total grows",
				newQuantity:   19, // 950
				expectDeduct:  "150",
				expectedTotal: "950",
			},
			{
				testName:       "increases when the total shrinks",
				newQuantity:    12, // 600
				expectIncrease: "200",
				expectedTotal:  "600",
			},
			{
				testName:      "skips the delta call when the total is unchanged",
				newQuantity:   16, // 800
				expectedTotal: "800",
			},
		}

		for _, tc := range testCases {
			t.Run(tc.testName, func(t *testing.T) {
				storage := newFakeOrderStorage()
				seedOrder(storage, "customer-1", money("800"), storedItem("milk", "50", 16))
				ledger := &fakeLedger{limit: models.NoLimit()}
				service := NewOrderService(storage, ledger, pricer)

				result, err := service.UpdateOrder(context.Background(), models.UpdateOrderRequest{
					CustomerID: "customer-1",
					OrderID:    "order-1",
					Items:      []models.LineItemInput{{ProductID: "milk", Quantity: tc.newQuantity}},
				})

				require.NoError(t, err)
				assert.True(t, result.LedgerSynced)
				assert.True(t, result.Order.TotalAmount.Equal(money(tc.expectedTotal)))

				if tc.expectDeduct != "" {
					require.Len(t, ledger.deducts, 1)
					assert.True(t, ledger.deducts[0].Equal(money(tc.expectDeduct)))
				} else {
					assert.Empty(t, ledger.deducts)
				}

				if tc.expectIncrease != "" {
					require.Len(t, ledger.increases, 1)
					assert.True(t, ledger.increases[0].Equal(money(tc.expectIncrease)))
				} else {
					assert.Empty(t, ledger.increases)
				}

				// Сведение задолженности выполняется при любой правке.
				require.Len(t, ledger.amountDues, 1)
				assert.True(t, ledger.amountDues[0][0].Equal(money(tc.expectedTotal)))
				assert.True(t, ledger.amountDues[0][1].Equal(money("800")))
			})
		}
	})

	t.Run("Should reject an edit that exceeds the available limit and keep the order intact", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("800"), storedItem("milk", "50", 16))
		ledger := &fakeLedger{limit: models.Limited(money("800"))}
		service := NewOrderService(storage, ledger, pricer)

		_, err := service.UpdateOrder(context.Background(), models.UpdateOrderRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			Items:      []models.LineItemInput{{ProductID: "milk", Quantity: 19}}, // 950
		})

		var exceeded *CreditLimitExceededError
		require.ErrorAs(t, err, &exceeded)
		assert.True(t, exceeded.ExceededBy.Equal(money("150")))

		assert.Zero(t, storage.replacedCalls)
		assert.True(t, storage.orders["order-1"].TotalAmount.Equal(money("800")))
		assert.Empty(t, ledger.deducts)
		assert.Empty(t, ledger.amountDues)
	})

	t.Run("Should reject a product that is not in the order", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("800"), storedItem("milk", "50", 16))
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		_, err := service.UpdateOrder(context.Background(), models.UpdateOrderRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			Items:      []models.LineItemInput{{ProductID: "bread", Quantity: 1}},
		})

		assert.ErrorIs(t, err, ErrOrderItemNotFound)
		assert.Zero(t, storage.replacedCalls)
	})

	t.Run("Should reject an edit that empties the order", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("800"), storedItem("milk", "50", 16))
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		_, err := service.UpdateOrder(context.Background(), models.UpdateOrderRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			Items:      []models.LineItemInput{{ProductID: "milk", Quantity: 0}},
		})

		assert.ErrorIs(t, err, ErrEmptyOrder)
		assert.Zero(t, storage.replacedCalls)
	})

	t.Run("Should keep the stored unit price on quantity changes", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("51"), storedItem("milk", "25.50", 2))
		ledger := &fakeLedger{limit: models.NoLimit()}
		service := NewOrderService(storage, ledger, pricer)

		result, err := service.UpdateOrder(context.Background(), models.UpdateOrderRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			Items:      []models.LineItemInput{{ProductID: "milk", Quantity: 3}},
		})

		require.NoError(t, err)
		require.Len(t, result.Order.Items, 1)
		assert.True(t, result.Order.Items[0].UnitPrice.Equal(money("25.50")))
		assert.True(t, result.Order.TotalAmount.Equal(money("76.50")))
	})
}

func TestAddItem(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{
		"bread": {ProductID: "bread", Name: "Хлеб", Category: "bakery", UnitPrice: money("18.00")},
	}}

	storedMilk := database.OrderItemDB{
		OrderID:   "order-1",
		ProductID: "milk",
		UnitPrice: money("50"),
		Quantity:  2,
	}

	t.Run("Should add the product with quantity one and leave the ledger alone", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"), storedMilk)
		ledger := &fakeLedger{limit: models.NoLimit()}
		service := NewOrderService(storage, ledger, pricer)

		item, err := service.AddItem(context.Background(), models.AddItemRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			ProductID:  "bread",
		})

		require.NoError(t, err)
		assert.Equal(t, 1, item.Quantity)
		assert.True(t, item.UnitPrice.Equal(money("18.00")))
		assert.Len(t, storage.items["order-1"], 2)

		assert.Empty(t, ledger.deducts)
		assert.Empty(t, ledger.increases)
		assert.Empty(t, ledger.amountDues)
	})

	t.Run("Should reject a product already present in the order", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"), storedMilk)
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, &fakePricer{lines: map[string]models.OrderLineItem{
			"milk": {ProductID: "milk", UnitPrice: money("50")},
		}})

		_, err := service.AddItem(context.Background(), models.AddItemRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			ProductID:  "milk",
		})

		assert.ErrorIs(t, err, ErrDuplicateOrderProduct)
		assert.Len(t, storage.items["order-1"], 1)
	})

	t.Run("Should reject a product missing from the catalog", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"), storedMilk)
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		_, err := service.AddItem(context.Background(), models.AddItemRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			ProductID:  "kefir",
		})

		assert.ErrorIs(t, err, ErrProductNotFound)
	})
}

func TestRemoveItem(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{}}

	t.Run("Should cancel the whole order when the last item is removed", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"), database.OrderItemDB{
			OrderID:   "order-1",
			ProductID: "milk",
			UnitPrice: money("50"),
			Quantity:  2,
		})
		ledger := &fakeLedger{limit: models.NoLimit()}
		service := NewOrderService(storage, ledger, pricer)

		result, err := service.RemoveItem(context.Background(), models.RemoveItemRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			ProductID:  "milk",
		})

		require.NoError(t, err)
		assert.True(t, result.Order.Cancelled)
		assert.Equal(t, []string{"order-1"}, storage.cancelledIDs)
		assert.Empty(t, storage.deletedItems)

		// Возврат всей суммы, как при явной отмене.
		require.Len(t, ledger.increases, 1)
		assert.True(t, ledger.increases[0].Equal(money("100")))
		require.Len(t, ledger.amountDues, 1)
		assert.True(t, ledger.amountDues[0][0].IsZero())
		assert.True(t, ledger.amountDues[0][1].Equal(money("100")))
	})

	t.Run("Should delete a single item and keep the rest", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("136"),
			database.OrderItemDB{OrderID: "order-1", ProductID: "milk", UnitPrice: money("50"), Quantity: 2},
			database.OrderItemDB{OrderID: "order-1", ProductID: "bread", UnitPrice: money("18"), Quantity: 2},
		)
		ledger := &fakeLedger{limit: models.NoLimit()}
		service := NewOrderService(storage, ledger, pricer)

		result, err := service.RemoveItem(context.Background(), models.RemoveItemRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			ProductID:  "bread",
		})

		require.NoError(t, err)
		assert.False(t, result.Order.Cancelled)
		assert.Equal(t, []string{"bread"}, storage.deletedItems)
		assert.Empty(t, storage.cancelledIDs)
		assert.Empty(t, ledger.increases)
	})

	t.Run("Should reject a product that is not in the order", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"), database.OrderItemDB{
			OrderID:   "order-1",
			ProductID: "milk",
			UnitPrice: money("50"),
			Quantity:  2,
		})
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		_, err := service.RemoveItem(context.Background(), models.RemoveItemRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
			ProductID:  "bread",
		})

		assert.ErrorIs(t, err, ErrOrderItemNotFound)
		assert.Empty(t, storage.deletedItems)
	})
}

func TestCancelOrder(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{}}

	t.Run("Should cancel the order and return the full amount to the ledger", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("136"), database.OrderItemDB{
			OrderID:   "order-1",
			ProductID: "milk",
			UnitPrice: money("68"),
			Quantity:  2,
		})
		ledger := &fakeLedger{limit: models.NoLimit()}
		service := NewOrderService(storage, ledger, pricer)

		result, err := service.CancelOrder(context.Background(), models.CancelOrderRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
		})

		require.NoError(t, err)
		assert.True(t, result.LedgerSynced)
		assert.True(t, result.Order.Cancelled)
		// Позиции сохраняются для истории.
		assert.Len(t, result.Order.Items, 1)

		require.Len(t, ledger.increases, 1)
		assert.True(t, ledger.increases[0].Equal(money("136")))
		require.Len(t, ledger.amountDues, 1)
		assert.True(t, ledger.amountDues[0][0].IsZero())
		assert.True(t, ledger.amountDues[0][1].Equal(money("136")))
	})

	t.Run("Should keep the cancellation when ledger calls fail", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("136"))
		ledger := &fakeLedger{limit: models.NoLimit(), increaseErr: errors.New("timeout")}
		service := NewOrderService(storage, ledger, pricer)

		result, err := service.CancelOrder(context.Background(), models.CancelOrderRequest{
			CustomerID: "customer-1",
			OrderID:    "order-1",
		})

		require.NoError(t, err)
		assert.False(t, result.LedgerSynced)
		assert.Equal(t, []string{"order-1"}, storage.cancelledIDs)
	})
}

func TestFrozenAndCancelledOrders(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{
		"bread": {ProductID: "bread", UnitPrice: money("18")},
	}}

	testCases := []struct {
		testName    string
		freeze      func(order *database.OrderDB)
		expectedErr error
	}{
		{
			testName:    "Should reject all mutations after the loading slip is generated",
			freeze:      func(order *database.OrderDB) { order.LoadingSlipGenerated = true },
			expectedErr: ErrOrderFrozen,
		},
		{
			testName:    "Should reject all mutations on a cancelled order",
			freeze:      func(order *database.OrderDB) { order.Cancelled = true },
			expectedErr: ErrOrderCancelled,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.testName, func(t *testing.T) {
			storage := newFakeOrderStorage()
			order := seedOrder(storage, "customer-1", money("100"), database.OrderItemDB{
				OrderID:   "order-1",
				ProductID: "milk",
				UnitPrice: money("50"),
				Quantity:  2,
			})
			tc.freeze(&order)
			storage.orders[order.ID] = order

			ledger := &fakeLedger{limit: models.NoLimit()}
			service := NewOrderService(storage, ledger, pricer)
			ctx := context.Background()

			_, err := service.UpdateOrder(ctx, models.UpdateOrderRequest{
				CustomerID: "customer-1",
				OrderID:    "order-1",
				Items:      []models.LineItemInput{{ProductID: "milk", Quantity: 1}},
			})
			assert.ErrorIs(t, err, tc.expectedErr)

			_, err = service.AddItem(ctx, models.AddItemRequest{
				CustomerID: "customer-1",
				OrderID:    "order-1",
				ProductID:  "bread",
			})
			assert.ErrorIs(t, err, tc.expectedErr)

			_, err = service.RemoveItem(ctx, models.RemoveItemRequest{
				CustomerID: "customer-1",
				OrderID:    "order-1",
				ProductID:  "milk",
			})
			assert.ErrorIs(t, err, tc.expectedErr)

			_, err = service.CancelOrder(ctx, models.CancelOrderRequest{
				CustomerID: "customer-1",
				OrderID:    "order-1",
			})
			assert.ErrorIs(t, err, tc.expectedErr)

			// Ни хранилище, ни книга не тронуты.
			assert.Zero(t, storage.replacedCalls)
			assert.Empty(t, storage.cancelledIDs)
			assert.Empty(t, storage.deletedItems)
			assert.Empty(t, ledger.deducts)
			assert.Empty(t, ledger.increases)
			assert.Empty(t, ledger.amountDues)
		})
	}
}

func TestGetOrder(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{}}

	t.Run("Should hide a foreign order behind not found", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"))
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		_, err := service.GetOrder(context.Background(), "customer-2", "order-1")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("Should return the order with its items", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"), database.OrderItemDB{
			OrderID:   "order-1",
			ProductID: "milk",
			UnitPrice: money("50"),
			Quantity:  2,
		})
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		order, err := service.GetOrder(context.Background(), "customer-1", "order-1")

		require.NoError(t, err)
		assert.Equal(t, "order-1", order.ID)
		assert.Len(t, order.Items, 1)
	})
}

func TestGetOrders(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{}}

	t.Run("Should return orders sorted by placement time", func(t *testing.T) {
		storage := newFakeOrderStorage()
		storage.orders["order-late"] = database.OrderDB{
			ID:         "order-late",
			CustomerID: "customer-1",
			Shift:      database.OrderShiftDB{OrderShift: models.ShiftPM},
			PlacedOn:   time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC),
		}
		storage.orders["order-early"] = database.OrderDB{
			ID:         "order-early",
			CustomerID: "customer-1",
			Shift:      database.OrderShiftDB{OrderShift: models.ShiftAM},
			PlacedOn:   time.Date(2024, 3, 12, 6, 0, 0, 0, time.UTC),
		}
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		orders, err := service.GetOrders(context.Background(), "customer-1", nil)

		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "order-early", orders[0].ID)
		assert.Equal(t, "order-late", orders[1].ID)
	})

	t.Run("Should filter by date", func(t *testing.T) {
		storage := newFakeOrderStorage()
		storage.orders["order-1"] = database.OrderDB{
			ID:         "order-1",
			CustomerID: "customer-1",
			PlacedOn:   time.Date(2024, 3, 12, 6, 0, 0, 0, time.UTC),
		}
		storage.orders["order-2"] = database.OrderDB{
			ID:         "order-2",
			CustomerID: "customer-1",
			PlacedOn:   time.Date(2024, 3, 13, 6, 0, 0, 0, time.UTC),
		}
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		date := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)
		orders, err := service.GetOrders(context.Background(), "customer-1", &date)

		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, "order-2", orders[0].ID)
	})
}

func TestGenerateLoadingSlip(t *testing.T) {
	pricer := &fakePricer{lines: map[string]models.OrderLineItem{}}

	t.Run("Should freeze the order", func(t *testing.T) {
		storage := newFakeOrderStorage()
		seedOrder(storage, "customer-1", money("100"))
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		err := service.GenerateLoadingSlip(context.Background(), "order-1")

		require.NoError(t, err)
		assert.Equal(t, []string{"order-1"}, storage.frozenIDs)
	})

	t.Run("Should reject an unknown order", func(t *testing.T) {
		service := NewOrderService(newFakeOrderStorage(), &fakeLedger{limit: models.NoLimit()}, pricer)

		err := service.GenerateLoadingSlip(context.Background(), "missing")

		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("Should reject a cancelled order", func(t *testing.T) {
		storage := newFakeOrderStorage()
		order := seedOrder(storage, "customer-1", money("100"))
		order.Cancelled = true
		storage.orders[order.ID] = order
		service := NewOrderService(storage, &fakeLedger{limit: models.NoLimit()}, pricer)

		err := service.GenerateLoadingSlip(context.Background(), "order-1")

		assert.ErrorIs(t, err, ErrOrderCancelled)
	})
}
