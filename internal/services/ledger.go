package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ruslanbay/milk-indent/internal/models"
)

// Каждый вызов кредитной книги ограничен по времени; по истечении таймаута
// шаг считается неудавшимся.
const ledgerRequestTimeout = 15 * time.Second

var (
	ErrLedgerUnavailable = errors.New("credit ledger is unavailable")
)

// CreditLedgerService — клиент внешнего сервиса кредитной книги.
// Книга владеет балансом сама: сервис только запрашивает доступный лимит и
// отправляет дельта-инструкции, никогда не вычисляя остаток на своей стороне.
type CreditLedgerService struct {
	externalEndpoint string
	client           *http.Client
}

func NewCreditLedgerService(externalEndpoint string) *CreditLedgerService {
	return &CreditLedgerService{
		externalEndpoint: externalEndpoint,
		client:           &http.Client{Timeout: ledgerRequestTimeout},
	}
}

type creditLimitResponse struct {
	CreditLimit *decimal.Decimal `json:"credit_limit"`
}

// GetCreditLimit запрашивает доступный кредитный лимит покупателя.
// Ответ 404 означает, что записи о покупателе нет и лимит не применяется.
// Ошибка транспорта или сервера возвращается как ошибка: вызывающая сторона
// обязана прервать операцию, а не молча разрешить ее.
func (cl *CreditLedgerService) GetCreditLimit(ctx context.Context, customerID string) (models.CreditLimit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/api/credit/%s", cl.externalEndpoint, customerID), nil)
	if err != nil {
		return models.CreditLimit{}, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := cl.client.Do(req)
	if err != nil {
		return models.CreditLimit{}, fmt.Errorf("failed to fetch credit limit: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return models.NoLimit(), nil
	}

	if res.StatusCode != http.StatusOK {
		return models.CreditLimit{}, fmt.Errorf("%w: unexpected status %d", ErrLedgerUnavailable, res.StatusCode)
	}

	var parsedData creditLimitResponse
	var buf bytes.Buffer

	if _, err := buf.ReadFrom(res.Body); err != nil {
		return models.CreditLimit{}, fmt.Errorf("failed to read from response body: %w", err)
	}

	if err := json.Unmarshal(buf.Bytes(), &parsedData); err != nil {
		return models.CreditLimit{}, fmt.Errorf("failed to unmarshal data: %w", err)
	}

	// Запись без значения лимита трактуется как отсутствие ограничения.
	if parsedData.CreditLimit == nil {
		return models.NoLimit(), nil
	}

	return models.Limited(*parsedData.CreditLimit), nil
}

// Deduct уменьшает доступный лимит покупателя на сумму изменения заказа.
func (cl *CreditLedgerService) Deduct(ctx context.Context, customerID string, amountChange decimal.Decimal) error {
	return cl.post(ctx, customerID, "deduct", map[string]decimal.Decimal{
		"amount_change": amountChange,
	})
}

// Increase восстанавливает доступный лимит покупателя на заданную сумму.
func (cl *CreditLedgerService) Increase(ctx context.Context, customerID string, amountToIncrease decimal.Decimal) error {
	return cl.post(ctx, customerID, "increase", map[string]decimal.Decimal{
		"amount_to_increase": amountToIncrease,
	})
}

// UpdateAmountDue сообщает книге текущую и предыдущую сумму заказа,
// чтобы отчетность по задолженности оставалась согласованной.
func (cl *CreditLedgerService) UpdateAmountDue(ctx context.Context, customerID string, totalOrderAmount, originalOrderAmount decimal.Decimal) error {
	return cl.post(ctx, customerID, "amount-due", map[string]decimal.Decimal{
		"total_order_amount":    totalOrderAmount,
		"original_order_amount": originalOrderAmount,
	})
}

func (cl *CreditLedgerService) post(ctx context.Context, customerID, operation string, payload map[string]decimal.Decimal) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/api/credit/%s/%s", cl.externalEndpoint, customerID, operation),
		bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	res, err := cl.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send data by using POST method: %w", err)
	}

	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrLedgerUnavailable, res.StatusCode)
	}

	return nil
}
