package router

import (
	"fmt"
	"net/http"

	"github.com/ruslanbay/milk-indent/internal/middlewares"
	"github.com/ruslanbay/milk-indent/internal/models"
)

// GetCredit возвращает доступный кредитный лимит авторизованного покупателя.
// Лимит запрашивается у кредитной книги; при ее недоступности операция
// завершается ошибкой, а не молчаливым разрешением.
func GetCredit(w http.ResponseWriter, r *http.Request) {
	creditService := middlewares.GetServiceFromContext[models.CreditService](w, r, middlewares.CreditServiceKey)
	user := middlewares.GetUserFromContext(w, r)

	limit, err := (*creditService).GetCreditLimit(r.Context(), user.ID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Кредитная книга недоступна: %s", err.Error()), http.StatusBadGateway)
		return
	}

	middlewares.EncodeJSONResponse(w, limit)
}
