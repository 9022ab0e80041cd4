package transactions

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nmartinez-dev/expensio-backend/pkg/db/models"
)

// TransactionDTO mirrors a ledger row on the wire. Optional columns stay
// pointers so absent values serialize as JSON null, exactly like the rows the
// mobile client already consumes.
type TransactionDTO struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Email     *string         `json:"email"`
	Title     string          `json:"title"`
	Amount    decimal.Decimal `json:"amount"`
	Category  *string         `json:"category"`
	Note      *string         `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

// SummaryDTO carries the three aggregates. Expenses keep their negative sign.
type SummaryDTO struct {
	Balance  decimal.Decimal `json:"balance"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// UserCountDTO is one row of the dev-only per-user count listing.
type UserCountDTO struct {
	UserID string `json:"user_id"`
	Count  int64  `json:"cnt"`
}

func FromModel(t *models.Transaction) *TransactionDTO {
	if t == nil {
		return nil
	}
	return &TransactionDTO{
		ID:        t.ID,
		UserID:    t.UserID,
		Email:     t.Email,
		Title:     t.Title,
		Amount:    t.Amount,
		Category:  t.Category,
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
	}
}

func fromModels(rows []models.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, *FromModel(&rows[i]))
	}
	return dtos
}
