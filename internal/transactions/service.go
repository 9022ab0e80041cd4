package transactions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nmartinez-dev/expensio-backend/pkg/db/models"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

// CreateInput is the service-level create payload. UserID is already
// resolved by the HTTP layer (body value or requester headers). Amount is a
// pointer so a literal zero survives validation.
type CreateInput struct {
	UserID    string
	Email     *string
	Title     string
	Amount    *decimal.Decimal
	Category  *string
	Note      *string
	CreatedAt *time.Time
}

// Service exposes the ledger operations.
type Service interface {
	List(ctx context.Context, userID string) ([]TransactionDTO, error)
	Create(ctx context.Context, input CreateInput) (*TransactionDTO, error)
	Delete(ctx context.Context, id int64) (*TransactionDTO, error)
	Summarize(ctx context.Context, userID string) (*SummaryDTO, error)
	UserCounts(ctx context.Context) ([]UserCountDTO, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the ledger service.
func NewService(repo Repository, logg *logger.Logger) Service {
	return &service{repo: repo, logg: logg}
}

func (s *service) List(ctx context.Context, userID string) ([]TransactionDTO, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing userId")
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing transactions")
	}
	return fromModels(rows), nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*TransactionDTO, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Category = normalizeOptional(input.Category, true)
	input.Note = normalizeOptional(input.Note, true)
	input.Email = normalizeOptional(input.Email, false)

	if input.UserID == "" || input.Title == "" || input.Amount == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			"Missing or invalid fields: user_id, title and numeric amount are required")
	}

	txn := &models.Transaction{
		UserID:   input.UserID,
		Email:    input.Email,
		Title:    input.Title,
		Amount:   *input.Amount,
		Category: input.Category,
		Note:     input.Note,
	}
	if input.CreatedAt != nil {
		txn.CreatedAt = *input.CreatedAt
	}

	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating transaction")
	}

	if s.logg != nil {
		created := s.logg.WithFields(ctx, map[string]any{
			"transaction_id": txn.ID,
			"user_id":        txn.UserID,
		})
		s.logg.Info(created, "transaction.created")
	}
	return FromModel(txn), nil
}

// Delete removes a row by id. Rows are deletable by any caller; ownership is
// not checked. Tightening that to requester == row owner is a product
// decision, not something to slip in here.
func (s *service) Delete(ctx context.Context, id int64) (*TransactionDTO, error) {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting transaction")
	}

	if s.logg != nil {
		removed := s.logg.WithField(ctx, "transaction_id", deleted.ID)
		s.logg.Info(removed, "transaction.deleted")
	}
	return FromModel(deleted), nil
}

func (s *service) Summarize(ctx context.Context, userID string) (*SummaryDTO, error) {
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Missing userId")
	}

	summary, err := s.repo.SummaryByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summarizing transactions")
	}
	return &SummaryDTO{
		Balance:  summary.Balance,
		Income:   summary.Income,
		Expenses: summary.Expenses,
	}, nil
}

func (s *service) UserCounts(ctx context.Context) ([]UserCountDTO, error) {
	counts, err := s.repo.CountsByUser(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting transactions per user")
	}

	dtos := make([]UserCountDTO, 0, len(counts))
	for _, c := range counts {
		dtos = append(dtos, UserCountDTO{UserID: c.UserID, Count: c.Count})
	}
	return dtos, nil
}

// normalizeOptional maps nil and empty strings to nil so optional columns
// land as SQL NULL, matching the rows existing clients expect.
func normalizeOptional(s *string, trim bool) *string {
	if s == nil {
		return nil
	}
	v := *s
	if trim {
		v = strings.TrimSpace(v)
	}
	if v == "" {
		return nil
	}
	return &v
}
