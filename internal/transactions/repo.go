package transactions

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nmartinez-dev/expensio-backend/pkg/db/models"
)

// Summary is the aggregate row computed in SQL. COALESCE guarantees zeros,
// never nulls, when no rows match.
type Summary struct {
	Balance  decimal.Decimal
	Income   decimal.Decimal
	Expenses decimal.Decimal
}

// UserCount is one group of the per-user row counts.
type UserCount struct {
	UserID string
	Count  int64
}

// Repository manages persistence for ledger rows.
type Repository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Transaction, error)
	Create(ctx context.Context, txn *models.Transaction) error
	DeleteByID(ctx context.Context, id int64) (*models.Transaction, error)
	SummaryByUser(ctx context.Context, userID string) (*Summary, error)
	CountsByUser(ctx context.Context) ([]UserCount, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ListByUser(ctx context.Context, userID string) ([]models.Transaction, error) {
	var rows []models.Transaction
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// DeleteByID removes the row and returns it in a single delete-returning
// statement. A missing row surfaces as gorm.ErrRecordNotFound.
func (r *repository) DeleteByID(ctx context.Context, id int64) (*models.Transaction, error) {
	var deleted []models.Transaction
	result := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Delete(&deleted)
	if result.Error != nil {
		return nil, result.Error
	}
	if len(deleted) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &deleted[0], nil
}

const summaryQuery = `
SELECT
    COALESCE(SUM(amount), 0) AS balance,
    COALESCE(SUM(amount) FILTER (WHERE amount > 0), 0) AS income,
    COALESCE(SUM(amount) FILTER (WHERE amount < 0), 0) AS expenses
FROM transactions
WHERE user_id = ?`

func (r *repository) SummaryByUser(ctx context.Context, userID string) (*Summary, error) {
	var summary Summary
	if err := r.db.WithContext(ctx).Raw(summaryQuery, userID).Scan(&summary).Error; err != nil {
		return nil, err
	}
	return &summary, nil
}

const countsQuery = `
SELECT user_id, COUNT(*) AS count
FROM transactions
GROUP BY user_id
ORDER BY count DESC`

func (r *repository) CountsByUser(ctx context.Context) ([]UserCount, error) {
	var counts []UserCount
	if err := r.db.WithContext(ctx).Raw(countsQuery).Scan(&counts).Error; err != nil {
		return nil, err
	}
	return counts, nil
}
