package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The mobile client reads amounts as bare JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction is one income or expense row in the ledger. Rows are immutable
// once created; the only mutation path is a hard delete.
type Transaction struct {
	ID        int64           `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string          `gorm:"column:user_id;type:text;not null;index"`
	Email     *string         `gorm:"column:email;type:text"`
	Title     string          `gorm:"column:title;type:text;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:numeric;not null"`
	Category  *string         `gorm:"column:category;type:text"`
	Note      *string         `gorm:"column:note;type:text"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
