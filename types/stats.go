package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserStats holds the aggregate figures shown on a user's dashboard.
// Exactly one row exists per registered user.
type UserStats struct {
	UserID          int             `json:"user_id" db:"user_id"`
	TotalBalance    decimal.Decimal `json:"total_balance" db:"total_balance"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income" db:"monthly_income"`
	MonthlyExpenses decimal.Decimal `json:"monthly_expenses" db:"monthly_expenses"`
	TotalSavings    decimal.Decimal `json:"total_savings" db:"total_savings"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}
