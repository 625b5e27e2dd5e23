package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kodbank/apiserver/internal/db"
	"github.com/kodbank/apiserver/types"
)

// StatsRepository reads per-user aggregate statistics.
type StatsRepository struct {
	db *db.DB
}

func NewStatsRepository(conn *db.DB) *StatsRepository {
	return &StatsRepository{db: conn}
}

func (r *StatsRepository) GetByUserID(ctx context.Context, userID int) (types.UserStats, error) {
	const query = `
		SELECT user_id, total_balance, monthly_income, monthly_expenses, total_savings, updated_at
		FROM user_stats
		WHERE user_id = ?`
	var stats types.UserStats
	err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(query), userID).Scan(
		&stats.UserID,
		&stats.TotalBalance,
		&stats.MonthlyIncome,
		&stats.MonthlyExpenses,
		&stats.TotalSavings,
		&stats.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.UserStats{}, ErrNotFound
		}
		return types.UserStats{}, err
	}
	return stats, nil
}
