package store

import (
	"context"

	"github.com/kodbank/apiserver/internal/db"
	"github.com/kodbank/apiserver/types"
)

// TransactionRepository reads a user's ledger.
type TransactionRepository struct {
	db *db.DB
}

func NewTransactionRepository(conn *db.DB) *TransactionRepository {
	return &TransactionRepository{db: conn}
}

// ListRecent returns up to limit transactions, newest first. Rows sharing a
// date are ordered by id so repeated reads are stable.
func (r *TransactionRepository) ListRecent(ctx context.Context, userID, limit int) ([]types.Transaction, error) {
	if limit < 1 {
		limit = 10
	}
	const query = `
		SELECT id, user_id, title, category, amount, type, status, date
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, id DESC
		LIMIT ?`
	return r.list(ctx, query, userID, limit)
}

// ListAll returns every transaction of the user, newest first.
func (r *TransactionRepository) ListAll(ctx context.Context, userID int) ([]types.Transaction, error) {
	const query = `
		SELECT id, user_id, title, category, amount, type, status, date
		FROM transactions
		WHERE user_id = ?
		ORDER BY date DESC, id DESC`
	return r.list(ctx, query, userID)
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]types.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, r.db.Dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := make([]types.Transaction, 0)
	for rows.Next() {
		var t types.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.UserID,
			&t.Title,
			&t.Category,
			&t.Amount,
			&t.Type,
			&t.Status,
			&t.Date,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}
