package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kodbank/apiserver/internal/db"
	"github.com/kodbank/apiserver/types"
)

// UserRepository handles persistence for users and their onboarding rows.
type UserRepository struct {
	db *db.DB
}

func NewUserRepository(conn *db.DB) *UserRepository {
	return &UserRepository{db: conn}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE id = ?`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT id, name, email, password_hash, created_at
		FROM users
		WHERE email = ?`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	var user types.User
	err := r.db.QueryRowContext(ctx, r.db.Dialect.Rebind(query), arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// CreateAccount inserts the user, a zeroed stats row and the given opening
// transactions in a single database transaction. It returns ErrConflict if
// the email is already registered; on any failure nothing is persisted.
func (r *UserRepository) CreateAccount(ctx context.Context, user types.User, opening []types.Transaction) (types.User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.User{}, fmt.Errorf("begin account tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing int
	err = tx.QueryRowContext(ctx, r.db.Dialect.Rebind(`SELECT id FROM users WHERE email = ?`), user.Email).Scan(&existing)
	switch {
	case err == nil:
		return types.User{}, ErrConflict
	case !errors.Is(err, sql.ErrNoRows):
		return types.User{}, fmt.Errorf("check existing user: %w", err)
	}

	const insertUser = `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		r.db.Dialect.Rebind(insertUser),
		user.Name,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		if r.db.Dialect.IsUniqueViolation(err) {
			return types.User{}, ErrConflict
		}
		return types.User{}, fmt.Errorf("insert user: %w", err)
	}

	const insertStats = `INSERT INTO user_stats (user_id, updated_at) VALUES (?, ?)`
	if _, err := tx.ExecContext(ctx, r.db.Dialect.Rebind(insertStats), user.ID, now); err != nil {
		return types.User{}, fmt.Errorf("insert user stats: %w", err)
	}

	const insertTransaction = `
		INSERT INTO transactions (user_id, title, category, amount, type, status, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, r.db.Dialect.Rebind(insertTransaction))
	if err != nil {
		return types.User{}, fmt.Errorf("prepare opening transactions: %w", err)
	}
	defer stmt.Close()

	for _, t := range opening {
		date := t.Date
		if date.IsZero() {
			date = now
		}
		if _, err := stmt.ExecContext(ctx, user.ID, t.Title, t.Category, t.Amount.String(), string(t.Type), string(t.Status), date); err != nil {
			return types.User{}, fmt.Errorf("insert opening transaction %q: %w", t.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.User{}, fmt.Errorf("commit account tx: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = ?`
	result, err := r.db.ExecContext(ctx, r.db.Dialect.Rebind(query), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
