package services

import (
	"context"
	"errors"

	"github.com/kodbank/apiserver/internal/store"
	"github.com/kodbank/apiserver/types"
)

const recentTransactionLimit = 10

// StatsRepository reads per-user statistics.
type StatsRepository interface {
	GetByUserID(ctx context.Context, userID int) (types.UserStats, error)
}

// TransactionRepository reads a user's ledger.
type TransactionRepository interface {
	ListRecent(ctx context.Context, userID, limit int) ([]types.Transaction, error)
	ListAll(ctx context.Context, userID int) ([]types.Transaction, error)
}

// Dashboard is the read model behind GET /api/dashboard. Stats is nil when
// the user has no stats row.
type Dashboard struct {
	User         types.UserSummary
	Stats        *types.UserStats
	Transactions []types.Transaction
}

// DashboardService assembles the dashboard read model.
type DashboardService struct {
	users        UserRepository
	stats        StatsRepository
	transactions TransactionRepository
}

func NewDashboardService(users UserRepository, stats StatsRepository, transactions TransactionRepository) *DashboardService {
	return &DashboardService{users: users, stats: stats, transactions: transactions}
}

// Get loads the user's profile, stats and most recent transactions.
func (s *DashboardService) Get(ctx context.Context, userID int) (Dashboard, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Dashboard{}, newNotFoundError(msgUserNotFound)
		}
		return Dashboard{}, newInternalError("load dashboard user", err)
	}

	dashboard := Dashboard{User: user.Summary()}

	stats, err := s.stats.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		dashboard.Stats = &stats
	case !errors.Is(err, store.ErrNotFound):
		return Dashboard{}, newInternalError("load dashboard stats", err)
	}

	dashboard.Transactions, err = s.transactions.ListRecent(ctx, userID, recentTransactionLimit)
	if err != nil {
		return Dashboard{}, newInternalError("load dashboard transactions", err)
	}
	return dashboard, nil
}
