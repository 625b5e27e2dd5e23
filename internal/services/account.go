package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kodbank/apiserver/internal/events"
	"github.com/kodbank/apiserver/internal/store"
	"github.com/kodbank/apiserver/types"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgFieldsRequired     = "All fields are required"
	msgCredentialsMissing = "Email and password are required"
	msgInvalidCredentials = "Invalid credentials"
	msgUserExists         = "User already exists"
	msgUserNotFound       = "User not found"
	msgPasswordTooLong    = "Password must be at most 72 bytes"
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	CreateAccount(ctx context.Context, user types.User, opening []types.Transaction) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// EventPublisher receives domain events after a state change commits.
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event)
}

// RegisterInput carries the fields of a registration request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// AccountService encapsulates registration and credential checks.
type AccountService struct {
	repo   UserRepository
	events EventPublisher
}

func NewAccountService(repo UserRepository, publisher EventPublisher) *AccountService {
	return &AccountService{repo: repo, events: publisher}
}

// OpeningTransactions are the sample ledger entries every new account starts
// with.
func OpeningTransactions() []types.Transaction {
	return []types.Transaction{
		{Title: "Apple Store", Category: "Technology", Amount: decimal.RequireFromString("-999.00"), Type: types.TransactionExpense, Status: types.TransactionCompleted},
		{Title: "Starbucks Coffee", Category: "Food & Drink", Amount: decimal.RequireFromString("-15.50"), Type: types.TransactionExpense, Status: types.TransactionCompleted},
		{Title: "Salary Deposit", Category: "Income", Amount: decimal.RequireFromString("5000.00"), Type: types.TransactionIncome, Status: types.TransactionCompleted},
		{Title: "Amazon Prime", Category: "Subscription", Amount: decimal.RequireFromString("-14.99"), Type: types.TransactionExpense, Status: types.TransactionPending},
	}
}

// Register creates the user together with its stats row and opening
// transactions. No session is issued.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return types.User{}, newValidationError(msgFieldsRequired)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return types.User{}, newValidationError(msgPasswordTooLong)
		}
		return types.User{}, newInternalError("hash password", err)
	}

	user, err := s.repo.CreateAccount(ctx, types.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashed),
	}, OpeningTransactions())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, newConflictError(msgUserExists)
		}
		return types.User{}, newInternalError("create account", err)
	}

	if s.events != nil {
		s.events.Publish(ctx, events.Event{
			Type:   events.TypeUserRegistered,
			UserID: user.ID,
			Data:   map[string]any{"email": user.Email},
		})
	}
	return user, nil
}

// dummyHash is compared against when the email is unknown so that both
// credential failures cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("kodbank-unknown-account"), bcrypt.DefaultCost)
	return hash
})

// Authenticate returns the user owning email if password matches. Unknown
// emails and wrong passwords fail with the same error.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return types.User{}, newValidationError(msgCredentialsMissing)
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			return types.User{}, newAuthError(msgInvalidCredentials)
		}
		return types.User{}, newInternalError("load user by email", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, newAuthError(msgInvalidCredentials)
	}
	return user, nil
}

// GetByID returns the user or a not-found error.
func (s *AccountService) GetByID(ctx context.Context, id int) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, newNotFoundError(msgUserNotFound)
		}
		return types.User{}, newInternalError("load user", err)
	}
	return user, nil
}

// DeleteByEmail removes the account and, through cascading keys, all rows it
// owns.
func (s *AccountService) DeleteByEmail(ctx context.Context, email string) error {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newNotFoundError(msgUserNotFound)
		}
		return newInternalError("load user by email", err)
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newNotFoundError(msgUserNotFound)
		}
		return newInternalError("delete user", err)
	}
	return nil
}
