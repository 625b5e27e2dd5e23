package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kodbank/apiserver/internal/storage"
	"github.com/kodbank/apiserver/types"
)

const (
	statementContentType  = "text/csv"
	msgStorageUnavailable = "Statement storage is not configured"
	msgStatementNotFound  = "Statement not found"
)

var statementHeader = []string{"id", "date", "title", "category", "type", "status", "amount"}

// ObjectStore is the subset of object storage used for statements.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// StatementService exports a user's ledger as CSV into object storage.
type StatementService struct {
	transactions TransactionRepository
	objects      ObjectStore
}

// NewStatementService constructs the service. objects may be nil, in which
// case every operation reports the feature as unavailable.
func NewStatementService(transactions TransactionRepository, objects ObjectStore) *StatementService {
	return &StatementService{transactions: transactions, objects: objects}
}

func statementKey(userID int, id string) string {
	return fmt.Sprintf("statements/%d/%s.csv", userID, id)
}

// Export renders every transaction of the user and uploads the CSV.
func (s *StatementService) Export(ctx context.Context, userID int) (types.Statement, error) {
	if s.objects == nil {
		return types.Statement{}, newUnavailableError(msgStorageUnavailable)
	}

	transactions, err := s.transactions.ListAll(ctx, userID)
	if err != nil {
		return types.Statement{}, newInternalError("list statement transactions", err)
	}

	data, err := renderStatement(transactions)
	if err != nil {
		return types.Statement{}, newInternalError("render statement", err)
	}

	id := uuid.NewString()
	key := statementKey(userID, id)
	if err := s.objects.Put(ctx, key, bytes.NewReader(data), int64(len(data)), statementContentType); err != nil {
		return types.Statement{}, newInternalError("upload statement", err)
	}

	return types.Statement{
		ID:        id,
		Key:       key,
		Count:     len(transactions),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Open returns a reader for one of the user's statements. The caller closes
// it.
func (s *StatementService) Open(ctx context.Context, userID int, id string) (io.ReadCloser, error) {
	key, err := s.resolve(userID, id)
	if err != nil {
		return nil, err
	}

	reader, err := s.objects.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, newNotFoundError(msgStatementNotFound)
		}
		return nil, newInternalError("open statement", err)
	}
	return reader, nil
}

// Delete removes one of the user's statements.
func (s *StatementService) Delete(ctx context.Context, userID int, id string) error {
	key, err := s.resolve(userID, id)
	if err != nil {
		return err
	}
	if err := s.objects.Delete(ctx, key); err != nil {
		return newInternalError("delete statement", err)
	}
	return nil
}

// resolve maps a client-supplied id onto a key inside the user's prefix.
func (s *StatementService) resolve(userID int, id string) (string, error) {
	if s.objects == nil {
		return "", newUnavailableError(msgStorageUnavailable)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", newNotFoundError(msgStatementNotFound)
	}
	return statementKey(userID, parsed.String()), nil
}

func renderStatement(transactions []types.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(statementHeader); err != nil {
		return nil, err
	}
	for _, t := range transactions {
		record := []string{
			strconv.Itoa(t.ID),
			t.Date.UTC().Format(time.RFC3339),
			t.Title,
			t.Category,
			string(t.Type),
			string(t.Status),
			t.Amount.StringFixed(2),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
