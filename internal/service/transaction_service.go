package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

// TransactionService reads the payment ledger.
type TransactionService struct {
	roster repository.Roster
	logger *zap.Logger
}

// NewTransactionService constructs the service.
func NewTransactionService(roster repository.Roster, logger *zap.Logger) *TransactionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransactionService{roster: roster, logger: logger}
}

// List returns ledger entries newest first.
func (s *TransactionService) List(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	filter.Type = models.TransactionType(strings.ToUpper(strings.TrimSpace(string(filter.Type))))
	switch filter.Type {
	case "", models.TransactionAdmission, models.TransactionRenewal, models.TransactionAdjustment:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown transaction type")
	}
	txns, err := s.roster.ListTransactions(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transactions")
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	return txns, nil
}

// Get returns one ledger entry.
func (s *TransactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := s.roster.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transaction not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transaction")
	}
	return txn, nil
}
