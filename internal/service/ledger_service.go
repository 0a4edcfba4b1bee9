package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

// LedgerLog appends consumed transaction events to a JSON lines file.
type LedgerLog struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// NewLedgerLog constructs the log, creating its directory.
func NewLedgerLog(path string, logger *zap.Logger) (*LedgerLog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger log dir: %w", err)
	}
	return &LedgerLog{path: path, logger: logger}, nil
}

// Handle decodes one event and appends it. Malformed events are rejected.
func (l *LedgerLog) Handle(_ context.Context, body []byte) error {
	var event models.TransactionRecordedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode transaction event: %w", err)
	}
	if event.Transaction.ID == "" {
		return fmt.Errorf("transaction event without id")
	}
	line, err := json.Marshal(event)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger log: %w", err)
	}
	defer f.Close() //nolint:errcheck
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append ledger log: %w", err)
	}
	l.logger.Info("transaction event recorded",
		zap.String("transaction_id", event.Transaction.ID),
		zap.String("type", string(event.Transaction.Type)),
		zap.Int64("amount", event.Transaction.Amount),
	)
	return nil
}
