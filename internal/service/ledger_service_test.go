package service

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

func TestLedgerLogAppendsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ledger.log")
	ledger, err := NewLedgerLog(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for _, id := range []string{"t-1", "t-2"} {
		body, err := json.Marshal(models.TransactionRecordedEvent{
			Transaction: models.Transaction{ID: id, Type: models.TransactionAdmission, Amount: 799},
			RecordedAt:  "2025-01-01T09:00:00Z",
		})
		require.NoError(t, err)
		require.NoError(t, ledger.Handle(ctx, body))
	}

	assert.Error(t, ledger.Handle(ctx, []byte("{")))
	assert.Error(t, ledger.Handle(ctx, []byte(`{"transaction":{}}`)))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var ids []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event models.TransactionRecordedEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
		ids = append(ids, event.Transaction.ID)
	}
	assert.Equal(t, []string{"t-1", "t-2"}, ids)
}
