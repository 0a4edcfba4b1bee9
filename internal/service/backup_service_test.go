package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seat-desk-api/internal/models"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

func TestBackupRoundTrip(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	svc := NewBackupService(f.store, f.attachments, nil, nil)

	req := studentReq("9000000001", 4, models.Plan8H, true, "S1", "S2")
	req.PhotoURL = "data:text/plain;base64,QUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFBQUFB"
	student, err := f.svc.AddStudent(ctx, req)
	require.NoError(t, err)
	_, err = NewWifiService(f.store.Wifi(), nil, nil).Create(ctx, CreateWifiRequest{SSID: "Library"})
	require.NoError(t, err)

	snapshot, err := svc.Export(ctx)
	require.NoError(t, err)
	raw, err := json.Marshal(snapshot)
	require.NoError(t, err)

	restoreTarget := newAllocatorFixture(t, "2025-01-01")
	target := NewBackupService(restoreTarget.store, restoreTarget.attachments, nil, nil)
	require.NoError(t, restoreTarget.attachments.Put(ctx, "stale", models.Attachments{PhotoURL: "x"}))

	var decoded models.Snapshot
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.NoError(t, target.Import(ctx, &decoded))

	restored, err := restoreTarget.store.Get(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, student.PasswordHash, restored.PasswordHash)
	assert.Equal(t, student.AssignedSlots, restored.AssignedSlots)
	assert.Len(t, transactions(t, restoreTarget.store), 1)
	assert.Equal(t, req.PhotoURL, restoreTarget.attachments.items[student.ID].PhotoURL)
	assert.NotContains(t, restoreTarget.attachments.items, "stale")

	networks, err := restoreTarget.store.Wifi().List(ctx)
	require.NoError(t, err)
	assert.Len(t, networks, 1)
}

func TestBackupImportRejectsMissingStudents(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	svc := NewBackupService(f.store, f.attachments, nil, nil)

	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal([]byte(`{"transactions": []}`), &snapshot))
	err := svc.Import(context.Background(), &snapshot)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	err = svc.Import(context.Background(), nil)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestBackupImportRejectsDoubleBooking(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	svc := NewBackupService(f.store, f.attachments, nil, nil)
	existing, err := f.svc.AddStudent(ctx, studentReq("9000000009", 1, models.Plan6H, false, "S4"))
	require.NoError(t, err)

	clash := func(id, mobile string) models.Student {
		return models.Student{
			ID: id, FullName: id, Mobile: mobile, SeatNumber: 5, PlanType: models.Plan6H, Duration: 1,
			StartDate: models.MustDate("2025-01-01"), EndDate: models.MustDate("2025-02-01"),
			AssignedSlots: models.Slots{models.SlotMorning}, IsActive: true, PaymentMode: models.PaymentCash,
		}
	}
	err = svc.Import(ctx, &models.Snapshot{Students: []models.Student{clash("a", "1"), clash("b", "2")}})
	assert.Equal(t, models.ConflictSlotOverlap, conflictReason(t, err))

	kept, err := f.store.Get(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, kept.ID)

	bad := clash("c", "3")
	bad.AssignedSlots = models.Slots{models.SlotMorning, models.SlotNight}
	err = svc.Import(ctx, &models.Snapshot{Students: []models.Student{bad}})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}
