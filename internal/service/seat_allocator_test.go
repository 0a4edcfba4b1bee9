package service

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/internal/repository"
	appErrors "github.com/noah-isme/seat-desk-api/pkg/errors"
)

type fakeAttachments struct {
	mu    sync.Mutex
	items map[string]models.Attachments
	err   error
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{items: map[string]models.Attachments{}}
}

func (f *fakeAttachments) Put(_ context.Context, id string, a models.Attachments) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	current := f.items[id]
	if a.PhotoURL != "" {
		current.PhotoURL = a.PhotoURL
	}
	if a.IDProofURL != "" {
		current.IDProofURL = a.IDProofURL
	}
	f.items[id] = current
	return nil
}

func (f *fakeAttachments) Get(_ context.Context, id string) (models.Attachments, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id], nil
}

func (f *fakeAttachments) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

func (f *fakeAttachments) List(context.Context) (map[string]models.Attachments, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.Attachments, len(f.items))
	for k, v := range f.items {
		out[k] = v
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []interface{}
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, payload)
	return f.err
}

type failingBackend struct {
	repository.NopBackend
	fail bool
}

func (b *failingBackend) Save(context.Context, *models.Snapshot) error {
	if b.fail {
		return errors.New("quota exceeded")
	}
	return nil
}

type allocatorFixture struct {
	svc         *SeatAllocator
	store       *repository.MemoryStore
	attachments *fakeAttachments
	events      *fakePublisher
	backend     *failingBackend
}

func newAllocatorFixture(t *testing.T, today string) allocatorFixture {
	t.Helper()
	backend := &failingBackend{}
	store, err := repository.NewMemoryStore(context.Background(), backend)
	require.NoError(t, err)
	attachments := newFakeAttachments()
	events := &fakePublisher{}
	svc := NewSeatAllocator(store, attachments, events, nil, NewMetricsService(), SeatAllocatorConfig{}, nil, zap.NewNop())
	now := models.MustDate(today).Add(9 * time.Hour)
	svc.now = func() time.Time { return now }
	return allocatorFixture{svc: svc, store: store, attachments: attachments, events: events, backend: backend}
}

func studentReq(mobile string, seat int, plan models.PlanType, locker bool, slots ...string) StudentRequest {
	return StudentRequest{
		FullName:       "Student " + mobile,
		Mobile:         mobile,
		Password:       "secret123",
		SeatNumber:     seat,
		LockerRequired: locker,
		PlanType:       string(plan),
		Duration:       1,
		StartDate:      models.MustDate("2025-01-01"),
		AssignedSlots:  slots,
	}
}

func transactions(t *testing.T, store *repository.MemoryStore) []models.Transaction {
	t.Helper()
	txns, err := store.ListTransactions(context.Background(), models.TransactionFilter{})
	require.NoError(t, err)
	return txns
}

func conflictReason(t *testing.T, err error) models.ConflictReason {
	t.Helper()
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, http.StatusConflict, appErr.Status)
	reason, ok := ConflictReasonOf(err)
	require.True(t, ok)
	assert.Equal(t, reason, appErr.Details["reason"])
	return reason
}

func TestRequiredSlotCount(t *testing.T) {
	svc := NewSeatAllocator(nil, nil, nil, nil, nil, SeatAllocatorConfig{}, nil, nil)
	assert.Equal(t, 1, svc.RequiredSlotCount(models.Plan6H))
	assert.Equal(t, 2, svc.RequiredSlotCount(models.Plan8H))
	assert.Equal(t, 3, svc.RequiredSlotCount(models.Plan14H))
	assert.Equal(t, 4, svc.RequiredSlotCount(models.Plan24H))
}

func TestSlotAvailabilityAroundAdmission(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()

	ok, err := f.svc.CheckSlotAvailability(ctx, 25, models.Slots{models.SlotMorning}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	a, err := f.svc.AddStudent(ctx, studentReq("9000000001", 25, models.Plan6H, false, "S1"))
	require.NoError(t, err)
	assert.Equal(t, int64(799), a.AmountPaid)
	assert.Equal(t, "2025-02-01", a.EndDate.String())
	assert.NotEmpty(t, a.PasswordHash)

	ok, err = f.svc.CheckSlotAvailability(ctx, 25, models.Slots{models.SlotMorning}, "")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.CheckSlotAvailability(ctx, 25, models.Slots{models.SlotAfternoon}, "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.CheckSlotAvailability(ctx, 25, models.Slots{models.SlotMorning}, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	txns := transactions(t, f.store)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionAdmission, txns[0].Type)
	assert.Equal(t, int64(799), txns[0].Amount)
	require.Len(t, f.events.events, 1)
}

func TestAddStudentSlotOverlapLeavesRosterUnchanged(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()

	_, err := f.svc.AddStudent(ctx, studentReq("9000000001", 25, models.Plan6H, false, "S1"))
	require.NoError(t, err)

	_, err = f.svc.AddStudent(ctx, studentReq("9000000002", 25, models.Plan8H, false, "S1", "S2"))
	assert.Equal(t, models.ConflictSlotOverlap, conflictReason(t, err))

	students, total, err := f.store.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "9000000001", students[0].Mobile)
	assert.Len(t, transactions(t, f.store), 1)
}

func TestAddStudentLockerOverlap(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()

	_, err := f.svc.AddStudent(ctx, studentReq("9000000001", 25, models.Plan6H, true, "S1"))
	require.NoError(t, err)

	req := studentReq("9000000003", 25, models.Plan6H, true, "S2")
	req.PhotoURL = "data:image/png;base64," + strings.Repeat("A", 80)
	_, err = f.svc.AddStudent(ctx, req)
	assert.Equal(t, models.ConflictLockerOverlap, conflictReason(t, err))

	_, total, err := f.store.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	all, _ := f.attachments.List(ctx)
	assert.Empty(t, all)

	locker, err := f.svc.CheckLockerAvailability(ctx, 25, "")
	require.NoError(t, err)
	assert.False(t, locker)
	slots, err := f.svc.CheckSlotAvailability(ctx, 25, models.Slots{models.SlotAfternoon}, "")
	require.NoError(t, err)
	assert.True(t, slots)
}

func TestAddStudentValidation(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()

	cases := map[string]StudentRequest{
		"slot count mismatch": studentReq("9000000001", 3, models.Plan8H, false, "S1"),
		"unknown plan":        studentReq("9000000001", 3, models.PlanType("10H"), false, "S1"),
		"unknown slot":        studentReq("9000000001", 3, models.Plan6H, false, "S9"),
		"seat out of range":   studentReq("9000000001", 122, models.Plan6H, false, "S1"),
	}
	noStart := studentReq("9000000001", 3, models.Plan6H, false, "S1")
	noStart.StartDate = models.Date{}
	cases["missing start date"] = noStart
	badDuration := studentReq("9000000001", 3, models.Plan6H, false, "S1")
	badDuration.Duration = 2
	cases["unknown duration"] = badDuration

	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.AddStudent(ctx, req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrValidation), err.Error())
		})
	}

	dup := studentReq("9000000001", 3, models.Plan8H, false, "S1", "S1")
	_, err := f.svc.AddStudent(ctx, dup)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAddStudentValidatesBeforeConflicts(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	_, err := f.svc.AddStudent(ctx, studentReq("9000000001", 5, models.Plan6H, false, "S1"))
	require.NoError(t, err)

	_, err = f.svc.AddStudent(ctx, studentReq("9000000002", 5, models.Plan8H, false, "S1"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.False(t, IsConflict(err))
}

func TestAddStudentQuotesLockerSurcharge(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	req := studentReq("9000000001", 9, models.Plan14H, true, "S1", "S2", "S3")
	req.Duration = 3
	student, err := f.svc.AddStudent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(4000+300), student.AmountPaid)
	assert.Equal(t, "2025-04-01", student.EndDate.String())

	paid := int64(0)
	req = studentReq("9000000002", 10, models.Plan6H, false, "S4")
	req.AmountPaid = &paid
	student, err = f.svc.AddStudent(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(0), student.AmountPaid)
}

func TestAddStudentDuplicateMobile(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	_, err := f.svc.AddStudent(context.Background(), studentReq("9000000001", 1, models.Plan6H, false, "S1"))
	require.NoError(t, err)
	_, err = f.svc.AddStudent(context.Background(), studentReq("9000000001", 2, models.Plan6H, false, "S1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.False(t, IsConflict(err))
}

func TestAddStudentStorageFailure(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	f.backend.fail = true

	req := studentReq("9000000001", 1, models.Plan6H, false, "S1")
	req.IDProofURL = "data:application/pdf;base64," + strings.Repeat("B", 80)
	_, err := f.svc.AddStudent(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrStorage))

	f.backend.fail = false
	_, total, err := f.store.List(context.Background(), models.StudentFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	all, _ := f.attachments.List(context.Background())
	assert.Empty(t, all)
	assert.Empty(t, f.events.events)
}

func TestAddStudentStoresOnlyRealAttachments(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	req := studentReq("9000000001", 1, models.Plan6H, false, "S1")
	req.PhotoURL = "data:image/jpeg;base64," + strings.Repeat("C", 60)
	req.IDProofURL = "short"
	student, err := f.svc.AddStudent(context.Background(), req)
	require.NoError(t, err)

	stored, err := f.attachments.Get(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, req.PhotoURL, stored.PhotoURL)
	assert.Empty(t, stored.IDProofURL)
}

func TestUpdateStudentRenewalLogsTransaction(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	a, err := f.svc.AddStudent(ctx, studentReq("9000000001", 25, models.Plan6H, false, "S1"))
	require.NoError(t, err)

	renew := studentReq("9000000001", 25, models.Plan6H, false, "S1")
	renew.StartDate = models.MustDate("2025-02-01")
	renew.Password = ""
	updated, err := f.svc.UpdateStudent(ctx, a.ID, renew)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", updated.EndDate.String())
	assert.Equal(t, a.PasswordHash, updated.PasswordHash)

	txns := transactions(t, f.store)
	require.Len(t, txns, 2)
	assert.Equal(t, models.TransactionRenewal, txns[0].Type)
	assert.Equal(t, "2025-02-01", txns[0].Date.String())
	assert.Equal(t, int64(799), txns[0].Amount)

	edit := renew
	edit.Email = "asha@example.com"
	_, err = f.svc.UpdateStudent(ctx, a.ID, edit)
	require.NoError(t, err)
	assert.Len(t, transactions(t, f.store), 2)
}

func TestUpdateStudentSeatTransferWithoutTransaction(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	a, err := f.svc.AddStudent(ctx, studentReq("9000000001", 25, models.Plan6H, true, "S1"))
	require.NoError(t, err)

	move := studentReq("9000000001", 30, models.Plan8H, true, "S2", "S3")
	moved, err := f.svc.UpdateStudent(ctx, a.ID, move)
	require.NoError(t, err)
	assert.Equal(t, 30, moved.SeatNumber)
	assert.Len(t, transactions(t, f.store), 1)

	free, err := f.svc.CheckLockerAvailability(ctx, 25, "")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestUpdateStudentExcludesItself(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	a, err := f.svc.AddStudent(ctx, studentReq("9000000001", 25, models.Plan8H, true, "S1", "S2"))
	require.NoError(t, err)
	_, err = f.svc.AddStudent(ctx, studentReq("9000000002", 25, models.Plan6H, false, "S3"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStudent(ctx, a.ID, studentReq("9000000001", 25, models.Plan8H, true, "S2", "S1"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStudent(ctx, a.ID, studentReq("9000000001", 25, models.Plan8H, true, "S2", "S3"))
	assert.Equal(t, models.ConflictSlotOverlap, conflictReason(t, err))
}

func TestUpdateStudentNotFound(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	_, err := f.svc.UpdateStudent(context.Background(), "missing", studentReq("9000000001", 1, models.Plan6H, false, "S1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestUpdateStudentKeepsAttachmentsWhenEmpty(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	req := studentReq("9000000001", 1, models.Plan6H, false, "S1")
	req.PhotoURL = "data:image/jpeg;base64," + strings.Repeat("D", 60)
	a, err := f.svc.AddStudent(ctx, req)
	require.NoError(t, err)

	req.PhotoURL = ""
	req.FullName = "Renamed"
	_, err = f.svc.UpdateStudent(ctx, a.ID, req)
	require.NoError(t, err)

	stored, _ := f.attachments.Get(ctx, a.ID)
	assert.NotEmpty(t, stored.PhotoURL)
}

func TestSetActiveReleasesAndRechecks(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	a, err := f.svc.AddStudent(ctx, studentReq("9000000001", 4, models.Plan6H, true, "S1"))
	require.NoError(t, err)

	_, err = f.svc.SetActive(ctx, a.ID, false)
	require.NoError(t, err)
	_, err = f.svc.AddStudent(ctx, studentReq("9000000002", 4, models.Plan6H, true, "S1"))
	require.NoError(t, err)

	_, err = f.svc.SetActive(ctx, a.ID, true)
	assert.Equal(t, models.ConflictSlotOverlap, conflictReason(t, err))
}

func TestDeleteStudentIsIdempotent(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	req := studentReq("9000000001", 25, models.Plan6H, false, "S1")
	req.PhotoURL = "data:image/jpeg;base64," + strings.Repeat("E", 60)
	a, err := f.svc.AddStudent(ctx, req)
	require.NoError(t, err)

	seats, err := f.svc.GetSeatsStatus(ctx)
	require.NoError(t, err)
	require.Len(t, seats[24].Occupants, 1)
	assert.Equal(t, a.ID, seats[24].Occupants[0].ID)

	require.NoError(t, f.svc.DeleteStudent(ctx, a.ID))
	first, err := f.store.Export(ctx)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteStudent(ctx, a.ID))
	second, err := f.store.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Students, second.Students)

	seats, err = f.svc.GetSeatsStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, seats[24].Occupants)
	stored, _ := f.attachments.Get(ctx, a.ID)
	assert.True(t, stored.Empty())
	assert.Len(t, transactions(t, f.store), 1)
}

func TestGetSeatsStatus(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()
	_, err := f.svc.AddStudent(ctx, studentReq("9000000001", 1, models.Plan6H, false, "S3"))
	require.NoError(t, err)
	_, err = f.svc.AddStudent(ctx, studentReq("9000000002", 1, models.Plan8H, true, "S1", "S2"))
	require.NoError(t, err)

	seats, err := f.svc.GetSeatsStatus(ctx)
	require.NoError(t, err)
	require.Len(t, seats, models.DefaultTotalSeats)
	assert.Equal(t, 1, seats[0].Number)
	assert.Equal(t, 121, seats[120].Number)
	assert.True(t, seats[0].IsLockerTaken)
	assert.Equal(t, models.Slots{models.SlotNight}, seats[0].FreeSlots)
	assert.Equal(t, "9000000002", seats[0].Occupants[0].Mobile)
	assert.False(t, seats[1].IsLockerTaken)
	assert.Len(t, seats[1].FreeSlots, 4)
}

func TestGetExpiringStudents(t *testing.T) {
	f := newAllocatorFixture(t, "2025-06-01")
	ctx := context.Background()

	add := func(mobile string, seat int, start string, active bool) {
		req := studentReq(mobile, seat, models.Plan6H, false, "S1")
		req.StartDate = models.MustDate(start)
		req.IsActive = &active
		_, err := f.svc.AddStudent(ctx, req)
		require.NoError(t, err)
	}
	add("9000000001", 1, "2025-05-01", true)
	add("9000000002", 2, "2025-05-06", true)
	add("9000000003", 3, "2025-05-07", true)
	add("9000000004", 4, "2025-04-30", true)
	add("9000000005", 5, "2025-05-03", false)

	expiring, err := f.svc.GetExpiringStudents(ctx)
	require.NoError(t, err)
	require.Len(t, expiring, 2)
	assert.Equal(t, "2025-06-01", expiring[0].EndDate.String())
	assert.Equal(t, "2025-06-06", expiring[1].EndDate.String())
}

func TestCleanupInactive(t *testing.T) {
	f := newAllocatorFixture(t, "2025-06-01")
	ctx := context.Background()

	inactive := false
	old := studentReq("9000000001", 1, models.Plan6H, false, "S1")
	old.StartDate = models.MustDate("2025-03-01")
	old.IsActive = &inactive
	oldStudent, err := f.svc.AddStudent(ctx, old)
	require.NoError(t, err)

	recent := studentReq("9000000002", 2, models.Plan6H, false, "S1")
	recent.StartDate = models.MustDate("2025-04-20")
	recent.IsActive = &inactive
	_, err = f.svc.AddStudent(ctx, recent)
	require.NoError(t, err)

	activeOld := studentReq("9000000003", 3, models.Plan6H, false, "S1")
	activeOld.StartDate = models.MustDate("2025-01-01")
	_, err = f.svc.AddStudent(ctx, activeOld)
	require.NoError(t, err)

	removed, err := f.svc.CleanupInactive(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = f.svc.GetStudent(ctx, oldStudent.ID)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	_, total, err := f.store.List(ctx, models.StudentFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestConcurrentAdmissionsOnSameSlot(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.AddStudent(ctx, studentReq("90000001"+string(rune('0'+i))+"0", 7, models.Plan6H, false, "S2"))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, models.ConflictSlotOverlap, conflictReason(t, err))
	}
	assert.Equal(t, 1, succeeded)
}

func TestAllocationInvariantsHoldUnderRandomOperations(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	f.svc.cfg.TotalSeats = 4
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	plans := models.PlanTypes
	var ids []string

	randomReq := func(i int) StudentRequest {
		plan := plans[rng.Intn(len(plans))]
		perm := rng.Perm(4)[:plan.RequiredSlotCount()]
		slots := make([]string, 0, len(perm))
		for _, p := range perm {
			slots = append(slots, string(models.AllSlots[p].ID))
		}
		req := studentReq("", 1+rng.Intn(4), plan, rng.Intn(3) == 0, slots...)
		req.Mobile = "8" + strings.Repeat("0", 5) + string(rune('a'+i%26)) + string(rune('a'+i/26%26))
		return req
	}

	for i := 0; i < 300; i++ {
		switch op := rng.Intn(10); {
		case op < 6 || len(ids) == 0:
			if s, err := f.svc.AddStudent(ctx, randomReq(i)); err == nil {
				ids = append(ids, s.ID)
			}
		case op < 9:
			id := ids[rng.Intn(len(ids))]
			current, err := f.svc.GetStudent(ctx, id)
			require.NoError(t, err)
			req := randomReq(i)
			req.Mobile = current.Mobile
			_, _ = f.svc.UpdateStudent(ctx, id, req)
		default:
			idx := rng.Intn(len(ids))
			require.NoError(t, f.svc.DeleteStudent(ctx, ids[idx]))
			ids = append(ids[:idx], ids[idx+1:]...)
		}

		seats, err := f.svc.GetSeatsStatus(ctx)
		require.NoError(t, err)
		for _, seat := range seats {
			held := map[models.SlotID]string{}
			lockers := 0
			for _, occupant := range seat.Occupants {
				assert.Len(t, occupant.AssignedSlots, occupant.PlanType.RequiredSlotCount())
				for _, slot := range occupant.AssignedSlots {
					holder, taken := held[slot]
					require.False(t, taken, "seat %d slot %s held by %s and %s", seat.Number, slot, holder, occupant.ID)
					held[slot] = occupant.ID
				}
				if occupant.LockerRequired {
					lockers++
				}
			}
			require.LessOrEqual(t, lockers, 1, "seat %d has %d lockers", seat.Number, lockers)
		}
	}
}

func TestPublishFailureDoesNotFailAdmission(t *testing.T) {
	f := newAllocatorFixture(t, "2025-01-01")
	f.events.err = errors.New("broker down")
	_, err := f.svc.AddStudent(context.Background(), studentReq("9000000001", 1, models.Plan6H, false, "S1"))
	require.NoError(t, err)
}
