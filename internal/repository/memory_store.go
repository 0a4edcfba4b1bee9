package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

// SnapshotBackend loads and saves the whole data set.
type SnapshotBackend interface {
	Load(ctx context.Context) (*models.Snapshot, error)
	Save(ctx context.Context, snapshot *models.Snapshot) error
}

// NopBackend keeps everything in memory.
type NopBackend struct{}

// Load implements SnapshotBackend.
func (NopBackend) Load(context.Context) (*models.Snapshot, error) { return &models.Snapshot{}, nil }

// Save implements SnapshotBackend.
func (NopBackend) Save(context.Context, *models.Snapshot) error { return nil }

// MemoryStore keeps the data set in memory and writes it through to a backend after every change.
type MemoryStore struct {
	mu      sync.RWMutex
	state   models.Snapshot
	backend SnapshotBackend
	now     func() time.Time
}

// NewMemoryStore loads the initial state from backend.
func NewMemoryStore(ctx context.Context, backend SnapshotBackend) (*MemoryStore, error) {
	if backend == nil {
		backend = NopBackend{}
	}
	snap, err := backend.Load(ctx)
	if err != nil {
		return nil, storageErr("load snapshot", err)
	}
	if snap == nil {
		snap = &models.Snapshot{}
	}
	return &MemoryStore{state: *snap, backend: backend, now: time.Now}, nil
}

// update applies fn to a copy of the state and swaps it in once the backend accepted it.
func (s *MemoryStore) update(ctx context.Context, fn func(state *models.Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if err := s.backend.Save(ctx, &next); err != nil {
		return storageErr("save snapshot", err)
	}
	s.state = next
	return nil
}

func (s *MemoryStore) read(fn func(state *models.Snapshot)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// List implements Roster.
func (s *MemoryStore) List(_ context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	s.read(func(state *models.Snapshot) {
		for _, student := range state.Students {
			if filter.Active != nil && student.IsActive != *filter.Active {
				continue
			}
			if filter.Seat > 0 && student.SeatNumber != filter.Seat {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(student.FullName), search) && !strings.Contains(student.Mobile, search) {
				continue
			}
			out = append(out, student.Clone())
		}
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SeatNumber != out[j].SeatNumber {
			return out[i].SeatNumber < out[j].SeatNumber
		}
		return out[i].FullName < out[j].FullName
	})
	total := len(out)
	return paginate(out, filter.Page, filter.PageSize), total, nil
}

func paginate(items []models.Student, page, size int) []models.Student {
	if page <= 0 || size <= 0 {
		return items
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []models.Student{}
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Get implements Roster.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Student, error) {
	var found *models.Student
	s.read(func(state *models.Snapshot) { found = findStudent(state, id) })
	if found == nil {
		return nil, ErrStudentNotFound
	}
	return found, nil
}

// FindByMobile implements Roster.
func (s *MemoryStore) FindByMobile(_ context.Context, mobile string) (*models.Student, error) {
	var found *models.Student
	s.read(func(state *models.Snapshot) { found = findByMobile(state, mobile) })
	if found == nil {
		return nil, ErrStudentNotFound
	}
	return found, nil
}

// ListTransactions implements Roster; newest first.
func (s *MemoryStore) ListTransactions(_ context.Context, filter models.TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	s.read(func(state *models.Snapshot) {
		for _, txn := range state.Transactions {
			if filter.StudentID != "" && txn.StudentID != filter.StudentID {
				continue
			}
			if filter.Type != "" && txn.Type != filter.Type {
				continue
			}
			out = append(out, txn)
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

// GetTransaction implements Roster.
func (s *MemoryStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	var found *models.Transaction
	s.read(func(state *models.Snapshot) {
		for i := range state.Transactions {
			if state.Transactions[i].ID == id {
				txn := state.Transactions[i]
				found = &txn
				return
			}
		}
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

// Mutate implements Roster.
func (s *MemoryStore) Mutate(ctx context.Context, fn func(tx RosterTx) error) error {
	return s.update(ctx, func(state *models.Snapshot) error {
		return fn(&memoryTx{state: state, now: s.now})
	})
}

func findStudent(state *models.Snapshot, id string) *models.Student {
	for i := range state.Students {
		if state.Students[i].ID == id {
			student := state.Students[i].Clone()
			return &student
		}
	}
	return nil
}

func findByMobile(state *models.Snapshot, mobile string) *models.Student {
	for i := range state.Students {
		if state.Students[i].Mobile == mobile {
			student := state.Students[i].Clone()
			return &student
		}
	}
	return nil
}

type memoryTx struct {
	state *models.Snapshot
	now   func() time.Time
}

func (t *memoryTx) Get(_ context.Context, id string) (*models.Student, error) {
	if found := findStudent(t.state, id); found != nil {
		return found, nil
	}
	return nil, ErrStudentNotFound
}

func (t *memoryTx) FindByMobile(_ context.Context, mobile string) (*models.Student, error) {
	if found := findByMobile(t.state, mobile); found != nil {
		return found, nil
	}
	return nil, ErrStudentNotFound
}

func (t *memoryTx) ListActiveBySeat(_ context.Context, seat int) ([]models.Student, error) {
	var out []models.Student
	for _, student := range t.state.Students {
		if student.HoldsSeat(seat) {
			out = append(out, student.Clone())
		}
	}
	return out, nil
}

func (t *memoryTx) mobileTaken(student *models.Student) bool {
	other := findByMobile(t.state, student.Mobile)
	return other != nil && other.ID != student.ID
}

func (t *memoryTx) Insert(_ context.Context, student *models.Student) error {
	if findStudent(t.state, student.ID) != nil {
		return ErrDuplicateID
	}
	if t.mobileTaken(student) {
		return ErrDuplicateMobile
	}
	if err := checkClaims(student, t.state.Students); err != nil {
		return err
	}
	now := t.now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	t.state.Students = append(t.state.Students, student.Clone())
	return nil
}

func (t *memoryTx) Replace(_ context.Context, student *models.Student) error {
	if t.mobileTaken(student) {
		return ErrDuplicateMobile
	}
	if err := checkClaims(student, t.state.Students); err != nil {
		return err
	}
	for i := range t.state.Students {
		if t.state.Students[i].ID == student.ID {
			student.CreatedAt = t.state.Students[i].CreatedAt
			student.UpdatedAt = t.now().UTC()
			t.state.Students[i] = student.Clone()
			return nil
		}
	}
	return ErrStudentNotFound
}

func (t *memoryTx) Delete(_ context.Context, id string) (bool, error) {
	for i := range t.state.Students {
		if t.state.Students[i].ID == id {
			t.state.Students = append(t.state.Students[:i], t.state.Students[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) AppendTransaction(_ context.Context, txn *models.Transaction) error {
	t.state.Transactions = append(t.state.Transactions, *txn)
	return nil
}

// Admissions returns the admission request store view.
func (s *MemoryStore) Admissions() AdmissionStore { return memoryAdmissions{s} }

// Wifi returns the WiFi store view.
func (s *MemoryStore) Wifi() WifiStore { return memoryWifi{s} }

// Announcements returns the announcement store view.
func (s *MemoryStore) Announcements() AnnouncementStore { return memoryAnnouncements{s} }

// Export implements SnapshotStore.
func (s *MemoryStore) Export(_ context.Context) (*models.Snapshot, error) {
	var snap models.Snapshot
	s.read(func(state *models.Snapshot) { snap = state.Clone() })
	snap.Attachments = nil
	return &snap, nil
}

// Import implements SnapshotStore, replacing all state.
func (s *MemoryStore) Import(ctx context.Context, snapshot *models.Snapshot) error {
	return s.update(ctx, func(state *models.Snapshot) error {
		next := snapshot.Clone()
		next.Attachments = nil
		for i := range next.Students {
			if err := checkClaims(&next.Students[i], next.Students[:i]); err != nil {
				return err
			}
		}
		*state = next
		return nil
	})
}

type memoryAdmissions struct{ s *MemoryStore }

func (m memoryAdmissions) List(_ context.Context, status models.AdmissionStatus) ([]models.AdmissionRequest, error) {
	var out []models.AdmissionRequest
	m.s.read(func(state *models.Snapshot) {
		for _, req := range state.AdmissionRequests {
			if status == "" || req.Status == status {
				req.PreferredSlots = req.PreferredSlots.Clone()
				out = append(out, req)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestDate.After(out[j].RequestDate) })
	return out, nil
}

func (m memoryAdmissions) Get(_ context.Context, id string) (*models.AdmissionRequest, error) {
	var found *models.AdmissionRequest
	m.s.read(func(state *models.Snapshot) {
		for _, req := range state.AdmissionRequests {
			if req.ID == id {
				req.PreferredSlots = req.PreferredSlots.Clone()
				found = &req
				return
			}
		}
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (m memoryAdmissions) Create(ctx context.Context, req *models.AdmissionRequest) error {
	return m.s.update(ctx, func(state *models.Snapshot) error {
		state.AdmissionRequests = append(state.AdmissionRequests, *req)
		return nil
	})
}

func (m memoryAdmissions) UpdateStatus(ctx context.Context, id string, status models.AdmissionStatus) error {
	return m.s.update(ctx, func(state *models.Snapshot) error {
		for i := range state.AdmissionRequests {
			if state.AdmissionRequests[i].ID == id {
				state.AdmissionRequests[i].Status = status
				return nil
			}
		}
		return ErrNotFound
	})
}

func (m memoryAdmissions) Delete(ctx context.Context, id string) error {
	return m.s.update(ctx, func(state *models.Snapshot) error {
		kept := state.AdmissionRequests[:0]
		for _, req := range state.AdmissionRequests {
			if req.ID != id {
				kept = append(kept, req)
			}
		}
		state.AdmissionRequests = kept
		return nil
	})
}

type memoryWifi struct{ s *MemoryStore }

func (m memoryWifi) List(_ context.Context) ([]models.WifiNetwork, error) {
	var out []models.WifiNetwork
	m.s.read(func(state *models.Snapshot) {
		out = append(out, state.WifiNetworks...)
	})
	return out, nil
}

func (m memoryWifi) Create(ctx context.Context, network *models.WifiNetwork) error {
	return m.s.update(ctx, func(state *models.Snapshot) error {
		state.WifiNetworks = append(state.WifiNetworks, *network)
		return nil
	})
}

func (m memoryWifi) Delete(ctx context.Context, id string) error {
	return m.s.update(ctx, func(state *models.Snapshot) error {
		kept := state.WifiNetworks[:0]
		for _, network := range state.WifiNetworks {
			if network.ID != id {
				kept = append(kept, network)
			}
		}
		state.WifiNetworks = kept
		return nil
	})
}

type memoryAnnouncements struct{ s *MemoryStore }

func (m memoryAnnouncements) Get(_ context.Context) (*models.Announcement, error) {
	var out *models.Announcement
	m.s.read(func(state *models.Snapshot) {
		if state.Announcement != nil {
			a := *state.Announcement
			out = &a
		}
	})
	if out == nil {
		return &models.Announcement{}, nil
	}
	return out, nil
}

func (m memoryAnnouncements) Set(ctx context.Context, announcement *models.Announcement) error {
	return m.s.update(ctx, func(state *models.Snapshot) error {
		a := *announcement
		state.Announcement = &a
		return nil
	})
}
