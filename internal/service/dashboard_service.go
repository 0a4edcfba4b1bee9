package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/seat-desk-api/internal/models"
)

const dashboardSummaryKey = "dashboard:summary"

type seatGrid interface {
	GetSeatsStatus(ctx context.Context) ([]models.Seat, error)
	GetExpiringStudents(ctx context.Context) ([]models.Student, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL      time.Duration
	RevenueMonths int
}

// DashboardService composes the admin landing summary.
type DashboardService struct {
	seats        seatGrid
	transactions transactionLister
	cache        *CacheService
	logger       *zap.Logger
	now          func() time.Time
	cfg          DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(seats seatGrid, transactions transactionLister, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if cfg.RevenueMonths <= 0 {
		cfg.RevenueMonths = 12
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{seats: seats, transactions: transactions, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Summary returns occupancy and revenue figures and reports whether they came from cache.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, bool, error) {
	var cached models.DashboardSummary
	if s.cache.Get(ctx, dashboardSummaryKey, &cached) {
		return &cached, true, nil
	}

	seats, err := s.seats.GetSeatsStatus(ctx)
	if err != nil {
		return nil, false, err
	}
	expiring, err := s.seats.GetExpiringStudents(ctx)
	if err != nil {
		return nil, false, err
	}
	txns, err := s.transactions.List(ctx, models.TransactionFilter{})
	if err != nil {
		return nil, false, err
	}

	summary := &models.DashboardSummary{
		Occupancy:   occupancy(seats),
		GeneratedAt: s.now().UTC(),
	}
	summary.Occupancy.ExpiringSoon = len(expiring)
	summary.Revenue, summary.TotalAmount = revenueByMonth(txns, s.cfg.RevenueMonths)

	s.cache.Set(ctx, dashboardSummaryKey, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

func occupancy(seats []models.Seat) models.OccupancySummary {
	out := models.OccupancySummary{TotalSeats: len(seats)}
	for _, seat := range seats {
		out.FreeSlotCount += len(seat.FreeSlots)
		out.ActiveStudents += len(seat.Occupants)
		if seat.IsLockerTaken {
			out.LockersTaken++
		}
		switch {
		case len(seat.Occupants) == 0:
			out.EmptySeats++
		case len(seat.FreeSlots) == 0:
			out.OccupiedSeats++
			out.FullSeats++
		default:
			out.OccupiedSeats++
		}
	}
	return out
}

// revenueByMonth groups ledger amounts by calendar month and keeps the latest limit months.
func revenueByMonth(txns []models.Transaction, limit int) ([]models.RevenuePoint, int64) {
	buckets := make(map[string]*models.RevenuePoint)
	var total int64
	for _, txn := range txns {
		if txn.Date.IsZero() {
			continue
		}
		month := txn.Date.Format("2006-01")
		point, ok := buckets[month]
		if !ok {
			point = &models.RevenuePoint{Month: month}
			buckets[month] = point
		}
		point.Amount += txn.Amount
		point.Count++
		total += txn.Amount
	}

	points := make([]models.RevenuePoint, 0, len(buckets))
	for _, point := range buckets {
		points = append(points, *point)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month < points[j].Month })
	if len(points) > limit {
		points = points[len(points)-limit:]
	}
	return points, total
}
