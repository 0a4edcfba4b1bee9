package models

import "time"

// OccupancySummary aggregates the seat grid.
type OccupancySummary struct {
	TotalSeats     int `json:"total_seats"`
	OccupiedSeats  int `json:"occupied_seats"`
	FullSeats      int `json:"full_seats"`
	EmptySeats     int `json:"empty_seats"`
	LockersTaken   int `json:"lockers_taken"`
	ActiveStudents int `json:"active_students"`
	ExpiringSoon   int `json:"expiring_soon"`
	FreeSlotCount  int `json:"free_slot_count"`
}

// RevenuePoint is one month of collected fees.
type RevenuePoint struct {
	Month  string `json:"month"`
	Amount int64  `json:"amount"`
	Count  int    `json:"count"`
}

// DashboardSummary is the admin landing payload.
type DashboardSummary struct {
	Occupancy   OccupancySummary `json:"occupancy"`
	Revenue     []RevenuePoint   `json:"revenue"`
	TotalAmount int64            `json:"total_amount"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// PortalView is what a signed-in member sees.
type PortalView struct {
	Student      Student       `json:"student"`
	Slots        []Slot        `json:"slots"`
	WifiNetworks []WifiNetwork `json:"wifi_networks"`
	Announcement *Announcement `json:"announcement,omitempty"`
	DaysLeft     int           `json:"days_left"`
	Transactions []Transaction `json:"transactions"`
}

// SystemMetrics is a point-in-time view of process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Allocations              uint64    `json:"allocations"`
	Conflicts                uint64    `json:"conflicts"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
