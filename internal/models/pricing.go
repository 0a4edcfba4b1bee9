package models

// LockerPricePerMonth is the default locker surcharge.
const LockerPricePerMonth int64 = 100

// PriceTable maps plan and duration to the membership fee.
type PriceTable map[PlanType]map[PlanDuration]int64

// DefaultPriceTable holds the published fees.
var DefaultPriceTable = PriceTable{
	Plan6H:  {Duration1Month: 799, Duration3Months: 2099, Duration6Months: 4199},
	Plan8H:  {Duration1Month: 1000, Duration3Months: 2700, Duration6Months: 5500},
	Plan14H: {Duration1Month: 1400, Duration3Months: 4000, Duration6Months: 8000},
	Plan24H: {Duration1Month: 1700, Duration3Months: 4800, Duration6Months: 9500},
}

// Quote returns the fee for a membership, including the locker surcharge.
func (t PriceTable) Quote(plan PlanType, duration PlanDuration, locker bool, lockerPerMonth int64) int64 {
	amount := t[plan][duration]
	if locker {
		amount += lockerPerMonth * int64(duration.Months())
	}
	return amount
}
