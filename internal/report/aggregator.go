package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"buscontrol/internal/domain"
)

// averageScale is the number of decimals kept in RouteStatistic.AverageAmount.
const averageScale = 2

// Aggregate groups records by exact route name and computes the per-route
// totals. See AggregateAt for the ordering and rounding rules.
func Aggregate(records []domain.TripRecord) domain.StatisticsSummary {
	return AggregateAt(records, time.Now().UTC())
}

// AggregateAt is Aggregate with an explicit generation time.
//
// Routes are ordered by TotalAmount descending; equal totals keep the order in
// which the route first appeared in records. AverageAmount is the exact mean
// rounded half-to-even to two decimals. GrandTotal is the exact sum of the
// per-route totals. Inputs are trusted: no validation happens here.
func AggregateAt(records []domain.TripRecord, generatedAt time.Time) domain.StatisticsSummary {
	index := make(map[string]int)
	groups := make([]domain.RouteStatistic, 0)

	for i := range records {
		r := &records[i]
		pos, ok := index[r.RouteName]
		if !ok {
			pos = len(groups)
			index[r.RouteName] = pos
			groups = append(groups, domain.RouteStatistic{
				RouteName:   r.RouteName,
				TotalAmount: decimal.Zero,
			})
		}
		groups[pos].TotalAmount = groups[pos].TotalAmount.Add(r.AmountCollected)
		groups[pos].TripCount++
	}

	grandTotal := decimal.Zero
	for i := range groups {
		groups[i].AverageAmount = meanHalfEven(groups[i].TotalAmount, groups[i].TripCount, averageScale)
		grandTotal = grandTotal.Add(groups[i].TotalAmount)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].TotalAmount.GreaterThan(groups[j].TotalAmount)
	})

	return domain.StatisticsSummary{
		Routes:      groups,
		GrandTotal:  grandTotal,
		RouteCount:  len(groups),
		GeneratedAt: generatedAt,
	}
}

// meanHalfEven divides total by count and rounds the exact quotient half to
// even at the given scale. The remainder is compared exactly, so a tie is only
// detected when the true quotient sits on the midpoint.
func meanHalfEven(total decimal.Decimal, count int, scale int32) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	n := decimal.NewFromInt(int64(count))

	negative := total.IsNegative()
	abs := total.Abs()

	// abs = n*q + r with q truncated at scale and 0 <= r < n*unit.
	q, r := abs.QuoRem(n, scale)
	unit := decimal.New(1, -scale)
	half := n.Mul(unit)
	twice := r.Add(r)

	switch twice.Cmp(half) {
	case 1:
		q = q.Add(unit)
	case 0:
		if q.Shift(scale).Mod(decimal.NewFromInt(2)).Sign() != 0 {
			q = q.Add(unit)
		}
	}

	if negative {
		q = q.Neg()
	}
	return q
}
