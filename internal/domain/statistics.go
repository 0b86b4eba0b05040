package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RouteStatistic holds the collected money figures for one route.
type RouteStatistic struct {
	RouteName     string          `json:"route_name"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TripCount     int             `json:"trip_count"`
	AverageAmount decimal.Decimal `json:"average_amount"`
}

// StatisticsSummary is the per-route breakdown ordered by TotalAmount descending.
type StatisticsSummary struct {
	Routes      []RouteStatistic `json:"routes"`
	GrandTotal  decimal.Decimal  `json:"grand_total"`
	RouteCount  int              `json:"route_count"`
	GeneratedAt time.Time        `json:"generated_at"`
}
