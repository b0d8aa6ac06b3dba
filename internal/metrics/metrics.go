package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laundroyale_bookings_created_total",
		Help: "Total number of bookings successfully created.",
	})

	BookingConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laundroyale_booking_conflicts_total",
		Help: "Total number of booking attempts rejected for slot conflicts.",
	})

	PaymentsSettledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laundroyale_payments_settled_total",
		Help: "Total number of payments settled.",
	})

	TokensMintedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "laundroyale_tokens_minted_total",
		Help: "Total number of reward tokens minted.",
	})

	DegradedReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundroyale_degraded_reads_total",
		Help: "Total number of reads served through a degraded path.",
	},
		[]string{"reason"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laundroyale_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	MachineCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "laundroyale_machine_cache_items",
		Help: "Current number of machines in the catalog cache.",
	})
)
