package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	IntentsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_intents_opened_total",
			Help: "Number of payment intents opened for course purchases",
		},
	)

	ReceiptsRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchase_receipts_rejected_total",
			Help: "Number of payment receipts rejected, by reason",
		},
		[]string{"reason"},
	)

	EntitlementsGranted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_entitlements_granted_total",
			Help: "Number of entitlements written",
		},
	)

	DuplicatesReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_duplicates_reconciled_total",
			Help: "Number of confirmations resolved against an existing entitlement",
		},
	)

	GatewayErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "purchase_gateway_errors_total",
			Help: "Number of purchase attempts failed by the payment processor",
		},
	)

	ProcessorCallTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_processor_call_seconds",
			Help:    "Time taken by payment processor calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		IntentsOpened,
		ReceiptsRejected,
		EntitlementsGranted,
		DuplicatesReconciled,
		GatewayErrors,
		ProcessorCallTime,
	)
}
