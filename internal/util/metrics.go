package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutOrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Total number of provider orders created for the checkout widget",
	})

	CheckoutOrdersFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_orders_failed_total",
		Help: "Total number of provider order creations that failed",
	})

	PaymentsVerifiedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_verified_total",
		Help: "Total number of payment signatures accepted",
	})

	PaymentVerificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_failed_total",
		Help: "Total number of payment verifications that did not succeed",
	}, []string{"reason"})

	RegistrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registrations_total",
		Help: "Total number of participants registered",
	})

	RegistrationsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registrations_rejected_total",
		Help: "Total number of rejected registrations",
	}, []string{"reason"})

	ChestNumberConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chest_number_conflicts_total",
		Help: "Total number of chest number allocations rejected by the store",
	})

	RegistrationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "registration_latency_seconds",
		Help:    "Latency of the registration workflow up to persistence",
		Buckets: prometheus.DefBuckets,
	})

	NotificationsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_sent_total",
		Help: "Total number of notifications delivered",
	}, []string{"channel"})

	NotificationsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_failed_total",
		Help: "Total number of notifications that failed",
	}, []string{"channel"})

	NotificationDispatchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notification_dispatch_failures_total",
		Help: "Total number of registrations whose notification task ended with an error",
	})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_publish_failed_total",
		Help: "Total number of domain events that could not be published",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
