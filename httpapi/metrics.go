package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestsTotal counts API requests by route pattern and status code.
var RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "librarydesk",
	Subsystem: "api",
	Name:      "requests_total",
	Help:      "Total HTTP requests by route and status code.",
}, []string{"route", "code"})

// RequestDuration tracks request latency by route pattern.
var RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "librarydesk",
	Subsystem: "api",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route"})

// LoansIssued counts successfully issued loans.
var LoansIssued = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "librarydesk",
	Subsystem: "lending",
	Name:      "loans_issued_total",
	Help:      "Total loans issued.",
})

// LoansReturned counts successfully returned loans.
var LoansReturned = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "librarydesk",
	Subsystem: "lending",
	Name:      "loans_returned_total",
	Help:      "Total loans returned.",
})

// FinesAssessed sums the fine units frozen on returned loans.
var FinesAssessed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "librarydesk",
	Subsystem: "lending",
	Name:      "fines_assessed_total",
	Help:      "Total fine units assessed on returns.",
})
