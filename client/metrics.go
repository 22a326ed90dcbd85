package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mem_client",
			Name:      "requests_total",
			Help:      "API requests issued, including retries.",
		},
		[]string{"method"},
	)

	requestFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mem_client",
			Name:      "request_failures_total",
			Help:      "API requests that failed with a transport error or 5xx.",
		},
		[]string{"method"},
	)
)
