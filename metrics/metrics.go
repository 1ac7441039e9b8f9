package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creator_relay_proxy_requests_total",
		Help: "Total number of proxied provider API calls",
	}, []string{"method", "status"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "creator_relay_upstream_duration_seconds",
		Help:    "Time spent waiting on the provider",
		Buckets: prometheus.ExponentialBuckets(0.05, 2.0, 10), // 50ms to ~25.6s
	}, []string{"operation"})

	TokenGrants = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creator_relay_token_grants_total",
		Help: "Token grants performed against the provider",
	}, []string{"grant", "outcome"})

	TrendingResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creator_relay_trending_responses_total",
		Help: "Trending responses served by data source",
	}, []string{"kind", "source"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "creator_relay_http_requests_total",
		Help: "HTTP requests handled by the relay",
	}, []string{"route", "status"})
)
