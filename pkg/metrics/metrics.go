package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tokenauth", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tokenauth", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// result: success, invalid_credentials, error
	LoginTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tokenauth", Name: "login_total", Help: "Login attempts by result."},
		[]string{"result"},
	)
	// result: success, not_found, mismatch, expired, error
	RefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tokenauth", Name: "refresh_total", Help: "Refresh token rotations by result."},
		[]string{"result"},
	)
	// outcome: anonymous, authenticated, rejected
	GateTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "tokenauth", Name: "gate_total", Help: "Requests seen by the authentication gate by outcome."},
		[]string{"outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(LoginTotal)
	reg.MustRegister(RefreshTotal)
	reg.MustRegister(GateTotal)
}
