package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	RelayAttempts *prometheus.CounterVec
	LoginFailures prometheus.Counter
}

var (
	once   sync.Once
	global *Metrics
)

func Global() *Metrics {
	once.Do(func() {
		global = &Metrics{
			HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "relaychat",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests by method and status",
			}, []string{"method", "status"}),
			RelayAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "relaychat",
				Name:      "relay_attempts_total",
				Help:      "Total upstream relay attempts by outcome",
			}, []string{"outcome"}),
			LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "relaychat",
				Name:      "login_failures_total",
				Help:      "Total failed login attempts",
			}),
		}
		prometheus.MustRegister(global.HTTPRequests, global.RelayAttempts, global.LoginFailures)
	})
	return global
}
