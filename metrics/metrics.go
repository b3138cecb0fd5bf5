package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"syncchat/logger"
	"syncchat/tools/safe"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "im_connections_active",
		Help: "Current number of live WebSocket connections.",
	})
	TotalConnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_connections_total",
		Help: "Total WebSocket connections accepted.",
	})
	OnlineIdentities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "im_identities_online",
		Help: "Identities with at least one live connection on this node.",
	})

	MessagesRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "im_messages_routed_total",
		Help: "Messages accepted by the router.",
	}, []string{"kind"}) // direct | channel
	RouteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "im_route_failures_total",
		Help: "Route calls failed before fan-out.",
	}, []string{"reason"})
	DeliveriesLocal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_deliveries_local_total",
		Help: "Frames pushed onto local connection queues.",
	})
	DeliveriesRelayed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_deliveries_relayed_total",
		Help: "Frames relayed to other gateway nodes.",
	})
	SlowConsumerDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_slow_consumer_drops_total",
		Help: "Connections dropped because the outbound queue overflowed.",
	})

	AuthSuccess = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_auth_success_total",
		Help: "Successful WebSocket authentications.",
	})
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "im_auth_failures_total",
		Help: "Rejected WebSocket authentications.",
	})
)

// StartServer exposes the prometheus handler on its own listener.
func StartServer(addr, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	safe.Go("metrics-server", func() {
		logger.Infof("[metrics] listening on %s%s", addr, path)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Errorf("[metrics] server stopped: %v", err)
		}
	})
}
