package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConversationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelo_conversations_created_total",
		Help: "Number of conversations created.",
	})
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelo_messages_sent_total",
		Help: "Number of messages durably written.",
	})
	MessagesMarkedRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelo_messages_marked_read_total",
		Help: "Number of messages flipped to read.",
	})
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parcelo_ws_connections",
		Help: "Currently open WebSocket connections.",
	})
)

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
