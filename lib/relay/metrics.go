package relay

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics are registered in the default VictoriaMetrics set and exposed by the
// server under /metrics.

var (
	requestDuration       = metrics.NewHistogram("nxds_request_duration_seconds")
	notificationsReceived = metrics.NewCounter("nxds_notifications_total")
	eventsDropped         = metrics.NewCounter("nxds_events_dropped_total")
)

var knownEvents = map[string]bool{
	EventSetData:                true,
	EventGetData:                true,
	EventSubscribeCollections:   true,
	EventUnsubscribeCollections: true,
}

// eventLabel keeps label cardinality bounded for arbitrary client event names
func eventLabel(event string) string {
	if knownEvents[event] {
		return event
	}
	return "unknown"
}

func requestObserved(event string, start time.Time) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`nxds_requests_total{event=%q}`, eventLabel(event))).Inc()
	requestDuration.UpdateDuration(start)
}

func requestFailed(event string, kind ErrorKind) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`nxds_request_errors_total{event=%q,kind=%q}`, eventLabel(event), kind)).Inc()
}

func notificationReceived() {
	notificationsReceived.Inc()
}

func notificationDiscarded(kind ErrorKind) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`nxds_notifications_discarded_total{reason=%q}`, kind)).Inc()
}

func eventDropped() {
	eventsDropped.Inc()
}

// registerSessionGauge exposes the session count of r. Only the first relay of a
// process registers the gauge.
func registerSessionGauge(r *Relay) {
	gaugeOnce.Do(func() {
		metrics.NewGauge("nxds_sessions_active", func() float64 {
			return float64(r.SessionCount())
		})
	})
}
