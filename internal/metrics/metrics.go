// Package metrics exposes quictund's runtime counters via expvar, in the
// same style (and on the same /debug/vars + /metrics endpoints) the teacher
// repo uses for its own operational metrics.
package metrics

import (
	"expvar"
	"fmt"
	"net/http"
	"runtime"
	"time"
)

var (
	activeSessions   = expvar.NewInt("active_sessions")
	totalSessions    = expvar.NewInt("sessions_total")
	sessionFailures  = expvar.NewInt("session_failures_total")
	activeListeners  = expvar.NewInt("active_access_listeners")
	bytesTransferred = expvar.NewInt("bytes_transferred_total")

	quicStreamsActive = expvar.NewInt("quic_streams_active")
	quicStreamsTotal  = expvar.NewInt("quic_streams_total")
	quicConnErrors    = expvar.NewInt("quic_connection_errors_total")

	systemGoroutines  = expvar.NewInt("system_goroutines")
	systemMemoryAlloc = expvar.NewInt("system_memory_alloc_bytes")

	startTime = time.Now()
)

// IncrementActiveSessions records a new TunnelSession starting.
func IncrementActiveSessions() {
	activeSessions.Add(1)
	totalSessions.Add(1)
}

// DecrementActiveSessions records a TunnelSession ending.
func DecrementActiveSessions() {
	activeSessions.Add(-1)
}

// RecordSessionFailure records a session that ended due to an error rather
// than a clean shutdown.
func RecordSessionFailure() {
	sessionFailures.Add(1)
}

// IncrementActiveListeners records an AccessListener starting (In mode).
func IncrementActiveListeners() {
	activeListeners.Add(1)
}

// DecrementActiveListeners records an AccessListener shutting down.
func DecrementActiveListeners() {
	activeListeners.Add(-1)
}

// RecordBytesTransferred adds n bytes to the running total copied across
// all tunneled connections, in either direction.
func RecordBytesTransferred(n int64) {
	bytesTransferred.Add(n)
}

// IncrementActiveQUICStreams records a bidirectional stream opening.
func IncrementActiveQUICStreams() {
	quicStreamsActive.Add(1)
	quicStreamsTotal.Add(1)
}

// DecrementActiveQUICStreams records a bidirectional stream closing.
func DecrementActiveQUICStreams() {
	quicStreamsActive.Add(-1)
}

// RecordQUICConnectionError records a connection-level error from the
// accept loop or a tunnel session.
func RecordQUICConnectionError() {
	quicConnErrors.Add(1)
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	systemGoroutines.Set(int64(runtime.NumGoroutine()))
	systemMemoryAlloc.Set(int64(m.Alloc))
}

// StartMetricsServer serves expvar's /debug/vars and a Prometheus-style
// /metrics endpoint on addr. It blocks until the server stops.
func StartMetricsServer(addr string) error {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			updateSystemMetrics()
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", http.HandlerFunc(metricsHandler))
	mux.Handle("/debug/vars", expvar.Handler())

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return server.ListenAndServe()
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	fmt.Fprintf(w, "# HELP active_sessions Number of currently active tunnel sessions\n")
	fmt.Fprintf(w, "# TYPE active_sessions gauge\n")
	fmt.Fprintf(w, "active_sessions %v\n", activeSessions.Value())

	fmt.Fprintf(w, "# HELP sessions_total Total number of tunnel sessions accepted\n")
	fmt.Fprintf(w, "# TYPE sessions_total counter\n")
	fmt.Fprintf(w, "sessions_total %v\n", totalSessions.Value())

	fmt.Fprintf(w, "# HELP session_failures_total Total number of sessions that ended in error\n")
	fmt.Fprintf(w, "# TYPE session_failures_total counter\n")
	fmt.Fprintf(w, "session_failures_total %v\n", sessionFailures.Value())

	fmt.Fprintf(w, "# HELP active_access_listeners Number of currently active In-mode access listeners\n")
	fmt.Fprintf(w, "# TYPE active_access_listeners gauge\n")
	fmt.Fprintf(w, "active_access_listeners %v\n", activeListeners.Value())

	fmt.Fprintf(w, "# HELP bytes_transferred_total Total bytes copied across all tunneled connections\n")
	fmt.Fprintf(w, "# TYPE bytes_transferred_total counter\n")
	fmt.Fprintf(w, "bytes_transferred_total %v\n", bytesTransferred.Value())

	fmt.Fprintf(w, "# HELP quic_streams_active Number of currently active QUIC streams\n")
	fmt.Fprintf(w, "# TYPE quic_streams_active gauge\n")
	fmt.Fprintf(w, "quic_streams_active %v\n", quicStreamsActive.Value())

	fmt.Fprintf(w, "# HELP quic_connection_errors_total Total number of QUIC connection-level errors\n")
	fmt.Fprintf(w, "# TYPE quic_connection_errors_total counter\n")
	fmt.Fprintf(w, "quic_connection_errors_total %v\n", quicConnErrors.Value())

	fmt.Fprintf(w, "# HELP system_goroutines Number of active goroutines\n")
	fmt.Fprintf(w, "# TYPE system_goroutines gauge\n")
	fmt.Fprintf(w, "system_goroutines %v\n", systemGoroutines.Value())

	uptime := time.Since(startTime).Seconds()
	fmt.Fprintf(w, "# HELP uptime_seconds Process uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %v\n", uptime)
}
