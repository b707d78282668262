package middleware

import (
	"bufio"
	"fmt"
	"math"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type telemetryRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *telemetryRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *telemetryRecorder) Write(data []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(data)
	r.bytes += n
	return n, err
}

// Hijack lets websocket upgrades pass through the recorder.
func (r *telemetryRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	if r.status == 0 {
		r.status = http.StatusSwitchingProtocols
	}
	return hj.Hijack()
}

func (r *telemetryRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// latencyRing keeps the most recent samples of one route.
type latencyRing struct {
	samples []int64
	next    int
}

func (w *latencyRing) add(value int64, size int) {
	if len(w.samples) < size {
		w.samples = append(w.samples, value)
		return
	}
	w.samples[w.next] = value
	w.next = (w.next + 1) % size
}

type RouteLatency struct {
	Route   string `json:"route"`
	Samples int    `json:"samples"`
	P50Ms   int64  `json:"p50Ms"`
	P95Ms   int64  `json:"p95Ms"`
}

type LatencyTracker struct {
	mu     sync.Mutex
	size   int
	routes map[string]*latencyRing
}

func NewLatencyTracker(size int) *LatencyTracker {
	if size <= 0 {
		size = 200
	}
	return &LatencyTracker{size: size, routes: make(map[string]*latencyRing)}
}

// Record adds a sample and returns the route's current p50 and p95.
func (t *LatencyTracker) Record(route string, ms int64) (int64, int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ring, ok := t.routes[route]
	if !ok {
		ring = &latencyRing{}
		t.routes[route] = ring
	}
	ring.add(ms, t.size)
	stats := summarize(route, ring.samples)
	return stats.P50Ms, stats.P95Ms
}

// Snapshot reports every route, sorted by route key.
func (t *LatencyTracker) Snapshot() []RouteLatency {
	t.mu.Lock()
	out := make([]RouteLatency, 0, len(t.routes))
	for route, ring := range t.routes {
		out = append(out, summarize(route, ring.samples))
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Route < out[j].Route })
	return out
}

func summarize(route string, samples []int64) RouteLatency {
	values := append([]int64(nil), samples...)
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	return RouteLatency{
		Route:   route,
		Samples: len(values),
		P50Ms:   percentile(values, 0.5),
		P95Ms:   percentile(values, 0.95),
	}
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// Telemetry logs one structured line per request with rolling latency
// percentiles for the matched route pattern.
func Telemetry(logger *zap.Logger, tracker *LatencyTracker) func(http.Handler) http.Handler {
	if tracker == nil {
		tracker = NewLatencyTracker(0)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &telemetryRecorder{ResponseWriter: w}

			next.ServeHTTP(recorder, r)

			if logger == nil {
				return
			}
			status := recorder.status
			if status == 0 {
				status = http.StatusOK
			}
			duration := time.Since(start)

			routePattern := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				routePattern = rc.RoutePattern()
			}
			key := r.Method + " " + routePattern
			if routePattern == "" {
				key = r.Method + " " + r.URL.Path
			}
			p50, p95 := tracker.Record(key, duration.Milliseconds())

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("routePattern", routePattern),
				zap.String("requestId", RequestIDFrom(r)),
				zap.Int("status", status),
				zap.Int("bytes", recorder.bytes),
				zap.Int64("duration_ms", duration.Milliseconds()),
				zap.Int64("p50_ms", p50),
				zap.Int64("p95_ms", p95),
			}

			switch {
			case status >= 500:
				logger.Error("http_request", fields...)
			case status >= 400:
				logger.Warn("http_request", fields...)
			default:
				logger.Info("http_request", fields...)
			}
		})
	}
}
