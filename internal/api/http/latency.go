package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// latency values are recorded in microseconds, up to one minute
const (
	latencyMin     = 1
	latencyMax     = int64(time.Minute / time.Microsecond)
	latencySigFigs = 3
)

// Latency records request durations in a shared histogram.
type Latency struct {
	mu sync.Mutex
	h  *hdrhistogram.Histogram
}

func NewLatency() *Latency {
	return &Latency{h: hdrhistogram.New(latencyMin, latencyMax, latencySigFigs)}
}

// LatencyStats is a millisecond summary of the recorded requests.
type LatencyStats struct {
	Count int64   `json:"count"`
	Mean  float64 `json:"mean_ms"`
	P50   float64 `json:"p50_ms"`
	P90   float64 `json:"p90_ms"`
	P99   float64 `json:"p99_ms"`
	Max   float64 `json:"max_ms"`
}

func (l *Latency) Record(d time.Duration) {
	us := min(max(d.Microseconds(), latencyMin), latencyMax)
	l.mu.Lock()
	defer l.mu.Unlock()
	// values are clamped into the trackable range
	_ = l.h.RecordValue(us)
}

func (l *Latency) Stats() LatencyStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	ms := func(us int64) float64 { return float64(us) / 1000 }
	return LatencyStats{
		Count: l.h.TotalCount(),
		Mean:  l.h.Mean() / 1000,
		P50:   ms(l.h.ValueAtQuantile(50)),
		P90:   ms(l.h.ValueAtQuantile(90)),
		P99:   ms(l.h.ValueAtQuantile(99)),
		Max:   ms(l.h.Max()),
	}
}

func (l *Latency) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Record(time.Since(start))
	})
}
