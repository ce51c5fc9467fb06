package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/hackgods/hospital-records/internal/remote"
)

// OperationMetrics accumulates outcomes and latencies for one operation.
// Rejected counts 4xx answers, which under load are expected (for example a
// booking that raced a patient the server has not seen yet).
type OperationMetrics struct {
	mu        sync.Mutex
	total     int
	success   int
	rejected  int
	failed    int
	latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, err error) {
	om.mu.Lock()
	defer om.mu.Unlock()

	om.total++
	var se *remote.StatusError
	switch {
	case err == nil:
		om.success++
	case errors.As(err, &se) && se.Code >= http.StatusBadRequest && se.Code < http.StatusInternalServerError:
		om.rejected++
	default:
		om.failed++
	}
	om.latencies = append(om.latencies, latency)
}

type Stats struct {
	Total, Success, Rejected, Failed int
	Avg, Min, Max, P50, P95          time.Duration
}

func (om *OperationMetrics) Stats() Stats {
	om.mu.Lock()
	defer om.mu.Unlock()

	st := Stats{Total: om.total, Success: om.success, Rejected: om.rejected, Failed: om.failed}
	if len(om.latencies) == 0 {
		return st
	}

	latencies := make([]time.Duration, len(om.latencies))
	copy(latencies, om.latencies)
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	st.Avg = sum / time.Duration(len(latencies))
	st.Min = latencies[0]
	st.Max = latencies[len(latencies)-1]
	st.P50 = percentile(latencies, 50)
	st.P95 = percentile(latencies, 95)
	return st
}

func percentile(sorted []time.Duration, p int) time.Duration {
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func (om *OperationMetrics) Report(w io.Writer, name string) {
	st := om.Stats()
	if st.Total == 0 {
		return
	}

	pct := func(n int) float64 { return float64(n) / float64(st.Total) * 100 }

	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  Total: %d\n", st.Total)
	fmt.Fprintf(w, "  Success: %d (%.1f%%)\n", st.Success, pct(st.Success))
	if st.Rejected > 0 {
		fmt.Fprintf(w, "  Rejected: %d (%.1f%%)\n", st.Rejected, pct(st.Rejected))
	}
	if st.Failed > 0 {
		fmt.Fprintf(w, "  Errors: %d (%.1f%%)\n", st.Failed, pct(st.Failed))
	}
	fmt.Fprintf(w, "  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n\n",
		st.Avg.Round(time.Millisecond), st.Min.Round(time.Millisecond), st.Max.Round(time.Millisecond),
		st.P50.Round(time.Millisecond), st.P95.Round(time.Millisecond))
}
