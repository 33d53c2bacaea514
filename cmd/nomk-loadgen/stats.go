package main

import (
	"math"
	"sort"
	"time"
)

type sample struct {
	Timestamp time.Time
	Latency   time.Duration
	Status    int
	ErrorMsg  string
	Index     int
	Target    string
}

type summary struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationSec   float64   `json:"duration_sec"`
	TotalRequests int64     `json:"total_requests"`
	SuccessCount  int64     `json:"success_count"`
	ErrorCount    int64     `json:"error_count"`
	ThroughputRPS float64   `json:"throughput_rps"`
	P50Ms         float64   `json:"p50_ms"`
	P95Ms         float64   `json:"p95_ms"`
	P99Ms         float64   `json:"p99_ms"`
	Concurrency   int       `json:"concurrency"`
	ZipfS         float64   `json:"zipf_s"`
	ZipfV         float64   `json:"zipf_v"`
	Targets       int       `json:"targets"`
	DecodeShare   float64   `json:"decode_share"`
	BaseURL       string    `json:"base_url"`
}

type aggregate struct {
	total, success, errors int64
	latMs                  []float64
}

func (a *aggregate) add(s sample) {
	a.total++
	if s.ErrorMsg == "" && s.Status >= 200 && s.Status < 300 {
		a.success++
		a.latMs = append(a.latMs, float64(s.Latency.Microseconds())/1000.0)
		return
	}
	a.errors++
}

func (a *aggregate) summarize(start, end time.Time) summary {
	sort.Float64s(a.latMs)
	elapsed := end.Sub(start).Seconds()
	var rps float64
	if elapsed > 0 {
		rps = float64(a.total) / elapsed
	}
	return summary{
		StartTime:     start.UTC(),
		EndTime:       end.UTC(),
		DurationSec:   elapsed,
		TotalRequests: a.total,
		SuccessCount:  a.success,
		ErrorCount:    a.errors,
		ThroughputRPS: rps,
		P50Ms:         percentile(a.latMs, 50),
		P95Ms:         percentile(a.latMs, 95),
		P99Ms:         percentile(a.latMs, 99),
	}
}

// percentile interpolates linearly between the closest ranks.
func percentile(sortedValues []float64, p float64) float64 {
	if len(sortedValues) == 0 {
		return math.NaN()
	}
	if p <= 0 {
		return sortedValues[0]
	}
	if p >= 100 {
		return sortedValues[len(sortedValues)-1]
	}
	k := (p / 100.0) * float64(len(sortedValues)-1)
	f := math.Floor(k)
	i := int(f)
	if i >= len(sortedValues)-1 {
		return sortedValues[len(sortedValues)-1]
	}
	d := k - f
	return sortedValues[i]*(1-d) + sortedValues[i+1]*d
}
