package observability

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInit_RegistersOncePerRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, true)
	Init(reg, true)

	other := prometheus.NewRegistry()
	Init(other, true)
	if n, err := testutil.GatherAndCount(other, "nomk_events_dropped_total"); err != nil || n != 1 {
		t.Fatalf("second registry: series=%d err=%v", n, err)
	}

	ObserveHTTP("GET", "/v1/encode", 200, 0.001)
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() == "http_requests_total" {
			found = true
		}
	}
	if !found {
		t.Fatalf("http_requests_total not registered")
	}
}

func TestObserveLookup_DefaultsScale(t *testing.T) {
	before := testutil.ToFloat64(lookupsTotal.WithLabelValues("decode", "auto", "ok"))
	ObserveLookup("decode", "", "ok", 0.0001)
	if got := testutil.ToFloat64(lookupsTotal.WithLabelValues("decode", "auto", "ok")); got != before+1 {
		t.Fatalf("decode/auto/ok = %v, want %v", got, before+1)
	}
}

func TestObserveCacheOp_ClassifiesResult(t *testing.T) {
	ok := testutil.ToFloat64(cacheOps.WithLabelValues("get", "ok"))
	miss := testutil.ToFloat64(cacheOps.WithLabelValues("get", "miss"))
	bad := testutil.ToFloat64(cacheOps.WithLabelValues("get", "error"))

	ObserveCacheOp("get", nil, 0.001)
	ObserveCacheOp("get", ErrCacheMiss, 0.001)
	ObserveCacheOp("get", errors.New("conn refused"), 0.001)

	if testutil.ToFloat64(cacheOps.WithLabelValues("get", "ok")) != ok+1 ||
		testutil.ToFloat64(cacheOps.WithLabelValues("get", "miss")) != miss+1 ||
		testutil.ToFloat64(cacheOps.WithLabelValues("get", "error")) != bad+1 {
		t.Fatalf("cache op results not classified")
	}
}

func TestEventCounters(t *testing.T) {
	before := testutil.ToFloat64(eventsDropped)
	IncEventDropped()
	if testutil.ToFloat64(eventsDropped) != before+1 {
		t.Fatalf("dropped counter did not move")
	}
	pub := testutil.ToFloat64(eventsTotal.WithLabelValues("published"))
	IncEventPublished()
	if testutil.ToFloat64(eventsTotal.WithLabelValues("published")) != pub+1 {
		t.Fatalf("published counter did not move")
	}
}
