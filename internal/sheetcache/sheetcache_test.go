package sheetcache

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/mohammed-shakir/topo-nomenclature/internal/cache/redisstore"
	"github.com/mohammed-shakir/topo-nomenclature/internal/nomenclature"
)

// countingCodec counts calls that reach the real codec
type countingCodec struct {
	inner   *nomenclature.Codec
	encodes atomic.Int64
	decodes atomic.Int64
}

func (c *countingCodec) Encode(p nomenclature.Point, s nomenclature.Scale) (nomenclature.Sheet, error) {
	c.encodes.Add(1)
	return c.inner.Encode(p, s)
}

func (c *countingCodec) Decode(text string) (nomenclature.Sheet, error) {
	c.decodes.Add(1)
	return c.inner.Decode(text)
}

func (c *countingCodec) DecodeAt(text string, s nomenclature.Scale) (nomenclature.Sheet, error) {
	c.decodes.Add(1)
	return c.inner.DecodeAt(text, s)
}

func newCounting() *countingCodec {
	return &countingCodec{inner: nomenclature.New()}
}

func newStore(t *testing.T) (*redisstore.Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	rc, err := redisstore.New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

var moscow = nomenclature.Point{Lon: 37.61556, Lat: 55.75222}

func TestEncode_SecondCallServedFromMemory(t *testing.T) {
	inner := newCounting()
	c := New(inner, Config{Size: 16})

	a, err := c.Encode(moscow, nomenclature.Scale100K)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := c.Encode(moscow, nomenclature.Scale100K)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a != b || a.Nomenclature != "N-37-004" {
		t.Fatalf("got %q and %q", a.Nomenclature, b.Nomenclature)
	}
	if n := inner.encodes.Load(); n != 1 {
		t.Fatalf("inner encodes=%d, want 1", n)
	}

	if _, err := c.Encode(moscow, nomenclature.Scale50K); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if n := inner.encodes.Load(); n != 2 {
		t.Fatalf("different scale must miss: inner encodes=%d", n)
	}
}

func TestEncode_NearbyPointsKeepTheirOwnSheet(t *testing.T) {
	inner := newCounting()
	c := New(inner, Config{Size: 16})

	west, err := c.Encode(nomenclature.Point{Lon: 6 - 1e-10, Lat: 50}, nomenclature.Scale1M)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	east, err := c.Encode(nomenclature.Point{Lon: 6 + 1e-10, Lat: 50}, nomenclature.Scale1M)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want, _ := nomenclature.Encode(nomenclature.Point{Lon: 6 + 1e-10, Lat: 50}, nomenclature.Scale1M)
	if west.Nomenclature != "M-31" || east != want {
		t.Fatalf("west=%q east=%q, want M-31 and %q", west.Nomenclature, east.Nomenclature, want.Nomenclature)
	}

	for _, lat := range []float64{-1e-10, math.Copysign(0, -1), 0} {
		p := nomenclature.Point{Lon: 37, Lat: lat}
		got, err := c.Encode(p, nomenclature.Scale1M)
		if err != nil {
			t.Fatalf("Encode(%v): %v", lat, err)
		}
		direct, _ := nomenclature.Encode(p, nomenclature.Scale1M)
		if got != direct {
			t.Fatalf("lat %v: cached %+v, codec %+v", lat, got, direct)
		}
	}
}

func TestErrorsAreNotCached(t *testing.T) {
	inner := newCounting()
	c := New(inner, Config{Size: 16})

	for i := 0; i < 2; i++ {
		_, err := c.Encode(nomenclature.Point{Lon: 200, Lat: 0}, nomenclature.Scale1M)
		if !errors.Is(err, nomenclature.ErrLongitudeOutOfDomain) {
			t.Fatalf("err=%v", err)
		}
		_, err = c.Decode("not a sheet")
		if !errors.Is(err, nomenclature.ErrUnparseable) {
			t.Fatalf("err=%v", err)
		}
	}
	if inner.encodes.Load() != 2 || inner.decodes.Load() != 2 {
		t.Fatalf("errors were cached: encodes=%d decodes=%d", inner.encodes.Load(), inner.decodes.Load())
	}
	if c.Len() != 0 {
		t.Fatalf("cache holds %d entries after failures", c.Len())
	}
}

func TestDecode_SpacingVariantsShareEntry(t *testing.T) {
	inner := newCounting()
	c := New(inner, Config{Size: 16})

	a, err := c.Decode("T-47-123-А,Б,124-А,Б")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b, err := c.Decode(" T-47-123-А, Б, 124-А, Б")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if a.Nomenclature != b.Nomenclature {
		t.Fatalf("%q != %q", a.Nomenclature, b.Nomenclature)
	}
	if n := inner.decodes.Load(); n != 1 {
		t.Fatalf("inner decodes=%d, want 1", n)
	}

	// an explicit scale is a separate key
	if _, err := c.DecodeAt("T-47-123-А,Б,124-А,Б", nomenclature.Scale50K); err != nil {
		t.Fatalf("DecodeAt: %v", err)
	}
	if n := inner.decodes.Load(); n != 2 {
		t.Fatalf("inner decodes=%d, want 2", n)
	}
}

func TestDecode_SharedTierAcrossInstances(t *testing.T) {
	store, mr := newStore(t)

	first := newCounting()
	c1 := New(first, Config{Size: 16, TTL: time.Minute}, WithStore(store))
	want, err := c1.DecodeContext(context.Background(), "N-37-004-В")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	ks := mr.Keys()
	if len(ks) != 1 || !strings.HasPrefix(ks[0], "nomk:v1:decode:auto:") {
		t.Fatalf("redis keys=%v", ks)
	}
	if ttl := mr.TTL(ks[0]); ttl != time.Minute {
		t.Fatalf("ttl=%v, want 1m", ttl)
	}

	// a fresh instance with an empty memory tier must not reach its codec
	second := newCounting()
	c2 := New(second, Config{Size: 16}, WithStore(store))
	got, err := c2.DecodeContext(context.Background(), "N-37-004-В")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if second.decodes.Load() != 0 {
		t.Fatalf("shared hit expected, inner decodes=%d", second.decodes.Load())
	}
	if got != want {
		t.Fatalf("shared entry differs:\n got=%+v\nwant=%+v", got, want)
	}
	if c2.Len() != 1 {
		t.Fatalf("shared hit must fill the memory tier, len=%d", c2.Len())
	}
}

func TestDecode_TTLPerScale(t *testing.T) {
	store, mr := newStore(t)
	c := New(newCounting(), Config{
		Size: 16,
		TTL:  time.Minute,
		TTLFor: func(scale string) time.Duration {
			if scale == "1m" {
				return time.Hour
			}
			return time.Minute
		},
	}, WithStore(store))

	if _, err := c.DecodeAt("N-37", nomenclature.Scale1M); err != nil {
		t.Fatalf("DecodeAt: %v", err)
	}
	ks := mr.Keys()
	if len(ks) != 1 {
		t.Fatalf("keys=%v", ks)
	}
	if ttl := mr.TTL(ks[0]); ttl != time.Hour {
		t.Fatalf("ttl=%v, want 1h", ttl)
	}
}

func TestDecode_StoreDownFallsBackToCodec(t *testing.T) {
	store, mr := newStore(t)
	inner := newCounting()
	c := New(inner, Config{Size: 16, OpTimeout: 50 * time.Millisecond}, WithStore(store))

	mr.Close()

	sh, err := c.Decode("N-37-II")
	if err != nil {
		t.Fatalf("Decode with redis down: %v", err)
	}
	if sh.Nomenclature != "N-37-II" {
		t.Fatalf("got %q", sh.Nomenclature)
	}
	if inner.decodes.Load() != 1 {
		t.Fatalf("inner decodes=%d", inner.decodes.Load())
	}
}

func TestDecode_CorruptSharedEntryIgnored(t *testing.T) {
	store, mr := newStore(t)
	inner := newCounting()
	c := New(inner, Config{Size: 16}, WithStore(store))

	if _, err := c.Decode("N-37-А"); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ks := mr.Keys()
	if len(ks) != 1 {
		t.Fatalf("keys=%v", ks)
	}
	if err := mr.Set(ks[0], "{not json"); err != nil {
		t.Fatalf("mr.Set: %v", err)
	}
	c.Purge()

	sh, err := c.Decode("N-37-А")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if sh.Nomenclature != "N-37-А" {
		t.Fatalf("got %q", sh.Nomenclature)
	}
	if inner.decodes.Load() != 2 {
		t.Fatalf("corrupt entry must be recomputed, inner decodes=%d", inner.decodes.Load())
	}
}

func TestMemoryTierExpires(t *testing.T) {
	inner := newCounting()
	c := New(inner, Config{Size: 16, TTL: 20 * time.Millisecond})

	if _, err := c.Decode("N-37"); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	time.Sleep(60 * time.Millisecond)
	if _, err := c.Decode("N-37"); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if inner.decodes.Load() != 2 {
		t.Fatalf("expired entry served, inner decodes=%d", inner.decodes.Load())
	}
}
