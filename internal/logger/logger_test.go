package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(b), &m); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, b)
	}
	return m
}

func TestSlogBridge_ContextAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Service: "nomk", Component: "test"}, &buf)
	log := NewSlog(&zl)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithScale(WithOp(ctx, "decode"), "100k")
	log.With("tier", "l1").InfoContext(ctx, "lookup", "hit", true, "err", errors.New("boom"))

	m := decodeLine(t, buf.Bytes())
	for k, want := range map[string]any{
		"service": "nomk", "component": "test", "request_id": "req-1",
		"op": "decode", "scale": "100k", "tier": "l1", "hit": true, "err": "boom", "msg": "lookup",
	} {
		if m[k] != want {
			t.Fatalf("%s = %v, want %v (line %v)", k, m[k], want, m)
		}
	}
}

func TestSlogBridge_GroupsPrefixKeys(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "info"}, &buf)
	NewSlog(&zl).WithGroup("redis").Info("ping", "addr", "localhost:6379")

	m := decodeLine(t, buf.Bytes())
	if m["redis.addr"] != "localhost:6379" {
		t.Fatalf("grouped key missing: %v", m)
	}
}

func TestSlogBridge_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	log := NewSlog(&zl)
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn: %s", buf.String())
	}
	log.Warn("kept")
	if m := decodeLine(t, buf.Bytes()); m["level"] != "warn" {
		t.Fatalf("level = %v", m["level"])
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); len(id) != 16 {
		t.Fatalf("generated id %q", id)
	}
}

func TestBuild_LevelIsPerLogger(t *testing.T) {
	var quiet, loud bytes.Buffer
	q := Build(Config{Level: "error"}, &quiet)
	l := Build(Config{Level: "trace"}, &loud)

	NewSlog(&q).Warn("hidden")
	NewSlog(&l).Debug("shown")
	if quiet.Len() != 0 {
		t.Fatalf("error logger wrote a warning: %s", quiet.String())
	}
	if m := decodeLine(t, loud.Bytes()); m["msg"] != "shown" {
		t.Fatalf("trace logger line %v", m)
	}
}

func TestFromContext_NilParentDiscards(t *testing.T) {
	l := FromContext(WithOp(context.Background(), "encode"), nil)
	l.Info().Msg("nowhere")
	if l.GetLevel() != zerolog.Disabled {
		t.Fatalf("level = %v, want disabled", l.GetLevel())
	}
}
