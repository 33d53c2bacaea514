// Package logger builds the zerolog logger shared by the binaries and
// carries per-request fields through a context.
package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level     string // trace, debug, info, warn, error; anything else is info
	Console   bool
	SampleN   int // keep one line in N; 0 keeps all
	Service   string
	Component string
}

type ctxKey string

const (
	keyRequestID ctxKey = "request_id"
	keyComponent ctxKey = "component"
	keyOp        ctxKey = "op"
	keyScale     ctxKey = "scale"
)

// fieldOrder is the order context fields appear in a log line.
var fieldOrder = [...]ctxKey{keyRequestID, keyComponent, keyOp, keyScale}

func with(ctx context.Context, k ctxKey, v string) context.Context {
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, k, v)
}

// WithRequestID stores id, generating one when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewID()
	}
	return with(ctx, keyRequestID, id)
}

func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(keyRequestID).(string)
	return s
}

func WithComponent(ctx context.Context, component string) context.Context {
	return with(ctx, keyComponent, component)
}

// WithScale tags log lines with the map scale being served.
func WithScale(ctx context.Context, scale string) context.Context {
	return with(ctx, keyScale, scale)
}

// WithOp tags log lines with the codec operation (encode, decode, ...).
func WithOp(ctx context.Context, op string) context.Context {
	return with(ctx, keyOp, op)
}

// NewID returns 16 hex characters.
func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

func sampler(n int) zerolog.Sampler {
	if n <= 1 {
		return nil
	}
	if n > math.MaxUint32 {
		n = math.MaxUint32
	}
	return &zerolog.BasicSampler{N: uint32(n)}
}

// Build returns a JSON logger (console-formatted when cfg.Console) writing
// to out, or stdout when out is nil.
func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.MessageFieldName = "msg"

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(out).Level(parseLevel(cfg.Level))
	if s := sampler(cfg.SampleN); s != nil {
		zl = zl.Sample(s)
	}

	c := zl.With().Timestamp()
	if cfg.Service != "" {
		c = c.Str("service", cfg.Service)
	}
	if cfg.Component != "" {
		c = c.Str("component", cfg.Component)
	}
	return c.Logger()
}

// FromContext returns a child of parent carrying the context fields. A nil
// parent discards.
func FromContext(ctx context.Context, parent *zerolog.Logger) *zerolog.Logger {
	base := zerolog.Nop()
	if parent != nil {
		base = *parent
	}
	w := base.With()
	for _, k := range fieldOrder {
		if s, ok := ctx.Value(k).(string); ok && s != "" {
			w = w.Str(string(k), s)
		}
	}
	l := w.Logger()
	return &l
}
