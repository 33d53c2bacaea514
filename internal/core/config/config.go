package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type CacheCfg struct {
	Enabled   bool
	Size      int
	TTL       time.Duration
	TTLOvr    map[string]time.Duration // keyed by scale name, e.g. "1m"
	OpTimeout time.Duration
	RedisAddr string // empty disables the shared tier
	RedisPass string
	RedisDB   int
	RedisPool int
}

type EventsCfg struct {
	Enabled bool
	Brokers string
	Topic   string
	Queue   int
}

type MetricsCfg struct {
	Enabled bool
	Addr    string // empty serves on the API listener
	Path    string
}

type Config struct {
	Addr         string
	LogLevel     string
	LogConsole   bool
	LogSampleN   int
	Cache        CacheCfg
	Events       EventsCfg
	Metrics      MetricsCfg
	H3ResDefault int
	H3ResMax     int
	CoverLimit   int
}

func FromEnv() Config {
	maxRes := getint("H3_RES_MAX", 10)
	if maxRes < 0 || maxRes > 15 {
		maxRes = 15
	}
	defRes := getint("H3_RES_DEFAULT", 6)
	if defRes < 0 {
		defRes = 0
	}
	if defRes > maxRes {
		defRes = maxRes
	}

	return Config{
		Addr:       getenv("ADDR", ":8090"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		LogSampleN: getint("LOG_SAMPLE_N", 0),
		Cache: CacheCfg{
			Enabled:   getbool("CACHE_ENABLED", true),
			Size:      getint("CACHE_SIZE", 10000),
			TTL:       getduration("CACHE_TTL", 10*time.Minute),
			TTLOvr:    parseDurationMap(getenv("CACHE_TTL_OVERRIDES", "")),
			OpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
			RedisAddr: os.Getenv("REDIS_ADDR"),
			RedisPass: os.Getenv("REDIS_PASSWORD"),
			RedisDB:   getint("REDIS_DB", 0),
			RedisPool: getint("REDIS_POOL_SIZE", 32),
		},
		Events: EventsCfg{
			Enabled: getbool("EVENTS_ENABLED", false),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			Topic:   getenv("EVENTS_TOPIC", "nomenclature-lookups"),
			Queue:   getint("EVENTS_QUEUE", 1024),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", true),
			Addr:    getenv("METRICS_ADDR", ""),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
		H3ResDefault: defRes,
		H3ResMax:     maxRes,
		CoverLimit:   getint("COVER_LIMIT", 1000),
	}
}

// BrokerList splits the comma separated broker list.
func (e EventsCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(e.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// TTLFor returns the cache TTL of a scale, honoring overrides.
func (c CacheCfg) TTLFor(scale string) time.Duration {
	if d, ok := c.TTLOvr[scale]; ok && d > 0 {
		return d
	}
	return c.TTL
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "1m=24h,2k=5m" into map
func parseDurationMap(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for p := range strings.SplitSeq(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
		}
	}
	return out
}
