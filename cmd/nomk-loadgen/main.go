package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mohammed-shakir/topo-nomenclature/internal/logger"
)

type Config struct {
	BaseURL        string
	Concurrency    int
	Duration       time.Duration
	ZipfS          float64
	ZipfV          float64
	Targets        int
	DecodeShare    float64
	OutputPrefix   string
	RequestTimeout time.Duration
	Seed           uint64
}

func loadConfig() Config {
	var cfg Config
	flag.StringVar(&cfg.BaseURL, "target", "http://localhost:8090", "nomkd base URL")
	flag.IntVar(&cfg.Concurrency, "concurrency", 32, "Concurrent workers")
	flag.DurationVar(&cfg.Duration, "duration", 60*time.Second, "Test duration")
	flag.Float64Var(&cfg.ZipfS, "zipf-s", 1.3, "Zipf parameter s (>1)")
	flag.Float64Var(&cfg.ZipfV, "zipf-v", 1.0, "Zipf parameter v (>=1)")
	flag.IntVar(&cfg.Targets, "targets", 512, "Distinct requests in the pool")
	flag.Float64Var(&cfg.DecodeShare, "decode-share", 0.5, "Fraction of decode requests")
	flag.StringVar(&cfg.OutputPrefix, "out", "results/nomk", "Output file prefix (JSON/CSV)")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 10*time.Second, "Per-request timeout")
	flag.Uint64Var(&cfg.Seed, "seed", 0, "Workload seed (0 picks one from the clock)")
	flag.Parse()
	return cfg
}

func main() {
	os.Exit(run())
}

func run() int {
	cfg := loadConfig()
	zl := logger.Build(logger.Config{Level: "info", Console: true, Service: "nomk-loadgen"}, os.Stderr)
	log := logger.NewSlog(&zl)

	if cfg.Concurrency <= 0 || cfg.ZipfS <= 1 || cfg.ZipfV < 1 {
		log.Error("invalid flags", "concurrency", cfg.Concurrency, "zipf_s", cfg.ZipfS, "zipf_v", cfg.ZipfV)
		return 2
	}
	if err := os.MkdirAll(filepath.Dir(cfg.OutputPrefix), 0o750); err != nil {
		log.Error("mkdir results", "err", err)
		return 1
	}
	prefix := fmt.Sprintf("%s_%s", cfg.OutputPrefix, time.Now().UTC().Format("20060102_150405Z"))

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	targets, err := makeTargets(cfg.Targets, cfg.DecodeShare, rand.New(rand.NewPCG(seed, 0)))
	if err != nil {
		log.Error("workload", "err", err)
		return 1
	}

	csvPath := prefix + "_samples.csv"
	jsonPath := prefix + "_summary.json"
	csvFile, err := os.Create(filepath.Clean(csvPath))
	if err != nil {
		log.Error("open csv", "err", err)
		return 1
	}
	defer func() { _ = csvFile.Close() }()

	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: 4 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			MaxIdleConns:        1024,
			MaxIdleConnsPerHost: 256,
			IdleConnTimeout:     90 * time.Second,
		},
		Timeout: cfg.RequestTimeout,
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	samples := make(chan sample, 4096)
	results := make(chan *aggregate, 1)
	go collect(samples, csv.NewWriter(csvFile), results, log)

	start := time.Now()
	log.Info("loadgen start",
		"target", cfg.BaseURL, "duration", cfg.Duration, "concurrency", cfg.Concurrency,
		"targets", len(targets), "decode_share", cfg.DecodeShare, "seed", seed)

	base := strings.TrimRight(cfg.BaseURL, "/")
	imax := uint64(len(targets) - 1)
	var wg sync.WaitGroup
	for id := range cfg.Concurrency {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			zipf := rand.NewZipf(rand.New(rand.NewPCG(seed, id+1)), cfg.ZipfS, cfg.ZipfV, imax)
			for ctx.Err() == nil {
				idx := int(zipf.Uint64())
				s := fire(ctx, httpClient, base, targets[idx])
				s.Index = idx
				select {
				case samples <- s:
				case <-ctx.Done():
					return
				}
			}
		}(uint64(id))
	}

	wg.Wait()
	close(samples)
	agg := <-results
	sum := agg.summarize(start, time.Now())
	sum.Concurrency = cfg.Concurrency
	sum.ZipfS, sum.ZipfV = cfg.ZipfS, cfg.ZipfV
	sum.Targets = len(targets)
	sum.DecodeShare = cfg.DecodeShare
	sum.BaseURL = cfg.BaseURL

	if err := writeSummary(filepath.Clean(jsonPath), sum); err != nil {
		log.Error("write summary", "path", jsonPath, "err", err)
	}

	log.Info("done",
		"total", sum.TotalRequests, "ok", sum.SuccessCount, "errors", sum.ErrorCount,
		"rps", sum.ThroughputRPS, "p50_ms", sum.P50Ms, "p95_ms", sum.P95Ms, "p99_ms", sum.P99Ms,
		"summary", jsonPath, "samples", csvPath)
	return 0
}

func fire(ctx context.Context, c *http.Client, base string, t target) sample {
	u := base + "/v1/" + t.Op + "?" + t.Query.Encode()
	s := sample{Timestamp: time.Now(), Target: t.String()}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.Do(req)
	s.Latency = time.Since(s.Timestamp)
	if err != nil {
		s.ErrorMsg = err.Error()
		return s
	}
	s.Status = resp.StatusCode
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.ErrorMsg = "status=" + strconv.Itoa(resp.StatusCode)
	}
	return s
}

func collect(in <-chan sample, w *csv.Writer, out chan<- *aggregate, log *slog.Logger) {
	_ = w.Write([]string{"timestamp", "latency_ms", "status", "error", "idx", "target"})
	agg := &aggregate{latMs: make([]float64, 0, 1<<16)}
	for s := range in {
		agg.add(s)
		_ = w.Write([]string{
			s.Timestamp.UTC().Format(time.RFC3339Nano),
			fmt.Sprintf("%.3f", float64(s.Latency.Microseconds())/1000.0),
			strconv.Itoa(s.Status),
			s.ErrorMsg,
			strconv.Itoa(s.Index),
			s.Target,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Warn("csv flush", "err", err)
	}
	out <- agg
}

func writeSummary(path string, sum summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sum); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
