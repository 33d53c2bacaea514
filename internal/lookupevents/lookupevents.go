// Package lookupevents publishes one Kafka record per served lookup.
package lookupevents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mohammed-shakir/topo-nomenclature/internal/core/observability"
)

type Event struct {
	ID           string    `json:"id"`
	Op           string    `json:"op"`
	Scale        string    `json:"scale"`
	Nomenclature string    `json:"nomenclature"`
	Lon          float64   `json:"lon"`
	Lat          float64   `json:"lat"`
	TS           time.Time `json:"ts"`
	RequestID    string    `json:"request_id,omitempty"`
}

// Publisher never blocks the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, Event) {}
func (Noop) Close() error                  { return nil }

type Stats struct {
	Published uint64
	Failed    uint64
	Dropped   uint64
}

type Kafka struct {
	topic  string
	prod   sarama.AsyncProducer
	clock  clockwork.Clock
	log    *slog.Logger
	events chan Event

	mu     sync.RWMutex
	closed bool

	loopDone chan struct{}
	errsDone chan struct{}

	published atomic.Uint64
	failed    atomic.Uint64
	dropped   atomic.Uint64
}

type Option func(*Kafka)

func WithClock(c clockwork.Clock) Option {
	return func(k *Kafka) { k.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(k *Kafka) { k.log = l }
}

// ProducerConfig is the sarama configuration used by NewKafka.
func ProducerConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.ClientID = "nomkd"
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Return.Errors = true
	cfg.Producer.Return.Successes = false
	return cfg
}

func NewKafka(brokers []string, topic string, queueSize int, opts ...Option) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("lookupevents: no brokers")
	}
	if topic == "" {
		return nil, fmt.Errorf("lookupevents: empty topic")
	}
	prod, err := sarama.NewAsyncProducer(brokers, ProducerConfig())
	if err != nil {
		return nil, fmt.Errorf("lookupevents: create async producer: %w", err)
	}
	return NewWithProducer(prod, topic, queueSize, opts...), nil
}

// NewWithProducer starts a publisher on an existing producer, which must
// report errors.
func NewWithProducer(prod sarama.AsyncProducer, topic string, queueSize int, opts ...Option) *Kafka {
	if queueSize <= 0 {
		queueSize = 1024
	}
	k := &Kafka{
		topic:    topic,
		prod:     prod,
		clock:    clockwork.NewRealClock(),
		log:      slog.Default(),
		events:   make(chan Event, queueSize),
		loopDone: make(chan struct{}),
		errsDone: make(chan struct{}),
	}
	for _, o := range opts {
		o(k)
	}

	go k.sendLoop()
	go k.errorLoop()
	return k
}

// Publish enqueues ev, filling ID and TS when unset. A full queue drops
// the event.
func (k *Kafka) Publish(ctx context.Context, ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.TS.IsZero() {
		ev.TS = k.clock.Now().UTC()
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return
	}
	select {
	case k.events <- ev:
	default:
		k.dropped.Add(1)
		observability.IncEventDropped()
		k.log.DebugContext(ctx, "lookup event dropped", "op", ev.Op, "nomenclature", ev.Nomenclature)
	}
}

func (k *Kafka) sendLoop() {
	defer close(k.loopDone)
	for ev := range k.events {
		b, err := json.Marshal(ev)
		if err != nil {
			k.log.Error("lookup event marshal failed", "err", err)
			continue
		}
		k.prod.Input() <- &sarama.ProducerMessage{
			Topic: k.topic,
			Key:   sarama.StringEncoder(ev.Nomenclature),
			Value: sarama.ByteEncoder(b),
		}
		k.published.Add(1)
		observability.IncEventPublished()
	}
}

func (k *Kafka) errorLoop() {
	defer close(k.errsDone)
	for err := range k.prod.Errors() {
		if err == nil {
			continue
		}
		k.failed.Add(1)
		observability.IncEventFailed()
		k.log.Warn("lookup event publish failed", "topic", k.topic, "err", err.Err)
	}
}

func (k *Kafka) Stats() Stats {
	return Stats{
		Published: k.published.Load(),
		Failed:    k.failed.Load(),
		Dropped:   k.dropped.Load(),
	}
}

// Close flushes queued events and shuts the producer down. Publish after
// Close is a no-op.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	close(k.events)
	k.mu.Unlock()

	<-k.loopDone
	err := k.prod.Close()
	<-k.errsDone
	if err != nil {
		return fmt.Errorf("lookupevents: close producer: %w", err)
	}
	return nil
}
