package lookupevents

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

func mockProducer(t *testing.T) *mocks.AsyncProducer {
	t.Helper()
	return mocks.NewAsyncProducer(t, ProducerConfig())
}

func TestPublish_WritesJSONRecord(t *testing.T) {
	prod := mockProducer(t)
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(at)

	prod.ExpectInputWithCheckerFunctionAndSucceed(func(b []byte) error {
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			return err
		}
		if ev.Op != "encode" || ev.Scale != "100k" || ev.Nomenclature != "N-37-004" {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		if !ev.TS.Equal(at) {
			return fmt.Errorf("ts=%v, want %v", ev.TS, at)
		}
		if _, err := uuid.Parse(ev.ID); err != nil {
			return fmt.Errorf("id %q: %w", ev.ID, err)
		}
		return nil
	})

	k := NewWithProducer(prod, "nomk.lookups", 8, WithClock(clock))
	k.Publish(context.Background(), Event{
		Op: "encode", Scale: "100k", Nomenclature: "N-37-004",
		Lon: 37.61556, Lat: 55.75222,
	})
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if st := k.Stats(); st.Published != 1 || st.Failed != 0 || st.Dropped != 0 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestPublish_KeepsCallerIDAndTimestamp(t *testing.T) {
	prod := mockProducer(t)
	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	prod.ExpectInputWithCheckerFunctionAndSucceed(func(b []byte) error {
		var ev Event
		if err := json.Unmarshal(b, &ev); err != nil {
			return err
		}
		if ev.ID != "fixed-id" || !ev.TS.Equal(ts) || ev.RequestID != "req-1" {
			return fmt.Errorf("caller fields overwritten: %+v", ev)
		}
		return nil
	})

	k := NewWithProducer(prod, "nomk.lookups", 8)
	k.Publish(context.Background(), Event{ID: "fixed-id", TS: ts, RequestID: "req-1", Op: "decode"})
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublish_ProducerErrorCounted(t *testing.T) {
	prod := mockProducer(t)
	prod.ExpectInputAndFail(errors.New("broker unavailable"))
	prod.ExpectInputAndSucceed()

	k := NewWithProducer(prod, "nomk.lookups", 8)
	k.Publish(context.Background(), Event{Op: "decode", Nomenclature: "N-37"})
	k.Publish(context.Background(), Event{Op: "decode", Nomenclature: "N-38"})
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st := k.Stats()
	if st.Published != 2 || st.Failed != 1 {
		t.Fatalf("stats=%+v, want 2 published 1 failed", st)
	}
}

// stuckProducer never accepts input until release is closed.
type stuckProducer struct {
	sarama.AsyncProducer
	input   chan *sarama.ProducerMessage
	errs    chan *sarama.ProducerError
	release chan struct{}
}

func newStuck() *stuckProducer {
	return &stuckProducer{
		input:   make(chan *sarama.ProducerMessage),
		errs:    make(chan *sarama.ProducerError),
		release: make(chan struct{}),
	}
}

func (s *stuckProducer) Input() chan<- *sarama.ProducerMessage { return s.input }
func (s *stuckProducer) Errors() <-chan *sarama.ProducerError  { return s.errs }

func (s *stuckProducer) Close() error {
	close(s.errs)
	return nil
}

func (s *stuckProducer) drain() {
	go func() {
		for range s.input {
		}
	}()
}

func TestPublish_FullQueueDrops(t *testing.T) {
	prod := newStuck()
	k := NewWithProducer(prod, "nomk.lookups", 1)

	for i := 0; i < 5; i++ {
		k.Publish(context.Background(), Event{Op: "encode"})
	}
	// at most one event is held by the send loop and one by the queue
	if d := k.Stats().Dropped; d < 3 {
		t.Fatalf("dropped=%d, want >= 3", d)
	}

	prod.drain()
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestPublish_AfterCloseIsNoop(t *testing.T) {
	prod := mockProducer(t)
	k := NewWithProducer(prod, "nomk.lookups", 8)
	if err := k.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	k.Publish(context.Background(), Event{Op: "encode"})
	if err := k.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if st := k.Stats(); st.Published != 0 || st.Dropped != 0 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestNewKafka_Validation(t *testing.T) {
	if _, err := NewKafka(nil, "t", 1); err == nil {
		t.Fatalf("expected error for empty broker list")
	}
	if _, err := NewKafka([]string{"localhost:9092"}, "", 1); err == nil {
		t.Fatalf("expected error for empty topic")
	}
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	p.Publish(context.Background(), Event{})
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
