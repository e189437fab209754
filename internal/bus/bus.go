// Package bus is deskr's process-wide publish/subscribe channel. It runs an
// embedded NATS server; every event is also captured by a JetStream stream so
// recent history survives restarts.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/deskr/internal/logger"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

var log = logger.Named("bus")

// Kind classifies an event and selects its subject.
type Kind string

const (
	KindUsage   Kind = "usage"
	KindError   Kind = "error"
	KindDesktop Kind = "desktop"
	KindConsent Kind = "consent"

	// KindAll subscribes to every kind.
	KindAll Kind = ">"
)

const (
	streamName    = "deskr_events"
	subjectPrefix = "deskr.events."
	retention     = 30 * 24 * time.Hour
)

// Subject returns the NATS subject for kind, e.g. "deskr.events.usage".
func Subject(kind Kind) string {
	return subjectPrefix + string(kind)
}

// Event is the envelope every message travels in.
type Event struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      Kind            `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// PluginName is reported with every Usage event.
const PluginName = "OrganizeDesktopPlugin"

// Usage reports that an action was invoked.
type Usage struct {
	PluginName   string `json:"pluginName"`
	FunctionName string `json:"functionName"`
}

// ErrorSignal carries an unrecoverable conversation failure to the user.
type ErrorSignal struct {
	Message string `json:"message"`
}

// DesktopChanged reports paths (relative to the desktop root) that changed on disk.
type DesktopChanged struct {
	Paths []string `json:"paths"`
}

// ConsentDecision records how a consent prompt was answered.
type ConsentDecision struct {
	Prompt   string `json:"prompt"`
	Approved bool   `json:"approved"`
}

// Publisher is the write side of the bus.
type Publisher interface {
	Publish(kind Kind, payload any) error
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Kind, any) error { return nil }

// Bus owns the embedded server and one client connection.
type Bus struct {
	ns     *server.Server
	nc     *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// Open starts the embedded server with its store under dataDir/events and
// makes sure the event stream exists.
func Open(ctx context.Context, dataDir string) (*Bus, error) {
	ns, err := startEmbedded(filepath.Join(dataDir, "events"))
	if err != nil {
		return nil, err
	}

	nc, err := connectInProcess(ns)
	if err != nil {
		_ = shutdown(nil, ns)
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		_ = shutdown(nc, ns)
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"deskr.>"},
		Storage:  jetstream.FileStorage,
		MaxAge:   retention,
	})
	if err != nil {
		_ = shutdown(nc, ns)
		return nil, fmt.Errorf("setting up event stream: %w", err)
	}

	log.Debug("bus ready")
	return &Bus{
		ns:     ns,
		nc:     nc,
		js:     js,
		stream: stream,
		subs:   make(map[*Subscription]struct{}),
	}, nil
}

// Publish wraps payload in an Event and sends it without waiting for the
// stream to acknowledge. Ordering holds per publisher.
func (b *Bus) Publish(kind Kind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s payload: %w", kind, err)
	}

	data, err := json.Marshal(Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Kind:      kind,
		Payload:   raw,
	})
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	if err := b.nc.Publish(Subject(kind), data); err != nil {
		return fmt.Errorf("publishing %s event: %w", kind, err)
	}
	return nil
}

// Flush blocks until the server has processed everything published so far.
func (b *Bus) Flush() error {
	return b.nc.Flush()
}

// Subscription is a live handler registration. Call Unsubscribe when the
// owner goes away; nothing is released implicitly.
type Subscription struct {
	bus  *Bus
	sub  *nats.Subscription
	once sync.Once
}

// Unsubscribe stops delivery. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if err := s.sub.Unsubscribe(); err != nil && err != nats.ErrConnectionClosed {
			log.Warn("unsubscribe %s: %v", s.sub.Subject, err)
		}
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
	})
}

// Subscribe calls fn for every event of kind, in publish order, on a single
// goroutine owned by the NATS client.
func (b *Bus) Subscribe(kind Kind, fn func(Event)) (*Subscription, error) {
	sub, err := b.nc.Subscribe(Subject(kind), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.Warn("dropping malformed event on %s: %v", msg.Subject, err)
			return
		}
		fn(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", kind, err)
	}

	s := &Subscription{bus: b, sub: sub}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

// History returns up to limit of the most recent stored events, oldest first.
// A limit of zero or less returns everything retained.
func (b *Bus) History(ctx context.Context, limit int) ([]Event, error) {
	info, err := b.stream.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading stream info: %w", err)
	}
	if info.State.Msgs == 0 {
		return nil, nil
	}

	cfg := jetstream.ConsumerConfig{
		AckPolicy:     jetstream.AckNonePolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
	}
	if limit > 0 && uint64(limit) < info.State.Msgs {
		cfg.DeliverPolicy = jetstream.DeliverByStartSequencePolicy
		cfg.OptStartSeq = info.State.LastSeq - uint64(limit) + 1
	}

	// Ephemeral: the server removes it once it goes idle.
	consumer, err := b.stream.CreateOrUpdateConsumer(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating history consumer: %w", err)
	}

	const batchSize = 500
	var events []Event
	for {
		msgs, err := consumer.FetchNoWait(batchSize)
		if err != nil {
			break
		}

		n := 0
		for msg := range msgs.Messages() {
			n++
			var ev Event
			if err := json.Unmarshal(msg.Data(), &ev); err != nil {
				meta, _ := msg.Metadata()
				if meta != nil {
					log.Warn("skipping malformed event seq=%d: %v", meta.Sequence.Stream, err)
				}
				continue
			}
			events = append(events, ev)
		}

		if n < batchSize {
			break
		}
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// Close unsubscribes any remaining handlers, then drains and stops the server.
func (b *Bus) Close() error {
	b.mu.Lock()
	subs := make([]*Subscription, 0, len(b.subs))
	for s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Unsubscribe()
	}
	return shutdown(b.nc, b.ns)
}
