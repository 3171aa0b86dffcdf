// Craftwarden - Game Server Management and Analytics
// Copyright 2026 Dan H. (danhux)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/danhux/craftwarden

/*
pipeline.go - Sample Ingest Pipeline

Collected samples ride NATS JetStream between the HTTP handler and the
JSONL store:

	POST /collect -> Publish -> JetStream -> router -> Appender -> Store

The broker is embedded by default and reached over in-process pipes.
JetStream tracks message IDs inside the stream's duplicate window, the
consumer keeps a short-lived seen cache for redeliveries, and the batch
appender turns bursts into sequential file appends. Notices ride the
same stream on notices.> subjects and fan out to WebSocket clients.
*/

//nolint:staticcheck // File documentation, not package doc
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/danhux/craftwarden/internal/analytics"
	"github.com/danhux/craftwarden/internal/cache"
	"github.com/danhux/craftwarden/internal/config"
	"github.com/danhux/craftwarden/internal/logging"
)

const (
	ackWait       = 30 * time.Second
	maxDeliver    = 5
	maxAckPending = 256
	closeTimeout  = 30 * time.Second
	reconnectWait = 2 * time.Second
	startTimeout  = 30 * time.Second
)

// PipelineStats snapshots pipeline health for admin diagnostics.
type PipelineStats struct {
	Running      bool          `json:"running"`
	Embedded     bool          `json:"embedded"`
	BreakerState string        `json:"breaker_state,omitempty"`
	Appender     AppenderStats `json:"appender"`
}

// Pipeline owns every moving part of the ingest path: the optional
// embedded broker, the stream, the publisher, and the consumer router
// feeding the batch appender.
type Pipeline struct {
	cfg         config.NATSConfig
	store       SampleStore
	broadcaster Broadcaster
	logger      watermill.LoggerAdapter

	mu        sync.Mutex
	running   bool
	embedded  *EmbeddedServer
	publisher *Publisher
	router    *message.Router
	appender  *Appender
	seen      *cache.Cache
}

// NewPipeline validates the configuration. Nothing touches the broker
// until Start.
func NewPipeline(cfg config.NATSConfig, store SampleStore, broadcaster Broadcaster) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("sample store required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	return &Pipeline{
		cfg:         cfg,
		store:       store,
		broadcaster: broadcaster,
		logger:      newWatermillLogger(),
	}, nil
}

// Start brings up the broker, ensures the stream, and runs the
// consumer router. A failed start tears down whatever already came up.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("pipeline already running")
	}
	if err := p.start(ctx); err != nil {
		p.teardownLocked()
		return err
	}
	p.running = true

	logging.Info().
		Bool("embedded", p.cfg.EmbeddedServer).
		Int("batch_size", p.cfg.BatchSize).
		Dur("flush_interval", p.cfg.FlushInterval).
		Msg("Event pipeline started")
	return nil
}

func (p *Pipeline) start(ctx context.Context) error {
	// Fresh per start so a supervisor restart gets working parts
	appender, err := NewAppender(p.store, p.cfg.BatchSize, p.cfg.FlushInterval)
	if err != nil {
		return err
	}
	p.appender = appender
	p.seen = cache.New("event_dedup", dedupTTL)

	if p.cfg.EmbeddedServer {
		embedded, err := NewEmbeddedServer(p.cfg)
		if err != nil {
			return err
		}
		p.embedded = embedded
	}

	natsOpts := p.natsOptions()

	if err := p.ensureStream(ctx, natsOpts); err != nil {
		return err
	}

	publisher, err := NewPublisher(p.cfg.URL, natsOpts, p.logger)
	if err != nil {
		return err
	}
	p.publisher = publisher

	if err := p.appender.Start(ctx); err != nil {
		return err
	}

	router, err := p.buildRouter(natsOpts)
	if err != nil {
		return err
	}
	p.router = router

	go func() {
		// Run blocks until Close; an error here means the handlers died
		if err := router.Run(context.Background()); err != nil {
			logging.Error().Err(err).Msg("Event router stopped with error")
		}
	}()

	select {
	case <-router.Running():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(startTimeout):
		return fmt.Errorf("event router not running within timeout")
	}
}

// Stop drains and tears down in reverse order: the router first so no
// new samples arrive, then the appender so buffered ones land, then
// the connections and broker.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return nil
	}
	p.running = false
	p.teardownLocked()

	logging.Info().Msg("Event pipeline stopped")
	return nil
}

// Running reports whether the pipeline accepts publishes.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Publish stamps data with the current clock and publishes it to the
// stream's subject. The generated message ID doubles as the JetStream
// dedup key.
func (p *Pipeline) Publish(ctx context.Context, stream string, data interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !analytics.ValidStreamName(stream) {
		return fmt.Errorf("invalid stream name %q", stream)
	}

	pub, err := p.currentPublisher()
	if err != nil {
		return err
	}

	payload, err := EncodeSampleEvent(NewSampleEvent(stream, data))
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set("stream", stream)
	return pub.Publish(SampleTopic(stream), msg)
}

// Notify publishes a notice for WebSocket fan-out.
func (p *Pipeline) Notify(ctx context.Context, notice Notice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if notice.Type == "" {
		return fmt.Errorf("notice type required")
	}

	pub, err := p.currentPublisher()
	if err != nil {
		return err
	}

	payload, err := EncodeNotice(notice)
	if err != nil {
		return err
	}
	return pub.Publish(NoticeTopic(notice.Type), message.NewMessage(uuid.New().String(), payload))
}

// Stats snapshots pipeline health.
func (p *Pipeline) Stats() PipelineStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := PipelineStats{Running: p.running, Embedded: p.embedded != nil}
	if p.publisher != nil {
		stats.BreakerState = p.publisher.State()
	}
	if p.appender != nil {
		stats.Appender = p.appender.Stats()
	}
	return stats
}

func (p *Pipeline) currentPublisher() (*Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running || p.publisher == nil {
		return nil, fmt.Errorf("pipeline is not running")
	}
	return p.publisher, nil
}

func (p *Pipeline) teardownLocked() {
	if p.router != nil {
		if err := p.router.Close(); err != nil {
			logging.Warn().Err(err).Msg("Event router close failed")
		}
		p.router = nil
	}
	if p.appender != nil {
		if err := p.appender.Close(); err != nil {
			logging.Warn().Err(err).Msg("Appender drain failed")
		}
		p.appender = nil
	}
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Publisher close failed")
		}
		p.publisher = nil
	}
	if p.seen != nil {
		p.seen.Stop()
		p.seen = nil
	}
	if p.embedded != nil {
		p.embedded.Shutdown()
		p.embedded = nil
	}
}

func (p *Pipeline) ensureStream(ctx context.Context, natsOpts []natsgo.Option) error {
	// Short-lived connection; the stream must exist before the router
	// subscribes with BindStream
	nc, err := natsgo.Connect(p.cfg.URL, natsOpts...)
	if err != nil {
		return fmt.Errorf("connect for stream setup: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	return NewStreamInitializer(js, p.cfg).EnsureStream(ctx)
}

func (p *Pipeline) natsOptions() []natsgo.Option {
	opts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(reconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logging.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logging.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		natsgo.ErrorHandler(func(_ *natsgo.Conn, sub *natsgo.Subscription, err error) {
			ev := logging.Error().Err(err)
			if sub != nil {
				ev = ev.Str("subject", sub.Subject)
			}
			ev.Msg("NATS async error")
		}),
	}
	if p.embedded != nil {
		// In-process pipe to the embedded broker; the URL is ignored
		opts = append(opts, natsgo.InProcessServer(p.embedded.server))
	}
	return opts
}

func (p *Pipeline) buildRouter(natsOpts []natsgo.Option) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, p.logger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(middleware.Recoverer)
	retry := middleware.Retry{
		MaxRetries:      5,
		InitialInterval: time.Second,
		MaxInterval:     time.Minute,
		Multiplier:      2.0,
		Logger:          p.logger,
	}
	router.AddMiddleware(retry.Middleware)

	sampleSub, err := p.newSubscriber(natsOpts, p.cfg.DurableName, p.cfg.QueueGroup, p.cfg.SubscribersCount)
	if err != nil {
		return nil, fmt.Errorf("create sample subscriber: %w", err)
	}
	router.AddConsumerHandler("sample-appender", "samples.>", sampleSub, p.consumeSample)

	if p.broadcaster != nil {
		// Ephemeral consumer; notices missed while down are stale anyway
		noticeSub, err := p.newSubscriber(natsOpts, "", "", 1)
		if err != nil {
			return nil, fmt.Errorf("create notice subscriber: %w", err)
		}
		router.AddConsumerHandler("notice-broadcaster", "notices.>", noticeSub, p.consumeNotice)
	}

	return router, nil
}

func (p *Pipeline) newSubscriber(natsOpts []natsgo.Option, durable, queueGroup string, count int) (message.Subscriber, error) {
	if count <= 0 {
		count = 1
	}

	subOpts := []natsgo.SubOpt{
		natsgo.MaxDeliver(maxDeliver),
		natsgo.MaxAckPending(maxAckPending),
		natsgo.AckWait(ackWait),
		natsgo.DeliverNew(),
		// Wildcard topics cannot auto-provision a stream; bind to the
		// shared one instead
		natsgo.BindStream(StreamName),
	}

	return wmnats.NewSubscriber(wmnats.SubscriberConfig{
		URL:              p.cfg.URL,
		QueueGroupPrefix: queueGroup,
		SubscribersCount: count,
		AckWaitTimeout:   ackWait,
		CloseTimeout:     closeTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmnats.NATSMarshaler{},
		JetStream: wmnats.JetStreamConfig{
			AutoProvision:    false,
			AckAsync:         false,
			SubscribeOptions: subOpts,
			DurablePrefix:    durable,
		},
	}, p.logger)
}
