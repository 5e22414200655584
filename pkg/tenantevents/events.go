package tenantevents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/bizsuite/pkg/logger"
)

// DefaultChannel is the pub/sub channel tenant changes are announced on.
const DefaultChannel = "bizsuite:tenants:changed"

var (
	ErrNilClient      = errors.New("redis client cannot be nil")
	ErrNilInvalidator = errors.New("invalidator cannot be nil")
	ErrPublishFailed  = errors.New("failed to publish tenant change")
)

// Config holds event settings loaded from the environment.
type Config struct {
	Channel string `env:"TENANT_EVENTS_CHANNEL" envDefault:"bizsuite:tenants:changed"`
}

// Invalidator drops a cached tenant. *tenant.Resolver satisfies it.
type Invalidator interface {
	Invalidate(id uuid.UUID)
}

func channelOrDefault(ch string) string {
	if strings.TrimSpace(ch) == "" {
		return DefaultChannel
	}
	return ch
}

// Publisher announces tenant changes to every process sharing the Redis server.
type Publisher struct {
	client  redis.UniversalClient
	channel string
}

// NewPublisher creates a publisher on channel, DefaultChannel when empty.
func NewPublisher(client redis.UniversalClient, channel string) (*Publisher, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	return &Publisher{client: client, channel: channelOrDefault(channel)}, nil
}

// Publish announces that the registry entry for id changed.
func (p *Publisher) Publish(ctx context.Context, id uuid.UUID) error {
	if err := p.client.Publish(ctx, p.channel, id.String()).Err(); err != nil {
		return errors.Join(ErrPublishFailed, fmt.Errorf("tenant %s: %w", id, err))
	}
	return nil
}

// Subscriber listens for tenant changes and invalidates the local cache.
type Subscriber struct {
	client  redis.UniversalClient
	channel string
	target  Invalidator
	logger  *slog.Logger
	ready   chan struct{}
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

func WithLogger(l *slog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSubscriber creates a subscriber that calls target.Invalidate for every event.
func NewSubscriber(client redis.UniversalClient, channel string, target Invalidator, opts ...SubscriberOption) (*Subscriber, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if target == nil {
		return nil, ErrNilInvalidator
	}

	s := &Subscriber{
		client:  client,
		channel: channelOrDefault(channel),
		target:  target,
		logger:  slog.Default(),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Ready is closed once the subscription is confirmed by the server.
func (s *Subscriber) Ready() <-chan struct{} {
	return s.ready
}

// Run subscribes and processes events until ctx is cancelled.
// Malformed payloads are logged and skipped.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", s.channel, err)
	}
	close(s.ready)

	s.logger.InfoContext(ctx, "listening for tenant changes", slog.String("channel", s.channel))

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			s.handle(ctx, msg.Payload)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, payload string) {
	id, err := uuid.Parse(strings.TrimSpace(payload))
	if err != nil || id == uuid.Nil {
		s.logger.WarnContext(ctx, "ignoring malformed tenant change event",
			slog.String("payload", payload))
		return
	}

	s.target.Invalidate(id)
	s.logger.DebugContext(ctx, "tenant cache invalidated", logger.TenantID(id), logger.Event("tenant_changed"))
}
