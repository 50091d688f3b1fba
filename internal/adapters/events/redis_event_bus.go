package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/domain/providers"
	redisclient "github.com/nando-scheduler/backend/internal/infrastructure/clients/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const subscriberBuffer = 100

// topic is one Redis subscription shared by every local subscriber of a channel
type topic struct {
	pubsub      *redis.PubSub
	subscribers map[chan *entities.ScheduleEvent]struct{}
}

// RedisEventBus implements the EventBus interface using Redis Pub/Sub.
// Each channel holds a single Redis subscription that fans out to local
// subscribers; a subscriber that falls behind misses events rather than
// blocking the others.
type RedisEventBus struct {
	client *redisclient.Client
	topics map[string]*topic
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRedisEventBus creates a new Redis-based event bus
func NewRedisEventBus(client *redisclient.Client) providers.EventBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisEventBus{
		client: client,
		topics: make(map[string]*topic),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Publish publishes a schedule event on channel
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.ScheduleEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("channel", channel).
		Str("event_id", event.ID).
		Str("event_type", string(event.EventType)).
		Str("resource_id", event.ResourceID).
		Msg("Published schedule event")
	return nil
}

// Subscribe returns a channel of events published on channel. The returned
// channel is closed when ctx is done or the bus shuts down.
func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan *entities.ScheduleEvent, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, errors.New("event bus is closed")
	}

	eventChan := make(chan *entities.ScheduleEvent, subscriberBuffer)

	b.mu.Lock()
	t, exists := b.topics[channel]
	if !exists {
		t = &topic{
			pubsub:      b.client.Client().Subscribe(b.ctx, channel),
			subscribers: make(map[chan *entities.ScheduleEvent]struct{}),
		}
		b.topics[channel] = t
		go b.receive(channel, t)
	}
	t.subscribers[eventChan] = struct{}{}
	count := len(t.subscribers)
	b.mu.Unlock()

	log.Debug().Str("channel", channel).Int("subscribers", count).Msg("Subscribed to channel")

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeSubscriber(channel, t, eventChan)
	}()

	return eventChan, nil
}

func (b *RedisEventBus) receive(channel string, t *topic) {
	defer b.dropTopic(channel, t)

	messages := t.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			event, err := decodeEvent(msg.Payload)
			if err != nil {
				log.Warn().Err(err).Str("channel", channel).Msg("Dropping undecodable event")
				continue
			}

			b.mu.RLock()
			for subscriber := range t.subscribers {
				select {
				case subscriber <- event:
				default:
					log.Warn().Str("channel", channel).Str("event_id", event.ID).Msg("Subscriber buffer full, skipping event")
				}
			}
			b.mu.RUnlock()
		}
	}
}

func (b *RedisEventBus) removeSubscriber(channel string, t *topic, eventChan chan *entities.ScheduleEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := t.subscribers[eventChan]; !ok {
		return
	}
	delete(t.subscribers, eventChan)
	close(eventChan)

	if len(t.subscribers) == 0 && b.topics[channel] == t {
		delete(b.topics, channel)
		if err := t.pubsub.Close(); err != nil {
			log.Warn().Err(err).Str("channel", channel).Msg("Failed to close subscription")
		}
		log.Debug().Str("channel", channel).Msg("Closed subscription")
	}
}

// dropTopic closes t and its subscribers. A newer topic registered for
// the same channel is left untouched.
func (b *RedisEventBus) dropTopic(channel string, t *topic) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for subscriber := range t.subscribers {
		close(subscriber)
	}
	t.subscribers = map[chan *entities.ScheduleEvent]struct{}{}

	if b.topics[channel] != t {
		return nil
	}
	delete(b.topics, channel)
	if err := t.pubsub.Close(); err != nil {
		return fmt.Errorf("failed to close subscription %s: %w", channel, err)
	}
	log.Debug().Str("channel", channel).Msg("Closed subscription")
	return nil
}

// Unsubscribe closes every local subscriber of channel
func (b *RedisEventBus) Unsubscribe(ctx context.Context, channel string) error {
	b.mu.RLock()
	t, ok := b.topics[channel]
	b.mu.RUnlock()
	if !ok {
		return nil
	}
	return b.dropTopic(channel, t)
}

// Close stops every subscription
func (b *RedisEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	topics := make(map[string]*topic, len(b.topics))
	for channel, t := range b.topics {
		topics[channel] = t
	}
	b.mu.RUnlock()

	var errs []error
	for channel, t := range topics {
		if err := b.dropTopic(channel, t); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing event bus: %w", errors.Join(errs...))
	}

	log.Info().Msg("Event bus closed")
	return nil
}

func decodeEvent(payload string) (*entities.ScheduleEvent, error) {
	var event entities.ScheduleEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.EventType == "" || event.ResourceID == "" {
		return nil, fmt.Errorf("incomplete schedule event %q", event.ID)
	}
	return &event, nil
}
