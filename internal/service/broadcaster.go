package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyplan-backend/internal/config"
)

// subscriberBuffer is how many views a slow subscriber may fall behind
// before older views are dropped.
const subscriberBuffer = 8

// Broadcaster fans a session's rendered views out to its subscribers.
type Broadcaster interface {
	Publish(ctx context.Context, sessionID string, payload []byte) error
	// Subscribe returns a channel of payloads and a function that ends the
	// subscription and closes the channel.
	Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error)
}

// MemoryBroadcaster delivers views to subscribers in this process.
type MemoryBroadcaster struct {
	mu   sync.Mutex
	subs map[string]map[chan []byte]struct{}
}

func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{subs: make(map[string]map[chan []byte]struct{})}
}

func (b *MemoryBroadcaster) Publish(ctx context.Context, sessionID string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[sessionID] {
		select {
		case ch <- payload:
		default:
			// Drop the oldest view so the newest one always gets through.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- payload:
			default:
			}
		}
	}
	return nil
}

func (b *MemoryBroadcaster) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error) {
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan []byte]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[sessionID], ch)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			close(ch)
		})
	}
	return ch, cancel, nil
}

// RedisBroadcaster relays views over Redis Pub/Sub so every instance behind
// a load balancer sees them.
type RedisBroadcaster struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewRedisBroadcaster(rdb *redis.Client, log zerolog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{
		rdb: rdb,
		log: log.With().Str("component", "redis_broadcaster").Logger(),
	}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, sessionID string, payload []byte) error {
	if err := b.rdb.Publish(ctx, config.CacheKey.PlanViewChannel(sessionID), payload).Err(); err != nil {
		return fmt.Errorf("publish view: %w", err)
	}
	return nil
}

func (b *RedisBroadcaster) Subscribe(ctx context.Context, sessionID string) (<-chan []byte, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, config.CacheKey.PlanViewChannel(sessionID))
	// Wait for the confirmation so no publish after Subscribe returns is lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe view channel: %w", err)
	}

	out := make(chan []byte, subscriberBuffer)
	done := make(chan struct{})
	go func() {
		defer close(out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					b.log.Warn().Str("session_id", sessionID).Msg("Subscriber lagging, view dropped")
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			if err := pubsub.Close(); err != nil {
				b.log.Debug().Err(err).Msg("Close pubsub")
			}
		})
	}
	return out, cancel, nil
}
