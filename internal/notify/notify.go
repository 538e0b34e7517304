// Package notify publishes ledger change notifications over redis pubsub
// for downstream consumers (dashboards, cache invalidation, the watch
// command).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const channel = "tixledger:v1:ledger:changed"

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect dials redis and verifies the connection before returning the
// client.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	const op = "notify.Connect"

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctxPing, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := client.Ping(ctxPing).Result(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return client, nil
}

// Change describes one committed ledger mutation.
type Change struct {
	Kind    string `json:"kind"`
	EventID int64  `json:"event_id,omitempty"`
	Account string `json:"account"`
	TsUnix  int64  `json:"ts_unix"`
}

type PubSub struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *PubSub {
	return &PubSub{rdb: rdb}
}

func (p *PubSub) PublishLedgerChanged(ctx context.Context, c Change) error {
	c.TsUnix = time.Now().Unix()

	b, _ := json.Marshal(c)

	return p.rdb.Publish(ctx, channel, b).Err()
}

// Subscribe invokes handler for every change published on the ledger
// channel until ctx is canceled.
func (p *PubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, c Change)) error {
	sub := p.rdb.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var c Change
			if err := json.Unmarshal([]byte(m.Payload), &c); err == nil && c.Kind != "" {
				handler(ctx, c)
			}
		}
	}
}
