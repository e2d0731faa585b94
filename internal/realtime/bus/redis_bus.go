package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/harvlabs/harv-backend/internal/platform/envutil"
	"github.com/harvlabs/harv-backend/internal/platform/logger"
)

// TutorEvent is published after every tutoring exchange so dashboards and
// session consumers can follow compliance without polling the store.
type TutorEvent struct {
	UserID         string    `json:"user_id"`
	ModuleID       string    `json:"module_id"`
	ConversationID string    `json:"conversation_id"`
	Compliance     string    `json:"compliance"`
	QuestionCount  int       `json:"question_count"`
	At             time.Time `json:"at"`
}

type TutorEventBus interface {
	Publish(ctx context.Context, ev TutorEvent) error
	Close() error
}

type tutorEventBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewTutorEventBus(log *logger.Logger) (TutorEventBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := envutil.String("REDIS_ADDR", "")
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := envutil.String("REDIS_CHANNEL", "tutor_events")

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &tutorEventBus{
		log:     log.With("service", "TutorEventBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *tutorEventBus) Publish(ctx context.Context, ev TutorEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal tutor event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish tutor event: %w", err)
	}
	return nil
}

func (b *tutorEventBus) Close() error {
	return b.rdb.Close()
}
