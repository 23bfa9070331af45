// Package events publishes per-user domain events on Redis and streams them
// to connected clients.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

// Type names a domain event.
type Type string

const (
	TypeLikeReceived     Type = "EVENT_LIKE_RECEIVED"
	TypeMatchCreated     Type = "EVENT_MATCH_CREATED"
	TypeInterviewUpdated Type = "EVENT_INTERVIEW_UPDATED"
	TypeChatMessage      Type = "EVENT_CHAT_MESSAGE"
)

// Event is the JSON envelope written to a user channel.
type Event struct {
	Type Type      `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Channel is the Redis pub/sub channel for one user.
func Channel(userID string) string { return "events:user:" + userID }

// Publisher fans an event out to user channels.
type Publisher struct {
	rdb *redis.Client
	log logger.Logger
}

// NewPublisher returns a Publisher on rdb.
func NewPublisher(rdb *redis.Client, log logger.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

// Publish sends evt to every recipient. Failures are logged and dropped.
func (p *Publisher) Publish(ctx context.Context, evt Event, recipients ...string) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	body, err := json.Marshal(evt)
	if err != nil {
		p.log.Warn("event marshal failed", map[string]interface{}{"type": string(evt.Type), "error": err})
		return
	}

	seen := make(map[string]bool, len(recipients))
	for _, userID := range recipients {
		if userID == "" || seen[userID] {
			continue
		}
		seen[userID] = true
		if err := p.rdb.Publish(ctx, Channel(userID), body).Err(); err != nil {
			p.log.Warn("publish event failed", map[string]interface{}{
				"type":   string(evt.Type),
				"userId": userID,
				"error":  err,
			})
		}
	}
}
