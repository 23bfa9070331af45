// Package notify delivers push notifications to every device a user has
// registered and prunes tokens the push provider rejects.
package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/flosslyDevs/ToothMatch/internal/logger"
)

var (
	// ErrInvalidToken marks a token the provider will never accept again.
	ErrInvalidToken = errors.New("INVALID_TOKEN")
	// ErrMissingToken is returned for an empty device token.
	ErrMissingToken = errors.New("FCM token is required")
)

// Notification is the visible part of a push.
type Notification struct {
	Title    string
	Body     string
	ImageURL string
}

// Message is one push to one device. Data values must be strings.
type Message struct {
	Token        string
	Notification Notification
	Data         map[string]string
}

// Sender delivers a single message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// LogSender stands in for the push provider when none is configured.
type LogSender struct {
	log logger.Logger
}

// NewLogSender returns a Sender that only logs.
func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, msg Message) (string, error) {
	if msg.Token == "" {
		return "", ErrMissingToken
	}
	s.log.Debug("push skipped, provider not configured", map[string]interface{}{
		"title": msg.Notification.Title,
		"type":  msg.Data["type"],
	})
	return "log:" + uuid.NewString(), nil
}
