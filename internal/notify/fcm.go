package notify

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMConfig locates Firebase credentials. With only ProjectID set the
// application default credentials are used.
type FCMConfig struct {
	ProjectID       string
	CredentialsFile string
	CredentialsJSON string
}

type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMSender sends through Firebase Cloud Messaging.
type FCMSender struct {
	client messagingClient
}

// NewFCMSender initialises the Firebase app and its messaging client.
func NewFCMSender(ctx context.Context, cfg FCMConfig) (*FCMSender, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	var fbCfg *firebase.Config
	if cfg.ProjectID != "" {
		fbCfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase.NewApp: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func (s *FCMSender) Send(ctx context.Context, msg Message) (string, error) {
	if msg.Token == "" {
		return "", ErrMissingToken
	}
	id, err := s.client.Send(ctx, buildFCMMessage(msg))
	if err != nil {
		return "", classifyFCMError(err)
	}
	return id, nil
}

func buildFCMMessage(msg Message) *messaging.Message {
	title := msg.Notification.Title
	if title == "" {
		title = "New Message"
	}
	return &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title:    title,
			Body:     msg.Notification.Body,
			ImageURL: msg.Notification.ImageURL,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
		},
	}
}

func classifyFCMError(err error) error {
	if tokenRejected(messaging.IsUnregistered(err), messaging.IsInvalidArgument(err), err.Error()) {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return fmt.Errorf("FCM_ERROR: %w", err)
}

// tokenRejected reports whether a send failure condemns the token itself.
// INVALID_ARGUMENT is also returned for malformed payloads, so it only
// counts when the message names the registration token.
func tokenRejected(unregistered, invalidArgument bool, msg string) bool {
	if unregistered {
		return true
	}
	if !invalidArgument {
		return false
	}
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "registration token") || strings.Contains(msg, "registration-token")
}
