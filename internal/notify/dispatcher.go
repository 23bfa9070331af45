package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/flosslyDevs/ToothMatch/internal/logger"
	"github.com/flosslyDevs/ToothMatch/internal/metrics"
)

// Report summarises one fan-out.
type Report struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
	Pruned     int `json:"pruned"`
}

// Dispatcher sends a notification to all of a user's devices.
type Dispatcher struct {
	sender Sender
	tokens TokenStore
	log    logger.Logger
	now    func() time.Time
}

// NewDispatcher returns a Dispatcher.
func NewDispatcher(sender Sender, tokens TokenStore, log logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, tokens: tokens, log: log, now: time.Now}
}

// NotifyLike tells recipientUserID that liker liked them or their listing.
func (d *Dispatcher) NotifyLike(ctx context.Context, recipientUserID string, liker Liker) (Report, error) {
	n, data := LikeMessage(liker)
	return d.SendToUser(ctx, "like", recipientUserID, n, data)
}

// NotifyChat announces a chat message to recipientUserID.
func (d *Dispatcher) NotifyChat(ctx context.Context, recipientUserID string, chat Chat) (Report, error) {
	n, data := ChatMessage(chat)
	return d.SendToUser(ctx, "chat", recipientUserID, n, data)
}

// SendToUser delivers to every token concurrently and waits for all of
// them. Individual delivery failures are counted, never returned; only a
// failure to read the tokens is an error.
func (d *Dispatcher) SendToUser(ctx context.Context, kind, userID string, n Notification, data map[string]string) (Report, error) {
	tokens, err := d.tokens.TokensForUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	report := Report{Total: len(tokens)}
	if len(tokens) == 0 {
		return report, nil
	}

	type outcome struct {
		token string
		err   error
	}
	results := make([]outcome, len(tokens))

	var wg sync.WaitGroup
	for i, tok := range tokens {
		wg.Add(1)
		go func(i int, tok string) {
			defer wg.Done()
			_, err := d.sender.Send(ctx, Message{Token: tok, Notification: n, Data: data})
			results[i] = outcome{token: tok, err: err}
		}(i, tok)
	}
	wg.Wait()

	var delivered, invalid []string
	for _, r := range results {
		switch {
		case r.err == nil:
			delivered = append(delivered, r.token)
			metrics.NotificationsSent.WithLabelValues(kind, "success").Inc()
		case errors.Is(r.err, ErrInvalidToken):
			invalid = append(invalid, r.token)
			metrics.NotificationsSent.WithLabelValues(kind, "invalid_token").Inc()
		default:
			d.log.Warn("push delivery failed", map[string]interface{}{"userId": userID, "kind": kind, "error": r.err})
			metrics.NotificationsSent.WithLabelValues(kind, "error").Inc()
		}
	}
	report.Successful = len(delivered)
	report.Failed = report.Total - report.Successful

	if len(invalid) > 0 {
		removed, err := d.tokens.DeleteTokens(ctx, invalid)
		if err != nil {
			d.log.Warn("prune invalid tokens failed", map[string]interface{}{"userId": userID, "error": err})
		}
		report.Pruned = int(removed)
		metrics.TokensPruned.Add(float64(removed))
	}
	if len(delivered) > 0 {
		if err := d.tokens.TouchTokens(ctx, delivered, d.now()); err != nil {
			d.log.Warn("touch tokens failed", map[string]interface{}{"userId": userID, "error": err})
		}
	}

	d.log.Debug("push fan-out complete", map[string]interface{}{
		"userId": userID, "kind": kind, "total": report.Total,
		"successful": report.Successful, "pruned": report.Pruned,
	})
	return report, nil
}

// PruneStale deletes tokens not used since maxAge ago.
func (d *Dispatcher) PruneStale(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := d.tokens.PruneOlderThan(ctx, d.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}
	metrics.TokensPruned.Add(float64(n))
	return n, nil
}
