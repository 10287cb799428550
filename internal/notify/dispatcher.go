package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"signalshub/internal/models"
)

// Dispatcher forwards queued notifications to the configured channels.
type Dispatcher struct {
	Channels []ChannelConfig
	Webhook  WebhookSender
	TG       TelegramSender
}

func NewDispatcher(channels []ChannelConfig, timeout time.Duration) *Dispatcher {
	client := newRetryClient(timeout)
	return &Dispatcher{
		Channels: channels,
		Webhook:  WebhookSender{HTTP: client},
		TG:       TelegramSender{HTTP: client},
	}
}

// Deliver sends n to every matching channel and joins the failures.
func (d *Dispatcher) Deliver(ctx context.Context, n models.Notification) error {
	if d == nil || len(d.Channels) == 0 {
		return nil
	}
	event := string(n.Type)
	var errs []error
	for _, ch := range d.Channels {
		if !eventMatch(ch.Events, event) {
			continue
		}
		var err error
		switch strings.ToLower(strings.TrimSpace(ch.Type)) {
		case "webhook":
			err = d.Webhook.Send(ctx, strings.TrimSpace(ch.URL), WebhookPayload{
				Event:        event,
				UserFid:      n.UserFid,
				Message:      n.Message,
				Notification: n,
			})
		case "telegram":
			err = d.TG.Send(ctx, strings.TrimSpace(ch.BotToken), strings.TrimSpace(ch.ChatID), n.Message)
		default:
			err = fmt.Errorf("unsupported channel %q", ch.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", ch.Type, err))
		}
	}
	return errors.Join(errs...)
}

func eventMatch(events []string, event string) bool {
	// Empty events means allow all.
	if len(events) == 0 {
		return true
	}
	event = strings.TrimSpace(event)
	for _, e := range events {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if e == "*" {
			return true
		}
		if event != "" && e == event {
			return true
		}
	}
	return false
}
