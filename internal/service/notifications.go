package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"signalshub/internal/apperr"
	"signalshub/internal/metrics"
	"signalshub/internal/models"
	"signalshub/internal/repository"
)

// MaxNotifications bounds each user's queue; older entries fall off.
const MaxNotifications = 50

type NotificationService struct {
	Repo      repository.Repository
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Hub       Publisher
	Outbound  Deliverer
	Now       func() time.Time
	NewID     func() string
	SendAsync bool
}

func (s *NotificationService) Push(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("notification repo unavailable")
	}
	if n.UserFid <= 0 {
		return nil, fmt.Errorf("%w: userFid is required", apperr.ErrInvalidInput)
	}
	if !n.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown notification type %q", apperr.ErrInvalidInput, n.Type)
	}
	if n.ID == "" {
		if s.NewID != nil {
			n.ID = s.NewID()
		} else {
			n.ID = uuid.NewString()
		}
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = nowFrom(s.Now)
	}
	n.Read = false

	_, err := s.Repo.UpdateNotifications(ctx, n.UserFid, func(items []models.Notification) ([]models.Notification, error) {
		next := make([]models.Notification, 0, len(items)+1)
		next = append(next, n)
		next = append(next, items...)
		if len(next) > MaxNotifications {
			next = next[:MaxNotifications]
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	s.Metrics.NotificationQueued(string(n.Type))
	if s.Hub != nil {
		s.Hub.Publish(n)
	}
	s.deliver(ctx, n)
	return &n, nil
}

func (s *NotificationService) deliver(ctx context.Context, n models.Notification) {
	if s.Outbound == nil {
		return
	}
	send := func(ctx context.Context) {
		if err := s.Outbound.Deliver(ctx, n); err != nil && s.Logger != nil {
			s.Logger.Warn("notification delivery failed",
				zap.String("id", n.ID),
				zap.Int64("user_fid", n.UserFid),
				zap.Error(err),
			)
		}
	}
	if !s.SendAsync {
		send(ctx)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		send(ctx)
	}()
}

func (s *NotificationService) List(ctx context.Context, fid int64) ([]models.Notification, error) {
	if s == nil || s.Repo == nil {
		return nil, fmt.Errorf("notification repo unavailable")
	}
	return s.Repo.ListNotifications(ctx, fid)
}

// MarkRead flags the given ids as read, or every notification when ids is empty.
func (s *NotificationService) MarkRead(ctx context.Context, fid int64, ids []string) (int, error) {
	if s == nil || s.Repo == nil {
		return 0, fmt.Errorf("notification repo unavailable")
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	updated := 0
	_, err := s.Repo.UpdateNotifications(ctx, fid, func(items []models.Notification) ([]models.Notification, error) {
		for i := range items {
			if items[i].Read {
				continue
			}
			if len(want) > 0 {
				if _, ok := want[items[i].ID]; !ok {
					continue
				}
			}
			items[i].Read = true
			updated++
		}
		return items, nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
