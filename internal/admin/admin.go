package admin

import (
	"context"
	"fmt"
	"sort"

	"github.com/bbernstein/laundrylocator/backend-go/internal/account"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	TabPending = "pending"
	TabAll     = "all"
	TabRead    = "read"
)

// Backend is the moderation surface of the directory backend.
type Backend interface {
	Notifications(ctx context.Context, token string) ([]models.Notification, error)
	UpdateNotification(ctx context.Context, token string, id int64, upd models.NotificationUpdate) (*models.Notification, error)
}

// Counts feeds the tab badges.
type Counts struct {
	Pending int `json:"pending"`
	Unread  int `json:"unread"`
	All     int `json:"all"`
}

// Moderation is the admin page view: the selected tab's items plus counts for every tab.
type Moderation struct {
	Tab           string                `json:"tab"`
	Notifications []models.Notification `json:"notifications"`
	Counts        Counts                `json:"counts"`
}

type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// ParseTab defaults unknown tabs to pending.
func ParseTab(tab string) string {
	switch tab {
	case TabAll, TabRead:
		return tab
	default:
		return TabPending
	}
}

func (s *Service) ListNotifications(ctx context.Context, token, tab string) (*Moderation, error) {
	all, err := s.backend.Notifications(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}

	tab = ParseTab(tab)
	view := &Moderation{Tab: tab, Notifications: []models.Notification{}}
	for _, n := range all {
		view.Counts.All++
		if n.Status == models.NotificationPending {
			view.Counts.Pending++
		}
		if !n.Read {
			view.Counts.Unread++
		}

		switch {
		case tab == TabAll,
			tab == TabPending && n.Status == models.NotificationPending,
			tab == TabRead && n.Read:
			view.Notifications = append(view.Notifications, n)
		}
	}

	// Newest first
	sort.SliceStable(view.Notifications, func(i, j int) bool {
		return view.Notifications[i].CreatedAt.After(view.Notifications[j].CreatedAt)
	})
	return view, nil
}

// UpdateNotification applies a moderation decision. Status must be a known value when set,
// and at least one field must be present.
func (s *Service) UpdateNotification(ctx context.Context, token string, id int64, upd models.NotificationUpdate) (*models.Notification, error) {
	fields := map[string]string{}
	if upd.Status == nil && upd.Read == nil {
		fields["status"] = "Provide a status or read flag"
	}
	if upd.Status != nil {
		switch *upd.Status {
		case models.NotificationPending, models.NotificationApproved, models.NotificationRejected:
		default:
			fields["status"] = "Status must be pending, approved or rejected"
		}
	}
	if len(fields) > 0 {
		return nil, &account.ValidationError{Fields: fields}
	}

	n, err := s.backend.UpdateNotification(ctx, token, id, upd)
	if err != nil {
		return nil, fmt.Errorf("updating notification: %w", err)
	}

	event := log.Info().Int64("notification_id", id)
	if upd.Status != nil {
		event = event.Str("status", *upd.Status)
	}
	event.Msg("Notification updated")
	return n, nil
}
