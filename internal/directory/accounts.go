package directory

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/bbernstein/laundrylocator/backend-go/pkg/http/client"
)

func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.Session, error) {
	return c.session(ctx, "/api/auth/login", creds)
}

func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.Session, error) {
	return c.session(ctx, "/api/auth/register", reg)
}

// DemoLogin signs in as the shared demo account for role.
func (c *Client) DemoLogin(ctx context.Context, role string) (*models.Session, error) {
	return c.session(ctx, "/api/auth/demo-login", map[string]string{"role": role})
}

func (c *Client) session(ctx context.Context, path string, body interface{}) (*models.Session, error) {
	resp, err := c.httpClient.Do(ctx, client.Request{Method: http.MethodPost, Path: path, Body: body})
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}

	var session models.Session
	if err := client.DecodeJSON(resp, &session); err != nil {
		return nil, fmt.Errorf("calling %s: %w", path, err)
	}
	return &session, nil
}

// Notifications lists admin moderation items.
func (c *Client) Notifications(ctx context.Context, token string) ([]models.Notification, error) {
	resp, err := c.httpClient.Do(ctx, client.Request{Path: "/api/admin/notifications", Token: token})
	if err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}

	var payload struct {
		Notifications []models.Notification `json:"notifications"`
	}
	if err := client.DecodeJSON(resp, &payload); err != nil {
		return nil, fmt.Errorf("fetching notifications: %w", err)
	}
	if payload.Notifications == nil {
		return []models.Notification{}, nil
	}
	return payload.Notifications, nil
}

func (c *Client) UpdateNotification(ctx context.Context, token string, id int64, upd models.NotificationUpdate) (*models.Notification, error) {
	resp, err := c.httpClient.Do(ctx, client.Request{
		Method: http.MethodPatch,
		Path:   "/api/admin/notifications/" + strconv.FormatInt(id, 10),
		Body:   upd,
		Token:  token,
	})
	if err != nil {
		return nil, fmt.Errorf("updating notification %d: %w", id, err)
	}

	var n models.Notification
	if err := client.DecodeJSON(resp, &n); err != nil {
		return nil, fmt.Errorf("updating notification %d: %w", id, err)
	}
	return &n, nil
}

func (c *Client) Dashboard(ctx context.Context, token string) (*models.Dashboard, error) {
	resp, err := c.httpClient.Do(ctx, client.Request{Path: "/api/business/dashboard", Token: token})
	if err != nil {
		return nil, fmt.Errorf("fetching dashboard: %w", err)
	}

	var d models.Dashboard
	if err := client.DecodeJSON(resp, &d); err != nil {
		return nil, fmt.Errorf("fetching dashboard: %w", err)
	}
	return &d, nil
}

func (c *Client) Reviews(ctx context.Context, token string, listingID int64) ([]models.Review, error) {
	path := fmt.Sprintf("/api/business/%d/reviews", listingID)
	resp, err := c.httpClient.Do(ctx, client.Request{Path: path, Token: token})
	if err != nil {
		return nil, fmt.Errorf("fetching reviews: %w", err)
	}

	var payload struct {
		Reviews []models.Review `json:"reviews"`
	}
	if err := client.DecodeJSON(resp, &payload); err != nil {
		return nil, fmt.Errorf("fetching reviews: %w", err)
	}
	if payload.Reviews == nil {
		return []models.Review{}, nil
	}
	return payload.Reviews, nil
}

// Analytics returns traffic for the listing over period ("7d", "30d", "90d").
func (c *Client) Analytics(ctx context.Context, token string, listingID int64, period string) (*models.Analytics, error) {
	path := fmt.Sprintf("/api/business/%d/analytics", listingID)
	if period != "" {
		path += "?" + url.Values{"period": {period}}.Encode()
	}
	resp, err := c.httpClient.Do(ctx, client.Request{Path: path, Token: token})
	if err != nil {
		return nil, fmt.Errorf("fetching analytics: %w", err)
	}

	var a models.Analytics
	if err := client.DecodeJSON(resp, &a); err != nil {
		return nil, fmt.Errorf("fetching analytics: %w", err)
	}
	return &a, nil
}

// CreatePaymentIntent asks the backend to open a charge with the payment provider.
func (c *Client) CreatePaymentIntent(ctx context.Context, token string, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	resp, err := c.httpClient.Do(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/api/payments/create-intent",
		Body:   req,
		Token:  token,
	})
	if err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}

	var intent models.PaymentIntent
	if err := client.DecodeJSON(resp, &intent); err != nil {
		return nil, fmt.Errorf("creating payment intent: %w", err)
	}
	if intent.Plan == "" {
		intent.Plan = req.Plan
	}
	return &intent, nil
}
