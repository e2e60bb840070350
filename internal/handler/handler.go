package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/laundrylocator/backend-go/internal/account"
	"github.com/bbernstein/laundrylocator/backend-go/internal/admin"
	"github.com/bbernstein/laundrylocator/backend-go/internal/api"
	"github.com/bbernstein/laundrylocator/backend-go/internal/business"
	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/bbernstein/laundrylocator/backend-go/internal/payment"
	"github.com/bbernstein/laundrylocator/backend-go/internal/search"
	"github.com/bbernstein/laundrylocator/backend-go/internal/telemetry"
	"github.com/bbernstein/laundrylocator/backend-go/pkg/http/client"
	"github.com/rs/zerolog/log"
)

// Locator turns the device position into a named place.
type Locator interface {
	Resolve(ctx context.Context, point geo.Coordinates) models.Location
	LastName(ctx context.Context) string
}

type Searcher interface {
	Run(ctx context.Context, q search.Query) (*search.Result, error)
}

// Listings covers the directory calls that bypass the fallback chain.
type Listings interface {
	SearchListings(ctx context.Context, query, location string, radius float64, f models.Filter) ([]models.Listing, error)
	Listing(ctx context.Context, idOrSlug string) (*models.Listing, error)
}

type Accounts interface {
	Register(ctx context.Context, form account.RegistrationForm) (*account.Result, error)
	Login(ctx context.Context, form account.LoginForm) (*account.Result, error)
	DemoLogin(ctx context.Context, role string) (*account.Result, error)
}

type Moderation interface {
	ListNotifications(ctx context.Context, token, tab string) (*admin.Moderation, error)
	UpdateNotification(ctx context.Context, token string, id int64, upd models.NotificationUpdate) (*models.Notification, error)
}

type Dashboards interface {
	Dashboard(ctx context.Context, token, tab, period string) (*business.Page, error)
}

type Payments interface {
	CreateIntent(ctx context.Context, token, planID string, listingID *int64) (*payment.Checkout, error)
	Confirm(req payment.ConfirmRequest) (*payment.Confirmation, error)
}

type Authorizer interface {
	Authorize(header string, roles ...string) (string, *account.Claims, error)
}

// Deps are the services the page handlers call.
type Deps struct {
	Locator    Locator
	Searcher   Searcher
	Fetcher    search.Fetcher
	Listings   Listings
	Sessions   *search.Sessions
	Accounts   Accounts
	Moderation Moderation
	Dashboards Dashboards
	Payments   Payments
	Auth       Authorizer
}

type Handler struct {
	Deps
	defaultRadius float64
	maxRadius     float64
}

func New(cfg *config.Config, deps Deps) *Handler {
	if deps.Sessions == nil {
		deps.Sessions = search.NewSessions()
	}
	return &Handler{
		Deps:          deps,
		defaultRadius: cfg.DefaultRadiusMiles,
		maxRadius:     cfg.MaxRadiusMiles,
	}
}

// header looks a header up case-insensitively; API Gateway and net/http disagree on casing.
func header(req events.APIGatewayProxyRequest, name string) string {
	for k, v := range req.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, vs := range req.MultiValueHeaders {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func decodeBody(req events.APIGatewayProxyRequest, v interface{}) error {
	if strings.TrimSpace(req.Body) == "" {
		return errors.New("request body is required")
	}
	return json.Unmarshal([]byte(req.Body), v)
}

func record(route, responseType string) {
	telemetry.PageResponses.WithLabelValues(route, responseType).Inc()
}

// page serialises a view model and counts it by route and response type.
func page(route string, status int, responseType string, body interface{}) (events.APIGatewayProxyResponse, error) {
	record(route, responseType)
	return api.JSON(status, body)
}

func fail(route, message string, status int) (events.APIGatewayProxyResponse, error) {
	record(route, "error")
	return api.Error(message, status)
}

// authorize maps token failures to 401 and role failures to 403.
func (h *Handler) authorize(route string, req events.APIGatewayProxyRequest, roles ...string) (string, *events.APIGatewayProxyResponse) {
	token, claims, err := h.Auth.Authorize(header(req, "Authorization"), roles...)
	if err == nil {
		log.Debug().Int64("user_id", claims.UserID).Str("route", route).Msg("Request authorized")
		return token, nil
	}

	status := http.StatusUnauthorized
	if errors.Is(err, account.ErrForbidden) {
		status = http.StatusForbidden
	}
	resp, _ := fail(route, err.Error(), status)
	return "", &resp
}

// backendFailure maps an upstream error onto the status the client sees.
func backendFailure(route string, err error) (events.APIGatewayProxyResponse, error) {
	var verr *account.ValidationError
	if errors.As(err, &verr) {
		record(route, "error")
		return api.ValidationFailed(verr.Fields)
	}

	status := http.StatusBadGateway
	message := "The service is unavailable. Please try again."
	var serr *client.StatusError
	if errors.As(err, &serr) {
		switch serr.StatusCode {
		case http.StatusUnauthorized:
			status, message = http.StatusUnauthorized, "Invalid email or password."
		case http.StatusForbidden:
			status, message = http.StatusForbidden, "You don't have access to this page."
		case http.StatusNotFound:
			status, message = http.StatusNotFound, "Not found."
		case http.StatusConflict:
			status, message = http.StatusConflict, "An account with this email already exists."
		}
	}
	log.Error().Err(err).Str("route", route).Int("status", status).Msg("Backend call failed")
	return fail(route, message, status)
}
