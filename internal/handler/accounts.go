package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/laundrylocator/backend-go/internal/account"
	"github.com/bbernstein/laundrylocator/backend-go/internal/api"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/bbernstein/laundrylocator/backend-go/internal/payment"
	"github.com/rs/zerolog/log"
)

type sessionResponse struct {
	api.APIResponse
	*account.Result
}

func signedIn(route string, result *account.Result) (events.APIGatewayProxyResponse, error) {
	return page(route, http.StatusOK, "session", &sessionResponse{
		APIResponse: api.APIResponse{ResponseType: "session"},
		Result:      result,
	})
}

func (h *Handler) Login(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var form account.LoginForm
	if err := decodeBody(req, &form); err != nil {
		return fail(routeLogin, "invalid request body", http.StatusBadRequest)
	}

	result, err := h.Accounts.Login(ctx, form)
	if err != nil {
		return backendFailure(routeLogin, err)
	}
	return signedIn(routeLogin, result)
}

func (h *Handler) Register(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var form account.RegistrationForm
	if err := decodeBody(req, &form); err != nil {
		return fail(routeRegister, "invalid request body", http.StatusBadRequest)
	}

	result, err := h.Accounts.Register(ctx, form)
	if err != nil {
		return backendFailure(routeRegister, err)
	}
	return signedIn(routeRegister, result)
}

// DemoLogin accepts an optional {"role": ...} body; no body means customer.
func (h *Handler) DemoLogin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var body struct {
		Role string `json:"role"`
	}
	if req.Body != "" {
		if err := decodeBody(req, &body); err != nil {
			return fail(routeDemoLogin, "invalid request body", http.StatusBadRequest)
		}
	}

	result, err := h.Accounts.DemoLogin(ctx, body.Role)
	if err != nil {
		return backendFailure(routeDemoLogin, err)
	}
	return signedIn(routeDemoLogin, result)
}

type moderationResponse struct {
	api.APIResponse
	Moderation interface{} `json:"moderation"`
}

func (h *Handler) Admin(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	token, denied := h.authorize(routeAdmin, req, models.RoleAdmin)
	if denied != nil {
		return *denied, nil
	}

	m, err := h.Moderation.ListNotifications(ctx, token, req.QueryStringParameters["tab"])
	if err != nil {
		return backendFailure(routeAdmin, err)
	}
	return page(routeAdmin, http.StatusOK, "moderation", &moderationResponse{
		APIResponse: api.APIResponse{ResponseType: "moderation"},
		Moderation:  m,
	})
}

type notificationResponse struct {
	api.APIResponse
	Notification *models.Notification `json:"notification"`
}

func (h *Handler) UpdateNotification(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	token, denied := h.authorize(routeAdminUpdate, req, models.RoleAdmin)
	if denied != nil {
		return *denied, nil
	}

	id, err := strconv.ParseInt(req.PathParameters["id"], 10, 64)
	if err != nil || id <= 0 {
		return fail(routeAdminUpdate, "invalid notification id", http.StatusBadRequest)
	}
	var upd models.NotificationUpdate
	if err := decodeBody(req, &upd); err != nil {
		return fail(routeAdminUpdate, "invalid request body", http.StatusBadRequest)
	}

	n, err := h.Moderation.UpdateNotification(ctx, token, id, upd)
	if err != nil {
		return backendFailure(routeAdminUpdate, err)
	}
	return page(routeAdminUpdate, http.StatusOK, "notification", &notificationResponse{
		APIResponse:  api.APIResponse{ResponseType: "notification"},
		Notification: n,
	})
}

type dashboardResponse struct {
	api.APIResponse
	Dashboard interface{} `json:"dashboard"`
}

func (h *Handler) BusinessDashboard(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	token, denied := h.authorize(routeBusiness, req, models.RoleBusinessOwner, models.RoleAdmin)
	if denied != nil {
		return *denied, nil
	}

	params := req.QueryStringParameters
	p, err := h.Dashboards.Dashboard(ctx, token, params["tab"], params["period"])
	if err != nil {
		return backendFailure(routeBusiness, err)
	}
	return page(routeBusiness, http.StatusOK, "dashboard", &dashboardResponse{
		APIResponse: api.APIResponse{ResponseType: "dashboard"},
		Dashboard:   p,
	})
}

type plansResponse struct {
	api.APIResponse
	Plans []payment.Plan `json:"plans"`
}

func (h *Handler) Plans(_ context.Context, _ events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return page(routePlans, http.StatusOK, "plans", &plansResponse{
		APIResponse: api.APIResponse{ResponseType: "plans"},
		Plans:       payment.Plans(),
	})
}

type checkoutResponse struct {
	api.APIResponse
	*payment.Checkout
}

// Subscribe opens a payment for a premium plan.
func (h *Handler) Subscribe(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	token, denied := h.authorize(routeSubscribe, req, models.RoleBusinessOwner, models.RoleAdmin)
	if denied != nil {
		return *denied, nil
	}

	var body struct {
		Plan      string `json:"plan"`
		ListingID *int64 `json:"laundromatId"`
	}
	if err := decodeBody(req, &body); err != nil {
		return fail(routeSubscribe, "invalid request body", http.StatusBadRequest)
	}

	checkout, err := h.Payments.CreateIntent(ctx, token, body.Plan, body.ListingID)
	if err != nil {
		return paymentFailure(routeSubscribe, err)
	}
	return page(routeSubscribe, http.StatusOK, "checkout", &checkoutResponse{
		APIResponse: api.APIResponse{ResponseType: "checkout"},
		Checkout:    checkout,
	})
}

type confirmationResponse struct {
	api.APIResponse
	*payment.Confirmation
}

// ConfirmSubscription interprets the status the payment UI reported.
func (h *Handler) ConfirmSubscription(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if _, denied := h.authorize(routeConfirm, req, models.RoleBusinessOwner, models.RoleAdmin); denied != nil {
		return *denied, nil
	}

	var body payment.ConfirmRequest
	if err := decodeBody(req, &body); err != nil {
		return fail(routeConfirm, "invalid request body", http.StatusBadRequest)
	}

	conf, err := h.Payments.Confirm(body)
	if err != nil {
		return paymentFailure(routeConfirm, err)
	}
	return page(routeConfirm, http.StatusOK, "confirmation", &confirmationResponse{
		APIResponse:  api.APIResponse{ResponseType: "confirmation"},
		Confirmation: conf,
	})
}

func paymentFailure(route string, err error) (events.APIGatewayProxyResponse, error) {
	var perr *payment.Error
	if errors.As(err, &perr) {
		log.Warn().Err(err).Str("route", route).Str("code", perr.Code).Msg("Payment blocked")
		record(route, "error")
		return api.PaymentRequired(perr.Toast())
	}
	return backendFailure(route, err)
}
