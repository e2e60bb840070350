package payment

import (
	"context"
	"fmt"
	"sort"

	"github.com/bbernstein/laundrylocator/backend-go/internal/account"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	PlanMonthly = "premium_monthly"
	PlanAnnual  = "premium_annual"

	currency = "usd"
)

type Plan struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AmountCents int64  `json:"amount"`
	Interval    string `json:"interval"`
	// Price is the formatted amount, e.g. "$19.99".
	Price string `json:"price"`
	// Savings compared to paying monthly for a year, annual plan only.
	Savings string `json:"savings,omitempty"`
}

var plans = map[string]Plan{
	PlanMonthly: {ID: PlanMonthly, Name: "Premium Monthly", AmountCents: 1999, Interval: "month"},
	PlanAnnual:  {ID: PlanAnnual, Name: "Premium Annual", AmountCents: 19900, Interval: "year"},
}

// FormatCents renders an amount in cents as dollars.
func FormatCents(cents int64) string {
	return "$" + decimal.New(cents, -2).StringFixed(2)
}

// LookupPlan returns the plan with its display fields filled in.
func LookupPlan(id string) (Plan, bool) {
	p, ok := plans[id]
	if !ok {
		return Plan{}, false
	}
	p.Price = FormatCents(p.AmountCents)
	if p.Interval == "year" {
		monthly := decimal.NewFromInt(plans[PlanMonthly].AmountCents).Mul(decimal.NewFromInt(12))
		if saved := monthly.Sub(decimal.NewFromInt(p.AmountCents)); saved.IsPositive() {
			p.Savings = FormatCents(saved.IntPart())
		}
	}
	return p, true
}

// Plans lists every plan, cheapest first.
func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for id := range plans {
		p, _ := LookupPlan(id)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AmountCents < out[j].AmountCents })
	return out
}

// Toast is a transient notification shown to the user.
type Toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Error is a payment failure, either reported by the provider or raised while creating
// the charge. It blocks the checkout from moving on.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment failed (%s): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("payment failed (%s): %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Toast() Toast {
	return Toast{Level: "error", Message: e.Message}
}

type Backend interface {
	CreatePaymentIntent(ctx context.Context, token string, req models.PaymentIntentRequest) (*models.PaymentIntent, error)
}

// Checkout is what the hosted payment UI needs to collect card details.
type Checkout struct {
	Plan            Plan   `json:"plan"`
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	PublishableKey  string `json:"publishableKey"`
}

// ConfirmRequest is the status the payment provider reported to the client.
type ConfirmRequest struct {
	PaymentIntentID string `json:"paymentIntentId"`
	Status          string `json:"status"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}

type Confirmation struct {
	Status string `json:"status"`
	Next   string `json:"next,omitempty"`
	Toast  *Toast `json:"toast,omitempty"`
}

type Service struct {
	backend        Backend
	publishableKey string
}

func NewService(backend Backend, publishableKey string) *Service {
	return &Service{backend: backend, publishableKey: publishableKey}
}

// CreateIntent opens a charge for the plan. An unknown plan is a validation error; a
// backend failure is a payment Error.
func (s *Service) CreateIntent(ctx context.Context, token, planID string, listingID *int64) (*Checkout, error) {
	plan, ok := LookupPlan(planID)
	if !ok {
		return nil, &account.ValidationError{Fields: map[string]string{"plan": "Choose a subscription plan"}}
	}

	intent, err := s.backend.CreatePaymentIntent(ctx, token, models.PaymentIntentRequest{
		Plan:         plan.ID,
		Amount:       plan.AmountCents,
		Currency:     currency,
		LaundromatID: listingID,
	})
	if err != nil {
		log.Error().Err(err).Str("plan", plan.ID).Msg("Creating payment intent failed")
		return nil, &Error{
			Code:    "intent_failed",
			Message: "We couldn't start your payment. Please try again.",
			Err:     err,
		}
	}
	if intent.ClientSecret == "" {
		return nil, &Error{Code: "intent_invalid", Message: "We couldn't start your payment. Please try again."}
	}

	return &Checkout{
		Plan:            plan,
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		PublishableKey:  s.publishableKey,
	}, nil
}

// Confirm interprets the status the payment provider reported to the client.
func (s *Service) Confirm(req ConfirmRequest) (*Confirmation, error) {
	switch req.Status {
	case "succeeded":
		log.Info().Str("payment_intent", req.PaymentIntentID).Msg("Subscription payment succeeded")
		return &Confirmation{
			Status: req.Status,
			Next:   "/business/dashboard",
			Toast:  &Toast{Level: "success", Message: "Your listing is now premium."},
		}, nil
	case "processing":
		return &Confirmation{
			Status: req.Status,
			Toast:  &Toast{Level: "info", Message: "Your payment is processing. We'll update your listing shortly."},
		}, nil
	}

	msg := req.ErrorMessage
	if msg == "" {
		msg = "Your payment was not completed."
	}
	log.Warn().
		Str("payment_intent", req.PaymentIntentID).
		Str("status", req.Status).
		Msg("Subscription payment failed")
	return nil, &Error{Code: req.Status, Message: msg}
}
