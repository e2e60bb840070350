package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/rs/zerolog/log"
)

// Backend is the authentication surface of the directory backend.
type Backend interface {
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)
	Register(ctx context.Context, reg models.Registration) (*models.Session, error)
	DemoLogin(ctx context.Context, role string) (*models.Session, error)
}

// Result is the page response after a successful sign-in: the session plus where to go next.
type Result struct {
	Session  *models.Session `json:"session"`
	Redirect string          `json:"redirect"`
}

type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

// Register validates the form locally and only then calls the backend.
func (s *Service) Register(ctx context.Context, form RegistrationForm) (*Result, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	session, err := s.backend.Register(ctx, form.Registration())
	if err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}

	log.Info().Int64("user_id", session.User.ID).Str("role", session.User.Role).Msg("Account registered")
	return &Result{Session: session, Redirect: RedirectFor(session.User.Role)}, nil
}

func (s *Service) Login(ctx context.Context, form LoginForm) (*Result, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	session, err := s.backend.Login(ctx, models.Credentials{
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	return &Result{Session: session, Redirect: RedirectFor(session.User.Role)}, nil
}

// DemoLogin signs in as a shared demo account. Unknown roles fall back to customer.
func (s *Service) DemoLogin(ctx context.Context, role string) (*Result, error) {
	switch role {
	case models.RoleAdmin, models.RoleBusinessOwner, models.RoleCustomer:
	default:
		role = models.RoleCustomer
	}

	session, err := s.backend.DemoLogin(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("demo login: %w", err)
	}
	return &Result{Session: session, Redirect: RedirectFor(session.User.Role)}, nil
}

// RedirectFor is the landing page for a role.
func RedirectFor(role string) string {
	switch role {
	case models.RoleAdmin:
		return "/admin"
	case models.RoleBusinessOwner:
		return "/business/dashboard"
	default:
		return "/nearby"
	}
}
