package account

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
)

const minPasswordLength = 8

// ValidationError carries one message per invalid field. It is returned before any
// backend call is made.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid fields: %s", strings.Join(names, ", "))
}

type RegistrationForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	// AccountType is "customer" or "business_owner"; empty means customer.
	AccountType  string `json:"accountType"`
	BusinessName string `json:"businessName"`
}

// Validate checks the form field by field and reports every problem at once.
func (f RegistrationForm) Validate() error {
	fields := map[string]string{}

	if strings.TrimSpace(f.Name) == "" {
		fields["name"] = "Name is required"
	}
	if msg := checkEmail(f.Email); msg != "" {
		fields["email"] = msg
	}
	if len(f.Password) < minPasswordLength {
		fields["password"] = fmt.Sprintf("Password must be at least %d characters", minPasswordLength)
	}
	if f.ConfirmPassword != f.Password {
		fields["confirmPassword"] = "Passwords do not match"
	}

	switch f.AccountType {
	case "", models.RoleCustomer:
	case models.RoleBusinessOwner:
		if strings.TrimSpace(f.BusinessName) == "" {
			fields["businessName"] = "Business name is required"
		}
	default:
		fields["accountType"] = "Choose customer or business owner"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Registration converts a validated form into the backend payload.
func (f RegistrationForm) Registration() models.Registration {
	role := f.AccountType
	if role == "" {
		role = models.RoleCustomer
	}
	reg := models.Registration{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Role:     role,
	}
	if role == models.RoleBusinessOwner {
		reg.BusinessName = strings.TrimSpace(f.BusinessName)
	}
	return reg
}

type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(f.Email) == "" {
		fields["email"] = "Email is required"
	}
	if f.Password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func checkEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "Enter a valid email address"
	}
	at := strings.LastIndex(email, "@")
	if !strings.Contains(email[at+1:], ".") {
		return "Enter a valid email address"
	}
	return ""
}
