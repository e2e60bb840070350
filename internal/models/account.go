package models

import "time"

const (
	RoleAdmin         = "admin"
	RoleBusinessOwner = "business_owner"
	RoleCustomer      = "customer"
)

type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	BusinessName string `json:"businessName,omitempty"`
	ListingID    *int64 `json:"laundromatId,omitempty"`
}

// Session is what the backend hands back on login or registration.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Notification is an admin moderation item (new listing claims, reports, reviews).
type Notification struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	ListingID *int64    `json:"laundromatId,omitempty"`
	Status    string    `json:"status"`
	Read      bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

const (
	NotificationPending  = "pending"
	NotificationApproved = "approved"
	NotificationRejected = "rejected"
)

// NotificationUpdate is a partial update; nil fields are left unchanged.
type NotificationUpdate struct {
	Status *string `json:"status,omitempty"`
	Read   *bool   `json:"isRead,omitempty"`
}

// Registration is the payload for creating an account.
type Registration struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Role         string `json:"role,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
