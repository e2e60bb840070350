package models

import "time"

type Subscription struct {
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	RenewsAt  *time.Time `json:"renewsAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Dashboard is the business owner's landing view.
type Dashboard struct {
	Listing      Listing       `json:"laundromat"`
	Subscription *Subscription `json:"subscription,omitempty"`
	Stats        struct {
		Views       int     `json:"views"`
		Reviews     int     `json:"reviews"`
		Rating      float64 `json:"rating"`
		Impressions int     `json:"impressions"`
	} `json:"stats"`
}

type Review struct {
	ID        int64     `json:"id"`
	Author    string    `json:"userName"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
}

type AnalyticsPoint struct {
	Date   string `json:"date"`
	Views  int    `json:"views"`
	Calls  int    `json:"calls"`
	Clicks int    `json:"clicks"`
}

type Analytics struct {
	Period     string           `json:"period"`
	Views      int              `json:"totalViews"`
	Calls      int              `json:"totalCalls"`
	Clicks     int              `json:"totalClicks"`
	Directions int              `json:"totalDirections"`
	Series     []AnalyticsPoint `json:"series"`
}

// PaymentIntent is the provider handle for a pending subscription charge.
type PaymentIntent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Plan         string `json:"plan"`
}

type PaymentIntentRequest struct {
	Plan         string `json:"plan"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	LaundromatID *int64 `json:"laundromatId,omitempty"`
}
