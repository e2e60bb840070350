package models

import (
	"net/url"
	"strconv"
	"strings"
)

// Listing is a laundromat as returned by the directory backend.
type Listing struct {
	ID          int64    `json:"id" dynamodbav:"id"`
	Name        string   `json:"name" dynamodbav:"name"`
	Slug        string   `json:"slug" dynamodbav:"slug"`
	Address     string   `json:"address" dynamodbav:"address"`
	City        string   `json:"city" dynamodbav:"city"`
	State       string   `json:"state" dynamodbav:"state"`
	Zip         string   `json:"zip" dynamodbav:"zip"`
	Phone       string   `json:"phone,omitempty" dynamodbav:"phone,omitempty"`
	Website     string   `json:"website,omitempty" dynamodbav:"website,omitempty"`
	Latitude    float64  `json:"latitude" dynamodbav:"latitude"`
	Longitude   float64  `json:"longitude" dynamodbav:"longitude"`
	Rating      *float64 `json:"rating,omitempty" dynamodbav:"rating,omitempty"`
	ReviewCount int      `json:"reviewCount" dynamodbav:"reviewCount"`
	Services    []string `json:"services,omitempty" dynamodbav:"services,omitempty"`
	Amenities   []string `json:"amenities,omitempty" dynamodbav:"amenities,omitempty"`
	Hours       string   `json:"hours,omitempty" dynamodbav:"hours,omitempty"`
	OpenNow     *bool    `json:"isOpen,omitempty" dynamodbav:"isOpen,omitempty"`
	Premium     bool     `json:"isPremium" dynamodbav:"isPremium"`
	Featured    bool     `json:"isFeatured" dynamodbav:"isFeatured"`
	ImageURL    string   `json:"imageUrl,omitempty" dynamodbav:"imageUrl,omitempty"`
	// Distance in miles; nil when neither the backend nor the caller knows it.
	Distance *float64 `json:"distance,omitempty" dynamodbav:"distance,omitempty"`
}

// Filter narrows a listing query. Fields are merged into the outbound query as-is.
type Filter struct {
	OpenNow  *bool
	Services []string
	Rating   *float64
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return f.OpenNow == nil && len(f.Services) == 0 && f.Rating == nil
}

// Apply merges the filter into q.
func (f Filter) Apply(q url.Values) {
	if f.OpenNow != nil {
		q.Set("openNow", strconv.FormatBool(*f.OpenNow))
	}
	if len(f.Services) > 0 {
		q.Set("services", strings.Join(f.Services, ","))
	}
	if f.Rating != nil {
		q.Set("rating", strconv.FormatFloat(*f.Rating, 'f', -1, 64))
	}
}

// Key is a stable representation used in cache keys.
func (f Filter) Key() string {
	q := url.Values{}
	f.Apply(q)
	return q.Encode()
}

// ParseFilter reads openNow, services and rating from query parameters. Values that
// do not parse as their type are ignored.
func ParseFilter(params map[string]string, multi map[string][]string) Filter {
	var f Filter
	if v, ok := params["openNow"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			f.OpenNow = &b
		}
	}
	if v, ok := params["rating"]; ok {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			f.Rating = &r
		}
	}

	values := multi["services"]
	if len(values) == 0 {
		if v, ok := params["services"]; ok {
			values = []string{v}
		}
	}
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.Services = append(f.Services, s)
			}
		}
	}
	return f
}
