package business

import (
	"context"
	"fmt"

	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
)

const (
	TabOverview  = "overview"
	TabReviews   = "reviews"
	TabAnalytics = "analytics"

	defaultPeriod = "30d"
)

type Backend interface {
	Dashboard(ctx context.Context, token string) (*models.Dashboard, error)
	Reviews(ctx context.Context, token string, listingID int64) ([]models.Review, error)
	Analytics(ctx context.Context, token string, listingID int64, period string) (*models.Analytics, error)
}

// ReviewSummary is the header of the reviews tab.
type ReviewSummary struct {
	Count   int         `json:"count"`
	Average float64     `json:"average"`
	ByStars map[int]int `json:"byStars"`
}

// Page is the owner dashboard view. Only the selected tab's data is loaded.
type Page struct {
	Tab           string            `json:"tab"`
	Claimed       bool              `json:"claimed"`
	Dashboard     *models.Dashboard `json:"dashboard"`
	Reviews       []models.Review   `json:"reviews,omitempty"`
	ReviewSummary *ReviewSummary    `json:"reviewSummary,omitempty"`
	Analytics     *models.Analytics `json:"analytics,omitempty"`
}

type Service struct {
	backend Backend
}

func NewService(backend Backend) *Service {
	return &Service{backend: backend}
}

func ParseTab(tab string) string {
	switch tab {
	case TabReviews, TabAnalytics:
		return tab
	default:
		return TabOverview
	}
}

// Dashboard loads the owner's dashboard and, for the reviews and analytics tabs, the
// tab's data. An owner without a claimed listing gets the overview only.
func (s *Service) Dashboard(ctx context.Context, token, tab, period string) (*Page, error) {
	d, err := s.backend.Dashboard(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard: %w", err)
	}

	page := &Page{
		Tab:       ParseTab(tab),
		Claimed:   d.Listing.ID != 0,
		Dashboard: d,
	}
	if !page.Claimed {
		page.Tab = TabOverview
		return page, nil
	}

	switch page.Tab {
	case TabReviews:
		reviews, err := s.backend.Reviews(ctx, token, d.Listing.ID)
		if err != nil {
			return nil, fmt.Errorf("loading reviews: %w", err)
		}
		page.Reviews = reviews
		page.ReviewSummary = Summarize(reviews)
	case TabAnalytics:
		if period == "" {
			period = defaultPeriod
		}
		a, err := s.backend.Analytics(ctx, token, d.Listing.ID, period)
		if err != nil {
			return nil, fmt.Errorf("loading analytics: %w", err)
		}
		page.Analytics = a
	}
	return page, nil
}

func Summarize(reviews []models.Review) *ReviewSummary {
	summary := &ReviewSummary{ByStars: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}}
	total := 0
	for _, r := range reviews {
		if r.Rating < 1 || r.Rating > 5 {
			continue
		}
		summary.Count++
		summary.ByStars[r.Rating]++
		total += r.Rating
	}
	if summary.Count > 0 {
		avg := float64(total) / float64(summary.Count)
		summary.Average = float64(int(avg*10+0.5)) / 10
	}
	return summary
}
