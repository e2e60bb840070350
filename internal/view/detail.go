package view

import "github.com/bbernstein/laundrylocator/backend-go/internal/models"

const detailZoom = 15

// DetailPage is the view model for a single listing.
type DetailPage struct {
	Type    ResponseType      `json:"responseType"`
	Listing *ListingView      `json:"laundromat,omitempty"`
	Center  *models.MapCenter `json:"center,omitempty"`
	Empty   *EmptyPanel       `json:"empty,omitempty"`
	Error   *ErrorPanel       `json:"error,omitempty"`
}

func RenderDetail(l *models.Listing) *DetailPage {
	if l == nil {
		return &DetailPage{
			Type: TypeEmpty,
			Empty: &EmptyPanel{
				Message: "This laundromat could not be found.",
				Links:   []Link{{Label: "Use my location", Href: "/nearby"}},
			},
		}
	}

	lv := NewListingView(*l)
	return &DetailPage{
		Type:    TypeResults,
		Listing: &lv,
		Center: &models.MapCenter{
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
			Zoom:        detailZoom,
			Label:       l.Name,
			Granularity: models.GranularityPoint,
		},
	}
}

func DetailError(err error, retryHref string) *DetailPage {
	return &DetailPage{Type: TypeError, Error: NewErrorPanel(err, retryHref)}
}
