package view

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/paulmach/orb"
)

// ResponseType tells the client which of the three page states to render.
type ResponseType string

const (
	TypeResults ResponseType = "results"
	TypeEmpty   ResponseType = "empty"
	TypeError   ResponseType = "error"
)

type Mode string

const (
	ModeList Mode = "list"
	ModeMap  Mode = "map"
)

// ParseMode defaults to list for anything other than "map".
func ParseMode(s string) Mode {
	if strings.EqualFold(s, string(ModeMap)) {
		return ModeMap
	}
	return ModeList
}

// MaxWidenedRadius caps the radius offered by the no-results panel.
const MaxWidenedRadius = 25.0

type ListingView struct {
	models.Listing
	DistanceLabel string `json:"distanceLabel,omitempty"`
	Href          string `json:"href"`
}

type Marker struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Premium   bool    `json:"isPremium"`
	Href      string  `json:"href"`
}

// Bounds is the box the map should fit in map mode.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

type Link struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type EmptyPanel struct {
	Message string `json:"message"`
	Links   []Link `json:"links"`
}

type ErrorPanel struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	RetryHref string `json:"retryHref"`
}

// ResultsPage is the view model for every listing page: nearby, search, city and state.
type ResultsPage struct {
	Type       ResponseType      `json:"responseType"`
	Title      string            `json:"title"`
	Location   string            `json:"location,omitempty"`
	Mode       Mode              `json:"mode"`
	Listings   []ListingView     `json:"listings"`
	Markers    []Marker          `json:"markers,omitempty"`
	Bounds     *Bounds           `json:"bounds,omitempty"`
	Center     *models.MapCenter `json:"center,omitempty"`
	Pagination *Pagination       `json:"pagination,omitempty"`
	Strategy   string            `json:"strategy,omitempty"`
	Empty      *EmptyPanel       `json:"empty,omitempty"`
	Error      *ErrorPanel       `json:"error,omitempty"`
}

// ResultsInput carries what a page knows after its data has settled.
type ResultsInput struct {
	Title    string
	Location string
	Listings []models.Listing
	Center   *models.MapCenter
	Strategy string
	Mode     Mode
	Page     int

	// Used to build the no-results panel.
	Query       string
	RadiusMiles float64
	StateCode   string
}

// RenderResults builds a results or empty page. Listings are expected to be in display order.
func RenderResults(in ResultsInput) *ResultsPage {
	mode := in.Mode
	if mode == "" {
		mode = ModeList
	}

	page := &ResultsPage{
		Title:    in.Title,
		Location: in.Location,
		Mode:     mode,
		Center:   in.Center,
		Strategy: in.Strategy,
		Listings: []ListingView{},
	}

	if len(in.Listings) == 0 {
		page.Type = TypeEmpty
		page.Empty = NewEmptyPanel(in.Query, in.RadiusMiles, in.StateCode)
		return page
	}

	page.Type = TypeResults
	p, start, end := Paginate(len(in.Listings), in.Page)
	page.Pagination = &p
	for _, l := range in.Listings[start:end] {
		page.Listings = append(page.Listings, NewListingView(l))
	}

	if mode == ModeMap {
		page.Markers = make([]Marker, 0, len(in.Listings))
		for _, l := range in.Listings {
			page.Markers = append(page.Markers, Marker{
				ID:        l.ID,
				Name:      l.Name,
				Latitude:  l.Latitude,
				Longitude: l.Longitude,
				Premium:   l.Premium,
				Href:      ListingHref(l),
			})
		}
		page.Bounds = boundsOf(in.Listings)
	}

	return page
}

func boundsOf(listings []models.Listing) *Bounds {
	points := make(orb.MultiPoint, 0, len(listings))
	for _, l := range listings {
		points = append(points, orb.Point{l.Longitude, l.Latitude})
	}
	b := points.Bound()
	return &Bounds{
		North: b.Top(),
		South: b.Bottom(),
		East:  b.Right(),
		West:  b.Left(),
	}
}

// ErrorPage renders the retry-capable error state for a listing page.
func ErrorPage(title string, err error, retryHref string) *ResultsPage {
	return &ResultsPage{
		Type:     TypeError,
		Title:    title,
		Mode:     ModeList,
		Listings: []ListingView{},
		Error:    NewErrorPanel(err, retryHref),
	}
}

func NewListingView(l models.Listing) ListingView {
	return ListingView{
		Listing:       l,
		DistanceLabel: DistanceLabel(l.Distance),
		Href:          ListingHref(l),
	}
}

// DistanceLabel formats miles to one decimal, or "" when unknown.
func DistanceLabel(miles *float64) string {
	if miles == nil {
		return ""
	}
	return fmt.Sprintf("%.1f mi", *miles)
}

func ListingHref(l models.Listing) string {
	if l.Slug != "" {
		return "/laundromats/" + url.PathEscape(l.Slug)
	}
	return "/laundromats/" + strconv.FormatInt(l.ID, 10)
}

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// IsZip reports whether q is a five-digit ZIP code.
func IsZip(q string) bool {
	return zipPattern.MatchString(strings.TrimSpace(q))
}

// WidenedRadius doubles radius, capped at MaxWidenedRadius.
func WidenedRadius(radius float64) float64 {
	if radius <= 0 {
		return MaxWidenedRadius
	}
	if w := radius * 2; w < MaxWidenedRadius {
		return w
	}
	return MaxWidenedRadius
}

// NewEmptyPanel offers a wider search for ZIP queries and browse links otherwise.
func NewEmptyPanel(query string, radius float64, stateCode string) *EmptyPanel {
	if IsZip(query) {
		zip := strings.TrimSpace(query)
		widened := WidenedRadius(radius)
		q := url.Values{}
		q.Set("q", zip)
		q.Set("radius", strconv.FormatFloat(widened, 'f', -1, 64))
		return &EmptyPanel{
			Message: fmt.Sprintf("No laundromats found near %s.", zip),
			Links: []Link{{
				Label: fmt.Sprintf("Search within %s miles", strconv.FormatFloat(widened, 'f', -1, 64)),
				Href:  "/search?" + q.Encode(),
			}},
		}
	}

	panel := &EmptyPanel{Message: "No laundromats found."}
	if state, ok := geo.LookupState(stateCode); ok {
		panel.Links = append(panel.Links, Link{
			Label: "Browse laundromats in " + state.Name,
			Href:  "/states/" + state.Code,
		})
	}
	panel.Links = append(panel.Links, Link{Label: "Use my location", Href: "/nearby"})
	return panel
}

// NewErrorPanel never exposes err to the user; it only picks the wording.
func NewErrorPanel(err error, retryHref string) *ErrorPanel {
	msg := "We couldn't load laundromats right now. Please try again."
	if errors.Is(err, context.DeadlineExceeded) {
		msg = "The request timed out. Please try again."
	}
	return &ErrorPanel{
		Message:   msg,
		Retryable: true,
		RetryHref: retryHref,
	}
}

// CityName turns a slug like "denver-co" into "Denver, CO".
func CityName(slug string) string {
	parts := strings.Split(strings.ToLower(slug), "-")
	if len(parts) == 0 || slug == "" {
		return ""
	}

	var state string
	if last := parts[len(parts)-1]; len(parts) > 1 && len(last) == 2 {
		if s, ok := geo.LookupState(last); ok {
			state = s.Code
			parts = parts[:len(parts)-1]
		}
	}

	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	name := strings.Join(parts, " ")
	if state != "" {
		name += ", " + state
	}
	return name
}

const cityZoom = 12

// CenterOf centres the map on the middle of the listings' bounding box. It returns nil
// when there is nothing to centre on.
func CenterOf(listings []models.Listing, label string) *models.MapCenter {
	if len(listings) == 0 {
		return nil
	}
	points := make(orb.MultiPoint, 0, len(listings))
	for _, l := range listings {
		points = append(points, orb.Point{l.Longitude, l.Latitude})
	}
	c := points.Bound().Center()
	return &models.MapCenter{
		Latitude:    c.Lat(),
		Longitude:   c.Lon(),
		Zoom:        cityZoom,
		Label:       label,
		Granularity: models.GranularityCity,
	}
}
