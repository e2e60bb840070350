package models

// Location is the result of resolving where the user is.
type Location struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"displayName"`
	StateCode   string  `json:"stateCode,omitempty"`
}

type Granularity string

const (
	GranularityPoint Granularity = "point"
	GranularityState Granularity = "state"
	GranularityCity  Granularity = "city"
)

// MapCenter is where the map is centred for a result set, at the granularity of the
// data actually returned.
type MapCenter struct {
	Latitude    float64     `json:"latitude"`
	Longitude   float64     `json:"longitude"`
	Zoom        int         `json:"zoom"`
	Label       string      `json:"label,omitempty"`
	Granularity Granularity `json:"granularity"`
}
