package geo

import "strings"

type State struct {
	Code     string
	Name     string
	Centroid Coordinates
}

var states = []State{
	{"AL", "Alabama", Coordinates{32.8067, -86.7911}},
	{"AK", "Alaska", Coordinates{61.3707, -152.4044}},
	{"AZ", "Arizona", Coordinates{33.7298, -111.4312}},
	{"AR", "Arkansas", Coordinates{34.9697, -92.3731}},
	{"CA", "California", Coordinates{36.1162, -119.6816}},
	{"CO", "Colorado", Coordinates{39.0598, -105.3111}},
	{"CT", "Connecticut", Coordinates{41.5978, -72.7554}},
	{"DE", "Delaware", Coordinates{39.3185, -75.5071}},
	{"DC", "District of Columbia", Coordinates{38.8974, -77.0268}},
	{"FL", "Florida", Coordinates{27.7663, -81.6868}},
	{"GA", "Georgia", Coordinates{33.0406, -83.6431}},
	{"HI", "Hawaii", Coordinates{21.0943, -157.4983}},
	{"ID", "Idaho", Coordinates{44.2405, -114.4788}},
	{"IL", "Illinois", Coordinates{40.3495, -88.9861}},
	{"IN", "Indiana", Coordinates{39.8494, -86.2583}},
	{"IA", "Iowa", Coordinates{42.0115, -93.2105}},
	{"KS", "Kansas", Coordinates{38.5266, -96.7265}},
	{"KY", "Kentucky", Coordinates{37.6681, -84.6701}},
	{"LA", "Louisiana", Coordinates{31.1695, -91.8678}},
	{"ME", "Maine", Coordinates{44.6939, -69.3819}},
	{"MD", "Maryland", Coordinates{39.0639, -76.8021}},
	{"MA", "Massachusetts", Coordinates{42.2302, -71.5301}},
	{"MI", "Michigan", Coordinates{43.3266, -84.5361}},
	{"MN", "Minnesota", Coordinates{45.6945, -93.9002}},
	{"MS", "Mississippi", Coordinates{32.7416, -89.6787}},
	{"MO", "Missouri", Coordinates{38.4561, -92.2884}},
	{"MT", "Montana", Coordinates{46.9219, -110.4544}},
	{"NE", "Nebraska", Coordinates{41.1254, -98.2681}},
	{"NV", "Nevada", Coordinates{38.3135, -117.0554}},
	{"NH", "New Hampshire", Coordinates{43.4525, -71.5639}},
	{"NJ", "New Jersey", Coordinates{40.2989, -74.5210}},
	{"NM", "New Mexico", Coordinates{34.8405, -106.2485}},
	{"NY", "New York", Coordinates{42.1657, -74.9481}},
	{"NC", "North Carolina", Coordinates{35.6301, -79.8064}},
	{"ND", "North Dakota", Coordinates{47.5289, -99.7840}},
	{"OH", "Ohio", Coordinates{40.3888, -82.7649}},
	{"OK", "Oklahoma", Coordinates{35.5653, -96.9289}},
	{"OR", "Oregon", Coordinates{44.5720, -122.0709}},
	{"PA", "Pennsylvania", Coordinates{40.5908, -77.2098}},
	{"RI", "Rhode Island", Coordinates{41.6809, -71.5118}},
	{"SC", "South Carolina", Coordinates{33.8569, -80.9450}},
	{"SD", "South Dakota", Coordinates{44.2998, -99.4388}},
	{"TN", "Tennessee", Coordinates{35.7478, -86.6923}},
	{"TX", "Texas", Coordinates{31.0545, -97.5635}},
	{"UT", "Utah", Coordinates{40.1500, -111.8624}},
	{"VT", "Vermont", Coordinates{44.0459, -72.7107}},
	{"VA", "Virginia", Coordinates{37.7693, -78.1700}},
	{"WA", "Washington", Coordinates{47.4009, -121.4905}},
	{"WV", "West Virginia", Coordinates{38.4912, -80.9545}},
	{"WI", "Wisconsin", Coordinates{44.2685, -89.6165}},
	{"WY", "Wyoming", Coordinates{42.7560, -107.3025}},
}

var (
	statesByCode = make(map[string]State, len(states))
	statesByName = make(map[string]State, len(states))
)

func init() {
	for _, s := range states {
		statesByCode[s.Code] = s
		statesByName[strings.ToLower(s.Name)] = s
	}
}

// LookupState finds a state by two-letter code or full name, case-insensitively.
func LookupState(codeOrName string) (State, bool) {
	key := strings.TrimSpace(codeOrName)
	if s, ok := statesByCode[strings.ToUpper(key)]; ok {
		return s, true
	}
	s, ok := statesByName[strings.ToLower(key)]
	return s, ok
}
