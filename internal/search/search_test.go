package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
	"github.com/bbernstein/laundrylocator/backend-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var denver = config.City{Slug: "denver-co", Name: "Denver, CO", Latitude: 39.7392, Longitude: -104.9903}

// recordingFetcher answers by request kind and remembers the order of requests
type recordingFetcher struct {
	mu        sync.Mutex
	requests  []Request
	responses map[Kind]func(Request) ([]models.Listing, error)
}

func (f *recordingFetcher) Fetch(_ context.Context, req Request) ([]models.Listing, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if fn, ok := f.responses[req.Kind]; ok {
		return fn(req)
	}
	return []models.Listing{}, nil
}

func (f *recordingFetcher) kinds() []Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	kinds := make([]Kind, 0, len(f.requests))
	for _, r := range f.requests {
		kinds = append(kinds, r.Kind)
	}
	return kinds
}

func listingsAt(points ...geo.Coordinates) []models.Listing {
	out := make([]models.Listing, 0, len(points))
	for i, p := range points {
		out = append(out, models.Listing{ID: int64(i + 1), Latitude: p.Latitude, Longitude: p.Longitude})
	}
	return out
}

func ptr(f float64) *float64 { return &f }

func respond(listings []models.Listing, err error) func(Request) ([]models.Listing, error) {
	return func(Request) ([]models.Listing, error) { return listings, err }
}

func denverQuery() Query {
	return Query{
		Origin:      &geo.Coordinates{Latitude: 39.7392, Longitude: -104.9903},
		RadiusMiles: 25,
		Label:       "Denver, CO",
	}
}

func TestOrchestrator_StateBeforeCityOnEmptyCoordinates(t *testing.T) {
	fetcher := &recordingFetcher{responses: map[Kind]func(Request) ([]models.Listing, error){
		KindCoordinates: respond([]models.Listing{}, nil),
		KindState:       respond([]models.Listing{}, nil),
		KindCity:        respond(listingsAt(geo.Coordinates{Latitude: 39.75, Longitude: -105.0}), nil),
	}}
	o := NewOrchestrator(fetcher, DefaultStrategies("CO", denver)...)

	result, err := o.Run(context.Background(), denverQuery())
	require.NoError(t, err)

	assert.Equal(t, []Kind{KindCoordinates, KindState, KindCity}, fetcher.kinds())
	assert.Equal(t, "CO", fetcher.requests[1].StateCode)
	assert.Equal(t, "denver-co", fetcher.requests[2].CitySlug)
	assert.Equal(t, string(KindCity), result.Strategy)
	assert.Equal(t, models.GranularityCity, result.Center.Granularity)
}

func TestOrchestrator_Chain(t *testing.T) {
	near := listingsAt(geo.Coordinates{Latitude: 39.74, Longitude: -104.99})
	boom := errors.New("backend down")

	tests := []struct {
		name          string
		query         Query
		responses     map[Kind]func(Request) ([]models.Listing, error)
		wantKinds     []Kind
		wantStrategy  string
		wantCenter    models.Granularity
		wantZoom      int
		wantEmpty     bool
		wantExhausted bool
	}{
		{
			name:  "coordinates hit",
			query: denverQuery(),
			responses: map[Kind]func(Request) ([]models.Listing, error){
				KindCoordinates: respond(near, nil),
			},
			wantKinds:    []Kind{KindCoordinates},
			wantStrategy: "coordinates",
			wantCenter:   models.GranularityPoint,
			wantZoom:     12,
		},
		{
			name:  "coordinate failure falls back to state",
			query: denverQuery(),
			responses: map[Kind]func(Request) ([]models.Listing, error){
				KindCoordinates: respond(nil, boom),
				KindState:       respond(near, nil),
			},
			wantKinds:    []Kind{KindCoordinates, KindState},
			wantStrategy: "state",
			wantCenter:   models.GranularityState,
			wantZoom:     7,
		},
		{
			name:  "no origin starts at state",
			query: Query{StateCode: "tx"},
			responses: map[Kind]func(Request) ([]models.Listing, error){
				KindState: respond(near, nil),
			},
			wantKinds:    []Kind{KindState},
			wantStrategy: "state",
			wantCenter:   models.GranularityState,
			wantZoom:     7,
		},
		{
			name:          "final fallback failure is exhausted",
			query:         denverQuery(),
			responses:     map[Kind]func(Request) ([]models.Listing, error){KindCity: respond(nil, boom)},
			wantKinds:     []Kind{KindCoordinates, KindState, KindCity},
			wantExhausted: true,
		},
		{
			name:         "final fallback empty is a valid empty result",
			query:        denverQuery(),
			responses:    map[Kind]func(Request) ([]models.Listing, error){},
			wantKinds:    []Kind{KindCoordinates, KindState, KindCity},
			wantStrategy: "city",
			wantCenter:   models.GranularityCity,
			wantZoom:     12,
			wantEmpty:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &recordingFetcher{responses: tt.responses}
			o := NewOrchestrator(fetcher, DefaultStrategies("CO", denver)...)

			result, err := o.Run(context.Background(), tt.query)
			assert.Equal(t, tt.wantKinds, fetcher.kinds())

			if tt.wantExhausted {
				var exhausted *ExhaustedError
				require.ErrorAs(t, err, &exhausted)
				assert.ErrorIs(t, err, boom)
				assert.Equal(t, []string{"coordinates", "state", "city"}, exhausted.Attempts)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStrategy, result.Strategy)
			assert.Equal(t, tt.wantCenter, result.Center.Granularity)
			assert.Equal(t, tt.wantZoom, result.Center.Zoom)
			assert.Equal(t, tt.wantEmpty, result.Empty())
		})
	}
}

func TestOrchestrator_StateCenterUsesResolvedState(t *testing.T) {
	fetcher := &recordingFetcher{responses: map[Kind]func(Request) ([]models.Listing, error){
		KindState: respond(listingsAt(geo.Coordinates{Latitude: 30.27, Longitude: -97.74}), nil),
	}}
	o := NewOrchestrator(fetcher, DefaultStrategies("CO", denver)...)

	q := denverQuery()
	q.StateCode = "TX"
	result, err := o.Run(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, "Texas", result.Center.Label)
	texas, _ := geo.LookupState("TX")
	assert.Equal(t, texas.Centroid.Latitude, result.Center.Latitude)
}

func TestOrchestrator_SortsAndFillsDistances(t *testing.T) {
	origin := geo.Coordinates{Latitude: 39.7392, Longitude: -104.9903}
	listings := []models.Listing{
		{ID: 1, Latitude: 40.0150, Longitude: -105.2705},
		{ID: 2, Distance: ptr(0.5)},
		{ID: 3, Latitude: 39.7400, Longitude: -104.9900},
	}
	fetcher := &recordingFetcher{responses: map[Kind]func(Request) ([]models.Listing, error){
		KindCoordinates: respond(listings, nil),
	}}
	o := NewOrchestrator(fetcher, DefaultStrategies("CO", denver)...)

	result, err := o.Run(context.Background(), Query{Origin: &origin, RadiusMiles: 25})
	require.NoError(t, err)

	require.Len(t, result.Listings, 3)
	assert.Equal(t, int64(3), result.Listings[0].ID)
	assert.Equal(t, int64(2), result.Listings[1].ID)
	assert.Equal(t, int64(1), result.Listings[2].ID)
	for i := 1; i < len(result.Listings); i++ {
		assert.LessOrEqual(t, *result.Listings[i-1].Distance, *result.Listings[i].Distance)
	}

	// Source slice untouched
	assert.Nil(t, listings[0].Distance)
}

func TestOrchestrator_CancelledStopsChain(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &recordingFetcher{responses: map[Kind]func(Request) ([]models.Listing, error){
		KindCoordinates: func(Request) ([]models.Listing, error) {
			cancel()
			return nil, context.Canceled
		},
	}}
	o := NewOrchestrator(fetcher, DefaultStrategies("CO", denver)...)

	_, err := o.Run(ctx, denverQuery())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []Kind{KindCoordinates}, fetcher.kinds())
}

func TestStrategiesArePure(t *testing.T) {
	settled := &Outcome{Strategy: "coordinates", Listings: listingsAt(geo.Coordinates{})}
	empty := &Outcome{Strategy: "coordinates", Listings: []models.Listing{}}

	for _, s := range DefaultStrategies("CO", denver) {
		t.Run(s.Name(), func(t *testing.T) {
			step := s.Plan(denverQuery(), settled)
			assert.Same(t, settled, step.Final)
			assert.Nil(t, step.Next)

			a := s.Plan(denverQuery(), empty)
			b := s.Plan(denverQuery(), empty)
			require.NotNil(t, a.Next)
			assert.Equal(t, *a.Next, *b.Next)
		})
	}
}

func TestRequestKey(t *testing.T) {
	open := true
	tests := []struct {
		req  Request
		want string
	}{
		{Request{Kind: KindCoordinates, Origin: geo.Coordinates{Latitude: 39.7392, Longitude: -104.9903}, RadiusMiles: 25}, "nearby:39.7392,-104.9903:25"},
		{Request{Kind: KindState, StateCode: "co"}, "state:CO"},
		{Request{Kind: KindCity, CitySlug: "denver-co", Filter: models.Filter{OpenNow: &open}}, "city:denver-co?openNow=true"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.req.Key())
	}
}

func TestArrange_UnknownDistancesLast(t *testing.T) {
	listings := []models.Listing{
		{ID: 1},
		{ID: 2, Distance: ptr(3)},
		{ID: 3},
		{ID: 4, Distance: ptr(1)},
		{ID: 5, Distance: ptr(3)},
	}

	out := Arrange(listings, nil)
	ids := make([]int64, 0, len(out))
	for _, l := range out {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []int64{4, 2, 5, 1, 3}, ids)
}

type mockDirectory struct {
	nearbyFn func(ctx context.Context, lat, lng, radius float64, f models.Filter) ([]models.Listing, error)
	stateFn  func(ctx context.Context, code string, f models.Filter) ([]models.Listing, error)
	cityFn   func(ctx context.Context, slug string, f models.Filter) ([]models.Listing, error)
}

func (m *mockDirectory) NearbyListings(ctx context.Context, lat, lng, radius float64, f models.Filter) ([]models.Listing, error) {
	return m.nearbyFn(ctx, lat, lng, radius, f)
}

func (m *mockDirectory) ListingsByState(ctx context.Context, code string, f models.Filter) ([]models.Listing, error) {
	return m.stateFn(ctx, code, f)
}

func (m *mockDirectory) ListingsByCity(ctx context.Context, slug string, f models.Filter) ([]models.Listing, error) {
	return m.cityFn(ctx, slug, f)
}

func TestDirectoryFetcher(t *testing.T) {
	var calls []string
	dir := &mockDirectory{
		nearbyFn: func(_ context.Context, lat, lng, radius float64, _ models.Filter) ([]models.Listing, error) {
			calls = append(calls, "nearby")
			assert.Equal(t, 25.0, radius)
			return nil, nil
		},
		stateFn: func(_ context.Context, code string, _ models.Filter) ([]models.Listing, error) {
			calls = append(calls, "state:"+code)
			return nil, nil
		},
		cityFn: func(_ context.Context, slug string, _ models.Filter) ([]models.Listing, error) {
			calls = append(calls, "city:"+slug)
			return nil, nil
		},
	}
	f := NewDirectoryFetcher(dir)
	ctx := context.Background()

	_, _ = f.Fetch(ctx, Request{Kind: KindCoordinates, RadiusMiles: 25})
	_, _ = f.Fetch(ctx, Request{Kind: KindState, StateCode: "CO"})
	_, _ = f.Fetch(ctx, Request{Kind: KindCity, CitySlug: "denver-co"})
	_, err := f.Fetch(ctx, Request{Kind: "galaxy"})

	assert.Error(t, err)
	assert.Equal(t, []string{"nearby", "state:CO", "city:denver-co"}, calls)
}

// mapCache is an in-memory ListingCache
type mapCache struct {
	mu     sync.Mutex
	items  map[string][]models.Listing
	getErr error
}

func (c *mapCache) Get(_ context.Context, key string) ([]models.Listing, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	l, ok := c.items[key]
	return l, ok, nil
}

func (c *mapCache) Save(_ context.Context, key string, listings []models.Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = listings
	return nil
}

type fetcherFunc func(ctx context.Context, req Request) ([]models.Listing, error)

func (f fetcherFunc) Fetch(ctx context.Context, req Request) ([]models.Listing, error) {
	return f(ctx, req)
}

func TestCachingFetcher_CachesResults(t *testing.T) {
	var calls atomic.Int32
	next := fetcherFunc(func(context.Context, Request) ([]models.Listing, error) {
		calls.Add(1)
		return listingsAt(geo.Coordinates{}), nil
	})
	cache := &mapCache{items: map[string][]models.Listing{}}
	f := NewCachingFetcher(next, cache)
	req := Request{Kind: KindState, StateCode: "CO"}

	for i := 0; i < 3; i++ {
		listings, err := f.Fetch(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, listings, 1)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.Contains(t, cache.items, "state:CO")
}

func TestCachingFetcher_ErrorsNotCached(t *testing.T) {
	var calls atomic.Int32
	next := fetcherFunc(func(context.Context, Request) ([]models.Listing, error) {
		calls.Add(1)
		return nil, errors.New("502")
	})
	cache := &mapCache{items: map[string][]models.Listing{}}
	f := NewCachingFetcher(next, cache)
	req := Request{Kind: KindCity, CitySlug: "denver-co"}

	_, err := f.Fetch(context.Background(), req)
	assert.Error(t, err)
	_, err = f.Fetch(context.Background(), req)
	assert.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Empty(t, cache.items)
}

func TestCachingFetcher_CacheReadFailureFallsThrough(t *testing.T) {
	next := fetcherFunc(func(context.Context, Request) ([]models.Listing, error) {
		return listingsAt(geo.Coordinates{}), nil
	})
	cache := &mapCache{items: map[string][]models.Listing{}, getErr: errors.New("dynamo throttled")}
	f := NewCachingFetcher(next, cache)

	listings, err := f.Fetch(context.Background(), Request{Kind: KindState, StateCode: "CO"})
	require.NoError(t, err)
	assert.Len(t, listings, 1)
}

func TestCachingFetcher_DedupsInFlight(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	next := fetcherFunc(func(context.Context, Request) ([]models.Listing, error) {
		calls.Add(1)
		<-release
		return listingsAt(geo.Coordinates{}), nil
	})
	f := NewCachingFetcher(next, nil)
	req := Request{Kind: KindState, StateCode: "CO"}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			listings, err := f.Fetch(context.Background(), req)
			assert.NoError(t, err)
			assert.Len(t, listings, 1)
		}()
	}

	// Give the goroutines time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCachingFetcher_CallerCancellation(t *testing.T) {
	release := make(chan struct{})
	next := fetcherFunc(func(context.Context, Request) ([]models.Listing, error) {
		<-release
		return listingsAt(geo.Coordinates{}), nil
	})
	f := NewCachingFetcher(next, nil)
	req := Request{Kind: KindCity, CitySlug: "denver-co"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)

	// Another caller still receives the shared result
	done := make(chan error, 1)
	go func() {
		_, err := f.Fetch(context.Background(), req)
		done <- err
	}()
	close(release)
	assert.NoError(t, <-done)
}

func TestSessions_SupersedesOlderSearch(t *testing.T) {
	s := NewSessions()
	started := make(chan struct{})
	firstDone := make(chan error, 1)

	go func() {
		firstDone <- s.Run(context.Background(), "session-1", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()
	<-started

	var ran bool
	err := s.Run(context.Background(), "session-1", func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	assert.ErrorIs(t, <-firstDone, ErrSuperseded)
	assert.Equal(t, 0, s.Active())
}

func TestSessions_SettledSearchStillSupersededByNewerOne(t *testing.T) {
	s := NewSessions()
	ctx := context.Background()
	newerStarted := make(chan struct{})
	release := make(chan struct{})
	newerDone := make(chan error, 1)

	err := s.Run(ctx, "tab-1", func(context.Context) error {
		go func() {
			newerDone <- s.Run(ctx, "tab-1", func(context.Context) error {
				close(newerStarted)
				<-release
				return nil
			})
		}()
		<-newerStarted
		return nil
	})
	assert.ErrorIs(t, err, ErrSuperseded)

	close(release)
	assert.NoError(t, <-newerDone)
	assert.Equal(t, 0, s.Active())
}

func TestSessions_IndependentKeys(t *testing.T) {
	s := NewSessions()
	ctx := context.Background()

	errA := s.Run(ctx, "a", func(context.Context) error { return nil })
	errB := s.Run(ctx, "b", func(context.Context) error { return errors.New("boom") })
	errNone := s.Run(ctx, "", func(context.Context) error { return nil })

	assert.NoError(t, errA)
	assert.EqualError(t, errB, "boom")
	assert.NoError(t, errNone)
}
