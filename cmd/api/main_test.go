package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/laundrylocator/backend-go/internal/api"
	"github.com/bbernstein/laundrylocator/backend-go/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPage struct {
	mock.Mock
}

func (m *mockPage) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	args := m.Called(ctx, req.Path)
	return args.Get(0).(events.APIGatewayProxyResponse), args.Error(1)
}

func resetGlobals(t *testing.T) {
	t.Helper()
	originalRouter, originalInit := router, initRouter
	t.Cleanup(func() {
		router = originalRouter
		initRouter = originalInit
		setupOnce = sync.Once{}
	})
	router = nil
	setupOnce = sync.Once{}
}

func TestHandleRequest_NotInitialized(t *testing.T) {
	resetGlobals(t)

	resp, err := handleRequest(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/nearby"})
	assert.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestInitializeService(t *testing.T) {
	resetGlobals(t)

	page := &mockPage{}
	ok, _ := api.Success(map[string]string{"responseType": "results"})
	page.On("Handle", mock.Anything, "/cities/denver-co").Return(ok, nil).Once()

	calls := 0
	initRouter = func(context.Context) (*handler.Router, error) {
		calls++
		return handler.NewRouter([]handler.Route{
			{Name: "city", Method: http.MethodGet, Resource: "/cities/{slug}", Handle: page.Handle},
		}), nil
	}

	require.NoError(t, InitializeService())
	require.NoError(t, InitializeService())
	assert.Equal(t, 1, calls)

	resp, err := handleRequest(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/cities/denver-co"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page.AssertExpectations(t)

	resp, err = handleRequest(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/stations"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInitializeService_Error(t *testing.T) {
	resetGlobals(t)

	initRouter = func(context.Context) (*handler.Router, error) {
		return nil, errors.New("STRIPE_PUBLISHABLE_KEY is required")
	}

	err := InitializeService()
	assert.ErrorContains(t, err, "STRIPE_PUBLISHABLE_KEY")
	assert.Nil(t, router)
}

func TestDefaultInitRouter_RequiresPaymentKey(t *testing.T) {
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "")

	_, err := defaultInitRouter(context.Background())
	assert.Error(t, err)
}

func TestDefaultInitRouter(t *testing.T) {
	t.Setenv("STRIPE_PUBLISHABLE_KEY", "pk_test_123")
	t.Setenv("LOCATION_CACHE_BUCKET", "")
	t.Setenv("CACHE_ENABLE_DYNAMO", "false")

	r, err := defaultInitRouter(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, r)
}
