package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/laundrylocator/backend-go/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRoute(name, method, resource string, seen *events.APIGatewayProxyRequest) Route {
	return Route{
		Name:     name,
		Method:   method,
		Resource: resource,
		Handle: func(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
			*seen = req
			return api.Success(map[string]string{"route": name})
		},
	}
}

func TestRouter_HandleRequest(t *testing.T) {
	var seen events.APIGatewayProxyRequest
	router := NewRouter([]Route{
		echoRoute("nearby", http.MethodGet, "/nearby", &seen),
		echoRoute("city", http.MethodGet, "/cities/{slug}", &seen),
		echoRoute("admin_update", http.MethodPatch, "/admin/notifications/{id}", &seen),
	})

	tests := []struct {
		name       string
		req        events.APIGatewayProxyRequest
		wantStatus int
		wantRoute  string
		wantParams map[string]string
	}{
		{
			name:       "resource match",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "GET", Resource: "/cities/{slug}", Path: "/cities/denver-co", PathParameters: map[string]string{"slug": "denver-co"}},
			wantStatus: http.StatusOK,
			wantRoute:  "city",
			wantParams: map[string]string{"slug": "denver-co"},
		},
		{
			name:       "path match fills parameters",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "PATCH", Path: "/admin/notifications/42"},
			wantStatus: http.StatusOK,
			wantRoute:  "admin_update",
			wantParams: map[string]string{"id": "42"},
		},
		{
			name:       "proxy resource falls back to the path",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "GET", Resource: "/{proxy+}", Path: "/cities/boulder-co", PathParameters: map[string]string{"proxy": "cities/boulder-co"}},
			wantStatus: http.StatusOK,
			wantRoute:  "city",
			wantParams: map[string]string{"slug": "boulder-co", "proxy": "cities/boulder-co"},
		},
		{
			name:       "proxy resource with wrong method",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "DELETE", Resource: "/{proxy+}", Path: "/nearby"},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "resource with wrong method",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "POST", Resource: "/nearby", Path: "/nearby"},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "trailing slash",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/nearby/"},
			wantStatus: http.StatusOK,
			wantRoute:  "nearby",
		},
		{
			name:       "wrong method",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "POST", Path: "/nearby"},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "unknown path",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/stations"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "empty parameter segment",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "GET", Path: "/cities//"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "preflight",
			req:        events.APIGatewayProxyRequest{HTTPMethod: "OPTIONS", Path: "/subscribe"},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = events.APIGatewayProxyRequest{}
			resp, err := router.HandleRequest(context.Background(), tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantRoute != "" {
				assert.JSONEq(t, `{"route":"`+tt.wantRoute+`"}`, resp.Body)
				for k, v := range tt.wantParams {
					assert.Equal(t, v, seen.PathParameters[k])
				}
			}
		})
	}
}

func TestRoutes_CoverEveryPage(t *testing.T) {
	h := newTestHandler(Deps{})

	seen := map[string]bool{}
	for _, r := range h.Routes() {
		key := r.Method + " " + r.Resource
		assert.False(t, seen[key], "duplicate route %s", key)
		seen[key] = true
		assert.NotNil(t, r.Handle, key)
	}

	for _, want := range []string{
		"GET /nearby",
		"GET /search",
		"GET /cities/{slug}",
		"GET /states/{code}",
		"GET /laundromats/{idOrSlug}",
		"GET /location",
		"POST /login",
		"POST /register",
		"POST /demo-login",
		"GET /admin",
		"PATCH /admin/notifications/{id}",
		"GET /business/dashboard",
		"GET /subscribe/plans",
		"POST /subscribe",
		"POST /subscribe/confirm",
	} {
		assert.True(t, seen[want], "missing route %s", want)
	}
}

func TestRouter_ProxyIntegrationReachesEveryRoute(t *testing.T) {
	h := newTestHandler(Deps{})
	routes := h.Routes()

	var seen events.APIGatewayProxyRequest
	echoed := make([]Route, 0, len(routes))
	for _, r := range routes {
		echoed = append(echoed, echoRoute(r.Name, r.Method, r.Resource, &seen))
	}
	router := NewRouter(echoed)

	for _, r := range routes {
		path := strings.NewReplacer("{slug}", "denver-co", "{code}", "CO", "{idOrSlug}", "42", "{id}", "7").Replace(r.Resource)
		resp, err := router.HandleRequest(context.Background(), events.APIGatewayProxyRequest{
			HTTPMethod: r.Method,
			Resource:   "/{proxy+}",
			Path:       path,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.JSONEq(t, `{"route":"`+r.Name+`"}`, resp.Body, path)
	}
}
