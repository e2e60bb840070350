package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/laundrylocator/backend-go/internal/api"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
)

const (
	routeNearby      = "nearby"
	routeSearch      = "search"
	routeCity        = "city"
	routeState       = "state"
	routeDetail      = "detail"
	routeLocation    = "location"
	routeLogin       = "login"
	routeRegister    = "register"
	routeDemoLogin   = "demo_login"
	routeAdmin       = "admin"
	routeAdminUpdate = "admin_update"
	routeBusiness    = "business_dashboard"
	routePlans       = "plans"
	routeSubscribe   = "subscribe"
	routeConfirm     = "subscribe_confirm"
)

// Route binds a method and resource pattern to a page handler. Patterns use API Gateway's
// {param} syntax, which gorilla/mux understands as well.
type Route struct {
	Name     string
	Method   string
	Resource string
	Handle   api.HandlerFunc
}

// Routes is the single route table both transports serve.
func (h *Handler) Routes() []Route {
	return []Route{
		{Name: routeNearby, Method: http.MethodGet, Resource: "/nearby", Handle: h.Nearby},
		{Name: routeSearch, Method: http.MethodGet, Resource: "/search", Handle: h.Search},
		{Name: routeCity, Method: http.MethodGet, Resource: "/cities/{slug}", Handle: h.City},
		{Name: routeState, Method: http.MethodGet, Resource: "/states/{code}", Handle: h.State},
		{Name: routeDetail, Method: http.MethodGet, Resource: "/laundromats/{idOrSlug}", Handle: h.Detail},
		{Name: routeLocation, Method: http.MethodGet, Resource: "/location", Handle: h.Location},
		{Name: routeLogin, Method: http.MethodPost, Resource: "/login", Handle: h.Login},
		{Name: routeRegister, Method: http.MethodPost, Resource: "/register", Handle: h.Register},
		{Name: routeDemoLogin, Method: http.MethodPost, Resource: "/demo-login", Handle: h.DemoLogin},
		{Name: routeAdmin, Method: http.MethodGet, Resource: "/admin", Handle: h.Admin},
		{Name: routeAdminUpdate, Method: http.MethodPatch, Resource: "/admin/notifications/{id}", Handle: h.UpdateNotification},
		{Name: routeBusiness, Method: http.MethodGet, Resource: "/business/dashboard", Handle: h.BusinessDashboard},
		{Name: routePlans, Method: http.MethodGet, Resource: "/subscribe/plans", Handle: h.Plans},
		{Name: routeSubscribe, Method: http.MethodPost, Resource: "/subscribe", Handle: h.Subscribe},
		{Name: routeConfirm, Method: http.MethodPost, Resource: "/subscribe/confirm", Handle: h.ConfirmSubscription},
	}
}

// Router dispatches API Gateway events over a route table.
type Router struct {
	byName   map[string]Route
	byMethod map[string]Route
	matcher  *mux.Router
}

func NewRouter(routes []Route) *Router {
	r := &Router{
		byName:   make(map[string]Route, len(routes)),
		byMethod: make(map[string]Route, len(routes)),
		matcher:  mux.NewRouter(),
	}
	for _, route := range routes {
		r.byName[route.Name] = route
		r.byMethod[route.Method+" "+route.Resource] = route
		r.matcher.NewRoute().Path(route.Resource).Methods(route.Method).Name(route.Name)
	}
	return r
}

// HandleRequest uses the event's resource when it names a route. Otherwise, as with a
// {proxy+} integration, the raw path is matched and path parameters are filled from it.
func (r *Router) HandleRequest(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return api.Preflight()
	}

	route, ok := r.byMethod[req.HTTPMethod+" "+req.Resource]
	if !ok {
		var status int
		route, status = r.matchPath(ctx, &req)
		if status != http.StatusOK {
			log.Debug().Str("method", req.HTTPMethod).Str("path", req.Path).Msg("No route matched")
			return api.Error(http.StatusText(status), status)
		}
	}

	log.Debug().
		Str("route", route.Name).
		Str("method", req.HTTPMethod).
		Str("path", req.Path).
		Msg("Handling request")
	return route.Handle(ctx, req)
}

// matchPath resolves the event path through the mux matcher and merges the captured
// variables into the event's path parameters.
func (r *Router) matchPath(ctx context.Context, req *events.APIGatewayProxyRequest) (Route, int) {
	path := "/" + strings.Trim(req.Path, "/")
	httpReq := (&http.Request{Method: req.HTTPMethod, URL: &url.URL{Path: path}}).WithContext(ctx)

	var m mux.RouteMatch
	if !r.matcher.Match(httpReq, &m) {
		if errors.Is(m.MatchErr, mux.ErrMethodMismatch) {
			return Route{}, http.StatusMethodNotAllowed
		}
		return Route{}, http.StatusNotFound
	}

	route, ok := r.byName[m.Route.GetName()]
	if !ok {
		return Route{}, http.StatusNotFound
	}
	if len(m.Vars) > 0 {
		merged := make(map[string]string, len(m.Vars)+len(req.PathParameters))
		for k, v := range req.PathParameters {
			merged[k] = v
		}
		for k, v := range m.Vars {
			merged[k] = v
		}
		req.PathParameters = merged
	}
	return route, http.StatusOK
}

// Mux serves the route table over plain HTTP.
func Mux(routes []Route) *mux.Router {
	r := mux.NewRouter()
	for _, route := range routes {
		r.Handle(route.Resource, api.Adapt(route.Handle, route.Resource, mux.Vars)).
			Methods(route.Method).
			Name(route.Name)
	}
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp, _ := api.Preflight()
		api.WriteResponse(w, resp)
	})
	return r
}
