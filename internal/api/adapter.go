package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/rs/zerolog/log"
)

// HandlerFunc is the Lambda-shaped signature every page handler has.
type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

const maxBodyBytes = 1 << 20

// ToProxyRequest converts an HTTP request into the API Gateway event the handlers expect.
// resource is the route pattern, e.g. "/cities/{slug}".
func ToProxyRequest(r *http.Request, resource string, pathParams map[string]string) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return events.APIGatewayProxyRequest{}, fmt.Errorf("reading request body: %w", err)
	}

	query := r.URL.Query()
	req := events.APIGatewayProxyRequest{
		Resource:                        resource,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         make(map[string]string, len(r.Header)),
		MultiValueHeaders:               map[string][]string(r.Header.Clone()),
		QueryStringParameters:           make(map[string]string, len(query)),
		MultiValueQueryStringParameters: map[string][]string(query),
		PathParameters:                  pathParams,
		Body:                            string(body),
	}
	for k := range r.Header {
		req.Headers[k] = r.Header.Get(k)
	}
	for k := range query {
		req.QueryStringParameters[k] = query.Get(k)
	}
	return req, nil
}

// WriteResponse copies a handler response onto w.
func WriteResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if _, err := io.WriteString(w, resp.Body); err != nil {
		log.Debug().Err(err).Msg("Writing response body failed")
	}
}

// Adapt serves a HandlerFunc over plain HTTP.
func Adapt(h HandlerFunc, resource string, pathParams func(*http.Request) map[string]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params map[string]string
		if pathParams != nil {
			params = pathParams(r)
		}

		req, err := ToProxyRequest(r, resource, params)
		if err != nil {
			resp, _ := Error(err.Error(), http.StatusBadRequest)
			WriteResponse(w, resp)
			return
		}

		resp, err := h(r.Context(), req)
		if err != nil {
			log.Error().Err(err).Str("resource", resource).Msg("Handler returned an error")
			resp, _ = Error("Internal Server Error", http.StatusInternalServerError)
		}
		WriteResponse(w, resp)
	}
}
