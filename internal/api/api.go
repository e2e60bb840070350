package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bbernstein/laundrylocator/backend-go/internal/geo"
)

type APIResponse struct {
	ResponseType string `json:"responseType"`
}

type ErrorResponse struct {
	APIResponse
	Error string `json:"error"`
}

// ValidationResponse carries one message per invalid form field.
type ValidationResponse struct {
	APIResponse
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// ToastResponse is a failure the client shows as a transient notification.
type ToastResponse struct {
	APIResponse
	Toast interface{} `json:"toast"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       message,
	}
}

func headers() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Authorization, Content-Type, X-Session-ID",
	}
}

// Response helpers
func Success(body interface{}) (events.APIGatewayProxyResponse, error) {
	return JSON(http.StatusOK, body)
}

// JSON writes body with an explicit status code.
func JSON(statusCode int, body interface{}) (events.APIGatewayProxyResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return Error("Internal Server Error", http.StatusInternalServerError)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(jsonBody),
	}, nil
}

func Error(message string, statusCode int) (events.APIGatewayProxyResponse, error) {
	body, _ := json.Marshal(NewErrorResponse(message))

	return events.APIGatewayProxyResponse{
		StatusCode: statusCode,
		Headers:    headers(),
		Body:       string(body),
	}, nil
}

// ValidationFailed responds 422 with the per-field messages.
func ValidationFailed(fields map[string]string) (events.APIGatewayProxyResponse, error) {
	return JSON(http.StatusUnprocessableEntity, &ValidationResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Error:       "validation failed",
		Fields:      fields,
	})
}

// PaymentRequired responds 402 with a toast payload.
func PaymentRequired(toast interface{}) (events.APIGatewayProxyResponse, error) {
	return JSON(http.StatusPaymentRequired, &ToastResponse{
		APIResponse: APIResponse{ResponseType: "error"},
		Toast:       toast,
	})
}

// Preflight answers a CORS OPTIONS request.
func Preflight() (events.APIGatewayProxyResponse, error) {
	h := headers()
	h["Access-Control-Allow-Methods"] = "GET, POST, PATCH, OPTIONS"
	return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent, Headers: h}, nil
}

type InvalidCoordinatesError struct {
	Err error
}

func (e InvalidCoordinatesError) Error() string {
	if e.Err == nil {
		return "invalid coordinates"
	}
	return "invalid coordinates: " + e.Err.Error()
}

func (e InvalidCoordinatesError) Unwrap() error {
	return e.Err
}

// Parameter parsing helpers

// ParseCoordinates reads the device position from lat/lng ("lon" is accepted for lng).
// A missing coordinate yields geo.ErrLocationUnavailable; anything present but unusable is
// an InvalidCoordinatesError.
func ParseCoordinates(ctx context.Context, params map[string]string) (*geo.Coordinates, error) {
	if _, ok := params["lng"]; !ok {
		if lon, ok := params["lon"]; ok {
			aliased := make(map[string]string, len(params)+1)
			for k, v := range params {
				aliased[k] = v
			}
			aliased["lng"] = lon
			params = aliased
		}
	}

	c, err := geo.NewParamsProvider(params).Locate(ctx)
	if errors.Is(err, geo.ErrLocationUnavailable) {
		return nil, err
	}
	if err != nil {
		return nil, InvalidCoordinatesError{Err: err}
	}
	return &c, nil
}

// ParseRadius reads the radius in miles, falling back to def and clamping to max.
func ParseRadius(params map[string]string, def, max float64) float64 {
	v, ok := params["radius"]
	if !ok {
		return def
	}
	r, err := strconv.ParseFloat(v, 64)
	if err != nil || r <= 0 {
		return def
	}
	if max > 0 && r > max {
		return max
	}
	return r
}

// ParsePage reads the 1-based page number; anything unusable is page 1.
func ParsePage(params map[string]string) int {
	p, err := strconv.Atoi(params["page"])
	if err != nil || p < 1 {
		return 1
	}
	return p
}
