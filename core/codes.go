package core

import "net/http"

// StatusResponse is the uniform envelope every endpoint-facing code path
// produces, and the router's only contract with the transport. The JSON body
// carries statusCode/status/data (and extra when set); Headers merge into the
// HTTP response headers and never serialize into the body.
type StatusResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Data       any               `json:"data"`
	Extra      any               `json:"extra,omitempty"`
	Headers    map[string]string `json:"-"`
}

// WithHeaders returns a copy carrying the given headers merged over any
// already present (new values win).
func (s StatusResponse) WithHeaders(headers map[string]string) StatusResponse {
	merged := make(map[string]string, len(s.Headers)+len(headers))
	for k, v := range s.Headers {
		merged[k] = v
	}
	for k, v := range headers {
		merged[k] = v
	}
	s.Headers = merged
	return s
}

// WithExtra returns a copy carrying the given extra payload.
func (s StatusResponse) WithExtra(extra any) StatusResponse {
	s.Extra = extra
	return s
}

// knownStatusCodes is the finite set of status codes this layer emits.
// Endpoints cannot fabricate out-of-set codes: the execute stage coerces
// anything else to a 500.
var knownStatusCodes = map[int]bool{
	http.StatusContinue:             true,
	http.StatusOK:                   true,
	http.StatusCreated:              true,
	http.StatusNoContent:            true,
	http.StatusMovedPermanently:     true,
	http.StatusBadRequest:           true,
	http.StatusUnauthorized:         true,
	http.StatusForbidden:            true,
	http.StatusNotFound:             true,
	http.StatusMethodNotAllowed:     true,
	http.StatusGone:                 true,
	http.StatusUnsupportedMediaType: true,
	http.StatusTeapot:               true,
	http.StatusTooManyRequests:      true,
	http.StatusInternalServerError:  true,
}

// KnownStatusCode reports whether code belongs to the emitted set.
func KnownStatusCode(code int) bool { return knownStatusCodes[code] }

func newResponse(code int, body any) StatusResponse {
	return StatusResponse{
		StatusCode: code,
		Status:     http.StatusText(code),
		Data:       body,
	}
}

func Continue100(body any) StatusResponse { return newResponse(http.StatusContinue, body) }

func Success200(body any) StatusResponse { return newResponse(http.StatusOK, body) }

func Success201(body any) StatusResponse { return newResponse(http.StatusCreated, body) }

func NoContent204() StatusResponse { return newResponse(http.StatusNoContent, nil) }

// MovedPermanently301 requires the redirect target and sets the Location
// header alongside the envelope.
func MovedPermanently301(redirectURL string) StatusResponse {
	return newResponse(http.StatusMovedPermanently, map[string]string{"redirectUrl": redirectURL}).
		WithHeaders(map[string]string{"Location": redirectURL})
}

func BadRequest400(body any) StatusResponse { return newResponse(http.StatusBadRequest, body) }

func Unauthorized401(body any) StatusResponse { return newResponse(http.StatusUnauthorized, body) }

func Forbidden403(body any) StatusResponse { return newResponse(http.StatusForbidden, body) }

func NotFound404(body any) StatusResponse { return newResponse(http.StatusNotFound, body) }

func NotAllowed405(body any) StatusResponse { return newResponse(http.StatusMethodNotAllowed, body) }

func Unsupported415(body any) StatusResponse {
	return newResponse(http.StatusUnsupportedMediaType, body)
}

func Teapot418(body any) StatusResponse { return newResponse(http.StatusTeapot, body) }

func TooManyRequests429(body any) StatusResponse {
	return newResponse(http.StatusTooManyRequests, body)
}

func ServerError500(body any) StatusResponse {
	return newResponse(http.StatusInternalServerError, body)
}

// Gone410 serves retired API version prefixes.
func Gone410(body any) StatusResponse { return newResponse(http.StatusGone, body) }
