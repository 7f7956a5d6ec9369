package core

import "net/http"

// EndpointContext is the per-request value passed to an endpoint's action.
// User and UserID are set if and only if authentication succeeded for this
// request.
type EndpointContext struct {
	URLParams   map[string]string
	QueryParams map[string][]string
	BodyParams  map[string]any
	Request     *http.Request
	Response    http.ResponseWriter
	User        *UserRecord
	UserID      string

	done bool
}

// Done marks the response as handled by the action itself. The pipeline then
// skips its envelope write for this request.
func (c *EndpointContext) Done() { c.done = true }

// Query returns the first value for a query parameter, or "".
func (c *EndpointContext) Query(name string) string {
	vs := c.QueryParams[name]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

func newEndpointContext(w http.ResponseWriter, r *http.Request, params map[string]string, body map[string]any) *EndpointContext {
	return &EndpointContext{
		URLParams:   params,
		QueryParams: r.URL.Query(),
		BodyParams:  body,
		Request:     r,
		Response:    w,
	}
}
