package core

import (
	"fmt"
	"math"
	"net/http"
	"strings"
)

// Route binds one URL path to a set of per-method endpoint definitions and
// runs the four-stage request pipeline for each of them:
//
//	rate limit → authenticate → authorize → execute
//
// Every stage short-circuits with a StatusResponse; no stage leaves a request
// without a terminal write. Routes are immutable after registration.
type Route struct {
	api       *API
	path      string
	options   RouteOptions
	endpoints map[string]*EndpointOptions
}

func newRoute(api *API, path string, opts *RouteOptions, endpoints map[string]*EndpointOptions) (*Route, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	resolved, err := resolveEndpoints(opts, endpoints)
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", path, err)
	}
	rt := &Route{
		api:       api,
		path:      normalizePath(path),
		endpoints: resolved,
	}
	if opts != nil {
		rt.options = *opts
	}
	for _, ep := range resolved {
		if ep.RateLimit != nil && api.limiter == nil {
			return nil, fmt.Errorf("route %q: %w", path, ErrLimiterRequired)
		}
	}
	return rt, nil
}

// AddToAPI registers one router handler per resolved method. With onRoot the
// route binds under the bare API root instead of the versioned sub-path.
// Called once per route at construction time.
func (rt *Route) AddToAPI(onRoot bool) {
	base := rt.api.basePath
	if onRoot {
		base = rt.api.rootPath
	}
	full := normalizePath(base + rt.path)

	for method, ep := range rt.endpoints {
		rt.api.router.Add(method, full, rt.endpointHandler(ep))
	}
	if _, declared := rt.endpoints[http.MethodOptions]; !declared && rt.api.defaultOptions != nil {
		rt.api.router.Add(http.MethodOptions, full, rt.endpointHandler(rt.api.defaultOptions))
	}
}

// endpointHandler wraps one endpoint in the request pipeline.
func (rt *Route) endpointHandler(ep *EndpointOptions) Handler {
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		router := rt.api.router

		body, err := ParseJSONBody(r)
		if err != nil {
			router.HandleError(w, r, err)
			return
		}
		ctx := newEndpointContext(w, r, params, body)

		if res, ok := rt.rateLimit(r, ep); !ok {
			router.SendResult(w, res)
			return
		}
		if r.Context().Err() != nil {
			return
		}
		if res, ok := rt.authenticate(ctx, ep); !ok {
			router.SendResult(w, res)
			return
		}
		if res, ok := rt.roleAccepted(ctx, ep); !ok {
			router.SendResult(w, res)
			return
		}
		if r.Context().Err() != nil {
			return
		}
		res, write := rt.callEndpoint(ctx, ep)
		if write {
			router.SendResult(w, res)
		}
	}
}

// rateLimit consults the shared limiter when the endpoint declares a policy.
// A limiter failure fails the request closed; exhaustion answers 429 with
// remaining/reset hints and a Retry-After header.
func (rt *Route) rateLimit(r *http.Request, ep *EndpointOptions) (StatusResponse, bool) {
	if ep.RateLimit == nil {
		return StatusResponse{}, true
	}
	key := rt.api.keyGenerator(r)
	decision, err := rt.api.limiter.Consume(r.Context(), key, *ep.RateLimit)
	if err != nil {
		rt.api.logger.Error("rate limiter failure", "error", err, "key", key, "path", r.URL.Path)
		return ServerError500(map[string]string{"error": "internal server error"}), false
	}
	if decision.Allowed {
		return StatusResponse{}, true
	}
	retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
	if retryAfter < 1 {
		retryAfter = 1
	}
	res := TooManyRequests429(map[string]string{"error": "too many requests"}).
		WithExtra(map[string]any{
			"remaining":    decision.Remaining,
			"limit":        decision.Limit,
			"resetAfterMs": decision.ResetAfter.Milliseconds(),
		}).
		WithHeaders(map[string]string{"Retry-After": fmt.Sprintf("%d", retryAfter)})
	return res, false
}

// authenticate resolves the bearer credential to a user record when the
// endpoint requires it. Failures are uniform 401s carrying no user-
// identifying information; the OnLoginFailure hook observes the reason.
func (rt *Route) authenticate(ctx *EndpointContext, ep *EndpointOptions) (StatusResponse, bool) {
	if !ep.AuthRequired {
		return StatusResponse{}, true
	}
	user, err := rt.api.authenticateRequest(ctx.Request)
	if err != nil {
		rt.api.fireLoginFailure(ctx.Request, err.Error())
		return Unauthorized401(map[string]string{"error": "unauthorized"}), false
	}
	ctx.User = user
	ctx.UserID = user.ID
	rt.api.fireLoggedIn(ctx.Request, user.ID)
	return StatusResponse{}, true
}

// roleAccepted enforces role then scope requirements, each with OR semantics.
func (rt *Route) roleAccepted(ctx *EndpointContext, ep *EndpointOptions) (StatusResponse, bool) {
	if len(ep.RoleRequired) > 0 {
		if ctx.User == nil || !ctx.User.HasAnyRole(ep.RoleRequired) {
			return Forbidden403(map[string]string{"error": "forbidden"}), false
		}
	}
	if len(ep.ScopeRequired) > 0 {
		if ctx.User == nil || !ctx.User.HasAnyScope(ep.ScopeRequired) {
			return Forbidden403(map[string]string{"error": "forbidden"}), false
		}
	}
	return StatusResponse{}, true
}

// callEndpoint invokes the action and normalizes its result. write is false
// when the action claimed the response via ctx.Done().
func (rt *Route) callEndpoint(ctx *EndpointContext, ep *EndpointOptions) (res StatusResponse, write bool) {
	defer func() {
		if rec := recover(); rec != nil {
			rt.api.logger.Error("endpoint panic recovered",
				"panic", rec,
				"path", ctx.Request.URL.Path,
				"method", ctx.Request.Method)
			res = ServerError500(map[string]string{"error": "internal server error"})
			write = !ctx.done
		}
	}()

	value, err := ep.Action(ctx)
	if ctx.done {
		return StatusResponse{}, false
	}
	if err != nil {
		return rt.api.router.errorResponse(ctx.Request, err), true
	}

	switch v := value.(type) {
	case StatusResponse:
		return rt.vetResponse(v), true
	case *StatusResponse:
		if v == nil {
			return Success200(nil), true
		}
		return rt.vetResponse(*v), true
	default:
		return Success200(value), true
	}
}

// vetResponse holds the invariant that only Codes-defined status codes cross
// the transport boundary.
func (rt *Route) vetResponse(res StatusResponse) StatusResponse {
	if !KnownStatusCode(res.StatusCode) {
		rt.api.logger.Error("endpoint returned out-of-set status code", "statusCode", res.StatusCode)
		return ServerError500(map[string]string{"error": "internal server error"})
	}
	return res
}
