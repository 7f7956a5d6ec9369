package core

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
)

// Handler is the router's dispatch unit. params holds values captured from
// :name template segments and the trailing wildcard (under "*").
type Handler func(w http.ResponseWriter, r *http.Request, params map[string]string)

// Middleware wraps dispatch of matched routes. Registration order is
// outermost-first; a middleware short-circuits by not calling next.
type Middleware func(next http.Handler) http.Handler

// ErrorMiddleware observes failures before the terminal error write. It must
// not write the response; the router still guarantees exactly one write.
type ErrorMiddleware func(w http.ResponseWriter, r *http.Request, err error)

// Interceptor runs ahead of any route dispatch, across every API sharing the
// router. It short-circuits by not calling next.
type Interceptor func(w http.ResponseWriter, r *http.Request, next func())

type segment struct {
	literal  string
	param    string // set for ":name" segments
	wildcard bool   // trailing "*", captures the rest
}

type routeHandler struct {
	method      string // upper-case; "*" matches any method
	path        string
	segments    []segment
	specificity int
	handler     Handler
}

// Router holds the shared dispatch table: ordered method+path handlers,
// global middlewares, error middlewares, interceptors, and default response
// headers. One Router is shared by every API instance in the process;
// construct it explicitly and inject it (no hidden singleton).
//
// Registration is expected to happen before traffic begins; steady-state
// request handling only reads the table.
type Router struct {
	mu               sync.RWMutex
	routes           []*routeHandler
	middlewares      []Middleware
	errorMiddlewares []ErrorMiddleware
	interceptors     []Interceptor
	responseHeaders  map[string]string
	prettyJSON       bool
	logger           *slog.Logger

	defaultAuthInitialized bool
}

// NewRouter creates an empty dispatch registry.
func NewRouter() *Router {
	return &Router{
		responseHeaders: make(map[string]string),
		logger:          slog.Default(),
	}
}

// SetLogger replaces the router's logger. Defaults to slog.Default().
func (rt *Router) SetLogger(logger *slog.Logger) {
	if logger != nil {
		rt.logger = logger
	}
}

// SetPrettyJSON toggles indented response bodies.
func (rt *Router) SetPrettyJSON(pretty bool) { rt.prettyJSON = pretty }

// SetResponseHeaders merges headers into the defaults applied to every
// response. Per-response headers win on conflict.
func (rt *Router) SetResponseHeaders(headers map[string]string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for k, v := range headers {
		rt.responseHeaders[k] = v
	}
}

// Add registers a handler for method+path. Paths use literal segments,
// ":name" params, and a trailing "*" catch-all. Method "*" matches any
// method. Registering the same (method, path) pair again replaces the earlier
// handler, so re-running setup code is idempotent.
func (rt *Router) Add(method, path string, handler Handler) {
	method = strings.ToUpper(method)
	path = normalizePath(path)

	rh := &routeHandler{
		method:  method,
		path:    path,
		handler: handler,
	}
	rh.segments, rh.specificity = compilePath(path)

	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i, existing := range rt.routes {
		if existing.method == method && existing.path == path {
			rt.logger.Warn("route replaced", "method", method, "path", path)
			rt.routes[i] = rh
			return
		}
	}
	rt.routes = append(rt.routes, rh)
}

// Use appends a middleware run around dispatch of every matched route.
func (rt *Router) Use(mw Middleware) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.middlewares = append(rt.middlewares, mw)
}

// UseErrorMiddleware appends an error observer.
func (rt *Router) UseErrorMiddleware(mw ErrorMiddleware) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.errorMiddlewares = append(rt.errorMiddlewares, mw)
}

// AddInterceptor appends to the pre-dispatch chain shared by all APIs on this
// router. Interceptors run in registration order before any route logic.
func (rt *Router) AddInterceptor(ic Interceptor) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.interceptors = append(rt.interceptors, ic)
}

// claimDefaultAuth flips the once-per-router default-auth flag. Returns false
// if another API already claimed it.
func (rt *Router) claimDefaultAuth() bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.defaultAuthInitialized {
		return false
	}
	rt.defaultAuthInitialized = true
	return true
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

// compilePath splits a template into segments and scores its specificity:
// literal segments count 2, params 1, the wildcard 0. The most specific
// matching route wins dispatch.
func compilePath(path string) ([]segment, int) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	segs := make([]segment, 0, len(parts))
	specificity := 0
	for _, p := range parts {
		switch {
		case p == "*":
			segs = append(segs, segment{wildcard: true})
		case strings.HasPrefix(p, ":"):
			segs = append(segs, segment{param: p[1:]})
			specificity++
		default:
			segs = append(segs, segment{literal: p})
			specificity += 2
		}
	}
	return segs, specificity
}

func matchSegments(segs []segment, path string) (map[string]string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	params := map[string]string{}
	for i, s := range segs {
		if s.wildcard {
			params["*"] = strings.Join(parts[i:], "/")
			return params, true
		}
		if i >= len(parts) {
			return nil, false
		}
		switch {
		case s.param != "":
			if parts[i] == "" {
				return nil, false
			}
			params[s.param] = parts[i]
		case s.literal != parts[i]:
			return nil, false
		}
	}
	if len(parts) != len(segs) {
		return nil, false
	}
	return params, true
}

// matchRoute resolves a request to the most specific matching handler, so an
// exact method+path wins over templates and templates win over the catch-all
// wildcard routes. pathMatched reports whether some route covered the path
// under a different method (405).
func (rt *Router) matchRoute(method, path string) (rh *routeHandler, params map[string]string, pathMatched bool) {
	method = strings.ToUpper(method)
	path = normalizePath(path)

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	bestScore := -1
	deniedScore := -1
	for _, cand := range rt.routes {
		p, ok := matchSegments(cand.segments, path)
		if !ok {
			continue
		}
		pathMatched = true
		if cand.method != method && cand.method != "*" {
			// Path covered under another method. If this route is more
			// specific than anything that can serve the request, that is a
			// 405, not a fall-through to a catch-all.
			if s := cand.specificity*2 + 1; s > deniedScore {
				deniedScore = s
			}
			continue
		}
		score := cand.specificity * 2
		if cand.method == method {
			score++
		}
		if score > bestScore {
			rh, params, bestScore = cand, p, score
		}
	}
	if deniedScore > bestScore {
		return nil, nil, true
	}
	return rh, params, pathMatched
}

// ParseJSONBody reads the request body. Empty bodies yield an empty map;
// malformed JSON yields a *ParseError (400 upstream); a non-JSON declared
// content type with a non-empty body yields 415.
func ParseJSONBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil {
		return map[string]any{}, nil
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ := strings.Cut(ct, ";")
		if strings.TrimSpace(mediaType) != "application/json" {
			return nil, &StatusError{Code: http.StatusUnsupportedMediaType, Message: "unsupported content type"}
		}
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &ParseError{Err: err}
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

// trackingWriter guards the single-terminal-write contract.
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (tw *trackingWriter) WriteHeader(code int) {
	tw.wrote = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *trackingWriter) Write(b []byte) (int, error) {
	tw.wrote = true
	return tw.ResponseWriter.Write(b)
}

// SendResult is the single terminal write path: default headers merged with
// the envelope's headers (envelope wins), status code, JSON body. A second
// call for the same request is a logged no-op, never a double write.
func (rt *Router) SendResult(w http.ResponseWriter, res StatusResponse) {
	if tw, ok := w.(*trackingWriter); ok && tw.wrote {
		rt.logger.Warn("duplicate terminal write suppressed", "statusCode", res.StatusCode)
		return
	}

	rt.mu.RLock()
	for k, v := range rt.responseHeaders {
		w.Header().Set(k, v)
	}
	rt.mu.RUnlock()
	for k, v := range res.Headers {
		w.Header().Set(k, v)
	}

	if res.StatusCode == http.StatusNoContent {
		w.WriteHeader(res.StatusCode)
		return
	}

	var body []byte
	var err error
	if rt.prettyJSON {
		body, err = json.MarshalIndent(res, "", "  ")
	} else {
		body, err = json.Marshal(res)
	}
	if err != nil {
		// Non-serializable endpoint data. Last line of defense: a plain 500.
		rt.logger.Error("failed to serialize response", "error", err, "statusCode", res.StatusCode)
		res = ServerError500(map[string]string{"error": "internal server error"})
		body, _ = json.Marshal(res)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	if _, err := w.Write(body); err != nil {
		rt.logger.Error("failed to write response", "error", err)
	}
}

// HandleError converts an uncaught failure into a StatusResponse and
// guarantees a terminal write. Parse failures map to 400, status-carrying
// errors keep their code, everything else is a logged opaque 500.
func (rt *Router) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	rt.mu.RLock()
	observers := rt.errorMiddlewares
	rt.mu.RUnlock()
	for _, em := range observers {
		em(w, r, err)
	}
	rt.SendResult(w, rt.errorResponse(r, err))
}

func (rt *Router) errorResponse(r *http.Request, err error) StatusResponse {
	var pe *ParseError
	if errors.As(err, &pe) {
		return BadRequest400(map[string]string{"error": "malformed JSON body"})
	}
	var sc StatusCoder
	if errors.As(err, &sc) && KnownStatusCode(sc.StatusCode()) {
		return newResponse(sc.StatusCode(), map[string]string{"error": err.Error()})
	}
	rt.logger.Error("unhandled request failure",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path)
	return ServerError500(map[string]string{"error": "internal server error"})
}

// Handler returns the router's http.Handler: interceptors, then match, then
// middlewares, then the route handler, with panic recovery to a 500.
func (rt *Router) Handler() http.Handler {
	return http.HandlerFunc(rt.dispatch)
}

// Mount binds the router under the apiRoot prefix of a ServeMux. This is the
// one point of contact with the hosting HTTP server.
func (rt *Router) Mount(mux *http.ServeMux, apiRoot string) {
	prefix := "/" + strings.Trim(apiRoot, "/")
	mux.Handle(prefix+"/", rt.Handler())
	mux.Handle(prefix, rt.Handler())
}

func (rt *Router) dispatch(w http.ResponseWriter, r *http.Request) {
	tw := &trackingWriter{ResponseWriter: w}

	defer func() {
		if rec := recover(); rec != nil {
			rt.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
			rt.SendResult(tw, ServerError500(map[string]string{"error": "internal server error"}))
		}
	}()

	if !rt.runInterceptors(tw, r) {
		// An interceptor short-circuited. If it produced no write, the request
		// still needs a terminal one.
		if !tw.wrote {
			rt.SendResult(tw, ServerError500(map[string]string{"error": "internal server error"}))
		}
		return
	}

	rh, params, pathMatched := rt.matchRoute(r.Method, r.URL.Path)
	if rh == nil {
		if pathMatched {
			rt.SendResult(tw, NotAllowed405(map[string]string{"error": "method not allowed"}))
		} else {
			rt.SendResult(tw, NotFound404(map[string]string{"error": "not found"}))
		}
		return
	}

	var final http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rh.handler(w, r, params)
	})

	rt.mu.RLock()
	mws := rt.middlewares
	rt.mu.RUnlock()
	for i := len(mws) - 1; i >= 0; i-- {
		final = mws[i](final)
	}
	final.ServeHTTP(tw, r)

	if !tw.wrote && r.Context().Err() == nil {
		// No stage may leave a request without a terminal write. A cancelled
		// request is the one exception: the client is gone.
		rt.SendResult(tw, NoContent204())
	}
}

// runInterceptors executes the chain in registration order. Returns false
// when an interceptor declined to call next.
func (rt *Router) runInterceptors(w http.ResponseWriter, r *http.Request) bool {
	rt.mu.RLock()
	chain := rt.interceptors
	rt.mu.RUnlock()

	proceeded := true
	var run func(i int)
	run = func(i int) {
		if i >= len(chain) {
			return
		}
		called := false
		chain[i](w, r, func() {
			called = true
			run(i + 1)
		})
		if !called {
			proceeded = false
		}
	}
	run(0)
	return proceeded
}
