package core

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
)

// API owns the route table for one versioned API root: it normalizes the
// base path, installs CORS and wildcard handling, bootstraps the default
// auth endpoints, and builds Routes from caller-supplied endpoint maps.
// Several API instances (one per version) share a single Router.
type API struct {
	router *Router
	config Config

	auth           *Auth
	limiter        RateLimiter
	keyGenerator   KeyGenerator
	logger         *slog.Logger
	defaultOptions *EndpointOptions

	rootPath string // "/apiRoot"
	basePath string // "/apiRoot/version[/apiPath]"
	routes   []*Route
}

// NewAPI validates the config and registers the instance's baseline routes
// (wildcard 404s, gone versions, CORS preflight, default auth endpoints)
// into the shared router.
func NewAPI(router *Router, cfg Config) (*API, error) {
	if router == nil {
		return nil, ErrRouterRequired
	}
	if !cfg.IsRoot && strings.TrimSpace(cfg.Version) == "" {
		return nil, ErrVersionRequired
	}

	a := &API{
		router:       router,
		config:       cfg,
		limiter:      cfg.RateLimit.Limiter,
		keyGenerator: cfg.RateLimit.KeyGenerator,
		logger:       cfg.Logger,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.keyGenerator == nil {
		a.keyGenerator = DefaultKeyGenerator
	}
	a.rootPath, a.basePath = normalizeAPIPath(cfg)

	if cfg.Users != nil && cfg.Tokens != nil {
		a.auth = NewAuth(cfg.Users, cfg.Tokens)
	}

	router.SetLogger(a.logger)
	if cfg.PrettyJSON {
		router.SetPrettyJSON(true)
	}
	if len(cfg.DefaultHeaders) > 0 {
		router.SetResponseHeaders(cfg.DefaultHeaders)
	}

	a.configureCORS()
	a.initializeWildcardRoutes()
	if err := a.initializeDefaultAuthEndpoints(); err != nil {
		return nil, err
	}
	return a, nil
}

// BasePath returns the normalized versioned prefix all routes bind under.
func (a *API) BasePath() string { return a.basePath }

// Router returns the shared dispatch registry.
func (a *API) Router() *Router { return a.router }

// Auth returns the credential provider, or nil when no stores were configured.
// Framework adapters use it to guard routes registered outside the API.
func (a *API) Auth() *Auth { return a.auth }

func normalizeAPIPath(cfg Config) (rootPath, basePath string) {
	root := strings.Trim(cfg.APIRoot, "/")
	if root == "" {
		root = "api"
	}
	rootPath = "/" + root
	if cfg.IsRoot {
		return rootPath, rootPath
	}
	basePath = rootPath + "/" + strings.Trim(cfg.Version, "/")
	if p := strings.Trim(cfg.APIPath, "/"); p != "" {
		basePath += "/" + p
	}
	return rootPath, basePath
}

// AddRoute builds and registers one Route under the API's base path. Routes
// register immediately and never mutate afterwards.
func (a *API) AddRoute(path string, opts *RouteOptions, endpoints map[string]*EndpointOptions) error {
	rt, err := newRoute(a, path, opts, endpoints)
	if err != nil {
		return err
	}
	for _, ep := range rt.endpoints {
		if ep.AuthRequired && a.auth == nil {
			return ErrUserStoreRequired
		}
	}
	rt.AddToAPI(false)
	a.routes = append(a.routes, rt)
	return nil
}

// configureCORS merges permissive CORS defaults into the shared response
// headers and arranges a default OPTIONS endpoint for preflights.
func (a *API) configureCORS() {
	if a.config.DefaultOptionsEndpoint != nil {
		a.defaultOptions = a.config.DefaultOptionsEndpoint()
	}
	if !a.config.EnableCORS {
		return
	}
	a.router.SetResponseHeaders(map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Origin, X-Requested-With, Content-Type, Accept, Authorization",
		"Access-Control-Allow-Methods": "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	})
	if a.defaultOptions == nil {
		a.defaultOptions = &EndpointOptions{
			Action: func(ctx *EndpointContext) (any, error) {
				return NoContent204(), nil
			},
		}
	}
}

// initializeWildcardRoutes installs catch-alls so unmatched paths inside the
// prefix answer a structured JSON 404 (or 410 for retired versions) instead
// of falling through to the hosting server's default.
func (a *API) initializeWildcardRoutes() {
	notFound := func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
		a.router.SendResult(w, NotFound404(map[string]string{"error": "not found"}))
	}
	a.router.Add("*", a.basePath, notFound)
	a.router.Add("*", a.basePath+"/*", notFound)

	for _, v := range a.config.GoneVersions {
		gone := func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			a.router.SendResult(w, Gone410(map[string]string{"error": "this API version has been retired"}))
		}
		prefix := a.rootPath + "/" + strings.Trim(v, "/")
		a.router.Add("*", prefix, gone)
		a.router.Add("*", prefix+"/*", gone)
	}
}

// initializeDefaultAuthEndpoints registers login, logout and logout-all at
// most once per shared router, and only when both stores are configured.
func (a *API) initializeDefaultAuthEndpoints() error {
	if a.auth == nil || a.config.Auth.DisableDefaultEndpoints {
		return nil
	}
	if !a.router.claimDefaultAuth() {
		return nil
	}
	if a.config.RateLimit.Default != nil && a.limiter == nil {
		return ErrLimiterRequired
	}

	login := &EndpointOptions{
		RateLimit: a.config.RateLimit.Default,
		Action:    a.loginAction,
	}
	logout := &EndpointOptions{
		AuthRequired: true,
		Action:       a.logoutAction,
	}
	logoutAll := &EndpointOptions{
		AuthRequired: true,
		Action:       a.logoutAllAction,
	}

	for path, ep := range map[string]*EndpointOptions{
		"/login":      login,
		"/logout":     logout,
		"/logout-all": logoutAll,
	} {
		rt, err := newRoute(a, path, nil, map[string]*EndpointOptions{"post": ep})
		if err != nil {
			return err
		}
		rt.AddToAPI(false)
		a.routes = append(a.routes, rt)
	}
	return nil
}

func (a *API) loginAction(ctx *EndpointContext) (any, error) {
	bp := bodyParamsFrom(ctx.BodyParams)

	sel, err := ExtractUser(bp)
	if err != nil {
		return BadRequest400(map[string]string{"error": err.Error()}), nil
	}
	password, err := ExtractPassword(bp)
	if err != nil {
		return BadRequest400(map[string]string{"error": err.Error()}), nil
	}

	token, err := a.auth.LoginWithPassword(ctx.Request.Context(), sel, password)
	if errors.Is(err, ErrLoginFailed) {
		reason := ErrLoginFailed.Error()
		if token != nil && token.Error != "" {
			reason = token.Error
		}
		a.fireLoginFailure(ctx.Request, reason)
		// One opaque answer for unknown user and wrong password alike.
		return Unauthorized401(map[string]string{"error": "login failed"}), nil
	}
	if err != nil {
		return nil, err
	}

	a.fireLoggedIn(ctx.Request, token.UserID)
	return Success200(token), nil
}

func (a *API) logoutAction(ctx *EndpointContext) (any, error) {
	token := a.extractToken(ctx.Request)
	if err := a.auth.Logout(ctx.Request.Context(), token); err != nil {
		return nil, err
	}
	a.fireLoggedOut(ctx.Request, ctx.UserID)
	return Success200(map[string]string{"message": "logged out"}), nil
}

func (a *API) logoutAllAction(ctx *EndpointContext) (any, error) {
	count, err := a.auth.LogoutAll(ctx.Request.Context(), ctx.UserID)
	if err != nil {
		return nil, err
	}
	a.fireLoggedOut(ctx.Request, ctx.UserID)
	return Success200(map[string]any{"message": "logged out everywhere", "sessions": count}), nil
}

func (a *API) extractToken(r *http.Request) string {
	if a.config.Auth.TokenExtractor != nil {
		return a.config.Auth.TokenExtractor(r)
	}
	if h := a.config.Auth.TokenHeader; h != "" {
		return r.Header.Get(h)
	}
	return BearerToken(r)
}

func (a *API) authenticateRequest(r *http.Request) (*UserRecord, error) {
	return a.auth.AuthenticateToken(r.Context(), a.extractToken(r))
}

// Hooks are side effects only; a panicking hook must not take the request
// down with it.
func (a *API) fireHook(run func()) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("auth hook panicked", "panic", rec)
		}
	}()
	run()
}

func (a *API) fireLoggedIn(r *http.Request, userID string) {
	if h := a.config.Auth.Hooks.OnLoggedIn; h != nil {
		a.fireHook(func() { h(r, userID) })
	}
}

func (a *API) fireLoggedOut(r *http.Request, userID string) {
	if h := a.config.Auth.Hooks.OnLoggedOut; h != nil {
		a.fireHook(func() { h(r, userID) })
	}
}

func (a *API) fireLoginFailure(r *http.Request, reason string) {
	if h := a.config.Auth.Hooks.OnLoginFailure; h != nil {
		a.fireHook(func() { h(r, reason) })
	}
}

// DefaultKeyGenerator keys rate limits by client address: X-Real-IP, then
// the first X-Forwarded-For entry, then RemoteAddr. Header values must parse
// as IPs so arbitrary strings cannot pollute limiter state.
func DefaultKeyGenerator(r *http.Request) string {
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
			return ip.String()
		}
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		raw := xff
		if first, _, ok := strings.Cut(xff, ","); ok {
			raw = first
		}
		if ip := net.ParseIP(strings.TrimSpace(raw)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func bodyParamsFrom(body map[string]any) BodyParams {
	bp := BodyParams{}
	if v, ok := body["username"].(string); ok {
		bp.Username = v
	}
	if v, ok := body["email"].(string); ok {
		bp.Email = v
	}
	if v, ok := body["password"].(string); ok {
		bp.Password = v
	}
	if v, ok := body["hashed"].(bool); ok {
		bp.Hashed = v
	}
	if v, ok := body["algorithm"].(string); ok {
		bp.Algorithm = v
	}
	return bp
}
