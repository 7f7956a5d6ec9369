package restio

import (
	"github.com/restio/restio/core"
	"github.com/restio/restio/pkg/crypto"
)

// interfaces
type (
	UserStore   = core.UserStore
	TokenStore  = core.TokenStore
	RateLimiter = core.RateLimiter

	StatusCoder = core.StatusCoder

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	API             = core.API
	Router          = core.Router
	Config          = core.Config
	AuthConfig      = core.AuthConfig
	RateLimitConfig = core.RateLimitConfig
	RouteOptions    = core.RouteOptions
	EndpointOptions = core.EndpointOptions
	EndpointContext = core.EndpointContext
	StatusResponse  = core.StatusResponse
	StatusError     = core.StatusError
	ParseError      = core.ParseError
)

type (
	UserRecord = core.UserRecord
	Selector   = core.Selector
	AuthToken  = core.AuthToken
	Password   = core.Password
	Policy     = core.Policy
	Decision   = core.Decision
	AuthHooks  = core.AuthHooks
)

// function types
type (
	Action          = core.Action
	Handler         = core.Handler
	Middleware      = core.Middleware
	ErrorMiddleware = core.ErrorMiddleware
	Interceptor     = core.Interceptor
	KeyGenerator    = core.KeyGenerator
)

// Constructors & helpers (convenience re-exports)
var (
	NewRouter           = core.NewRouter
	NewAuth             = core.NewAuth
	NewArgon2           = crypto.NewArgon2
	DefaultKeyGenerator = core.DefaultKeyGenerator
	BearerToken         = core.BearerToken
)

// response builders
var (
	Continue100         = core.Continue100
	Success200          = core.Success200
	Success201          = core.Success201
	NoContent204        = core.NoContent204
	MovedPermanently301 = core.MovedPermanently301
	BadRequest400       = core.BadRequest400
	Unauthorized401     = core.Unauthorized401
	Forbidden403        = core.Forbidden403
	NotFound404         = core.NotFound404
	NotAllowed405       = core.NotAllowed405
	Gone410             = core.Gone410
	Unsupported415      = core.Unsupported415
	Teapot418           = core.Teapot418
	TooManyRequests429  = core.TooManyRequests429
	ServerError500      = core.ServerError500
)

var (
	ErrLoginFailed   = core.ErrLoginFailed
	ErrUserNotFound  = core.ErrUserNotFound
	ErrTokenNotFound = core.ErrTokenNotFound
	ErrMissingToken  = core.ErrMissingToken
	ErrRoleDenied    = core.ErrRoleDenied
	ErrScopeDenied   = core.ErrScopeDenied
)

var (
	ErrRouterRequired     = core.ErrRouterRequired
	ErrVersionRequired    = core.ErrVersionRequired
	ErrUserStoreRequired  = core.ErrUserStoreRequired
	ErrTokenStoreRequired = core.ErrTokenStoreRequired
	ErrLimiterRequired    = core.ErrLimiterRequired
)

// New builds a versioned API on a fresh router. Use core.NewAPI directly to
// register several API versions on one shared router.
func New(cfg Config) (*API, error) {
	return core.NewAPI(core.NewRouter(), cfg)
}
