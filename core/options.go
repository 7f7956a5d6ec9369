package core

import (
	"fmt"
	"net/http"
	"strings"
)

// Action is an endpoint's application logic. Its result is resolved by the
// execute stage: a StatusResponse (or pointer to one) passes through
// unchanged, any other value wraps as a 200, an error maps through its
// StatusCoder if it has one and otherwise becomes a logged 500.
type Action func(ctx *EndpointContext) (any, error)

// EndpointOptions declares one HTTP method handler on a route: its action
// plus auth, role, scope and rate-limit policy. A non-empty RoleRequired or
// ScopeRequired implies AuthRequired.
type EndpointOptions struct {
	AuthRequired  bool
	RoleRequired  []string // OR semantics: any one role suffices
	ScopeRequired []string // OR semantics
	RateLimit     *Policy  // overrides the route-level default wholesale
	Action        Action
}

// RouteOptions carries route-level defaults shared by the route's endpoints.
type RouteOptions struct {
	// RateLimit applies to every endpoint that does not declare its own.
	RateLimit *Policy
}

// methodAliases maps accepted method spellings to canonical methods.
// Duplicate methods after resolution are a configuration error.
var methodAliases = map[string]string{
	"get":     http.MethodGet,
	"post":    http.MethodPost,
	"put":     http.MethodPut,
	"patch":   http.MethodPatch,
	"delete":  http.MethodDelete,
	"del":     http.MethodDelete,
	"options": http.MethodOptions,
	"head":    http.MethodHead,
}

// resolveMethod canonicalizes a method name, accepting shorthand aliases.
func resolveMethod(name string) (string, error) {
	m, ok := methodAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return m, nil
}

// resolveEndpoints validates and canonicalizes a method→options map,
// merging route-level defaults into endpoints that do not override them.
func resolveEndpoints(opts *RouteOptions, endpoints map[string]*EndpointOptions) (map[string]*EndpointOptions, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}
	resolved := make(map[string]*EndpointOptions, len(endpoints))
	for name, ep := range endpoints {
		method, err := resolveMethod(name)
		if err != nil {
			return nil, err
		}
		if _, exists := resolved[method]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMethod, method)
		}
		if ep == nil || ep.Action == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilAction, method)
		}

		merged := *ep
		if merged.RateLimit == nil && opts != nil && opts.RateLimit != nil {
			limit := *opts.RateLimit
			merged.RateLimit = &limit
		}
		if len(merged.RoleRequired) > 0 || len(merged.ScopeRequired) > 0 {
			merged.AuthRequired = true
		}
		resolved[method] = &merged
	}
	return resolved, nil
}
