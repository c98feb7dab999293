// Package kit provides the transport-agnostic endpoint plumbing shared by
// vigil's HTTP and MCP surfaces: a typed endpoint function, middleware
// chaining, request-scoped context helpers, and the MCP tool adapter.
package kit

import "context"

// Endpoint is one service operation: typed request in, typed response out.
// Transports (HTTP handlers, MCP tools) decode into the request type and
// hand off here.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares so the first argument is the outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
