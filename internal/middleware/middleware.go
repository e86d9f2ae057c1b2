// Package middleware holds the echo middleware installed in front of every
// route: request ids, the request-scoped logger, New Relic tracing, Clerk
// session parsing, rate limiting, request logging, and the global error
// handler that renders failures the router does not envelope.
package middleware
