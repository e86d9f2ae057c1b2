// Package errs defines the error types the HTTP layer knows how to render.
//
// Two families live here:
//   - Prompt, a failure raised on purpose by a handler whose message is safe to
//     show to the caller. The router turns it into a {code: 500, msg} envelope.
//   - HTTPError, the JSON error body written by the global error handler for
//     failures the router does not envelope (route not found, database errors,
//     rate limiting, ...).
package errs
