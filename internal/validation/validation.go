// Package validation owns the "validation failure" kind of error.
//
// It wraps go-playground/validator for struct tag rules, adds a plain
// message error for hand-written checks, and turns any of them into the
// message text and field list that end up in a 400 response.
package validation
