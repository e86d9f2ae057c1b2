package params

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

var errTrailingData = errors.New("unexpected data after top-level JSON value")

// ParseResult is the outcome of decoding a request body as JSON.
type ParseResult struct {
	Value any
	Err   error

	notJSON bool
}

// OK reports whether the body decoded cleanly.
func (r ParseResult) OK() bool {
	return r.Err == nil
}

// NotJSON reports whether the failure means "this body is not JSON", the only
// failure the extractor is allowed to recover from.
func (r ParseResult) NotJSON() bool {
	return r.notJSON
}

// ParseJSON decodes raw as a single JSON value. Numbers are kept as
// json.Number so integers survive untouched.
func ParseJSON(raw []byte) ParseResult {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return ParseResult{Err: err, notJSON: isNotJSON(err)}
	}

	if _, err := dec.Token(); err != io.EOF {
		return ParseResult{Err: errTrailingData, notJSON: true}
	}

	return ParseResult{Value: value}
}

func isNotJSON(err error) bool {
	var syntaxErr *json.SyntaxError

	switch {
	case errors.As(err, &syntaxErr),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}
