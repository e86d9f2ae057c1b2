// Package envelope shapes every non-direct route result into the uniform
// {code, msg, data} body and maps the two known handler failure kinds onto it.
package envelope

import (
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/deppfellow/zrouter/internal/casing"
	"github.com/deppfellow/zrouter/internal/errs"
	"github.com/deppfellow/zrouter/internal/validation"
)

// Messages holds the fixed texts the router puts into envelopes.
type Messages struct {
	Success      string
	Unauthorized string
}

// DefaultMessages returns the texts used when nothing is configured.
func DefaultMessages() Messages {
	return Messages{
		Success:      "operation successful",
		Unauthorized: "user not authorized",
	}
}

// Envelope is the uniform response body.
//
// Success envelopes always carry "data" (possibly null); failure envelopes
// never do.
type Envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// MarshalJSON drops the data key from every envelope whose code is not 200.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Code != http.StatusOK {
		return json.Marshal(struct {
			Code int    `json:"code"`
			Msg  string `json:"msg"`
		}{e.Code, e.Msg})
	}

	type plain Envelope
	return json.Marshal(plain(e))
}

// Success wraps data in a 200 envelope.
func Success(data any, msg string) Envelope {
	return Envelope{Code: http.StatusOK, Msg: msg, Data: data}
}

// Failure builds an envelope without data.
func Failure(code int, msg string) Envelope {
	return Envelope{Code: code, Msg: msg}
}

// Unauthorized is the envelope returned when authorization fails.
func Unauthorized(msg string) Envelope {
	return Failure(http.StatusUnauthorized, msg)
}

// Wrap shapes a handler's return value.
//
// Direct results come back untouched; everything else becomes the Envelope
// built by Result.
func Wrap(value any, direct bool, successMsg string) any {
	if direct {
		return value
	}
	return Result(value, successMsg)
}

// Result wraps a non-direct handler result in a success envelope. Mappings
// are camelCased, sequences are camelCased element by element, and anything
// else is wrapped as-is.
func Result(value any, successMsg string) Envelope {
	switch v := value.(type) {
	case nil:
		return Success(nil, successMsg)
	case map[string]any:
		if v == nil {
			return Success(nil, successMsg)
		}
		return Success(casing.ToCamel(v), successMsg)
	case []any:
		if v == nil {
			return Success(nil, successMsg)
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = casing.ToCamel(item)
		}
		return Success(out, successMsg)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		if rv.IsNil() {
			return Success(nil, successMsg)
		}
		fallthrough
	case reflect.Array:
		if _, isBytes := value.([]byte); !isBytes {
			return Success(casing.ToCamel(value), successMsg)
		}
	}

	return Success(value, successMsg)
}

// FromError maps a handler failure to its envelope. The boolean is false for
// failures that are not one of the recognized kinds.
func FromError(err error) (Envelope, bool) {
	if err == nil {
		return Envelope{}, false
	}

	if prompt, ok := errs.AsPrompt(err); ok {
		return Failure(http.StatusInternalServerError, prompt.Message), true
	}

	if validation.IsFailure(err) {
		return Failure(http.StatusBadRequest, validation.Message(err)), true
	}

	return Envelope{}, false
}
