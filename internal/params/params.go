// Package params turns an inbound echo request into the single snake_cased
// parameter mapping that route handlers receive.
package params

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/deppfellow/zrouter/internal/casing"
	"github.com/deppfellow/zrouter/internal/validation"
	"github.com/labstack/echo/v4"
)

// Keys used by the multipart and fallback shapes.
const (
	FilesKey  = "files"
	ParamsKey = "params"
	DataKey   = "data"
)

// Params is the normalized parameter mapping handed to a route handler.
type Params map[string]any

// Extract reads the request held by c and produces its parameter mapping:
//
//   - GET, DELETE: query parameters overlaid with path parameters (path wins).
//   - multipart/form-data: {files: <file headers>, params: <form fields>}.
//   - anything else: the JSON body, or {data: <raw body>} when it is not JSON.
//
// Keys are snake_cased. An error is returned only when the body cannot be
// read or a multipart body is malformed (a validation failure).
func Extract(c echo.Context) (Params, error) {
	req := c.Request()

	switch req.Method {
	case http.MethodGet, http.MethodDelete:
		return fromQuery(c), nil
	}

	if strings.HasPrefix(strings.ToLower(req.Header.Get(echo.HeaderContentType)), echo.MIMEMultipartForm) {
		return fromMultipart(c)
	}

	return fromBody(req)
}

func fromQuery(c echo.Context) Params {
	query := c.QueryParams()
	names := c.ParamNames()
	values := c.ParamValues()

	merged := make(map[string]any, len(query)+len(names))
	for key, vals := range query {
		if len(vals) > 0 {
			merged[key] = vals[0]
		}
	}
	for i, name := range names {
		if i < len(values) {
			merged[name] = values[i]
		}
	}

	return Params(casing.ToSnake(merged).(map[string]any))
}

func fromMultipart(c echo.Context) (Params, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, validation.Errorf("malformed multipart form: %v", err)
	}

	fields := make(map[string]any, len(form.Value))
	for key, vals := range form.Value {
		if len(vals) > 0 {
			fields[key] = vals[0]
		}
	}

	return Params{
		FilesKey:  form.File,
		ParamsKey: casing.ToSnake(fields),
	}, nil
}

func fromBody(req *http.Request) (Params, error) {
	var raw []byte
	if req.Body != nil {
		var err error
		raw, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("read request body: %w", err)
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))
	}

	result := ParseJSON(raw)
	if !result.OK() {
		if result.NotJSON() {
			return Params{DataKey: raw}, nil
		}
		return nil, fmt.Errorf("parse request body: %w", result.Err)
	}

	switch v := casing.ToSnake(result.Value).(type) {
	case nil:
		return Params{}, nil
	case map[string]any:
		return Params(v), nil
	default:
		return Params{DataKey: v}, nil
	}
}
