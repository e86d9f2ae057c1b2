package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/zrouter/internal/config"
	"github.com/deppfellow/zrouter/internal/envelope"
	"github.com/deppfellow/zrouter/internal/errs"
	"github.com/deppfellow/zrouter/internal/middleware"
	"github.com/deppfellow/zrouter/internal/params"
	"github.com/deppfellow/zrouter/internal/server"
	"github.com/deppfellow/zrouter/internal/validation"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(e *echo.Echo, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func echoParams(_ echo.Context, p params.Params) (any, error) {
	return p, nil
}

func TestGetMergesPathOverQuery(t *testing.T) {
	e := echo.New()
	r := New(e, "/api")
	require.NoError(t, r.Add("/users/:userId", echoParams))

	rec := do(e, http.MethodGet, "/api/users/7?userId=1&pageSize=10&blank=", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(200), body["code"])
	assert.Equal(t, "operation successful", body["msg"])
	assert.Equal(t, map[string]any{"userId": "7", "pageSize": "10"}, body["data"])
}

func TestPostBodyIsSnakeCasedAndSanitized(t *testing.T) {
	e := echo.New()
	r := New(e, "")

	var got params.Params
	require.NoError(t, r.Add("/orders", func(_ echo.Context, p params.Params) (any, error) {
		got = p
		return map[string]any{"order_id": 1, "line_items": []any{map[string]any{"unit_price": 3}}}, nil
	}, Methods(http.MethodPost)))

	rec := do(e, http.MethodPost, "/orders",
		strings.NewReader(`{"customerName":"ada","shippingAddress":{"zipCode":"123"},"note":"null","coupon":"","qty":0}`),
		echo.MIMEApplicationJSON)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada", got["customer_name"])
	assert.Equal(t, map[string]any{"zip_code": "123"}, got["shipping_address"])
	assert.Equal(t, json.Number("0"), got["qty"])
	assert.NotContains(t, got, "note")
	assert.NotContains(t, got, "coupon")

	body := decode(t, rec)
	assert.Equal(t, map[string]any{
		"orderId":   float64(1),
		"lineItems": []any{map[string]any{"unitPrice": float64(3)}},
	}, body["data"])
}

func TestNonJSONBodyFallsBackToRaw(t *testing.T) {
	e := echo.New()
	r := New(e, "")

	var got params.Params
	require.NoError(t, r.Add("/hook", func(_ echo.Context, p params.Params) (any, error) {
		got = p
		return nil, nil
	}, Methods(http.MethodPut)))

	rec := do(e, http.MethodPut, "/hook", strings.NewReader("a=1&b=2"), echo.MIMETextPlain)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []byte("a=1&b=2"), got[params.DataKey])

	body := decode(t, rec)
	assert.Contains(t, body, "data")
	assert.Nil(t, body["data"])
}

func TestValidationFailureBecomes400Envelope(t *testing.T) {
	e := echo.New()
	r := New(e, "")
	require.NoError(t, r.Add("/x", func(echo.Context, params.Params) (any, error) {
		return nil, validation.NewError("bad field")
	}, Open()))

	rec := do(e, http.MethodGet, "/x", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"code": float64(400), "msg": "bad field"}, decode(t, rec))
}

func TestTagValidationFailureThroughBind(t *testing.T) {
	type transfer struct {
		Amount int    `param:"amount" validate:"required,gt=0"`
		To     string `param:"to" validate:"required"`
	}

	e := echo.New()
	r := New(e, "")
	require.NoError(t, r.Add("/transfer", func(_ echo.Context, p params.Params) (any, error) {
		var req transfer
		if err := params.Bind(p, &req); err != nil {
			return nil, err
		}
		return req, nil
	}, Methods(http.MethodPost)))

	rec := do(e, http.MethodPost, "/transfer", strings.NewReader(`{"amount":0,"to":"acc-1"}`), echo.MIMEApplicationJSON)

	body := decode(t, rec)
	assert.Equal(t, float64(400), body["code"])
	assert.Contains(t, body["msg"], "amount")
	assert.NotContains(t, body, "data")
}

func TestPromptBecomes500Envelope(t *testing.T) {
	e := echo.New()
	r := New(e, "")
	require.NoError(t, r.Add("/pay", func(echo.Context, params.Params) (any, error) {
		return nil, errs.NewPrompt("insufficient balance")
	}))

	rec := do(e, http.MethodGet, "/pay", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"code": float64(500), "msg": "insufficient balance"}, decode(t, rec))
}

func TestAuthorization(t *testing.T) {
	e := echo.New()
	r := New(e, "", WithVerifier(func(c echo.Context) bool {
		return c.Request().Header.Get("X-Token") == "ok"
	}))

	calls := 0
	h := func(echo.Context, params.Params) (any, error) {
		calls++
		return "ok", nil
	}
	require.NoError(t, r.Add("/private", h))
	require.NoError(t, r.Add("/public", h, Open()))

	rec := do(e, http.MethodGet, "/private", nil, "")
	assert.Equal(t, map[string]any{"code": float64(401), "msg": "user not authorized"}, decode(t, rec))
	assert.Equal(t, 0, calls, "handler must not run for unauthorized callers")

	rec = do(e, http.MethodGet, "/public", nil, "")
	assert.Equal(t, float64(200), decode(t, rec)["code"])
	assert.Equal(t, 1, calls)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("X-Token", "ok")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "ok", decode(t, rec)["data"])
	assert.Equal(t, 2, calls)
}

func TestDefaultVerifierAllowsEveryone(t *testing.T) {
	r := New(echo.New(), "")
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.True(t, r.VerifyUser(c))
	r.OnError(c, errors.New("ignored"))
}

func TestCustomMessages(t *testing.T) {
	e := echo.New()
	r := New(e, "", WithMessages(envelope.Messages{Success: "done"}), WithVerifier(func(echo.Context) bool { return false }))
	require.NoError(t, r.Add("/a", echoParams, Open()))
	require.NoError(t, r.Add("/b", echoParams))

	assert.Equal(t, "done", decode(t, do(e, http.MethodGet, "/a", nil, ""))["msg"])
	assert.Equal(t, "user not authorized", decode(t, do(e, http.MethodGet, "/b", nil, ""))["msg"])
}

func TestDirectRoutes(t *testing.T) {
	e := echo.New()
	r := New(e, "")

	require.NoError(t, r.Add("/json", func(echo.Context, params.Params) (any, error) {
		return map[string]any{"raw_key": 1}, nil
	}, Direct()))
	require.NoError(t, r.Add("/text", func(echo.Context, params.Params) (any, error) {
		return "pong", nil
	}, Direct()))
	require.NoError(t, r.Add("/blob", func(echo.Context, params.Params) (any, error) {
		return []byte("%PDF-1.4"), nil
	}, Direct()))
	require.NoError(t, r.Add("/empty", func(echo.Context, params.Params) (any, error) {
		return nil, nil
	}, Direct()))
	require.NoError(t, r.Add("/written", func(c echo.Context, _ params.Params) (any, error) {
		return "ignored", c.String(http.StatusCreated, "made")
	}, Direct()))

	rec := do(e, http.MethodGet, "/json", nil, "")
	assert.Equal(t, map[string]any{"raw_key": float64(1)}, decode(t, rec))

	rec = do(e, http.MethodGet, "/text", nil, "")
	assert.Equal(t, "pong", rec.Body.String())

	rec = do(e, http.MethodGet, "/blob", nil, "")
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))

	rec = do(e, http.MethodGet, "/empty", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(e, http.MethodGet, "/written", nil, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "made", rec.Body.String())
}

func TestDirectRoutesStillMapFailures(t *testing.T) {
	e := echo.New()
	r := New(e, "")
	require.NoError(t, r.Add("/d", func(echo.Context, params.Params) (any, error) {
		return nil, errs.NewPrompt("nope")
	}, Direct()))

	assert.Equal(t, map[string]any{"code": float64(500), "msg": "nope"}, decode(t, do(e, http.MethodGet, "/d", nil, "")))
}

func TestUnmappedErrorsReachHookAndEcho(t *testing.T) {
	boom := errors.New("connection reset")

	var hooked, handled []error
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		handled = append(handled, err)
		_ = c.NoContent(http.StatusTeapot)
	}

	first := func(_ echo.Context, err error) { hooked = append(hooked, err) }
	second := func(_ echo.Context, err error) { hooked = append(hooked, err) }
	r := New(e, "", WithErrorHook(ChainHooks(first, nil, second)))
	require.NoError(t, r.Add("/fail", func(echo.Context, params.Params) (any, error) {
		return nil, boom
	}))

	rec := do(e, http.MethodGet, "/fail", nil, "")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, []error{boom, boom}, hooked)
	require.Len(t, handled, 1)
	assert.ErrorIs(t, handled[0], boom)
}

func TestPanickingHandlerReachesHook(t *testing.T) {
	var hooked []error
	e := echo.New()
	e.Use(echomw.Recover())
	r := New(e, "", WithErrorHook(func(_ echo.Context, err error) { hooked = append(hooked, err) }))
	require.NoError(t, r.Add("/crash", func(echo.Context, params.Params) (any, error) {
		var counts map[string]int
		counts["hits"]++
		return counts, nil
	}))

	rec := do(e, http.MethodGet, "/crash", nil, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Len(t, hooked, 1)
	assert.Contains(t, hooked[0].Error(), "handler panic")
}

func TestDatabaseErrorsRenderThroughGlobalHandler(t *testing.T) {
	logger := zerolog.Nop()
	s := &server.Server{
		Config: &config.Config{Primary: config.Primary{Env: "local"}, Observability: config.DefaultObservabilityConfig()},
		Logger: &logger,
	}

	e := echo.New()
	e.HTTPErrorHandler = middleware.NewGlobalMiddlewares(s).GlobalErrorHandler
	r := New(e, "")
	require.NoError(t, r.Add("/orders", func(echo.Context, params.Params) (any, error) {
		return nil, fmt.Errorf("insert order: %w", &pgconn.PgError{
			Code:           "23503",
			TableName:      "orders",
			ColumnName:     "customer_id",
			ConstraintName: "orders_customer_id_fkey",
		})
	}, Methods(http.MethodPost)))

	rec := do(e, http.MethodPost, "/orders", strings.NewReader(`{"customerId":7}`), echo.MIMEApplicationJSON)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ORDER_NOT_FOUND", body["code"])
	assert.Equal(t, "The referenced Customer does not exist", body["message"])
}

func TestMalformedMultipartIs400Envelope(t *testing.T) {
	e := echo.New()
	r := New(e, "")
	require.NoError(t, r.Add("/upload", echoParams, Methods(http.MethodPost)))

	rec := do(e, http.MethodPost, "/upload", strings.NewReader("garbage"), echo.MIMEMultipartForm+"; boundary=xyz")

	assert.Equal(t, float64(400), decode(t, rec)["code"])
}

type account struct{}

func (account) Get(_ echo.Context, p params.Params) (any, error)  { return "get", nil }
func (account) Post(_ echo.Context, p params.Params) (any, error) { return "post", nil }

type ledger struct{ account }

func (ledger) Delete(echo.Context, params.Params) (any, error) { return "delete", nil }

func (ledger) RouteFlags() []MethodFlags {
	return []MethodFlags{
		{Method: http.MethodGet, Open: true},
		{Method: http.MethodDelete, Direct: true},
	}
}

func TestBindingsFollowCapabilities(t *testing.T) {
	bindings := Bindings(account{}, MethodFlags{Method: "post", Open: true})

	require.Len(t, bindings, 2)
	assert.Equal(t, http.MethodGet, bindings[0].Method)
	assert.False(t, bindings[0].Open)
	assert.Equal(t, http.MethodPost, bindings[1].Method)
	assert.True(t, bindings[1].Open)

	assert.Empty(t, Bindings(struct{}{}))
}

func TestBindingsExplicitFlagsOverrideProvided(t *testing.T) {
	bindings := Bindings(ledger{}, MethodFlags{Method: http.MethodGet})

	require.Len(t, bindings, 3)
	assert.Equal(t, []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		[]string{bindings[0].Method, bindings[1].Method, bindings[2].Method})
	assert.False(t, bindings[0].Open, "explicit flags win")
	assert.True(t, bindings[2].Direct)
}

func TestAddResource(t *testing.T) {
	e := echo.New()
	r := New(e, "/v1", WithVerifier(func(echo.Context) bool { return false }))

	require.NoError(t, r.AddResource("/accounts", account{}, MethodFlags{Method: http.MethodGet, Open: true}))

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.NotEqual(t, routes[0].Endpoint, routes[1].Endpoint)
	assert.Equal(t, "/v1/accounts", routes[0].Path)

	assert.Equal(t, "get", decode(t, do(e, http.MethodGet, "/v1/accounts", nil, ""))["data"])
	assert.Equal(t, float64(401), decode(t, do(e, http.MethodPost, "/v1/accounts", nil, ""))["code"])
	assert.Equal(t, http.StatusMethodNotAllowed, do(e, http.MethodPut, "/v1/accounts", nil, "").Code)
}

func TestAddResourcesInPathOrder(t *testing.T) {
	e := echo.New()
	r := New(e, "")

	require.NoError(t, r.AddResources(map[string]any{
		"/b":      account{},
		"/a":      ledger{},
		"/nothing": struct{}{},
	}))

	var paths []string
	for _, reg := range r.Routes() {
		paths = append(paths, reg.Method+" "+reg.Path)
	}
	assert.Equal(t, []string{"GET /a", "POST /a", "DELETE /a", "GET /b", "POST /b"}, paths)
}

func TestEndpointIdentifiersAreUnique(t *testing.T) {
	e := echo.New()
	first := New(e, "/one")
	second := New(e, "/two")

	for _, path := range []string{"/a", "/b", "/c"} {
		require.NoError(t, first.Add(path, echoParams))
		require.NoError(t, second.AddResource(path, account{}))
	}

	seen := map[string]bool{}
	for _, route := range e.Routes() {
		assert.False(t, seen[route.Name], "duplicate endpoint %s", route.Name)
		seen[route.Name] = true
	}
	assert.Len(t, seen, 9)
}

func TestEndpointNamesAreMirroredInEcho(t *testing.T) {
	e := echo.New()
	r := New(e, "")
	require.NoError(t, r.Add("/x", echoParams, Endpoint("x"), Methods("get", "POST", "GET")))

	routes := r.Routes()
	require.Len(t, routes, 2)
	for _, route := range e.Routes() {
		assert.Equal(t, "x", route.Name)
	}
	assert.Equal(t, "/x", e.Reverse("x"))
}

func TestDuplicateRegistrations(t *testing.T) {
	e := echo.New()
	r := New(e, "")
	require.NoError(t, r.Add("/x", echoParams, Endpoint("x")))

	err := r.Add("/y", echoParams, Endpoint("x"))
	assert.ErrorIs(t, err, ErrDuplicateEndpoint)

	err = r.Add("/x", echoParams)
	assert.ErrorIs(t, err, ErrDuplicateRoute)

	e.GET("/plain", func(c echo.Context) error { return nil })
	err = r.AddResource("/plain", account{})
	assert.ErrorIs(t, err, ErrDuplicateRoute)
	assert.Len(t, r.Routes(), 1, "a rejected resource registers nothing")

	assert.ErrorIs(t, r.Add("/nil", nil), ErrNilHandler)
}

func TestBindIsAllOrNothing(t *testing.T) {
	e := echo.New()
	r := New(e, "")

	err := r.Bind("/p",
		Binding{Method: http.MethodGet, Handler: echoParams},
		Binding{Method: http.MethodPost},
	)
	assert.ErrorIs(t, err, ErrNilHandler)

	err = r.Bind("/q",
		Binding{Method: http.MethodPut, Handler: echoParams},
		Binding{Method: "put", Handler: echoParams},
	)
	assert.ErrorIs(t, err, ErrDuplicateRoute)

	assert.Empty(t, r.Routes())
	assert.Empty(t, e.Routes())
}

func TestPrefixNormalization(t *testing.T) {
	e := echo.New()
	r := New(e, "api/")
	require.NoError(t, r.Add("items", echoParams))
	require.NoError(t, New(e, "").Add("", echoParams))

	assert.Equal(t, "/api", r.Prefix())
	assert.Equal(t, "/api/items", r.Routes()[0].Path)
	assert.Equal(t, http.StatusOK, do(e, http.MethodGet, "/", nil, "").Code)
}
