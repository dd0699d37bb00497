package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"StockCast/internal/domain/errs"

	"github.com/labstack/echo/v4"
)

func TestFromDomainStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errs.Validation("op", "ticker", "ticker is required"), http.StatusBadRequest, CodeBadRequest},
		{errs.NoData("op", "AAPL"), http.StatusNotFound, CodeNotFound},
		{errs.Upstream("op", errors.New("refused")), http.StatusBadGateway, CodeUpstream},
		{errs.Forecast("op", errors.New("nan")), http.StatusInternalServerError, CodeInternal},
		{errors.New("plain"), http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		app := FromDomain(tc.err)
		if app.Status != tc.status || app.Code != tc.code {
			t.Fatalf("%v: got %d %s, want %d %s", tc.err, app.Status, app.Code, tc.status, tc.code)
		}
	}
}

func TestFromDomainHidesInternalDetail(t *testing.T) {
	app := FromDomain(errs.Forecast("run", errors.New("secret stack detail")))
	if strings.Contains(app.Message, "secret") {
		t.Fatalf("internal detail leaked: %q", app.Message)
	}
}

func TestAppErrorResponseBody(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	if err := AppErrorResponse(c, NotFoundError("nothing")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "nothing" || body.Code != CodeNotFound {
		t.Fatalf("body = %+v", body)
	}
}

type bindReq struct {
	Ticker string `json:"ticker" validate:"required"`
	Days   int    `json:"days" validate:"gte=1,lte=30" default:"5"`
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()

	newCtx := func(body string) echo.Context {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		return e.NewContext(req, httptest.NewRecorder())
	}

	var ok bindReq
	if verrs := ReadAndValidateRequest(newCtx(`{"ticker":"AAPL"}`), &ok); verrs != nil {
		t.Fatalf("unexpected errors: %v", verrs)
	}
	if ok.Days != 5 {
		t.Fatalf("default not applied: %d", ok.Days)
	}

	var missing bindReq
	verrs := ReadAndValidateRequest(newCtx(`{"days":3}`), &missing)
	if len(verrs) != 1 || verrs[0].Field != "ticker" || verrs[0].Code != "ERR_REQUIRED" {
		t.Fatalf("verrs = %+v", verrs)
	}

	var malformed bindReq
	if verrs := ReadAndValidateRequest(newCtx(`{"ticker":`), &malformed); len(verrs) == 0 {
		t.Fatalf("expected bind error")
	}
}

func TestServerHealthz(t *testing.T) {
	s := NewServer(nil, nil, WithMetrics(false, ""))
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header missing")
	}
}

func corsRequest(s *Server, method, origin string, preflight bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/healthz", nil)
	if origin != "" {
		req.Header.Set(echo.HeaderOrigin, origin)
	}
	if preflight {
		req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func TestCORSWildcard(t *testing.T) {
	s := NewServer(nil, nil, WithMetrics(false, ""))
	rec := corsRequest(s, http.MethodGet, "http://a.example", false)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
}

func TestCORSReflectedOriginVaries(t *testing.T) {
	s := NewServer(nil, nil, WithMetrics(false, ""), WithCORS(true, "http://a.example"))

	rec := corsRequest(s, http.MethodGet, "http://a.example", false)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "http://a.example" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Values(echo.HeaderVary); len(got) == 0 || !strings.Contains(strings.Join(got, ","), echo.HeaderOrigin) {
		t.Fatalf("vary = %v, want Origin", got)
	}

	rec = corsRequest(s, http.MethodGet, "http://b.example", false)
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != "" {
		t.Fatalf("disallowed origin stamped: %q", got)
	}
	if got := rec.Header().Values(echo.HeaderVary); len(got) == 0 {
		t.Fatalf("vary missing on disallowed origin")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(nil, nil, WithMetrics(false, ""), WithCORS(true, "http://a.example"))
	rec := corsRequest(s, http.MethodOptions, "http://a.example", true)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get(echo.HeaderAccessControlMaxAge) == "" {
		t.Fatalf("max age missing")
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodPost) {
		t.Fatalf("allow methods = %q", rec.Header().Get(echo.HeaderAccessControlAllowMethods))
	}
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func TestRateLimitBody(t *testing.T) {
	s := NewServer(nil, nil, WithMetrics(false, ""), WithRateLimit(denyAll{}))
	s.Echo().GET("/limited", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/limited", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != CodeTooManyRequests || body.Error != "Too many requests" {
		t.Fatalf("unexpected body %+v", body)
	}

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz limited: %d", rec.Code)
	}
}
