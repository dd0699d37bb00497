package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockCast/internal/domain/errs"
	"StockCast/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

type fakePredictor struct {
	res    *models.ForecastResult
	series models.Series
	err    error
	calls  int
	got    models.ForecastRequest
}

func (f *fakePredictor) Run(_ context.Context, req models.ForecastRequest) (*models.ForecastResult, error) {
	f.calls++
	f.got = req
	return f.res, f.err
}

func (f *fakePredictor) History(_ context.Context, _ string, _, _ time.Time) (models.Series, error) {
	f.calls++
	return f.series, f.err
}

func day(s string) time.Time {
	t, _ := time.Parse(models.DateLayout, s)
	return t
}

func sampleResult() *models.ForecastResult {
	return &models.ForecastResult{
		Ticker: "AAPL",
		Model:  "linear_trend",
		Historical: models.Series{
			{Date: day("2023-01-12"), Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100},
			{Date: day("2023-01-13"), Open: 10.5, High: 12, Low: 10, Close: 11.25, Volume: 120},
		},
		Predicted: []models.PredictedPoint{
			{Date: day("2023-01-16"), Price: 11.5},
			{Date: day("2023-01-17"), Price: 11.75},
		},
		Metrics: models.Metrics{MAE: 0.5, MSE: 0.25, RMSE: 0.5},
	}
}

func newTestEcho(p Predictor) *echo.Echo {
	e := echo.New()
	NewPredictEchoHandler(nil, p).RegisterRoutes(e)
	return e
}

func postPredict(e *echo.Echo, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/predict", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const validBody = `{"ticker":"AAPL","startDate":"2023-01-02","endDate":"2023-01-13","futureDays":2}`

func TestPredictSuccess(t *testing.T) {
	p := &fakePredictor{res: sampleResult()}
	rec := postPredict(newTestEcho(p), validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp models.PredictResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.HistoricalData.Dates) != 2 || resp.Predictions == nil || len(resp.Predictions.Prices) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Predictions.Dates[0] != "2023-01-16" || resp.Metrics == nil || resp.Metrics.RMSE != 0.5 {
		t.Fatalf("unexpected predictions %+v metrics %+v", resp.Predictions, resp.Metrics)
	}
	if p.got.HorizonDays != 2 || !p.got.StartDate.Equal(day("2023-01-02")) {
		t.Fatalf("request not converted: %+v", p.got)
	}
}

func TestPredictMissingParameters(t *testing.T) {
	p := &fakePredictor{res: sampleResult()}
	rec := postPredict(newTestEcho(p), `{"ticker":"AAPL"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if p.calls != 0 {
		t.Fatal("predictor must not run on invalid input")
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["code"] != "ERR_BAD_REQUEST" || body["error"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPredictErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", errs.Validation("op", "startDate", "startDate must not be after endDate"), http.StatusBadRequest, "startDate must not be after endDate"},
		{"no data", errs.NoData("op", "ZZZZ"), http.StatusNotFound, "No data found for the given ticker and date range"},
		{"timeout", errs.Upstream("op", context.DeadlineExceeded), http.StatusGatewayTimeout, ""},
		{"upstream", errs.Upstream("op", errors.New("dial tcp")), http.StatusBadGateway, ""},
		{"forecast", errs.Forecast("op", errors.New("nan weights")), http.StatusInternalServerError, "Failed to process prediction"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "Failed to process prediction"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postPredict(newTestEcho(&fakePredictor{err: tc.err}), validBody)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			var body map[string]any
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if tc.msg != "" && body["error"] != tc.msg {
				t.Fatalf("error = %v, want %q", body["error"], tc.msg)
			}
			if strings.Contains(rec.Body.String(), "nan weights") || strings.Contains(rec.Body.String(), "dial tcp") {
				t.Fatalf("internal detail leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestHistory(t *testing.T) {
	p := &fakePredictor{series: sampleResult().Historical}
	e := newTestEcho(p)
	req := httptest.NewRequest(http.MethodGet, "/api/history?ticker=AAPL&startDate=2023-01-02&endDate=2023-01-13", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp models.PredictResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if len(resp.HistoricalData.Prices) != 2 || resp.Predictions != nil || resp.Metrics != nil {
		t.Fatalf("unexpected history response %s", rec.Body.String())
	}
}

func TestHistoryBadDate(t *testing.T) {
	p := &fakePredictor{}
	e := newTestEcho(p)
	req := httptest.NewRequest(http.MethodGet, "/api/history?ticker=AAPL&startDate=01/02/2023&endDate=2023-01-13", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || p.calls != 0 {
		t.Fatalf("status = %d calls = %d", rec.Code, p.calls)
	}
}

func dialStream(t *testing.T, p Predictor) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(newTestEcho(p))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/predict/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) models.StreamEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev models.StreamEvent
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func TestPredictStreamSuccess(t *testing.T) {
	conn := dialStream(t, &fakePredictor{res: sampleResult()})
	if err := conn.WriteMessage(websocket.TextMessage, []byte(validBody)); err != nil {
		t.Fatalf("write: %v", err)
	}
	if ev := readEvent(t, conn); ev.State != StateLoading {
		t.Fatalf("first state = %q", ev.State)
	}
	ev := readEvent(t, conn)
	if ev.State != StateSuccess || ev.Result == nil || len(ev.Result.Predictions.Dates) != 2 {
		t.Fatalf("unexpected terminal event %+v", ev)
	}
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}

func TestPredictStreamFailure(t *testing.T) {
	conn := dialStream(t, &fakePredictor{err: errs.NoData("op", "ZZZZ")})
	_ = conn.WriteMessage(websocket.TextMessage, []byte(validBody))
	if ev := readEvent(t, conn); ev.State != StateLoading {
		t.Fatalf("first state = %q", ev.State)
	}
	ev := readEvent(t, conn)
	if ev.State != StateFailed || ev.Error == nil || ev.Error.Code != "ERR_NOT_FOUND" {
		t.Fatalf("unexpected terminal event %+v", ev)
	}
}

func TestPredictStreamInvalidRequest(t *testing.T) {
	p := &fakePredictor{res: sampleResult()}
	conn := dialStream(t, p)
	_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"ticker":"AAPL","futureDays":0}`))
	ev := readEvent(t, conn)
	if ev.State != StateFailed || ev.Error == nil || ev.Error.Code != "ERR_BAD_REQUEST" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if p.calls != 0 {
		t.Fatal("predictor must not run on invalid input")
	}
}

type blockingPredictor struct {
	fakePredictor
	cancelled chan struct{}
}

func (b *blockingPredictor) Run(ctx context.Context, _ models.ForecastRequest) (*models.ForecastResult, error) {
	<-ctx.Done()
	close(b.cancelled)
	return nil, ctx.Err()
}

func TestPredictStreamCancelsRunOnDisconnect(t *testing.T) {
	p := &blockingPredictor{cancelled: make(chan struct{})}
	conn := dialStream(t, p)
	_ = conn.WriteMessage(websocket.TextMessage, []byte(validBody))
	if ev := readEvent(t, conn); ev.State != StateLoading {
		t.Fatalf("first state = %q", ev.State)
	}
	conn.Close()

	select {
	case <-p.cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("run was not cancelled after the client disconnected")
	}
}
