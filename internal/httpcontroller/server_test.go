package httpcontroller

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/classifier"
	"github.com/tphakala/microbe-go/internal/conf"
	"github.com/tphakala/microbe-go/internal/dataset"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/observability"
	"github.com/tphakala/microbe-go/internal/predictor"
	"github.com/tphakala/microbe-go/internal/trainer"
)

var modelPath, encoderPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "httpcontroller-test")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := trainTestModel(dir); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = os.RemoveAll(dir)
		os.Exit(1)
	}
	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func trainTestModel(dir string) error {
	rows, err := dataset.Generate(600, catalog.Default(), dataset.NewRandomSource(5))
	if err != nil {
		return err
	}
	dataPath := filepath.Join(dir, dataset.DefaultPath)
	if err := dataset.SaveFile(dataPath, rows); err != nil {
		return err
	}
	params := classifier.DefaultParams()
	params.Estimators = 10
	res, err := trainer.New(trainer.Options{
		Algorithm:   classifier.RandomForest,
		Scaler:      classifier.ScalerMinMax,
		DatasetPath: dataPath,
		ModelDir:    dir,
		TestRatio:   0.2,
		Params:      params,
	}).Run(context.Background())
	if err != nil {
		return err
	}
	modelPath, encoderPath = res.ModelPath, res.EncoderPath
	return nil
}

func newTestServer(t *testing.T, model string) (*Server, *observability.Metrics) {
	t.Helper()

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	settings := &conf.Settings{}
	settings.WebServer.Enabled = true
	settings.WebServer.Listen = "127.0.0.1:0"

	loader := predictor.NewLoader(model, encoderPath, 0, predictor.WithLoaderMetrics(m.Predictor))
	pred := predictor.New(loader, predictor.WithMetrics(m.Predictor), predictor.WithSource(predictor.SourceWeb))

	s, err := New(settings, pred, m, nil)
	require.NoError(t, err)
	return s, m
}

// ideonellaForm lies inside Ideonella sakaiensis' envelope and above every
// other organism's salinity limit.
func ideonellaForm() url.Values {
	return url.Values{
		"temperature":  {"25"},
		"ph":           {"7"},
		"dissolved_o2": {"11"},
		"bod":          {"6"},
		"conductivity": {"400"},
		"salinity":     {"4.8"},
		"nitrate":      {"10"},
	}
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func postForm(s *Server, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return do(s, req)
}

func postJSON(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return do(s, req)
}

func TestIndexRendersDefaults(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `name="temperature"`)
	assert.Contains(t, body, `value="25"`)
	assert.Contains(t, body, `step="0.1"`)
	assert.Contains(t, body, `value="heavy-metal"`)
	assert.Contains(t, body, "Plastic materials on the water body")
	assert.NotContains(t, body, "Prediction result")
}

func TestPredictForm(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	form := ideonellaForm()
	form["impurity"] = []string{"plastic", "heavy-metal"}
	rec := postForm(s, form)
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "The predicted microbe that can survive in the specified environment is: Ideonella sakaiensis.")
	assert.Contains(t, body, "The predicted microbe will be able to do plastic remediation.")
	assert.Contains(t, body, "The predicted microbe will not be able to do heavy metal remediation.")
	// Submitted values and selections are kept on the re-rendered form.
	assert.Contains(t, body, `value="4.8"`)
	assert.Contains(t, body, `value="plastic" checked`)
}

func TestPredictFormRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	tests := []struct {
		name    string
		mutate  func(url.Values)
		message string
	}{
		{"out of range", func(v url.Values) { v.Set("ph", "12") }, "reading out of range"},
		{"missing field", func(v url.Values) { v.Del("temperature") }, "missing or not numbers"},
		{"not a number", func(v url.Values) { v.Set("bod", "lots") }, "missing or not numbers"},
		{"unknown impurity", func(v url.Values) { v.Set("impurity", "radioactive") }, "radioactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := ideonellaForm()
			tt.mutate(form)
			rec := postForm(s, form)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.NotContains(t, rec.Body.String(), "Prediction result")
		})
	}
}

func TestPredictAPI(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	rec := postJSON(s, `{"temperature":25,"ph":7,"dissolved_o2":11,"bod":6,"conductivity":400,"salinity":4.8,"nitrate":10,"impurities":["pesticide","plastic"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PredictResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ideonella sakaiensis", resp.Organism)
	assert.Len(t, resp.Scores, catalog.Default().Len())
	require.Len(t, resp.Verdicts, 2)
	assert.Equal(t, "plastic", resp.Verdicts[0].Impurity)
	assert.True(t, resp.Verdicts[0].Capable)
	assert.Equal(t, "pesticide", resp.Verdicts[1].Impurity)
	assert.False(t, resp.Verdicts[1].Capable)
	assert.True(t, strings.HasPrefix(resp.Report, "The predicted microbe that can survive"))
}

func TestPredictAPIErrors(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	rec := postJSON(s, `{"ph":3}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postJSON(s, `{"impurities":["radioactive"]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = postJSON(s, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing, _ := newTestServer(t, filepath.Join(t.TempDir(), "none.gob"))
	rec = postJSON(missing, `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMalformedBodyKeepsCause(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict", strings.NewReader(`{not json`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := s.Echo.NewContext(req, httptest.NewRecorder())
	c.SetPath("/api/v1/predict")

	err := s.handlePredictAPI(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, "malformed request body", he.Message)

	require.Error(t, he.Internal)
	assert.True(t, errors.IsCategory(he.Internal, errors.CategoryHTTP))
	var ee *errors.EnhancedError
	require.ErrorAs(t, he.Internal, &ee)
	assert.Equal(t, "/api/v1/predict", ee.GetContext()["route"])
	assert.Equal(t, http.MethodPost, ee.GetContext()["method"])
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	health := func() HealthResponse {
		rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
		require.Equal(t, http.StatusOK, rec.Code)
		var h HealthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
		return h
	}

	h := health()
	assert.Equal(t, "ok", h.Status)
	assert.False(t, h.ModelLoaded)

	require.Equal(t, http.StatusOK, postForm(s, ideonellaForm()).Code)
	assert.True(t, health().ModelLoaded)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `microbe_http_requests_total{method="POST",path="/predict",status_code="200"} 1`)
	assert.Contains(t, body, `microbe_predictions_total{organism="Ideonella sakaiensis",status="success"} 1`)
	assert.Contains(t, body, "microbe_model_loaded 1")
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t, modelPath)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	assert.Len(t, rec.Header().Get(requestIDHeader), 8)

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	req.Header.Set(requestIDHeader, "abc123")
	rec = do(s, req)
	assert.Equal(t, "abc123", rec.Header().Get(requestIDHeader))
}

func TestServeShutsDownCleanly(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	s, _ := newTestServer(t, modelPath)
	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{DisableKeepAlives: true},
	}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(ShutdownTimeout):
		t.Fatal("server did not stop")
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(predictor.Reading{PH: 20}.Validate()))
}
