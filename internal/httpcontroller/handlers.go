package httpcontroller

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/microbe-go/internal/catalog"
	"github.com/tphakala/microbe-go/internal/errors"
	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/predictor"
	"github.com/tphakala/microbe-go/internal/remediation"
)

const indexTemplate = "index.html"

// FormField is one measurement input on the form.
type FormField struct {
	Name    string
	Label   string
	Min     float64
	Max     float64
	Step    float64
	Value   float64
	Invalid bool
}

// ImpurityOption is one impurity checkbox.
type ImpurityOption struct {
	Key         string
	Label       string
	Description string
	Checked     bool
}

// PageData is what index.html renders.
type PageData struct {
	Title      string
	Fields     []FormField
	Impurities []ImpurityOption
	Outcome    *predictor.Outcome
	Error      string
}

func formPage(reading predictor.Reading, selected []remediation.Impurity, invalid []catalog.Feature) *PageData {
	values := reading.Values()
	fields := make([]FormField, 0, catalog.NumFeatures)
	for _, f := range catalog.Features() {
		r := catalog.ReadingRange(f)
		fields = append(fields, FormField{
			Name:    f.String(),
			Label:   predictor.FeatureLabel(f),
			Min:     r.Lower,
			Max:     r.Upper,
			Step:    predictor.Step(f),
			Value:   values[f],
			Invalid: slices.Contains(invalid, f),
		})
	}

	options := make([]ImpurityOption, 0, len(remediation.Impurities()))
	for _, imp := range remediation.Impurities() {
		options = append(options, ImpurityOption{
			Key:         imp.Key(),
			Label:       string(imp),
			Description: imp.Description(),
			Checked:     slices.Contains(selected, imp),
		})
	}

	return &PageData{
		Title:      "Microbe prediction",
		Fields:     fields,
		Impurities: options,
	}
}

func (s *Server) handleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, indexTemplate, formPage(predictor.DefaultReading(), nil, nil))
}

func (s *Server) handlePredictForm(c echo.Context) error {
	params, err := c.FormParams()
	if err != nil {
		return s.badRequest(c, err, "malformed form")
	}

	reading, invalid := parseReading(params)
	impurities, impErr := predictor.ParseImpurities(params["impurity"])

	if len(invalid) > 0 || impErr != nil {
		page := formPage(reading, impurities, invalid)
		if impErr != nil {
			page.Error = impErr.Error()
		} else {
			page.Error = "Some measurements are missing or not numbers."
		}
		return c.Render(http.StatusUnprocessableEntity, indexTemplate, page)
	}

	out, err := s.Predictor.Predict(c.Request().Context(), reading, impurities)
	page := formPage(reading, impurities, reading.InvalidFeatures())
	if err != nil {
		s.logPredictError(c, err)
		page.Error = err.Error()
		return c.Render(statusFor(err), indexTemplate, page)
	}
	page.Outcome = out
	return c.Render(http.StatusOK, indexTemplate, page)
}

// parseReading reads every measurement from the form. Fields that are
// missing or not numbers keep their default value and are reported.
func parseReading(params url.Values) (predictor.Reading, []catalog.Feature) {
	reading := predictor.DefaultReading()
	var invalid []catalog.Feature
	for _, f := range catalog.Features() {
		raw := strings.TrimSpace(params.Get(f.String()))
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			invalid = append(invalid, f)
			continue
		}
		reading.Set(f, v)
	}
	return reading, invalid
}

// PredictRequest is the JSON body of /api/v1/predict. Omitted
// measurements take the form's default values.
type PredictRequest struct {
	Temperature  float64  `json:"temperature"`
	PH           float64  `json:"ph"`
	DissolvedO2  float64  `json:"dissolved_o2"`
	BOD          float64  `json:"bod"`
	Conductivity float64  `json:"conductivity"`
	Salinity     float64  `json:"salinity"`
	Nitrate      float64  `json:"nitrate"`
	Impurities   []string `json:"impurities"`
}

// ScoreResponse is one organism's probability.
type ScoreResponse struct {
	Organism    string  `json:"organism"`
	Probability float64 `json:"probability"`
}

// VerdictResponse is the remediation answer for one impurity.
type VerdictResponse struct {
	Impurity string `json:"impurity"`
	Capable  bool   `json:"capable"`
	Message  string `json:"message"`
}

// PredictResponse is the JSON result of /api/v1/predict.
type PredictResponse struct {
	ID         string            `json:"id,omitempty"`
	Organism   string            `json:"organism"`
	Confidence float64           `json:"confidence"`
	Scores     []ScoreResponse   `json:"scores"`
	Verdicts   []VerdictResponse `json:"verdicts"`
	Report     string            `json:"report"`
}

func (s *Server) handlePredictAPI(c echo.Context) error {
	d := predictor.DefaultReading()
	req := PredictRequest{
		Temperature:  d.Temperature,
		PH:           d.PH,
		DissolvedO2:  d.DissolvedO2,
		BOD:          d.BOD,
		Conductivity: d.Conductivity,
		Salinity:     d.Salinity,
		Nitrate:      d.Nitrate,
	}
	if err := c.Bind(&req); err != nil {
		return s.badRequest(c, err, "malformed request body")
	}

	impurities, err := predictor.ParseImpurities(req.Impurities)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	reading := predictor.Reading{
		Temperature:  req.Temperature,
		PH:           req.PH,
		DissolvedO2:  req.DissolvedO2,
		BOD:          req.BOD,
		Conductivity: req.Conductivity,
		Salinity:     req.Salinity,
		Nitrate:      req.Nitrate,
	}
	out, err := s.Predictor.Predict(c.Request().Context(), reading, impurities)
	if err != nil {
		s.logPredictError(c, err)
		return echo.NewHTTPError(statusFor(err), err.Error())
	}

	resp := PredictResponse{
		ID:         out.ID,
		Organism:   out.Organism,
		Confidence: out.Confidence,
		Scores:     make([]ScoreResponse, 0, len(out.Scores)),
		Verdicts:   make([]VerdictResponse, 0, len(out.Verdicts)),
		Report:     out.Report(),
	}
	for _, sc := range out.Scores {
		resp.Scores = append(resp.Scores, ScoreResponse{Organism: sc.Organism, Probability: sc.Probability})
	}
	for _, v := range out.Verdicts {
		resp.Verdicts = append(resp.Verdicts, VerdictResponse{
			Impurity: string(v.Impurity),
			Capable:  v.Capable,
			Message:  v.String(),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

// HealthResponse is the body of /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok"}
	if s.Metrics != nil {
		resp.ModelLoaded = s.Metrics.Predictor.ModelLoaded()
	}
	return c.JSON(http.StatusOK, resp)
}

// statusFor maps a prediction error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch errors.CategoryOf(err) {
	case errors.CategoryValidation:
		return http.StatusUnprocessableEntity
	case errors.CategoryNotFound, errors.CategoryModelLoad:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// badRequest logs a request that could not be decoded and returns the
// client-facing error with the cause attached as its internal error.
func (s *Server) badRequest(c echo.Context, err error, message string) *echo.HTTPError {
	cause := errors.New(err).
		Component("http").
		Category(errors.CategoryHTTP).
		Context("method", c.Request().Method).
		Context("route", c.Path()).
		Build()
	s.log.Debug(message,
		logger.String("request_id", requestID(c)),
		logger.Error(cause))
	return echo.NewHTTPError(http.StatusBadRequest, message).SetInternal(cause)
}

func (s *Server) logPredictError(c echo.Context, err error) {
	if statusFor(err) == http.StatusUnprocessableEntity {
		s.log.Debug("rejected prediction request",
			logger.String("request_id", requestID(c)),
			logger.Error(err))
		return
	}
	s.log.Error("prediction failed",
		logger.String("request_id", requestID(c)),
		logger.Error(err))
}
