package httpcontroller

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/microbe-go/internal/logger"
	"github.com/tphakala/microbe-go/internal/observability/metrics"
)

//go:embed views/*.html
var viewsFS embed.FS

// TemplateRenderer is the html/template renderer for Echo.
type TemplateRenderer struct {
	templates *template.Template
	metrics   *metrics.HTTPMetrics
	log       logger.Logger
}

func newTemplateRenderer(m *metrics.HTTPMetrics, log logger.Logger) (*TemplateRenderer, error) {
	tmpl, err := template.New("").Funcs(templateFunctions()).ParseFS(viewsFS, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl, metrics: m, log: log}, nil
}

// Render executes the named template into a buffer first so a failing
// template never produces a half-written page.
func (t *TemplateRenderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	var buf bytes.Buffer
	if err := t.templates.ExecuteTemplate(&buf, name, data); err != nil {
		t.metrics.RecordTemplateRenderError(name)
		t.log.Error("template execution failed", logger.String("template", name), logger.Error(err))
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func templateFunctions() template.FuncMap {
	return template.FuncMap{
		"percent": func(p float64) string {
			return fmt.Sprintf("%.1f%%", p*100)
		},
		"num": func(v float64) string {
			return fmt.Sprintf("%g", v)
		},
	}
}
