package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"kilometers": displayKilometers,
			"location":   displayLocation,
			"oldPrice":   displayOldPrice,
			"listingsJSON": func(d *Data) (template.JS, error) {
				raw, err := json.Marshal(d.Listings)
				if err != nil {
					return "", err
				}
				return template.JS(raw), nil
			},
		}).
		ParseFS(templateFS, "templates/report.html.tmpl"))

// WriteHTML renders the HTML report to the configured path
func (g *Generator) WriteHTML(data *Data) error {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(g.HTMLPath), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(g.HTMLPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write html report: %w", err)
	}

	g.logger.Info("html report written",
		zap.String("path", g.HTMLPath),
		zap.Int("listings", len(data.Listings)))
	return nil
}

// RenderHTML renders the report to a byte slice, for tests and previews
func RenderHTML(data *Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
