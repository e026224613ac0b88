// Package web serves the dashboard page. One route does all the work:
// search, disambiguation, and the weather card are states of GET /.
package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pulse-works/citypulse/internal/citypulse"
	"github.com/pulse-works/citypulse/internal/model"
	"github.com/pulse-works/citypulse/internal/resilience"
)

//go:embed views/*.html
var viewFS embed.FS

const (
	maxCityParam  = 120
	maxPlaceParam = 1200

	genericErrorMessage = "Weather data is temporarily unavailable. Please try again in a moment."
)

// safeMessagePrefixes gates which upstream failure messages reach the
// page verbatim. Everything else collapses to the generic banner.
var safeMessagePrefixes = []string{
	"Set openweather.api_key",
	"OpenWeather",
	"Nominatim",
}

// Handler renders the dashboard page.
type Handler struct {
	svc    *citypulse.Service
	tmpl   *template.Template
	logger *zap.Logger
}

// NewHandler parses the embedded templates and wires the service.
func NewHandler(svc *citypulse.Service, logger *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(viewFS, "views/*.html")
	if err != nil {
		return nil, err
	}
	return &Handler{svc: svc, tmpl: tmpl, logger: logger}, nil
}

// page holds the template data. At most one of Error, NoResults,
// Candidates, Dashboard is set per request.
type page struct {
	Query      string
	Error      string
	NoResults  bool
	Candidates []candidateView
	Dashboard  *dashboardView
}

type candidateView struct {
	Label string
	URL   string
}

type dashboardView struct {
	Place     model.Place
	Weather   model.Weather
	AQI       *model.AirQuality
	Sunrise   string
	Sunset    string
	FetchedAt string
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	city := r.URL.Query().Get("city")
	token := r.URL.Query().Get("place")

	if len(city) > maxCityParam || len(token) > maxPlaceParam {
		h.render(w, page{Error: genericErrorMessage})
		return
	}

	if strings.TrimSpace(city) == "" {
		h.render(w, page{})
		return
	}

	result, err := h.svc.Search(r.Context(), city)
	if err != nil {
		h.logger.Warn("search failed", zap.String("query", city), zap.Error(err))
		h.render(w, page{Query: city, Error: safeMessage(err)})
		return
	}

	p := page{Query: result.Query}

	selected := h.svc.ResolveSelection(token, result.Candidates)
	if selected == nil && len(result.Candidates) == 1 {
		selected = &result.Candidates[0]
	}

	switch {
	case selected != nil:
		dash, err := h.svc.BuildDashboard(r.Context(), *selected)
		if err != nil {
			h.logger.Warn("dashboard build failed",
				zap.String("place", selected.DisplayLabel), zap.Error(err))
			p.Error = safeMessage(err)
			break
		}
		p.Dashboard = &dashboardView{
			Place:     dash.Place,
			Weather:   dash.Weather,
			AQI:       dash.AirQuality,
			Sunrise:   dash.Weather.SunriseLocal().Format("15:04"),
			Sunset:    dash.Weather.SunsetLocal().Format("15:04"),
			FetchedAt: dash.FetchedAt.Format("15:04 MST"),
		}
	case len(result.Candidates) == 0:
		p.NoResults = true
	default:
		p.Candidates = make([]candidateView, 0, len(result.Candidates))
		for _, c := range result.Candidates {
			params := url.Values{"city": {result.Query}, "place": {c.Token()}}
			p.Candidates = append(p.Candidates, candidateView{
				Label: c.DisplayLabel,
				URL:   "/?" + params.Encode(),
			})
		}
	}

	h.render(w, p)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"}) //nolint:errcheck
}

func (h *Handler) render(w http.ResponseWriter, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.tmpl.ExecuteTemplate(w, "index.html", p); err != nil {
		h.logger.Error("template render failed", zap.Error(err))
	}
}

// safeMessage returns the upstream failure message when it carries an
// approved, user-actionable prefix; otherwise the generic banner text.
func safeMessage(err error) string {
	sue, ok := resilience.AsServiceUnavailable(err)
	if !ok {
		return genericErrorMessage
	}
	for _, prefix := range safeMessagePrefixes {
		if strings.HasPrefix(sue.Message, prefix) {
			return sue.Message
		}
	}
	return genericErrorMessage
}
