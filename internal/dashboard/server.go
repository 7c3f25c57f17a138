package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/mta-ridership-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const queryTimeout = 10 * time.Second

// topStationCount bounds the busiest-stations table on the index page.
const topStationCount = 10

// Server serves the dashboard pages plus health and metrics endpoints.
type Server struct {
	httpServer     *http.Server
	source         domain.RidershipSource
	ridershipTable string
	forecastTable  string
	logger         *slog.Logger
}

// NewServer creates the dashboard HTTP server. source may be a degraded
// implementation whose queries always fail; every page still renders, with
// warnings in place of the affected sections.
func NewServer(addr string, source domain.RidershipSource, ridershipTable, forecastTable string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:         source,
		ridershipTable: ridershipTable,
		forecastTable:  forecastTable,
		logger:         logger,
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /charts/ridership", s.handleRidershipChart)
	mux.HandleFunc("GET /charts/stations", s.handleStationChart)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("dashboard server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type indexData struct {
	TopStations  []domain.StationTotal
	StationsWarn string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	var data indexData
	stations, err := s.source.StationTotals(ctx, s.ridershipTable)
	if err != nil {
		s.logger.Warn("station totals unavailable", "error", err)
		data.StationsWarn = "Station data is unavailable. Run the load stage and check the database connection."
	} else {
		if len(stations) > topStationCount {
			stations = stations[:topStationCount]
		}
		data.TopStations = stations
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("rendering index", "error", err)
	}
}

func (s *Server) handleRidershipChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	historical, err := s.source.DailyRidership(ctx, s.ridershipTable)
	if err != nil {
		s.logger.Warn("daily ridership unavailable", "error", err)
		s.renderWarning(w, "Ridership data is unavailable. Run the pipeline stages and check the database connection.")
		return
	}

	// A missing forecast degrades to a historical-only chart.
	forecast, err := s.source.ForecastPoints(ctx, s.forecastTable)
	if err != nil {
		s.logger.Warn("forecast unavailable, rendering historical only", "error", err)
		forecast = nil
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RidershipChart(CombineSeries(historical, forecast)).Render(w); err != nil {
		s.logger.Error("rendering ridership chart", "error", err)
	}
}

func (s *Server) handleStationChart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	stations, err := s.source.StationTotals(ctx, s.ridershipTable)
	if err != nil {
		s.logger.Warn("station totals unavailable", "error", err)
		s.renderWarning(w, "Station data is unavailable. Run the pipeline stages and check the database connection.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := StationChart(stations).Render(w); err != nil {
		s.logger.Error("rendering station chart", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"}) //nolint:errcheck // best-effort health response
}

// renderWarning replaces a failed section with an explanatory message. The
// response is still 200 so the surrounding page keeps working.
func (s *Server) renderWarning(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := warningTemplate.Execute(w, message); err != nil {
		s.logger.Error("rendering warning", "error", err)
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>NYC Subway Ridership</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #fafafa; }
h1 { margin-bottom: 0.25rem; }
section { margin: 2rem 0; }
iframe { width: 100%; height: 520px; border: 1px solid #ddd; background: #fff; }
table { border-collapse: collapse; min-width: 28rem; background: #fff; }
th, td { border: 1px solid #ddd; padding: 0.4rem 0.8rem; text-align: left; }
td.num { text-align: right; }
.warning { color: #8a6d3b; background: #fcf8e3; border: 1px solid #faebcc; padding: 0.75rem; }
</style>
</head>
<body>
<h1>NYC Subway Ridership</h1>
<p>Hourly ridership from the MTA open data portal.</p>

<section>
<h2>Daily Ridership</h2>
<iframe src="/charts/ridership"></iframe>
</section>

<section>
<h2>Station Map</h2>
<iframe src="/charts/stations"></iframe>
</section>

<section>
<h2>Busiest Stations</h2>
{{if .StationsWarn}}
<p class="warning">{{.StationsWarn}}</p>
{{else}}
<table>
<tr><th>Station</th><th>Total Ridership</th></tr>
{{range .TopStations}}
<tr><td>{{.StationName}}</td><td class="num">{{.TotalRidership}}</td></tr>
{{end}}
</table>
{{end}}
</section>
</body>
</html>
`))

var warningTemplate = template.Must(template.New("warning").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><style>
.warning { font-family: sans-serif; color: #8a6d3b; background: #fcf8e3; border: 1px solid #faebcc; padding: 0.75rem; }
</style></head>
<body><p class="warning">{{.}}</p></body>
</html>
`))
