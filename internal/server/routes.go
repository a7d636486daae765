package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handlerFunc is a route handler that reports failures as errors.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// Route is one entry of the static route table.
type Route struct {
	Name    string
	Method  string
	Pattern string
	Handler handlerFunc
}

// Routes returns the route table in registration order.
func (s *Server) Routes() []Route {
	const rng = "/api/sites/{site}/ranges/{range}"
	return []Route{
		{"home", http.MethodGet, "/", s.home},
		{"health", http.MethodGet, "/health", s.health},
		{"metrics", http.MethodGet, "/metrics", s.metrics},
		{"sites", http.MethodGet, "/api/sites", s.sites},
		{"site_map", http.MethodGet, "/api/sites/map", s.siteMap},
		{"date_ranges", http.MethodGet, "/api/sites/{site}/ranges", s.dateRanges},
		{"shapes", http.MethodGet, rng + "/shapes", s.shapes},
		{"areas_csv", http.MethodGet, rng + "/areas.csv", s.areasCSV},
		{"render", http.MethodGet, rng + "/render", s.render},
		{"iceberg_map", http.MethodGet, rng + "/map", s.icebergMap},
		{"melt_rates", http.MethodGet, rng + "/meltrates", s.meltRates},
		{"melt_rates_csv", http.MethodGet, rng + "/meltrates.csv", s.meltRatesCSV},
		{"correlogram", http.MethodGet, rng + "/correlogram", s.correlogram},
		{"coverage", http.MethodGet, "/api/coverage", s.coverage},
		{"methods", http.MethodGet, "/api/methods", s.methods},
	}
}

func (s *Server) metrics(w http.ResponseWriter, r *http.Request) error {
	promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	return nil
}
