package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/icebergviz/pkg/buildinfo"
	"github.com/matzehuels/icebergviz/pkg/config"
	"github.com/matzehuels/icebergviz/pkg/errors"
	"github.com/matzehuels/icebergviz/pkg/pipeline"
	"github.com/matzehuels/icebergviz/pkg/source"
)

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, logger *log.Logger, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatus(code)
	msg := errors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "code", code, "error", err)
		msg = "internal error"
	}
	if encErr := writeJSON(w, status, errorBody{Code: code, Message: msg}); encErr != nil {
		logger.Debug("write error body", "error", encErr)
	}
}

// writeArtifact writes data with the content type of format.
func writeArtifact(w http.ResponseWriter, format string, data []byte) error {
	ct, ok := pipeline.ContentTypes[format]
	if !ok {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	_, err := w.Write(data)
	return err
}

func notFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

// =============================================================================
// Request parsing
// =============================================================================

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}

func queryList(r *http.Request, name string) []string {
	var out []string
	for _, raw := range r.URL.Query()[name] {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func queryFormat(r *http.Request, def string) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return strings.ToLower(f)
	}
	return def
}

// execute runs the pipeline for the site and range in the URL.
func (s *Server) execute(r *http.Request, opts pipeline.Options) (*pipeline.Result, error) {
	opts.Site = chi.URLParam(r, "site")
	opts.DateRange = chi.URLParam(r, "range")
	opts.Logger = s.Logger
	return s.Runner.Execute(r.Context(), opts)
}

// serveRun writes the single artifact of a pipeline run.
func (s *Server) serveRun(w http.ResponseWriter, r *http.Request, opts pipeline.Options) error {
	res, err := s.execute(r, opts)
	if err != nil {
		return err
	}
	format := opts.Formats[0]
	if res.CacheInfo.RenderHit {
		w.Header().Set("X-Cache", "hit")
	} else {
		w.Header().Set("X-Cache", "miss")
		if len(res.Warnings) > 0 {
			w.Header().Set("X-Warnings", strconv.Itoa(len(res.Warnings)))
		}
	}
	return writeArtifact(w, format, res.Artifacts[format])
}

// =============================================================================
// Handlers
// =============================================================================

type homeBody struct {
	Name     string          `json:"name"`
	Version  string          `json:"version"`
	Defaults config.Defaults `json:"defaults"`
	Routes   []routeBody     `json:"routes"`
}

type routeBody struct {
	Name    string `json:"name"`
	Method  string `json:"method"`
	Pattern string `json:"pattern"`
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) error {
	routes := s.Routes()
	body := homeBody{
		Name:     "icebergviz",
		Version:  buildinfo.Version,
		Defaults: s.Config.Defaults,
		Routes:   make([]routeBody, len(routes)),
	}
	for i, rt := range routes {
		body.Routes[i] = routeBody{Name: rt.Name, Method: rt.Method, Pattern: rt.Pattern}
	}
	return writeJSON(w, http.StatusOK, body)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// siteBody is a catalog site with its glacier metadata when known.
type siteBody struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Region string  `json:"region,omitempty"`
	Lat    float64 `json:"lat,omitempty"`
	Lon    float64 `json:"lon,omitempty"`
	Color  string  `json:"color,omitempty"`
}

func (s *Server) sites(w http.ResponseWriter, r *http.Request) error {
	ids, err := s.Runner.Catalog.Sites()
	if err != nil {
		return err
	}
	glaciers, err := s.Figures.Sites()
	if err != nil {
		s.Logger.Warn("glacier locations unavailable", "error", err)
	}
	out := make([]siteBody, len(ids))
	for i, id := range ids {
		out[i] = siteBody{ID: id}
		if g, err := source.FindSite(glaciers, id); err == nil {
			out[i] = siteBody{ID: id, Name: g.Name, Region: g.Region, Lat: g.Lat, Lon: g.Lon, Color: g.Color()}
		}
	}
	return writeJSON(w, http.StatusOK, out)
}

func (s *Server) siteMap(w http.ResponseWriter, r *http.Request) error {
	selected := r.URL.Query().Get("site")
	if selected == "" {
		selected = s.Config.Defaults.MapSite
	}
	data, err := s.Figures.SiteMap(selected)
	if err != nil {
		return err
	}
	return writeArtifact(w, pipeline.FormatGeoJSON, data)
}

func (s *Server) dateRanges(w http.ResponseWriter, r *http.Request) error {
	ranges, err := s.Runner.Catalog.DateRanges(chi.URLParam(r, "site"))
	if err != nil {
		return err
	}
	if ranges == nil {
		ranges = []source.DateRange{}
	}
	return writeJSON(w, http.StatusOK, ranges)
}

func (s *Server) shapes(w http.ResponseWriter, r *http.Request) error {
	return s.serveRun(w, r, pipeline.Options{
		View:    pipeline.ViewTable,
		Formats: []string{pipeline.FormatJSON},
		IDs:     queryList(r, "ids"),
	})
}

func (s *Server) areasCSV(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s_%s_areas.csv"`,
		chi.URLParam(r, "site"), chi.URLParam(r, "range")))
	return s.serveRun(w, r, pipeline.Options{
		View:    pipeline.ViewTable,
		Formats: []string{pipeline.FormatCSV},
		IDs:     queryList(r, "ids"),
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	refresh, err := queryBool(r, "refresh")
	if err != nil {
		return err
	}
	view := q.Get("view")
	if view == "" {
		view = pipeline.DefaultView
	}
	if err := pipeline.ValidateView(view); err != nil {
		return err
	}
	return s.serveRun(w, r, pipeline.Options{
		View:      view,
		Mode:      q.Get("mode"),
		Formats:   []string{queryFormat(r, pipeline.ViewFormats[view][0])},
		AngleMean: q.Get("angle_mean"),
		IDs:       queryList(r, "ids"),
		Refresh:   refresh,
	})
}

func (s *Server) icebergMap(w http.ResponseWriter, r *http.Request) error {
	return s.serveRun(w, r, pipeline.Options{
		View:    pipeline.ViewMap,
		Formats: []string{pipeline.FormatGeoJSON},
		IDs:     queryList(r, "ids"),
	})
}

func (s *Server) meltRates(w http.ResponseWriter, r *http.Request) error {
	t, err := s.Figures.MeltRates(chi.URLParam(r, "site"), chi.URLParam(r, "range"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, t)
}

func (s *Server) meltRatesCSV(w http.ResponseWriter, r *http.Request) error {
	t, err := s.Figures.MeltRates(chi.URLParam(r, "site"), chi.URLParam(r, "range"))
	if err != nil {
		return err
	}
	data, err := t.CSV()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode melt rates")
	}
	return writeArtifact(w, pipeline.FormatCSV, data)
}

func (s *Server) correlogram(w http.ResponseWriter, r *http.Request) error {
	format := queryFormat(r, pipeline.FormatSVG)
	data, err := s.Figures.Correlogram(r.Context(), chi.URLParam(r, "site"), chi.URLParam(r, "range"), format)
	if err != nil {
		return err
	}
	return writeArtifact(w, format, data)
}

func (s *Server) coverage(w http.ResponseWriter, r *http.Request) error {
	format := queryFormat(r, pipeline.FormatSVG)
	data, err := s.Figures.Coverage(r.Context(), format)
	if err != nil {
		return err
	}
	return writeArtifact(w, format, data)
}

func (s *Server) methods(w http.ResponseWriter, r *http.Request) error {
	format := queryFormat(r, pipeline.FormatSVG)
	data, err := s.Figures.Methods(r.Context(), format)
	if err != nil {
		return err
	}
	return writeArtifact(w, format, data)
}
