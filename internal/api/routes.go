// Package api provides HTTP handlers for the transfer function server.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/soma-tiles/tfserver/internal/service"
	"github.com/soma-tiles/tfserver/internal/store"
	"github.com/soma-tiles/tfserver/pkg/tfio"
)

const (
	maxImportBodyBytes = 4 << 20
	maxFilterBodyBytes = 32 << 20
)

// RouterConfig contains router configuration.
type RouterConfig struct {
	TransFuncs  *service.TransFuncService
	Selections  *service.SelectionService
	CORSOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Get("/api/stats", statsHandler(cfg.TransFuncs))

	r.Route("/api/transfuncs", func(r chi.Router) {
		r.Get("/", listTransFuncsHandler(cfg.TransFuncs))
		r.Get("/{name}", getTransFuncHandler(cfg.TransFuncs))
		r.Put("/{name}", putTransFuncHandler(cfg.TransFuncs))
		r.Delete("/{name}", deleteTransFuncHandler(cfg.TransFuncs))
		r.Post("/{name}/preset/{colormap}", presetHandler(cfg.TransFuncs))
		r.Get("/{name}/table", tableHandler(cfg.TransFuncs))
		r.Get("/{name}/strip.png", stripHandler(cfg.TransFuncs))
		r.Get("/{name}/export.{ext}", exportHandler(cfg.TransFuncs))
		r.Get("/{name}/mapping", mappingHandler(cfg.TransFuncs))
		r.Get("/{name}/mean", meanHandler(cfg.TransFuncs))
	})

	r.Route("/api/colormaps", func(r chi.Router) {
		r.Get("/", listColormapsHandler(cfg.TransFuncs))
		r.Get("/{colormap}", colormapHandler(cfg.TransFuncs))
	})

	r.Route("/api/selections", func(r chi.Router) {
		r.Post("/", createSelectionHandler(cfg.Selections))
		r.Get("/", listSelectionsHandler(cfg.Selections))
		r.Get("/{id}", getSelectionHandler(cfg.Selections))
		r.Delete("/{id}", deleteSelectionHandler(cfg.Selections))
		r.Post("/{id}/filter", filterHandler(cfg.Selections))
	})

	return r
}

// writeError maps service errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, tfio.ErrMalformed),
		errors.Is(err, tfio.ErrUnknownFormat):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "failed to encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

// queryFloat parses an optional finite float query parameter.
func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	s := strings.TrimSpace(r.URL.Query().Get(key))
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("invalid " + key)
	}
	return v, nil
}

func statsHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Stats())
	}
}

func listTransFuncsHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"transfuncs": svc.List(),
		})
	}
}

func getTransFuncHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		t, err := svc.Get(name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransFuncJSON(name, t))
	}
}

// putTransFuncHandler stores the request body under the name. With a format
// parameter the body is a file in that format, otherwise the JSON form
// returned by GET.
func putTransFuncHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		body := io.LimitReader(r.Body, maxImportBodyBytes)
		format := strings.TrimSpace(r.URL.Query().Get("format"))

		if format == "" || format == "json" {
			var req transFuncJSON
			if err := json.NewDecoder(body).Decode(&req); err != nil {
				http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
				return
			}
			t, err := req.table(svc.DefaultWidth())
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := svc.Put(name, t); err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, newTransFuncJSON(name, t))
			return
		}

		t, err := svc.Import(name, format, body)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransFuncJSON(name, t))
	}
}

func deleteTransFuncHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(chi.URLParam(r, "name")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func presetHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		t, err := svc.ApplyPreset(name, chi.URLParam(r, "colormap"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newTransFuncJSON(name, t))
	}
}

func tableHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolution, err := queryInt(r, "resolution", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		left, err := queryFloat(r, "left", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		right, err := queryFloat(r, "right", 1)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		samples, err := svc.Samples(chi.URLParam(r, "name"), resolution, float32(left), float32(right))
		if err != nil {
			writeError(w, err)
			return
		}

		colors := make([]string, len(samples))
		for i, c := range samples {
			colors[i] = hexColor(c)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"resolution": len(samples),
			"left":       left,
			"right":      right,
			"colors":     colors,
		})
	}
}

func stripHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		width, err := queryInt(r, "width", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		height, err := queryInt(r, "height", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data, err := svc.Strip(chi.URLParam(r, "name"), width, height)
		switch {
		case errors.Is(err, store.ErrNotFound), errors.Is(err, service.ErrInvalidArgument):
			writeError(w, err)
			return
		case err != nil:
			// Return empty strip on render errors
			data, _ = svc.EmptyStrip(width, height)
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(data)
	}
}

var exportContentTypes = map[string]string{
	"tfi":   "application/xml",
	"lut":   "text/plain; charset=utf-8",
	"table": "text/plain; charset=utf-8",
	"png":   "image/png",
}

func exportHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		ext := strings.ToLower(chi.URLParam(r, "ext"))
		width, err := queryInt(r, "width", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		// Encode fully before writing so errors still get a status code
		var buf bytes.Buffer
		if err := svc.Export(name, ext, width, &buf); err != nil {
			writeError(w, err)
			return
		}

		contentType, ok := exportContentTypes[ext]
		if !ok {
			contentType = "application/octet-stream"
		}
		disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name + "." + ext})
		if disposition != "" {
			w.Header().Set("Content-Disposition", disposition)
		} else {
			w.Header().Set("Content-Disposition", "attachment")
		}
		w.Header().Set("Content-Type", contentType)
		buf.WriteTo(w)
	}
}

func mappingHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("value") == "" {
			http.Error(w, "missing required query param: value", http.StatusBadRequest)
			return
		}
		value, err := queryFloat(r, "value", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		m, err := svc.Map(chi.URLParam(r, "name"), value)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"value":      m.Value,
			"normalized": m.Normalized,
			"color":      hexColor(m.Color),
		})
	}
}

func meanHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start, err := queryFloat(r, "start", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		end, err := queryFloat(r, "end", 1)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		mean, err := svc.Mean(chi.URLParam(r, "name"), float32(start), float32(end))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"start": start,
			"end":   end,
			"mean":  mean,
		})
	}
}

func listColormapsHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"colormaps": svc.Colormaps()})
	}
}

// colormapHandler previews a preset as evenly spaced colors.
func colormapHandler(svc *service.TransFuncService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resolution, err := queryInt(r, "resolution", 0)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		name := chi.URLParam(r, "colormap")
		samples, err := svc.ColormapSamples(name, resolution)
		if err != nil {
			writeError(w, err)
			return
		}

		colors := make([]string, len(samples))
		for i, c := range samples {
			colors[i] = hexColor(c)
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"name":       name,
			"resolution": len(samples),
			"colors":     colors,
		})
	}
}
