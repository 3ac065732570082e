package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/soma-tiles/tfserver/internal/service"
	"github.com/soma-tiles/tfserver/internal/store"
	"github.com/soma-tiles/tfserver/pkg/plot"
)

// isYAML reports whether the request carries a YAML selection document.
func isYAML(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.Contains(ct, "yaml") || r.URL.Query().Get("format") == "yaml"
}

// createSelectionHandler accepts either the JSON form returned by GET or a
// YAML document as stored. Entries of unknown YAML predicate types are
// dropped and counted in the response.
func createSelectionHandler(svc *service.SelectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBodyBytes))
		if err != nil {
			http.Error(w, "failed to read body: "+err.Error(), http.StatusBadRequest)
			return
		}

		var (
			sel     *plot.Selection
			skipped int
		)
		if isYAML(r) {
			sel, err = store.DecodeSelection(bytes.NewReader(body), svc.Registry())
			var skip *plot.SkippedError
			if errors.As(err, &skip) {
				skipped, err = len(skip.Errs), nil
			}
			if err != nil {
				http.Error(w, "invalid selection document: "+err.Error(), http.StatusBadRequest)
				return
			}
		} else {
			var req selectionJSON
			if err := json.Unmarshal(body, &req); err != nil {
				http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
				return
			}
			if sel, err = req.selection(svc.Registry()); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		}

		id, err := svc.Create(sel)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"id":      id,
			"entries": sel.Len(),
			"skipped": skipped,
		})
	}
}

func listSelectionsHandler(svc *service.SelectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		infos, err := svc.List()
		if err != nil {
			writeError(w, err)
			return
		}
		if infos == nil {
			infos = []store.SelectionInfo{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"selections": infos,
		})
	}
}

func getSelectionHandler(svc *service.SelectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sel, err := svc.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}

		if r.URL.Query().Get("format") == "yaml" {
			var buf bytes.Buffer
			if err := store.EncodeSelection(&buf, sel, svc.Registry()); err != nil {
				writeError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/yaml")
			buf.WriteTo(w)
			return
		}
		writeJSON(w, http.StatusOK, newSelectionJSON(id, sel))
	}
}

func deleteSelectionHandler(svc *service.SelectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func filterHandler(svc *service.SelectionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req filterRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxFilterBodyBytes)).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}

		bm, err := svc.Filter(chi.URLParam(r, "id"), req.cells(), req.Axes.columns())
		if err != nil {
			writeError(w, err)
			return
		}
		matches := bm.ToArray()
		if matches == nil {
			matches = []uint32{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"matches": matches,
			"count":   bm.GetCardinality(),
		})
	}
}
