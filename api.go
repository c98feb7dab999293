// CLAUDE:SUMMARY HTTP surface: chi routes for report reads, audit queries, and on-demand commands.
package vigil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/vigil/internal/kit"
)

// Routes returns the HTTP surface of the service. Pipeline flakiness never
// surfaces on GET /report: readers always get the last good report or the
// no-data sentinel.
func (svc *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(kitContext)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, map[string]string{"status": "ok"})
	})

	r.Get("/report", func(w http.ResponseWriter, r *http.Request) {
		doc := svc.Report(r.Context())
		switch format := r.URL.Query().Get("format"); format {
		case "", "json":
			writeJSON(w, 200, doc)
		case "text":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(200)
			io.WriteString(w, renderText(doc, svc.username))
		case "html":
			html, err := renderHTML(doc, svc.username)
			if err != nil {
				writeError(w, 500, err)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(200)
			io.WriteString(w, html)
		default:
			writeError(w, 400, fmt.Errorf("unknown format %q", format))
		}
	})

	r.Get("/report/history", func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 20)
		recs, err := svc.History(r.Context(), limit)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if recs == nil {
			recs = []*ReportRecord{}
		}
		writeJSON(w, 200, recs)
	})

	r.Get("/cycles", func(w http.ResponseWriter, r *http.Request) {
		limit := queryInt(r, "limit", 50)
		recs, err := svc.Cycles(r.Context(), limit)
		if err != nil {
			writeError(w, 500, err)
			return
		}
		if recs == nil {
			recs = []*CycleRecord{}
		}
		writeJSON(w, 200, recs)
	})

	r.Get("/cycles/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.CycleCounts(r.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, stats)
	})

	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, 200, svc.Stats())
	})

	r.Post("/cycle", func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.CycleNow(r.Context())
		switch {
		case errors.Is(err, ErrBusy):
			writeError(w, 409, err)
		case err != nil:
			writeError(w, 500, err)
		default:
			writeJSON(w, 200, map[string]any{"status": "ok", "cycle": rec})
		}
	})

	r.Post("/summarize", func(w http.ResponseWriter, r *http.Request) {
		doc, err := svc.SummarizeNow(r.Context())
		switch {
		case err == nil:
			writeJSON(w, 202, map[string]any{"status": "triggered", "report": doc})
		case errors.Is(err, ErrBusy):
			writeJSON(w, 202, map[string]string{"status": "skipped"})
		case errors.Is(err, ErrNothingToSummarize):
			writeJSON(w, 202, map[string]string{"status": "skipped", "reason": "nothing to summarize"})
		default:
			writeError(w, 500, err)
		}
	})

	return r
}

// kitContext mirrors chi's request ID into the kit context and marks the
// transport so command logs can tell HTTP calls from MCP ones.
func kitContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := kit.WithTransport(r.Context(), "http")
		ctx = kit.WithRequestID(ctx, middleware.GetReqID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
