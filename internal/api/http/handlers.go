package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"

	"github.com/jekabolt/grbpwr-analytics/internal/entity"
	clientid "github.com/jekabolt/grbpwr-analytics/internal/middleware"
)

const defaultRunsLimit = 20

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if _, err := s.svc.Snapshot(); err != nil {
		status = "no_snapshot"
	}
	renderJSON(w, r, map[string]string{"status": status})
}

func (s *Server) latencyStats(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, r, s.latency.Stats())
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.Snapshot()
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, snap)
}

func (s *Server) reload(w http.ResponseWriter, r *http.Request) {
	ip := clientid.GetClientIP(r.Context())
	if err := s.reloads.Check(ip); err != nil {
		renderError(w, r, err)
		return
	}
	snap, err := s.svc.Reload(r.Context())
	if err != nil {
		renderError(w, r, err)
		return
	}
	slog.Default().InfoContext(r.Context(), "snapshot reloaded",
		slog.String("snapshot_id", snap.ID.String()),
		slog.String("client_ip", ip),
		slog.String("client_session", clientid.GetClientSession(r.Context())),
	)
	renderJSON(w, r, snap)
}

func (s *Server) runs(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			render.Render(w, r, ErrInvalidRequest(fmt.Errorf("limit must be a positive integer, got %q", v)))
			return
		}
		limit = n
	}
	runs, err := s.svc.Runs(r.Context(), limit)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, runs)
}

func (s *Server) options(w http.ResponseWriter, r *http.Request) {
	opts, err := s.svc.Options()
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, opts)
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		renderError(w, r, err)
		return
	}
	g, err := parseGranularity(q)
	if err != nil {
		renderError(w, r, err)
		return
	}
	d, err := s.svc.Compute(r.Context(), spec, g)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, d)
}

func (s *Server) zone(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query())
	if err != nil {
		renderError(w, r, err)
		return
	}
	dd, err := s.svc.DrillDown(r.Context(), spec, chi.URLParam(r, "zone"))
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, dd)
}

func (s *Server) whatIf(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		renderError(w, r, err)
		return
	}
	target, err := parseDecimal(q, "target", true, decimal.Zero)
	if err != nil {
		renderError(w, r, err)
		return
	}
	p, err := s.svc.WhatIf(r.Context(), spec, target)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, p)
}

func (s *Server) sweep(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilter(r.URL.Query())
	if err != nil {
		renderError(w, r, err)
		return
	}
	rows, err := s.svc.Sweep(r.Context(), spec)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, rows)
}

func (s *Server) scenario(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := parseFilter(q)
	if err != nil {
		renderError(w, r, err)
		return
	}
	var levers entity.ScenarioLevers
	if levers.CancelReduction, err = parseDecimal(q, "cancel_reduction", false, decimal.Zero); err != nil {
		renderError(w, r, err)
		return
	}
	if levers.DeliveryImprovement, err = parseDecimal(q, "delivery_improvement", false, decimal.Zero); err != nil {
		renderError(w, r, err)
		return
	}
	res, err := s.svc.Scenario(r.Context(), spec, levers)
	if err != nil {
		renderError(w, r, err)
		return
	}
	renderJSON(w, r, res)
}
