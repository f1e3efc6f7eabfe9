package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ciops/alertdesk/pkg/types"
	"github.com/ciops/alertdesk/server/internal/ack"
	"github.com/ciops/alertdesk/server/internal/filter"
	"github.com/ciops/alertdesk/server/internal/ingest"
	"github.com/ciops/alertdesk/server/internal/journal"
	"github.com/ciops/alertdesk/server/internal/metrics"
	"github.com/ciops/alertdesk/server/internal/notify"
	"github.com/ciops/alertdesk/server/internal/search"
	"github.com/ciops/alertdesk/server/internal/store"
)

// maxBodySize caps request bodies.
const maxBodySize = 64 << 10

// Deps are the collaborators the API serves from.
type Deps struct {
	Alerts   AlertReader
	Tracker  Acknowledger
	Bindings *notify.Bindings
	Journal  *journal.Journal
	Ingest   Ingester
	Exporter Exporter // nil means UnimplementedExporter
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
type Handler struct {
	d   Deps
	mux *http.ServeMux
}

// New creates a Handler and registers all routes.
func New(d Deps) http.Handler {
	if d.Exporter == nil {
		d.Exporter = UnimplementedExporter{}
	}
	h := &Handler{d: d, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/alerts", h.listAlerts)
	h.mux.HandleFunc("/api/v1/alerts/", h.alert) // subtree: {id} and {id}/ack
	h.mux.HandleFunc("/api/v1/metrics", h.metrics)
	h.mux.HandleFunc("/api/v1/teams", h.teams)
	h.mux.HandleFunc("/api/v1/webhooks", h.listWebhooks)
	h.mux.HandleFunc("/api/v1/webhooks/", h.webhook) // subtree: {team}
	h.mux.HandleFunc("/api/v1/notifications", h.notifications)
	h.mux.HandleFunc("/api/v1/refresh", h.refresh)
	h.mux.HandleFunc("/api/v1/status/error", h.dismissError)
	h.mux.HandleFunc("/api/v1/search", h.search)
	h.mux.HandleFunc("/api/v1/export", h.export)
	h.mux.HandleFunc("/api/v1/snapshot", h.snapshot)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// BuildSnapshot assembles the dashboard snapshot served at /api/v1/snapshot
// and pushed on the stream.
func BuildSnapshot(alerts AlertReader, in Ingester) types.SnapshotResponse {
	list := alerts.List()
	s := types.SnapshotResponse{
		Alerts:      list,
		Metrics:     metrics.Aggregate(list),
		Teams:       alerts.Teams(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if in != nil {
		s.Ingest = in.Status()
	}
	return s
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: ingestion status and the tile counts.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	st := h.d.Ingest.Status()
	resp := types.HealthResponse{
		Ingest:  st,
		Metrics: metrics.Aggregate(h.d.Alerts.List()),
	}
	switch {
	case st.LastSuccess == nil:
		resp.State = "unknown"
	case st.LastError != "":
		resp.State = "degraded"
	default:
		resp.State = "ok"
	}
	jsonResp(w, http.StatusOK, resp)
}

// listAlerts returns GET /api/v1/alerts: the filtered table with the tile
// counts computed over the unfiltered set.
func (h *Handler) listAlerts(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	all := h.d.Alerts.List()
	filtered := filter.Apply(all, filter.FromValues(r.URL.Query()))
	jsonResp(w, http.StatusOK, types.AlertsResponse{
		Alerts:        filtered,
		TotalFiltered: len(filtered),
		Metrics:       metrics.Aggregate(all),
	})
}

// alert serves GET /api/v1/alerts/{id} and POST /api/v1/alerts/{id}/ack.
func (h *Handler) alert(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
	if rest == "" {
		h.listAlerts(w, r)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/ack"); ok && id != "" {
		h.acknowledge(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}

	if !allow(w, r, http.MethodGet) {
		return
	}
	a, ok := h.d.Alerts.Get(rest)
	if !ok {
		jsonErr(w, http.StatusNotFound, "alert not found")
		return
	}
	jsonResp(w, http.StatusOK, a)
}

func (h *Handler) acknowledge(w http.ResponseWriter, r *http.Request, id string) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	receipt, err := h.d.Tracker.Acknowledge(r.Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonErr(w, http.StatusNotFound, "alert not found")
		return
	case errors.Is(err, ack.ErrAlreadyAcknowledged):
		jsonErr(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		slog.Error("api: acknowledge failed", "alert_id", id, "err", err)
		jsonErr(w, http.StatusInternalServerError, "acknowledge failed")
		return
	}
	jsonResp(w, http.StatusOK, types.AckResponse{
		Alert:        receipt.Alert,
		Notification: receipt.Notification,
	})
}

// metrics returns GET /api/v1/metrics.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, metrics.Aggregate(h.d.Alerts.List()))
}

// teams returns GET /api/v1/teams.
func (h *Handler) teams(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, h.d.Alerts.Teams())
}

// listWebhooks returns GET /api/v1/webhooks with URLs redacted.
func (h *Handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	list := h.d.Bindings.List()
	for i := range list {
		list[i].URL = notify.Redact(list[i].URL)
	}
	jsonResp(w, http.StatusOK, list)
}

// webhook serves PUT and DELETE /api/v1/webhooks/{team}.
func (h *Handler) webhook(w http.ResponseWriter, r *http.Request) {
	team := strings.TrimPrefix(r.URL.Path, "/api/v1/webhooks/")
	if team == "" {
		h.listWebhooks(w, r)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req webhookRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
			jsonErr(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		binding := types.WebhookBinding{Team: team, URL: notify.Redact(req.URL)}
		var err error
		if team == defaultTeam {
			if req.URL == "" {
				jsonErr(w, http.StatusBadRequest, "url is required")
				return
			}
			err = h.d.Bindings.SetDefault(req.URL)
			binding.Team, binding.Default = "", true
		} else {
			err = h.d.Bindings.Set(team, req.URL)
		}
		if err != nil {
			jsonErr(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Info("api: webhook binding set", "team", team, "endpoint", binding.URL)
		jsonResp(w, http.StatusOK, binding)

	case http.MethodDelete:
		if team == defaultTeam {
			if h.d.Bindings.Default() == "" {
				jsonErr(w, http.StatusNotFound, "no default binding")
				return
			}
			h.d.Bindings.SetDefault("") //nolint:errcheck // clearing never fails
		} else if !h.d.Bindings.Remove(team) {
			jsonErr(w, http.StatusNotFound, "binding not found")
			return
		}
		slog.Info("api: webhook binding removed", "team", team)
		w.WriteHeader(http.StatusNoContent)

	default:
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// notifications returns GET /api/v1/notifications?limit=n, newest first.
func (h *Handler) notifications(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, h.d.Journal.Recent(limit))
}

// refresh serves POST /api/v1/refresh: a synchronous refetch.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	if _, err := h.d.Ingest.Refresh(r.Context()); err != nil && !errors.Is(err, ingest.ErrSuperseded) {
		jsonErr(w, http.StatusBadGateway, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, h.d.Ingest.Status())
}

// dismissError serves DELETE /api/v1/status/error.
func (h *Handler) dismissError(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodDelete) {
		return
	}
	h.d.Ingest.DismissError()
	w.WriteHeader(http.StatusNoContent)
}

// search returns GET /api/v1/search?q=...&limit=n.
func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		jsonErr(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResp(w, http.StatusOK, search.Alerts(h.d.Alerts.List(), q, limit))
}

// export serves GET /api/v1/export?format=csv|xlsx plus the alert filters.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	q := r.URL.Query()
	format := strings.ToLower(q.Get("format"))
	if format == "" {
		format = "csv"
	}
	if !exportFormats[format] {
		jsonErr(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q: want csv|xlsx", format))
		return
	}

	alerts := filter.Apply(h.d.Alerts.List(), filter.FromValues(q))
	body, contentType, err := h.d.Exporter.Export(r.Context(), format, alerts)
	if errors.Is(err, ErrExportNotImplemented) {
		jsonErr(w, http.StatusNotImplemented, err.Error())
		return
	}
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="alerts.%s"`, format))
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck
}

// snapshot returns GET /api/v1/snapshot.
func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	jsonResp(w, http.StatusOK, BuildSnapshot(h.d.Alerts, h.d.Ingest))
}

// --- helpers ----------------------------------------------------------------

// allow writes 405 and returns false unless r uses method.
func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func intParam(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return n, nil
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, types.ErrorResponse{Error: msg})
}
