package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"github.com/go-chi/chi/v5"
)

var errUnsupported = errors.New("unsupported message type")

// APIHandler serves the public bank view and the admin back office.
type APIHandler struct {
	service    *app.AssessmentService
	accessCode string
	probe      *app.SyncTracker
	logger     *slog.Logger
}

func NewAPIHandler(service *app.AssessmentService, accessCode string, logger *slog.Logger) *APIHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &APIHandler{
		service:    service,
		accessCode: accessCode,
		probe:      app.NewSyncTracker(nil),
		logger:     logger,
	}
}

// RegisterRoutes registers bank and admin routes.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/bank", h.GetBank)
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAccessCode(h.accessCode))
			r.Get("/results", h.ListResults)
			r.Delete("/results/{id}", h.DeleteResult)
			r.Post("/results/{id}/sync", h.SyncResult)
			r.Get("/settings", h.GetSettings)
			r.Put("/settings", h.PutSettings)
			r.Post("/settings/test", h.TestSettings)
			r.Get("/sessions", h.Sessions)
		})
	})
}

// RequireAccessCode gates routes behind the X-Admin-Code header, compared
// trimmed and case-insensitively.
func RequireAccessCode(code string) func(http.Handler) http.Handler {
	want := strings.ToUpper(strings.TrimSpace(code))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := strings.ToUpper(strings.TrimSpace(r.Header.Get("X-Admin-Code")))
			if want == "" || got != want {
				Error(w, http.StatusUnauthorized, "invalid access code")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetBank returns the active bank without its answer key.
func (h *APIHandler) GetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.service.Bank(r.Context())
	if err != nil {
		h.logger.Error("load bank", "error", err)
		Error(w, http.StatusServiceUnavailable, "question bank unavailable")
		return
	}
	questions := make([]domain.PublicQuestion, 0, bank.Len())
	for _, q := range bank.Questions {
		questions = append(questions, q.Public())
	}
	JSON(w, http.StatusOK, map[string]any{
		"id":              bank.ID,
		"timePerQuestion": bank.TimePerQuestion,
		"questions":       questions,
	})
}

type resultView struct {
	domain.StoredResult
	Passed bool `json:"passed"`
}

// ListResults returns stored results, newest first.
func (h *APIHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	stored := h.service.Results().List()
	out := make([]resultView, 0, len(stored))
	for _, res := range stored {
		out = append(out, resultView{StoredResult: res, Passed: res.Passed()})
	}
	JSON(w, http.StatusOK, out)
}

// DeleteResult removes a stored result; requires ?confirm=true.
func (h *APIHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	confirm := func() bool { return r.URL.Query().Get("confirm") == "true" }
	err := h.service.Results().Delete(r.Context(), id, confirm)
	switch {
	case errors.Is(err, domain.ErrDeleteNotConfirmed):
		Error(w, http.StatusPreconditionRequired, err.Error())
	case err != nil:
		h.logger.Error("delete result", "id", id, "error", err)
		Error(w, http.StatusInternalServerError, "delete failed")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// SyncResult re-sends a stored result to the webhook.
func (h *APIHandler) SyncResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tracker := app.NewSyncTracker(nil)
	err := h.service.ResendResult(r.Context(), id, tracker)
	switch {
	case errors.Is(err, domain.ErrResultNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case err != nil && !isTransportFailure(err):
		Error(w, http.StatusInternalServerError, err.Error())
	default:
		JSON(w, http.StatusOK, syncPayload{Status: tracker.State()})
	}
}

// GetSettings returns the active webhook configuration.
func (h *APIHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.service.Settings().Settings())
}

// PutSettings replaces the webhook configuration.
func (h *APIHandler) PutSettings(w http.ResponseWriter, r *http.Request) {
	var settings domain.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		Error(w, http.StatusBadRequest, "invalid settings payload")
		return
	}
	settings.WebhookURL = strings.TrimSpace(settings.WebhookURL)
	if err := h.service.Settings().Save(r.Context(), settings); err != nil {
		h.logger.Error("save settings", "error", err)
		Error(w, http.StatusInternalServerError, "save failed")
		return
	}
	JSON(w, http.StatusOK, settings)
}

// TestSettings sends a TEST_CONNECTION probe to the configured webhook.
func (h *APIHandler) TestSettings(w http.ResponseWriter, r *http.Request) {
	err := h.service.TestConnection(r.Context(), h.probe)
	switch {
	case errors.Is(err, domain.ErrEndpointNotConfigured):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrSyncInFlight):
		Error(w, http.StatusConflict, err.Error())
	case err != nil && !isTransportFailure(err):
		Error(w, http.StatusInternalServerError, err.Error())
	default:
		JSON(w, http.StatusOK, syncPayload{Status: h.probe.State()})
	}
}

// Sessions reports the number of live candidate sessions.
func (h *APIHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]int{"active": h.service.ActiveSessions()})
}

// JSON writes a JSON response.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// isTransportFailure reports a webhook send that failed locally; the tracker
// already carries it as SyncError.
func isTransportFailure(err error) bool {
	var te *app.DispatchError
	return errors.As(err, &te)
}
