// Package httphandler is the HTTP driving adapter that serves the REST API.
package httphandler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/teskilatapp/credsync/internal/application"
	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// errorSampleSize caps how many per-entity reasons appear in API responses.
// The full list is always written to the log.
const errorSampleSize = 5

// Handler serves the administrative REST API: triggering reconciliation and
// cleanup passes and inspecting stored credential records.
type Handler struct {
	records   driven.RecordStore
	entities  driven.EntityStore
	syncSvc   *application.SyncService
	orphanSvc *application.OrphanService
	resetSvc  *application.LinkResetService
	healthSvc *application.HealthService
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	records driven.RecordStore,
	entities driven.EntityStore,
	syncSvc *application.SyncService,
	orphanSvc *application.OrphanService,
	resetSvc *application.LinkResetService,
	healthSvc *application.HealthService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		records:   records,
		entities:  entities,
		syncSvc:   syncSvc,
		orphanSvc: orphanSvc,
		resetSvc:  resetSvc,
		healthSvc: healthSvc,
		logger:    logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/sync/{userType}", h.RunSync)
	mux.HandleFunc("POST /api/v1/orphans/local/{userType}", h.RunLocalCleanup)
	mux.HandleFunc("POST /api/v1/orphans/remote", h.RunRemoteCleanup)
	mux.HandleFunc("POST /api/v1/links/reset", h.RunLinkReset)
	mux.HandleFunc("GET /api/v1/records", h.ListRecords)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// RunSync runs one reconciliation pass for the user type in the path.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	userType, err := model.ParseUserType(r.PathValue("userType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entities, err := h.loadEntities(r, userType)
	if err != nil {
		h.logger.Error("failed to load entities", "user_type", string(userType), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	summary := h.syncSvc.Sync(r.Context(), application.SyncRequest{
		UserType: userType,
		Entities: entities,
	})

	writeJSON(w, http.StatusOK, toSyncResponse(summary))
}

// RunLocalCleanup deletes records whose subject fell out of the eligible
// entity set for the user type in the path.
func (h *Handler) RunLocalCleanup(w http.ResponseWriter, r *http.Request) {
	userType, err := model.ParseUserType(r.PathValue("userType"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	eligible, err := h.loadEntities(r, userType)
	if err != nil {
		h.logger.Error("failed to load eligible entities", "user_type", string(userType), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	summary := h.orphanSvc.CleanupLocal(r.Context(), userType, eligible)
	writeJSON(w, http.StatusOK, toCleanupResponse(summary))
}

// RunRemoteCleanup delegates orphan-account deletion to the privileged
// backend. An unreachable backend degrades to a 503, never a crash.
func (h *Handler) RunRemoteCleanup(w http.ResponseWriter, r *http.Request) {
	summary, err := h.orphanSvc.CleanupRemote(r.Context())
	if errors.Is(err, driven.ErrRemoteUnavailable) {
		writeError(w, http.StatusServiceUnavailable, "backend unavailable, try again later")
		return
	}
	if err != nil {
		h.logger.Error("remote cleanup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toCleanupResponse(summary))
}

// RunLinkReset clears the identity-service linkage on stored records. An
// optional ?type= query scopes the pass to one user type.
func (h *Handler) RunLinkReset(w http.ResponseWriter, r *http.Request) {
	var userType model.UserType
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, err := model.ParseUserType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		userType = parsed
	}

	summary, err := h.resetSvc.Reset(r.Context(), userType)
	if err != nil {
		h.logger.Error("link reset failed", "user_type", string(userType), "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// ListRecords returns stored credential records, optionally scoped by
// ?type=. Passwords never leave the server.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	var records []model.CredentialRecord
	var err error

	if raw := r.URL.Query().Get("type"); raw != "" {
		userType, parseErr := model.ParseUserType(raw)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, parseErr.Error())
			return
		}
		records, err = h.records.ListByType(r.Context(), userType)
	} else {
		records, err = h.records.ListAll(r.Context())
	}
	if err != nil {
		h.logger.Error("failed to list records", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]RecordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRecordResponse(rec))
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health reports store reachability and per-type record counts.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.healthSvc.Status(r.Context())

	code := http.StatusOK
	state := "ok"
	if !status.Healthy {
		code = http.StatusServiceUnavailable
		state = "degraded"
	}

	counts := make(map[string]int, len(status.RecordCounts))
	for ut, n := range status.RecordCounts {
		counts[string(ut)] = n
	}

	writeJSON(w, code, HealthResponse{Status: state, RecordCounts: counts})
}

// loadEntities returns the candidate entity set for a user type. Observers
// are restricted to chiefs: they are the only observer sub-type eligible
// for a credential.
func (h *Handler) loadEntities(r *http.Request, userType model.UserType) ([]model.Entity, error) {
	ctx := r.Context()

	switch userType {
	case model.UserTypeMember:
		members, err := h.entities.ListMembers(ctx)
		if err != nil {
			return nil, err
		}
		entities := make([]model.Entity, 0, len(members))
		for _, m := range members {
			entities = append(entities, m)
		}
		return entities, nil

	case model.UserTypeDistrictPresident:
		officials, err := h.entities.ListDistrictOfficials(ctx)
		if err != nil {
			return nil, err
		}
		entities := make([]model.Entity, 0, len(officials))
		for _, d := range officials {
			entities = append(entities, d)
		}
		return entities, nil

	case model.UserTypeTownPresident:
		officials, err := h.entities.ListTownOfficials(ctx)
		if err != nil {
			return nil, err
		}
		entities := make([]model.Entity, 0, len(officials))
		for _, t := range officials {
			entities = append(entities, t)
		}
		return entities, nil

	case model.UserTypeObserver:
		observers, err := h.entities.ListChiefObservers(ctx)
		if err != nil {
			return nil, err
		}
		entities := make([]model.Entity, 0, len(observers))
		for _, o := range observers {
			entities = append(entities, o)
		}
		return entities, nil

	default:
		return nil, fmt.Errorf("unhandled user type %q", userType)
	}
}
