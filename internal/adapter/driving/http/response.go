package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/teskilatapp/credsync/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SyncResponse is the JSON summary of a reconciliation pass. Severity
// escalates from "ok" to "warning" when any entity errored; ErrorSample is
// capped for display while the full list goes to the log.
type SyncResponse struct {
	Severity    string            `json:"severity"`
	Created     int               `json:"created"`
	Updated     int               `json:"updated"`
	Skipped     int               `json:"skipped"`
	ErrorCount  int               `json:"error_count"`
	ErrorSample []model.SyncError `json:"error_sample"`
}

func toSyncResponse(s model.SyncSummary) SyncResponse {
	return SyncResponse{
		Severity:    severityFor(len(s.Errors)),
		Created:     s.Created,
		Updated:     s.Updated,
		Skipped:     s.Skipped,
		ErrorCount:  len(s.Errors),
		ErrorSample: s.ErrorSample(errorSampleSize),
	}
}

// CleanupResponse is the JSON summary of an orphan cleanup pass.
type CleanupResponse struct {
	Severity    string            `json:"severity"`
	Deleted     int               `json:"deleted"`
	ErrorCount  int               `json:"error_count"`
	ErrorSample []model.SyncError `json:"error_sample"`
}

func toCleanupResponse(s model.CleanupSummary) CleanupResponse {
	sample := s.Errors
	if len(sample) > errorSampleSize {
		sample = sample[:errorSampleSize]
	}
	return CleanupResponse{
		Severity:    severityFor(len(s.Errors)),
		Deleted:     s.Deleted,
		ErrorCount:  len(s.Errors),
		ErrorSample: sample,
	}
}

func severityFor(errorCount int) string {
	if errorCount > 0 {
		return "warning"
	}
	return "ok"
}

// RecordResponse is the JSON representation of a credential record. The
// password is deliberately absent.
type RecordResponse struct {
	ID                int64  `json:"id"`
	Username          string `json:"username"`
	UserType          string `json:"user_type"`
	SubjectRef        string `json:"subject_ref"`
	IsActive          bool   `json:"is_active"`
	ExternalAccountID string `json:"external_account_id,omitempty"`
	DisplayName       string `json:"display_name"`
	UpdatedAt         string `json:"updated_at"`
}

func toRecordResponse(rec model.CredentialRecord) RecordResponse {
	return RecordResponse{
		ID:                rec.ID,
		Username:          rec.Username,
		UserType:          string(rec.UserType),
		SubjectRef:        rec.SubjectRef,
		IsActive:          rec.IsActive,
		ExternalAccountID: rec.ExternalAccountID,
		DisplayName:       rec.DisplayName,
		UpdatedAt:         rec.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// HealthResponse is the JSON body of the health endpoint.
type HealthResponse struct {
	Status       string         `json:"status"`
	RecordCounts map[string]int `json:"record_counts"`
}
