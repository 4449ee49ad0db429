package model

// SyncError records one entity that could not be reconciled. The batch
// carries on; errors are aggregated here instead of propagating.
type SyncError struct {
	Subject string `json:"subject"`
	Reason  string `json:"reason"`
}

// SyncSummary is the result of one reconciliation pass.
type SyncSummary struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Skipped int         `json:"skipped"`
	Errors  []SyncError `json:"errors"`
}

// ErrorSample returns at most n errors for display. The full list stays in
// the summary for logging.
func (s SyncSummary) ErrorSample(n int) []SyncError {
	if len(s.Errors) <= n {
		return s.Errors
	}
	return s.Errors[:n]
}

// CleanupSummary is the result of an orphan cleanup pass, local or remote.
type CleanupSummary struct {
	Deleted int         `json:"deleted"`
	Errors  []SyncError `json:"errors"`
}

// ResetSummary is the result of a link-reset pass.
type ResetSummary struct {
	Cleared int `json:"cleared"`
	Skipped int `json:"skipped"`
}
