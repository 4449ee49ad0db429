package application

import (
	"context"
	"log/slog"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// LinkResetService strips the stored identity-service linkage from
// credential records so a following sync pass re-links or re-creates the
// accounts cleanly. It never calls the identity service itself.
type LinkResetService struct {
	records driven.RecordStore
	logger  *slog.Logger
}

// NewLinkResetService creates a LinkResetService.
func NewLinkResetService(records driven.RecordStore, logger *slog.Logger) *LinkResetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkResetService{records: records, logger: logger}
}

// Reset clears the external account id on every record of the given type,
// or on all records when userType is empty. Records with no linkage count
// as skipped.
func (s *LinkResetService) Reset(ctx context.Context, userType model.UserType) (model.ResetSummary, error) {
	var summary model.ResetSummary

	var records []model.CredentialRecord
	var err error
	if userType == "" {
		records, err = s.records.ListAll(ctx)
	} else {
		records, err = s.records.ListByType(ctx, userType)
	}
	if err != nil {
		return model.ResetSummary{}, err
	}

	for _, rec := range records {
		if rec.ExternalAccountID == "" {
			summary.Skipped++
			continue
		}
		if err := s.records.ClearExternalID(ctx, rec.ID); err != nil {
			return summary, err
		}
		summary.Cleared++
	}

	s.logger.Info("link reset complete",
		"user_type", string(userType),
		"cleared", summary.Cleared,
		"skipped", summary.Skipped,
	)
	return summary, nil
}
