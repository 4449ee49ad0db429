package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// linkedDeleteTimeout bounds the detached best-effort deletion of a linked
// identity-service account after its record is removed locally.
const linkedDeleteTimeout = 10 * time.Second

// OrphanService removes stale credentials in two directions: locally, by
// deleting records whose subject fell out of the eligible entity set, and
// remotely, by delegating privileged account enumeration and deletion to
// the backend collaborator.
type OrphanService struct {
	records driven.RecordStore
	backend driven.AdminAPI
	logger  *slog.Logger
}

// NewOrphanService creates an OrphanService with all required dependencies.
func NewOrphanService(records driven.RecordStore, backend driven.AdminAPI, logger *slog.Logger) *OrphanService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrphanService{
		records: records,
		backend: backend,
		logger:  logger,
	}
}

// CleanupLocal deletes every record of the given type whose subject is not
// in the eligible set. Each deleted record's linked identity-service account
// is deleted best-effort on a detached goroutine: the outcome is logged but
// never affects the summary, and the primary pass does not wait for it.
func (s *OrphanService) CleanupLocal(ctx context.Context, userType model.UserType, eligible []model.Entity) model.CleanupSummary {
	var summary model.CleanupSummary

	eligibleSet := make(map[string]bool, len(eligible))
	for _, e := range eligible {
		eligibleSet[e.SubjectRef()] = true
	}

	records, err := s.records.ListByType(ctx, userType)
	if err != nil {
		summary.Errors = append(summary.Errors, model.SyncError{Reason: err.Error()})
		return summary
	}

	for _, rec := range records {
		if eligibleSet[rec.SubjectRef] {
			continue
		}

		if err := s.records.Delete(ctx, rec.ID); err != nil {
			summary.Errors = append(summary.Errors, model.SyncError{Subject: rec.SubjectRef, Reason: err.Error()})
			continue
		}
		summary.Deleted++
		s.logger.Info("deleted ineligible credential record",
			"user_type", string(userType),
			"subject", rec.SubjectRef,
			"username", rec.Username,
		)

		if rec.ExternalAccountID != "" {
			go s.deleteLinkedAccount(rec.ExternalAccountID, rec.Username)
		}
	}

	return summary
}

// deleteLinkedAccount runs outside the primary pass with its own deadline.
func (s *OrphanService) deleteLinkedAccount(externalID, username string) {
	ctx, cancel := context.WithTimeout(context.Background(), linkedDeleteTimeout)
	defer cancel()

	if err := s.backend.DeleteAccount(ctx, externalID); err != nil {
		s.logger.Warn("best-effort linked account delete failed",
			"external_id", externalID,
			"username", username,
			"error", err,
		)
		return
	}
	s.logger.Info("linked account deleted", "external_id", externalID, "username", username)
}

// CleanupRemote asks the backend collaborator to enumerate identity-service
// accounts and delete those with no matching record. On timeout or
// connection failure it returns driven.ErrRemoteUnavailable; callers report
// a degraded result instead of failing.
func (s *OrphanService) CleanupRemote(ctx context.Context) (model.CleanupSummary, error) {
	summary, err := s.backend.CleanupOrphanAccounts(ctx)
	if err != nil {
		return model.CleanupSummary{}, err
	}

	s.logger.Info("remote orphan cleanup complete",
		"deleted", summary.Deleted,
		"errors", len(summary.Errors),
	)
	return summary, nil
}
