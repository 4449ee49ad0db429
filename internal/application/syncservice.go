package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// ProgressFunc receives (done, total) after each entity is fully processed.
type ProgressFunc func(done, total int)

// SyncRequest describes one reconciliation pass over a candidate entity set
// of a single user type.
type SyncRequest struct {
	UserType model.UserType
	Entities []model.Entity

	// Progress is optional; nil disables progress reporting.
	Progress ProgressFunc
}

// SyncService is the reconciliation engine. It keeps the record store and
// the identity service consistent with the source entities: creating
// accounts and records for entities seen for the first time, patching
// records whose derived fields drifted, and skipping the rest.
//
// Processing is strictly sequential. The identity service's account
// creation can switch the active caller to the new account, so the admin
// session is captured up front, restored after every creation, and restored
// once more when the batch ends.
type SyncService struct {
	records  driven.RecordStore
	identity driven.IdentityProvider
	domain   string // synthesized email domain
	logger   *slog.Logger
}

// NewSyncService creates a SyncService with all required dependencies.
// domain is the synthetic email domain appended to generated usernames.
func NewSyncService(records driven.RecordStore, identity driven.IdentityProvider, domain string, logger *slog.Logger) *SyncService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncService{
		records:  records,
		identity: identity,
		domain:   domain,
		logger:   logger,
	}
}

// Sync runs one full reconciliation pass. Per-entity failures are folded
// into the summary; nothing propagates as an error. Entities are processed
// in input order, one at a time, because each lookup depends on the writes
// of the previous entity and the admin session must be re-established
// before the next identity call.
func (s *SyncService) Sync(ctx context.Context, req SyncRequest) model.SyncSummary {
	start := time.Now()
	var summary model.SyncSummary

	admin := s.identity.CurrentSession()
	defer s.restoreSession(ctx, admin, &summary)

	total := len(req.Entities)
	for i, entity := range req.Entities {
		if ctx.Err() != nil {
			summary.Errors = append(summary.Errors, model.SyncError{
				Subject: entity.SubjectRef(),
				Reason:  ctx.Err().Error(),
			})
			continue
		}

		s.syncOne(ctx, req.UserType, entity, admin, &summary)

		if req.Progress != nil {
			req.Progress(i+1, total)
		}
	}

	s.logger.Info("sync pass complete",
		"user_type", string(req.UserType),
		"candidates", total,
		"created", summary.Created,
		"updated", summary.Updated,
		"skipped", summary.Skipped,
		"errors", len(summary.Errors),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	for _, e := range summary.Errors {
		s.logger.Error("sync entity failed", "user_type", string(req.UserType), "subject", e.Subject, "reason", e.Reason)
	}

	return summary
}

// syncOne reconciles a single entity. The stored password may be updated
// when the source attributes change, but the identity-service account
// password is deliberately left alone: propagation is one-way by policy,
// and pushing password changes upstream requires privileged access the
// core does not hold.
func (s *SyncService) syncOne(ctx context.Context, userType model.UserType, entity model.Entity, admin model.Session, summary *model.SyncSummary) {
	subject := entity.SubjectRef()

	creds, err := GenerateCredentials(entity)
	if err != nil {
		summary.Errors = append(summary.Errors, model.SyncError{Subject: subject, Reason: err.Error()})
		return
	}

	existing, err := s.lookup(ctx, userType, creds.Username, subject)
	if err != nil {
		summary.Errors = append(summary.Errors, model.SyncError{Subject: subject, Reason: err.Error()})
		return
	}

	if existing == nil {
		s.createOne(ctx, userType, entity, creds, admin, summary)
		return
	}

	patch := diffRecord(*existing, entity, creds)
	if patch.IsZero() {
		summary.Skipped++
		return
	}

	if err := s.records.Patch(ctx, existing.ID, patch); err != nil {
		summary.Errors = append(summary.Errors, model.SyncError{Subject: subject, Reason: err.Error()})
		return
	}
	summary.Updated++
}

// lookup finds an existing record by username first, then by subject
// reference. Either match counts as found.
func (s *SyncService) lookup(ctx context.Context, userType model.UserType, username, subject string) (*model.CredentialRecord, error) {
	rec, err := s.records.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		return rec, nil
	}
	return s.records.GetBySubject(ctx, userType, subject)
}

// createOne provisions the identity-service account and the credential
// record for a first-seen entity. An already-existing account is success:
// the record is created without an external id and a later link pass can
// attach one.
func (s *SyncService) createOne(ctx context.Context, userType model.UserType, entity model.Entity, creds Credentials, admin model.Session, summary *model.SyncSummary) {
	subject := entity.SubjectRef()

	externalID, err := s.identity.CreateAccount(ctx, creds.Email(s.domain), creds.Password)
	switch {
	case errors.Is(err, driven.ErrDuplicateAccount):
		externalID = ""
	case err != nil:
		summary.Errors = append(summary.Errors, model.SyncError{Subject: subject, Reason: err.Error()})
		return
	default:
		// Account creation may have switched the active caller to the new
		// account. Recover the admin session before any further call.
		if err := s.identity.Restore(ctx, admin); err != nil {
			summary.Errors = append(summary.Errors, model.SyncError{
				Subject: subject,
				Reason:  "session restore failed: " + err.Error(),
			})
			s.logger.Warn("admin session restore failed, subsequent creates may be misattributed",
				"subject", subject, "error", err)
		}
	}

	rec := model.CredentialRecord{
		Username:          creds.Username,
		Password:          creds.Password,
		UserType:          userType,
		SubjectRef:        subject,
		IsActive:          true,
		ExternalAccountID: externalID,
		DisplayName:       entity.DisplayName(),
	}
	if _, err := s.records.Create(ctx, rec); err != nil {
		summary.Errors = append(summary.Errors, model.SyncError{Subject: subject, Reason: err.Error()})
		return
	}
	summary.Created++
}

// restoreSession re-establishes the admin caller at batch end regardless of
// per-entity outcomes.
func (s *SyncService) restoreSession(ctx context.Context, admin model.Session, summary *model.SyncSummary) {
	if admin.IsZero() {
		return
	}
	if err := s.identity.Restore(ctx, admin); err != nil {
		s.logger.Warn("final admin session restore failed", "error", err)
		summary.Errors = append(summary.Errors, model.SyncError{
			Subject: admin.AccountEmail,
			Reason:  "session restore failed: " + err.Error(),
		})
	}
}

// diffRecord computes the partial update needed to bring a stored record in
// line with the entity's current attributes. Only display name, subject
// reference, and password participate; the external account id is managed
// by the create and link-reset paths.
func diffRecord(rec model.CredentialRecord, entity model.Entity, creds Credentials) model.RecordPatch {
	var patch model.RecordPatch

	if name := entity.DisplayName(); rec.DisplayName != name {
		patch.DisplayName = &name
	}
	if subject := entity.SubjectRef(); rec.SubjectRef != subject {
		patch.SubjectRef = &subject
	}
	if rec.Password != creds.Password {
		patch.Password = &creds.Password
	}

	return patch
}
