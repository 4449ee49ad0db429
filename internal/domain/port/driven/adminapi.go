package driven

import (
	"context"
	"errors"

	"github.com/teskilatapp/credsync/internal/domain/model"
)

// ErrRemoteUnavailable is returned when the privileged backend cannot be
// reached or does not answer within the configured deadline. Callers degrade
// to a partial result instead of failing the whole operation.
var ErrRemoteUnavailable = errors.New("backend unavailable")

// AdminAPI defines the driven port for the privileged backend collaborator.
// Enumerating or deleting identity-service accounts requires elevated
// access; the core only issues these requests and interprets the results.
type AdminAPI interface {
	// CleanupOrphanAccounts asks the backend to enumerate all synthesized
	// accounts, compare them against the stored credential records, and
	// delete those with no matching record. The protected administrative
	// account is never deleted. Returns ErrRemoteUnavailable on timeout.
	CleanupOrphanAccounts(ctx context.Context) (model.CleanupSummary, error)

	// DeleteAccount deletes a single identity-service account by external
	// id. Used best-effort when a credential record is removed locally.
	DeleteAccount(ctx context.Context, externalID string) error
}
