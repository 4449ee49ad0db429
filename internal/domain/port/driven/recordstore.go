// Package driven defines the driven ports (outbound dependencies) of the
// credential reconciliation core: the record store, the external identity
// service, and the privileged backend API.
package driven

import (
	"context"
	"errors"

	"github.com/teskilatapp/credsync/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by store operations when
// CREDSYNC_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set CREDSYNC_SECRET_KEY")

// RecordStore defines the driven port for credential record persistence.
// The adapter layer is responsible for encrypting passwords at rest; this
// interface operates on plaintext values at the domain boundary.
type RecordStore interface {
	// GetByUsername retrieves a record by its unique username.
	// Returns (nil, nil) when no record exists.
	GetByUsername(ctx context.Context, username string) (*model.CredentialRecord, error)

	// GetBySubject retrieves the record owned by the given subject within a
	// user type. Returns (nil, nil) when no record exists.
	GetBySubject(ctx context.Context, userType model.UserType, subjectRef string) (*model.CredentialRecord, error)

	// ListByType returns all records of the given user type, ordered by username.
	ListByType(ctx context.Context, userType model.UserType) ([]model.CredentialRecord, error)

	// ListAll returns every stored record, ordered by user type then username.
	ListAll(ctx context.Context) ([]model.CredentialRecord, error)

	// Create inserts a new record and returns its assigned id.
	Create(ctx context.Context, rec model.CredentialRecord) (int64, error)

	// Patch applies a partial update; nil patch fields are left untouched.
	Patch(ctx context.Context, id int64, patch model.RecordPatch) error

	// Delete removes a record by id. Deleting a missing record is not an error.
	Delete(ctx context.Context, id int64) error

	// ClearExternalID removes the identity-service linkage from a record.
	ClearExternalID(ctx context.Context, id int64) error
}

// EntityStore defines read access to the source entities that credentials
// are derived from. Secret attributes (national id, phone) are decrypted by
// the adapter before they cross this boundary.
type EntityStore interface {
	ListMembers(ctx context.Context) ([]model.Member, error)
	ListDistrictOfficials(ctx context.Context) ([]model.DistrictOfficial, error)
	ListTownOfficials(ctx context.Context) ([]model.TownOfficial, error)

	// ListObservers returns all observers, chief or not.
	ListObservers(ctx context.Context) ([]model.Observer, error)

	// ListChiefObservers returns only observers currently flagged chief --
	// the eligible set for observer credentials.
	ListChiefObservers(ctx context.Context) ([]model.Observer, error)
}
