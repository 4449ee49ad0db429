package driven

import (
	"context"
	"errors"

	"github.com/teskilatapp/credsync/internal/domain/model"
)

// ErrDuplicateAccount is returned by CreateAccount when the identity service
// already holds an account for the email. Callers treat this as success.
var ErrDuplicateAccount = errors.New("identity service: account already exists")

// IdentityProvider defines the driven port for the external email/password
// identity service.
//
// The underlying service keeps an ambient "currently authenticated caller"
// and its account-creation API switches that caller to the new account as a
// side effect. The port surfaces the caller as an explicit model.Session so
// the engine can capture the administrative session before a batch and
// restore it after every creation.
type IdentityProvider interface {
	// SignIn authenticates with email and password and makes the resulting
	// session the current caller.
	SignIn(ctx context.Context, email, password string) (model.Session, error)

	// CreateAccount creates an email/password account and returns its
	// external id. Returns ErrDuplicateAccount (with an empty id) when the
	// account already exists. On success the current caller may have
	// switched to the new account; callers must Restore afterwards.
	CreateAccount(ctx context.Context, email, password string) (string, error)

	// CurrentSession returns the session of the current caller.
	CurrentSession() model.Session

	// Restore re-establishes the given session as the current caller.
	Restore(ctx context.Context, s model.Session) error
}
