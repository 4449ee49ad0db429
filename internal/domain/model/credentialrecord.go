package model

import "time"

// CredentialRecord is the stored login credential derived from a source
// entity. Password is plaintext at the domain boundary; the sqlite adapter
// encrypts it at rest.
type CredentialRecord struct {
	ID                int64
	Username          string
	Password          string
	UserType          UserType
	SubjectRef        string
	IsActive          bool
	ExternalAccountID string // empty when the identity-service link is absent
	DisplayName       string
	UpdatedAt         time.Time
}

// RecordPatch is a partial update of a credential record. Nil fields are
// left untouched so a diff-driven update writes only what actually changed.
type RecordPatch struct {
	DisplayName       *string
	SubjectRef        *string
	Password          *string
	ExternalAccountID *string
	IsActive          *bool
}

// IsZero reports whether the patch would change nothing.
func (p RecordPatch) IsZero() bool {
	return p.DisplayName == nil &&
		p.SubjectRef == nil &&
		p.Password == nil &&
		p.ExternalAccountID == nil &&
		p.IsActive == nil
}

// Session is the explicit caller context for the identity service. The
// identity provider's account-creation API can switch the active caller to
// the newly created account, so the engine captures the administrative
// session before a batch and restores it after every risky mutation.
type Session struct {
	Token        string
	AccountEmail string
}

// IsZero reports whether the session carries no caller.
func (s Session) IsZero() bool { return s.Token == "" }
