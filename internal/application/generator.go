// Package application contains use-case orchestration services.
package application

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/teskilatapp/credsync/internal/domain/model"
)

// minPasswordLen is the minimum generated password length; shorter passwords
// are left-padded with zeros.
const minPasswordLen = 6

// Credentials is a generated username/password pair for one entity.
type Credentials struct {
	Username string
	Password string
}

// Email synthesizes the email-shaped identifier the identity service
// requires. It is never a real mailbox.
func (c Credentials) Email(domain string) string {
	return c.Username + "@" + domain
}

// ValidationError reports a source entity missing the attribute a credential
// would be derived from. The entity is skipped, not retried.
type ValidationError struct {
	Subject string
	Field   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("entity %s: missing or invalid %s", e.Subject, e.Field)
}

// foldTransformer strips combining marks after NFD decomposition, turning
// ç/ğ/ö/ş/ü into their ASCII base letters.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// GenerateCredentials derives the deterministic (username, password) pair
// for a source entity. It is pure: no I/O, identical attributes always
// yield identical credentials.
func GenerateCredentials(e model.Entity) (Credentials, error) {
	var creds Credentials

	switch v := e.(type) {
	case model.Member:
		creds = Credentials{
			Username: digitsOnly(v.NationalID),
			Password: digitsOnly(v.Phone),
		}
		if creds.Username == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "national id"}
		}
		if creds.Password == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "phone"}
		}

	case model.DistrictOfficial:
		creds = Credentials{
			Username: foldName(v.DistrictName),
			Password: digitsOnly(v.ChairmanPhone),
		}
		if creds.Username == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "district name"}
		}
		if creds.Password == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "chairman phone"}
		}

	case model.TownOfficial:
		creds = Credentials{
			Username: foldName(v.TownName),
			Password: digitsOnly(v.ChairmanPhone),
		}
		if creds.Username == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "town name"}
		}
		if creds.Password == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "chairman phone"}
		}

	case model.Observer:
		username := digitsOnly(v.NationalID)
		if v.BallotBoxID != "" && v.BallotBoxNumber != "" {
			username = v.BallotBoxNumber
		}
		creds = Credentials{
			Username: username,
			Password: digitsOnly(v.NationalID),
		}
		if creds.Username == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "ballot box number or national id"}
		}
		if creds.Password == "" {
			return Credentials{}, &ValidationError{Subject: v.SubjectRef(), Field: "national id"}
		}

	default:
		return Credentials{}, fmt.Errorf("unsupported entity type %T", e)
	}

	creds.Password = padPassword(creds.Password)
	return creds, nil
}

// digitsOnly strips every non-digit rune, tolerating formatted phone
// numbers and national ids arriving with spaces or punctuation.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// foldName normalizes an organization name into a username: lowercase,
// regional diacritics folded to ASCII, all non-alphanumerics stripped.
func foldName(name string) string {
	lowered := strings.ToLower(name)
	// The dotless ı is a standalone letter, not a combining form, so the
	// NFD pass does not touch it.
	lowered = strings.ReplaceAll(lowered, "ı", "i")

	folded, _, err := transform.String(foldTransformer, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// padPassword left-pads with zeros up to the minimum length.
func padPassword(p string) string {
	if len(p) >= minPasswordLen {
		return p
	}
	return strings.Repeat("0", minPasswordLen-len(p)) + p
}
