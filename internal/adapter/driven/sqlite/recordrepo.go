package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
	"github.com/teskilatapp/credsync/internal/secretbox"
)

// Compile-time interface satisfaction check.
var _ driven.RecordStore = (*RecordRepo)(nil)

// RecordRepo is the SQLite implementation of the RecordStore port.
// Passwords are encrypted with the secretbox codec before write and
// decrypted after read; the domain boundary only ever sees plaintext.
type RecordRepo struct {
	db    *DB
	codec *secretbox.Codec // nil when encryption is disabled
}

// NewRecordRepo creates a RecordRepo. codec may be nil to disable password
// encryption, in which case every operation returns ErrEncryptionKeyNotSet.
func NewRecordRepo(db *DB, codec *secretbox.Codec) *RecordRepo {
	return &RecordRepo{db: db, codec: codec}
}

const recordColumns = `id, username, password, user_type, subject_ref, is_active, external_account_id, display_name, updated_at`

// GetByUsername retrieves a record by username. Returns (nil, nil) when no
// record exists.
func (r *RecordRepo) GetByUsername(ctx context.Context, username string) (*model.CredentialRecord, error) {
	if r.codec == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	query := `SELECT ` + recordColumns + ` FROM credential_records WHERE username = ? LIMIT 1`
	rec, err := r.scanRecord(r.db.Reader.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by username %q: %w", username, err)
	}
	return rec, nil
}

// GetBySubject retrieves the record owned by a subject within a user type.
// Returns (nil, nil) when no record exists.
func (r *RecordRepo) GetBySubject(ctx context.Context, userType model.UserType, subjectRef string) (*model.CredentialRecord, error) {
	if r.codec == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	query := `SELECT ` + recordColumns + ` FROM credential_records WHERE user_type = ? AND subject_ref = ? LIMIT 1`
	rec, err := r.scanRecord(r.db.Reader.QueryRowContext(ctx, query, string(userType), subjectRef))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record by subject %s/%s: %w", userType, subjectRef, err)
	}
	return rec, nil
}

// ListByType returns all records of the given user type, ordered by username.
func (r *RecordRepo) ListByType(ctx context.Context, userType model.UserType) ([]model.CredentialRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM credential_records WHERE user_type = ? ORDER BY username`
	return r.queryRecords(ctx, query, string(userType))
}

// ListAll returns every stored record, ordered by user type then username.
func (r *RecordRepo) ListAll(ctx context.Context) ([]model.CredentialRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM credential_records ORDER BY user_type, username`
	return r.queryRecords(ctx, query)
}

// Create inserts a new record with its password encrypted at rest.
func (r *RecordRepo) Create(ctx context.Context, rec model.CredentialRecord) (int64, error) {
	if r.codec == nil {
		return 0, driven.ErrEncryptionKeyNotSet
	}

	encrypted, err := r.codec.Encrypt(rec.Password)
	if err != nil {
		return 0, fmt.Errorf("encrypt password for %q: %w", rec.Username, err)
	}

	isActive := 0
	if rec.IsActive {
		isActive = 1
	}

	const query = `
		INSERT INTO credential_records (username, password, user_type, subject_ref, is_active, external_account_id, display_name, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := r.db.Writer.ExecContext(ctx, query,
		rec.Username, encrypted, string(rec.UserType), rec.SubjectRef,
		isActive, rec.ExternalAccountID, rec.DisplayName,
	)
	if err != nil {
		return 0, fmt.Errorf("create record %q: %w", rec.Username, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("record id for %q: %w", rec.Username, err)
	}
	return id, nil
}

// Patch applies a partial update, writing only the fields set on the patch.
// A password in the patch is encrypted before write.
func (r *RecordRepo) Patch(ctx context.Context, id int64, patch model.RecordPatch) error {
	if patch.IsZero() {
		return nil
	}

	var sets []string
	var args []any

	if patch.DisplayName != nil {
		sets = append(sets, "display_name = ?")
		args = append(args, *patch.DisplayName)
	}
	if patch.SubjectRef != nil {
		sets = append(sets, "subject_ref = ?")
		args = append(args, *patch.SubjectRef)
	}
	if patch.Password != nil {
		if r.codec == nil {
			return driven.ErrEncryptionKeyNotSet
		}
		encrypted, err := r.codec.Encrypt(*patch.Password)
		if err != nil {
			return fmt.Errorf("encrypt password for record %d: %w", id, err)
		}
		sets = append(sets, "password = ?")
		args = append(args, encrypted)
	}
	if patch.ExternalAccountID != nil {
		sets = append(sets, "external_account_id = ?")
		args = append(args, *patch.ExternalAccountID)
	}
	if patch.IsActive != nil {
		isActive := 0
		if *patch.IsActive {
			isActive = 1
		}
		sets = append(sets, "is_active = ?")
		args = append(args, isActive)
	}

	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	query := "UPDATE credential_records SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := r.db.Writer.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("patch record %d: %w", id, err)
	}
	return nil
}

// Delete removes a record by id. Deleting a missing record is not an error.
func (r *RecordRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM credential_records WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete record %d: %w", id, err)
	}
	return nil
}

// ClearExternalID removes the identity-service linkage from a record.
func (r *RecordRepo) ClearExternalID(ctx context.Context, id int64) error {
	const query = `UPDATE credential_records SET external_account_id = '', updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("clear external id on record %d: %w", id, err)
	}
	return nil
}

func (r *RecordRepo) queryRecords(ctx context.Context, query string, args ...any) ([]model.CredentialRecord, error) {
	if r.codec == nil {
		return nil, driven.ErrEncryptionKeyNotSet
	}

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []model.CredentialRecord
	for rows.Next() {
		rec, err := r.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return records, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RecordRepo) scanRecord(row rowScanner) (*model.CredentialRecord, error) {
	var rec model.CredentialRecord
	var userType, password, updatedAt string
	var isActive int

	if err := row.Scan(&rec.ID, &rec.Username, &password, &userType, &rec.SubjectRef,
		&isActive, &rec.ExternalAccountID, &rec.DisplayName, &updatedAt); err != nil {
		return nil, err
	}

	rec.UserType = model.UserType(userType)
	rec.IsActive = isActive != 0
	// Tolerant decryption: plaintext rows imported from older data pass
	// through unchanged.
	rec.Password = r.codec.DecryptValue(password)

	t, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	rec.UpdatedAt = t

	return &rec, nil
}
