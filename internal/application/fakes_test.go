package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.RecordStore      = (*fakeRecordStore)(nil)
	_ driven.IdentityProvider = (*fakeIdentity)(nil)
	_ driven.AdminAPI         = (*fakeAdminAPI)(nil)
)

// fakeRecordStore is an in-memory RecordStore used by service tests.
type fakeRecordStore struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]model.CredentialRecord

	createErr error
	patchErr  error
	listErr   error
	deleteErr error

	patches []model.RecordPatch
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: map[int64]model.CredentialRecord{}}
}

func (f *fakeRecordStore) GetByUsername(_ context.Context, username string) (*model.CredentialRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.Username == username {
			r := rec
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordStore) GetBySubject(_ context.Context, userType model.UserType, subjectRef string) (*model.CredentialRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.UserType == userType && rec.SubjectRef == subjectRef {
			r := rec
			return &r, nil
		}
	}
	return nil, nil
}

func (f *fakeRecordStore) ListByType(_ context.Context, userType model.UserType) ([]model.CredentialRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.CredentialRecord
	for id := int64(1); id <= f.nextID; id++ {
		if rec, ok := f.records[id]; ok && rec.UserType == userType {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) ListAll(_ context.Context) ([]model.CredentialRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.CredentialRecord
	for id := int64(1); id <= f.nextID; id++ {
		if rec, ok := f.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) Create(_ context.Context, rec model.CredentialRecord) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	rec.ID = f.nextID
	f.records[rec.ID] = rec
	return rec.ID, nil
}

func (f *fakeRecordStore) Patch(_ context.Context, id int64, patch model.RecordPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return f.patchErr
	}
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	if patch.DisplayName != nil {
		rec.DisplayName = *patch.DisplayName
	}
	if patch.SubjectRef != nil {
		rec.SubjectRef = *patch.SubjectRef
	}
	if patch.Password != nil {
		rec.Password = *patch.Password
	}
	if patch.ExternalAccountID != nil {
		rec.ExternalAccountID = *patch.ExternalAccountID
	}
	if patch.IsActive != nil {
		rec.IsActive = *patch.IsActive
	}
	f.records[id] = rec
	f.patches = append(f.patches, patch)
	return nil
}

func (f *fakeRecordStore) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.records, id)
	return nil
}

func (f *fakeRecordStore) ClearExternalID(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return fmt.Errorf("record %d not found", id)
	}
	rec.ExternalAccountID = ""
	f.records[id] = rec
	return nil
}

func (f *fakeRecordStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// fakeIdentity simulates the external identity service, including the
// caller-switching side effect of account creation.
type fakeIdentity struct {
	mu       sync.Mutex
	current  model.Session
	accounts map[string]string // email -> external id
	nextID   int

	createErr  error
	restoreErr error

	restoreCalls int
}

func newFakeIdentity(adminEmail string) *fakeIdentity {
	return &fakeIdentity{
		current:  model.Session{Token: "admin-token", AccountEmail: adminEmail},
		accounts: map[string]string{},
	}
}

func (f *fakeIdentity) SignIn(_ context.Context, email, _ string) (model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = model.Session{Token: "token-" + email, AccountEmail: email}
	return f.current, nil
}

func (f *fakeIdentity) CreateAccount(_ context.Context, email, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	if _, exists := f.accounts[email]; exists {
		return "", driven.ErrDuplicateAccount
	}
	f.nextID++
	id := fmt.Sprintf("ext-%d", f.nextID)
	f.accounts[email] = id
	// Mimic the real service: signup switches the active caller.
	f.current = model.Session{Token: "token-" + email, AccountEmail: email}
	return id, nil
}

func (f *fakeIdentity) CurrentSession() model.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeIdentity) Restore(_ context.Context, s model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restoreCalls++
	if f.restoreErr != nil {
		return f.restoreErr
	}
	f.current = s
	return nil
}

// fakeAdminAPI simulates the privileged backend collaborator.
type fakeAdminAPI struct {
	mu         sync.Mutex
	cleanup    model.CleanupSummary
	cleanupErr error
	deleteErr  error

	deleted   []string
	deletedCh chan string
}

func newFakeAdminAPI() *fakeAdminAPI {
	return &fakeAdminAPI{deletedCh: make(chan string, 16)}
}

func (f *fakeAdminAPI) CleanupOrphanAccounts(_ context.Context) (model.CleanupSummary, error) {
	if f.cleanupErr != nil {
		return model.CleanupSummary{}, f.cleanupErr
	}
	return f.cleanup, nil
}

func (f *fakeAdminAPI) DeleteAccount(_ context.Context, externalID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		f.deletedCh <- "error:" + externalID
		return f.deleteErr
	}
	f.deleted = append(f.deleted, externalID)
	f.deletedCh <- externalID
	return nil
}
