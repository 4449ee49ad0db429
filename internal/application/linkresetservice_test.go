package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teskilatapp/credsync/internal/domain/model"
)

func TestReset_ClearsLinkedRecordsOnly(t *testing.T) {
	records := newFakeRecordStore()
	svc := NewLinkResetService(records, nil)

	seedObserverRecord(t, records, "o-1", "1001", "ext-1")
	seedObserverRecord(t, records, "o-2", "1002", "")
	seedObserverRecord(t, records, "o-3", "1003", "ext-3")

	summary, err := svc.Reset(context.Background(), model.UserTypeObserver)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Cleared)
	assert.Equal(t, 1, summary.Skipped)

	all, err := records.ListAll(context.Background())
	require.NoError(t, err)
	for _, rec := range all {
		assert.Empty(t, rec.ExternalAccountID)
	}
}

func TestReset_AllTypesWhenUnscoped(t *testing.T) {
	records := newFakeRecordStore()
	svc := NewLinkResetService(records, nil)

	seedObserverRecord(t, records, "o-1", "1001", "ext-1")
	_, err := records.Create(context.Background(), model.CredentialRecord{
		Username: "12345678901", Password: "123456",
		UserType: model.UserTypeMember, SubjectRef: "m-1",
		ExternalAccountID: "ext-2",
	})
	require.NoError(t, err)

	summary, err := svc.Reset(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Cleared)
	assert.Equal(t, 0, summary.Skipped)
}

func TestReset_EmptyStore(t *testing.T) {
	records := newFakeRecordStore()
	svc := NewLinkResetService(records, nil)

	summary, err := svc.Reset(context.Background(), model.UserTypeMember)

	require.NoError(t, err)
	assert.Equal(t, model.ResetSummary{}, summary)
}
